package billing

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"hospital_billing/internal/domain/entities"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func billableItems() []entities.LineItem {
	return []entities.LineItem{
		{Description: "Consultation", Category: entities.CategoryConsultation, Quantity: 2, UnitPrice: dec("250"), TaxRate: decimal.Zero},
		{Description: "X-Ray", Category: entities.CategoryLabTest, Quantity: 1, UnitPrice: dec("800"), TaxRate: decimal.Zero},
	}
}

// statusRank orders statuses along unpaid, partial, paid.
func statusRank(s entities.PaymentStatus) int {
	switch s {
	case entities.PaymentStatusPartial:
		return 1
	case entities.PaymentStatusPaid:
		return 2
	default:
		return 0
	}
}

func assertMoney(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if got.StringFixed(MoneyPlaces) != want {
		t.Fatalf("%s: expected %s, got %s", name, want, got.StringFixed(MoneyPlaces))
	}
}

func TestComputeTotals_FlatDiscount(t *testing.T) {
	totals, err := ComputeTotals(billableItems(), dec("50"), Policy{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertMoney(t, "subtotal", totals.Subtotal, "1300.00")
	assertMoney(t, "total tax", totals.TotalTax, "0.00")
	assertMoney(t, "total amount", totals.TotalAmount, "1250.00")
	if len(totals.PerItem) != 2 {
		t.Fatalf("expected 2 per-item totals, got %d", len(totals.PerItem))
	}
	assertMoney(t, "item 0 amount", totals.PerItem[0].Amount, "500.00")
	assertMoney(t, "item 1 amount", totals.PerItem[1].Amount, "800.00")
}

func TestComputeTotals_TaxAndRounding(t *testing.T) {
	items := []entities.LineItem{
		{Description: "Paracetamol", Category: entities.CategoryMedicine, Quantity: 3, UnitPrice: dec("3.335"), TaxRate: dec("0.18")},
		{Description: "Room", Category: entities.CategoryRoom, Quantity: 1, UnitPrice: dec("0.05"), TaxRate: dec("0.1")},
	}

	totals, err := ComputeTotals(items, decimal.Zero, Policy{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 3 x 3.335 = 10.005 -> 10.01 ; tax 10.01 x 0.18 = 1.8018 -> 1.80
	assertMoney(t, "item 0 amount", totals.PerItem[0].Amount, "10.01")
	assertMoney(t, "item 0 tax", totals.PerItem[0].LineTax, "1.80")
	// 0.05 x 0.1 = 0.005 -> 0.01 (half-up)
	assertMoney(t, "item 1 tax", totals.PerItem[1].LineTax, "0.01")
	assertMoney(t, "subtotal", totals.Subtotal, "10.06")
	assertMoney(t, "total tax", totals.TotalTax, "1.81")
	assertMoney(t, "total amount", totals.TotalAmount, "11.87")
}

func TestComputeTotals_Idempotent(t *testing.T) {
	items := billableItems()
	first, err := ComputeTotals(items, dec("50"), Policy{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := ComputeTotals(items, dec("50"), Policy{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results, got %+v and %+v", first, second)
	}
}

func TestComputeTotals_Errors(t *testing.T) {
	valid := entities.LineItem{Description: "Visit", Category: entities.CategoryConsultation, Quantity: 1, UnitPrice: dec("10")}

	cases := []struct {
		name     string
		items    []entities.LineItem
		discount decimal.Decimal
		want     error
		index    int
	}{
		{name: "empty", items: nil, want: ErrEmptyLineItems, index: -1},
		{name: "zero quantity", items: []entities.LineItem{valid, {Description: "x", Category: entities.CategoryOther, Quantity: 0, UnitPrice: dec("1")}}, want: ErrInvalidQuantity, index: 1},
		{name: "negative price", items: []entities.LineItem{{Description: "x", Category: entities.CategoryOther, Quantity: 1, UnitPrice: dec("-1")}}, want: ErrInvalidPrice, index: 0},
		{name: "negative tax rate", items: []entities.LineItem{{Description: "x", Category: entities.CategoryOther, Quantity: 1, UnitPrice: dec("1"), TaxRate: dec("-0.1")}}, want: ErrInvalidPrice, index: 0},
		{name: "blank description", items: []entities.LineItem{{Description: "  ", Category: entities.CategoryOther, Quantity: 1}}, want: ErrInvalidDescription, index: 0},
		{name: "unknown category", items: []entities.LineItem{{Description: "x", Category: "spa", Quantity: 1}}, want: ErrInvalidCategory, index: 0},
		{name: "negative discount", items: []entities.LineItem{valid}, discount: dec("-1"), want: ErrInvalidDiscount, index: -1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ComputeTotals(tc.items, tc.discount, Policy{})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if verr.Index != tc.index {
				t.Fatalf("expected index %d, got %d", tc.index, verr.Index)
			}
		})
	}
}

func TestComputeTotals_DiscountExceedsTotal(t *testing.T) {
	_, err := ComputeTotals(billableItems(), dec("1400"), Policy{})
	if !errors.Is(err, ErrDiscountExceedsTotal) {
		t.Fatalf("expected ErrDiscountExceedsTotal, got %v", err)
	}

	t.Run("discount equal to total is allowed", func(t *testing.T) {
		totals, err := ComputeTotals(billableItems(), dec("1300"), Policy{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertMoney(t, "total amount", totals.TotalAmount, "0.00")
	})

	t.Run("clamped when configured", func(t *testing.T) {
		totals, err := ComputeTotals(billableItems(), dec("1400"), Policy{ClampDiscount: true})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertMoney(t, "total amount", totals.TotalAmount, "0.00")
	})
}

func TestNormalizeQuantity(t *testing.T) {
	q, err := NormalizeQuantity(0, dec("3"))
	if err != nil || q != 3 {
		t.Fatalf("expected 3, got %d err=%v", q, err)
	}
	for _, raw := range []string{"0", "-2", "1.5"} {
		if _, err := NormalizeQuantity(2, dec(raw)); !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("quantity %s: expected ErrInvalidQuantity, got %v", raw, err)
		}
	}
}

func TestOutOfRangeMagnitudes(t *testing.T) {
	// Each check must return without expanding the exponent.
	within := func(t *testing.T, fn func() error, want error) {
		t.Helper()
		start := time.Now()
		err := fn()
		if elapsed := time.Since(start); elapsed > time.Second {
			t.Fatalf("rejection took %s", elapsed)
		}
		if !errors.Is(err, want) {
			t.Fatalf("expected %v, got %v", want, err)
		}
	}
	item := func(price, tax string) []entities.LineItem {
		return []entities.LineItem{{Description: "x", Category: entities.CategoryOther, Quantity: 1, UnitPrice: dec(price), TaxRate: dec(tax)}}
	}

	for _, raw := range []string{"1e30000000", "1e-30000000", "1e16"} {
		t.Run("quantity "+raw, func(t *testing.T) {
			within(t, func() error { _, err := NormalizeQuantity(0, dec(raw)); return err }, ErrInvalidQuantity)
		})
		t.Run("unit price "+raw, func(t *testing.T) {
			within(t, func() error { _, err := ComputeTotals(item(raw, "0"), decimal.Zero, Policy{}); return err }, ErrInvalidPrice)
		})
		t.Run("tax rate "+raw, func(t *testing.T) {
			within(t, func() error { _, err := ComputeTotals(item("1", raw), decimal.Zero, Policy{}); return err }, ErrInvalidPrice)
		})
		t.Run("discount "+raw, func(t *testing.T) {
			within(t, func() error { _, err := ComputeTotals(billableItems(), dec(raw), Policy{}); return err }, ErrInvalidDiscount)
		})
		t.Run("initial payment "+raw, func(t *testing.T) {
			within(t, func() error {
				_, err := NewInvoice(billableItems(), decimal.Zero, dec(raw), Policy{AllowOverpayment: true})
				return err
			}, ErrInvalidPaymentAmount)
		})
		t.Run("payment increment "+raw, func(t *testing.T) {
			inv, _ := NewInvoice(billableItems(), decimal.Zero, decimal.Zero, Policy{})
			within(t, func() error { _, err := ApplyPayment(inv, dec(raw), Policy{AllowOverpayment: true}); return err }, ErrInvalidPaymentAmount)
		})
	}

	t.Run("largest accepted values", func(t *testing.T) {
		q, err := NormalizeQuantity(0, dec("123456789012345"))
		if err != nil || q != 123456789012345 {
			t.Fatalf("expected 15-digit quantity, got %d err=%v", q, err)
		}
		if _, err := ComputeTotals(item("999999999999999.99", "0.000000000001"), decimal.Zero, Policy{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestDerivePaymentStatus(t *testing.T) {
	cases := []struct {
		total, paid string
		want        entities.PaymentStatus
	}{
		{"100.00", "0.00", entities.PaymentStatusUnpaid},
		{"100.00", "0.01", entities.PaymentStatusPartial},
		{"100.00", "99.99", entities.PaymentStatusPartial},
		{"100.00", "100.00", entities.PaymentStatusPaid},
		{"100.00", "120.00", entities.PaymentStatusPaid},
		{"0", "0", entities.PaymentStatusPaid},
	}
	for _, tc := range cases {
		if got := DerivePaymentStatus(dec(tc.total), dec(tc.paid)); got != tc.want {
			t.Fatalf("DerivePaymentStatus(%s, %s): expected %s, got %s", tc.total, tc.paid, tc.want, got)
		}
	}
}

func TestNewInvoice(t *testing.T) {
	t.Run("unpaid at creation", func(t *testing.T) {
		inv, err := NewInvoice(billableItems(), dec("50"), decimal.Zero, Policy{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertMoney(t, "balance", inv.BalanceDue, "1250.00")
		if inv.PaymentStatus != entities.PaymentStatusUnpaid {
			t.Fatalf("expected unpaid, got %s", inv.PaymentStatus)
		}
		assertMoney(t, "item 0 amount", inv.Items[0].Amount, "500.00")
		if inv.ID != "" || !inv.CreatedAt.IsZero() {
			t.Fatalf("calculator must not assign ids or timestamps: %+v", inv)
		}
	})

	t.Run("negative initial payment", func(t *testing.T) {
		_, err := NewInvoice(billableItems(), decimal.Zero, dec("-1"), Policy{})
		if !errors.Is(err, ErrInvalidPaymentAmount) {
			t.Fatalf("expected ErrInvalidPaymentAmount, got %v", err)
		}
	})

	t.Run("initial overpayment", func(t *testing.T) {
		_, err := NewInvoice(billableItems(), decimal.Zero, dec("1300.01"), Policy{})
		if !errors.Is(err, ErrOverpaymentNotAllowed) {
			t.Fatalf("expected ErrOverpaymentNotAllowed, got %v", err)
		}
	})

	t.Run("does not alias caller items", func(t *testing.T) {
		items := billableItems()
		inv, err := NewInvoice(items, decimal.Zero, decimal.Zero, Policy{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !items[0].Amount.IsZero() {
			t.Fatalf("input items must not be modified")
		}
		items[0].Description = "changed"
		if inv.Items[0].Description == "changed" {
			t.Fatalf("invoice items alias the input")
		}
	})
}

func TestApplyPayment_FullPaymentSettles(t *testing.T) {
	inv, _ := NewInvoice(billableItems(), dec("50"), decimal.Zero, Policy{})

	paid, err := ApplyPayment(inv, dec("1250.00"), Policy{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertMoney(t, "amount paid", paid.AmountPaid, "1250.00")
	assertMoney(t, "balance", paid.BalanceDue, "0.00")
	if paid.PaymentStatus != entities.PaymentStatusPaid {
		t.Fatalf("expected paid, got %s", paid.PaymentStatus)
	}
}

func TestApplyPayment_SplitPaymentsAddUp(t *testing.T) {
	inv, _ := NewInvoice(billableItems(), dec("50"), decimal.Zero, Policy{})
	once, _ := ApplyPayment(inv, dec("1250.00"), Policy{})

	step, err := ApplyPayment(inv, dec("500.00"), Policy{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if step.PaymentStatus != entities.PaymentStatusPartial {
		t.Fatalf("expected partial after first increment, got %s", step.PaymentStatus)
	}
	twice, err := ApplyPayment(step, dec("750.00"), Policy{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertMoney(t, "amount paid", twice.AmountPaid, once.AmountPaid.StringFixed(MoneyPlaces))
	assertMoney(t, "balance", twice.BalanceDue, once.BalanceDue.StringFixed(MoneyPlaces))
	assertMoney(t, "total", twice.TotalAmount, once.TotalAmount.StringFixed(MoneyPlaces))
	if twice.PaymentStatus != once.PaymentStatus || len(twice.Items) != len(once.Items) {
		t.Fatalf("expected identical final states:\n%+v\n%+v", once, twice)
	}
}

func TestApplyPayment_NegativeIncrementRejected(t *testing.T) {
	inv, _ := NewInvoice(billableItems(), dec("50"), decimal.Zero, Policy{})
	before := inv

	for _, raw := range []string{"-100", "0", "0.001"} {
		_, err := ApplyPayment(inv, dec(raw), Policy{})
		if !errors.Is(err, ErrInvalidPaymentAmount) {
			t.Fatalf("increment %s: expected ErrInvalidPaymentAmount, got %v", raw, err)
		}
	}
	if !reflect.DeepEqual(before, inv) {
		t.Fatalf("invoice changed after rejected payments")
	}
}

func TestApplyPayment_Overpayment(t *testing.T) {
	inv, _ := NewInvoice(billableItems(), dec("50"), dec("1000"), Policy{})

	_, err := ApplyPayment(inv, dec("250.01"), Policy{})
	if !errors.Is(err, ErrOverpaymentNotAllowed) {
		t.Fatalf("expected ErrOverpaymentNotAllowed, got %v", err)
	}
	assertMoney(t, "amount paid unchanged", inv.AmountPaid, "1000.00")

	over, err := ApplyPayment(inv, dec("300"), Policy{AllowOverpayment: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertMoney(t, "balance", over.BalanceDue, "-50.00")
	if over.PaymentStatus != entities.PaymentStatusPaid {
		t.Fatalf("expected paid, got %s", over.PaymentStatus)
	}
}

func TestApplyPayment_MonotonicAndReconciled(t *testing.T) {
	policy := Policy{AllowOverpayment: true}
	inv, _ := NewInvoice(billableItems(), dec("50"), decimal.Zero, policy)

	prev := inv.PaymentStatus
	for _, inc := range []string{"0.01", "100", "249.99", "400", "500", "0.01", "10"} {
		next, err := ApplyPayment(inv, dec(inc), policy)
		if err != nil {
			t.Fatalf("increment %s: unexpected error: %v", inc, err)
		}
		if statusRank(next.PaymentStatus) < statusRank(prev) {
			t.Fatalf("status regressed from %s to %s", prev, next.PaymentStatus)
		}
		if !next.BalanceDue.Equal(next.TotalAmount.Sub(next.AmountPaid)) {
			t.Fatalf("balance does not reconcile: %+v", next)
		}
		prev = next.PaymentStatus
		inv = next
	}
	if prev != entities.PaymentStatusPaid {
		t.Fatalf("expected paid at the end, got %s", prev)
	}
}
