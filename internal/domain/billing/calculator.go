// Package billing is the invoice calculator: every total, balance and payment status
// in the service is computed here. It is pure; ids, timestamps and persistence belong
// to the callers.
package billing

import (
	"strings"

	"hospital_billing/internal/domain/entities"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of fraction digits kept for every currency value.
const MoneyPlaces int32 = 2

// Decoded decimals carry an arbitrary int32 exponent. Values outside these bounds are
// rejected before any arithmetic, since rounding or converting them expands 10^exponent.
const (
	maxIntegerDigits  = 15
	maxFractionDigits = 12
)

// Policy holds the configurable parts of the billing rules.
type Policy struct {
	// AllowOverpayment lets AmountPaid exceed TotalAmount (negative balance due).
	AllowOverpayment bool
	// ClampDiscount turns a discount larger than subtotal+tax into a zero total
	// instead of rejecting it.
	ClampDiscount bool
}

// ItemTotals are the derived values of one line item.
type ItemTotals struct {
	Amount  decimal.Decimal `json:"amount"`
	LineTax decimal.Decimal `json:"line_tax"`
}

// Totals is the result of ComputeTotals. PerItem is aligned by index with the input.
type Totals struct {
	Subtotal    decimal.Decimal
	TotalTax    decimal.Decimal
	Discount    decimal.Decimal
	TotalAmount decimal.Decimal
	PerItem     []ItemTotals
}

// RoundMoney rounds half-up to MoneyPlaces. Inputs are never negative here, so
// shopspring's half-away-from-zero rounding is half-up.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// inBounds reports whether d has at most maxIntegerDigits integer digits and at most
// maxFractionDigits fraction digits. It only inspects the coefficient and exponent.
func inBounds(d decimal.Decimal) bool {
	exp := d.Exponent()
	if exp < -maxFractionDigits || exp > maxIntegerDigits {
		return false
	}
	return d.NumDigits()+int(exp) <= maxIntegerDigits
}

// ValidatePaymentAmount rejects a non-positive or out of range payment increment.
func ValidatePaymentAmount(amount decimal.Decimal) error {
	if !inBounds(amount) || !RoundMoney(amount).IsPositive() {
		return fieldError("amount", ErrInvalidPaymentAmount)
	}
	return nil
}

// NormalizeQuantity converts a decoded quantity to the integer the calculator works on.
func NormalizeQuantity(index int, q decimal.Decimal) (int64, error) {
	if !inBounds(q) || !q.IsInteger() || q.LessThan(decimal.NewFromInt(1)) {
		return 0, itemError(index, "quantity", ErrInvalidQuantity)
	}
	return q.IntPart(), nil
}

// ComputeTotals validates the line items and the discount, then derives per-item
// amounts, subtotal, total tax and total amount. It is deterministic and has no side
// effects.
func ComputeTotals(items []entities.LineItem, discount decimal.Decimal, policy Policy) (Totals, error) {
	if err := validateItems(items); err != nil {
		return Totals{}, err
	}
	if discount.IsNegative() || !inBounds(discount) {
		return Totals{}, fieldError("discount", ErrInvalidDiscount)
	}
	discount = RoundMoney(discount)

	subtotal := decimal.Zero
	totalTax := decimal.Zero
	perItem := make([]ItemTotals, len(items))
	for i, it := range items {
		amount := RoundMoney(it.UnitPrice.Mul(decimal.NewFromInt(it.Quantity)))
		lineTax := RoundMoney(amount.Mul(it.TaxRate))
		perItem[i] = ItemTotals{Amount: amount, LineTax: lineTax}
		subtotal = subtotal.Add(amount)
		totalTax = totalTax.Add(lineTax)
	}

	total := subtotal.Add(totalTax).Sub(discount)
	if total.IsNegative() {
		if !policy.ClampDiscount {
			return Totals{}, fieldError("discount", ErrDiscountExceedsTotal)
		}
		total = decimal.Zero
	}

	return Totals{
		Subtotal:    subtotal,
		TotalTax:    totalTax,
		Discount:    discount,
		TotalAmount: total,
		PerItem:     perItem,
	}, nil
}

func validateItems(items []entities.LineItem) error {
	if len(items) == 0 {
		return fieldError("items", ErrEmptyLineItems)
	}
	for i, it := range items {
		switch {
		case strings.TrimSpace(it.Description) == "":
			return itemError(i, "description", ErrInvalidDescription)
		case !it.Category.Valid():
			return itemError(i, "category", ErrInvalidCategory)
		case it.Quantity < 1:
			return itemError(i, "quantity", ErrInvalidQuantity)
		case it.UnitPrice.IsNegative() || !inBounds(it.UnitPrice):
			return itemError(i, "unit_price", ErrInvalidPrice)
		case it.TaxRate.IsNegative() || !inBounds(it.TaxRate):
			return itemError(i, "tax_rate", ErrInvalidPrice)
		}
	}
	return nil
}

// DerivePaymentStatus classifies settlement. A payment equal to the total is Paid,
// and a zero-value invoice is Paid even with nothing paid.
func DerivePaymentStatus(totalAmount, amountPaid decimal.Decimal) entities.PaymentStatus {
	switch {
	case amountPaid.GreaterThanOrEqual(totalAmount):
		return entities.PaymentStatusPaid
	case !amountPaid.IsPositive():
		return entities.PaymentStatusUnpaid
	default:
		return entities.PaymentStatusPartial
	}
}

// NewInvoice builds the initial snapshot from finalized line items, a flat discount and
// an initial payment (zero when unpaid at creation). ID, patient and timestamps are left
// for the caller.
func NewInvoice(items []entities.LineItem, discount, amountPaid decimal.Decimal, policy Policy) (entities.Invoice, error) {
	totals, err := ComputeTotals(items, discount, policy)
	if err != nil {
		return entities.Invoice{}, err
	}
	if amountPaid.IsNegative() || !inBounds(amountPaid) {
		return entities.Invoice{}, fieldError("amount_paid", ErrInvalidPaymentAmount)
	}
	amountPaid = RoundMoney(amountPaid)
	if !policy.AllowOverpayment && amountPaid.GreaterThan(totals.TotalAmount) {
		return entities.Invoice{}, fieldError("amount_paid", ErrOverpaymentNotAllowed)
	}

	lines := make([]entities.LineItem, len(items))
	for i, it := range items {
		it.Amount = totals.PerItem[i].Amount
		it.LineTax = totals.PerItem[i].LineTax
		lines[i] = it
	}

	inv := entities.Invoice{
		Items:       lines,
		Discount:    totals.Discount,
		Subtotal:    totals.Subtotal,
		TotalTax:    totals.TotalTax,
		TotalAmount: totals.TotalAmount,
		AmountPaid:  amountPaid,
	}
	return settle(inv), nil
}

// ApplyPayment adds a positive increment to AmountPaid and returns the new snapshot.
// The input is never modified, so a rejected call can be retried as is.
func ApplyPayment(inv entities.Invoice, increment decimal.Decimal, policy Policy) (entities.Invoice, error) {
	if err := ValidatePaymentAmount(increment); err != nil {
		return entities.Invoice{}, err
	}
	increment = RoundMoney(increment)

	newPaid := inv.AmountPaid.Add(increment)
	if !policy.AllowOverpayment && newPaid.GreaterThan(inv.TotalAmount) {
		return entities.Invoice{}, fieldError("amount", ErrOverpaymentNotAllowed)
	}

	out := inv
	out.Items = append([]entities.LineItem(nil), inv.Items...)
	out.AmountPaid = newPaid
	return settle(out), nil
}

func settle(inv entities.Invoice) entities.Invoice {
	inv.BalanceDue = inv.TotalAmount.Sub(inv.AmountPaid)
	inv.PaymentStatus = DerivePaymentStatus(inv.TotalAmount, inv.AmountPaid)
	return inv
}
