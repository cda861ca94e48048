package response

import (
	"encoding/json"
	"testing"
	"time"

	"hospital_billing/internal/domain/billing"
	"hospital_billing/internal/domain/entities"

	"github.com/shopspring/decimal"
)

func TestFromInvoice(t *testing.T) {
	inv, err := billing.NewInvoice([]entities.LineItem{
		{Description: "Consultation", Category: entities.CategoryConsultation, Quantity: 1, UnitPrice: decimal.NewFromInt(500)},
		{Description: "Lab test", Category: entities.CategoryLabTest, Quantity: 2, UnitPrice: decimal.NewFromInt(250)},
		{Description: "Medicine", Category: entities.CategoryMedicine, Quantity: 3, UnitPrice: decimal.NewFromInt(100)},
	}, decimal.NewFromInt(50), decimal.NewFromInt(500), billing.Policy{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	now := time.Now().UTC()
	inv.ID = "inv-1"
	inv.PatientID = "pat-1"
	inv.Version = 2
	inv.CreatedAt = now
	inv.UpdatedAt = now

	res := FromInvoice(inv)
	if res.ID != "inv-1" || res.PatientID != "pat-1" || res.Version != 2 {
		t.Fatalf("unexpected identity fields: %+v", res)
	}
	if res.Subtotal != "1300.00" || res.Discount != "50.00" || res.TotalAmount != "1250.00" || res.AmountPaid != "500.00" || res.BalanceDue != "750.00" {
		t.Fatalf("unexpected money fields: %+v", res)
	}
	if res.PaymentStatus != "partial" {
		t.Fatalf("expected partial, got %q", res.PaymentStatus)
	}
	if len(res.Items) != 3 || res.Items[1].Amount != "500.00" || res.Items[1].LineTax != "0.00" {
		t.Fatalf("unexpected items: %+v", res.Items)
	}
	if !res.CreatedAt.Equal(now) {
		t.Fatalf("unexpected dates: %+v", res)
	}

	b, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var raw map[string]any
	_ = json.Unmarshal(b, &raw)
	if raw["total_amount"] != "1250.00" {
		t.Fatalf("money must be serialized as a fixed-2 string, got %v", raw["total_amount"])
	}
}

func TestFromTotals(t *testing.T) {
	totals, err := billing.ComputeTotals([]entities.LineItem{
		{Description: "Room", Category: entities.CategoryRoom, Quantity: 3, UnitPrice: decimal.RequireFromString("3.335"), TaxRate: decimal.RequireFromString("0.18")},
	}, decimal.Zero, billing.Policy{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res := FromTotals(totals)
	if res.Subtotal != "10.01" || res.TotalTax != "1.80" || res.TotalAmount != "11.81" || res.Discount != "0.00" {
		t.Fatalf("unexpected totals: %+v", res)
	}
	if len(res.Items) != 1 || res.Items[0].Amount != "10.01" {
		t.Fatalf("unexpected items: %+v", res.Items)
	}
}

func TestFromPayment(t *testing.T) {
	now := time.Now().UTC()
	p := entities.Payment{
		ID:                "pay-1",
		InvoiceID:         "inv-1",
		Amount:            decimal.RequireFromString("10.5"),
		Method:            entities.PaymentMethodMercadoPago,
		Date:              now,
		ProviderPaymentID: "mp-1",
		ProviderStatus:    "approved",
		Payload:           map[string]interface{}{"id": "mp-1"},
	}

	res := FromPayment(p)
	if res.ID != "pay-1" || res.InvoiceID != "inv-1" || res.Amount != "10.50" || res.Method != "mercadopago" {
		t.Fatalf("unexpected mapped fields: %+v", res)
	}
	if res.ProviderPaymentID != "mp-1" || res.ProviderPayload["id"] != "mp-1" || !res.Date.Equal(now) {
		t.Fatalf("unexpected provider fields: %+v", res)
	}
	if got := FromPayments(nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}
