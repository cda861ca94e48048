package request

import (
	"encoding/json"
	"errors"
	"testing"

	"hospital_billing/internal/domain/billing"
	"hospital_billing/internal/domain/entities"
)

func TestToLineItems(t *testing.T) {
	var req CreateInvoiceRequest
	body := `{"patient_id":"pat-1","items":[
		{"description":"Consultation","category":" Consultation ","quantity":1,"unit_price":500},
		{"description":"Lab","category":"lab_test","quantity":"2","unit_price":"250.50","tax_rate":0.18}
	]}`
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items, err := ToLineItems(req.Items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Category != entities.CategoryConsultation || items[0].Quantity != 1 {
		t.Fatalf("unexpected first item: %+v", items[0])
	}
	if items[1].Quantity != 2 || items[1].UnitPrice.StringFixed(2) != "250.50" || items[1].TaxRate.String() != "0.18" {
		t.Fatalf("unexpected second item: %+v", items[1])
	}
}

func TestToLineItems_InvalidQuantity(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{name: "fractional", body: `[{"description":"x","category":"other","quantity":1.5,"unit_price":1}]`},
		{name: "zero", body: `[{"description":"x","category":"other","quantity":0,"unit_price":1}]`},
		{name: "missing", body: `[{"description":"x","category":"other","unit_price":1}]`},
		{name: "negative", body: `[{"description":"x","category":"other","quantity":-3,"unit_price":1}]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var items []LineItemRequest
			if err := json.Unmarshal([]byte(tc.body), &items); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			_, err := ToLineItems(items)
			if !errors.Is(err, billing.ErrInvalidQuantity) {
				t.Fatalf("expected ErrInvalidQuantity, got %v", err)
			}
			var ve *billing.ValidationError
			if !errors.As(err, &ve) || ve.Index != 0 {
				t.Fatalf("expected validation error at index 0, got %v", err)
			}
		})
	}
}
