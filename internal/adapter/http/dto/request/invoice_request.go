package request

import (
	"strings"

	"hospital_billing/internal/domain/billing"
	"hospital_billing/internal/domain/entities"

	"github.com/shopspring/decimal"
)

// LineItemRequest is one billable entry as sent by clients. Money fields and quantity
// accept JSON numbers or strings; quantity must be a whole number.
type LineItemRequest struct {
	Description string          `json:"description" example:"General consultation"`
	Category    string          `json:"category" example:"consultation"`
	Quantity    decimal.Decimal `json:"quantity" swaggertype:"number" example:"1"`
	UnitPrice   decimal.Decimal `json:"unit_price" swaggertype:"string" example:"500.00"`
	TaxRate     decimal.Decimal `json:"tax_rate" swaggertype:"string" example:"0.00"`
}

// QuoteRequest previews totals without creating an invoice.
type QuoteRequest struct {
	Items    []LineItemRequest `json:"items"`
	Discount decimal.Decimal   `json:"discount" swaggertype:"string" example:"50.00"`
}

// CreateInvoiceRequest creates an invoice. payment_status is never read from the
// client; it is derived from amount_paid.
type CreateInvoiceRequest struct {
	PatientID     string            `json:"patient_id" binding:"required"`
	Items         []LineItemRequest `json:"items"`
	Discount      decimal.Decimal   `json:"discount" swaggertype:"string" example:"50.00"`
	AmountPaid    decimal.Decimal   `json:"amount_paid" swaggertype:"string" example:"0.00"`
	PaymentMethod string            `json:"payment_method" example:"cash"`
}

// ToLineItems converts the request items, rejecting fractional or non-positive
// quantities with the line-item index.
func ToLineItems(items []LineItemRequest) ([]entities.LineItem, error) {
	out := make([]entities.LineItem, len(items))
	for i, it := range items {
		qty, err := billing.NormalizeQuantity(i, it.Quantity)
		if err != nil {
			return nil, err
		}
		out[i] = entities.LineItem{
			Description: it.Description,
			Category:    entities.Category(strings.ToLower(strings.TrimSpace(it.Category))),
			Quantity:    qty,
			UnitPrice:   it.UnitPrice,
			TaxRate:     it.TaxRate,
		}
	}
	return out, nil
}
