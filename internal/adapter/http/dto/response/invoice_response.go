package response

import (
	"time"

	"hospital_billing/internal/domain/billing"
	"hospital_billing/internal/domain/entities"

	"github.com/shopspring/decimal"
)

// Money is rendered with exactly two fraction digits ("1250.00").

type LineItemResponse struct {
	Description string `json:"description"`
	Category    string `json:"category"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	TaxRate     string `json:"tax_rate"`
	Amount      string `json:"amount"`
	LineTax     string `json:"line_tax"`
}

type InvoiceResponse struct {
	ID            string             `json:"id"`
	PatientID     string             `json:"patient_id"`
	Items         []LineItemResponse `json:"items"`
	Subtotal      string             `json:"subtotal"`
	TotalTax      string             `json:"total_tax"`
	Discount      string             `json:"discount"`
	TotalAmount   string             `json:"total_amount"`
	AmountPaid    string             `json:"amount_paid"`
	BalanceDue    string             `json:"balance_due"`
	PaymentStatus string             `json:"payment_status"`
	PaymentMethod string             `json:"payment_method,omitempty"`
	Version       int64              `json:"version"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

type ItemTotalsResponse struct {
	Amount  string `json:"amount"`
	LineTax string `json:"line_tax"`
}

type QuoteResponse struct {
	Subtotal    string               `json:"subtotal"`
	TotalTax    string               `json:"total_tax"`
	Discount    string               `json:"discount"`
	TotalAmount string               `json:"total_amount"`
	Items       []ItemTotalsResponse `json:"items"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(billing.MoneyPlaces)
}

func FromInvoice(inv entities.Invoice) InvoiceResponse {
	items := make([]LineItemResponse, len(inv.Items))
	for i, it := range inv.Items {
		items[i] = LineItemResponse{
			Description: it.Description,
			Category:    string(it.Category),
			Quantity:    it.Quantity,
			UnitPrice:   money(it.UnitPrice),
			TaxRate:     it.TaxRate.String(),
			Amount:      money(it.Amount),
			LineTax:     money(it.LineTax),
		}
	}
	return InvoiceResponse{
		ID:            inv.ID,
		PatientID:     inv.PatientID,
		Items:         items,
		Subtotal:      money(inv.Subtotal),
		TotalTax:      money(inv.TotalTax),
		Discount:      money(inv.Discount),
		TotalAmount:   money(inv.TotalAmount),
		AmountPaid:    money(inv.AmountPaid),
		BalanceDue:    money(inv.BalanceDue),
		PaymentStatus: string(inv.PaymentStatus),
		PaymentMethod: string(inv.PaymentMethod),
		Version:       inv.Version,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
}

func FromInvoices(invs []entities.Invoice) []InvoiceResponse {
	out := make([]InvoiceResponse, 0, len(invs))
	for _, inv := range invs {
		out = append(out, FromInvoice(inv))
	}
	return out
}

func FromTotals(t billing.Totals) QuoteResponse {
	items := make([]ItemTotalsResponse, len(t.PerItem))
	for i, it := range t.PerItem {
		items[i] = ItemTotalsResponse{Amount: money(it.Amount), LineTax: money(it.LineTax)}
	}
	return QuoteResponse{
		Subtotal:    money(t.Subtotal),
		TotalTax:    money(t.TotalTax),
		Discount:    money(t.Discount),
		TotalAmount: money(t.TotalAmount),
		Items:       items,
	}
}
