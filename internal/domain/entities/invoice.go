package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the settlement state of an invoice.
//
// It is always derived from (TotalAmount, AmountPaid) by the billing calculator
// and never accepted from a caller.
type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// Category classifies a billable line.
type Category string

const (
	CategoryConsultation Category = "consultation"
	CategoryProcedure    Category = "procedure"
	CategoryLabTest      Category = "lab_test"
	CategoryMedicine     Category = "medicine"
	CategoryRoom         Category = "room"
	CategoryOther        Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryConsultation, CategoryProcedure, CategoryLabTest, CategoryMedicine, CategoryRoom, CategoryOther:
		return true
	}
	return false
}

// LineItem is one billable entry (service, lab test, medicine) on an invoice.
//
// Amount and LineTax are derived by the calculator; values set by callers are ignored.
type LineItem struct {
	Description string          `json:"description"`
	Category    Category        `json:"category"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`

	Amount  decimal.Decimal `json:"amount"`
	LineTax decimal.Decimal `json:"line_tax"`
}

// Invoice is the billing record persisted by the billing-service.
//
// Storage model (DynamoDB):
//   - PK: id
//   - GSI1 (patient_id-index): patient_id
//
// Monetary representation:
//   - every amount is a decimal rounded to 2 places; at rest it is a fixed-2 string.
//
// Version is bumped on every payment and guards concurrent updates.
type Invoice struct {
	ID        string     `json:"id"`
	PatientID string     `json:"patient_id"`
	Items     []LineItem `json:"items"`

	Discount    decimal.Decimal `json:"discount"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	TotalTax    decimal.Decimal `json:"total_tax"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	AmountPaid  decimal.Decimal `json:"amount_paid"`
	BalanceDue  decimal.Decimal `json:"balance_due"`

	PaymentStatus PaymentStatus `json:"payment_status"`
	PaymentMethod PaymentMethod `json:"payment_method,omitempty"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
