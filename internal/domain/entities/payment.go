package entities

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is how a payment increment was settled.
type PaymentMethod string

const (
	PaymentMethodCash        PaymentMethod = "cash"
	PaymentMethodCard        PaymentMethod = "card"
	PaymentMethodInsurance   PaymentMethod = "insurance"
	PaymentMethodMercadoPago PaymentMethod = "mercadopago"
)

// ParsePaymentMethod normalizes raw input. An empty value means cash.
func ParsePaymentMethod(raw string) (PaymentMethod, bool) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(raw)))
	if m == "" {
		return PaymentMethodCash, true
	}
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodInsurance, PaymentMethodMercadoPago:
		return m, true
	}
	return "", false
}

// Payment is one payment event applied to an invoice.
//
// Storage model (DynamoDB):
//   - PK: id
//   - GSI1 (invoice_id-index): invoice_id
//
// Provider fields are only filled for gateway-backed methods. PayloadRaw keeps the
// original provider body for traceability.
type Payment struct {
	ID        string          `json:"id"`
	InvoiceID string          `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    PaymentMethod   `json:"method"`
	Date      time.Time       `json:"date"`

	ProviderPaymentID string                 `json:"provider_payment_id,omitempty"`
	ProviderStatus    string                 `json:"provider_status,omitempty"`
	PayloadRaw        json.RawMessage        `json:"payload_raw,omitempty"`
	Payload           map[string]interface{} `json:"payload,omitempty"`
}
