package request

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// PaymentRequest applies one payment increment to an invoice.
//
// `provider_payload` is forwarded to Mercado Pago as-is (raw JSON) when method is
// mercadopago; transaction_amount and external_reference are always overwritten.

type PaymentRequest struct {
	Amount          decimal.Decimal `json:"amount" swaggertype:"string" example:"250.00"`
	Method          string          `json:"method" example:"card"`
	ProviderPayload json.RawMessage `json:"provider_payload" swaggertype:"object"`
}
