package response

import (
	"time"

	"hospital_billing/internal/domain/entities"
)

type PaymentResponse struct {
	ID        string    `json:"id"`
	InvoiceID string    `json:"invoice_id"`
	Amount    string    `json:"amount"`
	Method    string    `json:"method"`
	Date      time.Time `json:"date"`

	ProviderPaymentID string                 `json:"provider_payment_id,omitempty"`
	ProviderStatus    string                 `json:"provider_status,omitempty"`
	ProviderPayload   map[string]interface{} `json:"provider_payload,omitempty"`
}

// PaymentRecordedResponse is returned after a payment: the updated invoice snapshot
// and the payment event that produced it.
type PaymentRecordedResponse struct {
	Invoice InvoiceResponse `json:"invoice"`
	Payment PaymentResponse `json:"payment"`
}

func FromPayment(p entities.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                p.ID,
		InvoiceID:         p.InvoiceID,
		Amount:            money(p.Amount),
		Method:            string(p.Method),
		Date:              p.Date,
		ProviderPaymentID: p.ProviderPaymentID,
		ProviderStatus:    p.ProviderStatus,
		ProviderPayload:   p.Payload,
	}
}

func FromPayments(ps []entities.Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, FromPayment(p))
	}
	return out
}
