package interfaces

import (
	"context"

	"hospital_billing/internal/domain/entities"
)

// IPaymentRepository reads payment records. Writes go through IInvoiceRepository so
// that a payment and its invoice update commit together.

type IPaymentRepository interface {
	GetByID(ctx context.Context, id string) (entities.Payment, error)
	ListByInvoiceID(ctx context.Context, invoiceID string) ([]entities.Payment, error)
}
