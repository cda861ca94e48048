package interfaces

import (
	"context"
	"errors"

	"hospital_billing/internal/domain/entities"
)

// ErrVersionConflict is returned by UpdatePayment when the stored version no longer
// matches the one the caller read.
var ErrVersionConflict = errors.New("invoice version conflict")

// IInvoiceRepository abstracts DynamoDB persistence for Invoice.
//
// The billing-service must be able to:
//   - create an invoice, together with the payment record of an initial payment
//   - load invoices by id and by patient
//   - apply a payment with optimistic locking on Invoice.Version, writing the
//     updated invoice and the payment record atomically

type IInvoiceRepository interface {
	Create(ctx context.Context, inv entities.Invoice, initial *entities.Payment) (entities.Invoice, error)
	GetByID(ctx context.Context, id string) (entities.Invoice, error)
	ListByPatientID(ctx context.Context, patientID string) ([]entities.Invoice, error)
	UpdatePayment(ctx context.Context, inv entities.Invoice, expectedVersion int64, p entities.Payment) (entities.Invoice, error)
}
