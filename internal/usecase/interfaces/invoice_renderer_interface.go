package interfaces

import "hospital_billing/internal/domain/entities"

// IInvoiceRenderer turns an invoice into a printable document.
type IInvoiceRenderer interface {
	Render(inv entities.Invoice, payments []entities.Payment) ([]byte, error)
}
