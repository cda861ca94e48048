package handlers

import (
	"errors"
	"net/http"

	"hospital_billing/internal/domain/billing"
	"hospital_billing/internal/usecase"
	"hospital_billing/pkg"
)

var errInvalidRequest = pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)

// calculatorErrors gives every calculator rejection its own code so clients can tell
// them apart without parsing messages.
var calculatorErrors = []struct {
	err    error
	code   string
	msg    string
	status int
}{
	{billing.ErrEmptyLineItems, "EMPTY_LINE_ITEMS", "An invoice needs at least one line item", http.StatusBadRequest},
	{billing.ErrInvalidDescription, "INVALID_DESCRIPTION", "Line item description must not be empty", http.StatusBadRequest},
	{billing.ErrInvalidCategory, "INVALID_CATEGORY", "Unknown line item category", http.StatusBadRequest},
	{billing.ErrInvalidQuantity, "INVALID_QUANTITY", "Quantity must be a whole number between 1 and 15 digits", http.StatusBadRequest},
	{billing.ErrInvalidPrice, "INVALID_PRICE", "Unit price and tax rate must be non-negative and within range", http.StatusBadRequest},
	{billing.ErrInvalidDiscount, "INVALID_DISCOUNT", "Discount must be non-negative and within range", http.StatusBadRequest},
	{billing.ErrDiscountExceedsTotal, "DISCOUNT_EXCEEDS_TOTAL", "Discount exceeds subtotal plus tax", http.StatusUnprocessableEntity},
	{billing.ErrInvalidPaymentAmount, "INVALID_PAYMENT_AMOUNT", "Payment amount must be positive and within range", http.StatusBadRequest},
	{billing.ErrOverpaymentNotAllowed, "OVERPAYMENT_NOT_ALLOWED", "Payment exceeds the balance due", http.StatusUnprocessableEntity},
}

func mapCalculatorError(err error) (*pkg.AppError, bool) {
	for _, ce := range calculatorErrors {
		if !errors.Is(err, ce.err) {
			continue
		}
		appErr := pkg.NewDomainError(ce.code, ce.msg, err, ce.status)
		var ve *billing.ValidationError
		if errors.As(err, &ve) {
			appErr = appErr.WithDetail("field", ve.Field)
			if ve.Index >= 0 {
				appErr = appErr.WithDetail("index", ve.Index)
			}
		}
		return appErr, true
	}
	return nil, false
}

func mapBillingError(err error) *pkg.AppError {
	if appErr, ok := mapCalculatorError(err); ok {
		return appErr
	}

	switch {
	case errors.Is(err, usecase.ErrInvalidInvoiceID), errors.Is(err, usecase.ErrInvalidPatientID), errors.Is(err, usecase.ErrInvalidPaymentID),
		errors.Is(err, usecase.ErrInvalidProviderPayload), errors.Is(err, usecase.ErrPaymentGatewayBadRequest):
		return errInvalidRequest
	case errors.Is(err, usecase.ErrInvalidPaymentMethod):
		return pkg.NewDomainErrorSimple("INVALID_PAYMENT_METHOD", "Payment method must be one of cash, card, insurance, mercadopago", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrPaymentGatewayCustomerNotFound):
		return pkg.NewDomainErrorSimple("PAYMENT_PROVIDER_CUSTOMER_NOT_FOUND", "Payer not found for this Mercado Pago test context", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrPaymentGatewayInvalidUsers):
		return pkg.NewDomainErrorSimple("PAYMENT_PROVIDER_INVALID_USERS", "Invalid users involved between seller token and payer test user", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrPaymentGatewayUnauthorized):
		return pkg.NewDomainErrorSimple("PAYMENT_PROVIDER_UNAUTHORIZED", "Payment provider unauthorized", http.StatusUnauthorized)
	case errors.Is(err, usecase.ErrPaymentNotApproved):
		return pkg.NewDomainError("PAYMENT_NOT_APPROVED", "Payment was not approved by the provider", err, http.StatusPaymentRequired)
	case errors.Is(err, usecase.ErrPaymentGatewayNotConfigured):
		return pkg.NewDomainErrorSimple("PAYMENT_GATEWAY_UNAVAILABLE", "Payment gateway not configured", http.StatusServiceUnavailable)
	case errors.Is(err, usecase.ErrInvoiceNotFound):
		return pkg.NewDomainErrorSimple("INVOICE_NOT_FOUND", "Invoice not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrPaymentNotFound):
		return pkg.NewDomainErrorSimple("PAYMENT_NOT_FOUND", "Payment not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrConcurrentUpdate):
		return pkg.NewDomainErrorSimple("CONCURRENT_UPDATE", "Invoice was updated concurrently, retry the payment", http.StatusConflict)
	default:
		return pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
	}
}
