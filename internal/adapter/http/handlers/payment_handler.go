package handlers

import (
	"net/http"

	request "hospital_billing/internal/adapter/http/dto/request"
	response "hospital_billing/internal/adapter/http/dto/response"
	"hospital_billing/internal/infrastructure/logger"
	"hospital_billing/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// PaymentHandler handles HTTP requests for invoice payments.

type PaymentHandler struct {
	usecase usecase.IPaymentUseCase
	log     zerolog.Logger
}

func NewPaymentHandler(uc usecase.IPaymentUseCase) *PaymentHandler {
	return &PaymentHandler{usecase: uc, log: logger.Component("payment.handler")}
}

// RecordPayment godoc
// @Summary      Apply a payment to an invoice
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        invoice_id  path      string                  true  "Invoice ID"
// @Param        body        body      request.PaymentRequest  true  "Payment"
// @Success      201         {object}  response.PaymentRecordedResponse
// @Failure      400         {object}  pkg.HTTPError
// @Failure      404         {object}  pkg.HTTPError
// @Failure      409         {object}  pkg.HTTPError
// @Failure      422         {object}  pkg.HTTPError
// @Router       /invoices/{invoice_id}/payments [post]
func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	invoiceID := c.Param("invoice_id")
	var payload request.PaymentRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.log.Info().Err(err).Str("invoice_id", invoiceID).Msg("invalid payment payload")
		c.JSON(errInvalidRequest.HTTPStatus, errInvalidRequest.ToHTTPError())
		return
	}

	inv, p, err := h.usecase.RecordPayment(c.Request.Context(), usecase.RecordPaymentCommand{
		InvoiceID:       invoiceID,
		Amount:          payload.Amount,
		Method:          payload.Method,
		ProviderPayload: payload.ProviderPayload,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.PaymentRecordedResponse{
		Invoice: response.FromInvoice(inv),
		Payment: response.FromPayment(p),
	})
}

// ListPayments godoc
// @Summary      List payments of an invoice
// @Tags         payments
// @Produce      json
// @Param        invoice_id  path      string  true  "Invoice ID"
// @Success      200         {array}   response.PaymentResponse
// @Failure      404         {object}  pkg.HTTPError
// @Router       /invoices/{invoice_id}/payments [get]
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	payments, err := h.usecase.ListByInvoiceID(c.Request.Context(), c.Param("invoice_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromPayments(payments))
}

// GetPayment godoc
// @Summary      Get a payment
// @Tags         payments
// @Produce      json
// @Param        payment_id  path      string  true  "Payment ID"
// @Success      200         {object}  response.PaymentResponse
// @Failure      404         {object}  pkg.HTTPError
// @Router       /payments/{payment_id} [get]
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	p, err := h.usecase.GetByID(c.Request.Context(), c.Param("payment_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromPayment(p))
}

func (h *PaymentHandler) writeError(c *gin.Context, err error) {
	appErr := mapBillingError(err)
	evt := h.log.Info()
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		evt = h.log.Error()
	}
	evt.Err(err).Str("invoice_id", c.Param("invoice_id")).Str("code", appErr.Code).Msg("request failed")
	c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
}
