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

// InvoiceHandler handles HTTP requests for invoices.

type InvoiceHandler struct {
	usecase usecase.IInvoiceUseCase
	log     zerolog.Logger
}

func NewInvoiceHandler(uc usecase.IInvoiceUseCase) *InvoiceHandler {
	return &InvoiceHandler{usecase: uc, log: logger.Component("invoice.handler")}
}

// QuoteInvoice godoc
// @Summary      Preview invoice totals
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        body  body      request.QuoteRequest  true  "Line items and discount"
// @Success      200   {object}  response.QuoteResponse
// @Failure      400   {object}  pkg.HTTPError
// @Failure      422   {object}  pkg.HTTPError
// @Router       /invoices/quote [post]
func (h *InvoiceHandler) QuoteInvoice(c *gin.Context) {
	var payload request.QuoteRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.log.Info().Err(err).Msg("invalid quote payload")
		c.JSON(errInvalidRequest.HTTPStatus, errInvalidRequest.ToHTTPError())
		return
	}

	items, err := request.ToLineItems(payload.Items)
	if err != nil {
		h.writeError(c, err)
		return
	}

	totals, err := h.usecase.Quote(c.Request.Context(), items, payload.Discount)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromTotals(totals))
}

// CreateInvoice godoc
// @Summary      Create an invoice
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        body  body      request.CreateInvoiceRequest  true  "Invoice"
// @Success      201   {object}  response.InvoiceResponse
// @Failure      400   {object}  pkg.HTTPError
// @Failure      422   {object}  pkg.HTTPError
// @Router       /invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var payload request.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.log.Info().Err(err).Msg("invalid invoice payload")
		c.JSON(errInvalidRequest.HTTPStatus, errInvalidRequest.ToHTTPError())
		return
	}

	items, err := request.ToLineItems(payload.Items)
	if err != nil {
		h.writeError(c, err)
		return
	}

	inv, err := h.usecase.CreateInvoice(c.Request.Context(), usecase.CreateInvoiceCommand{
		PatientID:     payload.PatientID,
		Items:         items,
		Discount:      payload.Discount,
		AmountPaid:    payload.AmountPaid,
		PaymentMethod: payload.PaymentMethod,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.FromInvoice(inv))
}

// GetInvoice godoc
// @Summary      Get an invoice
// @Tags         invoices
// @Produce      json
// @Param        invoice_id  path      string  true  "Invoice ID"
// @Success      200         {object}  response.InvoiceResponse
// @Failure      404         {object}  pkg.HTTPError
// @Router       /invoices/{invoice_id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	inv, err := h.usecase.GetByID(c.Request.Context(), c.Param("invoice_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromInvoice(inv))
}

// ListInvoices godoc
// @Summary      List a patient's invoices
// @Tags         invoices
// @Produce      json
// @Param        patient_id  query     string  true  "Patient ID"
// @Success      200         {array}   response.InvoiceResponse
// @Failure      400         {object}  pkg.HTTPError
// @Router       /invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	invs, err := h.usecase.ListByPatientID(c.Request.Context(), c.Query("patient_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromInvoices(invs))
}

// GetInvoicePDF godoc
// @Summary      Download an invoice as PDF
// @Tags         invoices
// @Produce      application/pdf
// @Param        invoice_id  path      string  true  "Invoice ID"
// @Success      200         {file}    binary
// @Failure      404         {object}  pkg.HTTPError
// @Router       /invoices/{invoice_id}/pdf [get]
func (h *InvoiceHandler) GetInvoicePDF(c *gin.Context) {
	id := c.Param("invoice_id")
	doc, err := h.usecase.RenderPDF(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="invoice-`+id+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", doc)
}

func (h *InvoiceHandler) writeError(c *gin.Context, err error) {
	appErr := mapBillingError(err)
	evt := h.log.Info()
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		evt = h.log.Error()
	}
	evt.Err(err).Str("path", c.FullPath()).Str("code", appErr.Code).Msg("request failed")
	c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
}
