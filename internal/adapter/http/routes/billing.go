package routes

import (
	"net/http"

	"hospital_billing/internal/adapter/http/handlers"

	"github.com/gin-gonic/gin"
)

const (
	PathPing     = "/ping"
	PathInvoices = "/invoices"
	PathPayments = "/payments"
)

func addPingRoutes(rg *gin.RouterGroup) {
	rg.GET(PathPing, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
}

func addBillingRoutes(rg *gin.RouterGroup, invoiceHandler *handlers.InvoiceHandler, paymentHandler *handlers.PaymentHandler) {
	invoices := rg.Group(PathInvoices)
	{
		invoices.POST("/quote", invoiceHandler.QuoteInvoice)
		invoices.POST("", invoiceHandler.CreateInvoice)
		invoices.GET("", invoiceHandler.ListInvoices)
		invoices.GET("/:invoice_id", invoiceHandler.GetInvoice)
		invoices.GET("/:invoice_id/pdf", invoiceHandler.GetInvoicePDF)
		invoices.POST("/:invoice_id/payments", paymentHandler.RecordPayment)
		invoices.GET("/:invoice_id/payments", paymentHandler.ListPayments)
	}

	payments := rg.Group(PathPayments)
	{
		payments.GET("/:payment_id", paymentHandler.GetPayment)
	}
}
