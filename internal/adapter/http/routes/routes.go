package routes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	_ "hospital_billing/docs" // swag generated
	"hospital_billing/internal/adapter/http/handlers"
	"hospital_billing/internal/adapter/http/middleware"
	"hospital_billing/internal/adapter/persistence/repository"
	"hospital_billing/internal/infrastructure/config"
	"hospital_billing/internal/infrastructure/database"
	"hospital_billing/internal/infrastructure/logger"
	"hospital_billing/internal/infrastructure/payments"
	"hospital_billing/internal/infrastructure/render"
	"hospital_billing/internal/usecase"
	"hospital_billing/internal/usecase/interfaces"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const shutdownTimeout = 10 * time.Second

// NewRouter builds the gin engine with middlewares, swagger and the /v1 routes.
func NewRouter(invoiceHandler *handlers.InvoiceHandler, paymentHandler *handlers.PaymentHandler) *gin.Engine {
	router := gin.New()
	httpLog := logger.Component("http")
	router.Use(middleware.RequestID(), middleware.Logger(httpLog), middleware.Recovery(httpLog))

	// Swagger documentation endpoint
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/v1")
	addPingRoutes(v1)
	addBillingRoutes(v1, invoiceHandler, paymentHandler)
	return router
}

// Run wires the service and serves HTTP until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config) error {
	log := logger.Component("server")
	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}

	ddb, err := database.ConnectDynamoDB(ctx, cfg)
	if err != nil {
		return err
	}

	invoiceRepo := repository.NewInvoiceDynamoRepository(ddb, cfg.InvoicesTable, cfg.PaymentsTable)
	paymentRepo := repository.NewPaymentDynamoRepository(ddb, cfg.PaymentsTable)

	var paymentGateway interfaces.IPaymentGateway
	mpGateway, err := payments.NewMercadoPagoGateway(cfg.MercadoPagoAccessToken, cfg.PaymentGatewayMock)
	if err != nil {
		log.Warn().Err(err).Msg("Mercado Pago gateway not configured")
	} else {
		paymentGateway = mpGateway
	}

	policy := cfg.Policy()
	invoiceUseCase := usecase.NewInvoiceUseCase(invoiceRepo, paymentRepo, render.NewInvoicePDFRenderer(cfg.ClinicName), policy)
	paymentUseCase := usecase.NewPaymentUseCase(invoiceRepo, paymentRepo, paymentGateway, policy, cfg.PaymentRetries)

	router := NewRouter(handlers.NewInvoiceHandler(invoiceUseCase), handlers.NewPaymentHandler(paymentUseCase))
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).
			Bool("allow_overpayment", policy.AllowOverpayment).
			Bool("clamp_discount", policy.ClampDiscount).
			Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start the application: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}
