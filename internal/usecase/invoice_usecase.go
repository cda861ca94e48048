package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"hospital_billing/internal/domain/billing"
	"hospital_billing/internal/domain/entities"
	"hospital_billing/internal/infrastructure/logger"
	"hospital_billing/internal/usecase/interfaces"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	ErrInvoiceNotFound       = errors.New("invoice not found")
	ErrInvalidInvoiceID      = errors.New("invalid invoice id")
	ErrInvalidPatientID      = errors.New("invalid patient_id")
	ErrInvalidPaymentMethod  = errors.New("invalid payment method")
	ErrRendererNotConfigured = errors.New("invoice renderer not configured")
)

// CreateInvoiceCommand carries the caller-supplied part of a new invoice. Totals,
// balance and payment status are always derived.
type CreateInvoiceCommand struct {
	PatientID     string
	Items         []entities.LineItem
	Discount      decimal.Decimal
	AmountPaid    decimal.Decimal
	PaymentMethod string
}

// IInvoiceUseCase exposes invoice operations.
//
//   - Quote() previews totals without persisting anything
//   - CreateInvoice() computes the snapshot once and stores it, recording the initial
//     payment (if any) as a payment event
//   - RenderPDF() prints the stored snapshot with its payment history

type IInvoiceUseCase interface {
	Quote(ctx context.Context, items []entities.LineItem, discount decimal.Decimal) (billing.Totals, error)
	CreateInvoice(ctx context.Context, cmd CreateInvoiceCommand) (entities.Invoice, error)
	GetByID(ctx context.Context, id string) (entities.Invoice, error)
	ListByPatientID(ctx context.Context, patientID string) ([]entities.Invoice, error)
	RenderPDF(ctx context.Context, id string) ([]byte, error)
}

type InvoiceUseCase struct {
	repo        interfaces.IInvoiceRepository
	paymentRepo interfaces.IPaymentRepository
	renderer    interfaces.IInvoiceRenderer
	policy      billing.Policy
	log         zerolog.Logger
	now         func() time.Time
}

var _ IInvoiceUseCase = (*InvoiceUseCase)(nil)

func NewInvoiceUseCase(repo interfaces.IInvoiceRepository, paymentRepo interfaces.IPaymentRepository, renderer interfaces.IInvoiceRenderer, policy billing.Policy) *InvoiceUseCase {
	return &InvoiceUseCase{
		repo:        repo,
		paymentRepo: paymentRepo,
		renderer:    renderer,
		policy:      policy,
		log:         logger.Component("invoice.usecase"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (u *InvoiceUseCase) Quote(_ context.Context, items []entities.LineItem, discount decimal.Decimal) (billing.Totals, error) {
	return billing.ComputeTotals(items, discount, u.policy)
}

func (u *InvoiceUseCase) CreateInvoice(ctx context.Context, cmd CreateInvoiceCommand) (entities.Invoice, error) {
	patientID := strings.TrimSpace(cmd.PatientID)
	if patientID == "" {
		return entities.Invoice{}, ErrInvalidPatientID
	}
	method, ok := entities.ParsePaymentMethod(cmd.PaymentMethod)
	if !ok {
		return entities.Invoice{}, ErrInvalidPaymentMethod
	}

	inv, err := billing.NewInvoice(cmd.Items, cmd.Discount, cmd.AmountPaid, u.policy)
	if err != nil {
		u.log.Info().Err(err).Str("patient_id", patientID).Msg("invoice rejected")
		return entities.Invoice{}, err
	}

	now := u.now()
	inv.ID = uuid.NewString()
	inv.PatientID = patientID
	inv.Version = 1
	inv.CreatedAt = now
	inv.UpdatedAt = now

	var initial *entities.Payment
	if inv.AmountPaid.IsPositive() {
		// Gateway charges need an existing invoice to reference.
		if method == entities.PaymentMethodMercadoPago {
			return entities.Invoice{}, ErrInvalidPaymentMethod
		}
		inv.PaymentMethod = method
		initial = &entities.Payment{
			ID:        uuid.NewString(),
			InvoiceID: inv.ID,
			Amount:    inv.AmountPaid,
			Method:    method,
			Date:      now,
		}
	}

	created, err := u.repo.Create(ctx, inv, initial)
	if err != nil {
		u.log.Error().Err(err).Str("invoice_id", inv.ID).Msg("invoice repository create failed")
		return entities.Invoice{}, err
	}
	u.log.Info().
		Str("invoice_id", created.ID).
		Str("patient_id", created.PatientID).
		Str("total_amount", created.TotalAmount.StringFixed(billing.MoneyPlaces)).
		Str("payment_status", string(created.PaymentStatus)).
		Msg("invoice created")
	return created, nil
}

func (u *InvoiceUseCase) GetByID(ctx context.Context, id string) (entities.Invoice, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.Invoice{}, ErrInvalidInvoiceID
	}
	inv, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return entities.Invoice{}, err
	}
	if inv.ID == "" {
		return entities.Invoice{}, ErrInvoiceNotFound
	}
	return inv, nil
}

func (u *InvoiceUseCase) ListByPatientID(ctx context.Context, patientID string) ([]entities.Invoice, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, ErrInvalidPatientID
	}
	return u.repo.ListByPatientID(ctx, patientID)
}

func (u *InvoiceUseCase) RenderPDF(ctx context.Context, id string) ([]byte, error) {
	if u.renderer == nil {
		return nil, ErrRendererNotConfigured
	}
	inv, err := u.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	payments, err := u.paymentRepo.ListByInvoiceID(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	return u.renderer.Render(inv, payments)
}
