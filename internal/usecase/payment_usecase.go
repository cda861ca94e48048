package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
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
	ErrPaymentNotFound                = errors.New("payment not found")
	ErrInvalidPaymentID               = errors.New("invalid payment id")
	ErrInvalidProviderPayload         = errors.New("invalid payment provider payload")
	ErrPaymentNotApproved             = errors.New("payment not approved by provider")
	ErrConcurrentUpdate               = errors.New("invoice was updated concurrently, retry the payment")
	ErrPaymentGatewayNotConfigured    = errors.New("payment gateway not configured")
	ErrPaymentGatewayBadRequest       = errors.New("payment gateway bad request")
	ErrPaymentGatewayUnauthorized     = errors.New("payment gateway unauthorized")
	ErrPaymentGatewayInvalidUsers     = errors.New("payment gateway invalid users involved")
	ErrPaymentGatewayCustomerNotFound = errors.New("payment gateway customer not found")
)

const providerStatusApproved = "approved"

// RecordPaymentCommand is one payment increment against an invoice. ProviderPayload is
// only used for gateway-backed methods and is forwarded to the provider after the
// amount and invoice reference have been filled in.
type RecordPaymentCommand struct {
	InvoiceID       string
	Amount          decimal.Decimal
	Method          string
	ProviderPayload json.RawMessage
}

// IPaymentUseCase encapsulates the "apply a payment to an invoice" behavior.
//
// Requested behavior:
//   - validate the increment through the calculator before charging anyone
//   - charge through the gateway when the method requires it
//   - persist the new invoice snapshot and the payment event atomically, retrying
//     on version conflicts with the reloaded invoice

type IPaymentUseCase interface {
	RecordPayment(ctx context.Context, cmd RecordPaymentCommand) (entities.Invoice, entities.Payment, error)
	GetByID(ctx context.Context, id string) (entities.Payment, error)
	ListByInvoiceID(ctx context.Context, invoiceID string) ([]entities.Payment, error)
}

type PaymentUseCase struct {
	invoiceRepo interfaces.IInvoiceRepository
	repo        interfaces.IPaymentRepository
	gateway     interfaces.IPaymentGateway
	policy      billing.Policy
	maxAttempts int
	log         zerolog.Logger
	now         func() time.Time
}

var _ IPaymentUseCase = (*PaymentUseCase)(nil)

func NewPaymentUseCase(invoiceRepo interfaces.IInvoiceRepository, repo interfaces.IPaymentRepository, gateway interfaces.IPaymentGateway, policy billing.Policy, maxAttempts int) *PaymentUseCase {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &PaymentUseCase{
		invoiceRepo: invoiceRepo,
		repo:        repo,
		gateway:     gateway,
		policy:      policy,
		maxAttempts: maxAttempts,
		log:         logger.Component("payment.usecase"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (u *PaymentUseCase) RecordPayment(ctx context.Context, cmd RecordPaymentCommand) (entities.Invoice, entities.Payment, error) {
	invoiceID := strings.TrimSpace(cmd.InvoiceID)
	if invoiceID == "" {
		return entities.Invoice{}, entities.Payment{}, ErrInvalidInvoiceID
	}
	method, ok := entities.ParsePaymentMethod(cmd.Method)
	if !ok {
		return entities.Invoice{}, entities.Payment{}, ErrInvalidPaymentMethod
	}
	if err := billing.ValidatePaymentAmount(cmd.Amount); err != nil {
		return entities.Invoice{}, entities.Payment{}, err
	}
	amount := billing.RoundMoney(cmd.Amount)
	log := u.log.With().Str("invoice_id", invoiceID).Str("method", string(method)).Str("amount", amount.StringFixed(billing.MoneyPlaces)).Logger()
	log.Info().Msg("record payment start")

	inv, err := u.loadInvoice(ctx, invoiceID)
	if err != nil {
		return entities.Invoice{}, entities.Payment{}, err
	}

	// Reject bad increments before any money moves.
	if _, err := billing.ApplyPayment(inv, amount, u.policy); err != nil {
		log.Info().Err(err).Msg("payment rejected")
		return entities.Invoice{}, entities.Payment{}, err
	}

	now := u.now()
	p := entities.Payment{
		ID:        uuid.NewString(),
		InvoiceID: invoiceID,
		Amount:    amount,
		Method:    method,
		Date:      now,
	}

	if method == entities.PaymentMethodMercadoPago {
		if err := u.charge(ctx, log, inv, amount, cmd.ProviderPayload, &p); err != nil {
			return entities.Invoice{}, entities.Payment{}, err
		}
	}

	for attempt := 1; attempt <= u.maxAttempts; attempt++ {
		next, err := billing.ApplyPayment(inv, amount, u.policy)
		if err != nil {
			if p.ProviderPaymentID != "" {
				log.Error().Err(err).Str("provider_payment_id", p.ProviderPaymentID).Msg("charged payment no longer fits the invoice")
			}
			return entities.Invoice{}, entities.Payment{}, err
		}
		next.PaymentMethod = method
		next.UpdatedAt = now

		saved, err := u.invoiceRepo.UpdatePayment(ctx, next, inv.Version, p)
		if err == nil {
			log.Info().
				Str("payment_id", p.ID).
				Int64("version", saved.Version).
				Str("payment_status", string(saved.PaymentStatus)).
				Msg("record payment success")
			return saved, p, nil
		}
		if !errors.Is(err, interfaces.ErrVersionConflict) {
			log.Error().Err(err).Msg("invoice repository update failed")
			return entities.Invoice{}, entities.Payment{}, err
		}

		log.Warn().Int("attempt", attempt).Int64("version", inv.Version).Msg("version conflict, reloading invoice")
		if inv, err = u.loadInvoice(ctx, invoiceID); err != nil {
			return entities.Invoice{}, entities.Payment{}, err
		}
	}

	log.Error().
		Int("attempts", u.maxAttempts).
		Str("provider_payment_id", p.ProviderPaymentID).
		Msg("giving up after repeated version conflicts")
	return entities.Invoice{}, entities.Payment{}, ErrConcurrentUpdate
}

func (u *PaymentUseCase) loadInvoice(ctx context.Context, id string) (entities.Invoice, error) {
	inv, err := u.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return entities.Invoice{}, err
	}
	if inv.ID == "" {
		return entities.Invoice{}, ErrInvoiceNotFound
	}
	return inv, nil
}

// charge sends the increment to the payment gateway and fills the provider fields of p.
func (u *PaymentUseCase) charge(ctx context.Context, log zerolog.Logger, inv entities.Invoice, amount decimal.Decimal, payload json.RawMessage, p *entities.Payment) error {
	if u.gateway == nil {
		log.Error().Msg("gateway not configured")
		return ErrPaymentGatewayNotConfigured
	}

	reqMap := map[string]any{}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &reqMap); err != nil || reqMap == nil {
			log.Info().Msg("invalid provider payload")
			return ErrInvalidProviderPayload
		}
	}
	// The invoice is the source of truth for amount and reference.
	reqMap["transaction_amount"] = amount.InexactFloat64()
	reqMap["external_reference"] = inv.ID
	if !hasNonEmptyString(reqMap, "description") {
		reqMap["description"] = fmt.Sprintf("Invoice %s", inv.ID)
	}
	body, err := json.Marshal(reqMap)
	if err != nil {
		return err
	}

	log.Info().Int("payload_len", len(body)).Msg("calling payment gateway")
	providerID, providerStatus, providerResp, err := u.gateway.CreatePayment(ctx, body)
	if err != nil {
		log.Error().Err(err).Msg("payment gateway failed")
		return mapGatewayError(err)
	}
	if !strings.EqualFold(providerStatus, providerStatusApproved) {
		log.Warn().Str("provider_payment_id", providerID).Str("provider_status", providerStatus).Msg("payment not approved")
		return fmt.Errorf("%w: status %s", ErrPaymentNotApproved, providerStatus)
	}

	p.ProviderPaymentID = providerID
	p.ProviderStatus = providerStatus
	p.PayloadRaw = providerResp
	var parsed map[string]interface{}
	if err := json.Unmarshal(providerResp, &parsed); err != nil {
		log.Warn().Err(err).Msg("provider response unmarshal failed")
	}
	p.Payload = parsed
	log.Info().Str("provider_payment_id", providerID).Msg("payment gateway success")
	return nil
}

func (u *PaymentUseCase) GetByID(ctx context.Context, id string) (entities.Payment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.Payment{}, ErrInvalidPaymentID
	}

	p, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return entities.Payment{}, err
	}
	if p.ID == "" {
		return entities.Payment{}, ErrPaymentNotFound
	}
	return p, nil
}

func (u *PaymentUseCase) ListByInvoiceID(ctx context.Context, invoiceID string) ([]entities.Payment, error) {
	invoiceID = strings.TrimSpace(invoiceID)
	if invoiceID == "" {
		return nil, ErrInvalidInvoiceID
	}
	if _, err := u.loadInvoice(ctx, invoiceID); err != nil {
		return nil, err
	}
	return u.repo.ListByInvoiceID(ctx, invoiceID)
}
