package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/augbriz/desarrollo-FE-tp/internal/auth"
	"github.com/augbriz/desarrollo-FE-tp/internal/domain"
	"github.com/augbriz/desarrollo-FE-tp/internal/event"
	apperrors "github.com/augbriz/desarrollo-FE-tp/pkg/errors"
)

// CheckoutAPI is the store API's checkout surface.
type CheckoutAPI interface {
	StartSession(ctx context.Context, token string, typ domain.ProductType, id int) (*domain.CheckoutSession, error)
	ConfirmSimulated(ctx context.Context, token, sessionID string) (*domain.Confirmation, error)
	PollStatus(ctx context.Context, token, sessionID string) (*domain.SessionStatus, error)
	StartProviderPreference(ctx context.Context, token string, typ domain.ProductType, id int) (*domain.Preference, error)
	ConfirmByPaymentID(ctx context.Context, token, paymentID string) (*domain.Confirmation, error)
	ResultByPaymentID(ctx context.Context, paymentID string) (*domain.PaymentResult, error)
	FetchSaleByID(ctx context.Context, token string, id int) (*domain.Sale, error)
}

// CheckoutEvents publishes checkout events.
type CheckoutEvents interface {
	PublishCheckoutPaid(ctx context.Context, sale domain.Sale, channel, reference string) error
}

// CheckoutConfig bounds status waiting.
type CheckoutConfig struct {
	PollInterval time.Duration
	MaxWait      time.Duration
}

// CheckoutService forwards checkout calls with the caller's credential and
// announces paid sales.
type CheckoutService struct {
	api    CheckoutAPI
	events CheckoutEvents
	logger *slog.Logger
	cfg    CheckoutConfig
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(api CheckoutAPI, events CheckoutEvents, logger *slog.Logger, cfg CheckoutConfig) *CheckoutService {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.MaxWait < cfg.PollInterval {
		cfg.MaxWait = 30 * time.Second
	}
	return &CheckoutService{api: api, events: events, logger: logger, cfg: cfg}
}

func validateProduct(typ domain.ProductType, id int) error {
	if !typ.Valid() {
		return apperrors.InvalidInput("tipo must be one of: juego servicio complemento")
	}
	if id <= 0 {
		return apperrors.InvalidInput("id must be greater than 0")
	}
	return nil
}

func requireRef(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperrors.InvalidInput(name + " is required")
	}
	return nil
}

// Start opens a checkout session for a product.
func (s *CheckoutService) Start(ctx context.Context, typ domain.ProductType, id int) (*domain.CheckoutSession, error) {
	if err := validateProduct(typ, id); err != nil {
		return nil, s.record("start", err)
	}
	cred, err := auth.FromContext(ctx)
	if err != nil {
		return nil, s.record("start", err)
	}

	sess, err := s.api.StartSession(ctx, cred.Token, typ, id)
	if err != nil {
		return nil, s.record("start", err)
	}

	s.logger.InfoContext(ctx, "checkout session started",
		slog.String("session_id", sess.SessionID),
		slog.String("product_type", string(typ)),
		slog.Int("product_id", id),
	)
	return sess, s.record("start", nil)
}

// ConfirmSimulated marks a session paid without a payment provider.
func (s *CheckoutService) ConfirmSimulated(ctx context.Context, sessionID string) (*domain.Confirmation, error) {
	if err := requireRef("sessionId", sessionID); err != nil {
		return nil, s.record("simulate", err)
	}
	cred, err := auth.FromContext(ctx)
	if err != nil {
		return nil, s.record("simulate", err)
	}

	conf, err := s.api.ConfirmSimulated(ctx, cred.Token, sessionID)
	if err != nil {
		return nil, s.record("simulate", err)
	}

	s.announce(ctx, conf.Status, conf.Sale, event.ChannelSimulated, sessionID)
	return conf, s.record("simulate", nil)
}

// Status returns the session status, waiting up to wait for it to leave
// pending. A zero wait polls once.
func (s *CheckoutService) Status(ctx context.Context, sessionID string, wait time.Duration) (*domain.SessionStatus, error) {
	if err := requireRef("session_id", sessionID); err != nil {
		return nil, s.record("status", err)
	}
	if wait <= 0 {
		cred, err := auth.FromContext(ctx)
		if err != nil {
			return nil, s.record("status", err)
		}
		st, err := s.api.PollStatus(ctx, cred.Token, sessionID)
		return st, s.record("status", err)
	}
	st, err := s.AwaitSettlement(ctx, sessionID, wait)
	return st, s.record("status", err)
}

// AwaitSettlement polls the session every PollInterval until it is no
// longer pending or wait (capped at MaxWait) elapses. On timeout the last
// pending status is returned without error. Cancelling ctx aborts the wait.
func (s *CheckoutService) AwaitSettlement(ctx context.Context, sessionID string, wait time.Duration) (*domain.SessionStatus, error) {
	cred, err := auth.FromContext(ctx)
	if err != nil {
		return nil, err
	}

	wait = min(wait, s.cfg.MaxWait)
	start := time.Now()
	defer func() { settlementWaitSeconds.Observe(time.Since(start).Seconds()) }()

	deadline := time.NewTimer(wait)
	defer deadline.Stop()
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		st, err := s.api.PollStatus(ctx, cred.Token, sessionID)
		if err != nil {
			return nil, err
		}
		if st.IsTerminal() {
			s.logger.InfoContext(ctx, "checkout session settled",
				slog.String("session_id", sessionID),
				slog.String("status", st.Status),
				slog.Duration("waited", time.Since(start)),
			)
			return st, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			checkoutCallsTotal.WithLabelValues("await", outcomeTimeout).Inc()
			return st, nil
		case <-ticker.C:
		}
	}
}

// StartProvider creates a payment-provider preference for a product.
func (s *CheckoutService) StartProvider(ctx context.Context, typ domain.ProductType, id int) (*domain.Preference, error) {
	if err := validateProduct(typ, id); err != nil {
		return nil, s.record("provider_start", err)
	}
	cred, err := auth.FromContext(ctx)
	if err != nil {
		return nil, s.record("provider_start", err)
	}

	pref, err := s.api.StartProviderPreference(ctx, cred.Token, typ, id)
	return pref, s.record("provider_start", err)
}

// ConfirmPayment confirms a provider payment.
func (s *CheckoutService) ConfirmPayment(ctx context.Context, paymentID string) (*domain.Confirmation, error) {
	if err := requireRef("payment_id", paymentID); err != nil {
		return nil, s.record("provider_confirm", err)
	}
	cred, err := auth.FromContext(ctx)
	if err != nil {
		return nil, s.record("provider_confirm", err)
	}

	conf, err := s.api.ConfirmByPaymentID(ctx, cred.Token, paymentID)
	if err != nil {
		return nil, s.record("provider_confirm", err)
	}

	s.announce(ctx, conf.Status, conf.Sale, event.ChannelProvider, paymentID)
	return conf, s.record("provider_confirm", nil)
}

// PaymentResult looks up a provider payment. It needs no credential.
func (s *CheckoutService) PaymentResult(ctx context.Context, paymentID string) (*domain.PaymentResult, error) {
	if err := requireRef("payment_id", paymentID); err != nil {
		return nil, s.record("provider_result", err)
	}
	res, err := s.api.ResultByPaymentID(ctx, paymentID)
	return res, s.record("provider_result", err)
}

// Sale returns a sale record.
func (s *CheckoutService) Sale(ctx context.Context, id int) (*domain.Sale, error) {
	cred, err := auth.FromContext(ctx)
	if err != nil {
		return nil, s.record("sale", err)
	}
	sale, err := s.api.FetchSaleByID(ctx, cred.Token, id)
	return sale, s.record("sale", err)
}

func (s *CheckoutService) announce(ctx context.Context, status string, sale domain.Sale, channel, reference string) {
	if status != domain.StatusPaid || s.events == nil {
		return
	}
	if err := s.events.PublishCheckoutPaid(ctx, sale, channel, reference); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish checkout.paid event",
			slog.Int("sale_id", sale.ID),
			slog.String("error", err.Error()),
		)
	}
}

// record counts the outcome of op and passes err through.
func (s *CheckoutService) record(op string, err error) error {
	outcome := outcomeOK
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrInvalidInput):
		outcome = outcomeInvalid
	case errors.Is(err, apperrors.ErrUnauthorized):
		outcome = outcomeUnauthenticated
	case errors.Is(err, apperrors.ErrForbidden):
		outcome = outcomeForbidden
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		outcome = outcomeTimeout
	default:
		outcome = outcomeFailed
	}
	checkoutCallsTotal.WithLabelValues(op, outcome).Inc()
	return err
}
