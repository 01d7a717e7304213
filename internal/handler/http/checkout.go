package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/augbriz/desarrollo-FE-tp/internal/domain"
	"github.com/augbriz/desarrollo-FE-tp/internal/service"
	apperrors "github.com/augbriz/desarrollo-FE-tp/pkg/errors"
	"github.com/augbriz/desarrollo-FE-tp/pkg/httputil"
	"github.com/augbriz/desarrollo-FE-tp/pkg/validator"
)

// CheckoutHandler handles HTTP requests for checkout endpoints.
type CheckoutHandler struct {
	service *service.CheckoutService
	logger  *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(svc *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// ProductRequest selects the product a checkout is started for.
type ProductRequest struct {
	Type domain.ProductType `json:"tipo" validate:"required,oneof=juego servicio complemento"`
	ID   int                `json:"id" validate:"required,gt=0"`
}

// SimulateRequest is the JSON request body for a simulated payment.
type SimulateRequest struct {
	SessionID string `json:"sessionId" validate:"required,max=128"`
}

// parseWait reads the wait query parameter, given either as a Go duration
// ("10s") or as whole seconds ("10").
func parseWait(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, apperrors.InvalidInput("wait must be a non-negative duration or number of seconds")
	}
	return d, nil
}

// --- Handlers ---

// Start handles POST /api/v1/checkout/start
func (h *CheckoutHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	session, err := h.service.Start(r.Context(), req.Type, req.ID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, session)
}

// SimulateSuccess handles POST /api/v1/checkout/simulate-success
func (h *CheckoutHandler) SimulateSuccess(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	conf, err := h.service.ConfirmSimulated(r.Context(), req.SessionID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, conf)
}

// Status handles GET /api/v1/checkout/status?session_id=&wait=
func (h *CheckoutHandler) Status(w http.ResponseWriter, r *http.Request) {
	wait, err := parseWait(r.URL.Query().Get("wait"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	status, err := h.service.Status(r.Context(), r.URL.Query().Get("session_id"), wait)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, status)
}

// StartProvider handles POST /api/v1/checkout/mp/start
func (h *CheckoutHandler) StartProvider(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	pref, err := h.service.StartProvider(r.Context(), req.Type, req.ID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, pref)
}

// ConfirmPayment handles GET /api/v1/checkout/mp/confirm?payment_id=
func (h *CheckoutHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	conf, err := h.service.ConfirmPayment(r.Context(), r.URL.Query().Get("payment_id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, conf)
}

// PaymentResult handles GET /api/v1/checkout/mp/result?payment_id=
func (h *CheckoutHandler) PaymentResult(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.PaymentResult(r.Context(), r.URL.Query().Get("payment_id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, res)
}

// GetSale handles GET /api/v1/sales/{id}
func (h *CheckoutHandler) GetSale(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	sale, err := h.service.Sale(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, sale)
}
