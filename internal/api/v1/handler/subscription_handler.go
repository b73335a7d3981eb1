package handler

import (
	"net/http"

	"optikcoin/internal/api/v1/dto"
	"optikcoin/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// SubscriptionHandler handles subscription-related endpoints.
type SubscriptionHandler struct {
	subSvc   service.SubscriptionService
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subSvc service.SubscriptionService, validate *validator.Validate, logger zerolog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{subSvc: subSvc, validate: validate, logger: logger}
}

// RegisterRoutes registers the subscription endpoints.
func (h *SubscriptionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/create-subscription", h.CreateSubscription)
}

// CreateSubscription godoc
// @Summary Start a paid plan
// @Description Attaches the payment method and creates a Stripe subscription. The returned status is usually "incomplete" until the first invoice is paid.
// @Tags subscriptions
// @Accept json
// @Produce json
// @Param subscription body dto.CreateSubscriptionRequest true "Subscription request"
// @Success 200 {object} dto.CreateSubscriptionResponse
// @Failure 400 {object} dto.ErrorResponse "validation, authorization or provider error"
// @Failure 401 {object} dto.ErrorResponse "missing or invalid bearer token"
// @Failure 403 {object} dto.ErrorResponse "userId does not match the authenticated user"
// @Router /functions/v1/create-subscription [post]
func (h *SubscriptionHandler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateSubscriptionRequest
	if !decodeBody(w, r, h.validate, &req) {
		return
	}
	userID, ok := resolveUserID(w, r, req.UserID)
	if !ok {
		return
	}
	res, err := h.subSvc.CreateSubscription(r.Context(), service.SubscriptionInput{
		UserID:          userID,
		PlanType:        req.PlanType,
		PaymentMethodID: req.PaymentMethodID,
	})
	if err != nil {
		writeServiceError(w, h.logger, "create subscription", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.CreateSubscriptionResponse{
		SubscriptionID: res.SubscriptionID,
		Status:         res.Status,
		ClientSecret:   res.ClientSecret,
	})
}
