package handler

import (
	"net/http"

	"optikcoin/internal/api/v1/dto"
	"optikcoin/internal/gateway"
	"optikcoin/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// PaymentHandler serves one-time payment endpoints.
type PaymentHandler struct {
	paymentSvc service.PaymentService
	validate   *validator.Validate
	logger     zerolog.Logger
}

func NewPaymentHandler(paymentSvc service.PaymentService, validate *validator.Validate, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc, validate: validate, logger: logger}
}

func (h *PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Post("/create-payment-intent", h.CreatePaymentIntent)
	r.Post("/create-payment-method", h.CreatePaymentMethod)
}

// CreatePaymentIntent godoc
// @Summary Create a one-time payment intent
// @Description Creates a Stripe payment intent for the user and records a pending payment.
// @Tags payments
// @Accept json
// @Produce json
// @Param payment body dto.CreatePaymentIntentRequest true "Payment intent request"
// @Success 200 {object} dto.CreatePaymentIntentResponse
// @Failure 400 {object} dto.ErrorResponse "validation, authorization or provider error"
// @Failure 401 {object} dto.ErrorResponse "missing or invalid bearer token"
// @Failure 403 {object} dto.ErrorResponse "userId does not match the authenticated user"
// @Router /functions/v1/create-payment-intent [post]
func (h *PaymentHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePaymentIntentRequest
	if !decodeBody(w, r, h.validate, &req) {
		return
	}
	userID, ok := resolveUserID(w, r, req.UserID)
	if !ok {
		return
	}
	res, err := h.paymentSvc.CreatePaymentIntent(r.Context(), service.PaymentIntentInput{
		UserID:      userID,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Description: req.Description,
		PlanType:    req.PlanType,
	})
	if err != nil {
		writeServiceError(w, h.logger, "create payment intent", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.CreatePaymentIntentResponse{
		ClientSecret:    res.ClientSecret,
		PaymentIntentID: res.PaymentIntentID,
	})
}

// CreatePaymentMethod godoc
// @Summary Tokenize a card
// @Description Exchanges raw card details for a Stripe payment method id.
// @Tags payments
// @Accept json
// @Produce json
// @Param card body dto.CreatePaymentMethodRequest true "Card details"
// @Success 200 {object} dto.CreatePaymentMethodResponse
// @Failure 400 {object} dto.ErrorResponse "validation, authorization or provider error"
// @Failure 401 {object} dto.ErrorResponse "missing or invalid bearer token"
// @Failure 403 {object} dto.ErrorResponse "userId does not match the authenticated user"
// @Router /functions/v1/create-payment-method [post]
func (h *PaymentHandler) CreatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePaymentMethodRequest
	if !decodeBody(w, r, h.validate, &req) {
		return
	}
	if _, ok := resolveUserID(w, r, req.UserID); !ok {
		return
	}
	pmID, err := h.paymentSvc.CreatePaymentMethod(r.Context(), gateway.CardDetails{
		Number:   req.Number,
		ExpMonth: req.ExpMonth,
		ExpYear:  req.ExpYear,
		CVC:      req.CVC,
	})
	if err != nil {
		writeServiceError(w, h.logger, "create payment method", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.CreatePaymentMethodResponse{PaymentMethodID: pmID})
}
