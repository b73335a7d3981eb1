package handler

import (
	"errors"
	"io"
	"net/http"

	"optikcoin/internal/api/v1/dto"
	"optikcoin/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Stripe caps event payloads well below this.
const maxWebhookBytes = 65536

type WebhookHandler struct {
	webhookSvc service.WebhookService
	logger     zerolog.Logger
}

func NewWebhookHandler(webhookSvc service.WebhookService, logger zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{webhookSvc: webhookSvc, logger: logger}
}

func (h *WebhookHandler) RegisterRoutes(r chi.Router) {
	r.Post("/stripe-webhook", h.HandleStripeWebhook)
}

// HandleStripeWebhook godoc
// @Summary Receive Stripe events
// @Description Verifies the raw body against the Stripe-Signature header. Any non-2xx answer makes Stripe redeliver.
// @Tags webhooks
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Stripe signature"
// @Param event body object true "Stripe event envelope"
// @Success 200 {object} dto.WebhookAck
// @Failure 400 {object} dto.ErrorResponse "missing or invalid signature"
// @Failure 500 {object} dto.ErrorResponse "webhook processing failed"
// @Router /functions/v1/stripe-webhook [post]
func (h *WebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unable to read request body")
		return
	}
	signature := r.Header.Get("Stripe-Signature")
	if signature == "" {
		writeError(w, http.StatusBadRequest, "Missing stripe-signature header")
		return
	}
	if err := h.webhookSvc.HandleEvent(r.Context(), payload, signature); err != nil {
		if errors.Is(err, service.ErrInvalidSignature) {
			h.logger.Warn().Err(err).Msg("rejected webhook with bad signature")
			writeError(w, http.StatusBadRequest, service.ErrInvalidSignature.Error())
			return
		}
		h.logger.Error().Err(err).Msg("webhook processing failed")
		writeError(w, http.StatusInternalServerError, "Webhook processing failed")
		return
	}
	writeJSON(w, http.StatusOK, dto.WebhookAck{Received: true})
}
