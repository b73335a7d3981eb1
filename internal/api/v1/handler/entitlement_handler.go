package handler

import (
	"net/http"

	"optikcoin/internal/api/v1/dto"
	"optikcoin/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type EntitlementHandler struct {
	entitlementSvc service.EntitlementService
	logger         zerolog.Logger
}

func NewEntitlementHandler(entitlementSvc service.EntitlementService, logger zerolog.Logger) *EntitlementHandler {
	return &EntitlementHandler{entitlementSvc: entitlementSvc, logger: logger}
}

func (h *EntitlementHandler) RegisterRoutes(r chi.Router) {
	r.Get("/entitlements", h.Get)
}

// Get godoc
// @Summary Get cached entitlements
// @Description Feature map for the profile's cached tier. Display only; gated operations re-check.
// @Tags entitlements
// @Produce json
// @Param userId query string false "User ID, defaults to the token subject"
// @Success 200 {object} dto.EntitlementsResponse
// @Failure 400 {object} dto.ErrorResponse "validation, authorization or provider error"
// @Failure 401 {object} dto.ErrorResponse "missing or invalid bearer token"
// @Failure 403 {object} dto.ErrorResponse "userId does not match the authenticated user"
// @Router /functions/v1/entitlements [get]
func (h *EntitlementHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := resolveUserID(w, r, r.URL.Query().Get("userId"))
	if !ok {
		return
	}
	ent, err := h.entitlementSvc.ForUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, "entitlements", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.EntitlementsResponse{
		Tier:     ent.State.Tier,
		Status:   ent.State.Status,
		Features:      ent.Features,
		RequiredTiers: ent.RequiredTiers,
	})
}
