package handler

import (
	"net/http"

	"optikcoin/internal/api/v1/dto"
	"optikcoin/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// MiningHandler serves /mining-operations.
type MiningHandler struct {
	miningSvc service.MiningService
	validate  *validator.Validate
	logger    zerolog.Logger
}

func NewMiningHandler(miningSvc service.MiningService, validate *validator.Validate, logger zerolog.Logger) *MiningHandler {
	return &MiningHandler{miningSvc: miningSvc, validate: validate, logger: logger}
}

func (h *MiningHandler) RegisterRoutes(r chi.Router) {
	r.Route("/mining-operations", func(r chi.Router) {
		r.Post("/start-mining", h.Start)
		r.Post("/stop-mining", h.Stop)
		r.Post("/claim-mining-rewards", h.Claim)
		r.Put("/update-mining-stats", h.UpdateStats)
		r.Get("/user-mining", h.UserMining)
		r.Get("/mining-stats", h.PoolStats)
	})
}

// Start godoc
// @Summary Start mining
// @Tags mining
// @Accept json
// @Produce json
// @Param mining body dto.MiningRequest true "Mining request"
// @Success 200 {object} dto.MiningResponse
// @Failure 400 {object} dto.ErrorResponse "validation, authorization or provider error"
// @Failure 401 {object} dto.ErrorResponse "missing or invalid bearer token"
// @Failure 403 {object} dto.ErrorResponse "userId does not match the authenticated user"
// @Router /functions/v1/mining-operations/start-mining [post]
func (h *MiningHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req dto.MiningRequest
	if !decodeBody(w, r, h.validate, &req) {
		return
	}
	userID, ok := resolveUserID(w, r, req.UserID)
	if !ok {
		return
	}
	rec, err := h.miningSvc.StartMining(r.Context(), userID, req.PoolName)
	if err != nil {
		writeServiceError(w, h.logger, "start mining", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.MiningResponse{Success: true, Mining: rec})
}

// Stop godoc
// @Summary Stop mining
// @Description Idempotent; stopping without an active record succeeds.
// @Tags mining
// @Accept json
// @Produce json
// @Param mining body dto.MiningRequest true "Mining request"
// @Success 200 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse "validation, authorization or provider error"
// @Failure 401 {object} dto.ErrorResponse "missing or invalid bearer token"
// @Failure 403 {object} dto.ErrorResponse "userId does not match the authenticated user"
// @Router /functions/v1/mining-operations/stop-mining [post]
func (h *MiningHandler) Stop(w http.ResponseWriter, r *http.Request) {
	var req dto.MiningRequest
	if !decodeBody(w, r, h.validate, &req) {
		return
	}
	userID, ok := resolveUserID(w, r, req.UserID)
	if !ok {
		return
	}
	if err := h.miningSvc.StopMining(r.Context(), userID); err != nil {
		writeServiceError(w, h.logger, "stop mining", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Success: true})
}

// Claim godoc
// @Summary Claim mining rewards
// @Description Moves today's earnings into the OPTK balance.
// @Tags mining
// @Accept json
// @Produce json
// @Param mining body dto.MiningRequest true "Mining request"
// @Success 200 {object} dto.ClaimResponse
// @Failure 400 {object} dto.ErrorResponse "validation, authorization or provider error"
// @Failure 401 {object} dto.ErrorResponse "missing or invalid bearer token"
// @Failure 403 {object} dto.ErrorResponse "userId does not match the authenticated user"
// @Router /functions/v1/mining-operations/claim-mining-rewards [post]
func (h *MiningHandler) Claim(w http.ResponseWriter, r *http.Request) {
	var req dto.MiningRequest
	if !decodeBody(w, r, h.validate, &req) {
		return
	}
	userID, ok := resolveUserID(w, r, req.UserID)
	if !ok {
		return
	}
	claimed, err := h.miningSvc.ClaimRewards(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, "claim rewards", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ClaimResponse{Success: true, Claimed: claimed})
}

// UpdateStats godoc
// @Summary Report mining progress
// @Tags mining
// @Accept json
// @Produce json
// @Param stats body dto.UpdateMiningStatsRequest true "Hash rate and earnings"
// @Success 200 {object} dto.MiningResponse
// @Failure 400 {object} dto.ErrorResponse "validation, authorization or provider error"
// @Failure 401 {object} dto.ErrorResponse "missing or invalid bearer token"
// @Failure 403 {object} dto.ErrorResponse "userId does not match the authenticated user"
// @Router /functions/v1/mining-operations/update-mining-stats [put]
func (h *MiningHandler) UpdateStats(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateMiningStatsRequest
	if !decodeBody(w, r, h.validate, &req) {
		return
	}
	userID, ok := resolveUserID(w, r, req.UserID)
	if !ok {
		return
	}
	rec, err := h.miningSvc.UpdateStats(r.Context(), userID, req.HashRate, req.Earnings)
	if err != nil {
		writeServiceError(w, h.logger, "update mining stats", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.MiningResponse{Success: true, Mining: rec})
}

// UserMining godoc
// @Summary Get the caller's mining record
// @Description The record is null when the user never mined.
// @Tags mining
// @Produce json
// @Param userId query string false "User ID, defaults to the token subject"
// @Success 200 {object} dto.MiningResponse
// @Failure 400 {object} dto.ErrorResponse "validation, authorization or provider error"
// @Failure 401 {object} dto.ErrorResponse "missing or invalid bearer token"
// @Failure 403 {object} dto.ErrorResponse "userId does not match the authenticated user"
// @Router /functions/v1/mining-operations/user-mining [get]
func (h *MiningHandler) UserMining(w http.ResponseWriter, r *http.Request) {
	userID, ok := resolveUserID(w, r, r.URL.Query().Get("userId"))
	if !ok {
		return
	}
	rec, err := h.miningSvc.UserMining(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, "user mining", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.MiningResponse{Success: true, Mining: rec})
}

// PoolStats godoc
// @Summary Get pool statistics
// @Tags mining
// @Produce json
// @Success 200 {object} model.PoolStats
// @Failure 400 {object} dto.ErrorResponse "validation, authorization or provider error"
// @Failure 401 {object} dto.ErrorResponse "missing or invalid bearer token"
// @Router /functions/v1/mining-operations/mining-stats [get]
func (h *MiningHandler) PoolStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.miningSvc.PoolStats(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, "mining stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
