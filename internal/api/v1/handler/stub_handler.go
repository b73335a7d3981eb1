package handler

import (
	"net/http"

	"optikcoin/internal/api/v1/dto"
	"optikcoin/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// StubHandler serves the placeholder chat and scan endpoints.
type StubHandler struct {
	chatSvc  service.ChatService
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewStubHandler(chatSvc service.ChatService, validate *validator.Validate, logger zerolog.Logger) *StubHandler {
	return &StubHandler{chatSvc: chatSvc, validate: validate, logger: logger}
}

func (h *StubHandler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.Chat)
	r.Post("/scan", h.Scan)
	r.Get("/health", h.Health)
}

// Chat godoc
// @Summary Echo chat
// @Description Stores the turn under the session id and echoes the prompt.
// @Tags stub
// @Accept json
// @Produce json
// @Param chat body dto.ChatRequest true "Prompt"
// @Success 200 {object} dto.ChatResponse
// @Failure 400 {object} dto.ErrorResponse "invalid request"
// @Router /chat [post]
func (h *StubHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req dto.ChatRequest
	if !decodeBody(w, r, h.validate, &req) {
		return
	}
	reply, err := h.chatSvc.Chat(r.Context(), req.SessionID, req.Prompt)
	if err != nil {
		writeServiceError(w, h.logger, "chat", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ChatResponse{
		Response:      reply.Response,
		SessionID:     reply.SessionID,
		HistoryLength: reply.HistoryLength,
	})
}

// Scan godoc
// @Summary Mock security scan
// @Tags stub
// @Accept json
// @Produce json
// @Param scan body dto.ScanRequest true "Contract address"
// @Success 200 {object} service.ScanResult
// @Failure 400 {object} dto.ErrorResponse "invalid request"
// @Router /scan [post]
func (h *StubHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req dto.ScanRequest
	if !decodeBody(w, r, h.validate, &req) {
		return
	}
	res, err := service.Scan(req.Address)
	if err != nil {
		writeServiceError(w, h.logger, "scan", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Health godoc
// @Summary Health check
// @Tags stub
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *StubHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
