package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"optikcoin/internal/api/v1/dto"
	"optikcoin/internal/gateway"
	"optikcoin/internal/middleware"
	"optikcoin/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// clientErrors are returned to the caller with status 400 and their own message.
var clientErrors = []error{
	service.ErrUserNotFound,
	service.ErrInvalidAmount,
	service.ErrUnknownPlan,
	service.ErrSubscriptionExists,
	service.ErrActiveSubscriptionRequired,
	service.ErrMiningAlreadyActive,
	service.ErrMiningNotActive,
	service.ErrNoRewards,
	service.ErrInsufficientBalance,
	service.ErrInvalidTradeType,
	service.ErrTokenNotFound,
	service.ErrNotTokenCreator,
	service.ErrStorageUnavailable,
	service.ErrLogoNotUploaded,
	service.ErrInvalidInput,
}

var (
	errUserMismatch = errors.New("userId does not match the authenticated user")
	errUserIDFormat = errors.New("userId must be a valid UUID")
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Error: msg})
}

// writeServiceError maps a service failure onto the uniform error body with
// status 400. Provider errors keep Stripe's wording.
func writeServiceError(w http.ResponseWriter, logger zerolog.Logger, op string, err error) {
	var pe *gateway.ProviderError
	if errors.As(err, &pe) {
		logger.Warn().Err(pe.Err).Str("op", op).Msg("payment provider rejected request")
		writeError(w, http.StatusBadRequest, pe.Msg)
		return
	}
	for _, known := range clientErrors {
		if errors.Is(err, known) {
			writeError(w, http.StatusBadRequest, known.Error())
			return
		}
	}
	logger.Error().Err(err).Str("op", op).Msg("request failed")
	writeError(w, http.StatusBadRequest, err.Error())
}

const maxBodyBytes = 1 << 20

// decodeBody reads a JSON body and runs struct validation, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, validate *validator.Validate, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload: "+err.Error())
		return false
	}
	if err := validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return false
	}
	return true
}

// resolveUserID reconciles the caller-supplied userId with the authenticated
// subject. The subject fills an empty userId; a different one is refused.
func resolveUserID(w http.ResponseWriter, r *http.Request, claimed string) (string, bool) {
	if claimed != "" && uuid.Validate(claimed) != nil {
		writeError(w, http.StatusBadRequest, errUserIDFormat.Error())
		return "", false
	}
	subject, authenticated := middleware.UserIDFromContext(r.Context())
	switch {
	case authenticated && claimed == "":
		return subject, true
	case authenticated && claimed != subject:
		writeError(w, http.StatusForbidden, errUserMismatch.Error())
		return "", false
	case claimed == "":
		writeError(w, http.StatusBadRequest, "userId is required")
		return "", false
	}
	return claimed, true
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}
