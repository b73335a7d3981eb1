package handler

import (
	"net/http"

	"optikcoin/internal/api/v1/dto"
	"optikcoin/internal/model"
	"optikcoin/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

const defaultListLimit = 50

// TokenHandler serves /token-operations.
type TokenHandler struct {
	tokenSvc service.TokenService
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewTokenHandler(tokenSvc service.TokenService, validate *validator.Validate, logger zerolog.Logger) *TokenHandler {
	return &TokenHandler{tokenSvc: tokenSvc, validate: validate, logger: logger}
}

func (h *TokenHandler) RegisterRoutes(r chi.Router) {
	r.Route("/token-operations", func(r chi.Router) {
		r.Post("/create", h.Create)
		r.Post("/trade", h.Trade)
		r.Get("/list", h.List)
		r.Get("/user-tokens", h.UserTokens)
		r.Put("/update-price", h.UpdatePrice)
		r.Post("/logo-upload-url", h.LogoUploadURL)
		r.Post("/confirm-logo-upload", h.ConfirmLogoUpload)
	})
}

// Create godoc
// @Summary Launch a token
// @Description Creates a pending token and seeds its liquidity pool. Requires an active subscription.
// @Tags tokens
// @Accept json
// @Produce json
// @Param token body dto.CreateTokenRequest true "Token definition"
// @Success 200 {object} dto.TokenResponse
// @Failure 400 {object} dto.ErrorResponse "validation, authorization or provider error"
// @Failure 401 {object} dto.ErrorResponse "missing or invalid bearer token"
// @Failure 403 {object} dto.ErrorResponse "userId does not match the authenticated user"
// @Router /functions/v1/token-operations/create [post]
func (h *TokenHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTokenRequest
	if !decodeBody(w, r, h.validate, &req) {
		return
	}
	userID, ok := resolveUserID(w, r, req.UserID)
	if !ok {
		return
	}
	token, err := h.tokenSvc.CreateToken(r.Context(), service.CreateTokenInput{
		CreatorID:       userID,
		Name:            req.Name,
		Symbol:          req.Symbol,
		Description:     req.Description,
		TotalSupply:     req.TotalSupply,
		Decimals:        req.Decimals,
		LiquiditySOL:    req.LiquiditySOL,
		LiquidityTokens: req.LiquidityTokens,
		Website:         req.Website,
		Twitter:         req.Twitter,
		Telegram:        req.Telegram,
	})
	if err != nil {
		writeServiceError(w, h.logger, "create token", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.TokenResponse{Success: true, Token: token})
}

// Trade godoc
// @Summary Buy or sell a token
// @Description Applies a trade against the user's OPTK balance with a 0.3% fee.
// @Tags tokens
// @Accept json
// @Produce json
// @Param trade body dto.TradeRequest true "Trade request"
// @Success 200 {object} dto.TradeResponse
// @Failure 400 {object} dto.ErrorResponse "validation, authorization or provider error"
// @Failure 401 {object} dto.ErrorResponse "missing or invalid bearer token"
// @Failure 403 {object} dto.ErrorResponse "userId does not match the authenticated user"
// @Router /functions/v1/token-operations/trade [post]
func (h *TokenHandler) Trade(w http.ResponseWriter, r *http.Request) {
	var req dto.TradeRequest
	if !decodeBody(w, r, h.validate, &req) {
		return
	}
	userID, ok := resolveUserID(w, r, req.UserID)
	if !ok {
		return
	}
	tx, err := h.tokenSvc.Trade(r.Context(), service.TradeInput{
		UserID:  userID,
		TokenID: req.TokenID,
		Type:    req.Type,
		Amount:  req.Amount,
	})
	if err != nil {
		writeServiceError(w, h.logger, "trade token", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.TradeResponse{Success: true, Transaction: tx})
}

// List godoc
// @Summary List active tokens
// @Tags tokens
// @Produce json
// @Param limit query int false "Maximum number of tokens" default(50)
// @Param offset query int false "Pagination offset"
// @Success 200 {object} dto.TokenListResponse
// @Failure 400 {object} dto.ErrorResponse "validation, authorization or provider error"
// @Failure 401 {object} dto.ErrorResponse "missing or invalid bearer token"
// @Router /functions/v1/token-operations/list [get]
func (h *TokenHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultListLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tokens, err := h.tokenSvc.ListTokens(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, h.logger, "list tokens", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.TokenListResponse{Tokens: nonNilTokens(tokens)})
}

// UserTokens godoc
// @Summary List tokens created by a user
// @Tags tokens
// @Produce json
// @Param userId query string false "User ID, defaults to the token subject"
// @Success 200 {object} dto.TokenListResponse
// @Failure 400 {object} dto.ErrorResponse "validation, authorization or provider error"
// @Failure 401 {object} dto.ErrorResponse "missing or invalid bearer token"
// @Failure 403 {object} dto.ErrorResponse "userId does not match the authenticated user"
// @Router /functions/v1/token-operations/user-tokens [get]
func (h *TokenHandler) UserTokens(w http.ResponseWriter, r *http.Request) {
	userID, ok := resolveUserID(w, r, r.URL.Query().Get("userId"))
	if !ok {
		return
	}
	tokens, err := h.tokenSvc.UserTokens(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, "user tokens", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.TokenListResponse{Tokens: nonNilTokens(tokens)})
}

// UpdatePrice godoc
// @Summary Update a token price
// @Description Only the creator may change the price. Market cap is recomputed.
// @Tags tokens
// @Accept json
// @Produce json
// @Param price body dto.UpdatePriceRequest true "New price"
// @Success 200 {object} dto.TokenResponse
// @Failure 400 {object} dto.ErrorResponse "validation, authorization or provider error"
// @Failure 401 {object} dto.ErrorResponse "missing or invalid bearer token"
// @Failure 403 {object} dto.ErrorResponse "userId does not match the authenticated user"
// @Router /functions/v1/token-operations/update-price [put]
func (h *TokenHandler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdatePriceRequest
	if !decodeBody(w, r, h.validate, &req) {
		return
	}
	userID, ok := resolveUserID(w, r, req.UserID)
	if !ok {
		return
	}
	token, err := h.tokenSvc.UpdatePrice(r.Context(), userID, req.TokenID, req.Price)
	if err != nil {
		writeServiceError(w, h.logger, "update price", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.TokenResponse{Success: true, Token: token})
}

// LogoUploadURL godoc
// @Summary Get a logo upload URL
// @Description Returns a presigned PUT URL. The token logo changes only after confirm-logo-upload.
// @Tags tokens
// @Accept json
// @Produce json
// @Param logo body dto.LogoUploadRequest true "Logo upload request"
// @Success 200 {object} dto.LogoUploadResponse
// @Failure 400 {object} dto.ErrorResponse "validation, authorization or provider error"
// @Failure 401 {object} dto.ErrorResponse "missing or invalid bearer token"
// @Failure 403 {object} dto.ErrorResponse "userId does not match the authenticated user"
// @Router /functions/v1/token-operations/logo-upload-url [post]
func (h *TokenHandler) LogoUploadURL(w http.ResponseWriter, r *http.Request) {
	var req dto.LogoUploadRequest
	if !decodeBody(w, r, h.validate, &req) {
		return
	}
	userID, ok := resolveUserID(w, r, req.UserID)
	if !ok {
		return
	}
	up, err := h.tokenSvc.RequestLogoUpload(r.Context(), userID, req.TokenID, req.ContentType)
	if err != nil {
		writeServiceError(w, h.logger, "logo upload url", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.LogoUploadResponse{UploadURL: up.UploadURL, LogoURL: up.LogoURL, Key: up.Key})
}

// ConfirmLogoUpload godoc
// @Summary Confirm a logo upload
// @Description Sets the token logo once the uploaded object exists in storage.
// @Tags tokens
// @Accept json
// @Produce json
// @Param logo body dto.ConfirmLogoRequest true "Uploaded object key"
// @Success 200 {object} dto.TokenResponse
// @Failure 400 {object} dto.ErrorResponse "validation, authorization or provider error"
// @Failure 401 {object} dto.ErrorResponse "missing or invalid bearer token"
// @Failure 403 {object} dto.ErrorResponse "userId does not match the authenticated user"
// @Router /functions/v1/token-operations/confirm-logo-upload [post]
func (h *TokenHandler) ConfirmLogoUpload(w http.ResponseWriter, r *http.Request) {
	var req dto.ConfirmLogoRequest
	if !decodeBody(w, r, h.validate, &req) {
		return
	}
	userID, ok := resolveUserID(w, r, req.UserID)
	if !ok {
		return
	}
	token, err := h.tokenSvc.ConfirmLogoUpload(r.Context(), userID, req.TokenID, req.Key)
	if err != nil {
		writeServiceError(w, h.logger, "confirm logo upload", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.TokenResponse{Success: true, Token: token})
}

// nonNilTokens keeps empty lists encoding as [] rather than null.
func nonNilTokens(tokens []model.Token) []model.Token {
	if tokens == nil {
		return []model.Token{}
	}
	return tokens
}
