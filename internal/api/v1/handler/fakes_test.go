package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"optikcoin/internal/gateway"
	"optikcoin/internal/middleware"
	"optikcoin/internal/model"
	"optikcoin/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	testLogger   = zerolog.Nop()
	testValidate = validator.New(validator.WithRequiredStructEnabled())
)

type fakePaymentSvc struct {
	intent func(service.PaymentIntentInput) (*service.PaymentIntentResult, error)
	method func(gateway.CardDetails) (string, error)
}

func (f *fakePaymentSvc) CreatePaymentIntent(_ context.Context, in service.PaymentIntentInput) (*service.PaymentIntentResult, error) {
	return f.intent(in)
}

func (f *fakePaymentSvc) CreatePaymentMethod(_ context.Context, card gateway.CardDetails) (string, error) {
	return f.method(card)
}

type fakeSubscriptionSvc struct {
	create func(service.SubscriptionInput) (*service.SubscriptionResult, error)
}

func (f *fakeSubscriptionSvc) CreateSubscription(_ context.Context, in service.SubscriptionInput) (*service.SubscriptionResult, error) {
	return f.create(in)
}

type fakeWebhookSvc struct {
	err       error
	payload   []byte
	signature string
}

func (f *fakeWebhookSvc) HandleEvent(_ context.Context, payload []byte, signature string) error {
	f.payload, f.signature = payload, signature
	return f.err
}

type fakeTokenSvc struct {
	created *service.CreateTokenInput
	trade   func(service.TradeInput) (*model.Transaction, error)
	limit   int
	offset  int
	tokens  []model.Token
	err     error
}

func (f *fakeTokenSvc) CreateToken(_ context.Context, in service.CreateTokenInput) (*model.Token, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = &in
	return &model.Token{ID: "3c9e1f7a-6d2b-4a58-b0e4-9f8a7c6d5e41", CreatorID: in.CreatorID, Symbol: strings.ToUpper(in.Symbol), Status: model.TokenPending}, nil
}

func (f *fakeTokenSvc) Trade(_ context.Context, in service.TradeInput) (*model.Transaction, error) {
	return f.trade(in)
}

func (f *fakeTokenSvc) ListTokens(_ context.Context, limit, offset int) ([]model.Token, error) {
	f.limit, f.offset = limit, offset
	return f.tokens, f.err
}

func (f *fakeTokenSvc) UserTokens(_ context.Context, userID string) ([]model.Token, error) {
	return f.tokens, f.err
}

func (f *fakeTokenSvc) UpdatePrice(_ context.Context, userID, tokenID string, price decimal.Decimal) (*model.Token, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.Token{ID: tokenID, CreatorID: userID, Price: price}, nil
}

func (f *fakeTokenSvc) RequestLogoUpload(_ context.Context, userID, tokenID, contentType string) (*service.LogoUpload, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &service.LogoUpload{UploadURL: "https://upload", LogoURL: "https://public/" + tokenID, Key: "tokens/" + tokenID + "/logo.png"}, nil
}

func (f *fakeTokenSvc) ConfirmLogoUpload(_ context.Context, userID, tokenID, key string) (*model.Token, error) {
	if f.err != nil {
		return nil, f.err
	}
	logoURL := "https://public/" + key
	return &model.Token{ID: tokenID, CreatorID: userID, LogoURL: &logoURL}, nil
}

type fakeMiningSvc struct {
	claimed decimal.Decimal
	err     error
	userID  string
}

func (f *fakeMiningSvc) StartMining(_ context.Context, userID, poolName string) (*model.MiningRecord, error) {
	f.userID = userID
	if f.err != nil {
		return nil, f.err
	}
	return &model.MiningRecord{UserID: userID, PoolName: poolName, Status: model.MiningActive}, nil
}

func (f *fakeMiningSvc) StopMining(_ context.Context, userID string) error {
	f.userID = userID
	return f.err
}

func (f *fakeMiningSvc) ClaimRewards(_ context.Context, userID string) (decimal.Decimal, error) {
	f.userID = userID
	return f.claimed, f.err
}

func (f *fakeMiningSvc) UpdateStats(_ context.Context, userID string, hashRate, earned decimal.Decimal) (*model.MiningRecord, error) {
	f.userID = userID
	if f.err != nil {
		return nil, f.err
	}
	return &model.MiningRecord{UserID: userID, HashRate: hashRate, EarningsToday: earned}, nil
}

func (f *fakeMiningSvc) UserMining(_ context.Context, userID string) (*model.MiningRecord, error) {
	f.userID = userID
	return nil, f.err
}

func (f *fakeMiningSvc) PoolStats(_ context.Context) (*model.PoolStats, error) {
	return &model.PoolStats{ActiveMiners: 2}, f.err
}

type fakeChatSvc struct{}

func (fakeChatSvc) Chat(_ context.Context, sessionID, prompt string) (*service.ChatReply, error) {
	if sessionID == "" {
		sessionID = "generated"
	}
	return &service.ChatReply{Response: "Echo: " + prompt, SessionID: sessionID, HistoryLength: 2}, nil
}

func (fakeChatSvc) EvictExpired(context.Context) (int64, error) { return 0, nil }

// serve routes one request through a chi router, optionally as an
// authenticated subject.
func serve(t *testing.T, register func(chi.Router), method, target, body, subject string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	register(r)
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if subject != "" {
		req = req.WithContext(context.WithValue(req.Context(), middleware.UserContextKey, subject))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	if got := decodeResponse(t, rec)["error"]; got != msg {
		t.Fatalf("error = %v, want %q", got, msg)
	}
}
