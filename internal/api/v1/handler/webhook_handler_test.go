package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"optikcoin/internal/service"

	"github.com/go-chi/chi/v5"
)

func postWebhook(t *testing.T, svc *fakeWebhookSvc, signature string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	NewWebhookHandler(svc, testLogger).RegisterRoutes(r)
	req := httptest.NewRequest(http.MethodPost, "/stripe-webhook", strings.NewReader(`{"id":"evt_1"}`))
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestWebhookAcknowledges(t *testing.T) {
	svc := &fakeWebhookSvc{}
	rec := postWebhook(t, svc, "t=1,v1=abc")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if decodeResponse(t, rec)["received"] != true {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
	if string(svc.payload) != `{"id":"evt_1"}` || svc.signature != "t=1,v1=abc" {
		t.Fatalf("raw body or signature not forwarded: %q %q", svc.payload, svc.signature)
	}
}

func TestWebhookMissingSignature(t *testing.T) {
	svc := &fakeWebhookSvc{}
	rec := postWebhook(t, svc, "")
	expectError(t, rec, http.StatusBadRequest, "Missing stripe-signature header")
	if svc.payload != nil {
		t.Fatal("service must not see unsigned payloads")
	}
}

func TestWebhookInvalidSignature(t *testing.T) {
	svc := &fakeWebhookSvc{err: fmt.Errorf("%w: no valid signature", service.ErrInvalidSignature)}
	rec := postWebhook(t, svc, "t=1,v1=bad")
	expectError(t, rec, http.StatusBadRequest, service.ErrInvalidSignature.Error())
}

func TestWebhookProcessingFailureIs500(t *testing.T) {
	svc := &fakeWebhookSvc{err: errors.New("db down")}
	rec := postWebhook(t, svc, "t=1,v1=abc")
	expectError(t, rec, http.StatusInternalServerError, "Webhook processing failed")
}
