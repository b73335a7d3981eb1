package service

import (
	"context"
	"errors"
	"testing"

	"optikcoin/internal/gateway"
	"optikcoin/internal/model"

	"github.com/shopspring/decimal"
)

func newPaymentFixture() (*memDB, *fakeGateway, PaymentService) {
	db := newMemDB()
	db.addUser("u1", "u1@example.com")
	gw := &fakeGateway{}
	users := fakeUsers{db}
	customers := NewCustomerService(users, gw, testLogger)
	svc := NewPaymentService(users, fakePayments{db}, customers, gw, testLogger)
	return db, gw, svc
}

func TestCreatePaymentIntentRecordsPendingPayment(t *testing.T) {
	db, gw, svc := newPaymentFixture()

	res, err := svc.CreatePaymentIntent(context.Background(), PaymentIntentInput{
		UserID:      "u1",
		Amount:      decimal.RequireFromString("19.99"),
		Description: "OPTK top-up",
		PlanType:    "optk_pack",
	})
	if err != nil {
		t.Fatalf("CreatePaymentIntent: %v", err)
	}
	if res.ClientSecret == "" || res.PaymentIntentID == "" {
		t.Fatalf("expected client secret and intent id, got %+v", res)
	}

	p := db.payment(res.PaymentIntentID)
	if p == nil {
		t.Fatal("expected a payment row")
	}
	if p.Status != model.PaymentPending {
		t.Errorf("status = %s, want pending", p.Status)
	}
	if p.Currency != "usd" {
		t.Errorf("currency = %s, want usd default", p.Currency)
	}
	if len(db.payments) != 1 {
		t.Errorf("expected exactly one payment, got %d", len(db.payments))
	}

	req := gw.intents[0]
	if req.AmountMinor != 1999 {
		t.Errorf("amount minor = %d, want 1999", req.AmountMinor)
	}
	if req.Metadata["user_id"] != "u1" || req.Metadata["plan_type"] != "optk_pack" {
		t.Errorf("unexpected metadata %v", req.Metadata)
	}
}

func TestCustomerIsCreatedOnceAndReused(t *testing.T) {
	db, gw, svc := newPaymentFixture()
	ctx := context.Background()
	in := PaymentIntentInput{UserID: "u1", Amount: decimal.NewFromInt(5), Description: "x"}

	for i := 0; i < 2; i++ {
		if _, err := svc.CreatePaymentIntent(ctx, in); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if gw.customers != 1 {
		t.Fatalf("expected one provider customer, got %d", gw.customers)
	}
	u := db.user("u1")
	if u.StripeCustomerID == nil || *u.StripeCustomerID != "cus_1" {
		t.Fatalf("expected stored customer id cus_1, got %v", u.StripeCustomerID)
	}
	for _, req := range gw.intents {
		if req.CustomerID != "cus_1" {
			t.Errorf("intent used customer %s, want cus_1", req.CustomerID)
		}
	}
}

func TestCustomerRaceKeepsStoredID(t *testing.T) {
	db := newMemDB()
	u := db.addUser("u1", "u1@example.com")
	existing := "cus_existing"
	gw := &fakeGateway{}
	svc := NewCustomerService(fakeUsers{db}, gw, testLogger)

	// The caller holds a stale profile read from before another request stored an id.
	stale := *u
	u.StripeCustomerID = &existing

	got, err := svc.GetOrCreateCustomer(context.Background(), &stale)
	if err != nil {
		t.Fatalf("GetOrCreateCustomer: %v", err)
	}
	if got != existing {
		t.Fatalf("got %s, want stored %s", got, existing)
	}
}

func TestCreatePaymentIntentFailures(t *testing.T) {
	cases := []struct {
		name    string
		in      PaymentIntentInput
		gwErr   error
		wantErr error
	}{
		{"zero amount", PaymentIntentInput{UserID: "u1", Amount: decimal.Zero}, nil, ErrInvalidAmount},
		{"negative amount", PaymentIntentInput{UserID: "u1", Amount: decimal.NewFromInt(-3)}, nil, ErrInvalidAmount},
		{"sub-cent amount", PaymentIntentInput{UserID: "u1", Amount: decimal.RequireFromString("0.001")}, nil, ErrInvalidAmount},
		{"unknown user", PaymentIntentInput{UserID: "ghost", Amount: decimal.NewFromInt(1)}, nil, ErrUserNotFound},
		{"provider error", PaymentIntentInput{UserID: "u1", Amount: decimal.NewFromInt(1)}, &gateway.ProviderError{Op: "create payment intent", Msg: "Your card was declined.", Err: errors.New("card_declined")}, gateway.ErrProvider},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, gw, svc := newPaymentFixture()
			gw.failIntent = tc.gwErr
			_, err := svc.CreatePaymentIntent(context.Background(), tc.in)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if len(db.payments) != 0 {
				t.Fatalf("no payment row may be written on failure, got %d", len(db.payments))
			}
		})
	}
}

func TestCreatePaymentMethodValidatesCard(t *testing.T) {
	_, _, svc := newPaymentFixture()
	if _, err := svc.CreatePaymentMethod(context.Background(), gateway.CardDetails{Number: "4242424242424242", ExpMonth: 13, ExpYear: 2030, CVC: "123"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	id, err := svc.CreatePaymentMethod(context.Background(), gateway.CardDetails{Number: "4242424242424242", ExpMonth: 12, ExpYear: 2030, CVC: "123"})
	if err != nil || id != "pm_test" {
		t.Fatalf("got %q, %v", id, err)
	}
}

func TestZeroDecimalCurrencyIsNotScaled(t *testing.T) {
	db, gw, svc := newPaymentFixture()
	res, err := svc.CreatePaymentIntent(context.Background(), PaymentIntentInput{
		UserID:      "u1",
		Amount:      decimal.NewFromInt(1500),
		Currency:    "JPY",
		Description: "OPTK top-up",
	})
	if err != nil {
		t.Fatalf("CreatePaymentIntent: %v", err)
	}
	if got := gw.intents[0].AmountMinor; got != 1500 {
		t.Fatalf("amount minor = %d, want 1500", got)
	}
	if p := db.payment(res.PaymentIntentID); p.Currency != "jpy" || !p.Amount.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("unexpected payment %+v", p)
	}
}
