package repository

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"optikcoin/internal/database"
	"optikcoin/internal/model"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"
)

// openTestDB connects to a disposable Postgres and applies the schema.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set, skip repository integration test")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *sql.DB, balance string) string {
	t.Helper()
	id := uuid.NewString()
	_, err := db.Exec(`INSERT INTO user_profiles (id, email, optk_balance) VALUES ($1, $2, $3)`,
		id, id+"@example.com", balance)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return id
}

func TestSetStripeCustomerIDKeepsFirst(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	users := NewUserRepo(db)
	uid := seedUser(t, db, "0")

	first := "cus_" + uuid.NewString()[:8]
	got, err := users.SetStripeCustomerID(ctx, uid, first)
	if err != nil || got != first {
		t.Fatalf("first set = %q, %v", got, err)
	}
	got, err = users.SetStripeCustomerID(ctx, uid, "cus_other")
	if err != nil || got != first {
		t.Fatalf("second set = %q, %v; the stored id must win", got, err)
	}
}

func TestMiningStartAndClaim(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	mining := NewMiningRepo(db)
	uid := seedUser(t, db, "0")

	ok, err := mining.Start(ctx, uid, "OptikPool")
	if err != nil || !ok {
		t.Fatalf("start = %v, %v", ok, err)
	}
	ok, err = mining.Start(ctx, uid, "OptikPool")
	if err != nil || ok {
		t.Fatalf("second start = %v, %v; want false", ok, err)
	}

	reward := &model.Transaction{Type: model.TxMiningReward, TxHash: "0xabc", Status: "completed"}
	claimed, err := mining.Claim(ctx, uid, reward)
	if err != nil || !claimed.IsZero() {
		t.Fatalf("empty claim = %s, %v", claimed, err)
	}

	if rec, err := mining.UpdateStats(ctx, uid, decimal.NewFromInt(100), decimal.RequireFromString("1.5")); err != nil || rec == nil {
		t.Fatalf("update stats = %v, %v", rec, err)
	}
	claimed, err = mining.Claim(ctx, uid, reward)
	if err != nil || !claimed.Equal(decimal.RequireFromString("1.5")) {
		t.Fatalf("claim = %s, %v", claimed, err)
	}
	var balance decimal.Decimal
	if err := db.QueryRow(`SELECT optk_balance FROM user_profiles WHERE id = $1`, uid).Scan(&balance); err != nil {
		t.Fatal(err)
	}
	if !balance.Equal(decimal.RequireFromString("1.5")) {
		t.Fatalf("balance = %s", balance)
	}
}

func TestApplyTradeRejectsOverdraft(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	trades := NewTransactionRepo(db)
	uid := seedUser(t, db, "10")

	buy := &model.Transaction{UserID: uid, Type: model.TxBuy, Amount: decimal.NewFromInt(1), TotalValue: decimal.NewFromInt(20), TxHash: "0x1", Status: "completed"}
	ok, err := trades.ApplyTrade(ctx, buy, decimal.NewFromInt(-20))
	if err != nil || ok {
		t.Fatalf("overdraft = %v, %v; want false", ok, err)
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE user_id = $1`, uid).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("rejected trade wrote %d transactions", n)
	}
}

func TestSubscriptionUpdateIgnoresStaleEvents(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	subs := NewSubscriptionRepo(db)
	uid := seedUser(t, db, "0")
	stripeID := "sub_" + uuid.NewString()[:8]
	base := time.Now().UTC().Truncate(time.Second)

	if _, err := subs.Insert(ctx, &model.Subscription{
		UserID: uid, StripeSubscriptionID: stripeID, PlanType: model.TierProCreator,
		Status: "incomplete", ProviderUpdatedAt: base,
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	applied, err := subs.ApplyUpdate(ctx, model.SubscriptionUpdate{StripeSubscriptionID: stripeID, Status: "active", EventAt: base.Add(time.Minute)})
	if err != nil || !applied {
		t.Fatalf("newer update = %v, %v", applied, err)
	}
	applied, err = subs.ApplyUpdate(ctx, model.SubscriptionUpdate{StripeSubscriptionID: stripeID, Status: "past_due", EventAt: base})
	if err != nil || applied {
		t.Fatalf("stale update = %v, %v; want ignored", applied, err)
	}
	got, err := subs.GetByStripeID(ctx, stripeID)
	if err != nil || got.Status != "active" {
		t.Fatalf("status = %v, %v", got, err)
	}
}

func TestWebhookEventsAreRemembered(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	events := NewWebhookEventRepo(db)
	id := "evt_" + uuid.NewString()

	seen, err := events.IsProcessed(ctx, id)
	if err != nil || seen {
		t.Fatalf("fresh event = %v, %v", seen, err)
	}
	if err := events.MarkProcessed(ctx, id, "invoice.payment_succeeded", time.Now()); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if err := events.MarkProcessed(ctx, id, "invoice.payment_succeeded", time.Now()); err != nil {
		t.Fatalf("mark twice: %v", err)
	}
	if seen, _ := events.IsProcessed(ctx, id); !seen {
		t.Fatal("event should be marked processed")
	}
}
