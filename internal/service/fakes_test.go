package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"optikcoin/internal/gateway"
	"optikcoin/internal/model"
	"optikcoin/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var testLogger = zerolog.Nop()

// memDB is an in-memory stand-in for the Postgres store shared by the fake
// repositories below. Conditional updates mirror the SQL predicates.
type memDB struct {
	mu           sync.Mutex
	users        map[string]*model.UserProfile
	subs         map[string]*model.Subscription
	payments     map[string]*model.Payment
	tokens       map[string]*model.Token
	transactions []model.Transaction
	mining       map[string]*model.MiningRecord
	events       map[string]string
	chat         []model.ChatMessage
	seq          int
}

func newMemDB() *memDB {
	return &memDB{
		users:    map[string]*model.UserProfile{},
		subs:     map[string]*model.Subscription{},
		payments: map[string]*model.Payment{},
		tokens:   map[string]*model.Token{},
		mining:   map[string]*model.MiningRecord{},
		events:   map[string]string{},
	}
}

func (db *memDB) nextID(prefix string) string {
	db.seq++
	return fmt.Sprintf("%s_%d", prefix, db.seq)
}

func (db *memDB) addUser(id, email string) *model.UserProfile {
	u := &model.UserProfile{
		ID:                 id,
		Email:              email,
		SubscriptionTier:   model.TierFree,
		SubscriptionStatus: model.StatusInactive,
	}
	db.users[id] = u
	return u
}

func (db *memDB) user(id string) model.UserProfile {
	db.mu.Lock()
	defer db.mu.Unlock()
	return *db.users[id]
}

// users

type fakeUsers struct{ db *memDB }

func (f fakeUsers) GetUserByID(_ context.Context, id string) (*model.UserProfile, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f fakeUsers) GetUserByStripeCustomerID(_ context.Context, customerID string) (*model.UserProfile, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, u := range f.db.users {
		if u.StripeCustomerID != nil && *u.StripeCustomerID == customerID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f fakeUsers) SetStripeCustomerID(_ context.Context, userID, customerID string) (string, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[userID]
	if !ok {
		return "", errors.New("no rows")
	}
	if u.StripeCustomerID == nil {
		id := customerID
		u.StripeCustomerID = &id
	}
	return *u.StripeCustomerID, nil
}

func (f fakeUsers) BackfillStripeCustomerID(_ context.Context, email, customerID string) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	updated := false
	for _, u := range f.db.users {
		if strings.EqualFold(u.Email, email) && u.StripeCustomerID == nil {
			id := customerID
			u.StripeCustomerID = &id
			updated = true
		}
	}
	return updated, nil
}

func (f fakeUsers) UpdateSubscriptionState(_ context.Context, userID, tier, status string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if u, ok := f.db.users[userID]; ok {
		u.SubscriptionTier = tier
		u.SubscriptionStatus = status
	}
	return nil
}

// subscriptions

type fakeSubs struct{ db *memDB }

func (f fakeSubs) Insert(_ context.Context, sub *model.Subscription) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.subs[sub.StripeSubscriptionID]; ok {
		return false, nil
	}
	sub.ID = f.db.nextID("sub_row")
	sub.CreatedAt = time.Now().Add(time.Duration(f.db.seq) * time.Millisecond)
	cp := *sub
	f.db.subs[sub.StripeSubscriptionID] = &cp
	return true, nil
}

func (f fakeSubs) GetByStripeID(_ context.Context, id string) (*model.Subscription, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	s, ok := f.db.subs[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f fakeSubs) GetLatestForUser(_ context.Context, userID string) (*model.Subscription, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var latest *model.Subscription
	for _, s := range f.db.subs {
		if s.UserID == userID && (latest == nil || s.CreatedAt.After(latest.CreatedAt)) {
			latest = s
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (f fakeSubs) ApplyUpdate(_ context.Context, upd model.SubscriptionUpdate) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	s, ok := f.db.subs[upd.StripeSubscriptionID]
	if !ok || upd.EventAt.Before(s.ProviderUpdatedAt) {
		return false, nil
	}
	s.Status = upd.Status
	if upd.CurrentPeriodStart != nil {
		s.CurrentPeriodStart = upd.CurrentPeriodStart
	}
	if upd.CurrentPeriodEnd != nil {
		s.CurrentPeriodEnd = upd.CurrentPeriodEnd
	}
	if upd.CancelAtPeriodEnd != nil {
		s.CancelAtPeriodEnd = *upd.CancelAtPeriodEnd
	}
	s.ProviderUpdatedAt = upd.EventAt
	return true, nil
}

func (db *memDB) subscription(id string) *model.Subscription {
	db.mu.Lock()
	defer db.mu.Unlock()
	s, ok := db.subs[id]
	if !ok {
		return nil
	}
	cp := *s
	return &cp
}

// payments

type fakePayments struct{ db *memDB }

func (f fakePayments) Create(_ context.Context, p *model.Payment) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p.ID = f.db.nextID("pay")
	cp := *p
	f.db.payments[p.StripePaymentIntentID] = &cp
	return nil
}

func (f fakePayments) GetByIntentID(_ context.Context, intentID string) (*model.Payment, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p, ok := f.db.payments[intentID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f fakePayments) MarkSucceeded(_ context.Context, p *model.Payment) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	existing, ok := f.db.payments[p.StripePaymentIntentID]
	if !ok {
		cp := *p
		cp.ID = f.db.nextID("pay")
		cp.Status = model.PaymentSucceeded
		f.db.payments[p.StripePaymentIntentID] = &cp
		existing = &cp
	} else {
		if existing.Status == model.PaymentSucceeded {
			return false, nil
		}
		existing.Status = model.PaymentSucceeded
	}
	if u, ok := f.db.users[existing.UserID]; ok {
		u.TotalSpent = u.TotalSpent.Add(existing.Amount)
	}
	return true, nil
}

func (f fakePayments) MarkFailed(_ context.Context, intentID string) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p, ok := f.db.payments[intentID]
	if !ok || p.Status != model.PaymentPending {
		return false, nil
	}
	p.Status = model.PaymentFailed
	return true, nil
}

func (db *memDB) payment(intentID string) *model.Payment {
	db.mu.Lock()
	defer db.mu.Unlock()
	p, ok := db.payments[intentID]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

// balance applies delta unless it would go negative, like adjustBalance.
func (db *memDB) balance(userID string, delta decimal.Decimal) bool {
	u, ok := db.users[userID]
	if !ok || u.OPTKBalance.Add(delta).IsNegative() {
		return false
	}
	u.OPTKBalance = u.OPTKBalance.Add(delta)
	return true
}

// tokens and transactions

type fakeTokens struct{ db *memDB }

func (f fakeTokens) CreateWithSeed(_ context.Context, t *model.Token, seed *model.Transaction) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	t.ID = f.db.nextID("tok")
	t.CreatedAt = time.Now()
	cp := *t
	f.db.tokens[t.ID] = &cp
	if seed != nil {
		seed.TokenID = &cp.ID
		seed.ID = f.db.nextID("tx")
		f.db.transactions = append(f.db.transactions, *seed)
	}
	return nil
}

func (f fakeTokens) GetByID(_ context.Context, id string) (*model.Token, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	t, ok := f.db.tokens[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (f fakeTokens) list(match func(*model.Token) bool) []model.Token {
	var out []model.Token
	for _, t := range f.db.tokens {
		if match(t) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (f fakeTokens) ListActive(_ context.Context, limit, offset int) ([]model.Token, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	all := f.list(func(t *model.Token) bool { return t.Status == model.TokenActive })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f fakeTokens) ListByCreator(_ context.Context, creatorID string) ([]model.Token, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	return f.list(func(t *model.Token) bool { return t.CreatorID == creatorID }), nil
}

func (f fakeTokens) UpdatePrice(_ context.Context, id string, price decimal.Decimal) (*model.Token, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	t, ok := f.db.tokens[id]
	if !ok {
		return nil, nil
	}
	t.Price = price
	t.MarketCap = price.Mul(t.TotalSupply)
	cp := *t
	return &cp, nil
}

func (f fakeTokens) UpdateLogoURL(_ context.Context, id, logoURL string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if t, ok := f.db.tokens[id]; ok {
		t.LogoURL = &logoURL
	}
	return nil
}

func (f fakeTokens) Activate(_ context.Context, id string) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	t, ok := f.db.tokens[id]
	if !ok || t.Status != model.TokenPending {
		return false, nil
	}
	t.Status = model.TokenActive
	return true, nil
}

type fakeTrades struct{ db *memDB }

func (f fakeTrades) ApplyTrade(_ context.Context, t *model.Transaction, delta decimal.Decimal) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if !f.db.balance(t.UserID, delta) {
		return false, nil
	}
	t.ID = f.db.nextID("tx")
	f.db.transactions = append(f.db.transactions, *t)
	return true, nil
}

func (db *memDB) transactionsOfType(typ string) []model.Transaction {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []model.Transaction
	for _, t := range db.transactions {
		if t.Type == typ {
			out = append(out, t)
		}
	}
	return out
}

// mining

type fakeMining struct{ db *memDB }

func (f fakeMining) Get(_ context.Context, userID string) (*model.MiningRecord, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	m, ok := f.db.mining[userID]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (f fakeMining) Start(_ context.Context, userID, poolName string) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	m, ok := f.db.mining[userID]
	if ok && m.Status == model.MiningActive {
		return false, nil
	}
	if !ok {
		m = &model.MiningRecord{UserID: userID}
		f.db.mining[userID] = m
	}
	m.PoolName = poolName
	m.Status = model.MiningActive
	m.HashRate = decimal.Zero
	m.EarningsToday = decimal.Zero
	return true, nil
}

func (f fakeMining) Stop(_ context.Context, userID string) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	m, ok := f.db.mining[userID]
	if !ok || m.Status != model.MiningActive {
		return false, nil
	}
	m.Status = model.MiningInactive
	m.HashRate = decimal.Zero
	return true, nil
}

func (f fakeMining) UpdateStats(_ context.Context, userID string, hashRate, earned decimal.Decimal) (*model.MiningRecord, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	m, ok := f.db.mining[userID]
	if !ok || m.Status != model.MiningActive {
		return nil, nil
	}
	m.HashRate = hashRate
	m.EarningsToday = m.EarningsToday.Add(earned)
	cp := *m
	return &cp, nil
}

func (f fakeMining) Claim(_ context.Context, userID string, reward *model.Transaction) (decimal.Decimal, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	m, ok := f.db.mining[userID]
	if !ok || !m.EarningsToday.IsPositive() {
		return decimal.Zero, nil
	}
	amount := m.EarningsToday
	if !f.db.balance(userID, amount) {
		return decimal.Zero, repository.ErrProfileNotFound
	}
	m.TotalEarnings = m.TotalEarnings.Add(amount)
	m.EarningsToday = decimal.Zero
	reward.UserID = userID
	reward.Amount = amount
	reward.TotalValue = amount
	reward.ID = f.db.nextID("tx")
	f.db.transactions = append(f.db.transactions, *reward)
	return amount, nil
}

func (f fakeMining) PoolStats(_ context.Context) (*model.PoolStats, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var s model.PoolStats
	for _, m := range f.db.mining {
		if m.Status == model.MiningActive {
			s.ActiveMiners++
			s.TotalHashRate = s.TotalHashRate.Add(m.HashRate)
		}
		s.TotalEarningsToday = s.TotalEarningsToday.Add(m.EarningsToday)
		s.TotalEarnings = s.TotalEarnings.Add(m.TotalEarnings)
	}
	return &s, nil
}

// webhook events

type fakeEvents struct{ db *memDB }

func (f fakeEvents) IsProcessed(_ context.Context, eventID string) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	_, ok := f.db.events[eventID]
	return ok, nil
}

func (f fakeEvents) MarkProcessed(_ context.Context, eventID, eventType string, _ time.Time) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.events[eventID] = eventType
	return nil
}

// chat

type fakeChat struct{ db *memDB }

func (f fakeChat) AppendMessage(_ context.Context, sessionID, role, content string, expiresAt time.Time) (*model.ChatMessage, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.seq++
	msg := model.ChatMessage{ID: int64(f.db.seq), SessionID: sessionID, Role: role, Content: content, ExpiresAt: expiresAt}
	for i := range f.db.chat {
		if f.db.chat[i].SessionID == sessionID {
			f.db.chat[i].ExpiresAt = expiresAt
		}
	}
	f.db.chat = append(f.db.chat, msg)
	return &msg, nil
}

func (f fakeChat) ListMessages(_ context.Context, sessionID string, limit int) ([]model.ChatMessage, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []model.ChatMessage
	for _, m := range f.db.chat {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (f fakeChat) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var kept []model.ChatMessage
	var n int64
	for _, m := range f.db.chat {
		if !m.ExpiresAt.After(now) {
			n++
			continue
		}
		kept = append(kept, m)
	}
	f.db.chat = kept
	return n, nil
}

// gateway

type fakeGateway struct {
	mu              sync.Mutex
	customers       int
	intents         []gateway.PaymentIntentRequest
	attached        []string
	defaults        []string
	subscriptions   []gateway.SubscriptionRequest
	subStatus       string
	failIntent      error
	failSubscribe   error
	paymentMethodID string
}

func (g *fakeGateway) CreateCustomer(_ context.Context, _, _ string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.customers++
	return fmt.Sprintf("cus_%d", g.customers), nil
}

func (g *fakeGateway) CreatePaymentMethod(_ context.Context, card gateway.CardDetails) (string, error) {
	if g.paymentMethodID == "" {
		return "pm_test", nil
	}
	return g.paymentMethodID, nil
}

func (g *fakeGateway) CreatePaymentIntent(_ context.Context, req gateway.PaymentIntentRequest) (*gateway.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failIntent != nil {
		return nil, g.failIntent
	}
	g.intents = append(g.intents, req)
	id := fmt.Sprintf("pi_%d", len(g.intents))
	return &gateway.PaymentIntent{ID: id, ClientSecret: id + "_secret", Status: "requires_payment_method"}, nil
}

func (g *fakeGateway) AttachPaymentMethod(_ context.Context, paymentMethodID, customerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.attached = append(g.attached, paymentMethodID+"->"+customerID)
	return nil
}

func (g *fakeGateway) SetDefaultPaymentMethod(_ context.Context, customerID, paymentMethodID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.defaults = append(g.defaults, customerID+":"+paymentMethodID)
	return nil
}

func (g *fakeGateway) CreateSubscription(_ context.Context, req gateway.SubscriptionRequest) (*gateway.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failSubscribe != nil {
		return nil, g.failSubscribe
	}
	g.subscriptions = append(g.subscriptions, req)
	status := g.subStatus
	if status == "" {
		status = "incomplete"
	}
	id := fmt.Sprintf("sub_%d", len(g.subscriptions))
	start := time.Unix(1_700_000_000, 0).UTC()
	end := start.AddDate(0, 1, 0)
	return &gateway.Subscription{
		ID:                 id,
		Status:             status,
		CurrentPeriodStart: &start,
		CurrentPeriodEnd:   &end,
		ClientSecret:       id + "_secret",
		Created:            start,
	}, nil
}

// queue, publisher, presigner

type fakeQueue struct {
	mu   sync.Mutex
	sent map[string][][]byte
	err  error
}

func (q *fakeQueue) Send(_ context.Context, queue string, payload []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	if q.sent == nil {
		q.sent = map[string][][]byte{}
	}
	q.sent[queue] = append(q.sent[queue], payload)
	return nil
}

type fakePublisher struct {
	mu       sync.Mutex
	messages [][]byte
	topics   []string
}

func (p *fakePublisher) Publish(_ context.Context, topic string, payload []byte) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.messages = append(p.messages, payload)
	return fmt.Sprintf("msg-%d", len(p.messages)), nil
}

// fakeLogoStorage treats keys in uploaded as present in the bucket.
type fakeLogoStorage struct {
	uploaded map[string]bool
}

func (f *fakeLogoStorage) PresignUpload(_ context.Context, key, _ string) (string, string, error) {
	return "https://storage.test/upload/" + key + "?sig=1", f.URL(key), nil
}

func (f *fakeLogoStorage) Exists(_ context.Context, key string) (bool, error) {
	return f.uploaded[key], nil
}

func (f *fakeLogoStorage) URL(key string) string {
	return "https://storage.test/public/" + key
}
