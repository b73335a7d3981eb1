package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"optikcoin/internal/gateway"
	"optikcoin/internal/model"
	"optikcoin/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// EventPublisher is the subset of the Pub/Sub publisher the reconciler needs.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, payload []byte) (string, error)
}

// EntitlementChanged is published after a user's cached tier or status moves.
type EntitlementChanged struct {
	UserID     string    `json:"user_id"`
	Tier       string    `json:"tier"`
	Status     string    `json:"status"`
	EventID    string    `json:"event_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// WebhookService reconciles local billing state from Stripe events.
type WebhookService interface {
	// HandleEvent verifies and applies one delivery. Errors wrapping
	// ErrInvalidSignature mean the payload was rejected untouched.
	HandleEvent(ctx context.Context, payload []byte, signature string) error
}

type webhookService struct {
	secret    string
	users     repository.UserRepository
	subs      repository.SubscriptionRepository
	payments  repository.PaymentRepository
	events    repository.WebhookEventRepository
	priceIDs  map[string]string
	publisher EventPublisher
	topic     string
	logger    zerolog.Logger
}

type WebhookDeps struct {
	Users    repository.UserRepository
	Subs     repository.SubscriptionRepository
	Payments repository.PaymentRepository
	Events   repository.WebhookEventRepository
	PriceIDs map[string]string
	// Publisher may be nil, which disables entitlement notifications.
	Publisher EventPublisher
	Topic     string
}

func NewWebhookService(secret string, deps WebhookDeps, logger zerolog.Logger) WebhookService {
	return &webhookService{
		secret:    secret,
		users:     deps.Users,
		subs:      deps.Subs,
		payments:  deps.Payments,
		events:    deps.Events,
		priceIDs:  deps.PriceIDs,
		publisher: deps.Publisher,
		topic:     deps.Topic,
		logger:    logger.With().Str("service", "WebhookService").Logger(),
	}
}

func (s *webhookService) HandleEvent(ctx context.Context, payload []byte, signature string) error {
	if signature == "" || s.secret == "" {
		return fmt.Errorf("%w: missing signature or secret", ErrInvalidSignature)
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Signature verification failed for Stripe webhook")
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	log := s.logger.With().Str("event_id", event.ID).Str("event_type", string(event.Type)).Logger()
	log.Info().Msg("Stripe webhook received")

	done, err := s.events.IsProcessed(ctx, event.ID)
	if err != nil {
		return err
	}
	if done {
		log.Info().Msg("Duplicate delivery; already processed")
		return nil
	}

	occurredAt := time.Unix(event.Created, 0).UTC()
	if err := s.dispatch(ctx, event, occurredAt, log); err != nil {
		log.Error().Err(err).Msg("Failed to process Stripe webhook")
		return err
	}
	return s.events.MarkProcessed(ctx, event.ID, string(event.Type), occurredAt)
}

func (s *webhookService) dispatch(ctx context.Context, event stripe.Event, at time.Time, log zerolog.Logger) error {
	if event.Data == nil {
		return errors.New("event has no data object")
	}
	raw := event.Data.Raw
	switch event.Type {
	case "customer.created":
		var c stripe.Customer
		if err := json.Unmarshal(raw, &c); err != nil {
			return fmt.Errorf("invalid customer payload: %w", err)
		}
		return s.onCustomerCreated(ctx, &c, log)
	case "payment_intent.succeeded":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(raw, &pi); err != nil {
			return fmt.Errorf("invalid payment_intent payload: %w", err)
		}
		return s.onPaymentSucceeded(ctx, &pi, log)
	case "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(raw, &pi); err != nil {
			return fmt.Errorf("invalid payment_intent payload: %w", err)
		}
		ok, err := s.payments.MarkFailed(ctx, pi.ID)
		if err != nil {
			return err
		}
		log.Info().Str("payment_intent_id", pi.ID).Bool("updated", ok).Msg("Payment marked failed")
		return nil
	case "invoice.payment_succeeded":
		return s.onInvoice(ctx, event, raw, at, model.StatusActive, log)
	case "invoice.payment_failed":
		return s.onInvoice(ctx, event, raw, at, model.StatusPastDue, log)
	case "customer.subscription.created", "customer.subscription.updated":
		var ss stripe.Subscription
		if err := json.Unmarshal(raw, &ss); err != nil {
			return fmt.Errorf("invalid subscription payload: %w", err)
		}
		return s.onSubscriptionChanged(ctx, &ss, at, log)
	case "customer.subscription.deleted":
		var ss stripe.Subscription
		if err := json.Unmarshal(raw, &ss); err != nil {
			return fmt.Errorf("invalid subscription payload: %w", err)
		}
		return s.onSubscriptionDeleted(ctx, event, &ss, at, log)
	default:
		log.Warn().Msg("Unhandled Stripe webhook event")
		return nil
	}
}

func customerID(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}

// resolveUserID reads user_id from metadata, falling back to the customer.
func (s *webhookService) resolveUserID(ctx context.Context, metadata map[string]string, custID string) (string, error) {
	if userID := metadata["user_id"]; userID != "" {
		return userID, nil
	}
	if custID == "" {
		return "", errors.New("cannot determine user: missing metadata and customer id")
	}
	s.logger.Warn().Str("stripe_customer_id", custID).Msg("Missing user_id metadata; looking up user by customer ID")
	u, err := s.users.GetUserByStripeCustomerID(ctx, custID)
	if err != nil {
		return "", fmt.Errorf("failed to lookup user by Stripe customer ID: %w", err)
	}
	if u == nil {
		return "", fmt.Errorf("no user found for customer ID: %s", custID)
	}
	return u.ID, nil
}

// planForPrice maps a provider price back to its plan type.
func (s *webhookService) planForPrice(priceID string) string {
	for plan, id := range s.priceIDs {
		if id == priceID {
			return plan
		}
	}
	return ""
}

// localStatus translates Stripe's spelling into the stored vocabulary.
func localStatus(st stripe.SubscriptionStatus) string {
	if st == stripe.SubscriptionStatusCanceled {
		return model.StatusCancelled
	}
	return string(st)
}

func (s *webhookService) onCustomerCreated(ctx context.Context, c *stripe.Customer, log zerolog.Logger) error {
	if userID := c.Metadata["user_id"]; userID != "" {
		stored, err := s.users.SetStripeCustomerID(ctx, userID, c.ID)
		if err != nil {
			return err
		}
		log.Info().Str("user_id", userID).Str("stripe_customer_id", stored).Msg("Customer id confirmed from metadata")
		return nil
	}
	if c.Email == "" {
		log.Info().Str("stripe_customer_id", c.ID).Msg("Customer has no email; nothing to backfill")
		return nil
	}
	ok, err := s.users.BackfillStripeCustomerID(ctx, c.Email, c.ID)
	if err != nil {
		return err
	}
	log.Info().Str("stripe_customer_id", c.ID).Bool("updated", ok).Msg("Customer id backfilled by email")
	return nil
}

func (s *webhookService) onPaymentSucceeded(ctx context.Context, pi *stripe.PaymentIntent, log zerolog.Logger) error {
	payment := &model.Payment{
		StripePaymentIntentID: pi.ID,
		Amount:                gateway.FromMinorUnits(pi.Amount, string(pi.Currency)),
		Currency:              string(pi.Currency),
		Description:           pi.Description,
		Metadata:              pi.Metadata,
	}
	existing, err := s.payments.GetByIntentID(ctx, pi.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		payment.UserID = existing.UserID
	} else {
		userID, err := s.resolveUserID(ctx, pi.Metadata, customerID(pi.Customer))
		if err != nil {
			return err
		}
		payment.UserID = userID
	}
	first, err := s.payments.MarkSucceeded(ctx, payment)
	if err != nil {
		return err
	}
	log.Info().
		Str("payment_intent_id", pi.ID).
		Str("user_id", payment.UserID).
		Bool("first_transition", first).
		Msg("Payment succeeded")
	return nil
}

// invoiceSubscription finds the subscription line of an invoice.
func invoiceSubscription(inv *stripe.Invoice) (string, *stripe.InvoiceLineItem) {
	if inv.Lines == nil {
		return "", nil
	}
	for _, line := range inv.Lines.Data {
		if line.Subscription != nil && line.Subscription.ID != "" {
			return line.Subscription.ID, line
		}
	}
	return "", nil
}

func (s *webhookService) onInvoice(ctx context.Context, event stripe.Event, raw json.RawMessage, at time.Time, status string, log zerolog.Logger) error {
	var inv stripe.Invoice
	if err := json.Unmarshal(raw, &inv); err != nil {
		return fmt.Errorf("invalid invoice payload: %w", err)
	}
	subID, line := invoiceSubscription(&inv)
	if subID == "" {
		log.Info().Str("invoice_id", inv.ID).Msg("Invoice has no subscription, skipping subscription update")
		return nil
	}

	var start, end *time.Time
	if line.Period != nil {
		start = unixPtr(line.Period.Start)
		end = unixPtr(line.Period.End)
	}

	local, err := s.subs.GetByStripeID(ctx, subID)
	if err != nil {
		return err
	}
	if local == nil {
		// The invoice beat both the API call and customer.subscription.created.
		userID, err := s.resolveUserID(ctx, line.Metadata, customerID(inv.Customer))
		if err != nil {
			return err
		}
		plan := line.Metadata["plan_type"]
		if plan == "" {
			return fmt.Errorf("cannot determine plan for subscription %s", subID)
		}
		local = &model.Subscription{
			UserID:               userID,
			StripeSubscriptionID: subID,
			PlanType:             plan,
			Status:               status,
			CurrentPeriodStart:   start,
			CurrentPeriodEnd:     end,
			ProviderUpdatedAt:    time.Unix(0, 0).UTC(),
		}
		if _, err := s.subs.Insert(ctx, local); err != nil {
			return err
		}
	}

	applied, err := s.subs.ApplyUpdate(ctx, model.SubscriptionUpdate{
		StripeSubscriptionID: subID,
		Status:               status,
		CurrentPeriodStart:   start,
		CurrentPeriodEnd:     end,
		EventAt:              at,
	})
	if err != nil {
		return err
	}
	if !applied {
		log.Info().Str("subscription_id", subID).Msg("Stale invoice event; syncing profile from stored subscription")
		return s.syncEntitlement(ctx, event, subID, at, log)
	}
	return s.setEntitlement(ctx, event, local.UserID, local.PlanType, status, at, log)
}

// profileState maps a stored subscription onto the cached profile fields.
// ok is false for states that leave the profile untouched.
func profileState(sub *model.Subscription) (tier, status string, ok bool) {
	switch sub.Status {
	case model.StatusActive, "trialing":
		return sub.PlanType, model.StatusActive, true
	case model.StatusPastDue, "unpaid":
		return sub.PlanType, model.StatusPastDue, true
	}
	return "", "", false
}

// syncEntitlement writes the profile from the stored subscription row. It
// covers invoices that arrive after a newer subscription event already moved
// the row, since only invoices carry the profile forward.
func (s *webhookService) syncEntitlement(ctx context.Context, event stripe.Event, subID string, at time.Time, log zerolog.Logger) error {
	current, err := s.subs.GetByStripeID(ctx, subID)
	if err != nil {
		return err
	}
	if current == nil {
		return nil
	}
	tier, status, ok := profileState(current)
	if !ok {
		return nil
	}
	u, err := s.users.GetUserByID(ctx, current.UserID)
	if err != nil {
		return err
	}
	if u != nil && u.SubscriptionTier == tier && u.SubscriptionStatus == status {
		return nil
	}
	return s.setEntitlement(ctx, event, current.UserID, tier, status, at, log)
}

func (s *webhookService) onSubscriptionChanged(ctx context.Context, ss *stripe.Subscription, at time.Time, log zerolog.Logger) error {
	var start, end *time.Time
	priceID := ""
	if ss.Items != nil && len(ss.Items.Data) > 0 {
		item := ss.Items.Data[0]
		start = unixPtr(item.CurrentPeriodStart)
		end = unixPtr(item.CurrentPeriodEnd)
		if item.Price != nil {
			priceID = item.Price.ID
		}
	}
	status := localStatus(ss.Status)
	cancel := ss.CancelAtPeriodEnd

	local, err := s.subs.GetByStripeID(ctx, ss.ID)
	if err != nil {
		return err
	}
	if local == nil {
		userID, err := s.resolveUserID(ctx, ss.Metadata, customerID(ss.Customer))
		if err != nil {
			return err
		}
		plan := ss.Metadata["plan_type"]
		if plan == "" {
			plan = s.planForPrice(priceID)
		}
		if plan == "" {
			return fmt.Errorf("cannot determine plan for subscription %s", ss.ID)
		}
		inserted, err := s.subs.Insert(ctx, &model.Subscription{
			UserID:               userID,
			StripeSubscriptionID: ss.ID,
			PlanType:             plan,
			Status:               status,
			CurrentPeriodStart:   start,
			CurrentPeriodEnd:     end,
			CancelAtPeriodEnd:    cancel,
			ProviderUpdatedAt:    at,
		})
		if err != nil {
			return err
		}
		if inserted {
			log.Info().Str("subscription_id", ss.ID).Str("user_id", userID).Str("status", status).Msg("Subscription recorded from webhook")
			return nil
		}
	}

	applied, err := s.subs.ApplyUpdate(ctx, model.SubscriptionUpdate{
		StripeSubscriptionID: ss.ID,
		Status:               status,
		CurrentPeriodStart:   start,
		CurrentPeriodEnd:     end,
		CancelAtPeriodEnd:    &cancel,
		EventAt:              at,
	})
	if err != nil {
		return err
	}
	log.Info().Str("subscription_id", ss.ID).Str("status", status).Bool("applied", applied).Msg("Subscription state updated")
	return nil
}

func (s *webhookService) onSubscriptionDeleted(ctx context.Context, event stripe.Event, ss *stripe.Subscription, at time.Time, log zerolog.Logger) error {
	local, err := s.subs.GetByStripeID(ctx, ss.ID)
	if err != nil {
		return err
	}
	var userID string
	if local != nil {
		userID = local.UserID
		if _, err := s.subs.ApplyUpdate(ctx, model.SubscriptionUpdate{
			StripeSubscriptionID: ss.ID,
			Status:               model.StatusCancelled,
			EventAt:              at,
		}); err != nil {
			return err
		}
	} else {
		userID, err = s.resolveUserID(ctx, ss.Metadata, customerID(ss.Customer))
		if err != nil {
			return err
		}
	}

	// A user who already moved to a newer live subscription keeps it.
	latest, err := s.subs.GetLatestForUser(ctx, userID)
	if err != nil {
		return err
	}
	if latest != nil && latest.StripeSubscriptionID != ss.ID && latest.IsLive() {
		log.Info().
			Str("user_id", userID).
			Str("live_subscription_id", latest.StripeSubscriptionID).
			Msg("Deleted subscription superseded; profile left unchanged")
		return nil
	}
	return s.setEntitlement(ctx, event, userID, model.TierFree, model.StatusInactive, at, log)
}

func (s *webhookService) setEntitlement(ctx context.Context, event stripe.Event, userID, tier, status string, at time.Time, log zerolog.Logger) error {
	if err := s.users.UpdateSubscriptionState(ctx, userID, tier, status); err != nil {
		return err
	}
	log.Info().Str("user_id", userID).Str("tier", tier).Str("status", status).Msg("User entitlement updated")

	if s.publisher == nil || s.topic == "" {
		return nil
	}
	msg, err := json.Marshal(EntitlementChanged{UserID: userID, Tier: tier, Status: status, EventID: event.ID, OccurredAt: at})
	if err != nil {
		return err
	}
	// The profile is already written; a lost notification must not make
	// Stripe redeliver the event.
	if _, err := s.publisher.Publish(ctx, s.topic, msg); err != nil {
		log.Error().Err(err).Str("topic", s.topic).Msg("Failed to publish entitlement change")
	}
	return nil
}

func unixPtr(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
