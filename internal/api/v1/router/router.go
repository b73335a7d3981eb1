package router

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"optikcoin/internal/api/v1/handler"
	"optikcoin/internal/config"
	"optikcoin/internal/gateway"
	"optikcoin/internal/middleware"
	"optikcoin/internal/pgmq"
	"optikcoin/internal/pubsub"
	"optikcoin/internal/repository"
	"optikcoin/internal/service"
	"optikcoin/internal/storage"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers mounted by Routes.
type Handlers struct {
	Payment      *handler.PaymentHandler
	Subscription *handler.SubscriptionHandler
	Webhook      *handler.WebhookHandler
	Token        *handler.TokenHandler
	Mining       *handler.MiningHandler
	Entitlement  *handler.EntitlementHandler
	Stub         *handler.StubHandler
}

// New wires repositories, services and handlers on top of db. The returned
// cleanup releases the Pub/Sub client, if one was created.
func New(ctx context.Context, cfg *config.Config, db *sql.DB, logger zerolog.Logger) (http.Handler, func(), error) {
	logger.Info().Str("environment", cfg.Environment).Msg("Router initialized")
	cleanup := func() {}

	// 1. Validator
	validate := validator.New(validator.WithRequiredStructEnabled())

	// 2. Repositories
	userRepo := repository.NewUserRepo(db)
	subRepo := repository.NewSubscriptionRepo(db)
	paymentRepo := repository.NewPaymentRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	miningRepo := repository.NewMiningRepo(db)
	eventRepo := repository.NewWebhookEventRepo(db)
	chatRepo := repository.NewChatRepo(db)

	// 3. External clients
	gw := gateway.NewStripeGateway(cfg.StripeSecretKey, logger)
	queue := pgmq.New(db)

	var logos service.LogoStorage
	if cfg.StorageEnabled() {
		store, err := storage.NewLogoStore(ctx, cfg)
		if err != nil {
			return nil, cleanup, err
		}
		logos = store
	} else {
		logger.Warn().Msg("Supabase storage not configured; logo uploads disabled")
	}

	var publisher service.EventPublisher
	if cfg.GCPProjectID != "" {
		pub, err := pubsub.NewPublisher(ctx, cfg)
		if err != nil {
			return nil, cleanup, err
		}
		publisher = pub
		cleanup = func() {
			if err := pub.Close(); err != nil {
				logger.Error().Err(err).Msg("Failed to close Pub/Sub publisher")
			}
		}
	} else {
		logger.Warn().Msg("GCP project not configured; entitlement events disabled")
	}

	// 4. Services
	priceIDs := cfg.PriceIDs()
	customerSvc := service.NewCustomerService(userRepo, gw, logger)
	paymentSvc := service.NewPaymentService(userRepo, paymentRepo, customerSvc, gw, logger)
	subSvc := service.NewSubscriptionService(userRepo, subRepo, customerSvc, gw, priceIDs, logger)
	webhookSvc := service.NewWebhookService(cfg.StripeWebhookSecret, service.WebhookDeps{
		Users:     userRepo,
		Subs:      subRepo,
		Payments:  paymentRepo,
		Events:    eventRepo,
		PriceIDs:  priceIDs,
		Publisher: publisher,
		Topic:     cfg.PubSubEntitlementTopic,
	}, logger)
	tokenSvc := service.NewTokenService(userRepo, tokenRepo, txRepo, queue, cfg.TokenActivationQueueName, logos, logger)
	miningSvc := service.NewMiningService(miningRepo, logger)
	entitlementSvc := service.NewEntitlementService(userRepo)
	chatSvc := service.NewChatService(chatRepo, cfg.ChatSessionTTL, cfg.ChatHistoryMaxEntries, logger)

	// 5. Handlers
	h := Handlers{
		Payment:      handler.NewPaymentHandler(paymentSvc, validate, logger),
		Subscription: handler.NewSubscriptionHandler(subSvc, validate, logger),
		Webhook:      handler.NewWebhookHandler(webhookSvc, logger),
		Token:        handler.NewTokenHandler(tokenSvc, validate, logger),
		Mining:       handler.NewMiningHandler(miningSvc, validate, logger),
		Entitlement:  handler.NewEntitlementHandler(entitlementSvc, logger),
		Stub:         handler.NewStubHandler(chatSvc, validate, logger),
	}
	if cfg.JWTSecret == "" {
		logger.Warn().Msg("SUPABASE_JWT_SECRET not set; function routes are unauthenticated")
	}
	return Routes(h, cfg.JWTSecret, logger), cleanup, nil
}

// Routes mounts the function endpoints under /functions/v1. Everything there
// except the Stripe webhook passes through the JWT middleware.
func Routes(h Handlers, jwtSecret string, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.LoggerMiddleware(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Route("/functions/v1", func(r chi.Router) {
		h.Webhook.RegisterRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(jwtSecret, logger))
			h.Payment.RegisterRoutes(r)
			h.Subscription.RegisterRoutes(r)
			h.Token.RegisterRoutes(r)
			h.Mining.RegisterRoutes(r)
			h.Entitlement.RegisterRoutes(r)
		})
	})
	h.Stub.RegisterRoutes(r)

	// Swagger documentation generated by swag into ./docs/swagger
	r.Get("/swagger/swagger.json", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./docs/swagger/swagger.json")
	})
	r.Handle("/swagger/*", http.StripPrefix("/swagger/", http.FileServer(http.Dir("./docs/swagger/swagger-ui"))))

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(r)
}
