package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENV" default:"development"`

	// Supabase Postgres (privileged service-role connection)
	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`
	MigrateOnStart     bool   `envconfig:"MIGRATE_ON_START" default:"false"`

	// Supabase auth; empty disables JWT checks on function routes
	JWTSecret string `envconfig:"SUPABASE_JWT_SECRET"`

	// Stripe
	StripeSecretKey           string `envconfig:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret       string `envconfig:"STRIPE_WEBHOOK_SECRET"`
	StripePriceProCreator     string `envconfig:"STRIPE_PRICE_PRO_CREATOR" default:"price_pro_creator"`
	StripePriceUltimateBundle string `envconfig:"STRIPE_PRICE_ULTIMATE_BUNDLE" default:"price_ultimate_bundle"`

	// Secret Manager resource names that override the Stripe secrets above
	StripeSecretKeySecret     string `envconfig:"STRIPE_SECRET_KEY_SECRET"`
	StripeWebhookSecretSecret string `envconfig:"STRIPE_WEBHOOK_SECRET_SECRET"`

	// Supabase storage (S3 compatible) for token logos
	S3URL       string `envconfig:"SUPABASE_S3_URL"`
	S3Bucket    string `envconfig:"SUPABASE_S3_BUCKET" default:"token-logos"`
	S3Region    string `envconfig:"SUPABASE_S3_REGION" default:"us-east-1"`
	S3AccessKey string `envconfig:"SUPABASE_S3_ACCESS_KEY"`
	S3SecretKey string `envconfig:"SUPABASE_S3_SECRET_KEY"`

	// Pub/Sub entitlement events; empty project disables publishing
	GCPProjectID           string `envconfig:"GCP_PROJECT_ID"`
	PubSubEntitlementTopic string `envconfig:"PUBSUB_ENTITLEMENT_TOPIC" default:"entitlement-events"`

	// Token activation orchestrator settings
	TokenActivationQueueName           string `envconfig:"TOKEN_ACTIVATION_QUEUE_NAME" default:"token_activation"`
	TokenActivationPollTimeoutSec      int    `envconfig:"TOKEN_ACTIVATION_POLL_TIMEOUT_SEC" default:"30"`
	TokenActivationPollMaxMsg          int    `envconfig:"TOKEN_ACTIVATION_POLL_MAX_MSG" default:"1"`
	TokenActivationMaxRetries          int    `envconfig:"TOKEN_ACTIVATION_MAX_RETRIES" default:"5"`
	TokenActivationBackoffInitialSec   int    `envconfig:"TOKEN_ACTIVATION_BACKOFF_INITIAL_SEC" default:"1"`
	TokenActivationBackoffMaxSec       int    `envconfig:"TOKEN_ACTIVATION_BACKOFF_MAX_SEC" default:"60"`
	TokenActivationDeadLetterQueueName string `envconfig:"TOKEN_ACTIVATION_DEAD_LETTER_QUEUE_NAME" default:"token_activation_dlq"`

	// Chat stub session retention
	ChatSessionTTL        time.Duration `envconfig:"CHAT_SESSION_TTL" default:"24h"`
	ChatEvictionInterval  time.Duration `envconfig:"CHAT_EVICTION_INTERVAL" default:"10m"`
	ChatHistoryMaxEntries int           `envconfig:"CHAT_HISTORY_MAX_ENTRIES" default:"50"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// PriceIDs maps each paid plan type to its Stripe price identifier.
func (c *Config) PriceIDs() map[string]string {
	return map[string]string{
		"pro_creator":     c.StripePriceProCreator,
		"ultimate_bundle": c.StripePriceUltimateBundle,
	}
}

// StorageEnabled reports whether Supabase storage credentials are configured.
func (c *Config) StorageEnabled() bool {
	return c.S3URL != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}
