package service

import (
	"context"
	"fmt"
	"strings"

	"optikcoin/internal/config"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
)

type SecretManagerService interface {
	// AccessSecret returns the payload of a secret version. name may be a full
	// resource path or a bare secret id, which resolves to its latest version.
	AccessSecret(ctx context.Context, name string) (string, error)
	Close() error
}

type secretManagerService struct {
	client    *secretmanager.Client
	projectID string
}

func NewSecretManagerService(ctx context.Context, cfg *config.Config, opts ...option.ClientOption) (SecretManagerService, error) {
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
	}
	return &secretManagerService{client: client, projectID: cfg.GCPProjectID}, nil
}

func secretResourceName(projectID, name string) string {
	if strings.HasPrefix(name, "projects/") {
		return name
	}
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, name)
}

func (s *secretManagerService) AccessSecret(ctx context.Context, name string) (string, error) {
	result, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretResourceName(s.projectID, name),
	})
	if err != nil {
		return "", fmt.Errorf("failed to access secret version %s: %w", name, err)
	}
	return string(result.Payload.Data), nil
}

func (s *secretManagerService) Close() error {
	return s.client.Close()
}

// ApplyStripeSecrets replaces the Stripe keys in cfg with Secret Manager
// values when the corresponding *_SECRET settings name a secret.
func ApplyStripeSecrets(ctx context.Context, cfg *config.Config, secrets SecretManagerService) error {
	overrides := []struct {
		name   string
		target *string
	}{
		{cfg.StripeSecretKeySecret, &cfg.StripeSecretKey},
		{cfg.StripeWebhookSecretSecret, &cfg.StripeWebhookSecret},
	}
	for _, o := range overrides {
		if o.name == "" {
			continue
		}
		v, err := secrets.AccessSecret(ctx, o.name)
		if err != nil {
			return err
		}
		*o.target = v
	}
	return nil
}
