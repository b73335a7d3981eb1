// Package storage issues upload URLs for token logos in Supabase storage,
// which speaks the S3 protocol, and checks that uploads landed.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"optikcoin/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	awsmiddleware "github.com/aws/smithy-go/middleware"
)

const uploadExpiry = 15 * time.Minute

// LogoStore presigns PUT requests into the logo bucket.
type LogoStore struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	baseURL string
}

func NewLogoStore(ctx context.Context, cfg *config.Config) (*LogoStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
		awsconfig.WithAPIOptions([]func(*awsmiddleware.Stack) error{removeDisableGzip()}),
	)
	if err != nil {
		return nil, fmt.Errorf("load S3 config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3URL)
		o.UsePathStyle = true
	})
	return &LogoStore{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.S3Bucket,
		baseURL: cfg.S3URL,
	}, nil
}

// PresignUpload returns a short-lived PUT URL for key and the public URL the
// object will be served from once uploaded.
func (s *LogoStore) PresignUpload(ctx context.Context, key, contentType string) (string, string, error) {
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(uploadExpiry))
	if err != nil {
		return "", "", fmt.Errorf("presign logo upload: %w", err)
	}
	return req.URL, s.URL(key), nil
}

// Exists reports whether an object has been uploaded under key.
func (s *LogoStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, fmt.Errorf("head logo object %s: %w", key, err)
}

// URL is the public URL of key in the logo bucket.
func (s *LogoStore) URL(key string) string {
	return PublicURL(s.baseURL, s.bucket, key)
}

// PublicURL derives the public object URL from the storage S3 endpoint,
// e.g. https://x.supabase.co/storage/v1/s3 becomes
// https://x.supabase.co/storage/v1/object/public/<bucket>/<key>.
func PublicURL(s3URL, bucket, key string) string {
	base := strings.TrimRight(s3URL, "/")
	base = strings.TrimSuffix(base, "/s3")
	return fmt.Sprintf("%s/object/public/%s/%s", base, bucket, strings.TrimLeft(key, "/"))
}

// removeDisableGzip drops a finalize step that breaks signatures against
// Supabase storage. See https://github.com/supabase/storage/issues/577
func removeDisableGzip() func(*awsmiddleware.Stack) error {
	return func(stack *awsmiddleware.Stack) error {
		if _, ok := stack.Finalize.Get("DisableAcceptEncodingGzip"); ok {
			_, err := stack.Finalize.Remove("DisableAcceptEncodingGzip")
			return err
		}
		return nil
	}
}
