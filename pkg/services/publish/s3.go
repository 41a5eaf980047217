package publish

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/de-tools/compliance-signals/pkg/services/config"
)

const contentTypeJSON = "application/json"

// Publisher copies the written output file somewhere public.
type Publisher interface {
	Publish(ctx context.Context, path string) error
}

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Publisher struct {
	client       putObjectAPI
	bucket       string
	key          string
	cacheControl string
}

func NewS3Publisher(ctx context.Context, cfg config.PublishConfig) (*S3Publisher, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("publish.bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Publisher(client, cfg), nil
}

func newS3Publisher(client putObjectAPI, cfg config.PublishConfig) *S3Publisher {
	return &S3Publisher{
		client:       client,
		bucket:       cfg.Bucket,
		key:          cfg.Key,
		cacheControl: cfg.CacheControl,
	}
}

func (p *S3Publisher) Publish(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(p.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentTypeJSON),
	}
	if p.cacheControl != "" {
		input.CacheControl = aws.String(p.cacheControl)
	}

	if _, err := p.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("s3 put s3://%s/%s failed: %w", p.bucket, p.key, err)
	}

	zerolog.Ctx(ctx).Info().
		Str("bucket", p.bucket).
		Str("key", p.key).
		Int("bytes", len(data)).
		Msg("published output")
	return nil
}
