// Package s3 is an Asset Store backed by Amazon S3 or any S3-compatible
// service.
package s3

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/gaurav-prasanna/postpipe/core"
	"github.com/gaurav-prasanna/postpipe/core/assets"
)

// Config options for the S3 store.
type Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // custom endpoint for S3-compatible services
	UsePathStyle    bool
	// KeyPrefix is prepended to storage keys inside the bucket.
	KeyPrefix string

	BaseURL  string
	Prefixes assets.Prefixes
}

// Store uploads through the multipart upload manager.
type Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	cfg      Config
}

// New creates an S3 Store. Credentials fall back to the default AWS chain
// when no static keys are configured.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if len(cfg.Prefixes) == 0 {
		cfg.Prefixes = assets.NewPrefixes()
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.UsePathStyle
		})
	}
	client := s3.NewFromConfig(awsCfg, s3Opts...)

	return &Store{client: client, uploader: manager.NewUploader(client), cfg: cfg}, nil
}

func (s *Store) objectKey(key string) string {
	return s.cfg.KeyPrefix + key
}

// Upload streams the body to a new object.
func (s *Store) Upload(ctx context.Context, req core.UploadRequest) (*core.StoredAsset, error) {
	key := assets.NewKey(req.Owner, req.Name)
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(s.objectKey(key)),
		Body:   req.Body,
	}
	if req.ContentType != "" {
		input.ContentType = aws.String(req.ContentType)
	}
	if req.Name != "" {
		input.Metadata = map[string]string{"original-name": assets.SanitizeName(req.Name)}
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return nil, fmt.Errorf("uploading to S3: %w", err)
	}
	return &core.StoredAsset{URL: s.cfg.Prefixes.PublicURL(s.cfg.BaseURL, key), StorageKey: key}, nil
}

// Delete removes the object under key. S3 deletes are idempotent, so the
// object is checked first to report a missing key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return core.ErrEmptyStorageKey
	}
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return fmt.Errorf("deleting %s: %w", key, core.ErrObjectNotFound)
		}
		return fmt.Errorf("checking S3 object: %w", err)
	}

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(s.objectKey(key)),
	}); err != nil {
		return fmt.Errorf("deleting from S3: %w", err)
	}
	return nil
}
