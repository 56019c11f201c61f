// Package minio is an Asset Store backed by a MinIO server.
package minio

import (
	"context"
	"errors"
	"fmt"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/gaurav-prasanna/postpipe/core"
	"github.com/gaurav-prasanna/postpipe/core/assets"
)

// Config options for the MinIO store.
type Config struct {
	Endpoint        string // host:port
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	Region          string
	// CreateBucket makes New create the bucket when it is missing.
	CreateBucket bool

	BaseURL  string
	Prefixes assets.Prefixes
}

// Store uploads with PutObject.
type Store struct {
	client *miniogo.Client
	cfg    Config
}

// New connects to MinIO.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("minio endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}
	if len(cfg.Prefixes) == 0 {
		cfg.Prefixes = assets.NewPrefixes()
	}

	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}

	if cfg.CreateBucket {
		exists, err := client.BucketExists(ctx, cfg.Bucket)
		if err != nil {
			return nil, fmt.Errorf("checking bucket: %w", err)
		}
		if !exists {
			if err := client.MakeBucket(ctx, cfg.Bucket, miniogo.MakeBucketOptions{Region: cfg.Region}); err != nil {
				return nil, fmt.Errorf("creating bucket: %w", err)
			}
		}
	}
	return &Store{client: client, cfg: cfg}, nil
}

// Upload stores the body as a new object. A negative or zero size makes the
// client stream the body in parts.
func (s *Store) Upload(ctx context.Context, req core.UploadRequest) (*core.StoredAsset, error) {
	key := assets.NewKey(req.Owner, req.Name)
	size := req.Size
	if size <= 0 {
		size = -1
	}
	_, err := s.client.PutObject(ctx, s.cfg.Bucket, key, req.Body, size, miniogo.PutObjectOptions{
		ContentType: req.ContentType,
	})
	if err != nil {
		return nil, fmt.Errorf("uploading to minio: %w", err)
	}
	return &core.StoredAsset{URL: s.cfg.Prefixes.PublicURL(s.cfg.BaseURL, key), StorageKey: key}, nil
}

// Delete removes the object under key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return core.ErrEmptyStorageKey
	}
	if _, err := s.client.StatObject(ctx, s.cfg.Bucket, key, miniogo.StatObjectOptions{}); err != nil {
		if miniogo.ToErrorResponse(err).Code == "NoSuchKey" {
			return fmt.Errorf("deleting %s: %w", key, core.ErrObjectNotFound)
		}
		return fmt.Errorf("checking minio object: %w", err)
	}
	if err := s.client.RemoveObject(ctx, s.cfg.Bucket, key, miniogo.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("deleting from minio: %w", err)
	}
	return nil
}
