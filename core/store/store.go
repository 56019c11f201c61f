// Package store picks an Asset Store backend from a storage URL.
package store

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/gaurav-prasanna/postpipe/config"
	"github.com/gaurav-prasanna/postpipe/core"
	"github.com/gaurav-prasanna/postpipe/core/assets"
	"github.com/gaurav-prasanna/postpipe/core/store/fs"
	"github.com/gaurav-prasanna/postpipe/core/store/httpstore"
	"github.com/gaurav-prasanna/postpipe/core/store/memory"
	"github.com/gaurav-prasanna/postpipe/core/store/minio"
	"github.com/gaurav-prasanna/postpipe/core/store/s3"
)

var (
	_ core.AssetStore = (*memory.Store)(nil)
	_ core.AssetStore = (*fs.Store)(nil)
	_ core.AssetStore = (*s3.Store)(nil)
	_ core.AssetStore = (*minio.Store)(nil)
	_ core.AssetStore = (*httpstore.Store)(nil)
)

// Open builds the backend named by cfg.Storage.URL:
//
//	memory://            in-process map
//	file:///var/uploads  directory tree
//	s3://bucket          Amazon S3 (AWS_* settings)
//	minio://bucket       MinIO (MINIO_* settings)
//	http(s)://host       the blog's upload API
func Open(ctx context.Context, cfg *config.Config) (core.AssetStore, error) {
	raw := cfg.Storage.URL
	if raw == "" {
		raw = "memory://"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing storage URL %q: %w", raw, err)
	}
	base := cfg.Render.AssetBaseURL
	prefixes := assets.NewPrefixes(cfg.Render.Prefixes()...)

	switch strings.ToLower(u.Scheme) {
	case "memory", "mem":
		return memory.New(base, prefixes), nil
	case "file":
		dir := u.Path
		if u.Host != "" && u.Host != "localhost" {
			dir = filepath.Join(u.Host, u.Path)
		}
		return open(fs.New(fs.Config{BaseDir: dir, BaseURL: base, Prefixes: prefixes}))
	case "s3":
		return open(s3.New(ctx, s3.Config{
			Bucket:          u.Host,
			Region:          cfg.Storage.S3.Region,
			AccessKeyID:     cfg.Storage.S3.AccessKeyID,
			SecretAccessKey: cfg.Storage.S3.SecretAccessKey,
			Endpoint:        cfg.Storage.S3.Endpoint,
			UsePathStyle:    cfg.Storage.S3.UsePathStyle,
			KeyPrefix:       cfg.Storage.S3.KeyPrefix,
			BaseURL:         base,
			Prefixes:        prefixes,
		}))
	case "minio":
		return open(minio.New(ctx, minio.Config{
			Endpoint:        cfg.Storage.MinIO.Endpoint,
			Bucket:          u.Host,
			AccessKeyID:     cfg.Storage.MinIO.AccessKeyID,
			SecretAccessKey: cfg.Storage.MinIO.SecretAccessKey,
			UseSSL:          cfg.Storage.MinIO.UseSSL,
			Region:          cfg.Storage.MinIO.Region,
			CreateBucket:    cfg.Storage.MinIO.CreateBucket,
			BaseURL:         base,
			Prefixes:        prefixes,
		}))
	case "http", "https":
		return open(httpstore.New(httpstore.Config{
			APIBase:  raw,
			Token:    cfg.Storage.APIToken,
			Timeout:  cfg.Storage.Timeout,
			Prefixes: prefixes,
		}))
	default:
		return nil, fmt.Errorf("unsupported storage scheme %q", u.Scheme)
	}
}

// open keeps a failed constructor's nil pointer out of the interface.
func open[S core.AssetStore](s S, err error) (core.AssetStore, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
