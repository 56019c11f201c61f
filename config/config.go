// Package config loads postpipe settings from the environment and, when a
// path is given, from a YAML/TOML/JSON/.env file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Render  RenderConfig  `yaml:"render"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

type RenderConfig struct {
	AssetBaseURL    string `yaml:"asset_base_url" env:"POSTPIPE_ASSET_BASE_URL" env-default:""`
	UploadPrefixes  string `yaml:"upload_prefix" env:"POSTPIPE_UPLOAD_PREFIX" env-default:"/uploads/"`
	PreviewMaxChars int    `yaml:"preview_max_chars" env:"POSTPIPE_PREVIEW_MAX_CHARS" env-default:"200"`
	MaxRepairPasses int    `yaml:"max_repair_passes" env:"POSTPIPE_MAX_REPAIR_PASSES" env-default:"8"`
}

type StorageConfig struct {
	// URL selects the backend: memory://, file:///dir, s3://bucket,
	// minio://bucket, or http(s)://api-host for the upload API.
	URL            string        `yaml:"url" env:"POSTPIPE_STORAGE_URL" env-default:"memory://"`
	DeferDeletes   bool          `yaml:"defer_deletes" env:"POSTPIPE_DEFER_DELETES" env-default:"true"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes" env:"POSTPIPE_MAX_UPLOAD_BYTES" env-default:"104857600"`
	APIToken       string        `yaml:"api_token" env:"POSTPIPE_API_TOKEN"`
	Timeout        time.Duration `yaml:"timeout" env:"POSTPIPE_STORAGE_TIMEOUT" env-default:"60s"`
	S3             S3Config      `yaml:"s3"`
	MinIO          MinIOConfig   `yaml:"minio"`
}

type S3Config struct {
	Endpoint        string `yaml:"endpoint" env:"AWS_S3_ENDPOINT"`
	AccessKeyID     string `yaml:"access_key_id" env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"AWS_SECRET_ACCESS_KEY"`
	Region          string `yaml:"region" env:"AWS_S3_REGION" env-default:"us-east-1"`
	UsePathStyle    bool   `yaml:"use_path_style" env:"AWS_S3_USE_PATH_STYLE" env-default:"false"`
	KeyPrefix       string `yaml:"key_prefix" env:"AWS_S3_KEY_PREFIX"`
}

type MinIOConfig struct {
	Endpoint        string `yaml:"endpoint" env:"MINIO_ENDPOINT" env-default:"localhost:9000"`
	AccessKeyID     string `yaml:"access_key_id" env:"MINIO_ACCESS_KEY" env-default:"minioadmin"`
	SecretAccessKey string `yaml:"secret_access_key" env:"MINIO_SECRET_KEY" env-default:"minioadmin"`
	UseSSL          bool   `yaml:"use_ssl" env:"MINIO_USE_SSL" env-default:"false"`
	Region          string `yaml:"region" env:"MINIO_REGION"`
	CreateBucket    bool   `yaml:"create_bucket" env:"MINIO_CREATE_BUCKET" env-default:"false"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// Load reads the configuration. With an empty path only the environment is
// consulted; otherwise the file is read and the environment overrides it.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values cleanenv can't.
func (c *Config) Validate() error {
	if c.Render.PreviewMaxChars <= 0 {
		return fmt.Errorf("POSTPIPE_PREVIEW_MAX_CHARS must be positive, got %d", c.Render.PreviewMaxChars)
	}
	if c.Render.MaxRepairPasses < 0 {
		return fmt.Errorf("POSTPIPE_MAX_REPAIR_PASSES must not be negative, got %d", c.Render.MaxRepairPasses)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// Prefixes splits the comma-separated upload prefix setting.
func (r RenderConfig) Prefixes() []string {
	var out []string
	for _, p := range strings.Split(r.UploadPrefixes, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Usage returns the environment variable help text.
func Usage() string {
	var cfg Config
	text, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return ""
	}
	return text
}
