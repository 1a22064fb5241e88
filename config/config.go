package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds every setting the web binary reads from the environment.
type Config struct {
	ListenAddr string        `mapstructure:"listen_addr"`
	LogLevel   string        `mapstructure:"log_level"`
	APIBaseURL string        `mapstructure:"api_base_url"`
	APITimeout time.Duration `mapstructure:"api_timeout"`

	// SiteURL is the public address used in shared links.
	SiteURL string `mapstructure:"site_url"`
	// AssetBaseURL is where template images and mockups are fetched from.
	AssetBaseURL string   `mapstructure:"asset_base_url"`
	CORSOrigins  []string `mapstructure:"cors_origins"`

	Storage StorageConfig `mapstructure:",squash"`
	Contact ContactConfig `mapstructure:",squash"`
}

type StorageConfig struct {
	Type           string `mapstructure:"storage_type"`
	LocalPath      string `mapstructure:"local_storage_path"`
	DataSourceName string `mapstructure:"data_source_name"`
	S3Bucket       string `mapstructure:"s3_bucket_name"`
	RedisURL       string `mapstructure:"redis_url"`
	QuotaBytes     int    `mapstructure:"storage_quota_bytes"`
}

// ContactConfig is the shop's public contact data used for share links.
type ContactConfig struct {
	WhatsAppPhone   string `mapstructure:"whatsapp_phone"`
	WhatsAppMessage string `mapstructure:"whatsapp_message"`
	InstagramURL    string `mapstructure:"instagram_url"`
}

var defaults = map[string]any{
	"listen_addr":         ":3002",
	"log_level":           "info",
	"api_base_url":        "http://localhost:3000",
	"api_timeout":         10 * time.Second,
	"site_url":            "http://localhost:3002",
	"asset_base_url":      "http://localhost:3002",
	"cors_origins":        "https://*,http://*",
	"storage_type":        "memory",
	"local_storage_path":  "./data",
	"data_source_name":    "tienda.db",
	"s3_bucket_name":      "",
	"redis_url":           "",
	"storage_quota_bytes": 5 * 1024 * 1024,
	"whatsapp_phone":      "5491168585966",
	"whatsapp_message":    "Hola! Me interesa este producto:",
	"instagram_url":       "https://www.instagram.com/tienda.inmaculada",
}

// Load reads a .env file when present and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}
	return FromViper(viper.New())
}

// FromViper binds the known keys on v to their upper-case environment names
// and decodes the result.
func FromViper(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.CORSOrigins = splitList(v.GetString("cors_origins"))
	cfg.SiteURL = strings.TrimRight(cfg.SiteURL, "/")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Type {
	case "memory", "filesystem", "sqlite":
	case "s3":
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET_NAME must be set for s3 storage type")
		}
	case "redis":
		if c.Storage.RedisURL == "" {
			return fmt.Errorf("REDIS_URL must be set for redis storage type")
		}
	default:
		return fmt.Errorf("unknown STORAGE_TYPE %q", c.Storage.Type)
	}
	if c.Storage.QuotaBytes <= 0 {
		return fmt.Errorf("STORAGE_QUOTA_BYTES must be positive")
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("API_TIMEOUT must be positive")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
