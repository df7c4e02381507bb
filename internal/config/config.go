package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMinConns  int32  `envconfig:"DECANT_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"DECANT_DB_MAX_CONNS" default:"8"`

	// Discovery fan-out. Workers are sized to the database pool since
	// every pipeline step is a blocking persistence lookup.
	DiscoveryWorkers int `envconfig:"DECANT_DISCOVERY_WORKERS" default:"4"`

	// CandidateScanLimit bounds the fuzzy comparison set per candidate.
	// The policy confidences (GTIN 1.0, fingerprint 0.95) are constants,
	// not configuration.
	CandidateScanLimit int `envconfig:"DECANT_CANDIDATE_SCAN_LIMIT" default:"100"`

	HTTPHost string `envconfig:"DECANT_HTTP_HOST" default:"0.0.0.0"`
	HTTPPort int    `envconfig:"DECANT_HTTP_PORT" default:"8091"`

	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("DECANT_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("DECANT_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DECANT_DB_MIN_CONNS (%d) cannot exceed DECANT_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.DiscoveryWorkers < 1 {
		return fmt.Errorf("DECANT_DISCOVERY_WORKERS must be >= 1")
	}
	if c.CandidateScanLimit < 1 {
		return fmt.Errorf("DECANT_CANDIDATE_SCAN_LIMIT must be >= 1")
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("DECANT_HTTP_PORT must be between 1 and 65535")
	}
	return nil
}

func (c *Config) CORSAllowedOriginsList() []string {
	if c == nil {
		return nil
	}

	parts := strings.Split(c.CORSAllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		if _, exists := seen[origin]; exists {
			continue
		}
		seen[origin] = struct{}{}
		origins = append(origins, origin)
	}
	return origins
}
