package app

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"horse.fit/decant/internal/cli"
	"horse.fit/decant/internal/config"
	"horse.fit/decant/internal/db"
	"horse.fit/decant/internal/dedup"
	"horse.fit/decant/internal/discovery"
	"horse.fit/decant/internal/enrich"
	"horse.fit/decant/internal/logging"
	"horse.fit/decant/internal/match"
)

// appRuntime bundles the pieces every database-backed command needs.
type appRuntime struct {
	cfg    *config.Config
	logger zerolog.Logger
	pool   *db.Pool
}

func openRuntime(ctx context.Context, envLoader *cli.EnvLoader) (*appRuntime, error) {
	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			// Missing .env is fine when the environment is already set.
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	return &appRuntime{cfg: cfg, logger: logger, pool: pool}, nil
}

func (r *appRuntime) Close() {
	if r != nil && r.pool != nil {
		_ = r.pool.Close()
	}
}

// newMatcher wires the matcher over the catalog with the configured scan
// cap.
func (r *appRuntime) newMatcher() *match.Matcher {
	return match.NewMatcher(r.pool, r.logger, r.cfg.CandidateScanLimit)
}

// newDiscoveryService assembles the full ingest/process stack: session
// cache plus durable index behind the checker, matcher as the product
// tier, validator for enrichment.
func (r *appRuntime) newDiscoveryService() *discovery.Service {
	matcher := r.newMatcher()
	checker := dedup.NewChecker(dedup.NewSessionCache(), r.pool, matcher, r.logger)
	validator := enrich.NewValidator(r.logger)
	return discovery.NewService(r.pool, checker, matcher, validator, r.cfg.DiscoveryWorkers, r.logger)
}
