// Package discovery orchestrates the path from extracted page payloads to
// resolved catalog products: dedup checks around ingest, the claim loop
// that drives the matching pipeline, and validated enrichment merges.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"horse.fit/decant/internal/db"
	"horse.fit/decant/internal/dedup"
	"horse.fit/decant/internal/enrich"
	"horse.fit/decant/internal/langdetect"
	"horse.fit/decant/internal/match"
	payloadschema "horse.fit/decant/schema"
)

// Skip reasons reported by Ingest.
const (
	SkipDuplicateURL     = "duplicate_url"
	SkipDuplicateContent = "duplicate_content"
	SkipTypeFiltered     = "type_filtered"
)

// Store is the persistence surface the service needs. *db.Pool satisfies
// it.
type Store interface {
	BeginTx(ctx context.Context, opts db.TxOptions) (db.Tx, error)
	CreateCandidate(ctx context.Context, input db.NewCandidate) (*db.ProductCandidate, error)
	PersistURL(ctx context.Context, canonicalURL string) error
	PersistContentDigest(ctx context.Context, digest, canonicalURL string) error
	CreateProduct(ctx context.Context, input db.NewProduct) (*db.Product, bool, error)
	GetProductByID(ctx context.Context, productID int64) (*db.Product, error)
	MergeProductAttributes(ctx context.Context, productID int64, brand, category, description string, attributes json.RawMessage) error
}

// IngestOutcome reports what happened to one extracted payload.
type IngestOutcome struct {
	Skipped    bool                 `json:"skipped"`
	SkipReason string               `json:"skip_reason,omitempty"`
	Candidate  *db.ProductCandidate `json:"candidate,omitempty"`
}

// ProcessStats aggregates one ProcessPending run.
type ProcessStats struct {
	Processed   int `json:"processed"`
	Matched     int `json:"matched"`
	NeedsReview int `json:"needs_review"`
	NewProducts int `json:"new_products"`
}

// Service wires dedup, matching and enrichment around the store.
type Service struct {
	store     Store
	checker   *dedup.Checker
	matcher   *match.Matcher
	validator *enrich.Validator
	logger    zerolog.Logger
	workers   int
}

func NewService(store Store, checker *dedup.Checker, matcher *match.Matcher, validator *enrich.Validator, workers int, logger zerolog.Logger) *Service {
	if workers <= 0 {
		workers = 1
	}
	return &Service{
		store:     store,
		checker:   checker,
		matcher:   matcher,
		validator: validator,
		logger:    logger,
		workers:   workers,
	}
}

// Ingest validates one extraction payload and stages it as a candidate,
// unless the dedup tiers or the competition type filter reject it first.
// The session cache is advisory; the durable index insert is what makes
// the skip stick for future runs.
func (s *Service) Ingest(ctx context.Context, payload json.RawMessage) (IngestOutcome, error) {
	item, err := payloadschema.ValidateProductItemPayload(payload)
	if err != nil {
		return IngestOutcome{}, fmt.Errorf("invalid product payload: %w", err)
	}

	if item.Category != "" && !match.AllowedCompetitionType(item.Category) {
		s.logger.Debug().Str("category", item.Category).Str("name", item.Name).Msg("category filtered at ingest")
		return IngestOutcome{Skipped: true, SkipReason: SkipTypeFiltered}, nil
	}

	if s.checker.ShouldSkipURL(ctx, item.SourceURL) {
		return IngestOutcome{Skipped: true, SkipReason: SkipDuplicateURL}, nil
	}
	if item.PageText != "" && s.checker.ShouldSkipContent(ctx, item.PageText) {
		return IngestOutcome{Skipped: true, SkipReason: SkipDuplicateContent}, nil
	}

	s.checker.RecordURL(item.SourceURL)
	s.checker.RecordContent(item.PageText)

	canonical := dedup.CanonicalizeURL(item.SourceURL)
	if err := s.store.PersistURL(ctx, canonical); err != nil {
		return IngestOutcome{}, err
	}
	if digest := dedup.ContentDigest(item.PageText); digest != "" {
		if err := s.store.PersistContentDigest(ctx, digest, canonical); err != nil {
			return IngestOutcome{}, err
		}
	}

	attributes, err := json.Marshal(item)
	if err != nil {
		return IngestOutcome{}, fmt.Errorf("marshal extracted payload: %w", err)
	}

	candidate, err := s.store.CreateCandidate(ctx, db.NewCandidate{
		SourceURL:      canonical,
		RawName:        item.Name,
		NormalizedName: match.NormalizeName(item.Name),
		Brand:          item.Brand,
		ProductType:    item.ProductType,
		GTIN:           item.GTIN,
		ABV:            item.ABV,
		VolumeML:       item.VolumeML,
		Language:       langdetect.DetectISO6391(item.PageText),
		ExtractedData:  attributes,
	})
	if err != nil {
		return IngestOutcome{}, err
	}

	s.logger.Info().
		Int64("candidate_id", candidate.CandidateID).
		Str("name", candidate.RawName).
		Msg("candidate staged")
	return IngestOutcome{Candidate: candidate}, nil
}

// ProcessPending resolves pending candidates across a bounded worker
// group. Each worker claims one row at a time under FOR UPDATE SKIP
// LOCKED and resolves it in the same transaction, so workers never fight
// over a candidate.
func (s *Service) ProcessPending(ctx context.Context, limit int) (ProcessStats, error) {
	if s == nil || s.store == nil {
		return ProcessStats{}, fmt.Errorf("discovery service is not initialized")
	}

	runID := uuid.NewString()
	logger := s.logger.With().Str("run_id", runID).Logger()

	var mu sync.Mutex
	var stats ProcessStats

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := 0; i < s.workers; i++ {
		g.Go(func() error {
			for {
				if limit > 0 {
					mu.Lock()
					reached := stats.Processed >= limit
					mu.Unlock()
					if reached {
						return nil
					}
				}

				status, processed, err := s.processOne(groupCtx, logger)
				if err != nil {
					return err
				}
				if !processed {
					return nil
				}

				mu.Lock()
				stats.Processed++
				switch status {
				case db.CandidateMatched:
					stats.Matched++
				case db.CandidateNeedsReview:
					stats.NeedsReview++
				case db.CandidateNewProduct:
					stats.NewProducts++
				}
				mu.Unlock()
			}
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}

	logger.Info().
		Int("processed", stats.Processed).
		Int("matched", stats.Matched).
		Int("needs_review", stats.NeedsReview).
		Int("new_products", stats.NewProducts).
		Msg("process run complete")
	return stats, nil
}

// processOne claims and resolves a single candidate. Returns the terminal
// status and whether any work was found.
func (s *Service) processOne(ctx context.Context, logger zerolog.Logger) (string, bool, error) {
	tx, err := s.store.BeginTx(ctx, db.TxOptions{})
	if err != nil {
		return "", false, fmt.Errorf("begin process tx: %w", err)
	}

	candidate, found, err := db.ClaimPendingCandidateTx(ctx, tx)
	if err != nil {
		_ = tx.Rollback(ctx)
		return "", false, err
	}
	if !found {
		if err := tx.Commit(ctx); err != nil {
			_ = tx.Rollback(ctx)
			return "", false, fmt.Errorf("commit empty process tx: %w", err)
		}
		return "", false, nil
	}

	pipeline := match.NewPipeline(s.matcher, txResolver{tx: tx}, logger)
	if _, err := pipeline.Process(ctx, candidate); err != nil {
		_ = tx.Rollback(ctx)
		return "", false, err
	}

	if err := tx.Commit(ctx); err != nil {
		_ = tx.Rollback(ctx)
		return "", false, fmt.Errorf("commit process tx: %w", err)
	}

	if candidate.MatchStatus == db.CandidateNewProduct {
		if err := s.createProductFromCandidate(ctx, logger, candidate); err != nil {
			return "", false, err
		}
	}
	return candidate.MatchStatus, true, nil
}

// txResolver writes the pipeline decision through the claim transaction,
// keeping the row lock and the status transition atomic.
type txResolver struct {
	tx db.Tx
}

func (r txResolver) ApplyResolution(ctx context.Context, candidateID int64, res db.CandidateResolution, event db.MatchEvent) error {
	if err := db.ResolveCandidateTx(ctx, r.tx, candidateID, res); err != nil {
		return err
	}
	event.CandidateID = candidateID
	return db.InsertMatchEventTx(ctx, r.tx, event)
}

// createProductFromCandidate materializes a new_product decision as a
// catalog row. A unique-constraint conflict means a concurrent worker won
// the race; CreateProduct converts that into the existing row.
func (s *Service) createProductFromCandidate(ctx context.Context, logger zerolog.Logger, candidate *db.ProductCandidate) error {
	name := candidate.NormalizedName
	if name == "" {
		name = candidate.RawName
	}

	gtin := ""
	if candidate.GTIN != nil {
		gtin = *candidate.GTIN
	}
	abv, volume := 0.0, 0.0
	if candidate.ABV != nil {
		abv = *candidate.ABV
	}
	if candidate.VolumeML != nil {
		volume = *candidate.VolumeML
	}

	product, created, err := s.store.CreateProduct(ctx, db.NewProduct{
		Name:        candidate.RawName,
		Brand:       candidate.Brand,
		ProductType: candidate.ProductType,
		GTIN:        gtin,
		Fingerprint: match.Fingerprint(name, candidate.Brand, abv, volume, candidate.ProductType),
		ABV:         candidate.ABV,
		VolumeML:    candidate.VolumeML,
		Attributes:  candidate.ExtractedData,
	})
	if err != nil {
		return fmt.Errorf("create product for candidate_id=%d: %w", candidate.CandidateID, err)
	}

	logger.Info().
		Int64("candidate_id", candidate.CandidateID).
		Int64("product_id", product.ProductID).
		Bool("created", created).
		Msg("new product materialized")
	return nil
}

// Enrich merges validated extraction data into an existing product. The
// cross-contamination validator gates the merge; a rejection is reported
// in the result, not as an error.
func (s *Service) Enrich(ctx context.Context, productID int64, extracted enrich.Fields, attributes json.RawMessage) (enrich.Result, error) {
	product, err := s.store.GetProductByID(ctx, productID)
	if err != nil {
		return enrich.Result{}, err
	}
	if product == nil {
		return enrich.Result{}, fmt.Errorf("product %d not found", productID)
	}

	target := enrich.Fields{
		Name:        product.Name,
		Brand:       product.Brand,
		Category:    product.Category,
		Description: product.Description,
		ProductType: product.ProductType,
	}
	result := s.validator.Validate(target, extracted)
	if !result.OK {
		s.logger.Info().
			Int64("product_id", productID).
			Str("reason", result.Reason).
			Msg("enrichment rejected")
		return result, nil
	}

	if err := s.store.MergeProductAttributes(ctx, productID, extracted.Brand, extracted.Category, strings.TrimSpace(extracted.Description), attributes); err != nil {
		return enrich.Result{}, err
	}
	return result, nil
}
