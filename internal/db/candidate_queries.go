package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"horse.fit/decant/internal/globaltime"
)

const candidateColumns = `
	c.candidate_id,
	c.candidate_uuid::text,
	c.source_url,
	c.raw_name,
	c.normalized_name,
	c.brand,
	c.product_type,
	c.gtin,
	c.abv,
	c.volume_ml,
	c.language,
	c.extracted_data,
	c.match_status,
	c.match_confidence,
	c.match_method,
	c.matched_product_id,
	c.related_product_id,
	c.variant_type,
	c.created_at,
	c.updated_at`

func scanCandidate(row productScanner) (*ProductCandidate, error) {
	var c ProductCandidate
	var extracted []byte
	err := row.Scan(
		&c.CandidateID,
		&c.CandidateUUID,
		&c.SourceURL,
		&c.RawName,
		&c.NormalizedName,
		&c.Brand,
		&c.ProductType,
		&c.GTIN,
		&c.ABV,
		&c.VolumeML,
		&c.Language,
		&extracted,
		&c.MatchStatus,
		&c.MatchConfidence,
		&c.MatchMethod,
		&c.MatchedProductID,
		&c.RelatedProductID,
		&c.VariantType,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(extracted) > 0 {
		c.ExtractedData = json.RawMessage(extracted)
	}
	return &c, nil
}

// NewCandidate is the payload for CreateCandidate.
type NewCandidate struct {
	SourceURL      string
	RawName        string
	NormalizedName string
	Brand          string
	ProductType    string
	GTIN           string
	ABV            *float64
	VolumeML       *float64
	Language       string
	ExtractedData  json.RawMessage
}

// CreateCandidate stages an observed product for matching.
func (p *Pool) CreateCandidate(ctx context.Context, input NewCandidate) (*ProductCandidate, error) {
	if strings.TrimSpace(input.RawName) == "" {
		return nil, fmt.Errorf("candidate raw name is required")
	}

	extracted := input.ExtractedData
	if len(extracted) == 0 {
		extracted = json.RawMessage(`{}`)
	}

	q := `
INSERT INTO catalog.product_candidates (
	source_url,
	raw_name,
	normalized_name,
	brand,
	product_type,
	gtin,
	abv,
	volume_ml,
	language,
	extracted_data,
	match_status,
	match_method,
	created_at,
	updated_at
)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, NULLIF($9, ''), $10::jsonb, 'pending', 'none', $11, $11)
RETURNING` + strings.ReplaceAll(candidateColumns, "c.", "") + `
`

	now := globaltime.UTC()
	candidate, err := scanCandidate(p.QueryRow(
		ctx,
		q,
		strings.TrimSpace(input.SourceURL),
		strings.TrimSpace(input.RawName),
		strings.TrimSpace(input.NormalizedName),
		strings.TrimSpace(input.Brand),
		strings.TrimSpace(input.ProductType),
		strings.TrimSpace(input.GTIN),
		input.ABV,
		input.VolumeML,
		strings.TrimSpace(input.Language),
		string(extracted),
		now,
	))
	if err != nil {
		return nil, fmt.Errorf("insert product candidate: %w", err)
	}
	return candidate, nil
}

// ClaimPendingCandidate locks and returns one pending candidate inside tx,
// or found=false when none remain.
func ClaimPendingCandidateTx(ctx context.Context, tx Tx) (*ProductCandidate, bool, error) {
	q := `SELECT` + candidateColumns + `
FROM catalog.product_candidates c
WHERE c.match_status = 'pending'
ORDER BY c.candidate_id
LIMIT 1
FOR UPDATE SKIP LOCKED`

	candidate, err := scanCandidate(tx.QueryRow(ctx, q))
	if err != nil {
		if err == ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("claim pending candidate: %w", err)
	}
	return candidate, true, nil
}

// CandidateResolution is the terminal state written back after a pipeline
// run. Status must be one of the three terminal values.
type CandidateResolution struct {
	Status           string
	Confidence       *float64
	Method           string
	MatchedProductID *int64
	RelatedProductID *int64
	VariantType      string
}

// ResolveCandidateTx applies the pipeline decision. The guard on
// match_status enforces the single pending->terminal transition.
func ResolveCandidateTx(ctx context.Context, tx Tx, candidateID int64, res CandidateResolution) error {
	switch res.Status {
	case CandidateMatched, CandidateNeedsReview, CandidateNewProduct:
	default:
		return fmt.Errorf("invalid candidate resolution status %q", res.Status)
	}
	method := res.Method
	if method == "" {
		method = MethodNone
	}

	const q = `
UPDATE catalog.product_candidates
SET
	match_status = $2,
	match_confidence = $3,
	match_method = $4,
	matched_product_id = $5,
	related_product_id = $6,
	variant_type = NULLIF($7, ''),
	updated_at = $8
WHERE candidate_id = $1
  AND match_status = 'pending'`

	tag, err := tx.Exec(ctx, q, candidateID, res.Status, res.Confidence, method, res.MatchedProductID, res.RelatedProductID, res.VariantType, globaltime.UTC())
	if err != nil {
		return fmt.Errorf("resolve candidate candidate_id=%d: %w", candidateID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("resolve candidate candidate_id=%d: not pending", candidateID)
	}
	return nil
}

// InsertMatchEventTx appends the audit row for a pipeline decision.
func InsertMatchEventTx(ctx context.Context, tx Tx, event MatchEvent) error {
	details := event.Details
	if len(details) == 0 {
		details = json.RawMessage(`{}`)
	}

	const q = `
INSERT INTO catalog.match_events (
	candidate_id,
	decision,
	method,
	confidence,
	matched_product_id,
	details,
	created_at
)
VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7)
ON CONFLICT (candidate_id) DO NOTHING`

	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = globaltime.UTC()
	}

	if _, err := tx.Exec(ctx, q, event.CandidateID, event.Decision, event.Method, event.Confidence, event.MatchedProductID, string(details), createdAt); err != nil {
		return fmt.Errorf("insert match_event candidate_id=%d: %w", event.CandidateID, err)
	}
	return nil
}

// ApplyResolution writes the pipeline decision and its audit event in one
// transaction.
func (p *Pool) ApplyResolution(ctx context.Context, candidateID int64, res CandidateResolution, event MatchEvent) error {
	tx, err := p.BeginTx(ctx, TxOptions{})
	if err != nil {
		return fmt.Errorf("begin resolution tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := ResolveCandidateTx(ctx, tx, candidateID, res); err != nil {
		return err
	}
	event.CandidateID = candidateID
	if err := InsertMatchEventTx(ctx, tx, event); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// CandidateListOptions filters ListCandidates.
type CandidateListOptions struct {
	Status string
	Limit  int
	Offset int
}

// ListCandidates lists staged candidates, newest first.
func (p *Pool) ListCandidates(ctx context.Context, opts CandidateListOptions) ([]ProductCandidate, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 25
	}

	q := `SELECT` + candidateColumns + `
FROM catalog.product_candidates c
WHERE ($1 = '' OR c.match_status = $1)
ORDER BY c.candidate_id DESC
LIMIT $2 OFFSET $3`

	rows, err := p.Query(ctx, q, strings.TrimSpace(opts.Status), limit, max(0, opts.Offset))
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	candidates := make([]ProductCandidate, 0, limit)
	for rows.Next() {
		candidate, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		candidates = append(candidates, *candidate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return candidates, nil
}

// GetCandidateByUUID fetches one candidate. Returns (nil, nil) when absent.
func (p *Pool) GetCandidateByUUID(ctx context.Context, candidateUUID string) (*ProductCandidate, error) {
	q := `SELECT` + candidateColumns + `
FROM catalog.product_candidates c
WHERE c.candidate_uuid = $1::uuid
LIMIT 1`

	candidate, err := scanCandidate(p.QueryRow(ctx, q, strings.TrimSpace(candidateUUID)))
	if err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get candidate by uuid: %w", err)
	}
	return candidate, nil
}

// ReassignCandidate moves a reviewed candidate out of needs_review, either
// confirming the proposed match or declaring it a new product.
func (p *Pool) ReassignCandidate(ctx context.Context, candidateID int64, status string, matchedProductID *int64) error {
	switch status {
	case CandidateMatched, CandidateNewProduct:
	default:
		return fmt.Errorf("invalid review status %q", status)
	}

	const q = `
UPDATE catalog.product_candidates
SET match_status = $2, matched_product_id = $3, updated_at = $4
WHERE candidate_id = $1
  AND match_status = 'needs_review'`

	tag, err := p.Exec(ctx, q, candidateID, status, matchedProductID, globaltime.UTC())
	if err != nil {
		return fmt.Errorf("reassign candidate candidate_id=%d: %w", candidateID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reassign candidate candidate_id=%d: not awaiting review", candidateID)
	}
	return nil
}
