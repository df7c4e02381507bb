package db

import (
	"context"
	"fmt"
	"time"
)

// Stats is the operational summary surfaced by the API and CLI.
type Stats struct {
	Products           int64            `json:"products"`
	Candidates         int64            `json:"candidates"`
	CandidatesByStatus map[string]int64 `json:"candidates_by_status"`
	DiscoveredURLs     int64            `json:"discovered_urls"`
	ContentDigests     int64            `json:"content_digests"`
	MatchDecisions     map[string]int64 `json:"match_decisions"`
	LastCandidateAt    *time.Time       `json:"last_candidate_at,omitempty"`
}

// LoadStats aggregates catalog counts in one round trip per table.
func (p *Pool) LoadStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		CandidatesByStatus: make(map[string]int64),
		MatchDecisions:     make(map[string]int64),
	}

	const countsQ = `
SELECT
	(SELECT COUNT(*) FROM catalog.products),
	(SELECT COUNT(*) FROM catalog.product_candidates),
	(SELECT COUNT(*) FROM catalog.discovered_urls),
	(SELECT COUNT(*) FROM catalog.content_digests),
	(SELECT MAX(created_at) FROM catalog.product_candidates)`

	var lastCandidateAt *time.Time
	if err := p.QueryRow(ctx, countsQ).Scan(
		&stats.Products,
		&stats.Candidates,
		&stats.DiscoveredURLs,
		&stats.ContentDigests,
		&lastCandidateAt,
	); err != nil {
		return nil, fmt.Errorf("load catalog counts: %w", err)
	}
	stats.LastCandidateAt = lastCandidateAt

	const statusQ = `
SELECT match_status, COUNT(*)
FROM catalog.product_candidates
GROUP BY match_status`

	rows, err := p.Query(ctx, statusQ)
	if err != nil {
		return nil, fmt.Errorf("load candidate status counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan candidate status count: %w", err)
		}
		stats.CandidatesByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidate status counts: %w", err)
	}

	const decisionQ = `
SELECT decision, COUNT(*)
FROM catalog.match_events
GROUP BY decision`

	decisionRows, err := p.Query(ctx, decisionQ)
	if err != nil {
		return nil, fmt.Errorf("load match decision counts: %w", err)
	}
	defer decisionRows.Close()
	for decisionRows.Next() {
		var decision string
		var count int64
		if err := decisionRows.Scan(&decision, &count); err != nil {
			return nil, fmt.Errorf("scan match decision count: %w", err)
		}
		stats.MatchDecisions[decision] = count
	}
	if err := decisionRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate match decision counts: %w", err)
	}

	return stats, nil
}
