package db

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"horse.fit/decant/internal/globaltime"
)

// URLExists reports whether a canonical URL is already in the durable
// duplicate index.
func (p *Pool) URLExists(ctx context.Context, canonicalURL string) (bool, error) {
	canonicalURL = strings.TrimSpace(canonicalURL)
	if canonicalURL == "" {
		return false, nil
	}

	const q = `SELECT EXISTS (SELECT 1 FROM catalog.discovered_urls WHERE canonical_url = $1)`

	var exists bool
	if err := p.QueryRow(ctx, q, canonicalURL).Scan(&exists); err != nil {
		return false, fmt.Errorf("check url exists: %w", err)
	}
	return exists, nil
}

// ContentHashExists reports whether a content digest is already in the
// durable duplicate index. The empty sentinel never exists.
func (p *Pool) ContentHashExists(ctx context.Context, digest string) (bool, error) {
	digest = strings.TrimSpace(digest)
	if digest == "" {
		return false, nil
	}

	const q = `SELECT EXISTS (SELECT 1 FROM catalog.content_digests WHERE digest = $1)`

	var exists bool
	if err := p.QueryRow(ctx, q, digest).Scan(&exists); err != nil {
		return false, fmt.Errorf("check content digest exists: %w", err)
	}
	return exists, nil
}

// PersistURL records a processed URL in the durable index. Re-recording
// is a no-op.
func (p *Pool) PersistURL(ctx context.Context, canonicalURL string) error {
	canonicalURL = strings.TrimSpace(canonicalURL)
	if canonicalURL == "" {
		return nil
	}

	host := ""
	if parsed, err := url.Parse(canonicalURL); err == nil {
		host = parsed.Hostname()
	}

	const q = `
INSERT INTO catalog.discovered_urls (canonical_url, source_host, first_seen_at)
VALUES ($1, $2, $3)
ON CONFLICT (canonical_url) DO NOTHING`

	if _, err := p.Exec(ctx, q, canonicalURL, host, globaltime.UTC()); err != nil {
		return fmt.Errorf("persist discovered url: %w", err)
	}
	return nil
}

// PersistContentDigest records a processed content digest in the durable
// index. The empty sentinel is never stored.
func (p *Pool) PersistContentDigest(ctx context.Context, digest, canonicalURL string) error {
	digest = strings.TrimSpace(digest)
	if digest == "" {
		return nil
	}

	const q = `
INSERT INTO catalog.content_digests (digest, canonical_url, first_seen_at)
VALUES ($1, $2, $3)
ON CONFLICT (digest) DO NOTHING`

	if _, err := p.Exec(ctx, q, digest, strings.TrimSpace(canonicalURL), globaltime.UTC()); err != nil {
		return fmt.Errorf("persist content digest: %w", err)
	}
	return nil
}
