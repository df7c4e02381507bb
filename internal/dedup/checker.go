package dedup

import (
	"context"

	"github.com/rs/zerolog"
)

// Index is the persistent duplicate index: the authoritative record of
// URLs and content digests already processed in earlier runs.
type Index interface {
	URLExists(ctx context.Context, canonicalURL string) (bool, error)
	ContentHashExists(ctx context.Context, digest string) (bool, error)
}

// ProductFinder resolves a name/brand pair against the known catalog.
// Used by CheckAll's final tier.
type ProductFinder interface {
	FindSimilarProduct(ctx context.Context, name, brand string) (int64, bool, error)
}

// Duplicate tiers reported by CheckAll.
const (
	DuplicateURL     = "url"
	DuplicateContent = "content"
	DuplicateProduct = "product"
)

// CheckResult reports which tier, if any, flagged a duplicate.
type CheckResult struct {
	Duplicate     bool   `json:"duplicate"`
	DuplicateType string `json:"duplicate_type,omitempty"`
	ProductID     int64  `json:"product_id,omitempty"`
}

// Checker combines the session cache and the persistent index into the
// two-tier duplicate checks used around fetching. Store failures degrade
// to "not a duplicate" with a warning: a transient error must bias toward
// re-processing, never toward skipping real work.
type Checker struct {
	session  *SessionCache
	index    Index
	products ProductFinder
	logger   zerolog.Logger
}

func NewChecker(session *SessionCache, index Index, products ProductFinder, logger zerolog.Logger) *Checker {
	if session == nil {
		session = NewSessionCache()
	}
	return &Checker{
		session:  session,
		index:    index,
		products: products,
		logger:   logger,
	}
}

// Session exposes the run-scoped cache for lifecycle control.
func (c *Checker) Session() *SessionCache {
	if c == nil {
		return nil
	}
	return c.session
}

// ShouldSkipURL reports whether the URL was already seen, checking the
// session tier before the persistent index. Call before fetching.
func (c *Checker) ShouldSkipURL(ctx context.Context, rawURL string) bool {
	canonical := CanonicalizeURL(rawURL)
	if canonical == "" {
		return false
	}
	if c.session.SeenURL(canonical) {
		return true
	}
	if c.index == nil {
		return false
	}
	exists, err := c.index.URLExists(ctx, canonical)
	if err != nil {
		c.logger.Warn().Err(err).Str("canonical_url", canonical).Msg("url index lookup failed; treating as unseen")
		return false
	}
	return exists
}

// ShouldSkipContent reports whether the content was already seen. Call
// after fetching, before extraction.
func (c *Checker) ShouldSkipContent(ctx context.Context, content string) bool {
	digest := ContentDigest(content)
	if digest == "" {
		return false
	}
	if c.session.SeenContent(digest) {
		return true
	}
	if c.index == nil {
		return false
	}
	exists, err := c.index.ContentHashExists(ctx, digest)
	if err != nil {
		c.logger.Warn().Err(err).Str("digest", digest).Msg("content index lookup failed; treating as unseen")
		return false
	}
	return exists
}

// RecordURL marks a URL as seen in the session tier only. Durable
// recording happens when the caller actually processes the page.
func (c *Checker) RecordURL(rawURL string) {
	c.session.RecordURL(CanonicalizeURL(rawURL))
}

// RecordContent marks a content digest as seen in the session tier only.
func (c *Checker) RecordContent(content string) {
	c.session.RecordContent(ContentDigest(content))
}

// ClearSession resets the run-scoped cache.
func (c *Checker) ClearSession() {
	c.session.Clear()
}

// CheckAll evaluates url, then content, then product similarity, stopping
// at the first tier that flags a duplicate.
func (c *Checker) CheckAll(ctx context.Context, rawURL, content, name, brand string) CheckResult {
	if c.ShouldSkipURL(ctx, rawURL) {
		return CheckResult{Duplicate: true, DuplicateType: DuplicateURL}
	}
	if c.ShouldSkipContent(ctx, content) {
		return CheckResult{Duplicate: true, DuplicateType: DuplicateContent}
	}
	if c.products != nil && name != "" {
		productID, found, err := c.products.FindSimilarProduct(ctx, name, brand)
		if err != nil {
			c.logger.Warn().Err(err).Str("name", name).Msg("product similarity lookup failed; treating as new")
			return CheckResult{}
		}
		if found {
			return CheckResult{Duplicate: true, DuplicateType: DuplicateProduct, ProductID: productID}
		}
	}
	return CheckResult{}
}
