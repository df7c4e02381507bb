package dedup

import "sync"

// SessionCache tracks URLs and content digests seen within one discovery
// run. It is shared across concurrent workers, so membership checks and
// records are guarded; check+record is still advisory against the
// persistent tier - the database constraints are the authority. The cache
// must never outlive the run it was created for.
type SessionCache struct {
	mu      sync.RWMutex
	urls    map[string]struct{}
	content map[string]struct{}
}

func NewSessionCache() *SessionCache {
	return &SessionCache{
		urls:    make(map[string]struct{}),
		content: make(map[string]struct{}),
	}
}

// SeenURL reports whether the canonical URL was recorded in this run.
func (c *SessionCache) SeenURL(canonicalURL string) bool {
	if c == nil || canonicalURL == "" {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.urls[canonicalURL]
	return ok
}

// SeenContent reports whether the content digest was recorded in this run.
// The empty digest sentinel is never a member.
func (c *SessionCache) SeenContent(digest string) bool {
	if c == nil || digest == "" {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.content[digest]
	return ok
}

func (c *SessionCache) RecordURL(canonicalURL string) {
	if c == nil || canonicalURL == "" {
		return
	}
	c.mu.Lock()
	c.urls[canonicalURL] = struct{}{}
	c.mu.Unlock()
}

func (c *SessionCache) RecordContent(digest string) {
	if c == nil || digest == "" {
		return
	}
	c.mu.Lock()
	c.content[digest] = struct{}{}
	c.mu.Unlock()
}

// Clear drops all session state. Call between discovery runs.
func (c *SessionCache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.urls = make(map[string]struct{})
	c.content = make(map[string]struct{})
	c.mu.Unlock()
}

// Len returns (urls, digests) counts, for run summaries.
func (c *SessionCache) Len() (int, int) {
	if c == nil {
		return 0, 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.urls), len(c.content)
}
