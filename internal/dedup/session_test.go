package dedup

import (
	"sync"
	"testing"
)

func TestSessionCache_RecordAndClear(t *testing.T) {
	t.Parallel()

	cache := NewSessionCache()
	cache.RecordURL("https://example.com/a")
	cache.RecordContent("abc123")

	if !cache.SeenURL("https://example.com/a") {
		t.Fatalf("expected recorded url to be seen")
	}
	if !cache.SeenContent("abc123") {
		t.Fatalf("expected recorded digest to be seen")
	}

	cache.Clear()
	if cache.SeenURL("https://example.com/a") || cache.SeenContent("abc123") {
		t.Fatalf("expected cache to be empty after Clear")
	}
}

func TestSessionCache_EmptyValuesNeverMatch(t *testing.T) {
	t.Parallel()

	cache := NewSessionCache()
	cache.RecordURL("")
	cache.RecordContent("")

	if cache.SeenURL("") {
		t.Fatalf("empty url must never be a member")
	}
	if cache.SeenContent("") {
		t.Fatalf("empty digest sentinel must never be a member")
	}
}

func TestSessionCache_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	cache := NewSessionCache()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			url := "https://example.com/page"
			cache.RecordURL(url)
			cache.SeenURL(url)
			cache.RecordContent("digest")
			cache.SeenContent("digest")
		}(i)
	}
	wg.Wait()

	urls, digests := cache.Len()
	if urls != 1 || digests != 1 {
		t.Fatalf("unexpected cache sizes: urls=%d digests=%d", urls, digests)
	}
}
