package dedup

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
)

type fakeIndex struct {
	urls      map[string]bool
	digests   map[string]bool
	urlErr    error
	digestErr error

	urlCalls     int
	contentCalls int
}

func (f *fakeIndex) URLExists(_ context.Context, canonicalURL string) (bool, error) {
	f.urlCalls++
	if f.urlErr != nil {
		return false, f.urlErr
	}
	return f.urls[canonicalURL], nil
}

func (f *fakeIndex) ContentHashExists(_ context.Context, digest string) (bool, error) {
	f.contentCalls++
	if f.digestErr != nil {
		return false, f.digestErr
	}
	return f.digests[digest], nil
}

type fakeFinder struct {
	productID int64
	found     bool
	calls     int
}

func (f *fakeFinder) FindSimilarProduct(_ context.Context, name, brand string) (int64, bool, error) {
	f.calls++
	return f.productID, f.found, nil
}

func TestChecker_ShouldSkipURL_SessionBeforeIndex(t *testing.T) {
	t.Parallel()

	index := &fakeIndex{urls: map[string]bool{}, digests: map[string]bool{}}
	checker := NewChecker(NewSessionCache(), index, nil, zerolog.Nop())

	checker.RecordURL("https://example.com/page")
	if !checker.ShouldSkipURL(context.Background(), "https://www.example.com/page/") {
		t.Fatalf("expected session hit for equivalent url")
	}
	if index.urlCalls != 0 {
		t.Fatalf("expected index to be skipped on session hit, got %d calls", index.urlCalls)
	}
}

func TestChecker_ShouldSkipURL_IndexTier(t *testing.T) {
	t.Parallel()

	index := &fakeIndex{
		urls:    map[string]bool{"https://example.com/seen": true},
		digests: map[string]bool{},
	}
	checker := NewChecker(NewSessionCache(), index, nil, zerolog.Nop())

	if !checker.ShouldSkipURL(context.Background(), "https://example.com/seen") {
		t.Fatalf("expected persistent index hit")
	}
	if checker.ShouldSkipURL(context.Background(), "https://example.com/new") {
		t.Fatalf("expected unseen url to pass")
	}
}

func TestChecker_IndexErrorDegradesToUnseen(t *testing.T) {
	t.Parallel()

	index := &fakeIndex{urlErr: fmt.Errorf("connection reset"), digestErr: fmt.Errorf("connection reset")}
	checker := NewChecker(NewSessionCache(), index, nil, zerolog.Nop())

	if checker.ShouldSkipURL(context.Background(), "https://example.com/x") {
		t.Fatalf("store error must not report a duplicate")
	}
	if checker.ShouldSkipContent(context.Background(), "some page text") {
		t.Fatalf("store error must not report a duplicate")
	}
}

func TestChecker_EmptyInputsShortCircuit(t *testing.T) {
	t.Parallel()

	index := &fakeIndex{urls: map[string]bool{}, digests: map[string]bool{}}
	checker := NewChecker(NewSessionCache(), index, nil, zerolog.Nop())

	if checker.ShouldSkipURL(context.Background(), "") {
		t.Fatalf("blank url must not be a duplicate")
	}
	if checker.ShouldSkipContent(context.Background(), "   ") {
		t.Fatalf("blank content must not be a duplicate")
	}
	if index.urlCalls != 0 || index.contentCalls != 0 {
		t.Fatalf("blank inputs must not reach the index")
	}
}

func TestChecker_CheckAll_ShortCircuitsOnURL(t *testing.T) {
	t.Parallel()

	index := &fakeIndex{
		urls:    map[string]bool{"https://example.com/dup": true},
		digests: map[string]bool{},
	}
	finder := &fakeFinder{found: true, productID: 7}
	checker := NewChecker(NewSessionCache(), index, finder, zerolog.Nop())

	result := checker.CheckAll(context.Background(), "https://example.com/dup", "body", "Macallan 18", "Macallan")
	if !result.Duplicate || result.DuplicateType != DuplicateURL {
		t.Fatalf("expected url duplicate, got %+v", result)
	}
	if index.contentCalls != 0 {
		t.Fatalf("content tier must not run after url hit")
	}
	if finder.calls != 0 {
		t.Fatalf("product tier must not run after url hit")
	}
}

func TestChecker_CheckAll_ProductTier(t *testing.T) {
	t.Parallel()

	index := &fakeIndex{urls: map[string]bool{}, digests: map[string]bool{}}
	finder := &fakeFinder{found: true, productID: 42}
	checker := NewChecker(NewSessionCache(), index, finder, zerolog.Nop())

	result := checker.CheckAll(context.Background(), "https://example.com/new", "body", "Macallan 18", "Macallan")
	if !result.Duplicate || result.DuplicateType != DuplicateProduct || result.ProductID != 42 {
		t.Fatalf("expected product duplicate with id 42, got %+v", result)
	}
}

func TestChecker_CheckAll_AllNew(t *testing.T) {
	t.Parallel()

	index := &fakeIndex{urls: map[string]bool{}, digests: map[string]bool{}}
	finder := &fakeFinder{}
	checker := NewChecker(NewSessionCache(), index, finder, zerolog.Nop())

	result := checker.CheckAll(context.Background(), "https://example.com/new", "body", "Macallan 18", "Macallan")
	if result.Duplicate {
		t.Fatalf("expected no duplicate, got %+v", result)
	}
}
