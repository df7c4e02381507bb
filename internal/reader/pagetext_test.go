package reader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCleanTextCollapsesWhitespaceAndPreservesParagraphs(t *testing.T) {
	input := "  Gold   Medal \n\n Glenlivet\t12 \r\n\r\n40% ABV "
	got := CleanText(input)
	want := "Gold Medal\n\nGlenlivet 12\n\n40% ABV"
	if got != want {
		t.Fatalf("CleanText mismatch\nwant: %q\ngot:  %q", want, got)
	}
}

func TestFetchTextPlainResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("Glenlivet 12 Year   Gold\n\nLagavulin 16 Year   Silver"))
	}))
	defer server.Close()

	text, err := FetchText(context.Background(), server.URL+"/results")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(text, "Glenlivet 12 Year Gold") {
		t.Fatalf("whitespace not collapsed: %q", text)
	}
}

func TestFetchTextRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	if _, err := FetchText(context.Background(), server.URL); err == nil {
		t.Fatal("expected error for 503 response")
	}
}

func TestFetchTextRequiresURL(t *testing.T) {
	if _, err := FetchText(context.Background(), "   "); err == nil {
		t.Fatal("expected error for blank URL")
	}
}
