package app

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"horse.fit/decant/internal/cli"
	"horse.fit/decant/internal/reader"
)

// runIngest stages product item JSON files as match candidates,
// applying the dedup tiers along the way. With -fetch, payloads missing
// page_text get it filled from the live page before digesting.
func runIngest(args []string) int {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	dir := fs.String("dir", "testdata/product_items", "Directory containing .json product item files")
	recursive := fs.Bool("recursive", true, "Recursively scan subdirectories")
	fetchText := fs.Bool("fetch", false, "Fetch page text for payloads that lack page_text")
	fetchTimeout := fs.Duration("fetch-timeout", reader.DefaultFetchTimeout, "Per-page fetch timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	ctx := context.Background()
	runtime, err := openRuntime(ctx, envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ingest setup failed: %v\n", err)
		return 1
	}
	defer runtime.Close()

	files, err := collectJSONFiles(strings.TrimSpace(*dir), *recursive)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ingest setup failed: %v\n", err)
		return 1
	}
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "Ingest failed: no .json files found under %s\n", strings.TrimSpace(*dir))
		return 1
	}

	service := runtime.newDiscoveryService()

	staged, skipped, failed := 0, 0, 0
	for _, path := range files {
		raw, err := os.ReadFile(path)
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "FAILED %s: read failed: %v\n", path, err)
			continue
		}

		payload := json.RawMessage(raw)
		if *fetchText {
			payload, err = fillPageText(ctx, payload, *fetchTimeout)
			if err != nil {
				runtime.logger.Warn().Err(err).Str("path", path).Msg("page text fetch failed; continuing without it")
			}
		}

		outcome, err := service.Ingest(ctx, payload)
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "FAILED %s: %v\n", path, err)
			continue
		}
		if outcome.Skipped {
			skipped++
			fmt.Printf("SKIP %s: %s\n", path, outcome.SkipReason)
			continue
		}
		staged++
		fmt.Printf("STAGED %s: candidate_id=%d\n", path, outcome.Candidate.CandidateID)
	}

	fmt.Printf("ingest staged=%d skipped=%d failed=%d\n", staged, skipped, failed)
	if failed > 0 {
		return 1
	}
	return 0
}

// fillPageText fetches readable page text for a payload that has a
// source_url but no page_text.
func fillPageText(ctx context.Context, payload json.RawMessage, timeout time.Duration) (json.RawMessage, error) {
	var fields map[string]any
	if err := json.Unmarshal(payload, &fields); err != nil {
		return payload, nil
	}
	if text, ok := fields["page_text"].(string); ok && strings.TrimSpace(text) != "" {
		return payload, nil
	}
	sourceURL, ok := fields["source_url"].(string)
	if !ok || strings.TrimSpace(sourceURL) == "" {
		return payload, nil
	}

	text, err := reader.FetchTextWithOptions(ctx, sourceURL, reader.FetchOptions{Timeout: timeout})
	if err != nil {
		return payload, err
	}

	fields["page_text"] = text
	enriched, err := json.Marshal(fields)
	if err != nil {
		return payload, fmt.Errorf("re-encode payload: %w", err)
	}
	return enriched, nil
}
