package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"horse.fit/decant/internal/cli"
	"horse.fit/decant/internal/db"
)

// runCandidates prints staged candidates, defaulting to the review
// queue.
func runCandidates(args []string) int {
	fs := flag.NewFlagSet("candidates", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	status := fs.String("status", db.CandidateNeedsReview, "Filter by match_status (empty = all)")
	limit := fs.Int("limit", 25, "Maximum rows to print")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	ctx := context.Background()
	runtime, err := openRuntime(ctx, envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Candidates setup failed: %v\n", err)
		return 1
	}
	defer runtime.Close()

	candidates, err := runtime.pool.ListCandidates(ctx, db.CandidateListOptions{
		Status: strings.TrimSpace(*status),
		Limit:  *limit,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list candidates: %v\n", err)
		return 1
	}

	if len(candidates) == 0 {
		fmt.Println("no candidates found")
		return 0
	}

	for _, c := range candidates {
		confidence := "-"
		if c.MatchConfidence != nil {
			confidence = fmt.Sprintf("%.2f", *c.MatchConfidence)
		}
		matched := "-"
		if c.MatchedProductID != nil {
			matched = fmt.Sprintf("%d", *c.MatchedProductID)
		}
		fmt.Printf(
			"%s  status=%-12s method=%-11s confidence=%-5s product=%-6s %s\n",
			c.CandidateUUID,
			c.MatchStatus,
			c.MatchMethod,
			confidence,
			matched,
			c.RawName,
		)
	}
	fmt.Printf("candidates listed=%d status=%s\n", len(candidates), strings.TrimSpace(*status))
	return 0
}
