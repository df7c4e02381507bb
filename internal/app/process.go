package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"horse.fit/decant/internal/cli"
)

// runProcess claims pending candidates and resolves them through the
// matching pipeline.
func runProcess(args []string) int {
	fs := flag.NewFlagSet("process", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	limit := fs.Int("limit", 0, "Maximum candidates to process (0 = until none remain)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	ctx := context.Background()
	runtime, err := openRuntime(ctx, envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Process setup failed: %v\n", err)
		return 1
	}
	defer runtime.Close()

	service := runtime.newDiscoveryService()
	stats, err := service.ProcessPending(ctx, *limit)
	if err != nil {
		runtime.logger.Error().Err(err).Msg("process run failed")
		fmt.Fprintf(os.Stderr, "Process failed: %v\n", err)
		return 1
	}

	fmt.Printf(
		"process processed=%d matched=%d needs_review=%d new_products=%d\n",
		stats.Processed,
		stats.Matched,
		stats.NeedsReview,
		stats.NewProducts,
	)
	return 0
}
