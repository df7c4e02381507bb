package app

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"horse.fit/decant/internal/cli"
	"horse.fit/decant/internal/match"
	payloadschema "horse.fit/decant/schema"
)

// runMatch dry-runs one product item payload against the catalog and
// prints the match decision without touching any candidate state.
func runMatch(args []string) int {
	fs := flag.NewFlagSet("match", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	file := fs.String("file", "", "Path to a product item .json payload")
	lookup := fs.Bool("lookup", false, "Use the standalone lookup scale instead of the pipeline scale")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *file == "" {
		fmt.Fprintln(os.Stderr, "--file is required")
		return 2
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read payload: %v\n", err)
		return 1
	}
	item, err := payloadschema.ValidateProductItemPayload(json.RawMessage(raw))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid payload: %v\n", err)
		return 1
	}

	ctx := context.Background()
	runtime, err := openRuntime(ctx, envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Match setup failed: %v\n", err)
		return 1
	}
	defer runtime.Close()

	matcher := runtime.newMatcher()
	input := match.Input{
		Name:        item.Name,
		Brand:       item.Brand,
		GTIN:        item.GTIN,
		ProductType: item.ProductType,
		ABV:         item.ABV,
		VolumeML:    item.VolumeML,
	}

	var result match.Result
	if *lookup {
		result = matcher.Lookup(ctx, input)
	} else {
		result = matcher.Match(ctx, input)
	}

	report := map[string]any{
		"method":     result.Method,
		"confidence": result.Confidence,
		"details":    result.Details,
	}
	if result.Product != nil {
		report["product_id"] = result.Product.ProductID
		report["product_uuid"] = result.Product.ProductUUID
		report["product_name"] = result.Product.Name
	}

	encoded, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode result: %v\n", err)
		return 1
	}
	fmt.Println(string(encoded))
	return 0
}
