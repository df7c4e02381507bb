package payloadschema

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestValidateProductItemPayload_Valid(t *testing.T) {
	payload := json.RawMessage(`{
		"payload_version":"v1",
		"source_url":"https://competition.example.com/results/2026/glenlivet-12",
		"name":"The Glenlivet 12 Year Old",
		"brand":"Glenlivet",
		"product_type":"whisky",
		"category":"Single Malt Scotch",
		"gtin":"5000277003457",
		"abv":40.0,
		"volume_ml":700,
		"attributes":{"medal":"gold","competition_year":2026}
	}`)

	item, err := ValidateProductItemPayload(payload)
	if err != nil {
		t.Fatalf("expected payload to be valid, got error: %v", err)
	}

	if item.Name != "The Glenlivet 12 Year Old" {
		t.Fatalf("unexpected name %q", item.Name)
	}
	if item.ABV == nil || *item.ABV != 40.0 {
		t.Fatalf("unexpected abv %v", item.ABV)
	}
}

func TestValidateProductItemPayload_MissingName(t *testing.T) {
	payload := json.RawMessage(`{
		"payload_version":"v1",
		"source_url":"https://competition.example.com/results/2026/unknown"
	}`)

	_, err := ValidateProductItemPayload(payload)
	if err == nil {
		t.Fatalf("expected validation to fail for missing name")
	}
}

func TestValidateProductItemPayload_WhitespaceName(t *testing.T) {
	payload := json.RawMessage(`{
		"payload_version":"v1",
		"source_url":"https://competition.example.com/results/2026/blank",
		"name":"   "
	}`)

	_, err := ValidateProductItemPayload(payload)
	if err == nil {
		t.Fatalf("expected validation to fail for whitespace-only name")
	}
	if !strings.Contains(err.Error(), "name must not be empty") {
		t.Fatalf("expected name semantic error, got: %v", err)
	}
}

func TestValidateProductItemPayload_WrongVersion(t *testing.T) {
	payload := json.RawMessage(`{
		"payload_version":"v2",
		"source_url":"https://competition.example.com/results/2026/x",
		"name":"Lagavulin 16"
	}`)

	if _, err := ValidateProductItemPayload(payload); err == nil {
		t.Fatalf("expected validation to fail for unknown payload_version")
	}
}

func TestValidateProductItemPayload_UnknownField(t *testing.T) {
	payload := json.RawMessage(`{
		"payload_version":"v1",
		"source_url":"https://competition.example.com/results/2026/x",
		"name":"Lagavulin 16",
		"surprise":"extra"
	}`)

	if _, err := ValidateProductItemPayload(payload); err == nil {
		t.Fatalf("expected validation to fail for unknown field")
	}
}

func TestValidateProductItemPayload_TrailingContent(t *testing.T) {
	payload := json.RawMessage(`{"payload_version":"v1","source_url":"https://a.example/x","name":"Lagavulin 16"} {}`)

	if _, err := ValidateProductItemPayload(payload); err == nil {
		t.Fatalf("expected validation to fail for trailing content")
	}
}

func TestValidateProductItemPayload_BadABV(t *testing.T) {
	payload := json.RawMessage(`{
		"payload_version":"v1",
		"source_url":"https://competition.example.com/results/2026/x",
		"name":"Lagavulin 16",
		"abv":140
	}`)

	if _, err := ValidateProductItemPayload(payload); err == nil {
		t.Fatalf("expected validation to fail for abv above 100")
	}
}
