package payloadschema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed product_item.schema.json
var productItemSchemaJSON string

// ProductItem is one extracted product observation from the extraction
// service, validated against the embedded schema before it may become a
// candidate.
type ProductItem struct {
	PayloadVersion string         `json:"payload_version"`
	SourceURL      string         `json:"source_url"`
	Name           string         `json:"name"`
	Brand          string         `json:"brand,omitempty"`
	ProductType    string         `json:"product_type,omitempty"`
	Category       string         `json:"category,omitempty"`
	Description    string         `json:"description,omitempty"`
	GTIN           string         `json:"gtin,omitempty"`
	ABV            *float64       `json:"abv,omitempty"`
	VolumeML       *float64       `json:"volume_ml,omitempty"`
	PageText       string         `json:"page_text,omitempty"`
	Attributes     map[string]any `json:"attributes,omitempty"`
}

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

func ValidateProductItemPayload(payload json.RawMessage) (*ProductItem, error) {
	value, err := decodeStrictJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload JSON: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize payload JSON: %w", err)
	}

	var item ProductItem
	if err := json.Unmarshal(normalized, &item); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	if err := validateSemantics(&item); err != nil {
		return nil, err
	}

	return &item, nil
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true

		if err := compiler.AddResource("product_item.schema.json", strings.NewReader(productItemSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile("product_item.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}

		compiledSchema = schema
	})

	if compiledSchemaErr != nil {
		return nil, compiledSchemaErr
	}
	if compiledSchema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return compiledSchema, nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("payload contains trailing content")
	}

	return value, nil
}

func validateSemantics(item *ProductItem) error {
	if item == nil {
		return fmt.Errorf("payload is nil")
	}

	if strings.TrimSpace(item.PayloadVersion) != "v1" {
		return fmt.Errorf("payload_version must be v1")
	}
	if strings.TrimSpace(item.Name) == "" {
		return fmt.Errorf("name must not be empty")
	}

	sourceURL := strings.TrimSpace(item.SourceURL)
	if sourceURL == "" {
		return fmt.Errorf("source_url must not be empty")
	}
	if _, err := url.ParseRequestURI(sourceURL); err != nil {
		return fmt.Errorf("source_url is not a valid URI: %w", err)
	}

	if item.ABV != nil && (*item.ABV < 0 || *item.ABV > 100) {
		return fmt.Errorf("abv must be within [0, 100]")
	}
	if item.VolumeML != nil && *item.VolumeML <= 0 {
		return fmt.Errorf("volume_ml must be positive")
	}

	return nil
}
