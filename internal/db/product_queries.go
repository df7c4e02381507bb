package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"horse.fit/decant/internal/globaltime"
)

const productColumns = `
	p.product_id,
	p.product_uuid::text,
	p.name,
	p.brand,
	p.product_type,
	p.category,
	p.gtin,
	p.fingerprint,
	p.abv,
	p.volume_ml,
	p.description,
	p.attributes,
	p.created_at,
	p.updated_at`

type productScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row productScanner) (*Product, error) {
	var p Product
	var attributes []byte
	err := row.Scan(
		&p.ProductID,
		&p.ProductUUID,
		&p.Name,
		&p.Brand,
		&p.ProductType,
		&p.Category,
		&p.GTIN,
		&p.Fingerprint,
		&p.ABV,
		&p.VolumeML,
		&p.Description,
		&attributes,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(attributes) > 0 {
		p.Attributes = json.RawMessage(attributes)
	}
	return &p, nil
}

// FindByGTIN looks up a product by exact GTIN. Returns (nil, nil) on miss.
func (p *Pool) FindByGTIN(ctx context.Context, code string) (*Product, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}

	q := `SELECT` + productColumns + `
FROM catalog.products p
WHERE p.gtin = $1
LIMIT 1`

	product, err := scanProduct(p.QueryRow(ctx, q, code))
	if err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find product by gtin: %w", err)
	}
	return product, nil
}

// FindByFingerprint looks up a product by exact fingerprint. Returns
// (nil, nil) on miss.
func (p *Pool) FindByFingerprint(ctx context.Context, fingerprint string) (*Product, error) {
	fingerprint = strings.TrimSpace(fingerprint)
	if fingerprint == "" {
		return nil, nil
	}

	q := `SELECT` + productColumns + `
FROM catalog.products p
WHERE p.fingerprint = $1
LIMIT 1`

	product, err := scanProduct(p.QueryRow(ctx, q, fingerprint))
	if err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find product by fingerprint: %w", err)
	}
	return product, nil
}

// CandidateQueryOptions narrows the fuzzy comparison set.
type CandidateQueryOptions struct {
	NameFirstWord string
	Brand         string
	ProductType   string
	Limit         int
}

// QueryCandidates returns products narrowed by product type and either an
// exact (case-insensitive) brand or the first significant word of the
// name, bounding the set the fuzzy matcher has to score.
func (p *Pool) QueryCandidates(ctx context.Context, opts CandidateQueryOptions) ([]Product, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	q := `SELECT` + productColumns + `
FROM catalog.products p
WHERE ($1 = '' OR p.product_type = $1)
  AND (
	($2 <> '' AND lower(p.brand) = lower($2))
	OR ($2 = '' AND $3 <> '' AND lower(p.name) LIKE lower($3) || '%')
  )
ORDER BY p.product_id
LIMIT $4`

	rows, err := p.Query(ctx, q, opts.ProductType, opts.Brand, opts.NameFirstWord, limit)
	if err != nil {
		return nil, fmt.Errorf("query match candidates: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0, limit)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match candidate: %w", err)
		}
		products = append(products, *product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate match candidates: %w", err)
	}
	return products, nil
}

// NewProduct is the payload for CreateProduct.
type NewProduct struct {
	Name        string
	Brand       string
	ProductType string
	Category    string
	GTIN        string
	Fingerprint string
	ABV         *float64
	VolumeML    *float64
	Description string
	Attributes  json.RawMessage
}

// CreateProduct inserts a product. A unique violation on gtin or
// fingerprint means another worker created the same identity first; the
// existing row is fetched and returned with created=false.
func (p *Pool) CreateProduct(ctx context.Context, input NewProduct) (*Product, bool, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, false, fmt.Errorf("product name is required")
	}

	attributes := input.Attributes
	if len(attributes) == 0 {
		attributes = json.RawMessage(`{}`)
	}

	q := `
INSERT INTO catalog.products (
	name,
	brand,
	product_type,
	category,
	gtin,
	fingerprint,
	abv,
	volume_ml,
	description,
	attributes,
	created_at,
	updated_at
)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9, $10::jsonb, $11, $11)
RETURNING` + strings.ReplaceAll(productColumns, "p.", "") + `
`

	now := globaltime.UTC()
	product, err := scanProduct(p.QueryRow(
		ctx,
		q,
		strings.TrimSpace(input.Name),
		strings.TrimSpace(input.Brand),
		strings.TrimSpace(input.ProductType),
		strings.TrimSpace(input.Category),
		strings.TrimSpace(input.GTIN),
		strings.TrimSpace(input.Fingerprint),
		input.ABV,
		input.VolumeML,
		input.Description,
		string(attributes),
		now,
	))
	if err == nil {
		return product, true, nil
	}

	if !IsUniqueViolation(err) {
		return nil, false, fmt.Errorf("insert product: %w", err)
	}

	// Insert conflict is a normal outcome of the concurrent-create race.
	if input.GTIN != "" {
		existing, lookupErr := p.FindByGTIN(ctx, input.GTIN)
		if lookupErr != nil {
			return nil, false, lookupErr
		}
		if existing != nil {
			return existing, false, nil
		}
	}
	existing, lookupErr := p.FindByFingerprint(ctx, input.Fingerprint)
	if lookupErr != nil {
		return nil, false, lookupErr
	}
	if existing != nil {
		return existing, false, nil
	}
	return nil, false, fmt.Errorf("insert product conflict but no existing row found: %w", err)
}

// GetProductByUUID fetches one product for the API. Returns (nil, nil)
// when absent.
func (p *Pool) GetProductByUUID(ctx context.Context, productUUID string) (*Product, error) {
	q := `SELECT` + productColumns + `
FROM catalog.products p
WHERE p.product_uuid = $1::uuid
LIMIT 1`

	product, err := scanProduct(p.QueryRow(ctx, q, strings.TrimSpace(productUUID)))
	if err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product by uuid: %w", err)
	}
	return product, nil
}

// GetProductByID fetches one product by numeric id. Returns (nil, nil)
// when absent.
func (p *Pool) GetProductByID(ctx context.Context, productID int64) (*Product, error) {
	q := `SELECT` + productColumns + `
FROM catalog.products p
WHERE p.product_id = $1
LIMIT 1`

	product, err := scanProduct(p.QueryRow(ctx, q, productID))
	if err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	return product, nil
}

// ProductListOptions filters ListProducts.
type ProductListOptions struct {
	Brand       string
	ProductType string
	Query       string
	Limit       int
	Offset      int
}

// ListProducts lists catalog products for the API.
func (p *Pool) ListProducts(ctx context.Context, opts ProductListOptions) ([]Product, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 25
	}

	q := `SELECT` + productColumns + `
FROM catalog.products p
WHERE ($1 = '' OR lower(p.brand) = lower($1))
  AND ($2 = '' OR p.product_type = $2)
  AND ($3 = '' OR p.name ILIKE '%' || $3 || '%')
ORDER BY p.product_id DESC
LIMIT $4 OFFSET $5`

	rows, err := p.Query(ctx, q, strings.TrimSpace(opts.Brand), strings.TrimSpace(opts.ProductType), strings.TrimSpace(opts.Query), limit, max(0, opts.Offset))
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0, limit)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// MergeProductAttributes merges enrichment data into an existing product.
// Identity fields already populated are never overwritten; empty ones are
// filled. Attribute keys are shallow-merged with incoming values winning,
// except that null incoming values are stripped first so they never erase
// an existing key.
func (p *Pool) MergeProductAttributes(ctx context.Context, productID int64, brand, category, description string, attributes json.RawMessage) error {
	attrs := attributes
	if len(attrs) == 0 {
		attrs = json.RawMessage(`{}`)
	}

	const q = `
UPDATE catalog.products
SET
	brand = CASE WHEN brand = '' THEN $2 ELSE brand END,
	category = CASE WHEN category = '' THEN $3 ELSE category END,
	description = CASE WHEN description = '' THEN $4 ELSE description END,
	attributes = COALESCE(attributes, '{}'::jsonb) || jsonb_strip_nulls($5::jsonb),
	updated_at = $6
WHERE product_id = $1`

	tag, err := p.Exec(ctx, q, productID, strings.TrimSpace(brand), strings.TrimSpace(category), strings.TrimSpace(description), string(attrs), globaltime.UTC())
	if err != nil {
		return fmt.Errorf("merge product attributes product_id=%d: %w", productID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("merge product attributes: product_id=%d not found", productID)
	}
	return nil
}
