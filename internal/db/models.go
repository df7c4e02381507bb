package db

import (
	"encoding/json"
	"time"
)

// Candidate match_status values. A candidate leaves "pending" exactly once
// per pipeline run.
const (
	CandidatePending     = "pending"
	CandidateMatched     = "matched"
	CandidateNeedsReview = "needs_review"
	CandidateNewProduct  = "new_product"
)

// Match methods recorded on candidates and match events.
const (
	MethodGTIN        = "gtin"
	MethodFingerprint = "fingerprint"
	MethodFuzzy       = "fuzzy"
	MethodNone        = "none"
)

// Product maps catalog.products: one row per unique product identity.
// Rows are created once, enriched over time, never deleted by this
// service. The gtin and fingerprint uniqueness lives in partial indexes
// created by post_automigrate.sql; they are the authoritative guard
// against concurrent duplicate creation.
type Product struct {
	ProductID   int64           `gorm:"column:product_id;primaryKey;autoIncrement"`
	ProductUUID string          `gorm:"column:product_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	Name        string          `gorm:"column:name;type:text;not null"`
	Brand       string          `gorm:"column:brand;type:text;not null;default:''"`
	ProductType string          `gorm:"column:product_type;type:text;not null;default:''"`
	Category    string          `gorm:"column:category;type:text;not null;default:''"`
	GTIN        *string         `gorm:"column:gtin;type:text"`
	Fingerprint *string         `gorm:"column:fingerprint;type:text"`
	ABV         *float64        `gorm:"column:abv;type:double precision"`
	VolumeML    *float64        `gorm:"column:volume_ml;type:double precision"`
	Description string          `gorm:"column:description;type:text;not null;default:''"`
	Attributes  json.RawMessage `gorm:"column:attributes;type:jsonb"`
	CreatedAt   time.Time       `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (Product) TableName() string { return "catalog.products" }

// ProductCandidate maps catalog.product_candidates: the staging record for
// a product observed at a source, before identity resolution.
type ProductCandidate struct {
	CandidateID      int64           `gorm:"column:candidate_id;primaryKey;autoIncrement"`
	CandidateUUID    string          `gorm:"column:candidate_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	SourceURL        string          `gorm:"column:source_url;type:text;not null;default:''"`
	RawName          string          `gorm:"column:raw_name;type:text;not null"`
	NormalizedName   string          `gorm:"column:normalized_name;type:text;not null;default:''"`
	Brand            string          `gorm:"column:brand;type:text;not null;default:''"`
	ProductType      string          `gorm:"column:product_type;type:text;not null;default:''"`
	GTIN             *string         `gorm:"column:gtin;type:text"`
	ABV              *float64        `gorm:"column:abv;type:double precision"`
	VolumeML         *float64        `gorm:"column:volume_ml;type:double precision"`
	Language         *string         `gorm:"column:language;type:text"`
	ExtractedData    json.RawMessage `gorm:"column:extracted_data;type:jsonb"`
	MatchStatus      string          `gorm:"column:match_status;type:text;not null;default:pending"`
	MatchConfidence  *float64        `gorm:"column:match_confidence;type:double precision"`
	MatchMethod      string          `gorm:"column:match_method;type:text;not null;default:none"`
	MatchedProductID *int64          `gorm:"column:matched_product_id;type:bigint"`
	RelatedProductID *int64          `gorm:"column:related_product_id;type:bigint"`
	VariantType      *string         `gorm:"column:variant_type;type:text"`
	CreatedAt        time.Time       `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (ProductCandidate) TableName() string { return "catalog.product_candidates" }

// DiscoveredURL maps catalog.discovered_urls: the durable URL tier of the
// duplicate index, keyed by canonical form.
type DiscoveredURL struct {
	DiscoveredURLID int64     `gorm:"column:discovered_url_id;primaryKey;autoIncrement"`
	CanonicalURL    string    `gorm:"column:canonical_url;type:text;not null;unique"`
	SourceHost      string    `gorm:"column:source_host;type:text;not null;default:''"`
	FirstSeenAt     time.Time `gorm:"column:first_seen_at;type:timestamptz;not null;default:now()"`
}

func (DiscoveredURL) TableName() string { return "catalog.discovered_urls" }

// ContentRecord maps catalog.content_digests: the durable content tier.
type ContentRecord struct {
	ContentRecordID int64     `gorm:"column:content_record_id;primaryKey;autoIncrement"`
	Digest          string    `gorm:"column:digest;type:text;not null;unique"`
	CanonicalURL    string    `gorm:"column:canonical_url;type:text;not null;default:''"`
	FirstSeenAt     time.Time `gorm:"column:first_seen_at;type:timestamptz;not null;default:now()"`
}

func (ContentRecord) TableName() string { return "catalog.content_digests" }

// MatchEvent maps catalog.match_events: one row per pipeline decision,
// kept as an audit trail for threshold tuning.
type MatchEvent struct {
	MatchEventID     int64           `gorm:"column:match_event_id;primaryKey;autoIncrement"`
	CandidateID      int64           `gorm:"column:candidate_id;type:bigint;not null;unique"`
	Decision         string          `gorm:"column:decision;type:text;not null"`
	Method           string          `gorm:"column:method;type:text;not null"`
	Confidence       *float64        `gorm:"column:confidence;type:double precision"`
	MatchedProductID *int64          `gorm:"column:matched_product_id;type:bigint"`
	Details          json.RawMessage `gorm:"column:details;type:jsonb"`
	CreatedAt        time.Time       `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (MatchEvent) TableName() string { return "catalog.match_events" }

func autoMigrateModels() []any {
	return []any{
		&Product{},
		&ProductCandidate{},
		&DiscoveredURL{},
		&ContentRecord{},
		&MatchEvent{},
	}
}
