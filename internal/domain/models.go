package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GlobalPageInfo holds the page-level metadata a model reports once per flyer page.
type GlobalPageInfo struct {
	Retailer      *string `json:"retailer"`
	Currency      *string `json:"currency"`
	ValidityStart *string `json:"validity_start"`
	ValidityEnd   *string `json:"validity_end"`
}

// CandidateProduct is one product as read from a model response, before typing.
type CandidateProduct struct {
	Brand           *string  `json:"brand"`
	Name            *string  `json:"name"`
	Description     *string  `json:"description"`
	CurrentPriceRaw *string  `json:"current_price_raw"`
	OldPriceRaw     *string  `json:"old_price_raw"`
	DiscountRaw     *string  `json:"discount_raw"`
	WeightOrPack    *string  `json:"weight_or_pack"`
	PricePerUnit    *string  `json:"price_per_unit"`
	OfferStartDate  *string  `json:"offer_start_date"`
	OfferEndDate    *string  `json:"offer_end_date"`
	Notes           []string `json:"notes"`

	// ReportedConfidence is only set by JSON-mode responses that carry a score.
	ReportedConfidence *float64 `json:"reported_confidence,omitempty"`
}

// NormalizedProduct is a CandidateProduct with typed prices, derived savings and a confidence score.
type NormalizedProduct struct {
	Brand           *string     `json:"brand"`
	Name            string      `json:"name"`
	Description     *string     `json:"description"`
	CurrentPrice    *float64    `json:"current_price"`
	OldPrice        *float64    `json:"old_price"`
	DiscountPercent *string     `json:"discount_percent"`
	SavingAmount    *float64    `json:"saving_amount"`
	SavingType      *SavingType `json:"saving_type"`
	WeightOrPack    *string     `json:"weight_or_pack"`
	PricePerUnit    *string     `json:"price_per_unit"`
	OfferStartDate  *string     `json:"offer_start_date"`
	OfferEndDate    *string     `json:"offer_end_date"`
	Notes           []string    `json:"notes"`
	Confidence      float64     `json:"confidence"`
}

// PageExtractionResult is the parsed and normalized outcome of one model call for one image.
type PageExtractionResult struct {
	GlobalInfo         GlobalPageInfo      `json:"global_info"`
	Products           []NormalizedProduct `json:"products"`
	TotalProductsFound int                 `json:"total_products_found"`
	ExtractionQuality  ExtractionQuality   `json:"extraction_quality"`
	QualityNotes       string              `json:"quality_notes,omitempty"`
	ModelUsed          string              `json:"model_used,omitempty"`
}

// PageAnalysis is the per-image entry of a BatchSummary.
type PageAnalysis struct {
	ImagePath  string                `json:"image_path"`
	PageNumber int                   `json:"page_number"`
	Result     *PageExtractionResult `json:"result"`
	ModelUsed  string                `json:"model_used,omitempty"`
	Attempts   int                   `json:"attempts"`
	Error      string                `json:"error,omitempty"`
}

// Succeeded reports whether the page produced an accepted result.
func (p *PageAnalysis) Succeeded() bool {
	return p.Result != nil
}

// BatchSummary aggregates the analysis of every image in a batch.
type BatchSummary struct {
	TotalImages        int                              `json:"total_images"`
	SuccessfulAnalyses int                              `json:"successful_analyses"`
	FailedAnalyses     int                              `json:"failed_analyses"`
	TotalProducts      int                              `json:"total_products"`
	Pages              []PageAnalysis                   `json:"pages"`
	ByPage             map[string]*PageExtractionResult `json:"by_page"`
}

// Notes is a list of free-text product notes stored as JSONB.
type Notes []string

// Value implements driver.Valuer.
func (n Notes) Value() (driver.Value, error) {
	if len(n) == 0 {
		return nil, nil
	}
	b, err := json.Marshal([]string(n))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (n *Notes) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*n = nil
		return nil
	case []byte:
		return json.Unmarshal(v, (*[]string)(n))
	case string:
		return json.Unmarshal([]byte(v), (*[]string)(n))
	default:
		return fmt.Errorf("notes: unsupported scan type %T", src)
	}
}

// ProductRecord is the canonical product row handed to export and storage.
type ProductRecord struct {
	ID                  uuid.UUID         `db:"id" json:"id"`
	RunID               uuid.UUID         `db:"run_id" json:"run_id"`
	Supermarket         string            `db:"supermarket" json:"supermarket"`
	Retailer            *string           `db:"retailer" json:"retailer"`
	ProductName         string            `db:"product_name" json:"product_name"`
	Brand               *string           `db:"brand" json:"brand"`
	Description         *string           `db:"description" json:"description"`
	CurrentPrice        *float64          `db:"current_price" json:"current_price"`
	OldPrice            *float64          `db:"old_price" json:"old_price"`
	DiscountPercent     *string           `db:"discount_percent" json:"discount_percent"`
	SavingAmount        *float64          `db:"saving_amount" json:"saving_amount"`
	SavingType          *string           `db:"saving_type" json:"saving_type"`
	WeightOrPack        *string           `db:"weight_or_pack" json:"weight_or_pack"`
	PricePerUnit        *string           `db:"price_per_unit" json:"price_per_unit"`
	OfferStartDate      *string           `db:"offer_start_date" json:"offer_start_date"`
	OfferEndDate        *string           `db:"offer_end_date" json:"offer_end_date"`
	GlobalValidityStart *string           `db:"global_validity_start" json:"global_validity_start"`
	GlobalValidityEnd   *string           `db:"global_validity_end" json:"global_validity_end"`
	Confidence          float64           `db:"confidence" json:"confidence"`
	Notes               Notes             `db:"notes" json:"notes"`
	ExtractionQuality   ExtractionQuality `db:"extraction_quality" json:"extraction_quality"`
	ModelUsed           string            `db:"model_used" json:"model_used"`
	PageNumber          int               `db:"page_number" json:"page_number"`
	FlyerDate           string            `db:"flyer_date" json:"flyer_date"`
	ExtractedAt         time.Time         `db:"extracted_at" json:"extracted_at"`
}

// ValidationReport summarises the quality of a set of extracted records.
type ValidationReport struct {
	Total         int      `json:"total"`
	WithPrices    int      `json:"with_prices"`
	WithDiscounts int      `json:"with_discounts"`
	AvgConfidence float64  `json:"avg_confidence"`
	Issues        []string `json:"issues"`
}

// SpotterRun records one completed pipeline run for a store flyer.
type SpotterRun struct {
	ID                  uuid.UUID `db:"id" json:"id"`
	StoreKey            string    `db:"store_key" json:"store_key"`
	FlyerURL            string    `db:"flyer_url" json:"flyer_url"`
	PageCount           int       `db:"page_count" json:"page_count"`
	ScreenshotCount     int       `db:"screenshot_count" json:"screenshot_count"`
	ProductCount        int       `db:"product_count" json:"product_count"`
	FirstScreenshotHash *string   `db:"first_screenshot_hash" json:"first_screenshot_hash"`
	RunStatus           RunStatus `db:"run_status" json:"run_status"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
}
