package extractor

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"spotter/internal/domain"
	"spotter/internal/extraction"
)

// lowConfidence is the score below which a record is reported as an issue.
const lowConfidence = 0.5

// Extractor maps accepted page results into ProductRecords for one supermarket.
type Extractor struct {
	supermarket string
	now         func() time.Time
}

// New creates an Extractor. An ALL-CAPS supermarket name is title-cased.
func New(supermarket string) *Extractor {
	return &Extractor{
		supermarket: extraction.TitleCaseIfUpper(strings.TrimSpace(supermarket)),
		now:         time.Now,
	}
}

// WithClock returns a copy of e that timestamps records with now.
func (e *Extractor) WithClock(now func() time.Time) *Extractor {
	cp := *e
	cp.now = now
	return &cp
}

// Supermarket returns the normalized supermarket name.
func (e *Extractor) Supermarket() string {
	return e.supermarket
}

// ExtractRecord builds the canonical record for one product. An empty
// flyerDate defaults to today's date.
func (e *Extractor) ExtractRecord(
	p domain.NormalizedProduct,
	info domain.GlobalPageInfo,
	quality domain.ExtractionQuality,
	page int,
	flyerDate string,
) domain.ProductRecord {
	now := e.now()
	if flyerDate == "" {
		flyerDate = now.Format("2006-01-02")
	}

	rec := domain.ProductRecord{
		ID:                  uuid.New(),
		Supermarket:         e.supermarket,
		Retailer:            info.Retailer,
		ProductName:         strings.TrimSpace(p.Name),
		Brand:               p.Brand,
		Description:         p.Description,
		CurrentPrice:        p.CurrentPrice,
		OldPrice:            p.OldPrice,
		DiscountPercent:     p.DiscountPercent,
		SavingAmount:        p.SavingAmount,
		WeightOrPack:        p.WeightOrPack,
		PricePerUnit:        p.PricePerUnit,
		OfferStartDate:      p.OfferStartDate,
		OfferEndDate:        p.OfferEndDate,
		GlobalValidityStart: info.ValidityStart,
		GlobalValidityEnd:   info.ValidityEnd,
		Confidence:          p.Confidence,
		Notes:               domain.Notes(p.Notes),
		ExtractionQuality:   quality,
		PageNumber:          page,
		FlyerDate:           flyerDate,
		ExtractedAt:         now,
	}
	if p.SavingType != nil {
		st := string(*p.SavingType)
		rec.SavingType = &st
	}
	return rec
}

// ExtractAll flattens the accepted pages of summary into records, in page
// order. Failed pages and products without a name are skipped.
func (e *Extractor) ExtractAll(summary *domain.BatchSummary, flyerDate string) []domain.ProductRecord {
	if summary == nil {
		return nil
	}
	zap.L().Info("extractor.Extractor: extracting products", zap.Int("pages", len(summary.Pages)))

	var records []domain.ProductRecord
	for _, page := range summary.Pages {
		if page.Result == nil {
			zap.L().Warn("extractor.Extractor: page has no data, skipping", zap.Int("page", page.PageNumber))
			continue
		}
		for _, p := range page.Result.Products {
			rec := e.ExtractRecord(p, page.Result.GlobalInfo, page.Result.ExtractionQuality, page.PageNumber, flyerDate)
			if rec.ProductName == "" {
				zap.L().Warn("extractor.Extractor: skipped product without name", zap.Int("page", page.PageNumber))
				continue
			}
			rec.ModelUsed = page.ModelUsed
			records = append(records, rec)
		}
	}

	zap.L().Info("extractor.Extractor: extraction complete", zap.Int("products", len(records)))
	return records
}

// ValidateRecords summarises records and lists the ones worth a second look.
func ValidateRecords(records []domain.ProductRecord) domain.ValidationReport {
	report := domain.ValidationReport{Total: len(records), Issues: []string{}}

	var sum float64
	for _, r := range records {
		if r.CurrentPrice != nil && *r.CurrentPrice != 0 {
			report.WithPrices++
		}
		if r.DiscountPercent != nil && *r.DiscountPercent != "" {
			report.WithDiscounts++
		}
		sum += r.Confidence

		if r.ProductName == "" {
			report.Issues = append(report.Issues, fmt.Sprintf("product missing name on page %d", r.PageNumber))
		}
		if r.Confidence < lowConfidence {
			report.Issues = append(report.Issues, fmt.Sprintf("low confidence (%.2f): %s", r.Confidence, r.ProductName))
		}
	}
	if len(records) > 0 {
		report.AvgConfidence = math.Round(sum/float64(len(records))*1000) / 1000
	}

	zap.L().Info("extractor.ValidateRecords: report",
		zap.Int("total", report.Total),
		zap.Int("with_prices", report.WithPrices),
		zap.Int("with_discounts", report.WithDiscounts),
		zap.Float64("avg_confidence", report.AvgConfidence),
		zap.Int("issues", len(report.Issues)))
	return report
}
