package extraction

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"spotter/internal/domain"
)

// confidenceFields is the number of fields counted towards a computed confidence.
const confidenceFields = 11

var numericDiscount = regexp.MustCompile(`^[-−]?\s*(\d+(?:[.,]\d+)?)\s*%?$`)

// Normalize types the prices of c, derives discount and saving when the
// prices allow it and scores the product. It never fails; unreadable values
// become nil.
func Normalize(c domain.CandidateProduct, mode domain.ResponseMode) domain.NormalizedProduct {
	p := domain.NormalizedProduct{
		Brand:          titleIfUpper(c.Brand),
		Description:    c.Description,
		CurrentPrice:   priceOf(c.CurrentPriceRaw),
		OldPrice:       priceOf(c.OldPriceRaw),
		WeightOrPack:   c.WeightOrPack,
		PricePerUnit:   c.PricePerUnit,
		OfferStartDate: c.OfferStartDate,
		OfferEndDate:   c.OfferEndDate,
		Notes:          c.Notes,
	}
	if name := titleIfUpper(c.Name); name != nil {
		p.Name = *name
	}

	if c.DiscountRaw != nil {
		p.DiscountPercent = normalizeDiscount(*c.DiscountRaw)
	}

	if hasSaving(p.OldPrice, p.CurrentPrice) {
		old, cur := *p.OldPrice, *p.CurrentPrice
		if p.DiscountPercent == nil {
			pct := math.RoundToEven((old - cur) / old * 100)
			d := fmt.Sprintf("-%d%%", int(pct))
			p.DiscountPercent = &d
		}
		saving := round2(old - cur)
		st := domain.SavingTypeAbsolute
		p.SavingAmount = &saving
		p.SavingType = &st
	}

	if mode == domain.ResponseModeJSON && c.ReportedConfidence != nil {
		p.Confidence = clamp01(*c.ReportedConfidence)
	} else {
		p.Confidence = round2(0.6 + 0.35*float64(filledFields(p))/confidenceFields)
	}
	return p
}

// AssessQuality grades products by their mean confidence.
func AssessQuality(products []domain.NormalizedProduct) domain.ExtractionQuality {
	if len(products) == 0 {
		return domain.QualityNone
	}
	var sum float64
	for _, p := range products {
		sum += p.Confidence
	}
	avg := sum / float64(len(products))
	switch {
	case avg >= 0.85:
		return domain.QualityHigh
	case avg >= 0.70:
		return domain.QualityMedium
	default:
		return domain.QualityLow
	}
}

func priceOf(raw *string) *float64 {
	if raw == nil {
		return nil
	}
	return ParsePrice(*raw)
}

// hasSaving reports whether both prices are set, non-zero and old exceeds current.
func hasSaving(old, cur *float64) bool {
	return old != nil && cur != nil && *old != 0 && *cur != 0 && *old > *cur
}

// normalizeDiscount rewrites numeric discounts as "-N%" and keeps promo text
// such as "3x2" or "1+1 gratis" as written.
func normalizeDiscount(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	m := numericDiscount.FindStringSubmatch(raw)
	if m == nil {
		return &raw
	}
	f, err := strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64)
	if err != nil {
		return &raw
	}
	d := "-" + strconv.FormatFloat(f, 'f', -1, 64) + "%"
	return &d
}

func filledFields(p domain.NormalizedProduct) int {
	n := 0
	for _, set := range []bool{
		p.Brand != nil,
		p.Name != "",
		p.Description != nil,
		p.CurrentPrice != nil && *p.CurrentPrice != 0,
		p.OldPrice != nil && *p.OldPrice != 0,
		p.DiscountPercent != nil,
		p.WeightOrPack != nil,
		p.PricePerUnit != nil,
		p.OfferStartDate != nil,
		p.OfferEndDate != nil,
		len(p.Notes) > 0,
	} {
		if set {
			n++
		}
	}
	return n
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func clamp01(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}

// titleIfUpper title-cases s when every cased letter in it is upper case.
// Mixed-case values are returned unchanged.
func titleIfUpper(s *string) *string {
	if s == nil || !isAllUpper(*s) {
		return s
	}
	t := titleCase(*s)
	return &t
}

func isAllUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

// titleCase upper-cases the first letter of every run of letters and
// lower-cases the rest, so "COCA-COLA" becomes "Coca-Cola".
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToTitle(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}

// TitleCaseIfUpper is the string form of the ALL-CAPS rule applied to names,
// brands and retailers.
func TitleCaseIfUpper(s string) string {
	if !isAllUpper(s) {
		return s
	}
	return titleCase(s)
}
