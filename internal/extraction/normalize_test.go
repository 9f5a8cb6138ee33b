package extraction_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotter/internal/domain"
	"spotter/internal/extraction"
)

func TestNormalize_DerivesDiscountAndSaving(t *testing.T) {
	p := extraction.Normalize(domain.CandidateProduct{
		Name:            ptrS("Broccoli"),
		CurrentPriceRaw: ptrS("1.99"),
		OldPriceRaw:     ptrS("2.50"),
	}, domain.ResponseModePipe)

	require.NotNil(t, p.DiscountPercent)
	assert.Equal(t, "-20%", *p.DiscountPercent)
	require.NotNil(t, p.SavingAmount)
	assert.Equal(t, 0.51, *p.SavingAmount)
	require.NotNil(t, p.SavingType)
	assert.Equal(t, domain.SavingTypeAbsolute, *p.SavingType)
}

func TestNormalize_KeepsReportedDiscount(t *testing.T) {
	p := extraction.Normalize(domain.CandidateProduct{
		Name:            ptrS("Porchetta"),
		CurrentPriceRaw: ptrS("1.59"),
		OldPriceRaw:     ptrS("2.39"),
		DiscountRaw:     ptrS("33%"),
	}, domain.ResponseModePipe)

	assert.Equal(t, "-33%", *p.DiscountPercent)
	assert.Equal(t, 0.8, *p.SavingAmount)
}

func TestNormalize_PromoTextKeptVerbatim(t *testing.T) {
	p := extraction.Normalize(domain.CandidateProduct{
		Name:        ptrS("Yogurt"),
		DiscountRaw: ptrS("3x2"),
	}, domain.ResponseModePipe)

	require.NotNil(t, p.DiscountPercent)
	assert.Equal(t, "3x2", *p.DiscountPercent)
	assert.Nil(t, p.SavingAmount)
}

func TestNormalize_NoSavingWhenPriceRises(t *testing.T) {
	p := extraction.Normalize(domain.CandidateProduct{
		Name:            ptrS("Latte"),
		CurrentPriceRaw: ptrS("1.20"),
		OldPriceRaw:     ptrS("1.10"),
	}, domain.ResponseModePipe)

	assert.Nil(t, p.DiscountPercent)
	assert.Nil(t, p.SavingAmount)
	assert.Nil(t, p.SavingType)
}

func TestNormalize_UnparseablePrices(t *testing.T) {
	p := extraction.Normalize(domain.CandidateProduct{
		Name:            ptrS("Pane"),
		CurrentPriceRaw: ptrS("vedi cartello"),
		OldPriceRaw:     ptrS("null"),
	}, domain.ResponseModePipe)

	assert.Nil(t, p.CurrentPrice)
	assert.Nil(t, p.OldPrice)
}

func TestNormalize_ConfidenceMonotonic(t *testing.T) {
	base := domain.CandidateProduct{Name: ptrS("Mele")}
	prev := extraction.Normalize(base, domain.ResponseModePipe).Confidence
	assert.Equal(t, 0.63, prev)

	steps := []func(c *domain.CandidateProduct){
		func(c *domain.CandidateProduct) { c.Brand = ptrS("Melinda") },
		func(c *domain.CandidateProduct) { c.Description = ptrS("Golden") },
		func(c *domain.CandidateProduct) { c.CurrentPriceRaw = ptrS("1.99") },
		func(c *domain.CandidateProduct) { c.OldPriceRaw = ptrS("2.49") },
		func(c *domain.CandidateProduct) { c.WeightOrPack = ptrS("1 kg") },
		func(c *domain.CandidateProduct) { c.PricePerUnit = ptrS("1 kg = 1,99 €") },
		func(c *domain.CandidateProduct) { c.OfferStartDate = ptrS("19/01") },
		func(c *domain.CandidateProduct) { c.OfferEndDate = ptrS("25/01") },
		func(c *domain.CandidateProduct) { c.Notes = []string{"Coltivato in Italia"} },
	}
	c := base
	for _, step := range steps {
		step(&c)
		got := extraction.Normalize(c, domain.ResponseModePipe).Confidence
		assert.GreaterOrEqual(t, got, prev)
		prev = got
	}
	assert.Equal(t, 0.95, prev)
}

func TestNormalize_JSONConfidence(t *testing.T) {
	c := domain.CandidateProduct{Name: ptrS("Pasta"), ReportedConfidence: ptrF(0.95)}
	assert.Equal(t, 0.95, extraction.Normalize(c, domain.ResponseModeJSON).Confidence)

	c.ReportedConfidence = ptrF(1.7)
	assert.Equal(t, 1.0, extraction.Normalize(c, domain.ResponseModeJSON).Confidence)

	c.ReportedConfidence = ptrF(-0.2)
	assert.Equal(t, 0.0, extraction.Normalize(c, domain.ResponseModeJSON).Confidence)

	// A reported score is ignored outside JSON mode.
	c.ReportedConfidence = ptrF(0.1)
	assert.Equal(t, 0.63, extraction.Normalize(c, domain.ResponseModePipe).Confidence)
}

func TestNormalize_TitleCase(t *testing.T) {
	tests := []struct{ in, want string }{
		{"COCA-COLA", "Coca-Cola"},
		{"L'OREAL", "L'Oreal"},
		{"3 BIRRE MORETTI", "3 Birre Moretti"},
		{"CAFFÈ LAVAZZA", "Caffè Lavazza"},
		{"McVitie's", "McVitie's"},
		{"iPhone", "iPhone"},
		{"500 G", "500 G"},
		{"123", "123"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p := extraction.Normalize(domain.CandidateProduct{Name: ptrS(tt.in), Brand: ptrS(tt.in)}, domain.ResponseModePipe)
			assert.Equal(t, tt.want, p.Name)
			assert.Equal(t, tt.want, *p.Brand)
		})
	}
}

func TestAssessQuality(t *testing.T) {
	mk := func(cs ...float64) []domain.NormalizedProduct {
		out := make([]domain.NormalizedProduct, len(cs))
		for i, c := range cs {
			out[i] = domain.NormalizedProduct{Name: "x", Confidence: c}
		}
		return out
	}
	assert.Equal(t, domain.QualityNone, extraction.AssessQuality(nil))
	assert.Equal(t, domain.QualityHigh, extraction.AssessQuality(mk(0.9, 0.8)))
	assert.Equal(t, domain.QualityMedium, extraction.AssessQuality(mk(0.7)))
	assert.Equal(t, domain.QualityLow, extraction.AssessQuality(mk(0.63, 0.7)))
}
