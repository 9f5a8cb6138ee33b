package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"spotter/internal/domain"
	"spotter/internal/validator"
)

func page(names ...string) *domain.PageExtractionResult {
	res := &domain.PageExtractionResult{}
	for _, n := range names {
		res.Products = append(res.Products, domain.NormalizedProduct{Name: n})
	}
	res.TotalProductsFound = len(res.Products)
	return res
}

func TestAnchorValidator_Broccoli(t *testing.T) {
	v := validator.NewAnchorValidator([]string{"broccoli"})

	assert.True(t, v.Validate(page("Broccoli")))
	assert.False(t, v.Validate(page("Pasta")))
}

func TestAnchorValidator_Check(t *testing.T) {
	v := validator.NewAnchorValidator([]string{" Broccoli ", "", "porchetta"})

	tests := []struct {
		name string
		res  *domain.PageExtractionResult
		want validator.Verdict
	}{
		{"nil result", nil, validator.VerdictRejectEmpty},
		{"no products", page(), validator.VerdictRejectEmpty},
		{"substring match", page("Pasta", "BROCCOLI ROMANESCO"), validator.VerdictAccept},
		{"second anchor", page("Porchetta affettata"), validator.VerdictAccept},
		{"no anchor", page("Pasta", "Latte"), validator.VerdictRejectNoAnchor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.Check(tt.res)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want == validator.VerdictAccept, v.Validate(tt.res))
		})
	}
}

func TestAnchorValidator_NoAnchorsAcceptsNonEmpty(t *testing.T) {
	v := validator.NewAnchorValidator(nil)

	assert.True(t, v.Validate(page("Pasta")))
	assert.Equal(t, validator.VerdictRejectEmpty, v.Check(page()))
}
