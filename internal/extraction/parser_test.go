package extraction_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotter/internal/domain"
	"spotter/internal/extraction"
)

const pipeReply = `Here are the products I found:
Supermarket | EUR | 19/01 | 25/01
null | Broccoli | null | 0.89 | 1.29 | -31% | 500 g confezione | 1 kg = 1,78 € | 19/01 | 25/01 | Coltivato in Italia
Dal Salumiere | Porchetta affettata | null | 1.59 | 2.39 | -33% | 120 g confezione | 1 kg = 13,25 € | 19/01 | 25/01 | Porchetta arrosto
IMPORTANT: prices may vary | x | y | z
too | short`

func TestParse_PipeMode(t *testing.T) {
	res, err := extraction.Parse(pipeReply, domain.ResponseModePipe)
	require.NoError(t, err)

	require.NotNil(t, res.GlobalInfo.Retailer)
	assert.Equal(t, "Supermarket", *res.GlobalInfo.Retailer)
	assert.Equal(t, "EUR", *res.GlobalInfo.Currency)
	assert.Equal(t, "19/01", *res.GlobalInfo.ValidityStart)
	assert.Equal(t, "25/01", *res.GlobalInfo.ValidityEnd)

	require.Len(t, res.Products, 2)
	assert.Equal(t, 2, res.TotalProductsFound)

	broccoli := res.Products[0]
	assert.Equal(t, "Broccoli", broccoli.Name)
	assert.Nil(t, broccoli.Brand)
	assert.Nil(t, broccoli.Description)
	assert.Equal(t, 0.89, *broccoli.CurrentPrice)
	assert.Equal(t, 1.29, *broccoli.OldPrice)
	assert.Equal(t, "-31%", *broccoli.DiscountPercent)
	assert.Equal(t, 0.4, *broccoli.SavingAmount)
	assert.Equal(t, "500 g confezione", *broccoli.WeightOrPack)
	assert.Equal(t, "1 kg = 1,78 €", *broccoli.PricePerUnit)
	assert.Equal(t, []string{"Coltivato in Italia"}, broccoli.Notes)
	assert.Equal(t, 0.89, broccoli.Confidence)

	porchetta := res.Products[1]
	assert.Equal(t, "Dal Salumiere", *porchetta.Brand)
	assert.Equal(t, 0.92, porchetta.Confidence)

	assert.Equal(t, domain.QualityHigh, res.ExtractionQuality)
}

func TestParse_PipeMode_KeepsLineOrder(t *testing.T) {
	raw := "Lidl | EUR\n" +
		"null | Uno | null | 1\n" +
		"null | Due | null | 2\n" +
		"null | Tre | null | 3\n"

	res, err := extraction.Parse(raw, domain.ResponseModePipe)
	require.NoError(t, err)

	require.Len(t, res.Products, 3)
	for i, name := range []string{"Uno", "Due", "Tre"} {
		assert.Equal(t, name, res.Products[i].Name)
		assert.Equal(t, float64(i+1), *res.Products[i].CurrentPrice)
	}
}

func TestParse_PipeMode_ShortGlobalLine(t *testing.T) {
	for _, line := range []string{"LIDL", "LIDL | EUR", "LIDL | null | 19/01"} {
		t.Run(line, func(t *testing.T) {
			res, err := extraction.Parse(line+" |\n", domain.ResponseModePipe)
			require.NoError(t, err)
			require.NotNil(t, res.GlobalInfo.Retailer)
			assert.Equal(t, "Lidl", *res.GlobalInfo.Retailer)
			assert.Nil(t, res.GlobalInfo.ValidityEnd)
			assert.Empty(t, res.Products)
		})
	}
}

func TestParse_PipeMode_VariadicNotes(t *testing.T) {
	raw := "Lidl | EUR | 19/01 | 25/01\n" +
		"Milbona | Mozzarella | null | 0.79 | null | null | 125 g | null | null | null | Bio | null | Senza lattosio\n"

	res, err := extraction.Parse(raw, domain.ResponseModePipe)
	require.NoError(t, err)
	require.Len(t, res.Products, 1)
	assert.Equal(t, []string{"Bio", "Senza lattosio"}, res.Products[0].Notes)
}

func TestParse_PipeMode_MarkdownTable(t *testing.T) {
	raw := "| Lidl | EUR | 19/01 | 25/01 |\n" +
		"|---|---|---|---|\n" +
		"| null | Kiwi | null | 1.49 | 1.99 | null | 1 kg | null | null | null |\n"

	res, err := extraction.Parse(raw, domain.ResponseModePipe)
	require.NoError(t, err)
	assert.Equal(t, "Lidl", *res.GlobalInfo.Retailer)
	require.Len(t, res.Products, 1)
	assert.Equal(t, "Kiwi", res.Products[0].Name)
	assert.Equal(t, "-25%", *res.Products[0].DiscountPercent)
}

func TestParse_PipeMode_NamelessLinesDropped(t *testing.T) {
	raw := "Lidl | EUR | 19/01 | 25/01\n" +
		"Brand | null | desc | 1.00\n" +
		"Brand | Pane | desc | 1.00\n"

	res, err := extraction.Parse(raw, domain.ResponseModePipe)
	require.NoError(t, err)
	require.Len(t, res.Products, 1)
	assert.Equal(t, "Pane", res.Products[0].Name)
}

func TestParse_PipeMode_NoData(t *testing.T) {
	res, err := extraction.Parse("I cannot see any products in this image.", domain.ResponseModePipe)
	require.NoError(t, err)
	assert.Empty(t, res.Products)
	assert.Equal(t, 0, res.TotalProductsFound)
	assert.Equal(t, domain.QualityNone, res.ExtractionQuality)
	assert.Nil(t, res.GlobalInfo.Retailer)
}

func TestParse_JSONMode(t *testing.T) {
	raw := `{
		"retailer": "LIDL",
		"valid_from": "19/01",
		"products": [
			{"name": "Yogurt greco", "original_price": "10.99", "current_price": 7.99,
			 "discount_percent": "27%", "details": "250g", "confidence": 0.95},
			{"name": "Banane", "old_price": 1.99, "current_price": "1.49", "weight_or_pack": "1 kg",
			 "discount": "-25%", "notes": ["Bio", null]},
			{"brand": "Senza nome", "current_price": "3.00"}
		],
		"total_products_found": 12,
		"quality_notes": "Clear prices visible"
	}`

	res, err := extraction.Parse(raw, domain.ResponseModeJSON)
	require.NoError(t, err)

	assert.Equal(t, "Lidl", *res.GlobalInfo.Retailer)
	assert.Equal(t, "19/01", *res.GlobalInfo.ValidityStart)
	assert.Nil(t, res.GlobalInfo.Currency)
	assert.Equal(t, "Clear prices visible", res.QualityNotes)

	require.Len(t, res.Products, 2)
	assert.Equal(t, 2, res.TotalProductsFound)

	yogurt := res.Products[0]
	assert.Equal(t, 0.95, yogurt.Confidence)
	assert.Equal(t, 10.99, *yogurt.OldPrice)
	assert.Equal(t, 7.99, *yogurt.CurrentPrice)
	assert.Equal(t, "-27%", *yogurt.DiscountPercent)
	assert.Equal(t, "250g", *yogurt.WeightOrPack)
	assert.Equal(t, 3.0, *yogurt.SavingAmount)

	banane := res.Products[1]
	assert.Equal(t, 1.99, *banane.OldPrice)
	assert.Equal(t, "-25%", *banane.DiscountPercent)
	assert.Equal(t, []string{"Bio"}, banane.Notes)
}

func TestParse_JSONMode_EmbeddedInProse(t *testing.T) {
	raw := "Sure! Here is the JSON:\n```json\n{\"products\": [{\"name\": \"Kiwi\"}], \"quality_notes\": null}\n```\nHope it helps."

	res, err := extraction.Parse(raw, domain.ResponseModeJSON)
	require.NoError(t, err)
	require.Len(t, res.Products, 1)
	assert.Equal(t, "Kiwi", res.Products[0].Name)
	assert.Empty(t, res.QualityNotes)
}

func TestParse_JSONMode_EmptyProducts(t *testing.T) {
	res, err := extraction.Parse(`{"products": [], "total_products_found": 0, "quality_notes": "cover page"}`, domain.ResponseModeJSON)
	require.NoError(t, err)
	assert.Empty(t, res.Products)
	assert.Equal(t, domain.QualityNone, res.ExtractionQuality)
	assert.Equal(t, "cover page", res.QualityNotes)
}

func TestParse_JSONMode_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no json", "I could not read this flyer."},
		{"broken json", "{\"products\": [}"},
		{"missing products", `{"items": []}`},
		{"products not array", `{"products": "none"}`},
		{"product not object", `{"products": ["Kiwi"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := extraction.Parse(tt.raw, domain.ResponseModeJSON)
			assert.Nil(t, res)
			var perr *extraction.ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, domain.ResponseModeJSON, perr.Mode)
		})
	}
}

func TestParse_UnknownMode(t *testing.T) {
	_, err := extraction.Parse("x", domain.ResponseMode("xml"))
	var perr *extraction.ParseError
	assert.True(t, errors.As(err, &perr))
}
