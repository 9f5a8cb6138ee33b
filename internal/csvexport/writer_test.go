package csvexport

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotter/internal/domain"
)

func strp(s string) *string { return &s }
func fp(f float64) *float64 { return &f }

func sampleRecord() domain.ProductRecord {
	return domain.ProductRecord{
		Supermarket:       "Lidl",
		Retailer:          strp("Lidl"),
		ProductName:       "Broccoli",
		CurrentPrice:      fp(0.89),
		OldPrice:          fp(1.29),
		DiscountPercent:   strp("-31%"),
		SavingAmount:      fp(0.4),
		SavingType:        strp("absolute"),
		WeightOrPack:      strp("500 g confezione"),
		PricePerUnit:      strp("1 kg = 1,78 €"),
		OfferStartDate:    strp("19/01"),
		OfferEndDate:      strp("25/01"),
		Confidence:        0.89,
		Notes:             domain.Notes{"Coltivato in Italia", "Bio"},
		ExtractionQuality: domain.QualityHigh,
		ModelUsed:         "google/gemini-2.5-flash",
		ExtractedAt:       time.Date(2026, 1, 19, 8, 30, 0, 0, time.UTC),
		PageNumber:        1,
		FlyerDate:         "2026-01-19",
	}
}

func TestWriteHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteHeader())
	w.Flush()
	require.NoError(t, w.Error())

	row, err := csv.NewReader(&buf).Read()
	require.NoError(t, err)

	assert.Len(t, row, len(Columns))
	assert.Equal(t, "supermarket", row[0])
	assert.Equal(t, "flyer_date", row[len(row)-1])
}

func TestRow(t *testing.T) {
	rec := sampleRecord()
	row := Row(&rec)

	require.Len(t, row, len(Columns))
	get := func(col string) string {
		for i, c := range Columns {
			if c == col {
				return row[i]
			}
		}
		t.Fatalf("unknown column %s", col)
		return ""
	}

	assert.Equal(t, "Broccoli", get("product_name"))
	assert.Equal(t, "", get("brand"))
	assert.Equal(t, "0.89", get("current_price"))
	assert.Equal(t, "0.40", get("saving_amount"))
	assert.Equal(t, "-31%", get("discount_percent"))
	assert.Equal(t, "Coltivato in Italia | Bio", get("notes"))
	assert.Equal(t, "0.89", get("confidence"))
	assert.Equal(t, "2026-01-19T08:30:00Z", get("extracted_at"))
	assert.Equal(t, "1", get("page_number"))
}

func TestBuildFilename(t *testing.T) {
	at := time.Date(2026, 1, 19, 8, 5, 9, 0, time.UTC)
	assert.Equal(t, "lidl_products_20260119_080509.csv", BuildFilename("Lidl", at))
	assert.Equal(t, "oasi_tigre_products_20260119_080509.csv", BuildFilename("Oasi Tigre", at))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "oasi_tigre", SanitizeFilename("  Oasi / Tigre!! "))
	assert.Equal(t, "eurospin", SanitizeFilename("eurospin"))
}

func TestExportFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	at := time.Date(2026, 1, 19, 8, 0, 0, 0, time.UTC)

	path, err := ExportFile(dir, "lidl", []domain.ProductRecord{sampleRecord(), sampleRecord()}, at)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "lidl_products_20260119_080000.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, BOM))

	rows, err := csv.NewReader(bytes.NewReader(data[len(BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, "Broccoli", rows[1][2])
}
