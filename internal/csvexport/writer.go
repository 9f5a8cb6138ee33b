package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"spotter/internal/domain"
)

// UTF-8 BOM bytes so spreadsheet tools read Italian accents correctly.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// NotesSeparator joins multiple product notes into one cell.
const NotesSeparator = " | "

// Columns is the CSV header row, one column per ProductRecord field.
var Columns = []string{
	"supermarket",
	"retailer",
	"product_name",
	"brand",
	"description",
	"current_price",
	"old_price",
	"discount_percent",
	"saving_amount",
	"saving_type",
	"weight_or_pack",
	"price_per_unit",
	"offer_start_date",
	"offer_end_date",
	"global_validity_start",
	"global_validity_end",
	"confidence",
	"notes",
	"extraction_quality",
	"model_used",
	"extracted_at",
	"page_number",
	"flyer_date",
}

// Writer wraps csv.Writer for exporting product records.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(Columns)
}

// WriteRecords converts records to rows and writes them.
func (w *Writer) WriteRecords(records []domain.ProductRecord) error {
	for i := range records {
		if err := w.csv.Write(Row(&records[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// Row renders a record in Columns order. Absent values are empty cells.
func Row(r *domain.ProductRecord) []string {
	return []string{
		r.Supermarket,
		str(r.Retailer),
		r.ProductName,
		str(r.Brand),
		str(r.Description),
		money(r.CurrentPrice),
		money(r.OldPrice),
		str(r.DiscountPercent),
		money(r.SavingAmount),
		str(r.SavingType),
		str(r.WeightOrPack),
		str(r.PricePerUnit),
		str(r.OfferStartDate),
		str(r.OfferEndDate),
		str(r.GlobalValidityStart),
		str(r.GlobalValidityEnd),
		strconv.FormatFloat(r.Confidence, 'f', -1, 64),
		strings.Join(r.Notes, NotesSeparator),
		string(r.ExtractionQuality),
		r.ModelUsed,
		formatTime(r.ExtractedAt),
		strconv.Itoa(r.PageNumber),
		r.FlyerDate,
	}
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func money(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename lower-cases name and replaces anything outside [a-z0-9_-]
// with a single underscore, truncating to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(strings.ToLower(name), "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns {store}_products_{YYYYMMDD_HHMMSS}.csv.
func BuildFilename(store string, at time.Time) string {
	return fmt.Sprintf("%s_products_%s.csv", SanitizeFilename(store), at.Format("20060102_150405"))
}

// ExportFile writes records to a new BOM-prefixed CSV file in dir and
// returns its path. The directory is created if needed.
func ExportFile(dir, store string, records []domain.ProductRecord, at time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export dir: %w", err)
	}
	path := filepath.Join(dir, BuildFilename(store, at))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating csv file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(BOM); err != nil {
		return "", fmt.Errorf("writing bom: %w", err)
	}
	w := NewWriter(f)
	if err := w.WriteHeader(); err != nil {
		return "", fmt.Errorf("writing csv header: %w", err)
	}
	if err := w.WriteRecords(records); err != nil {
		return "", fmt.Errorf("writing csv rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flushing csv: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing csv file: %w", err)
	}

	zap.L().Info("csvexport.ExportFile: export complete", zap.String("path", path), zap.Int("records", len(records)))
	return path, nil
}
