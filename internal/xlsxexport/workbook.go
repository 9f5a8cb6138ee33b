package xlsxexport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"spotter/internal/csvexport"
	"spotter/internal/domain"
)

// SheetName is the worksheet holding the product rows.
const SheetName = "Products"

// Build renders records as an XLSX workbook with the same columns as the CSV
// export. Prices, confidence and page number are stored as numbers.
func Build(records []domain.ProductRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("renaming sheet: %w", err)
	}

	header := make([]interface{}, len(csvexport.Columns))
	for i, c := range csvexport.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}

	for i := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := rowValues(&records[i])
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	_ = f.SetColWidth(SheetName, "A", "B", 14)
	_ = f.SetColWidth(SheetName, "C", "E", 32)
	_ = f.SetColWidth(SheetName, "R", "R", 48)
	if err := f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, fmt.Errorf("freezing header: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportFile writes the workbook next to the CSV export, using the same name
// with an .xlsx extension.
func ExportFile(dir, store string, records []domain.ProductRecord, at time.Time) (string, error) {
	data, err := Build(records)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export dir: %w", err)
	}
	name := strings.TrimSuffix(csvexport.BuildFilename(store, at), ".csv") + ".xlsx"
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing xlsx file: %w", err)
	}
	zap.L().Info("xlsxexport.ExportFile: export complete", zap.String("path", path), zap.Int("records", len(records)))
	return path, nil
}

// rowValues follows csvexport.Row but keeps numeric columns numeric.
func rowValues(r *domain.ProductRecord) []interface{} {
	cells := csvexport.Row(r)
	row := make([]interface{}, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	set := func(col string, v interface{}) {
		for i, c := range csvexport.Columns {
			if c == col {
				row[i] = v
				return
			}
		}
	}
	if r.CurrentPrice != nil {
		set("current_price", *r.CurrentPrice)
	}
	if r.OldPrice != nil {
		set("old_price", *r.OldPrice)
	}
	if r.SavingAmount != nil {
		set("saving_amount", *r.SavingAmount)
	}
	set("confidence", r.Confidence)
	set("page_number", r.PageNumber)
	return row
}
