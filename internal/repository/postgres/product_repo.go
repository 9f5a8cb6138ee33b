package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"spotter/internal/domain"
	"spotter/internal/port"
)

// insertChunkSize keeps a single multi-row insert well below the 65535
// bind-parameter limit.
const insertChunkSize = 500

type productRepo struct {
	db *sqlx.DB
}

// NewProductRepo creates a new PostgreSQL-backed ProductRepository.
func NewProductRepo(db *sqlx.DB) port.ProductRepository {
	return &productRepo{db: db}
}

const insertProductsQuery = `
	INSERT INTO products (
		id, run_id, supermarket, retailer, product_name, brand, description,
		current_price, old_price, discount_percent, saving_amount, saving_type,
		weight_or_pack, price_per_unit, offer_start_date, offer_end_date,
		global_validity_start, global_validity_end, confidence, notes,
		extraction_quality, model_used, page_number, flyer_date, extracted_at
	) VALUES (
		:id, :run_id, :supermarket, :retailer, :product_name, :brand, :description,
		:current_price, :old_price, :discount_percent, :saving_amount, :saving_type,
		:weight_or_pack, :price_per_unit, :offer_start_date, :offer_end_date,
		:global_validity_start, :global_validity_end, :confidence, :notes,
		:extraction_quality, :model_used, :page_number, :flyer_date, :extracted_at
	)
	ON CONFLICT (product_name, supermarket, offer_start_date) DO UPDATE SET
		id = EXCLUDED.id,
		run_id = EXCLUDED.run_id,
		retailer = EXCLUDED.retailer,
		brand = EXCLUDED.brand,
		description = EXCLUDED.description,
		current_price = EXCLUDED.current_price,
		old_price = EXCLUDED.old_price,
		discount_percent = EXCLUDED.discount_percent,
		saving_amount = EXCLUDED.saving_amount,
		saving_type = EXCLUDED.saving_type,
		weight_or_pack = EXCLUDED.weight_or_pack,
		price_per_unit = EXCLUDED.price_per_unit,
		offer_end_date = EXCLUDED.offer_end_date,
		global_validity_start = EXCLUDED.global_validity_start,
		global_validity_end = EXCLUDED.global_validity_end,
		confidence = EXCLUDED.confidence,
		notes = EXCLUDED.notes,
		extraction_quality = EXCLUDED.extraction_quality,
		model_used = EXCLUDED.model_used,
		page_number = EXCLUDED.page_number,
		flyer_date = EXCLUDED.flyer_date,
		extracted_at = EXCLUDED.extracted_at`

// CreateBatch upserts records and returns the number of rows written.
// A product already stored for the same store and offer start is replaced
// by the newer reading.

func (r *productRepo) CreateBatch(ctx context.Context, records []domain.ProductRecord) (int, error) {
	records = dedupeRecords(records)
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("productRepo.CreateBatch begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	inserted := 0
	for start := 0; start < len(records); start += insertChunkSize {
		end := min(start+insertChunkSize, len(records))
		result, err := tx.NamedExecContext(ctx, insertProductsQuery, records[start:end])
		if err != nil {
			return 0, fmt.Errorf("productRepo.CreateBatch: %w", err)
		}
		n, _ := result.RowsAffected()
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("productRepo.CreateBatch commit: %w", err)
	}
	return inserted, nil
}

type productKey struct {
	name, supermarket string
	offerStart        string
	hasOfferStart     bool
}

// dedupeRecords keeps one record per conflict key, the one with the highest
// confidence. PostgreSQL rejects an upsert that touches the same row twice.
func dedupeRecords(records []domain.ProductRecord) []domain.ProductRecord {
	index := make(map[productKey]int, len(records))
	out := make([]domain.ProductRecord, 0, len(records))
	for _, rec := range records {
		key := productKey{name: rec.ProductName, supermarket: rec.Supermarket}
		if rec.OfferStartDate != nil {
			key.offerStart, key.hasOfferStart = *rec.OfferStartDate, true
		}
		if i, ok := index[key]; ok {
			if rec.Confidence > out[i].Confidence {
				out[i] = rec
			}
			continue
		}
		index[key] = len(out)
		out = append(out, rec)
	}
	return out
}

func (r *productRepo) Search(ctx context.Context, filter port.ProductFilter, offset, limit int) ([]domain.ProductRecord, int, error) {
	where, args := productWhere(filter)

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM products"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("productRepo.Search count: %w", err)
	}

	query := fmt.Sprintf(`SELECT * FROM products%s
		 ORDER BY extracted_at DESC, product_name LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)

	var products []domain.ProductRecord
	if err := r.db.SelectContext(ctx, &products, query, append(args, limit, offset)...); err != nil {
		return nil, 0, fmt.Errorf("productRepo.Search: %w", err)
	}
	return products, total, nil
}

// productWhere builds the WHERE clause for a search. The query term matches
// product name or brand as a case-insensitive substring.
func productWhere(filter port.ProductFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+escapeLike(q)+"%")
		conds = append(conds, fmt.Sprintf("(product_name ILIKE $%d OR brand ILIKE $%d)", len(args), len(args)))
	}
	if s := strings.TrimSpace(filter.Supermarket); s != "" {
		args = append(args, s)
		conds = append(conds, fmt.Sprintf("LOWER(supermarket) = LOWER($%d)", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
