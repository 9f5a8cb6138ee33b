package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"spotter/internal/domain"
	"spotter/internal/port"
)

type runRepo struct {
	db *sqlx.DB
}

// NewRunRepo creates a new PostgreSQL-backed RunRepository.
func NewRunRepo(db *sqlx.DB) port.RunRepository {
	return &runRepo{db: db}
}

func (r *runRepo) Create(ctx context.Context, run *domain.SpotterRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO spotter_runs (
			id, store_key, flyer_url, page_count, screenshot_count, product_count,
			first_screenshot_hash, run_status, created_at
		) VALUES (
			:id, :store_key, :flyer_url, :page_count, :screenshot_count, :product_count,
			:first_screenshot_hash, :run_status, :created_at
		)`, run)
	if err != nil {
		return fmt.Errorf("runRepo.Create: %w", err)
	}
	return nil
}

func (r *runRepo) Latest(ctx context.Context, storeKey, flyerURL string) (*domain.SpotterRun, error) {
	var run domain.SpotterRun
	err := r.db.GetContext(ctx, &run,
		`SELECT * FROM spotter_runs
		 WHERE store_key = $1 AND flyer_url = $2 AND run_status = $3
		 ORDER BY created_at DESC LIMIT 1`,
		storeKey, flyerURL, domain.RunStatusCompleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("runRepo.Latest: %w", err)
	}
	return &run, nil
}

func (r *runRepo) List(ctx context.Context, storeKey string, offset, limit int) ([]domain.SpotterRun, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM spotter_runs WHERE $1 = '' OR store_key = $1", storeKey)
	if err != nil {
		return nil, 0, fmt.Errorf("runRepo.List count: %w", err)
	}

	var runs []domain.SpotterRun
	err = r.db.SelectContext(ctx, &runs,
		`SELECT * FROM spotter_runs WHERE $1 = '' OR store_key = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		storeKey, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("runRepo.List: %w", err)
	}
	return runs, total, nil
}
