package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"spotter/internal/browser"
	"spotter/internal/domain"
	"spotter/internal/port"
	"spotter/internal/repository/postgres"
	"spotter/internal/service"
	s3storage "spotter/internal/storage/s3"
	"spotter/internal/validator"
	"spotter/internal/vision"
	"spotter/internal/vision/openrouter"
)

var _ service.ImageAnalyzer = (*vision.Analyzer)(nil)

// pipelineEnv holds everything a pipeline command needs.
type pipelineEnv struct {
	DB      *sqlx.DB
	Spotter service.SpotterService
}

// Close releases the database pool if one was opened.
func (e *pipelineEnv) Close() {
	if e.DB != nil {
		_ = e.DB.Close()
	}
}

// initDB opens the database when it is enabled. A nil pool disables
// persistence and the run registry.
func initDB(ctx context.Context) (*sqlx.DB, error) {
	if !cfg.DB.Enabled {
		zap.L().Info("database disabled, skipping persistence and run registry")
		return nil, nil
	}
	db, err := postgres.NewDB(ctx, &cfg.DB)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func newResultValidator(keywords []string) *validator.AnchorValidator {
	v := validator.NewAnchorValidator(keywords)
	if !v.HasAnchors() {
		zap.L().Warn("no anchor keywords configured, hallucination check is off",
			zap.String("env", "SPOTTER_VISION_ANCHOR_KEYWORDS"))
	}
	return v
}

func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	client, err := openrouter.NewClient(&cfg.Vision)
	if err != nil {
		return nil, err
	}
	chain, err := vision.NewChain(
		cfg.Vision.Models,
		client,
		domain.ResponseMode(cfg.Vision.ResponseMode),
		newResultValidator(cfg.Vision.AnchorKeywords),
	)
	if err != nil {
		return nil, fmt.Errorf("building model chain: %w", err)
	}
	analyzer := vision.NewAnalyzer(chain, cfg.Batch.Concurrency)

	env := &pipelineEnv{}
	env.DB, err = initDB(ctx)
	if err != nil {
		return nil, err
	}

	var (
		products port.ProductRepository
		runs     port.RunRepository
		storage  port.ObjectStorage
	)
	if env.DB != nil {
		products = postgres.NewProductRepo(env.DB)
		runs = postgres.NewRunRepo(env.DB)
	}
	if cfg.S3.Bucket != "" {
		storage, err = s3storage.NewS3Client(ctx, &cfg.S3)
		if err != nil {
			env.Close()
			return nil, err
		}
	}

	env.Spotter = service.NewSpotterService(
		browser.NewCapturer(cfg.Browser),
		analyzer,
		products,
		runs,
		storage,
		service.SpotterOptions{
			ScreenshotDir: cfg.Browser.ScreenshotDir,
			ExportDir:     cfg.Export.Dir,
			XLSX:          cfg.Export.XLSX,
			Bucket:        cfg.S3.Bucket,
			MaxAge:        cfg.Run.MaxAge,
		},
	)
	zap.L().Info("pipeline ready",
		zap.Strings("models", chain.Models()),
		zap.String("mode", cfg.Vision.ResponseMode),
		zap.Int("concurrency", cfg.Batch.Concurrency),
		zap.Bool("database", env.DB != nil),
		zap.Bool("archive", storage != nil))
	return env, nil
}

func printResult(w io.Writer, res *service.RunResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
