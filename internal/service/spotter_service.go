package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"spotter/internal/config"
	"spotter/internal/csvexport"
	"spotter/internal/domain"
	"spotter/internal/extractor"
	"spotter/internal/port"
	"spotter/internal/xlsxexport"
)

// ImageAnalyzer runs the model fallback chain over a batch of screenshots.
type ImageAnalyzer interface {
	AnalyzeBatch(ctx context.Context, paths []string) *domain.BatchSummary
}

// RunRequest is the DTO for a full capture-and-extract run of one store.
type RunRequest struct {
	StoreKey  string
	FlyerURL  string // overrides the store preset when set
	FlyerDate string // YYYY-MM-DD, defaults to today
	Force     bool   // ignore the run registry
}

// AnalyzeRequest is the DTO for extracting products from screenshots taken elsewhere.
type AnalyzeRequest struct {
	Supermarket string
	ImagePaths  []string
	FlyerDate   string
}

// RunResult reports what a run produced.
type RunResult struct {
	Run        *domain.SpotterRun       `json:"run"`
	Skipped    bool                     `json:"skipped"`
	Summary    *domain.BatchSummary     `json:"summary,omitempty"`
	Records    []domain.ProductRecord   `json:"-"`
	Report     *domain.ValidationReport `json:"report,omitempty"`
	CSVPath    string                   `json:"csv_path,omitempty"`
	XLSXPath   string                   `json:"xlsx_path,omitempty"`
	Inserted   int                      `json:"inserted"`
	ArchiveKey []string                 `json:"archive_keys,omitempty"`
}

// SpotterOptions holds the file system and registry settings of the pipeline.
type SpotterOptions struct {
	ScreenshotDir string
	ExportDir     string
	XLSX          bool
	Bucket        string
	MaxAge        time.Duration
}

// SpotterService defines the flyer extraction pipeline contract.
type SpotterService interface {
	Run(ctx context.Context, req RunRequest) (*RunResult, error)
	AnalyzeImages(ctx context.Context, req AnalyzeRequest) (*RunResult, error)
}

type spotterService struct {
	source   port.ScreenshotSource
	analyzer ImageAnalyzer
	products port.ProductRepository
	runs     port.RunRepository
	storage  port.ObjectStorage
	opts     SpotterOptions
	now      func() time.Time
}

// NewSpotterService creates a SpotterService. products, runs and storage may
// be nil: persistence, the run registry and screenshot archiving are then skipped.
func NewSpotterService(
	source port.ScreenshotSource,
	analyzer ImageAnalyzer,
	products port.ProductRepository,
	runs port.RunRepository,
	storage port.ObjectStorage,
	opts SpotterOptions,
) SpotterService {
	return &spotterService{
		source:   source,
		analyzer: analyzer,
		products: products,
		runs:     runs,
		storage:  storage,
		opts:     opts,
		now:      time.Now,
	}
}

func (s *spotterService) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	store, err := config.Store(req.StoreKey)
	if err != nil {
		return nil, err
	}
	flyerURL := strings.TrimSpace(req.FlyerURL)
	if flyerURL == "" {
		flyerURL = store.FlyerURL
	}
	log := zap.L().With(zap.String("store", store.Key), zap.String("flyer_url", flyerURL))

	if !req.Force {
		if latest, ok := s.recentRun(ctx, store.Key, flyerURL); ok {
			log.Info("spotterService.Run: recent run found, skipping",
				zap.String("run_id", latest.ID.String()), zap.Time("created_at", latest.CreatedAt))
			return &RunResult{Run: latest, Skipped: true}, nil
		}
	}

	if s.source == nil {
		return nil, fmt.Errorf("spotterService.Run: no screenshot source configured")
	}
	outDir := filepath.Join(s.opts.ScreenshotDir, store.Key)
	paths, err := s.source.Capture(ctx, store.CaptureRequest(flyerURL, outDir))
	if err != nil {
		if len(paths) == 0 {
			s.recordRun(ctx, &domain.SpotterRun{StoreKey: store.Key, FlyerURL: flyerURL, RunStatus: domain.RunStatusFailed})
			return nil, fmt.Errorf("capturing flyer: %w", err)
		}
		log.Warn("spotterService.Run: capture stopped early, continuing with captured pages",
			zap.Int("screenshots", len(paths)), zap.Error(err))
	}
	if len(paths) == 0 {
		s.recordRun(ctx, &domain.SpotterRun{StoreKey: store.Key, FlyerURL: flyerURL, RunStatus: domain.RunStatusFailed})
		return nil, domain.ErrNoScreenshots
	}
	log.Info("spotterService.Run: flyer captured", zap.Int("screenshots", len(paths)))

	run := &domain.SpotterRun{
		ID:              uuid.New(),
		StoreKey:        store.Key,
		FlyerURL:        flyerURL,
		PageCount:       len(paths),
		ScreenshotCount: len(paths),
	}
	if hash, err := HashFile(paths[0]); err != nil {
		log.Warn("spotterService.Run: hashing first screenshot", zap.Error(err))
	} else {
		run.FirstScreenshotHash = &hash
	}

	result := &RunResult{Run: run, ArchiveKey: s.archive(ctx, store.Key, run.ID, paths)}
	if err := s.process(ctx, result, store.Retailer, store.Key, paths, req.FlyerDate); err != nil {
		run.RunStatus = domain.RunStatusFailed
		s.recordRun(ctx, run)
		return nil, err
	}

	run.ProductCount = len(result.Records)
	run.RunStatus = domain.RunStatusCompleted
	if result.Summary.SuccessfulAnalyses == 0 {
		run.RunStatus = domain.RunStatusFailed
	}
	s.recordRun(ctx, run)

	log.Info("spotterService.Run: run finished",
		zap.String("run_id", run.ID.String()),
		zap.String("status", string(run.RunStatus)),
		zap.Int("products", run.ProductCount),
		zap.Int("inserted", result.Inserted))
	return result, nil
}

func (s *spotterService) AnalyzeImages(ctx context.Context, req AnalyzeRequest) (*RunResult, error) {
	if len(req.ImagePaths) == 0 {
		return nil, domain.ErrNoScreenshots
	}
	supermarket := strings.TrimSpace(req.Supermarket)
	if supermarket == "" {
		supermarket = "Unknown"
	}

	run := &domain.SpotterRun{
		ID:              uuid.New(),
		StoreKey:        strings.ToLower(strings.ReplaceAll(supermarket, " ", "_")),
		PageCount:       len(req.ImagePaths),
		ScreenshotCount: len(req.ImagePaths),
		RunStatus:       domain.RunStatusCompleted,
		CreatedAt:       s.now().UTC(),
	}
	result := &RunResult{Run: run}
	if err := s.process(ctx, result, supermarket, run.StoreKey, req.ImagePaths, req.FlyerDate); err != nil {
		return nil, err
	}
	run.ProductCount = len(result.Records)
	if result.Summary.SuccessfulAnalyses == 0 {
		run.RunStatus = domain.RunStatusFailed
	}
	return result, nil
}

// process analyses paths and turns the batch into exported and persisted records.
func (s *spotterService) process(ctx context.Context, result *RunResult, supermarket, storeKey string, paths []string, flyerDate string) error {
	summary := s.analyzer.AnalyzeBatch(ctx, paths)
	if err := ctx.Err(); err != nil {
		return err
	}
	result.Summary = summary

	ext := extractor.New(supermarket).WithClock(s.now)
	records := ext.ExtractAll(summary, flyerDate)
	for i := range records {
		records[i].RunID = result.Run.ID
	}
	result.Records = records

	report := extractor.ValidateRecords(records)
	result.Report = &report
	for _, issue := range report.Issues {
		zap.L().Warn("spotterService: validation issue", zap.String("issue", issue))
	}

	if s.opts.ExportDir != "" {
		at := s.now()
		path, err := csvexport.ExportFile(s.opts.ExportDir, storeKey, records, at)
		if err != nil {
			return fmt.Errorf("exporting csv: %w", err)
		}
		result.CSVPath = path
		if s.opts.XLSX {
			path, err := xlsxexport.ExportFile(s.opts.ExportDir, storeKey, records, at)
			if err != nil {
				return fmt.Errorf("exporting xlsx: %w", err)
			}
			result.XLSXPath = path
		}
	}

	if s.products != nil && len(records) > 0 {
		n, err := s.products.CreateBatch(ctx, records)
		if err != nil {
			return fmt.Errorf("persisting products: %w", err)
		}
		result.Inserted = n
		zap.L().Info("spotterService: products persisted", zap.Int("inserted", n), zap.Int("duplicates", len(records)-n))
	}
	return nil
}

// recentRun returns the latest completed run when it is younger than MaxAge.
func (s *spotterService) recentRun(ctx context.Context, storeKey, flyerURL string) (*domain.SpotterRun, bool) {
	if s.runs == nil || s.opts.MaxAge <= 0 {
		return nil, false
	}
	latest, err := s.runs.Latest(ctx, storeKey, flyerURL)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			zap.L().Warn("spotterService: run registry lookup failed", zap.Error(err))
		}
		return nil, false
	}
	return latest, s.now().Sub(latest.CreatedAt) < s.opts.MaxAge
}

func (s *spotterService) recordRun(ctx context.Context, run *domain.SpotterRun) {
	if s.runs == nil {
		return
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.now().UTC()
	}
	if err := s.runs.Create(ctx, run); err != nil {
		zap.L().Error("spotterService: recording run", zap.String("store", run.StoreKey), zap.Error(err))
	}
}

// archive uploads screenshots and returns the keys that were stored. Upload
// failures are logged and do not stop the run.
func (s *spotterService) archive(ctx context.Context, storeKey string, runID uuid.UUID, paths []string) []string {
	if s.storage == nil || s.opts.Bucket == "" {
		return nil
	}
	var keys []string
	for i, p := range paths {
		key := ArchiveKey(storeKey, runID, i+1)
		if err := s.upload(ctx, key, p); err != nil {
			zap.L().Warn("spotterService: archiving screenshot", zap.String("path", p), zap.Error(err))
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

func (s *spotterService) upload(ctx context.Context, key, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	out, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.opts.Bucket,
		Key:         key,
		Body:        f,
		ContentType: "image/png",
		Size:        info.Size(),
	})
	if err != nil {
		return err
	}
	zap.L().Debug("spotterService: screenshot archived", zap.String("key", key), zap.String("location", out.Location))
	return nil
}

// ArchiveKey is the object key of page n of a run.
func ArchiveKey(storeKey string, runID uuid.UUID, n int) string {
	return fmt.Sprintf("screenshots/%s/%s/page-%02d.png", storeKey, runID, n)
}

// HashFile returns the hex SHA-256 of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
