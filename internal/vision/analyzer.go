package vision

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"spotter/internal/domain"
	"spotter/internal/port"
)

// Analyzer runs flyer screenshots through a Chain.
type Analyzer struct {
	chain       *Chain
	concurrency int
}

// NewAnalyzer creates an Analyzer processing up to concurrency images at
// once. Values below 1 mean sequential processing.
func NewAnalyzer(chain *Chain, concurrency int) *Analyzer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Analyzer{chain: chain, concurrency: concurrency}
}

// LoadImage reads path and checks that it holds a supported image format.
func LoadImage(path string) (port.VisionImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return port.VisionImage{}, fmt.Errorf("reading image %s: %w", path, err)
	}
	contentType := http.DetectContentType(data)
	if _, ok := domain.AllowedImageTypes[contentType]; !ok {
		return port.VisionImage{}, fmt.Errorf("%s (%s): %w", path, contentType, domain.ErrUnsupportedImage)
	}
	return port.VisionImage{Path: path, Bytes: data, ContentType: contentType}, nil
}

// AnalyzeImage runs a single image through the chain. The error is only set
// when the file cannot be used; model failures are reported in the Outcome.
func (a *Analyzer) AnalyzeImage(ctx context.Context, path string) (*Outcome, error) {
	img, err := LoadImage(path)
	if err != nil {
		return nil, err
	}
	return a.chain.Run(ctx, img), nil
}

// AnalyzeBatch analyzes paths and summarises the results in input order.
// A failing image never stops the others.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, paths []string) *domain.BatchSummary {
	zap.L().Info("vision.Analyzer: starting batch", zap.Int("images", len(paths)), zap.Int("concurrency", a.concurrency))

	pages := make([]domain.PageAnalysis, len(paths))

	g := new(errgroup.Group)
	g.SetLimit(a.concurrency)
	for i, path := range paths {
		g.Go(func() error {
			pages[i] = a.analyzePage(ctx, i+1, len(paths), path)
			return nil
		})
	}
	_ = g.Wait()

	summary := &domain.BatchSummary{
		TotalImages: len(paths),
		Pages:       pages,
		ByPage:      make(map[string]*domain.PageExtractionResult, len(paths)),
	}
	for _, p := range pages {
		summary.ByPage[p.ImagePath] = p.Result
		if p.Succeeded() {
			summary.SuccessfulAnalyses++
			summary.TotalProducts += p.Result.TotalProductsFound
		} else {
			summary.FailedAnalyses++
		}
	}

	zap.L().Info("vision.Analyzer: batch complete",
		zap.Int("successful", summary.SuccessfulAnalyses),
		zap.Int("failed", summary.FailedAnalyses),
		zap.Int("products", summary.TotalProducts))
	return summary
}

func (a *Analyzer) analyzePage(ctx context.Context, pageNum, total int, path string) domain.PageAnalysis {
	page := domain.PageAnalysis{ImagePath: path, PageNumber: pageNum}
	zap.L().Info("vision.Analyzer: analyzing image",
		zap.Int("page", pageNum), zap.Int("of", total), zap.String("image", path))

	out, err := a.AnalyzeImage(ctx, path)
	if err != nil {
		page.Error = err.Error()
		zap.L().Warn("vision.Analyzer: image unreadable", zap.String("image", path), zap.Error(err))
		return page
	}

	page.Attempts = len(out.Attempts)
	if !out.Accepted() {
		page.Error = "all models exhausted"
		if last := out.LastError(); last != nil {
			page.Error = fmt.Sprintf("all models exhausted: %v", last)
		}
		return page
	}

	page.Result = out.Result
	page.ModelUsed = out.Model
	return page
}
