// Package browser walks an online flyer viewer with a headless Chromium and
// saves one PNG screenshot per flyer page.
package browser

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"spotter/internal/config"
	"spotter/internal/port"
)

const (
	viewportWidth  = 1920
	viewportHeight = 1080
	scaleFactor    = 2

	navigationTimeout = 60 * time.Second
	clickTimeout      = 2 * time.Second
	settleDelay       = 1500 * time.Millisecond
	renderDelay       = 2 * time.Second
)

// Capturer implements port.ScreenshotSource with go-rod.
type Capturer struct {
	bin      string
	headless bool
	now      func() time.Time
}

// NewCapturer creates a Capturer. An empty Bin lets rod download or detect
// a Chromium build.
func NewCapturer(cfg config.BrowserConfig) *Capturer {
	return &Capturer{bin: cfg.Bin, headless: cfg.Headless, now: time.Now}
}

// Capture opens req.URL, dismisses the cookie banner and clicks through the
// flyer until no next button is found, the page repeats, or PageLimit is hit.
func (c *Capturer) Capture(ctx context.Context, req port.CaptureRequest) ([]string, error) {
	if req.URL == "" {
		return nil, fmt.Errorf("browser.Capture: empty flyer url")
	}
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating screenshot dir: %w", err)
	}

	l := launcher.New().Context(ctx).Headless(c.headless).NoSandbox(true).Leakless(false)
	if c.bin != "" {
		l = l.Bin(c.bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}
	defer l.Cleanup()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}
	defer func() { _ = browser.Close() }()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("opening page: %w", err)
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width: viewportWidth, Height: viewportHeight, DeviceScaleFactor: scaleFactor,
	}); err != nil {
		return nil, fmt.Errorf("setting viewport: %w", err)
	}

	zap.L().Info("browser.Capturer: navigating", zap.String("store", req.StoreKey), zap.String("url", req.URL))
	if err := page.Timeout(navigationTimeout).Navigate(req.URL); err != nil {
		return nil, fmt.Errorf("navigating to %s: %w", req.URL, err)
	}
	if err := page.Timeout(navigationTimeout).WaitLoad(); err != nil {
		return nil, fmt.Errorf("waiting for %s: %w", req.URL, err)
	}

	dismissCookieBanner(page, req.CookieSelectors, req.CookieButtonTexts)
	sleep(ctx, renderDelay)

	nav, shot := page, screenshotFunc(page, nil)
	if req.IframeSelector != "" {
		if frame, el, ok := switchToIframe(page, req.IframeSelector); ok {
			nav, shot = frame, screenshotFunc(page, el)
			sleep(ctx, renderDelay)
		}
	}

	limit := req.PageLimit
	if limit <= 0 {
		limit = 1
	}
	stamp := c.now().Format("20060102_150405")

	var (
		paths []string
		prev  []byte
	)
	for n := 1; n <= limit; n++ {
		if err := ctx.Err(); err != nil {
			return paths, err
		}

		img, err := shot()
		if err != nil {
			return paths, fmt.Errorf("screenshot of page %d: %w", n, err)
		}
		if prev != nil && bytes.Equal(prev, img) {
			zap.L().Info("browser.Capturer: page unchanged after next, stopping", zap.Int("page", n))
			break
		}
		prev = img

		path := filepath.Join(req.OutputDir, ScreenshotName(req.StoreKey, n, stamp))
		if err := os.WriteFile(path, img, 0o644); err != nil {
			return paths, fmt.Errorf("writing screenshot: %w", err)
		}
		paths = append(paths, path)
		zap.L().Info("browser.Capturer: page captured", zap.Int("page", n), zap.String("path", path), zap.Int("bytes", len(img)))

		if n == limit {
			break
		}
		if !clickNext(nav, req.NextButtonSelectors, req.NextButtonTexts) {
			zap.L().Info("browser.Capturer: no next button, last page reached", zap.Int("page", n))
			break
		}
		sleep(ctx, settleDelay)
	}

	return paths, nil
}

// ScreenshotName is the file name for page n of a capture started at stamp.
func ScreenshotName(storeKey string, n int, stamp string) string {
	key := strings.ToLower(strings.TrimSpace(storeKey))
	if key == "" {
		key = "flyer"
	}
	return fmt.Sprintf("%s_page_%02d_%s.png", key, n, stamp)
}

func screenshotFunc(page *rod.Page, frame *rod.Element) func() ([]byte, error) {
	if frame != nil {
		return func() ([]byte, error) {
			return frame.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
		}
	}
	return func() ([]byte, error) {
		return page.Screenshot(false, &proto.PageCaptureScreenshot{Format: proto.PageCaptureScreenshotFormatPng})
	}
}

func switchToIframe(page *rod.Page, selector string) (*rod.Page, *rod.Element, bool) {
	el, err := page.Timeout(navigationTimeout / 4).Element(selector)
	if err != nil {
		zap.L().Warn("browser.Capturer: iframe not found", zap.String("selector", selector), zap.Error(err))
		return nil, nil, false
	}
	frame, err := el.Frame()
	if err != nil {
		zap.L().Warn("browser.Capturer: iframe has no document", zap.String("selector", selector), zap.Error(err))
		return nil, nil, false
	}
	if err := frame.Timeout(navigationTimeout / 4).WaitLoad(); err != nil {
		zap.L().Warn("browser.Capturer: iframe load", zap.Error(err))
	}
	return frame, el, true
}

func dismissCookieBanner(page *rod.Page, selectors, texts []string) {
	if clickFirst(page, selectors, texts) {
		zap.L().Info("browser.Capturer: cookie banner dismissed")
		return
	}
	zap.L().Debug("browser.Capturer: no cookie banner detected")
}

func clickNext(page *rod.Page, selectors, texts []string) bool {
	return clickFirst(page, selectors, texts)
}

// clickFirst clicks the first visible element matching a selector, falling
// back to the first button whose text contains one of texts.
func clickFirst(page *rod.Page, selectors, texts []string) bool {
	for _, sel := range selectors {
		has, el, err := page.Has(sel)
		if err != nil || !has {
			continue
		}
		if click(el) {
			return true
		}
	}
	if len(texts) == 0 {
		return false
	}
	buttons, err := page.Elements("button")
	if err != nil {
		return false
	}
	for _, el := range buttons {
		text, err := el.Text()
		if err != nil || !MatchesText(text, texts) {
			continue
		}
		if click(el) {
			return true
		}
	}
	return false
}

func click(el *rod.Element) bool {
	visible, err := el.Visible()
	if err != nil || !visible {
		return false
	}
	if err := el.Timeout(clickTimeout).Click(proto.InputMouseButtonLeft, 1); err != nil {
		zap.L().Debug("browser.Capturer: click failed", zap.Error(err))
		return false
	}
	return true
}

// MatchesText reports whether a button label contains any of the wanted
// texts, ignoring case and surrounding whitespace.
func MatchesText(label string, wanted []string) bool {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return false
	}
	for _, w := range wanted {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" && strings.Contains(label, w) {
			return true
		}
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
