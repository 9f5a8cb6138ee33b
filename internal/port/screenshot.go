package port

import "context"

// CaptureRequest describes how to walk one flyer in a browser.
type CaptureRequest struct {
	StoreKey            string
	URL                 string
	CookieSelectors     []string
	CookieButtonTexts   []string
	IframeSelector      string
	NextButtonSelectors []string
	NextButtonTexts     []string
	PageLimit           int
	OutputDir           string
}

// ScreenshotSource produces page screenshots for a flyer and returns their paths in page order.
type ScreenshotSource interface {
	Capture(ctx context.Context, req CaptureRequest) ([]string, error)
}
