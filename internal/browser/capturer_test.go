package browser_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotter/internal/browser"
	"spotter/internal/config"
	"spotter/internal/port"
)

var _ port.ScreenshotSource = (*browser.Capturer)(nil)

func TestScreenshotName(t *testing.T) {
	assert.Equal(t, "lidl_page_03_20260119_070000.png", browser.ScreenshotName(" Lidl ", 3, "20260119_070000"))
	assert.Equal(t, "flyer_page_12_x.png", browser.ScreenshotName("", 12, "x"))
}

func TestMatchesText(t *testing.T) {
	tests := []struct {
		label  string
		wanted []string
		want   bool
	}{
		{"CONTINUA SENZA ACCETTARE", []string{"continua senza"}, true},
		{"  Rifiuta tutto ", []string{"rifiuta"}, true},
		{"Accetta", []string{"rifiuta", "continua senza"}, false},
		{"", []string{"rifiuta"}, false},
		{"Avanti", []string{""}, false},
		{"arrow_forward_ios", []string{"chevron_right", "arrow_forward_ios"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, browser.MatchesText(tt.label, tt.wanted))
		})
	}
}

func TestCapture_RequiresURL(t *testing.T) {
	c := browser.NewCapturer(config.BrowserConfig{Headless: true})
	_, err := c.Capture(context.Background(), port.CaptureRequest{OutputDir: t.TempDir()})
	require.Error(t, err)
}
