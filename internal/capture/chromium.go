// Package capture rasterizes a rendered schedule page to PNG with headless
// Chromium. It is optional: the HTML output is the primary artifact.
package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// Default viewport, sized for a portrait letter/A4-ish print page.
const (
	DefaultWidth      = 1240
	DefaultHeight     = 1754
	DefaultTimeoutSec = 30
)

// Options defines parameters for a Chromium-based screenshot capture.
type Options struct {
	// Page is the rendered schedule: an http(s) URL or a local HTML file
	// path (converted to a file:// URL).
	Page string

	// OutputPath is where the PNG screenshot will be written.
	OutputPath string

	// Width and Height are the viewport dimensions in pixels. If zero,
	// DefaultWidth / DefaultHeight are used.
	Width  int
	Height int

	// Timeout bounds the entire capture operation.
	Timeout time.Duration
}

// PagePNG navigates headless Chromium to the page, waits for the
// data-ready="true" marker the renderer emits, and writes a PNG
// screenshot at the requested resolution.
func PagePNG(parentCtx context.Context, opts Options) error {
	if opts.Page == "" {
		return fmt.Errorf("capture: Page is required")
	}
	if opts.OutputPath == "" {
		return fmt.Errorf("capture: OutputPath is required")
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeoutSec * time.Second
	}

	url, err := pageURL(opts.Page)
	if err != nil {
		return err
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(url),
		// The page signals render completion via data-ready="true".
		chromedp.WaitVisible(`[data-ready="true"]`, chromedp.ByQuery),
		// Small extra delay to allow final paints.
		chromedp.Sleep(200 * time.Millisecond),
		chromedp.FullScreenshot(&png, 100),
	}

	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	if err := os.WriteFile(opts.OutputPath, png, 0o644); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}

	return nil
}

// pageURL turns a local path into a file:// URL; URLs pass through.
func pageURL(page string) (string, error) {
	if strings.HasPrefix(page, "http://") || strings.HasPrefix(page, "https://") || strings.HasPrefix(page, "file://") {
		return page, nil
	}
	abs, err := filepath.Abs(page)
	if err != nil {
		return "", fmt.Errorf("capture: resolve page path: %w", err)
	}
	return "file://" + abs, nil
}
