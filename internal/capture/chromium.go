package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"

	appLog "inkdash/internal/log"
)

// Default capture parameters.
const (
	DefaultWidth      = 800
	DefaultHeight     = 480
	DefaultSettle     = time.Second
	DefaultTimeoutSec = 60
)

// ErrRenderEngine wraps every failure of the headless browser: launch,
// navigation, resize, screenshot, or a screenshot of the wrong size.
var ErrRenderEngine = errors.New("capture: render engine error")

// Options configures a Chromium capturer.
type Options struct {
	// ExecPath overrides chromedp's browser lookup.
	ExecPath string

	// Settle is the fixed pause between resizing and taking the
	// screenshot. If zero, DefaultSettle is used.
	Settle time.Duration

	// Timeout bounds one capture. If zero, DefaultTimeoutSec is used.
	Timeout time.Duration
}

// Chromium captures local HTML documents with a headless Chrome driven
// through chromedp. A browser process is started and torn down for every
// Capture call.
type Chromium struct {
	opts Options
	open opener
}

// session is one browser tab the capture sequence runs against.
type session interface {
	Navigate(ctx context.Context, url string) error
	Measure(ctx context.Context) (outer, inner windowSize, err error)
	Resize(ctx context.Context, outer windowSize) error
	Screenshot(ctx context.Context) ([]byte, error)
}

// opener starts a browser. The returned close func may be called more
// than once.
type opener func(parent context.Context) (context.Context, session, func())

// NewChromium returns a capturer with defaults applied.
func NewChromium(opts Options) *Chromium {
	if opts.Settle <= 0 {
		opts.Settle = DefaultSettle
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Duration(DefaultTimeoutSec) * time.Second
	}
	c := &Chromium{opts: opts}
	c.open = c.openChrome
	return c
}

// Capture loads documentPath and writes a width x height PNG screenshot
// to cachePath and then to destPath.
//
// Sequence:
//   - launch headless Chrome (no scrollbars, device scale factor 1)
//   - navigate to file://documentPath
//   - measure window outer size and <html> client size
//   - resize the window so the client area is exactly width x height
//   - wait Settle for fonts and layout
//   - screenshot once, write the same bytes to both paths
//
// The browser is shut down on every return path.
func (c *Chromium) Capture(parentCtx context.Context, documentPath string, width, height int, cachePath, destPath string) error {
	if documentPath == "" {
		return fmt.Errorf("capture: document path is required")
	}
	if cachePath == "" || destPath == "" {
		return fmt.Errorf("capture: cache and destination paths are required")
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	docURL, err := fileURL(documentPath)
	if err != nil {
		return err
	}

	ctx, tab, closeBrowser := c.open(parentCtx)
	defer closeBrowser()

	png, err := shoot(ctx, tab, docURL, width, height, c.opts.Settle)
	closeBrowser()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRenderEngine, err)
	}

	if err := checkSize(png, width, height); err != nil {
		return err
	}

	for _, p := range []string{cachePath, destPath} {
		if err := writeImage(p, png); err != nil {
			return err
		}
	}

	appLog.Info("screenshot captured and saved",
		"cache", cachePath,
		"dest", destPath,
		"size", fmt.Sprintf("%dx%d", width, height),
		"bytes", len(png),
	)
	return nil
}

// shoot runs navigate, measure, resize, settle and screenshot in order.
func shoot(ctx context.Context, tab session, docURL string, width, height int, settle time.Duration) ([]byte, error) {
	if err := tab.Navigate(ctx, docURL); err != nil {
		return nil, fmt.Errorf("navigate: %w", err)
	}

	outer, inner, err := tab.Measure(ctx)
	if err != nil {
		return nil, fmt.Errorf("measure window: %w", err)
	}

	target := outerSizeFor(width, height, outer, inner)
	appLog.Debug("capture: resizing window",
		"outer", fmt.Sprintf("%dx%d", outer.Width, outer.Height),
		"inner", fmt.Sprintf("%dx%d", inner.Width, inner.Height),
		"target", fmt.Sprintf("%dx%d", target.Width, target.Height),
	)
	if err := tab.Resize(ctx, target); err != nil {
		return nil, fmt.Errorf("resize window: %w", err)
	}

	timer := time.NewTimer(settle)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	png, err := tab.Screenshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return png, nil
}

func (c *Chromium) openChrome(parent context.Context) (context.Context, session, func()) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("force-device-scale-factor", "1"),
	)
	if c.opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(c.opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, allocOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	ctx, timeoutCancel := context.WithTimeout(tabCtx, c.opts.Timeout)

	closeBrowser := sync.OnceFunc(func() {
		// Close the browser gracefully; the cancels below kill it otherwise.
		if err := chromedp.Cancel(ctx); err != nil {
			appLog.Debug("capture: browser close", "err", err)
		}
		timeoutCancel()
		tabCancel()
		allocCancel()
	})
	return ctx, chromeTab{}, closeBrowser
}

// chromeTab runs each step against the chromedp context it is given.
type chromeTab struct{}

func (chromeTab) Navigate(ctx context.Context, url string) error {
	return chromedp.Run(ctx, chromedp.Navigate(url))
}

func (chromeTab) Measure(ctx context.Context) (windowSize, windowSize, error) {
	var outer, inner [2]int64
	err := chromedp.Run(ctx,
		chromedp.Evaluate(`[window.outerWidth, window.outerHeight]`, &outer),
		chromedp.Evaluate(`[document.documentElement.clientWidth, document.documentElement.clientHeight]`, &inner),
	)
	return windowSize{outer[0], outer[1]}, windowSize{inner[0], inner[1]}, err
}

func (chromeTab) Resize(ctx context.Context, outer windowSize) error {
	return chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		windowID, _, err := browser.GetWindowForTarget().Do(ctx)
		if err != nil {
			return fmt.Errorf("get window: %w", err)
		}
		return browser.SetWindowBounds(windowID, &browser.Bounds{
			Width:  outer.Width,
			Height: outer.Height,
		}).Do(ctx)
	}))
}

func (chromeTab) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := chromedp.Run(ctx, chromedp.CaptureScreenshot(&buf))
	return buf, err
}

type windowSize struct {
	Width  int64
	Height int64
}

// outerSizeFor returns the outer window size whose client area is
// width x height, given the currently measured outer and client sizes.
func outerSizeFor(width, height int, outer, inner windowSize) windowSize {
	return windowSize{
		Width:  int64(width) + (outer.Width - inner.Width),
		Height: int64(height) + (outer.Height - inner.Height),
	}
}

// checkSize verifies the PNG has exactly the requested dimensions.
func checkSize(png []byte, width, height int) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(png))
	if err != nil {
		return fmt.Errorf("%w: decode screenshot: %v", ErrRenderEngine, err)
	}
	if cfg.Width != width || cfg.Height != height {
		return fmt.Errorf("%w: screenshot is %dx%d, want %dx%d", ErrRenderEngine, cfg.Width, cfg.Height, width, height)
	}
	return nil
}

func writeImage(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("capture: create dir for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("capture: failed to write PNG %s: %w", path, err)
	}
	return nil
}

func fileURL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("capture: resolve %s: %w", path, err)
	}
	return "file://" + filepath.ToSlash(abs), nil
}
