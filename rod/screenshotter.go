// Package rod provides a Chrome-based screenshot capability used to
// capture preview images for pages that publish no image URL.
package rod

import (
	"context"
	"fmt"

	"github.com/fwojciec/itemize"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// screenshotQuality is the JPEG quality for captured previews.
const screenshotQuality = 80

// Ensure Screenshotter implements itemize.Screenshotter at compile time.
var _ itemize.Screenshotter = (*Screenshotter)(nil)

// Screenshotter captures rendered pages as JPEG images using a headless
// Chrome browser. Screenshotter is safe for concurrent use by multiple
// goroutines.
type Screenshotter struct {
	browser *rod.Browser
}

// NewScreenshotter creates a Screenshotter backed by a freshly launched
// headless Chrome browser. Close must be called when the Screenshotter
// is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewScreenshotter() (*Screenshotter, error) {
	l := launcher.New().Headless(true)
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill() // Clean up launched process on connection failure
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	return &Screenshotter{browser: browser}, nil
}

// Capture navigates to the URL, waits for the page to load, and returns
// the rendered viewport as JPEG bytes.
func (s *Screenshotter) Capture(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}
	defer page.Close()

	page = page.Context(ctx)

	if err := page.Navigate(url); err != nil {
		return nil, err
	}
	if err := page.WaitLoad(); err != nil {
		return nil, err
	}

	quality := screenshotQuality
	data, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: &quality,
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Close releases browser resources.
func (s *Screenshotter) Close() error {
	return s.browser.Close()
}
