package mock

import (
	"context"

	"github.com/fwojciec/itemize"
)

var _ itemize.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of itemize.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (*itemize.FetchResult, error)
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*itemize.FetchResult, error) {
	return f.FetchFn(ctx, url)
}

var _ itemize.Screenshotter = (*Screenshotter)(nil)

// Screenshotter is a mock implementation of itemize.Screenshotter.
type Screenshotter struct {
	CaptureFn func(ctx context.Context, url string) ([]byte, error)
	CloseFn   func() error
}

func (s *Screenshotter) Capture(ctx context.Context, url string) ([]byte, error) {
	return s.CaptureFn(ctx, url)
}

func (s *Screenshotter) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}

var _ itemize.StructuredDataParser = (*StructuredDataParser)(nil)

// StructuredDataParser is a mock implementation of
// itemize.StructuredDataParser.
type StructuredDataParser struct {
	ParseFn func(html string, baseURL string) (itemize.StructuredData, error)
}

func (p *StructuredDataParser) Parse(html string, baseURL string) (itemize.StructuredData, error) {
	return p.ParseFn(html, baseURL)
}

var _ itemize.SitemapService = (*SitemapService)(nil)

// SitemapService is a mock implementation of itemize.SitemapService.
type SitemapService struct {
	DiscoverURLsFn func(ctx context.Context, baseURL string) ([]string, error)
}

func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string) ([]string, error) {
	return s.DiscoverURLsFn(ctx, baseURL)
}
