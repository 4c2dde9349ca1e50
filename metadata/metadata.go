// Package metadata implements the page metadata extraction core: it
// fetches pages, reconciles the embedded metadata vocabularies with a
// fixed priority order and per-field fallback, and persists normalized,
// de-duplicated records with optional preview images.
package metadata

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/itemize"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"
)

// Ensure Service implements itemize.MetadataService at compile time.
var _ itemize.MetadataService = (*Service)(nil)

// Service orchestrates metadata extraction. All fields except Store,
// Parser and Fetcher are optional.
type Service struct {
	Store   itemize.MetadataStore
	Parser  itemize.StructuredDataParser
	Fetcher itemize.Fetcher

	// Screenshotter captures imageless pages as JPEG previews. Nil
	// disables the capability; records are then saved without images.
	Screenshotter itemize.Screenshotter

	// Limiter spaces out requests per domain. Nil disables limiting.
	Limiter itemize.DomainLimiter

	// Cache is the process-wide URL cache. Nil disables it; every
	// lookup then goes to the store.
	Cache *Cache

	// ImageURL builds the externally servable URL for a stored image
	// ID. Nil leaves rendered image URLs empty for stored images.
	ImageURL func(id string) string

	// RefreshAlways skips the cache and store lookup on every call, so
	// previews are re-scraped each time. The save path still runs and
	// replaces cache entries.
	RefreshAlways bool

	// Concurrency bounds batch fan-out. Defaults to 10.
	Concurrency int

	// Logger receives non-fatal extraction events. Nil uses the
	// default logger.
	Logger *slog.Logger
}

// Warm seeds the cache's seen-URL filter from the store. Best called
// once at startup; safe to skip.
func (s *Service) Warm(ctx context.Context) error {
	if s.Cache == nil {
		return nil
	}
	urls, err := s.Store.PageMetadataURLs(ctx)
	if err != nil {
		return fmt.Errorf("warming metadata cache: %w", err)
	}
	s.Cache.Warm(urls)
	return nil
}

// GetMetadata returns the metadata for a URL. On a cache miss it fetches
// the page, resolves the six canonical fields across formats, persists
// the record and acquires a preview image. With cacheOnly set it never
// touches the network and returns (nil, nil) for an unseen URL.
func (s *Service) GetMetadata(ctx context.Context, rawURL string, cacheOnly bool) (*itemize.Metadata, error) {
	norm, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	if !s.RefreshAlways {
		if m, ok, err := s.lookup(ctx, norm); err != nil {
			return nil, err
		} else if ok {
			return m, nil
		}
	}

	if cacheOnly {
		return nil, nil
	}

	res, err := s.fetchPage(ctx, norm)
	if err != nil {
		return nil, err
	}

	data, err := s.Parser.Parse(string(res.Body), res.FinalURL)
	if err != nil {
		return nil, itemize.Errorf(itemize.EUNPROCESSABLE, "parsing %s: %v", norm, err)
	}
	resolved := Resolve(data, res.FinalURL)

	return s.saveMetadata(ctx, &itemize.PageMetadata{
		URL:         norm,
		Title:       resolved.Title,
		Description: resolved.Description,
		SiteName:    resolved.SiteName,
		Price:       resolved.Price,
		Currency:    resolved.Currency,
		ImageURL:    resolved.ImageURL,
		ContentHash: hashContent(res.Body),
	})
}

// GetMetadataBatch extracts metadata for multiple URLs concurrently.
// Each URL is an independent unit of work; failures are logged and the
// URL omitted from the result.
func (s *Service) GetMetadataBatch(ctx context.Context, urls []string) ([]*itemize.Metadata, error) {
	concurrency := s.Concurrency
	if concurrency <= 0 {
		concurrency = 10
	}

	results := make([]*itemize.Metadata, len(urls))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, u := range urls {
		g.Go(func() error {
			m, err := s.GetMetadata(gctx, u, false)
			if err != nil {
				s.logger().Warn("metadata extraction failed", "url", u, "err", err)
				return nil
			}
			mu.Lock()
			results[i] = m
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	metadatas := make([]*itemize.Metadata, 0, len(urls))
	for _, m := range results {
		if m != nil {
			metadatas = append(metadatas, m)
		}
	}
	return metadatas, nil
}

// GetMetadataImage returns the stored image bytes and mime type for
// direct serving.
func (s *Service) GetMetadataImage(ctx context.Context, id string) ([]byte, string, error) {
	img, err := s.Store.FindMetadataImageByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if len(img.Data) == 0 || img.Mime == "" {
		return nil, "", itemize.Errorf(itemize.ENOTFOUND, "image %q has no data or mime type", id)
	}
	return img.Data, img.Mime, nil
}

// lookup consults the process cache, then the store. The second return
// reports whether a record was found.
func (s *Service) lookup(ctx context.Context, norm string) (*itemize.Metadata, bool, error) {
	if s.Cache != nil {
		if s.Cache.KnownAbsent(norm) {
			return nil, false, nil
		}
		if m, ok := s.Cache.Get(norm); ok {
			return m, true, nil
		}
	}

	stored, err := s.Store.FindPageMetadataByURL(ctx, norm)
	if err != nil {
		if itemize.ErrorCode(err) == itemize.ENOTFOUND {
			return nil, false, nil
		}
		return nil, false, err
	}

	m := s.render(stored)
	if s.Cache != nil {
		s.Cache.Put(norm, m)
	}
	return m, true, nil
}

// fetchPage retrieves the page, surfacing transport errors and non-2xx
// statuses as extraction failures. Nothing is persisted on failure.
func (s *Service) fetchPage(ctx context.Context, norm string) (*itemize.FetchResult, error) {
	if err := s.waitDomain(ctx, norm); err != nil {
		return nil, err
	}
	res, err := s.Fetcher.Fetch(ctx, norm)
	if err != nil {
		return nil, itemize.Errorf(itemize.EUNPROCESSABLE, "fetching %s: %v", norm, err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, itemize.Errorf(itemize.EUNPROCESSABLE, "fetching %s: HTTP %d", norm, res.StatusCode)
	}
	return res, nil
}

// saveMetadata upserts the record, acquires a preview image when the
// record lacks one, and returns the canonical representation. Image
// acquisition failures never abort the save: metadata availability is
// the functional requirement, the image is best effort.
func (s *Service) saveMetadata(ctx context.Context, rec *itemize.PageMetadata) (*itemize.Metadata, error) {
	stored, err := s.Store.UpsertPageMetadata(ctx, rec)
	if err != nil {
		return nil, err
	}

	if s.needsImage(stored) {
		if img := s.acquireImage(ctx, stored); img != nil {
			if err := s.Store.AttachImage(ctx, stored.ID, img); err != nil {
				s.logger().Warn("attaching metadata image failed", "url", stored.URL, "err", err)
			} else {
				stored.ImageID = img.ID
				stored.Image = img
			}
		}
	}

	m := s.render(stored)
	if s.Cache != nil {
		s.Cache.Put(stored.URL, m)
	}
	return m, nil
}

// needsImage reports whether image acquisition should run for this save:
// either the record has no image yet, or re-extraction discovered a
// different image URL than the stored image was built from. Existing
// image bytes are never mutated; a replacement is a new image row.
func (s *Service) needsImage(rec *itemize.PageMetadata) bool {
	if rec.ImageID == "" {
		return true
	}
	return rec.ImageURL != "" && rec.Image != nil && rec.Image.SourceImageURL != rec.ImageURL
}

// acquireImage obtains preview image bytes for a record: downloading the
// scraped image URL when one exists, else capturing a page screenshot
// when the capability is enabled. Returns nil on any failure.
func (s *Service) acquireImage(ctx context.Context, rec *itemize.PageMetadata) *itemize.MetadataImage {
	if rec.ImageURL == "" {
		if s.Screenshotter == nil {
			return nil
		}
		data, err := s.Screenshotter.Capture(ctx, rec.URL)
		if err != nil {
			s.logger().Warn("screenshot capture failed", "url", rec.URL, "err", err)
			return nil
		}
		return &itemize.MetadataImage{
			Mime:           "image/jpeg",
			Data:           data,
			SourceImageURL: rec.URL,
		}
	}

	if err := s.waitDomain(ctx, rec.ImageURL); err != nil {
		return nil
	}
	res, err := s.Fetcher.Fetch(ctx, rec.ImageURL)
	if err != nil {
		s.logger().Warn("image download failed", "url", rec.ImageURL, "err", err)
		return nil
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil
	}

	mime := res.ContentType
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	if mime == "" {
		mime = mimetype.Detect(res.Body).String()
	}

	return &itemize.MetadataImage{
		Mime:           mime,
		Data:           res.Body,
		SourceImageURL: rec.ImageURL,
	}
}

// render builds the external representation. The scraped image URL wins
// for display; a stored image's servable URL fills in only when the
// page itself offered none.
func (s *Service) render(rec *itemize.PageMetadata) *itemize.Metadata {
	imageURL := rec.ImageURL
	if imageURL == "" && rec.ImageID != "" && s.ImageURL != nil {
		imageURL = s.ImageURL(rec.ImageID)
	}
	return &itemize.Metadata{
		ID:          rec.ID,
		URL:         rec.URL,
		Title:       rec.Title,
		Description: rec.Description,
		SiteName:    rec.SiteName,
		Price:       rec.Price,
		Currency:    rec.Currency,
		ImageURL:    imageURL,
	}
}

func (s *Service) waitDomain(ctx context.Context, rawURL string) error {
	if s.Limiter == nil {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	return s.Limiter.Wait(ctx, u.Hostname())
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// ImageURLBuilder returns the standard served-image URL builder for a
// server base URL, producing <base>/metadata/images/<id>.
func ImageURLBuilder(baseURL string) func(id string) string {
	base := strings.TrimRight(baseURL, "/")
	return func(id string) string {
		return base + "/metadata/images/" + id
	}
}

// hashContent computes the xxHash of fetched page content as a hex
// string, recorded for change detection across re-extractions.
func hashContent(content []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(content))
}
