// Package slog provides logging decorators for itemize services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/itemize"
)

// Ensure LoggingMetadataService implements itemize.MetadataService.
var _ itemize.MetadataService = (*LoggingMetadataService)(nil)

// LoggingMetadataService wraps a MetadataService with operation logging.
type LoggingMetadataService struct {
	next   itemize.MetadataService
	logger *slog.Logger
}

// NewLoggingMetadataService creates a new LoggingMetadataService.
func NewLoggingMetadataService(next itemize.MetadataService, logger *slog.Logger) *LoggingMetadataService {
	return &LoggingMetadataService{next: next, logger: logger}
}

// GetMetadata delegates to the wrapped service and logs the operation.
func (s *LoggingMetadataService) GetMetadata(ctx context.Context, url string, cacheOnly bool) (m *itemize.Metadata, err error) {
	defer func(begin time.Time) {
		s.logger.Info("get metadata",
			"url", url,
			"cache_only", cacheOnly,
			"found", m != nil,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.GetMetadata(ctx, url, cacheOnly)
}

// GetMetadataBatch delegates to the wrapped service and logs the operation.
func (s *LoggingMetadataService) GetMetadataBatch(ctx context.Context, urls []string) (ms []*itemize.Metadata, err error) {
	defer func(begin time.Time) {
		s.logger.Info("get metadata batch",
			"requested", len(urls),
			"resolved", len(ms),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.GetMetadataBatch(ctx, urls)
}

// GetMetadataImage delegates to the wrapped service and logs the operation.
func (s *LoggingMetadataService) GetMetadataImage(ctx context.Context, id string) (data []byte, mime string, err error) {
	defer func(begin time.Time) {
		s.logger.Info("get metadata image",
			"id", id,
			"bytes", len(data),
			"mime", mime,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.GetMetadataImage(ctx, id)
}

// Ensure LoggingScreenshotter implements itemize.Screenshotter.
var _ itemize.Screenshotter = (*LoggingScreenshotter)(nil)

// LoggingScreenshotter wraps a Screenshotter with debug logging.
type LoggingScreenshotter struct {
	next   itemize.Screenshotter
	logger *slog.Logger
}

// NewLoggingScreenshotter creates a new LoggingScreenshotter.
func NewLoggingScreenshotter(next itemize.Screenshotter, logger *slog.Logger) *LoggingScreenshotter {
	return &LoggingScreenshotter{next: next, logger: logger}
}

// Capture logs the URL being captured and delegates to the wrapped
// screenshotter.
func (s *LoggingScreenshotter) Capture(ctx context.Context, url string) (data []byte, err error) {
	defer func(begin time.Time) {
		s.logger.Info("screenshot capture",
			"url", url,
			"bytes", len(data),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Capture(ctx, url)
}

// Close delegates to the wrapped screenshotter.
func (s *LoggingScreenshotter) Close() error {
	return s.next.Close()
}
