// Package mock provides mock implementations of itemize interfaces for
// testing.
package mock

import (
	"context"

	"github.com/fwojciec/itemize"
)

var _ itemize.MetadataService = (*MetadataService)(nil)

// MetadataService is a mock implementation of itemize.MetadataService.
type MetadataService struct {
	GetMetadataFn      func(ctx context.Context, url string, cacheOnly bool) (*itemize.Metadata, error)
	GetMetadataBatchFn func(ctx context.Context, urls []string) ([]*itemize.Metadata, error)
	GetMetadataImageFn func(ctx context.Context, id string) ([]byte, string, error)
}

func (s *MetadataService) GetMetadata(ctx context.Context, url string, cacheOnly bool) (*itemize.Metadata, error) {
	return s.GetMetadataFn(ctx, url, cacheOnly)
}

func (s *MetadataService) GetMetadataBatch(ctx context.Context, urls []string) ([]*itemize.Metadata, error) {
	return s.GetMetadataBatchFn(ctx, urls)
}

func (s *MetadataService) GetMetadataImage(ctx context.Context, id string) ([]byte, string, error) {
	return s.GetMetadataImageFn(ctx, id)
}

var _ itemize.MetadataStore = (*MetadataStore)(nil)

// MetadataStore is a mock implementation of itemize.MetadataStore.
type MetadataStore struct {
	FindPageMetadataByURLFn func(ctx context.Context, url string) (*itemize.PageMetadata, error)
	UpsertPageMetadataFn    func(ctx context.Context, m *itemize.PageMetadata) (*itemize.PageMetadata, error)
	AttachImageFn           func(ctx context.Context, metadataID string, img *itemize.MetadataImage) error
	FindMetadataImageByIDFn func(ctx context.Context, id string) (*itemize.MetadataImage, error)
	PageMetadataURLsFn      func(ctx context.Context) ([]string, error)
}

func (s *MetadataStore) FindPageMetadataByURL(ctx context.Context, url string) (*itemize.PageMetadata, error) {
	return s.FindPageMetadataByURLFn(ctx, url)
}

func (s *MetadataStore) UpsertPageMetadata(ctx context.Context, m *itemize.PageMetadata) (*itemize.PageMetadata, error) {
	return s.UpsertPageMetadataFn(ctx, m)
}

func (s *MetadataStore) AttachImage(ctx context.Context, metadataID string, img *itemize.MetadataImage) error {
	return s.AttachImageFn(ctx, metadataID, img)
}

func (s *MetadataStore) FindMetadataImageByID(ctx context.Context, id string) (*itemize.MetadataImage, error) {
	return s.FindMetadataImageByIDFn(ctx, id)
}

func (s *MetadataStore) PageMetadataURLs(ctx context.Context) ([]string, error) {
	return s.PageMetadataURLsFn(ctx)
}
