package mock

import (
	"context"

	"github.com/fwojciec/itemize"
)

var _ itemize.ItemizeService = (*ItemizeService)(nil)

// ItemizeService is a mock implementation of itemize.ItemizeService.
type ItemizeService struct {
	CreateItemizeFn      func(ctx context.Context, itm *itemize.Itemize) error
	FindItemizesFn       func(ctx context.Context, username, query string) ([]*itemize.Itemize, error)
	FindItemizeFn        func(ctx context.Context, username, slug, query string) (*itemize.Itemize, error)
	DeleteItemizeFn      func(ctx context.Context, username, slug string) error
	CreateLinkFn         func(ctx context.Context, username, slug, url, pageMetadataID string) (*itemize.Link, error)
	DeleteLinkFn         func(ctx context.Context, username, slug, linkID string) error
	UpdateLinkOverrideFn func(ctx context.Context, username, slug, linkID string, upd itemize.OverrideUpdate) (*itemize.Link, error)
}

func (s *ItemizeService) CreateItemize(ctx context.Context, itm *itemize.Itemize) error {
	return s.CreateItemizeFn(ctx, itm)
}

func (s *ItemizeService) FindItemizes(ctx context.Context, username, query string) ([]*itemize.Itemize, error) {
	return s.FindItemizesFn(ctx, username, query)
}

func (s *ItemizeService) FindItemize(ctx context.Context, username, slug, query string) (*itemize.Itemize, error) {
	return s.FindItemizeFn(ctx, username, slug, query)
}

func (s *ItemizeService) DeleteItemize(ctx context.Context, username, slug string) error {
	return s.DeleteItemizeFn(ctx, username, slug)
}

func (s *ItemizeService) CreateLink(ctx context.Context, username, slug, url, pageMetadataID string) (*itemize.Link, error) {
	return s.CreateLinkFn(ctx, username, slug, url, pageMetadataID)
}

func (s *ItemizeService) DeleteLink(ctx context.Context, username, slug, linkID string) error {
	return s.DeleteLinkFn(ctx, username, slug, linkID)
}

func (s *ItemizeService) UpdateLinkOverride(ctx context.Context, username, slug, linkID string, upd itemize.OverrideUpdate) (*itemize.Link, error) {
	return s.UpdateLinkOverrideFn(ctx, username, slug, linkID, upd)
}
