package metadata_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fwojciec/itemize"
	"github.com/fwojciec/itemize/metadata"
	"github.com/fwojciec/itemize/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productHTML = `<html><head>
<meta property="og:title" content="Widget" />
<meta property="og:image" content="https://example.com/widget.jpg" />
</head><body></body></html>`

// notFoundStore is a MetadataStore with no records and a capturing
// upsert, the common starting point for extraction tests.
func notFoundStore(t *testing.T) *mock.MetadataStore {
	t.Helper()
	return &mock.MetadataStore{
		FindPageMetadataByURLFn: func(ctx context.Context, url string) (*itemize.PageMetadata, error) {
			return nil, itemize.Errorf(itemize.ENOTFOUND, "no metadata for %q", url)
		},
		UpsertPageMetadataFn: func(ctx context.Context, m *itemize.PageMetadata) (*itemize.PageMetadata, error) {
			stored := *m
			stored.ID = "pm1"
			return &stored, nil
		},
		AttachImageFn: func(ctx context.Context, metadataID string, img *itemize.MetadataImage) error {
			img.ID = "img1"
			return nil
		},
	}
}

func htmlFetcher(html string) *mock.Fetcher {
	return &mock.Fetcher{
		FetchFn: func(ctx context.Context, url string) (*itemize.FetchResult, error) {
			return &itemize.FetchResult{
				StatusCode:  200,
				ContentType: "text/html",
				Body:        []byte(html),
				FinalURL:    url,
			}, nil
		},
	}
}

func parserFor(data itemize.StructuredData) *mock.StructuredDataParser {
	return &mock.StructuredDataParser{
		ParseFn: func(html, baseURL string) (itemize.StructuredData, error) {
			return data, nil
		},
	}
}

func TestService_GetMetadata(t *testing.T) {
	t.Parallel()

	t.Run("extracts and persists on cache miss", func(t *testing.T) {
		t.Parallel()

		var upserted *itemize.PageMetadata
		store := notFoundStore(t)
		base := store.UpsertPageMetadataFn
		store.UpsertPageMetadataFn = func(ctx context.Context, m *itemize.PageMetadata) (*itemize.PageMetadata, error) {
			upserted = m
			return base(ctx, m)
		}

		svc := &metadata.Service{
			Store:   store,
			Parser:  parserFor(itemize.StructuredData{itemize.FormatOpenGraph: {{"og:title": "Widget"}}}),
			Fetcher: htmlFetcher(productHTML),
		}

		m, err := svc.GetMetadata(context.Background(), "https://Example.com/product#ref", false)
		require.NoError(t, err)

		assert.Equal(t, "pm1", m.ID)
		assert.Equal(t, "https://example.com/product", m.URL, "URL should be normalized")
		assert.Equal(t, "Widget", m.Title)

		require.NotNil(t, upserted)
		assert.NotEmpty(t, upserted.ContentHash)
	})

	t.Run("returns stored record without fetching", func(t *testing.T) {
		t.Parallel()

		var fetched bool
		store := notFoundStore(t)
		store.FindPageMetadataByURLFn = func(ctx context.Context, url string) (*itemize.PageMetadata, error) {
			return &itemize.PageMetadata{ID: "pm1", URL: url, Title: "Stored"}, nil
		}

		svc := &metadata.Service{
			Store:  store,
			Parser: parserFor(nil),
			Fetcher: &mock.Fetcher{FetchFn: func(ctx context.Context, url string) (*itemize.FetchResult, error) {
				fetched = true
				return nil, errors.New("should not be called")
			}},
		}

		m, err := svc.GetMetadata(context.Background(), "https://example.com/product", false)
		require.NoError(t, err)
		assert.Equal(t, "Stored", m.Title)
		assert.False(t, fetched)
	})

	t.Run("cache only returns nil for unseen URL", func(t *testing.T) {
		t.Parallel()

		var fetched bool
		svc := &metadata.Service{
			Store:  notFoundStore(t),
			Parser: parserFor(nil),
			Fetcher: &mock.Fetcher{FetchFn: func(ctx context.Context, url string) (*itemize.FetchResult, error) {
				fetched = true
				return nil, errors.New("should not be called")
			}},
		}

		m, err := svc.GetMetadata(context.Background(), "https://example.com/unseen", true)
		require.NoError(t, err)
		assert.Nil(t, m)
		assert.False(t, fetched, "cache-only lookups never touch the network")
	})

	t.Run("cache only returns stored record", func(t *testing.T) {
		t.Parallel()

		store := notFoundStore(t)
		store.FindPageMetadataByURLFn = func(ctx context.Context, url string) (*itemize.PageMetadata, error) {
			return &itemize.PageMetadata{ID: "pm1", URL: url, Title: "Stored"}, nil
		}

		svc := &metadata.Service{Store: store, Parser: parserFor(nil), Fetcher: htmlFetcher("")}

		m, err := svc.GetMetadata(context.Background(), "https://example.com/product", true)
		require.NoError(t, err)
		require.NotNil(t, m)
		assert.Equal(t, "Stored", m.Title)
	})

	t.Run("invalid URL fails with EINVALID", func(t *testing.T) {
		t.Parallel()

		svc := &metadata.Service{Store: notFoundStore(t), Parser: parserFor(nil), Fetcher: htmlFetcher("")}

		_, err := svc.GetMetadata(context.Background(), "not-a-url", false)
		require.Error(t, err)
		assert.Equal(t, itemize.EINVALID, itemize.ErrorCode(err))
	})

	t.Run("fetch failure persists nothing", func(t *testing.T) {
		t.Parallel()

		var upserts int
		store := notFoundStore(t)
		store.UpsertPageMetadataFn = func(ctx context.Context, m *itemize.PageMetadata) (*itemize.PageMetadata, error) {
			upserts++
			return m, nil
		}

		svc := &metadata.Service{
			Store:  store,
			Parser: parserFor(nil),
			Fetcher: &mock.Fetcher{FetchFn: func(ctx context.Context, url string) (*itemize.FetchResult, error) {
				return nil, errors.New("connection refused")
			}},
		}

		_, err := svc.GetMetadata(context.Background(), "https://example.com/down", false)
		require.Error(t, err)
		assert.Equal(t, itemize.EUNPROCESSABLE, itemize.ErrorCode(err))
		assert.Zero(t, upserts)
	})

	t.Run("non-2xx status fails with EUNPROCESSABLE", func(t *testing.T) {
		t.Parallel()

		svc := &metadata.Service{
			Store:  notFoundStore(t),
			Parser: parserFor(nil),
			Fetcher: &mock.Fetcher{FetchFn: func(ctx context.Context, url string) (*itemize.FetchResult, error) {
				return &itemize.FetchResult{StatusCode: 404, FinalURL: url}, nil
			}},
		}

		_, err := svc.GetMetadata(context.Background(), "https://example.com/gone", false)
		require.Error(t, err)
		assert.Equal(t, itemize.EUNPROCESSABLE, itemize.ErrorCode(err))
	})

	t.Run("refresh always re-extracts despite stored record", func(t *testing.T) {
		t.Parallel()

		var fetched bool
		store := notFoundStore(t)
		store.FindPageMetadataByURLFn = func(ctx context.Context, url string) (*itemize.PageMetadata, error) {
			return &itemize.PageMetadata{ID: "pm1", URL: url, Title: "Stale"}, nil
		}

		fetcher := htmlFetcher(productHTML)
		base := fetcher.FetchFn
		fetcher.FetchFn = func(ctx context.Context, url string) (*itemize.FetchResult, error) {
			fetched = true
			return base(ctx, url)
		}

		svc := &metadata.Service{
			Store:         store,
			Parser:        parserFor(itemize.StructuredData{itemize.FormatOpenGraph: {{"og:title": "Fresh"}}}),
			Fetcher:       fetcher,
			RefreshAlways: true,
		}

		m, err := svc.GetMetadata(context.Background(), "https://example.com/product", false)
		require.NoError(t, err)
		assert.True(t, fetched)
		assert.Equal(t, "Fresh", m.Title)
	})
}

func TestService_GetMetadata_Images(t *testing.T) {
	t.Parallel()

	t.Run("downloads scraped image URL", func(t *testing.T) {
		t.Parallel()

		var attached *itemize.MetadataImage
		store := notFoundStore(t)
		store.AttachImageFn = func(ctx context.Context, metadataID string, img *itemize.MetadataImage) error {
			img.ID = "img1"
			attached = img
			return nil
		}

		svc := &metadata.Service{
			Store: store,
			Parser: parserFor(itemize.StructuredData{itemize.FormatOpenGraph: {{
				"og:title": "Widget",
				"og:image": "https://example.com/widget.jpg",
			}}}),
			Fetcher: &mock.Fetcher{FetchFn: func(ctx context.Context, url string) (*itemize.FetchResult, error) {
				if url == "https://example.com/widget.jpg" {
					return &itemize.FetchResult{
						StatusCode:  200,
						ContentType: "image/jpeg; charset=binary",
						Body:        []byte("jpegbytes"),
						FinalURL:    url,
					}, nil
				}
				return &itemize.FetchResult{StatusCode: 200, Body: []byte(productHTML), FinalURL: url}, nil
			}},
		}

		m, err := svc.GetMetadata(context.Background(), "https://example.com/product", false)
		require.NoError(t, err)

		require.NotNil(t, attached)
		assert.Equal(t, "image/jpeg", attached.Mime, "charset parameter should be stripped")
		assert.Equal(t, []byte("jpegbytes"), attached.Data)
		assert.Equal(t, "https://example.com/widget.jpg", attached.SourceImageURL)
		assert.Equal(t, "https://example.com/widget.jpg", m.ImageURL, "scraped image URL wins for display")
	})

	t.Run("screenshots imageless pages when enabled", func(t *testing.T) {
		t.Parallel()

		var attached *itemize.MetadataImage
		store := notFoundStore(t)
		store.AttachImageFn = func(ctx context.Context, metadataID string, img *itemize.MetadataImage) error {
			img.ID = "img1"
			attached = img
			return nil
		}

		svc := &metadata.Service{
			Store:   store,
			Parser:  parserFor(itemize.StructuredData{itemize.FormatOpenGraph: {{"og:title": "No Image"}}}),
			Fetcher: htmlFetcher(productHTML),
			Screenshotter: &mock.Screenshotter{CaptureFn: func(ctx context.Context, url string) ([]byte, error) {
				return []byte("screenshotbytes"), nil
			}},
			ImageURL: metadata.ImageURLBuilder("http://localhost:8000"),
		}

		m, err := svc.GetMetadata(context.Background(), "https://example.com/product", false)
		require.NoError(t, err)

		require.NotNil(t, attached)
		assert.Equal(t, "image/jpeg", attached.Mime)
		assert.Equal(t, "https://example.com/product", attached.SourceImageURL, "screenshots record the page URL as source")
		assert.Equal(t, "http://localhost:8000/metadata/images/img1", m.ImageURL)
	})

	t.Run("imageless page without screenshotter saves without image", func(t *testing.T) {
		t.Parallel()

		var attaches int
		store := notFoundStore(t)
		store.AttachImageFn = func(ctx context.Context, metadataID string, img *itemize.MetadataImage) error {
			attaches++
			return nil
		}

		svc := &metadata.Service{
			Store:   store,
			Parser:  parserFor(itemize.StructuredData{itemize.FormatOpenGraph: {{"og:title": "No Image"}}}),
			Fetcher: htmlFetcher(productHTML),
		}

		m, err := svc.GetMetadata(context.Background(), "https://example.com/product", false)
		require.NoError(t, err)
		assert.Zero(t, attaches)
		assert.Empty(t, m.ImageURL)
	})

	t.Run("image download failure does not abort the save", func(t *testing.T) {
		t.Parallel()

		svc := &metadata.Service{
			Store: notFoundStore(t),
			Parser: parserFor(itemize.StructuredData{itemize.FormatOpenGraph: {{
				"og:title": "Widget",
				"og:image": "https://example.com/broken.jpg",
			}}}),
			Fetcher: &mock.Fetcher{FetchFn: func(ctx context.Context, url string) (*itemize.FetchResult, error) {
				if url == "https://example.com/broken.jpg" {
					return nil, errors.New("timeout")
				}
				return &itemize.FetchResult{StatusCode: 200, Body: []byte(productHTML), FinalURL: url}, nil
			}},
		}

		m, err := svc.GetMetadata(context.Background(), "https://example.com/product", false)
		require.NoError(t, err)
		assert.Equal(t, "Widget", m.Title)
	})

	t.Run("existing image with unchanged source is kept", func(t *testing.T) {
		t.Parallel()

		var attaches int
		store := notFoundStore(t)
		store.UpsertPageMetadataFn = func(ctx context.Context, m *itemize.PageMetadata) (*itemize.PageMetadata, error) {
			stored := *m
			stored.ID = "pm1"
			stored.ImageID = "img1"
			stored.Image = &itemize.MetadataImage{ID: "img1", SourceImageURL: m.ImageURL}
			return &stored, nil
		}
		store.AttachImageFn = func(ctx context.Context, metadataID string, img *itemize.MetadataImage) error {
			attaches++
			return nil
		}

		svc := &metadata.Service{
			Store: store,
			Parser: parserFor(itemize.StructuredData{itemize.FormatOpenGraph: {{
				"og:title": "Widget",
				"og:image": "https://example.com/widget.jpg",
			}}}),
			Fetcher: htmlFetcher(productHTML),
		}

		_, err := svc.GetMetadata(context.Background(), "https://example.com/product", false)
		require.NoError(t, err)
		assert.Zero(t, attaches)
	})
}

func TestService_GetMetadataBatch(t *testing.T) {
	t.Parallel()

	t.Run("failed URLs are omitted", func(t *testing.T) {
		t.Parallel()

		svc := &metadata.Service{
			Store: notFoundStore(t),
			Parser: parserFor(itemize.StructuredData{
				itemize.FormatOpenGraph: {{"og:title": "Widget"}},
			}),
			Fetcher: &mock.Fetcher{FetchFn: func(ctx context.Context, url string) (*itemize.FetchResult, error) {
				if url == "https://example.com/down" {
					return nil, errors.New("connection refused")
				}
				return &itemize.FetchResult{StatusCode: 200, Body: []byte(productHTML), FinalURL: url}, nil
			}},
			Concurrency: 2,
		}

		results, err := svc.GetMetadataBatch(context.Background(), []string{
			"https://example.com/a",
			"https://example.com/down",
			"https://example.com/b",
		})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "https://example.com/a", results[0].URL)
		assert.Equal(t, "https://example.com/b", results[1].URL)
	})
}

func TestService_GetMetadataImage(t *testing.T) {
	t.Parallel()

	t.Run("returns bytes and mime", func(t *testing.T) {
		t.Parallel()

		store := notFoundStore(t)
		store.FindMetadataImageByIDFn = func(ctx context.Context, id string) (*itemize.MetadataImage, error) {
			return &itemize.MetadataImage{ID: id, Mime: "image/png", Data: []byte("pngbytes")}, nil
		}

		svc := &metadata.Service{Store: store}

		data, mime, err := svc.GetMetadataImage(context.Background(), "img1")
		require.NoError(t, err)
		assert.Equal(t, "image/png", mime)
		assert.Equal(t, []byte("pngbytes"), data)
	})

	t.Run("empty image record reports not found", func(t *testing.T) {
		t.Parallel()

		store := notFoundStore(t)
		store.FindMetadataImageByIDFn = func(ctx context.Context, id string) (*itemize.MetadataImage, error) {
			return &itemize.MetadataImage{ID: id}, nil
		}

		svc := &metadata.Service{Store: store}

		_, _, err := svc.GetMetadataImage(context.Background(), "img1")
		require.Error(t, err)
		assert.Equal(t, itemize.ENOTFOUND, itemize.ErrorCode(err))
	})
}

func TestService_Warm(t *testing.T) {
	t.Parallel()

	store := notFoundStore(t)
	store.PageMetadataURLsFn = func(ctx context.Context) ([]string, error) {
		return []string{"https://example.com/known"}, nil
	}

	cache := metadata.NewCache(100)
	svc := &metadata.Service{Store: store, Cache: cache}
	require.NoError(t, svc.Warm(context.Background()))

	assert.False(t, cache.KnownAbsent("https://example.com/known"))
	assert.True(t, cache.KnownAbsent("https://example.com/unknown"))
}
