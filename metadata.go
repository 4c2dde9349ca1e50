package itemize

import (
	"context"
	"time"
)

// Field is one of the canonical metadata attributes extracted from a page.
type Field string

// Canonical fields, in the order they are resolved.
const (
	FieldTitle       Field = "title"
	FieldSiteName    Field = "site_name"
	FieldDescription Field = "description"
	FieldImageURL    Field = "image_url"
	FieldPrice       Field = "price"
	FieldCurrency    Field = "currency"
)

// Fields returns all canonical fields in resolution order.
func Fields() []Field {
	return []Field{
		FieldTitle,
		FieldSiteName,
		FieldDescription,
		FieldImageURL,
		FieldPrice,
		FieldCurrency,
	}
}

// Format identifies one embedded metadata vocabulary.
type Format string

// Known formats. Microdata and microformat are recognized but have no
// extractor yet; looking them up fails with EUNIMPLEMENTED rather than
// reporting the field as absent.
const (
	FormatOpenGraph   Format = "opengraph"
	FormatRDFa        Format = "rdfa"
	FormatJSONLD      Format = "json-ld"
	FormatDublinCore  Format = "dublincore"
	FormatMicrodata   Format = "microdata"
	FormatMicroformat Format = "microformat"
)

// Properties is a single property bag of embedded structured data. Values
// are strings, nested Properties, or []any sequences thereof, reflecting
// the heterogeneity of embedded-data vocabularies.
type Properties = map[string]any

// StructuredData maps each format found on a page to its ordered sequence
// of property bags. A format missing from the map was not found on the
// page, which is distinct from being present with empty bags.
type StructuredData map[Format][]Properties

// StructuredDataParser turns raw HTML into per-format property bags.
// Malformed embedded blocks are skipped, never fatal: a broken JSON-LD
// script must not prevent Open Graph extraction.
type StructuredDataParser interface {
	Parse(html string, baseURL string) (StructuredData, error)
}

// FetchResult is the outcome of fetching a URL over HTTP.
type FetchResult struct {
	StatusCode  int
	ContentType string
	Body        []byte

	// FinalURL is the URL after following redirects. RDFa bag selection
	// matches against this, not the requested URL.
	FinalURL string
}

// Fetcher retrieves raw content from URLs over HTTP.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}

// Screenshotter captures a rendered page as a JPEG image. It is an
// optional capability: when disabled, metadata records for pages without
// a discoverable image are simply saved imageless.
type Screenshotter interface {
	// Capture navigates to the URL and returns the rendered page as JPEG
	// bytes.
	Capture(ctx context.Context, url string) ([]byte, error)

	// Close releases browser resources.
	Close() error
}

// DomainLimiter rate-limits outbound requests per domain.
type DomainLimiter interface {
	Wait(ctx context.Context, domain string) error
}

// SitemapService discovers page URLs from a site's sitemap, used for bulk
// link imports.
type SitemapService interface {
	DiscoverURLs(ctx context.Context, baseURL string) ([]string, error)
}

// PageMetadata is the canonical scraped description of a URL's content.
// One row exists per URL; re-extraction updates fields in place. Empty
// string means the field was not found in any format.
type PageMetadata struct {
	ID          string         `json:"id"`
	URL         string         `json:"url"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	SiteName    string         `json:"siteName"`
	Price       string         `json:"price"`
	Currency    string         `json:"currency"`
	ImageURL    string         `json:"imageUrl"`
	ContentHash string         `json:"contentHash"`
	ImageID     string         `json:"imageId"`
	Image       *MetadataImage `json:"image,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// Validate returns an error if the metadata contains invalid fields.
func (m *PageMetadata) Validate() error {
	if m.URL == "" {
		return Errorf(EINVALID, "metadata URL required")
	}
	return nil
}

// MetadataImage holds the bytes of a preview image associated with a
// metadata record, either downloaded from the scraped image URL or
// captured as a page screenshot. Bytes are never mutated once written; a
// re-extraction that yields a new image URL creates a new image and
// replaces the reference.
type MetadataImage struct {
	ID             string    `json:"id"`
	Mime           string    `json:"mime"`
	Data           []byte    `json:"-"`
	SourceImageURL string    `json:"sourceImageUrl"`
	CreatedAt      time.Time `json:"createdAt"`
}

// PageMetadataOverride holds user-authored replacement values for a
// link's scraped metadata. Empty fields defer to the scraped value.
type PageMetadataOverride struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	SiteName    string    `json:"siteName"`
	Price       string    `json:"price"`
	Currency    string    `json:"currency"`
	ImageURL    string    `json:"imageUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Apply merges the override into a rendered metadata representation.
// Non-empty override fields win; empty fields keep the scraped value.
func (o *PageMetadataOverride) Apply(m Metadata) Metadata {
	if o == nil {
		return m
	}
	if o.Title != "" {
		m.Title = o.Title
	}
	if o.Description != "" {
		m.Description = o.Description
	}
	if o.SiteName != "" {
		m.SiteName = o.SiteName
	}
	if o.Price != "" {
		m.Price = o.Price
	}
	if o.Currency != "" {
		m.Currency = o.Currency
	}
	if o.ImageURL != "" {
		m.ImageURL = o.ImageURL
	}
	return m
}

// Metadata is the external representation of a metadata record returned
// to callers. ImageURL is either the scraped image URL or, when the
// record owns a stored image, an externally servable URL built from the
// image's identifier.
type Metadata struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	SiteName    string `json:"siteName"`
	Price       string `json:"price"`
	Currency    string `json:"currency"`
	ImageURL    string `json:"imageUrl"`
}

// MetadataService is the core capability exposed to the itemize/link
// subsystem.
type MetadataService interface {
	// GetMetadata returns the metadata for a URL, extracting and
	// persisting it on a cache miss. With cacheOnly set it performs no
	// network call and returns (nil, nil) for an unseen URL, signaling
	// the caller to decide whether to trigger an online fetch.
	GetMetadata(ctx context.Context, url string, cacheOnly bool) (*Metadata, error)

	// GetMetadataBatch fetches metadata for multiple URLs concurrently.
	// URLs whose extraction fails are omitted from the result.
	GetMetadataBatch(ctx context.Context, urls []string) ([]*Metadata, error)

	// GetMetadataImage returns the stored image bytes and mime type for
	// direct serving. Returns ENOTFOUND if no image record matches.
	GetMetadataImage(ctx context.Context, id string) (data []byte, mime string, err error)
}

// MetadataStore is the durable, url-unique record store backing the
// metadata service. Uniqueness of the url key must be enforced at the
// storage layer; it is the sole correctness backstop for concurrent
// extractions of the same URL.
type MetadataStore interface {
	// FindPageMetadataByURL retrieves a record by its normalized URL.
	// Returns ENOTFOUND if no record exists.
	FindPageMetadataByURL(ctx context.Context, url string) (*PageMetadata, error)

	// UpsertPageMetadata inserts a record or overwrites the scalar
	// fields of the existing record for the same URL, preserving row
	// identity and any existing image reference. Returns the stored row.
	UpsertPageMetadata(ctx context.Context, m *PageMetadata) (*PageMetadata, error)

	// AttachImage stores an image and points the metadata record at it.
	AttachImage(ctx context.Context, metadataID string, img *MetadataImage) error

	// FindMetadataImageByID retrieves an image by ID.
	// Returns ENOTFOUND if no image exists.
	FindMetadataImageByID(ctx context.Context, id string) (*MetadataImage, error)

	// PageMetadataURLs lists the URLs of all stored records, used to
	// warm the process-wide cache's seen-URL filter.
	PageMetadataURLs(ctx context.Context) ([]string, error)
}
