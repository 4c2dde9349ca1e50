package itemize

import (
	"context"
	"time"
)

// Itemize is a named, owned collection of bookmarked links.
type Itemize struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Username    string    `json:"username"`
	Public      bool      `json:"public"`
	Links       []*Link   `json:"links,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Validate returns an error if the itemize contains invalid fields.
func (i *Itemize) Validate() error {
	if i.Name == "" {
		return Errorf(EINVALID, "itemize name required")
	}
	if i.Username == "" {
		return Errorf(EINVALID, "itemize username required")
	}
	return nil
}

// Link is one bookmarked URL within an itemize. Every link references
// exactly one shared PageMetadata record; the schema guarantees a link
// is never created without one. Metadata carries the effective
// representation: override fields, when present and non-empty, win over
// the scraped values.
type Link struct {
	ID             string    `json:"id"`
	URL            string    `json:"url"`
	ItemizeID      string    `json:"itemizeId"`
	PageMetadataID string    `json:"pageMetadataId"`
	OverrideID     string    `json:"overrideId,omitempty"`
	Metadata       *Metadata `json:"metadata"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// OverrideUpdate represents user edits to a link's metadata. Nil fields
// are left untouched; non-nil fields replace the override value.
// Clearing an override field back to the scraped value is intentionally
// unsupported.
type OverrideUpdate struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	SiteName    *string `json:"siteName"`
	Price       *string `json:"price"`
	Currency    *string `json:"currency"`
	ImageURL    *string `json:"imageUrl"`
}

// ItemizeService manages itemizes and their links. Implementations do
// not extract metadata themselves; callers obtain a PageMetadata ID from
// the MetadataService first and fail link creation when extraction
// fails.
type ItemizeService interface {
	// CreateItemize creates a new itemize, deriving its slug from the
	// name. Returns ECONFLICT if the slug is already taken.
	CreateItemize(ctx context.Context, itm *Itemize) error

	// FindItemizes lists a user's itemizes, optionally filtered by a
	// case-insensitive substring query against name and description.
	FindItemizes(ctx context.Context, username, query string) ([]*Itemize, error)

	// FindItemize retrieves an itemize with its links and effective
	// metadata. A non-empty query filters links by title, description,
	// site name and URL. Returns ENOTFOUND if the itemize does not exist.
	FindItemize(ctx context.Context, username, slug, query string) (*Itemize, error)

	// DeleteItemize removes an itemize and its links.
	// Returns ENOTFOUND if the itemize does not exist.
	DeleteItemize(ctx context.Context, username, slug string) error

	// CreateLink adds a link referencing an existing metadata record.
	// Returns ENOTFOUND if the itemize does not exist.
	CreateLink(ctx context.Context, username, slug, url, pageMetadataID string) (*Link, error)

	// DeleteLink removes a link. Returns ENOTFOUND if the link does not
	// exist within the itemize.
	DeleteLink(ctx context.Context, username, slug, linkID string) error

	// UpdateLinkOverride applies user edits to a link's metadata,
	// lazily creating the override record on first edit. Returns the
	// link with its effective metadata.
	UpdateLinkOverride(ctx context.Context, username, slug, linkID string, upd OverrideUpdate) (*Link, error)
}
