package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/fwojciec/itemize"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ itemize.ItemizeService = (*ItemizeService)(nil)

// ItemizeService implements itemize.ItemizeService using SQLite.
type ItemizeService struct {
	db *DB

	// imageURL builds the servable URL for a stored image ID when a
	// link's metadata has no scraped image URL. Nil leaves it empty.
	imageURL func(id string) string
}

// NewItemizeService creates a new ItemizeService. imageURL may be nil.
func NewItemizeService(db *DB, imageURL func(id string) string) *ItemizeService {
	return &ItemizeService{db: db, imageURL: imageURL}
}

// CreateItemize creates a new itemize, deriving its slug from the name.
func (s *ItemizeService) CreateItemize(ctx context.Context, itm *itemize.Itemize) error {
	if err := itm.Validate(); err != nil {
		return err
	}

	itm.Slug = itemize.Slugify(itm.Name)
	if itm.Slug == "" {
		return itemize.Errorf(itemize.EINVALID, "itemize name %q yields an empty slug", itm.Name)
	}

	itm.ID = uuid.New().String()
	itm.CreatedAt = time.Now().UTC()
	itm.UpdatedAt = itm.CreatedAt

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO itemizes (id, name, slug, description, username, public, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, itm.ID, itm.Name, itm.Slug, itm.Description, itm.Username, itm.Public,
		itm.CreatedAt.Format(time.RFC3339), itm.UpdatedAt.Format(time.RFC3339))

	if isUniqueViolation(err) {
		return itemize.Errorf(itemize.ECONFLICT, "itemize with this name already exists")
	}
	return err
}

// FindItemizes lists a user's itemizes, optionally filtered by a
// case-insensitive substring query against name and description.
func (s *ItemizeService) FindItemizes(ctx context.Context, username, query string) ([]*itemize.Itemize, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, slug, description, username, public, created_at, updated_at
		FROM itemizes
		WHERE username = ?
		ORDER BY created_at DESC
	`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var itemizes []*itemize.Itemize
	for rows.Next() {
		itm, err := scanItemize(rows)
		if err != nil {
			return nil, err
		}
		if query != "" && !containsFold(itm.Name, query) && !containsFold(itm.Description, query) {
			continue
		}
		itemizes = append(itemizes, itm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, itm := range itemizes {
		links, err := s.findLinks(ctx, itm.ID, "")
		if err != nil {
			return nil, err
		}
		itm.Links = links
	}
	return itemizes, nil
}

// FindItemize retrieves an itemize with its links and effective
// metadata.
func (s *ItemizeService) FindItemize(ctx context.Context, username, slug, query string) (*itemize.Itemize, error) {
	itm, err := s.findItemize(ctx, username, slug)
	if err != nil {
		return nil, err
	}

	links, err := s.findLinks(ctx, itm.ID, query)
	if err != nil {
		return nil, err
	}
	itm.Links = links
	return itm, nil
}

// DeleteItemize removes an itemize; links cascade.
func (s *ItemizeService) DeleteItemize(ctx context.Context, username, slug string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM itemizes WHERE username = ? AND slug = ?
	`, username, slug)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return itemize.Errorf(itemize.ENOTFOUND, "itemize not found")
	}
	return nil
}

// CreateLink adds a link referencing an existing metadata record.
func (s *ItemizeService) CreateLink(ctx context.Context, username, slug, url, pageMetadataID string) (*itemize.Link, error) {
	if url == "" {
		return nil, itemize.Errorf(itemize.EINVALID, "link URL required")
	}
	if pageMetadataID == "" {
		return nil, itemize.Errorf(itemize.EINVALID, "link metadata ID required")
	}

	itm, err := s.findItemize(ctx, username, slug)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	link := &itemize.Link{
		ID:             uuid.New().String(),
		URL:            url,
		ItemizeID:      itm.ID,
		PageMetadataID: pageMetadataID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO links (id, url, itemize_id, page_metadata_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, link.ID, link.URL, link.ItemizeID, link.PageMetadataID,
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return nil, err
	}

	return s.findLink(ctx, itm.ID, link.ID)
}

// DeleteLink removes a link scoped to the user's itemize.
func (s *ItemizeService) DeleteLink(ctx context.Context, username, slug, linkID string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM links
		WHERE id = ? AND itemize_id IN (
			SELECT id FROM itemizes WHERE username = ? AND slug = ?
		)
	`, linkID, username, slug)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return itemize.Errorf(itemize.ENOTFOUND, "link not found")
	}
	return nil
}

// UpdateLinkOverride applies user edits to a link's metadata, lazily
// creating the override record on first edit.
func (s *ItemizeService) UpdateLinkOverride(ctx context.Context, username, slug, linkID string, upd itemize.OverrideUpdate) (*itemize.Link, error) {
	itm, err := s.findItemize(ctx, username, slug)
	if err != nil {
		return nil, err
	}

	link, err := s.findLink(ctx, itm.ID, linkID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339)

	var o itemize.PageMetadataOverride
	if link.OverrideID != "" {
		if err := s.db.QueryRowContext(ctx, `
			SELECT id, title, description, site_name, price, currency, image_url
			FROM page_metadata_overrides WHERE id = ?
		`, link.OverrideID).Scan(&o.ID, &o.Title, &o.Description, &o.SiteName, &o.Price, &o.Currency, &o.ImageURL); err != nil {
			return nil, err
		}
	}

	applyOverrideUpdate(&o, upd)

	if o.ID == "" {
		o.ID = uuid.New().String()
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO page_metadata_overrides (id, title, description, site_name, price, currency, image_url, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, o.ID, o.Title, o.Description, o.SiteName, o.Price, o.Currency, o.ImageURL, now, now); err != nil {
			return nil, err
		}
		if _, err := s.db.ExecContext(ctx, `
			UPDATE links SET override_id = ?, updated_at = ? WHERE id = ?
		`, o.ID, now, linkID); err != nil {
			return nil, err
		}
	} else {
		if _, err := s.db.ExecContext(ctx, `
			UPDATE page_metadata_overrides
			SET title = ?, description = ?, site_name = ?, price = ?, currency = ?, image_url = ?, updated_at = ?
			WHERE id = ?
		`, o.Title, o.Description, o.SiteName, o.Price, o.Currency, o.ImageURL, now, o.ID); err != nil {
			return nil, err
		}
	}

	return s.findLink(ctx, itm.ID, linkID)
}

func applyOverrideUpdate(o *itemize.PageMetadataOverride, upd itemize.OverrideUpdate) {
	if upd.Title != nil {
		o.Title = *upd.Title
	}
	if upd.Description != nil {
		o.Description = *upd.Description
	}
	if upd.SiteName != nil {
		o.SiteName = *upd.SiteName
	}
	if upd.Price != nil {
		o.Price = *upd.Price
	}
	if upd.Currency != nil {
		o.Currency = *upd.Currency
	}
	if upd.ImageURL != nil {
		o.ImageURL = *upd.ImageURL
	}
}

func (s *ItemizeService) findItemize(ctx context.Context, username, slug string) (*itemize.Itemize, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, slug, description, username, public, created_at, updated_at
		FROM itemizes
		WHERE username = ? AND slug = ?
	`, username, slug)

	itm, err := scanItemize(row)
	if err == sql.ErrNoRows {
		return nil, itemize.Errorf(itemize.ENOTFOUND, "itemize not found")
	}
	return itm, err
}

const linkColumns = `
	l.id, l.url, l.itemize_id, l.page_metadata_id, l.override_id, l.created_at, l.updated_at,
	m.id, m.url, m.title, m.description, m.site_name, m.price, m.currency, m.image_url, m.image_id,
	COALESCE(o.title, ''), COALESCE(o.description, ''), COALESCE(o.site_name, ''),
	COALESCE(o.price, ''), COALESCE(o.currency, ''), COALESCE(o.image_url, '')`

// findLinks loads an itemize's links with their effective metadata. A
// non-empty query filters by title, description, site name and URL.
func (s *ItemizeService) findLinks(ctx context.Context, itemizeID, query string) ([]*itemize.Link, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+linkColumns+`
		FROM links l
		JOIN page_metadata m ON m.id = l.page_metadata_id
		LEFT JOIN page_metadata_overrides o ON o.id = l.override_id AND l.override_id != ''
		WHERE l.itemize_id = ?
		ORDER BY l.created_at ASC
	`, itemizeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := []*itemize.Link{}
	for rows.Next() {
		link, err := s.scanLink(rows)
		if err != nil {
			return nil, err
		}
		if query != "" && !matchesLink(link, query) {
			continue
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

func (s *ItemizeService) findLink(ctx context.Context, itemizeID, linkID string) (*itemize.Link, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+linkColumns+`
		FROM links l
		JOIN page_metadata m ON m.id = l.page_metadata_id
		LEFT JOIN page_metadata_overrides o ON o.id = l.override_id AND l.override_id != ''
		WHERE l.itemize_id = ? AND l.id = ?
	`, itemizeID, linkID)

	link, err := s.scanLink(row)
	if err == sql.ErrNoRows {
		return nil, itemize.Errorf(itemize.ENOTFOUND, "link not found")
	}
	return link, err
}

// scanLink builds a link with its effective metadata: the scraped
// record rendered with the servable image URL, then the override
// applied field by field.
func (s *ItemizeService) scanLink(row rowScanner) (*itemize.Link, error) {
	var link itemize.Link
	var createdAt, updatedAt string
	var m itemize.Metadata
	var imageID string
	var o itemize.PageMetadataOverride

	err := row.Scan(
		&link.ID, &link.URL, &link.ItemizeID, &link.PageMetadataID, &link.OverrideID, &createdAt, &updatedAt,
		&m.ID, &m.URL, &m.Title, &m.Description, &m.SiteName, &m.Price, &m.Currency, &m.ImageURL, &imageID,
		&o.Title, &o.Description, &o.SiteName, &o.Price, &o.Currency, &o.ImageURL,
	)
	if err != nil {
		return nil, err
	}

	if link.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
		return nil, err
	}
	if link.UpdatedAt, err = parseRFC3339(updatedAt, "updated_at"); err != nil {
		return nil, err
	}

	if m.ImageURL == "" && imageID != "" && s.imageURL != nil {
		m.ImageURL = s.imageURL(imageID)
	}

	if link.OverrideID != "" {
		m = o.Apply(m)
	}
	link.Metadata = &m

	return &link, nil
}

// matchesLink applies the in-process link text filter against the
// effective metadata and URL.
func matchesLink(link *itemize.Link, query string) bool {
	m := link.Metadata
	return containsFold(m.Title, query) ||
		containsFold(m.Description, query) ||
		containsFold(m.SiteName, query) ||
		containsFold(m.URL, query)
}

func scanItemize(row rowScanner) (*itemize.Itemize, error) {
	var itm itemize.Itemize
	var createdAt, updatedAt string

	err := row.Scan(&itm.ID, &itm.Name, &itm.Slug, &itm.Description, &itm.Username, &itm.Public, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if itm.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
		return nil, err
	}
	if itm.UpdatedAt, err = parseRFC3339(updatedAt, "updated_at"); err != nil {
		return nil, err
	}
	return &itm, nil
}
