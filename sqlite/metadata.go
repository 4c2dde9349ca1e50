package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/fwojciec/itemize"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ itemize.MetadataStore = (*MetadataStore)(nil)

// MetadataStore implements itemize.MetadataStore using SQLite.
type MetadataStore struct {
	db *DB
}

// NewMetadataStore creates a new MetadataStore.
func NewMetadataStore(db *DB) *MetadataStore {
	return &MetadataStore{db: db}
}

const pageMetadataColumns = `
	m.id, m.url, m.title, m.description, m.site_name, m.price, m.currency,
	m.image_url, m.content_hash, m.image_id, m.created_at, m.updated_at,
	COALESCE(i.mime, ''), COALESCE(i.source_image_url, ''), COALESCE(i.created_at, '')`

// FindPageMetadataByURL retrieves a record by its normalized URL. The
// associated image row is loaded without its byte payload; bytes are
// only read through FindMetadataImageByID for serving.
func (s *MetadataStore) FindPageMetadataByURL(ctx context.Context, url string) (*itemize.PageMetadata, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+pageMetadataColumns+`
		FROM page_metadata m
		LEFT JOIN metadata_images i ON i.id = m.image_id
		WHERE m.url = ?
	`, url)
	return scanPageMetadata(row)
}

// UpsertPageMetadata inserts a new record or overwrites the scalar
// fields of the existing record for the same URL, preserving row
// identity and the image reference. A lost insert race surfaces as a
// unique violation and falls through to the update path.
func (s *MetadataStore) UpsertPageMetadata(ctx context.Context, m *itemize.PageMetadata) (*itemize.PageMetadata, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339)

	var existingID string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM page_metadata WHERE url = ?`, m.URL).Scan(&existingID)
	if err == sql.ErrNoRows {
		id := uuid.New().String()
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO page_metadata (id, url, title, description, site_name, price, currency, image_url, content_hash, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, id, m.URL, m.Title, m.Description, m.SiteName, m.Price, m.Currency, m.ImageURL, m.ContentHash, now, now)
		if err == nil {
			return s.FindPageMetadataByURL(ctx, m.URL)
		}
		if !isUniqueViolation(err) {
			return nil, err
		}
		// A concurrent extraction inserted the row first; update it instead.
	} else if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE page_metadata
		SET title = ?, description = ?, site_name = ?, price = ?, currency = ?, image_url = ?, content_hash = ?, updated_at = ?
		WHERE url = ?
	`, m.Title, m.Description, m.SiteName, m.Price, m.Currency, m.ImageURL, m.ContentHash, now, m.URL)
	if err != nil {
		return nil, err
	}

	return s.FindPageMetadataByURL(ctx, m.URL)
}

// AttachImage stores an image row and points the metadata record at it.
// The previous image reference, if any, is replaced; image bytes are
// never mutated in place.
func (s *MetadataStore) AttachImage(ctx context.Context, metadataID string, img *itemize.MetadataImage) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	img.ID = uuid.New().String()
	img.CreatedAt = time.Now().UTC()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO metadata_images (id, mime, data, source_image_url, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, img.ID, img.Mime, img.Data, img.SourceImageURL, img.CreatedAt.Format(time.RFC3339)); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE page_metadata SET image_id = ?, updated_at = ? WHERE id = ?
	`, img.ID, time.Now().UTC().Format(time.RFC3339), metadataID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return itemize.Errorf(itemize.ENOTFOUND, "metadata record not found")
	}

	return tx.Commit()
}

// FindMetadataImageByID retrieves an image with its byte payload.
func (s *MetadataStore) FindMetadataImageByID(ctx context.Context, id string) (*itemize.MetadataImage, error) {
	var img itemize.MetadataImage
	var createdAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, mime, data, source_image_url, created_at
		FROM metadata_images
		WHERE id = ?
	`, id).Scan(&img.ID, &img.Mime, &img.Data, &img.SourceImageURL, &createdAt)

	if err == sql.ErrNoRows {
		return nil, itemize.Errorf(itemize.ENOTFOUND, "image not found")
	}
	if err != nil {
		return nil, err
	}

	img.CreatedAt, err = parseRFC3339(createdAt, "created_at")
	if err != nil {
		return nil, err
	}

	return &img, nil
}

// PageMetadataURLs lists the URLs of all stored records.
func (s *MetadataStore) PageMetadataURLs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT url FROM page_metadata`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

// rowScanner abstracts sql.Row and sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPageMetadata(row rowScanner) (*itemize.PageMetadata, error) {
	var m itemize.PageMetadata
	var createdAt, updatedAt string
	var imgMime, imgSource, imgCreatedAt string

	err := row.Scan(
		&m.ID, &m.URL, &m.Title, &m.Description, &m.SiteName, &m.Price, &m.Currency,
		&m.ImageURL, &m.ContentHash, &m.ImageID, &createdAt, &updatedAt,
		&imgMime, &imgSource, &imgCreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, itemize.Errorf(itemize.ENOTFOUND, "metadata not found")
	}
	if err != nil {
		return nil, err
	}

	if m.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
		return nil, err
	}
	if m.UpdatedAt, err = parseRFC3339(updatedAt, "updated_at"); err != nil {
		return nil, err
	}

	if m.ImageID != "" {
		img := &itemize.MetadataImage{
			ID:             m.ImageID,
			Mime:           imgMime,
			SourceImageURL: imgSource,
		}
		if imgCreatedAt != "" {
			if img.CreatedAt, err = parseRFC3339(imgCreatedAt, "image created_at"); err != nil {
				return nil, err
			}
		}
		m.Image = img
	}

	return &m, nil
}
