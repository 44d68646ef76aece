package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"readwise_syncer/internal/domain"
)

type DocumentStore struct {
	db *sqlx.DB
}

func NewDocumentStore(db *sqlx.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// Upsert inserts or updates a single document by id. On conflict only the
// mutable columns are replaced; id, category, created_at, parent_id and
// readwise_url keep their first-seen values. Returns whether the row was
// newly inserted.
func (s *DocumentStore) Upsert(ctx context.Context, doc *domain.Document) (bool, error) {
	query := `
		INSERT INTO documents (
			id, category, location, title, author, content, notes, summary,
			site_name, source, source_url, readwise_url, image_url, parent_id,
			created_at, updated_at, published_date, reading_progress,
			word_count, tags
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20
		)
		ON CONFLICT (id) DO UPDATE SET
			location         = EXCLUDED.location,
			title            = EXCLUDED.title,
			author           = EXCLUDED.author,
			content          = EXCLUDED.content,
			notes            = EXCLUDED.notes,
			summary          = EXCLUDED.summary,
			site_name        = EXCLUDED.site_name,
			source           = EXCLUDED.source,
			source_url       = EXCLUDED.source_url,
			image_url        = EXCLUDED.image_url,
			updated_at       = EXCLUDED.updated_at,
			published_date   = EXCLUDED.published_date,
			reading_progress = EXCLUDED.reading_progress,
			word_count       = EXCLUDED.word_count,
			tags             = EXCLUDED.tags
		RETURNING (xmax = 0) AS inserted`

	var inserted bool
	err := s.db.QueryRowContext(ctx, query,
		doc.ID,
		string(doc.Category),
		doc.Location,
		doc.Title,
		doc.Author,
		doc.Content,
		doc.Notes,
		doc.Summary,
		doc.SiteName,
		doc.Source,
		doc.SourceURL,
		doc.ReadwiseURL,
		doc.ImageURL,
		doc.ParentID,
		doc.CreatedAt,
		doc.UpdatedAt,
		doc.PublishedDate,
		doc.ReadingProgress,
		doc.WordCount,
		tagsValue(doc.Tags),
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("save document id=%s title=%q source_url=%v: %w",
			doc.ID, doc.Title, strOrNull(doc.SourceURL), err)
	}

	return inserted, nil
}

func tagsValue(tags []byte) any {
	if len(tags) == 0 || string(tags) == "null" {
		return nil
	}
	return tags
}

func strOrNull(s *string) string {
	if s == nil {
		return "<null>"
	}
	return *s
}
