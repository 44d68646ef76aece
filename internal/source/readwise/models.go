package readwise

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"readwise_syncer/internal/domain"
)

// pageJSON mirrors the list endpoint's response envelope.
type pageJSON struct {
	Count          int            `json:"count"`
	NextPageCursor *string        `json:"nextPageCursor"`
	Results        []documentJSON `json:"results"`
}

type documentJSON struct {
	ID              string          `json:"id"`
	Category        string          `json:"category"`
	Location        *string         `json:"location"`
	Title           *string         `json:"title"`
	Author          *string         `json:"author"`
	Content         *string         `json:"content"`
	Notes           *string         `json:"notes"`
	Summary         *string         `json:"summary"`
	SiteName        *string         `json:"site_name"`
	Source          *string         `json:"source"`
	SourceURL       *string         `json:"source_url"`
	ReadwiseURL     *string         `json:"url"`
	ImageURL        *string         `json:"image_url"`
	ParentID        *string         `json:"parent_id"`
	CreatedAt       *time.Time      `json:"created_at"`
	UpdatedAt       *time.Time      `json:"updated_at"`
	PublishedDate   json.RawMessage `json:"published_date"`
	ReadingProgress float64         `json:"reading_progress"`
	WordCount       *int            `json:"word_count"`
	Tags            json.RawMessage `json:"tags"`
}

// decodePage parses a response body into a domain Page. Individual fields
// degrade per their policy; only a malformed document structure (bad id,
// category, location or created_at) fails the page, with the field path in
// the error.
func decodePage(body []byte, logger *slog.Logger) (*domain.Page, error) {
	var raw pageJSON
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}

	page := &domain.Page{
		TotalRemaining: raw.Count,
		NextPageCursor: raw.NextPageCursor,
		Results:        make([]domain.Document, 0, len(raw.Results)),
	}

	for i, d := range raw.Results {
		doc, err := toDocument(d, fmt.Sprintf("results[%d]", i), logger)
		if err != nil {
			return nil, err
		}
		page.Results = append(page.Results, doc)
	}

	return page, nil
}

func toDocument(d documentJSON, path string, logger *slog.Logger) (domain.Document, error) {
	if d.ID == "" {
		return domain.Document{}, fmt.Errorf("%s.id: missing or empty", path)
	}

	category := domain.Category(d.Category)
	if !category.Valid() {
		return domain.Document{}, fmt.Errorf("%s.category: unknown value %q", path, d.Category)
	}

	var location *domain.Location
	if d.Location != nil {
		l := domain.Location(*d.Location)
		if !l.Valid() {
			return domain.Document{}, fmt.Errorf("%s.location: unknown value %q", path, *d.Location)
		}
		location = &l
	}

	if d.CreatedAt == nil {
		return domain.Document{}, fmt.Errorf("%s.created_at: missing", path)
	}

	title := "Untitled"
	if d.Title != nil {
		title = *d.Title
	}

	wordCount := 0
	if d.WordCount != nil {
		wordCount = *d.WordCount
	}

	return domain.Document{
		ID:              d.ID,
		Category:        category,
		Location:        location,
		Title:           title,
		Author:          d.Author,
		Content:         d.Content,
		Notes:           d.Notes,
		Summary:         d.Summary,
		SiteName:        d.SiteName,
		Source:          d.Source,
		SourceURL:       d.SourceURL,
		ReadwiseURL:     d.ReadwiseURL,
		ImageURL:        d.ImageURL,
		ParentID:        d.ParentID,
		CreatedAt:       *d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
		PublishedDate:   parsePublishedDate(d.PublishedDate, d.ID, logger),
		ReadingProgress: d.ReadingProgress,
		WordCount:       wordCount,
		Tags:            d.Tags,
	}, nil
}

// parsePublishedDate handles the three wire encodings of published_date:
// null/absent, Unix epoch seconds, or a datetime string (full RFC 3339, or
// a bare date taken as midnight UTC). Anything unparseable degrades to nil
// with a warning rather than failing the document.
func parsePublishedDate(raw json.RawMessage, docID string, logger *slog.Logger) *time.Time {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if ts, err := time.Parse(time.RFC3339, s); err == nil {
			ts = ts.UTC()
			return &ts
		}
		if day, err := time.Parse("2006-01-02", s); err == nil {
			ts := day.UTC()
			return &ts
		}
		logger.Warn("failed to parse published_date string, defaulting to null",
			"id", docID,
			"published_date", s,
		)
		return nil
	}

	var secs int64
	if err := json.Unmarshal(raw, &secs); err == nil {
		ts := time.Unix(secs, 0).UTC()
		return &ts
	}

	logger.Warn("unexpected published_date value, defaulting to null",
		"id", docID,
		"published_date", string(raw),
	)
	return nil
}
