package domain

import (
	"encoding/json"
	"time"
)

// Category classifies a Reader document. The set is closed; anything else
// coming off the wire is a decode error.
type Category string

const (
	CategoryArticle   Category = "article"
	CategoryEmail     Category = "email"
	CategoryEpub      Category = "epub"
	CategoryHighlight Category = "highlight"
	CategoryNote      Category = "note"
	CategoryPDF       Category = "pdf"
	CategoryRSS       Category = "rss"
	CategoryTweet     Category = "tweet"
	CategoryVideo     Category = "video"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryArticle, CategoryEmail, CategoryEpub, CategoryHighlight,
		CategoryNote, CategoryPDF, CategoryRSS, CategoryTweet, CategoryVideo:
		return true
	}
	return false
}

// Location is the Reader triage bucket a document sits in. Optional.
type Location string

const (
	LocationArchive   Location = "archive"
	LocationFeed      Location = "feed"
	LocationLater     Location = "later"
	LocationNew       Location = "new"
	LocationShortlist Location = "shortlist"
)

func (l Location) Valid() bool {
	switch l {
	case LocationArchive, LocationFeed, LocationLater, LocationNew, LocationShortlist:
		return true
	}
	return false
}

// Document is one Reader item. ID, Category, CreatedAt and ParentID are
// immutable once stored; everything else follows the latest fetch.
type Document struct {
	ID              string
	Category        Category
	Location        *Location
	Title           string
	Author          *string
	Content         *string
	Notes           *string
	Summary         *string
	SiteName        *string
	Source          *string
	SourceURL       *string
	ReadwiseURL     *string
	ImageURL        *string
	ParentID        *string
	CreatedAt       time.Time
	UpdatedAt       *time.Time
	PublishedDate   *time.Time
	ReadingProgress float64
	WordCount       int
	// Tags is kept verbatim; structured tag import is handled downstream.
	Tags json.RawMessage
}

// Page is one unit of the list endpoint's pagination. A nil NextPageCursor
// marks the final page. Never persisted.
type Page struct {
	TotalRemaining int
	NextPageCursor *string
	Results        []Document
}
