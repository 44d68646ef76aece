//go:build integration

package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"readwise_syncer/internal/domain"
	"readwise_syncer/testdata/utils"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	db        *sqlx.DB
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := sqlx.Connect("postgres", connStr)
	s.Require().NoError(err)
	s.db = db

	_, err = RunMigrations(db)
	s.Require().NoError(err)
}

func (s *PostgresIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresIntegrationSuite) SetupTest() {
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM documents")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM sync_state")
}

func TestPostgresIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationSuite))
}

func testDoc(id string) *domain.Document {
	return &domain.Document{
		ID:              id,
		Category:        domain.CategoryArticle,
		Title:           "Test Document",
		Author:          utils.Ptr("Test Author"),
		SourceURL:       utils.Ptr("https://example.com/article"),
		CreatedAt:       time.Now().UTC().Truncate(time.Microsecond),
		ReadingProgress: 0.5,
		WordCount:       100,
	}
}

func (s *PostgresIntegrationSuite) TestDocumentStore_InsertNew() {
	store := NewDocumentStore(s.db)

	isNew, err := store.Upsert(s.ctx, testDoc("doc-1"))
	s.NoError(err)
	s.True(isNew)

	var count int
	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM documents WHERE id = $1", "doc-1")
	s.NoError(err)
	s.Equal(1, count)
}

func (s *PostgresIntegrationSuite) TestDocumentStore_Idempotent() {
	store := NewDocumentStore(s.db)
	doc := testDoc("doc-1")

	isNew, err := store.Upsert(s.ctx, doc)
	s.NoError(err)
	s.True(isNew)

	isNew, err = store.Upsert(s.ctx, doc)
	s.NoError(err)
	s.False(isNew)

	var count int
	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM documents")
	s.NoError(err)
	s.Equal(1, count)

	var title string
	var wordCount int
	err = s.db.QueryRowContext(s.ctx,
		"SELECT title, word_count FROM documents WHERE id = $1", doc.ID,
	).Scan(&title, &wordCount)
	s.NoError(err)
	s.Equal(doc.Title, title)
	s.Equal(doc.WordCount, wordCount)
}

func (s *PostgresIntegrationSuite) TestDocumentStore_LastWriteWinsKeepsImmutableFields() {
	store := NewDocumentStore(s.db)

	first := testDoc("doc-1")
	first.Title = "A"
	first.ReadwiseURL = utils.Ptr("https://read.readwise.io/read/doc-1")
	_, err := store.Upsert(s.ctx, first)
	s.NoError(err)

	second := testDoc("doc-1")
	second.Title = "B"
	second.Category = domain.CategoryVideo
	second.CreatedAt = first.CreatedAt.Add(time.Hour)
	second.ParentID = utils.Ptr("other-doc")
	second.ReadwiseURL = utils.Ptr("https://read.readwise.io/read/regenerated")
	second.WordCount = 250

	isNew, err := store.Upsert(s.ctx, second)
	s.NoError(err)
	s.False(isNew)

	var title, category string
	var createdAt time.Time
	var parentID, readwiseURL *string
	var wordCount int
	err = s.db.QueryRowContext(s.ctx,
		"SELECT title, category, created_at, parent_id, readwise_url, word_count FROM documents WHERE id = $1", "doc-1",
	).Scan(&title, &category, &createdAt, &parentID, &readwiseURL, &wordCount)
	s.NoError(err)

	s.Equal("B", title)
	s.Equal(250, wordCount)
	// Immutable columns keep their first-seen values.
	s.Equal(string(domain.CategoryArticle), category)
	s.WithinDuration(first.CreatedAt, createdAt, time.Second)
	s.Nil(parentID)
	s.Require().NotNil(readwiseURL)
	s.Equal("https://read.readwise.io/read/doc-1", *readwiseURL)
}

func (s *PostgresIntegrationSuite) TestDocumentStore_OptionalFieldsAndTags() {
	store := NewDocumentStore(s.db)

	loc := domain.LocationLater
	published := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)
	doc := testDoc("doc-1")
	doc.Location = &loc
	doc.PublishedDate = &published
	doc.Tags = json.RawMessage(`{"golang": {"name": "golang"}}`)

	_, err := store.Upsert(s.ctx, doc)
	s.NoError(err)

	var location string
	var publishedDate time.Time
	var tags []byte
	err = s.db.QueryRowContext(s.ctx,
		"SELECT location, published_date, tags FROM documents WHERE id = $1", doc.ID,
	).Scan(&location, &publishedDate, &tags)
	s.NoError(err)

	s.Equal(string(domain.LocationLater), location)
	s.WithinDuration(published, publishedDate, time.Second)
	s.JSONEq(`{"golang": {"name": "golang"}}`, string(tags))
}

func (s *PostgresIntegrationSuite) TestDocumentStore_NullTagsStoredAsNull() {
	store := NewDocumentStore(s.db)

	doc := testDoc("doc-1")
	doc.Tags = json.RawMessage("null")

	_, err := store.Upsert(s.ctx, doc)
	s.NoError(err)

	var tags *string
	err = s.db.GetContext(s.ctx, &tags, "SELECT tags FROM documents WHERE id = $1", doc.ID)
	s.NoError(err)
	s.Nil(tags)
}

func (s *PostgresIntegrationSuite) TestCheckpointStore_LoadWithoutPriorRun() {
	store := NewCheckpointStore(s.db)

	ts, err := store.Load(s.ctx)
	s.NoError(err)
	s.Nil(ts)
}

func (s *PostgresIntegrationSuite) TestCheckpointStore_SaveAndLoad() {
	store := NewCheckpointStore(s.db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	err := store.Save(s.ctx, now)
	s.NoError(err)

	ts, err := store.Load(s.ctx)
	s.NoError(err)
	s.Require().NotNil(ts)
	s.WithinDuration(now, *ts, time.Second)
}

func (s *PostgresIntegrationSuite) TestCheckpointStore_SaveOverwrites() {
	store := NewCheckpointStore(s.db)
	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	second := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	s.NoError(store.Save(s.ctx, first))
	s.NoError(store.Save(s.ctx, second))

	ts, err := store.Load(s.ctx)
	s.NoError(err)
	s.Require().NotNil(ts)
	s.WithinDuration(second, *ts, time.Second)

	var count int
	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM sync_state")
	s.NoError(err)
	s.Equal(1, count)
}
