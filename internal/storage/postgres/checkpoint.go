package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// CheckpointStore persists the single sync watermark. A load or save
// failure is fatal to the run: silently defaulting a checkpoint would lose
// data on the next incremental pass.
type CheckpointStore struct {
	db *sqlx.DB
}

func NewCheckpointStore(db *sqlx.DB) *CheckpointStore {
	return &CheckpointStore{db: db}
}

// Load returns the last committed watermark, or nil if no run has ever
// completed.
func (s *CheckpointStore) Load(ctx context.Context) (*time.Time, error) {
	var ts time.Time
	err := s.db.GetContext(ctx, &ts, "SELECT last_sync_at FROM sync_state WHERE id = 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

// Save upserts the watermark row. Last write wins; no history is kept.
func (s *CheckpointStore) Save(ctx context.Context, ts time.Time) error {
	query := `
		INSERT INTO sync_state (id, last_sync_at)
		VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET
			last_sync_at = EXCLUDED.last_sync_at`

	_, err := s.db.ExecContext(ctx, query, ts)
	return err
}
