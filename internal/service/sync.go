package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"readwise_syncer/internal/domain"
)

type SyncService struct {
	source     Source
	documents  DocumentStore
	checkpoint CheckpointStore
	publisher  Publisher
	logger     *slog.Logger
	fullSync   bool
}

func NewSyncService(
	source Source,
	documents DocumentStore,
	checkpoint CheckpointStore,
	publisher Publisher,
	logger *slog.Logger,
	fullSync bool,
) *SyncService {
	return &SyncService{
		source:     source,
		documents:  documents,
		checkpoint: checkpoint,
		publisher:  publisher,
		logger:     logger,
		fullSync:   fullSync,
	}
}

// Sync drives one full pass over the remote collection: read the
// checkpoint, drain every page, then commit a new checkpoint. The
// committed watermark is the time captured before the first request, so
// documents updated while the run was in flight are picked up next time.
// A fatal page failure aborts without touching the checkpoint; the next
// run retries the same window.
func (s *SyncService) Sync(ctx context.Context) (*domain.SyncStats, error) {
	startedAt := time.Now().UTC()

	var updatedAfter *time.Time
	if s.fullSync {
		s.logger.Info("full sync requested, ignoring checkpoint")
	} else {
		ts, err := s.checkpoint.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load checkpoint: %w", err)
		}
		if ts != nil {
			s.logger.Info("resuming from checkpoint", "last_sync_at", ts)
		} else {
			s.logger.Info("no checkpoint found, performing full sync")
		}
		updatedAfter = ts
	}

	stats := &domain.SyncStats{}
	var cursor *string

	for {
		page, err := s.source.FetchPage(ctx, cursor, updatedAfter)
		if err != nil {
			return nil, fmt.Errorf("fetch page: %w", err)
		}
		// The updatedAfter filter belongs on the first request only; later
		// requests identify the filtered window by cursor alone.
		updatedAfter = nil

		s.logger.Info("fetched page",
			"results", len(page.Results),
			"remaining", page.TotalRemaining,
		)

		failures := 0
		for i := range page.Results {
			doc := &page.Results[i]

			isNew, err := s.documents.Upsert(ctx, doc)
			if err != nil {
				s.logger.Error("failed to save document", "error", err)
				failures++
				continue
			}
			stats.Saved++
			s.logger.Debug("synced document", "id", doc.ID, "title", doc.Title)

			if s.publisher != nil {
				if err := s.publisher.Publish(ctx, doc, isNew); err != nil {
					s.logger.Error("failed to publish document",
						"error", err,
						"id", doc.ID,
					)
					failures++
				} else {
					stats.Published++
				}
			}
		}

		if failures > 0 {
			s.logger.Warn("documents failed on this page", "failures", failures)
		}

		stats.Pages++
		stats.Fetched += len(page.Results)
		stats.Failed += failures

		cursor = page.NextPageCursor
		if cursor == nil {
			break
		}
	}

	if err := s.checkpoint.Save(ctx, startedAt); err != nil {
		return stats, fmt.Errorf("save checkpoint: %w", err)
	}

	stats.Duration = time.Since(startedAt)

	s.logger.Info("sync completed",
		"pages", stats.Pages,
		"fetched", stats.Fetched,
		"saved", stats.Saved,
		"failed", stats.Failed,
		"published", stats.Published,
		"checkpoint", startedAt,
		"duration", stats.Duration,
	)

	return stats, nil
}
