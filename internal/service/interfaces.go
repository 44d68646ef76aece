package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"readwise_syncer/internal/domain"
)

type Source interface {
	FetchPage(ctx context.Context, cursor *string, updatedAfter *time.Time) (*domain.Page, error)
}

type DocumentStore interface {
	Upsert(ctx context.Context, doc *domain.Document) (bool, error)
}

type CheckpointStore interface {
	Load(ctx context.Context) (*time.Time, error)
	Save(ctx context.Context, ts time.Time) error
}

type Publisher interface {
	Publish(ctx context.Context, doc *domain.Document, isNew bool) error
	Close() error
}
