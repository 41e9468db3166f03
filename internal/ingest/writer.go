package ingest

import (
	"context"
	"time"

	"releasesync/internal/release"
)

// Store is the item persistence contract. Get returns nil, nil for a miss.
type Store interface {
	Get(ctx context.Context, id string) (*release.Record, error)
	Put(ctx context.Context, rec release.Record) error
}

// Writer upserts canonical records keyed by id. The first write of an id sets
// CreatedAt; later writes keep it and overwrite everything else.
type Writer struct {
	store Store
	now   func() time.Time
}

func NewWriter(store Store) *Writer {
	return &Writer{store: store, now: time.Now}
}

func (w *Writer) Upsert(ctx context.Context, rec release.Record) (release.Record, error) {
	if err := rec.Validate(); err != nil {
		return release.Record{}, release.NewFailure(rec.Source, release.ErrKindDataQuality, "validate id="+rec.ID, err)
	}

	existing, err := w.store.Get(ctx, rec.ID)
	if err != nil {
		return release.Record{}, release.NewFailure(rec.Source, release.ErrKindPersistence, "get id="+rec.ID, err)
	}

	now := w.now().UTC()
	rec.CreatedAt = now
	if existing != nil && !existing.CreatedAt.IsZero() {
		rec.CreatedAt = existing.CreatedAt
	}
	rec.UpdatedAt = now

	if err := w.store.Put(ctx, rec); err != nil {
		return release.Record{}, release.NewFailure(rec.Source, release.ErrKindPersistence, "put id="+rec.ID, err)
	}
	return rec, nil
}
