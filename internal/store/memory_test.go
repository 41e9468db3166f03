package store

import (
	"context"
	"testing"

	"releasesync/internal/release"
	"releasesync/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	got, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, m.Put(ctx, release.Record{ID: "b", Title: "B"}))
	require.NoError(t, m.Put(ctx, release.Record{ID: "a", Title: "A"}))
	require.NoError(t, m.Put(ctx, release.Record{ID: "a", Title: "A2"}))

	got, err = m.Get(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "A2", got.Title)

	got.Title = "mutated"
	again, _ := m.Get(ctx, "a")
	assert.Equal(t, "A2", again.Title, "callers get a copy")

	assert.Equal(t, 2, m.Len())
	all := m.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
}

func TestMemory_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMemory()
	assert.ErrorIs(t, m.Put(ctx, release.Record{ID: "a"}), context.Canceled)
	_, err := m.Get(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemory_KeepsOptionalFields(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	rec := testutil.GameRecord("igdb-1942")

	require.NoError(t, m.Put(ctx, rec))
	got, err := m.Get(ctx, "igdb-1942")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec, *got)
	assert.Nil(t, got.Price)
	require.NotNil(t, got.CriticScore)
	assert.Equal(t, 77, *got.CriticScore)
	assert.Equal(t, testutil.Created, got.CreatedAt)
}
