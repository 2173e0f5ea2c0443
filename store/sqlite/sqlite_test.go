package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuego/backoffice/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_GetMissingKey(t *testing.T) {
	s := newTestStore(t)

	payload, ok, err := s.Get(context.Background(), "fuego_orders")

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, payload)
}

func TestStore_SetThenGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "fuego_reservations", []byte(`[{"id":"local_1"}]`)))

	payload, ok, err := s.Get(ctx, "fuego_reservations")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `[{"id":"local_1"}]`, string(payload))
}

func TestStore_SetOverwrites(t *testing.T) {
	// GIVEN: a key written twice
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "k", []byte("first")))
	require.NoError(t, s.Set(ctx, "k", []byte("second")))

	// THEN: the last write wins and there is one key
	payload, _, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "second", string(payload))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"k"}, keys)
}

func TestStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	s, err := sqlite.New(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "fuego_menu_v9", []byte(`[]`)))
	require.NoError(t, s.Close())

	reopened, err := sqlite.New(path)
	require.NoError(t, err)
	defer reopened.Close()

	payload, ok, err := reopened.Get(ctx, "fuego_menu_v9")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", string(payload))
}
