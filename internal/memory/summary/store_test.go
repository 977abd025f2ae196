package summary

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SRdeMora/quimera/internal/memory"
	"github.com/SRdeMora/quimera/internal/types"
)

func TestSqliteStore_SetAndGet(t *testing.T) {
	store, err := NewSqliteStore(Config{Path: filepath.Join(t.TempDir(), "summaries.db")})
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	session := types.NewID()

	_, ok, err := store.Get(ctx, session)
	require.NoError(t, err)
	assert.False(t, ok, "no summary before first Set")

	require.NoError(t, store.Set(ctx, session, "el usuario trabaja en un proyecto de domótica"))

	text, ok, err := store.Get(ctx, session)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "el usuario trabaja en un proyecto de domótica", text)
}

func TestSqliteStore_SetReplaces(t *testing.T) {
	store, err := NewSqliteStore(Config{Path: filepath.Join(t.TempDir(), "summaries.db")})
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	session := types.NewID()

	require.NoError(t, store.Set(ctx, session, "resumen viejo"))
	require.NoError(t, store.Set(ctx, session, "resumen nuevo"))

	text, ok, err := store.Get(ctx, session)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "resumen nuevo", text)
}

func TestSqliteStore_SessionIsolation(t *testing.T) {
	store, err := NewSqliteStore(Config{Path: filepath.Join(t.TempDir(), "summaries.db")})
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	sessionA := types.NewID()
	sessionB := types.NewID()

	require.NoError(t, store.Set(ctx, sessionA, "resumen de A"))

	_, ok, err := store.Get(ctx, sessionB)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSqliteStore_ZeroSessionRejected(t *testing.T) {
	store, err := NewSqliteStore(Config{Path: filepath.Join(t.TempDir(), "summaries.db")})
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	err = store.Set(ctx, types.ID(""), "resumen")
	assert.True(t, types.IsCode(err, memory.ErrCodeSummaryStoreFailed))

	_, _, err = store.Get(ctx, types.ID(""))
	assert.True(t, types.IsCode(err, memory.ErrCodeSummaryStoreFailed))
}

func TestInMemoryStore_FailureInjection(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	session := types.NewID()

	require.NoError(t, store.Set(ctx, session, "resumen"))

	store.FailGet(errors.New("disk error"))
	_, _, err := store.Get(ctx, session)
	assert.True(t, types.IsCode(err, memory.ErrCodeSummaryStoreFailed))

	store.FailSet(errors.New("disk error"))
	err = store.Set(ctx, session, "otro")
	assert.True(t, types.IsCode(err, memory.ErrCodeSummaryStoreFailed))
}
