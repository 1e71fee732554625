package envfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d-elbel/curlew/internal/core"
	"github.com/d-elbel/curlew/internal/interfaces"
)

func newStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := New(dir, nil)
	require.NoError(t, err)
	return store, dir
}

func TestRead(t *testing.T) {
	ctx := context.Background()

	t.Run("parses KEY=value lines", func(t *testing.T) {
		store, dir := newStore(t)
		content := "HOST=api.example.com\nTOKEN=abc=with=equals\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "dev.env"), []byte(content), 0o644))

		env, err := store.Read(ctx, "dev")
		require.NoError(t, err)
		assert.Equal(t, "dev", env.Name())

		host, ok := env.GetVariable("HOST")
		assert.True(t, ok)
		assert.Equal(t, "api.example.com", host)

		// Only the first equals sign splits.
		token, _ := env.GetVariable("TOKEN")
		assert.Equal(t, "abc=with=equals", token)
	})

	t.Run("skips malformed and comment lines", func(t *testing.T) {
		store, dir := newStore(t)
		content := "# comment\n\nnot a pair\nGOOD=yes\n=nokey\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "dev.env"), []byte(content), 0o644))

		env, err := store.Read(ctx, "dev")
		require.NoError(t, err)
		assert.Equal(t, []string{"GOOD"}, env.Keys())
	})

	t.Run("missing environment is not found", func(t *testing.T) {
		store, _ := newStore(t)
		_, err := store.Read(ctx, "ghost")
		assert.ErrorIs(t, err, interfaces.ErrNotFound)
	})
}

func TestSaveRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	env := core.NewEnvironmentFile("staging")
	env.SetVariable("HOST", "staging.example.com")
	env.SetVariable("PORT", "8443")
	require.NoError(t, store.Save(ctx, env))

	loaded, err := store.Read(ctx, "staging")
	require.NoError(t, err)
	assert.Equal(t, env.Variables(), loaded.Variables())
	assert.Equal(t, []string{"HOST", "PORT"}, loaded.Keys())
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	env, err := store.Create(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, "fresh", env.Name())
	assert.Empty(t, env.Keys())

	t.Run("existing file is never truncated", func(t *testing.T) {
		_, err := store.Create(ctx, "fresh")
		assert.Error(t, err)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	_, err := store.Create(ctx, "doomed")
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, "doomed"))

	assert.ErrorIs(t, store.Delete(ctx, "doomed"), interfaces.ErrNotFound)
}

func TestListEnvironments(t *testing.T) {
	ctx := context.Background()
	store, dir := newStore(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.env"), []byte("K=1\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.env"), []byte("K=2\n"), 0o644))
	// Non-env files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	environments, err := store.ListEnvironments(ctx)
	require.NoError(t, err)
	require.Len(t, environments, 2)
	assert.Equal(t, "a", environments[0].Name())
	assert.Equal(t, "b", environments[1].Name())
}

func TestClosedStore(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)
	require.NoError(t, store.Close())

	_, err := store.ListEnvironments(ctx)
	assert.ErrorIs(t, err, interfaces.ErrStoreClosed)
	assert.ErrorIs(t, store.Save(ctx, core.NewEnvironmentFile("x")), interfaces.ErrStoreClosed)
}
