package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/eatnear/internal/adapters/storage"
	"github.com/samirrijal/eatnear/internal/pkg/config"
)

func TestOpen_SQLite(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{
		Backend:    config.BackendSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "eatnear.db"),
	}}

	b, err := storage.Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(b.Close)

	assert.Equal(t, config.BackendSQLite, b.Name)
	assert.Nil(t, b.DB)
	assert.NoError(t, b.Ping(context.Background()))

	items, total, err := b.Repo.List(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := storage.Open(context.Background(), &config.Config{Storage: config.StorageConfig{Backend: "mongo"}})
	assert.ErrorContains(t, err, `unknown storage backend "mongo"`)
}
