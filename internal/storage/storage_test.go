package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resale-console/internal/config"
	"resale-console/internal/storage/drivers"
)

func TestNew(t *testing.T) {
	d, err := New(context.Background(), config.StorageConfig{Type: "local", LocalBaseDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &drivers.LocalFS{}, d)

	_, err = New(context.Background(), config.StorageConfig{Type: "ftp"})
	assert.ErrorContains(t, err, "unsupported storage type")
}
