package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewStubObjectStorage(t *testing.T) {
	s := NewStubObjectStorage(nil)
	require.NotNil(t, s)
	require.NotNil(t, s.logger)
}

func TestStubObjectStorage_Archive(t *testing.T) {
	s := NewStubObjectStorage(zaptest.NewLogger(t))
	ctx := context.Background()

	t.Run("discards snapshot without error", func(t *testing.T) {
		err := s.Archive(ctx, "snapshots/2024-01-01/products.csv", []byte("id,title\n"), "text/csv")
		require.NoError(t, err)
	})

	t.Run("empty storage key", func(t *testing.T) {
		err := s.Archive(ctx, "", []byte("data"), "text/csv")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage key is required")
	})
}
