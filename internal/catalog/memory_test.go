package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SaveValidation(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	_, err := s.Save(context.Background(), Record{ID: "id-1"})
	require.Error(t, err)
	_, err = s.Save(context.Background(), Record{Identifier: "B0ABCDEFGH"})
	require.Error(t, err)
}

func TestMemoryStore_UpsertByIdentifier(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	first, err := s.Save(context.Background(), Record{ID: "id-1", Identifier: "B0ABCDEFGH", Title: "a"})
	require.NoError(t, err)
	second, err := s.Save(context.Background(), Record{ID: "id-2", Identifier: "B0ABCDEFGH", Title: "b"})
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	got, err := s.Get(context.Background(), "b0abcdefgh")
	require.NoError(t, err)
	require.Equal(t, "b", got.Title)
	require.Equal(t, "id-1", got.ID)
}
