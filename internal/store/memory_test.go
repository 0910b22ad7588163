package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/carbonbuddy/internal/domain"
)

func TestInMemoryStoreAppendAndList(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "user-1", domain.ActivityEntry{ID: "a", Category: domain.CategoryTransport}))
	require.NoError(t, s.Append(ctx, "user-1", domain.ActivityEntry{ID: "b", Category: domain.CategoryFood}))
	require.NoError(t, s.Append(ctx, "user-2", domain.ActivityEntry{ID: "c"}))

	entries, err := s.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "a", entries[0].ID)
	require.Equal(t, "b", entries[1].ID)

	other, err := s.ListByUser(ctx, "user-2")
	require.NoError(t, err)
	require.Len(t, other, 1)
}

func TestInMemoryStoreUnknownUser(t *testing.T) {
	s := NewInMemoryStore()

	entries, err := s.ListByUser(context.Background(), "nobody")
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestInMemoryStoreListReturnsSnapshot(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, "user-1", domain.ActivityEntry{ID: "a"}))

	snapshot, err := s.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	snapshot[0].ID = "mutated"

	fresh, err := s.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, "a", fresh[0].ID)
}

func TestInMemoryStoreConcurrentAppends(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	const writers = 8
	const perWriter = 50
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				_ = s.Append(ctx, "user-1", domain.ActivityEntry{ID: fmt.Sprintf("%d-%d", w, i)})
			}
		}(w)
	}
	wg.Wait()

	entries, err := s.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, entries, writers*perWriter)
}
