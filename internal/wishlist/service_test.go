package wishlist

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	mu      sync.Mutex
	nextID  int64
	entries map[[2]int64]Entry
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, entries: map[[2]int64]Entry{}}
}

func (m *memoryRepo) Delete(_ context.Context, customerID, productID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]int64{customerID, productID}
	if _, ok := m.entries[key]; !ok {
		return false, nil
	}
	delete(m.entries, key)
	return true, nil
}

func (m *memoryRepo) Insert(_ context.Context, customerID, productID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]int64{customerID, productID}
	if _, ok := m.entries[key]; ok {
		return false, nil
	}
	m.entries[key] = Entry{ID: m.nextID, CustomerID: customerID, ProductID: productID}
	m.nextID++
	return true, nil
}

func (m *memoryRepo) ListForCustomer(_ context.Context, customerID int64) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := []Item{}
	for _, e := range m.entries {
		if e.CustomerID == customerID {
			items = append(items, Item{Entry: e})
		}
	}
	return items, nil
}

func (m *memoryRepo) DeleteByID(_ context.Context, customerID, entryID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, e := range m.entries {
		if e.ID == entryID && e.CustomerID == customerID {
			delete(m.entries, key)
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryRepo) Contains(_ context.Context, customerID int64, productIDs []int64) (map[int64]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := map[int64]bool{}
	for _, id := range productIDs {
		if _, ok := m.entries[[2]int64{customerID, id}]; ok {
			result[id] = true
		}
	}
	return result, nil
}

func TestToggleIsAnInvolution(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	result, err := svc.Toggle(ctx, 1, 42)
	require.NoError(t, err)
	require.Equal(t, Added, result)

	result, err = svc.Toggle(ctx, 1, 42)
	require.NoError(t, err)
	require.Equal(t, Removed, result)

	items, err := svc.List(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestToggleNeverDuplicates(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	var wg sync.WaitGroup
	errCh := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Toggle(ctx, 1, 7)
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	items, err := svc.List(ctx, 1)
	require.NoError(t, err)
	require.LessOrEqual(t, len(items), 1)
}

func TestRemoveOnlyOwnEntries(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Toggle(ctx, 1, 5)
	require.NoError(t, err)
	items, err := svc.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)

	removed, err := svc.Remove(ctx, 2, items[0].ID)
	require.NoError(t, err)
	require.False(t, removed)

	removed, err = svc.Remove(ctx, 1, items[0].ID)
	require.NoError(t, err)
	require.True(t, removed)
}

func TestSavedMarksWishlistedProducts(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Toggle(ctx, 3, 10)
	require.NoError(t, err)

	saved, err := svc.Saved(ctx, 3, []int64{10, 11})
	require.NoError(t, err)
	require.True(t, saved[10])
	require.False(t, saved[11])
}
