package file

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aevon-lab/statengine/internal/core/stats"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var revenueKey = stats.Key{Event: stats.EventTicketSale, Aggregate: stats.AggregateRevenue}

func revenue(s string) stats.Value {
	return stats.Revenue{Amount: decimal.RequireFromString(s)}
}

func TestPageStore_StoreRetrieve(t *testing.T) {
	ctx := context.Background()
	store := NewPageStore(t.TempDir())

	require.NoError(t, store.Store(ctx, 10, revenueKey, revenue("3.5")))
	require.NoError(t, store.Store(ctx, 11, revenueKey, revenue("4")))
	require.NoError(t, store.Store(ctx, 300, revenueKey, revenue("1")))

	got, err := store.Retrieve(ctx, 0, 1000, revenueKey)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.True(t, revenue("3.5").Equal(got[10]))
	require.True(t, revenue("4").Equal(got[11]))
	require.True(t, revenue("1").Equal(got[300]))

	got, err = store.Retrieve(ctx, 11, 299, revenueKey)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Contains(t, got, int64(11))
}

func TestPageStore_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	store := NewPageStore(t.TempDir())

	require.NoError(t, store.Store(ctx, 5, revenueKey, revenue("1")))
	require.NoError(t, store.Store(ctx, 5, revenueKey, revenue("2")))

	got, err := store.Retrieve(ctx, 5, 5, revenueKey)
	require.NoError(t, err)
	require.True(t, revenue("2").Equal(got[5]))
}

func TestPageStore_KeysAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := NewPageStore(t.TempDir())
	ridership := stats.Key{Event: stats.EventStationExit, Aggregate: stats.AggregateRidership}

	require.NoError(t, store.Store(ctx, 5, revenueKey, revenue("9")))
	require.NoError(t, store.Store(ctx, 5, ridership, stats.Ridership{Count: 12}))

	got, err := store.Retrieve(ctx, 5, 5, ridership)
	require.NoError(t, err)
	require.True(t, stats.Ridership{Count: 12}.Equal(got[5]))
}

func TestPageStore_FileLayout(t *testing.T) {
	dir := t.TempDir()
	store := NewPageStore(dir)

	require.NoError(t, store.Store(context.Background(), 3902389, revenueKey, revenue("1")))
	require.NoError(t, store.Store(context.Background(), -1, revenueKey, revenue("1")))

	_, err := os.Stat(filepath.Join(dir, "ticket_sale-revenue-15243.page"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "ticket_sale-revenue--1.page"))
	require.NoError(t, err)
}

func TestPageStore_AdjacentIndicesAcrossPageBoundary(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewPageStore(dir)

	require.NoError(t, store.Store(ctx, 255, revenueKey, revenue("1.5")))
	require.NoError(t, store.Store(ctx, 256, revenueKey, revenue("2.5")))

	pages, err := filepath.Glob(filepath.Join(dir, "ticket_sale-revenue-*.page"))
	require.NoError(t, err)
	require.ElementsMatch(t, []string{
		filepath.Join(dir, "ticket_sale-revenue-0.page"),
		filepath.Join(dir, "ticket_sale-revenue-1.page"),
	}, pages)

	got, err := store.Retrieve(ctx, 200, 300, revenueKey)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.True(t, revenue("1.5").Equal(got[255]))
	require.True(t, revenue("2.5").Equal(got[256]))
}

func TestPageStore_CorruptPageIsAMiss(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewPageStore(dir)

	path := filepath.Join(dir, "ticket_sale-revenue-0.page")
	require.NoError(t, os.WriteFile(path, []byte{0xde, 0xad}, 0o644))

	got, err := store.Retrieve(ctx, 0, 255, revenueKey)
	require.NoError(t, err)
	require.Empty(t, got)

	// A store over a corrupt page replaces it.
	require.NoError(t, store.Store(ctx, 7, revenueKey, revenue("2")))
	got, err = store.Retrieve(ctx, 0, 255, revenueKey)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestPageStore_Errors(t *testing.T) {
	ctx := context.Background()
	store := NewPageStore(t.TempDir())

	_, err := store.Retrieve(ctx, 9, 1, revenueKey)
	require.ErrorIs(t, err, stats.ErrInvalidRange)

	_, err = store.Retrieve(ctx, 0, 1, stats.Key{Event: stats.EventTicketSale, Aggregate: "profit"})
	require.ErrorIs(t, err, stats.ErrUnknownKind)

	err = store.Store(ctx, 1, revenueKey, stats.Ridership{Count: 1})
	require.Error(t, err)
}

func TestPageStore_WriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	store := NewPageStore(blocker)
	err := store.Store(context.Background(), 1, revenueKey, revenue("1"))
	require.ErrorIs(t, err, stats.ErrStorageWrite)
}

func TestPageStore_ConcurrentStoresSamePage(t *testing.T) {
	ctx := context.Background()
	store := NewPageStore(t.TempDir())

	var wg sync.WaitGroup
	for i := int64(0); i < 64; i++ {
		wg.Add(1)
		go func(idx int64) {
			defer wg.Done()
			assert.NoError(t, store.Store(ctx, idx, revenueKey, stats.Revenue{Amount: decimal.NewFromInt(idx)}))
		}(i)
	}
	wg.Wait()

	got, err := store.Retrieve(ctx, 0, 63, revenueKey)
	require.NoError(t, err)
	require.Len(t, got, 64)
	for i := int64(0); i < 64; i++ {
		require.True(t, decimal.NewFromInt(i).Equal(got[i].Number()))
	}
}
