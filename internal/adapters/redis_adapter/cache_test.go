package redis_a_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redis_a "github.com/ammerola/kasir-be/internal/adapters/redis_adapter"
	"github.com/ammerola/kasir-be/internal/core/domain"
	"github.com/ammerola/kasir-be/test/helpers"
)

func newCache(t *testing.T) (*redis_a.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return redis_a.NewCache(client, 2*time.Minute, helpers.TestLogger()), mr
}

func TestCache_SetAndGet(t *testing.T) {
	ctx := context.Background()
	cache, _ := newCache(t)

	tests := []struct {
		name  string
		key   string
		value domain.ExpenseReport
	}{
		{
			name:  "stores_empty_report",
			key:   "report:expenses:empty",
			value: domain.ExpenseReport{TotalExpenses: decimal.Zero, Categories: []domain.ExpenseCategory{}},
		},
		{
			name: "stores_report_with_categories",
			key:  "report:expenses:filled",
			value: domain.ExpenseReport{
				Period:        domain.PeriodView{Start: "2024-03-01", End: "2024-03-31"},
				TotalExpenses: decimal.RequireFromString("250000"),
				Count:         2,
				Categories: []domain.ExpenseCategory{
					{Category: "listrik", Amount: decimal.RequireFromString("150000"), Count: 1, Percentage: 60},
					{Category: "air", Amount: decimal.RequireFromString("100000"), Count: 1, Percentage: 40},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, cache.Set(ctx, tt.key, tt.value))

			var got domain.ExpenseReport
			require.NoError(t, cache.Get(ctx, tt.key, &got))
			assert.Equal(t, tt.value.Period, got.Period)
			assert.True(t, tt.value.TotalExpenses.Equal(got.TotalExpenses))
			assert.Len(t, got.Categories, len(tt.value.Categories))
		})
	}
}

func TestCache_SetWithTTL(t *testing.T) {
	ctx := context.Background()
	cache, mr := newCache(t)

	require.NoError(t, cache.SetWithTTL(ctx, "ttl:test", "value", 100*time.Millisecond))

	var result string
	require.NoError(t, cache.Get(ctx, "ttl:test", &result))
	assert.Equal(t, "value", result)

	mr.FastForward(200 * time.Millisecond)

	err := cache.Get(ctx, "ttl:test", &result)
	assert.ErrorIs(t, err, redis_a.ErrCacheMiss)
}

func TestCache_DeletePattern(t *testing.T) {
	ctx := context.Background()
	cache, _ := newCache(t)

	keysToDelete := []string{
		"report:sales:2024-03-01:2024-03-31:all",
		"report:profit_loss:2024-03-01:2024-03-31:all",
	}
	keysToKeep := []string{"job:123", "export:xlsx:abc"}

	for _, key := range append(keysToDelete, keysToKeep...) {
		require.NoError(t, cache.Set(ctx, key, "value"))
	}

	require.NoError(t, cache.DeletePattern(ctx, "report:*"))

	for _, key := range keysToDelete {
		var result string
		assert.ErrorIs(t, cache.Get(ctx, key, &result), redis_a.ErrCacheMiss)
	}
	for _, key := range keysToKeep {
		var result string
		require.NoError(t, cache.Get(ctx, key, &result))
	}
}

func TestCache_DeletePattern_NoMatches(t *testing.T) {
	cache, _ := newCache(t)
	assert.NoError(t, cache.DeletePattern(context.Background(), "report:*"))
}

func TestCache_GetOrSet(t *testing.T) {
	ctx := context.Background()
	cache, _ := newCache(t)

	fetchCount := 0
	fetch := func() (interface{}, error) {
		fetchCount++
		return domain.StockReport{TotalStock: 42}, nil
	}

	var first domain.StockReport
	require.NoError(t, cache.GetOrSet(ctx, "report:stock", &first, fetch, time.Minute))
	assert.Equal(t, 42, first.TotalStock)

	var second domain.StockReport
	require.NoError(t, cache.GetOrSet(ctx, "report:stock", &second, fetch, time.Minute))
	assert.Equal(t, 42, second.TotalStock)
	assert.Equal(t, 1, fetchCount)

	stats := cache.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRate, 0.001)
}

func TestCache_GetOrSet_FetchError(t *testing.T) {
	cache, _ := newCache(t)
	sourceErr := errors.New("source down")

	var dest domain.StockReport
	err := cache.GetOrSet(context.Background(), "report:stock", &dest,
		func() (interface{}, error) { return nil, sourceErr }, time.Minute)

	assert.ErrorIs(t, err, sourceErr)
	exists, err := cache.Exists(context.Background(), "report:stock")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCache_GetOrSet_RedisDown(t *testing.T) {
	cache, mr := newCache(t)
	mr.Close()

	var dest domain.StockReport
	err := cache.GetOrSet(context.Background(), "report:stock", &dest,
		func() (interface{}, error) { return domain.StockReport{LowStockCount: 3}, nil }, time.Minute)

	require.NoError(t, err)
	assert.Equal(t, 3, dest.LowStockCount)
}

func TestCache_SetNX(t *testing.T) {
	ctx := context.Background()
	cache, _ := newCache(t)

	ok, err := cache.SetNX(ctx, "setnx:test", "first", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cache.SetNX(ctx, "setnx:test", "second", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	ttl, err := cache.TTL(ctx, "setnx:test")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, ttl)
}

func TestCache_BuildKey(t *testing.T) {
	tests := []struct {
		name     string
		prefix   redis_a.CacheKeyPrefix
		parts    []string
		expected string
	}{
		{
			name:     "report_key",
			prefix:   redis_a.PrefixReport,
			parts:    []string{"sales", "2024-03-01", "2024-03-31", "all"},
			expected: "report:sales:2024-03-01:2024-03-31:all",
		},
		{
			name:     "job_key",
			prefix:   redis_a.PrefixJob,
			parts:    []string{"abc"},
			expected: "job:abc",
		},
		{
			name:     "no_parts",
			prefix:   redis_a.PrefixExport,
			parts:    []string{},
			expected: "export",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, redis_a.BuildKey(tt.prefix, tt.parts...))
		})
	}
}
