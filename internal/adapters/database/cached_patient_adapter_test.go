package database_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/careloop/medvisit/internal/adapters/database"
	"github.com/careloop/medvisit/internal/adapters/memory"
	"github.com/careloop/medvisit/internal/infrastructure/observability"
)

// fakeCache is an in-process CacheProvider for exercising the cached adapter
type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	gets    int
	hits    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}}
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if data, ok := c.entries[key]; ok {
		c.hits++
		return data, nil
	}
	return nil, errors.New("key not found: " + key)
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *fakeCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok, nil
}

func TestCachedPatientAdapter(t *testing.T) {
	ctx := context.Background()

	t.Run("second read is served from cache", func(t *testing.T) {
		cache := newFakeCache()
		adapter := database.NewCachedPatientAdapter(memory.NewPatientStore(), cache, nil)

		require.NoError(t, adapter.UpdateSymptoms(ctx, "123", "cough"))

		first, err := adapter.Get(ctx, "123")
		require.NoError(t, err)
		second, err := adapter.Get(ctx, "123")
		require.NoError(t, err)

		assert.Equal(t, first.Symptoms, second.Symptoms)
		assert.Equal(t, 1, cache.hits)
	})

	t.Run("absent records are not cached", func(t *testing.T) {
		cache := newFakeCache()
		adapter := database.NewCachedPatientAdapter(memory.NewPatientStore(), cache, nil)

		record, err := adapter.Get(ctx, "unknown")
		require.NoError(t, err)
		assert.Nil(t, record)
		assert.Empty(t, cache.entries)
	})

	t.Run("corrupt cache entry falls back to the store", func(t *testing.T) {
		cache := newFakeCache()
		adapter := database.NewCachedPatientAdapter(memory.NewPatientStore(), cache, nil)

		require.NoError(t, adapter.UpdateSymptoms(ctx, "123", "cough"))
		require.NoError(t, cache.Set(ctx, "patient:123", []byte("{not json"), 300))

		record, err := adapter.Get(ctx, "123")
		require.NoError(t, err)
		require.NotNil(t, record)
		assert.Equal(t, "cough", record.Symptoms)
	})

	t.Run("writes invalidate the cached record", func(t *testing.T) {
		cache := newFakeCache()
		adapter := database.NewCachedPatientAdapter(memory.NewPatientStore(), cache, nil)

		require.NoError(t, adapter.AppendMedications(ctx, "123", []string{"A"}))
		_, err := adapter.Get(ctx, "123") // primes the cache
		require.NoError(t, err)

		require.NoError(t, adapter.AppendMedications(ctx, "123", []string{"B"}))

		record, err := adapter.Get(ctx, "123")
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B"}, record.Medications)
	})

	t.Run("hits and misses are counted", func(t *testing.T) {
		reader := sdkmetric.NewManualReader()
		otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
		metrics, err := observability.InitMetrics()
		require.NoError(t, err)

		cache := newFakeCache()
		adapter := database.NewCachedPatientAdapter(memory.NewPatientStore(), cache, metrics)

		require.NoError(t, adapter.UpdateSymptoms(ctx, "123", "cough"))
		_, err = adapter.Get(ctx, "123") // miss, primes the cache
		require.NoError(t, err)
		_, err = adapter.Get(ctx, "123") // hit
		require.NoError(t, err)

		var rm metricdata.ResourceMetrics
		require.NoError(t, reader.Collect(ctx, &rm))

		counts := map[string]int64{}
		for _, scope := range rm.ScopeMetrics {
			for _, m := range scope.Metrics {
				if sum, ok := m.Data.(metricdata.Sum[int64]); ok && len(sum.DataPoints) == 1 {
					counts[m.Name] = sum.DataPoints[0].Value
				}
			}
		}
		assert.Equal(t, int64(1), counts["cache.hit.count"])
		assert.Equal(t, int64(1), counts["cache.miss.count"])
	})
}
