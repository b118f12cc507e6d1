package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruteri/secret-dns/metrics"
)

func TestCache_GetPut(t *testing.T) {
	c := New(Config{}, nil)

	_, ok := c.Get("testdomain")
	assert.False(t, ok)

	c.Put("testdomain", "na")
	c.Put("testdomain", "1.2.3.4")
	value, ok := c.Get("testdomain")
	assert.True(t, ok)
	assert.Equal(t, "1.2.3.4", value)
	assert.Equal(t, 1, c.Len())

	c.Remove("testdomain")
	_, ok = c.Get("testdomain")
	assert.False(t, ok)
}

func TestCache_Bounded(t *testing.T) {
	c := New(Config{MaxEntries: 2}, nil)
	c.Put("a", "1")
	c.Put("b", "2")
	c.Get("a")
	c.Put("c", "3")

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
}

func TestCache_TTL(t *testing.T) {
	c := New(Config{TTL: 30 * time.Millisecond}, nil)
	c.Put("a", "1")

	_, ok := c.Get("a")
	require.True(t, ok)

	assert.Eventually(t, func() bool {
		_, ok := c.Get("a")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestCache_Snapshot(t *testing.T) {
	c := New(Config{}, nil)
	c.Put("b", "2.2.2.2")
	c.Put("a", "example.org")

	data, err := c.MarshalSnapshot()
	require.NoError(t, err)

	restored := New(Config{}, nil)
	n, err := restored.UnmarshalSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	entries := restored.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Key)
	assert.Equal(t, "example.org", entries[0].Value)
	assert.Equal(t, "b", entries[1].Key)

	_, err = restored.UnmarshalSnapshot([]byte(`{"version":7}`))
	assert.Error(t, err)
	_, err = restored.UnmarshalSnapshot([]byte(`not json`))
	assert.Error(t, err)
}

func TestCache_LoadSkipsExpired(t *testing.T) {
	c := New(Config{TTL: time.Minute}, nil)
	n := c.Load([]Entry{
		{Key: "fresh", Value: "1.1.1.1", InsertedAt: time.Now()},
		{Key: "stale", Value: "2.2.2.2", InsertedAt: time.Now().Add(-time.Hour)},
		{Key: "empty", Value: "", InsertedAt: time.Now()},
	})
	assert.Equal(t, 1, n)

	_, ok := c.Get("stale")
	assert.False(t, ok)
}

func TestCache_Concurrent(t *testing.T) {
	c := New(Config{}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Put("shared", "x")
			c.Get("shared")
		}()
	}
	wg.Wait()

	value, ok := c.Get("shared")
	assert.True(t, ok)
	assert.Equal(t, "x", value)
}

func TestCache_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(Config{}, metrics.MustNewMetrics("test", reg))

	c.Get("a")
	c.Put("a", "1")
	c.Get("a")
	c.Get("a")

	assert.Equal(t, 2, testutil.CollectAndCount(reg, "test_cache_lookups_total"))
}

func TestCache_LoadKeepsInsertionTime(t *testing.T) {
	ttl := 200 * time.Millisecond
	c := New(Config{TTL: ttl}, nil)

	// Stored half a TTL ago: it must expire half a TTL after the load, not a full one.
	n := c.Load([]Entry{{Key: "restored", Value: "1.1.1.1", InsertedAt: time.Now().Add(-ttl / 2)}})
	require.Equal(t, 1, n)

	value, ok := c.Get("restored")
	require.True(t, ok)
	assert.Equal(t, "1.1.1.1", value)

	time.Sleep(ttl/2 + 20*time.Millisecond)
	_, ok = c.Get("restored")
	assert.False(t, ok)
	assert.Empty(t, c.Entries())
}

func lookups(t *testing.T, reg *prometheus.Registry, result string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != "test_cache_lookups_total" {
			continue
		}
		for _, m := range family.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetValue() == result {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestCache_PeekSkipsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(Config{}, metrics.MustNewMetrics("test", reg))

	c.Get("a")
	_, ok := c.Peek("a")
	assert.False(t, ok)

	c.Put("a", "1")
	value, ok := c.Peek("a")
	assert.True(t, ok)
	assert.Equal(t, "1", value)

	assert.Equal(t, float64(1), lookups(t, reg, "miss"))
	assert.Equal(t, float64(0), lookups(t, reg, "hit"))
}
