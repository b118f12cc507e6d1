// Package cache holds resolved domain targets so repeated lookups skip the
// task backend.
package cache

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/ruteri/secret-dns/metrics"
)

// Config bounds the cache. The zero value keeps every entry forever.
type Config struct {
	// MaxEntries evicts the least recently used entry once exceeded. Zero is unbounded.
	MaxEntries int

	// TTL expires entries after they were stored. Zero disables expiry.
	TTL time.Duration
}

// Entry is one cached resolution as it appears in a snapshot.
type Entry struct {
	Key        string    `json:"key"`
	Value      string    `json:"value"`
	InsertedAt time.Time `json:"insertedAt"`
}

type item struct {
	value      string
	insertedAt time.Time
}

// Cache is safe for concurrent use. The last Put for a key wins.
type Cache struct {
	cfg     Config
	lru     *expirable.LRU[string, item]
	metrics *metrics.Metrics
}

func New(cfg Config, m *metrics.Metrics) *Cache {
	return &Cache{
		cfg:     cfg,
		lru:     expirable.NewLRU[string, item](cfg.MaxEntries, nil, cfg.TTL),
		metrics: m,
	}
}

func (c *Cache) Get(key string) (string, bool) {
	value, ok := c.lookup(key, c.lru.Get)
	c.metrics.CacheLookup(ok)
	return value, ok
}

// Peek is Get without touching recency or lookup metrics.
func (c *Cache) Peek(key string) (string, bool) {
	return c.lookup(key, c.lru.Peek)
}

// lookup applies the TTL from the time the value was first stored, which
// for entries restored from a snapshot predates Load.
func (c *Cache) lookup(key string, get func(string) (item, bool)) (string, bool) {
	it, ok := get(key)
	if !ok {
		return "", false
	}
	if c.expired(it, time.Now()) {
		c.lru.Remove(key)
		return "", false
	}
	return it.value, true
}

func (c *Cache) expired(it item, now time.Time) bool {
	return c.cfg.TTL > 0 && now.Sub(it.insertedAt) >= c.cfg.TTL
}

func (c *Cache) Put(key, value string) {
	c.lru.Add(key, item{value: value, insertedAt: time.Now()})
}

func (c *Cache) Remove(key string) {
	c.lru.Remove(key)
}

func (c *Cache) Len() int {
	return c.lru.Len()
}

// Entries returns the live entries ordered by key.
func (c *Cache) Entries() []Entry {
	keys := c.lru.Keys()
	entries := make([]Entry, 0, len(keys))
	for _, key := range keys {
		it, ok := c.lru.Peek(key)
		if !ok || c.expired(it, time.Now()) {
			continue
		}
		entries = append(entries, Entry{Key: key, Value: it.value, InsertedAt: it.insertedAt})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries
}

// Load adds entries, oldest first, and returns how many were kept. Entries
// already past the TTL and entries with an empty key or value are skipped.
// Loaded entries keep their InsertedAt, so they expire TTL after it rather
// than TTL after the load.
func (c *Cache) Load(entries []Entry) int {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].InsertedAt.Before(sorted[j].InsertedAt) })

	now := time.Now()
	loaded := 0
	for _, e := range sorted {
		if e.Key == "" || e.Value == "" {
			continue
		}
		if c.expired(item{insertedAt: e.InsertedAt}, now) {
			continue
		}
		c.lru.Add(e.Key, item{value: e.Value, insertedAt: e.InsertedAt})
		loaded++
	}
	return loaded
}

type snapshot struct {
	Version int     `json:"version"`
	Entries []Entry `json:"entries"`
}

const snapshotVersion = 1

// MarshalSnapshot serializes the live entries.
func (c *Cache) MarshalSnapshot() ([]byte, error) {
	return json.Marshal(snapshot{Version: snapshotVersion, Entries: c.Entries()})
}

// UnmarshalSnapshot loads a snapshot produced by MarshalSnapshot.
func (c *Cache) UnmarshalSnapshot(data []byte) (int, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return 0, fmt.Errorf("invalid cache snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return 0, fmt.Errorf("unsupported cache snapshot version %d", snap.Version)
	}
	return c.Load(snap.Entries), nil
}
