package service

import (
	"github.com/alexanderramin/neuron/internal/domain"
	"github.com/coocood/freecache"
	json "github.com/goccy/go-json"
)

// StatsCache holds computed statistics per calendar day. Any write to the
// store clears it.
type StatsCache interface {
	Get(day string) (*domain.Statistics, bool)
	Set(day string, s *domain.Statistics)
	Clear()
}

const (
	statsKeyPrefix = "stats:"
	// A day-keyed entry is useless after the day ends.
	statsTTLSeconds = 24 * 60 * 60
)

type freeStatsCache struct {
	cache *freecache.Cache
}

// NewFreeStatsCache allocates a freecache of sizeMB megabytes. freecache
// enforces a 512KB floor.
func NewFreeStatsCache(sizeMB int) StatsCache {
	if sizeMB <= 0 {
		sizeMB = 1
	}
	return &freeStatsCache{cache: freecache.NewCache(sizeMB * 1024 * 1024)}
}

func (c *freeStatsCache) Get(day string) (*domain.Statistics, bool) {
	raw, err := c.cache.Get([]byte(statsKeyPrefix + day))
	if err != nil {
		return nil, false
	}
	var s domain.Statistics
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false
	}
	return &s, true
}

func (c *freeStatsCache) Set(day string, s *domain.Statistics) {
	raw, err := json.Marshal(s)
	if err != nil {
		return
	}
	// Entries larger than 1/1024 of the cache are rejected; stats just go
	// uncached then.
	_ = c.cache.Set([]byte(statsKeyPrefix+day), raw, statsTTLSeconds)
}

func (c *freeStatsCache) Clear() {
	c.cache.Clear()
}

// NoopStatsCache never holds anything.
type NoopStatsCache struct{}

func (NoopStatsCache) Get(string) (*domain.Statistics, bool) { return nil, false }
func (NoopStatsCache) Set(string, *domain.Statistics)        {}
func (NoopStatsCache) Clear()                                {}
