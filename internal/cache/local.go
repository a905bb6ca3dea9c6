package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// entry is the envelope stored in either tier. An entry is live while
// now < created_at+ttl and stale-but-retrievable while
// now < created_at+ttl+stale_grace.
type entry struct {
	Data       []byte        `json:"data"`
	CreatedAt  time.Time     `json:"created_at"`
	TTL        time.Duration `json:"ttl"`
	StaleGrace time.Duration `json:"stale_grace"`
}

func (e *entry) live(now time.Time) bool {
	return now.Before(e.CreatedAt.Add(e.TTL))
}

func (e *entry) retrievable(now time.Time) bool {
	return now.Before(e.CreatedAt.Add(e.TTL + e.StaleGrace))
}

// localCache is the bounded in-process tier. Capacity pressure evicts in
// LRU order; expired entries stay retrievable for stale reads until evicted
// or explicitly removed.
type localCache struct {
	entries *lru.Cache[string, *entry]
}

func newLocalCache(maxEntries int) (*localCache, error) {
	entries, err := lru.New[string, *entry](maxEntries)
	if err != nil {
		return nil, err
	}
	return &localCache{entries: entries}, nil
}

// get returns the entry for key if it is still retrievable, marking it
// recently used. Entries past the stale grace window are dropped.
func (lc *localCache) get(key string, now time.Time) (*entry, bool) {
	e, ok := lc.entries.Get(key)
	if !ok {
		return nil, false
	}
	if !e.retrievable(now) {
		lc.entries.Remove(key)
		return nil, false
	}
	return e, true
}

// set inserts or replaces the entry, reporting whether a capacity eviction
// occurred.
func (lc *localCache) set(key string, e *entry) bool {
	return lc.entries.Add(key, e)
}

func (lc *localCache) delete(key string) {
	lc.entries.Remove(key)
}

func (lc *localCache) keys() []string {
	return lc.entries.Keys()
}

func (lc *localCache) len() int {
	return lc.entries.Len()
}

func (lc *localCache) purge() {
	lc.entries.Purge()
}
