package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"

	"github.com/wajahat01/NeuroLab-360-sub001/pkg/config"
	"github.com/wajahat01/NeuroLab-360-sub001/pkg/logging"
	"github.com/wajahat01/NeuroLab-360-sub001/pkg/metrics"
)

const (
	tierLocal  = "local"
	tierRemote = "remote"
)

// Stats is a point-in-time snapshot of cache counters
type Stats struct {
	Hits          int64   `json:"hits"`
	Misses        int64   `json:"misses"`
	Evictions     int64   `json:"evictions"`
	HitRate       float64 `json:"hit_rate"`
	LocalEntries  int     `json:"local_entries"`
	RemoteEnabled bool    `json:"remote_enabled"`
}

// Service is the two-tier cache. The local tier is a bounded in-process LRU;
// the remote tier is optional and shared across instances. Every remote
// failure is absorbed: reads degrade to misses and writes to local-only, so
// a cache outage never propagates to callers.
type Service struct {
	local  *localCache
	remote RemoteBackend

	defaultTTL time.Duration
	staleGrace time.Duration
	keyPrefix  string

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64

	metrics *metrics.Metrics
	logger  *logging.Logger

	now func() time.Time
}

// NewService creates the two-tier cache. remote may be nil for a local-only
// deployment.
func NewService(cfg *config.CacheConfig, remote RemoteBackend, m *metrics.Metrics) (*Service, error) {
	local, err := newLocalCache(cfg.MaxEntries)
	if err != nil {
		return nil, err
	}

	return &Service{
		local:      local,
		remote:     remote,
		defaultTTL: cfg.DefaultTTL,
		staleGrace: cfg.StaleGrace,
		keyPrefix:  cfg.KeyPrefix,
		metrics:    m,
		logger:     logging.GetLogger().WithComponent("cache"),
		now:        time.Now,
	}, nil
}

// Get retrieves a live value into dest. It reports false on a miss, on an
// expired entry, or when unmarshalling fails; the remote tier backfills the
// local tier on a hit.
func (s *Service) Get(ctx context.Context, key string, dest interface{}) bool {
	now := s.now()

	if e, ok := s.local.get(key, now); ok && e.live(now) {
		if err := json.Unmarshal(e.Data, dest); err == nil {
			s.recordHit(tierLocal)
			return true
		}
		s.local.delete(key)
	}

	e, ok := s.remoteGet(ctx, key)
	if ok && e.live(now) {
		if err := json.Unmarshal(e.Data, dest); err == nil {
			s.backfillLocal(key, e)
			s.recordHit(tierRemote)
			return true
		}
	}

	s.recordMiss()
	return false
}

// GetStale retrieves a value that is either live or within its stale grace
// window. The second return reports whether the entry had already expired;
// callers use stale data only when the primary store is unreachable.
func (s *Service) GetStale(ctx context.Context, key string, dest interface{}) (found bool, stale bool) {
	now := s.now()

	if e, ok := s.local.get(key, now); ok {
		if err := json.Unmarshal(e.Data, dest); err == nil {
			s.recordHit(tierLocal)
			return true, !e.live(now)
		}
		s.local.delete(key)
	}

	if e, ok := s.remoteGet(ctx, key); ok && e.retrievable(now) {
		if err := json.Unmarshal(e.Data, dest); err == nil {
			s.backfillLocal(key, e)
			s.recordHit(tierRemote)
			return true, !e.live(now)
		}
	}

	s.recordMiss()
	return false, false
}

// Set stores a value in both tiers. A ttl of zero uses the configured
// default. Serialization failures and remote failures are absorbed; the
// value lands in as many tiers as currently work.
func (s *Service) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("Failed to serialize cache value", "key", key, "error", err.Error())
		return
	}

	e := &entry{
		Data:       data,
		CreatedAt:  s.now(),
		TTL:        ttl,
		StaleGrace: s.staleGrace,
	}

	if s.local.set(key, e) {
		s.evictions.Add(1)
		if s.metrics != nil && s.metrics.CacheEvictions != nil {
			s.metrics.CacheEvictions.Inc()
		}
	}
	s.updateEntriesGauge()

	if s.remote == nil {
		return
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return
	}
	// Remote expiry covers the stale window so stale reads work across
	// instances.
	if err := s.remote.Set(ctx, s.remoteKey(key), payload, ttl+s.staleGrace); err != nil {
		s.logger.Warn("Remote cache set failed", "key", key, "error", err.Error())
	}
}

// Delete removes a key from both tiers
func (s *Service) Delete(ctx context.Context, key string) {
	s.local.delete(key)
	s.updateEntriesGauge()

	if s.remote == nil {
		return
	}
	if err := s.remote.Delete(ctx, s.remoteKey(key)); err != nil {
		s.logger.Warn("Remote cache delete failed", "key", key, "error", err.Error())
	}
}

// ClearPattern removes every key matching pattern from both tiers and
// returns the number of local entries removed. Patterns are exact strings,
// a prefix with a trailing "*", or a suffix with a leading "*".
func (s *Service) ClearPattern(ctx context.Context, pattern string) int {
	removed := 0
	for _, key := range s.local.keys() {
		if matchPattern(pattern, key) {
			s.local.delete(key)
			removed++
		}
	}
	s.updateEntriesGauge()

	if s.remote != nil {
		if _, err := s.remote.DeletePattern(ctx, s.remoteKey(pattern)); err != nil {
			s.logger.Warn("Remote cache pattern delete failed", "pattern", pattern, "error", err.Error())
		}
	}

	return removed
}

// Clear empties the local tier and removes all prefixed remote keys
func (s *Service) Clear(ctx context.Context) {
	s.local.purge()
	s.updateEntriesGauge()

	if s.remote != nil {
		if _, err := s.remote.DeletePattern(ctx, s.remoteKey("*")); err != nil {
			s.logger.Warn("Remote cache clear failed", "error", err.Error())
		}
	}
}

// Stats returns a snapshot of the cache counters
func (s *Service) Stats() Stats {
	hits := s.hits.Load()
	misses := s.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return Stats{
		Hits:          hits,
		Misses:        misses,
		Evictions:     s.evictions.Load(),
		HitRate:       hitRate,
		LocalEntries:  s.local.len(),
		RemoteEnabled: s.remote != nil,
	}
}

// HealthCheck probes the remote tier; a local-only cache is always healthy
func (s *Service) HealthCheck(ctx context.Context) error {
	if s.remote == nil {
		return nil
	}
	return s.remote.Ping(ctx)
}

func (s *Service) remoteGet(ctx context.Context, key string) (*entry, bool) {
	if s.remote == nil {
		return nil, false
	}

	payload, err := s.remote.Get(ctx, s.remoteKey(key))
	if err != nil {
		if err != ErrRemoteMiss {
			s.logger.Warn("Remote cache get failed", "key", key, "error", err.Error())
		}
		return nil, false
	}

	var e entry
	if err := json.Unmarshal(payload, &e); err != nil {
		s.logger.Warn("Remote cache entry corrupt", "key", key, "error", err.Error())
		return nil, false
	}
	return &e, true
}

func (s *Service) backfillLocal(key string, e *entry) {
	if s.local.set(key, e) {
		s.evictions.Add(1)
		if s.metrics != nil && s.metrics.CacheEvictions != nil {
			s.metrics.CacheEvictions.Inc()
		}
	}
	s.updateEntriesGauge()
}

func (s *Service) remoteKey(key string) string {
	if s.keyPrefix == "" {
		return key
	}
	return s.keyPrefix + ":" + key
}

func (s *Service) recordHit(tier string) {
	s.hits.Add(1)
	if s.metrics != nil {
		s.metrics.RecordCacheHit(tier)
	}
}

func (s *Service) recordMiss() {
	s.misses.Add(1)
	if s.metrics != nil {
		s.metrics.RecordCacheMiss(tierLocal)
	}
}

func (s *Service) updateEntriesGauge() {
	if s.metrics != nil && s.metrics.CacheEntries != nil {
		s.metrics.CacheEntries.Set(float64(s.local.len()))
	}
}

// matchPattern reports whether key matches pattern. A trailing "*" matches
// any suffix, a leading "*" matches any prefix, anything else matches
// exactly.
func matchPattern(pattern, key string) bool {
	switch {
	case strings.HasSuffix(pattern, "*"):
		return strings.HasPrefix(key, strings.TrimSuffix(pattern, "*"))
	case strings.HasPrefix(pattern, "*"):
		return strings.HasSuffix(key, strings.TrimPrefix(pattern, "*"))
	default:
		return pattern == key
	}
}
