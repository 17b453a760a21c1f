package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jasonpanggit/eol-agents/internal/applog"
	"github.com/jasonpanggit/eol-agents/internal/models"
)

// docPrefix, agentIndexPrefix and softwareIndexPrefix namespace the keys
// this package writes into a StorageProvider, so a single Redis database
// (or any other document-ish KV) can host the whole cache namespace
// without colliding with unrelated data.
const (
	docPrefix            = "doc:"
	allIndexKey          = "idx:all"
	agentIndexPrefix     = "idx:agent:"
	softwareIndexPrefix  = "idx:software:"
)

// Cache is the two-tier (in-process + persistent) cache layer.
type Cache struct {
	mem        *memoryTier
	store      StorageProvider // nil means memory-only (degraded mode)
	defaultTTL time.Duration
	logger     applog.Logger

	statsMu     sync.Mutex
	statsCache  *Stats
	statsAt     time.Time
	statsTTL    time.Duration
}

// Stats is the aggregate view the stats operation returns.
type Stats struct {
	Total         int            `json:"total"`
	Active        int            `json:"active"`
	Expired       int            `json:"expired"`
	PerAgentCount map[string]int `json:"per_agent_counts"`
}

// New constructs a Cache. store may be nil, in which case the cache runs
// memory-only and logs a warning rather than failing startup.
func New(store StorageProvider, defaultTTL time.Duration, logger applog.Logger) *Cache {
	if logger == nil {
		logger = applog.NoOp{}
	}
	if store == nil {
		logger.Warn("persistent cache store unavailable, running memory-only", nil)
	}
	return &Cache{
		mem:        newMemoryTier(5000, 5*time.Minute),
		store:      store,
		defaultTTL: defaultTTL,
		logger:     logger,
		statsTTL:   5 * time.Minute,
	}
}

// Degraded reports whether the persistent tier is unavailable.
func (c *Cache) Degraded() bool { return c.store == nil }

// Get reads memory first, then the persistent store (promoting a hit
// back into memory), returning nil on expiry, absence, or a row marked
// as a failed lookup.
func (c *Cache) Get(ctx context.Context, software, version, agent string) *models.Envelope {
	key := models.CacheKey(agent, software, version)
	now := time.Now()

	if entry, ok := c.mem.get(key, now); ok {
		env := entry.ResponseData
		return &env
	}

	if c.store == nil {
		return nil
	}

	entry, err := c.loadDoc(ctx, key)
	if err != nil {
		c.logger.Warn("persistent cache read failed", map[string]interface{}{"error": err.Error(), "key": key})
		return nil
	}
	if entry == nil {
		return nil
	}
	if !entry.Live(now) {
		// Lazy-delete the expired/failed row (best-effort).
		_ = c.deleteDoc(ctx, entry)
		return nil
	}

	c.mem.set(key, entry)
	env := entry.ResponseData
	return &env
}

// Put always persists (even low-confidence answers, so telemetry stays
// complete), then mirrors into memory. Persistent failures degrade to
// memory-only for this process and are logged, never raised to the caller.
func (c *Cache) Put(ctx context.Context, software, version, agent string, env models.Envelope, sourceURL string, verified bool, verificationStatus string) bool {
	key := models.CacheKey(agent, software, version)
	now := time.Now()
	entry := &models.CacheEntry{
		ID:                 key,
		CacheKey:           key,
		AgentName:          agent,
		SoftwareName:       software,
		Version:            version,
		ResponseData:       env,
		ConfidenceLevel:    env.Confidence,
		CreatedAt:          now,
		ExpiresAt:          now.Add(c.defaultTTL),
		SourceURL:          sourceURL,
		Verified:           verified,
		VerificationStatus: verificationStatus,
		MarkedAsFailed:     !env.Success,
	}

	persisted := c.storeDoc(ctx, entry)
	c.mem.set(key, entry)
	c.invalidateStatsCache()
	return persisted || true // memory tier always succeeds once reached here
}

// PutFailure records a negative lookup so repeated misses for the same key
// do not keep re-triggering expensive scrapes within the TTL window.
func (c *Cache) PutFailure(ctx context.Context, software, version, agent string, env models.Envelope) {
	c.Put(ctx, software, version, agent, env, "", false, "")
}

// Purge deletes documents matching an optional software and/or agent
// filter and returns the number of deleted documents.
func (c *Cache) Purge(ctx context.Context, software, agent string) int {
	keys := c.candidateKeysForPurge(ctx, software, agent)
	deleted := 0
	for _, key := range keys {
		entry, err := c.loadDoc(ctx, key)
		if err != nil || entry == nil {
			continue
		}
		if software != "" && !strings.EqualFold(entry.SoftwareName, software) {
			continue
		}
		if agent != "" && !strings.EqualFold(entry.AgentName, agent) {
			continue
		}
		c.mem.delete(key)
		_ = c.deleteDoc(ctx, entry)
		deleted++
	}
	c.invalidateStatsCache()
	return deleted
}

func (c *Cache) candidateKeysForPurge(ctx context.Context, software, agent string) []string {
	if c.store == nil {
		return nil
	}
	switch {
	case agent != "":
		keys, _ := c.store.Members(ctx, agentIndexPrefix+strings.ToLower(agent))
		return keys
	case software != "":
		keys, _ := c.store.Members(ctx, softwareIndexPrefix+strings.ToLower(software))
		return keys
	default:
		keys, _ := c.store.Members(ctx, allIndexKey)
		return keys
	}
}

// Stats returns aggregate cache counters, cached internally for 5 minutes
// to avoid thrashing the persistent store on every /stats request.
func (c *Cache) Stats(ctx context.Context) Stats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	if c.statsCache != nil && time.Since(c.statsAt) < c.statsTTL {
		return *c.statsCache
	}

	stats := Stats{PerAgentCount: make(map[string]int)}
	now := time.Now()

	if c.store != nil {
		keys, _ := c.store.Members(ctx, allIndexKey)
		for _, key := range keys {
			entry, err := c.loadDoc(ctx, key)
			if err != nil || entry == nil {
				continue
			}
			stats.Total++
			if entry.Live(now) {
				stats.Active++
				stats.PerAgentCount[entry.AgentName]++
			} else {
				stats.Expired++
			}
		}
	} else {
		stats.Total = c.mem.size()
		stats.Active = stats.Total
	}

	c.statsCache = &stats
	c.statsAt = now
	return stats
}

func (c *Cache) invalidateStatsCache() {
	c.statsMu.Lock()
	c.statsCache = nil
	c.statsMu.Unlock()
}

func (c *Cache) storeDoc(ctx context.Context, entry *models.CacheEntry) bool {
	if c.store == nil {
		return false
	}
	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.Warn("failed to marshal cache entry", map[string]interface{}{"error": err.Error()})
		return false
	}
	ttl := time.Until(entry.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Minute
	}
	if err := c.store.Set(ctx, docPrefix+entry.CacheKey, string(data), ttl); err != nil {
		c.logger.Warn("failed to persist cache entry", map[string]interface{}{"error": err.Error(), "key": entry.CacheKey})
		return false
	}
	score := float64(entry.CreatedAt.Unix())
	_ = c.store.AddToIndex(ctx, allIndexKey, score, entry.CacheKey)
	_ = c.store.AddToIndex(ctx, agentIndexPrefix+strings.ToLower(entry.AgentName), score, entry.CacheKey)
	_ = c.store.AddToIndex(ctx, softwareIndexPrefix+strings.ToLower(entry.SoftwareName), score, entry.CacheKey)
	return true
}

func (c *Cache) loadDoc(ctx context.Context, key string) (*models.CacheEntry, error) {
	if c.store == nil {
		return nil, nil
	}
	raw, err := c.store.Get(ctx, docPrefix+key)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}
	var entry models.CacheEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, fmt.Errorf("corrupt cache entry %s: %w", key, err)
	}
	return &entry, nil
}

func (c *Cache) deleteDoc(ctx context.Context, entry *models.CacheEntry) error {
	if c.store == nil {
		return nil
	}
	_ = c.store.Del(ctx, docPrefix+entry.CacheKey)
	_ = c.store.RemoveFromIndex(ctx, allIndexKey, entry.CacheKey)
	_ = c.store.RemoveFromIndex(ctx, agentIndexPrefix+strings.ToLower(entry.AgentName), entry.CacheKey)
	return c.store.RemoveFromIndex(ctx, softwareIndexPrefix+strings.ToLower(entry.SoftwareName), entry.CacheKey)
}

// MinConfidenceThreshold documents the source's historical write-path
// confidence gate for static-table entries (0.80). It is informational
// only — Put never rejects a write based on it; writes are unconditional.
const MinConfidenceThreshold = 0.80
