// Package telemetry implements per-agent and per-URL request counters
// for the /stats endpoint, plus an OpenTelemetry pipeline that mirrors
// the same measurements for external collection. The OTel half caches
// its instruments the way go.opentelemetry.io/otel examples do; the
// counters half is a plain lock-guarded in-memory accumulator.
package telemetry

import (
	"sort"
	"sync"
	"time"
)

const recentActivityCapacity = 100

// AgentCounters is the per-agent view exposed through /stats.
type AgentCounters struct {
	Requests    int64   `json:"requests"`
	CacheHits   int64   `json:"cache_hits"`
	CacheMisses int64   `json:"cache_misses"`
	Errors      int64   `json:"errors"`
	LatencyMinMs float64 `json:"latency_min_ms"`
	LatencyMaxMs float64 `json:"latency_max_ms"`
	LatencySumMs float64 `json:"latency_sum_ms"`
}

// AvgLatencyMs returns the mean recorded latency, or 0 if no requests.
func (a AgentCounters) AvgLatencyMs() float64 {
	if a.Requests == 0 {
		return 0
	}
	return a.LatencySumMs / float64(a.Requests)
}

// URLCounters is the per-URL view, keyed by the exact URL an agent fetched.
type URLCounters struct {
	Requests int64 `json:"requests"`
	Errors   int64 `json:"errors"`
}

// Activity is one entry in the bounded recent-activity ring buffer.
type Activity struct {
	Timestamp  time.Time `json:"timestamp"`
	Agent      string    `json:"agent"`
	URL        string    `json:"url,omitempty"`
	CacheHit   bool      `json:"cache_hit"`
	Success    bool      `json:"success"`
	DurationMs float64   `json:"duration_ms"`
}

// Collector accumulates counters in memory for the lifetime of the
// process. A single mutex guards every field; at the request volumes this
// service handles (tens of requests per second) lock contention is not
// a concern, and a single lock sidesteps the ordering hazards a
// per-agent lock scheme would introduce.
type Collector struct {
	mu     sync.Mutex
	agents map[string]*AgentCounters
	urls   map[string]*URLCounters
	recent []Activity
	head   int
	full   bool
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{
		agents: make(map[string]*AgentCounters),
		urls:   make(map[string]*URLCounters),
		recent: make([]Activity, recentActivityCapacity),
	}
}

// RecordRequest updates every counter affected by one agent invocation.
func (c *Collector) RecordRequest(agent, url string, cacheHit, success bool, duration time.Duration) {
	ms := float64(duration.Microseconds()) / 1000.0

	c.mu.Lock()
	defer c.mu.Unlock()

	ac, ok := c.agents[agent]
	if !ok {
		ac = &AgentCounters{LatencyMinMs: ms}
		c.agents[agent] = ac
	}
	ac.Requests++
	if cacheHit {
		ac.CacheHits++
	} else {
		ac.CacheMisses++
	}
	if !success {
		ac.Errors++
	}
	if ac.Requests == 1 || ms < ac.LatencyMinMs {
		ac.LatencyMinMs = ms
	}
	if ms > ac.LatencyMaxMs {
		ac.LatencyMaxMs = ms
	}
	ac.LatencySumMs += ms

	if url != "" {
		uc, ok := c.urls[url]
		if !ok {
			uc = &URLCounters{}
			c.urls[url] = uc
		}
		uc.Requests++
		if !success {
			uc.Errors++
		}
	}

	c.recent[c.head] = Activity{
		Timestamp:  time.Now(),
		Agent:      agent,
		URL:        url,
		CacheHit:   cacheHit,
		Success:    success,
		DurationMs: ms,
	}
	c.head = (c.head + 1) % recentActivityCapacity
	if c.head == 0 {
		c.full = true
	}
}

// Snapshot is the read-only view returned by /stats.
type Snapshot struct {
	Agents map[string]AgentCounters `json:"agents"`
	URLs   map[string]URLCounters   `json:"urls"`
	Recent []Activity               `json:"recent_activity"`
}

// Snapshot copies current counters out. Map keys are walked in sorted
// (alphabetical) order while building the copy so two Snapshot calls over
// an unchanging Collector always serialize identically.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	agents := make(map[string]AgentCounters, len(c.agents))
	for _, name := range sortedKeys(c.agents) {
		agents[name] = *c.agents[name]
	}
	urls := make(map[string]URLCounters, len(c.urls))
	for _, u := range sortedKeysURL(c.urls) {
		urls[u] = *c.urls[u]
	}

	var recent []Activity
	if c.full {
		recent = append(recent, c.recent[c.head:]...)
		recent = append(recent, c.recent[:c.head]...)
	} else {
		recent = append(recent, c.recent[:c.head]...)
	}

	return Snapshot{Agents: agents, URLs: urls, Recent: recent}
}

// Reset clears all counters and the activity buffer.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.agents = make(map[string]*AgentCounters)
	c.urls = make(map[string]*URLCounters)
	c.recent = make([]Activity, recentActivityCapacity)
	c.head = 0
	c.full = false
}

func sortedKeys(m map[string]*AgentCounters) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeysURL(m map[string]*URLCounters) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
