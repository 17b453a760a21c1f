package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCollectorRecordRequestAggregates(t *testing.T) {
	c := NewCollector()
	c.RecordRequest("ubuntu", "https://example.com/ubuntu", true, true, 10*time.Millisecond)
	c.RecordRequest("ubuntu", "https://example.com/ubuntu", false, true, 30*time.Millisecond)
	c.RecordRequest("ubuntu", "https://example.com/ubuntu", false, false, 20*time.Millisecond)

	snap := c.Snapshot()
	agent := snap.Agents["ubuntu"]
	assert.Equal(t, int64(3), agent.Requests)
	assert.Equal(t, int64(1), agent.CacheHits)
	assert.Equal(t, int64(2), agent.CacheMisses)
	assert.Equal(t, int64(1), agent.Errors)
	assert.InDelta(t, 10.0, agent.LatencyMinMs, 0.01)
	assert.InDelta(t, 30.0, agent.LatencyMaxMs, 0.01)
	assert.InDelta(t, 20.0, agent.AvgLatencyMs(), 0.01)

	url := snap.URLs["https://example.com/ubuntu"]
	assert.Equal(t, int64(3), url.Requests)
	assert.Equal(t, int64(1), url.Errors)

	assert.Len(t, snap.Recent, 3)
}

func TestCollectorRecentActivityRingBufferBounded(t *testing.T) {
	c := NewCollector()
	for i := 0; i < recentActivityCapacity+10; i++ {
		c.RecordRequest("redhat", "", true, true, time.Millisecond)
	}
	snap := c.Snapshot()
	assert.Len(t, snap.Recent, recentActivityCapacity)
}

func TestCollectorReset(t *testing.T) {
	c := NewCollector()
	c.RecordRequest("apache", "", true, true, time.Millisecond)
	c.Reset()
	snap := c.Snapshot()
	assert.Empty(t, snap.Agents)
	assert.Empty(t, snap.Recent)
}

func TestCollectorSnapshotDeterministicOrdering(t *testing.T) {
	c := NewCollector()
	c.RecordRequest("zzz-agent", "", true, true, time.Millisecond)
	c.RecordRequest("aaa-agent", "", true, true, time.Millisecond)
	c.RecordRequest("mmm-agent", "", true, true, time.Millisecond)

	first := c.Snapshot()
	second := c.Snapshot()
	assert.Equal(t, first.Agents, second.Agents)
}
