package apache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jasonpanggit/eol-agents/internal/applog"
	"github.com/jasonpanggit/eol-agents/internal/cache"
	"github.com/jasonpanggit/eol-agents/internal/models"
)

func newTestAgent() *Agent {
	c := cache.New(nil, time.Hour, applog.NoOp{})
	return New(c, applog.NoOp{}, 5*time.Second)
}

func TestIsRelevantMatchesKnownProductKeywords(t *testing.T) {
	a := newTestAgent()
	assert.True(t, a.IsRelevant("Apache Tomcat"))
	assert.True(t, a.IsRelevant("kafka"))
	assert.False(t, a.IsRelevant("nginx"))
}

func TestGetEOLDataResolvesFromStaticTable(t *testing.T) {
	a := newTestAgent()
	env := a.GetEOLData(context.Background(), "Apache Tomcat", "10.1.16")

	require.True(t, env.Success)
	assert.Equal(t, "apache", env.AgentUsed)
	assert.Equal(t, models.DataSourceStatic, env.DataSource)
	assert.Equal(t, "2027-12-31", env.EOLDate.String())
}

func TestGetEOLDataSecondCallIsServedFromCache(t *testing.T) {
	a := newTestAgent()
	ctx := context.Background()

	first := a.GetEOLData(ctx, "Apache Kafka", "3.6")
	require.True(t, first.Success)

	second := a.GetEOLData(ctx, "Apache Kafka", "3.6")
	require.True(t, second.Success)
	assert.Equal(t, first.EOLDate, second.EOLDate)
	assert.Equal(t, models.DataSourceStatic, second.DataSource, "the memory tier returns the stored envelope unchanged")
}

func TestGetEOLDataReturnsFailureForUnknownProduct(t *testing.T) {
	a := newTestAgent()
	env := a.GetEOLData(context.Background(), "Apache Zookeeper Oddball", "99.0")

	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, models.ErrNoDataFound, env.Error.Code)
}

func TestPurgeCacheIsANoOpWithoutAPersistentStore(t *testing.T) {
	a := newTestAgent()
	ctx := context.Background()

	a.GetEOLData(ctx, "Apache Maven", "3.9")
	// Purge walks the persistent store's indexes to find candidate keys;
	// a memory-only agent (nil StorageProvider) has nothing to enumerate.
	purged := a.PurgeCache(ctx, "Apache Maven")
	assert.Equal(t, 0, purged)
}
