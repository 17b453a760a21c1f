package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jasonpanggit/eol-agents/internal/agents"
	"github.com/jasonpanggit/eol-agents/internal/inventory"
	"github.com/jasonpanggit/eol-agents/internal/models"
)

func TestLookupBatchPreservesOrderAndCountsOutcomes(t *testing.T) {
	ubuntu := &stubAgent{name: "ubuntu", relevant: func(s string) bool { return s == "ubuntu" }, envelope: newSuccessEnvelope("ubuntu", "2030-01-01")}
	fallback := &stubAgent{name: "fallback", relevant: alwaysFalse}
	o := New([]agents.Agent{ubuntu}, nil, fallback, nil)

	source := &inventory.MockSource{Records: []inventory.Record{
		{SoftwareName: "ubuntu", Computer: "host-1", LastSeen: time.Now()},
		{SoftwareName: "ZyxelWidget-2024", Computer: "host-2", LastSeen: time.Now()},
		{SoftwareName: "ubuntu", Computer: "host-3", LastSeen: time.Now()},
	}}

	items, summary, err := LookupBatch(context.Background(), o, source, 2)
	require.NoError(t, err)
	require.Len(t, items, 3)

	for i, item := range items {
		assert.Equal(t, i, item.Index)
		assert.Equal(t, source.Records[i].Computer, item.Record.Computer)
	}
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
}

func TestLookupBatchSummaryCountsEOLAndRiskLevels(t *testing.T) {
	criticalEOL := time.Now().AddDate(0, 0, 30).Format("2006-01-02")
	highEOL := time.Now().AddDate(0, 6, 0).Format("2006-01-02")

	critical := &stubAgent{name: "critical", relevant: func(s string) bool { return s == "critical" }, envelope: newSuccessEnvelope("critical", criticalEOL)}
	high := &stubAgent{name: "high", relevant: func(s string) bool { return s == "high" }, envelope: newSuccessEnvelope("high", highEOL)}
	fallback := &stubAgent{name: "fallback", relevant: alwaysFalse}
	o := New([]agents.Agent{critical, high}, nil, fallback, nil)

	source := &inventory.MockSource{Records: []inventory.Record{
		{SoftwareName: "critical", Computer: "host-1", LastSeen: time.Now()},
		{SoftwareName: "high", Computer: "host-2", LastSeen: time.Now()},
		{SoftwareName: "UnknownThing-2024", Computer: "host-3", LastSeen: time.Now()},
	}}

	_, summary, err := LookupBatch(context.Background(), o, source, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.ItemsWithEOL)
	assert.Equal(t, 1, summary.CriticalItems)
	assert.Equal(t, 1, summary.HighRiskItems)
}

func TestLookupBatchPropagatesSourceError(t *testing.T) {
	fallback := &stubAgent{name: "fallback", relevant: alwaysFalse}
	o := New(nil, nil, fallback, nil)
	source := &inventory.MockSource{Err: assertError{}}

	_, _, err := LookupBatch(context.Background(), o, source, 0)
	require.Error(t, err)
}

func TestLookupBatchFillsCancelledSlotsWhenContextExpires(t *testing.T) {
	fallback := &stubAgent{name: "fallback", relevant: alwaysFalse, envelope: newSuccessEnvelope("fallback", "2030-01-01")}
	o := New(nil, nil, fallback, nil)

	records := make([]inventory.Record, 10)
	for i := range records {
		records[i] = inventory.Record{SoftwareName: "widget", Computer: "host", LastSeen: time.Now()}
	}
	// ignoresCancellationSource lists successfully regardless of ctx state,
	// isolating the assertion to the semaphore-acquire cancellation path
	// inside LookupBatch rather than the upfront source.List call.
	source := ignoresCancellationSource{records: records}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items, summary, err := LookupBatch(ctx, o, source, 1)
	require.NoError(t, err)
	require.Len(t, items, 10)
	assert.Equal(t, 10, summary.Total)
	for i, item := range items {
		assert.Equal(t, i, item.Index)
		assert.False(t, item.Result.Envelope.Success)
		assert.Equal(t, models.ErrAgentException, item.Result.Envelope.Error.Code)
	}
}

type assertError struct{}

func (assertError) Error() string { return "source unavailable" }

type ignoresCancellationSource struct {
	records []inventory.Record
}

func (s ignoresCancellationSource) List(context.Context) ([]inventory.Record, error) {
	return s.records, nil
}
