package orchestrator

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jasonpanggit/eol-agents/internal/agents"
	"github.com/jasonpanggit/eol-agents/internal/models"
)

// stubAgent is a minimal agents.Agent implementation for routing and
// scoring tests that never needs a real cache, HTTP client, or browser.
type stubAgent struct {
	name      string
	relevant  func(string) bool
	envelope  models.Envelope
	callCount int
}

func (s *stubAgent) Name() string                  { return s.name }
func (s *stubAgent) IsRelevant(name string) bool    { return s.relevant(name) }
func (s *stubAgent) URLs() []models.URLInfo         { return nil }
func (s *stubAgent) PurgeCache(context.Context, string) int { return 0 }
func (s *stubAgent) GetEOLData(ctx context.Context, softwareName, version string) models.Envelope {
	s.callCount++
	return s.envelope
}

func alwaysTrue(string) bool  { return true }
func alwaysFalse(string) bool { return false }

func newSuccessEnvelope(agent, eolDate string) models.Envelope {
	eol, _ := models.ParseDate(eolDate)
	return models.Envelope{Success: true, AgentUsed: agent, EOLDate: eol}
}

func TestLookupRoutesByVendorKeywordAndShortCircuits(t *testing.T) {
	ubuntu := &stubAgent{name: "ubuntu", relevant: func(s string) bool { return s == "ubuntu" }, envelope: newSuccessEnvelope("ubuntu", "2030-04-23")}
	apache := &stubAgent{name: "apache", relevant: alwaysFalse, envelope: models.Envelope{}}
	fallback := &stubAgent{name: "fallback", relevant: alwaysFalse}

	o := New([]agents.Agent{ubuntu, apache}, nil, fallback, nil)
	result := o.Lookup(context.Background(), "ubuntu", "20.04", "", false)

	require.True(t, result.Envelope.Success)
	assert.Equal(t, "ubuntu", result.Envelope.AgentUsed)
	assert.Equal(t, 1, ubuntu.callCount)
	assert.Equal(t, 0, apache.callCount, "apache isn't relevant, should never be invoked")
	assert.Equal(t, 0, fallback.callCount, "ubuntu short-circuited at confidence 0.9, fallback should not run")
}

func TestLookupFallsThroughToGenericAgentWhenNoVendorMatches(t *testing.T) {
	vendor := &stubAgent{name: "vendor", relevant: alwaysFalse}
	fallback := &stubAgent{name: "fallback", relevant: alwaysFalse, envelope: newSuccessEnvelope("fallback", "2026-01-01")}

	o := New([]agents.Agent{vendor}, nil, fallback, nil)
	result := o.Lookup(context.Background(), "ZyxelWidget-2024", "", "", false)

	require.True(t, result.Envelope.Success)
	assert.Equal(t, "fallback", result.Envelope.AgentUsed)
}

func TestLookupInternetOnlySkipsVendorRouting(t *testing.T) {
	vendor := &stubAgent{name: "ubuntu", relevant: alwaysTrue, envelope: newSuccessEnvelope("ubuntu", "2030-04-23")}
	fallback := &stubAgent{name: "fallback", relevant: alwaysFalse, envelope: newSuccessEnvelope("fallback", "2026-01-01")}

	o := New([]agents.Agent{vendor}, nil, fallback, nil)
	result := o.Lookup(context.Background(), "ubuntu", "20.04", "", true)

	assert.Equal(t, "fallback", result.Envelope.AgentUsed)
	assert.Equal(t, 0, vendor.callCount)
}

func TestLookupPrependsOSSpecialistWhenKindIsOS(t *testing.T) {
	windows := &stubAgent{name: "microsoft", relevant: func(s string) bool { return s == "windows server 2012 r2" }, envelope: newSuccessEnvelope("microsoft", "2023-10-10")}
	fallback := &stubAgent{name: "fallback", relevant: alwaysFalse}

	o := New(nil, []agents.Agent{windows}, fallback, nil)
	result := o.Lookup(context.Background(), "windows server 2012 r2", "", "os", false)

	require.True(t, result.Envelope.Success)
	assert.Equal(t, "microsoft", result.Envelope.AgentUsed)
	assert.Equal(t, "End of Life", result.Status)
	assert.Equal(t, "critical", result.RiskLevel)
}

func TestLookupReturnsFailureWhenEveryAgentFails(t *testing.T) {
	fallback := &stubAgent{name: "fallback", relevant: alwaysFalse, envelope: models.Envelope{
		Success: false,
		Error:   &models.ErrorInfo{Code: models.ErrNoEOLDateFound, Message: "nothing found"},
	}}

	o := New(nil, nil, fallback, nil)
	result := o.Lookup(context.Background(), "ZyxelWidget-2024", "", "", false)

	assert.False(t, result.Envelope.Success)
	assert.Equal(t, "orchestrator", result.Envelope.AgentUsed)
	assert.Equal(t, models.ErrNoDataFound, result.Envelope.Error.Code)
}

func TestLookupSecondCallUsesSessionCache(t *testing.T) {
	ubuntu := &stubAgent{name: "ubuntu", relevant: alwaysTrue, envelope: newSuccessEnvelope("ubuntu", "2030-04-23")}
	fallback := &stubAgent{name: "fallback", relevant: alwaysFalse}

	o := New([]agents.Agent{ubuntu}, nil, fallback, nil)
	first := o.Lookup(context.Background(), "ubuntu", "20.04", "", false)
	second := o.Lookup(context.Background(), "ubuntu", "20.04", "", false)

	assert.Equal(t, 1, ubuntu.callCount, "second lookup should be served from the session cache")
	assert.True(t, first.Envelope.Success)
	assert.True(t, second.Envelope.Success)
	assert.Equal(t, models.DataSourceCache, second.Envelope.DataSource)
}

func TestDeriveRiskLevelBoundaries(t *testing.T) {
	now := time.Now()
	cases := []struct {
		days     int
		status   string
		risk     string
	}{
		{-1, "End of Life", "critical"},
		{0, "Critical", "critical"},
		{90, "Critical", "critical"},
		{91, "High Risk", "high"},
		{365, "High Risk", "high"},
		{366, "Medium Risk", "medium"},
		{730, "Medium Risk", "medium"},
		{731, "Active Support", "low"},
	}
	for _, c := range cases {
		eol := models.NewDate(now.AddDate(0, 0, c.days))
		status, risk, days := deriveRiskLevel(eol)
		assert.Equal(t, c.status, status, "days=%d", c.days)
		assert.Equal(t, c.risk, risk, "days=%d", c.days)
		require.NotNil(t, days)
	}
}

func TestConfidenceMonotonicityWithLifecycleDates(t *testing.T) {
	agent := &stubAgent{name: "vendor", relevant: alwaysFalse}
	o := New([]agents.Agent{agent}, nil, &stubAgent{name: "fallback", relevant: alwaysFalse}, nil)

	withEOL := newSuccessEnvelope("vendor", "2030-01-01")
	withoutEOL := models.Envelope{Success: true, AgentUsed: "vendor", SupportEndDate: withEOL.EOLDate}
	withoutEOL.EOLDate = models.Date{}

	confWith := o.scoreConfidence(agent, "vendor", withEOL)
	confWithout := o.scoreConfidence(agent, "vendor", withoutEOL)

	assert.Greater(t, confWith, confWithout)
}

func TestCommunicationLogStaysBounded(t *testing.T) {
	agent := &stubAgent{name: "vendor", relevant: alwaysTrue, envelope: newSuccessEnvelope("vendor", "2030-01-01")}
	o := New([]agents.Agent{agent}, nil, &stubAgent{name: "fallback", relevant: alwaysFalse}, nil)

	for i := 0; i < 60; i++ {
		// Vary the version so each call is a fresh cache key and actually
		// appends new communication-log entries instead of short-circuiting
		// through the session cache.
		o.Lookup(context.Background(), "vendor", fmt.Sprintf("v%d", i), "", false)
	}
	assert.LessOrEqual(t, len(o.Communications()), recentCommunicationsCapacity)
	assert.Equal(t, recentCommunicationsCapacity, len(o.Communications()))
}

func TestClearCommunicationsResetsSessionAndCache(t *testing.T) {
	agent := &stubAgent{name: "vendor", relevant: alwaysTrue, envelope: newSuccessEnvelope("vendor", "2030-01-01")}
	o := New([]agents.Agent{agent}, nil, &stubAgent{name: "fallback", relevant: alwaysFalse}, nil)

	o.Lookup(context.Background(), "vendor", "", "", false)
	cleared, oldSession, newSession := o.ClearCommunications()

	assert.Greater(t, cleared, 0)
	assert.NotEqual(t, oldSession, newSession)

	o.Lookup(context.Background(), "vendor", "", "", false)
	assert.Equal(t, 2, agent.callCount, "session cache should have been cleared")
}
