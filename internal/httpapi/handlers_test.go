package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jasonpanggit/eol-agents/internal/agents"
	"github.com/jasonpanggit/eol-agents/internal/cache"
	"github.com/jasonpanggit/eol-agents/internal/inventory"
	"github.com/jasonpanggit/eol-agents/internal/models"
	"github.com/jasonpanggit/eol-agents/internal/orchestrator"
)

type fakeAgent struct {
	name     string
	relevant bool
	envelope models.Envelope
}

func (f *fakeAgent) Name() string                                      { return f.name }
func (f *fakeAgent) IsRelevant(string) bool                             { return f.relevant }
func (f *fakeAgent) URLs() []models.URLInfo                             { return nil }
func (f *fakeAgent) PurgeCache(context.Context, string) int             { return 0 }
func (f *fakeAgent) GetEOLData(context.Context, string, string) models.Envelope {
	return f.envelope
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	eol, err := models.ParseDate("2030-04-23")
	require.NoError(t, err)

	ubuntu := &fakeAgent{name: "ubuntu", relevant: true, envelope: models.Envelope{
		Success: true, Software: "ubuntu", AgentUsed: "ubuntu", EOLDate: eol,
	}}
	fallback := &fakeAgent{name: "fallback", relevant: false, envelope: models.Envelope{
		Success: false, AgentUsed: "fallback",
		Error: &models.ErrorInfo{Code: models.ErrNoEOLDateFound, Message: "nothing found"},
	}}
	o := orchestrator.New([]agents.Agent{ubuntu}, nil, fallback, nil)
	c := cache.New(nil, 24*time.Hour, nil)
	src := &inventory.MockSource{Records: []inventory.Record{{SoftwareName: "ubuntu", Computer: "host-1"}}}

	return New(o, c, nil, Options{Inventory: src, FanOutLimit: 2})
}

func TestHandleLookupReturnsSuccessfulEnvelope(t *testing.T) {
	s := newTestServer(t)
	body, _ := json.Marshal(lookupRequest{SoftwareName: "ubuntu", Version: "20.04"})
	req := httptest.NewRequest(http.MethodPost, "/eol", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp lookupResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "ubuntu", resp.AgentUsed)
	assert.Equal(t, "2030-04-23", resp.EOLDate)
}

func TestHandleLookupRejectsMissingSoftwareName(t *testing.T) {
	s := newTestServer(t)
	body, _ := json.Marshal(lookupRequest{})
	req := httptest.NewRequest(http.MethodPost, "/eol", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleLookupRejectsWrongMethod(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/eol", nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleBatchReturnsOneItemPerInventoryRecord(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/batch", nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var payload struct {
		Summary orchestrator.BatchSummary `json:"summary"`
		Items   []batchItemResponse       `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, 1, payload.Summary.Total)
	require.Len(t, payload.Items, 1)
	assert.Equal(t, "host-1", payload.Items[0].Computer)
}

func TestHandleHealthReportsKnownAgents(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ubuntu")
}

func TestHandleSessionClearResetsCommunications(t *testing.T) {
	s := newTestServer(t)
	lookupBody, _ := json.Marshal(lookupRequest{SoftwareName: "ubuntu"})
	s.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/eol", bytes.NewReader(lookupBody)))

	req := httptest.NewRequest(http.MethodPost, "/session/clear", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Greater(t, payload["cleared"], float64(0))
}
