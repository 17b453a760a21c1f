package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/jasonpanggit/eol-agents/internal/models"
	"github.com/jasonpanggit/eol-agents/internal/orchestrator"
	"github.com/jasonpanggit/eol-agents/internal/telemetry"
)

func telemetryLookupCounterName(success bool) string {
	if success {
		return telemetry.MetricLookupRequests
	}
	return telemetry.MetricLookupErrors
}

// lookupRequest is the POST /eol request body.
type lookupRequest struct {
	SoftwareName string `json:"software_name"`
	Version      string `json:"version,omitempty"`
	Kind         string `json:"kind,omitempty"`
	InternetOnly bool   `json:"internet_only,omitempty"`
}

// lookupResponse is the POST /eol response body, flattening Result into a
// single JSON document the way every agent envelope itself is flattened.
type lookupResponse struct {
	Success        bool        `json:"success"`
	Software       string      `json:"software"`
	Version        string      `json:"version,omitempty"`
	EOLDate        string      `json:"eol_date,omitempty"`
	SupportEndDate string      `json:"support_end_date,omitempty"`
	ReleaseDate    string      `json:"release_date,omitempty"`
	Confidence     float64     `json:"confidence"`
	SourceURL      string      `json:"source_url,omitempty"`
	AgentUsed      string      `json:"agent_used"`
	DataSource     string      `json:"data_source,omitempty"`
	DaysUntilEOL   *int        `json:"days_until_eol,omitempty"`
	Status         string      `json:"status"`
	RiskLevel      string      `json:"risk_level"`
	Error          *errorBody  `json:"error,omitempty"`
	AdditionalData interface{} `json:"additional_data,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func toLookupResponse(result orchestrator.Result) lookupResponse {
	env := result.Envelope
	resp := lookupResponse{
		Success:        env.Success,
		Software:       env.Software,
		Version:        env.Version,
		EOLDate:        env.EOLDate.String(),
		SupportEndDate: env.SupportEndDate.String(),
		ReleaseDate:    env.ReleaseDate.String(),
		Confidence:     env.Confidence,
		SourceURL:      env.SourceURL,
		AgentUsed:      env.AgentUsed,
		DataSource:     string(env.DataSource),
		DaysUntilEOL:   result.DaysUntilEOL,
		Status:         result.Status,
		RiskLevel:      result.RiskLevel,
		AdditionalData: env.AdditionalData,
	}
	if env.Error != nil {
		resp.Error = &errorBody{Code: string(env.Error.Code), Message: env.Error.Message}
	}
	return resp
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"agents": s.orchestrator.Health(),
	})
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req lookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.SoftwareName == "" {
		http.Error(w, "software_name is required", http.StatusBadRequest)
		return
	}

	start := time.Now()
	result := s.orchestrator.Lookup(r.Context(), req.SoftwareName, req.Version, req.Kind, req.InternetOnly)
	duration := time.Since(start)

	cacheHit := result.Envelope.DataSource == models.DataSourceCache
	s.collector.RecordRequest(result.Envelope.AgentUsed, result.Envelope.SourceURL, cacheHit, result.Envelope.Success, duration)
	if s.instruments != nil {
		s.instruments.IncrCounter(r.Context(), telemetryLookupCounterName(result.Envelope.Success), result.Envelope.AgentUsed, 1)
		s.instruments.RecordDuration(r.Context(), result.Envelope.AgentUsed, duration)
	}

	status := http.StatusOK
	if !result.Envelope.Success {
		status = http.StatusNotFound
	}
	s.writeJSON(w, status, toLookupResponse(result))
}

// batchItemResponse is one entry of the POST /batch response array.
type batchItemResponse struct {
	Computer string         `json:"computer"`
	Result   lookupResponse `json:"result"`
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.inventory == nil {
		http.Error(w, "no inventory source configured", http.StatusServiceUnavailable)
		return
	}

	items, summary, err := orchestrator.LookupBatch(r.Context(), s.orchestrator, s.inventory, s.fanOutLimit)
	if err != nil {
		s.logger.Error("batch lookup failed", map[string]interface{}{"error": err.Error()})
		http.Error(w, "inventory source unavailable", http.StatusBadGateway)
		return
	}

	out := make([]batchItemResponse, len(items))
	for i, item := range items {
		out[i] = batchItemResponse{Computer: item.Record.Computer, Result: toLookupResponse(item.Result)}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"summary": summary,
		"items":   out,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	stats := s.cache.Stats(r.Context())
	response := map[string]interface{}{"cache": stats, "telemetry": s.collector.Snapshot()}
	if s.scheduler != nil {
		response["last_refresh"] = s.scheduler.LastRun()
	}
	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleCachePurge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	software := r.URL.Query().Get("software_name")
	agent := r.URL.Query().Get("agent")
	purged := s.cache.Purge(r.Context(), software, agent)
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"purged": purged})
}

func (s *Server) handleCommunications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	limit := len(s.orchestrator.Communications())
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n < limit {
			limit = n
		}
	}
	entries := s.orchestrator.Communications()
	if limit < len(entries) {
		entries = entries[len(entries)-limit:]
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"communications": entries})
}

func (s *Server) handleSessionClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	cleared, oldSession, newSession := s.orchestrator.ClearCommunications()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"cleared":     cleared,
		"old_session": oldSession,
		"new_session": newSession,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", map[string]interface{}{"error": err.Error()})
	}
}
