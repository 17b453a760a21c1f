package models

// DataSource names where an envelope's data ultimately came from.
type DataSource string

const (
	DataSourceStatic     DataSource = "static"
	DataSourceScraped    DataSource = "scraped"
	DataSourceCache      DataSource = "cache"
	DataSourceLLMAssist  DataSource = "llm_assisted"
)

// Envelope is the uniform success/failure response every agent and the
// orchestrator produce.
type Envelope struct {
	Success         bool           `json:"success"`
	Software        string         `json:"software"`
	Version         string         `json:"version,omitempty"`
	EOLDate         Date           `json:"eol_date"`
	SupportEndDate  Date           `json:"support_end_date"`
	ReleaseDate     Date           `json:"release_date"`
	Confidence      float64        `json:"confidence"`
	SourceURL       string         `json:"source_url,omitempty"`
	AgentUsed       string         `json:"agent_used"`
	DataSource      DataSource     `json:"data_source,omitempty"`
	AdditionalData  map[string]any `json:"additional_data,omitempty"`
	Error           *ErrorInfo     `json:"error,omitempty"`
}

// HasLifecycleDate reports whether at least one of the three lifecycle
// dates is populated, the invariant every successful envelope must satisfy.
func (e *Envelope) HasLifecycleDate() bool {
	return e.EOLDate.Valid() || e.SupportEndDate.Valid() || e.ReleaseDate.Valid()
}

// WithAdditional sets a key in AdditionalData, initializing the map on
// first use.
func (e *Envelope) WithAdditional(key string, value any) *Envelope {
	if e.AdditionalData == nil {
		e.AdditionalData = make(map[string]any)
	}
	e.AdditionalData[key] = value
	return e
}

// ClampConfidence clamps Confidence into [0, ceiling].
func (e *Envelope) ClampConfidence(ceiling float64) {
	if e.Confidence > ceiling {
		e.Confidence = ceiling
	}
	if e.Confidence < 0 {
		e.Confidence = 0
	}
}
