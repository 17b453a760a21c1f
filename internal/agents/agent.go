// Package agents defines the uniform agent contract: every vendor-specific
// lookup implements the same Agent interface, and shares envelope-building
// and static-table-matching helpers through Base. Every implementation
// follows the same cache-then-static-then-scrape-then-fail sequence, and
// embeds Base for shared plumbing the way a composed-agent framework
// commonly embeds a base type for shared behavior.
package agents

import (
	"context"
	"strings"

	"github.com/jasonpanggit/eol-agents/internal/models"
)

// Agent is implemented by every vendor-specific (and the generic fallback)
// lookup source.
type Agent interface {
	// Name is the agent's identifier, used as the cache-key namespace and
	// in telemetry and communication-log entries.
	Name() string
	// IsRelevant reports whether this agent should be tried for the given
	// software name (keyword routing).
	IsRelevant(softwareName string) bool
	// URLs lists the sources this agent consults, for display.
	URLs() []models.URLInfo
	// GetEOLData resolves EOL/support/release information for a software
	// and optional version. It never panics; callers receive a failure
	// Envelope instead of an error when nothing can be found.
	GetEOLData(ctx context.Context, softwareName, version string) models.Envelope
	// PurgeCache clears any agent-local cache rows for a software filter
	// (empty string clears all of this agent's rows).
	PurgeCache(ctx context.Context, softwareName string) int
}

// Base provides the shared envelope constructors every Agent embeds:
// building a success envelope with clamped confidence, or a failure
// envelope carrying a structured error code.
type Base struct {
	AgentName string
}

// NewBase constructs a Base for the given agent name.
func NewBase(name string) Base { return Base{AgentName: name} }

// Name implements Agent.
func (b Base) Name() string { return b.AgentName }

// Success builds a successful Envelope from resolved lifecycle dates.
func (b Base) Success(software, version string, eol, support, release models.Date, confidence float64, sourceURL string, source models.DataSource) models.Envelope {
	env := models.Envelope{
		Success:        true,
		Software:       software,
		Version:        version,
		EOLDate:        eol,
		SupportEndDate: support,
		ReleaseDate:    release,
		Confidence:     confidence,
		SourceURL:      sourceURL,
		AgentUsed:      b.AgentName,
		DataSource:     source,
		AdditionalData: map[string]any{},
	}
	env.ClampConfidence(1.0)
	return env
}

// Failure builds a failed Envelope carrying the same identifier fields
// (software, version) a success envelope would, plus a structured error
// code and message.
func (b Base) Failure(software, version string, code models.ErrorCode, message string) models.Envelope {
	return models.Envelope{
		Success:   false,
		Software:  software,
		Version:   version,
		AgentUsed: b.AgentName,
		Error:     &models.ErrorInfo{Code: code, Message: message},
	}
}

// MatchesAny reports whether name contains any of keywords, case-insensitively.
func MatchesAny(name string, keywords []string) bool {
	lower := strings.ToLower(name)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
