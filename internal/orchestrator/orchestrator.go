// Package orchestrator routes a software lookup to the right agent(s),
// scores the winning answer's confidence, derives a risk level, and keeps
// a per-session communication log the operator UI renders.
//
// Routing reuses each agent's own IsRelevant keyword match (with
// OS-specialist prepending and an endoflife.date catch-all append);
// confidence scoring starts from a 0.5 base plus bonuses; risk level
// comes from a days-until-EOL table; the communication log is an
// emoji-tagged bounded ring buffer. Calls are synchronous (explicit
// context.Context, no async/await) with a single per-session mutex
// guarding session state.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jasonpanggit/eol-agents/internal/agents"
	"github.com/jasonpanggit/eol-agents/internal/applog"
	"github.com/jasonpanggit/eol-agents/internal/models"
	"github.com/jasonpanggit/eol-agents/internal/telemetry"
)

// tracer emits one span per Lookup call, tagged with the winning agent and
// risk level, so a slow or failing lookup shows up in trace search without
// needing to correlate log lines by hand.
var tracer = telemetry.Tracer("eol-agents.orchestrator")

// shortCircuitConfidence is the confidence threshold at or above which a
// non-fallback agent's answer ends the candidate walk early.
const shortCircuitConfidence = 0.9

// recentCommunicationsCapacity bounds the per-session ring buffer.
const recentCommunicationsCapacity = 100

// sessionCacheTTL is how long the orchestrator's own decision cache (not
// the agent-level persistent cache) keeps a resolved lookup.
const sessionCacheTTL = 1 * time.Hour

// Orchestrator is the single entry point the HTTP layer calls into. It
// holds no long-lived agent state itself; every agent is responsible for
// its own caching. Routing reuses each agent's own IsRelevant instead of
// a second, parallel keyword table, so a vendor agent's keyword list lives
// in exactly one place.
type Orchestrator struct {
	// vendorRoutes is every keyword-routed vendor agent, in the
	// declaration order routing walks them (spec: "iterate the static
	// vendor-keyword map ... in declaration order").
	vendorRoutes []agents.Agent
	// osSpecialists is consulted first, and only when the caller declares
	// kind="os", in priority order.
	osSpecialists []agents.Agent
	fallback      agents.Agent
	logger        applog.Logger

	mu             sync.Mutex
	sessionID      string
	sessionCache   map[string]sessionEntry
	communications []models.CommunicationLogEntry
}

type sessionEntry struct {
	result   Result
	storedAt time.Time
}

// Result is the orchestrator's post-processed answer: the raw envelope
// plus the risk-level fields derived from it.
type Result struct {
	Envelope       models.Envelope
	DaysUntilEOL   *int
	Status         string
	RiskLevel      string
	Communications []models.CommunicationLogEntry
}

// New constructs an Orchestrator. vendorRoutes is walked in declaration
// order for keyword matching; fallback is always appended last.
func New(vendorRoutes, osSpecialists []agents.Agent, fallback agents.Agent, logger applog.Logger) *Orchestrator {
	if logger == nil {
		logger = applog.NoOp{}
	}
	return &Orchestrator{
		vendorRoutes:  vendorRoutes,
		osSpecialists: osSpecialists,
		fallback:      fallback,
		logger:        logger,
		sessionID:     uuid.New().String(),
		sessionCache:  make(map[string]sessionEntry),
	}
}

// Lookup resolves EOL data for softwareName (and optional version), using
// kind to trigger OS-specialist prepending and internetOnly to restrict
// the candidate list to the fallback agent alone.
func (o *Orchestrator) Lookup(ctx context.Context, softwareName, version, kind string, internetOnly bool) (result Result) {
	ctx, span := tracer.Start(ctx, "orchestrator.Lookup")
	span.SetAttributes(
		attribute.String("eol.software", softwareName),
		attribute.String("eol.version", version),
		attribute.Bool("eol.internet_only", internetOnly),
	)
	defer func() {
		span.SetAttributes(
			attribute.String("eol.agent_used", result.Envelope.AgentUsed),
			attribute.String("eol.risk_level", result.RiskLevel),
			attribute.Bool("eol.success", result.Envelope.Success),
		)
		if !result.Envelope.Success && result.Envelope.Error != nil {
			span.SetStatus(codes.Error, result.Envelope.Error.Message)
		}
		span.End()
	}()

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("orchestrator panic recovered", map[string]interface{}{"panic": fmt.Sprint(r)})
			env := models.Envelope{
				Success:   false,
				Software:  softwareName,
				Version:   version,
				AgentUsed: "orchestrator",
				Error:     &models.ErrorInfo{Code: models.ErrAgentException, Message: fmt.Sprintf("internal error: %v", r)},
			}
			result = Result{Envelope: env, Status: "Unknown", RiskLevel: "unknown", Communications: o.snapshotCommunications()}
		}
	}()

	key := models.NormalizedKey(softwareName, version)
	if cached, ok := o.cachedResult(key); ok {
		return cached
	}

	candidates := o.route(softwareName, kind, internetOnly)
	o.logCommunication("", "agent_selection", models.CommInfo,
		fmt.Sprintf("\U0001F500 Routing %s to agents: %s", softwareName, strings.Join(agentNames(candidates), ", ")),
		map[string]interface{}{"software": softwareName, "version": version, "selected_agents": agentNames(candidates)}, nil)

	var best models.Envelope
	var bestConfidence float64
	found := false

	for _, candidate := range candidates {
		if ctx.Err() != nil {
			break
		}
		env := o.invoke(ctx, candidate, softwareName, version)
		if !env.Success || !env.HasLifecycleDate() {
			o.logCommunication(candidate.Name(), "lookup", models.CommError,
				fmt.Sprintf("❌ %s failed to find EOL data for %s", candidate.Name(), softwareName), nil, nil)
			continue
		}

		confidence := o.scoreConfidence(candidate, softwareName, env)
		o.logCommunication(candidate.Name(), "lookup", models.CommSuccess,
			fmt.Sprintf("\U0001F50D %s found EOL data for %s", candidate.Name(), softwareName),
			nil, map[string]interface{}{"confidence": confidence})

		if !found || confidence > bestConfidence {
			best, bestConfidence, found = env, confidence, true
		}

		if confidence >= shortCircuitConfidence && candidate != o.fallback {
			break
		}
	}

	if !found {
		message := "No EOL data found for " + softwareName
		if internetOnly {
			message = "No EOL data found for " + softwareName + " via the generic web fallback"
		}
		env := models.Envelope{
			Success:   false,
			Software:  softwareName,
			Version:   version,
			AgentUsed: "orchestrator",
			Error:     &models.ErrorInfo{Code: models.ErrNoDataFound, Message: message},
		}
		result = Result{Envelope: env, Status: "Unknown", RiskLevel: "unknown", Communications: o.snapshotCommunications()}
		o.storeResult(key, result)
		return result
	}

	best.Confidence = bestConfidence
	status, riskLevel, days := deriveRiskLevel(best.EOLDate)
	o.logCommunication("", "lookup", models.CommSuccess,
		fmt.Sprintf("✅ Resolved %s via %s", softwareName, best.AgentUsed), nil, nil)

	result = Result{
		Envelope:       best,
		DaysUntilEOL:   days,
		Status:         status,
		RiskLevel:      riskLevel,
		Communications: o.snapshotCommunications(),
	}
	o.storeResult(key, result)
	return result
}

// Health reports every agent this orchestrator knows about as reachable.
// It deliberately never calls GetEOLData: a health probe blocking on a
// scrape or an upstream HTTP call defeats its purpose as a quick check.
func (o *Orchestrator) Health() map[string]bool {
	statuses := map[string]bool{"self": true}
	for _, a := range o.allAgents() {
		statuses[a.Name()] = true
	}
	return statuses
}

// ClearCommunications resets the session's communication log, decision
// cache, and session ID, returning how many entries were discarded and the
// old/new session identifiers.
func (o *Orchestrator) ClearCommunications() (cleared int, oldSession, newSession string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	cleared = len(o.communications)
	oldSession = o.sessionID
	o.communications = nil
	o.sessionCache = make(map[string]sessionEntry)
	o.sessionID = uuid.New().String()
	newSession = o.sessionID
	return cleared, oldSession, newSession
}

// Communications returns a snapshot of the current session's log.
func (o *Orchestrator) Communications() []models.CommunicationLogEntry {
	return o.snapshotCommunications()
}

func (o *Orchestrator) invoke(ctx context.Context, agent agents.Agent, softwareName, version string) (env models.Envelope) {
	ctx, span := tracer.Start(ctx, "agent."+agent.Name())
	defer func() {
		span.SetAttributes(attribute.Bool("eol.success", env.Success))
		span.End()
	}()
	defer func() {
		if r := recover(); r != nil {
			env = models.Envelope{
				Success:   false,
				AgentUsed: agent.Name(),
				Error:     &models.ErrorInfo{Code: models.ErrAgentException, Message: fmt.Sprintf("%s: %v", agent.Name(), r)},
			}
			span.SetStatus(codes.Error, env.Error.Message)
		}
	}()
	return agent.GetEOLData(ctx, softwareName, version)
}

// route builds the ordered, deduplicated candidate list per the six-step
// routing algorithm: OS-specialist prepend, then vendor-keyword routing,
// then the generic fallback appended last.
func (o *Orchestrator) route(softwareName, kind string, internetOnly bool) []agents.Agent {
	if internetOnly {
		return []agents.Agent{o.fallback}
	}

	var candidates []agents.Agent

	if strings.EqualFold(kind, "os") {
		for _, spec := range o.osSpecialists {
			if spec.IsRelevant(softwareName) {
				candidates = append(candidates, spec)
				break
			}
		}
	}

	for _, vendor := range o.vendorRoutes {
		if vendor.IsRelevant(softwareName) {
			candidates = append(candidates, vendor)
		}
	}

	candidates = append(candidates, o.fallback)
	return dedupeAgents(candidates)
}

// scoreConfidence implements the orchestrator's own confidence arithmetic,
// independent of whatever confidence the agent itself reported: base 0.5,
// +0.4 for a vendor-keyword routing match (reaching 0.9), then +0.2/+0.1/
// +0.1 for eol/support/release date presence, capped at 1.0.
func (o *Orchestrator) scoreConfidence(agent agents.Agent, softwareName string, env models.Envelope) float64 {
	confidence := 0.5
	if agent != o.fallback && agent.IsRelevant(softwareName) {
		confidence = 0.9
	}
	if env.EOLDate.Valid() {
		confidence += 0.2
	}
	if env.SupportEndDate.Valid() {
		confidence += 0.1
	}
	if env.ReleaseDate.Valid() {
		confidence += 0.1
	}
	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}

// deriveRiskLevel computes days_until_eol and the status/risk_level table
// from the standard lifecycle window. A zero (invalid) EOL date yields an
// "Unknown" status and a nil day count.
func deriveRiskLevel(eol models.Date) (status, riskLevel string, days *int) {
	if !eol.Valid() {
		return "Unknown", "unknown", nil
	}
	d := eol.DaysUntil(time.Now())
	switch {
	case d < 0:
		status, riskLevel = "End of Life", "critical"
	case d <= 90:
		status, riskLevel = "Critical", "critical"
	case d <= 365:
		status, riskLevel = "High Risk", "high"
	case d <= 730:
		status, riskLevel = "Medium Risk", "medium"
	default:
		status, riskLevel = "Active Support", "low"
	}
	return status, riskLevel, &d
}

func (o *Orchestrator) cachedResult(key string) (Result, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	entry, ok := o.sessionCache[key]
	if !ok || time.Since(entry.storedAt) > sessionCacheTTL {
		return Result{}, false
	}
	cached := entry.result
	cached.Envelope.DataSource = models.DataSourceCache
	cached.Communications = append([]models.CommunicationLogEntry{}, o.communications...)
	return cached, true
}

func (o *Orchestrator) storeResult(key string, result Result) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sessionCache[key] = sessionEntry{result: result, storedAt: time.Now()}
}

func (o *Orchestrator) logCommunication(agentName, action string, kind models.CommunicationType, message string, input, output map[string]interface{}) {
	o.mu.Lock()
	defer o.mu.Unlock()
	entry := models.CommunicationLogEntry{
		Timestamp: time.Now(),
		SessionID: o.sessionID,
		AgentName: agentName,
		Action:    action,
		Input:     input,
		Output:    output,
		Type:      kind,
		Message:   message,
	}
	o.communications = append(o.communications, entry)
	if len(o.communications) > recentCommunicationsCapacity {
		o.communications = o.communications[len(o.communications)-recentCommunicationsCapacity:]
	}
}

func (o *Orchestrator) snapshotCommunications() []models.CommunicationLogEntry {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]models.CommunicationLogEntry, len(o.communications))
	copy(out, o.communications)
	return out
}

func (o *Orchestrator) allAgents() []agents.Agent {
	seen := map[string]bool{}
	var out []agents.Agent
	add := func(a agents.Agent) {
		if a == nil || seen[a.Name()] {
			return
		}
		seen[a.Name()] = true
		out = append(out, a)
	}
	for _, a := range o.osSpecialists {
		add(a)
	}
	for _, a := range o.vendorRoutes {
		add(a)
	}
	add(o.fallback)
	return out
}

func agentNames(list []agents.Agent) []string {
	names := make([]string, len(list))
	for i, a := range list {
		names[i] = a.Name()
	}
	return names
}

func dedupeAgents(list []agents.Agent) []agents.Agent {
	seen := make(map[string]bool, len(list))
	out := make([]agents.Agent, 0, len(list))
	for _, a := range list {
		if seen[a.Name()] {
			continue
		}
		seen[a.Name()] = true
		out = append(out, a)
	}
	return out
}
