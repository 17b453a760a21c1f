// Package endoflife implements the generic, vendor-agnostic agent that
// always gets appended to the candidate list last. It is a thin JSON
// client over the public endoflife.date API
// (https://endoflife.date/api/{product}.json) rather than a scraper: the
// simplest faithful answer for a generic fallback is to call the real
// product this service is an intelligence layer atop of.
//
// Built as a small, single-purpose HTTP JSON client: context-aware
// requests, bounded timeouts, explicit status-code checks.
package endoflife

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jasonpanggit/eol-agents/internal/agents"
	"github.com/jasonpanggit/eol-agents/internal/applog"
	"github.com/jasonpanggit/eol-agents/internal/cache"
	"github.com/jasonpanggit/eol-agents/internal/models"
)

// Agent implements agents.Agent as a generic catch-all over the
// endoflife.date product catalog.
type Agent struct {
	agents.Base
	cache      *cache.Cache
	logger     applog.Logger
	httpClient *http.Client
	baseURL    string
}

// New constructs the endoflife.date client agent.
func New(c *cache.Cache, logger applog.Logger, baseURL string, timeout time.Duration) *Agent {
	if logger == nil {
		logger = applog.NoOp{}
	}
	if baseURL == "" {
		baseURL = agents.DefaultEndOfLifeBaseURL
	}
	return &Agent{
		Base:       agents.NewBase("endoflife"),
		cache:      c,
		logger:     logger,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// IsRelevant always returns true: this agent is appended to every
// candidate list unconditionally, regardless of keyword routing.
func (a *Agent) IsRelevant(string) bool { return true }

// URLs implements agents.Agent.
func (a *Agent) URLs() []models.URLInfo {
	return []models.URLInfo{{URL: a.baseURL, Description: "endoflife.date API", Priority: 1, Active: true}}
}

// GetEOLData implements agents.Agent by calling GET
// {baseURL}/{slug}.json and selecting the cycle whose "cycle" field
// matches version the same way Lookup's version-containment rule does.
func (a *Agent) GetEOLData(ctx context.Context, softwareName, version string) models.Envelope {
	if cached := a.cache.Get(ctx, softwareName, version, a.Name()); cached != nil {
		return *cached
	}

	slug := slugify(softwareName)
	url := fmt.Sprintf("%s/%s.json", a.baseURL, slug)

	cycles, err := agents.FetchEndOfLifeCycles(ctx, a.httpClient, a.baseURL, slug)
	if err != nil {
		env := a.Failure(softwareName, version, models.ErrNoDataFound, fmt.Sprintf("endoflife.date lookup failed for %s: %v", softwareName, err))
		a.cache.PutFailure(ctx, softwareName, version, a.Name(), env)
		return env
	}

	cycle, ok := agents.SelectEndOfLifeCycle(cycles, version)
	if !ok {
		env := a.Failure(softwareName, version, models.ErrNoDataFound, "no EOL information found on endoflife.date for "+softwareName)
		a.cache.PutFailure(ctx, softwareName, version, a.Name(), env)
		return env
	}

	env := a.Success(softwareName, valueOrCycle(version, cycle.Cycle), cycle.EOL, cycle.Support, cycle.ReleaseDate, 0.80, url, models.DataSourceScraped)
	env.WithAdditional("cycle", cycle.Cycle).WithAdditional("latest", cycle.Latest)
	a.cache.Put(ctx, softwareName, version, a.Name(), env, url, false, "endoflife_api")
	return env
}

// PurgeCache implements agents.Agent.
func (a *Agent) PurgeCache(ctx context.Context, softwareName string) int {
	return a.cache.Purge(ctx, softwareName, a.Name())
}

func slugify(softwareName string) string {
	lower := strings.ToLower(strings.TrimSpace(softwareName))
	replacer := strings.NewReplacer(" ", "-", "_", "-")
	return replacer.Replace(lower)
}

func valueOrCycle(version, cycle string) string {
	if version != "" {
		return version
	}
	return cycle
}
