// Package postgresql resolves EOL data for PostgreSQL major versions.
// using the same static-table shape as the other vendor agents.
package postgresql

import (
	"context"
	"net/http"
	"time"

	"github.com/jasonpanggit/eol-agents/internal/agents"
	"github.com/jasonpanggit/eol-agents/internal/applog"
	"github.com/jasonpanggit/eol-agents/internal/cache"
	"github.com/jasonpanggit/eol-agents/internal/models"
)

// endOfLifeSlug is PostgreSQL's endoflife.date catalog slug.
const endOfLifeSlug = "postgresql"

var keywords = []string{"postgresql", "postgres", "postgre"}
var vendorTokens = []string{"postgresql", "postgres"}

var staticTable = agents.StaticTable{
	"postgresql-12": {Key: "postgresql-12", Cycle: "12", ReleaseDate: "2019-10-03", EOLDate: "2024-11-14", SupportEndDate: "2024-11-14"},
	"postgresql-13": {Key: "postgresql-13", Cycle: "13", ReleaseDate: "2020-09-24", EOLDate: "2025-11-13", SupportEndDate: "2025-11-13"},
	"postgresql-14": {Key: "postgresql-14", Cycle: "14", ReleaseDate: "2021-09-30", EOLDate: "2026-11-12", SupportEndDate: "2026-11-12"},
	"postgresql-15": {Key: "postgresql-15", Cycle: "15", ReleaseDate: "2022-10-13", EOLDate: "2027-11-11", SupportEndDate: "2027-11-11"},
	"postgresql-16": {Key: "postgresql-16", Cycle: "16", ReleaseDate: "2023-09-14", EOLDate: "2028-11-09", SupportEndDate: "2028-11-09"},
}

var urlRegistry = []models.URLInfo{
	{URL: "https://www.postgresql.org/support/versioning/", Description: "PostgreSQL Versioning Policy", Priority: 1, Active: true},
}

// Agent implements agents.Agent for PostgreSQL.
type Agent struct {
	agents.Base
	cache      *cache.Cache
	logger     applog.Logger
	httpClient *http.Client
}

// New constructs the PostgreSQL agent.
func New(c *cache.Cache, logger applog.Logger, timeout time.Duration) *Agent {
	if logger == nil {
		logger = applog.NoOp{}
	}
	return &Agent{Base: agents.NewBase("postgresql"), cache: c, logger: logger, httpClient: &http.Client{Timeout: timeout}}
}

// liveLookup queries endoflife.date for a static-table miss. Used as the
// scrape tier between a static-table miss and reporting failure.
func (a *Agent) liveLookup(ctx context.Context, softwareName, version string) (models.Envelope, bool) {
	cycles, err := agents.FetchEndOfLifeCycles(ctx, a.httpClient, agents.DefaultEndOfLifeBaseURL, endOfLifeSlug)
	if err != nil {
		return models.Envelope{}, false
	}
	cycle, ok := agents.SelectEndOfLifeCycle(cycles, version)
	if !ok {
		return models.Envelope{}, false
	}
	env := a.Success(softwareName, valueOrCycle(version, cycle.Cycle), cycle.EOL, cycle.Support, cycle.ReleaseDate, 0.75, urlRegistry[0].URL, models.DataSourceScraped)
	env.WithAdditional("cycle", cycle.Cycle)
	a.cache.Put(ctx, softwareName, version, a.Name(), env, urlRegistry[0].URL, false, "endoflife_api")
	return env, true
}

// IsRelevant implements agents.Agent.
func (a *Agent) IsRelevant(softwareName string) bool { return agents.MatchesAny(softwareName, keywords) }

// URLs implements agents.Agent.
func (a *Agent) URLs() []models.URLInfo { return urlRegistry }

// GetEOLData implements agents.Agent.
func (a *Agent) GetEOLData(ctx context.Context, softwareName, version string) models.Envelope {
	if cached := a.cache.Get(ctx, softwareName, version, a.Name()); cached != nil {
		return *cached
	}
	if cycle, ok := staticTable.Lookup(softwareName, version, vendorTokens); ok {
		eol, _ := models.ParseDate(cycle.EOLDate)
		support, _ := models.ParseDate(cycle.SupportEndDate)
		release, _ := models.ParseDate(cycle.ReleaseDate)
		env := a.Success(softwareName, valueOrCycle(version, cycle.Cycle), eol, support, release, 0.90, urlRegistry[0].URL, models.DataSourceStatic)
		env.WithAdditional("cycle", cycle.Cycle)
		a.cache.Put(ctx, softwareName, version, a.Name(), env, urlRegistry[0].URL, true, "static_table")
		return env
	}
	if env, ok := a.liveLookup(ctx, softwareName, version); ok {
		return env
	}
	env := a.Failure(softwareName, version, models.ErrNoDataFound, "no EOL information found for "+softwareName)
	a.cache.PutFailure(ctx, softwareName, version, a.Name(), env)
	return env
}

// PurgeCache implements agents.Agent.
func (a *Agent) PurgeCache(ctx context.Context, softwareName string) int {
	return a.cache.Purge(ctx, softwareName, a.Name())
}

func valueOrCycle(version, cycle string) string {
	if version != "" {
		return version
	}
	return cycle
}
