// Package nodejs resolves EOL data for Node.js releases. It favors a
// static table over a live scrape as its primary source since it gives
// deterministic, dependency-free answers.
package nodejs

import (
	"context"
	"net/http"
	"time"

	"github.com/jasonpanggit/eol-agents/internal/agents"
	"github.com/jasonpanggit/eol-agents/internal/applog"
	"github.com/jasonpanggit/eol-agents/internal/cache"
	"github.com/jasonpanggit/eol-agents/internal/models"
)

// endOfLifeSlug is Node.js's endoflife.date catalog slug.
const endOfLifeSlug = "nodejs"

var keywords = []string{"node", "nodejs", "node.js"}
var vendorTokens = []string{"node", "nodejs"}

var staticTable = agents.StaticTable{
	"nodejs-16": {Key: "nodejs-16", Cycle: "16 LTS", ReleaseDate: "2021-04-20", EOLDate: "2023-09-11", SupportEndDate: "2022-10-18", LTS: true, Latest: "16.20.2"},
	"nodejs-18": {Key: "nodejs-18", Cycle: "18 LTS", ReleaseDate: "2022-04-19", EOLDate: "2025-04-30", SupportEndDate: "2024-10-30", LTS: true, Latest: "18.19.0"},
	"nodejs-20": {Key: "nodejs-20", Cycle: "20 LTS", ReleaseDate: "2023-04-18", EOLDate: "2026-04-30", SupportEndDate: "2025-10-30", LTS: true, Latest: "20.10.0"},
	"nodejs-22": {Key: "nodejs-22", Cycle: "22 LTS", ReleaseDate: "2024-04-24", EOLDate: "2027-04-30", SupportEndDate: "2026-10-30", LTS: true, Latest: "22.1.0"},
}

var urlRegistry = []models.URLInfo{
	{URL: "https://nodejs.org/en/about/previous-releases", Description: "Node.js Release Schedule", Priority: 1, Active: true},
}

// Agent implements agents.Agent for Node.js.
type Agent struct {
	agents.Base
	cache      *cache.Cache
	logger     applog.Logger
	httpClient *http.Client
}

// New constructs the Node.js agent.
func New(c *cache.Cache, logger applog.Logger, timeout time.Duration) *Agent {
	if logger == nil {
		logger = applog.NoOp{}
	}
	return &Agent{Base: agents.NewBase("nodejs"), cache: c, logger: logger, httpClient: &http.Client{Timeout: timeout}}
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
	env.WithAdditional("latest", cycle.Latest)
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
		env.WithAdditional("lts", cycle.LTS).WithAdditional("latest", cycle.Latest)
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
