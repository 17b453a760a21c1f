// Package python resolves EOL data for CPython and Django.
package python

import (
	"context"
	"net/http"
	"time"

	"github.com/jasonpanggit/eol-agents/internal/agents"
	"github.com/jasonpanggit/eol-agents/internal/applog"
	"github.com/jasonpanggit/eol-agents/internal/cache"
	"github.com/jasonpanggit/eol-agents/internal/models"
)

var keywords = []string{"python", "cpython", "django"}
var vendorTokens = []string{"python", "django"}

var staticTable = agents.StaticTable{
	"python-3.12": {Key: "python-3.12", Cycle: "3.12", ReleaseDate: "2023-10-02", EOLDate: "2028-10-02", SupportEndDate: "2028-10-02", Latest: "3.12.0"},
	"python-3.11": {Key: "python-3.11", Cycle: "3.11", ReleaseDate: "2022-10-24", EOLDate: "2027-10-24", SupportEndDate: "2027-10-24", Latest: "3.11.6"},
	"python-3.10": {Key: "python-3.10", Cycle: "3.10", ReleaseDate: "2021-10-04", EOLDate: "2026-10-04", SupportEndDate: "2026-10-04", Latest: "3.10.13"},
	"python-3.9":  {Key: "python-3.9", Cycle: "3.9", ReleaseDate: "2020-10-05", EOLDate: "2025-10-05", SupportEndDate: "2025-10-05", Latest: "3.9.18"},
	"python-3.8":  {Key: "python-3.8", Cycle: "3.8", ReleaseDate: "2019-10-14", EOLDate: "2024-10-14", SupportEndDate: "2024-10-14", Latest: "3.8.18"},
	"python-3.7":  {Key: "python-3.7", Cycle: "3.7", ReleaseDate: "2018-06-27", EOLDate: "2023-06-27", SupportEndDate: "2023-06-27", Latest: "3.7.17"},
	"python-2.7":  {Key: "python-2.7", Cycle: "2.7", ReleaseDate: "2010-07-03", EOLDate: "2020-01-01", SupportEndDate: "2020-01-01", Latest: "2.7.18"},
}

var urlRegistry = []models.URLInfo{
	{URL: "https://devguide.python.org/versions/", Description: "Python Version Release Schedule", Priority: 1, Active: true},
	{URL: "https://www.djangoproject.com/download/", Description: "Django Release Information", Priority: 2, Active: true},
}

// Agent implements agents.Agent for Python and Django.
type Agent struct {
	agents.Base
	cache      *cache.Cache
	logger     applog.Logger
	httpClient *http.Client
}

// New constructs the Python agent.
func New(c *cache.Cache, logger applog.Logger, timeout time.Duration) *Agent {
	if logger == nil {
		logger = applog.NoOp{}
	}
	return &Agent{Base: agents.NewBase("python"), cache: c, logger: logger, httpClient: &http.Client{Timeout: timeout}}
}

// endOfLifeSlugs maps this agent's vendor tokens to their endoflife.date
// catalog slugs.
var endOfLifeSlugs = map[string]string{
	"python": "python",
	"django": "django",
}

// liveLookup queries endoflife.date for a vendor token this agent's static
// table missed. Used as the scrape tier between a static-table miss and
// reporting failure.
func (a *Agent) liveLookup(ctx context.Context, softwareName, version string) (models.Envelope, bool) {
	slug := endOfLifeSlugs["python"]
	sourceURL := urlRegistry[0].URL
	if agents.MatchesAny(softwareName, []string{"django"}) {
		slug = endOfLifeSlugs["django"]
		sourceURL = urlRegistry[1].URL
	}
	cycles, err := agents.FetchEndOfLifeCycles(ctx, a.httpClient, agents.DefaultEndOfLifeBaseURL, slug)
	if err != nil {
		return models.Envelope{}, false
	}
	cycle, ok := agents.SelectEndOfLifeCycle(cycles, version)
	if !ok {
		return models.Envelope{}, false
	}
	env := a.Success(softwareName, valueOrCycle(version, cycle.Cycle), cycle.EOL, cycle.Support, cycle.ReleaseDate, 0.75, sourceURL, models.DataSourceScraped)
	env.WithAdditional("latest", cycle.Latest)
	a.cache.Put(ctx, softwareName, version, a.Name(), env, sourceURL, false, "endoflife_api")
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
		sourceURL := urlRegistry[0].URL
		if agents.MatchesAny(softwareName, []string{"django"}) {
			sourceURL = urlRegistry[1].URL
		}
		env := a.Success(softwareName, valueOrCycle(version, cycle.Cycle), eol, support, release, 0.95, sourceURL, models.DataSourceStatic)
		env.WithAdditional("latest", cycle.Latest)
		a.cache.Put(ctx, softwareName, version, a.Name(), env, sourceURL, true, "static_table")
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
