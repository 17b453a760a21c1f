// Package microsoft resolves EOL data for Windows Server, Windows client,
// and SQL Server, using Microsoft's published lifecycle dates in the
// same static-table shape every other vendor agent uses.
package microsoft

import (
	"context"
	"net/http"
	"time"

	"github.com/jasonpanggit/eol-agents/internal/agents"
	"github.com/jasonpanggit/eol-agents/internal/applog"
	"github.com/jasonpanggit/eol-agents/internal/cache"
	"github.com/jasonpanggit/eol-agents/internal/models"
)

var keywords = []string{"windows", "microsoft", "sql server", "ms sql", ".net framework"}
var vendorTokens = []string{"windows", "sql"}

var staticTable = agents.StaticTable{
	"windows-server-2012-r2": {Key: "windows-server-2012-r2", Cycle: "2012 R2", ReleaseDate: "2013-11-25", EOLDate: "2023-10-10", SupportEndDate: "2018-10-09"},
	"windows-server-2016":    {Key: "windows-server-2016", Cycle: "2016", ReleaseDate: "2016-10-15", EOLDate: "2027-01-12", SupportEndDate: "2022-01-11"},
	"windows-server-2019":    {Key: "windows-server-2019", Cycle: "2019", ReleaseDate: "2018-11-13", EOLDate: "2029-01-09", SupportEndDate: "2024-01-09"},
	"windows-server-2022":    {Key: "windows-server-2022", Cycle: "2022", ReleaseDate: "2021-08-18", EOLDate: "2031-10-14", SupportEndDate: "2026-10-13"},
	"sql-server-2016":        {Key: "sql-server-2016", Cycle: "2016", ReleaseDate: "2016-06-01", EOLDate: "2026-07-14", SupportEndDate: "2021-07-13"},
	"sql-server-2019":        {Key: "sql-server-2019", Cycle: "2019", ReleaseDate: "2019-11-04", EOLDate: "2030-01-08", SupportEndDate: "2025-02-28"},
}

var urlRegistry = []models.URLInfo{
	{URL: "https://learn.microsoft.com/en-us/lifecycle/products/", Description: "Microsoft Lifecycle Search", Priority: 1, Active: true},
	{URL: "https://learn.microsoft.com/en-us/lifecycle/products/windows-server-2012-r2", Description: "Windows Server 2012 R2 Lifecycle", Priority: 2, Active: true},
}

// Agent implements agents.Agent for Microsoft products.
type Agent struct {
	agents.Base
	cache      *cache.Cache
	logger     applog.Logger
	httpClient *http.Client
}

// New constructs the Microsoft agent.
func New(c *cache.Cache, logger applog.Logger, timeout time.Duration) *Agent {
	if logger == nil {
		logger = applog.NoOp{}
	}
	return &Agent{Base: agents.NewBase("microsoft"), cache: c, logger: logger, httpClient: &http.Client{Timeout: timeout}}
}

// endOfLifeSlugs maps this agent's vendor tokens to their endoflife.date
// catalog slugs. Both are unconfirmed guesses at the real catalog naming;
// an unmatched slug 404s and liveLookup falls through to static failure.
var endOfLifeSlugs = map[string]string{
	"windows": "windows-server",
	"sql":     "mssqlserver",
}

// liveLookup queries endoflife.date for a vendor token this agent's static
// table missed. Used as the scrape tier between a static-table miss and
// reporting failure.
func (a *Agent) liveLookup(ctx context.Context, softwareName, version string) (models.Envelope, bool) {
	slug := ""
	for token, s := range endOfLifeSlugs {
		if agents.MatchesAny(softwareName, []string{token}) {
			slug = s
			break
		}
	}
	if slug == "" {
		return models.Envelope{}, false
	}
	cycles, err := agents.FetchEndOfLifeCycles(ctx, a.httpClient, agents.DefaultEndOfLifeBaseURL, slug)
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

// GetEOLData implements agents.Agent. Windows Server's product name
// itself carries the cycle (no version number is passed for
// "Windows Server 2012 R2"), so the normalized key match is tried before
// falling through to the version-aware tiers.
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
