// Package oracle resolves EOL data for Oracle Database and Oracle Linux.
// using the same static-table shape as the other vendor agents.
package oracle

import (
	"context"
	"net/http"
	"time"

	"github.com/jasonpanggit/eol-agents/internal/agents"
	"github.com/jasonpanggit/eol-agents/internal/applog"
	"github.com/jasonpanggit/eol-agents/internal/cache"
	"github.com/jasonpanggit/eol-agents/internal/models"
)

var keywords = []string{"oracle", "oracle database", "oracle linux", "weblogic"}
var vendorTokens = []string{"database", "linux", "weblogic"}

var staticTable = agents.StaticTable{
	"oracle-database-19c": {Key: "oracle-database-19c", Cycle: "19c", ReleaseDate: "2019-02-28", EOLDate: "2027-04-30", SupportEndDate: "2024-04-30"},
	"oracle-database-21c": {Key: "oracle-database-21c", Cycle: "21c", ReleaseDate: "2021-08-01", EOLDate: "2024-04-30", SupportEndDate: "2023-04-30"},
	"oracle-database-23c": {Key: "oracle-database-23c", Cycle: "23c", ReleaseDate: "2023-09-01", EOLDate: "2028-04-30", SupportEndDate: "2026-04-30"},
	"oracle-linux-7":      {Key: "oracle-linux-7", Cycle: "7", ReleaseDate: "2014-07-23", EOLDate: "2024-07-19", SupportEndDate: "2024-07-19"},
	"oracle-linux-8":      {Key: "oracle-linux-8", Cycle: "8", ReleaseDate: "2019-07-03", EOLDate: "2029-07-01", SupportEndDate: "2029-07-01"},
	"oracle-linux-9":      {Key: "oracle-linux-9", Cycle: "9", ReleaseDate: "2022-06-30", EOLDate: "2032-06-01", SupportEndDate: "2032-06-01"},
}

var urlRegistry = []models.URLInfo{
	{URL: "https://www.oracle.com/database/technologies/appendix-a.html", Description: "Oracle Database Release Schedule", Priority: 1, Active: true},
	{URL: "https://endoflife.date/oracle-linux", Description: "Oracle Linux Release Cycle", Priority: 2, Active: true},
}

// Agent implements agents.Agent for Oracle products.
type Agent struct {
	agents.Base
	cache      *cache.Cache
	logger     applog.Logger
	httpClient *http.Client
}

// New constructs the Oracle agent.
func New(c *cache.Cache, logger applog.Logger, timeout time.Duration) *Agent {
	if logger == nil {
		logger = applog.NoOp{}
	}
	return &Agent{Base: agents.NewBase("oracle"), cache: c, logger: logger, httpClient: &http.Client{Timeout: timeout}}
}

// endOfLifeSlugs maps this agent's vendor tokens to their endoflife.date
// catalog slugs. "database" has no known endoflife.date entry (Oracle
// Database lifecycle dates live only in Oracle's own support matrix) so it
// is left unmapped; "weblogic" likewise has no public catalog entry.
var endOfLifeSlugs = map[string]string{
	"linux": "oracle-linux",
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
	env := a.Success(softwareName, valueOrCycle(version, cycle.Cycle), cycle.EOL, cycle.Support, cycle.ReleaseDate, 0.75, urlRegistry[1].URL, models.DataSourceScraped)
	env.WithAdditional("cycle", cycle.Cycle)
	a.cache.Put(ctx, softwareName, version, a.Name(), env, urlRegistry[1].URL, false, "endoflife_api")
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
		if agents.MatchesAny(softwareName, []string{"linux"}) {
			sourceURL = urlRegistry[1].URL
		}
		env := a.Success(softwareName, valueOrCycle(version, cycle.Cycle), eol, support, release, 0.90, sourceURL, models.DataSourceStatic)
		env.WithAdditional("cycle", cycle.Cycle)
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
