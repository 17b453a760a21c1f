// Package redhat resolves EOL data for Red Hat Enterprise Linux, CentOS,
// and Fedora, in the same static-table shape the other vendor agents use.
package redhat

import (
	"context"
	"net/http"
	"time"

	"github.com/jasonpanggit/eol-agents/internal/agents"
	"github.com/jasonpanggit/eol-agents/internal/applog"
	"github.com/jasonpanggit/eol-agents/internal/cache"
	"github.com/jasonpanggit/eol-agents/internal/models"
)

var keywords = []string{"red hat", "redhat", "rhel", "centos", "fedora"}
var vendorTokens = []string{"rhel", "centos", "fedora"}

var staticTable = agents.StaticTable{
	"rhel-7":    {Key: "rhel-7", Cycle: "7", ReleaseDate: "2014-06-10", EOLDate: "2024-06-30", SupportEndDate: "2019-08-06"},
	"rhel-8":    {Key: "rhel-8", Cycle: "8", ReleaseDate: "2019-05-07", EOLDate: "2029-05-31", SupportEndDate: "2024-05-31"},
	"rhel-9":    {Key: "rhel-9", Cycle: "9", ReleaseDate: "2022-05-17", EOLDate: "2032-05-31", SupportEndDate: "2027-05-31"},
	"centos-7":  {Key: "centos-7", Cycle: "7", ReleaseDate: "2014-07-07", EOLDate: "2024-06-30", SupportEndDate: "2020-08-06"},
	"centos-8":  {Key: "centos-8", Cycle: "8", ReleaseDate: "2019-09-24", EOLDate: "2021-12-31", SupportEndDate: "2021-12-31"},
	"fedora-39": {Key: "fedora-39", Cycle: "39", ReleaseDate: "2023-11-07", EOLDate: "2024-11-26", SupportEndDate: "2024-11-26"},
	"fedora-40": {Key: "fedora-40", Cycle: "40", ReleaseDate: "2024-04-23", EOLDate: "2025-05-13", SupportEndDate: "2025-05-13"},
}

var urlRegistry = []models.URLInfo{
	{URL: "https://access.redhat.com/support/policy/updates/errata", Description: "Red Hat Enterprise Linux Life Cycle", Priority: 1, Active: true},
	{URL: "https://endoflife.date/centos", Description: "CentOS Release Cycle", Priority: 2, Active: true},
	{URL: "https://endoflife.date/fedora", Description: "Fedora Release Cycle", Priority: 3, Active: true},
}

// Agent implements agents.Agent for the Red Hat family.
type Agent struct {
	agents.Base
	cache      *cache.Cache
	logger     applog.Logger
	httpClient *http.Client
}

// New constructs the Red Hat agent.
func New(c *cache.Cache, logger applog.Logger, timeout time.Duration) *Agent {
	if logger == nil {
		logger = applog.NoOp{}
	}
	return &Agent{Base: agents.NewBase("redhat"), cache: c, logger: logger, httpClient: &http.Client{Timeout: timeout}}
}

// endOfLifeSlugs maps this agent's vendor tokens to their endoflife.date
// catalog slugs, for the vendor tokens that have one.
var endOfLifeSlugs = map[string]string{
	"rhel":   "rhel",
	"centos": "centos",
	"fedora": "fedora",
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
	sourceURL := sourceURLFor(softwareName)
	env := a.Success(softwareName, valueOrCycle(version, cycle.Cycle), cycle.EOL, cycle.Support, cycle.ReleaseDate, 0.75, sourceURL, models.DataSourceScraped)
	env.WithAdditional("cycle", cycle.Cycle)
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
		sourceURL := sourceURLFor(softwareName)
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

func sourceURLFor(softwareName string) string {
	switch {
	case agents.MatchesAny(softwareName, []string{"centos"}):
		return urlRegistry[1].URL
	case agents.MatchesAny(softwareName, []string{"fedora"}):
		return urlRegistry[2].URL
	default:
		return urlRegistry[0].URL
	}
}

func valueOrCycle(version, cycle string) string {
	if version != "" {
		return version
	}
	return cycle
}
