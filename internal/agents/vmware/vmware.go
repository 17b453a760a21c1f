// Package vmware resolves EOL data for VMware vSphere, ESXi, and vCenter.
// using the same static-table shape as the other vendor agents.
package vmware

import (
	"context"
	"net/http"
	"time"

	"github.com/jasonpanggit/eol-agents/internal/agents"
	"github.com/jasonpanggit/eol-agents/internal/applog"
	"github.com/jasonpanggit/eol-agents/internal/cache"
	"github.com/jasonpanggit/eol-agents/internal/models"
)

var keywords = []string{"vmware", "vsphere", "esxi", "vcenter", "nsx"}
var vendorTokens = []string{"vsphere", "esxi", "vcenter"}

var staticTable = agents.StaticTable{
	"vsphere-7.0": {Key: "vsphere-7.0", Cycle: "7.0", ReleaseDate: "2020-04-02", EOLDate: "2025-04-02", SupportEndDate: "2023-04-02"},
	"vsphere-8.0": {Key: "vsphere-8.0", Cycle: "8.0", ReleaseDate: "2022-10-11", EOLDate: "2027-10-11", SupportEndDate: "2025-10-11"},
	"esxi-6.7":    {Key: "esxi-6.7", Cycle: "6.7", ReleaseDate: "2018-04-17", EOLDate: "2022-10-15", SupportEndDate: "2020-11-15"},
	"esxi-7.0":    {Key: "esxi-7.0", Cycle: "7.0", ReleaseDate: "2020-04-02", EOLDate: "2025-04-02", SupportEndDate: "2023-04-02"},
	"esxi-8.0":    {Key: "esxi-8.0", Cycle: "8.0", ReleaseDate: "2022-10-11", EOLDate: "2027-10-11", SupportEndDate: "2025-10-11"},
}

var urlRegistry = []models.URLInfo{
	{URL: "https://lifecycle.vmware.com/", Description: "VMware Product Lifecycle Matrix", Priority: 1, Active: true},
}

// Agent implements agents.Agent for VMware products.
type Agent struct {
	agents.Base
	cache      *cache.Cache
	logger     applog.Logger
	httpClient *http.Client
}

// New constructs the VMware agent.
func New(c *cache.Cache, logger applog.Logger, timeout time.Duration) *Agent {
	if logger == nil {
		logger = applog.NoOp{}
	}
	return &Agent{Base: agents.NewBase("vmware"), cache: c, logger: logger, httpClient: &http.Client{Timeout: timeout}}
}

// endOfLifeSlugs maps this agent's vendor tokens to their endoflife.date
// catalog slugs, both unconfirmed guesses; "vcenter" has no known catalog
// entry and is left unmapped. An unmatched or wrong slug 404s and
// liveLookup falls through to static failure.
var endOfLifeSlugs = map[string]string{
	"vsphere": "vmware-vsphere",
	"esxi":    "esxi",
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
