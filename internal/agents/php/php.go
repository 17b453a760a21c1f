// Package php resolves EOL data for PHP and the Symfony framework.
package php

import (
	"context"
	"net/http"
	"time"

	"github.com/jasonpanggit/eol-agents/internal/agents"
	"github.com/jasonpanggit/eol-agents/internal/applog"
	"github.com/jasonpanggit/eol-agents/internal/cache"
	"github.com/jasonpanggit/eol-agents/internal/models"
)

var keywords = []string{"php", "symfony"}
var vendorTokens = []string{"php", "symfony"}

var staticTable = agents.StaticTable{
	"php-8.3":      {Key: "php-8.3", Cycle: "8.3", ReleaseDate: "2023-11-23", EOLDate: "2026-11-23", SupportEndDate: "2025-11-23", Latest: "8.3.0"},
	"php-8.2":      {Key: "php-8.2", Cycle: "8.2", ReleaseDate: "2022-12-08", EOLDate: "2025-12-08", SupportEndDate: "2024-12-08", Latest: "8.2.13"},
	"php-8.1":      {Key: "php-8.1", Cycle: "8.1", ReleaseDate: "2021-11-25", EOLDate: "2024-11-25", SupportEndDate: "2023-11-25", Latest: "8.1.26"},
	"php-8.0":      {Key: "php-8.0", Cycle: "8.0", ReleaseDate: "2020-11-26", EOLDate: "2023-11-26", SupportEndDate: "2022-11-26", Latest: "8.0.30"},
	"php-7.4":      {Key: "php-7.4", Cycle: "7.4", ReleaseDate: "2019-11-28", EOLDate: "2022-11-28", SupportEndDate: "2021-11-28", Latest: "7.4.33"},
	"php-7.3":      {Key: "php-7.3", Cycle: "7.3", ReleaseDate: "2018-12-06", EOLDate: "2021-12-06", SupportEndDate: "2020-12-06", Latest: "7.3.33"},
	"symfony-6.4":  {Key: "symfony-6.4", Cycle: "6.4 LTS", ReleaseDate: "2023-11-30", EOLDate: "2029-11-30", SupportEndDate: "2027-11-30", LTS: true},
}

var urlRegistry = []models.URLInfo{
	{URL: "https://www.php.net/supported-versions.php", Description: "PHP Supported Versions", Priority: 1, Active: true},
	{URL: "https://symfony.com/releases", Description: "Symfony Release Process", Priority: 2, Active: true},
}

// Agent implements agents.Agent for PHP and Symfony.
type Agent struct {
	agents.Base
	cache      *cache.Cache
	logger     applog.Logger
	httpClient *http.Client
}

// New constructs the PHP agent.
func New(c *cache.Cache, logger applog.Logger, timeout time.Duration) *Agent {
	if logger == nil {
		logger = applog.NoOp{}
	}
	return &Agent{Base: agents.NewBase("php"), cache: c, logger: logger, httpClient: &http.Client{Timeout: timeout}}
}

// endOfLifeSlugs maps this agent's vendor tokens to their endoflife.date
// catalog slugs.
var endOfLifeSlugs = map[string]string{
	"php":     "php",
	"symfony": "symfony",
}

// liveLookup queries endoflife.date for a vendor token this agent's static
// table missed. Used as the scrape tier between a static-table miss and
// reporting failure.
func (a *Agent) liveLookup(ctx context.Context, softwareName, version string) (models.Envelope, bool) {
	slug := ""
	sourceURL := urlRegistry[0].URL
	switch {
	case agents.MatchesAny(softwareName, []string{"symfony"}):
		slug = endOfLifeSlugs["symfony"]
		sourceURL = urlRegistry[1].URL
	case agents.MatchesAny(softwareName, []string{"php"}):
		slug = endOfLifeSlugs["php"]
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
		if agents.MatchesAny(softwareName, []string{"symfony"}) {
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
