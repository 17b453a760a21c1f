// Package apache resolves EOL data for the Apache Software Foundation's
// major server products (httpd, Tomcat, Kafka, Spark, Maven, Cassandra,
// Solr).
package apache

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/jasonpanggit/eol-agents/internal/agents"
	"github.com/jasonpanggit/eol-agents/internal/applog"
	"github.com/jasonpanggit/eol-agents/internal/cache"
	"github.com/jasonpanggit/eol-agents/internal/models"
)

var keywords = []string{
	"apache", "httpd", "tomcat", "kafka", "spark", "maven", "ant",
	"cassandra", "solr", "lucene", "struts", "camel",
}

var vendorTokens = []string{
	"httpd", "tomcat", "kafka", "spark", "maven", "ant", "cassandra", "solr",
}

// staticTable is a hand-curated source of truth for the exact cycles,
// dates, and latest-patch versions of products that rarely expose their
// EOL pages in a machine-parseable way.
var staticTable = agents.StaticTable{
	"apache-httpd-2.4": {Key: "apache-httpd-2.4", Cycle: "2.4", ReleaseDate: "2012-02-21", EOLDate: "2026-06-01", SupportEndDate: "2025-06-01", Latest: "2.4.58"},
	"apache-httpd-2.2": {Key: "apache-httpd-2.2", Cycle: "2.2", ReleaseDate: "2005-12-01", EOLDate: "2017-12-31", SupportEndDate: "2017-12-31", Latest: "2.2.34"},
	"tomcat-10":        {Key: "tomcat-10", Cycle: "10.1", ReleaseDate: "2022-01-01", EOLDate: "2027-12-31", SupportEndDate: "2026-12-31", Latest: "10.1.16"},
	"tomcat-9":         {Key: "tomcat-9", Cycle: "9.0", ReleaseDate: "2017-09-01", EOLDate: "2026-12-31", SupportEndDate: "2025-12-31", Latest: "9.0.83"},
	"tomcat-8.5":       {Key: "tomcat-8.5", Cycle: "8.5", ReleaseDate: "2016-06-01", EOLDate: "2024-03-31", SupportEndDate: "2024-03-31", Latest: "8.5.96"},
	"kafka-3.6":        {Key: "kafka-3.6", Cycle: "3.6", ReleaseDate: "2023-10-10", EOLDate: "2025-10-10", SupportEndDate: "2024-10-10", Latest: "3.6.0"},
	"kafka-3.5":        {Key: "kafka-3.5", Cycle: "3.5", ReleaseDate: "2023-06-15", EOLDate: "2025-06-15", SupportEndDate: "2024-06-15", Latest: "3.5.1"},
	"spark-3.5":        {Key: "spark-3.5", Cycle: "3.5", ReleaseDate: "2023-09-07", EOLDate: "2025-09-07", SupportEndDate: "2024-09-07", Latest: "3.5.0"},
	"spark-3.4":        {Key: "spark-3.4", Cycle: "3.4", ReleaseDate: "2023-04-13", EOLDate: "2025-04-13", SupportEndDate: "2024-04-13", Latest: "3.4.1"},
	"maven-3.9":        {Key: "maven-3.9", Cycle: "3.9", ReleaseDate: "2023-02-14", EOLDate: "2025-02-14", SupportEndDate: "2024-02-14", Latest: "3.9.6"},
	"maven-3.8":        {Key: "maven-3.8", Cycle: "3.8", ReleaseDate: "2021-03-09", EOLDate: "2024-03-09", SupportEndDate: "2023-03-09", Latest: "3.8.8"},
	"cassandra-4.1":    {Key: "cassandra-4.1", Cycle: "4.1", ReleaseDate: "2022-12-13", EOLDate: "2026-12-13", SupportEndDate: "2025-12-13", Latest: "4.1.3"},
	"cassandra-4.0":    {Key: "cassandra-4.0", Cycle: "4.0", ReleaseDate: "2021-07-26", EOLDate: "2025-07-26", SupportEndDate: "2024-07-26", Latest: "4.0.11"},
	"solr-9.4":         {Key: "solr-9.4", Cycle: "9.4", ReleaseDate: "2023-10-24", EOLDate: "2025-10-24", SupportEndDate: "2024-10-24", Latest: "9.4.0"},
	"solr-9.3":         {Key: "solr-9.3", Cycle: "9.3", ReleaseDate: "2023-07-18", EOLDate: "2025-07-18", SupportEndDate: "2024-07-18", Latest: "9.3.0"},
}

var urlRegistry = []models.URLInfo{
	{URL: "https://httpd.apache.org/download.cgi", Description: "Apache HTTP Server Downloads", Priority: 1, Active: true},
	{URL: "https://tomcat.apache.org/whichversion.html", Description: "Apache Tomcat Version Information", Priority: 2, Active: true},
	{URL: "https://kafka.apache.org/downloads", Description: "Apache Kafka Downloads", Priority: 3, Active: true},
	{URL: "https://spark.apache.org/downloads.html", Description: "Apache Spark Downloads", Priority: 4, Active: true},
	{URL: "https://maven.apache.org/download.cgi", Description: "Apache Maven Downloads", Priority: 5, Active: true},
	{URL: "https://cassandra.apache.org/download/", Description: "Apache Cassandra Downloads", Priority: 6, Active: true},
	{URL: "https://solr.apache.org/downloads.html", Description: "Apache Solr Downloads", Priority: 7, Active: true},
}

// productURLs maps a vendor token to its canonical download/version
// page; sourceURLFor walks this same association to pick which page a
// given software name belongs to.
var productURLs = map[string]string{
	"httpd":     urlRegistry[0].URL,
	"tomcat":    urlRegistry[1].URL,
	"kafka":     urlRegistry[2].URL,
	"spark":     urlRegistry[3].URL,
	"maven":     urlRegistry[4].URL,
	"cassandra": urlRegistry[5].URL,
	"solr":      urlRegistry[6].URL,
}

// Agent implements agents.Agent for Apache Foundation products.
type Agent struct {
	agents.Base
	cache      *cache.Cache
	logger     applog.Logger
	httpClient *http.Client
}

// New constructs the Apache agent.
func New(c *cache.Cache, logger applog.Logger, timeout time.Duration) *Agent {
	if logger == nil {
		logger = applog.NoOp{}
	}
	return &Agent{Base: agents.NewBase("apache"), cache: c, logger: logger, httpClient: &http.Client{Timeout: timeout}}
}

// liveLookup queries endoflife.date for a vendor token this agent's static
// table missed, using the same vendor token as the catalog slug (httpd,
// tomcat, kafka, spark, maven, cassandra, and solr are all real
// endoflife.date entries). Used as the scrape tier between a static-table
// miss and reporting failure.
func (a *Agent) liveLookup(ctx context.Context, softwareName, version string) (models.Envelope, bool) {
	lower := strings.ToLower(softwareName)
	slug := ""
	for _, token := range vendorTokens {
		if strings.Contains(lower, token) {
			slug = token
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
	env.WithAdditional("cycle", cycle.Cycle).WithAdditional("latest", cycle.Latest)
	a.cache.Put(ctx, softwareName, version, a.Name(), env, sourceURL, false, "endoflife_api")
	return env, true
}

// IsRelevant implements agents.Agent.
func (a *Agent) IsRelevant(softwareName string) bool {
	return agents.MatchesAny(softwareName, keywords)
}

// URLs implements agents.Agent.
func (a *Agent) URLs() []models.URLInfo { return urlRegistry }

// GetEOLData implements agents.Agent: cache, then static table, then an
// endoflife.date live lookup, then failure.
func (a *Agent) GetEOLData(ctx context.Context, softwareName, version string) models.Envelope {
	if cached := a.cache.Get(ctx, softwareName, version, a.Name()); cached != nil {
		return *cached
	}

	if cycle, ok := staticTable.Lookup(softwareName, version, vendorTokens); ok {
		eol, _ := models.ParseDate(cycle.EOLDate)
		support, _ := models.ParseDate(cycle.SupportEndDate)
		release, _ := models.ParseDate(cycle.ReleaseDate)
		env := a.Success(softwareName, valueOrCycle(version, cycle.Cycle), eol, support, release, 0.90, sourceURLFor(softwareName), models.DataSourceStatic)
		env.WithAdditional("cycle", cycle.Cycle).WithAdditional("latest", cycle.Latest)
		a.cache.Put(ctx, softwareName, version, a.Name(), env, sourceURLFor(softwareName), true, "static_table")
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

func sourceURLFor(softwareName string) string {
	lower := strings.ToLower(softwareName)
	for _, token := range vendorTokens {
		if strings.Contains(lower, token) {
			return productURLs[token]
		}
	}
	return urlRegistry[0].URL
}
