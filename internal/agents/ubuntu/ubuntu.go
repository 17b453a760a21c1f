// Package ubuntu resolves EOL data for Ubuntu LTS and interim releases.
//
// It keeps a static table as a fast, dependency-free baseline, and
// parseReleaseTable (golang.org/x/net/html) for BulkFetch, which scrapes
// the live releases page; RefreshCache writes those rows into the cache,
// and the static table itself never changes.
package ubuntu

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/jasonpanggit/eol-agents/internal/agents"
	"github.com/jasonpanggit/eol-agents/internal/applog"
	"github.com/jasonpanggit/eol-agents/internal/cache"
	"github.com/jasonpanggit/eol-agents/internal/models"
)

var keywords = []string{"ubuntu"}
var vendorTokens = []string{"ubuntu"}

var staticTable = agents.StaticTable{
	"ubuntu-16.04": {Key: "ubuntu-16.04", Cycle: "16.04 LTS", Codename: "Xenial Xerus", ReleaseDate: "2016-04-21", EOLDate: "2024-04-21", SupportEndDate: "2021-04-21", LTS: true, Latest: "16.04.7"},
	"ubuntu-18.04": {Key: "ubuntu-18.04", Cycle: "18.04 LTS", Codename: "Bionic Beaver", ReleaseDate: "2018-04-26", EOLDate: "2028-04-26", SupportEndDate: "2023-04-26", LTS: true, Latest: "18.04.6"},
	"ubuntu-20.04": {Key: "ubuntu-20.04", Cycle: "20.04 LTS", Codename: "Focal Fossa", ReleaseDate: "2020-04-23", EOLDate: "2030-04-23", SupportEndDate: "2025-04-23", LTS: true, Latest: "20.04.6"},
	"ubuntu-22.04": {Key: "ubuntu-22.04", Cycle: "22.04 LTS", Codename: "Jammy Jellyfish", ReleaseDate: "2022-04-21", EOLDate: "2032-04-21", SupportEndDate: "2027-04-21", LTS: true, Latest: "22.04.4"},
	"ubuntu-24.04": {Key: "ubuntu-24.04", Cycle: "24.04 LTS", Codename: "Noble Numbat", ReleaseDate: "2024-04-25", EOLDate: "2034-04-25", SupportEndDate: "2029-04-25", LTS: true, Latest: "24.04.1"},
}

var urlRegistry = []models.URLInfo{
	{URL: "https://documentation.ubuntu.com/project/release-team/list-of-releases/", Description: "Ubuntu Releases Wiki", Priority: 1, Active: true},
}

// Agent implements agents.Agent for Ubuntu.
type Agent struct {
	agents.Base
	cache      *cache.Cache
	logger     applog.Logger
	httpClient *http.Client
}

// New constructs the Ubuntu agent.
func New(c *cache.Cache, logger applog.Logger, httpTimeout time.Duration) *Agent {
	if logger == nil {
		logger = applog.NoOp{}
	}
	return &Agent{
		Base:       agents.NewBase("ubuntu"),
		cache:      c,
		logger:     logger,
		httpClient: &http.Client{Timeout: httpTimeout},
	}
}

// IsRelevant implements agents.Agent.
func (a *Agent) IsRelevant(softwareName string) bool { return agents.MatchesAny(softwareName, keywords) }

// URLs implements agents.Agent.
func (a *Agent) URLs() []models.URLInfo { return urlRegistry }

// GetEOLData implements agents.Agent: cache, then static table, then a
// live scrape of the releases page, then failure. The static table is
// the fast default path; a static-table miss (an interim release not
// yet added to the table, say) falls through to the same BulkFetch the
// scheduler uses for periodic refreshes, scoped to just the one release
// this lookup needs.
func (a *Agent) GetEOLData(ctx context.Context, softwareName, version string) models.Envelope {
	if cached := a.cache.Get(ctx, softwareName, version, a.Name()); cached != nil {
		return *cached
	}

	if cycle, ok := staticTable.Lookup(softwareName, version, vendorTokens); ok {
		eol, _ := models.ParseDate(cycle.EOLDate)
		support, _ := models.ParseDate(cycle.SupportEndDate)
		release, _ := models.ParseDate(cycle.ReleaseDate)
		env := a.Success(softwareName, valueOrCycle(version, cycle.Cycle), eol, support, release, 0.90, urlRegistry[0].URL, models.DataSourceStatic)
		env.WithAdditional("codename", cycle.Codename).WithAdditional("lts", cycle.LTS)
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

// liveLookup scrapes the releases page for the row matching version (or
// the newest row when version is empty) when the static table doesn't
// have it yet.
func (a *Agent) liveLookup(ctx context.Context, softwareName, version string) (models.Envelope, bool) {
	rows, err := a.BulkFetch(ctx)
	if err != nil {
		return models.Envelope{}, false
	}
	row, ok := selectReleaseRow(rows, version)
	if !ok {
		return models.Envelope{}, false
	}
	env := a.Success(softwareName, valueOrCycle(version, row.Cycle), row.EOLDate, models.Date{}, row.ReleaseDate, 0.80, urlRegistry[0].URL, models.DataSourceScraped)
	env.WithAdditional("codename", row.Codename)
	a.cache.Put(ctx, softwareName, version, a.Name(), env, urlRegistry[0].URL, false, "bulk_fetch")
	return env, true
}

// selectReleaseRow picks the row matching version's major.minor cycle, or
// the first (newest-listed) row when version is empty.
func selectReleaseRow(rows []ReleaseRow, version string) (ReleaseRow, bool) {
	if version == "" {
		if len(rows) == 0 {
			return ReleaseRow{}, false
		}
		return rows[0], true
	}
	majorMinor := models.MajorMinor(version)
	for _, row := range rows {
		if strings.Contains(row.Cycle, majorMinor) {
			return row, true
		}
	}
	return ReleaseRow{}, false
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

// ReleaseRow is one parsed row from Ubuntu's releases table.
type ReleaseRow struct {
	Cycle       string
	Codename    string
	ReleaseDate models.Date
	EOLDate     models.Date
}

// BulkFetch downloads the Ubuntu releases page and parses every release
// row out of its HTML table. It never panics: malformed HTML simply
// yields fewer rows.
func (a *Agent) BulkFetch(ctx context.Context) ([]ReleaseRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlRegistry[0].URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch releases page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching releases page", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read releases page: %w", err)
	}
	return parseReleaseTable(string(body)), nil
}

// parseReleaseTable walks the HTML tree looking for table rows whose
// cells contain a version-like token plus two dates; a genuine Ubuntu
// release row always has at least a release date and an EOL date.
func parseReleaseTable(body string) []ReleaseRow {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil
	}

	var rows []ReleaseRow
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			if row, ok := parseRow(n); ok {
				rows = append(rows, row)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return rows
}

func parseRow(tr *html.Node) (ReleaseRow, bool) {
	var cells []string
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "td" || n.Data == "th") {
			cells = append(cells, cellText(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(tr)

	if len(cells) < 2 {
		return ReleaseRow{}, false
	}

	row := ReleaseRow{}
	for _, cell := range cells {
		if row.Cycle == "" && looksLikeVersion(cell) {
			row.Cycle = cell
			continue
		}
		if d, ok := agents.ParseLooseDate(cell); ok {
			if !row.ReleaseDate.Valid() {
				row.ReleaseDate = d
			} else if !row.EOLDate.Valid() {
				row.EOLDate = d
			}
		}
	}
	if row.Cycle == "" || !row.ReleaseDate.Valid() {
		return ReleaseRow{}, false
	}
	return row, true
}

// RefreshCache calls BulkFetch and writes every parsed release row into the
// cache as a scraped-source entry, keyed the same way the static table is
// (normalizeCycleKey below), so a subsequent GetEOLData cache lookup serves
// the freshly scraped row ahead of the static table. It's the refresh hook
// a periodic scheduler job calls to keep Ubuntu's EOL data current without
// waiting for a code change to the static table.
func (a *Agent) RefreshCache(ctx context.Context) (int, error) {
	rows, err := a.BulkFetch(ctx)
	if err != nil {
		return 0, err
	}
	refreshed := 0
	for _, row := range rows {
		if row.Cycle == "" || !row.EOLDate.Valid() {
			continue
		}
		key := normalizeCycleKey(row.Cycle)
		env := a.Success(key, row.Cycle, row.EOLDate, models.Date{}, row.ReleaseDate, 0.85, urlRegistry[0].URL, models.DataSourceScraped)
		env.WithAdditional("codename", row.Codename)
		a.cache.Put(ctx, key, "", a.Name(), env, urlRegistry[0].URL, true, "bulk_fetch")
		refreshed++
	}
	return refreshed, nil
}

// normalizeCycleKey turns a cycle string like "20.04 LTS" into the
// "ubuntu-20.04" cache key form the static table and GetEOLData both use.
func normalizeCycleKey(cycle string) string {
	version := strings.Fields(cycle)
	if len(version) == 0 {
		return "ubuntu"
	}
	return "ubuntu-" + version[0]
}

func cellText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

func looksLikeVersion(s string) bool {
	if len(s) < 2 || len(s) > 8 {
		return false
	}
	dots := 0
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c == '.':
			dots++
		default:
			return false
		}
	}
	return dots >= 1
}
