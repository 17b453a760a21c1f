package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jasonpanggit/eol-agents/internal/models"
)

// DefaultEndOfLifeBaseURL is the public endoflife.date API root every
// vendor agent's live-lookup tier queries by default.
const DefaultEndOfLifeBaseURL = "https://endoflife.date/api"

// EndOfLifeCycle mirrors the subset of fields the endoflife.date API
// returns per release cycle.
type EndOfLifeCycle struct {
	Cycle       string
	EOL         models.Date
	Support     models.Date
	ReleaseDate models.Date
	Latest      string
}

type rawEndOfLifeCycle struct {
	Cycle       string `json:"cycle"`
	EOL         any    `json:"eol"`     // string date, or false when still supported
	Support     any    `json:"support"` // string date, or bool
	ReleaseDate string `json:"releaseDate"`
	Latest      string `json:"latest"`
}

// FetchEndOfLifeCycles calls GET {baseURL}/{slug}.json against an
// endoflife.date-shaped API and decodes every cycle row it returns. Vendor
// agents without a reliable machine-parseable vendor page use this as
// their live-lookup tier on a static-table miss, instead of hand-rolling
// an HTML scraper per vendor page.
func FetchEndOfLifeCycles(ctx context.Context, client *http.Client, baseURL, slug string) ([]EndOfLifeCycle, error) {
	url := fmt.Sprintf("%s/%s.json", strings.TrimRight(baseURL, "/"), slug)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s not found in endoflife.date catalog", slug)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, slug)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var raw []rawEndOfLifeCycle
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	cycles := make([]EndOfLifeCycle, 0, len(raw))
	for _, r := range raw {
		release, _ := models.ParseDate(r.ReleaseDate)
		cycles = append(cycles, EndOfLifeCycle{
			Cycle:       r.Cycle,
			EOL:         ParseFlexibleDate(r.EOL),
			Support:     ParseFlexibleDate(r.Support),
			ReleaseDate: release,
			Latest:      r.Latest,
		})
	}
	return cycles, nil
}

// SelectEndOfLifeCycle picks the cycle matching version: exact
// major(.minor) equality first, then substring containment in either
// direction. An empty version selects the newest (first) cycle, since the
// API lists cycles newest-first.
func SelectEndOfLifeCycle(cycles []EndOfLifeCycle, version string) (EndOfLifeCycle, bool) {
	if version == "" {
		if len(cycles) == 0 {
			return EndOfLifeCycle{}, false
		}
		return cycles[0], true
	}
	majorMinor := models.MajorMinor(version)
	major := models.Major(version)
	for _, c := range cycles {
		if c.Cycle == majorMinor || c.Cycle == major {
			return c, true
		}
	}
	for _, c := range cycles {
		if strings.Contains(majorMinor, c.Cycle) || strings.Contains(c.Cycle, majorMinor) {
			return c, true
		}
	}
	return EndOfLifeCycle{}, false
}

// ParseFlexibleDate handles an endoflife.date-shaped "eol"/"support" field,
// which is either an ISO date string or the boolean false (still
// supported/ongoing).
func ParseFlexibleDate(v any) models.Date {
	s, ok := v.(string)
	if !ok {
		return models.Date{}
	}
	d, err := models.ParseDate(s)
	if err != nil {
		return models.Date{}
	}
	return d
}
