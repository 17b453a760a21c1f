// Package fallback implements the generic, vendor-agnostic EOL lookup that
// the orchestrator reaches for when no specialist agent produced a
// confident answer: drive a headless browser against a search engine,
// pull back the rendered text, and hand it to the date-extraction pass in
// extract.go.
//
// The browser-lifecycle shape (one browser, many short-lived pages;
// stealth launch arguments; a Cloudflare challenge-page detector that
// polls for up to challengeWaitBudget and falls back to probing iframes;
// a selector fallback chain) follows the go-rod idiom (launcher.New()
// options, page.WaitLoad/page.Elements flow, and
// session_manager.go's one-browser-many-pages lifecycle).
package fallback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/jasonpanggit/eol-agents/internal/agents"
	"github.com/jasonpanggit/eol-agents/internal/ai"
	"github.com/jasonpanggit/eol-agents/internal/applog"
	"github.com/jasonpanggit/eol-agents/internal/cache"
	"github.com/jasonpanggit/eol-agents/internal/models"
)

// selectorsToTry lists candidate selectors in reliability order: a
// search-engine answer box first, then progressively
// broader containers, then the whole body as a last resort.
var selectorsToTry = []string{
	".b_ans",
	".answer_container",
	"[data-snippet]",
	"#b_context",
	"body",
}

// challengeMarkers are substrings that mean the page being evaluated is a
// bot-challenge interstitial rather than real content.
var challengeMarkers = []string{
	"one last step",
	"just a moment",
	"please solve the challenge",
	"checking your browser",
}

// minUsableTextLength below this, a selector match is considered too thin
// to be real content and the next selector (or an inner frame) is tried.
const minUsableTextLength = 100

// challengeWaitBudget is the total time renderAndExtractText spends
// polling a Cloudflare-style interstitial before giving up, split into
// challengePollInterval-spaced checks.
const challengeWaitBudget = 15 * time.Second
const challengePollInterval = 3 * time.Second

// searchURLTemplate is the public search endpoint the browser navigates
// to; %s is the URL-escaped query.
const searchURLTemplate = "https://www.bing.com/search?q=%s"

// Agent implements agents.Agent as the last-resort, generic web lookup.
// Unlike the vendor agents it never claims IsRelevant on its own; the
// orchestrator appends it explicitly when every specialist agent falls
// short of the confidence threshold.
type Agent struct {
	agents.Base
	cache      *cache.Cache
	logger     applog.Logger
	extractor  ai.DateExtractor
	navTimeout time.Duration
	headless   bool

	launcher *launcher.Launcher
	browser  *rod.Browser
}

// New constructs the fallback agent. The browser is launched lazily on
// first use, not at construction time, so a process that never needs the
// fallback path never pays for Chrome.
func New(c *cache.Cache, logger applog.Logger, extractor ai.DateExtractor, navTimeout time.Duration, headless bool) *Agent {
	if logger == nil {
		logger = applog.NoOp{}
	}
	if extractor == nil {
		extractor = ai.NoOpExtractor{}
	}
	return &Agent{
		Base:       agents.NewBase("fallback"),
		cache:      c,
		logger:     logger,
		extractor:  extractor,
		navTimeout: navTimeout,
		headless:   headless,
	}
}

// IsRelevant always returns false: the orchestrator decides when to reach
// for the fallback agent, not keyword routing.
func (a *Agent) IsRelevant(string) bool { return false }

// URLs implements agents.Agent.
func (a *Agent) URLs() []models.URLInfo {
	return []models.URLInfo{{URL: "https://www.bing.com/search", Description: "Generic web search fallback", Priority: 99, Active: true}}
}

// GetEOLData navigates a headless browser to a search results page for
// "<software> <version> end of life date", extracts lifecycle dates from the
// rendered text, and returns a confidence-scored envelope.
func (a *Agent) GetEOLData(ctx context.Context, softwareName, version string) models.Envelope {
	if cached := a.cache.Get(ctx, softwareName, version, a.Name()); cached != nil {
		return *cached
	}

	query := softwareName
	if version != "" {
		query = query + " " + version
	}
	query += " end of life date"
	searchURL := fmt.Sprintf(searchURLTemplate, urlEscape(query))

	text, err := a.renderAndExtractText(ctx, searchURL)
	if err != nil {
		env := a.Failure(softwareName, version, classifyBrowserError(err), err.Error())
		a.cache.PutFailure(ctx, softwareName, version, a.Name(), env)
		return env
	}

	extraction := extractLifecycleDates(text)
	if a.extractor != nil && extraction.EOLDate == "" && extraction.SupportEndDate == "" {
		if llmResult, ok := a.extractor.Extract(ctx, text, softwareName, version); ok {
			extraction = mergeExtractions(extraction, llmResult)
		}
	}

	if extraction.EOLDate == "" && extraction.SupportEndDate == "" && extraction.ReleaseDate == "" {
		env := a.Failure(softwareName, version, models.ErrNoEOLDateFound, "browser fallback found no usable lifecycle date for "+softwareName)
		a.cache.PutFailure(ctx, softwareName, version, a.Name(), env)
		return env
	}

	eol, _ := models.ParseDate(extraction.EOLDate)
	support, _ := models.ParseDate(extraction.SupportEndDate)
	release, _ := models.ParseDate(extraction.ReleaseDate)

	env := a.Success(softwareName, version, eol, support, release, extraction.confidenceScore(), searchURL, models.DataSourceScraped)
	env.WithAdditional("extraction_confidence", extraction.primaryLabel())
	if extraction.Context != "" {
		env.WithAdditional("context", extraction.Context)
	}
	a.cache.Put(ctx, softwareName, version, a.Name(), env, searchURL, false, "browser_fallback")
	return env
}

// PurgeCache implements agents.Agent.
func (a *Agent) PurgeCache(ctx context.Context, softwareName string) int {
	return a.cache.Purge(ctx, softwareName, a.Name())
}

// Close releases the shared browser. Safe to call even if the browser was
// never launched.
func (a *Agent) Close() {
	if a.browser != nil {
		a.browser.MustClose()
		a.browser = nil
	}
	if a.launcher != nil {
		a.launcher.Cleanup()
		a.launcher = nil
	}
}

// ensureBrowser launches Chrome once per process and reuses it across
// requests, only opening and closing a page per lookup: check liveness
// first, relaunch on disconnect, otherwise reuse.
func (a *Agent) ensureBrowser() (*rod.Browser, error) {
	if a.browser != nil {
		if _, err := a.browser.Pages(); err == nil {
			return a.browser, nil
		}
		a.logger.Warn("browser disconnected, relaunching", nil)
		a.browser = nil
	}

	l := launcher.New().
		Headless(a.headless).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-setuid-sandbox")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	a.launcher = l
	a.browser = browser
	return browser, nil
}

// renderAndExtractText opens one page against url, masks the most common
// automation fingerprint, waits for load, and returns the best selector
// match's visible text. It treats a persistent Cloudflare challenge as a
// distinct error from every other failure so callers can report it with
// ErrCloudflareBlocked instead of the generic scrape-failed code.
func (a *Agent) renderAndExtractText(ctx context.Context, url string) (string, error) {
	browser, err := a.ensureBrowser()
	if err != nil {
		return "", err
	}

	navCtx, cancel := context.WithTimeout(ctx, a.navTimeout)
	defer cancel()

	page, err := browser.Context(navCtx).Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return "", fmt.Errorf("open page: %w", err)
	}
	defer page.Close()

	if err := maskAutomation(page); err != nil {
		a.logger.Debug("could not mask automation fingerprint", map[string]interface{}{"error": err.Error()})
	}

	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load: %w", err)
	}

	text, err := bestSelectorText(page)
	if err != nil {
		return "", err
	}

	if isChallengeText(text) {
		deadline := time.Now().Add(challengeWaitBudget)
		for isChallengeText(text) && time.Now().Before(deadline) {
			time.Sleep(challengePollInterval)
			text, err = bestSelectorText(page)
			if err != nil {
				return "", err
			}
		}
		if isChallengeText(text) {
			if frameText, ok := probeFrames(page); ok {
				return frameText, nil
			}
			return "", errCloudflareBlocked
		}
	}

	return text, nil
}

// probeFrames checks every iframe on the page for usable content, for the
// case where the top-level document is a challenge shell wrapping the
// real answer in an embedded frame.
func probeFrames(page *rod.Page) (string, bool) {
	frames, err := page.Elements("iframe")
	if err != nil {
		return "", false
	}
	for _, f := range frames {
		framePage, err := f.Frame()
		if err != nil {
			continue
		}
		body, err := framePage.Element("body")
		if err != nil {
			continue
		}
		text, err := body.Text()
		if err != nil {
			continue
		}
		if len(strings.TrimSpace(text)) >= minUsableTextLength && !isChallengeText(text) {
			return text, true
		}
	}
	return "", false
}

// bestSelectorText walks selectorsToTry in order and returns the first
// match whose text is long enough to be real content.
func bestSelectorText(page *rod.Page) (string, error) {
	for _, selector := range selectorsToTry {
		el, err := page.Timeout(5 * time.Second).Element(selector)
		if err != nil {
			continue
		}
		text, err := el.Text()
		if err != nil {
			continue
		}
		if len(strings.TrimSpace(text)) >= minUsableTextLength {
			return text, nil
		}
	}
	// Fall back to whatever body text exists even if short; the caller's
	// date extraction will simply find nothing and report ErrNoEOLDateFound.
	body, err := page.Element("body")
	if err != nil {
		return "", fmt.Errorf("no selector matched and body unavailable: %w", err)
	}
	return body.Text()
}

// maskAutomation injects a navigator.webdriver override via go-rod's
// EvalOnNewDocument hook so it applies before any page script runs.
func maskAutomation(page *rod.Page) error {
	_, err := page.EvalOnNewDocument(`() => {
		Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
	}`)
	return err
}

func isChallengeText(text string) bool {
	if len(strings.TrimSpace(text)) >= 200 {
		return false
	}
	lower := strings.ToLower(text)
	for _, marker := range challengeMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

var errCloudflareBlocked = errors.New("persistent challenge page detected")

func classifyBrowserError(err error) models.ErrorCode {
	if errors.Is(err, errCloudflareBlocked) {
		return models.ErrCloudflareBlocked
	}
	return models.ErrScrapeFailed
}

func urlEscape(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), " ", "+")
}
