package fallback

import (
	"regexp"
	"strings"

	"github.com/jasonpanggit/eol-agents/internal/agents"
	"github.com/jasonpanggit/eol-agents/internal/ai"
)

// confidenceLabel is one of four confidence tiers assigned to an
// extracted date: very_high for
// a date sitting right next to lifecycle language, high for a well-formed
// month-name date with no lifecycle keyword nearby, medium for a numeric
// date, low for everything else.
type confidenceLabel string

const (
	confVeryHigh confidenceLabel = "very_high"
	confHigh     confidenceLabel = "high"
	confMedium   confidenceLabel = "medium"
	confLow      confidenceLabel = "low"
)

// confidenceScores maps each label to the numeric score the envelope
// carries; fallback results are always clamped to 0.95 so they never
// outrank a static-table hit.
var confidenceScores = map[confidenceLabel]float64{
	confVeryHigh: 0.95,
	confHigh:     0.85,
	confMedium:   0.70,
	confLow:      0.50,
}

var confidenceRank = map[confidenceLabel]int{
	confVeryHigh: 4,
	confHigh:     3,
	confMedium:   2,
	confLow:      1,
}

// datePattern pairs a regexp with the confidence tier a bare match in that
// form deserves before context adjusts it, in priority order.
type datePattern struct {
	re   *regexp.Regexp
	base confidenceLabel
}

var datePatterns = []datePattern{
	{regexp.MustCompile(`(?i)(?:end of life|EOL|support ends?|standard support|extended support|legacy support)(?:\s+(?:is|on|until|date))?\s*(?:on\s+)?[:\s]*(\d{1,2}\s+(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{4})`), confVeryHigh},
	{regexp.MustCompile(`(?i)(?:end of life|EOL|support ends?|standard support|extended support)(?:\s+(?:is|on|until|date))?\s*(?:on\s+)?[:\s]*((?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4})`), confVeryHigh},
	{regexp.MustCompile(`(?i)\b(\d{1,2}\s+(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{4})\b`), confHigh},
	{regexp.MustCompile(`(?i)\b((?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4})\b`), confHigh},
	{regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/\d{4})\b`), confMedium},
	{regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`), confMedium},
}

var (
	eolKeywords = []string{
		"end of life", "eol", "support end", "support ends",
		"extended support", "retirement", "deprecated", "sunset",
	}
	releaseKeywords = []string{
		"release", "released", "ga", "general availability", "available",
		"launched", "shipped", "next stable", "expected to be released",
		"preview", "rc",
	}
	supportKeywords = []string{
		"end of support", "support ends", "support end", "support until",
		"support date", "extended support ends", "mainstream support",
		"extended support",
	}
)

// contextWindow is how many characters of surrounding text (each side)
// the keyword classifier inspects.
const contextWindow = 100

// candidate is one matched date together with the confidence it earned
// from its surrounding context and its position (used for tie-breaking:
// later matches in the page win).
type candidate struct {
	dateStr    string
	confidence confidenceLabel
	context    string
	position   int
}

// extraction is the result of scanning a page's text for lifecycle dates.
type extraction struct {
	EOLDate           string
	EOLConfidence     confidenceLabel
	SupportEndDate    string
	SupportConfidence confidenceLabel
	ReleaseDate       string
	ReleaseConfidence confidenceLabel
	Context           string
}

// primaryLabel returns whichever of the three confidence labels backs the
// envelope's single numeric confidence: EOL first, then support, then
// release.
func (e extraction) primaryLabel() confidenceLabel {
	switch {
	case e.EOLDate != "":
		return e.EOLConfidence
	case e.SupportEndDate != "":
		return e.SupportConfidence
	case e.ReleaseDate != "":
		return e.ReleaseConfidence
	default:
		return confLow
	}
}

// confidenceScore converts primaryLabel into the envelope's numeric score.
func (e extraction) confidenceScore() float64 {
	return confidenceScores[e.primaryLabel()]
}

// extractLifecycleDates scans text for every date pattern, classifies each
// match by the lifecycle keywords found within contextWindow characters,
// and keeps the best (highest confidence, most recent position) candidate
// per category: EOL, support-end, and release.
func extractLifecycleDates(text string) extraction {
	eolCandidates := map[string]candidate{}
	supportCandidates := map[string]candidate{}
	releaseCandidates := map[string]candidate{}

	for _, dp := range datePatterns {
		for _, match := range dp.re.FindAllStringSubmatchIndex(text, -1) {
			if len(match) < 4 {
				continue
			}
			dateStr := text[match[2]:match[3]]
			start, end := match[2], match[3]
			ctxStart := max(0, start-contextWindow)
			ctxEnd := min(len(text), end+contextWindow)
			ctxSnippet := text[ctxStart:ctxEnd]
			ctxLower := strings.ToLower(ctxSnippet)

			releaseHit := containsAny(ctxLower, releaseKeywords)
			eolHit := containsAny(ctxLower, eolKeywords)
			supportHit := containsAny(ctxLower, supportKeywords)

			if releaseHit && !eolHit {
				label := confMedium
				if dp.base == confMedium {
					label = confLow
				}
				upsertBest(releaseCandidates, dateStr, candidate{dateStr, label, ctxSnippet, start})
				continue
			}

			label := dp.base
			if eolHit {
				label = confVeryHigh
			} else if dp.base == confHigh {
				label = confMedium
			} else if dp.base == confMedium {
				label = confLow
			}

			if eolHit {
				upsertBest(eolCandidates, dateStr, candidate{dateStr, label, ctxSnippet, start})
			}
			if supportHit {
				upsertBest(supportCandidates, dateStr, candidate{dateStr, label, ctxSnippet, start})
			}
		}
	}

	result := extraction{}
	if c, ok := selectBest(eolCandidates); ok {
		result.EOLDate = normalizeDateString(c.dateStr)
		result.EOLConfidence = c.confidence
		result.Context = strings.ReplaceAll(c.context, "\n", " ")
	}
	if c, ok := selectBest(supportCandidates); ok {
		result.SupportEndDate = normalizeDateString(c.dateStr)
		result.SupportConfidence = c.confidence
	}
	if c, ok := selectBest(releaseCandidates); ok {
		result.ReleaseDate = normalizeDateString(c.dateStr)
		result.ReleaseConfidence = c.confidence
	}
	return result
}

// upsertBest keeps the higher-confidence candidate for a given date
// string, replacing the stored one only if strictly better.
func upsertBest(m map[string]candidate, key string, c candidate) {
	existing, ok := m[key]
	if !ok || confidenceRank[c.confidence] > confidenceRank[existing.confidence] {
		m[key] = c
	}
}

// selectBest picks the candidate with the highest confidence, breaking
// ties by the latest position in the text.
func selectBest(m map[string]candidate) (candidate, bool) {
	var best candidate
	found := false
	for _, c := range m {
		if !found {
			best, found = c, true
			continue
		}
		if confidenceRank[c.confidence] > confidenceRank[best.confidence] {
			best = c
		} else if confidenceRank[c.confidence] == confidenceRank[best.confidence] && c.position > best.position {
			best = c
		}
	}
	return best, found
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// normalizeDateString reuses the shared loose-date parser every vendor
// scraper already uses, so every downstream consumer deals with one
// ISO-8601 layout regardless of which pattern matched here (numeric,
// long-form, or US-form).
func normalizeDateString(s string) string {
	if d, ok := agents.ParseLooseDate(s); ok {
		return d.String()
	}
	return s
}

// mergeExtractions replaces each field the LLM extractor populated,
// leaving the regex result untouched for any field the LLM left blank.
func mergeExtractions(base extraction, llm ai.Extraction) extraction {
	merged := base
	if llm.EOLDate != "" {
		merged.EOLDate = llm.EOLDate
		merged.EOLConfidence = labelForScore(llm.EOLConfidence)
	}
	if llm.SupportEndDate != "" {
		merged.SupportEndDate = llm.SupportEndDate
		merged.SupportConfidence = labelForScore(llm.SupportConfidence)
	}
	if llm.ReleaseDate != "" {
		merged.ReleaseDate = llm.ReleaseDate
		merged.ReleaseConfidence = labelForScore(llm.ReleaseConfidence)
	}
	return merged
}

func labelForScore(score float64) confidenceLabel {
	switch {
	case score >= 0.90:
		return confVeryHigh
	case score >= 0.75:
		return confHigh
	case score >= 0.55:
		return confMedium
	default:
		return confLow
	}
}

