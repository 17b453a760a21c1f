package fallback

import (
	"testing"

	"github.com/jasonpanggit/eol-agents/internal/ai"
	"github.com/stretchr/testify/assert"
)

func TestExtractLifecycleDatesPrefersEOLKeywordContext(t *testing.T) {
	text := "Ubuntu 20.04 LTS reached its end of life on 2025-04-02, after five years of standard support."
	result := extractLifecycleDates(text)

	assert.Equal(t, "2025-04-02", result.EOLDate)
	assert.Equal(t, confVeryHigh, result.EOLConfidence)
}

func TestExtractLifecycleDatesDistinguishesReleaseFromEOL(t *testing.T) {
	text := "Tomcat 10.1 was released on 27 February 2023. The servlet container is widely used in Java web deployments, and this sentence keeps the two dates far apart in the text. Its community support ends on 1 July 2026."
	result := extractLifecycleDates(text)

	assert.NotEmpty(t, result.ReleaseDate)
	assert.NotEmpty(t, result.SupportEndDate)
	assert.NotEqual(t, result.ReleaseDate, result.SupportEndDate)
}

func TestExtractLifecycleDatesReturnsEmptyWhenNothingMatches(t *testing.T) {
	result := extractLifecycleDates("This page has no dates of any kind mentioned anywhere.")

	assert.Empty(t, result.EOLDate)
	assert.Empty(t, result.SupportEndDate)
	assert.Empty(t, result.ReleaseDate)
	assert.Equal(t, confLow, result.primaryLabel())
}

func TestExtractionConfidenceScoreIsClampedBelowOne(t *testing.T) {
	result := extraction{EOLDate: "2025-04-02", EOLConfidence: confVeryHigh}
	assert.Equal(t, 0.95, result.confidenceScore())
}

func TestSelectBestPrefersHigherConfidenceThenLaterPosition(t *testing.T) {
	candidates := map[string]candidate{
		"2024-01-01": {dateStr: "2024-01-01", confidence: confMedium, position: 50},
		"2025-01-01": {dateStr: "2025-01-01", confidence: confVeryHigh, position: 10},
		"2026-01-01": {dateStr: "2026-01-01", confidence: confVeryHigh, position: 90},
	}

	best, ok := selectBest(candidates)
	assert.True(t, ok)
	assert.Equal(t, "2026-01-01", best.dateStr)
}

func TestMergeExtractionsOnlyReplacesPopulatedFields(t *testing.T) {
	base := extraction{
		EOLDate:        "2025-04-02",
		EOLConfidence:  confHigh,
		ReleaseDate:    "2020-04-23",
		ReleaseConfidence: confMedium,
	}
	llm := ai.Extraction{
		SupportEndDate:    "2023-04-02",
		SupportConfidence: 0.92,
	}

	merged := mergeExtractions(base, llm)

	assert.Equal(t, "2025-04-02", merged.EOLDate, "LLM left eol_date blank, regex result should survive")
	assert.Equal(t, "2023-04-02", merged.SupportEndDate)
	assert.Equal(t, confVeryHigh, merged.SupportConfidence)
	assert.Equal(t, "2020-04-23", merged.ReleaseDate)
}

func TestIsChallengeTextDetectsCloudflareInterstitial(t *testing.T) {
	assert.True(t, isChallengeText("One last step before you can continue..."))
	assert.True(t, isChallengeText("Just a moment while we check your browser"))
	assert.False(t, isChallengeText("Ubuntu 20.04 LTS reached end of life on 2025-04-02 after extended support."))
}

func TestNormalizeDateStringHandlesLongForm(t *testing.T) {
	assert.Equal(t, "2025-04-02", normalizeDateString("2 April 2025"))
	assert.Equal(t, "2025-04-02", normalizeDateString("April 2, 2025"))
	assert.Equal(t, "2025-04-02", normalizeDateString("2025-04-02"))
}
