// Package ai provides an optional large-language-model pass over fallback
// scraper text, used to classify lifecycle dates the regex extractor in
// internal/fallback missed or mis-labeled: truncate to a small prompt,
// ask for strict JSON, and treat any failure as "no opinion" rather than
// an error.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jasonpanggit/eol-agents/internal/applog"
)

// Extraction is the LLM's opinion on the three lifecycle dates. A field
// left at its zero value means the model had no opinion for that field;
// callers must leave the regex extractor's result in place for it.
type Extraction struct {
	EOLDate           string
	EOLConfidence     float64
	SupportEndDate    string
	SupportConfidence float64
	ReleaseDate       string
	ReleaseConfidence float64
}

// DateExtractor classifies lifecycle dates out of raw scraped text. The ok
// return is false whenever the extractor has nothing to contribute (it is
// disabled, the call failed, or the model returned no usable JSON) so
// callers never have to distinguish "no LLM" from "LLM said nothing".
type DateExtractor interface {
	Extract(ctx context.Context, text, softwareName, version string) (Extraction, bool)
}

// NoOpExtractor is the default DateExtractor when LLM_EXTRACTION is unset:
// the fallback agent's regex pass stands on its own.
type NoOpExtractor struct{}

// Extract implements DateExtractor.
func (NoOpExtractor) Extract(context.Context, string, string, string) (Extraction, bool) {
	return Extraction{}, false
}

// maxPromptChars caps how much scraped text is submitted to the model.
const maxPromptChars = 6000

const systemPrompt = "You are a lifecycle analyst. Extract lifecycle dates from the provided text and return ONLY JSON. " +
	"Fields: eol_date, support_end_date, release_date (string or null, ISO-8601 YYYY-MM-DD); " +
	"eol_confidence, support_confidence, release_confidence (0-1 floats). " +
	"Prefer end-of-life/support-end dates over release dates. If unsure, leave the field null."

// chatRequest/chatResponse model the minimal subset of the OpenAI-style
// chat completions wire format every Azure OpenAI / OpenAI-compatible
// endpoint accepts.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// userPayload is the JSON object the system prompt asks the model to
// classify; it travels as the user message's content.
type userPayload struct {
	Software string `json:"software"`
	Version  string `json:"version"`
	Text     string `json:"text"`
}

// modelResponse is the JSON shape the system prompt instructs the model to
// reply with.
type modelResponse struct {
	EOLDate           *string  `json:"eol_date"`
	SupportEndDate    *string  `json:"support_end_date"`
	ReleaseDate       *string  `json:"release_date"`
	EOLConfidence     *float64 `json:"eol_confidence"`
	SupportConfidence *float64 `json:"support_confidence"`
	ReleaseConfidence *float64 `json:"release_confidence"`
}

// HTTPExtractor calls an OpenAI-compatible chat completions endpoint
// (Azure OpenAI or otherwise) to classify lifecycle dates. It is only
// constructed when the LLM_EXTRACTION environment flag is enabled; every
// other path in the service uses NoOpExtractor.
type HTTPExtractor struct {
	client     *http.Client
	endpoint   string
	deployment string
	apiVersion string
	apiKey     string
	logger     applog.Logger
}

// NewHTTPExtractor constructs an extractor against endpoint/deployment. A
// blank endpoint or deployment means the caller should use NoOpExtractor
// instead; New does not validate this itself so configuration wiring stays
// in one place (cmd/eolsvc).
func NewHTTPExtractor(endpoint, deployment, apiVersion, apiKey string, timeout time.Duration, logger applog.Logger) *HTTPExtractor {
	if logger == nil {
		logger = applog.NoOp{}
	}
	if apiVersion == "" {
		apiVersion = "2024-08-01-preview"
	}
	return &HTTPExtractor{
		client:     &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		deployment: deployment,
		apiVersion: apiVersion,
		apiKey:     apiKey,
		logger:     logger,
	}
}

// Extract implements DateExtractor. Any failure - network error, non-2xx
// status, malformed JSON - degrades to (Extraction{}, false) rather than
// propagating an error, since the regex extractor's result is always a
// valid fallback.
func (e *HTTPExtractor) Extract(ctx context.Context, text, softwareName, version string) (Extraction, bool) {
	if len(text) > maxPromptChars {
		text = text[:maxPromptChars]
	}

	payload, err := json.Marshal(userPayload{Software: softwareName, Version: version, Text: text})
	if err != nil {
		return Extraction{}, false
	}

	reqBody, err := json.Marshal(chatRequest{
		Model: e.deployment,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: string(payload)},
		},
		Temperature: 0.1,
		MaxTokens:   300,
	})
	if err != nil {
		return Extraction{}, false
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s", e.endpoint, e.deployment, e.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return Extraction{}, false
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("api-key", e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Warn("LLM extraction request failed", map[string]interface{}{"error": err.Error()})
		return Extraction{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		e.logger.Warn("LLM extraction returned non-200", map[string]interface{}{"status": resp.StatusCode})
		return Extraction{}, false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Extraction{}, false
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.Choices) == 0 {
		return Extraction{}, false
	}

	var model modelResponse
	if err := json.Unmarshal([]byte(parsed.Choices[0].Message.Content), &model); err != nil {
		e.logger.Warn("LLM response was not valid JSON", map[string]interface{}{"error": err.Error()})
		return Extraction{}, false
	}

	return toExtraction(model), true
}

func toExtraction(m modelResponse) Extraction {
	var ex Extraction
	if m.EOLDate != nil {
		ex.EOLDate = *m.EOLDate
	}
	if m.SupportEndDate != nil {
		ex.SupportEndDate = *m.SupportEndDate
	}
	if m.ReleaseDate != nil {
		ex.ReleaseDate = *m.ReleaseDate
	}
	if m.EOLConfidence != nil {
		ex.EOLConfidence = *m.EOLConfidence
	}
	if m.SupportConfidence != nil {
		ex.SupportConfidence = *m.SupportConfidence
	}
	if m.ReleaseConfidence != nil {
		ex.ReleaseConfidence = *m.ReleaseConfidence
	}
	return ex
}
