package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoOpExtractorAlwaysDeclines(t *testing.T) {
	var e NoOpExtractor
	result, ok := e.Extract(context.Background(), "some text", "tomcat", "10")

	assert.False(t, ok)
	assert.Equal(t, Extraction{}, result)
}

func TestHTTPExtractorParsesModelJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		modelJSON := `{"eol_date":"2025-04-02","support_end_date":null,"release_date":"2020-04-23","eol_confidence":0.93,"release_confidence":0.8}`
		resp := chatResponse{Choices: []struct {
			Message chatMessage `json:"message"`
		}{{Message: chatMessage{Role: "assistant", Content: modelJSON}}}}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	extractor := NewHTTPExtractor(server.URL, "gpt-test", "", "test-key", 5*time.Second, nil)
	result, ok := extractor.Extract(context.Background(), "Tomcat reaches EOL 2025-04-02", "tomcat", "10")

	require.True(t, ok)
	assert.Equal(t, "2025-04-02", result.EOLDate)
	assert.Equal(t, 0.93, result.EOLConfidence)
	assert.Equal(t, "2020-04-23", result.ReleaseDate)
	assert.Empty(t, result.SupportEndDate)
}

func TestHTTPExtractorDeclinesOnNonJSONContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := chatResponse{Choices: []struct {
			Message chatMessage `json:"message"`
		}{{Message: chatMessage{Role: "assistant", Content: "not json at all"}}}}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	extractor := NewHTTPExtractor(server.URL, "gpt-test", "", "", 5*time.Second, nil)
	_, ok := extractor.Extract(context.Background(), "some text", "tomcat", "")

	assert.False(t, ok)
}

func TestHTTPExtractorDeclinesOnNon200Status(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	extractor := NewHTTPExtractor(server.URL, "gpt-test", "", "", 5*time.Second, nil)
	_, ok := extractor.Extract(context.Background(), "some text", "tomcat", "")

	assert.False(t, ok)
}

func TestHTTPExtractorTruncatesOversizedText(t *testing.T) {
	var capturedLen int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		var payload userPayload
		_ = json.Unmarshal([]byte(req.Messages[1].Content), &payload)
		capturedLen = len(payload.Text)

		resp := chatResponse{Choices: []struct {
			Message chatMessage `json:"message"`
		}{{Message: chatMessage{Content: `{"eol_date":null}`}}}}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	oversized := make([]byte, maxPromptChars+500)
	for i := range oversized {
		oversized[i] = 'x'
	}

	extractor := NewHTTPExtractor(server.URL, "gpt-test", "", "", 5*time.Second, nil)
	_, _ = extractor.Extract(context.Background(), string(oversized), "tomcat", "")

	assert.Equal(t, maxPromptChars, capturedLen)
}
