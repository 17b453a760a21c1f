package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jasonpanggit/eol-agents/internal/ai"
	"github.com/jasonpanggit/eol-agents/internal/applog"
	"github.com/jasonpanggit/eol-agents/internal/config"
)

func TestNewStorageProviderIsNilWithoutRedisURL(t *testing.T) {
	cfg := config.Default()
	store := newStorageProvider(cfg, applog.NoOp{})
	assert.Nil(t, store)
}

func TestNewStorageProviderDegradesOnUnreachableRedis(t *testing.T) {
	cfg := config.Default()
	cfg.RedisURL = "redis://127.0.0.1:1/0"
	store := newStorageProvider(cfg, applog.NoOp{})
	assert.Nil(t, store, "an unreachable redis should degrade to memory-only rather than fail startup")
}

func TestNewExtractorReturnsNoOpWhenDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.LLMExtractionEnabled = false
	extractor := newExtractor(cfg, applog.NoOp{})
	_, ok := extractor.(ai.NoOpExtractor)
	assert.True(t, ok)
}

func TestNewExtractorReturnsNoOpWhenEndpointMissing(t *testing.T) {
	cfg := config.Default()
	cfg.LLMExtractionEnabled = true
	cfg.LLMEndpoint = ""
	extractor := newExtractor(cfg, applog.NoOp{})
	_, ok := extractor.(ai.NoOpExtractor)
	assert.True(t, ok)
}

func TestNewExtractorReturnsHTTPExtractorWhenConfigured(t *testing.T) {
	cfg := config.Default()
	cfg.LLMExtractionEnabled = true
	cfg.LLMEndpoint = "https://example.test"
	cfg.LLMDeployment = "gpt-lifecycle"
	extractor := newExtractor(cfg, applog.NoOp{})
	_, ok := extractor.(*ai.HTTPExtractor)
	assert.True(t, ok)
}
