package models

import (
	"crypto/md5" //nolint:gosec // key derivation only, not a security boundary
	"encoding/hex"
	"strings"
	"time"
)

// CacheKey derives the 16-character hash key every cache tier keys entries
// by: md5("{agent}_{software_lower}_{version_or_any}")[:16]. Agent
// namespaces the key so an exact substring collision across agents is not a
// concern.
func CacheKey(agent, software, version string) string {
	v := strings.TrimSpace(version)
	if v == "" {
		v = "any"
	}
	raw := agent + "_" + strings.ToLower(strings.TrimSpace(software)) + "_" + strings.ToLower(v)
	sum := md5.Sum([]byte(raw)) //nolint:gosec
	return hex.EncodeToString(sum[:])[:16]
}

// CacheEntry is the persisted document shape for one agent's answer about
// one (software, version) pair.
type CacheEntry struct {
	ID                  string     `json:"id"`
	CacheKey            string     `json:"cache_key"`
	AgentName           string     `json:"agent_name"`
	SoftwareName        string     `json:"software_name"`
	Version             string     `json:"version,omitempty"`
	ResponseData        Envelope   `json:"response_data"`
	ConfidenceLevel     float64    `json:"confidence_level"`
	CreatedAt           time.Time  `json:"created_at"`
	ExpiresAt           time.Time  `json:"expires_at"`
	SourceURL           string     `json:"source_url,omitempty"`
	Verified            bool       `json:"verified"`
	VerificationStatus  string     `json:"verification_status,omitempty"`
	MarkedAsFailed      bool       `json:"marked_as_failed"`
}

// Live reports whether the entry should be served: present, unexpired, and
// not marked as a failed lookup.
func (e *CacheEntry) Live(now time.Time) bool {
	return e != nil && !e.MarkedAsFailed && now.Before(e.ExpiresAt)
}
