package models

// ErrorCode is the machine-readable taxonomy every failure envelope uses in
// its error.code field.
type ErrorCode string

const (
	// ErrNoDataFound means every candidate agent was exhausted with no
	// positive result.
	ErrNoDataFound ErrorCode = "no_data_found"
	// ErrCloudflareBlocked means the fallback agent hit a persistent
	// challenge page.
	ErrCloudflareBlocked ErrorCode = "cloudflare_blocked"
	// ErrNoEOLDateFound means the fallback agent scraped a page but the
	// date-extraction algorithm found nothing usable.
	ErrNoEOLDateFound ErrorCode = "no_eol_date_found"
	// ErrAgentException means a specific agent raised an internal error;
	// the agent name and error text travel in AdditionalData.
	ErrAgentException ErrorCode = "agent_exception"
	// ErrCacheUnavailable means the persistent store is offline and the
	// operation proceeded from memory only.
	ErrCacheUnavailable ErrorCode = "cache_unavailable"
	// ErrScrapeFailed means a specific upstream returned non-2xx or
	// parsing failed.
	ErrScrapeFailed ErrorCode = "scrape_failed"
)

// ErrorInfo is the error object carried by a failure envelope.
type ErrorInfo struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}
