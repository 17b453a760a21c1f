// Package models defines the wire-level shapes shared by every agent, the
// cache layer, and the orchestrator: the EOL response envelope, the cache
// document, the agent descriptor, and the communication-log entry.
package models

import (
	"strings"
	"time"
)

// dateLayout is the ISO-8601 date-only layout used on the wire.
const dateLayout = "2006-01-02"

// Date is a date-only value that marshals as "YYYY-MM-DD" and as JSON null
// when unset, instead of Go's zero time (0001-01-01T00:00:00Z).
type Date struct {
	t     time.Time
	valid bool
}

// NewDate wraps t as a valid Date, truncating any time-of-day component.
func NewDate(t time.Time) Date {
	return Date{t: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), valid: true}
}

// ParseDate parses s in ISO-8601 date form. An empty string yields a zero
// (invalid) Date and no error, matching the optional nature of every date
// field in the envelope.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return NewDate(t), nil
}

// Valid reports whether the date is populated.
func (d Date) Valid() bool { return d.valid }

// Time returns the underlying time.Time (zero value if invalid).
func (d Date) Time() time.Time { return d.t }

// String renders the date in ISO-8601 form, or "" if invalid.
func (d Date) String() string {
	if !d.valid {
		return ""
	}
	return d.t.Format(dateLayout)
}

// DaysUntil returns the number of whole days between now and the date,
// truncating now to midnight UTC so boundary days compare cleanly.
func (d Date) DaysUntil(now time.Time) int {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(d.t.Sub(today).Hours() / 24)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if !d.valid {
		return []byte("null"), nil
	}
	return []byte(`"` + d.t.Format(dateLayout) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
