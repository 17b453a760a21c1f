package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateEmptyStringYieldsInvalidDateNoError(t *testing.T) {
	d, err := ParseDate("")
	require.NoError(t, err)
	assert.False(t, d.Valid())
	assert.Equal(t, "", d.String())
}

func TestParseDateRoundTripsISOForm(t *testing.T) {
	d, err := ParseDate("2027-06-30")
	require.NoError(t, err)
	assert.True(t, d.Valid())
	assert.Equal(t, "2027-06-30", d.String())
}

func TestParseDateRejectsMalformedInput(t *testing.T) {
	_, err := ParseDate("not-a-date")
	assert.Error(t, err)
}

func TestDateMarshalJSONNullWhenInvalid(t *testing.T) {
	var d Date
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))
}

func TestDateMarshalJSONQuotedISOWhenValid(t *testing.T) {
	d := NewDate(time.Date(2025, 12, 1, 15, 4, 5, 0, time.UTC))
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2025-12-01"`, string(b))
}

func TestDateUnmarshalJSONAcceptsNull(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte("null"), &d))
	assert.False(t, d.Valid())
}

func TestDateUnmarshalJSONRoundTripsThroughStruct(t *testing.T) {
	type wrapper struct {
		EOL Date `json:"eol"`
	}
	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"eol":"2026-01-15"}`), &w))
	assert.True(t, w.EOL.Valid())
	assert.Equal(t, "2026-01-15", w.EOL.String())
}

func TestDateDaysUntilTruncatesTimeOfDay(t *testing.T) {
	d := NewDate(time.Date(2026, 8, 11, 0, 0, 0, 0, time.UTC))
	now := time.Date(2026, 8, 1, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, 10, d.DaysUntil(now))
}

func TestNormalizedKeyLowercasesAndDefaultsVersionToAny(t *testing.T) {
	assert.Equal(t, "tomcat|9.0", NormalizedKey("Tomcat", "9.0"))
	assert.Equal(t, "tomcat|any", NormalizedKey("Tomcat", ""))
	assert.Equal(t, "tomcat|any", NormalizedKey(" Tomcat ", "  "))
}

func TestMajorMinorAndMajor(t *testing.T) {
	assert.Equal(t, "3.11", MajorMinor("3.11.6"))
	assert.Equal(t, "20.04", MajorMinor("20.04"))
	assert.Equal(t, "8", MajorMinor("8"))

	assert.Equal(t, "3", Major("3.11.6"))
	assert.Equal(t, "8", Major("8"))
}

func TestCacheKeyIsStableAndNamespacedByAgent(t *testing.T) {
	k1 := CacheKey("apache", "Tomcat", "9.0")
	k2 := CacheKey("apache", "tomcat", "9.0")
	k3 := CacheKey("ubuntu", "Tomcat", "9.0")

	assert.Len(t, k1, 16)
	assert.Equal(t, k1, k2, "software name casing must not affect the key")
	assert.NotEqual(t, k1, k3, "different agents must not collide on the same key")
}

func TestCacheKeyDefaultsEmptyVersionToAny(t *testing.T) {
	assert.Equal(t, CacheKey("apache", "tomcat", "any"), CacheKey("apache", "tomcat", ""))
	assert.NotEqual(t, CacheKey("apache", "tomcat", ""), CacheKey("apache", "tomcat", "9.0"))
}

func TestCacheEntryLiveRequiresUnexpiredAndNotFailed(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	live := &CacheEntry{ExpiresAt: now.Add(time.Hour)}
	assert.True(t, live.Live(now))

	expired := &CacheEntry{ExpiresAt: now.Add(-time.Hour)}
	assert.False(t, expired.Live(now))

	failed := &CacheEntry{ExpiresAt: now.Add(time.Hour), MarkedAsFailed: true}
	assert.False(t, failed.Live(now))

	var nilEntry *CacheEntry
	assert.False(t, nilEntry.Live(now))
}
