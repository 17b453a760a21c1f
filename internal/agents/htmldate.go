package agents

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jasonpanggit/eol-agents/internal/models"
)

// Shared date patterns vendor scrapers use to pull a lifecycle date out of
// page text, generalized so every vendor scraper (and the generic fallback) parses
// dates the same way instead of each reimplementing regexes.
var (
	isoDatePattern   = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	longDatePattern  = regexp.MustCompile(`\b(\d{1,2})\s+(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{4})\b`)
	usDatePattern    = regexp.MustCompile(`\b(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{1,2}),?\s+(\d{4})\b`)
	monthYearPattern = regexp.MustCompile(`\b(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{4})\b`)
	yearOnlyPattern  = regexp.MustCompile(`\b(20\d{2})\b`)
)

var monthByName = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

// ParseLooseDate tries each known date shape against s, in priority order,
// and returns the first match as a models.Date. Never panics.
func ParseLooseDate(s string) (models.Date, bool) {
	if m := isoDatePattern.FindStringSubmatch(s); m != nil {
		if d, ok := buildDate(m[1], m[2], m[3]); ok {
			return d, true
		}
	}
	if m := longDatePattern.FindStringSubmatch(s); m != nil {
		if d, ok := buildNamedDate(m[3], m[2], m[1]); ok {
			return d, true
		}
	}
	if m := usDatePattern.FindStringSubmatch(s); m != nil {
		if d, ok := buildNamedDate(m[3], m[1], m[2]); ok {
			return d, true
		}
	}
	if m := monthYearPattern.FindStringSubmatch(s); m != nil {
		if d, ok := buildMonthYear(m[2], m[1]); ok {
			return d, true
		}
	}
	if m := yearOnlyPattern.FindStringSubmatch(s); m != nil {
		if d, ok := buildYearOnly(m[1]); ok {
			return d, true
		}
	}
	return models.Date{}, false
}

func buildDate(year, month, day string) (models.Date, bool) {
	y, err1 := strconv.Atoi(year)
	mo, err2 := strconv.Atoi(month)
	d, err3 := strconv.Atoi(day)
	if err1 != nil || err2 != nil || err3 != nil {
		return models.Date{}, false
	}
	return models.NewDate(time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)), true
}

func buildNamedDate(year, monthName, day string) (models.Date, bool) {
	y, err1 := strconv.Atoi(year)
	d, err2 := strconv.Atoi(day)
	month, ok := monthByName[strings.ToLower(monthName)]
	if err1 != nil || err2 != nil || !ok {
		return models.Date{}, false
	}
	return models.NewDate(time.Date(y, month, d, 0, 0, 0, 0, time.UTC)), true
}

// buildMonthYear maps a bare "Month Year" to the LAST day of that
// month, treating a month-only EOL announcement as "through the end of
// that month".
func buildMonthYear(year, monthName string) (models.Date, bool) {
	y, err := strconv.Atoi(year)
	month, ok := monthByName[strings.ToLower(monthName)]
	if err != nil || !ok {
		return models.Date{}, false
	}
	firstOfNext := time.Date(y, month+1, 1, 0, 0, 0, 0, time.UTC)
	lastDay := firstOfNext.AddDate(0, 0, -1)
	return models.NewDate(lastDay), true
}

// buildYearOnly maps a bare year to January 1st of that year.
func buildYearOnly(year string) (models.Date, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return models.Date{}, false
	}
	return models.NewDate(time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)), true
}
