package agents

import (
	"strings"

	"github.com/jasonpanggit/eol-agents/internal/models"
)

// StaticTable is a vendor's hand-curated lifecycle table, keyed by a
// synthetic "<product>-<cycle>" string (e.g. "tomcat-10", "rhel-8").
type StaticTable map[string]models.StaticCycle

// Lookup runs a four-tier matching rule:
//  1. exact key match on the normalized software name
//  2. synthetic key built from a vendor token plus the version's
//     major(.minor) segment
//  3. partial match requiring a shared vendor token between the software
//     name and the candidate key, plus a version-cycle match
//  4. generic partial match: any key whose product token appears in the
//     software name, regardless of vendor token, still gated by version
//
// vendorTokens are tokens (e.g. "tomcat", "httpd") this vendor's agent
// recognizes; they scope tiers 2 and 3 so an unrelated vendor's table
// entry cannot be matched by accident.
func (t StaticTable) Lookup(softwareName, version string, vendorTokens []string) (models.StaticCycle, bool) {
	normalized := normalizeKey(softwareName)

	if cycle, ok := t[normalized]; ok {
		return cycle, true
	}
	for _, variant := range keyVariants(normalized) {
		if cycle, ok := t[variant]; ok {
			return cycle, true
		}
	}

	softwareParts := strings.Split(normalized, "-")

	if version != "" {
		majorMinor := models.MajorMinor(version)
		major := models.Major(version)
		for _, token := range vendorTokens {
			if !strings.Contains(normalized, token) {
				continue
			}
			for _, candidate := range []string{
				token + "-" + majorMinor,
				token + "-" + major,
			} {
				if cycle, ok := t[candidate]; ok {
					return cycle, true
				}
			}
		}
	}

	// Tier 3: partial match requiring a shared vendor token plus a
	// version-cycle match.
	for key, cycle := range t {
		keyParts := strings.Split(key, "-")
		if !sharesToken(softwareParts, keyParts, vendorTokens) {
			continue
		}
		if version == "" || versionMatchesCycle(version, cycle.Cycle) {
			return cycle, true
		}
	}

	// Tier 4: generic partial match — any key whose tokens overlap the
	// software name at all, still gated on version when one was given.
	for key, cycle := range t {
		keyParts := strings.Split(key, "-")
		if overlaps(softwareParts, keyParts) {
			if version == "" || versionMatchesCycle(version, cycle.Cycle) {
				return cycle, true
			}
		}
	}

	return models.StaticCycle{}, false
}

func normalizeKey(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	replacer := strings.NewReplacer(" ", "-", "_", "-", ".", "-")
	return replacer.Replace(lower)
}

func keyVariants(normalized string) []string {
	return []string{
		strings.ReplaceAll(normalized, " ", "-"),
		strings.ReplaceAll(normalized, "_", "-"),
		strings.ReplaceAll(normalized, ".", "-"),
	}
}

func sharesToken(a, b, vendorTokens []string) bool {
	for _, token := range vendorTokens {
		if contains(a, token) && contains(b, token) {
			return true
		}
	}
	return false
}

func overlaps(a, b []string) bool {
	for _, part := range a {
		if contains(b, part) {
			return true
		}
	}
	return false
}

func contains(parts []string, target string) bool {
	for _, p := range parts {
		if p == target {
			return true
		}
	}
	return false
}

// versionMatchesCycle reports whether version's major(.minor) segment is
// contained in, or contains, the cycle string — a loose containment
// check that tolerates a patch-level version against a major.minor cycle.
func versionMatchesCycle(version, cycle string) bool {
	if version == "" || cycle == "" {
		return false
	}
	majorMinor := models.MajorMinor(version)
	return strings.Contains(cycle, majorMinor) || strings.Contains(majorMinor, cycle)
}
