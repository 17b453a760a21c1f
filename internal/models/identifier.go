package models

import "strings"

// SoftwareIdentifier names the software (and optionally version) an agent
// or the orchestrator is asked to resolve EOL data for.
type SoftwareIdentifier struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// NormalizedKey returns lower(name) ⊕ version_or_"any", the key the
// orchestrator's in-process session cache is keyed by.
func NormalizedKey(name, version string) string {
	v := strings.TrimSpace(version)
	if v == "" {
		v = "any"
	}
	return strings.ToLower(strings.TrimSpace(name)) + "|" + strings.ToLower(v)
}

// MajorMinor returns the "major.minor" slice of a dotted version string,
// or the whole string if it has fewer than two dot-separated segments.
func MajorMinor(version string) string {
	parts := strings.Split(strings.TrimSpace(version), ".")
	if len(parts) >= 2 {
		return parts[0] + "." + parts[1]
	}
	return parts[0]
}

// Major returns the first dot-separated segment of a version string.
func Major(version string) string {
	parts := strings.SplitN(strings.TrimSpace(version), ".", 2)
	return parts[0]
}
