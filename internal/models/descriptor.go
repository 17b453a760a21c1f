package models

// URLInfo describes one upstream source an agent may consult, in priority
// order.
type URLInfo struct {
	URL         string `json:"url"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	Active      bool   `json:"active"`
}

// StaticCycle is one row of a vendor's hand-maintained static lookup table:
// a product cycle mapped to its known lifecycle dates.
type StaticCycle struct {
	Key            string // synthetic key, e.g. "tomcat-10" or "ubuntu-20.04"
	Cycle          string // human label, e.g. "10.1" or "20.04 LTS"
	ReleaseDate    string // ISO-8601, may be empty
	EOLDate        string // ISO-8601
	SupportEndDate string // ISO-8601, may be empty
	Latest         string // latest known point release, may be empty
	LTS            bool
	Codename       string
}

// AgentDescriptor is the static, per-vendor metadata the orchestrator and
// the operator UI use for routing and display.
type AgentDescriptor struct {
	AgentName string
	Keywords  []string
	URLs      []URLInfo
}
