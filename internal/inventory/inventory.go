// Package inventory defines the external asset-inventory source the
// orchestrator's batch lookup path fans out over. The orchestrator only
// consumes this interface; the real data source (a CMDB, an Azure
// Resource Graph query, a CSV export) is wired in by the caller.
//
// The real data source (a CMDB, an Azure Resource Graph query, a CSV
// export) is wired in by the caller; the orchestrator consumes records
// for bulk-check flows but never implements a backing store itself.
package inventory

import (
	"context"
	"time"
)

// Record is one asset's reported software installation.
type Record struct {
	SoftwareName    string    `json:"software_name"`
	SoftwareVersion string    `json:"software_version,omitempty"`
	Computer        string    `json:"computer"`
	LastSeen        time.Time `json:"last_seen"`
}

// Source lists the current inventory. Implementations should apply their
// own timeouts; List is expected to honor ctx cancellation.
type Source interface {
	List(ctx context.Context) ([]Record, error)
}
