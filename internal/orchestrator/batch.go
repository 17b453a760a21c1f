package orchestrator

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/jasonpanggit/eol-agents/internal/inventory"
	"github.com/jasonpanggit/eol-agents/internal/models"
)

// BatchItem is one inventory record's lookup outcome, tagged with its
// original index so callers can correlate it back to the source list.
type BatchItem struct {
	Index  int
	Record inventory.Record
	Result Result
}

// BatchSummary counts outcomes across a LookupBatch call.
type BatchSummary struct {
	Total         int `json:"total_items"`
	Succeeded     int `json:"succeeded"`
	Failed        int `json:"failed"`
	ItemsWithEOL  int `json:"items_with_eol"`
	CriticalItems int `json:"critical_items"`
	HighRiskItems int `json:"high_risk_items"`
}

// LookupBatch resolves EOL data for every record an inventory.Source
// returns, fanning out with a bounded golang.org/x/sync/semaphore so a
// large inventory cannot open unlimited concurrent browser pages or HTTP
// requests at once (a concurrency limit around 5-10 keeps a bulk
// inventory check from overwhelming upstream sources). Results preserve
// the source list's order regardless of which goroutine finishes first.
func LookupBatch(ctx context.Context, o *Orchestrator, source inventory.Source, concurrency int64) ([]BatchItem, BatchSummary, error) {
	records, err := source.List(ctx)
	if err != nil {
		return nil, BatchSummary{}, err
	}

	if concurrency <= 0 {
		concurrency = 5
	}

	items := make([]BatchItem, len(records))
	sem := semaphore.NewWeighted(concurrency)
	var wg sync.WaitGroup

	for i, record := range records {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context cancelled; fill the remaining slots with a
			// cancellation result instead of leaving them zero-valued.
			for j := i; j < len(records); j++ {
				items[j] = BatchItem{Index: j, Record: records[j], Result: cancelledResult(records[j])}
			}
			break
		}
		wg.Add(1)
		go func(i int, record inventory.Record) {
			defer wg.Done()
			defer sem.Release(1)
			result := o.Lookup(ctx, record.SoftwareName, record.SoftwareVersion, "", false)
			items[i] = BatchItem{Index: i, Record: record, Result: result}
		}(i, record)
	}
	wg.Wait()

	summary := BatchSummary{Total: len(records)}
	for _, item := range items {
		if item.Result.Envelope.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
		if item.Result.Envelope.EOLDate.Valid() {
			summary.ItemsWithEOL++
		}
		switch item.Result.RiskLevel {
		case "critical":
			summary.CriticalItems++
		case "high":
			summary.HighRiskItems++
		}
	}
	return items, summary, nil
}

func cancelledResult(record inventory.Record) Result {
	return Result{
		Envelope: models.Envelope{
			Success:   false,
			Software:  record.SoftwareName,
			Version:   record.SoftwareVersion,
			AgentUsed: "orchestrator",
			Error:     &models.ErrorInfo{Code: models.ErrAgentException, Message: "batch lookup cancelled before this item started"},
		},
		Status:    "Unknown",
		RiskLevel: "unknown",
	}
}
