// Package scheduler runs periodic cache-refresh jobs against the vendor
// agents that expose a live data source (Ubuntu's releases page today;
// any future agent that grows a RefreshCache method plugs in the same
// way). It keeps the cache warm between cold lookups instead of forcing
// every first-seen request to pay a scrape.
//
// The job shape is a periodic sweep with a bounded concurrency limit;
// robfig/cron/v3 drives the schedule itself, wrapped in a Start/Stop
// lifecycle with its own logger and cancellation.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/semaphore"

	"github.com/jasonpanggit/eol-agents/internal/applog"
)

// maxConcurrentRefreshes bounds how many refresh jobs run at once, matching
// the orchestrator's bulk-lookup fan-out limit.
const maxConcurrentRefreshes = 10

// Refresher is implemented by any agent that can repopulate its own cache
// entries from a live source. RefreshCache reports how many entries it
// wrote, or an error if the underlying fetch failed outright.
type Refresher interface {
	Name() string
	RefreshCache(ctx context.Context) (int, error)
}

// RunResult is one job's outcome, recorded for the last-run summary.
type RunResult struct {
	Agent     string
	Refreshed int
	Err       error
	RanAt     time.Time
}

// Scheduler owns a cron.Cron instance and the set of Refresher agents it
// periodically refreshes.
type Scheduler struct {
	cron      *cron.Cron
	refreshers []Refresher
	logger    applog.Logger
	timeout   time.Duration

	mu      sync.Mutex
	lastRun []RunResult
}

// New constructs a Scheduler. jobTimeout bounds how long any single
// agent's RefreshCache call is allowed to run before it's cancelled.
func New(refreshers []Refresher, logger applog.Logger, jobTimeout time.Duration) *Scheduler {
	if logger == nil {
		logger = applog.NoOp{}
	}
	if jobTimeout <= 0 {
		jobTimeout = 2 * time.Minute
	}
	return &Scheduler{
		cron:       cron.New(),
		refreshers: refreshers,
		logger:     logger,
		timeout:    jobTimeout,
	}
}

// Schedule registers a refresh sweep to run on the given cron expression
// (standard 5-field syntax, e.g. "0 */6 * * *" for every six hours). It
// returns the cron.EntryID so callers can inspect or remove it later.
func (s *Scheduler) Schedule(ctx context.Context, spec string) (cron.EntryID, error) {
	return s.cron.AddFunc(spec, func() { s.RunOnce(ctx) })
}

// Start begins running scheduled jobs in the background.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts the scheduler and waits for any in-flight job to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce fans out a refresh call to every registered agent, bounded by
// maxConcurrentRefreshes, and records the outcomes for LastRun.
func (s *Scheduler) RunOnce(ctx context.Context) []RunResult {
	sem := semaphore.NewWeighted(maxConcurrentRefreshes)
	var wg sync.WaitGroup
	results := make([]RunResult, len(s.refreshers))

	for i, refresher := range s.refreshers {
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = RunResult{Agent: refresher.Name(), Err: err, RanAt: time.Now()}
			continue
		}
		wg.Add(1)
		go func(i int, refresher Refresher) {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = s.runOne(ctx, refresher)
		}(i, refresher)
	}
	wg.Wait()

	s.mu.Lock()
	s.lastRun = results
	s.mu.Unlock()
	return results
}

// LastRun returns the outcomes of the most recently completed sweep.
func (s *Scheduler) LastRun() []RunResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RunResult, len(s.lastRun))
	copy(out, s.lastRun)
	return out
}

func (s *Scheduler) runOne(ctx context.Context, refresher Refresher) RunResult {
	jobCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	refreshed, err := refresher.RefreshCache(jobCtx)
	result := RunResult{Agent: refresher.Name(), Refreshed: refreshed, Err: err, RanAt: time.Now()}
	if err != nil {
		s.logger.Warn("scheduled cache refresh failed", map[string]interface{}{"agent": refresher.Name(), "error": err.Error()})
		return result
	}
	s.logger.Info("scheduled cache refresh complete", map[string]interface{}{"agent": refresher.Name(), "refreshed": fmt.Sprint(refreshed)})
	return result
}
