package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dexrelay-systems/dexrelay/internal/logging"
	"github.com/dexrelay-systems/dexrelay/internal/metrics"
	"github.com/dexrelay-systems/dexrelay/internal/publish"
)

// Orchestrator owns the source pollers and the shared publisher, and ties
// their lifetimes to one derived context.
type Orchestrator struct {
	pollers   []*Poller
	publisher publish.Publisher
	counters  *metrics.Counters
	log       *logging.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	started bool
}

// SourceStatus describes one poller in a status report.
type SourceStatus struct {
	Source   string `json:"source"`
	Interval string `json:"interval"`
}

// Status is a point-in-time report served on the status endpoint.
type Status struct {
	Running bool             `json:"running"`
	Sources []SourceStatus   `json:"sources"`
	Totals  metrics.Snapshot `json:"totals"`
}

// NewOrchestrator assembles the orchestrator. Pollers share the publisher and
// counters; each keeps its own source and retry policy.
func NewOrchestrator(pollers []*Poller, publisher publish.Publisher, counters *metrics.Counters, log *logging.Logger) *Orchestrator {
	if log == nil {
		log = logging.Default()
	}
	return &Orchestrator{
		pollers:   pollers,
		publisher: publisher,
		counters:  counters,
		log:       log,
	}
}

// Start launches every poller on a context derived from ctx. Calling Start on
// a running orchestrator is a logged no-op.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.started {
		o.log.Warn("start ignored, collection already running")
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.started = true

	for _, p := range o.pollers {
		p.Start(runCtx)
	}
	o.log.Info("collection started", "sources", len(o.pollers))
}

// Shutdown cancels the derived context, waits for every poller to exit, then
// closes the publisher. It returns early with ctx.Err() if ctx expires while
// pollers are still draining.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	if !o.started {
		o.mu.Unlock()
		return nil
	}
	o.cancel()
	o.started = false
	o.mu.Unlock()

	done := make(chan struct{})
	go func() {
		for _, p := range o.pollers {
			p.Stop()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("shutdown: %w", ctx.Err())
	}

	if err := o.publisher.Close(); err != nil {
		return fmt.Errorf("close publisher: %w", err)
	}
	o.log.Info("collection stopped")
	return nil
}

// Status reports the current pipeline state.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	running := o.started
	o.mu.Unlock()

	sources := make([]SourceStatus, 0, len(o.pollers))
	for _, p := range o.pollers {
		sources = append(sources, SourceStatus{
			Source:   p.source.Name(),
			Interval: p.cfg.Interval.String(),
		})
	}

	return Status{
		Running: running,
		Sources: sources,
		Totals:  o.counters.Snapshot(),
	}
}

// HealthCheck probes every source and the publisher, joining the failures so
// one degraded dependency does not mask another.
func (o *Orchestrator) HealthCheck(ctx context.Context) error {
	var errs []error
	for _, p := range o.pollers {
		if err := p.source.CheckHealth(ctx); err != nil {
			errs = append(errs, fmt.Errorf("source %s: %w", p.source.Name(), err))
		}
	}
	if err := o.publisher.CheckHealth(ctx); err != nil {
		errs = append(errs, fmt.Errorf("publisher: %w", err))
	}
	return errors.Join(errs...)
}
