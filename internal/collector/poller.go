// Package collector runs the poll-normalize-publish pipeline, one poller per
// upstream source, under a single orchestrator.
package collector

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dexrelay-systems/dexrelay/internal/backoff"
	"github.com/dexrelay-systems/dexrelay/internal/fault"
	"github.com/dexrelay-systems/dexrelay/internal/logging"
	"github.com/dexrelay-systems/dexrelay/internal/metrics"
	"github.com/dexrelay-systems/dexrelay/internal/model"
	"github.com/dexrelay-systems/dexrelay/internal/normalize"
	"github.com/dexrelay-systems/dexrelay/internal/publish"
)

// minInterval is the floor for poll intervals. Anything lower would hammer
// the upstream rate limits for no freshness gain.
const minInterval = time.Second

// Fetcher is what a poller needs from an upstream source.
type Fetcher interface {
	Name() string
	Version() model.Version
	FetchRecent(ctx context.Context, first int) ([]json.RawMessage, error)
	CheckHealth(ctx context.Context) error
}

// PollerConfig holds per-source pipeline settings.
type PollerConfig struct {
	Interval  time.Duration
	BatchSize int
	Backoff   backoff.Config
}

// Poller drives one source through repeated poll cycles. Cycles run inline in
// the poll loop, so a source never overlaps itself; a cycle that outlives its
// interval simply delays the next tick.
type Poller struct {
	source     Fetcher
	normalizer *normalize.Normalizer
	publisher  publish.Publisher
	counters   *metrics.Counters
	cfg        PollerConfig
	log        *logging.Logger

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewPoller assembles a poller for one source.
func NewPoller(source Fetcher, normalizer *normalize.Normalizer, publisher publish.Publisher, counters *metrics.Counters, cfg PollerConfig, log *logging.Logger) *Poller {
	if cfg.Interval < minInterval {
		cfg.Interval = minInterval
	}
	if log == nil {
		log = logging.Default()
	}
	return &Poller{
		source:     source,
		normalizer: normalizer,
		publisher:  publisher,
		counters:   counters,
		cfg:        cfg,
		log:        log.With(logging.Source(source.Name())),
		stopChan:   make(chan struct{}),
	}
}

// Start launches the poll loop. The loop ends when ctx is cancelled or Stop
// is called.
func (p *Poller) Start(ctx context.Context) {
	p.wg.Add(1)
	go p.loop(ctx)
}

// Stop signals the loop and blocks until it has exited. Safe to call more
// than once.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stopChan) })
	p.wg.Wait()
}

func (p *Poller) loop(ctx context.Context) {
	defer p.wg.Done()

	p.log.Info("poller started", "interval", p.cfg.Interval.String())

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// First cycle runs immediately; ticks drive the rest.
	p.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			p.log.Info("poller stopped", logging.Error(ctx.Err()))
			return
		case <-p.stopChan:
			p.log.Info("poller stopped")
			return
		case <-ticker.C:
			p.runCycle(ctx)
		}
	}
}

// runCycle executes one cycle with the retry policy. Record-level failures
// inside a cycle are counted and skipped; cycle-level failures are retried
// with exponential backoff. A cycle makes at most MaxAttempts attempts in
// total, so it sleeps at most MaxAttempts-1 times, and an abandoned cycle
// counts as one error regardless of how many attempts it burned.
func (p *Poller) runCycle(ctx context.Context) {
	cycleID := uuid.NewString()
	log := p.log.With(logging.Cycle(cycleID))
	policy := backoff.New(p.cfg.Backoff)
	start := time.Now()

	for {
		err := p.cycle(ctx, log)
		if err == nil {
			p.counters.ObserveCycleDuration(p.source.Name(), time.Since(start).Seconds())
			return
		}
		if ctx.Err() != nil {
			return
		}

		if !fault.Retryable(err) {
			p.counters.RecordError(p.source.Name())
			log.Error("cycle failed", logging.Error(err))
			return
		}

		failures := policy.Attempt() + 1
		if failures >= p.cfg.Backoff.MaxAttempts {
			p.counters.RecordError(p.source.Name())
			log.Error("cycle abandoned, retries exhausted",
				logging.Attempt(failures),
				logging.Error(err))
			return
		}

		delay, ok := policy.NextDelay()
		if !ok {
			p.counters.RecordError(p.source.Name())
			log.Error("cycle abandoned, retries exhausted",
				logging.Attempt(failures),
				logging.Error(err))
			return
		}

		log.Warn("cycle attempt failed, backing off",
			logging.Attempt(failures),
			"delay", delay.String(),
			logging.Error(fault.WithAttempt(err, failures)))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		case <-p.stopChan:
			return
		}
	}
}

// cycle performs one fetch-normalize-publish pass.
func (p *Poller) cycle(ctx context.Context, log *logging.Logger) error {
	raws, err := p.source.FetchRecent(ctx, p.cfg.BatchSize)
	if err != nil {
		return err
	}

	events, recordErrs := p.normalizer.All(p.source.Version(), raws)
	if n := len(recordErrs); n > 0 {
		p.counters.RecordEventsDropped(p.source.Name(), n)
		log.Warn("dropped malformed records", logging.Dropped(n))
	}
	if len(events) == 0 {
		log.Debug("no publishable events this cycle")
		return nil
	}

	if err := p.publisher.PublishBatch(ctx, events); err != nil {
		return err
	}

	p.counters.RecordEventsProcessed(p.source.Name(), len(events))
	log.Info("published batch", logging.Events(len(events)))
	return nil
}
