// Package sweeper evicts artifacts whose last write is older than the
// configured TTL.
package sweeper

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-markmap/internal/logging"
	"github.com/goliatone/go-markmap/pkg/interfaces"
)

const (
	DefaultTTL      = 24 * time.Hour
	DefaultInterval = 24 * time.Hour

	staleManifestBatch = 500
)

// Config captures sweeper settings.
type Config struct {
	TTL      time.Duration
	Interval time.Duration
}

// Report summarises one sweep pass.
type Report struct {
	Scanned int
	Evicted int
	Failed  int
	// Forgotten lists the ids dropped from the manifest index.
	Forgotten []string
	StartedAt time.Time
	Duration  time.Duration
}

// staleLister is implemented by indexes that can enumerate rows older than a
// cutoff. Used to drop manifests whose artifacts are already gone.
type staleLister interface {
	CreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]interfaces.ArtifactSet, error)
}

// Option customises a Sweeper.
type Option func(*Sweeper)

// WithClock overrides the clock, used mainly for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Sweeper) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithLogger sets the sweeper logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Sweeper) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIndex makes the sweeper forget manifest rows for evicted ids.
func WithIndex(index interfaces.ManifestIndex) Option {
	return func(s *Sweeper) {
		s.index = index
	}
}

// Sweeper deletes expired artifacts from a store. Sweep passes never overlap.
type Sweeper struct {
	store    interfaces.ArtifactStore
	index    interfaces.ManifestIndex
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
	logger   interfaces.Logger

	sweepMu sync.Mutex
	trigger chan struct{}

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New builds a sweeper over store. Zero durations select the defaults.
func New(store interfaces.ArtifactStore, cfg Config, opts ...Option) *Sweeper {
	s := &Sweeper{
		store:    store,
		ttl:      cfg.TTL,
		interval: cfg.Interval,
		now:      time.Now,
		logger:   logging.NoOp(),
		trigger:  make(chan struct{}, 1),
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTTL
	}
	if s.interval <= 0 {
		s.interval = DefaultInterval
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// TTL returns the configured time to live.
func (s *Sweeper) TTL() time.Duration { return s.ttl }

// Interval returns the configured sweep interval.
func (s *Sweeper) Interval() time.Duration { return s.interval }

// Sweep runs one eviction pass. Delete failures are logged and counted, the
// pass continues. Only a listing failure is returned as an error.
func (s *Sweeper) Sweep(ctx context.Context) (Report, error) {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()

	started := s.now()
	report := Report{StartedAt: started}
	cutoff := started.Add(-s.ttl)

	objects, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error("sweeper.list.failed", "error", err)
		return report, err
	}
	report.Scanned = len(objects)

	evicted := map[string]struct{}{}
	kept := map[string]struct{}{}
	for _, object := range objects {
		if err := ctx.Err(); err != nil {
			report.Duration = s.now().Sub(started)
			return report, err
		}
		if !object.Modified.Before(cutoff) {
			kept[object.ID] = struct{}{}
			continue
		}
		logger := logging.WithArtifactContext(s.logger, object.ID, string(object.Kind), "")
		if err := s.store.Delete(ctx, object.ID, object.Kind); err != nil {
			report.Failed++
			kept[object.ID] = struct{}{}
			logger.Warn("sweeper.delete.failed", "error", err)
			continue
		}
		report.Evicted++
		evicted[object.ID] = struct{}{}
		logger.Debug("sweeper.delete.evicted", "modified", object.Modified)
	}

	report.Forgotten = s.forget(ctx, cutoff, evicted, kept)
	report.Duration = s.now().Sub(started)

	logging.WithFields(s.logger, map[string]any{
		"scanned":   report.Scanned,
		"evicted":   report.Evicted,
		"failed":    report.Failed,
		"forgotten": len(report.Forgotten),
		"elapsed":   report.Duration,
	}).Info("sweeper.pass.completed")
	return report, nil
}

func (s *Sweeper) forget(ctx context.Context, cutoff time.Time, evicted, kept map[string]struct{}) []string {
	if s.index == nil {
		return nil
	}
	ids := make([]string, 0, len(evicted))
	seen := map[string]struct{}{}
	for id := range evicted {
		if _, ok := kept[id]; ok {
			continue
		}
		ids = append(ids, id)
		seen[id] = struct{}{}
	}

	if lister, ok := s.index.(staleLister); ok {
		stale, err := lister.CreatedBefore(ctx, cutoff, staleManifestBatch)
		if err != nil {
			s.logger.Warn("sweeper.index.list_failed", "error", err)
		}
		for _, set := range stale {
			if _, ok := kept[set.ID]; ok {
				continue
			}
			if _, ok := seen[set.ID]; ok {
				continue
			}
			ids = append(ids, set.ID)
			seen[set.ID] = struct{}{}
		}
	}

	if len(ids) == 0 {
		return nil
	}
	if err := s.index.Forget(ctx, ids...); err != nil {
		s.logger.Warn("sweeper.index.forget_failed", "error", err, "count", len(ids))
		return nil
	}
	return ids
}

// Trigger requests an out-of-band sweep. It never blocks; requests made while
// one is already pending are coalesced.
func (s *Sweeper) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Start runs Sweep every interval, and on Trigger, until Stop or ctx is done.
func (s *Sweeper) Start(ctx context.Context) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			case <-s.trigger:
			}
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("sweeper.pass.failed", "error", err)
			}
		}
	}(s.done)
	s.logger.Info("sweeper.started", "ttl", s.ttl, "interval", s.interval)
}

// Stop halts the loop and waits for an in-flight pass to finish.
func (s *Sweeper) Stop() {
	s.runMu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.runMu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info("sweeper.stopped")
}
