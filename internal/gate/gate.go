// Package gate admits requests by static API key and a per-key sliding
// window quota.
package gate

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-markmap/internal/domain"
	"github.com/goliatone/go-markmap/internal/identity"
	"github.com/goliatone/go-markmap/internal/logging"
	"github.com/goliatone/go-markmap/pkg/interfaces"
)

const (
	DefaultLimit                 = 100
	DefaultWindow                = time.Hour
	DefaultMaxTrackedCredentials = 10_000
	DefaultPruneInterval         = 10 * time.Minute
)

// DefaultBypass lists the paths served without a credential. A trailing "/*"
// matches the prefix and everything below it.
var DefaultBypass = []string{"/", "/health", "/docs", "/artifact/*", "/schema/*"}

// Decision is the outcome of one admission check.
type Decision struct {
	Admitted bool
	// Reason is set when the request is rejected.
	Reason    error
	Limit     int
	Remaining int
	// RetryAfter is how long until the oldest hit leaves the window. Only set
	// for quota rejections.
	RetryAfter time.Duration
	Bypassed   bool
}

// Config captures gate settings.
type Config struct {
	Credentials           []string
	Limit                 int
	Window                time.Duration
	Bypass                []string
	MaxTrackedCredentials int
	PruneInterval         time.Duration
}

// Option customises a Gate.
type Option func(*Gate)

// WithClock overrides the clock, used mainly for tests.
func WithClock(clock func() time.Time) Option {
	return func(g *Gate) {
		if clock != nil {
			g.now = clock
		}
	}
}

// WithLogger sets the logger used for rejections.
func WithLogger(logger interfaces.Logger) Option {
	return func(g *Gate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// Gate is safe for concurrent use. Hits for one credential are serialised by
// that credential's lock; the table lock is only held to find or create it.
type Gate struct {
	credentials map[string]struct{}
	limit       int
	window      time.Duration
	exact       map[string]struct{}
	prefixes    []string
	maxTracked  int
	interval    time.Duration
	now         func() time.Time
	logger      interfaces.Logger

	mu      sync.Mutex
	entries map[string]*window

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type window struct {
	mu      sync.Mutex
	hits    []time.Time
	removed bool
}

// New builds a gate from cfg. Zero values select the package defaults.
func New(cfg Config, opts ...Option) *Gate {
	g := &Gate{
		credentials: make(map[string]struct{}, len(cfg.Credentials)),
		limit:       cfg.Limit,
		window:      cfg.Window,
		exact:       map[string]struct{}{},
		maxTracked:  cfg.MaxTrackedCredentials,
		interval:    cfg.PruneInterval,
		now:         time.Now,
		logger:      logging.NoOp(),
		entries:     map[string]*window{},
	}
	if g.limit <= 0 {
		g.limit = DefaultLimit
	}
	if g.window <= 0 {
		g.window = DefaultWindow
	}
	if g.maxTracked <= 0 {
		g.maxTracked = DefaultMaxTrackedCredentials
	}
	if g.interval <= 0 {
		g.interval = DefaultPruneInterval
	}
	for _, credential := range cfg.Credentials {
		if credential = strings.TrimSpace(credential); credential != "" {
			g.credentials[credential] = struct{}{}
		}
	}

	bypass := cfg.Bypass
	if bypass == nil {
		bypass = DefaultBypass
	}
	for _, pattern := range bypass {
		pattern = strings.TrimSpace(pattern)
		if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
			g.prefixes = append(g.prefixes, prefix+"/")
			g.exact[prefix] = struct{}{}
			continue
		}
		if pattern != "" {
			g.exact[pattern] = struct{}{}
		}
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Bypassed reports whether path is served without a credential.
func (g *Gate) Bypassed(path string) bool {
	if _, ok := g.exact[path]; ok {
		return true
	}
	for _, prefix := range g.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Admit checks credential for path. Rejected requests are not counted
// against the quota.
func (g *Gate) Admit(credential, path string) Decision {
	if g.Bypassed(path) {
		return Decision{Admitted: true, Bypassed: true, Limit: g.limit, Remaining: g.limit}
	}
	if _, ok := g.credentials[credential]; !ok || credential == "" {
		g.logger.Warn("gate.credential.rejected", "credential", identity.Fingerprint(credential), "path", path)
		return Decision{Reason: domain.InvalidCredential(), Limit: g.limit}
	}

	for {
		now := g.now()
		w := g.entry(credential, now)

		w.mu.Lock()
		if w.removed {
			// pruned between lookup and lock
			w.mu.Unlock()
			continue
		}
		w.trim(now, g.window)
		if len(w.hits) >= g.limit {
			retry := w.hits[0].Add(g.window).Sub(now)
			w.mu.Unlock()
			g.logger.Warn("gate.quota.exceeded", "credential", identity.Fingerprint(credential), "path", path, "limit", g.limit)
			return Decision{Reason: domain.RateLimitExceeded(g.limit), Limit: g.limit, RetryAfter: retry}
		}
		w.hits = append(w.hits, now)
		remaining := g.limit - len(w.hits)
		w.mu.Unlock()
		return Decision{Admitted: true, Limit: g.limit, Remaining: remaining}
	}
}

func (g *Gate) entry(credential string, now time.Time) *window {
	g.mu.Lock()
	defer g.mu.Unlock()
	if w, ok := g.entries[credential]; ok {
		return w
	}
	if len(g.entries) >= g.maxTracked {
		g.pruneLocked(now)
	}
	if len(g.entries) >= g.maxTracked {
		g.evictStalestLocked()
	}
	w := &window{}
	g.entries[credential] = w
	return w
}

// trim drops hits that are at least one window old. Hits are appended in
// clock order, so the expired ones form a prefix.
func (w *window) trim(now time.Time, size time.Duration) {
	cutoff := now.Add(-size)
	drop := 0
	for drop < len(w.hits) && !w.hits[drop].After(cutoff) {
		drop++
	}
	if drop > 0 {
		w.hits = append(w.hits[:0], w.hits[drop:]...)
	}
}

// Prune removes credentials whose window is empty and returns how many were
// dropped.
func (g *Gate) Prune() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pruneLocked(g.now())
}

func (g *Gate) pruneLocked(now time.Time) int {
	removed := 0
	for credential, w := range g.entries {
		w.mu.Lock()
		w.trim(now, g.window)
		if len(w.hits) == 0 {
			w.removed = true
			delete(g.entries, credential)
			removed++
		}
		w.mu.Unlock()
	}
	return removed
}

// evictStalestLocked drops the credential whose latest hit is oldest so the
// table stays within maxTracked even when every window is active.
func (g *Gate) evictStalestLocked() {
	var (
		victim string
		latest time.Time
		found  bool
	)
	for credential, w := range g.entries {
		w.mu.Lock()
		var last time.Time
		if n := len(w.hits); n > 0 {
			last = w.hits[n-1]
		}
		w.mu.Unlock()
		if !found || last.Before(latest) {
			victim, latest, found = credential, last, true
		}
	}
	if !found {
		return
	}
	w := g.entries[victim]
	w.mu.Lock()
	w.removed = true
	w.mu.Unlock()
	delete(g.entries, victim)
	g.logger.Debug("gate.credential.evicted", "credential", identity.Fingerprint(victim))
}

// Tracked returns the number of credentials currently held in the table.
func (g *Gate) Tracked() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

// PruneInterval returns the period of the background prune loop.
func (g *Gate) PruneInterval() time.Duration { return g.interval }

// Start runs Prune every prune interval until Stop or ctx is done.
func (g *Gate) Start(ctx context.Context) {
	g.runMu.Lock()
	defer g.runMu.Unlock()
	if g.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	g.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(g.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := g.Prune(); n > 0 {
					g.logger.Debug("gate.prune", "removed", n)
				}
			}
		}
	}(g.done)
}

// Stop halts the prune loop and waits for it to exit.
func (g *Gate) Stop() {
	g.runMu.Lock()
	cancel, done := g.cancel, g.done
	g.cancel, g.done = nil, nil
	g.runMu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}
