package gate

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goliatone/go-markmap/internal/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestAdmitEnforcesSlidingWindow(t *testing.T) {
	clock := newFakeClock()
	g := New(Config{Credentials: []string{"k"}, Limit: 3}, WithClock(clock.Now))

	for i := 0; i < 3; i++ {
		d := g.Admit("k", "/convert")
		if !d.Admitted {
			t.Fatalf("request %d: expected admission, got %v", i+1, d.Reason)
		}
		if d.Remaining != 2-i {
			t.Fatalf("request %d: expected %d remaining, got %d", i+1, 2-i, d.Remaining)
		}
		clock.Advance(time.Minute)
	}

	d := g.Admit("k", "/convert")
	if d.Admitted || domain.Code(d.Reason) != domain.CodeRateLimitExceeded {
		t.Fatalf("expected 4th request to be rate limited, got %+v", d)
	}
	if d.RetryAfter != 57*time.Minute {
		t.Fatalf("expected retry after 57m, got %v", d.RetryAfter)
	}

	clock.Advance(61 * time.Minute)
	if d := g.Admit("k", "/convert"); !d.Admitted {
		t.Fatalf("expected admission after window elapsed, got %v", d.Reason)
	}
}

func TestRejectedRequestsAreNotRecorded(t *testing.T) {
	clock := newFakeClock()
	g := New(Config{Credentials: []string{"k"}, Limit: 1}, WithClock(clock.Now))

	if !g.Admit("k", "/convert").Admitted {
		t.Fatalf("expected first admission")
	}
	for i := 0; i < 5; i++ {
		clock.Advance(10 * time.Minute)
		if g.Admit("k", "/convert").Admitted {
			t.Fatalf("expected rejection inside the window")
		}
	}
	// first hit was 50m ago; rejected attempts must not extend the window
	clock.Advance(11 * time.Minute)
	if !g.Admit("k", "/convert").Admitted {
		t.Fatalf("expected admission once the only recorded hit expired")
	}
}

func TestAdmitRejectsUnknownCredentials(t *testing.T) {
	g := New(Config{Credentials: []string{"dev-key", " test-key "}})

	for _, credential := range []string{"", "nope", "DEV-KEY"} {
		d := g.Admit(credential, "/convert")
		if d.Admitted || domain.Code(d.Reason) != domain.CodeInvalidCredential {
			t.Fatalf("expected %q to be rejected, got %+v", credential, d)
		}
	}
	if !g.Admit("test-key", "/convert").Admitted {
		t.Fatalf("expected trimmed credential to be accepted")
	}
	if g.Tracked() != 1 {
		t.Fatalf("expected invalid credentials to leave no table entries, got %d", g.Tracked())
	}
}

func TestBypassPaths(t *testing.T) {
	g := New(Config{Credentials: []string{"k"}, Limit: 1})

	for _, path := range []string{"/", "/health", "/docs", "/artifact/x.svg", "/artifact", "/schema/outline.json"} {
		d := g.Admit("", path)
		if !d.Admitted || !d.Bypassed {
			t.Fatalf("expected %s to bypass the gate, got %+v", path, d)
		}
	}
	for _, path := range []string{"/convert", "/healthz", "/artifactx", "/upload"} {
		if g.Bypassed(path) {
			t.Fatalf("expected %s to require a credential", path)
		}
	}
}

func TestCustomBypassList(t *testing.T) {
	g := New(Config{Credentials: []string{"k"}, Bypass: []string{"/output/*"}})
	if !g.Bypassed("/output/a.html") || g.Bypassed("/health") {
		t.Fatalf("expected custom bypass list to replace the defaults")
	}
}

func TestPruneDropsIdleCredentials(t *testing.T) {
	clock := newFakeClock()
	g := New(Config{Credentials: []string{"a", "b"}, Limit: 5}, WithClock(clock.Now))

	g.Admit("a", "/convert")
	clock.Advance(30 * time.Minute)
	g.Admit("b", "/convert")
	clock.Advance(31 * time.Minute)

	if removed := g.Prune(); removed != 1 {
		t.Fatalf("expected one idle credential to be pruned, got %d", removed)
	}
	if g.Tracked() != 1 {
		t.Fatalf("expected b to remain tracked, got %d entries", g.Tracked())
	}

	// a starts over with a fresh window
	if d := g.Admit("a", "/convert"); !d.Admitted || d.Remaining != 4 {
		t.Fatalf("expected fresh window for a, got %+v", d)
	}
}

func TestTableBoundTriggersPrune(t *testing.T) {
	clock := newFakeClock()
	creds := make([]string, 0, 4)
	for i := 0; i < 4; i++ {
		creds = append(creds, fmt.Sprintf("k%d", i))
	}
	g := New(Config{Credentials: creds, Limit: 5, MaxTrackedCredentials: 2}, WithClock(clock.Now))

	g.Admit("k0", "/convert")
	g.Admit("k1", "/convert")
	clock.Advance(2 * time.Hour)
	g.Admit("k2", "/convert")

	if g.Tracked() != 1 {
		t.Fatalf("expected stale entries to be evicted when the table is full, got %d", g.Tracked())
	}
}

func TestTableBoundEvictsStalestActiveCredential(t *testing.T) {
	clock := newFakeClock()
	g := New(Config{Credentials: []string{"k0", "k1", "k2"}, Limit: 5, MaxTrackedCredentials: 2}, WithClock(clock.Now))

	g.Admit("k0", "/convert")
	clock.Advance(time.Minute)
	g.Admit("k1", "/convert")
	clock.Advance(time.Minute)
	g.Admit("k2", "/convert")

	if got := g.Tracked(); got != 2 {
		t.Fatalf("expected the table to stay at its bound, got %d entries", got)
	}
	if d := g.Admit("k1", "/convert"); d.Remaining != 3 {
		t.Fatalf("expected k1 to keep its window, remaining %d", d.Remaining)
	}
	// k2 now holds the stalest latest hit, so it makes room for k0.
	clock.Advance(time.Minute)
	if d := g.Admit("k0", "/convert"); d.Remaining != 4 {
		t.Fatalf("expected k0 to start a fresh window after eviction, remaining %d", d.Remaining)
	}
	if got := g.Tracked(); got != 2 {
		t.Fatalf("expected the table to stay at its bound, got %d entries", got)
	}
}

func TestConcurrentAdmissionsRespectLimit(t *testing.T) {
	g := New(Config{Credentials: []string{"k"}, Limit: 50})

	var admitted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Admit("k", "/convert").Admitted {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	if admitted.Load() != 50 {
		t.Fatalf("expected exactly 50 admissions, got %d", admitted.Load())
	}
}

func TestConcurrentAdmissionsWithPrune(t *testing.T) {
	g := New(Config{Credentials: []string{"k"}, Limit: 1000})

	var wg sync.WaitGroup
	var admitted atomic.Int64
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if g.Admit("k", "/convert").Admitted {
				admitted.Add(1)
			}
		}()
		go func() {
			defer wg.Done()
			g.Prune()
		}()
	}
	wg.Wait()

	if admitted.Load() != 100 {
		t.Fatalf("expected all requests admitted, got %d", admitted.Load())
	}
	if d := g.Admit("k", "/convert"); d.Remaining != 1000-101 {
		t.Fatalf("expected every hit to be counted despite pruning, remaining %d", d.Remaining)
	}
}

func TestStartStop(t *testing.T) {
	g := New(Config{Credentials: []string{"k"}, PruneInterval: time.Millisecond})
	g.Start(context.Background())
	g.Start(context.Background())
	time.Sleep(5 * time.Millisecond)
	g.Stop()
	g.Stop()
}
