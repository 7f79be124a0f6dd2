package testsupport

import (
	"testing"
	"time"
)

func TestMemoryDSNDefaultsName(t *testing.T) {
	if got := MemoryDSN(" "); got != "file:markmap?mode=memory&cache=shared" {
		t.Fatalf("unexpected dsn %q", got)
	}
}

func TestSQLiteMemoryDBIsShared(t *testing.T) {
	first, err := NewSQLiteMemoryDB("shared_check")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer first.Close()
	if _, err := first.Exec("CREATE TABLE marks (id TEXT)"); err != nil {
		t.Fatalf("create: %v", err)
	}

	second, err := NewSQLiteMemoryDB("shared_check")
	if err != nil {
		t.Fatalf("open second: %v", err)
	}
	defer second.Close()
	if _, err := second.Exec("INSERT INTO marks (id) VALUES ('a')"); err != nil {
		t.Fatalf("insert through second handle: %v", err)
	}
}

func TestClockAdvance(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewClock(start)
	clock.Advance(time.Hour)
	if !clock.Now().Equal(start.Add(time.Hour)) {
		t.Fatalf("expected advanced clock, got %v", clock.Now())
	}
}
