package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-markmap/internal/domain"
	"github.com/goliatone/go-markmap/pkg/interfaces"
)

func TestValidateID(t *testing.T) {
	valid := []string{"markmap-1700000000000-1a2b3c4d", "a.b", "x"}
	for _, id := range valid {
		if err := ValidateID(id); err != nil {
			t.Fatalf("expected %q to be valid, got %v", id, err)
		}
	}
	invalid := []string{"", "  ", "..", "../../etc/passwd", "a/b", `a\b`, "a..b", "nul\x00byte"}
	for _, id := range invalid {
		if err := ValidateID(id); domain.Code(err) != domain.CodeInvalidID {
			t.Fatalf("expected %q to be rejected with INVALID_ID, got %v", id, err)
		}
	}
}

func TestChecksumIsStableAndDistinct(t *testing.T) {
	a := Checksum([]byte("# A"))
	if a != Checksum([]byte("# A")) {
		t.Fatalf("expected deterministic checksum")
	}
	if a == Checksum([]byte("# B")) {
		t.Fatalf("expected distinct checksums for distinct content")
	}
	if len(a) != 64 {
		t.Fatalf("expected 32 byte hex digest, got %d chars", len(a))
	}
}

func TestParseFileName(t *testing.T) {
	cases := map[string]struct {
		id   string
		kind interfaces.ArtifactKind
		ok   bool
	}{
		"markmap-1-ab.html": {"markmap-1-ab", interfaces.ArtifactInteractive, true},
		"x.svg":             {"x", interfaces.ArtifactPreview, true},
		"x.json":            {"x", interfaces.ArtifactOutline, true},
		"x.outline":         {"", "", false},
		"x.png":             {"", "", false},
		".json":             {"", "", false},
		"README":            {"", "", false},
	}
	for name, want := range cases {
		id, kind, ok := parseFileName(name)
		if ok != want.ok || id != want.id || kind != want.kind {
			t.Fatalf("parseFileName(%q) = (%q, %q, %v), want (%q, %q, %v)", name, id, kind, ok, want.id, want.kind, want.ok)
		}
	}
}

// storeContract runs the shared ArtifactStore expectations.
func storeContract(t *testing.T, store interfaces.ArtifactStore) {
	t.Helper()
	ctx := context.Background()
	id := "markmap-1700000000000-deadbeef"

	if store.Exists(ctx, id, interfaces.ArtifactOutline) {
		t.Fatalf("expected empty store")
	}
	if _, err := store.Get(ctx, id, interfaces.ArtifactOutline); domain.Code(err) != domain.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}

	if err := store.Put(ctx, id, interfaces.ArtifactOutline, []byte(`{"title":"A"}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(ctx, id, interfaces.ArtifactPreview, []byte("<svg/>")); err != nil {
		t.Fatalf("put: %v", err)
	}

	data, err := store.Get(ctx, id, interfaces.ArtifactOutline)
	if err != nil || string(data) != `{"title":"A"}` {
		t.Fatalf("unexpected get result %q, %v", data, err)
	}
	if !store.Exists(ctx, id, interfaces.ArtifactPreview) {
		t.Fatalf("expected preview to exist")
	}
	if store.Exists(ctx, id, interfaces.ArtifactInteractive) {
		t.Fatalf("expected interactive to be absent")
	}

	info, err := store.Stat(ctx, id, interfaces.ArtifactPreview)
	if err != nil || info.Size != int64(len("<svg/>")) || info.Modified.IsZero() {
		t.Fatalf("unexpected stat %+v, %v", info, err)
	}

	objects, err := store.List(ctx)
	if err != nil || len(objects) != 2 {
		t.Fatalf("expected two listed objects, got %+v, %v", objects, err)
	}
	if objects[0].Kind != interfaces.ArtifactOutline || objects[1].Kind != interfaces.ArtifactPreview {
		t.Fatalf("expected objects sorted by kind, got %+v", objects)
	}

	if err := store.Delete(ctx, id, interfaces.ArtifactOutline); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, id, interfaces.ArtifactOutline); err != nil {
		t.Fatalf("expected idempotent delete, got %v", err)
	}
	if store.Exists(ctx, id, interfaces.ArtifactOutline) {
		t.Fatalf("expected outline to be gone")
	}

	for _, bad := range []string{"../../etc/passwd", "a/b", `..\x`} {
		if err := store.Put(ctx, bad, interfaces.ArtifactOutline, nil); domain.Code(err) != domain.CodeInvalidID {
			t.Fatalf("expected put of %q to be rejected, got %v", bad, err)
		}
		if _, err := store.Get(ctx, bad, interfaces.ArtifactOutline); domain.Code(err) != domain.CodeInvalidID {
			t.Fatalf("expected get of %q to be rejected, got %v", bad, err)
		}
	}
	if err := store.Put(ctx, id, interfaces.ArtifactKind("pdf"), nil); domain.Code(err) != domain.CodeInvalidInput {
		t.Fatalf("expected unknown kind to be rejected, got %v", err)
	}
}

func TestFileStoreContract(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	storeContract(t, store)
}

func TestMemoryStoreContract(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestFileStoreWritesNamedFilesAndSkipsStrays(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	ctx := context.Background()

	if err := store.Put(ctx, "abc", interfaces.ArtifactInteractive, []byte("<html></html>")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "abc.html")); err != nil {
		t.Fatalf("expected abc.html on disk: %v", err)
	}

	for _, stray := range []string{".tmp-abc-123", "notes.txt", "image.png"} {
		if err := os.WriteFile(filepath.Join(dir, stray), []byte("x"), 0o644); err != nil {
			t.Fatalf("write stray: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.json"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	objects, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(objects) != 1 || objects[0].ID != "abc" {
		t.Fatalf("expected only abc to be listed, got %+v", objects)
	}
}

func TestFileStoreOverwriteIsAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	ctx := context.Background()

	_ = store.Put(ctx, "abc", interfaces.ArtifactOutline, []byte("first"))
	_ = store.Put(ctx, "abc", interfaces.ArtifactOutline, []byte("second"))

	data, _ := store.Get(ctx, "abc", interfaces.ArtifactOutline)
	if string(data) != "second" {
		t.Fatalf("expected replaced content, got %q", data)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected no leftover temp files, got %d entries", len(entries))
	}
}

func TestMemoryStoreClockAndTouch(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryStore(WithClock(func() time.Time { return now }))
	ctx := context.Background()

	_ = store.Put(ctx, "a", interfaces.ArtifactPreview, []byte("x"))
	info, _ := store.Stat(ctx, "a", interfaces.ArtifactPreview)
	if !info.Modified.Equal(now) {
		t.Fatalf("expected injected clock, got %v", info.Modified)
	}

	earlier := now.Add(-48 * time.Hour)
	if !store.Touch("a", interfaces.ArtifactPreview, earlier) {
		t.Fatalf("expected touch to succeed")
	}
	info, _ = store.Stat(ctx, "a", interfaces.ArtifactPreview)
	if !info.Modified.Equal(earlier) {
		t.Fatalf("expected touched time, got %v", info.Modified)
	}
}

func TestChecksumOf(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	_ = store.Put(ctx, "a", interfaces.ArtifactOutline, []byte("{}"))

	sum, data, err := ChecksumOf(ctx, store, "a", interfaces.ArtifactOutline)
	if err != nil || string(data) != "{}" || sum != Checksum([]byte("{}")) {
		t.Fatalf("unexpected checksum result %q %q %v", sum, data, err)
	}
}
