package generator

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/goliatone/go-markmap/internal/domain"
	"github.com/goliatone/go-markmap/internal/storage"
	"github.com/goliatone/go-markmap/pkg/interfaces"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestService(store interfaces.ArtifactStore, deps Dependencies) Service {
	deps.Store = store
	if deps.IDs == nil {
		deps.IDs = func() string { return "markmap-1714564800000-0badc0de" }
	}
	deps.Clock = func() time.Time { return fixedNow }
	return NewService(Config{}, deps)
}

func TestGenerateStoresAllFormats(t *testing.T) {
	store := storage.NewMemoryStore()
	var notified []interfaces.ArtifactSet
	svc := newTestService(store, Dependencies{
		OnGenerated: func(set interfaces.ArtifactSet) { notified = append(notified, set) },
	})

	result, err := svc.Generate(context.Background(), domain.GenerationRequest{Markdown: "# A\n## B\n### C\n## D"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(result.Failures) != 0 {
		t.Fatalf("expected no failures, got %v", result.Failures)
	}
	if result.Set.Title != "A" || !result.Set.CreatedAt.Equal(fixedNow) {
		t.Fatalf("unexpected set %+v", result.Set)
	}
	for _, kind := range interfaces.ArtifactKinds() {
		if !result.Set.Has(kind) {
			t.Fatalf("expected %s to be produced", kind)
		}
		if !store.Exists(context.Background(), result.Set.ID, kind) {
			t.Fatalf("expected %s to be stored", kind)
		}
	}
	if len(notified) != 1 || notified[0].ID != result.Set.ID {
		t.Fatalf("expected OnGenerated once, got %+v", notified)
	}

	data, _ := store.Get(context.Background(), result.Set.ID, interfaces.ArtifactOutline)
	var doc outlineDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode outline: %v", err)
	}
	if doc.Title != "A" || len(doc.Children) != 1 || len(doc.Children[0].Children) != 2 {
		t.Fatalf("unexpected outline %+v", doc)
	}
	if doc.Children[0].Children[0].Children[0].Title != "C" {
		t.Fatalf("expected C under B, got %+v", doc.Children[0].Children[0])
	}
}

func TestGeneratePartialFailure(t *testing.T) {
	store := storage.NewMemoryStore(storage.WithPutFailure(interfaces.ArtifactPreview, errors.New("disk full")))
	svc := newTestService(store, Dependencies{})

	result, err := svc.Generate(context.Background(), domain.GenerationRequest{Markdown: "# A"})
	if err != nil {
		t.Fatalf("expected partial success, got %v", err)
	}
	if result.Set.Has(interfaces.ArtifactPreview) {
		t.Fatalf("expected preview to be marked failed")
	}
	if !result.Set.Has(interfaces.ArtifactInteractive) || !result.Set.Has(interfaces.ArtifactOutline) {
		t.Fatalf("expected other formats to succeed, got %+v", result.Set.Formats)
	}
	if domain.Code(result.Failures[interfaces.ArtifactPreview]) != domain.CodeStorageWriteFailed {
		t.Fatalf("expected STORAGE_WRITE_FAILED for preview, got %v", result.Failures)
	}
	if store.Exists(context.Background(), result.Set.ID, interfaces.ArtifactPreview) {
		t.Fatalf("expected no preview artifact")
	}
	if got := result.Succeeded(); len(got) != 2 {
		t.Fatalf("expected two succeeded formats, got %v", got)
	}
}

func TestGenerateTotalFailure(t *testing.T) {
	boom := errors.New("read-only filesystem")
	store := storage.NewMemoryStore(
		storage.WithPutFailure(interfaces.ArtifactInteractive, boom),
		storage.WithPutFailure(interfaces.ArtifactPreview, boom),
		storage.WithPutFailure(interfaces.ArtifactOutline, boom),
	)
	called := false
	svc := newTestService(store, Dependencies{OnGenerated: func(interfaces.ArtifactSet) { called = true }})

	_, err := svc.Generate(context.Background(), domain.GenerationRequest{Markdown: "# A"})
	if domain.Code(err) != domain.CodeStorageWriteFailed {
		t.Fatalf("expected STORAGE_WRITE_FAILED, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected causes to be joined, got %v", err)
	}
	if called {
		t.Fatalf("expected no notification on total failure")
	}
}

func TestGenerateRejectsBeforeWork(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewService(Config{MaxMarkdownSize: 8}, Dependencies{Store: store})

	cases := map[string]struct {
		req  domain.GenerationRequest
		code string
	}{
		"oversize": {domain.GenerationRequest{Markdown: "# 123456789"}, domain.CodeInputTooLarge},
		"empty":    {domain.GenerationRequest{Markdown: "   "}, domain.CodeInvalidInput},
		"encoding": {domain.GenerationRequest{Markdown: "# \xff"}, domain.CodeInvalidInput},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.Generate(context.Background(), tc.req); domain.Code(err) != tc.code {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
	if objects, _ := store.List(context.Background()); len(objects) != 0 {
		t.Fatalf("expected no writes, got %d", len(objects))
	}
}

func TestDisplayTitleFallbacks(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := newTestService(store, Dependencies{})
	ctx := context.Background()

	cases := []struct {
		req  domain.GenerationRequest
		want string
	}{
		{domain.GenerationRequest{Markdown: "# Heading", Title: "Explicit"}, "Explicit"},
		{domain.GenerationRequest{Markdown: "---\ntitle: From Meta\n---\n# Heading\n"}, "From Meta"},
		{domain.GenerationRequest{Markdown: "## Sub\n# Top"}, "Sub"},
		{domain.GenerationRequest{Markdown: "no headings here"}, DefaultTitle},
	}
	for _, tc := range cases {
		result, err := svc.Generate(ctx, tc.req)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if result.Set.Title != tc.want {
			t.Fatalf("expected title %q, got %q", tc.want, result.Set.Title)
		}
	}
}

func TestDisplayTitleKeepsFullLengthAtBoundary(t *testing.T) {
	long := strings.Repeat("a", maxDisplayTitle-1) + " " + strings.Repeat("b", 10)
	got := displayTitle(long)
	if n := utf8.RuneCountInString(got); n != maxDisplayTitle {
		t.Fatalf("expected %d runes, got %d", maxDisplayTitle, n)
	}
	if got := displayTitle("  ", "\t"); got != DefaultTitle {
		t.Fatalf("expected default title for blanks, got %q", got)
	}
}

func TestPreviewEscapesLabels(t *testing.T) {
	svc := newTestService(storage.NewMemoryStore(), Dependencies{})
	data, err := svc.Render(context.Background(), domain.GenerationRequest{
		Markdown: "# <b>&\"x\"</b>\n## Nested\n# Second",
		Title:    "R&D <plan>",
	}, interfaces.ArtifactPreview)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	svg := string(data)
	if !strings.Contains(svg, `width="800" height="600"`) {
		t.Fatalf("expected fixed size svg, got %s", svg)
	}
	if strings.Contains(svg, "<b>") || strings.Contains(svg, "<plan>") {
		t.Fatalf("expected labels to be escaped, got %s", svg)
	}
	if !strings.Contains(svg, "R&amp;D &lt;plan&gt;") {
		t.Fatalf("expected escaped root label, got %s", svg)
	}
	if !strings.Contains(svg, "&lt;b&gt;&amp;&#34;x&#34;&lt;/b&gt;") {
		t.Fatalf("expected escaped child label, got %s", svg)
	}
	if strings.Contains(svg, "Nested") {
		t.Fatalf("expected only immediate children in the preview")
	}
	if strings.Count(svg, "<line ") != 2 {
		t.Fatalf("expected one spoke per root child, got %d", strings.Count(svg, "<line "))
	}
}

func TestRenderRejectsUnknownKind(t *testing.T) {
	svc := newTestService(storage.NewMemoryStore(), Dependencies{})
	_, err := svc.Render(context.Background(), domain.GenerationRequest{Markdown: "# A"}, "pdf")
	if domain.Code(err) != domain.CodeInvalidInput {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

type stubTransformer struct {
	result *interfaces.TransformResult
	err    error
	delay  time.Duration
}

func (s stubTransformer) Transform(ctx context.Context, _ string) (*interfaces.TransformResult, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.result, s.err
}

func TestInteractiveEmbedsTransformerTree(t *testing.T) {
	tr := stubTransformer{result: &interfaces.TransformResult{Root: json.RawMessage(`{"content":"A","children":[]}`)}}
	svc := newTestService(storage.NewMemoryStore(), Dependencies{Transformer: tr})

	data, err := svc.Render(context.Background(), domain.GenerationRequest{Markdown: "# A"}, interfaces.ArtifactInteractive)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	payload := extractPayload(t, string(data))
	if string(payload.Root) != `{"content":"A","children":[]}` {
		t.Fatalf("expected embedded root, got %s", payload.Root)
	}
}

func TestInteractiveFallsBackWhenTransformerFails(t *testing.T) {
	cases := map[string]stubTransformer{
		"error":   {err: errors.New("renderer crashed")},
		"timeout": {delay: time.Second},
		"empty":   {result: &interfaces.TransformResult{}},
	}
	for name, tr := range cases {
		t.Run(name, func(t *testing.T) {
			store := storage.NewMemoryStore()
			svc := NewService(Config{RenderTimeout: 20 * time.Millisecond}, Dependencies{Store: store, Transformer: tr})

			result, err := svc.Generate(context.Background(), domain.GenerationRequest{Markdown: "# A"})
			if err != nil {
				t.Fatalf("generate: %v", err)
			}
			if !result.Set.Has(interfaces.ArtifactInteractive) {
				t.Fatalf("expected interactive artifact despite renderer failure")
			}
			if domain.Code(result.Warnings[interfaces.ArtifactInteractive]) != domain.CodeExternalRendererFailed {
				t.Fatalf("expected EXTERNAL_RENDERER_FAILED warning, got %v", result.Warnings)
			}
			data, _ := store.Get(context.Background(), result.Set.ID, interfaces.ArtifactInteractive)
			if payload := extractPayload(t, string(data)); len(payload.Root) != 0 || payload.Markdown != "# A" {
				t.Fatalf("expected markdown-only payload, got %+v", payload)
			}
		})
	}
}

func TestInteractiveEscapingHoldsForHostileInput(t *testing.T) {
	svc := newTestService(storage.NewMemoryStore(), Dependencies{})
	ctx := context.Background()

	baseline, err := svc.Render(ctx, domain.GenerationRequest{Markdown: "# plain"}, interfaces.ArtifactInteractive)
	if err != nil {
		t.Fatalf("render baseline: %v", err)
	}
	wantClosers := strings.Count(strings.ToLower(string(baseline)), "</script")

	hostile := []string{
		"# </script><script>alert(1)</script>",
		"# </SCRIPT >\n</script>",
		"# a\u2028b\u2029c",
		"# <!-- x --> & ]]> <![CDATA[ -->",
		"# \"double\" 'single' `back` \\ \\u003c/script\\u003e",
		"# ok\n\n<script>alert(document.cookie)</script>\n\n[x](javascript:alert(1))",
		"# </title><svg onload=alert(1)>",
	}
	for _, input := range hostile {
		for _, title := range []string{"", "</title><script>alert(1)</script>"} {
			data, err := svc.Render(ctx, domain.GenerationRequest{Markdown: input, Title: title}, interfaces.ArtifactInteractive)
			if err != nil {
				t.Fatalf("render %q: %v", input, err)
			}
			html := string(data)
			if got := strings.Count(strings.ToLower(html), "</script"); got != wantClosers {
				t.Fatalf("input %q changed script structure: %d closers, want %d", input, got, wantClosers)
			}
			if block := payloadBlock(t, html); strings.ContainsAny(block, "\u2028\u2029") {
				t.Fatalf("input %q leaked a raw line separator into the payload", input)
			}
			if strings.Contains(strings.ToLower(html), `href="javascript:`) {
				t.Fatalf("input %q leaked a javascript URL", input)
			}
			if payload := extractPayload(t, html); payload.Markdown != input {
				t.Fatalf("payload did not round-trip\nwant %q\ngot  %q", input, payload.Markdown)
			}
		}
	}
}

func TestGenerateRunsFormatsConcurrently(t *testing.T) {
	store := &barrierStore{MemoryStore: storage.NewMemoryStore(), arrived: make(chan struct{}, 3), release: make(chan struct{})}
	svc := newTestService(store, Dependencies{})

	done := make(chan error, 1)
	go func() {
		_, err := svc.Generate(context.Background(), domain.GenerationRequest{Markdown: "# A"})
		done <- err
	}()

	for i := 0; i < 3; i++ {
		select {
		case <-store.arrived:
		case <-time.After(2 * time.Second):
			t.Fatalf("expected all three writes to be in flight together, got %d", i)
		}
	}
	close(store.release)
	if err := <-done; err != nil {
		t.Fatalf("generate: %v", err)
	}
}

type barrierStore struct {
	*storage.MemoryStore
	arrived chan struct{}
	release chan struct{}
}

func (b *barrierStore) Put(ctx context.Context, id string, kind interfaces.ArtifactKind, data []byte) error {
	b.arrived <- struct{}{}
	<-b.release
	return b.MemoryStore.Put(ctx, id, kind, data)
}

// payloadBlock returns the raw text of the application/json script element.
func payloadBlock(t *testing.T, html string) string {
	t.Helper()
	const marker = `<script type="application/json" id="markmap-data">`
	start := strings.Index(html, marker)
	if start < 0 {
		t.Fatalf("payload block missing")
	}
	rest := html[start+len(marker):]
	end := strings.Index(rest, "</script>")
	if end < 0 {
		t.Fatalf("payload block not terminated")
	}
	return rest[:end]
}

func extractPayload(t *testing.T, html string) viewerPayload {
	t.Helper()
	block := payloadBlock(t, html)
	var payload viewerPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(block)), &payload); err != nil {
		t.Fatalf("payload is not valid JSON: %v\n%s", err, block)
	}
	return payload
}
