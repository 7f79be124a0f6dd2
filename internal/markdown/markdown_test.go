package markdown

import (
	"strings"
	"testing"

	"github.com/goliatone/go-markmap/pkg/interfaces"
)

func TestGoldmarkRenderer_Render(t *testing.T) {
	r := NewGoldmarkRenderer(interfaces.ParseOptions{})

	html, err := r.Render([]byte("# Heading\n\nHello **world**"))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	got := string(html)
	if !strings.Contains(got, "<h1") || !strings.Contains(got, "Heading</h1>") {
		t.Fatalf("expected rendered HTML to include <h1>Heading</h1>, got %q", got)
	}
	if !strings.Contains(got, "<strong>world</strong>") {
		t.Fatalf("expected rendered HTML to include <strong>, got %q", got)
	}
}

func TestGoldmarkRenderer_RenderWithOptions(t *testing.T) {
	r := NewGoldmarkRenderer(interfaces.ParseOptions{})

	html, err := r.RenderWithOptions([]byte("line one\nline two"), interfaces.ParseOptions{HardWraps: true})
	if err != nil {
		t.Fatalf("RenderWithOptions: %v", err)
	}
	if !strings.Contains(string(html), "line one<br>") {
		t.Fatalf("expected hard wraps in HTML output, got %q", string(html))
	}
}

func TestFallbackRendererOmitsRawHTML(t *testing.T) {
	html, err := NewFallbackRenderer().Render([]byte("# Title\n\n<script>alert(1)</script>\n"))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(string(html), "<script>") {
		t.Fatalf("expected raw HTML to be dropped in safe mode, got %q", html)
	}
}

func TestSplitFrontMatter(t *testing.T) {
	source := []byte("---\ntitle: Release Plan\ntags: [q3, roadmap]\nowner: ops\n---\n# Goals\n## Ship\n")

	fm, body, err := SplitFrontMatter(source)
	if err != nil {
		t.Fatalf("SplitFrontMatter: %v", err)
	}
	if fm.Title != "Release Plan" {
		t.Fatalf("expected title, got %q", fm.Title)
	}
	if len(fm.Tags) != 2 || fm.Tags[0] != "q3" {
		t.Fatalf("unexpected tags %#v", fm.Tags)
	}
	if fm.Raw["owner"] != "ops" {
		t.Fatalf("expected custom key in raw map, got %#v", fm.Raw)
	}
	if !strings.HasPrefix(strings.TrimSpace(string(body)), "# Goals") {
		t.Fatalf("expected body without front matter, got %q", body)
	}
}

func TestSplitFrontMatterWithoutMetadata(t *testing.T) {
	cases := []string{
		"# Plain\n## Doc\n",
		"---\n# Thematic break then heading\n",
	}
	for _, source := range cases {
		fm, body, err := SplitFrontMatter([]byte(source))
		if err != nil {
			t.Fatalf("SplitFrontMatter(%q): %v", source, err)
		}
		if fm.Title != "" || string(body) != source {
			t.Fatalf("expected source to pass through, got %q / %q", fm.Title, body)
		}
	}
}
