package interfaces

// MarkdownRenderer converts raw Markdown bytes into HTML. The generator only
// uses it for the static fallback embedded in interactive artifacts.
type MarkdownRenderer interface {
	// Render converts Markdown into HTML using the renderer's default settings.
	Render(markdown []byte) ([]byte, error)
	// RenderWithOptions converts Markdown into HTML using the supplied overrides.
	RenderWithOptions(markdown []byte, opts ParseOptions) ([]byte, error)
}

// ParseOptions customises Markdown rendering, keeping option names readable
// for configuration unmarshalling and CLI flags.
type ParseOptions struct {
	Extensions []string
	HardWraps  bool
	SafeMode   bool
}

// FrontMatter models the metadata block that may precede a Markdown document.
type FrontMatter struct {
	Title   string
	Summary string
	Tags    []string
	Raw     map[string]any
}
