package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/adrg/frontmatter"

	"github.com/goliatone/go-markmap/pkg/interfaces"
)

type frontMatterEnvelope struct {
	Title   string         `yaml:"title"`
	Summary string         `yaml:"summary"`
	Tags    []string       `yaml:"tags"`
	Custom  map[string]any `yaml:",inline"`
}

// SplitFrontMatter separates a leading metadata block from the Markdown body.
// Documents without front matter are returned unchanged.
func SplitFrontMatter(source []byte) (interfaces.FrontMatter, []byte, error) {
	if !hasFrontMatter(source) {
		return interfaces.FrontMatter{}, source, nil
	}

	var meta frontMatterEnvelope
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return interfaces.FrontMatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}

	raw := make(map[string]any, len(meta.Custom)+3)
	for key, value := range meta.Custom {
		raw[key] = value
	}
	if meta.Title != "" {
		raw["title"] = meta.Title
	}
	if meta.Summary != "" {
		raw["summary"] = meta.Summary
	}
	if len(meta.Tags) > 0 {
		raw["tags"] = append([]string(nil), meta.Tags...)
	}

	return interfaces.FrontMatter{
		Title:   strings.TrimSpace(meta.Title),
		Summary: meta.Summary,
		Tags:    append([]string(nil), meta.Tags...),
		Raw:     raw,
	}, body, nil
}

// hasFrontMatter treats a document as carrying metadata only when it opens
// with a YAML or TOML fence that is closed later, so a leading thematic break
// is left alone.
func hasFrontMatter(source []byte) bool {
	for _, fence := range []string{"---", "+++"} {
		if !bytes.HasPrefix(source, []byte(fence+"\n")) && !bytes.HasPrefix(source, []byte(fence+"\r\n")) {
			continue
		}
		rest := source[len(fence):]
		return bytes.Contains(rest, []byte("\n"+fence+"\n")) ||
			bytes.Contains(rest, []byte("\n"+fence+"\r\n")) ||
			bytes.HasSuffix(bytes.TrimRight(rest, "\r\n"), []byte("\n"+fence))
	}
	return false
}
