package generator

import "strings"

// DefaultAssetBaseURL is the CDN the viewer scripts are loaded from.
const DefaultAssetBaseURL = "https://cdn.jsdelivr.net/npm"

// Assets lists the client-side scripts referenced by interactive artifacts.
type Assets struct {
	D3          string
	MarkmapLib  string
	MarkmapView string
}

// DefaultAssets returns the pinned viewer scripts under base. An empty base
// selects DefaultAssetBaseURL.
func DefaultAssets(base string) Assets {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		base = DefaultAssetBaseURL
	}
	return Assets{
		D3:          base + "/d3@6.7.0",
		MarkmapLib:  base + "/markmap-lib@0.14.0/dist/browser/index.min.js",
		MarkmapView: base + "/markmap-view@0.14.0/dist/browser/index.min.js",
	}
}

func (a Assets) withDefaults() Assets {
	def := DefaultAssets("")
	if strings.TrimSpace(a.D3) == "" {
		a.D3 = def.D3
	}
	if strings.TrimSpace(a.MarkmapLib) == "" {
		a.MarkmapLib = def.MarkmapLib
	}
	if strings.TrimSpace(a.MarkmapView) == "" {
		a.MarkmapView = def.MarkmapView
	}
	return a
}
