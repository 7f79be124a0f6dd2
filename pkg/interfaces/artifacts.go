package interfaces

import (
	"context"
	"time"
)

// ArtifactKind names one generated output format.
type ArtifactKind string

const (
	// ArtifactInteractive is the self-contained viewer document.
	ArtifactInteractive ArtifactKind = "interactive"
	// ArtifactPreview is the static vector summary of the root and its children.
	ArtifactPreview ArtifactKind = "preview"
	// ArtifactOutline is the serialized heading tree.
	ArtifactOutline ArtifactKind = "outline"
)

// ArtifactKinds lists every supported format in generation order.
func ArtifactKinds() []ArtifactKind {
	return []ArtifactKind{ArtifactInteractive, ArtifactPreview, ArtifactOutline}
}

// Extension returns the file extension (without dot) used to address the kind.
func (k ArtifactKind) Extension() string {
	switch k {
	case ArtifactInteractive:
		return "html"
	case ArtifactPreview:
		return "svg"
	case ArtifactOutline:
		return "json"
	default:
		return ""
	}
}

// ContentType returns the MIME type served for the kind.
func (k ArtifactKind) ContentType() string {
	switch k {
	case ArtifactInteractive:
		return "text/html; charset=utf-8"
	case ArtifactPreview:
		return "image/svg+xml"
	case ArtifactOutline:
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

// Valid reports whether the kind is one of the known formats.
func (k ArtifactKind) Valid() bool {
	return k.Extension() != ""
}

// ArtifactKindFromExtension resolves a kind from a file extension. The
// extension may carry a leading dot and a kind name is accepted too, so
// "outline" and ".json" both resolve to ArtifactOutline.
func ArtifactKindFromExtension(ext string) (ArtifactKind, bool) {
	if len(ext) > 0 && ext[0] == '.' {
		ext = ext[1:]
	}
	for _, kind := range ArtifactKinds() {
		if ext == kind.Extension() || ext == string(kind) {
			return kind, true
		}
	}
	return "", false
}

// ObjectInfo describes one stored artifact as seen by maintenance tasks.
type ObjectInfo struct {
	ID       string
	Kind     ArtifactKind
	Size     int64
	Modified time.Time
}

// ArtifactStore persists artifact bytes keyed by (id, kind). Implementations
// must reject unsafe ids before touching their backing medium and must not
// interpret the stored bytes.
type ArtifactStore interface {
	Put(ctx context.Context, id string, kind ArtifactKind, data []byte) error
	Get(ctx context.Context, id string, kind ArtifactKind) ([]byte, error)
	Exists(ctx context.Context, id string, kind ArtifactKind) bool
	Stat(ctx context.Context, id string, kind ArtifactKind) (ObjectInfo, error)
	Delete(ctx context.Context, id string, kind ArtifactKind) error
	List(ctx context.Context) ([]ObjectInfo, error)
}

// ArtifactSet summarises one generation run.
type ArtifactSet struct {
	ID        string                `json:"id"`
	Title     string                `json:"title"`
	CreatedAt time.Time             `json:"created_at"`
	Formats   map[ArtifactKind]bool `json:"formats"`
}

// Has reports whether the kind was produced successfully.
func (s ArtifactSet) Has(kind ArtifactKind) bool {
	return s.Formats != nil && s.Formats[kind]
}

// ManifestIndex records ArtifactSet metadata so artifacts can be described
// without scanning the store.
type ManifestIndex interface {
	Record(ctx context.Context, set ArtifactSet) error
	Lookup(ctx context.Context, id string) (*ArtifactSet, error)
	Forget(ctx context.Context, ids ...string) error
}
