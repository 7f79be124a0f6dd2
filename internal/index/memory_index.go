package index

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-markmap/internal/domain"
	"github.com/goliatone/go-markmap/pkg/interfaces"
)

// MemoryIndex stores manifests in-memory.
type MemoryIndex struct {
	mu   sync.RWMutex
	sets map[string]interfaces.ArtifactSet
}

var _ interfaces.ManifestIndex = (*MemoryIndex)(nil)

// NewMemoryIndex constructs an empty index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{sets: make(map[string]interfaces.ArtifactSet)}
}

func (i *MemoryIndex) Record(_ context.Context, set interfaces.ArtifactSet) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.sets[set.ID] = cloneSet(set)
	return nil
}

func (i *MemoryIndex) Lookup(_ context.Context, id string) (*interfaces.ArtifactSet, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	set, ok := i.sets[id]
	if !ok {
		return nil, domain.NotFound("manifest")
	}
	copied := cloneSet(set)
	return &copied, nil
}

func (i *MemoryIndex) Forget(_ context.Context, ids ...string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, id := range ids {
		delete(i.sets, id)
	}
	return nil
}

// CreatedBefore lists manifests created before cutoff, oldest first.
func (i *MemoryIndex) CreatedBefore(_ context.Context, cutoff time.Time, limit int) ([]interfaces.ArtifactSet, error) {
	i.mu.RLock()
	out := make([]interfaces.ArtifactSet, 0)
	for _, set := range i.sets {
		if set.CreatedAt.Before(cutoff) {
			out = append(out, cloneSet(set))
		}
	}
	i.mu.RUnlock()

	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.Before(out[b].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cloneSet(set interfaces.ArtifactSet) interfaces.ArtifactSet {
	formats := make(map[interfaces.ArtifactKind]bool, len(set.Formats))
	for kind, ok := range set.Formats {
		formats[kind] = ok
	}
	set.Formats = formats
	return set
}
