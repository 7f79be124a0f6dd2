package storage

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-markmap/internal/domain"
	"github.com/goliatone/go-markmap/pkg/interfaces"
)

// MemoryStore is an in-process ArtifactStore for tests and ephemeral runs.
type MemoryStore struct {
	mu      sync.RWMutex
	now     func() time.Time
	objects map[memoryKey]memoryObject
	failPut map[interfaces.ArtifactKind]error
}

var _ interfaces.ArtifactStore = (*MemoryStore)(nil)

type memoryKey struct {
	id   string
	kind interfaces.ArtifactKind
}

type memoryObject struct {
	data     []byte
	modified time.Time
}

// MemoryOption customises a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the clock used to stamp writes.
func WithClock(clock func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithPutFailure makes every Put of kind return err. Used to exercise
// partial generation failures.
func WithPutFailure(kind interfaces.ArtifactKind, err error) MemoryOption {
	return func(s *MemoryStore) {
		s.failPut[kind] = err
	}
}

// NewMemoryStore returns an empty store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	store := &MemoryStore{
		now:     time.Now,
		objects: make(map[memoryKey]memoryObject),
		failPut: make(map[interfaces.ArtifactKind]error),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store
}

func (s *MemoryStore) Put(ctx context.Context, id string, kind interfaces.ArtifactKind, data []byte) error {
	if err := validateKey(id, kind); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failPut[kind]; err != nil {
		return err
	}
	s.objects[memoryKey{id, kind}] = memoryObject{
		data:     append([]byte(nil), data...),
		modified: s.now(),
	}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string, kind interfaces.ArtifactKind) ([]byte, error) {
	if err := validateKey(id, kind); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[memoryKey{id, kind}]
	if !ok {
		return nil, domain.NotFound("artifact")
	}
	return append([]byte(nil), obj.data...), nil
}

func (s *MemoryStore) Exists(ctx context.Context, id string, kind interfaces.ArtifactKind) bool {
	if validateKey(id, kind) != nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[memoryKey{id, kind}]
	return ok
}

func (s *MemoryStore) Stat(ctx context.Context, id string, kind interfaces.ArtifactKind) (interfaces.ObjectInfo, error) {
	if err := validateKey(id, kind); err != nil {
		return interfaces.ObjectInfo{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[memoryKey{id, kind}]
	if !ok {
		return interfaces.ObjectInfo{}, domain.NotFound("artifact")
	}
	return interfaces.ObjectInfo{ID: id, Kind: kind, Size: int64(len(obj.data)), Modified: obj.modified}, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string, kind interfaces.ArtifactKind) error {
	if err := validateKey(id, kind); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, memoryKey{id, kind})
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]interfaces.ObjectInfo, error) {
	s.mu.RLock()
	out := make([]interfaces.ObjectInfo, 0, len(s.objects))
	for key, obj := range s.objects {
		out = append(out, interfaces.ObjectInfo{ID: key.id, Kind: key.kind, Size: int64(len(obj.data)), Modified: obj.modified})
	}
	s.mu.RUnlock()

	sortObjects(out)
	return out, nil
}

// Touch overrides the modification time of a stored artifact.
func (s *MemoryStore) Touch(id string, kind interfaces.ArtifactKind, modified time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memoryKey{id, kind}
	obj, ok := s.objects[key]
	if !ok {
		return false
	}
	obj.modified = modified
	s.objects[key] = obj
	return true
}
