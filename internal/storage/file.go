package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-markmap/internal/domain"
	"github.com/goliatone/go-markmap/internal/logging"
	"github.com/goliatone/go-markmap/pkg/interfaces"
)

const tempPrefix = ".tmp-"

// FileStore keeps each artifact in "<dir>/<id>.<ext>". Writes go to a temp
// file in the same directory and are renamed into place, so readers never
// observe partial content.
type FileStore struct {
	dir    string
	perm   fs.FileMode
	logger interfaces.Logger
}

var _ interfaces.ArtifactStore = (*FileStore)(nil)

// FileOption customises a FileStore.
type FileOption func(*FileStore)

// WithFileLogger sets the logger used for diagnostics.
func WithFileLogger(logger interfaces.Logger) FileOption {
	return func(s *FileStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFileMode overrides the permission bits of written artifacts.
func WithFileMode(perm fs.FileMode) FileOption {
	return func(s *FileStore) {
		if perm != 0 {
			s.perm = perm
		}
	}
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string, opts ...FileOption) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("storage: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", dir, err)
	}
	store := &FileStore{
		dir:    filepath.Clean(dir),
		perm:   0o644,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store, nil
}

// Dir returns the root directory.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(id string, kind interfaces.ArtifactKind) string {
	return filepath.Join(s.dir, fileName(id, kind))
}

func (s *FileStore) Put(ctx context.Context, id string, kind interfaces.ArtifactKind, data []byte) error {
	if err := validateKey(id, kind); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, tempPrefix+id+"-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Chmod(s.perm); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, s.path(id, kind)); err != nil {
		cleanup()
		return err
	}

	s.logger.Debug("storage.put", "artifact_id", id, "artifact_kind", string(kind), "bytes", len(data))
	return nil
}

func (s *FileStore) Get(ctx context.Context, id string, kind interfaces.ArtifactKind) ([]byte, error) {
	if err := validateKey(id, kind); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(id, kind))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.NotFound("artifact")
	}
	return data, err
}

func (s *FileStore) Exists(ctx context.Context, id string, kind interfaces.ArtifactKind) bool {
	if validateKey(id, kind) != nil {
		return false
	}
	info, err := os.Stat(s.path(id, kind))
	return err == nil && info.Mode().IsRegular()
}

func (s *FileStore) Stat(ctx context.Context, id string, kind interfaces.ArtifactKind) (interfaces.ObjectInfo, error) {
	if err := validateKey(id, kind); err != nil {
		return interfaces.ObjectInfo{}, err
	}
	info, err := os.Stat(s.path(id, kind))
	if errors.Is(err, fs.ErrNotExist) {
		return interfaces.ObjectInfo{}, domain.NotFound("artifact")
	}
	if err != nil {
		return interfaces.ObjectInfo{}, err
	}
	return interfaces.ObjectInfo{ID: id, Kind: kind, Size: info.Size(), Modified: info.ModTime()}, nil
}

// Delete removes the artifact. Deleting an absent artifact is not an error.
func (s *FileStore) Delete(ctx context.Context, id string, kind interfaces.ArtifactKind) error {
	if err := validateKey(id, kind); err != nil {
		return err
	}
	err := os.Remove(s.path(id, kind))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// List reports every artifact file in the directory sorted by id then kind.
// Temp files and unrelated names are skipped.
func (s *FileStore) List(ctx context.Context) ([]interfaces.ObjectInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	out := make([]interfaces.ObjectInfo, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, tempPrefix) {
			continue
		}
		id, kind, ok := parseFileName(name)
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		out = append(out, interfaces.ObjectInfo{ID: id, Kind: kind, Size: info.Size(), Modified: info.ModTime()})
	}

	sortObjects(out)
	return out, nil
}

func sortObjects(objects []interfaces.ObjectInfo) {
	sort.Slice(objects, func(i, j int) bool {
		if objects[i].ID != objects[j].ID {
			return objects[i].ID < objects[j].ID
		}
		return objects[i].Kind < objects[j].Kind
	})
}
