// Package storage persists generated artifacts keyed by (id, kind).
package storage

import (
	"context"
	"encoding/hex"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/goliatone/go-markmap/internal/domain"
	"github.com/goliatone/go-markmap/pkg/interfaces"
)

// checksumKey separates artifact digests from any other BLAKE3 use.
var checksumKey = func() [32]byte {
	var key [32]byte
	copy(key[:], "markmap.artifact.checksum.v1")
	return key
}()

// ValidateID rejects ids that are empty or could address anything outside
// the store namespace. It runs before any backend call.
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.InvalidID(id)
	}
	if strings.Contains(id, "..") || strings.ContainsAny(id, "/\\\x00") {
		return domain.InvalidID(id)
	}
	return nil
}

func validateKey(id string, kind interfaces.ArtifactKind) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if !kind.Valid() {
		return domain.InvalidInput("unknown artifact kind " + string(kind))
	}
	return nil
}

// Checksum returns the keyed BLAKE3 digest of data as lowercase hex.
func Checksum(data []byte) string {
	hasher, err := blake3.NewKeyed(checksumKey[:])
	if err != nil {
		panic("storage: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil))
}

// ChecksumOf reads the artifact from store and returns its digest.
func ChecksumOf(ctx context.Context, store interfaces.ArtifactStore, id string, kind interfaces.ArtifactKind) (string, []byte, error) {
	data, err := store.Get(ctx, id, kind)
	if err != nil {
		return "", nil, err
	}
	return Checksum(data), data, nil
}

func fileName(id string, kind interfaces.ArtifactKind) string {
	return id + "." + kind.Extension()
}

// parseFileName splits "<id>.<ext>" back into its key. Names that do not end
// in a known extension are reported as not ok.
func parseFileName(name string) (string, interfaces.ArtifactKind, bool) {
	dot := strings.LastIndexByte(name, '.')
	if dot <= 0 {
		return "", "", false
	}
	kind, ok := interfaces.ArtifactKindFromExtension(name[dot+1:])
	if !ok || name[dot+1:] != kind.Extension() {
		return "", "", false
	}
	id := name[:dot]
	if ValidateID(id) != nil {
		return "", "", false
	}
	return id, kind, true
}
