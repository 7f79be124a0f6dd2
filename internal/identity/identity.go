// Package identity derives artifact ids and stable credential fingerprints.
package identity

import (
	"strconv"
	"strings"
	"time"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// ArtifactPrefix starts every generated artifact id.
const ArtifactPrefix = "markmap"

// IDFunc produces a new artifact id.
type IDFunc func() string

// NewArtifactID returns "markmap-<unix ms>-<8 hex>" for now. The suffix is
// taken from a random UUID so ids created within the same millisecond differ.
func NewArtifactID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return ArtifactPrefix + "-" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + suffix
}

// ArtifactIDs returns an IDFunc bound to clock.
func ArtifactIDs(clock func() time.Time) IDFunc {
	if clock == nil {
		clock = time.Now
	}
	return func() string {
		return NewArtifactID(clock())
	}
}

// UUID derives a deterministic UUID from a stable key using go-hashid.
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// Fingerprint returns a short, stable token identifying credential in logs
// without revealing it.
func Fingerprint(credential string) string {
	if strings.TrimSpace(credential) == "" {
		return "anonymous"
	}
	id := UUID("go-markmap:credential:" + credential)
	return "key_" + strings.ReplaceAll(id.String(), "-", "")[:12]
}
