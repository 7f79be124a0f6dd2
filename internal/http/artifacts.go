package http

import (
	"context"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/goliatone/go-markmap/internal/domain"
	"github.com/goliatone/go-markmap/internal/storage"
	"github.com/goliatone/go-markmap/pkg/interfaces"
	"github.com/goliatone/go-slug"
)

const artifactCacheControl = "public, max-age=300"

type manifestResponse struct {
	Success   bool            `json:"success"`
	ID        string          `json:"id"`
	Title     string          `json:"title,omitempty"`
	CreatedAt *time.Time      `json:"created_at,omitempty"`
	Formats   map[string]bool `json:"formats"`
	Links     linkSet         `json:"links"`
}

func (api *API) handleArtifact(w http.ResponseWriter, r *http.Request) {
	file := r.PathValue("file")
	ext := path.Ext(file)
	id := strings.TrimSuffix(file, ext)
	if err := storage.ValidateID(id); err != nil {
		writeError(w, err)
		return
	}
	if ext == "" {
		api.serveManifest(w, r, id)
		return
	}

	kind, ok := interfaces.ArtifactKindFromExtension(ext)
	if !ok {
		writeError(w, domain.NotFound("artifact format"))
		return
	}

	etag, data, err := storage.ChecksumOf(r.Context(), api.store, id, kind)
	if err != nil {
		writeError(w, err)
		return
	}
	etag = `"` + etag + `"`

	header := w.Header()
	header.Set("ETag", etag)
	header.Set("Cache-Control", artifactCacheControl)
	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	header.Set("Content-Type", kind.ContentType())
	header.Set("X-Content-Type-Options", "nosniff")
	if parseBoolQuery(r.URL.Query().Get("download"), false) {
		name := api.downloadName(r.Context(), id) + "." + kind.Extension()
		header.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	}
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(data)
	}
}

func etagMatches(header, etag string) bool {
	header = strings.TrimSpace(header)
	if header == "" {
		return false
	}
	if header == "*" {
		return true
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == etag {
			return true
		}
	}
	return false
}

// downloadName slugifies the manifest title, falling back to the id.
func (api *API) downloadName(ctx context.Context, id string) string {
	if api.index == nil {
		return id
	}
	set, err := api.index.Lookup(ctx, id)
	if err != nil || set == nil {
		return id
	}
	name, err := slug.Normalize(set.Title)
	if err != nil || strings.Trim(name, "-_") == "" {
		return id
	}
	return name
}

// serveManifest answers from the index when it knows the id, otherwise from
// the formats present in the store.
func (api *API) serveManifest(w http.ResponseWriter, r *http.Request, id string) {
	resp := manifestResponse{Success: true, ID: id, Formats: map[string]bool{}}

	var set *interfaces.ArtifactSet
	if api.index != nil {
		found, err := api.index.Lookup(r.Context(), id)
		switch {
		case err == nil:
			set = found
		case domain.Code(err) != domain.CodeNotFound:
			api.logger.WithContext(r.Context()).Warn("http.manifest.lookup_failed", "artifact_id", id, "error", err)
		}
	}

	stored := false
	for _, kind := range interfaces.ArtifactKinds() {
		present := api.store.Exists(r.Context(), id, kind)
		if set != nil {
			present = present && set.Has(kind)
		}
		resp.Formats[string(kind)] = present
		if !present {
			continue
		}
		stored = true
		link := api.link(id, kind)
		switch kind {
		case interfaces.ArtifactInteractive:
			resp.Links.Interactive = link
		case interfaces.ArtifactPreview:
			resp.Links.Preview = link
		case interfaces.ArtifactOutline:
			resp.Links.Outline = link
		}
	}
	if !stored {
		writeError(w, domain.NotFound("artifact"))
		return
	}
	if set != nil {
		resp.Title = set.Title
		created := set.CreatedAt
		resp.CreatedAt = &created
	}
	writeJSON(w, http.StatusOK, resp)
}
