package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/goliatone/go-markmap/internal/openapi"
	"github.com/goliatone/go-markmap/internal/validation"
)

type healthResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Time        string `json:"time"`
}

func (api *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		Version:     api.version,
		Environment: api.environment,
		Time:        api.now().UTC().Format(time.RFC3339),
	})
}

func (api *API) handleIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "markmap",
		"version": api.version,
		"docs":    "/docs",
		"endpoints": []string{
			"POST /convert",
			"POST /generate",
			"POST /upload",
			"GET /artifact/{id}.{html|svg|json}",
			"GET /artifact/{id}",
			"GET /health",
			"GET /schema/outline.json",
		},
	})
}

func (api *API) handleOutlineSchema(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/schema+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(validation.OutlineSchema())
}

func (api *API) handleDocs(w http.ResponseWriter, _ *http.Request) {
	api.docsOnce.Do(func() {
		api.docs = buildDocument(api.version).AsMap()
	})
	writeJSON(w, http.StatusOK, api.docs)
}

func buildDocument(version string) *openapi.Document {
	doc := openapi.NewDocument("markmap", version)
	doc.Info.Description = "Convert Markdown heading outlines into interactive mind maps, SVG previews and outline JSON."
	doc.AddAPIKeyScheme("apiKeyHeader", "header", credentialHeader)
	doc.AddAPIKeyScheme("apiKeyQuery", "query", credentialQuery)

	var outline map[string]any
	if err := json.Unmarshal(validation.OutlineSchema(), &outline); err == nil {
		delete(outline, "$schema")
		doc.AddSchema("Outline", outline)
	}

	jsonBody := map[string]any{
		"required": true,
		"content": map[string]any{
			"application/json": map[string]any{
				"schema": map[string]any{
					"type":     "object",
					"required": []string{"markdown"},
					"properties": map[string]any{
						"markdown": map[string]any{"type": "string"},
						"title":    map[string]any{"type": "string", "maxLength": 200},
					},
				},
			},
		},
	}
	generated := map[string]string{
		"200": "Artifacts generated; failures lists formats that could not be stored",
		"400": "Invalid input",
		"401": "Missing or unknown API key",
		"413": "Input too large",
		"429": "Rate limit exceeded",
		"500": "No format could be stored",
	}
	doc.AddOperation("/convert", "post", openapi.Operation{
		Summary: "Generate artifacts from Markdown", Tags: []string{"generate"}, Secured: true,
		RequestBody: jsonBody, Responses: generated,
	})
	doc.AddOperation("/generate", "post", openapi.Operation{
		Summary: "Alias of /convert", Tags: []string{"generate"}, Secured: true,
		RequestBody: jsonBody, Responses: generated,
	})
	doc.AddOperation("/upload", "post", openapi.Operation{
		Summary: "Generate artifacts from an uploaded Markdown file", Tags: []string{"generate"}, Secured: true,
		RequestBody: map[string]any{
			"required": true,
			"content": map[string]any{
				"multipart/form-data": map[string]any{
					"schema": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"file":  map[string]any{"type": "string", "format": "binary"},
							"title": map[string]any{"type": "string"},
						},
					},
				},
			},
		},
		Responses: generated,
	})
	idParam := map[string]any{"name": "id", "in": "path", "required": true, "schema": map[string]any{"type": "string"}}
	doc.AddOperation("/artifact/{id}.{ext}", "get", openapi.Operation{
		Summary: "Download one artifact", Tags: []string{"artifacts"},
		Parameters: []map[string]any{
			idParam,
			{"name": "ext", "in": "path", "required": true, "schema": map[string]any{"type": "string", "enum": []string{"html", "svg", "json"}}},
			{"name": "download", "in": "query", "schema": map[string]any{"type": "boolean"}},
		},
		Responses: map[string]string{"200": "Artifact bytes", "304": "Not modified", "400": "Invalid id", "404": "Not found"},
	})
	doc.AddOperation("/artifact/{id}", "get", openapi.Operation{
		Summary: "Describe an artifact set", Tags: []string{"artifacts"},
		Parameters: []map[string]any{idParam},
		Responses:  map[string]string{"200": "Manifest", "400": "Invalid id", "404": "Not found"},
	})
	doc.AddOperation("/health", "get", openapi.Operation{
		Summary: "Liveness probe", Tags: []string{"meta"},
		Responses: map[string]string{"200": "Service is up"},
	})
	doc.AddOperation("/schema/outline.json", "get", openapi.Operation{
		Summary: "Outline JSON Schema", Tags: []string{"meta"},
		Responses: map[string]string{"200": "JSON Schema document"},
	})
	doc.SetExtension("x-rate-limit-window", "1h")
	return doc
}
