package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	generatecmd "github.com/goliatone/go-markmap/internal/commands/generate"
	"github.com/goliatone/go-markmap/internal/domain"
	"github.com/goliatone/go-markmap/internal/generator"
	"github.com/goliatone/go-markmap/pkg/interfaces"
)

var uploadExtensions = map[string]struct{}{
	".md":       {},
	".markdown": {},
	".txt":      {},
}

type generatePayload struct {
	Markdown string `json:"markdown"`
	Title    string `json:"title,omitempty"`
}

type linkSet struct {
	Interactive string `json:"interactive,omitempty"`
	Preview     string `json:"preview,omitempty"`
	Outline     string `json:"outline,omitempty"`
}

type generateResponse struct {
	Success   bool              `json:"success"`
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	CreatedAt time.Time         `json:"created_at"`
	Links     linkSet           `json:"links"`
	Failures  map[string]string `json:"failures,omitempty"`
	Warnings  map[string]string `json:"warnings,omitempty"`
}

func (api *API) handleConvert(w http.ResponseWriter, r *http.Request) {
	limit := int64(api.maxMarkdownSize)*jsonBodyFactor + bodyAllowance
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	var payload generatePayload
	if err := decodeJSON(r, &payload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, domain.InputTooLarge(int(tooLarge.Limit)+1, api.maxMarkdownSize))
			return
		}
		writeError(w, domain.InvalidInput("request body must be a JSON object with a markdown field"))
		return
	}

	api.generate(w, r, generatecmd.GenerateCommand{
		Markdown: payload.Markdown,
		Title:    payload.Title,
		Source:   generatecmd.SourceAPI,
	})
}

func (api *API) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, api.maxFileSize+bodyAllowance)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, domain.InputTooLarge(int(tooLarge.Limit)+1, int(api.maxFileSize)))
			return
		}
		writeError(w, domain.InvalidInput("request must be multipart/form-data"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, domain.InvalidInput("a file field is required"))
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, ok := uploadExtensions[ext]; !ok {
		writeError(w, domain.InvalidInput("only .md, .markdown and .txt files are accepted"))
		return
	}
	if header.Size > api.maxFileSize {
		writeError(w, domain.InputTooLarge(int(header.Size), int(api.maxFileSize)))
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, api.maxFileSize+1))
	if err != nil {
		writeError(w, domain.InvalidInput("uploaded file could not be read"))
		return
	}
	if int64(len(data)) > api.maxFileSize {
		writeError(w, domain.InputTooLarge(len(data), int(api.maxFileSize)))
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(header.Filename), filepath.Ext(header.Filename))
	}

	api.generate(w, r, generatecmd.GenerateCommand{
		Markdown: string(data),
		Title:    title,
		Source:   generatecmd.SourceUpload,
	})
}

// generate runs msg detached from the request so a client disconnect does
// not abort in-flight writes. The command timeout still bounds the run.
func (api *API) generate(w http.ResponseWriter, r *http.Request, msg generatecmd.GenerateCommand) {
	ctx := context.WithoutCancel(r.Context())
	result, err := api.generator.Generate(ctx, msg)
	if err != nil {
		if domain.Code(err) == domain.CodeInternal {
			api.logger.WithContext(r.Context()).Error("http.generate.failed", "error", err)
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.generateResponse(result))
}

func (api *API) generateResponse(result *generator.Result) generateResponse {
	set := result.Set
	resp := generateResponse{
		Success:   true,
		ID:        set.ID,
		Title:     set.Title,
		CreatedAt: set.CreatedAt,
	}
	for _, kind := range result.Succeeded() {
		link := api.link(set.ID, kind)
		switch kind {
		case interfaces.ArtifactInteractive:
			resp.Links.Interactive = link
		case interfaces.ArtifactPreview:
			resp.Links.Preview = link
		case interfaces.ArtifactOutline:
			resp.Links.Outline = link
		}
	}
	if len(result.Failures) > 0 {
		resp.Failures = make(map[string]string, len(result.Failures))
		for kind, err := range result.Failures {
			resp.Failures[string(kind)] = domain.Code(err)
		}
	}
	if len(result.Warnings) > 0 {
		resp.Warnings = make(map[string]string, len(result.Warnings))
		for kind, err := range result.Warnings {
			resp.Warnings[string(kind)] = domain.Code(err)
		}
	}
	return resp
}
