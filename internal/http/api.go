package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	generatecmd "github.com/goliatone/go-markmap/internal/commands/generate"
	"github.com/goliatone/go-markmap/internal/gate"
	"github.com/goliatone/go-markmap/internal/generator"
	"github.com/goliatone/go-markmap/internal/logging"
	"github.com/goliatone/go-markmap/pkg/interfaces"
	"github.com/klauspost/compress/gzhttp"
)

const (
	defaultMaxMarkdownSize = 500_000
	defaultMaxFileSize     = 1 << 20
	// JSON escaping can grow a document up to six times; the generator
	// enforces the exact markdown limit after decoding.
	jsonBodyFactor   = 6
	bodyAllowance    = 64 << 10
	multipartMemory  = 1 << 20
	defaultVersion   = "dev"
	defaultEnv       = "local"
	credentialHeader = "X-API-Key"
	credentialQuery  = "apiKey"
	requestIDHeader  = "X-Request-ID"
)

// Generator runs one generation request.
type Generator interface {
	Generate(ctx context.Context, msg generatecmd.GenerateCommand) (*generator.Result, error)
}

// API registers the markmap endpoints.
type API struct {
	generator       Generator
	store           interfaces.ArtifactStore
	index           interfaces.ManifestIndex
	gate            *gate.Gate
	logger          interfaces.Logger
	maxMarkdownSize int
	maxFileSize     int64
	version         string
	environment     string
	baseURL         string
	compression     bool
	now             func() time.Time

	docsOnce sync.Once
	docs     map[string]any
}

// Option mutates the API configuration.
type Option func(*API)

// NewAPI constructs an API instance.
func NewAPI(opts ...Option) *API {
	api := &API{
		logger:          logging.NoOp(),
		maxMarkdownSize: defaultMaxMarkdownSize,
		maxFileSize:     defaultMaxFileSize,
		version:         defaultVersion,
		environment:     defaultEnv,
		now:             time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(api)
		}
	}
	return api
}

// WithGenerator wires the generation command handler.
func WithGenerator(g Generator) Option {
	return func(api *API) {
		api.generator = g
	}
}

// WithStore wires the artifact store read by /artifact.
func WithStore(store interfaces.ArtifactStore) Option {
	return func(api *API) {
		api.store = store
	}
}

// WithIndex wires the manifest index. Optional.
func WithIndex(index interfaces.ManifestIndex) Option {
	return func(api *API) {
		api.index = index
	}
}

// WithGate wires the access gate. Without one every request is admitted.
func WithGate(g *gate.Gate) Option {
	return func(api *API) {
		api.gate = g
	}
}

// WithLogger sets the logger used for access logs and failures.
func WithLogger(logger interfaces.Logger) Option {
	return func(api *API) {
		if logger != nil {
			api.logger = logger
		}
	}
}

// WithLimits sets the markdown and upload size limits in bytes.
func WithLimits(maxMarkdownSize int, maxFileSize int64) Option {
	return func(api *API) {
		if maxMarkdownSize > 0 {
			api.maxMarkdownSize = maxMarkdownSize
		}
		if maxFileSize > 0 {
			api.maxFileSize = maxFileSize
		}
	}
}

// WithVersion sets the version and environment reported by /health.
func WithVersion(version, environment string) Option {
	return func(api *API) {
		if trimmed := strings.TrimSpace(version); trimmed != "" {
			api.version = trimmed
		}
		if trimmed := strings.TrimSpace(environment); trimmed != "" {
			api.environment = trimmed
		}
	}
}

// WithBaseURL makes artifact links absolute.
func WithBaseURL(base string) Option {
	return func(api *API) {
		api.baseURL = strings.TrimRight(strings.TrimSpace(base), "/")
	}
}

// WithCompression toggles gzip responses.
func WithCompression(enabled bool) Option {
	return func(api *API) {
		api.compression = enabled
	}
}

// WithClock overrides the clock used by /health.
func WithClock(clock func() time.Time) Option {
	return func(api *API) {
		if clock != nil {
			api.now = clock
		}
	}
}

// Register attaches the endpoints to mux. Middleware is not applied; use
// Handler for the full stack.
func (api *API) Register(mux *http.ServeMux) error {
	if mux == nil {
		return fmt.Errorf("http: mux is required")
	}
	if api == nil {
		return fmt.Errorf("http: api is nil")
	}
	if api.generator == nil {
		return fmt.Errorf("http: generator is required")
	}
	if api.store == nil {
		return fmt.Errorf("http: artifact store is required")
	}

	mux.HandleFunc("POST /convert", api.handleConvert)
	mux.HandleFunc("POST /generate", api.handleConvert)
	mux.HandleFunc("POST /upload", api.handleUpload)
	mux.HandleFunc("GET /artifact/{file}", api.handleArtifact)
	mux.HandleFunc("GET /health", api.handleHealth)
	mux.HandleFunc("GET /docs", api.handleDocs)
	mux.HandleFunc("GET /schema/outline.json", api.handleOutlineSchema)
	mux.HandleFunc("GET /{$}", api.handleIndex)
	return nil
}

// Handler returns the endpoints wrapped in the access log, compression,
// artifact path guard and gate middleware.
func (api *API) Handler() (http.Handler, error) {
	mux := http.NewServeMux()
	if err := api.Register(mux); err != nil {
		return nil, err
	}

	var handler http.Handler = mux
	handler = api.admit(handler)
	handler = guardArtifactPath(handler)
	if api.compression {
		handler = gzhttp.GzipHandler(handler)
	}
	handler = api.accessLog(handler)
	return handler, nil
}

func (api *API) link(id string, kind interfaces.ArtifactKind) string {
	return api.baseURL + "/artifact/" + id + "." + kind.Extension()
}
