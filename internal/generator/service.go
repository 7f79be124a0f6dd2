// Package generator turns a Markdown document into the interactive, preview
// and outline artifacts and writes them through an ArtifactStore.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/goliatone/go-markmap/internal/domain"
	"github.com/goliatone/go-markmap/internal/identity"
	"github.com/goliatone/go-markmap/internal/logging"
	"github.com/goliatone/go-markmap/internal/markdown"
	"github.com/goliatone/go-markmap/internal/outline"
	"github.com/goliatone/go-markmap/pkg/interfaces"
)

const (
	// DefaultRenderTimeout bounds a single external transformer call.
	DefaultRenderTimeout = 5 * time.Second
	// DefaultTitle labels documents without a usable title.
	DefaultTitle = "Mindmap"

	maxDisplayTitle = domain.MaxTitleLength
)

var (
	// ErrServiceDisabled indicates the generator feature is disabled.
	ErrServiceDisabled  = errors.New("generator: service disabled")
	errStoreRequired    = errors.New("generator: artifact store is required")
	errInvalidTransform = errors.New("generator: transformer returned an empty or malformed tree")
)

// Service describes the artifact generator contract.
type Service interface {
	// Generate parses the request once, renders every format concurrently and
	// stores each result under a fresh id.
	Generate(ctx context.Context, req domain.GenerationRequest) (*Result, error)
	// Render produces a single format without storing it.
	Render(ctx context.Context, req domain.GenerationRequest, kind interfaces.ArtifactKind) ([]byte, error)
}

// Config captures generator limits and viewer settings.
type Config struct {
	MaxMarkdownSize int
	MaxNodes        int
	RenderTimeout   time.Duration
	Assets          Assets
}

// Dependencies lists the collaborators used by the generator.
type Dependencies struct {
	Store interfaces.ArtifactStore
	// Index records manifests for successful runs. Optional.
	Index interfaces.ManifestIndex
	// Transformer pre-computes the viewer tree server side. Optional.
	Transformer interfaces.Transformer
	// Fallback renders the noscript body. Optional.
	Fallback interfaces.MarkdownRenderer
	// OnGenerated is called after a run that stored at least one format.
	OnGenerated func(interfaces.ArtifactSet)
	Logger      interfaces.Logger
	IDs         identity.IDFunc
	Clock       func() time.Time
}

// Result reports one generation run. Failures holds the error of every
// format that could not be produced; Warnings holds recoverable problems of
// formats that were still stored.
type Result struct {
	Set      interfaces.ArtifactSet
	Failures map[interfaces.ArtifactKind]error
	Warnings map[interfaces.ArtifactKind]error
}

// Succeeded lists the stored formats in generation order.
func (r *Result) Succeeded() []interfaces.ArtifactKind {
	var out []interfaces.ArtifactKind
	for _, kind := range interfaces.ArtifactKinds() {
		if r.Set.Has(kind) {
			out = append(out, kind)
		}
	}
	return out
}

// NewService wires a generator with cfg and deps.
func NewService(cfg Config, deps Dependencies) Service {
	if cfg.MaxMarkdownSize <= 0 {
		cfg.MaxMarkdownSize = domain.DefaultMaxMarkdownSize
	}
	if cfg.MaxNodes <= 0 {
		cfg.MaxNodes = outline.DefaultMaxNodes
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = DefaultRenderTimeout
	}
	cfg.Assets = cfg.Assets.withDefaults()

	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.IDs == nil {
		deps.IDs = identity.ArtifactIDs(deps.Clock)
	}
	if deps.Fallback == nil {
		deps.Fallback = markdown.NewFallbackRenderer()
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NoOp()
	}

	s := &service{cfg: cfg, deps: deps, logger: logger}
	s.builders = map[interfaces.ArtifactKind]builder{
		interfaces.ArtifactInteractive: s.buildInteractive,
		interfaces.ArtifactPreview:     s.buildPreview,
		interfaces.ArtifactOutline:     s.buildOutline,
	}
	return s
}

// NewDisabledService returns a Service that fails all operations with ErrServiceDisabled.
func NewDisabledService() Service {
	return disabledService{}
}

type service struct {
	cfg      Config
	deps     Dependencies
	logger   interfaces.Logger
	builders map[interfaces.ArtifactKind]builder
}

// built is the output of one format builder.
type built struct {
	data    []byte
	warning error
}

type builder func(ctx context.Context, doc document) (built, error)

// document is the parsed input shared read-only by all builders.
type document struct {
	title string
	body  string
	tree  *outline.Node
}

func (s *service) prepare(req domain.GenerationRequest) (document, error) {
	if err := req.Check(s.cfg.MaxMarkdownSize); err != nil {
		return document{}, err
	}

	body := req.Markdown
	meta, stripped, err := markdown.SplitFrontMatter([]byte(req.Markdown))
	if err != nil {
		s.logger.Debug("generator.frontmatter.ignored", "error", err)
	} else {
		body = string(stripped)
	}

	tree := outline.Parse(body, outline.WithMaxNodes(s.cfg.MaxNodes))
	return document{
		title: displayTitle(req.Title, meta.Title, tree.FirstTitle()),
		body:  body,
		tree:  tree,
	}, nil
}

// displayTitle picks the first non-blank candidate, else DefaultTitle.
func displayTitle(candidates ...string) string {
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if utf8.RuneCountInString(candidate) > maxDisplayTitle {
			candidate = string([]rune(candidate)[:maxDisplayTitle])
		}
		return candidate
	}
	return DefaultTitle
}

func (s *service) Generate(ctx context.Context, req domain.GenerationRequest) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.deps.Store == nil {
		return nil, errStoreRequired
	}
	doc, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	set := interfaces.ArtifactSet{
		ID:        s.deps.IDs(),
		Title:     doc.title,
		CreatedAt: s.deps.Clock().UTC(),
		Formats:   make(map[interfaces.ArtifactKind]bool, len(s.builders)),
	}
	result := &Result{
		Failures: map[interfaces.ArtifactKind]error{},
		Warnings: map[interfaces.ArtifactKind]error{},
	}
	logger := logging.WithFields(s.logger, map[string]any{"artifact_id": set.ID})
	started := time.Now()

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, kind := range interfaces.ArtifactKinds() {
		wg.Add(1)
		go func(kind interfaces.ArtifactKind) {
			defer wg.Done()
			out, err := s.produce(ctx, set.ID, kind, doc)

			mu.Lock()
			defer mu.Unlock()
			set.Formats[kind] = err == nil
			if err != nil {
				result.Failures[kind] = err
				logger.Error("generator.format.failed", "artifact_kind", string(kind), "error", err)
				return
			}
			if out.warning != nil {
				result.Warnings[kind] = out.warning
				logger.Warn("generator.format.degraded", "artifact_kind", string(kind), "error", out.warning)
			}
		}(kind)
	}
	wg.Wait()

	result.Set = set
	if len(result.Failures) == len(s.builders) {
		causes := make([]error, 0, len(result.Failures))
		for _, kind := range interfaces.ArtifactKinds() {
			causes = append(causes, result.Failures[kind])
		}
		return nil, domain.StorageWriteFailed("any", errors.Join(causes...))
	}

	if s.deps.Index != nil {
		if err := s.deps.Index.Record(ctx, set); err != nil {
			logger.Warn("generator.index.record_failed", "error", err)
		}
	}
	if s.deps.OnGenerated != nil {
		s.deps.OnGenerated(set)
	}

	logger.Info("generator.generate.done",
		"formats", len(result.Succeeded()),
		"failures", len(result.Failures),
		"nodes", doc.tree.Count(),
		"elapsed", time.Since(started),
	)
	return result, nil
}

// produce renders and stores one format. Builder and store errors both
// surface as StorageWriteFailed for the format.
func (s *service) produce(ctx context.Context, id string, kind interfaces.ArtifactKind, doc document) (built, error) {
	out, err := s.builders[kind](ctx, doc)
	if err != nil {
		return out, domain.StorageWriteFailed(string(kind), err)
	}
	if err := s.deps.Store.Put(ctx, id, kind, out.data); err != nil {
		return out, domain.StorageWriteFailed(string(kind), err)
	}
	return out, nil
}

func (s *service) Render(ctx context.Context, req domain.GenerationRequest, kind interfaces.ArtifactKind) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	build, ok := s.builders[kind]
	if !ok {
		return nil, domain.InvalidInput(fmt.Sprintf("unknown artifact kind %q", kind))
	}
	doc, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	out, err := build(ctx, doc)
	if err != nil {
		return nil, err
	}
	if out.warning != nil {
		s.logger.Warn("generator.render.degraded", "artifact_kind", string(kind), "error", out.warning)
	}
	return out.data, nil
}

type disabledService struct{}

func (disabledService) Generate(context.Context, domain.GenerationRequest) (*Result, error) {
	return nil, ErrServiceDisabled
}

func (disabledService) Render(context.Context, domain.GenerationRequest, interfaces.ArtifactKind) ([]byte, error) {
	return nil, ErrServiceDisabled
}
