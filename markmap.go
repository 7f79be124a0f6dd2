// Package markmap turns Markdown heading outlines into interactive HTML mind
// maps, SVG previews and outline JSON documents, and serves them over HTTP.
package markmap

import (
	"context"
	"net/http"

	generatecmd "github.com/goliatone/go-markmap/internal/commands/generate"
	sweepcmd "github.com/goliatone/go-markmap/internal/commands/sweep"
	"github.com/goliatone/go-markmap/internal/di"
	"github.com/goliatone/go-markmap/internal/domain"
	"github.com/goliatone/go-markmap/internal/generator"
	"github.com/goliatone/go-markmap/internal/outline"
	"github.com/goliatone/go-markmap/internal/sweeper"
	"github.com/goliatone/go-markmap/pkg/interfaces"
)

// GeneratorService exports the artifact generator contract.
type GeneratorService = generator.Service

// GenerateResult reports one generation run.
type GenerateResult = generator.Result

// SweepReport summarises one eviction pass.
type SweepReport = sweeper.Report

// OutlineNode is one heading of a parsed outline.
type OutlineNode = outline.Node

// ArtifactSet exports the manifest of one generation run.
type ArtifactSet = interfaces.ArtifactSet

// Option overrides container wiring.
type Option = di.Option

var (
	WithLoggerProvider = di.WithLoggerProvider
	WithStore          = di.WithStore
	WithIndex          = di.WithIndex
	WithTransformer    = di.WithTransformer
	WithClock          = di.WithClock
	WithVersion        = di.WithVersion
)

// Module represents the top level markmap runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a module using cfg and optional DI overrides.
func New(cfg Config, opts ...Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Handler returns the HTTP handler serving every endpoint.
func (m *Module) Handler() (http.Handler, error) {
	return m.container.Handler()
}

// Start launches the background sweeper and the rate limit prune loop.
func (m *Module) Start(ctx context.Context) {
	m.container.Start(ctx)
}

// Close stops background work and releases the manifest index.
func (m *Module) Close() error {
	return m.container.Close()
}

// Generate renders and stores every artifact format for markdown.
func (m *Module) Generate(ctx context.Context, markdown, title string) (*GenerateResult, error) {
	return m.container.GenerateCommand().Generate(ctx, generatecmd.GenerateCommand{
		Markdown: markdown,
		Title:    title,
		Source:   generatecmd.SourceCLI,
	})
}

// Render produces one format without storing it.
func (m *Module) Render(ctx context.Context, markdown, title string, kind interfaces.ArtifactKind) ([]byte, error) {
	return m.container.GeneratorService().Render(ctx, domain.GenerationRequest{Markdown: markdown, Title: title}, kind)
}

// Sweep runs one eviction pass now.
func (m *Module) Sweep(ctx context.Context) (SweepReport, error) {
	return m.container.SweepCommand().Sweep(ctx, sweepcmd.SweepCommand{})
}

// Artifact reads a stored artifact.
func (m *Module) Artifact(ctx context.Context, id string, kind interfaces.ArtifactKind) ([]byte, error) {
	return m.container.Store().Get(ctx, id, kind)
}

// Generator returns the generator service.
func (m *Module) Generator() GeneratorService {
	return m.container.GeneratorService()
}

// ParseOutline builds the heading tree of markdown using the configured
// node cap.
func (m *Module) ParseOutline(markdown string) *OutlineNode {
	return outline.Parse(markdown, outline.WithMaxNodes(m.container.Config.Limits.MaxNodes))
}
