package di

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	generatecmd "github.com/goliatone/go-markmap/internal/commands/generate"
	sweepcmd "github.com/goliatone/go-markmap/internal/commands/sweep"
	"github.com/goliatone/go-markmap/internal/gate"
	"github.com/goliatone/go-markmap/internal/generator"
	markmaphttp "github.com/goliatone/go-markmap/internal/http"
	"github.com/goliatone/go-markmap/internal/identity"
	"github.com/goliatone/go-markmap/internal/index"
	"github.com/goliatone/go-markmap/internal/logging"
	"github.com/goliatone/go-markmap/internal/logging/console"
	"github.com/goliatone/go-markmap/internal/logging/gologger"
	"github.com/goliatone/go-markmap/internal/runtimeconfig"
	"github.com/goliatone/go-markmap/internal/storage"
	"github.com/goliatone/go-markmap/internal/sweeper"
	"github.com/goliatone/go-markmap/pkg/interfaces"
)

// Container wires the markmap services from a runtime configuration.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	store          interfaces.ArtifactStore
	index          interfaces.ManifestIndex
	transformer    interfaces.Transformer
	clock          func() time.Time
	version        string

	ownedIndex *index.BunIndex

	generatorSvc generator.Service
	generateCmd  *generatecmd.GenerateHandler
	gate         *gate.Gate
	sweeper      *sweeper.Sweeper
	sweepCmd     *sweepcmd.SweepHandler
	api          *markmaphttp.API
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider selected by the logging config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		if provider != nil {
			c.loggerProvider = provider
		}
	}
}

// WithStore overrides the configured artifact store.
func WithStore(store interfaces.ArtifactStore) Option {
	return func(c *Container) {
		if store != nil {
			c.store = store
		}
	}
}

// WithIndex overrides the manifest index. The container does not close
// indexes it did not open.
func WithIndex(idx interfaces.ManifestIndex) Option {
	return func(c *Container) {
		if idx != nil {
			c.index = idx
		}
	}
}

// WithTransformer plugs a server side markdown transformer into the generator.
func WithTransformer(transformer interfaces.Transformer) Option {
	return func(c *Container) {
		c.transformer = transformer
	}
}

// WithClock overrides the clock shared by all services.
func WithClock(clock func() time.Time) Option {
	return func(c *Container) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithVersion sets the version reported by the health endpoint.
func WithVersion(version string) Option {
	return func(c *Container) {
		c.version = strings.TrimSpace(version)
	}
}

// NewContainer validates cfg and builds every service.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{
		Config: cfg,
		clock:  time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLoggerProvider(); err != nil {
		return nil, err
	}
	if err := c.configureStore(); err != nil {
		return nil, err
	}
	if err := c.configureIndex(); err != nil {
		return nil, err
	}
	c.configureSweeper()
	c.configureGenerator()
	c.configureGate()
	c.configureAPI()

	logging.RootLogger(c.loggerProvider).Info("container.configured",
		"storage", c.Config.Storage.Provider,
		"index", c.index != nil,
		"environment", c.Config.Server.Environment,
	)
	return c, nil
}

func (c *Container) configureLoggerProvider() error {
	if c.loggerProvider != nil {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(c.Config.Logging.Provider)) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     c.Config.Logging.Level,
			Format:    c.Config.Logging.Format,
			AddSource: c.Config.Logging.AddSource,
			Focus:     c.Config.Logging.Focus,
		})
		if err != nil {
			return fmt.Errorf("di: logger provider: %w", err)
		}
		c.loggerProvider = provider
	default:
		level, err := console.ParseLevel(c.Config.Logging.Level)
		if err != nil {
			return fmt.Errorf("di: logger provider: %w", err)
		}
		c.loggerProvider = console.NewProvider(console.Options{MinLevel: &level})
	}
	return nil
}

func (c *Container) configureStore() error {
	if c.store != nil {
		return nil
	}
	logger := logging.StorageLogger(c.loggerProvider)
	switch strings.ToLower(strings.TrimSpace(c.Config.Storage.Provider)) {
	case "memory":
		c.store = storage.NewMemoryStore(storage.WithClock(c.clock))
	default:
		store, err := storage.NewFileStore(c.Config.Storage.OutputDir, storage.WithFileLogger(logger))
		if err != nil {
			return fmt.Errorf("di: artifact store: %w", err)
		}
		c.store = store
	}
	logger.Debug("storage.configured", "provider", c.Config.Storage.Provider, "dir", c.Config.Storage.OutputDir)
	return nil
}

func (c *Container) configureIndex() error {
	if c.index != nil || !c.Config.IndexEnabled() {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	idx, err := index.OpenSQLite(ctx, c.Config.Index.DSN)
	if err != nil {
		return fmt.Errorf("di: manifest index: %w", err)
	}
	c.index = idx
	c.ownedIndex = idx
	logging.IndexLogger(c.loggerProvider).Debug("index.configured", "dsn", c.Config.Index.DSN)
	return nil
}

func (c *Container) configureSweeper() {
	opts := []sweeper.Option{
		sweeper.WithClock(c.clock),
		sweeper.WithLogger(logging.SweeperLogger(c.loggerProvider)),
	}
	if c.index != nil {
		opts = append(opts, sweeper.WithIndex(c.index))
	}
	c.sweeper = sweeper.New(c.store, sweeper.Config{
		TTL:      c.Config.Storage.ArtifactTTL,
		Interval: c.Config.Storage.SweepInterval,
	}, opts...)

	var cmdOpts []sweepcmd.HandlerOption
	if expr := strings.TrimSpace(c.Config.Commands.SweepCron); expr != "" {
		cmdOpts = append(cmdOpts, sweepcmd.WithCronExpression(expr))
	}
	if c.Config.Commands.Timeout > 0 {
		cmdOpts = append(cmdOpts, sweepcmd.WithTimeout(c.Config.Commands.Timeout))
	}
	c.sweepCmd = sweepcmd.NewSweepHandler(c.sweeper, logging.CommandsLogger(c.loggerProvider), cmdOpts...)
}

func (c *Container) configureGenerator() {
	c.generatorSvc = generator.NewService(generator.Config{
		MaxMarkdownSize: c.Config.Limits.MaxMarkdownSize,
		MaxNodes:        c.Config.Limits.MaxNodes,
		RenderTimeout:   c.Config.Limits.RenderTimeout,
		Assets:          generator.DefaultAssets(c.Config.Viewer.AssetBaseURL),
	}, generator.Dependencies{
		Store:       c.store,
		Index:       c.index,
		Transformer: c.transformer,
		OnGenerated: func(interfaces.ArtifactSet) { c.sweeper.Trigger() },
		Logger:      logging.GeneratorLogger(c.loggerProvider),
		IDs:         identity.ArtifactIDs(c.clock),
		Clock:       c.clock,
	})

	var cmdOpts []generatecmd.HandlerOption
	if c.Config.Commands.Timeout > 0 {
		cmdOpts = append(cmdOpts, generatecmd.WithTimeout(c.Config.Commands.Timeout))
	}
	c.generateCmd = generatecmd.NewGenerateHandler(c.generatorSvc, logging.CommandsLogger(c.loggerProvider), cmdOpts...)
}

func (c *Container) configureGate() {
	c.gate = gate.New(gate.Config{
		Credentials:           c.Config.Credentials(),
		Limit:                 c.Config.Auth.RateLimit,
		Window:                c.Config.Auth.Window,
		Bypass:                c.Config.Auth.Bypass,
		MaxTrackedCredentials: c.Config.Auth.MaxTrackedCredentials,
		PruneInterval:         c.Config.Auth.PruneInterval,
	}, gate.WithClock(c.clock), gate.WithLogger(logging.GateLogger(c.loggerProvider)))
}

func (c *Container) configureAPI() {
	c.api = markmaphttp.NewAPI(
		markmaphttp.WithGenerator(c.generateCmd),
		markmaphttp.WithStore(c.store),
		markmaphttp.WithIndex(c.index),
		markmaphttp.WithGate(c.gate),
		markmaphttp.WithLogger(logging.HTTPLogger(c.loggerProvider)),
		markmaphttp.WithLimits(c.Config.Limits.MaxMarkdownSize, c.Config.Limits.MaxFileSize),
		markmaphttp.WithVersion(c.version, c.Config.Server.Environment),
		markmaphttp.WithCompression(c.Config.Server.Compression),
		markmaphttp.WithClock(c.clock),
	)
}

// Handler returns the fully wrapped HTTP handler.
func (c *Container) Handler() (http.Handler, error) {
	return c.api.Handler()
}

// Start launches the gate prune loop and the sweeper.
func (c *Container) Start(ctx context.Context) {
	c.gate.Start(ctx)
	c.sweeper.Start(ctx)
}

// Close stops background loops and releases the index opened by the
// container.
func (c *Container) Close() error {
	c.sweeper.Stop()
	c.gate.Stop()
	if c.ownedIndex != nil {
		err := c.ownedIndex.Close()
		c.ownedIndex = nil
		return err
	}
	return nil
}

func (c *Container) LoggerProvider() interfaces.LoggerProvider { return c.loggerProvider }

func (c *Container) Store() interfaces.ArtifactStore { return c.store }

// Index returns the manifest index, or nil when indexing is disabled.
func (c *Container) Index() interfaces.ManifestIndex { return c.index }

func (c *Container) GeneratorService() generator.Service { return c.generatorSvc }

func (c *Container) GenerateCommand() *generatecmd.GenerateHandler { return c.generateCmd }

func (c *Container) SweepCommand() *sweepcmd.SweepHandler { return c.sweepCmd }

func (c *Container) Sweeper() *sweeper.Sweeper { return c.sweeper }

func (c *Container) Gate() *gate.Gate { return c.gate }

func (c *Container) API() *markmaphttp.API { return c.api }
