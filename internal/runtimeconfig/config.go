package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrCredentialsRequired = errors.New("markmap config: at least one api key is required")
var ErrRateLimitInvalid = errors.New("markmap config: rate limit must be positive")
var ErrRateWindowInvalid = errors.New("markmap config: rate window must be positive")
var ErrMaxMarkdownSizeInvalid = errors.New("markmap config: max markdown size must be positive")
var ErrMaxNodesInvalid = errors.New("markmap config: max nodes must be positive")
var ErrMaxFileSizeInvalid = errors.New("markmap config: max file size must be positive")
var ErrTTLInvalid = errors.New("markmap config: artifact ttl must be positive")
var ErrSweepIntervalInvalid = errors.New("markmap config: sweep interval must be positive")
var ErrPruneIntervalInvalid = errors.New("markmap config: gate prune interval must be zero or positive")
var ErrRenderTimeoutInvalid = errors.New("markmap config: render timeout must be zero or positive")
var ErrOutputDirRequired = errors.New("markmap config: output directory is required for the file store")
var ErrStorageProviderUnknown = errors.New("markmap config: storage provider is invalid")
var ErrServerAddrRequired = errors.New("markmap config: server address is required")
var ErrLoggingProviderRequired = errors.New("markmap config: logging provider is required")
var ErrLoggingProviderUnknown = errors.New("markmap config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("markmap config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("markmap config: logging format is invalid")

// Config aggregates every setting of the markmap service.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Auth     AuthConfig     `yaml:"auth"`
	Limits   LimitsConfig   `yaml:"limits"`
	Storage  StorageConfig  `yaml:"storage"`
	Index    IndexConfig    `yaml:"index"`
	Viewer   ViewerConfig   `yaml:"viewer"`
	Commands CommandsConfig `yaml:"commands"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig captures the HTTP listener settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	Environment     string        `yaml:"environment"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	Compression     bool          `yaml:"compression"`
}

// AuthConfig configures the access gate.
type AuthConfig struct {
	APIKeys               []string      `yaml:"api_keys"`
	RateLimit             int           `yaml:"rate_limit"`
	Window                time.Duration `yaml:"window"`
	MaxTrackedCredentials int           `yaml:"max_tracked_credentials"`
	PruneInterval         time.Duration `yaml:"prune_interval"`
	// Bypass overrides the public path list when non-nil.
	Bypass []string `yaml:"bypass"`
}

// LimitsConfig bounds input accepted for generation.
type LimitsConfig struct {
	MaxMarkdownSize int           `yaml:"max_markdown_size"`
	MaxNodes        int           `yaml:"max_nodes"`
	MaxFileSize     int64         `yaml:"max_file_size"`
	RenderTimeout   time.Duration `yaml:"render_timeout"`
}

// StorageConfig selects the artifact store and its eviction policy.
type StorageConfig struct {
	Provider      string        `yaml:"provider"`
	OutputDir     string        `yaml:"output_dir"`
	ArtifactTTL   time.Duration `yaml:"artifact_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// IndexConfig configures the manifest index. An empty DSN disables it.
type IndexConfig struct {
	DSN string `yaml:"dsn"`
}

// ViewerConfig controls the interactive artifact's script sources.
type ViewerConfig struct {
	AssetBaseURL string `yaml:"asset_base_url"`
}

// CommandsConfig captures command-layer behaviour.
type CommandsConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	SweepCron string        `yaml:"sweep_cron"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `yaml:"provider"`
	Level     string   `yaml:"level"`
	Format    string   `yaml:"format"`
	AddSource bool     `yaml:"add_source"`
	Focus     []string `yaml:"focus"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":3000",
			Environment:     "local",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Compression:     true,
		},
		Auth: AuthConfig{
			APIKeys:               []string{"dev-key", "test-key"},
			RateLimit:             100,
			Window:                time.Hour,
			MaxTrackedCredentials: 10_000,
			PruneInterval:         10 * time.Minute,
		},
		Limits: LimitsConfig{
			MaxMarkdownSize: 500_000,
			MaxNodes:        500,
			MaxFileSize:     1 << 20,
			RenderTimeout:   5 * time.Second,
		},
		Storage: StorageConfig{
			Provider:      "file",
			OutputDir:     "output",
			ArtifactTTL:   24 * time.Hour,
			SweepInterval: 24 * time.Hour,
		},
		Index: IndexConfig{
			DSN: "file:markmap.db?cache=shared",
		},
		Viewer: ViewerConfig{
			AssetBaseURL: "https://cdn.jsdelivr.net/npm",
		},
		Commands: CommandsConfig{
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
	}
}

// Validate performs consistency checks.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return ErrServerAddrRequired
	}
	if len(cfg.credentials()) == 0 {
		return ErrCredentialsRequired
	}
	if cfg.Auth.RateLimit <= 0 {
		return fmt.Errorf("%w: %d", ErrRateLimitInvalid, cfg.Auth.RateLimit)
	}
	if cfg.Auth.Window <= 0 {
		return ErrRateWindowInvalid
	}
	if cfg.Auth.PruneInterval < 0 {
		return ErrPruneIntervalInvalid
	}
	if cfg.Limits.MaxMarkdownSize <= 0 {
		return fmt.Errorf("%w: %d", ErrMaxMarkdownSizeInvalid, cfg.Limits.MaxMarkdownSize)
	}
	if cfg.Limits.MaxNodes <= 0 {
		return fmt.Errorf("%w: %d", ErrMaxNodesInvalid, cfg.Limits.MaxNodes)
	}
	if cfg.Limits.MaxFileSize <= 0 {
		return fmt.Errorf("%w: %d", ErrMaxFileSizeInvalid, cfg.Limits.MaxFileSize)
	}
	if cfg.Limits.RenderTimeout < 0 {
		return ErrRenderTimeoutInvalid
	}
	if cfg.Storage.ArtifactTTL <= 0 {
		return ErrTTLInvalid
	}
	if cfg.Storage.SweepInterval <= 0 {
		return ErrSweepIntervalInvalid
	}
	switch provider := normalize(cfg.Storage.Provider); provider {
	case "file", "":
		if strings.TrimSpace(cfg.Storage.OutputDir) == "" {
			return ErrOutputDirRequired
		}
	case "memory":
	default:
		return fmt.Errorf("%w: %s", ErrStorageProviderUnknown, provider)
	}

	provider := normalize(cfg.Logging.Provider)
	if provider == "" {
		return ErrLoggingProviderRequired
	}
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

// Credentials returns the trimmed, non-empty api keys.
func (cfg Config) Credentials() []string {
	return cfg.credentials()
}

func (cfg Config) credentials() []string {
	out := make([]string, 0, len(cfg.Auth.APIKeys))
	for _, key := range cfg.Auth.APIKeys {
		if key = strings.TrimSpace(key); key != "" {
			out = append(out, key)
		}
	}
	return out
}

// IndexEnabled reports whether a manifest index should be opened.
func (cfg Config) IndexEnabled() bool {
	return strings.TrimSpace(cfg.Index.DSN) != ""
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch normalize(level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch normalize(format) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
