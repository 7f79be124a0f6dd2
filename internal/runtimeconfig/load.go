package runtimeconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// ErrConfigFormatUnknown indicates a config file with an unsupported extension.
var ErrConfigFormatUnknown = errors.New("markmap config: unsupported config file format")

// LookupFunc resolves one environment variable.
type LookupFunc func(key string) (string, bool)

// LoadOptions selects the sources merged on top of DefaultConfig. Later
// sources win: file, then the dotenv file, then the process environment.
type LoadOptions struct {
	// File is an optional .yaml, .yml, .json or .jsonc config file.
	File string
	// EnvFile is a dotenv file. When empty ".env" is read if present.
	EnvFile string
	// Lookup reads the process environment. Defaults to os.LookupEnv.
	Lookup LookupFunc
}

// Load builds a validated Config from the defaults and opts.
func Load(opts LoadOptions) (Config, error) {
	cfg := DefaultConfig()
	if strings.TrimSpace(opts.File) != "" {
		if err := LoadFile(&cfg, opts.File); err != nil {
			return cfg, err
		}
	}

	dotenv, err := readDotenv(opts.EnvFile)
	if err != nil {
		return cfg, err
	}
	lookup := opts.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := ApplyEnv(&cfg, layered(lookup, dotenv)); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// LoadFile merges a config file into cfg. JSON with comments is accepted for
// .json and .jsonc files.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("markmap config: read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	default:
		return fmt.Errorf("%w: %s", ErrConfigFormatUnknown, filepath.Ext(path))
	}
	return decode(cfg, data, path)
}

// decode reads YAML. JSON documents are valid YAML so both formats share it.
func decode(cfg *Config, data []byte, source string) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("markmap config: parse %s: %w", source, err)
	}
	return nil
}

func readDotenv(path string) (map[string]string, error) {
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = ".env"
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("markmap config: read %s: %w", path, err)
	}
	return values, nil
}

func layered(lookup LookupFunc, fallback map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		if value, ok := lookup(key); ok {
			return value, true
		}
		value, ok := fallback[key]
		return value, ok
	}
}

// ApplyEnv overlays the supported environment variables onto cfg.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	env := envReader{lookup: lookup}

	env.str("ADDR", &cfg.Server.Addr)
	if port, ok := env.get("PORT"); ok {
		if _, explicitAddr := env.get("ADDR"); !explicitAddr {
			cfg.Server.Addr = ":" + strings.TrimPrefix(port, ":")
		}
	}
	env.str("MARKMAP_ENV", &cfg.Server.Environment)
	if keys, ok := env.get("API_KEYS"); ok {
		cfg.Auth.APIKeys = splitList(keys)
	}
	env.integer("API_RATE_LIMIT", &cfg.Auth.RateLimit)
	env.duration("API_RATE_WINDOW", &cfg.Auth.Window)
	env.duration("GATE_PRUNE_INTERVAL", &cfg.Auth.PruneInterval)
	env.integer("MAX_MARKDOWN_SIZE", &cfg.Limits.MaxMarkdownSize)
	env.integer("MAX_NODES", &cfg.Limits.MaxNodes)
	env.int64("MAX_FILE_SIZE", &cfg.Limits.MaxFileSize)
	env.duration("RENDER_TIMEOUT", &cfg.Limits.RenderTimeout)
	env.str("STORAGE_PROVIDER", &cfg.Storage.Provider)
	env.str("OUTPUT_DIR", &cfg.Storage.OutputDir)
	env.duration("ARTIFACT_TTL", &cfg.Storage.ArtifactTTL)
	env.duration("SWEEP_INTERVAL", &cfg.Storage.SweepInterval)
	// set but empty disables the index
	if dsn, ok := lookup("INDEX_DSN"); ok {
		cfg.Index.DSN = strings.TrimSpace(dsn)
	}
	env.str("ASSET_BASE_URL", &cfg.Viewer.AssetBaseURL)
	env.str("SWEEP_CRON", &cfg.Commands.SweepCron)
	env.str("LOG_PROVIDER", &cfg.Logging.Provider)
	env.str("LOG_LEVEL", &cfg.Logging.Level)
	env.str("LOG_FORMAT", &cfg.Logging.Format)

	return env.err
}

type envReader struct {
	lookup LookupFunc
	err    error
}

func (e *envReader) get(key string) (string, bool) {
	value, ok := e.lookup(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func (e *envReader) str(key string, dst *string) {
	if value, ok := e.get(key); ok {
		*dst = value
	}
}

func (e *envReader) integer(key string, dst *int) {
	value, ok := e.get(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		e.fail(key, value, err)
		return
	}
	*dst = n
}

func (e *envReader) int64(key string, dst *int64) {
	value, ok := e.get(key)
	if !ok {
		return
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		e.fail(key, value, err)
		return
	}
	*dst = n
}

// duration accepts Go duration strings, or a bare integer as seconds.
func (e *envReader) duration(key string, dst *time.Duration) {
	value, ok := e.get(key)
	if !ok {
		return
	}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		*dst = time.Duration(n) * time.Second
		return
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		e.fail(key, value, err)
		return
	}
	*dst = d
}

func (e *envReader) fail(key, value string, err error) {
	e.err = errors.Join(e.err, fmt.Errorf("markmap config: %s=%q: %w", key, value, err))
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
