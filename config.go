package markmap

import "github.com/goliatone/go-markmap/internal/runtimeconfig"

var (
	ErrCredentialsRequired     = runtimeconfig.ErrCredentialsRequired
	ErrRateLimitInvalid        = runtimeconfig.ErrRateLimitInvalid
	ErrRateWindowInvalid       = runtimeconfig.ErrRateWindowInvalid
	ErrMaxMarkdownSizeInvalid  = runtimeconfig.ErrMaxMarkdownSizeInvalid
	ErrMaxNodesInvalid         = runtimeconfig.ErrMaxNodesInvalid
	ErrMaxFileSizeInvalid      = runtimeconfig.ErrMaxFileSizeInvalid
	ErrTTLInvalid              = runtimeconfig.ErrTTLInvalid
	ErrSweepIntervalInvalid    = runtimeconfig.ErrSweepIntervalInvalid
	ErrRenderTimeoutInvalid    = runtimeconfig.ErrRenderTimeoutInvalid
	ErrOutputDirRequired       = runtimeconfig.ErrOutputDirRequired
	ErrStorageProviderUnknown  = runtimeconfig.ErrStorageProviderUnknown
	ErrServerAddrRequired      = runtimeconfig.ErrServerAddrRequired
	ErrLoggingProviderRequired = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown  = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid     = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid    = runtimeconfig.ErrLoggingFormatInvalid
	ErrConfigFormatUnknown     = runtimeconfig.ErrConfigFormatUnknown
)

type (
	Config         = runtimeconfig.Config
	ServerConfig   = runtimeconfig.ServerConfig
	AuthConfig     = runtimeconfig.AuthConfig
	LimitsConfig   = runtimeconfig.LimitsConfig
	StorageConfig  = runtimeconfig.StorageConfig
	IndexConfig    = runtimeconfig.IndexConfig
	ViewerConfig   = runtimeconfig.ViewerConfig
	CommandsConfig = runtimeconfig.CommandsConfig
	LoggingConfig  = runtimeconfig.LoggingConfig
	LoadOptions    = runtimeconfig.LoadOptions
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig layers defaults, an optional config file, a dotenv file and the
// process environment, then validates the result.
func LoadConfig(opts LoadOptions) (Config, error) {
	return runtimeconfig.Load(opts)
}
