package wmarkdown

import "github.com/goliatone/go-wmarkdown/internal/runtimeconfig"

var (
	ErrBuildOutputDirRequired    = runtimeconfig.ErrBuildOutputDirRequired
	ErrBuildSourceDirRequired    = runtimeconfig.ErrBuildSourceDirRequired
	ErrBuildFormatInvalid        = runtimeconfig.ErrBuildFormatInvalid
	ErrBuildWorkersInvalid       = runtimeconfig.ErrBuildWorkersInvalid
	ErrHighlightThemeNotLoaded   = runtimeconfig.ErrHighlightThemeNotLoaded
	ErrLuaTimeoutInvalid         = runtimeconfig.ErrLuaTimeoutInvalid
	ErrTransformExtensionInvalid = runtimeconfig.ErrTransformExtensionInvalid
	ErrLoggingProviderUnknown    = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid       = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid      = runtimeconfig.ErrLoggingFormatInvalid
	ErrEnvInvalid                = runtimeconfig.ErrEnvInvalid
)

type (
	Config          = runtimeconfig.Config
	EngineConfig    = runtimeconfig.EngineConfig
	HighlightConfig = runtimeconfig.HighlightConfig
	PluginsConfig   = runtimeconfig.PluginsConfig
	ParserConfig    = runtimeconfig.ParserConfig
	TransformConfig = runtimeconfig.TransformConfig
	BuildConfig     = runtimeconfig.BuildConfig
	LoggingConfig   = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads a YAML file over the defaults, applies WMARKDOWN_*
// environment overrides and validates the result. An empty path skips the
// file.
func LoadConfig(path string) (Config, error) {
	return runtimeconfig.Load(path)
}
