// Package config loads localekeys settings from .localekeys.yaml and
// LOCALEKEYS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/localekeys/pkg/discovery"
	"github.com/Sumatoshi-tech/localekeys/pkg/render"
)

// Sentinel validation errors.
var (
	ErrInvalidWorkers     = errors.New("extract.workers must not be negative")
	ErrInvalidCacheSize   = errors.New("extract.cache_size must be -1 or more")
	ErrInvalidMaxFileSize = errors.New("invalid extract.max_file_size")
	ErrInvalidFormat      = errors.New("invalid output.format")
	ErrInvalidLogLevel    = errors.New("invalid logging.level")
)

const (
	configName = ".localekeys"
	envPrefix  = "LOCALEKEYS"
)

// Config holds all localekeys settings.
type Config struct {
	Locales LocalesConfig `mapstructure:"locales"`
	Extract ExtractConfig `mapstructure:"extract"`
	Output  OutputConfig  `mapstructure:"output"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// LocalesConfig selects the locale files.
type LocalesConfig struct {
	Root       string   `mapstructure:"root"`
	Include    []string `mapstructure:"include"`
	Exclude    []string `mapstructure:"exclude"`
	StrictTags bool     `mapstructure:"strict_tags"`
}

// ExtractConfig tunes key extraction.
type ExtractConfig struct {
	Workers int `mapstructure:"workers"`
	// CacheSize of -1 disables the extraction cache.
	CacheSize int `mapstructure:"cache_size"`
	// MaxFileSize is a human-readable byte size such as "4MiB" or "500kB".
	MaxFileSize string `mapstructure:"max_file_size"`
}

// OutputConfig controls catalogue rendering.
type OutputConfig struct {
	Format string `mapstructure:"format"`
}

// LoggingConfig controls the logger.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// LoadConfig reads configPath, or .localekeys.yaml from the working or home
// directory when configPath is empty, overlays LOCALEKEYS_* environment
// variables and validates the result.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("$HOME")
	}

	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperCfg.AutomaticEnv()

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := config.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("locales.root", DefaultLocalesRoot)
	viperCfg.SetDefault("locales.include", discovery.DefaultInclude)
	viperCfg.SetDefault("locales.exclude", discovery.DefaultExclude)
	viperCfg.SetDefault("locales.strict_tags", DefaultLocalesStrictTags)

	viperCfg.SetDefault("extract.workers", DefaultExtractWorkers)
	viperCfg.SetDefault("extract.cache_size", DefaultExtractCacheSize)
	viperCfg.SetDefault("extract.max_file_size", DefaultExtractMaxFileSize)

	viperCfg.SetDefault("output.format", DefaultOutputFormat)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.json", DefaultLogJSON)
}

// Validate checks every field and returns the first problem found.
func (c *Config) Validate() error {
	if c.Extract.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Extract.Workers)
	}

	if c.Extract.CacheSize < -1 {
		return fmt.Errorf("%w: %d", ErrInvalidCacheSize, c.Extract.CacheSize)
	}

	if _, err := c.Extract.MaxFileSizeBytes(); err != nil {
		return err
	}

	if !slices.Contains(render.Formats, c.Output.Format) {
		return fmt.Errorf("%w: %q (want one of %s)", ErrInvalidFormat, c.Output.Format,
			strings.Join(render.Formats, ", "))
	}

	if _, err := c.Logging.SlogLevel(); err != nil {
		return err
	}

	return nil
}

// MaxFileSizeBytes parses MaxFileSize.
func (e ExtractConfig) MaxFileSizeBytes() (int64, error) {
	size, err := humanize.ParseBytes(e.MaxFileSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidMaxFileSize, e.MaxFileSize, err)
	}

	if size == 0 || size > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMaxFileSize, e.MaxFileSize)
	}

	return int64(size), nil
}

// SlogLevel parses Level (debug, info, warn, error).
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level

	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, l.Level)
	}

	return level, nil
}
