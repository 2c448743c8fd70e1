// Package settings loads the user-level tool settings with koanf.
package settings

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/devshell/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	// EnvPrefix prefixes every environment variable read as a setting.
	EnvPrefix = "DEVSHELL_"

	// ConfigEnv overrides the location of the user settings file.
	ConfigEnv = EnvPrefix + "CONFIG"

	// DefaultNixHubURL is the package search endpoint used for versioned packages.
	DefaultNixHubURL = "https://search.devbox.sh/v2/resolve"

	defaultPingInterval = time.Minute
	defaultRetryTries   = 5
	defaultRetryDelay   = 5 * time.Second
)

// Loader merges defaults < settings file < DEVSHELL_ variables < explicitly set flags.
type Loader struct {
	path string
}

// New creates a Loader reading the settings file from DEVSHELL_CONFIG or the user config directory.
func New() *Loader {
	if p := os.Getenv(ConfigEnv); p != "" {
		return NewWithPath(p)
	}
	return NewWithPath(domain.DefaultConfigPath())
}

// NewWithPath creates a Loader for the given settings file. An empty path disables the file layer.
func NewWithPath(path string) *Loader {
	return &Loader{path: path}
}

// Path returns the settings file the loader reads.
func (l *Loader) Path() string {
	return l.path
}

// Load implements ports.SettingsLoader.
func (l *Loader) Load(flags *pflag.FlagSet) (*domain.Settings, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, zerr.Wrap(err, "failed to load default settings")
	}

	if l.path != "" {
		if _, err := os.Stat(l.path); err == nil {
			if err := k.Load(file.Provider(l.path), yaml.Parser()); err != nil {
				return nil, zerr.With(zerr.Wrap(domain.ErrInvalidSettings, err.Error()), "file", l.path)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(zerr.Wrap(err, "failed to stat settings file"), "file", l.path)
		}
	}

	// DEVSHELL_LOG_LEVEL -> log_level
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, zerr.Wrap(err, "failed to load settings from environment")
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, zerr.Wrap(err, "failed to load settings from flags")
		}
	}

	var s domain.Settings
	if err := k.Unmarshal("", &s); err != nil {
		return nil, zerr.Wrap(domain.ErrInvalidSettings, err.Error())
	}

	if err := validate(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"file":          domain.DescriptorFileName,
		"system":        "",
		"log_level":     domain.LogLevelInfo.String(),
		"log_format":    domain.LogFormatPretty,
		"cache_dir":     domain.DefaultCacheDir(),
		"nixhub_url":    DefaultNixHubURL,
		"frozen":        false,
		"shell":         "bash",
		"ping_interval": defaultPingInterval.String(),
		"retry_tries":   defaultRetryTries,
		"retry_delay":   defaultRetryDelay.String(),
	}
}

func validate(s *domain.Settings) error {
	if _, err := s.Level(); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrInvalidSettings.Error()), "log_level", s.LogLevel)
	}

	switch s.LogFormat {
	case domain.LogFormatPretty, domain.LogFormatJSON:
	default:
		return zerr.With(zerr.Wrap(domain.ErrInvalidSettings, "unknown log format"), "log_format", s.LogFormat)
	}

	if s.RetryTries <= 0 {
		return zerr.With(zerr.Wrap(domain.ErrInvalidRetryPolicy, domain.ErrInvalidSettings.Error()), "retry_tries", s.RetryTries)
	}

	if s.File == "" {
		return zerr.With(zerr.Wrap(domain.ErrInvalidSettings, "descriptor file must not be empty"), "file", s.File)
	}
	return nil
}

var _ ports.SettingsLoader = (*Loader)(nil)
