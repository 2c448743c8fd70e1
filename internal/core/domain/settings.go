package domain

import "time"

// Settings are the user-level tool settings, independent of any descriptor.
type Settings struct {
	File         string        `koanf:"file"`
	System       string        `koanf:"system"`
	LogLevel     string        `koanf:"log_level"`
	LogFormat    string        `koanf:"log_format"`
	CacheDir     string        `koanf:"cache_dir"`
	NixHubURL    string        `koanf:"nixhub_url"`
	Frozen       bool          `koanf:"frozen"`
	Shell        string        `koanf:"shell"`
	PingInterval time.Duration `koanf:"ping_interval"`
	RetryTries   int           `koanf:"retry_tries"`
	RetryDelay   time.Duration `koanf:"retry_delay"`
}

// Log formats accepted by the log_format setting.
const (
	LogFormatPretty = "pretty"
	LogFormatJSON   = "json"
)

// Level returns the parsed log level.
func (s *Settings) Level() (LogLevel, error) {
	return ParseLogLevel(s.LogLevel)
}
