package config

import (
	"time"
)

// Release identifiers for the bundled default source.
const (
	DefaultRelease   = "2024"
	DefaultSourceURL = "https://github.com/globalwordnet/english-wordnet/releases/download/2024-edition/english-wordnet-2024.xml.gz"
	DefaultMember    = "english-wordnet-2024.xml"
	appDirName       = "oewn-rs"
)

// Config is the root configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store"`
	Source SourceConfig `yaml:"source"`
	Load   LoadConfig   `yaml:"load"`
	Log    LogConfig    `yaml:"log"`
}

// StoreConfig locates the cache file.
type StoreConfig struct {
	// Path overrides the default per-user location when set.
	Path        string        `yaml:"path"         env:"OEWN_DB_PATH"`
	LockTimeout time.Duration `yaml:"lock_timeout" env:"OEWN_LOCK_TIMEOUT" env-default:"10m"`
}

// SourceConfig describes where the archive comes from.
type SourceConfig struct {
	URL              string        `yaml:"url"               env:"OEWN_SOURCE_URL"        env-default:"https://github.com/globalwordnet/english-wordnet/releases/download/2024-edition/english-wordnet-2024.xml.gz"`
	Release          string        `yaml:"release"           env:"OEWN_RELEASE"           env-default:"2024"`
	Member           string        `yaml:"member"            env:"OEWN_MEMBER"            env-default:"english-wordnet-2024.xml"`
	Timeout          time.Duration `yaml:"timeout"           env:"OEWN_HTTP_TIMEOUT"      env-default:"10m"`
	ProgressInterval time.Duration `yaml:"progress_interval" env:"OEWN_PROGRESS_INTERVAL" env-default:"100ms"`
}

// LoadConfig tunes the loader.
type LoadConfig struct {
	BatchSize int `yaml:"batch_size" env:"OEWN_BATCH_SIZE" env-default:"5000"`
	QueueSize int `yaml:"queue_size" env:"OEWN_QUEUE_SIZE" env-default:"1024"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"OEWN_LOG_LEVEL"  env-default:"warn"`
	Format string `yaml:"format" env:"OEWN_LOG_FORMAT" env-default:"console"`
}

// Default returns the configuration with every default applied and no
// environment lookups.
func Default() Config {
	return Config{
		Store:  StoreConfig{LockTimeout: 10 * time.Minute},
		Source: SourceConfig{URL: DefaultSourceURL, Release: DefaultRelease, Member: DefaultMember, Timeout: 10 * time.Minute, ProgressInterval: 100 * time.Millisecond},
		Load:   LoadConfig{BatchSize: 5000, QueueSize: 1024},
		Log:    LogConfig{Level: "warn", Format: "console"},
	}
}
