package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// SupportedThreadCounts is the closed set the UI offers; the engine clamps
// anything else onto it.
var SupportedThreadCounts = []int{1, 2, 4, 8, 16, 32}

type Config struct {
	Mode     string         `mapstructure:"mode" yaml:"mode"`
	Theme    string         `mapstructure:"theme" yaml:"theme"`
	Download DownloadConfig `mapstructure:"download" yaml:"download"`
	Drive    DriveConfig    `mapstructure:"drive" yaml:"drive"`
	Cache    CacheConfig    `mapstructure:"cache" yaml:"cache"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Sources  SourcesConfig  `mapstructure:"sources" yaml:"sources"`

	Port string `mapstructure:"port" yaml:"port"`
}

type DownloadConfig struct {
	Threads    int    `mapstructure:"threads" yaml:"threads"`
	StagingDir string `mapstructure:"staging_dir" yaml:"staging_dir"`
}

type DriveConfig struct {
	Default    string   `mapstructure:"default" yaml:"default"`
	ExtraRoots []string `mapstructure:"extra_roots" yaml:"extra_roots"`
}

type CacheConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type LogConfig struct {
	Path          string `mapstructure:"path" yaml:"path"`
	Level         string `mapstructure:"level" yaml:"level"`
	IncludeStdout bool   `mapstructure:"include_stdout" yaml:"include_stdout"`
}

// SourcesConfig lets a user point at a catalog mirror; empty values mean
// the built-in endpoints.
type SourcesConfig struct {
	CloudPE string `mapstructure:"cloudpe" yaml:"cloudpe"`
	HotPE   string `mapstructure:"hotpe" yaml:"hotpe"`
}

// Load reads the config file (if present), applies defaults and the
// PEMARKET_* environment overrides, and validates the result. A missing
// file is not an error: the defaults alone are a working configuration.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set Defaults
	v.SetDefault("mode", "cloudpe")
	v.SetDefault("theme", "system")
	v.SetDefault("port", "8721")
	v.SetDefault("download.threads", 8)
	v.SetDefault("download.staging_dir", defaultStagingDir())
	v.SetDefault("cache.path", defaultCachePath())
	v.SetDefault("log.path", "pemarket.log")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.include_stdout", true)

	if path == "" {
		path = defaultConfigPath()
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
		// no file: run on defaults
	}

	// Support Environment Variables
	v.SetEnvPrefix("PEMARKET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.validate()

	return &cfg, nil
}

func (c *Config) validate() {
	c.Download.Threads = ClampThreads(c.Download.Threads)

	if c.Download.StagingDir == "" {
		c.Download.StagingDir = defaultStagingDir()
	}
	if c.Cache.Path == "" {
		c.Cache.Path = defaultCachePath()
	}
	if c.Port == "" {
		c.Port = "8721"
	}
}

// ClampThreads snaps a requested worker count onto the supported set,
// choosing the largest supported value not above the request.
func ClampThreads(n int) int {
	if n <= SupportedThreadCounts[0] {
		return SupportedThreadCounts[0]
	}
	best := SupportedThreadCounts[0]
	for _, s := range SupportedThreadCounts {
		if s <= n {
			best = s
		}
	}
	return best
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "pemarket.yaml"
	}
	return filepath.Join(dir, "pemarket", "config.yaml")
}

func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "catalog.db"
	}
	return filepath.Join(dir, "pemarket", "catalog.db")
}

func defaultStagingDir() string {
	return filepath.Join(os.TempDir(), "pemarket")
}
