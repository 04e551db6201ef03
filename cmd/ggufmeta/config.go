package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the ggufmeta configuration file
// (~/.config/ggufmeta/config.yaml). File values apply only where the
// corresponding CLI flag was not set.
type Config struct {
	Markers  []string `yaml:"markers"`
	TagTable string   `yaml:"tag_table"`
	MaxDepth int64    `yaml:"max_depth"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "ggufmeta", "config.yaml")
}

// LoadConfig reads the config file. Returns a zero Config if the file
// doesn't exist or cannot be parsed.
func LoadConfig() Config {
	path := configPath()
	if path == "" {
		return Config{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}
	return cfg
}

// applyExtractionConfig fills extraction and logging defaults from the
// config file for flags the user did not set.
func applyExtractionConfig(c *cli.Command, cfg Config) {
	if len(cfg.Markers) > 0 && !c.IsSet("marker") {
		markers = cfg.Markers
	}
	if cfg.TagTable != "" && !c.IsSet("table") {
		tagTable = cfg.TagTable
	}
	if cfg.MaxDepth > 0 && !c.IsSet("max-depth") {
		maxDepth = cfg.MaxDepth
	}
	applyLoggingConfig(c, cfg)
}

func applyLoggingConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}
