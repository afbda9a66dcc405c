// Package config loads the service configuration from TOML or YAML files.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Addr        string   `toml:"addr" yaml:"addr"`
	MaxUploadMB int      `toml:"max_upload_mb" yaml:"max_upload_mb"`
	CORSOrigins []string `toml:"cors_origins" yaml:"cors_origins"`
	AccessLog   bool     `toml:"access_log" yaml:"access_log"`
}

type ConvertConfig struct {
	PDFFont      string `toml:"pdf_font" yaml:"pdf_font"`           // TTF path, regular weight
	PDFBoldFont  string `toml:"pdf_bold_font" yaml:"pdf_bold_font"` // TTF path, bold weight
	PageSize     string `toml:"page_size" yaml:"page_size"`
	KeepDataURIs bool   `toml:"keep_data_uris" yaml:"keep_data_uris"`
}

type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"` // "text" or "json"
}

type Config struct {
	Server  ServerConfig  `toml:"server" yaml:"server"`
	Convert ConvertConfig `toml:"convert" yaml:"convert"`
	Log     LogConfig     `toml:"log" yaml:"log"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        ":8080",
			MaxUploadMB: 25,
			CORSOrigins: []string{"*"},
			AccessLog:   true,
		},
		Convert: ConvertConfig{
			PageSize: "A4",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
// The decoder is chosen by extension: .yaml/.yml or TOML otherwise.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail at first use.
func (c *Config) Validate() error {
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be positive, got %d", c.Server.MaxUploadMB)
	}
	switch strings.ToUpper(c.Convert.PageSize) {
	case "A3", "A4", "A5", "LETTER", "LEGAL":
	default:
		return fmt.Errorf("convert.page_size %q is not one of A3, A4, A5, Letter, Legal", c.Convert.PageSize)
	}
	if c.Convert.PDFBoldFont != "" && c.Convert.PDFFont == "" {
		return fmt.Errorf("convert.pdf_bold_font requires convert.pdf_font")
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *ServerConfig) MaxUploadBytes() int {
	return c.MaxUploadMB << 20
}

// SlogLevel parses the configured log level.
func (c *LogConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}

// Fonts reads the configured TrueType files. Both results are nil when no
// font is configured.
func (c *ConvertConfig) Fonts() (regular, bold []byte, err error) {
	if c.PDFFont == "" {
		return nil, nil, nil
	}
	if regular, err = os.ReadFile(c.PDFFont); err != nil {
		return nil, nil, fmt.Errorf("read pdf_font: %w", err)
	}
	if c.PDFBoldFont != "" {
		if bold, err = os.ReadFile(c.PDFBoldFont); err != nil {
			return nil, nil, fmt.Errorf("read pdf_bold_font: %w", err)
		}
	}
	return regular, bold, nil
}

// NewLogger builds the process logger.
func (c *LogConfig) NewLogger() *slog.Logger {
	lvl, err := c.SlogLevel()
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
