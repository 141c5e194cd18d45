// Package config loads the wadtool configuration file.
package config

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/stuarthighley/wad/v2"
	"github.com/stuarthighley/wad/v2/entrytype"
)

type LogFile struct {
	Path       string `yaml:"path,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty"`
	MaxAgeDays int    `yaml:"max_age_days,omitempty"`
	Compress   bool   `yaml:"compress,omitempty"`
}

type Config struct {
	LogLevel   string  `yaml:"log_level,omitempty"`
	LogFile    LogFile `yaml:"log_file,omitempty"`
	Rules      string  `yaml:"rules,omitempty"` // extra entry type rules, applied after the built-in ones
	KeepData   bool    `yaml:"keep_data,omitempty"`
	UnlockIWAD bool    `yaml:"unlock_iwad,omitempty"`
	MaxNesting *int    `yaml:"max_nesting,omitempty"` // 0 disables opening nested WADs
	Workers    int     `yaml:"workers,omitempty"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{}
	c.setDefaults()
	return c
}

// Load reads the configuration at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a configuration document and applies defaults.
func Parse(r io.Reader) (*Config, error) {
	c := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	c.setDefaults()
	return c, nil
}

func (c *Config) setDefaults() {
	c.LogLevel = cmp.Or(c.LogLevel, "info")
	if c.MaxNesting == nil {
		n := wad.DefaultMaxNesting
		c.MaxNesting = &n
	}
	c.Workers = cmp.Or(c.Workers, 4)
	if c.LogFile.Path != "" {
		c.LogFile.MaxSizeMB = cmp.Or(c.LogFile.MaxSizeMB, 10)
		c.LogFile.MaxBackups = cmp.Or(c.LogFile.MaxBackups, 3)
		c.LogFile.MaxAgeDays = cmp.Or(c.LogFile.MaxAgeDays, 28)
	}
}

func (c *Config) validate() error {
	if c.LogLevel != "" {
		if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("log_level: %w", err)
		}
	}
	if c.MaxNesting != nil && *c.MaxNesting < 0 {
		return fmt.Errorf("max_nesting must not be negative, got %d", *c.MaxNesting)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}

// Level returns the parsed log level, falling back to info.
func (c *Config) Level() zerolog.Level {
	l, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

// Registry builds the entry type registry: the built-in rules plus the rules file, if any.
func (c *Config) Registry() (*entrytype.Registry, error) {
	r, err := entrytype.DefaultRegistry()
	if err != nil {
		return nil, err
	}
	if c.Rules == "" {
		return r, nil
	}
	f, err := os.Open(c.Rules)
	if err != nil {
		return nil, fmt.Errorf("open rules: %w", err)
	}
	defer f.Close()
	if err := r.Load(f); err != nil {
		return nil, fmt.Errorf("load rules %s: %w", c.Rules, err)
	}
	return r, nil
}

// ArchiveOptions converts the configuration into archive options.
func (c *Config) ArchiveOptions(reg *entrytype.Registry) []wad.Option {
	nesting := wad.DefaultMaxNesting
	if c.MaxNesting != nil {
		nesting = *c.MaxNesting
	}
	return []wad.Option{
		wad.WithRegistry(reg),
		wad.WithKeepData(c.KeepData),
		wad.WithIWADLock(!c.UnlockIWAD),
		wad.WithMaxNesting(nesting),
	}
}
