// Package config provides configuration management for alda. It handles
// loading and validating the YAML configuration file: the repositories to
// analyze, the expansion options overlay and the default excludes.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mgracik/alda/pkg/alda"
	"github.com/mgracik/alda/pkg/errors"
)

// Config represents the application configuration.
type Config struct {
	// Repository configuration
	Repositories []*RepositoryConfig `yaml:"repositories"`

	// Expansion options overlay; unset values keep the defaults.
	Options OptionsConfig `yaml:"options"`

	// Default excludes, as "name" or "name.arch" strings.
	Excludes []string `yaml:"excludes,omitempty"`

	// General settings
	Settings Settings `yaml:"settings"`
}

// RepositoryConfig represents a single repository entry.
type RepositoryConfig struct {
	Name    string `yaml:"name"`
	Path    string `yaml:"path"`
	Enabled bool   `yaml:"enabled"`
}

// OptionsConfig overlays the default expansion options. Nil fields keep the
// defaults.
type OptionsConfig struct {
	Greedy      *bool `yaml:"greedy,omitempty"`
	Source      *bool `yaml:"source,omitempty"`
	Debuginfo   *bool `yaml:"debuginfo,omitempty"`
	Selfhosting *bool `yaml:"selfhosting,omitempty"`
	Fulltree    *bool `yaml:"fulltree,omitempty"`
}

// Settings represents general application settings.
type Settings struct {
	// Arch restricts the sack to a target architecture.
	Arch string `yaml:"arch,omitempty"`

	// LoadFilelists controls loading of per-package file lists.
	LoadFilelists bool `yaml:"load_filelists"`

	// BuildCache controls writing parsed-metadata caches.
	BuildCache bool `yaml:"build_cache"`

	// HTTPTimeout is the metadata download timeout in seconds.
	HTTPTimeout int `yaml:"http_timeout,omitempty"`

	// LogLevel sets the logging verbosity (debug, info, warn, error).
	LogLevel string `yaml:"log_level,omitempty"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Settings: Settings{
			LoadFilelists: true,
			BuildCache:    true,
			HTTPTimeout:   300,
			LogLevel:      "info",
		},
	}
}

// LoadConfig reads and validates a configuration file.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read config file %s", path)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	seen := make(map[string]struct{}, len(c.Repositories))
	for i, repository := range c.Repositories {
		if repository.Name == "" {
			return errors.ErrEmptyRepositoryNameWithIndex(i)
		}
		if repository.Path == "" {
			return errors.ErrEmptyRepositoryPathWithName(repository.Name)
		}
		if _, ok := seen[repository.Name]; ok {
			return errors.Wrapf(errors.ErrConfigValidation, "duplicate repository %q", repository.Name)
		}
		seen[repository.Name] = struct{}{}
	}
	return nil
}

// RepoDict returns the enabled repositories as a name-to-path map.
func (c *Config) RepoDict() map[string]string {
	repodict := make(map[string]string, len(c.Repositories))
	for _, repository := range c.Repositories {
		if repository.Enabled {
			repodict[repository.Name] = repository.Path
		}
	}
	return repodict
}

// ResolveOptions applies the overlay to the default expansion options.
func (c *Config) ResolveOptions() alda.Options {
	options := alda.DefaultOptions()
	overlay := c.Options
	if overlay.Greedy != nil {
		options.Greedy = *overlay.Greedy
	}
	if overlay.Source != nil {
		options.Source = *overlay.Source
	}
	if overlay.Debuginfo != nil {
		options.Debuginfo = *overlay.Debuginfo
	}
	if overlay.Selfhosting != nil {
		options.Selfhosting = *overlay.Selfhosting
	}
	if overlay.Fulltree != nil {
		options.Fulltree = *overlay.Fulltree
	}
	return options
}
