// Package cli implements the alda command line interface.
package cli

import (
	"strings"
	"time"

	"github.com/mgracik/alda/internal/logger"
	"github.com/mgracik/alda/pkg/config"
	"github.com/mgracik/alda/pkg/errors"
	"github.com/mgracik/alda/pkg/model"
	"github.com/mgracik/alda/pkg/repo"
)

// Global flag variables, wired up by the main package.
var (
	ConfigPath *string
	Verbose    *bool
	NoColor    *bool
)

// loadConfig loads the configuration file when one was given, defaults
// otherwise, and initializes logging.
func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if ConfigPath != nil && *ConfigPath != "" {
		loaded, err := config.LoadConfig(*ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	logLevel := cfg.Settings.LogLevel
	if Verbose != nil && *Verbose {
		logLevel = "debug"
	}
	noColor := NoColor != nil && *NoColor
	logger.InitLogger(logLevel, noColor)
	return cfg, nil
}

// loadFetcher builds the metadata fetcher from the configured timeout.
func loadFetcher(cfg *config.Config) *repo.HTTPFetcher {
	timeout := time.Duration(cfg.Settings.HTTPTimeout) * time.Second
	return repo.NewFetcher(timeout)
}

// mergeRepoFlags overlays --repo name=path flags onto the configured
// repositories.
func mergeRepoFlags(repodict map[string]string, flags []string) (map[string]string, error) {
	for _, flag := range flags {
		name, path, found := strings.Cut(flag, "=")
		if !found || name == "" || path == "" {
			return nil, errors.Wrapf(errors.ErrConfigValidation, "invalid --repo value %q, expected name=path", flag)
		}
		repodict[name] = path
	}
	if len(repodict) == 0 {
		return nil, errors.ErrNoRepositories
	}
	return repodict, nil
}

// parsePackageRefs parses "name" or "name.arch" strings. A dotted suffix is
// treated as an architecture only when it names a known arch, so dotted
// package names stay intact.
func parsePackageRefs(args, arches []string) []model.PackageRef {
	known := make(map[string]struct{}, len(arches))
	for _, arch := range arches {
		known[arch] = struct{}{}
	}
	refs := make([]model.PackageRef, 0, len(args))
	for _, arg := range args {
		name, arch := arg, ""
		if i := strings.LastIndex(arg, "."); i > 0 {
			if _, ok := known[arg[i+1:]]; ok {
				name, arch = arg[:i], arg[i+1:]
			}
		}
		refs = append(refs, model.NewPackageRef(name, arch))
	}
	return refs
}
