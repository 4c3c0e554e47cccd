// Package errors provides the error handling primitives for alda. It defines
// sentinel errors for the common failure cases and small wrapping utilities
// for adding context as errors propagate up the call stack.
package errors

import (
	"fmt"
)

// Common error types used throughout the application, grouped by domain.
var (
	// Repository errors cover the metadata oracle.

	// ErrInvalidRepoPath is returned for a repository path with an
	// unsupported scheme.
	ErrInvalidRepoPath = fmt.Errorf("incorrect repo path")

	// ErrMetadataDownload is returned when repository metadata cannot be
	// retrieved.
	ErrMetadataDownload = fmt.Errorf("failed to download repo metadata")

	// ErrMetadataMissing is returned when repomd.xml does not name a
	// required metadata payload.
	ErrMetadataMissing = fmt.Errorf("metadata entry missing from repomd")

	// Sack errors cover the loaded package universe.

	// ErrSackNotLoaded is returned when dependencies are resolved before
	// the sack was loaded.
	ErrSackNotLoaded = fmt.Errorf("sack not loaded")

	// ErrPackageNotFound is returned when a query matches no packages.
	ErrPackageNotFound = fmt.Errorf("package not found")

	// Closure engine errors are invariant violations and abort the run.

	// ErrMalformedSourcerpm is returned for a sourcerpm filename not
	// ending in .src.rpm or missing version-release fields.
	ErrMalformedSourcerpm = fmt.Errorf("malformed sourcerpm filename")

	// ErrAmbiguousSourcerpm is returned when more than one source package
	// matches a binary package's sourcerpm.
	ErrAmbiguousSourcerpm = fmt.Errorf("more than one source package matches sourcerpm")

	// Config errors are related to configuration file loading and
	// validation.

	// ErrEmptyConfigPath is returned when the config file path is empty.
	ErrEmptyConfigPath = fmt.Errorf("config file path cannot be empty")

	// ErrConfigParse is returned when the config file cannot be parsed.
	ErrConfigParse = fmt.Errorf("failed to parse config")

	// ErrConfigValidation is returned when configuration values fail
	// validation.
	ErrConfigValidation = fmt.Errorf("invalid configuration")

	// ErrEmptyRepositoryName is returned when a repository entry is
	// missing a name.
	ErrEmptyRepositoryName = fmt.Errorf("repository name cannot be empty")

	// ErrEmptyRepositoryPath is returned when a repository entry is
	// missing a path.
	ErrEmptyRepositoryPath = fmt.Errorf("repository path cannot be empty")

	// CLI errors help users correct their command usage.

	// ErrNoRepositories is returned when no repositories are configured
	// and an operation requires at least one.
	ErrNoRepositories = fmt.Errorf("no repositories configured")

	// ErrNoPackagesSpecified is returned when a command requires package
	// arguments but none were provided.
	ErrNoPackagesSpecified = fmt.Errorf("no packages specified")
)

// Wrap wraps an error with additional context. If the error is nil, Wrap
// returns nil.
//
// Example:
//
//	if err := someOperation(); err != nil {
//	    return errors.Wrap(err, "failed to perform operation")
//	}
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context. If the error is
// nil, Wrapf returns nil.
//
// Example:
//
//	if err := someOperation(); err != nil {
//	    return errors.Wrapf(err, "failed to process %s", "some value")
//	}
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// ErrInvalidRepoPathWithPath is a helper to create a wrapped error with the
// offending repository path.
func ErrInvalidRepoPathWithPath(path string) error {
	return fmt.Errorf("%w: %q", ErrInvalidRepoPath, path)
}

// ErrEmptyRepositoryNameWithIndex is a helper to create a wrapped error with
// the repository's position in the configuration.
func ErrEmptyRepositoryNameWithIndex(i int) error {
	return fmt.Errorf("repository %d: %w", i, ErrEmptyRepositoryName)
}

// ErrEmptyRepositoryPathWithName is a helper to create a wrapped error with
// the repository name.
func ErrEmptyRepositoryPathWithName(name string) error {
	return fmt.Errorf("repository %q: %w", name, ErrEmptyRepositoryPath)
}
