// Package alda implements the dependency closure engine: the accumulator
// that grows the result set across resolver goals, and the orchestrator that
// loads repository metadata, runs user requests and exposes the results.
package alda

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/mgracik/alda/internal/logger"
	"github.com/mgracik/alda/pkg/errors"
	"github.com/mgracik/alda/pkg/model"
	"github.com/mgracik/alda/pkg/repo"
	"github.com/mgracik/alda/pkg/sack"
	"github.com/mgracik/alda/pkg/solve"
)

// ALDA computes the closure of package artifacts required to install a set
// of packages from the configured repositories.
type ALDA struct {
	repodict map[string]string
	options  Options
	fetcher  repo.Fetcher

	sack     *sack.Sack
	metadirs []string

	installs *Accumulator
	problems map[model.PackageRef]struct{}
}

// New creates an analyzer over a name-to-path repository map. The fetcher
// retrieves repository metadata; see repo.NewFetcher for the default.
func New(repodict map[string]string, options Options, fetcher repo.Fetcher) *ALDA {
	return &ALDA{
		repodict: repodict,
		options:  options,
		fetcher:  fetcher,
		installs: NewAccumulator(options),
		problems: make(map[model.PackageRef]struct{}),
	}
}

// LoadSack fetches the metadata of every configured repository and loads it
// into a fresh sack, optionally restricted to an architecture. Temporary
// metadata directories are tracked and removed when ResolveDependencies
// finishes.
func (a *ALDA) LoadSack(ctx context.Context, arch string, loadFilelists, buildCache bool) error {
	a.sack = sack.New(arch)

	for _, name := range sortedRepoNames(a.repodict) {
		path := a.repodict[name]
		logger.Infof("downloading repo metadata from %s", path)
		md, metadir, err := a.fetcher.Fetch(ctx, name, path)
		if err != nil {
			return err
		}
		if metadir != "" {
			a.metadirs = append(a.metadirs, metadir)
		}
		if err := a.sack.Load(md, name, loadFilelists, buildCache); err != nil {
			return err
		}
	}

	a.installs.SetSack(a.sack)
	return nil
}

// ResolveDependencies resolves the dependency closure of every requested
// package and accumulates the results. Requests with no matching packages
// are skipped with a warning; unsolvable requests are recorded in Problems.
// Temporary metadata directories are removed on all exit paths.
func (a *ALDA) ResolveDependencies(refs, excludes []model.PackageRef) error {
	defer a.Cleanup()

	if a.sack == nil {
		return errors.ErrSackNotLoaded
	}
	if len(excludes) > 0 {
		a.installs.SetExcludes(excludes)
	}

	sorted := append([]model.PackageRef(nil), refs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].String() < sorted[j].String() })

	for _, ref := range sorted {
		logger.Infof("resolving dependencies for %s", ref)

		query := a.sack.Query().Name(ref.Name)
		if ref.Arch != "" {
			query = query.Arch(ref.Arch)
		}
		if query.Count() == 0 {
			logger.Warnf("%s: package not found", ref)
			continue
		}

		goal := solve.NewGoal(a.sack)
		goal.Install(solve.SelectorTarget{Selector: a.selector(ref)})
		if err := a.installs.Update(goal); err != nil {
			return err
		}
		if problems := goal.Problems(); len(problems) > 0 {
			logger.Errorf("encountered errors when getting dependencies for %s", ref)
			for _, problem := range problems {
				logger.Error(problem)
			}
			a.problems[ref] = struct{}{}
		}
	}
	return nil
}

func (a *ALDA) selector(ref model.PackageRef) *model.Selector {
	sel := a.sack.NewSelector(ref.Name, ref.Arch)
	sel.Request = ref.String()
	return sel
}

// Cleanup removes the temporary metadata directories created by LoadSack.
// ResolveDependencies calls it on all exit paths; callers that never
// resolve must call it themselves.
func (a *ALDA) Cleanup() {
	for _, metadir := range a.metadirs {
		if err := os.RemoveAll(metadir); err != nil {
			logger.Warnf("could not remove metadata directory %s: %v", metadir, err)
		}
	}
	a.metadirs = nil
}

// Arches returns the architectures known to the loaded sack.
func (a *ALDA) Arches() []string {
	if a.sack == nil {
		return nil
	}
	return a.sack.ListArches()
}

// Installs returns the accumulated result set, sorted by string form.
func (a *ALDA) Installs() []*model.Package {
	return a.installs.Data()
}

// InstallsAsStrings returns the result set as "name-evr.arch" strings.
func (a *ALDA) InstallsAsStrings() []string {
	packages := a.Installs()
	strs := make([]string, 0, len(packages))
	for _, pkg := range packages {
		strs = append(strs, pkg.String())
	}
	return strs
}

// URLs returns the source URL of every accumulated package, joining the
// repository path with the package location.
func (a *ALDA) URLs() []string {
	packages := a.Installs()
	urls := make([]string, 0, len(packages))
	for _, pkg := range packages {
		urls = append(urls, joinRepoPath(a.repodict[pkg.Reponame], pkg.Location))
	}
	return urls
}

// Problems returns the requests that failed their top-level solve, sorted.
func (a *ALDA) Problems() []model.PackageRef {
	refs := make([]model.PackageRef, 0, len(a.problems))
	for ref := range a.problems {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].String() < refs[j].String() })
	return refs
}

// Accumulator exposes the underlying closure engine, mainly for inspection
// in tests and diagnostics.
func (a *ALDA) Accumulator() *Accumulator {
	return a.installs
}

func sortedRepoNames(repodict map[string]string) []string {
	names := make([]string, 0, len(repodict))
	for name := range repodict {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func joinRepoPath(repopath, location string) string {
	return strings.TrimSuffix(repopath, "/") + "/" + strings.TrimPrefix(location, "/")
}
