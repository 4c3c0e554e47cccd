// Package sack maintains the universe of packages known across all loaded
// repositories. It parses repository metadata into package objects and
// answers filtered queries, provider lookups and selector construction for
// the resolver.
package sack

import (
	"sort"

	"github.com/mgracik/alda/internal/logger"
	"github.com/mgracik/alda/pkg/model"
	"github.com/mgracik/alda/pkg/repo"
)

// Sack is the queryable union of all loaded repositories. It is read-only
// once loading is finished.
type Sack struct {
	arch       string
	compatible map[string]struct{}

	packages      []*model.Package
	byName        map[string][]*model.Package
	providers     map[string][]*model.Package
	fileProviders map[string][]*model.Package
}

// New creates an empty sack. When arch is nonempty, only packages of
// compatible architectures (plus noarch and src) are loaded.
func New(arch string) *Sack {
	return &Sack{
		arch:          arch,
		compatible:    compatibleArches(arch),
		byName:        make(map[string][]*model.Package),
		providers:     make(map[string][]*model.Package),
		fileProviders: make(map[string][]*model.Package),
	}
}

// Arch returns the target architecture restriction, if any.
func (s *Sack) Arch() string {
	return s.arch
}

// Load parses one repository's metadata into the sack. loadFilelists
// additionally loads per-package file lists so file-path dependencies
// resolve; buildCache writes a parsed-form cache next to the primary payload
// (best effort).
func (s *Sack) Load(md repo.Metadata, reponame string, loadFilelists, buildCache bool) error {
	packages, cached, err := loadPrimary(md.Primary, reponame)
	if err != nil {
		return err
	}

	if loadFilelists {
		files, err := parseFilelistsFile(md.Filelists)
		if err != nil {
			return err
		}
		for _, pkg := range packages {
			if extra := files[pkg.String()]; len(extra) > 0 {
				pkg.Files = mergeFiles(pkg.Files, extra)
			}
		}
	}

	if buildCache && !cached {
		writeCache(md.Primary, packages)
	}

	for _, pkg := range packages {
		if !s.archCompatible(pkg.Arch) {
			continue
		}
		s.index(pkg)
	}
	logger.Debugf("loaded %d packages from repo %s", len(packages), reponame)
	return nil
}

func (s *Sack) index(pkg *model.Package) {
	s.packages = append(s.packages, pkg)
	s.byName[pkg.Name] = append(s.byName[pkg.Name], pkg)

	// Source packages do not act as providers.
	if pkg.IsSource() {
		return
	}
	provides := pkg.Provides
	if !hasSelfProvide(pkg) {
		provides = append(provides, model.Depend{
			Name:    pkg.Name,
			Flags:   model.DepFlagEQ,
			Epoch:   pkg.Epoch,
			Version: pkg.Version,
			Release: pkg.Release,
		})
	}
	pkg.Provides = provides
	for _, prov := range provides {
		s.providers[prov.Name] = append(s.providers[prov.Name], pkg)
	}
	for _, file := range pkg.Files {
		s.fileProviders[file] = append(s.fileProviders[file], pkg)
	}
}

// WhatProvides returns the packages satisfying a dependency entry, by
// capability name or owned file path.
func (s *Sack) WhatProvides(dep model.Depend) []*model.Package {
	if dep.IsFile() {
		return append([]*model.Package(nil), s.fileProviders[dep.Name]...)
	}
	var result []*model.Package
	for _, pkg := range s.providers[dep.Name] {
		for _, prov := range pkg.Provides {
			if prov.Satisfies(dep) {
				result = append(result, pkg)
				break
			}
		}
	}
	return result
}

// NewSelector constructs an install selector. The request tag defaults to
// the selector's string form; callers may override it for accounting.
func (s *Sack) NewSelector(name, arch string) *model.Selector {
	sel := &model.Selector{Name: name, Arch: arch}
	sel.Request = model.PackageRef{Name: name, Arch: arch}.String()
	return sel
}

// ListArches returns the sorted set of architectures present in the sack,
// including the target architecture when one was set.
func (s *Sack) ListArches() []string {
	seen := make(map[string]struct{})
	if s.arch != "" {
		seen[s.arch] = struct{}{}
	}
	for _, pkg := range s.packages {
		seen[pkg.Arch] = struct{}{}
	}
	arches := make([]string, 0, len(seen))
	for arch := range seen {
		arches = append(arches, arch)
	}
	sort.Strings(arches)
	return arches
}

func (s *Sack) archCompatible(arch string) bool {
	if s.compatible == nil {
		return true
	}
	_, ok := s.compatible[arch]
	return ok
}

// compatibleArches maps a target architecture to the set of loadable
// package architectures. noarch and src always load.
func compatibleArches(arch string) map[string]struct{} {
	if arch == "" {
		return nil
	}
	compat := map[string]struct{}{
		arch:             {},
		"noarch":         {},
		model.SourceArch: {},
	}
	multilib := map[string][]string{
		"x86_64":  {"i686", "i586", "i486", "i386"},
		"i686":    {"i586", "i486", "i386"},
		"aarch64": {},
		"ppc64le": {},
		"s390x":   {},
	}
	for _, extra := range multilib[arch] {
		compat[extra] = struct{}{}
	}
	return compat
}

func hasSelfProvide(pkg *model.Package) bool {
	for _, prov := range pkg.Provides {
		if prov.Name == pkg.Name {
			return true
		}
	}
	return false
}

func mergeFiles(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base)+len(extra))
	merged := make([]string, 0, len(base)+len(extra))
	for _, file := range base {
		if _, ok := seen[file]; !ok {
			seen[file] = struct{}{}
			merged = append(merged, file)
		}
	}
	for _, file := range extra {
		if _, ok := seen[file]; !ok {
			seen[file] = struct{}{}
			merged = append(merged, file)
		}
	}
	return merged
}
