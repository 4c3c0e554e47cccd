// Package solve implements the depsolve transaction used by the closure
// engine. A Goal collects install targets, resolves their dependency closure
// against the sack and exposes either the install list or the problems that
// made the transaction unsolvable.
//
// The resolver performs unit propagation over RPM requires/provides: within
// one solution every dependency picks a single, deterministically chosen
// provider. Alternative solutions, enumerated by RunAll for greedy mode,
// derive from the distinct candidate sets of the goal's selectors.
package solve

import (
	"fmt"
	"sort"

	"github.com/mgracik/alda/pkg/model"
	"github.com/mgracik/alda/pkg/sack"
)

// Goal is one depsolve transaction bound to a sack. Install targets are
// accumulated first; Run or RunAll then attempts the solve. A goal whose
// problems are nonempty is terminal for that attempt.
type Goal struct {
	sack *sack.Sack

	requests    []any
	requestSeen map[string]struct{}
	roots       []root

	installs []*model.Package
	problems []string
}

// root is one install request to satisfy: either a fixed package or a
// selector whose candidates are resolved at solve time.
type root struct {
	pkg      *model.Package
	selector *model.Selector
}

// NewGoal creates an empty goal over the sack.
func NewGoal(s *sack.Sack) *Goal {
	return &Goal{
		sack:        s,
		requestSeen: make(map[string]struct{}),
	}
}

// Install adds an install target. All targets are accumulated before the
// solve runs.
func (g *Goal) Install(target InstallTarget) {
	switch t := target.(type) {
	case QueryTarget:
		for _, pkg := range t.Query.Run() {
			g.addRequest(pkg)
			g.roots = append(g.roots, root{pkg: pkg})
		}
	case PackageTarget:
		g.addRequest(t.Package)
		g.roots = append(g.roots, root{pkg: t.Package})
	case SelectorTarget:
		g.addRequest(t.Selector.Request)
		g.roots = append(g.roots, root{selector: t.Selector})
	}
}

func (g *Goal) addRequest(request any) {
	key := model.RequestString(request)
	if _, ok := g.requestSeen[key]; ok {
		return
	}
	g.requestSeen[key] = struct{}{}
	g.requests = append(g.requests, request)
}

// Run attempts the depsolve once. It returns whether a solution was found;
// on false, Problems is nonempty.
func (g *Goal) Run() bool {
	candidates, ok := g.resolveRoots()
	if !ok {
		return false
	}
	picks := make([]*model.Package, len(candidates))
	for i, alternatives := range candidates {
		picks[i] = alternatives[0]
	}
	installs, problems := g.solve(picks)
	if len(problems) > 0 {
		g.problems = append(g.problems, problems...)
		return false
	}
	g.installs = installs
	return true
}

// RunAll enumerates alternative solutions and invokes cb for each, used in
// greedy mode. Alternatives are the cartesian combinations of each
// selector's candidate set. Combinations that do not solve contribute their
// problems only if no combination solves.
func (g *Goal) RunAll(cb func(*Goal) error) error {
	candidates, ok := g.resolveRoots()
	if !ok {
		return nil
	}

	var failures []string
	solved := false
	for _, picks := range combinations(candidates) {
		installs, problems := g.solve(picks)
		if len(problems) > 0 {
			failures = append(failures, problems...)
			continue
		}
		solved = true
		g.installs = installs
		if err := cb(g); err != nil {
			return err
		}
	}
	if !solved {
		g.problems = append(g.problems, failures...)
	}
	return nil
}

// ListInstalls returns the install set of the last successful solve, in
// ascending string order.
func (g *Goal) ListInstalls() []*model.Package {
	installs := append([]*model.Package(nil), g.installs...)
	sort.Slice(installs, func(i, j int) bool { return installs[i].String() < installs[j].String() })
	return installs
}

// Problems returns the diagnostic strings of a failed solve.
func (g *Goal) Problems() []string {
	return g.problems
}

// InstallRequests returns the originally submitted identities: package
// objects for package and query targets, request tags for selectors.
func (g *Goal) InstallRequests() []any {
	return g.requests
}

// InstallRequestsAsStrings returns the sorted string forms of the submitted
// identities.
func (g *Goal) InstallRequestsAsStrings() []string {
	strs := make([]string, 0, len(g.requests))
	for _, request := range g.requests {
		strs = append(strs, model.RequestString(request))
	}
	sort.Strings(strs)
	return strs
}

// resolveRoots expands every root into its candidate list, best candidate
// first. A selector with no candidates fails the goal.
func (g *Goal) resolveRoots() ([][]*model.Package, bool) {
	candidates := make([][]*model.Package, 0, len(g.roots))
	for _, r := range g.roots {
		if r.pkg != nil {
			candidates = append(candidates, []*model.Package{r.pkg})
			continue
		}
		alternatives := g.selectorCandidates(r.selector)
		if len(alternatives) == 0 {
			g.problems = append(g.problems,
				fmt.Sprintf("no package matches request %s", r.selector.RequestString()))
			return nil, false
		}
		candidates = append(candidates, alternatives)
	}
	return candidates, true
}

// selectorCandidates lists the installable packages matching a selector.
// Source packages are not candidates unless explicitly selected by arch.
func (g *Goal) selectorCandidates(sel *model.Selector) []*model.Package {
	query := g.sack.Query().Name(sel.Name)
	if sel.Arch != "" {
		query = query.Arch(sel.Arch)
	}
	var candidates []*model.Package
	for _, pkg := range query.Run() {
		if pkg.IsSource() && sel.Arch != model.SourceArch {
			continue
		}
		candidates = append(candidates, pkg)
	}
	g.sortCandidates(candidates, nil)
	return candidates
}

// solve computes the dependency closure of the picked roots. It returns the
// install set, or the problems preventing a solution.
func (g *Goal) solve(picks []*model.Package) ([]*model.Package, []string) {
	installed := make(map[string]*model.Package)
	var order []*model.Package
	var problems []string

	queue := append([]*model.Package(nil), picks...)
	for len(queue) > 0 {
		pkg := queue[0]
		queue = queue[1:]
		if _, ok := installed[pkg.ID()]; ok {
			continue
		}
		installed[pkg.ID()] = pkg
		order = append(order, pkg)

		for _, req := range pkg.Requires {
			if req.IsRpmlib() {
				continue
			}
			if satisfiedBy(order, req) {
				continue
			}
			providers := g.sack.WhatProvides(req)
			if len(providers) == 0 {
				problems = append(problems,
					fmt.Sprintf("nothing provides %s needed by %s", req.String(), pkg.String()))
				continue
			}
			queue = append(queue, g.bestProvider(providers, pkg))
		}
	}

	if len(problems) > 0 {
		return nil, problems
	}
	return order, nil
}

// satisfiedBy reports whether an already-installed package satisfies the
// dependency.
func satisfiedBy(installed []*model.Package, req model.Depend) bool {
	for _, pkg := range installed {
		if req.IsFile() {
			for _, file := range pkg.Files {
				if file == req.Name {
					return true
				}
			}
			continue
		}
		for _, prov := range pkg.Provides {
			if prov.Satisfies(req) {
				return true
			}
		}
	}
	return false
}

// bestProvider picks the provider for a dependency. The choice is
// deterministic: exact requester-arch match wins, then the sack's target
// arch, then noarch, then the highest EVR, then the smallest string form.
func (g *Goal) bestProvider(providers []*model.Package, requester *model.Package) *model.Package {
	candidates := append([]*model.Package(nil), providers...)
	g.sortCandidates(candidates, requester)
	return candidates[0]
}

func (g *Goal) sortCandidates(candidates []*model.Package, requester *model.Package) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if as, bs := g.archScore(a, requester), g.archScore(b, requester); as != bs {
			return as > bs
		}
		if c := a.Compare(b); c != 0 {
			return c > 0
		}
		return a.String() < b.String()
	})
}

func (g *Goal) archScore(pkg *model.Package, requester *model.Package) int {
	switch {
	case requester != nil && pkg.Arch == requester.Arch:
		return 3
	case g.sack.Arch() != "" && pkg.Arch == g.sack.Arch():
		return 2
	case pkg.Arch == "noarch":
		return 1
	default:
		return 0
	}
}

// combinations expands candidate lists into their cartesian product.
func combinations(candidates [][]*model.Package) [][]*model.Package {
	combos := [][]*model.Package{{}}
	for _, alternatives := range candidates {
		var next [][]*model.Package
		for _, combo := range combos {
			for _, pick := range alternatives {
				extended := append(append([]*model.Package(nil), combo...), pick)
				next = append(next, extended)
			}
		}
		combos = next
	}
	return combos
}
