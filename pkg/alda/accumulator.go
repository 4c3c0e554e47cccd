package alda

import (
	"sort"
	"strings"

	"github.com/mgracik/alda/internal/logger"
	"github.com/mgracik/alda/pkg/errors"
	"github.com/mgracik/alda/pkg/model"
	"github.com/mgracik/alda/pkg/sack"
	"github.com/mgracik/alda/pkg/solve"
)

// descriptorSep joins multi-request descriptors. The elements remain
// individually addressable for skiplist membership tests.
const descriptorSep = "\x1f"

// Accumulator is the closure engine. It owns the growing result set and
// integrates resolver goals into it, spawning further goals for build
// dependencies and sibling subpackages according to the options. All
// mutation is single-threaded; nested updates run to completion before
// their parent frame resumes.
type Accumulator struct {
	options Options

	sack     *sack.Sack
	excludes []model.PackageRef

	data map[string]*model.Package

	activeRequests [][]string
	maxRequests    int

	solved   map[string]struct{}
	problems map[string]struct{}
}

// NewAccumulator creates an empty accumulator with the given expansion
// policy.
func NewAccumulator(options Options) *Accumulator {
	return &Accumulator{
		options:  options,
		data:     make(map[string]*model.Package),
		solved:   make(map[string]struct{}),
		problems: make(map[string]struct{}),
	}
}

// SetSack binds the accumulator to a loaded sack. One-time.
func (a *Accumulator) SetSack(s *sack.Sack) {
	a.sack = s
}

// SetExcludes installs the exclude filters. A package matches an exclude by
// name, and by arch when the exclude specifies one.
func (a *Accumulator) SetExcludes(excludes []model.PackageRef) {
	a.excludes = excludes
}

// Update integrates a goal into the accumulator. In greedy mode every
// alternative solution is ingested; otherwise only the first. A goal that
// reports problems is not an error here; the caller records its identity so
// the skiplist blocks further recursion through it.
func (a *Accumulator) Update(goal *solve.Goal) error {
	if a.options.Greedy {
		return goal.RunAll(a.newSolutionCb)
	}
	if goal.Run() {
		return a.newSolutionCb(goal)
	}
	return nil
}

// newSolutionCb ingests one solution. The goal's request frame is pushed
// onto the active stack for the duration of the expansion and its
// descriptor recorded as solved afterwards.
func (a *Accumulator) newSolutionCb(goal *solve.Goal) error {
	requests := goal.InstallRequestsAsStrings()
	a.activeRequests = append(a.activeRequests, requests)
	if len(a.activeRequests) > a.maxRequests {
		a.maxRequests = len(a.activeRequests)
	}
	defer func() {
		a.activeRequests = a.activeRequests[:len(a.activeRequests)-1]
	}()

	if err := a.addSolution(goal); err != nil {
		return err
	}

	logger.Debugf("%v: request solved", requests)
	a.solved[strings.Join(requests, descriptorSep)] = struct{}{}
	return nil
}

// addSolution adds a goal's install list to the result set and expands each
// new package into its related artifacts.
func (a *Accumulator) addSolution(goal *solve.Goal) error {
	newPackages := a.subtractData(goal.ListInstalls())
	if len(newPackages) == 0 {
		logger.Debugf("%v: no new packages to add", a.LastRequest())
		return nil
	}

	// An exclude hit drops the entire candidate set of this frame.
	for _, pkg := range newPackages {
		for _, exclude := range a.excludes {
			if exclude.Matches(pkg) {
				logger.Warnf("%v: package '%s' in exclude list", a.LastRequest(), pkg)
				return nil
			}
		}
	}

	if !a.options.Source {
		filtered := newPackages[:0]
		for _, pkg := range newPackages {
			if !pkg.IsSource() {
				filtered = append(filtered, pkg)
			}
		}
		newPackages = filtered
	}

	for _, pkg := range newPackages {
		a.data[pkg.ID()] = pkg
	}

	sort.Slice(newPackages, func(i, j int) bool {
		return newPackages[i].String() < newPackages[j].String()
	})
	for _, pkg := range newPackages {
		logger.Debugf("added %s", pkg)
		if err := a.expand(pkg); err != nil {
			return err
		}
	}
	return nil
}

// expand adds the artifacts related to one newly added package: its source
// RPM, build dependencies, debuginfo and sibling subpackages, as enabled by
// the options.
func (a *Accumulator) expand(pkg *model.Package) error {
	srpm, err := a.findSrpm(pkg)
	if err != nil {
		return err
	}
	if srpm != nil && !a.inData(srpm) {
		if a.options.Source {
			a.data[srpm.ID()] = srpm
			logger.Debugf("added srpm %s", srpm)
		}
		if a.options.Selfhosting && !a.inSkiplist(srpm.String()) {
			if err := a.expandBuilddeps(srpm); err != nil {
				return err
			}
		}
	}

	if a.options.Debuginfo {
		a.expandDebuginfo(pkg)
	}

	if a.options.Fulltree {
		if err := a.expandSubpackages(pkg); err != nil {
			return err
		}
	}
	return nil
}

// expandBuilddeps resolves the build-time dependency closure of a source
// RPM with a fresh goal against this accumulator.
func (a *Accumulator) expandBuilddeps(srpm *model.Package) error {
	goal := solve.NewGoal(a.sack)
	goal.Install(solve.PackageTarget{Package: srpm})
	if err := a.Update(goal); err != nil {
		return err
	}
	if problems := goal.Problems(); len(problems) > 0 {
		logger.Errorf("encountered errors when getting builddeps for %s", srpm)
		for _, problem := range problems {
			logger.Error(problem)
		}
		a.problems[srpm.String()] = struct{}{}
	}
	return nil
}

// expandDebuginfo adds the -debuginfo subpackages matching a binary
// package's sourcerpm and arch.
func (a *Accumulator) expandDebuginfo(pkg *model.Package) {
	if pkg.Sourcerpm == "" {
		return
	}
	debuginfo := a.sack.Query().
		Sourcerpm(pkg.Sourcerpm).
		NameSubstr("-debuginfo").
		Arch(pkg.Arch).
		Run()
	sort.Slice(debuginfo, func(i, j int) bool {
		return debuginfo[i].String() < debuginfo[j].String()
	})
	for _, d := range debuginfo {
		if a.inData(d) {
			continue
		}
		a.data[d.ID()] = d
		logger.Debugf("added debuginfo %s", d)
	}
}

// expandSubpackages resolves each sibling subpackage of a package's source
// RPM with its own goal. Siblings already in the result set or in the
// skiplist are not retried.
func (a *Accumulator) expandSubpackages(pkg *model.Package) error {
	if pkg.Sourcerpm == "" {
		return nil
	}
	siblings := a.sack.Query().Sourcerpm(pkg.Sourcerpm).Run()
	sort.Slice(siblings, func(i, j int) bool {
		return siblings[i].String() < siblings[j].String()
	})
	for _, sibling := range siblings {
		if a.inData(sibling) || a.inSkiplist(sibling.String()) {
			continue
		}
		selector := a.sack.NewSelector(sibling.Name, sibling.Arch)
		selector.Request = sibling

		goal := solve.NewGoal(a.sack)
		goal.Install(solve.SelectorTarget{Selector: selector})
		if err := a.Update(goal); err != nil {
			return err
		}
		if problems := goal.Problems(); len(problems) > 0 {
			logger.Errorf("encountered errors when adding subpackage %s", selector.RequestString())
			for _, problem := range problems {
				logger.Error(problem)
			}
			a.problems[selector.RequestString()] = struct{}{}
		}
	}
	return nil
}

// findSrpm locates the source RPM of a binary package by the name recovered
// from its sourcerpm filename and the location suffix. At most one match
// must exist; nil is returned when the repositories do not carry it.
func (a *Accumulator) findSrpm(pkg *model.Package) (*model.Package, error) {
	if pkg.Sourcerpm == "" {
		return nil, nil
	}
	name, _, _, err := model.SplitSourcerpm(pkg.Sourcerpm)
	if err != nil {
		return nil, err
	}
	var matches []*model.Package
	for _, srpm := range a.sack.Query().Name(name).Arch(model.SourceArch).Run() {
		if strings.HasSuffix(srpm.Location, pkg.Sourcerpm) {
			matches = append(matches, srpm)
		}
	}
	if len(matches) > 1 {
		return nil, errors.Wrapf(errors.ErrAmbiguousSourcerpm, "%q", pkg.Sourcerpm)
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

// Data returns the result set, sorted by string form.
func (a *Accumulator) Data() []*model.Package {
	packages := make([]*model.Package, 0, len(a.data))
	for _, pkg := range a.data {
		packages = append(packages, pkg)
	}
	sort.Slice(packages, func(i, j int) bool { return packages[i].String() < packages[j].String() })
	return packages
}

// ActiveRequests returns the in-flight request frames, oldest first.
func (a *Accumulator) ActiveRequests() [][]string {
	return a.activeRequests
}

// LastRequest returns the innermost in-flight request frame, or nil.
func (a *Accumulator) LastRequest() []string {
	if len(a.activeRequests) == 0 {
		return nil
	}
	return a.activeRequests[len(a.activeRequests)-1]
}

// MaxRequests returns the high-water mark of the request stack depth.
func (a *Accumulator) MaxRequests() int {
	return a.maxRequests
}

// Solved returns the solved request descriptors.
func (a *Accumulator) Solved() []string {
	return sortedKeys(a.solved)
}

// Problems returns the identities of requests that failed to resolve.
func (a *Accumulator) Problems() []string {
	return sortedKeys(a.problems)
}

// Skiplist returns every identity named by a solved or failed request
// descriptor. A package is in the skiplist iff its string form appears
// here.
func (a *Accumulator) Skiplist() []string {
	seen := make(map[string]struct{})
	for descriptor := range a.solved {
		for _, element := range strings.Split(descriptor, descriptorSep) {
			seen[element] = struct{}{}
		}
	}
	for identity := range a.problems {
		seen[identity] = struct{}{}
	}
	return sortedKeys(seen)
}

func (a *Accumulator) inSkiplist(identity string) bool {
	if _, ok := a.problems[identity]; ok {
		return true
	}
	for descriptor := range a.solved {
		for _, element := range strings.Split(descriptor, descriptorSep) {
			if element == identity {
				return true
			}
		}
	}
	return false
}

func (a *Accumulator) inData(pkg *model.Package) bool {
	_, ok := a.data[pkg.ID()]
	return ok
}

func (a *Accumulator) subtractData(packages []*model.Package) []*model.Package {
	var result []*model.Package
	for _, pkg := range packages {
		if !a.inData(pkg) {
			result = append(result, pkg)
		}
	}
	return result
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
