package sack

import (
	"strings"

	"github.com/mgracik/alda/pkg/model"
)

// Query is a conjunctive filter over the sack. Filters chain by value, so a
// partially built query can be reused:
//
//	q := s.Query().Name("dummy-bash")
//	binaries := q.Arch("x86_64").Run()
//	sources := q.Arch("src").Run()
type Query struct {
	sack *Sack

	name       string
	arch       string
	sourcerpm  string
	nameSubstr string

	hasName      bool
	hasArch      bool
	hasSourcerpm bool
	hasSubstr    bool
}

// Query starts a new query over the sack.
func (s *Sack) Query() Query {
	return Query{sack: s}
}

// Name filters by exact package name.
func (q Query) Name(name string) Query {
	q.name = name
	q.hasName = true
	return q
}

// Arch filters by exact architecture.
func (q Query) Arch(arch string) Query {
	q.arch = arch
	q.hasArch = true
	return q
}

// Sourcerpm filters by exact sourcerpm filename.
func (q Query) Sourcerpm(sourcerpm string) Query {
	q.sourcerpm = sourcerpm
	q.hasSourcerpm = true
	return q
}

// NameSubstr filters by substring on the package name.
func (q Query) NameSubstr(substr string) Query {
	q.nameSubstr = substr
	q.hasSubstr = true
	return q
}

// Run evaluates the query. Result order is unspecified; callers sort where
// determinism is observable.
func (q Query) Run() []*model.Package {
	candidates := q.sack.packages
	if q.hasName {
		candidates = q.sack.byName[q.name]
	}
	var result []*model.Package
	for _, pkg := range candidates {
		if q.matches(pkg) {
			result = append(result, pkg)
		}
	}
	return result
}

// Count returns the number of matching packages.
func (q Query) Count() int {
	return len(q.Run())
}

func (q Query) matches(pkg *model.Package) bool {
	if q.hasName && pkg.Name != q.name {
		return false
	}
	if q.hasArch && pkg.Arch != q.arch {
		return false
	}
	if q.hasSourcerpm && pkg.Sourcerpm != q.sourcerpm {
		return false
	}
	if q.hasSubstr && !strings.Contains(pkg.Name, q.nameSubstr) {
		return false
	}
	return true
}
