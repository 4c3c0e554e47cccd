// Package model provides the data structures shared by the alda dependency
// analyzer: package references, package objects loaded from repository
// metadata, RPM dependency entries and install selectors.
package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-version"
)

// SourceArch is the architecture string marking a source RPM.
const SourceArch = "src"

// PackageRef is a user-supplied package request. Arch is optional; an empty
// string means any architecture.
type PackageRef struct {
	Name string
	Arch string
}

// NewPackageRef creates a reference with an optional architecture.
func NewPackageRef(name, arch string) PackageRef {
	return PackageRef{Name: name, Arch: arch}
}

// String renders the reference as "name.arch", or just "name" when no
// architecture was given.
func (r PackageRef) String() string {
	if r.Arch != "" {
		return r.Name + "." + r.Arch
	}
	return r.Name
}

// Matches reports whether the reference matches the package by name, and by
// architecture when the reference specifies one.
func (r PackageRef) Matches(p *Package) bool {
	return p.Name == r.Name && (r.Arch == "" || p.Arch == r.Arch)
}

// DepFlag is an RPM dependency comparison operator.
type DepFlag string

// Comparison operators as they appear in repository metadata.
const (
	DepFlagAny DepFlag = ""
	DepFlagEQ  DepFlag = "EQ"
	DepFlagLT  DepFlag = "LT"
	DepFlagLE  DepFlag = "LE"
	DepFlagGT  DepFlag = "GT"
	DepFlagGE  DepFlag = "GE"
)

// Depend is a single provides/requires entry. Name may be a capability name
// or an absolute file path.
type Depend struct {
	Name    string
	Flags   DepFlag
	Epoch   int
	Version string
	Release string
}

// IsFile reports whether the dependency names a file path.
func (d Depend) IsFile() bool {
	return strings.HasPrefix(d.Name, "/")
}

// IsRpmlib reports whether the dependency is an rpmlib() feature marker,
// which carries no package-level provider.
func (d Depend) IsRpmlib() bool {
	return strings.HasPrefix(d.Name, "rpmlib(")
}

// String renders the entry as "name", or "name OP evr" for versioned entries.
func (d Depend) String() string {
	if d.Flags == DepFlagAny {
		return d.Name
	}
	op := map[DepFlag]string{
		DepFlagEQ: "=", DepFlagLT: "<", DepFlagLE: "<=",
		DepFlagGT: ">", DepFlagGE: ">=",
	}[d.Flags]
	return fmt.Sprintf("%s %s %s", d.Name, op, formatEVR(d.Epoch, d.Version, d.Release))
}

// Package is a package object produced by the sack from loaded repository
// metadata. Two packages are the same iff their full NEVRA and repository
// match.
type Package struct {
	Name      string
	Arch      string
	Epoch     int
	Version   string
	Release   string
	Sourcerpm string
	Location  string
	Reponame  string

	Provides []Depend
	Requires []Depend
	Files    []string
}

// EVR renders the epoch-version-release, omitting a zero epoch.
func (p *Package) EVR() string {
	return formatEVR(p.Epoch, p.Version, p.Release)
}

// String renders the package as "name-evr.arch".
func (p *Package) String() string {
	return fmt.Sprintf("%s-%s.%s", p.Name, p.EVR(), p.Arch)
}

// ID is the package identity: NEVRA plus originating repository.
func (p *Package) ID() string {
	return p.String() + "@" + p.Reponame
}

// IsSource reports whether the package is a source RPM.
func (p *Package) IsSource() bool {
	return p.Arch == SourceArch
}

// Selector is an install target for a resolver goal. Request is the
// accounting tag recorded against the goal: a string for user requests, a
// *Package for subpackage expansion.
type Selector struct {
	Name    string
	Arch    string
	Request any
}

// RequestString renders the selector's request tag.
func (s *Selector) RequestString() string {
	return RequestString(s.Request)
}

// RequestString renders a goal request identity, which is either a plain
// string or a *Package.
func RequestString(request any) string {
	switch r := request.(type) {
	case string:
		return r
	case *Package:
		return r.String()
	default:
		return fmt.Sprintf("%v", r)
	}
}

func formatEVR(epoch int, ver, rel string) string {
	evr := ver + "-" + rel
	if epoch != 0 {
		evr = strconv.Itoa(epoch) + ":" + evr
	}
	return evr
}

// CompareEVR orders two epoch-version-release triples. Epochs compare
// numerically; version and release compare segment-wise, falling back to a
// plain string comparison when a segment does not parse.
func CompareEVR(aEpoch int, aVer, aRel string, bEpoch int, bVer, bRel string) int {
	if aEpoch != bEpoch {
		if aEpoch < bEpoch {
			return -1
		}
		return 1
	}
	if c := compareVersionPart(aVer, bVer); c != 0 {
		return c
	}
	return compareVersionPart(aRel, bRel)
}

// Compare orders two packages by EVR.
func (p *Package) Compare(other *Package) int {
	return CompareEVR(p.Epoch, p.Version, p.Release, other.Epoch, other.Version, other.Release)
}

// Satisfies reports whether a provided entry satisfies a required entry of
// the same name.
func (prov Depend) Satisfies(req Depend) bool {
	if prov.Name != req.Name {
		return false
	}
	if req.Flags == DepFlagAny || prov.Flags == DepFlagAny {
		return true
	}
	c := CompareEVR(prov.Epoch, prov.Version, prov.Release, req.Epoch, req.Version, req.Release)
	switch req.Flags {
	case DepFlagEQ:
		return c == 0
	case DepFlagLT:
		return c < 0
	case DepFlagLE:
		return c <= 0
	case DepFlagGT:
		return c > 0
	case DepFlagGE:
		return c >= 0
	}
	return false
}

func compareVersionPart(a, b string) int {
	if a == b {
		return 0
	}
	av, aerr := version.NewVersion(a)
	bv, berr := version.NewVersion(b)
	if aerr == nil && berr == nil {
		return av.Compare(bv)
	}
	return strings.Compare(a, b)
}
