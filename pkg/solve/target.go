package solve

import (
	"github.com/mgracik/alda/pkg/model"
	"github.com/mgracik/alda/pkg/sack"
)

// InstallTarget is an install request accepted by a Goal: the result set of
// a query, a single package, or a selector. The variant is sealed so the
// dispatch in Install is exhaustive.
type InstallTarget interface {
	installTarget()
}

// QueryTarget installs every package matching a query.
type QueryTarget struct {
	Query sack.Query
}

// PackageTarget installs one concrete package.
type PackageTarget struct {
	Package *model.Package
}

// SelectorTarget installs the best candidate matching a selector.
type SelectorTarget struct {
	Selector *model.Selector
}

func (QueryTarget) installTarget()    {}
func (PackageTarget) installTarget()  {}
func (SelectorTarget) installTarget() {}
