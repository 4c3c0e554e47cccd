package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgracik/alda/pkg/errors"
)

func TestPackageRefString(t *testing.T) {
	assert.Equal(t, "dummy-bash", PackageRef{Name: "dummy-bash"}.String())
	assert.Equal(t, "dummy-bash.x86_64", PackageRef{Name: "dummy-bash", Arch: "x86_64"}.String())
}

func TestPackageRefMatches(t *testing.T) {
	pkg := &Package{Name: "dummy-bash", Arch: "x86_64"}

	assert.True(t, PackageRef{Name: "dummy-bash"}.Matches(pkg))
	assert.True(t, PackageRef{Name: "dummy-bash", Arch: "x86_64"}.Matches(pkg))
	assert.False(t, PackageRef{Name: "dummy-bash", Arch: "i686"}.Matches(pkg))
	assert.False(t, PackageRef{Name: "dummy-sh"}.Matches(pkg))
}

func TestPackageString(t *testing.T) {
	pkg := &Package{Name: "dummy-bash", Arch: "x86_64", Version: "4.2.24", Release: "2"}
	assert.Equal(t, "dummy-bash-4.2.24-2.x86_64", pkg.String())

	withEpoch := &Package{Name: "dummy-tar", Arch: "noarch", Epoch: 2, Version: "1.26", Release: "4"}
	assert.Equal(t, "dummy-tar-2:1.26-4.noarch", withEpoch.String())
}

func TestPackageIsSource(t *testing.T) {
	assert.True(t, (&Package{Arch: "src"}).IsSource())
	assert.False(t, (&Package{Arch: "noarch"}).IsSource())
}

func TestCompareEVR(t *testing.T) {
	assert.Equal(t, 0, CompareEVR(0, "1.0", "1", 0, "1.0", "1"))
	assert.Equal(t, -1, CompareEVR(0, "1.0", "1", 0, "1.1", "1"))
	assert.Equal(t, 1, CompareEVR(0, "1.10", "1", 0, "1.9", "1"))
	assert.Equal(t, -1, CompareEVR(0, "1.0", "1", 1, "0.1", "1"))
	assert.Equal(t, 1, CompareEVR(0, "1.0", "2", 0, "1.0", "1"))
}

func TestDependSatisfies(t *testing.T) {
	prov := Depend{Name: "lib", Flags: DepFlagEQ, Version: "2.0", Release: "1"}

	assert.True(t, prov.Satisfies(Depend{Name: "lib"}))
	assert.True(t, prov.Satisfies(Depend{Name: "lib", Flags: DepFlagGE, Version: "1.5", Release: "1"}))
	assert.True(t, prov.Satisfies(Depend{Name: "lib", Flags: DepFlagEQ, Version: "2.0", Release: "1"}))
	assert.False(t, prov.Satisfies(Depend{Name: "lib", Flags: DepFlagGT, Version: "2.0", Release: "1"}))
	assert.False(t, prov.Satisfies(Depend{Name: "other"}))
}

func TestDependString(t *testing.T) {
	assert.Equal(t, "lib", Depend{Name: "lib"}.String())
	assert.Equal(t, "lib >= 2.0-1", Depend{Name: "lib", Flags: DepFlagGE, Version: "2.0", Release: "1"}.String())
}

func TestDependClassification(t *testing.T) {
	assert.True(t, Depend{Name: "/bin/sh"}.IsFile())
	assert.False(t, Depend{Name: "bash"}.IsFile())
	assert.True(t, Depend{Name: "rpmlib(PayloadIsXz)"}.IsRpmlib())
}

func TestSplitSourcerpm(t *testing.T) {
	name, ver, rel, err := SplitSourcerpm("dummy-bash-4.2.24-2.src.rpm")
	require.NoError(t, err)
	assert.Equal(t, "dummy-bash", name)
	assert.Equal(t, "4.2.24", ver)
	assert.Equal(t, "2", rel)
}

func TestSplitSourcerpmMalformed(t *testing.T) {
	for _, sourcerpm := range []string{"dummy-bash-4.2.24-2.rpm", "noversion.src.rpm", "a-1.src.rpm"} {
		_, _, _, err := SplitSourcerpm(sourcerpm)
		assert.ErrorIs(t, err, errors.ErrMalformedSourcerpm, sourcerpm)
	}
}

func TestRequestString(t *testing.T) {
	assert.Equal(t, "dummy-bash", RequestString("dummy-bash"))

	pkg := &Package{Name: "dummy-bash", Arch: "x86_64", Version: "4.2.24", Release: "2"}
	assert.Equal(t, "dummy-bash-4.2.24-2.x86_64", RequestString(pkg))

	sel := &Selector{Name: "dummy-bash", Arch: "x86_64", Request: pkg}
	assert.Equal(t, "dummy-bash-4.2.24-2.x86_64", sel.RequestString())
}
