package alda

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgracik/alda/pkg/model"
	"github.com/mgracik/alda/pkg/repo"
	"github.com/mgracik/alda/pkg/sack"
	"github.com/mgracik/alda/pkg/solve"
)

func loadTestSack(t *testing.T, arch string) *sack.Sack {
	t.Helper()
	repodir, err := filepath.Abs(filepath.Join("testdata", "repo"))
	require.NoError(t, err)

	s := sack.New(arch)
	md := repo.Metadata{
		Repomd:    filepath.Join(repodir, "repodata", "repomd.xml"),
		Primary:   filepath.Join(repodir, "repodata", "primary.xml"),
		Filelists: filepath.Join(repodir, "repodata", "filelists.xml"),
	}
	require.NoError(t, s.Load(md, "alda-repo", true, false))
	return s
}

func newTestAccumulator(t *testing.T, options Options, arch string) *Accumulator {
	t.Helper()
	acc := NewAccumulator(options)
	acc.SetSack(loadTestSack(t, arch))
	return acc
}

func installName(s *sack.Sack, name string) *solve.Goal {
	goal := solve.NewGoal(s)
	sel := s.NewSelector(name, "")
	goal.Install(solve.SelectorTarget{Selector: sel})
	return goal
}

func dataStrings(acc *Accumulator) []string {
	strs := make([]string, 0, len(acc.Data()))
	for _, pkg := range acc.Data() {
		strs = append(strs, pkg.String())
	}
	return strs
}

func TestUpdateAddsSolution(t *testing.T) {
	acc := newTestAccumulator(t, DefaultOptions(), "x86_64")
	s := acc.sack

	require.NoError(t, acc.Update(installName(s, "dummy-bash")))

	assert.Equal(t, []string{
		"dummy-bash-4.2.24-2.src", "dummy-bash-4.2.24-2.x86_64",
		"dummy-bash-debuginfo-4.2.24-2.x86_64",
	}, dataStrings(acc))
	assert.Equal(t, []string{"dummy-bash"}, acc.Solved())
	assert.Empty(t, acc.Problems())
}

func TestUpdateFailedGoalTolerated(t *testing.T) {
	acc := newTestAccumulator(t, DefaultOptions(), "x86_64")
	goal := installName(acc.sack, "dummy-selinux-policy")

	require.NoError(t, acc.Update(goal))

	assert.Empty(t, acc.Data())
	assert.Empty(t, acc.Solved())
	assert.NotEmpty(t, goal.Problems())
}

func TestSolvedDescriptorShapes(t *testing.T) {
	acc := newTestAccumulator(t, DefaultOptions(), "x86_64")
	s := acc.sack

	// A single-request goal freezes to a bare string descriptor.
	require.NoError(t, acc.Update(installName(s, "dummy-setup")))
	assert.Equal(t, []string{"dummy-setup"}, acc.Solved())

	// A multi-request goal freezes to a tuple descriptor whose elements
	// remain individually visible in the skiplist.
	goal := solve.NewGoal(s)
	goal.Install(solve.SelectorTarget{Selector: s.NewSelector("dummy-bash", "")})
	goal.Install(solve.SelectorTarget{Selector: s.NewSelector("dummy-glibc", "")})
	require.NoError(t, acc.Update(goal))

	assert.Contains(t, acc.Skiplist(), "dummy-bash")
	assert.Contains(t, acc.Skiplist(), "dummy-glibc")
	assert.Contains(t, acc.Skiplist(), "dummy-setup")
}

func TestSkiplistBlocksBuilddepRetry(t *testing.T) {
	options := DefaultOptions()
	options.Selfhosting = true
	acc := newTestAccumulator(t, options, "x86_64")
	s := acc.sack

	require.NoError(t, acc.Update(installName(s, "dummy-basesystem")))
	solvedOnce := acc.Solved()

	// The basesystem srpm was solved during the first update; running a
	// goal that rediscovers it must not grow the solved set.
	require.NoError(t, acc.Update(installName(s, "dummy-basesystem")))
	assert.Equal(t, solvedOnce, acc.Solved())
	assert.Contains(t, acc.Skiplist(), "dummy-basesystem-10.0-6.src")
}

func TestSourceFilter(t *testing.T) {
	options := DefaultOptions()
	options.Source = false
	options.Selfhosting = true
	acc := newTestAccumulator(t, options, "x86_64")

	require.NoError(t, acc.Update(installName(acc.sack, "dummy-basesystem")))
	for _, pkg := range acc.Data() {
		assert.NotEqual(t, model.SourceArch, pkg.Arch)
	}
}

func TestExcludeAbortsFrame(t *testing.T) {
	acc := newTestAccumulator(t, DefaultOptions(), "x86_64")
	acc.SetExcludes([]model.PackageRef{{Name: "dummy-setup", Arch: "noarch"}})

	require.NoError(t, acc.Update(installName(acc.sack, "dummy-basesystem")))

	// The frame is dropped entirely, but the request still counts as
	// solved so it is not retried.
	assert.Empty(t, acc.Data())
	assert.Equal(t, []string{"dummy-basesystem"}, acc.Solved())
}

func TestMaxRequestsHighWater(t *testing.T) {
	options := DefaultOptions()
	options.Selfhosting = true
	acc := newTestAccumulator(t, options, "x86_64")

	require.NoError(t, acc.Update(installName(acc.sack, "dummy-basesystem")))

	// Builddep expansion nests at least one frame below the top-level
	// request.
	assert.GreaterOrEqual(t, acc.MaxRequests(), 2)
	assert.Empty(t, acc.ActiveRequests())
}

func TestFindSrpmMalformed(t *testing.T) {
	acc := newTestAccumulator(t, DefaultOptions(), "x86_64")
	pkg := &model.Package{Name: "broken", Arch: "x86_64", Sourcerpm: "not-a-source-rpm"}

	_, err := acc.findSrpm(pkg)
	assert.Error(t, err)
}

func TestFindSrpmNotInRepos(t *testing.T) {
	acc := newTestAccumulator(t, DefaultOptions(), "x86_64")
	pkg := &model.Package{Name: "orphan", Arch: "x86_64", Sourcerpm: "orphan-1.0-1.src.rpm"}

	srpm, err := acc.findSrpm(pkg)
	require.NoError(t, err)
	assert.Nil(t, srpm)
}
