package solve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgracik/alda/pkg/repo"
	"github.com/mgracik/alda/pkg/sack"
)

func loadSackFromXML(t *testing.T, arch, primaryXML string) *sack.Sack {
	t.Helper()
	dir := t.TempDir()
	primary := filepath.Join(dir, "primary.xml")
	require.NoError(t, os.WriteFile(primary, []byte(primaryXML), 0o644))

	s := sack.New(arch)
	require.NoError(t, s.Load(repo.Metadata{Primary: primary}, "test-repo", false, false))
	return s
}

func installStrings(goal *Goal) []string {
	installs := goal.ListInstalls()
	strs := make([]string, 0, len(installs))
	for _, pkg := range installs {
		strs = append(strs, pkg.String())
	}
	return strs
}

const chainRepo = `<?xml version="1.0"?>
<metadata xmlns="http://linux.duke.edu/metadata/common" xmlns:rpm="http://linux.duke.edu/metadata/rpm" packages="3">
  <package type="rpm">
    <name>a</name><arch>x86_64</arch>
    <version epoch="0" ver="1.0" rel="1"/>
    <location href="a-1.0-1.x86_64.rpm"/>
    <format>
      <rpm:requires><rpm:entry name="b"/></rpm:requires>
    </format>
  </package>
  <package type="rpm">
    <name>b</name><arch>x86_64</arch>
    <version epoch="0" ver="1.0" rel="1"/>
    <location href="b-1.0-1.x86_64.rpm"/>
    <format>
      <rpm:requires><rpm:entry name="c"/></rpm:requires>
    </format>
  </package>
  <package type="rpm">
    <name>c</name><arch>x86_64</arch>
    <version epoch="0" ver="1.0" rel="1"/>
    <location href="c-1.0-1.x86_64.rpm"/>
    <format/>
  </package>
</metadata>`

func TestRunResolvesChain(t *testing.T) {
	s := loadSackFromXML(t, "x86_64", chainRepo)
	goal := NewGoal(s)
	goal.Install(SelectorTarget{Selector: s.NewSelector("a", "")})

	require.True(t, goal.Run())
	assert.Equal(t, []string{"a-1.0-1.x86_64", "b-1.0-1.x86_64", "c-1.0-1.x86_64"}, installStrings(goal))
	assert.Empty(t, goal.Problems())
}

func TestRunMissingProvider(t *testing.T) {
	s := loadSackFromXML(t, "x86_64", `<?xml version="1.0"?>
<metadata xmlns="http://linux.duke.edu/metadata/common" xmlns:rpm="http://linux.duke.edu/metadata/rpm" packages="1">
  <package type="rpm">
    <name>a</name><arch>x86_64</arch>
    <version epoch="0" ver="1.0" rel="1"/>
    <location href="a-1.0-1.x86_64.rpm"/>
    <format>
      <rpm:requires><rpm:entry name="missing"/></rpm:requires>
    </format>
  </package>
</metadata>`)
	goal := NewGoal(s)
	goal.Install(SelectorTarget{Selector: s.NewSelector("a", "")})

	require.False(t, goal.Run())
	require.Len(t, goal.Problems(), 1)
	assert.Equal(t, "nothing provides missing needed by a-1.0-1.x86_64", goal.Problems()[0])
}

func TestRunNoSelectorMatch(t *testing.T) {
	s := loadSackFromXML(t, "x86_64", chainRepo)
	goal := NewGoal(s)
	goal.Install(SelectorTarget{Selector: s.NewSelector("nonexistent", "")})

	require.False(t, goal.Run())
	assert.Equal(t, []string{"no package matches request nonexistent"}, goal.Problems())
}

func TestRunVersionedRequire(t *testing.T) {
	versioned := `<?xml version="1.0"?>
<metadata xmlns="http://linux.duke.edu/metadata/common" xmlns:rpm="http://linux.duke.edu/metadata/rpm" packages="3">
  <package type="rpm">
    <name>app</name><arch>x86_64</arch>
    <version epoch="0" ver="1.0" rel="1"/>
    <location href="app-1.0-1.x86_64.rpm"/>
    <format>
      <rpm:requires><rpm:entry name="lib" flags="GE" epoch="0" ver="2.0" rel="1"/></rpm:requires>
    </format>
  </package>
  <package type="rpm">
    <name>lib</name><arch>x86_64</arch>
    <version epoch="0" ver="1.0" rel="1"/>
    <location href="lib-1.0-1.x86_64.rpm"/>
    <format/>
  </package>
  <package type="rpm">
    <name>lib</name><arch>x86_64</arch>
    <version epoch="0" ver="2.5" rel="1"/>
    <location href="lib-2.5-1.x86_64.rpm"/>
    <format/>
  </package>
</metadata>`
	s := loadSackFromXML(t, "x86_64", versioned)
	goal := NewGoal(s)
	goal.Install(SelectorTarget{Selector: s.NewSelector("app", "")})

	require.True(t, goal.Run())
	assert.Equal(t, []string{"app-1.0-1.x86_64", "lib-2.5-1.x86_64"}, installStrings(goal))
}

func TestRunFileRequire(t *testing.T) {
	fileRepo := `<?xml version="1.0"?>
<metadata xmlns="http://linux.duke.edu/metadata/common" xmlns:rpm="http://linux.duke.edu/metadata/rpm" packages="2">
  <package type="rpm">
    <name>app</name><arch>x86_64</arch>
    <version epoch="0" ver="1.0" rel="1"/>
    <location href="app-1.0-1.x86_64.rpm"/>
    <format>
      <rpm:requires><rpm:entry name="/bin/sh"/></rpm:requires>
    </format>
  </package>
  <package type="rpm">
    <name>shell</name><arch>x86_64</arch>
    <version epoch="0" ver="4.0" rel="1"/>
    <location href="shell-4.0-1.x86_64.rpm"/>
    <format>
      <file>/bin/sh</file>
    </format>
  </package>
</metadata>`
	s := loadSackFromXML(t, "x86_64", fileRepo)
	goal := NewGoal(s)
	goal.Install(SelectorTarget{Selector: s.NewSelector("app", "")})

	require.True(t, goal.Run())
	assert.Equal(t, []string{"app-1.0-1.x86_64", "shell-4.0-1.x86_64"}, installStrings(goal))
}

func TestRunIgnoresRpmlibRequires(t *testing.T) {
	s := loadSackFromXML(t, "x86_64", `<?xml version="1.0"?>
<metadata xmlns="http://linux.duke.edu/metadata/common" xmlns:rpm="http://linux.duke.edu/metadata/rpm" packages="1">
  <package type="rpm">
    <name>a</name><arch>x86_64</arch>
    <version epoch="0" ver="1.0" rel="1"/>
    <location href="a-1.0-1.x86_64.rpm"/>
    <format>
      <rpm:requires><rpm:entry name="rpmlib(CompressedFileNames)" flags="LE" epoch="0" ver="3.0.4" rel="1"/></rpm:requires>
    </format>
  </package>
</metadata>`)
	goal := NewGoal(s)
	goal.Install(SelectorTarget{Selector: s.NewSelector("a", "")})

	require.True(t, goal.Run())
	assert.Equal(t, []string{"a-1.0-1.x86_64"}, installStrings(goal))
}

const multiArchRepo = `<?xml version="1.0"?>
<metadata xmlns="http://linux.duke.edu/metadata/common" xmlns:rpm="http://linux.duke.edu/metadata/rpm" packages="2">
  <package type="rpm">
    <name>lib</name><arch>x86_64</arch>
    <version epoch="0" ver="1.0" rel="1"/>
    <location href="lib-1.0-1.x86_64.rpm"/>
    <format/>
  </package>
  <package type="rpm">
    <name>lib</name><arch>i686</arch>
    <version epoch="0" ver="1.0" rel="1"/>
    <location href="lib-1.0-1.i686.rpm"/>
    <format/>
  </package>
</metadata>`

func TestRunPrefersTargetArch(t *testing.T) {
	s := loadSackFromXML(t, "x86_64", multiArchRepo)
	goal := NewGoal(s)
	goal.Install(SelectorTarget{Selector: s.NewSelector("lib", "")})

	require.True(t, goal.Run())
	assert.Equal(t, []string{"lib-1.0-1.x86_64"}, installStrings(goal))
}

func TestRunAllEnumeratesAlternatives(t *testing.T) {
	s := loadSackFromXML(t, "x86_64", multiArchRepo)
	goal := NewGoal(s)
	goal.Install(SelectorTarget{Selector: s.NewSelector("lib", "")})

	var solutions [][]string
	require.NoError(t, goal.RunAll(func(g *Goal) error {
		solutions = append(solutions, installStrings(g))
		return nil
	}))
	assert.Equal(t, [][]string{{"lib-1.0-1.x86_64"}, {"lib-1.0-1.i686"}}, solutions)
}

func TestRunTerminatesOnCycle(t *testing.T) {
	cyclic := `<?xml version="1.0"?>
<metadata xmlns="http://linux.duke.edu/metadata/common" xmlns:rpm="http://linux.duke.edu/metadata/rpm" packages="2">
  <package type="rpm">
    <name>a</name><arch>x86_64</arch>
    <version epoch="0" ver="1.0" rel="1"/>
    <location href="a-1.0-1.x86_64.rpm"/>
    <format>
      <rpm:requires><rpm:entry name="b"/></rpm:requires>
    </format>
  </package>
  <package type="rpm">
    <name>b</name><arch>x86_64</arch>
    <version epoch="0" ver="1.0" rel="1"/>
    <location href="b-1.0-1.x86_64.rpm"/>
    <format>
      <rpm:requires><rpm:entry name="a"/></rpm:requires>
    </format>
  </package>
</metadata>`
	s := loadSackFromXML(t, "x86_64", cyclic)
	goal := NewGoal(s)
	goal.Install(SelectorTarget{Selector: s.NewSelector("a", "")})

	require.True(t, goal.Run())
	assert.Equal(t, []string{"a-1.0-1.x86_64", "b-1.0-1.x86_64"}, installStrings(goal))
}

func TestInstallQueryTarget(t *testing.T) {
	s := loadSackFromXML(t, "x86_64", multiArchRepo)
	goal := NewGoal(s)
	goal.Install(QueryTarget{Query: s.Query().Name("lib")})

	require.True(t, goal.Run())
	assert.Equal(t, []string{"lib-1.0-1.i686", "lib-1.0-1.x86_64"}, installStrings(goal))
	assert.Equal(t, []string{"lib-1.0-1.i686", "lib-1.0-1.x86_64"}, goal.InstallRequestsAsStrings())
}

func TestInstallRequestsSelectorTag(t *testing.T) {
	s := loadSackFromXML(t, "x86_64", chainRepo)
	sel := s.NewSelector("a", "x86_64")
	goal := NewGoal(s)
	goal.Install(SelectorTarget{Selector: sel})

	assert.Equal(t, []string{"a.x86_64"}, goal.InstallRequestsAsStrings())
}

func TestInstallDuplicateRequestsCollapse(t *testing.T) {
	s := loadSackFromXML(t, "x86_64", chainRepo)
	goal := NewGoal(s)
	goal.Install(SelectorTarget{Selector: s.NewSelector("a", "")})
	goal.Install(SelectorTarget{Selector: s.NewSelector("a", "")})

	assert.Equal(t, []string{"a"}, goal.InstallRequestsAsStrings())
}
