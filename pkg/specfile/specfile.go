// Package specfile generates RPM .spec files from a JSON manifest. It is
// tooling for building dummy test repositories: the manifest lists packages
// with their headers, optional section bodies and subpackages, and the
// generator renders one spec file per package.
package specfile

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/mgracik/alda/pkg/fsutil"
)

// Manifest tags marking the non-header entries of a package object.
const (
	bodyTag       = "__body__"
	subpackageTag = "__subpkg__"
)

// Field is one header entry. Value holds one line per element; a scalar
// manifest value becomes a single-element slice.
type Field struct {
	Key   string
	Value []string
}

// Header is an ordered list of header fields.
type Header []Field

// defaultHeader returns the header values applied to every top-level
// package when the manifest does not override them.
func defaultHeader() Header {
	return Header{
		{Key: "Version", Value: []string{"1.0"}},
		{Key: "Release", Value: []string{"1"}},
		{Key: "License", Value: []string{"GPLv2+"}},
	}
}

// Get returns the single-line value of a header field, or empty.
func (h Header) Get(key string) string {
	for _, field := range h {
		if field.Key == key && len(field.Value) > 0 {
			return field.Value[0]
		}
	}
	return ""
}

// merge overlays values onto the header: existing keys are updated in
// place, new keys appended in their manifest order.
func (h Header) merge(overlay Header) Header {
	merged := append(Header(nil), h...)
	for _, field := range overlay {
		replaced := false
		for i := range merged {
			if merged[i].Key == field.Key {
				merged[i].Value = field.Value
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, field)
		}
	}
	return merged
}

// Body holds the optional section bodies of a package.
type Body struct {
	Description []string
	Prep        []string
	Build       []string
	Install     []string
	Files       []string
}

// Package is one top-level package of the manifest, with its subpackages.
type Package struct {
	Name        string
	Header      Header
	Body        Body
	Subpackages []*SubPackage
}

// SubPackage is a %package section of its parent.
type SubPackage struct {
	Name   string
	Header Header
	Body   Body
}

// NewPackage creates a package with the default header values applied.
func NewPackage(name string, header Header, body Body) *Package {
	return &Package{
		Name:   name,
		Header: defaultHeader().merge(header),
		Body:   body,
	}
}

// AddSubpackage appends a subpackage.
func (p *Package) AddSubpackage(sub *SubPackage) {
	p.Subpackages = append(p.Subpackages, sub)
}

// Version returns the package version from the header.
func (p *Package) Version() string {
	return p.Header.Get("Version")
}

// Release returns the package release from the header.
func (p *Package) Release() string {
	return p.Header.Get("Release")
}

// description falls back to the Summary header when the body carries none.
func description(header Header, body Body) []string {
	if len(body.Description) > 0 {
		return body.Description
	}
	if summary := header.Get("Summary"); summary != "" {
		return []string{summary}
	}
	return []string{""}
}

// install synthesizes an %install section from the file list when the body
// carries none: create every parent directory, then touch every file.
func install(body Body) []string {
	if len(body.Install) > 0 {
		return body.Install
	}
	if len(body.Files) == 0 {
		return nil
	}
	var lines []string
	seen := make(map[string]struct{})
	for _, file := range body.Files {
		dir := path.Dir(file)
		if dir == "" || dir == "." || dir == "/" {
			continue
		}
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		lines = append(lines, "mkdir -p "+path.Clean("%{buildroot}/"+dir))
	}
	for _, file := range body.Files {
		lines = append(lines, "touch "+path.Clean("%{buildroot}/"+file))
	}
	return lines
}

// expand renders a multi-line value with a prefix on every line.
func expand(value []string, prefix string) string {
	lines := make([]string, 0, len(value))
	for _, item := range value {
		lines = append(lines, prefix+item)
	}
	return strings.Join(lines, "\n")
}

func renderHeader(name string, header Header) string {
	lines := make([]string, 0, len(header)+1)
	fields := append(Header{{Key: "Name", Value: []string{name}}}, header...)
	for _, field := range fields {
		prefix := fmt.Sprintf("%-16s", field.Key+":")
		lines = append(lines, expand(field.Value, prefix))
	}
	return strings.Join(lines, "\n")
}

func renderSection(section string, value []string) string {
	if len(value) == 0 {
		return ""
	}
	return "\n%" + section + "\n" + expand(value, "")
}

// RenderSpec renders the complete spec file contents.
func (p *Package) RenderSpec() string {
	sections := []string{
		renderHeader(p.Name, p.Header),
		renderSection("description", description(p.Header, p.Body)),
	}
	for _, sub := range p.Subpackages {
		sections = append(sections,
			"\n%package "+sub.Name+"\n"+strings.Join(headerLines(sub.Header), "\n"),
			renderSection("description "+sub.Name, description(sub.Header, sub.Body)),
		)
	}
	sections = append(sections,
		renderSection("prep", p.Body.Prep),
		renderSection("build", p.Body.Build),
		renderSection("install", install(p.Body)),
		renderSection("files", p.Body.Files),
	)
	for _, sub := range p.Subpackages {
		sections = append(sections, renderSection("files "+sub.Name, sub.Body.Files))
	}

	var nonEmpty []string
	for _, section := range sections {
		if section != "" {
			nonEmpty = append(nonEmpty, section)
		}
	}
	return strings.Join(nonEmpty, "\n")
}

func headerLines(header Header) []string {
	lines := make([]string, 0, len(header))
	for _, field := range header {
		prefix := fmt.Sprintf("%-16s", field.Key+":")
		lines = append(lines, expand(field.Value, prefix))
	}
	return lines
}

// WriteSpec renders the spec file into the directory, creating it if
// needed, and returns the written path.
func (p *Package) WriteSpec(directory string) (string, error) {
	if directory == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		directory = cwd
	}
	if err := fsutil.EnsureDir(directory); err != nil {
		return "", err
	}
	filename := fmt.Sprintf("%s-%s-%s.spec", p.Name, p.Version(), p.Release())
	target := filepath.Join(directory, filename)
	if err := os.WriteFile(target, []byte(p.RenderSpec()), fsutil.FileModeDefault); err != nil {
		return "", err
	}
	return target, nil
}
