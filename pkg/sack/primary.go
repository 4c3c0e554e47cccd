package sack

import (
	"encoding/xml"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mholt/archives"

	"github.com/mgracik/alda/pkg/errors"
	"github.com/mgracik/alda/pkg/model"
)

// XML shapes of the repodata payloads. Namespace prefixes are ignored;
// encoding/xml matches on local names.

type xmlPrimary struct {
	XMLName  xml.Name     `xml:"metadata"`
	Packages []xmlPackage `xml:"package"`
}

type xmlPackage struct {
	Type     string      `xml:"type,attr"`
	Name     string      `xml:"name"`
	Arch     string      `xml:"arch"`
	Version  xmlVersion  `xml:"version"`
	Location xmlLocation `xml:"location"`
	Format   xmlFormat   `xml:"format"`
}

type xmlVersion struct {
	Epoch string `xml:"epoch,attr"`
	Ver   string `xml:"ver,attr"`
	Rel   string `xml:"rel,attr"`
}

type xmlLocation struct {
	Href string `xml:"href,attr"`
}

type xmlFormat struct {
	Sourcerpm string     `xml:"sourcerpm"`
	Provides  xmlEntries `xml:"provides"`
	Requires  xmlEntries `xml:"requires"`
	Files     []string   `xml:"file"`
}

type xmlEntries struct {
	Entries []xmlEntry `xml:"entry"`
}

type xmlEntry struct {
	Name  string `xml:"name,attr"`
	Flags string `xml:"flags,attr"`
	Epoch string `xml:"epoch,attr"`
	Ver   string `xml:"ver,attr"`
	Rel   string `xml:"rel,attr"`
}

type xmlFilelists struct {
	XMLName  xml.Name              `xml:"filelists"`
	Packages []xmlFilelistsPackage `xml:"package"`
}

type xmlFilelistsPackage struct {
	Name    string     `xml:"name,attr"`
	Arch    string     `xml:"arch,attr"`
	Version xmlVersion `xml:"version"`
	Files   []string   `xml:"file"`
}

// openMetadata opens a metadata file for reading, transparently
// decompressing gzip-compressed payloads.
func openMetadata(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open metadata file %s", path)
	}
	if !strings.HasSuffix(path, ".gz") {
		return file, nil
	}
	gz, err := archives.Gz{}.OpenReader(file)
	if err != nil {
		_ = file.Close()
		return nil, errors.Wrapf(err, "cannot decompress metadata file %s", path)
	}
	return &decompressedFile{ReadCloser: gz, file: file}, nil
}

type decompressedFile struct {
	io.ReadCloser
	file *os.File
}

func (d *decompressedFile) Close() error {
	err := d.ReadCloser.Close()
	if ferr := d.file.Close(); err == nil {
		err = ferr
	}
	return err
}

// parsePrimaryFile parses a primary.xml payload into package objects tagged
// with the given repository name.
func parsePrimaryFile(path, reponame string) ([]*model.Package, error) {
	reader, err := openMetadata(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	var doc xmlPrimary
	if err := xml.NewDecoder(reader).Decode(&doc); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}

	packages := make([]*model.Package, 0, len(doc.Packages))
	for _, xp := range doc.Packages {
		pkg := &model.Package{
			Name:      xp.Name,
			Arch:      xp.Arch,
			Epoch:     parseEpoch(xp.Version.Epoch),
			Version:   xp.Version.Ver,
			Release:   xp.Version.Rel,
			Sourcerpm: xp.Format.Sourcerpm,
			Location:  xp.Location.Href,
			Reponame:  reponame,
			Provides:  parseEntries(xp.Format.Provides),
			Requires:  parseEntries(xp.Format.Requires),
			Files:     xp.Format.Files,
		}
		packages = append(packages, pkg)
	}
	return packages, nil
}

// parseFilelistsFile parses a filelists.xml payload into a map keyed by the
// package string form "name-evr.arch".
func parseFilelistsFile(path string) (map[string][]string, error) {
	reader, err := openMetadata(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	var doc xmlFilelists
	if err := xml.NewDecoder(reader).Decode(&doc); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}

	files := make(map[string][]string, len(doc.Packages))
	for _, xp := range doc.Packages {
		key := (&model.Package{
			Name:    xp.Name,
			Arch:    xp.Arch,
			Epoch:   parseEpoch(xp.Version.Epoch),
			Version: xp.Version.Ver,
			Release: xp.Version.Rel,
		}).String()
		files[key] = append(files[key], xp.Files...)
	}
	return files, nil
}

func parseEntries(entries xmlEntries) []model.Depend {
	if len(entries.Entries) == 0 {
		return nil
	}
	deps := make([]model.Depend, 0, len(entries.Entries))
	for _, e := range entries.Entries {
		deps = append(deps, model.Depend{
			Name:    e.Name,
			Flags:   model.DepFlag(e.Flags),
			Epoch:   parseEpoch(e.Epoch),
			Version: e.Ver,
			Release: e.Rel,
		})
	}
	return deps
}

func parseEpoch(s string) int {
	if s == "" {
		return 0
	}
	epoch, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return epoch
}
