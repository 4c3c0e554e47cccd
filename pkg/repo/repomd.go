// Package repo implements the repository metadata oracle. It retrieves
// repomd.xml and the metadata payloads it names (primary, filelists) for a
// Yum/DNF-style repository, from a local path or over the network.
package repo

import (
	"encoding/xml"
	"io"
	"os"

	"github.com/mgracik/alda/pkg/errors"
)

// Metadata holds the local filesystem paths of the metadata files making up
// one repository.
type Metadata struct {
	Repomd    string
	Primary   string
	Filelists string
}

// Metadata payload types pulled from every repository. repomd.xml itself is
// always retrieved.
const (
	mdTypePrimary   = "primary"
	mdTypeFilelists = "filelists"
)

type repomd struct {
	XMLName xml.Name     `xml:"repomd"`
	Data    []repomdData `xml:"data"`
}

type repomdData struct {
	Type     string `xml:"type,attr"`
	Location struct {
		Href string `xml:"href,attr"`
	} `xml:"location"`
}

// parseRepomd extracts the primary and filelists hrefs from a repomd.xml
// document. Both entries must be present.
func parseRepomd(r io.Reader) (primary, filelists string, err error) {
	var doc repomd
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return "", "", errors.Wrap(err, "failed to parse repomd.xml")
	}
	hrefs := make(map[string]string, len(doc.Data))
	for _, data := range doc.Data {
		hrefs[data.Type] = data.Location.Href
	}
	for _, mdtype := range []string{mdTypePrimary, mdTypeFilelists} {
		if hrefs[mdtype] == "" {
			return "", "", errors.Wrapf(errors.ErrMetadataMissing, "%s", mdtype)
		}
	}
	return hrefs[mdTypePrimary], hrefs[mdTypeFilelists], nil
}

// parseRepomdFile parses a repomd.xml on disk.
func parseRepomdFile(path string) (primary, filelists string, err error) {
	file, err := os.Open(path)
	if err != nil {
		return "", "", errors.Wrapf(err, "cannot open %s", path)
	}
	defer func() { _ = file.Close() }()
	return parseRepomd(file)
}
