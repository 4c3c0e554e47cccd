//go:generate mockgen -destination=./mocks/fetcher.go -package=mocks . Fetcher

package repo

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mgracik/alda/internal/logger"
	"github.com/mgracik/alda/pkg/errors"
	"github.com/mgracik/alda/pkg/fsutil"
)

// Fetcher retrieves the metadata of a single repository. On success it
// returns the local metadata paths and, for remote repositories, the
// temporary directory holding the downloaded files. The caller owns the
// temporary directory and is responsible for removing it.
type Fetcher interface {
	Fetch(ctx context.Context, reponame, repopath string) (Metadata, string, error)
}

// HTTPFetcher is the default Fetcher. Remote repositories are downloaded
// with a plain HTTP client; file:// repositories are accessed in place.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewFetcher creates a metadata fetcher with the given timeout.
func NewFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: "alda/1.0",
	}
}

// Fetch retrieves repomd.xml plus the primary and filelists payloads for one
// repository.
//
//   - An absolute filesystem path is treated as file://<path>.
//   - http:// and ftp:// paths are downloaded into a fresh temporary
//     directory named <reponame>.<random>, returned for caller cleanup.
//   - file:// paths are read in place; no temporary directory is created.
//   - Any other scheme is rejected as invalid input.
func (f *HTTPFetcher) Fetch(ctx context.Context, reponame, repopath string) (Metadata, string, error) {
	if strings.HasPrefix(repopath, "/") {
		repopath = "file://" + repopath
	}
	switch {
	case strings.HasPrefix(repopath, "http://"), strings.HasPrefix(repopath, "ftp://"):
		return f.fetchRemote(ctx, reponame, repopath)
	case strings.HasPrefix(repopath, "file://"):
		md, err := localMetadata(strings.TrimPrefix(repopath, "file://"))
		return md, "", err
	default:
		return Metadata{}, "", errors.ErrInvalidRepoPathWithPath(repopath)
	}
}

// fetchRemote downloads repomd.xml and the payloads it names into a new
// temporary directory. The directory is removed again on any error.
func (f *HTTPFetcher) fetchRemote(ctx context.Context, reponame, repourl string) (Metadata, string, error) {
	destdir, err := os.MkdirTemp("", reponame+".")
	if err != nil {
		return Metadata{}, "", errors.Wrap(err, "could not create metadata directory")
	}

	md, err := f.downloadMetadata(ctx, repourl, destdir)
	if err != nil {
		_ = os.RemoveAll(destdir)
		return Metadata{}, "", err
	}
	return md, destdir, nil
}

func (f *HTTPFetcher) downloadMetadata(ctx context.Context, repourl, destdir string) (Metadata, error) {
	repomdPath := filepath.Join(destdir, "repodata", "repomd.xml")
	if err := f.download(ctx, joinURL(repourl, "repodata/repomd.xml"), repomdPath); err != nil {
		return Metadata{}, err
	}

	primaryHref, filelistsHref, err := parseRepomdFile(repomdPath)
	if err != nil {
		return Metadata{}, err
	}

	md := Metadata{
		Repomd:    repomdPath,
		Primary:   filepath.Join(destdir, filepath.FromSlash(primaryHref)),
		Filelists: filepath.Join(destdir, filepath.FromSlash(filelistsHref)),
	}
	if err := f.download(ctx, joinURL(repourl, primaryHref), md.Primary); err != nil {
		return Metadata{}, err
	}
	if err := f.download(ctx, joinURL(repourl, filelistsHref), md.Filelists); err != nil {
		return Metadata{}, err
	}
	return md, nil
}

// download retrieves a single URL to a file. FTP URLs are accepted as input
// but this client only speaks HTTP; the request error is surfaced as a
// download failure.
func (f *HTTPFetcher) download(ctx context.Context, fileurl, dest string) error {
	logger.Debugf("downloading %s", fileurl)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileurl, http.NoBody)
	if err != nil {
		return errors.Wrapf(err, "failed to create request for %s", fileurl)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return errors.Wrapf(errors.ErrMetadataDownload, "%s: %v", fileurl, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return errors.Wrapf(errors.ErrMetadataDownload, "%s: unexpected status code %d", fileurl, resp.StatusCode)
	}

	if err := fsutil.EnsureFileDir(dest); err != nil {
		return errors.Wrap(err, "could not create directory for metadata")
	}
	file, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fsutil.FileModeDefault)
	if err != nil {
		return errors.Wrapf(err, "could not create %s", dest)
	}
	defer func() { _ = file.Close() }()

	if _, err := io.Copy(file, resp.Body); err != nil {
		return errors.Wrapf(err, "could not write %s", dest)
	}
	return nil
}

// localMetadata resolves the metadata paths of a repository on the local
// filesystem. All referenced files must exist.
func localMetadata(root string) (Metadata, error) {
	repomdPath := filepath.Join(root, "repodata", "repomd.xml")
	primaryHref, filelistsHref, err := parseRepomdFile(repomdPath)
	if err != nil {
		return Metadata{}, err
	}

	md := Metadata{
		Repomd:    repomdPath,
		Primary:   filepath.Join(root, filepath.FromSlash(primaryHref)),
		Filelists: filepath.Join(root, filepath.FromSlash(filelistsHref)),
	}
	for _, path := range []string{md.Primary, md.Filelists} {
		if !fsutil.FileExists(path) {
			return Metadata{}, errors.Wrapf(errors.ErrMetadataMissing, "%s", path)
		}
	}
	return md, nil
}

func joinURL(base, href string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(href, "/")
}
