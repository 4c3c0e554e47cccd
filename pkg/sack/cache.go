package sack

import (
	"encoding/json"
	"os"

	"github.com/mgracik/alda/internal/logger"
	"github.com/mgracik/alda/pkg/fsutil"
	"github.com/mgracik/alda/pkg/model"
)

const cacheSuffix = ".cache.json"

// loadPrimary loads the parsed-form cache next to a primary payload when it
// is fresher than the payload, otherwise parses the payload itself. The
// second return reports whether the cache was used.
func loadPrimary(path, reponame string) ([]*model.Package, bool, error) {
	if packages, ok := readCache(path); ok {
		logger.Debugf("loaded cached metadata for repo %s", reponame)
		for _, pkg := range packages {
			pkg.Reponame = reponame
		}
		return packages, true, nil
	}
	packages, err := parsePrimaryFile(path, reponame)
	return packages, false, err
}

func readCache(primaryPath string) ([]*model.Package, bool) {
	cachePath := primaryPath + cacheSuffix
	cacheInfo, err := os.Stat(cachePath)
	if err != nil {
		return nil, false
	}
	primaryInfo, err := os.Stat(primaryPath)
	if err != nil || cacheInfo.ModTime().Before(primaryInfo.ModTime()) {
		return nil, false
	}
	data, err := os.ReadFile(cachePath)
	if err != nil {
		return nil, false
	}
	var packages []*model.Package
	if err := json.Unmarshal(data, &packages); err != nil {
		return nil, false
	}
	return packages, true
}

// writeCache is best effort; a failure only costs reparsing next time.
func writeCache(primaryPath string, packages []*model.Package) {
	data, err := json.Marshal(packages)
	if err != nil {
		logger.Debugf("not caching %s: %v", primaryPath, err)
		return
	}
	if err := os.WriteFile(primaryPath+cacheSuffix, data, fsutil.FileModeDefault); err != nil {
		logger.Debugf("not caching %s: %v", primaryPath, err)
	}
}
