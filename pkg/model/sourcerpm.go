package model

import (
	"strings"

	"github.com/mgracik/alda/pkg/errors"
)

const srpmSuffix = ".src.rpm"

// SplitSourcerpm splits a source RPM filename such as
// "dummy-bash-4.2.24-2.src.rpm" into its name, version and release. The
// filename must end in ".src.rpm" and carry at least two dashes in the stem.
func SplitSourcerpm(sourcerpm string) (name, ver, rel string, err error) {
	if !strings.HasSuffix(sourcerpm, srpmSuffix) {
		return "", "", "", errors.Wrapf(errors.ErrMalformedSourcerpm, "%q", sourcerpm)
	}
	stem := strings.TrimSuffix(sourcerpm, srpmSuffix)
	i := strings.LastIndex(stem, "-")
	if i <= 0 {
		return "", "", "", errors.Wrapf(errors.ErrMalformedSourcerpm, "%q", sourcerpm)
	}
	rel = stem[i+1:]
	stem = stem[:i]
	i = strings.LastIndex(stem, "-")
	if i <= 0 {
		return "", "", "", errors.Wrapf(errors.ErrMalformedSourcerpm, "%q", sourcerpm)
	}
	ver = stem[i+1:]
	name = stem[:i]
	return name, ver, rel, nil
}
