// internal/cliutil/cliutil.go
package cliutil

import (
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

func hasGlobMeta(s string) bool { return strings.ContainsAny(s, "*?[") }

// ExpandInputs expands globs among input paths, keeping their order. "-"
// passes through, and a glob that matches nothing is an error.
func ExpandInputs(paths []string) ([]string, error) {
	var out []string
	for _, a := range paths {
		if a == "-" || !hasGlobMeta(a) {
			out = append(out, a)
			continue
		}
		m, err := filepath.Glob(a)
		if err != nil {
			return nil, errors.Wrapf(err, "bad glob %q", a)
		}
		if len(m) == 0 {
			return nil, errors.Newf("no input matched %q", a)
		}
		out = append(out, m...)
	}
	return out, nil
}
