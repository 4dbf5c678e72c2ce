package server

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tsawler/ocrlayout/raster"
)

var errPathNotAllowed = errors.New("path is outside the allowed roots")

// pathGuard limits submitted paths to a set of directories. An empty guard
// allows everything, URLs included.
type pathGuard struct {
	roots []string
}

func newPathGuard(roots []string) pathGuard {
	var g pathGuard
	for _, root := range roots {
		if root != "" {
			g.roots = append(g.roots, resolvePath(root))
		}
	}
	return g
}

// check returns errPathNotAllowed unless p lies within one of the roots.
// Remote sources are refused whenever roots are set.
func (g pathGuard) check(p string) error {
	if len(g.roots) == 0 {
		return nil
	}
	if raster.IsRemote(p) {
		return fmt.Errorf("%w: remote sources are disabled", errPathNotAllowed)
	}

	resolved := resolvePath(p)
	for _, root := range g.roots {
		rel, err := filepath.Rel(root, resolved)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil
		}
	}
	return errPathNotAllowed
}

// resolvePath makes p absolute and follows symlinks in its longest existing
// prefix, so a link inside a root cannot point outside it.
func resolvePath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return resolveExisting(abs)
}

func resolveExisting(abs string) string {
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	parent := filepath.Dir(abs)
	if parent == abs {
		return abs
	}
	return filepath.Join(resolveExisting(parent), filepath.Base(abs))
}
