package routing

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/webserv-project/webserv/internal/config"
)

// MatchRoute returns the longest-prefix route in srv whose path matches
// reqPath, per §4.3 step 2. A route's path matches when it is "/", equals
// reqPath exactly, or is a prefix of reqPath followed by "/".
func MatchRoute(srv *config.Server, reqPath string) (*config.Route, bool) {
	var best *config.Route
	bestLen := -1
	for i := range srv.Routes {
		r := &srv.Routes[i]
		if routeMatches(r.Path, reqPath) && len(r.Path) > bestLen {
			best = r
			bestLen = len(r.Path)
		}
	}
	return best, best != nil
}

func routeMatches(routePath, reqPath string) bool {
	if routePath == "/" {
		return true
	}
	if reqPath == routePath {
		return true
	}
	return strings.HasPrefix(reqPath, routePath+"/")
}

// Remainder strips a matched route's path prefix from reqPath, leaving
// the portion to resolve beneath the route's root.
func Remainder(routePath, reqPath string) string {
	if routePath == "/" {
		return strings.TrimPrefix(reqPath, "/")
	}
	rest := strings.TrimPrefix(reqPath, routePath)
	return strings.TrimPrefix(rest, "/")
}

// ResolvePath composes <serverRoot>/<routeRoot>/<remainder> and verifies
// the canonicalized result stays within the canonicalized base directory
// (§4.3 step 5). If the candidate does not yet exist (an upload target),
// containment is checked against the nearest existing parent directory
// and the non-canonical tail is preserved in the returned path.
//
// ok is false on any escape attempt; callers must turn that into a 404,
// never a 403, to avoid confirming the protected path exists.
func ResolvePath(serverRoot, routeRoot, remainder string) (resolved string, ok bool) {
	base := filepath.Join(serverRoot, routeRoot)
	baseAbs, err := filepath.Abs(base)
	if err != nil {
		return "", false
	}
	baseCanon, err := filepath.EvalSymlinks(baseAbs)
	if err != nil {
		return "", false
	}

	candidateAbs, err := filepath.Abs(filepath.Join(base, remainder))
	if err != nil {
		return "", false
	}

	if canon, err := filepath.EvalSymlinks(candidateAbs); err == nil {
		if !within(canon, baseCanon) {
			return "", false
		}
		return canon, true
	}

	// Candidate does not exist yet: walk up to the nearest existing
	// ancestor and contain-check that instead.
	dir := filepath.Dir(candidateAbs)
	for {
		if info, statErr := os.Stat(dir); statErr == nil && info.IsDir() {
			dirCanon, err := filepath.EvalSymlinks(dir)
			if err != nil {
				return "", false
			}
			if !within(dirCanon, baseCanon) {
				return "", false
			}
			return candidateAbs, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// within reports whether path is baseCanon itself or lies beneath it.
func within(path, baseCanon string) bool {
	rel, err := filepath.Rel(baseCanon, path)
	if err != nil {
		return false
	}
	return rel == "." || !strings.HasPrefix(rel, "..")
}
