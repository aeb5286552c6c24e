package crawler

import (
	"path/filepath"
	"strings"
)

// matchPattern checks if a URL path matches a glob pattern.
//
// Supported forms:
//   - "/admin/*" matches "/admin" and everything below it
//   - "*.pdf" matches any path with that extension
//   - anything filepath.Match accepts, applied to the full path
func matchPattern(pattern, path string) bool {
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return true
		}
	}

	if strings.HasPrefix(pattern, "*.") {
		ext := strings.TrimPrefix(pattern, "*")
		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	matched, err := filepath.Match(pattern, path)
	if err != nil {
		return false
	}
	if matched {
		return true
	}

	// Patterns without a slash may match the last path segment.
	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		matched, err := filepath.Match(pattern, filepath.Base(path))
		if err == nil && matched {
			return true
		}
	}
	return false
}

// allowedPath applies ignore patterns first, then follow patterns.
// With no follow patterns every path that is not ignored is allowed.
func allowedPath(path string, ignore, follow []string) bool {
	if path == "" {
		path = "/"
	}
	for _, p := range ignore {
		if matchPattern(p, path) {
			return false
		}
	}
	if len(follow) == 0 {
		return true
	}
	for _, p := range follow {
		if matchPattern(p, path) {
			return true
		}
	}
	return false
}
