// Package paths normalizes the slash-separated, repository-relative paths
// that identify files throughout a scan.
package paths

import (
	"os"
	"path"
	"path/filepath"
	"strings"
)

// CanonicalizePath converts an absolute path to a repo-relative path with
// forward slashes, resolving symlinks on both sides when they exist.
func CanonicalizePath(absolutePath string, repoRoot string) (string, error) {
	resolved, err := filepath.EvalSymlinks(absolutePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", err
		}
		resolved = absolutePath
	}

	rootResolved, err := filepath.EvalSymlinks(repoRoot)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", err
		}
		rootResolved = repoRoot
	}

	rel, err := filepath.Rel(rootResolved, resolved)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// NormalizePath converts backslashes, cleans the path and strips a leading
// "./" or "/". The empty path stays empty.
func NormalizePath(p string) string {
	if p == "" {
		return ""
	}
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean(p)
	p = strings.TrimPrefix(p, "/")
	if p == "." {
		return ""
	}
	return p
}

// IsSafeRelative reports whether p stays inside its root once joined:
// not absolute, no drive letter, and no ".." escape after cleaning.
func IsSafeRelative(p string) bool {
	if p == "" {
		return false
	}
	p = strings.ReplaceAll(p, "\\", "/")
	if strings.HasPrefix(p, "/") || filepath.IsAbs(p) || filepath.VolumeName(p) != "" {
		return false
	}
	cleaned := path.Clean(p)
	return cleaned != ".." && !strings.HasPrefix(cleaned, "../")
}

// TopSegment returns the first directory of a repo-relative path, or ""
// for a file at the root.
func TopSegment(p string) string {
	p = NormalizePath(p)
	if i := strings.IndexByte(p, '/'); i >= 0 {
		return p[:i]
	}
	return ""
}

// Ext returns the lowercased extension without its dot.
func Ext(p string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
}

// StripCommonRoot removes a single leading directory shared by every path,
// as produced by archives of a repository folder. Paths are returned
// unchanged when there is no such directory.
func StripCommonRoot(ps []string) []string {
	if len(ps) == 0 {
		return ps
	}
	root := TopSegment(ps[0])
	if root == "" {
		return ps
	}
	prefix := root + "/"
	for _, p := range ps {
		if !strings.HasPrefix(NormalizePath(p), prefix) {
			return ps
		}
	}
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = strings.TrimPrefix(NormalizePath(p), prefix)
	}
	return out
}

// JoinRepoPath joins a repo root with a slash-separated relative path.
func JoinRepoPath(repoRoot string, rel string) string {
	parts := strings.Split(strings.ReplaceAll(rel, "\\", "/"), "/")
	return filepath.Join(append([]string{repoRoot}, parts...)...)
}
