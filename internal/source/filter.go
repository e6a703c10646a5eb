// Package source loads scan inputs from directories, uploaded archives and
// git remotes.
package source

import (
	"bytes"
	"fmt"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/gobwas/glob"
)

// sniffLen is how much of a file is checked for NUL bytes.
const sniffLen = 8000

// binaryExts are never decoded as text.
var binaryExts = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "gif": true, "bmp": true, "ico": true, "webp": true,
	"pdf": true, "zip": true, "gz": true, "tgz": true, "tar": true, "bz2": true, "xz": true, "7z": true, "rar": true,
	"exe": true, "dll": true, "so": true, "dylib": true, "o": true, "a": true, "class": true, "jar": true,
	"pyc": true, "wasm": true, "woff": true, "woff2": true, "ttf": true, "otf": true, "eot": true,
	"mp3": true, "mp4": true, "wav": true, "mov": true, "avi": true, "webm": true,
	"db": true, "sqlite": true, "bin": true,
}

type pattern struct {
	g        glob.Glob
	baseOnly bool
}

// Filter decides which files become scan inputs.
type Filter struct {
	patterns    []pattern
	MaxFileSize int64
	MaxFiles    int
}

// NewFilter compiles ignore globs. Globs containing a slash match the
// whole slash-separated path ("**" crosses directories); others match the
// base name only. maxSize and maxFiles <= 0 mean unlimited.
func NewFilter(ignore []string, maxSize int64, maxFiles int) (*Filter, error) {
	f := &Filter{MaxFileSize: maxSize, MaxFiles: maxFiles}
	for _, p := range ignore {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		baseOnly := !strings.Contains(p, "/")
		expr := p
		if !baseOnly && !strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "**") {
			// "docs/**" is anchored at the root.
			expr = "/" + p
		}
		g, err := glob.Compile(expr, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", p, err)
		}
		f.patterns = append(f.patterns, pattern{g: g, baseOnly: baseOnly})
	}
	return f, nil
}

// Ignored reports whether the relative path matches an ignore glob.
func (f *Filter) Ignored(rel string, isDir bool) bool {
	full := "/" + strings.TrimPrefix(rel, "/")
	if isDir {
		full += "/"
	}
	base := path.Base(rel)
	for _, p := range f.patterns {
		if p.baseOnly {
			if p.g.Match(base) {
				return true
			}
			continue
		}
		if p.g.Match(full) {
			return true
		}
	}
	return false
}

// TooLarge reports whether size exceeds the per-file limit.
func (f *Filter) TooLarge(size int64) bool {
	return f.MaxFileSize > 0 && size > f.MaxFileSize
}

// Full reports whether n accepted files reach the file limit.
func (f *Filter) Full(n int) bool {
	return f.MaxFiles > 0 && n >= f.MaxFiles
}

// IsBinary classifies content by extension, NUL bytes and UTF-8 validity.
func IsBinary(name string, content []byte) bool {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	if binaryExts[ext] {
		return true
	}
	head := content
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return true
	}
	return !utf8.Valid(content)
}
