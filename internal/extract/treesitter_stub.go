//go:build !cgo

package extract

import "log/slog"

// TreeSitterExtractor is unavailable in non-CGO builds.
type TreeSitterExtractor struct{}

// NewTreeSitterExtractor always fails without CGO.
func NewTreeSitterExtractor(logger *slog.Logger) (*TreeSitterExtractor, error) {
	return nil, ErrNoCGO
}

// Extract returns an empty result.
func (e *TreeSitterExtractor) Extract(content, filename, extension string) *Result {
	return Empty()
}

// TreeSitterAvailable reports whether the syntax-tree extractor is compiled in.
func TreeSitterAvailable() bool {
	return false
}
