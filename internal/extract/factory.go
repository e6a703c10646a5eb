package extract

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrNoCGO is returned when the syntax-tree extractor is not compiled in.
var ErrNoCGO = errors.New("tree-sitter extractor requires CGO")

// Extractor names accepted by New.
const (
	NameRegex      = "regex"
	NameTreeSitter = "treesitter"
)

// New returns the extractor registered under name. An empty name selects
// the regex extractor.
func New(name string, logger *slog.Logger) (Extractor, error) {
	switch name {
	case "", NameRegex:
		return NewRegexExtractor(logger), nil
	case NameTreeSitter:
		ts, err := NewTreeSitterExtractor(logger)
		if err != nil {
			return nil, err
		}
		return ts, nil
	default:
		return nil, fmt.Errorf("unknown extractor %q", name)
	}
}
