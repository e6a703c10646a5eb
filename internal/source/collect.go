package source

import (
	"log/slog"
	"path"

	"repoviz/internal/codebase"
	"repoviz/internal/paths"
	"repoviz/internal/slogutil"
)

// Snapshot describes a loaded tree.
type Snapshot struct {
	Origin  string `json:"origin"`
	Commit  string `json:"commit,omitempty"`
	Files   int    `json:"files"`
	Skipped int    `json:"skipped"`
}

// collector applies a Filter to candidate files and accumulates inputs.
type collector struct {
	filter *Filter
	logger *slog.Logger
	inputs []codebase.FileInput
	snap   Snapshot
	full   bool
}

func newCollector(filter *Filter, logger *slog.Logger, origin string) *collector {
	if filter == nil {
		filter = &Filter{}
	}
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &collector{
		filter: filter,
		logger: logger,
		inputs: []codebase.FileInput{},
		snap:   Snapshot{Origin: origin},
	}
}

// add records a file unless it is ignored, too large, binary or over the
// file limit. It returns false once the limit is reached.
func (c *collector) add(rel string, content []byte) bool {
	rel = paths.NormalizePath(rel)
	switch {
	case c.full:
		c.snap.Skipped++
		return false
	case c.filter.Ignored(rel, false):
		c.snap.Skipped++
		return true
	case c.filter.TooLarge(int64(len(content))):
		c.logger.Debug("Skipping large file", "path", rel, "size", len(content))
		c.snap.Skipped++
		return true
	case IsBinary(rel, content):
		c.snap.Skipped++
		return true
	}

	c.inputs = append(c.inputs, codebase.FileInput{
		Name:      path.Base(rel),
		Path:      rel,
		Content:   string(content),
		Extension: paths.Ext(rel),
		Size:      int64(len(content)),
	})
	if c.filter.Full(len(c.inputs)) {
		c.logger.Warn("File limit reached, remaining files skipped", "limit", c.filter.MaxFiles)
		c.full = true
		return false
	}
	return true
}

func (c *collector) result() ([]codebase.FileInput, Snapshot) {
	c.snap.Files = len(c.inputs)
	return c.inputs, c.snap
}
