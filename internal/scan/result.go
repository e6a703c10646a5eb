package scan

import (
	"time"

	"repoviz/internal/codebase"
	"repoviz/internal/depgraph"
	"repoviz/internal/insight"
	"repoviz/internal/metrics"
	"repoviz/internal/patterns"
)

// Result is everything a scan produced. It is the payload handed to the
// API, the store and the prompt builder.
type Result struct {
	ID           string                      `json:"id"`
	Source       string                      `json:"source"`
	Commit       string                      `json:"commit,omitempty"`
	CreatedAt    time.Time                   `json:"createdAt"`
	Files        []*codebase.SourceFile      `json:"files"`
	Graph        *depgraph.Graph             `json:"graph"`
	Analysis     *depgraph.Analysis          `json:"analysis,omitempty"`
	Patterns     map[string]patterns.Verdict `json:"patterns"`
	Metrics      *metrics.Summary            `json:"metrics"`
	Insight      *insight.Insight            `json:"insight"`
	Dependencies []string                    `json:"dependencies"`
	Manifests    []string                    `json:"manifests"`
	Skipped      int                         `json:"skipped"`
	DurationMs   int64                       `json:"durationMs"`
}

// Header is the listing view of a stored scan.
type Header struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Commit    string    `json:"commit,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	FileCount int       `json:"fileCount"`
	Style     string    `json:"style"`
}

// Header returns the listing view of r.
func (r *Result) Header() Header {
	h := Header{
		ID:        r.ID,
		Source:    r.Source,
		Commit:    r.Commit,
		CreatedAt: r.CreatedAt,
		FileCount: len(r.Files),
	}
	if r.Insight != nil {
		h.Style = r.Insight.Style
	}
	return h
}

// File returns the scanned file at path.
func (r *Result) File(path string) (*codebase.SourceFile, bool) {
	for _, f := range r.Files {
		if f.Path == path {
			return f, true
		}
	}
	return nil, false
}
