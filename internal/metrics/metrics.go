// Package metrics scores files and aggregates scan-wide counts.
package metrics

import (
	"errors"
	"math"
	"sort"

	"repoviz/internal/codebase"
	"repoviz/internal/extract"
)

// Weights of the complexity score.
const (
	FunctionWeight = 1.0
	ClassWeight    = 2.0
	CallSiteWeight = 0.1
)

// ErrEmptyFileSet is returned when aggregating zero files; the mean
// complexity of nothing is undefined.
var ErrEmptyFileSet = errors.New("metrics: cannot aggregate an empty file set")

// Complexity scores a file from its extraction counts:
// functions + 2*classes + 0.1*callSites.
func Complexity(res *extract.Result) float64 {
	if res == nil {
		return 0
	}
	return FunctionWeight*float64(len(res.Functions)) +
		ClassWeight*float64(len(res.Classes)) +
		CallSiteWeight*float64(res.CallSites)
}

// Summary holds scan-wide counts.
type Summary struct {
	TotalLines      int            `json:"totalLines"`
	TotalFiles      int            `json:"totalFiles"`
	TotalFunctions  int            `json:"totalFunctions"`
	TotalClasses    int            `json:"totalClasses"`
	TotalImports    int            `json:"totalImports"`
	TotalExports    int            `json:"totalExports"`
	AsyncFunctions  int            `json:"asyncFunctions"`
	TotalBytes      int64          `json:"totalBytes"`
	AvgComplexity   float64        `json:"avgComplexity"`
	MaxComplexity   float64        `json:"maxComplexity"`
	Languages       []string       `json:"languages"`
	FilesByLanguage map[string]int `json:"filesByLanguage"`
	LargestFile     string         `json:"largestFile"`
}

// Aggregate sums per-file counts. Languages is the sorted set of
// extensions present.
func Aggregate(files []*codebase.SourceFile) (*Summary, error) {
	if len(files) == 0 {
		return nil, ErrEmptyFileSet
	}

	s := &Summary{
		TotalFiles:      len(files),
		FilesByLanguage: make(map[string]int),
	}
	exts := make(map[string]bool)
	var sum float64
	var largest int

	for _, f := range files {
		s.TotalLines += f.LineCount
		s.TotalBytes += f.Size
		if res := f.Extraction; res != nil {
			s.TotalFunctions += len(res.Functions)
			s.TotalClasses += len(res.Classes)
			s.TotalImports += len(res.Imports)
			s.TotalExports += len(res.Exports)
			s.AsyncFunctions += res.AsyncCount()
		}
		sum += f.Complexity
		if f.Complexity > s.MaxComplexity {
			s.MaxComplexity = f.Complexity
		}
		if f.LineCount > largest {
			largest = f.LineCount
			s.LargestFile = f.Path
		}
		if f.Extension != "" {
			exts[f.Extension] = true
		}
		s.FilesByLanguage[f.Language()]++
	}

	s.AvgComplexity = Round2(sum / float64(len(files)))
	s.MaxComplexity = Round2(s.MaxComplexity)

	s.Languages = make([]string, 0, len(exts))
	for ext := range exts {
		s.Languages = append(s.Languages, ext)
	}
	sort.Strings(s.Languages)

	return s, nil
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Hotspot is a file ranked by complexity.
type Hotspot struct {
	Path       string  `json:"path"`
	Complexity float64 `json:"complexity"`
	Lines      int     `json:"lines"`
}

// TopComplex returns up to n files with the highest complexity, ties broken
// by path.
func TopComplex(files []*codebase.SourceFile, n int) []Hotspot {
	ranked := make([]Hotspot, 0, len(files))
	for _, f := range files {
		ranked = append(ranked, Hotspot{Path: f.Path, Complexity: f.Complexity, Lines: f.LineCount})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Complexity != ranked[j].Complexity {
			return ranked[i].Complexity > ranked[j].Complexity
		}
		return ranked[i].Path < ranked[j].Path
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
