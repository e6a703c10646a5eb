package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"repoviz/internal/llm"
	"repoviz/internal/metrics"
	"repoviz/internal/scan"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *scan.Result:
		return formatResultHuman(v), nil
	case []scan.Header:
		return formatHeadersHuman(v), nil
	case *llm.Answer:
		return formatAnswerHuman(v), nil
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

func formatResultHuman(r *scan.Result) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Scan %s\n", r.ID))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	b.WriteString(fmt.Sprintf("Source:   %s\n", r.Source))
	if r.Commit != "" {
		b.WriteString(fmt.Sprintf("Commit:   %s\n", r.Commit))
	}
	b.WriteString(fmt.Sprintf("Duration: %dms\n\n", r.DurationMs))

	if m := r.Metrics; m != nil {
		b.WriteString("Metrics:\n")
		b.WriteString(fmt.Sprintf("  Files: %d (%d skipped)  Lines: %d\n", m.TotalFiles, r.Skipped, m.TotalLines))
		b.WriteString(fmt.Sprintf("  Functions: %d (%d async)  Classes: %d\n", m.TotalFunctions, m.AsyncFunctions, m.TotalClasses))
		b.WriteString(fmt.Sprintf("  Imports: %d  Exports: %d\n", m.TotalImports, m.TotalExports))
		b.WriteString(fmt.Sprintf("  Complexity: avg %.2f, max %.2f\n", m.AvgComplexity, m.MaxComplexity))
		if len(m.Languages) > 0 {
			b.WriteString(fmt.Sprintf("  Languages: %s\n", strings.Join(m.Languages, ", ")))
		}
		b.WriteString("\n")
	}

	if in := r.Insight; in != nil {
		b.WriteString(fmt.Sprintf("Architecture: %s\n", in.Style))
		if len(in.Frameworks) > 0 {
			b.WriteString(fmt.Sprintf("  Frameworks: %s\n", strings.Join(in.Frameworks, ", ")))
		}
		if len(in.Patterns) > 0 {
			b.WriteString(fmt.Sprintf("  Patterns: %s\n", strings.Join(in.Patterns, ", ")))
		}
		if len(in.Components) > 0 {
			b.WriteString("  Components:\n")
			for _, c := range in.Components {
				b.WriteString(fmt.Sprintf("    %-20s %3d files  %s\n", c.Name, c.Files, c.Responsibility))
			}
		}
		if len(in.Recommendations) > 0 {
			b.WriteString("  Recommendations:\n")
			for _, rec := range in.Recommendations {
				b.WriteString(fmt.Sprintf("    - %s\n", rec))
			}
		}
		b.WriteString("\n")
	}

	if len(r.Patterns) > 0 {
		names := make([]string, 0, len(r.Patterns))
		for name := range r.Patterns {
			names = append(names, name)
		}
		sort.Strings(names)
		b.WriteString("Patterns:\n")
		for _, name := range names {
			v := r.Patterns[name]
			mark := "✗"
			if v.Detected {
				mark = "✓"
			}
			b.WriteString(fmt.Sprintf("  %s %-16s %.2f\n", mark, name, v.Confidence))
		}
		b.WriteString("\n")
	}

	if hot := metrics.TopComplex(r.Files, 5); len(hot) > 0 && hot[0].Complexity > 0 {
		b.WriteString("Most complex files:\n")
		for _, h := range hot {
			b.WriteString(fmt.Sprintf("  %-48s %8.2f  %5d lines\n", h.Path, h.Complexity, h.Lines))
		}
		b.WriteString("\n")
	}

	if r.Graph != nil {
		b.WriteString(fmt.Sprintf("Dependency graph: %d files, %d edges\n", len(r.Graph.Nodes), len(r.Graph.Edges)))
		if a := r.Analysis; a != nil {
			for _, h := range a.Hubs {
				b.WriteString(fmt.Sprintf("  hub   %s (in %d, out %d)\n", h.ID, h.In, h.Out))
			}
			for _, c := range a.Cycles {
				b.WriteString(fmt.Sprintf("  cycle %s\n", strings.Join(c, " -> ")))
			}
		}
		b.WriteString("\n")
	}

	if len(r.Dependencies) > 0 {
		b.WriteString(fmt.Sprintf("Dependencies (%d): %s\n\n", len(r.Dependencies), strings.Join(r.Dependencies, ", ")))
	}

	b.WriteString("Files:\n")
	for _, f := range r.Files {
		var fns, classes, imports int
		if x := f.Extraction; x != nil {
			fns, classes, imports = len(x.Functions), len(x.Classes), len(x.Imports)
		}
		b.WriteString(fmt.Sprintf("  %-48s %5d lines  fn %-3d cls %-3d imp %-3d\n",
			f.Path, f.LineCount, fns, classes, imports))
	}
	return b.String()
}

func formatHeadersHuman(headers []scan.Header) string {
	if len(headers) == 0 {
		return "No stored scans."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%-36s  %-20s  %6s  %-14s  %s\n", "ID", "CREATED", "FILES", "STYLE", "SOURCE"))
	for _, h := range headers {
		b.WriteString(fmt.Sprintf("%-36s  %-20s  %6d  %-14s  %s\n",
			h.ID, h.CreatedAt.Format("2006-01-02 15:04:05"), h.FileCount, h.Style, h.Source))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatAnswerHuman(a *llm.Answer) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Context: %d files, %dms", len(a.Files), a.DurationMs))
	if a.Truncation != nil && a.Truncation.WasTruncated() {
		b.WriteString(" (" + a.Truncation.String() + ")")
	}
	return b.String()
}
