// Package insight combines frameworks, patterns and file groupings into an
// architectural summary of a scan.
package insight

import (
	"fmt"
	"strings"

	"repoviz/internal/codebase"
	"repoviz/internal/depgraph"
	"repoviz/internal/metrics"
	"repoviz/internal/paths"
	"repoviz/internal/patterns"
)

// Limits on the summary lists.
const (
	MaxComponents      = 6
	MaxPatterns        = 5
	MaxRecommendations = 4
)

// Confidence is reported on every Insight. It is a constant, not a
// calibrated probability.
const Confidence = 0.85

// RootComponent names the bucket of files with no directory.
const RootComponent = "root"

// Input is everything Summarize looks at. Analysis and Metrics are optional.
type Input struct {
	Files        []*codebase.SourceFile
	Patterns     map[string]patterns.Verdict
	PatternOrder []string
	Dependencies []string
	Analysis     *depgraph.Analysis
	Metrics      *metrics.Summary
}

// Component is a top-level directory of the scanned tree.
type Component struct {
	Name           string `json:"name"`
	Responsibility string `json:"responsibility"`
	Files          int    `json:"files"`
	Functions      int    `json:"functions"`
	Classes        int    `json:"classes"`
}

// Insight is the architectural summary of one scan.
type Insight struct {
	Style           string      `json:"style"`
	Components      []Component `json:"components"`
	Patterns        []string    `json:"patterns"`
	Frameworks      []string    `json:"frameworks"`
	DataFlow        []string    `json:"dataFlow"`
	Recommendations []string    `json:"recommendations"`
	Confidence      float64     `json:"confidence"`
}

// Summarize builds an Insight. It never fails; missing inputs yield
// shorter lists.
func Summarize(in Input) *Insight {
	frameworks := DetectFrameworks(in.Dependencies)
	kinds := make(map[Kind][]string)
	labels := make([]string, 0, len(frameworks))
	for _, fw := range frameworks {
		kinds[fw.Kind] = append(kinds[fw.Kind], fw.Label)
		labels = append(labels, fw.Label)
	}

	exts := make(map[string]bool)
	for _, f := range in.Files {
		exts[f.Extension] = true
	}

	sum := in.Metrics
	if sum == nil && len(in.Files) > 0 {
		// Files is non-empty, so Aggregate cannot fail.
		sum, _ = metrics.Aggregate(in.Files)
	}

	ctx := &facts{kinds: kinds, exts: exts, patterns: in.Patterns, analysis: in.Analysis, metrics: sum}
	style := selectStyle(ctx)

	return &Insight{
		Style:           style,
		Components:      groupComponents(in.Files),
		Patterns:        detectedPatterns(in.Patterns, in.PatternOrder),
		Frameworks:      labels,
		DataFlow:        dataFlow(style, ctx),
		Recommendations: recommend(ctx),
		Confidence:      Confidence,
	}
}

// facts carries the derived facts shared by the rule lists.
type facts struct {
	kinds    map[Kind][]string
	exts     map[string]bool
	patterns map[string]patterns.Verdict
	analysis *depgraph.Analysis
	metrics  *metrics.Summary
}

func (c *facts) has(k Kind) bool { return len(c.kinds[k]) > 0 }

func (c *facts) detected(name string) bool { return c.patterns[name].Detected }

// Architectural styles.
const (
	StyleSPA     = "Component-Based SPA"
	StyleBackend = "REST API / Backend Service"
	StyleFull    = "Full-Stack Framework"
	StyleVanilla = "Vanilla Web Application"
	StyleModular = "Modular Architecture"
)

// styleRules are evaluated in order; the first match wins.
var styleRules = []struct {
	style string
	match func(*facts) bool
}{
	{StyleSPA, func(c *facts) bool { return c.has(KindUI) }},
	{StyleBackend, func(c *facts) bool { return c.has(KindServer) }},
	{StyleFull, func(c *facts) bool { return c.has(KindMeta) }},
	{StyleVanilla, func(c *facts) bool {
		return (c.exts["html"] || c.exts["htm"]) && c.exts["css"] && c.exts["js"]
	}},
}

func selectStyle(c *facts) string {
	for _, r := range styleRules {
		if r.match(c) {
			return r.style
		}
	}
	return StyleModular
}

// responsibilities are checked in order against a component name.
var responsibilities = []struct {
	keywords []string
	label    string
}{
	{[]string{"component"}, "UI components and presentation"},
	{[]string{"service"}, "Business logic and services"},
	{[]string{"api", "route"}, "API endpoints and routing"},
	{[]string{"util", "helper"}, "Utility functions and helpers"},
	{[]string{"config"}, "Configuration management"},
	{[]string{"test"}, "Testing"},
}

// Responsibility infers what a directory is for from its name.
func Responsibility(name string) string {
	lower := strings.ToLower(name)
	for _, r := range responsibilities {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.label
			}
		}
	}
	return "Core functionality"
}

func groupComponents(files []*codebase.SourceFile) []Component {
	var order []string
	byName := make(map[string]*Component)
	for _, f := range files {
		name := paths.TopSegment(f.Path)
		if name == "" {
			name = RootComponent
		}
		c, ok := byName[name]
		if !ok {
			c = &Component{Name: name, Responsibility: Responsibility(name)}
			byName[name] = c
			order = append(order, name)
		}
		c.Files++
		c.Functions += len(f.Extraction.Functions)
		c.Classes += len(f.Extraction.Classes)
	}

	if len(order) > MaxComponents {
		order = order[:MaxComponents]
	}
	out := make([]Component, 0, len(order))
	for _, name := range order {
		out = append(out, *byName[name])
	}
	return out
}

func detectedPatterns(verdicts map[string]patterns.Verdict, order []string) []string {
	if len(order) == 0 {
		order = patterns.Names(patterns.Default())
	}
	out := []string{}
	for _, name := range order {
		if v, ok := verdicts[name]; ok && v.Detected {
			out = append(out, patterns.DisplayName(name))
			if len(out) == MaxPatterns {
				break
			}
		}
	}
	return out
}

func dataFlow(style string, c *facts) []string {
	var flow []string
	switch style {
	case StyleSPA:
		flow = append(flow,
			fmt.Sprintf("User interactions in %s components update local state", c.kinds[KindUI][0]),
			"Components re-render from props and state",
		)
		if c.has(KindState) {
			flow = append(flow, fmt.Sprintf("Shared application state is managed with %s", c.kinds[KindState][0]))
		}
		if c.has(KindServer) {
			flow = append(flow, fmt.Sprintf("Data is fetched from a %s backend", c.kinds[KindServer][0]))
		}
	case StyleBackend:
		flow = append(flow, fmt.Sprintf("HTTP requests enter through %s routes", c.kinds[KindServer][0]))
		if c.detected(patterns.MVCMiddleware) {
			flow = append(flow, "Middleware processes each request before its handler")
		}
		if c.detected(patterns.ServiceLayer) {
			flow = append(flow, "Handlers delegate business logic to services")
		}
		if c.has(KindData) {
			flow = append(flow, fmt.Sprintf("Data is persisted through %s", c.kinds[KindData][0]))
		}
		flow = append(flow, "Responses are serialized back to the client")
	case StyleFull:
		flow = append(flow,
			fmt.Sprintf("%s renders pages on the server and hydrates them in the browser", c.kinds[KindMeta][0]),
			"API routes serve data to pages",
		)
	case StyleVanilla:
		flow = append(flow,
			"HTML pages load scripts and stylesheets",
			"Browser events are handled by scripts that update the DOM directly",
		)
	default:
		flow = append(flow,
			"Entry modules import and compose internal modules",
			"Data passes between modules through exported functions",
		)
	}

	if c.analysis != nil && len(c.analysis.Hubs) > 0 {
		hub := c.analysis.Hubs[0]
		flow = append(flow, fmt.Sprintf("%s is the most shared module, imported by %d files", hub.ID, hub.In))
	}
	return flow
}

// Recommendation thresholds.
const (
	typingFileThreshold     = 50
	testFunctionThreshold   = 100
	complexityThreshold     = 15.0
	lintFileThreshold       = 10
	modularityFileThreshold = 5
)

// recommendations are independent triggers evaluated in order.
var recommendations = []func(*facts) string{
	func(c *facts) string {
		if c.metrics != nil && c.metrics.TotalFiles > typingFileThreshold && !c.has(KindTyping) {
			return fmt.Sprintf("Consider TypeScript or another static type checker for a codebase of %d files", c.metrics.TotalFiles)
		}
		return ""
	},
	func(c *facts) string {
		if c.metrics != nil && c.metrics.TotalFunctions > testFunctionThreshold && !c.has(KindTest) {
			return fmt.Sprintf("Add a test framework: %d functions have no detected test tooling", c.metrics.TotalFunctions)
		}
		return ""
	},
	func(c *facts) string {
		if c.metrics != nil && c.metrics.AvgComplexity > complexityThreshold {
			return fmt.Sprintf("Split complex files (average complexity %.2f, largest file %s)", c.metrics.AvgComplexity, c.metrics.LargestFile)
		}
		return ""
	},
	func(c *facts) string {
		if c.metrics != nil && c.metrics.TotalFiles > lintFileThreshold && !c.has(KindLint) {
			return "Add a linter and formatter to keep style consistent"
		}
		return ""
	},
	func(c *facts) string {
		if c.analysis != nil && len(c.analysis.Cycles) > 0 {
			return fmt.Sprintf("Break %d circular import chain(s), starting with %s", len(c.analysis.Cycles), strings.Join(c.analysis.Cycles[0], " -> "))
		}
		return ""
	},
	func(c *facts) string {
		if c.metrics != nil && c.metrics.TotalFiles > modularityFileThreshold && !c.detected(patterns.Modules) {
			return "Organize code into modules with explicit imports and exports"
		}
		return ""
	},
}

func recommend(c *facts) []string {
	out := []string{}
	for _, rule := range recommendations {
		if r := rule(c); r != "" {
			out = append(out, r)
			if len(out) == MaxRecommendations {
				break
			}
		}
	}
	return out
}
