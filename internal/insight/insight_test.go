package insight

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repoviz/internal/codebase"
	"repoviz/internal/depgraph"
	"repoviz/internal/extract"
	"repoviz/internal/metrics"
	"repoviz/internal/patterns"
)

func src(path string, functions ...string) *codebase.SourceFile {
	res := extract.Empty()
	for _, fn := range functions {
		res.Functions = append(res.Functions, extract.Function{Name: fn})
	}
	return codebase.NewSourceFile(codebase.FileInput{Path: path, Content: "x"}, res, 0)
}

func TestStyle_PriorityOrder(t *testing.T) {
	tests := []struct {
		name  string
		deps  []string
		files []*codebase.SourceFile
		want  string
	}{
		{"ui beats server", []string{"express", "react"}, nil, StyleSPA},
		{"server", []string{"express"}, nil, StyleBackend},
		{"server beats meta", []string{"next", "fastify"}, nil, StyleBackend},
		{"meta", []string{"next"}, nil, StyleFull},
		{"vanilla", nil, []*codebase.SourceFile{src("index.html"), src("site.css"), src("app.js")}, StyleVanilla},
		{"vanilla needs all three", nil, []*codebase.SourceFile{src("index.html"), src("app.js")}, StyleModular},
		{"default", []string{"lodash"}, nil, StyleModular},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(Input{Files: tt.files, Dependencies: tt.deps})
			assert.Equal(t, tt.want, got.Style)
		})
	}
}

func TestSummarize_ReactAndExpressIsSPA(t *testing.T) {
	got := Summarize(Input{Dependencies: []string{"react", "express"}})

	assert.Equal(t, StyleSPA, got.Style)
	assert.Equal(t, []string{"React", "Express.js"}, got.Frameworks)
	assert.Contains(t, got.DataFlow, "Data is fetched from a Express.js backend")
	assert.Equal(t, Confidence, got.Confidence)
}

func TestComponents(t *testing.T) {
	files := []*codebase.SourceFile{
		src("src/components/Button.jsx", "Button"),
		src("main.js", "main", "boot"),
		src("src/index.js"),
		src("services/user.js", "getUser"),
		src("api/routes.js"),
		src("utils/format.js"),
		src("config/env.js"),
		src("tests/user.test.js"),
	}

	got := Summarize(Input{Files: files}).Components

	require.Len(t, got, MaxComponents)
	assert.Equal(t, Component{Name: "src", Responsibility: "Core functionality", Files: 2, Functions: 1}, got[0])
	assert.Equal(t, Component{Name: RootComponent, Responsibility: "Core functionality", Files: 1, Functions: 2}, got[1])
	assert.Equal(t, "Business logic and services", got[2].Responsibility)
	assert.Equal(t, "API endpoints and routing", got[3].Responsibility)
	assert.Equal(t, "Utility functions and helpers", got[4].Responsibility)
	assert.Equal(t, "Configuration management", got[5].Responsibility)
}

func TestResponsibility(t *testing.T) {
	assert.Equal(t, "UI components and presentation", Responsibility("components"))
	// component outranks service
	assert.Equal(t, "UI components and presentation", Responsibility("service-components"))
	assert.Equal(t, "Testing", Responsibility("__tests__"))
	assert.Equal(t, "Core functionality", Responsibility("lib"))
}

func TestPatterns_DetectorOrderAndLimit(t *testing.T) {
	verdicts := map[string]patterns.Verdict{}
	for _, name := range patterns.Names(patterns.Default()) {
		verdicts[name] = patterns.Verdict{Detected: true}
	}
	verdicts[patterns.MVC] = patterns.Verdict{Detected: false}

	got := Summarize(Input{Patterns: verdicts}).Patterns

	assert.Equal(t, []string{
		"Module Pattern", "Factory Pattern", "Singleton Pattern", "Observer Pattern", "Component-Based Architecture",
	}, got)
}

func TestRecommendations(t *testing.T) {
	sum := &metrics.Summary{TotalFiles: 60, TotalFunctions: 150, AvgComplexity: 20, LargestFile: "big.js"}
	analysis := &depgraph.Analysis{Cycles: [][]string{{"a.js", "b.js"}}}

	got := Summarize(Input{Metrics: sum, Analysis: analysis}).Recommendations

	require.Len(t, got, MaxRecommendations)
	assert.Contains(t, got[0], "TypeScript")
	assert.Contains(t, got[1], "test framework")
	assert.Contains(t, got[2], "big.js")
	assert.Contains(t, got[3], "linter")
}

func TestRecommendations_FrameworksSuppressTriggers(t *testing.T) {
	sum := &metrics.Summary{TotalFiles: 60, TotalFunctions: 150}
	analysis := &depgraph.Analysis{Cycles: [][]string{{"a.js", "b.js"}}}

	got := Summarize(Input{
		Metrics:      sum,
		Analysis:     analysis,
		Dependencies: []string{"typescript", "jest", "eslint"},
		Patterns:     map[string]patterns.Verdict{patterns.Modules: {Detected: true}},
	}).Recommendations

	assert.Equal(t, []string{"Break 1 circular import chain(s), starting with a.js -> b.js"}, got)
}

func TestSummarize_Empty(t *testing.T) {
	got := Summarize(Input{})

	assert.Equal(t, StyleModular, got.Style)
	assert.Empty(t, got.Components)
	assert.Empty(t, got.Patterns)
	assert.Empty(t, got.Recommendations)
	assert.NotEmpty(t, got.DataFlow)
}

func TestSummarize_ComputesMetricsWhenMissing(t *testing.T) {
	files := make([]*codebase.SourceFile, 0, 12)
	for i := 0; i < 12; i++ {
		files = append(files, src(fmt.Sprintf("f%d.js", i)))
	}

	got := Summarize(Input{Files: files})

	assert.Contains(t, got.Recommendations, "Add a linter and formatter to keep style consistent")
}

func TestDetectFrameworks_DedupesLabels(t *testing.T) {
	got := DetectFrameworks([]string{"prisma", "@prisma/client", "unknown", "react"})

	require.Len(t, got, 2)
	assert.Equal(t, "Prisma", got[0].Label)
	assert.Equal(t, KindUI, got[1].Kind)
}

func TestDataFlow_MentionsHub(t *testing.T) {
	analysis := &depgraph.Analysis{Hubs: []depgraph.Degree{{ID: "lib/db.js", In: 4}}}

	got := Summarize(Input{Analysis: analysis}).DataFlow

	assert.Contains(t, got, "lib/db.js is the most shared module, imported by 4 files")
}
