package scan

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"repoviz/internal/codebase"
	"repoviz/internal/errors"
	"repoviz/internal/extract"
	"repoviz/internal/insight"
	"repoviz/internal/patterns"
)

func inputs() []codebase.FileInput {
	return []codebase.FileInput{
		{Path: "package.json", Content: `{"dependencies": {"react": "18", "express": "4"}}`},
		{Path: "src/models/user.js", Content: "const db = require('../db')\nclass User {}\nmodule.exports = User\n"},
		{Path: "src/views/home.js", Content: "import User from '../models/user'\nexport function render() { return User }\n"},
		{Path: "src/controllers/home.js", Content: "import { render } from '../views/home'\nexport const index = (req, res) => res.send(render())\n"},
		{Path: "src/db.js", Content: "function createPool() {}\nmodule.exports = createPool()\n"},
	}
}

func TestRun(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	p := NewPipeline(extract.NewRegexExtractor(nil), 2, nil)

	res, err := p.Run(context.Background(), inputs(), Options{Source: "fixture"})
	require.NoError(t, err)

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, "fixture", res.Source)
	require.Len(t, res.Files, 5)
	assert.Equal(t, "src/models/user.js", res.Files[1].Path, "input order is kept")
	assert.Equal(t, 5, res.Metrics.TotalFiles)

	assert.Len(t, res.Graph.Edges, 3)
	assert.True(t, res.Patterns[patterns.MVC].Detected)
	assert.True(t, res.Patterns[patterns.Modules].Detected)
	assert.Equal(t, []string{"react", "express"}, res.Dependencies)
	assert.Equal(t, []string{"package.json"}, res.Manifests)
	assert.Equal(t, insight.StyleSPA, res.Insight.Style)
	require.NotNil(t, res.Analysis)
	assert.Empty(t, res.Analysis.Cycles)
}

func TestRun_EmptyInput(t *testing.T) {
	p := NewPipeline(extract.NewRegexExtractor(nil), 1, nil)

	_, err := p.Run(context.Background(), nil, Options{})

	assert.True(t, errors.HasCode(err, errors.NoSourceFiles))
}

func TestRun_Canceled(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPipeline(extract.NewRegexExtractor(nil), 4, nil).Run(ctx, inputs(), Options{})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_DeadlineIsTimeout(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := NewPipeline(extract.NewRegexExtractor(nil), 1, nil).Run(ctx, inputs(), Options{})

	assert.True(t, errors.HasCode(err, errors.Timeout))
}

func TestRun_ProgressAndParallelism(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var in []codebase.FileInput
	for i := 0; i < 200; i++ {
		in = append(in, codebase.FileInput{
			Path:    fmt.Sprintf("pkg%d/mod%d.js", i%7, i),
			Content: fmt.Sprintf("export function f%d() { return g() }\n", i),
		})
	}

	var calls atomic.Int32
	last := 0
	res, err := NewPipeline(extract.NewRegexExtractor(nil), 8, nil).Run(context.Background(), in, Options{
		Progress: func(done, total int) {
			calls.Add(1)
			assert.Equal(t, 200, total)
			assert.Equal(t, last+1, done)
			last = done
		},
	})
	require.NoError(t, err)

	assert.Equal(t, int32(200), calls.Load())
	for i, f := range res.Files {
		require.NotNil(t, f)
		assert.Equal(t, in[i].Path, f.Path)
		assert.Equal(t, fmt.Sprintf("f%d", i), f.Extraction.Functions[0].Name)
	}
}

func TestRun_Cache(t *testing.T) {
	cache, err := NewCache(16, time.Minute)
	require.NoError(t, err)
	defer cache.Close()

	p := NewPipeline(extract.NewRegexExtractor(nil), 2, nil)
	p.Cache = cache

	first, err := p.Run(context.Background(), inputs(), Options{})
	require.NoError(t, err)

	reordered := inputs()
	reordered[0], reordered[4] = reordered[4], reordered[0]
	second, err := p.Run(context.Background(), reordered, Options{})
	require.NoError(t, err)
	assert.Same(t, first.Graph, second.Graph, "served from cache")

	changed := inputs()
	changed[1].Content += "\n// edit"
	third, err := p.Run(context.Background(), changed, Options{})
	require.NoError(t, err)
	assert.NotSame(t, first.Graph, third.Graph)
}

func TestRun_CacheHitKeepsCallerOrigin(t *testing.T) {
	cache, err := NewCache(16, time.Minute)
	require.NoError(t, err)
	defer cache.Close()

	p := NewPipeline(extract.NewRegexExtractor(nil), 2, nil)
	p.Cache = cache

	upload, err := p.Run(context.Background(), inputs(), Options{Source: "upload-a.zip", Skipped: 2})
	require.NoError(t, err)
	clone, err := p.Run(context.Background(), inputs(), Options{Source: "https://github.com/x/y", Commit: "abc123"})
	require.NoError(t, err)

	assert.Same(t, upload.Graph, clone.Graph, "served from cache")
	assert.NotEqual(t, upload.ID, clone.ID)
	assert.Equal(t, "https://github.com/x/y", clone.Source)
	assert.Equal(t, "abc123", clone.Commit)
	assert.Equal(t, 0, clone.Skipped)
	assert.False(t, clone.CreatedAt.Before(upload.CreatedAt))

	assert.Equal(t, "upload-a.zip", upload.Source, "earlier result is not mutated")
	assert.Equal(t, 2, upload.Skipped)
}

func TestRun_PathOnlyInputs(t *testing.T) {
	p := NewPipeline(extract.NewRegexExtractor(nil), 1, nil)

	res, err := p.Run(context.Background(), []codebase.FileInput{
		{Path: "a.js", Content: "import { b } from './b'\nimport _ from 'lodash'\n"},
		{Path: "b.js", Content: "export const b = 1\n"},
	}, Options{})
	require.NoError(t, err)

	a := res.Files[0]
	assert.Equal(t, "a.js", a.Name)
	assert.Equal(t, "js", a.Extension)
	assert.Len(t, a.Extraction.Imports, 2)
	require.Len(t, res.Graph.Edges, 1)
	assert.Equal(t, "a.js", res.Graph.Edges[0].Source)
	assert.Equal(t, "b.js", res.Graph.Edges[0].Target)
}

func TestFingerprint(t *testing.T) {
	a := []codebase.FileInput{{Path: "a", Content: "bc"}, {Path: "d", Content: ""}}
	b := []codebase.FileInput{{Path: "d", Content: ""}, {Path: "./a", Content: "bc"}}
	c := []codebase.FileInput{{Path: "ab", Content: "c"}, {Path: "d", Content: ""}}

	assert.Equal(t, Fingerprint(a), Fingerprint(b))
	assert.NotEqual(t, Fingerprint(a), Fingerprint(c))
}

func TestNewCache_RejectsZeroSize(t *testing.T) {
	_, err := NewCache(0, time.Minute)
	assert.Error(t, err)
}

func TestResultHeader(t *testing.T) {
	res, err := NewPipeline(extract.NewRegexExtractor(nil), 1, nil).Run(context.Background(), inputs(), Options{Source: "x", Commit: "abc"})
	require.NoError(t, err)

	h := res.Header()
	assert.Equal(t, res.ID, h.ID)
	assert.Equal(t, 5, h.FileCount)
	assert.Equal(t, insight.StyleSPA, h.Style)

	f, ok := res.File("src/db.js")
	require.True(t, ok)
	assert.Equal(t, "createPool", f.Extraction.Functions[0].Name)
}
