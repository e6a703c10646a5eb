// Package scan runs the extraction pipeline over a set of decoded files.
//
// Per-file extraction fans out over a bounded worker group. Graph building,
// pattern detection, metrics and the insight summary run once every file
// has been extracted.
package scan

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"repoviz/internal/codebase"
	"repoviz/internal/depgraph"
	"repoviz/internal/errors"
	"repoviz/internal/extract"
	"repoviz/internal/insight"
	"repoviz/internal/manifest"
	"repoviz/internal/metrics"
	"repoviz/internal/patterns"
	"repoviz/internal/slogutil"
)

// Pipeline turns file inputs into a Result. The zero value is not usable;
// build one with NewPipeline.
type Pipeline struct {
	Extractor extract.Extractor
	Detectors []patterns.Detector
	Workers   int
	Logger    *slog.Logger
	// Cache is optional.
	Cache *Cache
}

// NewPipeline returns a pipeline using x and the default detectors.
// workers <= 0 means runtime.NumCPU().
func NewPipeline(x extract.Extractor, workers int, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pipeline{
		Extractor: x,
		Detectors: patterns.Default(),
		Workers:   workers,
		Logger:    logger,
	}
}

// Options describe where the inputs came from.
type Options struct {
	Source  string
	Commit  string
	Skipped int
	// Progress, when set, is called after each file is extracted. Calls are
	// serialized.
	Progress func(done, total int)
}

// Run scans inputs. It fails only on empty input or cancellation.
func (p *Pipeline) Run(ctx context.Context, inputs []codebase.FileInput, opts Options) (*Result, error) {
	if len(inputs) == 0 {
		return nil, errors.New(errors.NoSourceFiles, "no source files to scan", nil)
	}
	start := time.Now()

	var key string
	if p.Cache != nil {
		key = fmt.Sprintf("%T:%s", p.Extractor, Fingerprint(inputs))
		if cached, ok := p.Cache.Get(key); ok {
			res := stamp(cached, opts, start)
			p.Logger.Debug("Scan served from cache", "id", res.ID, "files", len(res.Files))
			return res, nil
		}
	}

	files, err := p.extractAll(ctx, inputs, opts.Progress)
	if err != nil {
		return nil, err
	}

	graph := depgraph.Build(files)
	analysis, err := depgraph.Analyze(graph)
	if err != nil {
		p.Logger.Warn("Graph analysis failed", "error", err.Error())
		analysis = nil
	}

	verdicts := patterns.DetectAll(files, p.Detectors...)

	summary, err := metrics.Aggregate(files)
	if err != nil {
		return nil, errors.New(errors.InternalError, "aggregate metrics", err)
	}

	man := manifest.Parse(inputs, p.Logger)

	ins := insight.Summarize(insight.Input{
		Files:        files,
		Patterns:     verdicts,
		PatternOrder: patterns.Names(p.Detectors),
		Dependencies: man.Dependencies,
		Analysis:     analysis,
		Metrics:      summary,
	})

	computed := &Result{
		Files:        files,
		Graph:        graph,
		Analysis:     analysis,
		Patterns:     verdicts,
		Metrics:      summary,
		Insight:      ins,
		Dependencies: man.Dependencies,
		Manifests:    man.Sources,
	}
	res := stamp(computed, opts, start)

	p.Logger.Info("Scan complete",
		"id", res.ID,
		"source", res.Source,
		"files", len(files),
		"edges", len(graph.Edges),
		"style", ins.Style,
		"duration", time.Since(start).String(),
	)

	if p.Cache != nil {
		p.Cache.Put(key, computed)
	}
	return res, nil
}

// stamp copies the computed parts of r into a new Result carrying a fresh
// id and the caller's origin.
func stamp(r *Result, opts Options, start time.Time) *Result {
	res := *r
	res.ID = uuid.NewString()
	res.Source = opts.Source
	res.Commit = opts.Commit
	res.Skipped = opts.Skipped
	res.CreatedAt = time.Now().UTC()
	res.DurationMs = time.Since(start).Milliseconds()
	return &res
}

// extractAll runs the extractor over every input, preserving input order.
func (p *Pipeline) extractAll(ctx context.Context, inputs []codebase.FileInput, progress func(int, int)) ([]*codebase.SourceFile, error) {
	files := make([]*codebase.SourceFile, len(inputs))

	var mu sync.Mutex
	done := 0
	report := func() {
		if progress == nil {
			return
		}
		mu.Lock()
		done++
		progress(done, len(inputs))
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Workers)
	for i, in := range inputs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			in = codebase.Normalize(in)
			res := p.Extractor.Extract(in.Content, in.Name, in.Extension)
			files[i] = codebase.NewSourceFile(in, res, metrics.Complexity(res))
			report()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, canceled(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, canceled(err)
	}
	return files, nil
}

func canceled(err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.New(errors.Timeout, "scan timed out", err)
	}
	return fmt.Errorf("scan canceled: %w", err)
}
