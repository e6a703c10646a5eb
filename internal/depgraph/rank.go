package depgraph

import (
	"math"
	"sort"
)

// RankOptions configures Rank.
type RankOptions struct {
	// Damping is the probability of following an import rather than
	// jumping back to a seed (default 0.85).
	Damping float64
	// MaxIterations caps the power iteration (default 30).
	MaxIterations int
	// Tolerance is the L-inf convergence threshold (default 1e-6).
	Tolerance float64
	// TopK limits the result; 0 returns every node with a positive score.
	TopK int
}

// DefaultRankOptions returns the options used by the prompt builder.
func DefaultRankOptions() RankOptions {
	return RankOptions{Damping: 0.85, MaxIterations: 30, Tolerance: 1e-6}
}

// Ranked is a file with its centrality score.
type Ranked struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Rank orders files by PageRank over the import edges, so heavily imported
// files come first. With seeds the walk restarts only at those files
// (personalized PageRank); unknown seeds are ignored, and when none remain
// every file is a restart point. Edge weights bias the walk.
func (g *Graph) Rank(seeds []string, opts RankOptions) []Ranked {
	n := len(g.Nodes)
	if n == 0 {
		return []Ranked{}
	}
	if opts.Damping <= 0 || opts.Damping >= 1 {
		opts.Damping = 0.85
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 30
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = 1e-6
	}

	idx := make(map[string]int, n)
	for i, node := range g.Nodes {
		idx[node.ID] = i
	}

	teleport := make([]float64, n)
	var restart []int
	for _, s := range seeds {
		if i, ok := idx[s]; ok && teleport[i] == 0 {
			teleport[i] = 1
			restart = append(restart, i)
		}
	}
	if len(restart) == 0 {
		for i := range teleport {
			teleport[i] = 1
		}
		restart = make([]int, n)
	}
	for i := range teleport {
		teleport[i] /= float64(len(restart))
	}

	type out struct {
		target int
		weight float64
	}
	outEdges := make([][]out, n)
	outWeight := make([]float64, n)
	for _, e := range g.Edges {
		s, okS := idx[e.Source]
		t, okT := idx[e.Target]
		if !okS || !okT {
			continue
		}
		w := float64(e.Weight)
		if w <= 0 {
			w = 1
		}
		outEdges[s] = append(outEdges[s], out{target: t, weight: w})
		outWeight[s] += w
	}

	scores := append([]float64(nil), teleport...)
	next := make([]float64, n)
	for iter := 0; iter < opts.MaxIterations; iter++ {
		// Files with no imports hand their mass back to the restart set.
		dangling := 0.0
		for i := range next {
			next[i] = 0
			if outWeight[i] == 0 {
				dangling += scores[i]
			}
		}
		for i, edges := range outEdges {
			if outWeight[i] == 0 {
				continue
			}
			share := scores[i] / outWeight[i]
			for _, e := range edges {
				next[e.target] += share * e.weight
			}
		}

		maxDiff := 0.0
		for i := range next {
			next[i] = opts.Damping*(next[i]+dangling*teleport[i]) + (1-opts.Damping)*teleport[i]
			maxDiff = math.Max(maxDiff, math.Abs(next[i]-scores[i]))
		}
		scores, next = next, scores
		if maxDiff < opts.Tolerance {
			break
		}
	}

	ranked := make([]Ranked, 0, n)
	for i, s := range scores {
		if s > 0 {
			ranked = append(ranked, Ranked{ID: g.Nodes[i].ID, Score: s})
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].ID < ranked[j].ID
	})
	if opts.TopK > 0 && len(ranked) > opts.TopK {
		ranked = ranked[:opts.TopK]
	}
	return ranked
}
