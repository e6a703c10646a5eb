package depgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repoviz/internal/codebase"
)

func rankIDs(r []Ranked) []string {
	out := make([]string, len(r))
	for i, x := range r {
		out[i] = x.ID
	}
	return out
}

func TestRank_ImportedFilesComeFirst(t *testing.T) {
	g := Build([]*codebase.SourceFile{
		file("a.js", "./core"),
		file("b.js", "./core"),
		file("c.js", "./core"),
		file("core.js"),
	})

	ranked := g.Rank(nil, DefaultRankOptions())

	require.Len(t, ranked, 4)
	assert.Equal(t, "core.js", ranked[0].ID)

	total := 0.0
	for _, r := range ranked {
		total += r.Score
	}
	assert.InDelta(t, 1.0, total, 1e-3, "scores form a distribution")
}

func TestRank_SeedsPersonalize(t *testing.T) {
	g := Build([]*codebase.SourceFile{
		file("a.js", "./x"),
		file("b.js", "./y"),
		file("x.js"),
		file("y.js"),
	})

	ranked := g.Rank([]string{"b.js", "missing.js"}, RankOptions{TopK: 2})

	assert.ElementsMatch(t, []string{"b.js", "y.js"}, rankIDs(ranked))
}

func TestRank_UnknownSeedsFallBackToGlobal(t *testing.T) {
	g := Build([]*codebase.SourceFile{file("a.js", "./b"), file("b.js")})

	ranked := g.Rank([]string{"nope"}, DefaultRankOptions())

	assert.Equal(t, []string{"b.js", "a.js"}, rankIDs(ranked))
}

func TestRank_Empty(t *testing.T) {
	assert.Empty(t, Build(nil).Rank(nil, DefaultRankOptions()))
}
