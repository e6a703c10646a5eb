package depgraph

import (
	"fmt"
	"sort"

	"github.com/dominikbraun/graph"
)

// MaxHubs bounds Analysis.Hubs.
const MaxHubs = 10

// Degree is the number of distinct import edges entering and leaving a file.
type Degree struct {
	ID  string `json:"id"`
	In  int    `json:"in"`
	Out int    `json:"out"`
}

// Analysis is structural information derived from a Graph.
type Analysis struct {
	// Cycles holds every import cycle: strongly connected components with
	// more than one file, plus files that import themselves. Members are
	// sorted, and cycles are ordered by their first member.
	Cycles  [][]string        `json:"cycles"`
	Orphans []string          `json:"orphans"`
	Hubs    []Degree          `json:"hubs"`
	Degrees map[string]Degree `json:"degrees"`
}

// Analyze computes cycles, orphan files and hubs.
func Analyze(dg *Graph) (*Analysis, error) {
	g := graph.New(func(n *Node) string { return n.ID }, graph.Directed())
	for _, n := range dg.Nodes {
		if err := g.AddVertex(n); err != nil {
			return nil, fmt.Errorf("add vertex %s: %w", n.ID, err)
		}
	}

	selfLoops := make(map[string]bool)
	for _, e := range dg.Edges {
		if e.Source == e.Target {
			selfLoops[e.Source] = true
			continue
		}
		if err := g.AddEdge(e.Source, e.Target, graph.EdgeWeight(e.Weight)); err != nil {
			return nil, fmt.Errorf("add edge %s -> %s: %w", e.Source, e.Target, err)
		}
	}

	adjacency, err := g.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("adjacency map: %w", err)
	}
	predecessors, err := g.PredecessorMap()
	if err != nil {
		return nil, fmt.Errorf("predecessor map: %w", err)
	}
	components, err := graph.StronglyConnectedComponents(g)
	if err != nil {
		return nil, fmt.Errorf("strongly connected components: %w", err)
	}

	a := &Analysis{
		Cycles:  [][]string{},
		Orphans: []string{},
		Hubs:    []Degree{},
		Degrees: make(map[string]Degree, len(dg.Nodes)),
	}

	for _, comp := range components {
		if len(comp) > 1 {
			cycle := append([]string(nil), comp...)
			sort.Strings(cycle)
			a.Cycles = append(a.Cycles, cycle)
		}
	}
	for id := range selfLoops {
		a.Cycles = append(a.Cycles, []string{id})
	}
	sort.Slice(a.Cycles, func(i, j int) bool { return a.Cycles[i][0] < a.Cycles[j][0] })

	for _, n := range dg.Nodes {
		d := Degree{ID: n.ID, In: len(predecessors[n.ID]), Out: len(adjacency[n.ID])}
		if selfLoops[n.ID] {
			d.In++
			d.Out++
		}
		a.Degrees[n.ID] = d
		if d.In == 0 && d.Out == 0 {
			a.Orphans = append(a.Orphans, n.ID)
		}
		if d.In > 0 {
			a.Hubs = append(a.Hubs, d)
		}
	}

	sort.SliceStable(a.Hubs, func(i, j int) bool {
		if a.Hubs[i].In != a.Hubs[j].In {
			return a.Hubs[i].In > a.Hubs[j].In
		}
		return a.Hubs[i].ID < a.Hubs[j].ID
	})
	if len(a.Hubs) > MaxHubs {
		a.Hubs = a.Hubs[:MaxHubs]
	}
	return a, nil
}
