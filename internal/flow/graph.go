// Package flow builds and traverses the DAG of item specs that makes up
// one flow (spec §4.5). Edges are predecessor relationships: "b depends
// on a" means a must reach each phase (state discovery, diff, apply)
// before b starts that phase.
//
// Grounded on crate/rt_model/src/item_spec_graph.rs's use of petgraph for
// cycle-checked DAG storage and topological iteration; no graph library
// appears anywhere in the example pack, so the graph itself is built on
// the standard library (design note §9) while the concurrent traversal
// in walk.go is grounded on golang.org/x/sync/errgroup, the one
// concurrency-fan-out library the pack actually uses
// (theRebelliousNerd-codenerd/internal/campaign/intelligence_gatherer.go).
package flow

import (
	"fmt"
	"sort"

	"github.com/peaceflow/peace/internal/itemspec"
	"github.com/peaceflow/peace/internal/itemspec/rt"
	"github.com/peaceflow/peace/internal/peaceerrors"
)

// Graph is an immutable, cycle-free DAG of item specs for one flow.
type Graph struct {
	id    itemspec.FlowID
	items []rt.ItemSpecRt
	index map[itemspec.ID]int
	// preds[i] holds the indices of i's direct predecessors.
	preds [][]int
	// succs[i] holds the indices of i's direct successors.
	succs [][]int
}

// ID returns this graph's flow id.
func (g *Graph) ID() itemspec.FlowID { return g.id }

// ItemsInOrder returns every item in insertion order, for operations
// that don't need dependency ordering (spec §4.5 "iteration order for
// operations that don't depend on the graph shape is insertion order").
func (g *Graph) ItemsInOrder() []rt.ItemSpecRt {
	out := make([]rt.ItemSpecRt, len(g.items))
	copy(out, g.items)
	return out
}

// Len returns the number of items in the graph.
func (g *Graph) Len() int { return len(g.items) }

// Builder accumulates items and edges before cycle-checking them into a
// Graph. Zero value is not usable; use NewBuilder.
type Builder struct {
	id       itemspec.FlowID
	items    []rt.ItemSpecRt
	index    map[itemspec.ID]int
	edgesRaw [][2]itemspec.ID
}

// NewBuilder starts a Builder for the named flow.
func NewBuilder(id itemspec.FlowID) *Builder {
	return &Builder{id: id, index: make(map[itemspec.ID]int)}
}

// AddItem registers an item spec with the builder. Returns an error if
// another item with the same id was already added.
func (b *Builder) AddItem(item rt.ItemSpecRt) error {
	id := item.ID()
	if _, exists := b.index[id]; exists {
		return &peaceerrors.DuplicateItemID{ID: string(id)}
	}
	b.index[id] = len(b.items)
	b.items = append(b.items, item)
	return nil
}

// AddEdge records that `to` depends on `from`: from must complete a
// phase before to begins it. Both ids must already have been added via
// AddItem.
func (b *Builder) AddEdge(from, to itemspec.ID) error {
	if _, ok := b.index[from]; !ok {
		return &peaceerrors.Configuration{Reason: fmt.Sprintf("edge references unknown item %q", from)}
	}
	if _, ok := b.index[to]; !ok {
		return &peaceerrors.Configuration{Reason: fmt.Sprintf("edge references unknown item %q", to)}
	}
	b.edgesRaw = append(b.edgesRaw, [2]itemspec.ID{from, to})
	return nil
}

// Build validates the accumulated items and edges form a DAG (Kahn's
// algorithm) and returns the immutable Graph, or a peaceerrors.WouldCycle
// naming the edges that could not be resolved.
func (b *Builder) Build() (*Graph, error) {
	n := len(b.items)
	preds := make([][]int, n)
	succs := make([][]int, n)
	for _, e := range b.edgesRaw {
		from := b.index[e[0]]
		to := b.index[e[1]]
		succs[from] = append(succs[from], to)
		preds[to] = append(preds[to], from)
	}

	indegree := make([]int, n)
	for i := range preds {
		indegree[i] = len(preds[i])
	}

	var queue []int
	for i := 0; i < n; i++ {
		if indegree[i] == 0 {
			queue = append(queue, i)
		}
	}
	sort.Ints(queue)

	visited := 0
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		visited++
		next := append([]int{}, succs[cur]...)
		sort.Ints(next)
		for _, s := range next {
			indegree[s]--
			if indegree[s] == 0 {
				queue = append(queue, s)
			}
		}
	}

	if visited != n {
		var cycleEdges []string
		for _, e := range b.edgesRaw {
			from, to := b.index[e[0]], b.index[e[1]]
			if indegree[to] > 0 && indegree[from] >= 0 {
				cycleEdges = append(cycleEdges, fmt.Sprintf("%s -> %s", e[0], e[1]))
			}
		}
		return nil, &peaceerrors.WouldCycle{Edges: cycleEdges}
	}

	return &Graph{
		id:    b.id,
		items: b.items,
		index: b.index,
		preds: preds,
		succs: succs,
	}, nil
}
