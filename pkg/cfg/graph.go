// Package cfg builds directed control-flow graphs from decoded instruction
// sequences and exposes the structural properties the complexity metrics
// are computed from: node and edge counts, aggregate classification counts,
// strongly connected components, and induced subgraphs.
package cfg

import (
	"fmt"
	"sort"

	"github.com/ccm-go/ccm/pkg/bytecode"
)

// Node identifies a graph node: either a real instruction offset or the
// synthetic sink that all exit edges point to. The sink is a tagged variant
// rather than a reserved offset value, so it can never collide with a real
// instruction.
type Node struct {
	Offset int  `json:"offset"`
	IsSink bool `json:"is_sink,omitempty"`
}

// Sink is the synthetic terminal node representing routine termination.
var Sink = Node{IsSink: true}

// At returns the node for an instruction offset.
func At(offset int) Node { return Node{Offset: offset} }

func (n Node) String() string {
	if n.IsSink {
		return "sink"
	}
	return fmt.Sprintf("%d", n.Offset)
}

// less orders offset nodes ascending with the sink after all of them.
func (n Node) less(m Node) bool {
	if n.IsSink != m.IsSink {
		return m.IsSink
	}
	return n.Offset < m.Offset
}

// Edge is a directed edge between two nodes.
type Edge struct {
	From Node `json:"from"`
	To   Node `json:"to"`
}

// Counts are the aggregate classification counts of the instructions backing
// a graph. They are computed once at construction and cached; a subgraph
// recomputes them from its own restricted instruction map.
type Counts struct {
	EntryPoints    int `json:"entry_points"`
	DecisionPoints int `json:"decision_points"`
	BranchPoints   int `json:"branch_points"`
	ExitPoints     int `json:"exit_points"`
}

// ValidationError reports a structurally invalid request against a graph,
// such as subgraph extraction without a selector.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "cfg: " + e.Reason
}

// Graph is an immutable directed control-flow graph over instruction
// offsets plus the synthetic sink.
type Graph struct {
	nodes  map[Node]bool
	succs  map[Node][]Node
	edges  int
	instrs map[int]bytecode.Instruction
	order  []int
	counts Counts
}

// Build constructs the control-flow graph of a decoded instruction
// sequence. For each instruction A followed by B: a fall-through edge A→B
// unless A is an exit point, a branch edge A→target when A is a branch point
// (both may coexist), and an exit edge A→sink when A is an exit point.
func Build(bc *bytecode.Bytecode) *Graph {
	instrs := bc.Instructions()

	g := &Graph{
		nodes:  make(map[Node]bool, len(instrs)+1),
		succs:  make(map[Node][]Node),
		instrs: make(map[int]bytecode.Instruction, len(instrs)),
		order:  make([]int, 0, len(instrs)),
	}

	adj := make(map[Node]map[Node]bool)
	addEdge := func(a, b Node) {
		if adj[a] == nil {
			adj[a] = make(map[Node]bool)
		}
		adj[a][b] = true
	}

	for i, in := range instrs {
		node := At(in.Offset)
		g.nodes[node] = true
		g.instrs[in.Offset] = in
		g.order = append(g.order, in.Offset)

		if i+1 < len(instrs) && !in.IsExitPoint {
			addEdge(node, At(instrs[i+1].Offset))
		}
		if target, ok := in.BranchTarget(); ok {
			if _, real := bc.At(target); real {
				addEdge(node, At(target))
			}
		}
		if in.IsExitPoint {
			addEdge(node, Sink)
		}
	}
	g.nodes[Sink] = true

	for from, tos := range adj {
		succ := make([]Node, 0, len(tos))
		for to := range tos {
			succ = append(succ, to)
		}
		sort.Slice(succ, func(i, j int) bool { return succ[i].less(succ[j]) })
		g.succs[from] = succ
		g.edges += len(succ)
	}

	g.counts = countPoints(g.instrs)
	return g
}

func countPoints(instrs map[int]bytecode.Instruction) Counts {
	var c Counts
	for _, in := range instrs {
		if in.IsEntryPoint {
			c.EntryPoints++
		}
		if in.IsDecisionPoint {
			c.DecisionPoints++
		}
		if in.IsBranchPoint {
			c.BranchPoints++
		}
		if in.IsExitPoint {
			c.ExitPoints++
		}
	}
	return c
}

// Nodes returns all nodes, offsets ascending with the sink last.
func (g *Graph) Nodes() []Node {
	nodes := make([]Node, 0, len(g.nodes))
	for n := range g.nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].less(nodes[j]) })
	return nodes
}

// Edges returns all edges ordered by source then target.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, g.edges)
	for _, from := range g.Nodes() {
		for _, to := range g.succs[from] {
			edges = append(edges, Edge{From: from, To: to})
		}
	}
	return edges
}

// NumNodes returns the node count, including the sink.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NumEdges returns the edge count.
func (g *Graph) NumEdges() int { return g.edges }

// Succs returns the successors of a node in deterministic order.
func (g *Graph) Succs(n Node) []Node { return g.succs[n] }

// HasEdge reports whether the edge from→to exists.
func (g *Graph) HasEdge(from, to Node) bool {
	for _, s := range g.succs[from] {
		if s == to {
			return true
		}
	}
	return false
}

// HasNode reports whether n is part of the graph.
func (g *Graph) HasNode(n Node) bool { return g.nodes[n] }

// Counts returns the cached aggregate classification counts.
func (g *Graph) Counts() Counts { return g.counts }

// Instruction returns the instruction backing an offset node.
func (g *Graph) Instruction(offset int) (bytecode.Instruction, bool) {
	in, ok := g.instrs[offset]
	return in, ok
}

// Offsets returns the instruction offsets in ascending order.
func (g *Graph) Offsets() []int {
	offs := make([]int, len(g.order))
	copy(offs, g.order)
	sort.Ints(offs)
	return offs
}

// Entry returns the entry node: the instruction at the lowest offset.
func (g *Graph) Entry() (Node, bool) {
	best := -1
	for off := range g.instrs {
		if best < 0 || off < best {
			best = off
		}
	}
	if best < 0 {
		return Node{}, false
	}
	return At(best), true
}

// Degenerate reports the single-instruction case where the entry
// instruction is itself an exit point.
func (g *Graph) Degenerate() bool {
	entry, ok := g.Entry()
	if !ok {
		return false
	}
	in := g.instrs[entry.Offset]
	return in.IsEntryPoint && in.IsExitPoint
}

// Subgraph returns the induced subgraph containing only the given nodes, or
// the endpoints of the given edges when no node set is supplied. The
// restricted instruction map and the aggregate counts are recomputed from
// the surviving offsets, never inherited from the parent.
func (g *Graph) Subgraph(nodes []Node, edges []Edge) (*Graph, error) {
	if len(nodes) == 0 && len(edges) == 0 {
		return nil, &ValidationError{Reason: "either a subset of nodes or edges must be provided"}
	}

	keep := make(map[Node]bool)
	if len(nodes) > 0 {
		for _, n := range nodes {
			keep[n] = true
		}
	} else {
		for _, e := range edges {
			keep[e.From] = true
			keep[e.To] = true
		}
	}

	sub := &Graph{
		nodes:  make(map[Node]bool),
		succs:  make(map[Node][]Node),
		instrs: make(map[int]bytecode.Instruction),
	}
	for n := range g.nodes {
		if keep[n] {
			sub.nodes[n] = true
			if !n.IsSink {
				sub.instrs[n.Offset] = g.instrs[n.Offset]
				sub.order = append(sub.order, n.Offset)
			}
		}
	}
	sort.Ints(sub.order)

	for from, tos := range g.succs {
		if !sub.nodes[from] {
			continue
		}
		var succ []Node
		for _, to := range tos {
			if sub.nodes[to] {
				succ = append(succ, to)
			}
		}
		if len(succ) > 0 {
			sub.succs[from] = succ
			sub.edges += len(succ)
		}
	}

	sub.counts = countPoints(sub.instrs)
	return sub, nil
}
