package cfg

import "sort"

// SCC returns the strongly connected components of the graph, each sorted by
// node order, components ordered by their smallest node.
//
// The decomposition runs on the graph augmented with a completion edge from
// the sink back to the entry node. Without it every acyclic routine would
// decompose into one singleton component per node; with it a routine whose
// exits all reach the sink forms a single component, which is the
// connectivity the metric preconditions are stated against.
func (g *Graph) SCC() [][]Node {
	succs := func(n Node) []Node {
		s := g.succs[n]
		if n.IsSink {
			if entry, ok := g.Entry(); ok {
				s = append(append([]Node(nil), s...), entry)
			}
		}
		return s
	}

	t := &tarjan{
		index:   make(map[Node]int),
		lowlink: make(map[Node]int),
		onStack: make(map[Node]bool),
		succs:   succs,
	}
	for _, n := range g.Nodes() {
		if _, seen := t.index[n]; !seen {
			t.strongConnect(n)
		}
	}

	for _, comp := range t.components {
		sort.Slice(comp, func(i, j int) bool { return comp[i].less(comp[j]) })
	}
	sort.Slice(t.components, func(i, j int) bool {
		return t.components[i][0].less(t.components[j][0])
	})
	return t.components
}

// SCCCount returns the number of strongly connected components.
func (g *Graph) SCCCount() int { return len(g.SCC()) }

// tarjan carries the state of Tarjan's strongly-connected-components
// algorithm.
type tarjan struct {
	counter    int
	index      map[Node]int
	lowlink    map[Node]int
	onStack    map[Node]bool
	stack      []Node
	succs      func(Node) []Node
	components [][]Node
}

func (t *tarjan) strongConnect(v Node) {
	t.index[v] = t.counter
	t.lowlink[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.succs(v) {
		if _, seen := t.index[w]; !seen {
			t.strongConnect(w)
			if t.lowlink[w] < t.lowlink[v] {
				t.lowlink[v] = t.lowlink[w]
			}
		} else if t.onStack[w] && t.index[w] < t.lowlink[v] {
			t.lowlink[v] = t.index[w]
		}
	}

	if t.lowlink[v] == t.index[v] {
		var comp []Node
		for {
			w := t.stack[len(t.stack)-1]
			t.stack = t.stack[:len(t.stack)-1]
			t.onStack[w] = false
			comp = append(comp, w)
			if w == v {
				break
			}
		}
		t.components = append(t.components, comp)
	}
}
