package cfg

import (
	"errors"
	"testing"

	"github.com/ccm-go/ccm/pkg/bytecode"
)

// decode is a test helper turning a code object into its instruction
// sequence, failing the test on decode errors.
func decode(t *testing.T, co *bytecode.CodeObject) *bytecode.Bytecode {
	t.Helper()
	bc, err := bytecode.Decode(co)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return bc
}

// returnNone is the smallest complete routine: load None, return it.
func returnNone() *bytecode.CodeObject {
	return &bytecode.CodeObject{
		Name:      "noop",
		Code:      []byte{byte(bytecode.LoadConst), 0, byte(bytecode.ReturnValue), 0},
		Consts:    []any{nil},
		FirstLine: 1,
	}
}

// ifElse compiles to the shape of "return 1 if x else 2".
func ifElse() *bytecode.CodeObject {
	return &bytecode.CodeObject{
		Name: "pick",
		Code: []byte{
			byte(bytecode.LoadFast), 0, // 0
			byte(bytecode.PopJumpFalse), 8, // 2
			byte(bytecode.LoadConst), 0, // 4
			byte(bytecode.ReturnValue), 0, // 6
			byte(bytecode.LoadConst), 1, // 8
			byte(bytecode.ReturnValue), 0, // 10
		},
		Consts:    []any{float64(1), float64(2)},
		Varnames:  []string{"x"},
		FirstLine: 1,
	}
}

// twoLoops has two self-loops and no path to an exit, so its graph falls
// apart into multiple components even with the completion edge.
func twoLoops() *bytecode.CodeObject {
	return &bytecode.CodeObject{
		Name: "spin",
		Code: []byte{
			byte(bytecode.JumpAbsolute), 0, // 0
			byte(bytecode.JumpAbsolute), 2, // 2
		},
		FirstLine: 1,
	}
}

func TestBuildStraightLine(t *testing.T) {
	g := Build(decode(t, returnNone()))

	if g.NumNodes() != 3 {
		t.Errorf("NumNodes() = %d, want 3 (two instructions plus sink)", g.NumNodes())
	}
	if g.NumEdges() != 2 {
		t.Errorf("NumEdges() = %d, want 2", g.NumEdges())
	}
	if !g.HasEdge(At(0), At(2)) {
		t.Error("missing fall-through edge 0 -> 2")
	}
	if !g.HasEdge(At(2), Sink) {
		t.Error("missing exit edge 2 -> sink")
	}
	if !g.HasNode(Sink) {
		t.Error("sink node missing")
	}

	entry, ok := g.Entry()
	if !ok || entry != At(0) {
		t.Errorf("Entry() = %v, %v, want node 0", entry, ok)
	}
}

func TestBuildIfElse(t *testing.T) {
	g := Build(decode(t, ifElse()))

	if g.NumNodes() != 7 {
		t.Errorf("NumNodes() = %d, want 7", g.NumNodes())
	}
	if g.NumEdges() != 7 {
		t.Errorf("NumEdges() = %d, want 7", g.NumEdges())
	}

	wantEdges := []Edge{
		{At(0), At(2)},
		{At(2), At(4)}, // fall-through of the conditional jump
		{At(2), At(8)}, // branch edge
		{At(4), At(6)},
		{At(6), Sink},
		{At(8), At(10)},
		{At(10), Sink},
	}
	for _, e := range wantEdges {
		if !g.HasEdge(e.From, e.To) {
			t.Errorf("missing edge %s -> %s", e.From, e.To)
		}
	}

	// No fall-through past a return.
	if g.HasEdge(At(6), At(8)) {
		t.Error("unexpected fall-through edge across RETURN_VALUE")
	}

	c := g.Counts()
	if c.EntryPoints != 1 || c.BranchPoints != 1 || c.ExitPoints != 2 {
		t.Errorf("Counts() = %+v, want 1 entry, 1 branch, 2 exits", c)
	}
}

func TestBuildBranchToNowhere(t *testing.T) {
	// Jump target beyond the stream: the label resolves to no instruction,
	// so no branch edge is created.
	co := &bytecode.CodeObject{
		Name:      "off",
		Code:      []byte{byte(bytecode.JumpAbsolute), 40, byte(bytecode.ReturnValue), 0},
		FirstLine: 1,
	}
	g := Build(decode(t, co))

	if got := len(g.Succs(At(0))); got != 1 {
		t.Errorf("node 0 has %d successors, want only the fall-through", got)
	}
	if !g.HasEdge(At(0), At(2)) {
		t.Error("missing fall-through edge 0 -> 2")
	}
}

func TestDegenerate(t *testing.T) {
	co := &bytecode.CodeObject{
		Name:      "bare",
		Code:      []byte{byte(bytecode.ReturnValue), 0},
		FirstLine: 1,
	}
	g := Build(decode(t, co))

	if !g.Degenerate() {
		t.Error("single-return routine should be degenerate")
	}
	if g.NumNodes() != 2 || g.NumEdges() != 1 {
		t.Errorf("got %d nodes, %d edges, want 2 and 1", g.NumNodes(), g.NumEdges())
	}

	if Build(decode(t, ifElse())).Degenerate() {
		t.Error("multi-instruction routine should not be degenerate")
	}
}

func TestSCCSingleComponent(t *testing.T) {
	for _, co := range []*bytecode.CodeObject{returnNone(), ifElse()} {
		g := Build(decode(t, co))
		comps := g.SCC()
		if len(comps) != 1 {
			t.Errorf("%s: SCC() = %d components, want 1", co.Name, len(comps))
			continue
		}
		if len(comps[0]) != g.NumNodes() {
			t.Errorf("%s: component holds %d nodes, want all %d", co.Name, len(comps[0]), g.NumNodes())
		}
	}
}

func TestSCCDisconnected(t *testing.T) {
	g := Build(decode(t, twoLoops()))

	comps := g.SCC()
	if len(comps) != 3 {
		t.Fatalf("SCC() = %d components, want 3 (two loops plus the sink)", len(comps))
	}
	if comps[0][0] != At(0) || comps[1][0] != At(2) || !comps[2][0].IsSink {
		t.Errorf("components out of order: %v", comps)
	}
}

func TestSubgraph(t *testing.T) {
	g := Build(decode(t, ifElse()))

	_, err := g.Subgraph(nil, nil)
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("Subgraph(nil, nil) error = %v, want *ValidationError", err)
	}

	// True arm only: 0 -> 2 -> 4 -> 6 -> sink.
	sub, err := g.Subgraph([]Node{At(0), At(2), At(4), At(6), Sink}, nil)
	if err != nil {
		t.Fatalf("Subgraph() error = %v", err)
	}
	if sub.NumNodes() != 5 {
		t.Errorf("NumNodes() = %d, want 5", sub.NumNodes())
	}
	if sub.NumEdges() != 4 {
		t.Errorf("NumEdges() = %d, want 4", sub.NumEdges())
	}
	if sub.HasEdge(At(2), At(8)) {
		t.Error("edge to excluded node survived")
	}

	// Counts are recomputed from the surviving instructions.
	if c := sub.Counts(); c.ExitPoints != 1 {
		t.Errorf("subgraph ExitPoints = %d, want 1", c.ExitPoints)
	}

	// Edge-selected subgraph keeps the edge endpoints.
	sub2, err := g.Subgraph(nil, []Edge{{At(0), At(2)}})
	if err != nil {
		t.Fatalf("Subgraph() error = %v", err)
	}
	if sub2.NumNodes() != 2 || sub2.NumEdges() != 1 {
		t.Errorf("edge-selected subgraph: %d nodes, %d edges, want 2 and 1",
			sub2.NumNodes(), sub2.NumEdges())
	}
}
