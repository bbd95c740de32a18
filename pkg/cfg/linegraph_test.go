package cfg

import (
	"testing"
)

const pickSource = `def pick(x):
    if x:
        return 1
    return 2`

func TestCollapseLines(t *testing.T) {
	co := ifElse()
	co.LineTable = []byte{0, 1, 4, 1, 4, 1} // lines 2, 3, 4
	g := Build(decode(t, co))

	lg := CollapseLines(g, pickSource)

	lines := lg.Lines()
	if len(lines) != 3 || lines[0] != 2 || lines[1] != 3 || lines[2] != 4 {
		t.Fatalf("Lines() = %v, want [2 3 4]", lines)
	}

	cond := lg.Blocks[2]
	if len(cond.Offsets) != 2 {
		t.Errorf("line 2 holds offsets %v, want two", cond.Offsets)
	}
	if cond.Text != "    if x:" {
		t.Errorf("line 2 text = %q", cond.Text)
	}
	if !cond.IsEntryPoint || !cond.IsBranchPoint {
		t.Errorf("line 2 flags = %+v, want entry and branch", cond)
	}
	if cond.IsExitPoint {
		t.Error("line 2 should not be an exit point")
	}

	if !lg.Blocks[3].IsExitPoint {
		t.Error("line 3 should inherit the exit flag of its return")
	}
	if !lg.Blocks[4].IsJumpTarget {
		t.Error("line 4 should inherit the jump-target flag")
	}

	if !lg.HasEdge(2, 3) || !lg.HasEdge(2, 4) {
		t.Errorf("Edges = %v, want 2->3 and 2->4", lg.Edges)
	}
	if len(lg.Edges) != 2 {
		t.Errorf("got %d edges, want 2 (same-line and sink edges are dropped)", len(lg.Edges))
	}
}

func TestCollapseLinesWithoutSource(t *testing.T) {
	co := ifElse()
	co.LineTable = []byte{0, 1, 4, 1, 4, 1}
	lg := CollapseLines(Build(decode(t, co)), "")

	for _, line := range lg.Lines() {
		if lg.Blocks[line].Text != "" {
			t.Errorf("line %d text = %q, want empty", line, lg.Blocks[line].Text)
		}
	}
}

func TestCollapseLinesSingleLine(t *testing.T) {
	// The whole routine on one source line: one block, no edges.
	lg := CollapseLines(Build(decode(t, returnNone())), "return None")

	if len(lg.Blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(lg.Blocks))
	}
	if len(lg.Edges) != 0 {
		t.Errorf("Edges = %v, want none", lg.Edges)
	}
	block := lg.Blocks[1]
	if block == nil || !block.IsEntryPoint || !block.IsExitPoint {
		t.Errorf("block = %+v, want entry and exit flags", block)
	}
}
