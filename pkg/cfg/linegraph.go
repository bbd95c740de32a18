package cfg

import (
	"sort"
	"strings"
)

// LineBlock is a basic block for reporting: the equivalence class of all
// instruction offsets sharing one source line, labeled by that line number
// and carrying the literal line text plus the union of the member
// instructions' classification flags.
type LineBlock struct {
	Line    int    `json:"line"`
	Text    string `json:"text"`
	Offsets []int  `json:"offsets"`

	IsEntryPoint    bool `json:"is_entry_point"`
	IsJumpTarget    bool `json:"is_jump_target"`
	IsDecisionPoint bool `json:"is_decision_point"`
	IsBranchPoint   bool `json:"is_branch_point"`
	IsExitPoint     bool `json:"is_exit_point"`
}

// LineGraph is the quotient of a control-flow graph under the same-source-
// line relation. It is derived from the CFG and never mutates it.
type LineGraph struct {
	Blocks map[int]*LineBlock `json:"blocks"`
	Edges  [][2]int           `json:"edges"`
}

// Lines returns the block line numbers in ascending order.
func (lg *LineGraph) Lines() []int {
	lines := make([]int, 0, len(lg.Blocks))
	for line := range lg.Blocks {
		lines = append(lines, line)
	}
	sort.Ints(lines)
	return lines
}

// HasEdge reports whether the collapsed graph connects two line blocks.
func (lg *LineGraph) HasEdge(from, to int) bool {
	for _, e := range lg.Edges {
		if e[0] == from && e[1] == to {
			return true
		}
	}
	return false
}

// CollapseLines folds the offset-level graph into a line-level graph: one
// block per source line, an edge between two blocks iff any offset pair
// across them is connected in the original graph. source supplies the
// literal line text for reporting; it may be empty.
func CollapseLines(g *Graph, source string) *LineGraph {
	srcLines := strings.Split(source, "\n")
	lineText := func(line int) string {
		if line >= 1 && line <= len(srcLines) {
			return srcLines[line-1]
		}
		return ""
	}

	lg := &LineGraph{Blocks: make(map[int]*LineBlock)}
	for _, off := range g.Offsets() {
		in, _ := g.Instruction(off)
		block, ok := lg.Blocks[in.Line]
		if !ok {
			block = &LineBlock{Line: in.Line, Text: lineText(in.Line)}
			lg.Blocks[in.Line] = block
		}
		block.Offsets = append(block.Offsets, off)
		block.IsEntryPoint = block.IsEntryPoint || in.IsEntryPoint
		block.IsJumpTarget = block.IsJumpTarget || in.IsJumpTarget
		block.IsDecisionPoint = block.IsDecisionPoint || in.IsDecisionPoint
		block.IsBranchPoint = block.IsBranchPoint || in.IsBranchPoint
		block.IsExitPoint = block.IsExitPoint || in.IsExitPoint
	}

	seen := make(map[[2]int]bool)
	for _, e := range g.Edges() {
		if e.From.IsSink || e.To.IsSink {
			continue
		}
		from, _ := g.Instruction(e.From.Offset)
		to, _ := g.Instruction(e.To.Offset)
		if from.Line == to.Line {
			continue
		}
		key := [2]int{from.Line, to.Line}
		if !seen[key] {
			seen[key] = true
			lg.Edges = append(lg.Edges, key)
		}
	}
	sort.Slice(lg.Edges, func(i, j int) bool {
		if lg.Edges[i][0] != lg.Edges[j][0] {
			return lg.Edges[i][0] < lg.Edges[j][0]
		}
		return lg.Edges[i][1] < lg.Edges[j][1]
	})

	return lg
}
