package bytecode

import (
	"fmt"
	"strings"
)

const (
	opnameWidth = 20
	opargWidth  = 5
)

// Instruction is one decoded operation with its resolved operand and
// classification flags. Instances are created once during decoding and never
// mutated afterwards.
type Instruction struct {
	Opname  string `json:"opname" msgpack:"opname"`   // mnemonic
	Opcode  Opcode `json:"opcode" msgpack:"opcode"`   // numeric operation code
	Arg     int    `json:"arg" msgpack:"arg"`         // raw operand, valid when HasArg
	HasArg  bool   `json:"has_arg" msgpack:"has_arg"` // whether the operation carries an operand
	ArgVal  any    `json:"argval" msgpack:"argval"`   // resolved operand (constant, name, target...), or the raw operand
	ArgRepr string `json:"argrepr" msgpack:"argrepr"` // human-readable operand description
	Offset  int    `json:"offset" msgpack:"offset"`   // byte offset within the code stream
	Line    int    `json:"line" msgpack:"line"`       // source line in effect at this offset, 0 if unknown

	IsEntryPoint    bool `json:"is_entry_point" msgpack:"is_entry_point"`
	IsJumpTarget    bool `json:"is_jump_target" msgpack:"is_jump_target"`
	IsDecisionPoint bool `json:"is_decision_point" msgpack:"is_decision_point"`
	IsBranchPoint   bool `json:"is_branch_point" msgpack:"is_branch_point"`
	IsExitPoint     bool `json:"is_exit_point" msgpack:"is_exit_point"`
}

// BranchTarget returns the resolved jump target and true when the
// instruction is a branch point.
func (in Instruction) BranchTarget() (int, bool) {
	if !in.IsBranchPoint {
		return 0, false
	}
	t, ok := in.ArgVal.(int)
	return t, ok
}

// Disassemble formats the instruction as one line of disassembly listing:
// line number, jump-target marker, offset, mnemonic, operand.
func (in Instruction) Disassemble(linenoWidth, offsetWidth int, markLine bool) string {
	var fields []string

	if linenoWidth > 0 {
		if in.Line > 0 && markLine {
			fields = append(fields, fmt.Sprintf("%*d", linenoWidth, in.Line))
		} else {
			fields = append(fields, strings.Repeat(" ", linenoWidth))
		}
	}
	if in.IsJumpTarget {
		fields = append(fields, ">>")
	} else {
		fields = append(fields, "  ")
	}
	fields = append(fields, fmt.Sprintf("%*d", offsetWidth, in.Offset))
	fields = append(fields, fmt.Sprintf("%-*s", opnameWidth, in.Opname))
	if in.HasArg {
		fields = append(fields, fmt.Sprintf("%*d", opargWidth, in.Arg))
		if in.ArgRepr != "" {
			fields = append(fields, "("+in.ArgRepr+")")
		}
	}
	return strings.TrimRight(strings.Join(fields, " "), " ")
}

func (in Instruction) String() string {
	return in.Disassemble(3, 4, true)
}
