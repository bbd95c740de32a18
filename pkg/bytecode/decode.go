package bytecode

import (
	"fmt"
	"strings"
)

// DecodeError reports an instruction stream that cannot be reduced to a
// valid instruction sequence.
type DecodeError struct {
	Reason string
	Offset int // byte offset of the failure, -1 when not positional
}

func (e *DecodeError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("decode: %s (offset %d)", e.Reason, e.Offset)
	}
	return "decode: " + e.Reason
}

// ExitPattern names a module attribute whose invocation terminates the
// process, e.g. sys.exit. The decoder marks calls matching a pattern as
// exit points even though the operation itself is an ordinary call.
type ExitPattern struct {
	Module string `yaml:"module" json:"module"`
	Method string `yaml:"method" json:"method"`
}

// DefaultExitPatterns are the termination calls recognized out of the box.
var DefaultExitPatterns = []ExitPattern{{Module: "sys", Method: "exit"}}

// DecodeOptions adjust decoding behavior.
type DecodeOptions struct {
	// ExitPatterns are matched against call sequences to detect forced
	// process termination. Nil selects DefaultExitPatterns.
	ExitPatterns []ExitPattern
}

// rawInstr is the product of the unpack pass: an operation with its
// accumulated operand, before any resolution or classification.
type rawInstr struct {
	offset int
	op     Opcode
	arg    int
	hasArg bool
}

// Decode turns a code object into the ordered, classified instruction
// sequence. Decoding is two passes: a pure unpack pass producing raw
// instructions plus the jump-target set, then an annotation pass resolving
// operands and computing classification flags from neighboring instructions.
func Decode(co *CodeObject, opts ...DecodeOptions) (*Bytecode, error) {
	var opt DecodeOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	patterns := opt.ExitPatterns
	if patterns == nil {
		patterns = DefaultExitPatterns
	}

	raws, err := unpackArgs(co.Code)
	if err != nil {
		return nil, err
	}
	labels := findLabels(raws)
	lineStarts := co.LineStarts()

	bc := &Bytecode{
		Object: co,
		Instrs: make(map[int]Instruction, len(raws)),
		Order:  make([]int, 0, len(raws)),
	}

	line := 0
	nextLine := 0
	cells := co.CellNames()
	for i, raw := range raws {
		for nextLine < len(lineStarts) && lineStarts[nextLine].Offset <= raw.offset {
			line = lineStarts[nextLine].Line
			nextLine++
		}

		argval, argrepr, err := resolveArg(co, cells, raw)
		if err != nil {
			return nil, err
		}

		info := raw.op.Info()
		instr := Instruction{
			Opname:       info.Name,
			Opcode:       raw.op,
			Arg:          raw.arg,
			HasArg:       raw.hasArg,
			ArgVal:       argval,
			ArgRepr:      argrepr,
			Offset:       raw.offset,
			Line:         line,
			IsEntryPoint: raw.offset == 0,
			IsJumpTarget: labels[raw.offset],
		}

		instr.IsBranchPoint = info.Jump
		instr.IsDecisionPoint = info.Compare
		if !instr.IsDecisionPoint && info.Call && i+1 < len(raws) {
			instr.IsDecisionPoint = raws[i+1].op.Info().Jump
		}

		instr.IsExitPoint = info.Exit
		if !instr.IsExitPoint && raw.op == PopTop {
			lo := i - 4
			if lo < 0 {
				lo = 0
			}
			instr.IsExitPoint = matchExitCall(raws[lo:i], co.Names, patterns)
		}

		bc.Instrs[raw.offset] = instr
		bc.Order = append(bc.Order, raw.offset)
	}

	return bc, nil
}

// unpackArgs walks the fixed-width stream, accumulating EXTENDED_ARG
// prefixes into the operand of the next real operation.
func unpackArgs(code []byte) ([]rawInstr, error) {
	if len(code)%InstrWidth != 0 {
		return nil, &DecodeError{Reason: "truncated instruction stream", Offset: len(code) - 1}
	}

	raws := make([]rawInstr, 0, len(code)/InstrWidth)
	extended := 0
	for i := 0; i < len(code); i += InstrWidth {
		op := Opcode(code[i])
		if !op.Defined() {
			return nil, &DecodeError{Reason: fmt.Sprintf("unknown opcode %d", op), Offset: i}
		}
		raw := rawInstr{offset: i, op: op}
		if op >= HaveArgument {
			raw.arg = int(code[i+1]) | extended
			raw.hasArg = true
			if op == ExtendedArg {
				extended = raw.arg << 8
			} else {
				extended = 0
			}
		} else {
			extended = 0
		}
		raws = append(raws, raw)
	}
	return raws, nil
}

// findLabels returns the set of offsets some instruction jumps to. Targets
// may lie after the jump, so the set is complete before classification runs.
func findLabels(raws []rawInstr) map[int]bool {
	labels := make(map[int]bool)
	for _, raw := range raws {
		if !raw.hasArg {
			continue
		}
		switch raw.op.Info().Arg {
		case ArgJumpRel:
			labels[raw.offset+InstrWidth+raw.arg] = true
		case ArgJumpAbs:
			labels[raw.arg] = true
		}
	}
	return labels
}

// resolveArg dereferences the operand according to the operation's operand
// kind. Missing auxiliary tables leave the operand unresolved (the raw value
// carries through); an out-of-range index into a present table is a decode
// error.
func resolveArg(co *CodeObject, cells []string, raw rawInstr) (any, string, error) {
	if !raw.hasArg {
		return nil, "", nil
	}

	switch raw.op.Info().Arg {
	case ArgConst:
		if co.Consts == nil {
			return raw.arg, fmt.Sprintf("%d", raw.arg), nil
		}
		if raw.arg >= len(co.Consts) {
			return nil, "", &DecodeError{Reason: fmt.Sprintf("constant index %d out of range", raw.arg), Offset: raw.offset}
		}
		v := co.Consts[raw.arg]
		return v, reprValue(v), nil
	case ArgName:
		return lookupName(co.Names, raw, "name")
	case ArgLocal:
		return lookupName(co.Varnames, raw, "local")
	case ArgFree:
		return lookupName(cells, raw, "cell")
	case ArgCompare:
		if raw.arg >= len(CompareOps) {
			return nil, "", &DecodeError{Reason: fmt.Sprintf("comparison code %d out of range", raw.arg), Offset: raw.offset}
		}
		return CompareOps[raw.arg], CompareOps[raw.arg], nil
	case ArgJumpRel:
		target := raw.offset + InstrWidth + raw.arg
		return target, fmt.Sprintf("to %d", target), nil
	case ArgJumpAbs:
		return raw.arg, fmt.Sprintf("to %d", raw.arg), nil
	}

	switch raw.op {
	case FormatValue:
		conv := formatValueConverters[raw.arg&0x3]
		repr := conv
		if raw.arg&0x4 != 0 {
			if repr != "" {
				repr += ", "
			}
			repr += "with format"
		}
		return conv, repr, nil
	case MakeFunction:
		var set []string
		for i, flag := range makeFunctionFlags {
			if raw.arg&(1<<i) != 0 {
				set = append(set, flag)
			}
		}
		return raw.arg, strings.Join(set, ", "), nil
	}

	return raw.arg, "", nil
}

func lookupName(table []string, raw rawInstr, kind string) (any, string, error) {
	if len(table) == 0 {
		return raw.arg, fmt.Sprintf("%d", raw.arg), nil
	}
	if raw.arg >= len(table) {
		return nil, "", &DecodeError{Reason: fmt.Sprintf("%s index %d out of range", kind, raw.arg), Offset: raw.offset}
	}
	return table[raw.arg], table[raw.arg], nil
}

// matchExitCall tests whether the instructions preceding a POP_TOP form a
// termination call: LOAD_GLOBAL <module>, LOAD_METHOD <method>, an optional
// constant argument, then a call operation. window holds up to the four
// instructions immediately before the POP_TOP, oldest first.
func matchExitCall(window []rawInstr, names []string, patterns []ExitPattern) bool {
	k := len(window) - 1
	if k < 2 || !window[k].op.Info().Call {
		return false
	}
	k--
	if window[k].op == LoadConst {
		k--
	}
	if k < 1 {
		return false
	}
	if window[k].op != LoadMethod || window[k-1].op != LoadGlobal && window[k-1].op != LoadName {
		return false
	}
	method, okM := nameAt(names, window[k].arg)
	module, okG := nameAt(names, window[k-1].arg)
	if !okM || !okG {
		return false
	}
	for _, p := range patterns {
		if module == p.Module && method == p.Method {
			return true
		}
	}
	return false
}

func nameAt(names []string, i int) (string, bool) {
	if i < 0 || i >= len(names) {
		return "", false
	}
	return names[i], true
}

// reprValue renders a constant the way the front-end's own tooling would.
func reprValue(v any) string {
	switch c := v.(type) {
	case nil:
		return "None"
	case bool:
		if c {
			return "True"
		}
		return "False"
	case string:
		return "'" + strings.ReplaceAll(c, "'", "\\'") + "'"
	case float64:
		if c == float64(int64(c)) {
			return fmt.Sprintf("%d", int64(c))
		}
		return fmt.Sprintf("%g", c)
	default:
		return fmt.Sprintf("%v", c)
	}
}

// Bytecode is the decoded, classified instruction sequence of one routine.
// Insertion order equals offset order.
type Bytecode struct {
	Object *CodeObject
	Instrs map[int]Instruction
	Order  []int
}

// Instructions returns the instructions in offset order.
func (b *Bytecode) Instructions() []Instruction {
	out := make([]Instruction, len(b.Order))
	for i, off := range b.Order {
		out[i] = b.Instrs[off]
	}
	return out
}

// At returns the instruction at the given byte offset.
func (b *Bytecode) At(offset int) (Instruction, bool) {
	in, ok := b.Instrs[offset]
	return in, ok
}

// Dis returns the full disassembly listing, with a blank line between
// instruction runs belonging to different source lines.
func (b *Bytecode) Dis() string {
	maxLine, maxOffset := 0, 0
	for _, off := range b.Order {
		in := b.Instrs[off]
		if in.Line > maxLine {
			maxLine = in.Line
		}
		if in.Offset > maxOffset {
			maxOffset = in.Offset
		}
	}
	linenoWidth := 3
	if maxLine >= 1000 {
		linenoWidth = len(fmt.Sprintf("%d", maxLine))
	}
	offsetWidth := 4
	if maxOffset >= 10000 {
		offsetWidth = len(fmt.Sprintf("%d", maxOffset))
	}

	var lines []string
	lastLine := -1
	for i, off := range b.Order {
		in := b.Instrs[off]
		newLine := in.Line != lastLine
		if newLine && i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, in.Disassemble(linenoWidth, offsetWidth, newLine || i == 0))
		lastLine = in.Line
	}
	return strings.Join(lines, "\n")
}
