// Package bytecode decodes compiled VM instruction streams into classified
// instruction sequences. The instruction set is the fixed two-byte CPython 3.8
// encoding: every instruction is an opcode byte followed by an operand byte,
// with EXTENDED_ARG accumulating high-order operand bits for the next
// instruction.
package bytecode

import "fmt"

// Opcode is a numeric operation code.
type Opcode uint8

// InstrWidth is the fixed width of one encoded instruction in bytes.
const InstrWidth = 2

// HaveArgument is the threshold below which opcodes take no operand.
const HaveArgument Opcode = 90

// Opcodes referenced by name in decoding and classification.
const (
	PopTop       Opcode = 1
	Nop          Opcode = 9
	GetIter      Opcode = 68
	ReturnValue  Opcode = 83
	YieldValue   Opcode = 86
	PopBlock     Opcode = 87
	StoreName    Opcode = 90
	ForIter      Opcode = 93
	LoadConst    Opcode = 100
	LoadName     Opcode = 101
	LoadAttr     Opcode = 106
	CompareOp    Opcode = 107
	JumpForward  Opcode = 110
	JumpIfFalse  Opcode = 111 // JUMP_IF_FALSE_OR_POP
	JumpIfTrue   Opcode = 112 // JUMP_IF_TRUE_OR_POP
	JumpAbsolute Opcode = 113
	PopJumpFalse Opcode = 114
	PopJumpTrue  Opcode = 115
	LoadGlobal   Opcode = 116
	SetupFinally Opcode = 122
	LoadFast     Opcode = 124
	StoreFast    Opcode = 125
	RaiseVarargs Opcode = 130
	CallFunction Opcode = 131
	MakeFunction Opcode = 132
	LoadClosure  Opcode = 135
	LoadDeref    Opcode = 136
	CallFuncKW   Opcode = 141
	CallFuncEx   Opcode = 142
	SetupWith    Opcode = 143
	ExtendedArg  Opcode = 144
	FormatValue  Opcode = 155
	LoadMethod   Opcode = 160
	CallMethod   Opcode = 161
	CallFinally  Opcode = 162
)

// ArgKind classifies how an opcode's operand is resolved.
type ArgKind int

const (
	ArgNone    ArgKind = iota // no operand
	ArgPlain                  // plain numeric operand
	ArgConst                  // index into the constant pool
	ArgName                   // index into the name table
	ArgLocal                  // index into the local-variable table
	ArgFree                   // index into the cell/free-variable table
	ArgCompare                // comparison operator code
	ArgJumpRel                // jump relative to the following instruction
	ArgJumpAbs                // absolute jump target
)

// OpInfo describes one operation: its mnemonic, operand kind, and role tags.
// Role tags are computed once here so classification never goes back to
// string matching on mnemonics.
type OpInfo struct {
	Name string
	Arg  ArgKind

	Compare bool // comparison operation
	Jump    bool // relative or absolute control transfer
	Call    bool // call operation
	Exit    bool // return or raise
}

// OpTable maps every opcode to its OpInfo. Undefined opcodes carry a
// placeholder name and ArgNone.
var OpTable = buildOpTable()

// Defined reports whether op is part of the instruction set.
func (op Opcode) Defined() bool { return opDefined[op] }

// Info returns the OpInfo for op.
func (op Opcode) Info() OpInfo { return OpTable[op] }

// Name returns the mnemonic for op, or a "<n>" placeholder.
func (op Opcode) Name() string { return OpTable[op].Name }

var opDefined [256]bool

func buildOpTable() [256]OpInfo {
	var t [256]OpInfo

	def := func(code Opcode, name string, kind ArgKind) {
		t[code] = OpInfo{Name: name, Arg: kind}
		opDefined[code] = true
	}

	// Argless operations.
	argless := map[Opcode]string{
		1: "POP_TOP", 2: "ROT_TWO", 3: "ROT_THREE", 4: "DUP_TOP",
		5: "DUP_TOP_TWO", 6: "ROT_FOUR", 9: "NOP",
		10: "UNARY_POSITIVE", 11: "UNARY_NEGATIVE", 12: "UNARY_NOT",
		15: "UNARY_INVERT", 16: "BINARY_MATRIX_MULTIPLY",
		17: "INPLACE_MATRIX_MULTIPLY", 19: "BINARY_POWER",
		20: "BINARY_MULTIPLY", 22: "BINARY_MODULO", 23: "BINARY_ADD",
		24: "BINARY_SUBTRACT", 25: "BINARY_SUBSCR", 26: "BINARY_FLOOR_DIVIDE",
		27: "BINARY_TRUE_DIVIDE", 28: "INPLACE_FLOOR_DIVIDE",
		29: "INPLACE_TRUE_DIVIDE", 50: "GET_AITER", 51: "GET_ANEXT",
		52: "BEFORE_ASYNC_WITH", 53: "BEGIN_FINALLY", 54: "END_ASYNC_FOR",
		55: "INPLACE_ADD", 56: "INPLACE_SUBTRACT", 57: "INPLACE_MULTIPLY",
		59: "INPLACE_MODULO", 60: "STORE_SUBSCR", 61: "DELETE_SUBSCR",
		62: "BINARY_LSHIFT", 63: "BINARY_RSHIFT", 64: "BINARY_AND",
		65: "BINARY_XOR", 66: "BINARY_OR", 67: "INPLACE_POWER",
		68: "GET_ITER", 69: "GET_YIELD_FROM_ITER", 70: "PRINT_EXPR",
		71: "LOAD_BUILD_CLASS", 72: "YIELD_FROM", 73: "GET_AWAITABLE",
		75: "INPLACE_LSHIFT", 76: "INPLACE_RSHIFT", 77: "INPLACE_AND",
		78: "INPLACE_XOR", 79: "INPLACE_OR", 81: "WITH_CLEANUP_START",
		82: "WITH_CLEANUP_FINISH", 83: "RETURN_VALUE", 84: "IMPORT_STAR",
		85: "SETUP_ANNOTATIONS", 86: "YIELD_VALUE", 87: "POP_BLOCK",
		88: "END_FINALLY", 89: "POP_EXCEPT",
	}
	for code, name := range argless {
		def(code, name, ArgNone)
	}

	// Operand-carrying operations, grouped by operand kind.
	def(90, "STORE_NAME", ArgName)
	def(91, "DELETE_NAME", ArgName)
	def(92, "UNPACK_SEQUENCE", ArgPlain)
	def(93, "FOR_ITER", ArgJumpRel)
	def(94, "UNPACK_EX", ArgPlain)
	def(95, "STORE_ATTR", ArgName)
	def(96, "DELETE_ATTR", ArgName)
	def(97, "STORE_GLOBAL", ArgName)
	def(98, "DELETE_GLOBAL", ArgName)
	def(100, "LOAD_CONST", ArgConst)
	def(101, "LOAD_NAME", ArgName)
	def(102, "BUILD_TUPLE", ArgPlain)
	def(103, "BUILD_LIST", ArgPlain)
	def(104, "BUILD_SET", ArgPlain)
	def(105, "BUILD_MAP", ArgPlain)
	def(106, "LOAD_ATTR", ArgName)
	def(107, "COMPARE_OP", ArgCompare)
	def(108, "IMPORT_NAME", ArgName)
	def(109, "IMPORT_FROM", ArgName)
	def(110, "JUMP_FORWARD", ArgJumpRel)
	def(111, "JUMP_IF_FALSE_OR_POP", ArgJumpAbs)
	def(112, "JUMP_IF_TRUE_OR_POP", ArgJumpAbs)
	def(113, "JUMP_ABSOLUTE", ArgJumpAbs)
	def(114, "POP_JUMP_IF_FALSE", ArgJumpAbs)
	def(115, "POP_JUMP_IF_TRUE", ArgJumpAbs)
	def(116, "LOAD_GLOBAL", ArgName)
	def(122, "SETUP_FINALLY", ArgJumpRel)
	def(124, "LOAD_FAST", ArgLocal)
	def(125, "STORE_FAST", ArgLocal)
	def(126, "DELETE_FAST", ArgLocal)
	def(130, "RAISE_VARARGS", ArgPlain)
	def(131, "CALL_FUNCTION", ArgPlain)
	def(132, "MAKE_FUNCTION", ArgPlain)
	def(133, "BUILD_SLICE", ArgPlain)
	def(135, "LOAD_CLOSURE", ArgFree)
	def(136, "LOAD_DEREF", ArgFree)
	def(137, "STORE_DEREF", ArgFree)
	def(138, "DELETE_DEREF", ArgFree)
	def(141, "CALL_FUNCTION_KW", ArgPlain)
	def(142, "CALL_FUNCTION_EX", ArgPlain)
	def(143, "SETUP_WITH", ArgJumpRel)
	def(144, "EXTENDED_ARG", ArgPlain)
	def(145, "LIST_APPEND", ArgPlain)
	def(146, "SET_ADD", ArgPlain)
	def(147, "MAP_ADD", ArgPlain)
	def(148, "LOAD_CLASSDEREF", ArgFree)
	def(149, "BUILD_LIST_UNPACK", ArgPlain)
	def(150, "BUILD_MAP_UNPACK", ArgPlain)
	def(151, "BUILD_MAP_UNPACK_WITH_CALL", ArgPlain)
	def(152, "BUILD_TUPLE_UNPACK", ArgPlain)
	def(153, "BUILD_SET_UNPACK", ArgPlain)
	def(154, "SETUP_ASYNC_WITH", ArgJumpRel)
	def(155, "FORMAT_VALUE", ArgPlain)
	def(156, "BUILD_CONST_KEY_MAP", ArgPlain)
	def(157, "BUILD_STRING", ArgPlain)
	def(158, "BUILD_TUPLE_UNPACK_WITH_CALL", ArgPlain)
	def(160, "LOAD_METHOD", ArgName)
	def(161, "CALL_METHOD", ArgPlain)
	def(162, "CALL_FINALLY", ArgJumpRel)
	def(163, "POP_FINALLY", ArgPlain)

	// Role tags.
	for i := range t {
		info := &t[i]
		if info.Name == "" {
			info.Name = fmt.Sprintf("<%d>", i)
		}
		info.Compare = info.Arg == ArgCompare
		info.Jump = info.Arg == ArgJumpRel || info.Arg == ArgJumpAbs
	}
	for _, call := range []Opcode{CallFunction, CallFuncKW, CallFuncEx, CallMethod, CallFinally} {
		t[call].Call = true
	}
	t[ReturnValue].Exit = true
	t[RaiseVarargs].Exit = true

	return t
}

// CompareOps lists the comparison operator symbols indexed by the
// COMPARE_OP operand.
var CompareOps = []string{
	"<", "<=", "==", "!=", ">", ">=",
	"in", "not in", "is", "is not", "exception match", "BAD",
}

// formatValueConverters names the conversion selected by the low two bits of
// a FORMAT_VALUE operand.
var formatValueConverters = []string{"", "str", "repr", "ascii"}

// makeFunctionFlags names the bits of a MAKE_FUNCTION operand.
var makeFunctionFlags = []string{"defaults", "kwdefaults", "annotations", "closure"}
