package bytecode

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// CodeObject is the product of an external front-end compiler: the raw
// instruction byte stream and the auxiliary tables needed to resolve
// operands. It is the input boundary of the analysis pipeline.
type CodeObject struct {
	Name      string   `json:"name" msgpack:"name"`
	Filename  string   `json:"filename,omitempty" msgpack:"filename"`
	Code      []byte   `json:"code" msgpack:"code"`           // encoded instruction stream
	Consts    []any    `json:"consts" msgpack:"consts"`       // constant pool
	Names     []string `json:"names" msgpack:"names"`         // global/attribute names
	Varnames  []string `json:"varnames" msgpack:"varnames"`   // local-variable names
	Freevars  []string `json:"freevars" msgpack:"freevars"`   // free-variable names
	Cellvars  []string `json:"cellvars" msgpack:"cellvars"`   // cell-variable names
	LineTable []byte   `json:"linetable" msgpack:"linetable"` // delta-encoded line starts
	FirstLine int      `json:"firstline" msgpack:"firstline"` // source line of the first instruction
}

// CellNames returns the combined cell and free variable name table, in the
// order the free-variable operand kind indexes it.
func (co *CodeObject) CellNames() []string {
	names := make([]string, 0, len(co.Cellvars)+len(co.Freevars))
	names = append(names, co.Cellvars...)
	names = append(names, co.Freevars...)
	return names
}

// LineStart marks the byte offset at which a source line begins.
type LineStart struct {
	Offset int
	Line   int
}

// LineStarts decodes the delta-encoded line table into absolute
// (offset, line) pairs. Byte entries advance an offset cursor; line entries
// are signed 8-bit deltas. Entries past the end of the code stream belong to
// optimized-away lines and are dropped.
func (co *CodeObject) LineStarts() []LineStart {
	if len(co.LineTable)%2 != 0 {
		// A dangling byte cannot form a (byte, line) delta pair; treat the
		// table as ending at the last complete pair.
		return co.trimmedLineStarts(co.LineTable[:len(co.LineTable)-1])
	}
	return co.trimmedLineStarts(co.LineTable)
}

func (co *CodeObject) trimmedLineStarts(table []byte) []LineStart {
	var starts []LineStart

	lastLine := -1
	line := co.FirstLine
	addr := 0
	for i := 0; i+1 < len(table); i += 2 {
		byteIncr, lineIncr := int(table[i]), int(table[i+1])
		if byteIncr > 0 {
			if line != lastLine {
				starts = append(starts, LineStart{Offset: addr, Line: line})
				lastLine = line
			}
			addr += byteIncr
			if addr >= len(co.Code) {
				return starts
			}
		}
		if lineIncr >= 0x80 {
			lineIncr -= 0x100
		}
		line += lineIncr
	}
	if line != lastLine {
		starts = append(starts, LineStart{Offset: addr, Line: line})
	}
	return starts
}

// Info returns a formatted summary of the code object's tables.
func (co *CodeObject) Info() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Name:              %s\n", co.Name)
	fmt.Fprintf(&b, "Filename:          %s\n", co.Filename)
	fmt.Fprintf(&b, "First line:        %d\n", co.FirstLine)
	fmt.Fprintf(&b, "Stream size:       %d bytes\n", len(co.Code))
	if len(co.Consts) > 0 {
		b.WriteString("Constants:\n")
		for i, c := range co.Consts {
			fmt.Fprintf(&b, "%4d: %s\n", i, reprValue(c))
		}
	}
	writeNames := func(title string, names []string) {
		if len(names) == 0 {
			return
		}
		b.WriteString(title + ":\n")
		for i, n := range names {
			fmt.Fprintf(&b, "%4d: %s\n", i, n)
		}
	}
	writeNames("Names", co.Names)
	writeNames("Variable names", co.Varnames)
	writeNames("Free variables", co.Freevars)
	writeNames("Cell variables", co.Cellvars)
	return strings.TrimRight(b.String(), "\n")
}

// LoadFile reads a CodeObject from a file produced by a front-end: JSON for
// ".json" paths, msgpack otherwise.
func LoadFile(path string) (*CodeObject, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading code object %s: %w", path, err)
	}

	var co CodeObject
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, &co); err != nil {
			return nil, &DecodeError{Reason: fmt.Sprintf("unparsable code object %s: %v", path, err), Offset: -1}
		}
	} else {
		if err := msgpack.Unmarshal(data, &co); err != nil {
			return nil, &DecodeError{Reason: fmt.Sprintf("unparsable code object %s: %v", path, err), Offset: -1}
		}
	}
	return &co, nil
}

// WriteFile writes the code object to a file: JSON for ".json" paths,
// msgpack otherwise.
func (co *CodeObject) WriteFile(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(co, "", "  ")
	} else {
		data, err = msgpack.Marshal(co)
	}
	if err != nil {
		return fmt.Errorf("marshaling code object: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing code object %s: %w", path, err)
	}
	return nil
}
