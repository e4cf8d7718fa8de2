package bytecode

import (
	"fmt"
	"io"
	"strings"
)

// TraceWriter is an InstructionTracer that writes one line per executed
// instruction: the function name, offset, disassembled instruction, and the
// live operand stack.
type TraceWriter struct {
	W io.Writer
}

func (t *TraceWriter) Trace(fn *Function, offset int, op Opcode, stack []Value) {
	rendered := make([]string, len(stack))
	for i, v := range stack {
		rendered[i] = v.Inspect()
	}
	fmt.Fprintf(t.W, "%-8s %04X  %-28s [%s]\n",
		fn.Name, offset, fn.Chunk.DisassembleInstruction(offset), strings.Join(rendered, " "))
}
