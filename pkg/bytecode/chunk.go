package bytecode

import "encoding/binary"

// Chunk is one compiled unit: a flat instruction stream plus the constant
// pool its instructions index into. One chunk exists per function body and
// one per top-level form; chunks live only in memory.
type Chunk struct {
	Code      []byte
	Constants []Value
}

// NewChunk creates a new empty chunk.
func NewChunk() *Chunk {
	return &Chunk{
		Code:      make([]byte, 0, 64),
		Constants: make([]Value, 0, 8),
	}
}

// AddConstant appends a value to the pool and returns its index. Callers
// that want interning deduplicate before calling (see Compiler).
func (c *Chunk) AddConstant(v Value) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// Emit appends a single-byte opcode to the code section and returns its
// offset.
func (c *Chunk) Emit(op Opcode) int {
	offset := len(c.Code)
	c.Code = append(c.Code, byte(op))
	return offset
}

// EmitWithByte appends an opcode with a one-byte operand.
func (c *Chunk) EmitWithByte(op Opcode, operand byte) int {
	offset := len(c.Code)
	c.Code = append(c.Code, byte(op), operand)
	return offset
}

// EmitWithUint16 appends an opcode with a big-endian two-byte operand.
func (c *Chunk) EmitWithUint16(op Opcode, operand uint16) int {
	offset := len(c.Code)
	c.Code = append(c.Code, byte(op), byte(operand>>8), byte(operand))
	return offset
}

// EmitJump emits a jump instruction with a placeholder offset.
// Returns the offset of the placeholder for later patching.
func (c *Chunk) EmitJump(op Opcode) int {
	c.Code = append(c.Code, byte(op), 0xFF, 0xFF)
	return len(c.Code) - 2
}

// PatchJump patches a jump placeholder to land at the current position.
// The encoded delta is relative to the first byte after the operand.
func (c *Chunk) PatchJump(placeholderOffset int) {
	jumpFrom := placeholderOffset + 2
	delta := len(c.Code) - jumpFrom
	c.Code[placeholderOffset] = byte(delta >> 8)
	c.Code[placeholderOffset+1] = byte(delta)
}

// EmitLoop emits a backward jump to the given loop start.
func (c *Chunk) EmitLoop(loopStart int) {
	jumpFrom := len(c.Code) + 3 // after this instruction
	delta := loopStart - jumpFrom
	c.Code = append(c.Code, byte(OpJump), byte(delta>>8), byte(delta))
}

// CurrentOffset returns the current offset in the code section.
func (c *Chunk) CurrentOffset() int {
	return len(c.Code)
}

// ConstantCount returns the number of constants in the pool.
func (c *Chunk) ConstantCount() int {
	return len(c.Constants)
}

// readUint16 reads a big-endian uint16 from the code at the given offset.
func (c *Chunk) readUint16(offset int) uint16 {
	if offset+1 >= len(c.Code) {
		return 0
	}
	return binary.BigEndian.Uint16(c.Code[offset:])
}

// readInt16 reads a big-endian int16 from the code at the given offset.
func (c *Chunk) readInt16(offset int) int16 {
	return int16(c.readUint16(offset))
}
