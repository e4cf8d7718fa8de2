package bytecode

import "fmt"

// Opcode represents a bytecode instruction.
// Opcodes are organized into ranges by category for easy identification.
type Opcode byte

const (
	// Constants and stack manipulation (0x00-0x0F)

	OpConstant Opcode = 0x01 // Push constant from pool: OpConstant <index:u16>
	OpNil      Opcode = 0x02 // Push nil
	OpTrue     Opcode = 0x03 // Push true
	OpFalse    Opcode = 0x04 // Push false
	OpPop      Opcode = 0x05 // Pop top of stack

	// Variables (0x10-0x1F)

	OpGetLocal  Opcode = 0x10 // Push frame-relative local: OpGetLocal <slot:u8>
	OpGetGlobal Opcode = 0x11 // Push global by name: OpGetGlobal <name_index:u16>
	OpSetGlobal Opcode = 0x12 // Pop value, bind global, push nil: OpSetGlobal <name_index:u16>
	OpEndScope  Opcode = 0x13 // Pop result, truncate frame stack to depth n, push result: OpEndScope <n:u8>

	// Arithmetic (0x20-0x2F)

	OpAdd      Opcode = 0x20 // Pop two, push sum
	OpSubtract Opcode = 0x21 // Pop two, push difference (a - b where b is TOS)
	OpMultiply Opcode = 0x22 // Pop two, push product
	OpDivide   Opcode = 0x23 // Pop two, push quotient
	OpNegate   Opcode = 0x24 // Negate numeric top of stack

	// Comparison and logic (0x30-0x3F)

	OpEqual   Opcode = 0x30 // Pop two, push structural equality
	OpGreater Opcode = 0x31 // Pop two numbers, push a > b
	OpLess    Opcode = 0x32 // Pop two numbers, push a < b
	OpNot     Opcode = 0x33 // Pop value, push the negation of its truthiness

	// Control flow (0x40-0x4F)

	OpJump        Opcode = 0x40 // Relative jump: OpJump <offset:i16>
	OpJumpIfFalse Opcode = 0x41 // Pop condition, jump when falsy: OpJumpIfFalse <offset:i16>

	// Calls and returns (0x50-0x5F)

	OpCall   Opcode = 0x50 // Call function with args atop stack: OpCall <argc:u8>
	OpReturn Opcode = 0x51 // Return top of stack from the current frame

	// Side effects (0x60-0x6F)

	OpPrint Opcode = 0x60 // Pop value, write rendering + newline, push nil
)

// OpcodeInfo provides metadata about each opcode for the disassembler and
// for validation.
type OpcodeInfo struct {
	Name       string // Human-readable name
	StackPop   int    // How many values popped from stack (-1 = variable)
	StackPush  int    // How many values pushed to stack
	OperandLen int    // Number of operand bytes following the opcode
}

var opcodeInfoTable = map[Opcode]OpcodeInfo{
	OpConstant: {"CONSTANT", 0, 1, 2},
	OpNil:      {"NIL", 0, 1, 0},
	OpTrue:     {"TRUE", 0, 1, 0},
	OpFalse:    {"FALSE", 0, 1, 0},
	OpPop:      {"POP", 1, 0, 0},

	OpGetLocal:  {"GET_LOCAL", 0, 1, 1},
	OpGetGlobal: {"GET_GLOBAL", 0, 1, 2},
	OpSetGlobal: {"SET_GLOBAL", 1, 1, 2},
	OpEndScope:  {"END_SCOPE", -1, 1, 1},

	OpAdd:      {"ADD", 2, 1, 0},
	OpSubtract: {"SUBTRACT", 2, 1, 0},
	OpMultiply: {"MULTIPLY", 2, 1, 0},
	OpDivide:   {"DIVIDE", 2, 1, 0},
	OpNegate:   {"NEGATE", 1, 1, 0},

	OpEqual:   {"EQUAL", 2, 1, 0},
	OpGreater: {"GREATER", 2, 1, 0},
	OpLess:    {"LESS", 2, 1, 0},
	OpNot:     {"NOT", 1, 1, 0},

	OpJump:        {"JUMP", 0, 0, 2},
	OpJumpIfFalse: {"JUMP_IF_FALSE", 1, 0, 2},

	OpCall:   {"CALL", -1, 1, 1},
	OpReturn: {"RETURN", 1, 0, 0},

	OpPrint: {"PRINT", 1, 1, 0},
}

// GetOpcodeInfo returns metadata for an opcode.
// Unrecognized opcodes get a zero OpcodeInfo with an UNKNOWN name.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op))}
}

// String returns the human-readable name of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// OperandLen returns the number of operand bytes for this opcode.
func (op Opcode) OperandLen() int {
	return GetOpcodeInfo(op).OperandLen
}

// InstructionLen returns the total length of an instruction (1 + operand bytes).
func (op Opcode) InstructionLen() int {
	return 1 + op.OperandLen()
}

// IsJump returns true if this opcode is a jump instruction.
func (op Opcode) IsJump() bool {
	return op == OpJump || op == OpJumpIfFalse
}

// AllOpcodes returns a slice of all defined opcodes.
// Useful for testing that all opcodes have metadata.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		opcodes = append(opcodes, op)
	}
	return opcodes
}
