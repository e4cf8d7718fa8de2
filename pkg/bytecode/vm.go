package bytecode

import (
	"fmt"
	"io"
	"os"
)

// Default execution limits. Both are adjustable with SetLimits; blowing
// either one is a runtime error, not a crash.
const (
	DefaultStackSize = 1024
	DefaultMaxFrames = 256
)

// RuntimeError is an error raised during execution: an unresolved
// reference, a type or arity mismatch, division by zero, or an exhausted
// stack. The VM stops at the first one.
type RuntimeError struct {
	Msg string
}

func (e *RuntimeError) Error() string {
	return "runtime error: " + e.Msg
}

// InstructionTracer observes each instruction just before it executes. The
// stack slice is a read-only view of live operand slots; implementations
// must not retain or mutate it.
type InstructionTracer interface {
	Trace(fn *Function, offset int, op Opcode, stack []Value)
}

// frame is one function activation: the function, its instruction pointer,
// and the stack index of its first argument slot. The callee value sits one
// slot below base.
type frame struct {
	fn   *Function
	ip   int
	base int
}

// VM executes chunks. Globals persist across RunChunk calls, so a REPL can
// feed it one form at a time.
type VM struct {
	stack      []Value
	sp         int
	frames     []frame
	frameCount int
	globals    map[string]Value
	out        io.Writer
	tracer     InstructionTracer
	stackSize  int
	maxFrames  int
}

// NewVM creates a VM with default limits, writing to stdout.
func NewVM() *VM {
	vm := &VM{
		globals:   make(map[string]Value),
		out:       os.Stdout,
		stackSize: DefaultStackSize,
		maxFrames: DefaultMaxFrames,
	}
	vm.stack = make([]Value, vm.stackSize)
	vm.frames = make([]frame, vm.maxFrames)
	return vm
}

// SetLimits resizes the operand stack and frame stack. Call between runs,
// not during one.
func (vm *VM) SetLimits(stackSize, maxFrames int) {
	if stackSize > 0 {
		vm.stackSize = stackSize
		vm.stack = make([]Value, stackSize)
	}
	if maxFrames > 0 {
		vm.maxFrames = maxFrames
		vm.frames = make([]frame, maxFrames)
	}
}

// SetOutput redirects print output.
func (vm *VM) SetOutput(w io.Writer) {
	vm.out = w
}

// SetTracer installs an instruction tracer; nil disables tracing.
func (vm *VM) SetTracer(t InstructionTracer) {
	vm.tracer = t
}

// Global looks up a global binding by name.
func (vm *VM) Global(name string) (Value, bool) {
	v, ok := vm.globals[name]
	return v, ok
}

// RunChunk executes one compiled top-level form and returns its value.
// The operand and frame stacks are reset; the global table is kept.
func (vm *VM) RunChunk(chunk *Chunk) (Value, error) {
	top := &Function{Name: "<top>", Chunk: chunk}
	vm.sp = 0
	vm.frameCount = 1
	vm.frames[0] = frame{fn: top}
	return vm.run()
}

func (vm *VM) run() (Value, error) {
	for {
		fr := &vm.frames[vm.frameCount-1]
		chunk := fr.fn.Chunk
		if fr.ip >= len(chunk.Code) {
			return Nil, vm.errorf("instruction pointer out of range in %s", fr.fn.Name)
		}

		offset := fr.ip
		op := Opcode(chunk.Code[fr.ip])
		fr.ip++

		if vm.tracer != nil {
			vm.tracer.Trace(fr.fn, offset, op, vm.stack[:vm.sp])
		}

		info := GetOpcodeInfo(op)
		if info.StackPop > 0 && vm.sp < info.StackPop {
			return Nil, vm.errorf("stack underflow executing %s", op)
		}

		switch op {
		case OpConstant:
			idx := int(chunk.readUint16(fr.ip))
			fr.ip += 2
			if idx >= len(chunk.Constants) {
				return Nil, vm.errorf("constant index %d out of range", idx)
			}
			if err := vm.push(chunk.Constants[idx]); err != nil {
				return Nil, err
			}

		case OpNil:
			if err := vm.push(Nil); err != nil {
				return Nil, err
			}

		case OpTrue:
			if err := vm.push(BoolValue(true)); err != nil {
				return Nil, err
			}

		case OpFalse:
			if err := vm.push(BoolValue(false)); err != nil {
				return Nil, err
			}

		case OpPop:
			vm.sp--

		case OpGetLocal:
			slot := int(chunk.Code[fr.ip])
			fr.ip++
			pos := fr.base + slot
			if pos >= vm.sp {
				return Nil, vm.errorf("local slot %d out of range", slot)
			}
			if err := vm.push(vm.stack[pos]); err != nil {
				return Nil, err
			}

		case OpGetGlobal:
			name := chunk.Constants[chunk.readUint16(fr.ip)].Str()
			fr.ip += 2
			v, ok := vm.globals[name]
			if !ok {
				return Nil, vm.errorf("unresolved reference: %s", name)
			}
			if err := vm.push(v); err != nil {
				return Nil, err
			}

		case OpSetGlobal:
			name := chunk.Constants[chunk.readUint16(fr.ip)].Str()
			fr.ip += 2
			vm.globals[name] = vm.pop()
			if err := vm.push(Nil); err != nil {
				return Nil, err
			}

		case OpEndScope:
			keep := int(chunk.Code[fr.ip])
			fr.ip++
			if vm.sp < 1 {
				return Nil, vm.errorf("stack underflow executing %s", op)
			}
			result := vm.pop()
			target := fr.base + keep
			if target > vm.sp {
				return Nil, vm.errorf("stack underflow executing %s", op)
			}
			vm.sp = target
			if err := vm.push(result); err != nil {
				return Nil, err
			}

		case OpAdd, OpSubtract, OpMultiply, OpDivide:
			if err := vm.binaryArith(op); err != nil {
				return Nil, err
			}

		case OpNegate:
			v := vm.pop()
			switch v.Kind() {
			case KindInt:
				vm.push(IntValue(-v.Int()))
			case KindFloat:
				vm.push(FloatValue(-v.Float()))
			default:
				return Nil, vm.errorf("type error: '-' expects a number, got %s", v.Kind())
			}

		case OpEqual:
			b := vm.pop()
			a := vm.pop()
			if err := vm.push(BoolValue(a.Equal(b))); err != nil {
				return Nil, err
			}

		case OpGreater, OpLess:
			if err := vm.compareNumbers(op); err != nil {
				return Nil, err
			}

		case OpNot:
			v := vm.pop()
			if err := vm.push(BoolValue(!v.Truthy())); err != nil {
				return Nil, err
			}

		case OpJump:
			delta := int(chunk.readInt16(fr.ip))
			fr.ip += 2 + delta

		case OpJumpIfFalse:
			delta := int(chunk.readInt16(fr.ip))
			fr.ip += 2
			if !vm.pop().Truthy() {
				fr.ip += delta
			}

		case OpCall:
			argc := int(chunk.Code[fr.ip])
			fr.ip++
			if err := vm.call(argc); err != nil {
				return Nil, err
			}

		case OpReturn:
			result := vm.pop()
			vm.frameCount--
			if vm.frameCount == 0 {
				return result, nil
			}
			vm.sp = fr.base - 1
			if err := vm.push(result); err != nil {
				return Nil, err
			}

		case OpPrint:
			fmt.Fprintln(vm.out, vm.pop().String())
			if err := vm.push(Nil); err != nil {
				return Nil, err
			}

		default:
			return Nil, vm.errorf("unknown opcode 0x%02X", byte(op))
		}
	}
}

// call sets up a frame for the function sitting below its arguments.
func (vm *VM) call(argc int) error {
	calleePos := vm.sp - argc - 1
	if calleePos < 0 {
		return vm.errorf("stack underflow executing %s", OpCall)
	}
	callee := vm.stack[calleePos]
	if callee.Kind() != KindFunction {
		return vm.errorf("type error: %s is not callable", callee.Inspect())
	}
	fn := callee.Fn()
	if argc != fn.Arity {
		return vm.errorf("arity error: %s expects %d arguments, got %d", fn.Name, fn.Arity, argc)
	}
	if vm.frameCount >= vm.maxFrames {
		return vm.errorf("stack overflow: call depth limit of %d exceeded", vm.maxFrames)
	}
	vm.frames[vm.frameCount] = frame{fn: fn, base: vm.sp - argc}
	vm.frameCount++
	return nil
}

// binaryArith pops two operands and pushes the result, coercing to float
// when the operands mix int and float. Integer division by zero is an
// error; float division follows IEEE 754.
func (vm *VM) binaryArith(op Opcode) error {
	b := vm.pop()
	a := vm.pop()
	if !a.IsNumber() || !b.IsNumber() {
		return vm.errorf("type error: %q expects numbers, got %s and %s", arithSymbol(op), a.Kind(), b.Kind())
	}

	if a.Kind() == KindInt && b.Kind() == KindInt {
		x, y := a.Int(), b.Int()
		var r int64
		switch op {
		case OpAdd:
			r = x + y
		case OpSubtract:
			r = x - y
		case OpMultiply:
			r = x * y
		case OpDivide:
			if y == 0 {
				return vm.errorf("arithmetic error: division by zero")
			}
			r = x / y
		}
		return vm.push(IntValue(r))
	}

	x, y := a.AsFloat(), b.AsFloat()
	var r float64
	switch op {
	case OpAdd:
		r = x + y
	case OpSubtract:
		r = x - y
	case OpMultiply:
		r = x * y
	case OpDivide:
		r = x / y
	}
	return vm.push(FloatValue(r))
}

func (vm *VM) compareNumbers(op Opcode) error {
	b := vm.pop()
	a := vm.pop()
	if !a.IsNumber() || !b.IsNumber() {
		sym := "<"
		if op == OpGreater {
			sym = ">"
		}
		return vm.errorf("type error: %q expects numbers, got %s and %s", sym, a.Kind(), b.Kind())
	}

	var less bool
	if a.Kind() == KindInt && b.Kind() == KindInt {
		less = a.Int() < b.Int()
		if op == OpGreater {
			less = a.Int() > b.Int()
		}
	} else {
		less = a.AsFloat() < b.AsFloat()
		if op == OpGreater {
			less = a.AsFloat() > b.AsFloat()
		}
	}
	return vm.push(BoolValue(less))
}

func arithSymbol(op Opcode) string {
	switch op {
	case OpAdd:
		return "+"
	case OpSubtract:
		return "-"
	case OpMultiply:
		return "*"
	case OpDivide:
		return "/"
	}
	return op.String()
}

func (vm *VM) push(v Value) error {
	if vm.sp >= vm.stackSize {
		return vm.errorf("stack overflow: value stack limit of %d exceeded", vm.stackSize)
	}
	vm.stack[vm.sp] = v
	vm.sp++
	return nil
}

func (vm *VM) pop() Value {
	vm.sp--
	return vm.stack[vm.sp]
}

func (vm *VM) errorf(format string, args ...any) *RuntimeError {
	return &RuntimeError{Msg: fmt.Sprintf(format, args...)}
}
