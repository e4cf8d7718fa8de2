package bytecode

import (
	"fmt"

	"github.com/chazu/losp/pkg/lexer"
	"github.com/chazu/losp/pkg/parser"
)

// Compiler limits. Local slots and call argument counts ride in one byte,
// constant pool indexes in two.
const (
	maxLocals    = 255
	maxConstants = 65536
	maxArgs      = 255
)

// CompileError is a semantic error found while lowering a form to bytecode:
// a non-symbol binding target, an operator applied to the wrong number of
// arguments, or a blown compiler limit.
type CompileError struct {
	Msg string
	Pos lexer.Position
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile error at %s: %s", e.Pos, e.Msg)
}

// local is one let binding or function parameter, pinned to the
// frame-relative stack slot its value occupies at runtime.
type local struct {
	name string
	slot int
}

// Compiler lowers one expression tree into a Chunk. A fresh compiler is
// used per top-level form; function bodies get their own nested compiler
// and their own chunk.
//
// depth tracks the frame-relative operand-stack depth at the current
// emission point. Locals take their slot from it, so a let in expression
// position addresses its bindings correctly even with temporaries live
// below it.
type Compiler struct {
	chunk    *Chunk
	locals   []local
	depth    int
	interned map[Value]uint16
}

// NewCompiler creates a compiler targeting a fresh chunk.
func NewCompiler() *Compiler {
	return &Compiler{
		chunk:    NewChunk(),
		interned: make(map[Value]uint16),
	}
}

// Compile lowers a single top-level form into a chunk ending in OpReturn.
func Compile(form parser.Expr) (*Chunk, error) {
	c := NewCompiler()
	if err := c.compileExpr(form); err != nil {
		return nil, err
	}
	c.chunk.Emit(OpReturn)
	return c.chunk, nil
}

// compileExpr compiles one expression. Every expression leaves exactly one
// value, so the depth is renormalized here; the per-form handlers adjust it
// only where an intermediate stack state is live while more code compiles.
func (c *Compiler) compileExpr(e parser.Expr) error {
	before := c.depth
	if err := c.compileForm(e); err != nil {
		return err
	}
	c.depth = before + 1
	return nil
}

func (c *Compiler) compileForm(e parser.Expr) error {
	switch e := e.(type) {
	case *parser.IntLit:
		return c.emitConstant(IntValue(e.Value), e.Pos)
	case *parser.FloatLit:
		return c.emitConstant(FloatValue(e.Value), e.Pos)
	case *parser.StringLit:
		return c.emitConstant(StringValue(e.Value), e.Pos)
	case *parser.BoolLit:
		if e.Value {
			c.chunk.Emit(OpTrue)
		} else {
			c.chunk.Emit(OpFalse)
		}
		return nil
	case *parser.NilLit:
		c.chunk.Emit(OpNil)
		return nil
	case *parser.SymbolExpr:
		return c.compileSymbol(e)
	case *parser.DefExpr:
		return c.compileDef(e)
	case *parser.LetExpr:
		return c.compileLet(e)
	case *parser.IfExpr:
		return c.compileIf(e)
	case *parser.WhenExpr:
		return c.compileWhen(e)
	case *parser.DoExpr:
		return c.compileBody(e.Body)
	case *parser.DefnExpr:
		return c.compileDefn(e)
	case *parser.WhileExpr:
		return c.compileWhile(e)
	case *parser.CallExpr:
		return c.compileCall(e)
	default:
		return &CompileError{Msg: fmt.Sprintf("cannot compile %T", e), Pos: e.Position()}
	}
}

// compileSymbol resolves a reference: innermost matching local slot first,
// then the global table. Unknown names are left for the VM, which reports
// unresolved references at lookup time.
func (c *Compiler) compileSymbol(e *parser.SymbolExpr) error {
	if slot, ok := c.resolveLocal(e.Name); ok {
		c.chunk.EmitWithByte(OpGetLocal, byte(slot))
		return nil
	}
	idx, err := c.constant(StringValue(e.Name), e.Pos)
	if err != nil {
		return err
	}
	c.chunk.EmitWithUint16(OpGetGlobal, idx)
	return nil
}

func (c *Compiler) compileDef(e *parser.DefExpr) error {
	if err := c.compileExpr(e.Value); err != nil {
		return err
	}
	idx, err := c.constant(StringValue(e.Name), e.Pos)
	if err != nil {
		return err
	}
	c.chunk.EmitWithUint16(OpSetGlobal, idx)
	return nil
}

func (c *Compiler) compileLet(e *parser.LetExpr) error {
	base := c.depth
	mark := len(c.locals)
	if base > maxLocals {
		return &CompileError{
			Msg: fmt.Sprintf("let bindings too deep on the stack: the maximum depth is %d", maxLocals),
			Pos: e.Pos,
		}
	}
	for _, b := range e.Bindings {
		sym, ok := b.Target.(*parser.SymbolExpr)
		if !ok {
			return &CompileError{Msg: "let binding target must be a symbol", Pos: b.Target.Position()}
		}
		if err := c.compileExpr(b.Init); err != nil {
			return err
		}
		// The initializer's value stays on the stack as the binding.
		if err := c.declareLocal(sym.Name, c.depth-1, b.Target.Position()); err != nil {
			return err
		}
	}
	if err := c.compileBody(e.Body); err != nil {
		return err
	}
	c.locals = c.locals[:mark]
	c.chunk.EmitWithByte(OpEndScope, byte(base))
	return nil
}

func (c *Compiler) compileIf(e *parser.IfExpr) error {
	if err := c.compileExpr(e.Cond); err != nil {
		return err
	}
	elseJump := c.chunk.EmitJump(OpJumpIfFalse)
	c.depth-- // JUMP_IF_FALSE pops the condition
	if err := c.compileExpr(e.Then); err != nil {
		return err
	}
	endJump := c.chunk.EmitJump(OpJump)
	c.chunk.PatchJump(elseJump)
	c.depth-- // the else branch starts from the same stack as the then branch
	if err := c.compileExpr(e.Else); err != nil {
		return err
	}
	c.chunk.PatchJump(endJump)
	return nil
}

func (c *Compiler) compileWhen(e *parser.WhenExpr) error {
	if err := c.compileExpr(e.Cond); err != nil {
		return err
	}
	elseJump := c.chunk.EmitJump(OpJumpIfFalse)
	c.depth--
	if err := c.compileBody(e.Body); err != nil {
		return err
	}
	endJump := c.chunk.EmitJump(OpJump)
	c.chunk.PatchJump(elseJump)
	c.chunk.Emit(OpNil)
	c.chunk.PatchJump(endJump)
	return nil
}

// compileWhile discards every body value and leaves nil once the condition
// goes falsy.
func (c *Compiler) compileWhile(e *parser.WhileExpr) error {
	loopStart := c.chunk.CurrentOffset()
	if err := c.compileExpr(e.Cond); err != nil {
		return err
	}
	exitJump := c.chunk.EmitJump(OpJumpIfFalse)
	c.depth--
	for _, expr := range e.Body {
		if err := c.compileExpr(expr); err != nil {
			return err
		}
		c.chunk.Emit(OpPop)
		c.depth--
	}
	c.chunk.EmitLoop(loopStart)
	c.chunk.PatchJump(exitJump)
	c.chunk.Emit(OpNil)
	return nil
}

// compileDefn compiles the body into its own chunk with a nested compiler
// whose parameters occupy slots 0..arity-1, then binds the resulting
// function as a global.
func (c *Compiler) compileDefn(e *parser.DefnExpr) error {
	if len(e.Params) > maxArgs {
		return &CompileError{
			Msg: fmt.Sprintf("too many parameters in %q: %d exceeds the maximum of %d", e.Name, len(e.Params), maxArgs),
			Pos: e.Pos,
		}
	}
	fn := &Function{Name: e.Name, Arity: len(e.Params)}

	sub := NewCompiler()
	for _, p := range e.Params {
		sym, ok := p.(*parser.SymbolExpr)
		if !ok {
			return &CompileError{Msg: "function parameter must be a symbol", Pos: p.Position()}
		}
		// Arguments are already on the stack when the body starts.
		if err := sub.declareLocal(sym.Name, sub.depth, p.Position()); err != nil {
			return err
		}
		sub.depth++
	}
	if err := sub.compileBody(e.Body); err != nil {
		return err
	}
	sub.chunk.Emit(OpReturn)
	fn.Chunk = sub.chunk

	idx, err := c.constant(FunctionValue(fn), e.Pos)
	if err != nil {
		return err
	}
	c.chunk.EmitWithUint16(OpConstant, idx)
	nameIdx, err := c.constant(StringValue(e.Name), e.Pos)
	if err != nil {
		return err
	}
	c.chunk.EmitWithUint16(OpSetGlobal, nameIdx)
	return nil
}

func (c *Compiler) compileCall(e *parser.CallExpr) error {
	if sym, ok := e.Callee.(*parser.SymbolExpr); ok {
		if compiled, err := c.compileBuiltin(sym, e.Args); compiled || err != nil {
			return err
		}
	}
	if err := c.compileExpr(e.Callee); err != nil {
		return err
	}
	if len(e.Args) > maxArgs {
		return &CompileError{
			Msg: fmt.Sprintf("too many arguments: %d exceeds the maximum of %d", len(e.Args), maxArgs),
			Pos: e.Pos,
		}
	}
	for _, arg := range e.Args {
		if err := c.compileExpr(arg); err != nil {
			return err
		}
	}
	c.chunk.EmitWithByte(OpCall, byte(len(e.Args)))
	return nil
}

// compileBuiltin handles operator heads, which lower straight to opcodes
// rather than function calls. Returns false when the head is not an
// operator.
func (c *Compiler) compileBuiltin(head *parser.SymbolExpr, args []parser.Expr) (bool, error) {
	switch head.Name {
	case "+":
		return true, c.compileVariadic(head, args, OpAdd)
	case "*":
		return true, c.compileVariadic(head, args, OpMultiply)
	case "/":
		return true, c.compileVariadic(head, args, OpDivide)
	case "-":
		if len(args) == 1 {
			if err := c.compileExpr(args[0]); err != nil {
				return true, err
			}
			c.chunk.Emit(OpNegate)
			return true, nil
		}
		return true, c.compileVariadic(head, args, OpSubtract)
	case "=":
		return true, c.compileBinary(head, args, OpEqual)
	case "<":
		return true, c.compileBinary(head, args, OpLess)
	case ">":
		return true, c.compileBinary(head, args, OpGreater)
	case "not":
		return true, c.compileUnary(head, args, OpNot)
	case "print":
		return true, c.compileUnary(head, args, OpPrint)
	default:
		return false, nil
	}
}

// compileVariadic lowers an n-ary operator as a left fold over its
// arguments: (- 10 3 2) becomes 10 3 SUBTRACT 2 SUBTRACT.
func (c *Compiler) compileVariadic(head *parser.SymbolExpr, args []parser.Expr, op Opcode) error {
	if len(args) < 2 {
		return &CompileError{
			Msg: fmt.Sprintf("%q expects at least 2 arguments, got %d", head.Name, len(args)),
			Pos: head.Pos,
		}
	}
	if err := c.compileExpr(args[0]); err != nil {
		return err
	}
	for _, arg := range args[1:] {
		if err := c.compileExpr(arg); err != nil {
			return err
		}
		c.chunk.Emit(op)
		c.depth--
	}
	return nil
}

func (c *Compiler) compileBinary(head *parser.SymbolExpr, args []parser.Expr, op Opcode) error {
	if len(args) != 2 {
		return &CompileError{
			Msg: fmt.Sprintf("%q expects 2 arguments, got %d", head.Name, len(args)),
			Pos: head.Pos,
		}
	}
	for _, arg := range args {
		if err := c.compileExpr(arg); err != nil {
			return err
		}
	}
	c.chunk.Emit(op)
	return nil
}

func (c *Compiler) compileUnary(head *parser.SymbolExpr, args []parser.Expr, op Opcode) error {
	if len(args) != 1 {
		return &CompileError{
			Msg: fmt.Sprintf("%q expects 1 argument, got %d", head.Name, len(args)),
			Pos: head.Pos,
		}
	}
	if err := c.compileExpr(args[0]); err != nil {
		return err
	}
	c.chunk.Emit(op)
	return nil
}

// compileBody compiles a sequence of expressions, discarding all values but
// the last. An empty body compiles to nil.
func (c *Compiler) compileBody(body []parser.Expr) error {
	if len(body) == 0 {
		c.chunk.Emit(OpNil)
		return nil
	}
	for i, expr := range body {
		if err := c.compileExpr(expr); err != nil {
			return err
		}
		if i < len(body)-1 {
			c.chunk.Emit(OpPop)
			c.depth--
		}
	}
	return nil
}

// declareLocal binds a name to a frame-relative stack slot. Shadowing is
// allowed: resolveLocal scans newest-first, so an inner binding wins.
func (c *Compiler) declareLocal(name string, slot int, pos lexer.Position) error {
	if slot >= maxLocals {
		return &CompileError{
			Msg: fmt.Sprintf("too many local variables: the maximum is %d", maxLocals),
			Pos: pos,
		}
	}
	c.locals = append(c.locals, local{name: name, slot: slot})
	return nil
}

func (c *Compiler) resolveLocal(name string) (int, bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].name == name {
			return c.locals[i].slot, true
		}
	}
	return 0, false
}

// constant interns scalar values so repeated literals share one pool slot.
// Functions are always appended fresh.
func (c *Compiler) constant(v Value, pos lexer.Position) (uint16, error) {
	if v.Kind() != KindFunction {
		if idx, ok := c.interned[v]; ok {
			return idx, nil
		}
	}
	if c.chunk.ConstantCount() >= maxConstants {
		return 0, &CompileError{
			Msg: fmt.Sprintf("too many constants: the maximum is %d", maxConstants),
			Pos: pos,
		}
	}
	idx := uint16(c.chunk.AddConstant(v))
	if v.Kind() != KindFunction {
		c.interned[v] = idx
	}
	return idx, nil
}

// emitConstant adds a constant to the pool and emits the load.
func (c *Compiler) emitConstant(v Value, pos lexer.Position) error {
	idx, err := c.constant(v, pos)
	if err != nil {
		return err
	}
	c.chunk.EmitWithUint16(OpConstant, idx)
	return nil
}
