package bytecode

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/chazu/losp/pkg/parser"
)

func compileForm(t *testing.T, src string) *Chunk {
	t.Helper()
	forms, err := parser.ParseProgram(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	if len(forms) != 1 {
		t.Fatalf("parse %q: got %d forms, want 1", src, len(forms))
	}
	chunk, err := Compile(forms[0])
	if err != nil {
		t.Fatalf("compile %q: %v", src, err)
	}
	return chunk
}

func compileErr(t *testing.T, src string) error {
	t.Helper()
	forms, err := parser.ParseProgram(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	_, err = Compile(forms[0])
	if err == nil {
		t.Fatalf("compile %q: expected error, got none", src)
	}
	return err
}

func TestCompileArithmetic(t *testing.T) {
	chunk := compileForm(t, "(+ 1 2)")
	want := []byte{
		byte(OpConstant), 0, 0,
		byte(OpConstant), 0, 1,
		byte(OpAdd),
		byte(OpReturn),
	}
	if !bytes.Equal(chunk.Code, want) {
		t.Errorf("Code = %v, want %v", chunk.Code, want)
	}
	if chunk.ConstantCount() != 2 {
		t.Errorf("ConstantCount = %d, want 2", chunk.ConstantCount())
	}
}

func TestCompileUnaryMinus(t *testing.T) {
	chunk := compileForm(t, "(- 5)")
	want := []byte{byte(OpConstant), 0, 0, byte(OpNegate), byte(OpReturn)}
	if !bytes.Equal(chunk.Code, want) {
		t.Errorf("Code = %v, want %v", chunk.Code, want)
	}
}

func TestCompileVariadicFoldsLeft(t *testing.T) {
	chunk := compileForm(t, "(- 10 3 2)")
	want := []byte{
		byte(OpConstant), 0, 0,
		byte(OpConstant), 0, 1,
		byte(OpSubtract),
		byte(OpConstant), 0, 2,
		byte(OpSubtract),
		byte(OpReturn),
	}
	if !bytes.Equal(chunk.Code, want) {
		t.Errorf("Code = %v, want %v", chunk.Code, want)
	}
}

func TestCompileConstantInterning(t *testing.T) {
	if got := compileForm(t, "(+ 1 1)").ConstantCount(); got != 1 {
		t.Errorf("repeated int: ConstantCount = %d, want 1", got)
	}
	// 1 and 1.0 are different values, so they intern separately.
	if got := compileForm(t, "(+ 1 1.0)").ConstantCount(); got != 2 {
		t.Errorf("int vs float: ConstantCount = %d, want 2", got)
	}
}

func TestCompileBuiltinHeadBypassesGlobals(t *testing.T) {
	listing := compileForm(t, "(+ 1 2)").Disassemble()
	if strings.Contains(listing, "GET_GLOBAL") || strings.Contains(listing, "CALL") {
		t.Errorf("operator compiled as a call:\n%s", listing)
	}

	listing = compileForm(t, "(foo 1)").Disassemble()
	if !strings.Contains(listing, "GET_GLOBAL") || !strings.Contains(listing, "CALL 1") {
		t.Errorf("call not compiled through globals:\n%s", listing)
	}
}

func TestCompileLet(t *testing.T) {
	listing := compileForm(t, "(let ((a 1) (b 2)) (+ a b))").Disassemble()
	for _, want := range []string{"GET_LOCAL 0", "GET_LOCAL 1", "END_SCOPE 0"} {
		if !strings.Contains(listing, want) {
			t.Errorf("listing missing %q:\n%s", want, listing)
		}
	}
}

func TestCompileLetAboveTemporary(t *testing.T) {
	// With the 1 live below the let, a occupies slot 1 and the scope
	// truncates back to depth 1, not to the locals count.
	listing := compileForm(t, "(+ 1 (let (a 2) a))").Disassemble()
	for _, want := range []string{"GET_LOCAL 1", "END_SCOPE 1"} {
		if !strings.Contains(listing, want) {
			t.Errorf("listing missing %q:\n%s", want, listing)
		}
	}
}

func TestCompileNestedLetShadowing(t *testing.T) {
	// The inner x must resolve to slot 1, and each let restores its own base.
	listing := compileForm(t, "(let (x 1) (let (x 2) x))").Disassemble()
	for _, want := range []string{"GET_LOCAL 1", "END_SCOPE 1", "END_SCOPE 0"} {
		if !strings.Contains(listing, want) {
			t.Errorf("listing missing %q:\n%s", want, listing)
		}
	}
}

func TestCompileIfShape(t *testing.T) {
	chunk := compileForm(t, `(if true 1 2)`)
	listing := chunk.Disassemble()
	for _, want := range []string{"TRUE", "JUMP_IF_FALSE", "JUMP"} {
		if !strings.Contains(listing, want) {
			t.Errorf("listing missing %q:\n%s", want, listing)
		}
	}
	// No placeholder bytes may survive patching.
	if bytes.Contains(chunk.Code, []byte{0xFF, 0xFF}) {
		t.Errorf("unpatched jump in code: %v", chunk.Code)
	}
}

func TestCompileDefn(t *testing.T) {
	chunk := compileForm(t, "(defn add (a b) (+ a b))")

	var fn *Function
	for _, v := range chunk.Constants {
		if v.Kind() == KindFunction {
			fn = v.Fn()
		}
	}
	if fn == nil {
		t.Fatal("no function constant in chunk")
	}
	if fn.Name != "add" || fn.Arity != 2 {
		t.Errorf("function = %s/%d, want add/2", fn.Name, fn.Arity)
	}
	if fn.Chunk.Code[len(fn.Chunk.Code)-1] != byte(OpReturn) {
		t.Error("function chunk does not end in RETURN")
	}
	if !strings.Contains(chunk.Disassemble(), "SET_GLOBAL") {
		t.Error("defn does not bind a global")
	}
}

func TestCompileDefBindsGlobal(t *testing.T) {
	listing := compileForm(t, "(def x 10)").Disassemble()
	if !strings.Contains(listing, "SET_GLOBAL") {
		t.Errorf("def listing missing SET_GLOBAL:\n%s", listing)
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"let target not a symbol", "(let (1 2) 3)", "binding target must be a symbol"},
		{"let paired target not a symbol", `(let (("s" 2)) 3)`, "binding target must be a symbol"},
		{"defn param not a symbol", "(defn f (1) 1)", "parameter must be a symbol"},
		{"equality is binary", "(= 1 1 1)", `"=" expects 2 arguments, got 3`},
		{"less is binary", "(< 1)", `"<" expects 2 arguments, got 1`},
		{"not is unary", "(not 1 2)", `"not" expects 1 argument, got 2`},
		{"print is unary", "(print)", `"print" expects 1 argument, got 0`},
		{"plus needs operands", "(+ 1)", `"+" expects at least 2 arguments, got 1`},
		{"bare minus needs operands", "(-)", `"-" expects at least 2 arguments, got 0`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := compileErr(t, tt.src)
			var ce *CompileError
			if !errors.As(err, &ce) {
				t.Fatalf("error type = %T, want *CompileError", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to contain %q", err, tt.want)
			}
		})
	}
}
