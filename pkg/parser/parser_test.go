package parser

import (
	"errors"
	"testing"

	"github.com/chazu/losp/pkg/lexer"
)

func parseOne(t *testing.T, src string) Expr {
	t.Helper()
	forms, err := ParseProgram(src)
	if err != nil {
		t.Fatalf("ParseProgram(%q) failed: %v", src, err)
	}
	if len(forms) != 1 {
		t.Fatalf("ParseProgram(%q) produced %d forms, want 1", src, len(forms))
	}
	return forms[0]
}

func TestParseAtoms(t *testing.T) {
	tests := []struct {
		src   string
		check func(Expr) bool
	}{
		{"42", func(e Expr) bool { n, ok := e.(*IntLit); return ok && n.Value == 42 }},
		{"-5", func(e Expr) bool { n, ok := e.(*IntLit); return ok && n.Value == -5 }},
		{"3.14", func(e Expr) bool { f, ok := e.(*FloatLit); return ok && f.Value == 3.14 }},
		{`"hi"`, func(e Expr) bool { s, ok := e.(*StringLit); return ok && s.Value == "hi" }},
		{"true", func(e Expr) bool { b, ok := e.(*BoolLit); return ok && b.Value }},
		{"false", func(e Expr) bool { b, ok := e.(*BoolLit); return ok && !b.Value }},
		{"nil", func(e Expr) bool { _, ok := e.(*NilLit); return ok }},
		{"foo", func(e Expr) bool { s, ok := e.(*SymbolExpr); return ok && s.Name == "foo" }},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			if e := parseOne(t, tt.src); !tt.check(e) {
				t.Errorf("ParseProgram(%q) produced unexpected node %#v", tt.src, e)
			}
		})
	}
}

func TestParseDef(t *testing.T) {
	form := parseOne(t, "(def pi 3.14159)")
	def, ok := form.(*DefExpr)
	if !ok {
		t.Fatalf("got %T, want *DefExpr", form)
	}
	if def.Name != "pi" {
		t.Errorf("name = %q, want pi", def.Name)
	}
	if _, ok := def.Value.(*FloatLit); !ok {
		t.Errorf("value = %T, want *FloatLit", def.Value)
	}
}

func TestParseIf(t *testing.T) {
	form := parseOne(t, "(if (= a b) 1 2)")
	ifExpr, ok := form.(*IfExpr)
	if !ok {
		t.Fatalf("got %T, want *IfExpr", form)
	}
	if _, ok := ifExpr.Cond.(*CallExpr); !ok {
		t.Errorf("cond = %T, want *CallExpr", ifExpr.Cond)
	}
	if _, ok := ifExpr.Then.(*IntLit); !ok {
		t.Errorf("then = %T, want *IntLit", ifExpr.Then)
	}
	if _, ok := ifExpr.Else.(*IntLit); !ok {
		t.Errorf("else = %T, want *IntLit", ifExpr.Else)
	}
}

func TestParseLetBindings(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		names []string
	}{
		{"paired", "(let ((a 1) (b 2)) (+ a b))", []string{"a", "b"}},
		{"single pair", "(let ((a 1)) a)", []string{"a"}},
		{"bare pairwise", "(let (a 1 b 2) (+ a b))", []string{"a", "b"}},
		{"mixed", "(let ((a 1) b 1) (= a b))", []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := parseOne(t, tt.src)
			let, ok := form.(*LetExpr)
			if !ok {
				t.Fatalf("got %T, want *LetExpr", form)
			}
			if len(let.Bindings) != len(tt.names) {
				t.Fatalf("got %d bindings, want %d", len(let.Bindings), len(tt.names))
			}
			for i, want := range tt.names {
				sym, ok := let.Bindings[i].Target.(*SymbolExpr)
				if !ok {
					t.Fatalf("binding %d target = %T, want *SymbolExpr", i, let.Bindings[i].Target)
				}
				if sym.Name != want {
					t.Errorf("binding %d = %q, want %q", i, sym.Name, want)
				}
			}
			if len(let.Body) == 0 {
				t.Error("let has no body")
			}
		})
	}
}

func TestParseDefn(t *testing.T) {
	form := parseOne(t, "(defn add (a b) (+ a b))")
	defn, ok := form.(*DefnExpr)
	if !ok {
		t.Fatalf("got %T, want *DefnExpr", form)
	}
	if defn.Name != "add" {
		t.Errorf("name = %q, want add", defn.Name)
	}
	if len(defn.Params) != 2 {
		t.Fatalf("got %d params, want 2", len(defn.Params))
	}
	if len(defn.Body) != 1 {
		t.Errorf("got %d body forms, want 1", len(defn.Body))
	}
}

func TestParseWhileAndWhen(t *testing.T) {
	form := parseOne(t, "(while (< i 10) (def i (+ i 1)))")
	while, ok := form.(*WhileExpr)
	if !ok {
		t.Fatalf("got %T, want *WhileExpr", form)
	}
	if len(while.Body) != 1 {
		t.Errorf("while body has %d forms, want 1", len(while.Body))
	}

	form = parseOne(t, `(when ready (print "go") 1)`)
	when, ok := form.(*WhenExpr)
	if !ok {
		t.Fatalf("got %T, want *WhenExpr", form)
	}
	if len(when.Body) != 2 {
		t.Errorf("when body has %d forms, want 2", len(when.Body))
	}
}

func TestParseCall(t *testing.T) {
	form := parseOne(t, "(foo 1 (bar 2) 3)")
	call, ok := form.(*CallExpr)
	if !ok {
		t.Fatalf("got %T, want *CallExpr", form)
	}
	if sym, ok := call.Callee.(*SymbolExpr); !ok || sym.Name != "foo" {
		t.Errorf("callee = %#v, want symbol foo", call.Callee)
	}
	if len(call.Args) != 3 {
		t.Fatalf("got %d args, want 3", len(call.Args))
	}
	if _, ok := call.Args[1].(*CallExpr); !ok {
		t.Errorf("arg 1 = %T, want nested *CallExpr", call.Args[1])
	}
}

func TestParseMultipleForms(t *testing.T) {
	forms, err := ParseProgram("(def i 0) (while (< i 10) (def i (+ i 1))) i")
	if err != nil {
		t.Fatalf("ParseProgram failed: %v", err)
	}
	if len(forms) != 3 {
		t.Fatalf("got %d forms, want 3", len(forms))
	}
}

func TestAtEOF(t *testing.T) {
	p := New(lexer.New("(+ 1 2) 3"))
	if p.AtEOF() {
		t.Fatal("AtEOF() = true before any form was consumed")
	}
	for i := 0; i < 2; i++ {
		if _, err := p.ParseForm(); err != nil {
			t.Fatalf("ParseForm %d failed: %v", i, err)
		}
	}
	if !p.AtEOF() {
		t.Error("AtEOF() = false after consuming all forms")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"if missing else", "(if a b)"},
		{"if too many branches", "(if a b c d)"},
		{"unbalanced open", "(def x 1"},
		{"stray close", ")"},
		{"empty list", "()"},
		{"def without name", "(def 1 2)"},
		{"def without value", "(def x)"},
		{"let without binding list", "(let a 1)"},
		{"let binding missing init", "(let (a) a)"},
		{"defn without param list", "(defn f x x)"},
		{"keyword as argument", "(f def)"},
		{"eof inside string body", "(do (print"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProgram(tt.src)
			if err == nil {
				t.Fatalf("ParseProgram(%q) succeeded, want parse error", tt.src)
			}
			var parseErr *Error
			if !errors.As(err, &parseErr) {
				t.Fatalf("error type = %T (%v), want *Error", err, err)
			}
			if parseErr.Pos.Line == 0 {
				t.Errorf("parse error has no position: %v", parseErr)
			}
		})
	}
}

func TestLexErrorsPropagate(t *testing.T) {
	_, err := ParseProgram(`(def x "unterminated`)
	if err == nil {
		t.Fatal("ParseProgram succeeded, want lex error")
	}
	var lexErr *lexer.Error
	if !errors.As(err, &lexErr) {
		t.Fatalf("error type = %T, want *lexer.Error", err)
	}
}
