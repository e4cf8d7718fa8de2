package parser

import "github.com/chazu/losp/pkg/lexer"

// Expr represents one node of a parsed expression tree. The parser owns the
// tree; the compiler walks it read-only.
type Expr interface {
	exprNode()
	Position() lexer.Position
}

// IntLit is an integer literal.
type IntLit struct {
	Value int64
	Pos   lexer.Position
}

// FloatLit is a floating point literal.
type FloatLit struct {
	Value float64
	Pos   lexer.Position
}

// StringLit is a string literal (contents without quotes).
type StringLit struct {
	Value string
	Pos   lexer.Position
}

// BoolLit is `true` or `false`.
type BoolLit struct {
	Value bool
	Pos   lexer.Position
}

// NilLit is `nil`.
type NilLit struct {
	Pos lexer.Position
}

// SymbolExpr is a variable reference.
type SymbolExpr struct {
	Name string
	Pos  lexer.Position
}

// DefExpr is (def <symbol> <expr>).
type DefExpr struct {
	Name  string
	Value Expr
	Pos   lexer.Position
}

// Binding is one name/initializer pair in a let binding list. Target is any
// expression at parse time; the compiler requires it to be a symbol.
type Binding struct {
	Target Expr
	Init   Expr
}

// LetExpr is (let (<bindings>) <body>...). Bindings come pre-flattened
// pairwise: both ((a 1) (b 2)) and ((a 1) b 2) produce two bindings.
type LetExpr struct {
	Bindings []Binding
	Body     []Expr
	Pos      lexer.Position
}

// IfExpr is (if <cond> <then> <else>); the else branch is mandatory.
type IfExpr struct {
	Cond Expr
	Then Expr
	Else Expr
	Pos  lexer.Position
}

// WhenExpr is (when <cond> <body>...); evaluates to nil when the condition
// is false.
type WhenExpr struct {
	Cond Expr
	Body []Expr
	Pos  lexer.Position
}

// DoExpr is (do <body>...); evaluates to the last body expression.
type DoExpr struct {
	Body []Expr
	Pos  lexer.Position
}

// DefnExpr is (defn <name> (<params>...) <body>...). Params are arbitrary
// expressions at parse time; the compiler requires symbols.
type DefnExpr struct {
	Name   string
	Params []Expr
	Body   []Expr
	Pos    lexer.Position
}

// WhileExpr is (while <cond> <body>...); evaluates to nil.
type WhileExpr struct {
	Cond Expr
	Body []Expr
	Pos  lexer.Position
}

// CallExpr is a function application: (callee arg...).
type CallExpr struct {
	Callee Expr
	Args   []Expr
	Pos    lexer.Position
}

func (*IntLit) exprNode()     {}
func (*FloatLit) exprNode()   {}
func (*StringLit) exprNode()  {}
func (*BoolLit) exprNode()    {}
func (*NilLit) exprNode()     {}
func (*SymbolExpr) exprNode() {}
func (*DefExpr) exprNode()    {}
func (*LetExpr) exprNode()    {}
func (*IfExpr) exprNode()     {}
func (*WhenExpr) exprNode()   {}
func (*DoExpr) exprNode()     {}
func (*DefnExpr) exprNode()   {}
func (*WhileExpr) exprNode()  {}
func (*CallExpr) exprNode()   {}

func (e *IntLit) Position() lexer.Position     { return e.Pos }
func (e *FloatLit) Position() lexer.Position   { return e.Pos }
func (e *StringLit) Position() lexer.Position  { return e.Pos }
func (e *BoolLit) Position() lexer.Position    { return e.Pos }
func (e *NilLit) Position() lexer.Position     { return e.Pos }
func (e *SymbolExpr) Position() lexer.Position { return e.Pos }
func (e *DefExpr) Position() lexer.Position    { return e.Pos }
func (e *LetExpr) Position() lexer.Position    { return e.Pos }
func (e *IfExpr) Position() lexer.Position     { return e.Pos }
func (e *WhenExpr) Position() lexer.Position   { return e.Pos }
func (e *DoExpr) Position() lexer.Position     { return e.Pos }
func (e *DefnExpr) Position() lexer.Position   { return e.Pos }
func (e *WhileExpr) Position() lexer.Position  { return e.Pos }
func (e *CallExpr) Position() lexer.Position   { return e.Pos }
