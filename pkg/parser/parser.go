// Package parser converts token streams into expression trees. It is purely
// structural: arity of function calls and the shapes of let bindings and
// defn parameter lists are checked later, by the compiler.
package parser

import (
	"fmt"
	"strconv"

	"github.com/chazu/losp/pkg/lexer"
)

// Error is a structural parse error identifying the expected and found
// tokens and the source position.
type Error struct {
	Expected string
	Found    string
	Pos      lexer.Position
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse error at %s: expected %s, found %s", e.Pos, e.Expected, e.Found)
}

// Parser consumes tokens from a lexer with one token of lookahead.
type Parser struct {
	lex *lexer.Lexer
	tok lexer.Token
	err error
}

// New creates a parser over the given lexer and primes the lookahead.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{lex: l}
	p.advance()
	return p
}

// ParseProgram parses source text into one expression tree per top-level
// form.
func ParseProgram(src string) ([]Expr, error) {
	p := New(lexer.New(src))
	var forms []Expr
	for {
		if p.AtEOF() {
			return forms, nil
		}
		form, err := p.ParseForm()
		if err != nil {
			return nil, err
		}
		forms = append(forms, form)
	}
}

// AtEOF reports whether the parser has consumed all input.
func (p *Parser) AtEOF() bool {
	return p.err == nil && p.tok.Kind == lexer.EOF
}

// ParseForm parses a single top-level form.
func (p *Parser) ParseForm() (Expr, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.parseExpr()
}

func (p *Parser) advance() {
	tok, err := p.lex.Next()
	if err != nil {
		p.err = err
		return
	}
	p.tok = tok
}

// expect consumes the current token if it has the wanted kind, or fails with
// an expected-vs-found error.
func (p *Parser) expect(kind lexer.Kind, expected string) (lexer.Token, error) {
	if p.err != nil {
		return lexer.Token{}, p.err
	}
	if p.tok.Kind != kind {
		return lexer.Token{}, p.unexpected(expected)
	}
	tok := p.tok
	p.advance()
	return tok, p.err
}

func (p *Parser) unexpected(expected string) error {
	found := p.tok.Kind.String()
	if p.tok.Kind == lexer.Symbol {
		found = fmt.Sprintf("symbol %q", p.tok.Lexeme)
	}
	return &Error{Expected: expected, Found: found, Pos: p.tok.Pos}
}

func (p *Parser) parseExpr() (Expr, error) {
	if p.err != nil {
		return nil, p.err
	}
	tok := p.tok

	switch tok.Kind {
	case lexer.Int:
		n, err := strconv.ParseInt(tok.Lexeme, 10, 64)
		if err != nil {
			return nil, &Error{Expected: "integer literal", Found: fmt.Sprintf("%q", tok.Lexeme), Pos: tok.Pos}
		}
		p.advance()
		return &IntLit{Value: n, Pos: tok.Pos}, p.err

	case lexer.Float:
		f, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			return nil, &Error{Expected: "float literal", Found: fmt.Sprintf("%q", tok.Lexeme), Pos: tok.Pos}
		}
		p.advance()
		return &FloatLit{Value: f, Pos: tok.Pos}, p.err

	case lexer.String:
		p.advance()
		return &StringLit{Value: tok.Lexeme, Pos: tok.Pos}, p.err

	case lexer.KwTrue:
		p.advance()
		return &BoolLit{Value: true, Pos: tok.Pos}, p.err

	case lexer.KwFalse:
		p.advance()
		return &BoolLit{Value: false, Pos: tok.Pos}, p.err

	case lexer.KwNil:
		p.advance()
		return &NilLit{Pos: tok.Pos}, p.err

	case lexer.Symbol:
		p.advance()
		return &SymbolExpr{Name: tok.Lexeme, Pos: tok.Pos}, p.err

	case lexer.LeftParen:
		return p.parseList()

	default:
		// EOF, a stray ')', or a keyword outside form head position.
		return nil, p.unexpected("expression")
	}
}

// parseList parses a parenthesized form; the head token determines its shape.
func (p *Parser) parseList() (Expr, error) {
	open := p.tok
	p.advance()
	if p.err != nil {
		return nil, p.err
	}

	switch p.tok.Kind {
	case lexer.KwDef:
		return p.parseDef(open.Pos)
	case lexer.KwLet:
		return p.parseLet(open.Pos)
	case lexer.KwIf:
		return p.parseIf(open.Pos)
	case lexer.KwWhen:
		return p.parseWhen(open.Pos)
	case lexer.KwDo:
		return p.parseDo(open.Pos)
	case lexer.KwDefn:
		return p.parseDefn(open.Pos)
	case lexer.KwWhile:
		return p.parseWhile(open.Pos)
	case lexer.RightParen:
		return nil, p.unexpected("expression")
	default:
		return p.parseCall(open.Pos)
	}
}

func (p *Parser) parseDef(pos lexer.Position) (Expr, error) {
	p.advance() // def
	name, err := p.expect(lexer.Symbol, "symbol")
	if err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RightParen, "')'"); err != nil {
		return nil, err
	}
	return &DefExpr{Name: name.Lexeme, Value: value, Pos: pos}, nil
}

// parseLet parses (let (<bindings>) <body>...). A binding-list element is
// either a parenthesized (target init) pair, or a bare target that takes the
// next element of the list as its initializer; the two styles may be mixed,
// so ((a 1) b 1) binds both a and b.
func (p *Parser) parseLet(pos lexer.Position) (Expr, error) {
	p.advance() // let
	if _, err := p.expect(lexer.LeftParen, "binding list"); err != nil {
		return nil, err
	}

	var bindings []Binding
	for p.err == nil && p.tok.Kind != lexer.RightParen {
		if p.tok.Kind == lexer.EOF {
			return nil, p.unexpected("')'")
		}
		if p.tok.Kind == lexer.LeftParen {
			p.advance()
			target, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			init, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.RightParen, "')'"); err != nil {
				return nil, err
			}
			bindings = append(bindings, Binding{Target: target, Init: init})
			continue
		}
		target, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		init, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, Binding{Target: target, Init: init})
	}
	if _, err := p.expect(lexer.RightParen, "')'"); err != nil {
		return nil, err
	}

	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	return &LetExpr{Bindings: bindings, Body: body, Pos: pos}, nil
}

func (p *Parser) parseIf(pos lexer.Position) (Expr, error) {
	p.advance() // if
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	thenBranch, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.err == nil && p.tok.Kind == lexer.RightParen {
		// (if cond then): the else branch is mandatory
		return nil, p.unexpected("else branch")
	}
	elseBranch, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RightParen, "')'"); err != nil {
		return nil, err
	}
	return &IfExpr{Cond: cond, Then: thenBranch, Else: elseBranch, Pos: pos}, nil
}

func (p *Parser) parseWhen(pos lexer.Position) (Expr, error) {
	p.advance() // when
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	return &WhenExpr{Cond: cond, Body: body, Pos: pos}, nil
}

func (p *Parser) parseDo(pos lexer.Position) (Expr, error) {
	p.advance() // do
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	return &DoExpr{Body: body, Pos: pos}, nil
}

func (p *Parser) parseDefn(pos lexer.Position) (Expr, error) {
	p.advance() // defn
	name, err := p.expect(lexer.Symbol, "function name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LeftParen, "parameter list"); err != nil {
		return nil, err
	}
	var params []Expr
	for p.err == nil && p.tok.Kind != lexer.RightParen {
		if p.tok.Kind == lexer.EOF {
			return nil, p.unexpected("')'")
		}
		param, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		params = append(params, param)
	}
	if _, err := p.expect(lexer.RightParen, "')'"); err != nil {
		return nil, err
	}
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	return &DefnExpr{Name: name.Lexeme, Params: params, Body: body, Pos: pos}, nil
}

func (p *Parser) parseWhile(pos lexer.Position) (Expr, error) {
	p.advance() // while
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	return &WhileExpr{Cond: cond, Body: body, Pos: pos}, nil
}

func (p *Parser) parseCall(pos lexer.Position) (Expr, error) {
	callee, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	var args []Expr
	for p.err == nil && p.tok.Kind != lexer.RightParen {
		if p.tok.Kind == lexer.EOF {
			return nil, p.unexpected("')'")
		}
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	if _, err := p.expect(lexer.RightParen, "')'"); err != nil {
		return nil, err
	}
	return &CallExpr{Callee: callee, Args: args, Pos: pos}, nil
}

// parseBody collects expressions up to the closing paren of the enclosing
// form and consumes the paren. Empty bodies are allowed.
func (p *Parser) parseBody() ([]Expr, error) {
	var body []Expr
	for p.err == nil && p.tok.Kind != lexer.RightParen {
		if p.tok.Kind == lexer.EOF {
			return nil, p.unexpected("')'")
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		body = append(body, e)
	}
	if _, err := p.expect(lexer.RightParen, "')'"); err != nil {
		return nil, err
	}
	return body, nil
}
