// Package lexer converts losp source text into a stream of tokens.
package lexer

import (
	"fmt"
	"strings"
)

// Kind identifies the lexical class of a token.
type Kind int

const (
	EOF Kind = iota

	LeftParen
	RightParen

	Int
	Float
	String
	Symbol

	// Reserved words
	KwDef
	KwLet
	KwIf
	KwWhen
	KwDo
	KwDefn
	KwWhile
	KwNil
	KwTrue
	KwFalse
)

// keywords maps reserved words to their token kinds. Any other symbol-shaped
// run lexes as a plain Symbol.
var keywords = map[string]Kind{
	"def":   KwDef,
	"let":   KwLet,
	"if":    KwIf,
	"when":  KwWhen,
	"do":    KwDo,
	"defn":  KwDefn,
	"while": KwWhile,
	"nil":   KwNil,
	"true":  KwTrue,
	"false": KwFalse,
}

var kindNames = map[Kind]string{
	EOF:        "end of input",
	LeftParen:  "'('",
	RightParen: "')'",
	Int:        "integer",
	Float:      "float",
	String:     "string",
	Symbol:     "symbol",
	KwDef:      "'def'",
	KwLet:      "'let'",
	KwIf:       "'if'",
	KwWhen:     "'when'",
	KwDo:       "'do'",
	KwDefn:     "'defn'",
	KwWhile:    "'while'",
	KwNil:      "'nil'",
	KwTrue:     "'true'",
	KwFalse:    "'false'",
}

// String returns a human-readable name for the kind, suitable for
// expected-vs-found error messages.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsKeyword reports whether the kind is one of the reserved words.
func (k Kind) IsKeyword() bool {
	return k >= KwDef && k <= KwFalse
}

// Position is a 1-based source location.
type Position struct {
	Line int
	Col  int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Token is one lexical unit. Lexeme holds the raw text; for String tokens it
// is the contents without the surrounding quotes.
type Token struct {
	Kind   Kind
	Lexeme string
	Pos    Position
}

// Error is a lexical error carrying the offending text and its position.
type Error struct {
	Text string
	Pos  Position
	Msg  string
}

func (e *Error) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("lex error at %s: %s", e.Pos, e.Msg)
	}
	return fmt.Sprintf("lex error at %s: %s: %q", e.Pos, e.Msg, e.Text)
}

// Lexer scans source text into tokens. It holds no state beyond the scan
// position; Reset rewinds it to the start of the same source.
type Lexer struct {
	src  []rune
	pos  int
	line int
	col  int
}

// New creates a lexer over the given source text.
func New(src string) *Lexer {
	return &Lexer{src: []rune(src), line: 1, col: 1}
}

// Reset rewinds the lexer to the start of its source.
func (l *Lexer) Reset() {
	l.pos = 0
	l.line = 1
	l.col = 1
}

// Scan tokenizes an entire source string, stopping at the first lex error.
// The returned slice always ends with an EOF token on success.
func Scan(src string) ([]Token, error) {
	l := New(src)
	var tokens []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == EOF {
			return tokens, nil
		}
	}
}

// Next returns the next token, or a *Error for malformed input. After EOF it
// keeps returning EOF.
func (l *Lexer) Next() (Token, error) {
	l.skipBlanks()

	start := l.here()
	if l.pos >= len(l.src) {
		return Token{Kind: EOF, Pos: start}, nil
	}

	c := l.src[l.pos]
	switch {
	case c == '(':
		l.advance()
		return Token{Kind: LeftParen, Lexeme: "(", Pos: start}, nil

	case c == ')':
		l.advance()
		return Token{Kind: RightParen, Lexeme: ")", Pos: start}, nil

	case c == '"':
		return l.scanString(start)

	case isSymbolChar(c):
		return l.scanRun(start)

	default:
		l.advance()
		return Token{}, &Error{Text: string(c), Pos: start, Msg: "unexpected character"}
	}
}

// skipBlanks consumes whitespace and ;-to-end-of-line comments.
func (l *Lexer) skipBlanks() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ';':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.advance()
			}
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.advance()
		default:
			return
		}
	}
}

func (l *Lexer) scanString(start Position) (Token, error) {
	l.advance() // opening quote
	var sb strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == '"' {
			l.advance()
			return Token{Kind: String, Lexeme: sb.String(), Pos: start}, nil
		}
		sb.WriteRune(c)
		l.advance()
	}
	return Token{}, &Error{Text: sb.String(), Pos: start, Msg: "unterminated string"}
}

// scanRun consumes a maximal run of symbol characters and classifies it as a
// number, keyword, or symbol.
func (l *Lexer) scanRun(start Position) (Token, error) {
	from := l.pos
	for l.pos < len(l.src) && isSymbolChar(l.src[l.pos]) {
		l.advance()
	}
	text := string(l.src[from:l.pos])

	if looksNumeric(text) {
		switch strings.Count(text, ".") {
		case 0:
			return Token{Kind: Int, Lexeme: text, Pos: start}, nil
		case 1:
			return Token{Kind: Float, Lexeme: text, Pos: start}, nil
		default:
			return Token{}, &Error{Text: text, Pos: start, Msg: "malformed number"}
		}
	}

	if kind, ok := keywords[text]; ok {
		return Token{Kind: kind, Lexeme: text, Pos: start}, nil
	}
	return Token{Kind: Symbol, Lexeme: text, Pos: start}, nil
}

func (l *Lexer) here() Position {
	return Position{Line: l.line, Col: l.col}
}

func (l *Lexer) advance() {
	if l.pos < len(l.src) && l.src[l.pos] == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.pos++
}

// isSymbolChar matches the characters a symbol may contain. Digits and the
// dot are included, so numeric tokens are carved out of symbol runs by
// looksNumeric.
func isSymbolChar(c rune) bool {
	if c >= '0' && c <= '9' {
		return true
	}
	if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
		return true
	}
	switch c {
	case '-', '_', '>', '<', '*', '+', '.', '!', '?', '/', ':', '=':
		return true
	}
	return false
}

// looksNumeric reports whether a run is a numeric candidate: an optional
// leading minus followed by at least one digit, with only digits and dots
// after it. "-" alone and "1abc" are symbols, not numbers.
func looksNumeric(text string) bool {
	body := strings.TrimPrefix(text, "-")
	if body == "" {
		return false
	}
	hasDigit := false
	for _, c := range body {
		switch {
		case c >= '0' && c <= '9':
			hasDigit = true
		case c == '.':
		default:
			return false
		}
	}
	return hasDigit
}
