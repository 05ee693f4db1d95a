// Package query implements the record search expressions used to filter
// accession records:
//
//	*                   every record
//	(column) pattern    regexp against one summary column; empty pattern tests presence
//	(length op N)       numeric comparison on the sequence length, op one of = >= <= > <
//	pattern             regexp against every field; prefix i? or ?i to ignore case
package query

// TokenType represents the type of lexical token in a length comparison.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIllegal

	TokenIdent  // length
	TokenNumber // integers
	TokenOp     // any run of < > = !
)

// String returns the string representation of the token type.
func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenIllegal:
		return "ILLEGAL"
	case TokenIdent:
		return "IDENT"
	case TokenNumber:
		return "NUMBER"
	case TokenOp:
		return "OP"
	default:
		return "UNKNOWN"
	}
}

// Token is a lexical token with its position in the input.
type Token struct {
	Type    TokenType
	Literal string
	Pos     int
}

// Lexer tokenizes the inside of a "(length op N)" header.
type Lexer struct {
	input string
	pos   int  // current position in input
	ch    byte // current character under examination
}

// NewLexer creates a new lexer for the input string.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	tok := Token{Pos: l.pos - 1}
	switch {
	case l.ch == 0:
		tok.Type = TokenEOF
		return tok
	case isOpChar(l.ch):
		start := l.pos - 1
		for isOpChar(l.ch) {
			l.readChar()
		}
		tok.Type = TokenOp
		tok.Literal = l.input[start : l.pos-1]
		return tok
	case isLetter(l.ch):
		start := l.pos - 1
		for isLetter(l.ch) || isDigit(l.ch) {
			l.readChar()
		}
		tok.Type = TokenIdent
		tok.Literal = l.input[start : l.pos-1]
		return tok
	case isDigit(l.ch):
		start := l.pos - 1
		for isDigit(l.ch) {
			l.readChar()
		}
		tok.Type = TokenNumber
		tok.Literal = l.input[start : l.pos-1]
		return tok
	}
	tok.Type = TokenIllegal
	tok.Literal = string(l.ch)
	l.readChar()
	return tok
}

func (l *Lexer) readChar() {
	if l.pos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.pos]
	}
	l.pos++
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

func isOpChar(c byte) bool {
	return c == '<' || c == '>' || c == '=' || c == '!'
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
