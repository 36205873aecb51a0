package selector

import (
	"strings"
	"unicode"
)

// lexer splits a selector into text runs and single-rune symbols.
// Text runs are trimmed, so whitespace around tokens is insignificant but whitespace inside a value is kept.
type lexer struct {
	raw     []rune
	symbols string
	pos     int
	peeked  *token
}

func newLexer(raw string, symbols string) *lexer {
	return &lexer{
		raw:     []rune(raw),
		symbols: symbols,
	}
}

func (l *lexer) isSymbol(r rune) bool {
	return strings.ContainsRune(l.symbols, r)
}

func (l *lexer) peek() token {
	if l.peeked == nil {
		t := l.scan()
		l.peeked = &t
	}

	return *l.peeked
}

func (l *lexer) next() token {
	t := l.peek()
	l.peeked = nil
	return t
}

func (l *lexer) scan() token {
	for l.pos < len(l.raw) && unicode.IsSpace(l.raw[l.pos]) {
		l.pos++
	}

	if l.pos == len(l.raw) {
		return token{Type: tokenTypeEOF, Position: l.pos}
	}

	start := l.pos
	thisRune := l.raw[l.pos]
	if l.isSymbol(thisRune) {
		l.pos++
		return token{Type: tokenTypeSymbol, Symbol: thisRune, Position: start}
	}

	for l.pos < len(l.raw) && !l.isSymbol(l.raw[l.pos]) {
		l.pos++
	}

	return token{
		Type:     tokenTypeText,
		Text:     strings.TrimSpace(string(l.raw[start:l.pos])),
		Position: start,
	}
}
