/*
Copyright 2025 Prism Contributors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package parser

import (
	"fmt"
	"strings"
	"unicode"
)

// TokenType identifies a lexical token class
type TokenType int

const (
	// TokenEOF marks the end of input
	TokenEOF TokenType = iota
	// TokenIdent is an identifier or keyword
	TokenIdent
	// TokenNumber is an integer literal
	TokenNumber
	// TokenString is a quoted string literal
	TokenString
	// TokenSymbol is an operator or punctuation symbol
	TokenSymbol
)

// Token is one lexical token with its position in the input
type Token struct {
	Type TokenType
	Text string
	Pos  int
}

// Lexer tokenizes a query string
type Lexer struct {
	input string
	pos   int
}

// NewLexer creates a Lexer over the input
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// twoCharSymbols are matched before single characters
var twoCharSymbols = []string{"<=", ">=", "<>", "!="}

// Next returns the next token, or an error on an unrecognized character
func (l *Lexer) Next() (Token, error) {
	l.skipSpace()
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.pos}, nil
	}
	start := l.pos
	ch := l.input[l.pos]

	switch {
	case isIdentStart(ch):
		for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
			l.pos++
		}
		return Token{Type: TokenIdent, Text: l.input[start:l.pos], Pos: start}, nil

	case ch >= '0' && ch <= '9':
		for l.pos < len(l.input) && l.input[l.pos] >= '0' && l.input[l.pos] <= '9' {
			l.pos++
		}
		return Token{Type: TokenNumber, Text: l.input[start:l.pos], Pos: start}, nil

	case ch == '\'' || ch == '"':
		quote := ch
		l.pos++
		var sb strings.Builder
		for l.pos < len(l.input) {
			c := l.input[l.pos]
			if c == quote {
				// doubled quote escapes itself
				if l.pos+1 < len(l.input) && l.input[l.pos+1] == quote {
					sb.WriteByte(quote)
					l.pos += 2
					continue
				}
				l.pos++
				return Token{Type: TokenString, Text: sb.String(), Pos: start}, nil
			}
			sb.WriteByte(c)
			l.pos++
		}
		return Token{}, fmt.Errorf("unterminated string literal at position %d", start)

	default:
		for _, sym := range twoCharSymbols {
			if strings.HasPrefix(l.input[l.pos:], sym) {
				l.pos += 2
				return Token{Type: TokenSymbol, Text: sym, Pos: start}, nil
			}
		}
		switch ch {
		case '(', ')', ',', '*', '=', '<', '>', '-', ';':
			l.pos++
			return Token{Type: TokenSymbol, Text: string(ch), Pos: start}, nil
		}
		return Token{}, fmt.Errorf("unexpected character %q at position %d", ch, start)
	}
}

func (l *Lexer) skipSpace() {
	for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9') || ch == '.'
}
