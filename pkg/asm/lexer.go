// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package asm

import (
	"github.com/consensys/go-gcnasm/pkg/util/source"
	"github.com/consensys/go-gcnasm/pkg/util/source/lex"
)

// END_OF signals "end of line"
const END_OF uint = 0

// WHITESPACE signals whitespace
const WHITESPACE uint = 1

// COMMENT signals "# ... \n"
const COMMENT uint = 2

// IDENTIFIER signals a symbol, directive, mnemonic or register name.
const IDENTIFIER uint = 3

// NUMBER signals an integer literal (C-style bases).
const NUMBER uint = 4

// FLOATLIT signals a floating-point literal.
const FLOATLIT uint = 5

// STRING signals a double-quoted string with escapes.
const STRING uint = 6

// CHARLIT signals a single-quoted character literal.
const CHARLIT uint = 7

// COMMA signals ","
const COMMA uint = 8

// COLON signals ":"
const COLON uint = 9

// SEMICOLON signals ";"
const SEMICOLON uint = 10

// LPAREN signals "("
const LPAREN uint = 11

// RPAREN signals ")"
const RPAREN uint = 12

// LBRACKET signals "["
const LBRACKET uint = 13

// RBRACKET signals "]"
const RBRACKET uint = 14

// PLUS signals "+"
const PLUS uint = 15

// MINUS signals "-"
const MINUS uint = 16

// STAR signals "*"
const STAR uint = 17

// SLASH signals "/"
const SLASH uint = 18

// PERCENT signals "%"
const PERCENT uint = 19

// SHL signals "<<"
const SHL uint = 20

// SHR signals ">>" (logical)
const SHR uint = 21

// ASHR signals ">>>" (arithmetic)
const ASHR uint = 22

// AMPERSAND signals "&"
const AMPERSAND uint = 23

// BAR signals "|"
const BAR uint = 24

// CARET signals "^"
const CARET uint = 25

// TILDE signals "~"
const TILDE uint = 26

// BANG signals "!"
const BANG uint = 27

// LOGAND signals "&&"
const LOGAND uint = 28

// LOGOR signals "||"
const LOGOR uint = 29

// EQEQ signals "=="
const EQEQ uint = 30

// NOTEQ signals "!="
const NOTEQ uint = 31

// LESS signals "<"
const LESS uint = 32

// LESSEQ signals "<="
const LESSEQ uint = 33

// GREATER signals ">"
const GREATER uint = 34

// GREATEREQ signals ">="
const GREATEREQ uint = 35

// QMARK signals "?"
const QMARK uint = 36

// EQUALS signals "="
const EQUALS uint = 37

// SCOPEOP signals "::"
const SCOPEOP uint = 38

// BACKSLASH signals "\" (only visible outside macro replay)
const BACKSLASH uint = 39

// Rule for describing whitespace (newlines never occur, since lexing is
// per-line).
var whitespace lex.Scanner[rune] = lex.Many(lex.Any(' ', '\t', '\r'))

// Comments run to end of line.  A bare '#' as the final character is still a
// comment, hence the second alternative.
var comment lex.Scanner[rune] = lex.Or(
	lex.Then(lex.Unit('#'), lex.Until[rune]('\n')),
	lex.Unit('#'))

var digit lex.Scanner[rune] = lex.Within('0', '9')

var hexDigit lex.Scanner[rune] = lex.Or(
	lex.Within('0', '9'),
	lex.Within('a', 'f'),
	lex.Within('A', 'F'))

// C-style integer literals: hexadecimal, binary, octal-or-decimal.
var number lex.Scanner[rune] = lex.Or(
	lex.Then(lex.Unit('0'), lex.Any('x', 'X'), lex.Many(hexDigit)),
	lex.Then(lex.Unit('0'), lex.Any('b', 'B'), lex.Many(lex.Within('0', '1'))),
	lex.Many(digit))

// Exponent suffix of a floating-point literal, with and without a sign.
var exponent lex.Scanner[rune] = lex.Or(
	lex.Then(lex.Any('e', 'E'), lex.Any('+', '-'), lex.Many(digit)),
	lex.Then(lex.Any('e', 'E'), lex.Many(digit)))

// Floating-point literals require a fractional part, keeping them distinct
// from plain integers.  The longer (exponent-carrying) alternative is tried
// first.
var floatlit lex.Scanner[rune] = lex.Or(
	lex.Then(lex.Many(digit), lex.Unit('.'), lex.Many(digit), exponent),
	lex.Then(lex.Many(digit), lex.Unit('.'), lex.Many(digit)))

// Identifiers cover symbols, mnemonics, directives (leading '.') and the
// location counter ('.').
var identifierStart lex.Scanner[rune] = lex.Or(
	lex.Unit('_'),
	lex.Unit('.'),
	lex.Unit('$'),
	lex.Within('a', 'z'),
	lex.Within('A', 'Z'))

var identifierRest lex.Scanner[rune] = lex.Many(lex.Or(
	lex.Unit('_'),
	lex.Unit('.'),
	lex.Unit('$'),
	lex.Within('0', '9'),
	lex.Within('a', 'z'),
	lex.Within('A', 'Z')))

// A single start character is an identifier by itself (the location counter
// "." relies on this), so the longer alternative is tried first.
var identifier lex.Scanner[rune] = lex.Or(
	lex.Then(identifierStart, identifierRest),
	identifierStart)

// lexing rules, ordered such that the longest operators win.
var rules []lex.LexRule[rune] = []lex.LexRule[rune]{
	lex.Rule(comment, COMMENT),
	lex.Rule(whitespace, WHITESPACE),
	lex.Rule(lex.Quoted('"', '\\'), STRING),
	lex.Rule(lex.Quoted('\'', '\\'), CHARLIT),
	lex.Rule(floatlit, FLOATLIT),
	lex.Rule(number, NUMBER),
	lex.Rule(identifier, IDENTIFIER),
	lex.Rule(lex.Unit(':', ':'), SCOPEOP),
	lex.Rule(lex.Unit('>', '>', '>'), ASHR),
	lex.Rule(lex.Unit('<', '<'), SHL),
	lex.Rule(lex.Unit('>', '>'), SHR),
	lex.Rule(lex.Unit('&', '&'), LOGAND),
	lex.Rule(lex.Unit('|', '|'), LOGOR),
	lex.Rule(lex.Unit('=', '='), EQEQ),
	lex.Rule(lex.Unit('!', '='), NOTEQ),
	lex.Rule(lex.Unit('<', '='), LESSEQ),
	lex.Rule(lex.Unit('>', '='), GREATEREQ),
	lex.Rule(lex.Unit('<'), LESS),
	lex.Rule(lex.Unit('>'), GREATER),
	lex.Rule(lex.Unit(','), COMMA),
	lex.Rule(lex.Unit(':'), COLON),
	lex.Rule(lex.Unit(';'), SEMICOLON),
	lex.Rule(lex.Unit('('), LPAREN),
	lex.Rule(lex.Unit(')'), RPAREN),
	lex.Rule(lex.Unit('['), LBRACKET),
	lex.Rule(lex.Unit(']'), RBRACKET),
	lex.Rule(lex.Unit('+'), PLUS),
	lex.Rule(lex.Unit('-'), MINUS),
	lex.Rule(lex.Unit('*'), STAR),
	lex.Rule(lex.Unit('/'), SLASH),
	lex.Rule(lex.Unit('%'), PERCENT),
	lex.Rule(lex.Unit('&'), AMPERSAND),
	lex.Rule(lex.Unit('|'), BAR),
	lex.Rule(lex.Unit('^'), CARET),
	lex.Rule(lex.Unit('~'), TILDE),
	lex.Rule(lex.Unit('!'), BANG),
	lex.Rule(lex.Unit('?'), QMARK),
	lex.Rule(lex.Unit('='), EQUALS),
	lex.Rule(lex.Unit('\\'), BACKSLASH),
}

// TokenizeLine lexes a single logical line into a sequence of tokens,
// stripping whitespace and comments and appending a terminating END_OF token.
// The second result gives the column (counting from 0) of the first character
// which could not be lexed, or -1 on success.
func TokenizeLine(line []rune) ([]lex.Token, int) {
	var (
		lexer  = lex.NewLexer(line, rules...)
		tokens []lex.Token
	)
	//
	for _, t := range lexer.Collect() {
		// An unterminated string or character literal consumes to the end of
		// the line; report it at its opening delimiter.
		if t.Kind == STRING || t.Kind == CHARLIT {
			text := line[t.Span.Start():t.Span.End()]
			//
			if len(text) < 2 || text[len(text)-1] != text[0] {
				return tokens, t.Span.Start()
			}
		}
		//
		if t.Kind != WHITESPACE && t.Kind != COMMENT {
			tokens = append(tokens, t)
		}
	}
	// Check whether anything was left (if so this is an error)
	if lexer.Remaining() != 0 {
		return tokens, int(lexer.Index())
	}
	//
	n := len(line)
	tokens = append(tokens, lex.Token{Kind: END_OF, Span: source.NewSpan(n, n)})
	//
	return tokens, -1
}

// Tokens is a cursor over the tokens of one logical line, shared between the
// directive dispatcher, the expression parser and the instruction encoder.
type Tokens struct {
	// Text of the logical line the tokens were lexed from.
	line []rune
	// Lexed tokens, terminated by END_OF.
	tokens []lex.Token
	// Base position of the line within the original source.
	base source.Position
	// Position within the tokens.
	index int
}

// NewTokens constructs a cursor over a lexed line.
func NewTokens(line []rune, tokens []lex.Token, base source.Position) *Tokens {
	return &Tokens{line, tokens, base, 0}
}

// Lookahead returns the next token without advancing.  This must exist
// because END_OF is always appended at the end of the token stream.
func (p *Tokens) Lookahead() lex.Token {
	return p.tokens[p.index]
}

// LookaheadN returns the token n positions ahead, or the final END_OF.
func (p *Tokens) LookaheadN(n int) lex.Token {
	if p.index+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	//
	return p.tokens[p.index+n]
}

// Next returns the next token and advances the cursor.
func (p *Tokens) Next() lex.Token {
	tok := p.tokens[p.index]
	//
	if tok.Kind != END_OF {
		p.index++
	}
	//
	return tok
}

// Match advances past the next token if it has the given kind.
func (p *Tokens) Match(kind uint) bool {
	if p.Lookahead().Kind == kind {
		p.index++
		return true
	}
	//
	return false
}

// Exhausted checks whether all tokens (bar END_OF) have been consumed.
func (p *Tokens) Exhausted() bool {
	return p.Lookahead().Kind == END_OF
}

// SkipToEnd discards all remaining tokens of the line.
func (p *Tokens) SkipToEnd() {
	p.index = len(p.tokens) - 1
}

// RestText returns the raw text from the next token to the end of the last
// token of the line, excluding stripped comments.
func (p *Tokens) RestText() string {
	// last real token precedes the terminating END_OF
	last := len(p.tokens) - 2
	//
	if last < p.index {
		return ""
	}
	//
	start := p.tokens[p.index].Span.Start()
	end := p.tokens[last].Span.End()
	//
	return string(p.line[start:end])
}

// Text returns the raw text of a given token.
func (p *Tokens) Text(token lex.Token) string {
	return string(p.line[token.Span.Start():token.Span.End()])
}

// Line returns the raw text of the entire logical line.
func (p *Tokens) Line() []rune {
	return p.line
}

// PosOf translates a given token into a source position.
func (p *Tokens) PosOf(token lex.Token) source.Position {
	pos := p.base
	pos.Column += token.Span.Start()
	//
	return pos
}

// Pos returns the position of the next token.
func (p *Tokens) Pos() source.Position {
	return p.PosOf(p.Lookahead())
}
