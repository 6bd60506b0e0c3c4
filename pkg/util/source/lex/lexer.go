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
package lex

import (
	"github.com/consensys/go-gcnasm/pkg/util/source"
)

// Token associates a token kind with a given range of characters in the
// sequence being scanned.
type Token struct {
	Kind uint
	Span source.Span
}

// LexRule pairs a scanner with the kind of token it produces.
type LexRule[T any] struct {
	scanner Scanner[T]
	kind    uint
}

// Rule constructs a lexing rule from a scanner and a token kind.
func Rule[T any](scanner Scanner[T], kind uint) LexRule[T] {
	return LexRule[T]{scanner, kind}
}

// Lexer provides a top-level construct for tokenising a given input sequence
// against an ordered set of rules.  Rules are tried in order, with the first
// matching rule winning.
type Lexer[T any] struct {
	items []T
	index int
	rules []LexRule[T]
}

// NewLexer constructs a new lexer from a given input and rule set.
func NewLexer[T any](input []T, rules ...LexRule[T]) *Lexer[T] {
	return &Lexer[T]{input, 0, rules}
}

// Index returns the current position of this lexer within the input.
func (p *Lexer[T]) Index() uint {
	return uint(p.index)
}

// Remaining determines how many characters from the original sequence were
// left unconsumed.
func (p *Lexer[T]) Remaining() uint {
	return uint(max(0, len(p.items)-p.index))
}

// HasNext checks whether any rule matches at the current position.
func (p *Lexer[T]) HasNext() bool {
	if p.index >= len(p.items) {
		return false
	}
	//
	for _, rule := range p.rules {
		if rule.scanner(p.items[p.index:]) > 0 {
			return true
		}
	}
	//
	return false
}

// Next returns the next token and advances the lexer.  This must only be
// called after HasNext has returned true.
func (p *Lexer[T]) Next() Token {
	for _, rule := range p.rules {
		if n := rule.scanner(p.items[p.index:]); n > 0 {
			span := source.NewSpan(p.index, p.index+int(n))
			p.index += int(n)
			//
			return Token{rule.kind, span}
		}
	}
	// Unreachable given HasNext
	panic("no matching lexer rule")
}

// Collect is a convenience function which lexes all remaining tokens in one
// go, producing an array of tokens.  Lexing stops at the first position where
// no rule matches, which the caller detects via Remaining.
func (p *Lexer[T]) Collect() []Token {
	var tokens []Token
	// Keep scanning
	for p.HasNext() {
		tokens = append(tokens, p.Next())
	}
	//
	return tokens
}
