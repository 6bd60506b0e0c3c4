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
	"testing"
)

const WORD uint = 1
const GAP uint = 2
const NUM uint = 3

func testRules() []LexRule[rune] {
	var (
		word = Many(Within('a', 'z'))
		gap  = Many(Any(' ', '\t'))
		num  = Many(Within('0', '9'))
	)
	//
	return []LexRule[rune]{
		Rule(word, WORD),
		Rule(gap, GAP),
		Rule(num, NUM),
	}
}

func Test_Lexer_00(t *testing.T) {
	check_Lexer(t, "abc", []uint{WORD})
}

func Test_Lexer_01(t *testing.T) {
	check_Lexer(t, "abc def", []uint{WORD, GAP, WORD})
}

func Test_Lexer_02(t *testing.T) {
	check_Lexer(t, "a 1 b 22", []uint{WORD, GAP, NUM, GAP, WORD, GAP, NUM})
}

func Test_Lexer_03(t *testing.T) {
	// '?' matches no rule, so lexing stops there
	lexer := NewLexer([]rune("ab?cd"), testRules()...)
	tokens := lexer.Collect()
	//
	if len(tokens) != 1 || lexer.Remaining() != 3 {
		t.Errorf("expected one token and three remaining, got %d / %d", len(tokens), lexer.Remaining())
	}
}

func Test_Lexer_Quoted(t *testing.T) {
	quoted := Quoted('"', '\\')
	//
	if n := quoted([]rune(`"a\"b" rest`)); n != 6 {
		t.Errorf("expected 6 characters matched, got %d", n)
	}
	//
	if n := quoted([]rune(`x`)); n != 0 {
		t.Errorf("expected no match, got %d", n)
	}
}

func Test_Lexer_Then(t *testing.T) {
	scanner := Then(Unit('0'), Any('x', 'X'), Many(Within('0', '9')))
	//
	if n := scanner([]rune("0x123z")); n != 5 {
		t.Errorf("expected 5 characters matched, got %d", n)
	}
	//
	if n := scanner([]rune("0y1")); n != 0 {
		t.Errorf("expected no match, got %d", n)
	}
}

// ===================================================================
// Test Helpers
// ===================================================================

func check_Lexer(t *testing.T, input string, expected []uint) {
	t.Helper()
	//
	lexer := NewLexer([]rune(input), testRules()...)
	tokens := lexer.Collect()
	//
	if lexer.Remaining() != 0 {
		t.Errorf("unlexed input remains at %d", lexer.Index())
	}
	//
	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d", len(expected), len(tokens))
	}
	//
	for i, token := range tokens {
		if token.Kind != expected[i] {
			t.Errorf("token %d: expected kind %d, got %d", i, expected[i], token.Kind)
		}
	}
}
