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
	"math"
	"testing"

	"github.com/consensys/go-gcnasm/pkg/util/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Expr_Arithmetic(t *testing.T) {
	check_Expr_Eval(t, "1+2*3", 7)
	check_Expr_Eval(t, "(1+2)*3", 9)
	check_Expr_Eval(t, "10/3", 3)
	check_Expr_Eval(t, "10%3", 1)
	check_Expr_Eval(t, "1<<4", 16)
	check_Expr_Eval(t, "256>>4", 16)
	check_Expr_Eval(t, "-8>>>1", uint64(math.MaxUint64)-3)
	check_Expr_Eval(t, "0xff&0x0f", 0x0f)
	check_Expr_Eval(t, "0xf0|0x0f", 0xff)
	check_Expr_Eval(t, "0xff^0x0f", 0xf0)
	check_Expr_Eval(t, "~0", uint64(math.MaxUint64))
	check_Expr_Eval(t, "-1", uint64(math.MaxUint64))
}

func Test_Expr_Relational(t *testing.T) {
	// relational operators yield all ones for truth
	check_Expr_Eval(t, "1==1", uint64(math.MaxUint64))
	check_Expr_Eval(t, "1!=1", 0)
	check_Expr_Eval(t, "1<2", uint64(math.MaxUint64))
	check_Expr_Eval(t, "2<=1", 0)
	// logical operators yield plain booleans
	check_Expr_Eval(t, "1&&2", 1)
	check_Expr_Eval(t, "1&&0", 0)
	check_Expr_Eval(t, "0||3", 1)
	check_Expr_Eval(t, "!5", 0)
}

func Test_Expr_Select(t *testing.T) {
	check_Expr_Eval(t, "1?10:20", 10)
	check_Expr_Eval(t, "0?10:20", 20)
	check_Expr_Eval(t, "1?2?3:4:5", 3)
}

func Test_Expr_Bases(t *testing.T) {
	check_Expr_Eval(t, "0x10", 16)
	check_Expr_Eval(t, "0b101", 5)
	check_Expr_Eval(t, "010", 8)
	check_Expr_Eval(t, "'A'", 65)
}

func Test_Expr_FloatLiterals(t *testing.T) {
	check_Expr_Eval(t, "lit(1.0)", uint64(math.Float32bits(1.0)))
	check_Expr_Eval(t, "lit64(0.5)", math.Float64bits(0.5))
}

func Test_Expr_SectionMixing(t *testing.T) {
	// an integer shifts a sectioned value; the difference of two sectioned
	// values in the same section is a scalar
	as, _ := assembleText(t, ".text\na: .word 0\n.set d, a+4-a\n.byte d\n")
	//
	require.True(t, as.Good())
	//
	sym := as.LookupSymbol("d")
	require.NotNil(t, sym)
	assert.Equal(t, uint64(4), sym.Val.Uint)
}

func Test_Expr_CrossSectionFails(t *testing.T) {
	// adding two sectioned values is never meaningful
	check_Asm_Fails(t, ".text\na: .word 0\nb:\n.set x, a+b\n.byte x\n")
}

func Test_Expr_DivideByZeroFails(t *testing.T) {
	as := newTestAssembler()
	//
	_, status := evalText(t, as, "1/0")
	assert.Equal(t, EVAL_FAILED, status)
	assert.False(t, as.Good())
}

func Test_Expr_ForwardIsUnresolved(t *testing.T) {
	as := newTestAssembler()
	//
	_, status := evalText(t, as, "missing+1")
	assert.Equal(t, EVAL_UNRESOLVED, status)
	// deferral is not an error
	assert.True(t, as.Good())
}

// ===================================================================
// Test Helpers
// ===================================================================

func newTestAssembler() *Assembler {
	return NewAssembler(Config{CaseInsensitive: true}, NewSink(false), nil, &testFormat{}, nil)
}

func evalText(t *testing.T, as *Assembler, text string) (Value, uint8) {
	t.Helper()
	//
	line := []rune(text)
	tokens, bad := TokenizeLine(line)
	require.Equal(t, -1, bad)
	//
	toks := NewTokens(line, tokens, source.NewPosition("expr.s", 1, 1))
	expr := as.ParseExpr(toks)
	require.NotNil(t, expr)
	//
	return as.EvalExpr(expr, false)
}

func check_Expr_Eval(t *testing.T, text string, expected uint64) {
	t.Helper()
	//
	as := newTestAssembler()
	val, status := evalText(t, as, text)
	//
	require.Equal(t, EVAL_OK, status, "evaluating %s", text)
	assert.Equal(t, expected, val.Uint, "evaluating %s", text)
}
