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
package gcn

import (
	"strconv"

	"github.com/consensys/go-gcnasm/pkg/asm"
)

// Hardware operand codes of the special scalar operands.
const (
	REG_VCC_LO   uint16 = 106
	REG_VCC_HI   uint16 = 107
	REG_TBA_LO   uint16 = 108
	REG_TBA_HI   uint16 = 109
	REG_TMA_LO   uint16 = 110
	REG_TMA_HI   uint16 = 111
	REG_TTMP0    uint16 = 112
	REG_M0       uint16 = 124
	REG_EXEC_LO  uint16 = 126
	REG_EXEC_HI  uint16 = 127
	REG_SDWA     uint16 = 249
	REG_DPP      uint16 = 250
	REG_VCCZ     uint16 = 251
	REG_EXECZ    uint16 = 252
	REG_SCC      uint16 = 253
	REG_LDS      uint16 = 254
	REG_LITERAL  uint16 = 255
	REG_VGPR0    uint16 = 256
)

// RegOperand is a parsed register operand: either an architectural register
// range, or a register-variable reference resolved during allocation.
type RegOperand struct {
	// Whether a register operand was recognised at all.
	Found bool
	// Register file (asm.SGPR or asm.VGPR).
	Type uint8
	// Hardware operand codes covered, End exclusive.  For vector registers
	// these are plain VGPR indices (without the 256 source-field offset).
	Start uint16
	End   uint16
	// Non-nil for regvar references.
	RegVar *asm.RegVar
	// Portion of the regvar referenced, End exclusive.
	RvStart uint16
	RvEnd   uint16
}

// Size returns the number of registers covered.
func (r RegOperand) Size() uint16 {
	if r.RegVar != nil {
		return r.RvEnd - r.RvStart
	}
	//
	return r.End - r.Start
}

// specialRegs maps special operand names onto (code, count).
var specialRegs = map[string]RegOperand{
	"vcc":          {true, asm.SGPR, REG_VCC_LO, REG_VCC_HI + 1, nil, 0, 0},
	"vcc_lo":       {true, asm.SGPR, REG_VCC_LO, REG_VCC_LO + 1, nil, 0, 0},
	"vcc_hi":       {true, asm.SGPR, REG_VCC_HI, REG_VCC_HI + 1, nil, 0, 0},
	"tba":          {true, asm.SGPR, REG_TBA_LO, REG_TBA_HI + 1, nil, 0, 0},
	"tba_lo":       {true, asm.SGPR, REG_TBA_LO, REG_TBA_LO + 1, nil, 0, 0},
	"tba_hi":       {true, asm.SGPR, REG_TBA_HI, REG_TBA_HI + 1, nil, 0, 0},
	"tma":          {true, asm.SGPR, REG_TMA_LO, REG_TMA_HI + 1, nil, 0, 0},
	"tma_lo":       {true, asm.SGPR, REG_TMA_LO, REG_TMA_LO + 1, nil, 0, 0},
	"tma_hi":       {true, asm.SGPR, REG_TMA_HI, REG_TMA_HI + 1, nil, 0, 0},
	"m0":           {true, asm.SGPR, REG_M0, REG_M0 + 1, nil, 0, 0},
	"exec":         {true, asm.SGPR, REG_EXEC_LO, REG_EXEC_HI + 1, nil, 0, 0},
	"exec_lo":      {true, asm.SGPR, REG_EXEC_LO, REG_EXEC_LO + 1, nil, 0, 0},
	"exec_hi":      {true, asm.SGPR, REG_EXEC_HI, REG_EXEC_HI + 1, nil, 0, 0},
	"vccz":         {true, asm.SGPR, REG_VCCZ, REG_VCCZ + 1, nil, 0, 0},
	"execz":        {true, asm.SGPR, REG_EXECZ, REG_EXECZ + 1, nil, 0, 0},
	"scc":          {true, asm.SGPR, REG_SCC, REG_SCC + 1, nil, 0, 0},
	"lds":          {true, asm.SGPR, REG_LDS, REG_LDS + 1, nil, 0, 0},
	"flat_scratch": {true, asm.SGPR, 102, 104, nil, 0, 0},
}

// parseRegOperand recognises a register operand at the cursor: "s12",
// "v[4:7]", a special register, a ttmp register, or a regvar (optionally
// indexed).  When the cursor does not start a register operand at all, the
// result has Found unset and the cursor is untouched.
func parseRegOperand(as *asm.Assembler, toks *asm.Tokens) (RegOperand, bool) {
	lookahead := toks.Lookahead()
	//
	if lookahead.Kind != asm.IDENTIFIER {
		return RegOperand{}, true
	}
	//
	name := toks.Text(lookahead)
	//
	// Special registers first.
	if reg, ok := specialRegs[name]; ok {
		toks.Next()
		return reg, true
	}
	// Trap temporaries: ttmp0..ttmp11.
	if len(name) > 4 && name[:4] == "ttmp" {
		if n, err := strconv.Atoi(name[4:]); err == nil && n >= 0 && n < 12 {
			toks.Next()
			code := REG_TTMP0 + uint16(n)
			//
			return RegOperand{true, asm.SGPR, code, code + 1, nil, 0, 0}, true
		}
	}
	// Plain "s12"/"v7" forms.
	if len(name) > 1 && (name[0] == 's' || name[0] == 'v') {
		if n, err := strconv.Atoi(name[1:]); err == nil && n >= 0 && n < 256 {
			toks.Next()
			//
			return singleReg(regFile(name[0]), uint16(n)), true
		}
	}
	// Bracketed "s[4:7]" forms.
	if (name == "s" || name == "v") && toks.LookaheadN(1).Kind == asm.LBRACKET {
		toks.Next()
		toks.Next()
		//
		lo, hi, ok := parseRegIndex(as, toks)
		if !ok {
			return RegOperand{}, false
		}
		//
		return RegOperand{true, regFile(name[0]), lo, hi, nil, 0, 0}, true
	}
	// Register variables, optionally indexed.
	if rv := as.LookupRegVar(name); rv != nil {
		toks.Next()
		//
		reg := RegOperand{Found: true, Type: rv.Type, RegVar: rv, RvStart: 0, RvEnd: rv.Count}
		//
		if toks.Match(asm.LBRACKET) {
			lo, hi, ok := parseRegIndex(as, toks)
			if !ok {
				return RegOperand{}, false
			}
			//
			if hi > rv.Count {
				as.Sink().Errorf(toks.Pos(), "register range exceeds '%s'", rv.Name)
				return RegOperand{}, false
			}
			//
			reg.RvStart, reg.RvEnd = lo, hi
		}
		//
		return reg, true
	}
	//
	return RegOperand{}, true
}

// parseRegIndex parses "lo]" or "lo:hi]" after an opening bracket, returning
// an exclusive range.
func parseRegIndex(as *asm.Assembler, toks *asm.Tokens) (uint16, uint16, bool) {
	lo, ok := constIndex(as, toks)
	if !ok {
		return 0, 0, false
	}
	//
	hi := lo
	//
	if toks.Match(asm.COLON) {
		if hi, ok = constIndex(as, toks); !ok {
			return 0, 0, false
		}
	}
	//
	if !toks.Match(asm.RBRACKET) {
		as.Sink().Errorf(toks.Pos(), "expected ']'")
		return 0, 0, false
	}
	//
	if hi < lo {
		as.Sink().Errorf(toks.Pos(), "illegal register range")
		return 0, 0, false
	}
	//
	return lo, hi + 1, true
}

// constIndex evaluates a constant register index expression.
func constIndex(as *asm.Assembler, toks *asm.Tokens) (uint16, bool) {
	pos := toks.Pos()
	//
	expr := as.ParseExpr(toks)
	if expr == nil {
		return 0, false
	}
	//
	val, status := as.EvalExpr(expr, true)
	//
	if status != asm.EVAL_OK || !val.IsConstant() || val.Uint > 255 {
		as.Sink().Errorf(pos, "expected constant register index")
		return 0, false
	}
	//
	return uint16(val.Uint), true
}

func regFile(letter byte) uint8 {
	if letter == 'v' {
		return asm.VGPR
	}
	//
	return asm.SGPR
}

func singleReg(regType uint8, index uint16) RegOperand {
	return RegOperand{true, regType, index, index + 1, nil, 0, 0}
}

// checkRegAlignment validates the architectural alignment constraint of a
// register range: pairs start at even indices, wider ranges at multiples of
// four.  Vector registers carry no alignment constraint.
func checkRegAlignment(reg RegOperand) bool {
	if reg.Type == asm.VGPR || reg.RegVar != nil {
		return true
	}
	// Special registers (codes >= 102) are pre-aligned by definition.
	if reg.Start >= 102 {
		return true
	}
	//
	switch {
	case reg.Size() == 2:
		return reg.Start%2 == 0
	case reg.Size() > 2:
		return reg.Start%4 == 0
	}
	//
	return true
}

// regAlignOf returns the allocator alignment requirement of a register
// operand of the given width.
func regAlignOf(size uint16, regType uint8) uint8 {
	if regType == asm.VGPR {
		return 1
	}
	//
	switch {
	case size == 2:
		return 2
	case size > 2:
		return 4
	}
	//
	return 1
}
