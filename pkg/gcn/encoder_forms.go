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
	"strings"

	"github.com/consensys/go-gcnasm/pkg/asm"
)

// ============================================================================
// Scalar forms
// ============================================================================

// encodeSOP1 handles "sdst, ssrc0" (with a handful of source-only and
// destination-only exceptions).
func (p *encodeContext) encodeSOP1(entry GCNInsn, toks *asm.Tokens) {
	var (
		width        = regWidthOf(entry.Mnemonic)
		sdst, ssrc   uint16
		ok           bool
		sourceOnly   = entry.Branch == BRANCH_RETURN || entry.Branch == BRANCH_CALL && entry.Form == SOP1
		destOnly     = strings.HasPrefix(entry.Mnemonic, "s_getpc")
		rfeException = strings.HasPrefix(entry.Mnemonic, "s_rfe")
	)
	//
	if sourceOnly || rfeException {
		// s_setpc_b64/s_rfe_b64 read only; s_swappc also writes a pair.
		if entry.Branch == BRANCH_CALL {
			if sdst, ok = p.parseScalarReg(toks, width, FIELD_SDST, asm.ACCESS_WRITE); !ok {
				return
			}
			//
			if !p.comma(toks) {
				return
			}
		}
		//
		if ssrc, ok = p.parseSrc(toks, width, FIELD_SSRC0, false); !ok {
			return
		}
	} else if destOnly {
		if sdst, ok = p.parseScalarReg(toks, width, FIELD_SDST, asm.ACCESS_WRITE); !ok {
			return
		}
	} else {
		if sdst, ok = p.parseScalarReg(toks, width, FIELD_SDST, asm.ACCESS_WRITE); !ok {
			return
		}
		//
		if !p.comma(toks) {
			return
		}
		//
		if ssrc, ok = p.parseSrc(toks, width, FIELD_SSRC0, false); !ok {
			return
		}
	}
	//
	p.checkNoModifiers(toks)
	p.emit(entry, 0xbe800000|uint32(sdst)<<16|uint32(entry.Code)<<8|uint32(ssrc))
}

// encodeSOP2 handles "sdst, ssrc0, ssrc1".
func (p *encodeContext) encodeSOP2(entry GCNInsn, toks *asm.Tokens) {
	var (
		width    = regWidthOf(entry.Mnemonic)
		srcWidth = width
	)
	//
	if shiftSrc1Width(entry.Mnemonic) {
		srcWidth = 1
	}
	//
	sdst, ok := p.parseScalarReg(toks, width, FIELD_SDST, asm.ACCESS_WRITE)
	if !ok || !p.comma(toks) {
		return
	}
	//
	ssrc0, ok := p.parseSrc(toks, width, FIELD_SSRC0, false)
	if !ok || !p.comma(toks) {
		return
	}
	//
	ssrc1, ok := p.parseSrc(toks, srcWidth, FIELD_SSRC1, false)
	if !ok {
		return
	}
	//
	p.checkNoModifiers(toks)
	p.emit(entry, 0x80000000|uint32(entry.Code)<<23|uint32(sdst)<<16|uint32(ssrc1)<<8|uint32(ssrc0))
}

// encodeSOPK handles "sdst, simm16", plus the s_call_b64 label form.
func (p *encodeContext) encodeSOPK(entry GCNInsn, toks *asm.Tokens) {
	var (
		width = regWidthOf(entry.Mnemonic)
		imm   uint16
	)
	//
	sdst, ok := p.parseScalarReg(toks, width, FIELD_SDST, sopkAccess(entry))
	if !ok || !p.comma(toks) {
		return
	}
	//
	if entry.Branch != BRANCH_NONE {
		if imm, ok = p.parseBranchTarget(toks, entry, 0); !ok {
			return
		}
	} else if p.isHwreg(toks) {
		if imm, ok = p.parseHwreg(toks); !ok {
			return
		}
	} else {
		if imm, ok = p.parseImm16(toks); !ok {
			return
		}
	}
	//
	p.checkNoModifiers(toks)
	p.emit(entry, 0xb0000000|uint32(entry.Code)<<23|uint32(sdst)<<16|uint32(imm))
}

// sopkAccess distinguishes the compare forms, which read their register.
func sopkAccess(entry GCNInsn) uint8 {
	if strings.HasPrefix(entry.Mnemonic, "s_cmpk") || strings.HasPrefix(entry.Mnemonic, "s_setreg") {
		return asm.ACCESS_READ
	}
	//
	return asm.ACCESS_WRITE
}

// encodeSOPC handles "ssrc0, ssrc1".
func (p *encodeContext) encodeSOPC(entry GCNInsn, toks *asm.Tokens) {
	var (
		width    = regWidthOf(entry.Mnemonic)
		srcWidth = width
	)
	//
	if shiftSrc1Width(entry.Mnemonic) {
		srcWidth = 1
	}
	//
	ssrc0, ok := p.parseSrc(toks, width, FIELD_SSRC0, false)
	if !ok || !p.comma(toks) {
		return
	}
	//
	ssrc1, ok := p.parseSrc(toks, srcWidth, FIELD_SSRC1, false)
	if !ok {
		return
	}
	//
	p.checkNoModifiers(toks)
	p.emit(entry, 0xbf000000|uint32(entry.Code)<<16|uint32(ssrc1)<<8|uint32(ssrc0))
}

// encodeSOPP handles the program-control form, whose 16-bit immediate is a
// branch displacement, a wait-count descriptor, or a plain constant.
func (p *encodeContext) encodeSOPP(entry GCNInsn, toks *asm.Tokens) {
	var (
		imm uint16
		ok  bool
	)
	//
	switch {
	case entry.Branch == BRANCH_JUMP || entry.Branch == BRANCH_CJUMP:
		if imm, ok = p.parseBranchTarget(toks, entry, 0); !ok {
			return
		}
	case entry.Mnemonic == "s_waitcnt":
		if imm, ok = p.parseWaitcnt(toks); !ok {
			return
		}
	case toks.Lookahead().Kind != asm.END_OF && toks.Lookahead().Kind != asm.SEMICOLON:
		if imm, ok = p.parseImm16(toks); !ok {
			return
		}
	}
	//
	p.checkNoModifiers(toks)
	p.emit(entry, 0xbf800000|uint32(entry.Code)<<16|uint32(imm))
}

// parseWaitcnt parses "vmcnt(n) & lgkmcnt(n) & expcnt(n)" (any subset, any
// order), or a plain constant expression.  Unnamed counters stay at their
// "no wait" maximum.
func (p *encodeContext) parseWaitcnt(toks *asm.Tokens) (uint16, bool) {
	if toks.Lookahead().Kind != asm.IDENTIFIER {
		return p.parseImm16(toks)
	}
	//
	imm := uint16(0x0f7f)
	//
	for {
		tok, ok := toks.Lookahead(), false
		if tok.Kind != asm.IDENTIFIER {
			p.fail("expected counter name")
			return 0, false
		}
		//
		name := toks.Text(toks.Next())
		//
		if !toks.Match(asm.LPAREN) {
			p.fail("expected '(' after '%s'", name)
			return 0, false
		}
		//
		var count uint64
		if count, ok = p.immediateParam(toks); !ok {
			return 0, false
		}
		//
		if !toks.Match(asm.RPAREN) {
			p.fail("expected ')'")
			return 0, false
		}
		//
		switch name {
		case "vmcnt":
			imm = imm&^0x000f | uint16(count&0xf)
		case "expcnt":
			imm = imm&^0x0070 | uint16(count&0x7)<<4
		case "lgkmcnt":
			imm = imm&^0x1f00 | uint16(count&0x1f)<<8
		default:
			p.fail("unknown counter '%s'", name)
			return 0, false
		}
		//
		if !toks.Match(asm.AMPERSAND) && !toks.Match(asm.COMMA) {
			return imm, true
		}
	}
}

// isHwreg checks for the hwreg(...) descriptor of s_getreg/s_setreg.
func (p *encodeContext) isHwreg(toks *asm.Tokens) bool {
	return toks.Lookahead().Kind == asm.IDENTIFIER && toks.Text(toks.Lookahead()) == "hwreg" &&
		toks.LookaheadN(1).Kind == asm.LPAREN
}

// hwregNames maps hardware register names onto their identifiers.
var hwregNames = map[string]uint64{
	"mode": 1, "status": 2, "trapsts": 3, "hw_id": 4,
	"gpr_alloc": 5, "lds_alloc": 6, "ib_sts": 7,
}

// parseHwreg parses "hwreg(name, offset, size)".
func (p *encodeContext) parseHwreg(toks *asm.Tokens) (uint16, bool) {
	toks.Next() // hwreg
	toks.Next() // (
	//
	var id uint64
	//
	if toks.Lookahead().Kind == asm.IDENTIFIER {
		name := toks.Text(toks.Next())
		//
		var ok bool
		if id, ok = hwregNames[name]; !ok {
			p.fail("unknown hardware register '%s'", name)
			return 0, false
		}
	} else if value, ok := p.immediateParam(toks); ok {
		id = value
	} else {
		return 0, false
	}
	//
	if !p.comma(toks) {
		return 0, false
	}
	//
	offset, ok := p.immediateParam(toks)
	if !ok || !p.comma(toks) {
		return 0, false
	}
	//
	size, ok := p.immediateParam(toks)
	if !ok {
		return 0, false
	}
	//
	if !toks.Match(asm.RPAREN) {
		p.fail("expected ')'")
		return 0, false
	}
	//
	if size == 0 || size > 32 || offset > 31 {
		p.fail("illegal hardware register descriptor")
		return 0, false
	}
	//
	return uint16(id | offset<<6 | (size-1)<<11), true
}

// encodeSMRD handles the scalar memory form, in both its single-word
// (GCN 1.0/1.1) and double-word SMEM (GCN 1.2+) encodings.
func (p *encodeContext) encodeSMRD(entry GCNInsn, toks *asm.Tokens) {
	var (
		dstWidth  = regWidthOf(entry.Mnemonic)
		baseWidth = uint16(2)
	)
	//
	if strings.HasPrefix(entry.Mnemonic, "s_buffer") {
		baseWidth = 4
	}
	//
	if strings.HasPrefix(entry.Mnemonic, "s_memtime") {
		// destination pair only
		sdst, ok := p.parseScalarReg(toks, 2, FIELD_SMRD_SDST, asm.ACCESS_WRITE)
		if !ok {
			return
		}
		//
		p.checkNoModifiers(toks)
		p.emitSMRD(entry, sdst, 0, true, 0)
		//
		return
	} else if strings.HasPrefix(entry.Mnemonic, "s_dcache") {
		// no operands at all
		p.checkNoModifiers(toks)
		p.emitSMRD(entry, 0, 0, true, 0)
		//
		return
	}
	//
	sdst, ok := p.parseScalarReg(toks, dstWidth, FIELD_SMRD_SDST, smrdAccess(entry))
	if !ok || !p.comma(toks) {
		return
	}
	//
	sbase, ok := p.parseScalarReg(toks, baseWidth, FIELD_SMRD_SBASE, asm.ACCESS_READ)
	if !ok {
		return
	}
	// Offset operand: an immediate or a scalar register.
	var (
		imm    = true
		offset uint16
	)
	//
	if p.comma(toks) {
		reg, rok := parseRegOperand(p.as, toks)
		//
		if !rok {
			p.failed = true
			return
		} else if reg.Found {
			if reg.Type != asm.SGPR || reg.Size() != 1 {
				p.fail("expected 32-bit scalar register offset")
				return
			}
			//
			imm, offset = false, reg.Start
		} else {
			value, vok := p.parseImm16(toks)
			if !vok {
				return
			}
			//
			offset = value
		}
	} else {
		return
	}
	//
	p.checkNoModifiers(toks)
	p.emitSMRD(entry, sdst, sbase, imm, offset)
}

func smrdAccess(entry GCNInsn) uint8 {
	if strings.HasPrefix(entry.Mnemonic, "s_store") {
		return asm.ACCESS_READ
	}
	//
	return asm.ACCESS_WRITE
}

func (p *encodeContext) emitSMRD(entry GCNInsn, sdst uint16, sbase uint16, imm bool, offset uint16) {
	immBit := uint32(0)
	if imm {
		immBit = 1
	}
	//
	if p.arch >= GCN12 {
		// SMEM double-word encoding
		word0 := 0xc0000000 | uint32(entry.Code)<<18 | immBit<<17 | uint32(sdst)<<6 | uint32(sbase)>>1
		p.emit(entry, word0, uint32(offset))
		//
		return
	}
	//
	word := 0xc0000000 | uint32(entry.Code)<<22 | uint32(sdst)<<15 | uint32(sbase)>>1<<9 |
		immBit<<8 | uint32(offset)&0xff
	p.emit(entry, word)
}

// checkNoModifiers rejects trailing tokens on forms without modifiers.
func (p *encodeContext) checkNoModifiers(toks *asm.Tokens) {
	if p.failed {
		return
	}
	//
	if kind := toks.Lookahead().Kind; kind != asm.END_OF && kind != asm.SEMICOLON {
		p.fail("garbage at end of instruction")
	}
}

// ============================================================================
// Vector forms
// ============================================================================

// encodeVOP handles VOP1/VOP2/VOPC and their VOP3 promotions, plus the
// native three-operand VOP3 form.
//
//nolint:gocyclo
func (p *encodeContext) encodeVOP(entry GCNInsn, toks *asm.Tokens) {
	var (
		width           = regWidthOf(entry.Mnemonic)
		vdst, sdst      uint16
		src             [3]uint16
		srcCount        int
		ok              bool
		vopcScalarDst   bool
		readFirstlane   = entry.Mnemonic == "v_readfirstlane_b32"
		dstField        = FIELD_VOP_VDST
		madWithConstant = entry.Form == VOP2 &&
			(entry.Mnemonic == "v_madmk_f32" || entry.Mnemonic == "v_madak_f32")
	)
	// Destination.
	switch {
	case entry.Form == VOPC:
		// "vcc" selects the compact encoding; any other pair forces VOP3.
		reg, rok := parseRegOperand(p.as, toks)
		//
		if !rok {
			p.failed = true
			return
		} else if !reg.Found || reg.Type != asm.SGPR || reg.Size() != 2 {
			p.fail("expected scalar register pair destination")
			return
		}
		//
		if reg.RegVar != nil {
			p.recordUse(reg, FIELD_VOP3_VDST, asm.ACCESS_WRITE)
			vopcScalarDst = true
		} else if reg.Start != REG_VCC_LO {
			sdst = reg.Start
			vopcScalarDst = true
		}
		//
		if !p.comma(toks) {
			return
		}
	case readFirstlane:
		if vdst, ok = p.parseScalarReg(toks, 1, FIELD_VOP_VDST, asm.ACCESS_WRITE); !ok {
			return
		}
		//
		if !p.comma(toks) {
			return
		}
	default:
		if vdst, ok = p.parseVectorReg(toks, width, dstField, asm.ACCESS_WRITE); !ok {
			return
		}
		//
		if !p.comma(toks) {
			return
		}
	}
	// v_addc/v_subb take an explicit carry pair which the compact encoding
	// fixes at vcc.
	if entry.Form == VOP2 && isCarryOp(entry.Mnemonic) {
		if !p.skipVcc(toks) {
			return
		}
	}
	// Sources.
	switch entry.Form {
	case VOP1:
		if src[0], ok = p.parseSrc(toks, width, FIELD_VOP_SRC0, true); !ok {
			return
		}
		//
		srcCount = 1
	case VOP2, VOPC:
		if src[0], ok = p.parseSrc(toks, width, FIELD_VOP_SRC0, true); !ok {
			return
		}
		//
		if !p.comma(toks) {
			return
		}
		//
		if madWithConstant && entry.Mnemonic == "v_madmk_f32" {
			// v_madmk: the constant precedes vsrc1 and always occupies the
			// literal dword.
			if !p.parseForcedLiteral(toks) || !p.comma(toks) {
				return
			}
			//
			if src[1], ok = p.parseVectorReg(toks, 1, FIELD_VOP_VSRC1, asm.ACCESS_READ); !ok {
				return
			}
			//
			srcCount = 2
		} else {
			if src[1], ok = p.parseVectorReg(toks, width, FIELD_VOP_VSRC1, asm.ACCESS_READ); !ok {
				return
			}
			//
			srcCount = 2
			//
			if madWithConstant {
				// v_madak: trailing constant, again always a literal
				if !p.comma(toks) || !p.parseForcedLiteral(toks) {
					return
				}
			}
		}
		// Trailing carry-in pair of v_addc/v_subb, and the selector of
		// v_cndmask.
		if isCarryOp(entry.Mnemonic) || entry.Mnemonic == "v_cndmask_b32" {
			if !toks.Match(asm.COMMA) || !p.skipVcc(toks) {
				if !p.failed {
					p.fail("expected carry operand")
				}
				//
				return
			}
		}
	case VOP3:
		for srcCount = 0; srcCount < 3; srcCount++ {
			if srcCount > 0 && !p.comma(toks) {
				return
			}
			//
			srcWidth := width
			if strings.HasSuffix(entry.Mnemonic, "alignbit_b32") && srcCount == 2 {
				srcWidth = 1
			}
			//
			field := uint8(FIELD_VOP3_SRC0 + uint8(srcCount))
			if src[srcCount], ok = p.parseSrc(toks, srcWidth, field, true); !ok {
				return
			}
			// Two-source VOP3 ops stop early.
			if srcCount == 1 && isTwoSrcVOP3(entry.Mnemonic) {
				srcCount = 2
				break
			}
		}
	}
	//
	p.parseModifiers(toks)
	//
	if p.failed {
		return
	}
	// Select the encoding.
	needVop3 := p.vop3 || vopcScalarDst || entry.Form == VOP3
	//
	if needVop3 && p.noVop3 {
		p.fail("instruction requires the 64-bit encoding")
		return
	}
	//
	if p.sdwa || p.dpp {
		if needVop3 {
			p.fail("modifier incompatible with the SDWA/DPP encoding")
		}
		//
		p.emitVOPSubDword(entry, vdst, src)
		//
		return
	}
	//
	if !needVop3 {
		switch entry.Form {
		case VOP1:
			p.emit(entry, 0x7e000000|uint32(vdst)<<17|uint32(entry.Code)<<9|uint32(src[0]))
		case VOPC:
			p.emit(entry, 0x7c000000|uint32(entry.Code)<<17|vsrc1Field(src[1])<<9|uint32(src[0]))
		default:
			word := uint32(entry.Code)<<25 | uint32(vdst)<<17 | vsrc1Field(src[1])<<9 | uint32(src[0])
			p.emit(entry, word)
		}
		//
		return
	}
	// VOP3 encoding.
	if p.litSet {
		p.fail("literal constant not allowed with the 64-bit encoding")
		return
	}
	//
	op := vop3Opcode(entry, p.arch)
	//
	var dstCode uint32
	if entry.Form == VOPC {
		dstCode = uint32(sdst)
	} else {
		dstCode = uint32(vdst)
	}
	//
	word0 := 0xd0000000 | vop3OpField(op, p.arch) | dstCode
	//
	if p.clamp {
		word0 |= vop3ClampBit(p.arch)
	}
	//
	word1 := uint32(src[0]) | uint32(src[1])<<9 | uint32(src[2])<<18 | uint32(p.omod)<<27
	p.emit(entry, word0, word1)
}

// emitVOPSubDword emits the SDWA or DPP variant of a compact vector
// instruction: the source-0 field carries a sentinel code and the control
// word trails, holding the real vector source.
func (p *encodeContext) emitVOPSubDword(entry GCNInsn, vdst uint16, src [3]uint16) {
	if p.failed {
		return
	}
	//
	if p.arch < GCN12 {
		p.fail("the SDWA/DPP encodings require GCN 1.2")
		return
	} else if entry.Form == VOP3 {
		p.fail("instruction has no SDWA/DPP encoding")
		return
	} else if p.litSet {
		p.fail("literal constant not allowed with the SDWA/DPP encoding")
		return
	}
	// The control word addresses source 0 as a plain vector register, so
	// neither constants nor register variables can stand in for it.
	if src[0] < REG_VGPR0 {
		p.fail("expected vector register source")
		return
	}
	//
	for _, rvu := range p.rvus {
		if rvu.Field == FIELD_VOP_SRC0 {
			p.fail("register variables cannot supply an SDWA/DPP source")
			return
		}
	}
	//
	var (
		v0   = uint32(src[0] - REG_VGPR0)
		code = REG_SDWA
	)
	//
	if p.dpp {
		code = REG_DPP
	}
	//
	var word0 uint32
	//
	switch entry.Form {
	case VOP1:
		word0 = 0x7e000000 | uint32(vdst)<<17 | uint32(entry.Code)<<9 | uint32(code)
	case VOPC:
		word0 = 0x7c000000 | uint32(entry.Code)<<17 | vsrc1Field(src[1])<<9 | uint32(code)
	default:
		word0 = uint32(entry.Code)<<25 | uint32(vdst)<<17 | vsrc1Field(src[1])<<9 | uint32(code)
	}
	//
	var word1 uint32
	//
	if p.sdwa {
		word1 = v0 | uint32(p.dstSel)<<8 | uint32(p.src0Sel)<<16 | uint32(p.src1Sel)<<24
		//
		if p.clamp {
			word1 |= 1 << 13
		}
	} else {
		word1 = v0 | p.dppCtrl<<8 | uint32(p.bankMask)<<24 | uint32(p.rowMask)<<28
		//
		if p.boundCtrl {
			word1 |= 1 << 19
		}
	}
	//
	p.emit(entry, word0, word1)
}

// vsrc1Field narrows a 9-bit source code to the 8-bit VGPR field.
func vsrc1Field(code uint16) uint32 {
	if code >= REG_VGPR0 {
		return uint32(code - REG_VGPR0)
	}
	//
	return uint32(code)
}

func isCarryOp(mnemonic string) bool {
	switch mnemonic {
	case "v_addc_u32", "v_subb_u32", "v_subbrev_u32":
		return true
	}
	//
	return false
}

// isTwoSrcVOP3 recognises VOP3 table entries with only two sources.
func isTwoSrcVOP3(mnemonic string) bool {
	for _, prefix := range []string{"v_mul_lo", "v_mul_hi", "v_add_f64", "v_ldexp"} {
		if strings.HasPrefix(mnemonic, prefix) {
			return true
		}
	}
	//
	return false
}

// skipVcc consumes a mandatory literal "vcc" operand, along with any
// trailing separator.
func (p *encodeContext) skipVcc(toks *asm.Tokens) bool {
	if toks.Lookahead().Kind == asm.IDENTIFIER && toks.Text(toks.Lookahead()) == "vcc" {
		toks.Next()
		toks.Match(asm.COMMA)
		//
		return true
	}
	//
	p.fail("expected 'vcc' operand")
	//
	return false
}

// parseForcedLiteral parses a constant which always occupies the literal
// dword, bypassing inline folding.
func (p *encodeContext) parseForcedLiteral(toks *asm.Tokens) bool {
	expr := p.as.ParseExpr(toks)
	if expr == nil {
		p.failed = true
		return false
	}
	//
	val, status := p.as.EvalExpr(expr, false)
	//
	switch status {
	case asm.EVAL_OK:
		return p.setLiteral(uint32(val.Uint), nil)
	case asm.EVAL_UNRESOLVED:
		return p.setLiteral(0, expr)
	default:
		p.failed = true
		return false
	}
}

// vop3Opcode translates a compact-form opcode into its VOP3 opcode.
func vop3Opcode(entry GCNInsn, arch uint8) uint16 {
	if entry.Form == VOP3 || entry.Form == VOPC {
		return entry.Code
	}
	//
	if arch >= GCN12 {
		if entry.Form == VOP1 {
			return 0x140 + entry.Code
		}
		//
		return 0x100 + entry.Code
	}
	//
	if entry.Form == VOP1 {
		return 0x180 + entry.Code
	}
	//
	return 0x100 + entry.Code
}

// vop3OpField positions the opcode within the first VOP3 word; the field
// moved down one bit on GCN 1.2.
func vop3OpField(op uint16, arch uint8) uint32 {
	if arch >= GCN12 {
		return uint32(op) << 16
	}
	//
	return uint32(op) << 17
}

// vop3ClampBit gives the clamp bit position, which moved on GCN 1.2.
func vop3ClampBit(arch uint8) uint32 {
	if arch >= GCN12 {
		return 1 << 15
	}
	//
	return 1 << 11
}

// encodeVINTRP handles the parameter-interpolation form.
func (p *encodeContext) encodeVINTRP(entry GCNInsn, toks *asm.Tokens) {
	vdst, ok := p.parseVectorReg(toks, 1, FIELD_VOP_VDST, asm.ACCESS_WRITE)
	if !ok || !p.comma(toks) {
		return
	}
	//
	var vsrc uint16
	// v_interp_mov_f32 takes p10/p20/p0 selectors instead of a register.
	if entry.Code == 2 {
		tok := toks.Next()
		//
		selectors := map[string]uint16{"p10": 0, "p20": 1, "p0": 2}
		value, known := selectors[toks.Text(tok)]
		//
		if tok.Kind != asm.IDENTIFIER || !known {
			p.fail("expected interpolation selector")
			return
		}
		//
		vsrc = value
	} else {
		if vsrc, ok = p.parseVectorReg(toks, 1, FIELD_VOP_SRC0, asm.ACCESS_READ); !ok {
			return
		}
	}
	//
	if !p.comma(toks) {
		return
	}
	//
	attr, channel, ok := p.parseAttr(toks)
	if !ok {
		return
	}
	//
	p.checkNoModifiers(toks)
	//
	base := uint32(0xc8000000)
	if p.arch >= GCN12 {
		base = 0xd4000000
	}
	//
	p.emit(entry, base|uint32(vdst)<<18|uint32(entry.Code)<<16|uint32(attr)<<10|
		uint32(channel)<<8|uint32(vsrc))
}

// parseAttr parses an "attrN.c" interpolation attribute.
func (p *encodeContext) parseAttr(toks *asm.Tokens) (uint8, uint8, bool) {
	tok := toks.Next()
	text := toks.Text(tok)
	//
	if tok.Kind != asm.IDENTIFIER || !strings.HasPrefix(text, "attr") {
		p.fail("expected attribute")
		return 0, 0, false
	}
	//
	parts := strings.Split(text[4:], ".")
	if len(parts) != 2 {
		p.fail("expected attribute channel")
		return 0, 0, false
	}
	//
	attr := uint8(0)
	for _, ch := range parts[0] {
		if ch < '0' || ch > '9' {
			p.fail("malformed attribute")
			return 0, 0, false
		}
		//
		attr = attr*10 + uint8(ch-'0')
	}
	//
	channels := map[string]uint8{"x": 0, "y": 1, "z": 2, "w": 3}
	channel, ok := channels[parts[1]]
	//
	if !ok {
		p.fail("unknown attribute channel")
		return 0, 0, false
	}
	//
	return attr, channel, true
}
