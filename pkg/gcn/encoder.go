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
	"math"
	"strconv"
	"strings"

	"github.com/consensys/go-gcnasm/pkg/asm"
	"github.com/consensys/go-gcnasm/pkg/util/source"
)

// Encoder is the GCN instruction encoder.  It implements asm.Encoder for
// every supported architecture variant, dispatching on the assembler's
// active device.
type Encoder struct{}

// NewEncoder constructs the GCN instruction encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// InstructionSize implements asm.Encoder using the shared size decoder.  No
// architecture is passed in, so GCN 1.0 sizing is used: GCN 1.2 SMEM
// instructions and SDWA/DPP control words are not counted as part of the
// instruction.
func (e *Encoder) InstructionSize(code []byte, offset uint64) uint64 {
	return InstructionSize(GCN10, code, offset).Size
}

// encodeContext carries the transient state of encoding one instruction.
type encodeContext struct {
	as   *asm.Assembler
	sect *asm.Section
	arch uint8
	pos  source.Position
	// The instruction's offset within the section, fixed before any bytes
	// are emitted.
	offset uint64
	// The single 32-bit literal slot.
	litSet  bool
	litVal  uint32
	litExpr *asm.Expression
	// Pending regvar usages, completed with the instruction offset on emit.
	rvus []asm.RVU
	// Parsed modifiers.
	clamp  bool
	omod   uint8
	vop3   bool // modifiers (or _e64) demand the 64-bit encoding
	noVop3 bool // _e32 forbids it
	// Sub-dword addressing (_sdwa) state; selectors default to the full
	// dword.
	sdwa    bool
	dstSel  uint8
	src0Sel uint8
	src1Sel uint8
	// Data-parallel primitives (_dpp) state.
	dpp       bool
	dppCtrl   uint32
	rowMask   uint8
	bankMask  uint8
	boundCtrl bool
	// Whether a code-flow entry has already been recorded for this
	// instruction.
	flowRecorded bool
	failed       bool
}

// Encode assembles one machine instruction into the current section.
//
//nolint:gocyclo
func (e *Encoder) Encode(as *asm.Assembler, mnemonic string, toks *asm.Tokens, pos source.Position) {
	sect := as.CurrentSectionPtr()
	//
	if sect.ID == asm.AbsSection || sect.Flags&asm.SECT_CODE == 0 {
		as.Sink().Errorf(pos, "instruction outside a code section")
		toks.SkipToEnd()
		//
		return
	}
	//
	deviceName := as.Device()
	if deviceName == "" {
		deviceName = "capeverde"
	}
	//
	device, ok := DeviceByName(deviceName)
	if !ok {
		as.Sink().Errorf(pos, "unknown device '%s'", deviceName)
		toks.SkipToEnd()
		//
		return
	}
	//
	ctx := &encodeContext{
		as:     as,
		sect:   sect,
		arch:   ArchOf(device),
		pos:    pos,
		offset: sect.Size(),
	}
	// Strip an explicit encoding suffix.
	base := mnemonic
	//
	ctx.dstSel, ctx.src0Sel, ctx.src1Sel = SDWA_DWORD, SDWA_DWORD, SDWA_DWORD
	ctx.dppCtrl, ctx.rowMask, ctx.bankMask = dppQuadPermIdentity, 0xf, 0xf
	//
	if strings.HasSuffix(base, "_e64") {
		base = strings.TrimSuffix(base, "_e64")
		ctx.vop3 = true
	} else if strings.HasSuffix(base, "_e32") {
		base = strings.TrimSuffix(base, "_e32")
		ctx.noVop3 = true
	} else if strings.HasSuffix(base, "_sdwa") {
		base = strings.TrimSuffix(base, "_sdwa")
		ctx.sdwa = true
	} else if strings.HasSuffix(base, "_dpp") {
		base = strings.TrimSuffix(base, "_dpp")
		ctx.dpp = true
	}
	//
	entry, found, ambiguous := findMnemonic(base, ctx.arch)
	//
	if ambiguous {
		as.Sink().Fatalf(pos, "fatal: ambiguous mnemonic table entry for '%s'", base)
		return
	} else if !found {
		if KnownMnemonic(base) {
			as.Sink().Errorf(pos, "mnemonic '%s' is not supported on '%s'", base, DeviceName(device))
		} else {
			as.Sink().Errorf(pos, "unknown mnemonic '%s'", base)
		}
		//
		toks.SkipToEnd()
		//
		return
	}
	//
	switch entry.Form {
	case SOP1:
		ctx.encodeSOP1(entry, toks)
	case SOP2:
		ctx.encodeSOP2(entry, toks)
	case SOPK:
		ctx.encodeSOPK(entry, toks)
	case SOPC:
		ctx.encodeSOPC(entry, toks)
	case SOPP:
		ctx.encodeSOPP(entry, toks)
	case SMRD:
		ctx.encodeSMRD(entry, toks)
	case VOP1, VOP2, VOPC, VOP3:
		ctx.encodeVOP(entry, toks)
	case VINTRP:
		ctx.encodeVINTRP(entry, toks)
	case DS:
		ctx.encodeDS(entry, toks)
	case FLAT:
		ctx.encodeFLAT(entry, toks)
	case MUBUF, MTBUF:
		ctx.encodeMBUF(entry, toks)
	case MIMG:
		ctx.encodeMIMG(entry, toks)
	case EXP:
		ctx.encodeEXP(entry, toks)
	}
	//
	if ctx.failed {
		toks.SkipToEnd()
	}
}

// PatchRegField implements asm.Encoder, rewriting the register field
// identified by an RVU with a concrete register index.
func (e *Encoder) PatchRegField(section *asm.Section, rvu asm.RVU, reg uint16) bool {
	if rvu.Field == FIELD_MANUAL {
		return true
	}
	//
	spec, ok := regFieldSpecs[rvu.Field]
	if !ok {
		return false
	}
	//
	value := uint32(reg) + uint32(spec.offset)
	// The SMRD base and buffer resource fields are scaled register-pair or
	// quad indices.
	switch rvu.Field {
	case FIELD_SMRD_SBASE:
		value >>= 1
	case FIELD_MBUF_SRSRC:
		value >>= 2
	}
	//
	offset := rvu.Offset + uint64(spec.word)*4
	//
	if offset+4 > uint64(len(section.Content)) {
		return false
	}
	//
	var (
		mask = (uint64(1)<<spec.width - 1) << spec.shift
		word = uint64(section.Content[offset]) | uint64(section.Content[offset+1])<<8 |
			uint64(section.Content[offset+2])<<16 | uint64(section.Content[offset+3])<<24
	)
	//
	word = (word &^ mask) | (uint64(value) << spec.shift & mask)
	section.Patch(offset, word, 4)
	//
	return true
}

// ============================================================================
// Emission helpers
// ============================================================================

// fail reports an encoder error; the instruction produces no bytes.
func (p *encodeContext) fail(format string, args ...any) {
	p.as.Sink().Errorf(p.pos, format, args...)
	p.failed = true
}

// emit writes the encoded words (plus any pending literal) and completes the
// deferred bookkeeping: literal patches, regvar usages and code flow.
func (p *encodeContext) emit(entry GCNInsn, words ...uint32) {
	if p.failed {
		return
	}
	//
	for _, word := range words {
		if !p.sect.PutUint(uint64(word), 4) {
			p.fail("section '%s' exceeds maximum size", p.sect.Name)
			return
		}
	}
	//
	if p.litSet {
		litOffset := p.sect.Size()
		//
		if !p.sect.PutUint(uint64(p.litVal), 4) {
			p.fail("section '%s' exceeds maximum size", p.sect.Name)
			return
		}
		//
		if p.litExpr != nil {
			p.litExpr.Target = asm.DataTarget(4, p.sect.ID, litOffset)
			p.as.DeferExpression(p.litExpr)
		}
	}
	// Complete regvar usages with the instruction offset.
	for _, rvu := range p.rvus {
		rvu.Offset = p.offset
		p.sect.RVUs = append(p.sect.RVUs, rvu)
		//
		if rvu.End-rvu.Start > 1 {
			p.sect.LinearDeps = append(p.sect.LinearDeps, asm.LinearDep{
				Offset:  p.offset,
				RegVars: []*asm.RegVar{rvu.RegVar},
				Align:   rvu.Align,
			})
		}
		//
		p.as.MarkRegVarsUsed()
	}
	// Record code flow for branch mnemonics without explicit targets.
	if entry.Branch != BRANCH_NONE && !p.flowRecorded {
		p.sect.CodeFlow = append(p.sect.CodeFlow, asm.CodeFlowEntry{
			Offset: p.offset,
			Kind:   flowKindOf(entry.Branch),
		})
	}
}

func flowKindOf(branch uint8) uint8 {
	switch branch {
	case BRANCH_JUMP:
		return asm.FLOW_JUMP
	case BRANCH_CJUMP:
		return asm.FLOW_CJUMP
	case BRANCH_CALL:
		return asm.FLOW_CALL
	case BRANCH_RETURN:
		return asm.FLOW_RETURN
	default:
		return asm.FLOW_END
	}
}

// setLiteral claims the single 32-bit literal slot.
func (p *encodeContext) setLiteral(value uint32, expr *asm.Expression) bool {
	if p.litSet {
		p.fail("only one literal constant is allowed")
		return false
	}
	//
	p.litSet, p.litVal, p.litExpr = true, value, expr
	//
	return true
}

// comma consumes the operand separator.
func (p *encodeContext) comma(toks *asm.Tokens) bool {
	if !toks.Match(asm.COMMA) {
		p.fail("expected ','")
		return false
	}
	//
	return true
}

// recordUse queues a regvar usage against a given encoding field.
func (p *encodeContext) recordUse(reg RegOperand, field uint8, access uint8) {
	p.rvus = append(p.rvus, asm.RVU{
		RegVar: reg.RegVar,
		Start:  reg.RvStart,
		End:    reg.RvEnd,
		Field:  field,
		Access: access,
		Align:  regAlignOf(reg.Size(), reg.Type),
		Pos:    p.pos,
	})
}

// ============================================================================
// Operand parsing
// ============================================================================

// regWidthOf derives the register width (in 32-bit registers) of an operand
// slot from the mnemonic's type suffix.
func regWidthOf(mnemonic string) uint16 {
	switch {
	case strings.HasSuffix(mnemonic, "x16"):
		return 16
	case strings.HasSuffix(mnemonic, "x8"):
		return 8
	case strings.HasSuffix(mnemonic, "x4"):
		return 4
	case strings.HasSuffix(mnemonic, "x2"):
		return 2
	case strings.Contains(mnemonic, "64"):
		return 2
	default:
		return 1
	}
}

// shiftSrc1Width recognises wide scalar ops whose second source is
// nonetheless a 32-bit shift amount or field descriptor.
func shiftSrc1Width(mnemonic string) bool {
	for _, prefix := range []string{"s_lshl", "s_lshr", "s_ashr", "s_bfe", "s_bitcmp"} {
		if strings.HasPrefix(mnemonic, prefix) {
			return true
		}
	}
	//
	return false
}

// parseScalarReg parses an operand which must be a scalar register range of
// the given width.
func (p *encodeContext) parseScalarReg(toks *asm.Tokens, width uint16, field uint8, access uint8) (uint16, bool) {
	reg, ok := parseRegOperand(p.as, toks)
	//
	if !ok {
		p.failed = true
		return 0, false
	} else if !reg.Found || reg.Type != asm.SGPR {
		p.fail("expected scalar register")
		return 0, false
	}
	//
	if reg.RegVar != nil {
		if reg.Size() != width {
			p.fail("register range does not match operand size")
			return 0, false
		}
		//
		p.recordUse(reg, field, access)
		//
		return 0, true
	}
	//
	if reg.Size() != width {
		p.fail("register range does not match operand size")
		return 0, false
	} else if !checkRegAlignment(reg) {
		p.fail("illegal register range alignment")
		return 0, false
	}
	//
	return reg.Start, true
}

// parseVectorReg parses an operand which must be a vector register range.
func (p *encodeContext) parseVectorReg(toks *asm.Tokens, width uint16, field uint8, access uint8) (uint16, bool) {
	reg, ok := parseRegOperand(p.as, toks)
	//
	if !ok {
		p.failed = true
		return 0, false
	} else if !reg.Found || reg.Type != asm.VGPR {
		p.fail("expected vector register")
		return 0, false
	}
	//
	if reg.Size() != width {
		p.fail("register range does not match operand size")
		return 0, false
	}
	//
	if reg.RegVar != nil {
		p.recordUse(reg, field, access)
		return 0, true
	}
	//
	return reg.Start, true
}

// parseSrc parses a general source operand: a register, or a constant which
// folds into the inline set or claims the literal slot.  The returned code
// is the 9-bit source field value.
func (p *encodeContext) parseSrc(toks *asm.Tokens, width uint16, field uint8, allowVector bool) (uint16, bool) {
	reg, ok := parseRegOperand(p.as, toks)
	//
	if !ok {
		p.failed = true
		return 0, false
	}
	//
	if reg.Found {
		if reg.RegVar != nil {
			if reg.Size() != width {
				p.fail("register range does not match operand size")
				return 0, false
			}
			//
			p.recordUse(reg, field, asm.ACCESS_READ)
			//
			if reg.Type == asm.VGPR && !allowVector {
				p.fail("vector register not allowed here")
				return 0, false
			}
			//
			return 0, true
		}
		//
		if reg.Size() != width {
			p.fail("register range does not match operand size")
			return 0, false
		} else if !checkRegAlignment(reg) {
			p.fail("illegal register range alignment")
			return 0, false
		}
		//
		if reg.Type == asm.VGPR {
			if !allowVector {
				p.fail("vector register not allowed here")
				return 0, false
			}
			//
			return REG_VGPR0 + reg.Start, true
		}
		//
		return reg.Start, true
	}
	// Constant operand.
	return p.parseConstSrc(toks)
}

// parseConstSrc folds a constant expression into an inline constant, or
// claims the literal slot (including the deferred forward-reference case).
func (p *encodeContext) parseConstSrc(toks *asm.Tokens) (uint16, bool) {
	pos := toks.Pos()
	//
	expr := p.as.ParseExpr(toks)
	if expr == nil {
		p.failed = true
		return 0, false
	}
	//
	val, status := p.as.EvalExpr(expr, false)
	//
	switch status {
	case asm.EVAL_OK:
		if val.Kind != asm.INTVAL && val.Kind != asm.ADDRVAL {
			p.fail("expected numeric operand")
			return 0, false
		}
		//
		if code, ok := inlineConstant(val.Uint, p.arch); ok && val.Kind == asm.INTVAL {
			return code, true
		}
		//
		if !fitsIn32(val.Uint) {
			p.as.Sink().Warningf(pos, "literal constant truncated to 32 bits")
		}
		//
		if !p.setLiteral(uint32(val.Uint), nil) {
			return 0, false
		}
		//
		return REG_LITERAL, true
	case asm.EVAL_UNRESOLVED:
		// Forward reference: claim the literal slot and patch later.
		if !p.setLiteral(0, expr) {
			return 0, false
		}
		//
		return REG_LITERAL, true
	default:
		p.failed = true
		return 0, false
	}
}

// inlineConstant maps a value onto the GCN inline-constant set.
func inlineConstant(value uint64, arch uint8) (uint16, bool) {
	signed := int64(value)
	//
	switch {
	case signed >= 0 && signed <= 64:
		return uint16(128 + signed), true
	case signed >= -16 && signed <= -1:
		return uint16(192 - signed), true
	}
	// Floating-point inline constants match by 32-bit pattern.
	switch uint32(value) {
	case math.Float32bits(0.5):
		return 240, true
	case math.Float32bits(-0.5):
		return 241, true
	case math.Float32bits(1.0):
		return 242, true
	case math.Float32bits(-1.0):
		return 243, true
	case math.Float32bits(2.0):
		return 244, true
	case math.Float32bits(-2.0):
		return 245, true
	case math.Float32bits(4.0):
		return 246, true
	case math.Float32bits(-4.0):
		return 247, true
	case math.Float32bits(0.15915494):
		// inverse 2*pi exists from GCN 1.1 on
		if arch >= GCN11 {
			return 248, true
		}
	}
	//
	return 0, false
}

func fitsIn32(value uint64) bool {
	return value <= math.MaxUint32 || (int64(value) < 0 && int64(value) >= math.MinInt32)
}

// parseImm16 parses a constant 16-bit immediate.
func (p *encodeContext) parseImm16(toks *asm.Tokens) (uint16, bool) {
	pos := toks.Pos()
	//
	expr := p.as.ParseExpr(toks)
	if expr == nil {
		p.failed = true
		return 0, false
	}
	//
	val, status := p.as.EvalExpr(expr, true)
	//
	if status != asm.EVAL_OK || !val.IsConstant() {
		p.failed = true
		return 0, false
	}
	//
	if int64(val.Uint) > math.MaxUint16 || int64(val.Uint) < math.MinInt16 {
		p.as.Sink().Warningf(pos, "immediate truncated to 16 bits")
	}
	//
	return uint16(val.Uint), true
}

// parseBranchTarget parses a label expression, producing the word-scaled
// relative displacement (or zero with a deferred patch), and records the
// code-flow entry.
func (p *encodeContext) parseBranchTarget(toks *asm.Tokens, entry GCNInsn, immOffset uint64) (uint16, bool) {
	expr := p.as.ParseExpr(toks)
	if expr == nil {
		p.failed = true
		return 0, false
	}
	//
	// The displacement is relative to the instruction following the branch.
	base := p.offset + 4
	val, status := p.as.EvalExpr(expr, false)
	//
	switch status {
	case asm.EVAL_OK:
		if val.Kind == asm.ADDRVAL && val.Section != p.sect.ID {
			p.fail("branch target is in another section")
			return 0, false
		}
		//
		rel := int64(val.Uint) - int64(base)
		//
		if rel%4 != 0 {
			p.fail("branch target is not word aligned")
			return 0, false
		} else if rel/4 < math.MinInt16 || rel/4 > math.MaxInt16 {
			p.fail("branch target out of range")
			return 0, false
		}
		//
		p.sect.CodeFlow = append(p.sect.CodeFlow, asm.CodeFlowEntry{
			Offset:    p.offset,
			Kind:      flowKindOf(entry.Branch),
			Target:    val.Uint,
			HasTarget: true,
		})
		p.flowRecorded = true
		//
		return uint16(int16(rel / 4)), true
	case asm.EVAL_UNRESOLVED:
		expr.Target = asm.BranchTarget16(p.sect.ID, p.offset+immOffset, base)
		p.as.DeferExpression(expr)
		// Target is reconstructed from the patched displacement before
		// allocation.
		p.sect.CodeFlow = append(p.sect.CodeFlow, asm.CodeFlowEntry{
			Offset: p.offset,
			Kind:   flowKindOf(entry.Branch),
		})
		p.flowRecorded = true
		//
		return 0, true
	default:
		p.failed = true
		return 0, false
	}
}

// SDWA operand selectors.
const (
	SDWA_BYTE0 uint8 = iota
	SDWA_BYTE1
	SDWA_BYTE2
	SDWA_BYTE3
	SDWA_WORD0
	SDWA_WORD1
	SDWA_DWORD
)

// dppQuadPermIdentity is the quad_perm control leaving all lanes in place.
const dppQuadPermIdentity = 0xe4

// sdwaSelectors maps selector names onto their codes.
var sdwaSelectors = map[string]uint8{
	"byte0": SDWA_BYTE0, "byte1": SDWA_BYTE1, "byte2": SDWA_BYTE2,
	"byte3": SDWA_BYTE3, "word0": SDWA_WORD0, "word1": SDWA_WORD1,
	"dword": SDWA_DWORD,
}

// parseModifiers consumes trailing instruction modifiers.
func (p *encodeContext) parseModifiers(toks *asm.Tokens) {
	for toks.Lookahead().Kind == asm.IDENTIFIER {
		name := toks.Text(toks.Next())
		//
		switch name {
		case "clamp":
			enabled := uint64(1)
			//
			if toks.Match(asm.COLON) {
				var ok bool
				if enabled, ok = p.modParam(toks); !ok {
					return
				}
			}
			//
			p.clamp = enabled != 0
			// clamp lives in the SDWA control word; elsewhere it demands the
			// 64-bit encoding.
			if !p.sdwa {
				p.vop3 = true
			}
		case "dst_sel", "src0_sel", "src1_sel":
			if !p.sdwa {
				p.fail("'%s' requires the SDWA encoding", name)
				return
			}
			//
			sel, ok := p.parseSdwaSelector(toks, name)
			if !ok {
				return
			}
			//
			switch name {
			case "dst_sel":
				p.dstSel = sel
			case "src0_sel":
				p.src0Sel = sel
			default:
				p.src1Sel = sel
			}
		case "quad_perm", "row_shl", "row_shr", "row_ror",
			"row_mask", "bank_mask", "bound_ctrl":
			if !p.dpp {
				p.fail("'%s' requires the DPP encoding", name)
				return
			}
			//
			if !p.parseDppModifier(toks, name) {
				return
			}
		case "mul":
			if !toks.Match(asm.COLON) {
				p.fail("expected ':' after 'mul'")
				return
			}
			//
			value, ok := p.immediateParam(toks)
			if !ok {
				return
			}
			//
			switch value {
			case 2:
				p.omod = 1
			case 4:
				p.omod = 2
			default:
				p.fail("unknown output modifier 'mul:%d'", value)
				return
			}
			//
			p.vop3 = true
		case "div":
			if !toks.Match(asm.COLON) {
				p.fail("expected ':' after 'div'")
				return
			}
			//
			value, ok := p.immediateParam(toks)
			if !ok {
				return
			} else if value != 2 {
				p.fail("unknown output modifier 'div:%d'", value)
				return
			}
			//
			p.omod = 3
			p.vop3 = true
		default:
			p.fail("unknown modifier '%s'", name)
			return
		}
	}
	//
	if kind := toks.Lookahead().Kind; kind != asm.END_OF && kind != asm.SEMICOLON {
		p.fail("garbage at end of instruction")
	}
}

// parseSdwaSelector parses ":byte0".."dword" after a selector modifier.
func (p *encodeContext) parseSdwaSelector(toks *asm.Tokens, name string) (uint8, bool) {
	if !toks.Match(asm.COLON) {
		p.fail("expected ':' after '%s'", name)
		return 0, false
	}
	//
	tok := toks.Next()
	sel, known := sdwaSelectors[toks.Text(tok)]
	//
	if tok.Kind != asm.IDENTIFIER || !known {
		p.fail("unknown operand selector")
		return 0, false
	}
	//
	return sel, true
}

// parseDppModifier parses one data-parallel-primitive control modifier.
func (p *encodeContext) parseDppModifier(toks *asm.Tokens, name string) bool {
	if name == "bound_ctrl" {
		p.boundCtrl = true
		return true
	}
	//
	if !toks.Match(asm.COLON) {
		p.fail("expected ':' after '%s'", name)
		return false
	}
	//
	if name == "quad_perm" {
		if !toks.Match(asm.LBRACKET) {
			p.fail("expected '[' after 'quad_perm:'")
			return false
		}
		//
		ctrl := uint32(0)
		//
		for i := 0; i < 4; i++ {
			if i > 0 && !toks.Match(asm.COMMA) {
				p.fail("expected ','")
				return false
			}
			//
			lane, ok := p.immediateParam(toks)
			if !ok {
				return false
			} else if lane > 3 {
				p.fail("quad_perm lane out of range")
				return false
			}
			//
			ctrl |= uint32(lane) << (2 * i)
		}
		//
		if !toks.Match(asm.RBRACKET) {
			p.fail("expected ']'")
			return false
		}
		//
		p.dppCtrl = ctrl
		//
		return true
	}
	//
	value, ok := p.immediateParam(toks)
	if !ok {
		return false
	}
	//
	switch name {
	case "row_shl", "row_shr", "row_ror":
		if value == 0 || value > 15 {
			p.fail("row shift out of range")
			return false
		}
		//
		base := map[string]uint32{"row_shl": 0x100, "row_shr": 0x110, "row_ror": 0x120}
		p.dppCtrl = base[name] + uint32(value)
	default:
		if value > 15 {
			p.fail("mask out of range")
			return false
		}
		//
		if name == "row_mask" {
			p.rowMask = uint8(value)
		} else {
			p.bankMask = uint8(value)
		}
	}
	//
	return true
}

// modParam parses a binary modifier parameter.  The old parametrisation
// dialect accepts only the literal digits 0 and 1; otherwise any constant
// expression may supply the value.
func (p *encodeContext) modParam(toks *asm.Tokens) (uint64, bool) {
	var value uint64
	//
	if p.as.Config().OldModParam {
		var ok bool
		if value, ok = p.immediateParam(toks); !ok {
			return 0, false
		}
	} else {
		expr := p.as.ParseExpr(toks)
		if expr == nil {
			p.failed = true
			return 0, false
		}
		//
		val, status := p.as.EvalExpr(expr, true)
		if status != asm.EVAL_OK || !val.IsConstant() {
			p.failed = true
			return 0, false
		}
		//
		value = val.Uint
	}
	//
	if value > 1 {
		p.fail("modifier parameter must be 0 or 1")
		return 0, false
	}
	//
	return value, true
}

func (p *encodeContext) immediateParam(toks *asm.Tokens) (uint64, bool) {
	tok := toks.Next()
	//
	if tok.Kind != asm.NUMBER {
		p.fail("expected modifier parameter")
		return 0, false
	}
	//
	value, err := strconv.ParseUint(toks.Text(tok), 0, 64)
	if err != nil {
		p.fail("expected modifier parameter")
		return 0, false
	}
	//
	return value, true
}
