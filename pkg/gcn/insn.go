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
	"encoding/binary"
)

// Encoding forms of the GCN ISA.  Each form has a fixed bit layout for its
// opcode and operand fields.
const (
	SOP1 uint8 = iota
	SOP2
	SOPK
	SOPC
	SOPP
	SMRD
	VOP1
	VOP2
	VOP3
	VOPC
	VINTRP
	DS
	FLAT
	MUBUF
	MTBUF
	MIMG
	EXP
)

// Instruction classes used for the legacy container's operation counters.
const (
	INSTRTYPE_OTHER uint8 = iota
	INSTRTYPE_GLOBAL
	INSTRTYPE_LOCAL
)

// Branch kinds recognised from SOPP/SOP1 mnemonics, mirrored into code-flow
// entries.
const (
	BRANCH_NONE uint8 = iota
	BRANCH_JUMP
	BRANCH_CJUMP
	BRANCH_CALL
	BRANCH_RETURN
	BRANCH_END
)

// Register field tags recorded in RVUs, identifying the bit field to patch
// once a regvar receives its concrete register.
const (
	FIELD_NONE uint8 = iota
	FIELD_SSRC0
	FIELD_SSRC1
	FIELD_SDST
	FIELD_SMRD_SBASE
	FIELD_SMRD_SDST
	FIELD_VOP_SRC0
	FIELD_VOP_VSRC1
	FIELD_VOP_VDST
	FIELD_VOP3_SRC0
	FIELD_VOP3_SRC1
	FIELD_VOP3_SRC2
	FIELD_VOP3_VDST
	FIELD_DS_ADDR
	FIELD_DS_DATA0
	FIELD_DS_DATA1
	FIELD_DS_VDST
	FIELD_FLAT_ADDR
	FIELD_FLAT_DATA
	FIELD_FLAT_VDST
	FIELD_MBUF_VADDR
	FIELD_MBUF_VDATA
	FIELD_MBUF_SRSRC
	FIELD_MBUF_SOFFSET
	// FIELD_MANUAL marks usages recorded by .usereg, which patch nothing.
	FIELD_MANUAL uint8 = 0xff
)

// regFieldSpec describes where a register field lives within the encoded
// instruction words.
type regFieldSpec struct {
	// Word index (0 or 1) within the instruction.
	word uint8
	// Bit offset of the field within its word.
	shift uint8
	// Field width in bits.
	width uint8
	// Value added to the register index (the 256 VGPR source offset).
	offset uint16
}

// regFieldSpecs maps field tags onto their bit positions.
var regFieldSpecs = map[uint8]regFieldSpec{
	FIELD_SSRC0:        {0, 0, 8, 0},
	FIELD_SSRC1:        {0, 8, 8, 0},
	FIELD_SDST:         {0, 16, 7, 0},
	FIELD_SMRD_SBASE:   {0, 9, 6, 0},
	FIELD_SMRD_SDST:    {0, 15, 7, 0},
	FIELD_VOP_SRC0:     {0, 0, 9, 256},
	FIELD_VOP_VSRC1:    {0, 9, 8, 0},
	FIELD_VOP_VDST:     {0, 17, 8, 0},
	FIELD_VOP3_SRC0:    {1, 0, 9, 256},
	FIELD_VOP3_SRC1:    {1, 9, 9, 256},
	FIELD_VOP3_SRC2:    {1, 18, 9, 256},
	FIELD_VOP3_VDST:    {0, 0, 8, 0},
	FIELD_DS_ADDR:      {1, 0, 8, 0},
	FIELD_DS_DATA0:     {1, 8, 8, 0},
	FIELD_DS_DATA1:     {1, 16, 8, 0},
	FIELD_DS_VDST:      {1, 24, 8, 0},
	FIELD_FLAT_ADDR:    {1, 0, 8, 0},
	FIELD_FLAT_DATA:    {1, 8, 8, 0},
	FIELD_FLAT_VDST:    {1, 24, 8, 0},
	FIELD_MBUF_VADDR:   {1, 0, 8, 0},
	FIELD_MBUF_VDATA:   {1, 8, 8, 0},
	FIELD_MBUF_SRSRC:   {1, 16, 5, 0},
	FIELD_MBUF_SOFFSET: {1, 24, 8, 0},
}

// GCNInsn is one entry of the mnemonic table: a mnemonic valid for a set of
// ISA variants, mapping onto an encoding form and opcode.  Where an opcode
// differs between variants, the table carries one entry per variant with
// disjoint masks.
type GCNInsn struct {
	Mnemonic string
	// Variants the entry applies to.
	Archs ArchMask
	// Encoding form.
	Form uint8
	// Opcode field value.
	Code uint16
	// Branch classification, for code-flow emission.
	Branch uint8
	// Instruction class, for the legacy container's counters.
	Class uint8
}

// InstrSizeInfo describes one decoded instruction: its byte size and class.
type InstrSizeInfo struct {
	Size  uint64
	Class uint8
}

// InstructionSize decodes just enough of the instruction at a given offset
// to determine its encoded size and class.  This drives both the round-trip
// size invariant and the legacy container's instruction counters.
//
//nolint:gocyclo
func InstructionSize(arch uint8, code []byte, offset uint64) InstrSizeInfo {
	if offset+4 > uint64(len(code)) {
		return InstrSizeInfo{uint64(len(code)) - offset, INSTRTYPE_OTHER}
	}
	//
	word := binary.LittleEndian.Uint32(code[offset:])
	//
	switch {
	case word>>25 == 0x3f:
		// VOP1
		return InstrSizeInfo{vopSrcSize(word, arch), INSTRTYPE_OTHER}
	case word>>25 == 0x3e:
		// VOPC
		return InstrSizeInfo{vopSrcSize(word, arch), INSTRTYPE_OTHER}
	case word>>31 == 0:
		// VOP2: a dword follows for a literal (or SDWA/DPP control) src0, and
		// always for the madmk/madak forms.
		size := vopSrcSize(word, arch)
		//
		if isVOP2WithLiteral(arch, uint16(word>>25&0x3f)) {
			size = 8
		}
		//
		return InstrSizeInfo{size, INSTRTYPE_OTHER}
	case word>>26 == 0x34:
		// VOP3
		return InstrSizeInfo{8, INSTRTYPE_OTHER}
	case word>>23 == 0x17d:
		// SOP1
		return InstrSizeInfo{sopSrcSize(word&0xff, 0), INSTRTYPE_OTHER}
	case word>>23 == 0x17e:
		// SOPC
		return InstrSizeInfo{sopSrcSize(word&0xff, word>>8&0xff), INSTRTYPE_OTHER}
	case word>>23 == 0x17f:
		// SOPP
		return InstrSizeInfo{4, INSTRTYPE_OTHER}
	case word>>28 == 0xb:
		// SOPK
		return InstrSizeInfo{4, INSTRTYPE_OTHER}
	case word>>30 == 0x2:
		// SOP2
		return InstrSizeInfo{sopSrcSize(word&0xff, word>>8&0xff), INSTRTYPE_OTHER}
	}
	//
	switch word >> 26 {
	case 0x30, 0x31:
		// SMRD on GCN 1.0/1.1 is one word; SMEM on GCN 1.2+ is two.
		if arch >= GCN12 {
			return InstrSizeInfo{8, INSTRTYPE_GLOBAL}
		}
		//
		return InstrSizeInfo{4, INSTRTYPE_GLOBAL}
	case 0x32:
		// VINTRP on GCN 1.0/1.1
		return InstrSizeInfo{4, INSTRTYPE_OTHER}
	case 0x35:
		// VINTRP on GCN 1.2+
		return InstrSizeInfo{4, INSTRTYPE_OTHER}
	case 0x36:
		// DS
		return InstrSizeInfo{8, INSTRTYPE_LOCAL}
	case 0x37:
		// FLAT
		return InstrSizeInfo{8, INSTRTYPE_GLOBAL}
	case 0x38:
		// MUBUF
		return InstrSizeInfo{8, INSTRTYPE_GLOBAL}
	case 0x3a:
		// MTBUF
		return InstrSizeInfo{8, INSTRTYPE_GLOBAL}
	case 0x3c:
		// MIMG
		return InstrSizeInfo{8, INSTRTYPE_GLOBAL}
	case 0x3e:
		// EXP
		return InstrSizeInfo{8, INSTRTYPE_OTHER}
	}
	//
	return InstrSizeInfo{4, INSTRTYPE_OTHER}
}

// vopSrcSize gives the size of a compact vector instruction, whose source-0
// field may demand a trailing dword: a literal constant, or the SDWA/DPP
// control word on GCN 1.2+.
func vopSrcSize(word uint32, arch uint8) uint64 {
	src0 := word & 0x1ff
	//
	if src0 == uint32(REG_LITERAL) {
		return 8
	}
	//
	if arch >= GCN12 && (src0 == uint32(REG_SDWA) || src0 == uint32(REG_DPP)) {
		return 8
	}
	//
	return 4
}

// sopSrcSize gives the size of a scalar-form instruction with up to two
// source fields.
func sopSrcSize(src0 uint32, src1 uint32) uint64 {
	if src0 == uint32(REG_LITERAL) || src1 == uint32(REG_LITERAL) {
		return 8
	}
	//
	return 4
}

// isVOP2WithLiteral recognises the VOP2 opcodes which always carry a
// trailing literal constant (madmk/madak).
func isVOP2WithLiteral(arch uint8, op uint16) bool {
	if arch >= GCN12 {
		return op == 23 || op == 24
	}
	//
	return op == 32 || op == 33
}

// CountInstructions walks a code section counting instructions and the
// global/local memory operations among them, per the legacy container's
// header rules.
func CountInstructions(arch uint8, code []byte) (instrs uint32, global uint32, local uint32) {
	for offset := uint64(0); offset+4 <= uint64(len(code)); {
		info := InstructionSize(arch, code, offset)
		//
		instrs++
		//
		switch info.Class {
		case INSTRTYPE_GLOBAL:
			global++
		case INSTRTYPE_LOCAL:
			local++
		}
		//
		offset += info.Size
	}
	//
	return instrs, global, local
}
