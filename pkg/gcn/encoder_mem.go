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

// memModifiers collects the trailing modifiers of the memory forms.
type memModifiers struct {
	offset  uint64
	offset1 uint64
	glc     bool
	slc     bool
	tfe     bool
	gds     bool
	offen   bool
	idxen   bool
	dmask   uint64
	hasD    bool
}

// parseMemModifiers consumes "offset:N", "glc", "slc", "tfe", "gds",
// "offen", "idxen" and "dmask:N" in any order.
func (p *encodeContext) parseMemModifiers(toks *asm.Tokens) (memModifiers, bool) {
	var mods memModifiers
	mods.dmask = 1
	//
	for toks.Lookahead().Kind == asm.IDENTIFIER {
		name := toks.Text(toks.Next())
		//
		switch name {
		case "offset", "offset0":
			if !toks.Match(asm.COLON) {
				p.fail("expected ':' after '%s'", name)
				return mods, false
			}
			//
			value, ok := p.immediateParam(toks)
			if !ok {
				return mods, false
			}
			//
			mods.offset = value
		case "offset1":
			if !toks.Match(asm.COLON) {
				p.fail("expected ':' after 'offset1'")
				return mods, false
			}
			//
			value, ok := p.immediateParam(toks)
			if !ok {
				return mods, false
			}
			//
			mods.offset1 = value
		case "dmask":
			if !toks.Match(asm.COLON) {
				p.fail("expected ':' after 'dmask'")
				return mods, false
			}
			//
			value, ok := p.immediateParam(toks)
			if !ok {
				return mods, false
			}
			//
			mods.dmask, mods.hasD = value, true
		case "glc":
			mods.glc = true
		case "slc":
			mods.slc = true
		case "tfe":
			mods.tfe = true
		case "gds":
			mods.gds = true
		case "offen":
			mods.offen = true
		case "idxen":
			mods.idxen = true
		default:
			p.fail("unknown modifier '%s'", name)
			return mods, false
		}
	}
	//
	if kind := toks.Lookahead().Kind; kind != asm.END_OF && kind != asm.SEMICOLON {
		p.fail("garbage at end of instruction")
		return mods, false
	}
	//
	return mods, true
}

// encodeDS handles the local data-share form.
func (p *encodeContext) encodeDS(entry GCNInsn, toks *asm.Tokens) {
	var (
		width               = regWidthOf(entry.Mnemonic)
		isRead              = strings.Contains(entry.Mnemonic, "read")
		isWrite             = strings.Contains(entry.Mnemonic, "write")
		twoData             = strings.Contains(entry.Mnemonic, "read2") || strings.Contains(entry.Mnemonic, "write2")
		vdst, addr, d0, d1  uint16
		ok                  bool
	)
	//
	if isRead {
		dstWidth := width
		if twoData {
			dstWidth = width * 2
		}
		//
		if vdst, ok = p.parseVectorReg(toks, dstWidth, FIELD_DS_VDST, asm.ACCESS_WRITE); !ok {
			return
		}
		//
		if !p.comma(toks) {
			return
		}
	}
	//
	if addr, ok = p.parseVectorReg(toks, 1, FIELD_DS_ADDR, asm.ACCESS_READ); !ok {
		return
	}
	//
	if isWrite || (!isRead && !isWrite) {
		// writes and atomics carry data operands
		if !p.comma(toks) {
			return
		}
		//
		if d0, ok = p.parseVectorReg(toks, width, FIELD_DS_DATA0, asm.ACCESS_READ); !ok {
			return
		}
		//
		if twoData {
			if !p.comma(toks) {
				return
			}
			//
			if d1, ok = p.parseVectorReg(toks, width, FIELD_DS_DATA1, asm.ACCESS_READ); !ok {
				return
			}
		}
	}
	//
	mods, ok := p.parseMemModifiers(toks)
	if !ok {
		return
	}
	//
	var offsetField uint32
	if twoData {
		offsetField = uint32(mods.offset)&0xff | uint32(mods.offset1)&0xff<<8
	} else {
		offsetField = uint32(mods.offset) & 0xffff
	}
	//
	gdsBit := uint32(0)
	if mods.gds {
		gdsBit = 1 << 17
	}
	//
	word0 := 0xd8000000 | uint32(entry.Code)<<18 | gdsBit | offsetField
	word1 := uint32(addr) | uint32(d0)<<8 | uint32(d1)<<16 | uint32(vdst)<<24
	p.emit(entry, word0, word1)
}

// encodeFLAT handles the flat-address form.
func (p *encodeContext) encodeFLAT(entry GCNInsn, toks *asm.Tokens) {
	var (
		width            = regWidthOf(entry.Mnemonic)
		isLoad           = strings.Contains(entry.Mnemonic, "load")
		vdst, addr, data uint16
		ok               bool
	)
	//
	if isLoad {
		if vdst, ok = p.parseVectorReg(toks, width, FIELD_FLAT_VDST, asm.ACCESS_WRITE); !ok {
			return
		}
		//
		if !p.comma(toks) {
			return
		}
		//
		if addr, ok = p.parseVectorReg(toks, 2, FIELD_FLAT_ADDR, asm.ACCESS_READ); !ok {
			return
		}
	} else {
		if addr, ok = p.parseVectorReg(toks, 2, FIELD_FLAT_ADDR, asm.ACCESS_READ); !ok {
			return
		}
		//
		if !p.comma(toks) {
			return
		}
		//
		if data, ok = p.parseVectorReg(toks, width, FIELD_FLAT_DATA, asm.ACCESS_READ); !ok {
			return
		}
	}
	//
	mods, ok := p.parseMemModifiers(toks)
	if !ok {
		return
	}
	//
	word0 := 0xdc000000 | uint32(entry.Code)<<18
	//
	if mods.glc {
		word0 |= 1 << 16
	}
	//
	if mods.slc {
		word0 |= 1 << 17
	}
	//
	word1 := uint32(addr) | uint32(data)<<8 | uint32(vdst)<<24
	//
	if mods.tfe {
		word1 |= 1 << 23
	}
	//
	p.emit(entry, word0, word1)
}

// encodeMBUF handles the untyped and typed buffer forms.
func (p *encodeContext) encodeMBUF(entry GCNInsn, toks *asm.Tokens) {
	var (
		width = regWidthOf(entry.Mnemonic)
		store = strings.Contains(entry.Mnemonic, "store")
	)
	//
	access := uint8(asm.ACCESS_WRITE)
	if store {
		access = asm.ACCESS_READ
	}
	//
	vdata, ok := p.parseVectorReg(toks, width, FIELD_MBUF_VDATA, access)
	if !ok || !p.comma(toks) {
		return
	}
	//
	vaddr, ok := p.parseVectorReg(toks, 1, FIELD_MBUF_VADDR, asm.ACCESS_READ)
	if !ok || !p.comma(toks) {
		return
	}
	//
	srsrc, ok := p.parseScalarReg(toks, 4, FIELD_MBUF_SRSRC, asm.ACCESS_READ)
	if !ok || !p.comma(toks) {
		return
	}
	//
	soffset, ok := p.parseSrc(toks, 1, FIELD_MBUF_SOFFSET, false)
	if !ok {
		return
	}
	//
	mods, ok := p.parseMemModifiers(toks)
	if !ok {
		return
	}
	//
	base := uint32(0xe0000000)
	if entry.Form == MTBUF {
		base = 0xe8000000
	}
	//
	word0 := base | uint32(entry.Code)<<18 | uint32(mods.offset)&0xfff
	//
	if mods.offen {
		word0 |= 1 << 12
	}
	//
	if mods.idxen {
		word0 |= 1 << 13
	}
	//
	if mods.glc {
		word0 |= 1 << 14
	}
	//
	word1 := uint32(vaddr) | uint32(vdata)<<8 | uint32(srsrc)>>2<<16 | uint32(soffset)<<24
	//
	if mods.slc {
		word1 |= 1 << 22
	}
	//
	if mods.tfe {
		word1 |= 1 << 23
	}
	//
	p.emit(entry, word0, word1)
}

// encodeMIMG handles the image form.
func (p *encodeContext) encodeMIMG(entry GCNInsn, toks *asm.Tokens) {
	var store = strings.Contains(entry.Mnemonic, "store")
	//
	access := uint8(asm.ACCESS_WRITE)
	if store {
		access = asm.ACCESS_READ
	}
	//
	vdata, ok := p.parseVectorReg(toks, 1, FIELD_MBUF_VDATA, access)
	if !ok || !p.comma(toks) {
		return
	}
	//
	vaddr, ok := p.parseVectorReg(toks, 4, FIELD_MBUF_VADDR, asm.ACCESS_READ)
	if !ok || !p.comma(toks) {
		return
	}
	//
	srsrc, ok := p.parseScalarReg(toks, 8, FIELD_MBUF_SRSRC, asm.ACCESS_READ)
	if !ok {
		return
	}
	// image_sample additionally takes a sampler resource.
	var ssamp uint16
	//
	if strings.HasPrefix(entry.Mnemonic, "image_sample") {
		if !p.comma(toks) {
			return
		}
		//
		if ssamp, ok = p.parseScalarReg(toks, 4, FIELD_MBUF_SRSRC, asm.ACCESS_READ); !ok {
			return
		}
	}
	//
	mods, ok := p.parseMemModifiers(toks)
	if !ok {
		return
	}
	//
	word0 := 0xf0000000 | uint32(entry.Code)<<18 | uint32(mods.dmask)&0xf<<8
	//
	if mods.glc {
		word0 |= 1 << 13
	}
	//
	if mods.slc {
		word0 |= 1 << 25
	}
	//
	word1 := uint32(vaddr) | uint32(vdata)<<8 | uint32(srsrc)>>2<<16 | uint32(ssamp)>>2<<21
	p.emit(entry, word0, word1)
}

// expTargets maps export target names onto their codes.
var expTargets = map[string]uint32{
	"mrt0": 0, "mrt1": 1, "mrt2": 2, "mrt3": 3, "mrt4": 4, "mrt5": 5,
	"mrt6": 6, "mrt7": 7, "mrtz": 8, "null": 9,
	"pos0": 12, "pos1": 13, "pos2": 14, "pos3": 15,
}

// encodeEXP handles the export form: "exp target, v0, v1, v2, v3 [done] [vm]".
func (p *encodeContext) encodeEXP(entry GCNInsn, toks *asm.Tokens) {
	tok := toks.Next()
	//
	if tok.Kind != asm.IDENTIFIER {
		p.fail("expected export target")
		return
	}
	//
	name := toks.Text(tok)
	target, known := expTargets[name]
	//
	if !known {
		if strings.HasPrefix(name, "param") {
			index := uint32(0)
			for _, ch := range name[5:] {
				if ch < '0' || ch > '9' {
					p.fail("unknown export target '%s'", name)
					return
				}
				//
				index = index*10 + uint32(ch-'0')
			}
			//
			target = 32 + index
		} else {
			p.fail("unknown export target '%s'", name)
			return
		}
	}
	//
	var (
		srcs [4]uint16
		en   uint32
	)
	//
	for i := 0; i < 4; i++ {
		if !p.comma(toks) {
			return
		}
		// "off" disables a lane
		if toks.Lookahead().Kind == asm.IDENTIFIER && toks.Text(toks.Lookahead()) == "off" {
			toks.Next()
			continue
		}
		//
		src, ok := p.parseVectorReg(toks, 1, FIELD_NONE, asm.ACCESS_READ)
		if !ok {
			return
		}
		//
		srcs[i] = src
		en |= 1 << i
	}
	// Trailing flags.
	var done, vm uint32
	//
	for toks.Lookahead().Kind == asm.IDENTIFIER {
		switch toks.Text(toks.Next()) {
		case "done":
			done = 1
		case "vm":
			vm = 1
		default:
			p.fail("unknown modifier")
			return
		}
	}
	//
	base := uint32(0xf8000000)
	if p.arch >= GCN12 {
		base = 0xc4000000
	}
	//
	word0 := base | en | target<<4 | done<<11 | vm<<12
	word1 := uint32(srcs[0]) | uint32(srcs[1])<<8 | uint32(srcs[2])<<16 | uint32(srcs[3])<<24
	p.emit(entry, word0, word1)
}
