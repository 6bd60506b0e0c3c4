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
	"encoding/binary"

	"github.com/consensys/go-gcnasm/pkg/util/source"
)

// Section flags.
const (
	// SECT_WRITEABLE marks sections whose content can be patched after
	// emission.
	SECT_WRITEABLE uint8 = 1 << iota
	// SECT_ADDRESSABLE marks sections which occupy address space, such that
	// labels within them are meaningful.
	SECT_ADDRESSABLE
	// SECT_UNRESOLVABLE marks sections whose symbols can never participate
	// in cross-section expressions.
	SECT_UNRESOLVABLE
	// SECT_CODE marks executable sections fed to the instruction encoder.
	SECT_CODE
	// SECT_NOBITS marks sections which reserve space without content (bss).
	SECT_NOBITS
)

// Code-flow entry kinds, emitted by the encoder for branch mnemonics.
const (
	FLOW_JUMP uint8 = iota
	FLOW_CJUMP
	FLOW_CALL
	FLOW_RETURN
	FLOW_END
)

// CodeFlowEntry records a control transfer at a given code offset, for
// downstream basic-block construction.
type CodeFlowEntry struct {
	// Offset of the branch instruction within its section.
	Offset uint64
	// One of the FLOW_* kinds.
	Kind uint8
	// Branch target offset, valid only when HasTarget.
	Target    uint64
	HasTarget bool
}

// Access flags for regvar usages.
const (
	ACCESS_READ  uint8 = 1
	ACCESS_WRITE uint8 = 2
)

// RVU is a single regvar usage: one per instruction operand referencing a
// register variable, carrying the encoding field to patch once a concrete
// register is assigned.
type RVU struct {
	// Offset of the owning instruction within its section.
	Offset uint64
	// The register variable referenced.
	RegVar *RegVar
	// Portion of the regvar used, as register indices relative to its start.
	Start uint16
	End   uint16
	// Encoding field tag, interpreted by the encoder during patch-back.
	Field uint8
	// Read/write flags.
	Access uint8
	// Required alignment of the assigned register index (1, 2 or 4).
	Align uint8
	// Source position of the operand, for allocator diagnostics.
	Pos source.Position
}

// LinearDep records that a set of regvars must be assigned consecutive
// registers, in order, with a given alignment of the first.
type LinearDep struct {
	Offset  uint64
	RegVars []*RegVar
	Align   uint8
}

// EqualToDep records that two regvars must share one register assignment.
type EqualToDep struct {
	Offset uint64
	First  *RegVar
	Second *RegVar
}

// Reloc is a cross-section expression whose resolution is left to the
// format's late-binding pass.
type Reloc struct {
	// Offset of the bytes to patch within the owning section.
	Offset uint64
	// Number of bytes to patch (4 or 8).
	Size uint8
	// The expression to resolve during output generation.
	Expr *Expression
}

// Section is a contiguous region of output.  Only the current section
// accumulates bytes; every write advances its output position by exactly the
// number of bytes written.
type Section struct {
	ID   SectionID
	Name string
	// Owning kernel for per-kernel sections, else NoKernel.
	Kernel KernelID
	Flags  uint8
	// Required alignment of the section within its container.
	Align uint64
	// Accumulated content.  Nil for SECT_NOBITS sections, which track their
	// size separately.
	Content []byte
	// Size of a no-content section.
	nobitsSize uint64
	// Maximum size permitted by the owning format, or zero for unbounded.
	MaxSize uint64
	// Cross-section fixups for the generator.
	Relocs []Reloc
	// Control-flow metadata for the register allocator.
	CodeFlow []CodeFlowEntry
	// Regvar usages for the register allocator.
	RVUs []RVU
	// Consecutive-register requirements.
	LinearDeps []LinearDep
	// Shared-register requirements.
	EqualDeps []EqualToDep
}

// Size returns the current output position of this section.
func (p *Section) Size() uint64 {
	if p.Flags&SECT_NOBITS != 0 {
		return p.nobitsSize
	}
	//
	return uint64(len(p.Content))
}

// HasContent reports whether this section accumulates bytes.
func (p *Section) HasContent() bool {
	return p.Flags&SECT_NOBITS == 0
}

// Put appends raw bytes to this section, returning false if doing so would
// exceed the format's size limit.
func (p *Section) Put(data ...byte) bool {
	return p.PutBytes(data)
}

// PutBytes appends raw bytes to this section.
func (p *Section) PutBytes(data []byte) bool {
	if p.MaxSize != 0 && p.Size()+uint64(len(data)) > p.MaxSize {
		return false
	}
	//
	if p.HasContent() {
		p.Content = append(p.Content, data...)
	} else {
		p.nobitsSize += uint64(len(data))
	}
	//
	return true
}

// PutUint appends an n-byte little-endian integer.
func (p *Section) PutUint(value uint64, size uint8) bool {
	var buf [8]byte
	//
	binary.LittleEndian.PutUint64(buf[:], value)
	//
	return p.PutBytes(buf[:size])
}

// Reserve appends n copies of a fill byte.
func (p *Section) Reserve(n uint64, fill byte) bool {
	if p.MaxSize != 0 && p.Size()+n > p.MaxSize {
		return false
	}
	//
	if !p.HasContent() {
		p.nobitsSize += n
		return true
	}
	//
	for i := uint64(0); i < n; i++ {
		p.Content = append(p.Content, fill)
	}
	//
	return true
}

// AlignTo advances the output position to a multiple of align, filling with
// the given byte, and returns the number of bytes emitted.
func (p *Section) AlignTo(align uint64, fill byte) uint64 {
	if align < 2 {
		return 0
	}
	//
	padding := (align - (p.Size() % align)) % align
	p.Reserve(padding, fill)
	//
	return padding
}

// Patch overwrites size bytes at a given offset with a little-endian value.
// The section must have content covering the patched range.
func (p *Section) Patch(offset uint64, value uint64, size uint8) {
	var buf [8]byte
	//
	binary.LittleEndian.PutUint64(buf[:], value)
	copy(p.Content[offset:offset+uint64(size)], buf[:size])
}

// Kernel groups the per-kernel sections and configuration of one GPU kernel.
// The configuration record itself is owned by the format handler, since its
// fields are format-specific.
type Kernel struct {
	ID   KernelID
	Name string
	// Position of the .kernel directive, for diagnostics.
	Pos source.Position
	// Sections owned by this kernel.
	Sections []SectionID
}
