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

// Package binfile implements the binary container generators: a
// region-ordered ELF writer (32 and 64 bit) shared by the per-format
// generators for the legacy AMD Catalyst and AMDCL2 containers.
package binfile

import (
	"bytes"
	"debug/elf"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/consensys/go-gcnasm/pkg/asm"
)

// Region is one declared region of an output ELF.  Regions are laid out in
// declaration order; named regions become sections in the section table.
type Region struct {
	// Section name; empty for anonymous padding or header regions.
	Name string
	// Section type (elf.SHT_*).
	Type elf.SectionType
	// Section flags.
	Flags elf.SectionFlag
	// Required alignment of the region's offset; zero-filled padding is
	// inserted ahead of it.
	Align uint64
	// Cross-references, filled by name and resolved to indices late.
	LinkName string
	Info     uint32
	EntSize  uint64
	// Content provider; the region's size is the length of its result.
	Content func() []byte
	// NoBits regions occupy no file space but declare a size (.bss).
	NoBits bool
	Size   uint64
}

// ProgHeader declares one program header spanning a run of regions.
type ProgHeader struct {
	Type  elf.ProgType
	Flags elf.ProgFlag
	// Indices of the first and last region covered (inclusive).
	First int
	Last  int
	VAddr uint64
	Align uint64
}

// Builder accumulates regions and serialises them as an ELF file.
type Builder struct {
	Class64 bool
	Type    elf.Type
	Machine elf.Machine
	Entry   uint64
	Flags   uint32
	OSABI   elf.OSABI
	//
	regions  []Region
	phdrs    []ProgHeader
	shstrtab []byte
	// name -> section index (1-based, after the null section)
	indices map[string]uint16
}

// NewBuilder constructs an empty ELF builder.
func NewBuilder(class64 bool, typ elf.Type, machine elf.Machine) *Builder {
	return &Builder{
		Class64: class64,
		Type:    typ,
		Machine: machine,
		indices: make(map[string]uint16),
	}
}

// AddRegion declares the next region, returning its region index.
func (p *Builder) AddRegion(region Region) int {
	if region.Name != "" {
		p.indices[region.Name] = uint16(p.sectionCount() + 1)
	}
	//
	p.regions = append(p.regions, region)
	//
	return len(p.regions) - 1
}

// AddProgHeader declares a program header over a span of regions.
func (p *Builder) AddProgHeader(header ProgHeader) {
	p.phdrs = append(p.phdrs, header)
}

// SectionIndex returns the section table index a named region will receive.
// Indices are assigned in declaration order, so this is stable as soon as
// the region has been added.
func (p *Builder) SectionIndex(name string) uint16 {
	return p.indices[name]
}

func (p *Builder) sectionCount() int {
	count := 0
	//
	for _, region := range p.regions {
		if region.Name != "" {
			count++
		}
	}
	//
	return count
}

func (p *Builder) headerSize() uint64 {
	if p.Class64 {
		return 64
	}
	//
	return 52
}

func (p *Builder) phentSize() uint64 {
	if p.Class64 {
		return 56
	}
	//
	return 32
}

func (p *Builder) shentSize() uint64 {
	if p.Class64 {
		return 64
	}
	//
	return 40
}

// Build lays out all regions and serialises the ELF.
//
//nolint:gocyclo
func (p *Builder) Build() ([]byte, error) {
	// Build .shstrtab from the declared names (no suffix sharing).
	var (
		shstr     = []byte{0}
		nameOffs  = make(map[string]uint32)
		shstrName = ".shstrtab"
	)
	//
	for _, region := range p.regions {
		if region.Name != "" {
			nameOffs[region.Name] = uint32(len(shstr))
			shstr = append(shstr, []byte(region.Name)...)
			shstr = append(shstr, 0)
		}
	}
	//
	nameOffs[shstrName] = uint32(len(shstr))
	shstr = append(shstr, []byte(shstrName)...)
	shstr = append(shstr, 0)
	p.shstrtab = shstr
	// The section-header string table itself is the final section.
	shstrIndex := uint16(p.sectionCount() + 1)
	// Lay out: header, program headers, regions, shstrtab, section table.
	var (
		out     bytes.Buffer
		offsets = make([]uint64, len(p.regions))
		sizes   = make([]uint64, len(p.regions))
	)
	//
	pad := func(align uint64) {
		if align < 2 {
			return
		}
		//
		for uint64(out.Len())%align != 0 {
			out.WriteByte(0)
		}
	}
	// Header is written last (offsets unknown yet); reserve space.
	out.Write(make([]byte, p.headerSize()))
	//
	phOff := uint64(0)
	//
	if len(p.phdrs) > 0 {
		phOff = uint64(out.Len())
		out.Write(make([]byte, p.phentSize()*uint64(len(p.phdrs))))
	}
	//
	for i := range p.regions {
		region := &p.regions[i]
		//
		pad(region.Align)
		offsets[i] = uint64(out.Len())
		//
		if region.NoBits {
			sizes[i] = region.Size
			continue
		}
		//
		content := []byte(nil)
		if region.Content != nil {
			content = region.Content()
		}
		//
		sizes[i] = uint64(len(content))
		out.Write(content)
	}
	// .shstrtab content
	pad(1)
	shstrOff := uint64(out.Len())
	out.Write(shstr)
	// Section-header table, aligned to 8.
	pad(8)
	shOff := uint64(out.Len())
	// null section
	out.Write(make([]byte, p.shentSize()))
	//
	for i := range p.regions {
		region := &p.regions[i]
		//
		if region.Name == "" {
			continue
		}
		//
		link := uint32(0)
		if region.LinkName != "" {
			idx, ok := p.indices[region.LinkName]
			if !ok {
				return nil, errors.Errorf("unresolved section link %q", region.LinkName)
			}
			//
			link = uint32(idx)
		}
		//
		p.writeSectionHeader(&out, nameOffs[region.Name], region, offsets[i], sizes[i], link)
	}
	// shstrtab section header
	p.writeSectionHeader(&out, nameOffs[shstrName],
		&Region{Name: shstrName, Type: elf.SHT_STRTAB, Align: 1},
		shstrOff, uint64(len(shstr)), 0)
	//
	data := out.Bytes()
	// Program headers.
	for i, header := range p.phdrs {
		var (
			start = offsets[header.First]
			end   = offsets[header.Last] + sizes[header.Last]
			entry = make([]byte, p.phentSize())
		)
		//
		if p.Class64 {
			binary.LittleEndian.PutUint32(entry[0:], uint32(header.Type))
			binary.LittleEndian.PutUint32(entry[4:], uint32(header.Flags))
			binary.LittleEndian.PutUint64(entry[8:], start)
			binary.LittleEndian.PutUint64(entry[16:], header.VAddr)
			binary.LittleEndian.PutUint64(entry[24:], header.VAddr)
			binary.LittleEndian.PutUint64(entry[32:], end-start)
			binary.LittleEndian.PutUint64(entry[40:], end-start)
			binary.LittleEndian.PutUint64(entry[48:], header.Align)
		} else {
			binary.LittleEndian.PutUint32(entry[0:], uint32(header.Type))
			binary.LittleEndian.PutUint32(entry[4:], uint32(start))
			binary.LittleEndian.PutUint32(entry[8:], uint32(header.VAddr))
			binary.LittleEndian.PutUint32(entry[12:], uint32(header.VAddr))
			binary.LittleEndian.PutUint32(entry[16:], uint32(end-start))
			binary.LittleEndian.PutUint32(entry[20:], uint32(end-start))
			binary.LittleEndian.PutUint32(entry[24:], uint32(header.Flags))
			binary.LittleEndian.PutUint32(entry[28:], uint32(header.Align))
		}
		//
		copy(data[phOff+uint64(i)*p.phentSize():], entry)
	}
	// Finally the ELF header.
	p.writeHeader(data, phOff, shOff, shstrIndex)
	//
	return data, nil
}

// writeHeader fills the ELF identification and header fields in place.
func (p *Builder) writeHeader(data []byte, phOff uint64, shOff uint64, shstrIndex uint16) {
	copy(data, elf.ELFMAG)
	//
	if p.Class64 {
		data[4] = byte(elf.ELFCLASS64)
	} else {
		data[4] = byte(elf.ELFCLASS32)
	}
	//
	data[5] = byte(elf.ELFDATA2LSB)
	data[6] = byte(elf.EV_CURRENT)
	data[7] = byte(p.OSABI)
	//
	shnum := uint16(p.sectionCount() + 2) // null + named + shstrtab
	//
	if p.Class64 {
		binary.LittleEndian.PutUint16(data[16:], uint16(p.Type))
		binary.LittleEndian.PutUint16(data[18:], uint16(p.Machine))
		binary.LittleEndian.PutUint32(data[20:], 1)
		binary.LittleEndian.PutUint64(data[24:], p.Entry)
		binary.LittleEndian.PutUint64(data[32:], phOff)
		binary.LittleEndian.PutUint64(data[40:], shOff)
		binary.LittleEndian.PutUint32(data[48:], p.Flags)
		binary.LittleEndian.PutUint16(data[52:], 64)
		binary.LittleEndian.PutUint16(data[54:], uint16(p.phentSize()))
		binary.LittleEndian.PutUint16(data[56:], uint16(len(p.phdrs)))
		binary.LittleEndian.PutUint16(data[58:], uint16(p.shentSize()))
		binary.LittleEndian.PutUint16(data[60:], shnum)
		binary.LittleEndian.PutUint16(data[62:], shstrIndex)
	} else {
		binary.LittleEndian.PutUint16(data[16:], uint16(p.Type))
		binary.LittleEndian.PutUint16(data[18:], uint16(p.Machine))
		binary.LittleEndian.PutUint32(data[20:], 1)
		binary.LittleEndian.PutUint32(data[24:], uint32(p.Entry))
		binary.LittleEndian.PutUint32(data[28:], uint32(phOff))
		binary.LittleEndian.PutUint32(data[32:], uint32(shOff))
		binary.LittleEndian.PutUint32(data[36:], p.Flags)
		binary.LittleEndian.PutUint16(data[40:], 52)
		binary.LittleEndian.PutUint16(data[42:], uint16(p.phentSize()))
		binary.LittleEndian.PutUint16(data[44:], uint16(len(p.phdrs)))
		binary.LittleEndian.PutUint16(data[46:], uint16(p.shentSize()))
		binary.LittleEndian.PutUint16(data[48:], shnum)
		binary.LittleEndian.PutUint16(data[50:], shstrIndex)
	}
}

// writeSectionHeader appends one section header entry.
func (p *Builder) writeSectionHeader(out *bytes.Buffer, nameOff uint32, region *Region,
	offset uint64, size uint64, link uint32) {
	entry := make([]byte, p.shentSize())
	//
	if p.Class64 {
		binary.LittleEndian.PutUint32(entry[0:], nameOff)
		binary.LittleEndian.PutUint32(entry[4:], uint32(region.Type))
		binary.LittleEndian.PutUint64(entry[8:], uint64(region.Flags))
		binary.LittleEndian.PutUint64(entry[24:], offset)
		binary.LittleEndian.PutUint64(entry[32:], size)
		binary.LittleEndian.PutUint32(entry[40:], link)
		binary.LittleEndian.PutUint32(entry[44:], region.Info)
		binary.LittleEndian.PutUint64(entry[48:], max(region.Align, 1))
		binary.LittleEndian.PutUint64(entry[56:], region.EntSize)
	} else {
		binary.LittleEndian.PutUint32(entry[0:], nameOff)
		binary.LittleEndian.PutUint32(entry[4:], uint32(region.Type))
		binary.LittleEndian.PutUint32(entry[8:], uint32(region.Flags))
		binary.LittleEndian.PutUint32(entry[16:], uint32(offset))
		binary.LittleEndian.PutUint32(entry[20:], uint32(size))
		binary.LittleEndian.PutUint32(entry[24:], link)
		binary.LittleEndian.PutUint32(entry[28:], region.Info)
		binary.LittleEndian.PutUint32(entry[32:], uint32(max(region.Align, 1)))
		binary.LittleEndian.PutUint32(entry[36:], uint32(region.EntSize))
	}
	//
	out.Write(entry)
}

// ============================================================================
// Relocation resolution
// ============================================================================

// applyRelocs drives every pending cross-section expression against the
// final section-base table, patching the resolved values in place.
func applyRelocs(as *asm.Assembler, bases map[asm.SectionID]uint64) {
	for _, sect := range as.Sections() {
		for _, reloc := range sect.Relocs {
			if value, ok := as.EvalAbsolute(reloc.Expr, bases); ok {
				sect.Patch(reloc.Offset, value, reloc.Size)
			}
		}
	}
}

// ============================================================================
// Symbol & string tables
// ============================================================================

// Symbol is one symbol-table entry under construction.
type Symbol struct {
	Name    string
	Value   uint64
	Size    uint64
	Binding elf.SymBind
	Type    elf.SymType
	Section uint16
}

// SymTab accumulates symbols together with their string table.  The string
// table is deduplicated trivially (identical names share one entry; no
// suffix sharing).
type SymTab struct {
	Class64 bool
	symbols []Symbol
	strtab  []byte
	offsets map[string]uint32
}

// NewSymTab constructs an empty symbol table for a given ELF class.
func NewSymTab(class64 bool) *SymTab {
	return &SymTab{
		Class64: class64,
		strtab:  []byte{0},
		offsets: make(map[string]uint32),
	}
}

// Add appends a symbol.
func (p *SymTab) Add(sym Symbol) {
	p.symbols = append(p.symbols, sym)
}

// Len returns the number of symbols added (excluding the null symbol).
func (p *SymTab) Len() int {
	return len(p.symbols)
}

// nameOffset interns a name in the string table.
func (p *SymTab) nameOffset(name string) uint32 {
	if name == "" {
		return 0
	}
	//
	if off, ok := p.offsets[name]; ok {
		return off
	}
	//
	off := uint32(len(p.strtab))
	p.offsets[name] = off
	p.strtab = append(p.strtab, []byte(name)...)
	p.strtab = append(p.strtab, 0)
	//
	return off
}

// StrTab returns the accumulated string table bytes.
func (p *SymTab) StrTab() []byte {
	// intern everything first
	for _, sym := range p.symbols {
		p.nameOffset(sym.Name)
	}
	//
	return p.strtab
}

// EntSize returns the symbol entry size of this class.
func (p *SymTab) EntSize() uint64 {
	if p.Class64 {
		return 24
	}
	//
	return 16
}

// Bytes serialises the symbol table, leading with the null symbol.
func (p *SymTab) Bytes() []byte {
	out := make([]byte, (uint64(len(p.symbols))+1)*p.EntSize())
	//
	for i, sym := range p.symbols {
		var (
			entry = out[(uint64(i)+1)*p.EntSize():]
			name  = p.nameOffset(sym.Name)
			info  = byte(sym.Binding)<<4 | byte(sym.Type)&0xf
		)
		//
		if p.Class64 {
			binary.LittleEndian.PutUint32(entry[0:], name)
			entry[4] = info
			binary.LittleEndian.PutUint16(entry[6:], sym.Section)
			binary.LittleEndian.PutUint64(entry[8:], sym.Value)
			binary.LittleEndian.PutUint64(entry[16:], sym.Size)
		} else {
			binary.LittleEndian.PutUint32(entry[0:], name)
			binary.LittleEndian.PutUint32(entry[4:], uint32(sym.Value))
			binary.LittleEndian.PutUint32(entry[8:], uint32(sym.Size))
			entry[12] = info
			binary.LittleEndian.PutUint16(entry[14:], sym.Section)
		}
	}
	//
	return out
}

// ============================================================================
// Notes
// ============================================================================

// Note is one ELF note entry.
type Note struct {
	Name string
	Type uint32
	Desc []byte
}

// NotesBytes serialises a sequence of notes with 4-byte alignment.
func NotesBytes(notes []Note) []byte {
	var out bytes.Buffer
	//
	for _, note := range notes {
		nameBytes := append([]byte(note.Name), 0)
		//
		var header [12]byte
		binary.LittleEndian.PutUint32(header[0:], uint32(len(nameBytes)))
		binary.LittleEndian.PutUint32(header[4:], uint32(len(note.Desc)))
		binary.LittleEndian.PutUint32(header[8:], note.Type)
		//
		out.Write(header[:])
		out.Write(nameBytes)
		//
		for out.Len()%4 != 0 {
			out.WriteByte(0)
		}
		//
		out.Write(note.Desc)
		//
		for out.Len()%4 != 0 {
			out.WriteByte(0)
		}
	}
	//
	return out.Bytes()
}
