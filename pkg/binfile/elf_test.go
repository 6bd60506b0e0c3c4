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
package binfile

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Elf_RoundTrip64(t *testing.T) {
	check_Elf_RoundTrip(t, true)
}

func Test_Elf_RoundTrip32(t *testing.T) {
	check_Elf_RoundTrip(t, false)
}

func Test_Elf_Alignment(t *testing.T) {
	builder := NewBuilder(true, elf.ET_REL, elf.EM_X86_64)
	//
	builder.AddRegion(Region{
		Name: ".a", Type: elf.SHT_PROGBITS, Align: 1,
		Content: func() []byte { return []byte{1} },
	})
	builder.AddRegion(Region{
		Name: ".b", Type: elf.SHT_PROGBITS, Align: 256,
		Content: func() []byte { return []byte{2, 3} },
	})
	//
	data, err := builder.Build()
	require.NoError(t, err)
	//
	file, err := elf.NewFile(bytes.NewReader(data))
	require.NoError(t, err)
	// every declared section's offset is aligned as declared
	section := file.Section(".b")
	require.NotNil(t, section)
	assert.Equal(t, uint64(0), section.Offset%256)
	// and the content sits exactly at sh_offset
	assert.Equal(t, []byte{2, 3}, data[section.Offset:section.Offset+2])
	// the section-header table offset is aligned to 8
	shoff := binary.LittleEndian.Uint64(data[40:])
	assert.Equal(t, uint64(0), shoff%8)
}

func Test_Elf_SymTab(t *testing.T) {
	symtab := NewSymTab(true)
	//
	symtab.Add(Symbol{Name: "hello", Value: 16, Size: 4,
		Binding: elf.STB_GLOBAL, Type: elf.STT_FUNC, Section: 1})
	//
	builder := NewBuilder(true, elf.ET_REL, elf.EM_X86_64)
	builder.AddRegion(Region{
		Name: ".text", Type: elf.SHT_PROGBITS,
		Flags: elf.SHF_ALLOC | elf.SHF_EXECINSTR, Align: 16,
		Content: func() []byte { return make([]byte, 32) },
	})
	builder.AddRegion(Region{
		Name: ".strtab", Type: elf.SHT_STRTAB, Align: 1,
		Content: symtab.StrTab,
	})
	builder.AddRegion(Region{
		Name: ".symtab", Type: elf.SHT_SYMTAB, Align: 8,
		LinkName: ".strtab", EntSize: symtab.EntSize(), Info: 1,
		Content: symtab.Bytes,
	})
	//
	data, err := builder.Build()
	require.NoError(t, err)
	//
	file, err := elf.NewFile(bytes.NewReader(data))
	require.NoError(t, err)
	//
	symbols, err := file.Symbols()
	require.NoError(t, err)
	require.Equal(t, 1, len(symbols))
	//
	assert.Equal(t, "hello", symbols[0].Name)
	assert.Equal(t, uint64(16), symbols[0].Value)
	assert.Equal(t, elf.SectionIndex(1), elf.SectionIndex(symbols[0].Section))
}

func Test_Elf_Notes(t *testing.T) {
	notes := NotesBytes([]Note{
		{"AMD", 1, []byte{1, 2, 3}},
		{"AMD", 2, []byte{4}},
	})
	// first note: namesz=4, descsz=3, type=1
	assert.Equal(t, uint32(4), binary.LittleEndian.Uint32(notes[0:]))
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(notes[4:]))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(notes[8:]))
	assert.Equal(t, byte('A'), notes[12])
	// name padded to 4 bytes, desc follows
	assert.Equal(t, byte(1), notes[16])
	// the serialised notes end on a 4-byte boundary
	assert.Equal(t, 0, len(notes)%4)
}

// ===================================================================
// Test Helpers
// ===================================================================

func check_Elf_RoundTrip(t *testing.T, class64 bool) {
	t.Helper()
	//
	builder := NewBuilder(class64, elf.ET_EXEC, elf.EM_X86_64)
	//
	content := []byte{0xde, 0xad, 0xbe, 0xef}
	builder.AddRegion(Region{
		Name: ".text", Type: elf.SHT_PROGBITS,
		Flags: elf.SHF_ALLOC | elf.SHF_EXECINSTR, Align: 16,
		Content: func() []byte { return content },
	})
	//
	data, err := builder.Build()
	require.NoError(t, err)
	//
	file, err := elf.NewFile(bytes.NewReader(data))
	require.NoError(t, err)
	//
	section := file.Section(".text")
	require.NotNil(t, section)
	//
	got, err := section.Data()
	require.NoError(t, err)
	assert.Equal(t, content, got)
}
