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

	"github.com/consensys/go-gcnasm/pkg/asm"
	"github.com/consensys/go-gcnasm/pkg/format"
	"github.com/consensys/go-gcnasm/pkg/gcn"
	"github.com/consensys/go-gcnasm/pkg/util/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_AmdBin_Container(t *testing.T) {
	as, handler := assembleAmd(t, `
.kernel test
.dims xy
.localsize 256
s_mov_b32 s0, 0
s_endpgm
`)
	//
	require.True(t, as.Good())
	//
	data, err := GenerateAmd(as, handler, gcn.PITCAIRN, false)
	require.NoError(t, err)
	//
	file, err := elf.NewFile(bytes.NewReader(data))
	require.NoError(t, err)
	// the prescribed section set exists
	for _, name := range []string{".shstrtab", ".strtab", ".symtab", ".comment", ".rodata", ".text"} {
		assert.NotNil(t, file.Section(name), "missing %s", name)
	}
	//
	text, err := file.Section(".text").Data()
	require.NoError(t, err)
	//
	codeSize := uint32(8)
	// stub header
	assert.Equal(t, uint32(0xa60), binary.LittleEndian.Uint32(text[0:]))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(text[4:])) // instrs_num
	assert.Equal(t, codeSize, binary.LittleEndian.Uint32(text[0x24:]))
	// stub trailer
	assert.Equal(t, uint64(0xa60), binary.LittleEndian.Uint64(text[0x9a0:]))
	assert.Equal(t, uint32(0x100), binary.LittleEndian.Uint32(text[0x9a8:]))
	assert.Equal(t, codeSize+0x100, binary.LittleEndian.Uint32(text[0x9ac:]))
	assert.Equal(t, uint32(0x200), binary.LittleEndian.Uint32(text[0x9b8:]))
	assert.Equal(t, uint64(codeSize)+0xb60, binary.LittleEndian.Uint64(text[0x9c0:]))
	assert.Equal(t, uint64(codeSize)+0xb60, binary.LittleEndian.Uint64(text[0x9d0:]))
	assert.Equal(t, uint32(256), binary.LittleEndian.Uint32(text[0x9a0+0x6c:]))
	assert.Equal(t, uint32(0xffffffff), binary.LittleEndian.Uint32(text[0x9a0+0x70:]))
	// code follows the stub and setup
	code := text[amdStubSize+amdSetupSize:]
	assert.Equal(t, uint32(0xbe800380), binary.LittleEndian.Uint32(code[0:]))
	assert.Equal(t, uint32(0xbf810000), binary.LittleEndian.Uint32(code[4:]))
	// kernel symbols are present
	symbols, err := file.Symbols()
	require.NoError(t, err)
	//
	names := make([]string, len(symbols))
	for i, sym := range symbols {
		names[i] = sym.Name
	}
	//
	assert.Contains(t, names, "&__OpenCL_test_kernel")
	assert.Contains(t, names, "&__OpenCL_test_metadata")
}

func Test_AmdBin_64Bit(t *testing.T) {
	as, handler := assembleAmd(t, ".kernel k\ns_endpgm\n")
	require.True(t, as.Good())
	//
	data, err := GenerateAmd(as, handler, gcn.PITCAIRN, true)
	require.NoError(t, err)
	//
	file, err := elf.NewFile(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, elf.ELFCLASS64, file.Class)
}

// ===================================================================
// Test Helpers
// ===================================================================

func assembleAmd(t *testing.T, src string) (*asm.Assembler, *format.AmdHandler) {
	t.Helper()
	//
	var (
		handler = format.NewAmdHandler()
		sink    = asm.NewSink(false)
		cfg     = asm.Config{Device: "pitcairn", CaseInsensitive: true}
		as      = asm.NewAssembler(cfg, sink, gcn.NewEncoder(), handler, nil)
	)
	//
	as.Assemble(source.NewSourceFile("test.s", []byte(src)))
	//
	for _, diag := range sink.Diagnostics {
		t.Logf("%s", diag.String())
	}
	//
	return as, handler
}
