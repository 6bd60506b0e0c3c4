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

func Test_AmdCL2_DeviceCodes(t *testing.T) {
	// Tonga is 9 in every band
	code, err := deviceCodeFor(gcn.TONGA, 191205)
	require.NoError(t, err)
	assert.Equal(t, uint32(9), code)
	// Fiji differs per band
	code, err = deviceCodeFor(gcn.FIJI, 180000)
	require.NoError(t, err)
	assert.Equal(t, uint32(16), code)
	//
	code, err = deviceCodeFor(gcn.FIJI, 191205)
	require.NoError(t, err)
	assert.Equal(t, uint32(17), code)
	// unsupported combinations are fatal
	_, err = deviceCodeFor(gcn.TAHITI, 191205)
	assert.Error(t, err)
	//
	_, err = deviceCodeFor(gcn.GFX900, 191205)
	assert.Error(t, err)
	// but become supported in later bands
	code, err = deviceCodeFor(gcn.GFX900, 230000)
	require.NoError(t, err)
	assert.Equal(t, uint32(19), code)
	// Vega refreshes only appear from the 25.27 band on
	_, err = deviceCodeFor(gcn.GFX902, 250000)
	assert.Error(t, err)
	//
	code, err = deviceCodeFor(gcn.GFX902, 255000)
	require.NoError(t, err)
	assert.Equal(t, uint32(24), code)
	// the final band extends to Vega 20
	_, err = deviceCodeFor(gcn.GFX906, 255000)
	assert.Error(t, err)
	//
	code, err = deviceCodeFor(gcn.GFX906, 258000)
	require.NoError(t, err)
	assert.Equal(t, uint32(28), code)
	//
	code, err = deviceCodeFor(gcn.GFX907, 999999)
	require.NoError(t, err)
	assert.Equal(t, uint32(29), code)
}

func Test_AmdCL2_MetadataHeaderSizes(t *testing.T) {
	config := &format.AmdCL2KernelConfig{}
	opts := AmdCL2Options{Device: gcn.TONGA, Is64: true}
	// pre-191205: old layout
	record := buildCL2KernelMetadata(0, config, opts, 180000)
	assert.Equal(t, uint32(0xd8), binary.LittleEndian.Uint32(record[0:]))
	// 191205 band: new layout
	record = buildCL2KernelMetadata(0, config, opts, 191205)
	assert.Equal(t, uint32(0xe0), binary.LittleEndian.Uint32(record[0:]))
	// 200406 band: extended layout
	record = buildCL2KernelMetadata(0, config, opts, 200406)
	assert.Equal(t, uint32(0x110), binary.LittleEndian.Uint32(record[0:]))
	// the second word is the total record size
	assert.Equal(t, uint32(len(record)), binary.LittleEndian.Uint32(record[4:]))
}

func Test_AmdCL2_MetadataFields(t *testing.T) {
	config := &format.AmdCL2KernelConfig{
		ReqdWorkGroupSize: [3]uint32{8, 8, 1},
	}
	//
	record := buildCL2KernelMetadata(2, config, AmdCL2Options{Device: gcn.TONGA, Is64: true}, 191205)
	// options: has-reqd-wg-size | 64-bit
	assert.Equal(t, uint32(0x24), binary.LittleEndian.Uint32(record[8+12:]))
	// kernel id = index + 1024
	assert.Equal(t, uint32(1026), binary.LittleEndian.Uint32(record[8+16:]))
	// unknown2 constants
	assert.Equal(t, uint64(0x0100000008), binary.LittleEndian.Uint64(record[8+28:]))
	assert.Equal(t, uint64(0x0200000001), binary.LittleEndian.Uint64(record[8+36:]))
	// reqd work-group size
	assert.Equal(t, uint32(8), binary.LittleEndian.Uint32(record[8+44:]))
	// the record mentions the dummy kernel name
	assert.Contains(t, string(record), "__OpenCL_dummy_kernel")
	assert.Contains(t, string(record), "generic")
}

func Test_AmdCL2_ArgEntries(t *testing.T) {
	config := &format.AmdCL2KernelConfig{
		Args: []format.KernelArg{
			{Name: "n", TypeName: "uint", ArgType: format.ArgUInt},
			{Name: "data", TypeName: "float*", ArgType: format.ArgPointer,
				PointeeType: format.ArgFloat, PtrSpace: format.PtrSpaceGlobal},
		},
	}
	//
	record := buildCL2KernelMetadata(0, config, AmdCL2Options{Device: gcn.TONGA, Is64: true}, 191205)
	// argument names land in the record
	assert.Contains(t, string(record), "data")
	assert.Contains(t, string(record), "float*")
	// locate the first argument entry: it declares its own size
	idx := bytes.Index(record, []byte{48, 0, 0, 0, 1, 0, 0, 0, 4, 0, 0, 0})
	require.True(t, idx >= 0, "first argument entry not found")
	// running offsets are 16-byte aligned
	first := binary.LittleEndian.Uint32(record[idx+28:])
	assert.Equal(t, uint32(0), first)
}

func Test_AmdCL2_Notes(t *testing.T) {
	notes := buildCL2Notes(AmdCL2Options{Device: gcn.TONGA, Is64: true,
		ArchMinor: 0xffffffff, ArchStepping: 0xffffffff}, 191205)
	//
	assert.Contains(t, string(notes), "AMDGPU")
	assert.Contains(t, string(notes), "-hsa_call_convention")
	// five notes, all named AMD
	count := bytes.Count(notes, []byte("AMD\x00"))
	assert.True(t, count >= 5)
}

func Test_AmdCL2_Container(t *testing.T) {
	var (
		handler = format.NewAmdCL2Handler()
		sink    = asm.NewSink(false)
		cfg     = asm.Config{Device: "tonga", Is64Bit: true, CaseInsensitive: true}
		as      = asm.NewAssembler(cfg, sink, gcn.NewEncoder(), handler, nil)
	)
	//
	src := `
.driver_version 200406
.kernel scale
.dims x
.arg n, "uint", uint
s_endpgm
`
	require.True(t, as.Assemble(source.NewSourceFile("test.s", []byte(src))))
	//
	data, err := GenerateAmdCL2(as, handler, AmdCL2Options{
		Device: gcn.TONGA, Is64: true, ArchMinor: 0xffffffff, ArchStepping: 0xffffffff,
	})
	require.NoError(t, err)
	//
	outer, err := elf.NewFile(bytes.NewReader(data))
	require.NoError(t, err)
	// the outer .text holds the inner device ELF
	innerBytes, err := outer.Section(".text").Data()
	require.NoError(t, err)
	//
	inner, err := elf.NewFile(bytes.NewReader(innerBytes))
	require.NoError(t, err)
	//
	assert.NotNil(t, inner.Section(".hsatext"))
	assert.NotNil(t, inner.Section(".note"))
	//
	symbols, err := inner.Symbols()
	require.NoError(t, err)
	//
	found := false
	for _, sym := range symbols {
		if sym.Name == "&__OpenCL_scale_kernel" {
			found = true
		}
	}
	//
	assert.True(t, found, "kernel symbol missing from inner ELF")
}

func Test_AmdCL2_Samplers(t *testing.T) {
	var (
		handler = format.NewAmdCL2Handler()
		sink    = asm.NewSink(false)
		cfg     = asm.Config{Device: "tonga", Is64Bit: true, CaseInsensitive: true}
		as      = asm.NewAssembler(cfg, sink, gcn.NewEncoder(), handler, nil)
	)
	//
	src := `
.driver_version 200406
.sampler 0x2d, 0x1b
.kernel k
s_endpgm
`
	require.True(t, as.Assemble(source.NewSourceFile("test.s", []byte(src))))
	//
	data, err := GenerateAmdCL2(as, handler, AmdCL2Options{
		Device: gcn.TONGA, Is64: true, ArchMinor: 0xffffffff, ArchStepping: 0xffffffff,
	})
	require.NoError(t, err)
	//
	outer, err := elf.NewFile(bytes.NewReader(data))
	require.NoError(t, err)
	//
	innerBytes, err := outer.Section(".text").Data()
	require.NoError(t, err)
	//
	inner, err := elf.NewFile(bytes.NewReader(innerBytes))
	require.NoError(t, err)
	// each sampler emits (0x10008, value)
	samplerInit, err := inner.Section(".hsaimage_samplerinit").Data()
	require.NoError(t, err)
	require.Equal(t, 16, len(samplerInit))
	//
	assert.Equal(t, uint32(0x10008), binary.LittleEndian.Uint32(samplerInit[0:]))
	assert.Equal(t, uint32(0x2d), binary.LittleEndian.Uint32(samplerInit[4:]))
	assert.Equal(t, uint32(0x1b), binary.LittleEndian.Uint32(samplerInit[12:]))
	// one relocation per sampler binds its symbol
	rela := inner.Section(".rela.hsadata_readonly_agent")
	require.NotNil(t, rela)
	//
	relaData, err := rela.Data()
	require.NoError(t, err)
	assert.Equal(t, 48, len(relaData))
}
