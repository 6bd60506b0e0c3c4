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
package alloc

import (
	"encoding/binary"
	"testing"

	"github.com/consensys/go-gcnasm/pkg/asm"
	"github.com/consensys/go-gcnasm/pkg/format"
	"github.com/consensys/go-gcnasm/pkg/gcn"
	"github.com/consensys/go-gcnasm/pkg/util/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Alloc_DistinctRegisters(t *testing.T) {
	// two conflicting regvars receive distinct registers
	as := assembleWithAlloc(t, `
.text
.regvar ra:s:1, rb:s:1
s_mov_b32 ra, 0
s_mov_b32 rb, 1
s_add_u32 ra, ra, rb
s_endpgm
`)
	//
	require.True(t, as.Good())
	//
	code := textOf(as).Content
	first := binary.LittleEndian.Uint32(code[0:]) >> 16 & 0x7f
	second := binary.LittleEndian.Uint32(code[4:]) >> 16 & 0x7f
	//
	assert.NotEqual(t, first, second)
}

func Test_Alloc_EqualToDep(t *testing.T) {
	// with an equal-to dependency both regvars share one register
	var (
		section, rvA, rvB = syntheticSection()
	)
	//
	section.EqualDeps = append(section.EqualDeps, asm.EqualToDep{First: rvA, Second: rvB})
	//
	blocks := createCodeStructure(section, sizeOf)
	data := createSSAData(section, blocks)
	find := data.unionFind()
	graphs := buildInterference(section, data, find)
	//
	leader := equalClasses(section, graphs[asm.SGPR], asm.SGPR)
	require.True(t, colourGraph(graphs[asm.SGPR], leader, 100))
	//
	graph := graphs[asm.SGPR]
	idxA, okA := graph.index[find(ssaKey{rvA, 1})]
	idxB, okB := graph.index[find(ssaKey{rvB, 1})]
	//
	require.True(t, okA)
	require.True(t, okB)
	assert.Equal(t, graph.vertices[idxA].colour, graph.vertices[idxB].colour)
}

func Test_Alloc_InterferenceColouring(t *testing.T) {
	// invariant: adjacent vertices never share a colour
	section, _, _ := syntheticSection()
	//
	blocks := createCodeStructure(section, sizeOf)
	data := createSSAData(section, blocks)
	find := data.unionFind()
	graphs := buildInterference(section, data, find)
	leader := equalClasses(section, graphs[asm.SGPR], asm.SGPR)
	//
	require.True(t, colourGraph(graphs[asm.SGPR], leader, 100))
	//
	graph := graphs[asm.SGPR]
	//
	for i, v := range graph.vertices {
		for adj := range v.edges {
			if leader[i] == leader[adj] {
				continue
			}
			//
			assert.NotEqual(t, v.colour, graph.vertices[adj].colour,
				"vertices %d and %d interfere", i, adj)
		}
	}
}

func Test_Alloc_Idempotent(t *testing.T) {
	// running the allocator twice over the same SSA'd input yields the same
	// assignment
	section, _, _ := syntheticSection()
	//
	run := func() []uint16 {
		blocks := createCodeStructure(section, sizeOf)
		data := createSSAData(section, blocks)
		find := data.unionFind()
		graphs := buildInterference(section, data, find)
		leader := equalClasses(section, graphs[asm.SGPR], asm.SGPR)
		require.True(t, colourGraph(graphs[asm.SGPR], leader, 100))
		//
		var colours []uint16
		for _, v := range graphs[asm.SGPR].vertices {
			colours = append(colours, v.colour)
		}
		//
		return colours
	}
	//
	assert.Equal(t, run(), run())
}

func Test_Alloc_NotEnoughRegisters(t *testing.T) {
	as := assembleWithAlloc(t, `
.text
.regvar big:v:200, huge:v:100
v_mov_b32 big[0], 0
v_mov_b32 huge[0], 1
v_add_f32 big[0], big[0], huge[0]
s_endpgm
`)
	//
	assert.False(t, as.Good())
}

func Test_Alloc_WideRegvar(t *testing.T) {
	// a multi-register regvar occupies consecutive registers; its pair
	// alignment is honoured
	as := assembleWithAlloc(t, `
.text
.regvar pair:s:2, single:s:1
s_mov_b64 pair, s[2:3]
s_mov_b32 single, 0
s_add_u32 single, single, pair[0]
s_endpgm
`)
	//
	require.True(t, as.Good())
	//
	code := textOf(as).Content
	pairDst := binary.LittleEndian.Uint32(code[0:]) >> 16 & 0x7f
	//
	assert.Equal(t, uint32(0), pairDst%2)
}

// ===================================================================
// Test Helpers
// ===================================================================

// sizeOf decodes instruction sizes the way the encoder does.
func sizeOf(code []byte, offset uint64) uint64 {
	return gcn.InstructionSize(gcn.GCN10, code, offset).Size
}

// syntheticSection builds a tiny code section with two regvars whose live
// ranges overlap: both written, then both read by a final instruction.
func syntheticSection() (*asm.Section, *asm.RegVar, *asm.RegVar) {
	var (
		rvA  = &asm.RegVar{Name: "a", Type: asm.SGPR, Count: 1}
		rvB  = &asm.RegVar{Name: "b", Type: asm.SGPR, Count: 1}
		sect = &asm.Section{Name: ".text", Flags: asm.SECT_CODE | asm.SECT_WRITEABLE}
	)
	// four 4-byte scalar instructions
	sect.PutUint(0xbe800380, 4) // s_mov_b32 ?, 0
	sect.PutUint(0xbe800381, 4) // s_mov_b32 ?, 1
	sect.PutUint(0x80000000, 4) // s_add_u32 ?, ?, ?
	sect.PutUint(0xbf810000, 4) // s_endpgm
	//
	sect.CodeFlow = []asm.CodeFlowEntry{{Offset: 12, Kind: asm.FLOW_END}}
	//
	sect.RVUs = []asm.RVU{
		{Offset: 0, RegVar: rvA, Start: 0, End: 1, Access: asm.ACCESS_WRITE, Align: 1},
		{Offset: 4, RegVar: rvB, Start: 0, End: 1, Access: asm.ACCESS_WRITE, Align: 1},
		{Offset: 8, RegVar: rvA, Start: 0, End: 1, Access: asm.ACCESS_WRITE, Align: 1},
		{Offset: 8, RegVar: rvA, Start: 0, End: 1, Access: asm.ACCESS_READ, Align: 1},
		{Offset: 8, RegVar: rvB, Start: 0, End: 1, Access: asm.ACCESS_READ, Align: 1},
	}
	//
	return sect, rvA, rvB
}

func assembleWithAlloc(t *testing.T, src string) *asm.Assembler {
	t.Helper()
	//
	var (
		sink = asm.NewSink(false)
		cfg  = asm.Config{Device: "capeverde", CaseInsensitive: true}
		as   = asm.NewAssembler(cfg, sink, gcn.NewEncoder(), format.NewRawHandler(), NewAllocator())
	)
	//
	as.Assemble(source.NewSourceFile("test.s", []byte(src)))
	//
	for _, diag := range sink.Diagnostics {
		t.Logf("%s", diag.String())
	}
	//
	return as
}

func textOf(as *asm.Assembler) *asm.Section {
	for _, sect := range as.Sections() {
		if sect.Name == ".text" {
			return sect
		}
	}
	//
	return nil
}
