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
package gcn_test

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

func Test_Encoder_SMovInline(t *testing.T) {
	check_Encoder_Words(t, "s_mov_b32 s0, 1\n", 0xbe800381)
}

func Test_Encoder_SMovNegInline(t *testing.T) {
	check_Encoder_Words(t, "s_mov_b32 s1, -1\n", 0xbe8103c1)
}

func Test_Encoder_SMovLiteral(t *testing.T) {
	check_Encoder_Words(t, "s_mov_b32 s0, 1000\n", 0xbe8003ff, 1000)
}

func Test_Encoder_SMovFloatInline(t *testing.T) {
	check_Encoder_Words(t, "s_mov_b32 s0, lit(1.0)\n", 0xbe8003f2)
}

func Test_Encoder_ForwardLiteral(t *testing.T) {
	// a forward symbol claims the literal slot and is patched once defined
	check_Encoder_Words(t, "s_mov_b32 s0, x\n.set x, 7\n", 0xbe8003ff, 7)
}

func Test_Encoder_SMov64(t *testing.T) {
	check_Encoder_Words(t, "s_mov_b64 s[0:1], s[2:3]\n", 0xbe800402)
}

func Test_Encoder_SAdd(t *testing.T) {
	// s_add_u32 s0, s1, s2
	check_Encoder_Words(t, "s_add_u32 s0, s1, s2\n", 0x80000201)
}

func Test_Encoder_SCmp(t *testing.T) {
	check_Encoder_Words(t, "s_cmp_eq_i32 s3, s4\n", 0xbf000403)
}

func Test_Encoder_SMovK(t *testing.T) {
	check_Encoder_Words(t, "s_movk_i32 s5, 0x1234\n", 0xb0051234)
}

func Test_Encoder_EndPgm(t *testing.T) {
	check_Encoder_Words(t, "s_endpgm\n", 0xbf810000)
}

func Test_Encoder_Waitcnt(t *testing.T) {
	check_Encoder_Words(t, "s_waitcnt vmcnt(0)\n", 0xbf8c0f70)
}

func Test_Encoder_BranchBackward(t *testing.T) {
	check_Encoder_Words(t, "start: s_endpgm\ns_branch start\n", 0xbf810000, 0xbf82fffe)
}

func Test_Encoder_BranchForward(t *testing.T) {
	// forward displacement is patched at resolution
	check_Encoder_Words(t, "s_branch end\ns_endpgm\nend: s_endpgm\n",
		0xbf820001, 0xbf810000, 0xbf810000)
}

func Test_Encoder_VMov(t *testing.T) {
	check_Encoder_Words(t, "v_mov_b32 v1, v2\n", 0x7e020302)
}

func Test_Encoder_VMovScalarSrc(t *testing.T) {
	check_Encoder_Words(t, "v_mov_b32 v0, s3\n", 0x7e000203)
}

func Test_Encoder_VAdd(t *testing.T) {
	// v_add_f32 v0, v1, v2 (VOP2 op 3 on GCN 1.0)
	check_Encoder_Words(t, "v_add_f32 v0, v1, v2\n", 0x06000501)
}

func Test_Encoder_VCmp(t *testing.T) {
	// v_cmp_eq_i32 vcc, v1, v2
	check_Encoder_Words(t, "v_cmp_eq_i32 vcc, v1, v2\n", 0x7d040501)
}

func Test_Encoder_Sdwa(t *testing.T) {
	as := assembleGCN(t, "tonga", ".text\nv_mov_b32_sdwa v1, v2 dst_sel:byte0\n")
	//
	for _, diag := range as.Sink().Diagnostics {
		t.Logf("%s", diag.String())
	}
	//
	require.True(t, as.Good())
	//
	code := codeOf(t, as)
	require.Equal(t, 8, len(code))
	assert.Equal(t, uint32(0x7e0202f9), binary.LittleEndian.Uint32(code[0:]))
	assert.Equal(t, uint32(0x06060002), binary.LittleEndian.Uint32(code[4:]))
}

func Test_Encoder_Dpp(t *testing.T) {
	as := assembleGCN(t, "tonga", ".text\nv_add_f32_dpp v0, v1, v2 row_shl:1\n")
	//
	require.True(t, as.Good())
	//
	code := codeOf(t, as)
	require.Equal(t, 8, len(code))
	assert.Equal(t, uint32(0x020004fa), binary.LittleEndian.Uint32(code[0:]))
	assert.Equal(t, uint32(0xff010101), binary.LittleEndian.Uint32(code[4:]))
	// the control word counts as part of the instruction
	assert.Equal(t, uint64(8), gcn.InstructionSize(gcn.GCN12, code, 0).Size)
}

func Test_Encoder_SdwaNeedsGCN12(t *testing.T) {
	check_Encoder_Fails(t, "v_mov_b32_sdwa v1, v2\n")
}

func Test_Encoder_DSRead(t *testing.T) {
	check_Encoder_Words(t, "ds_read_b32 v1, v2 offset:16\n", 0xd8d80010, 0x01000002)
}

func Test_Encoder_SLoad(t *testing.T) {
	// s_load_dword s4, s[0:1], 0x4
	check_Encoder_Words(t, "s_load_dword s4, s[0:1], 0x4\n", 0xc0020104)
}

func Test_Encoder_TwoLiteralsFail(t *testing.T) {
	check_Encoder_Fails(t, "s_add_u32 s0, 100000, 200000\n")
}

func Test_Encoder_MisalignedRangeFails(t *testing.T) {
	check_Encoder_Fails(t, "s_mov_b64 s[1:2], s[4:5]\n")
}

func Test_Encoder_WrongSizeFails(t *testing.T) {
	check_Encoder_Fails(t, "s_mov_b32 s[0:1], s2\n")
}

func Test_Encoder_UnknownMnemonicFails(t *testing.T) {
	check_Encoder_Fails(t, "s_bogus_b32 s0, s1\n")
}

func Test_Encoder_ArchGating(t *testing.T) {
	// flat addressing does not exist on GCN 1.0
	check_Encoder_Fails(t, "flat_load_dword v0, v[2:3]\n")
	// but does on GCN 1.1
	as := assembleGCN(t, "bonaire", ".text\nflat_load_dword v0, v[2:3]\n")
	assert.True(t, as.Good())
}

func Test_Encoder_DeviceDispatch(t *testing.T) {
	// the same mnemonic encodes differently across variants
	tahiti := codeOf(t, assembleGCN(t, "tahiti", ".text\ns_mov_b32 s0, s1\n"))
	tonga := codeOf(t, assembleGCN(t, "tonga", ".text\ns_mov_b32 s0, s1\n"))
	//
	assert.Equal(t, uint32(0xbe800301), binary.LittleEndian.Uint32(tahiti))
	assert.Equal(t, uint32(0xbe800001), binary.LittleEndian.Uint32(tonga))
}

func Test_Encoder_SizeRoundTrip(t *testing.T) {
	// the decoded size of every emitted instruction equals what was written
	sources := []string{
		"s_mov_b32 s0, 1\n",
		"s_mov_b32 s0, 1000\n",
		"v_mov_b32 v0, v1\n",
		"v_add_f32 v0, v1, v2\n",
		"s_endpgm\n",
		"ds_read_b32 v1, v2\n",
		"s_load_dword s4, s[0:1], 0\n",
	}
	//
	for _, src := range sources {
		code := codeOf(t, assembleGCN(t, "capeverde", ".text\n"+src))
		//
		total := uint64(0)
		for total < uint64(len(code)) {
			total += gcn.InstructionSize(gcn.GCN10, code, total).Size
		}
		//
		assert.Equal(t, uint64(len(code)), total, "round-trip of %q", src)
	}
}

func Test_Encoder_InstructionCounting(t *testing.T) {
	code := codeOf(t, assembleGCN(t, "capeverde",
		".text\ns_load_dword s4, s[0:1], 0\nds_read_b32 v1, v2\ns_endpgm\n"))
	//
	instrs, global, local := gcn.CountInstructions(gcn.GCN10, code)
	//
	assert.Equal(t, uint32(3), instrs)
	assert.Equal(t, uint32(1), global)
	assert.Equal(t, uint32(1), local)
}

func Test_Encoder_CodeFlow(t *testing.T) {
	as := assembleGCN(t, "capeverde",
		".text\nstart: s_cbranch_scc0 start\ns_branch start\ns_endpgm\n")
	//
	require.True(t, as.Good())
	//
	sect := textOf(as)
	require.Equal(t, 3, len(sect.CodeFlow))
	//
	assert.Equal(t, asm.FLOW_CJUMP, sect.CodeFlow[0].Kind)
	assert.Equal(t, asm.FLOW_JUMP, sect.CodeFlow[1].Kind)
	assert.Equal(t, asm.FLOW_END, sect.CodeFlow[2].Kind)
	assert.Equal(t, uint64(0), sect.CodeFlow[0].Target)
}

// ===================================================================
// Test Helpers
// ===================================================================

func assembleGCN(t *testing.T, device string, src string) *asm.Assembler {
	t.Helper()
	//
	var (
		sink = asm.NewSink(false)
		cfg  = asm.Config{Device: device, CaseInsensitive: true}
		as   = asm.NewAssembler(cfg, sink, gcn.NewEncoder(), format.NewRawHandler(), nil)
	)
	//
	as.Assemble(source.NewSourceFile("test.s", []byte(src)))
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

func codeOf(t *testing.T, as *asm.Assembler) []byte {
	t.Helper()
	//
	sect := textOf(as)
	require.NotNil(t, sect)
	//
	return sect.Content
}

func check_Encoder_Words(t *testing.T, src string, words ...uint32) {
	t.Helper()
	//
	as := assembleGCN(t, "capeverde", ".text\n"+src)
	//
	for _, diag := range as.Sink().Diagnostics {
		t.Logf("%s", diag.String())
	}
	//
	require.True(t, as.Good())
	//
	code := codeOf(t, as)
	require.Equal(t, 4*len(words), len(code))
	//
	for i, word := range words {
		assert.Equal(t, word, binary.LittleEndian.Uint32(code[i*4:]), "word %d", i)
	}
}

func check_Encoder_Fails(t *testing.T, src string) {
	t.Helper()
	//
	as := assembleGCN(t, "capeverde", ".text\n"+src)
	assert.False(t, as.Good())
}
