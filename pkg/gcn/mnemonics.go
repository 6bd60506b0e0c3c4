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
	"sort"

	"github.com/samber/lo"
)

// The mnemonic table.  Sorted by mnemonic at init time; entries whose
// opcode differs between variants appear once per variant with disjoint
// masks.  Table rows compress the common case with helper constructors.
var mnemonicTable = buildMnemonicTable()

func ins(mnemonic string, archs ArchMask, form uint8, code uint16) GCNInsn {
	return GCNInsn{mnemonic, archs, form, code, BRANCH_NONE, INSTRTYPE_OTHER}
}

func branch(mnemonic string, archs ArchMask, form uint8, code uint16, kind uint8) GCNInsn {
	return GCNInsn{mnemonic, archs, form, code, kind, INSTRTYPE_OTHER}
}

func mem(mnemonic string, archs ArchMask, form uint8, code uint16, class uint8) GCNInsn {
	return GCNInsn{mnemonic, archs, form, code, BRANCH_NONE, class}
}

//nolint:funlen
func buildMnemonicTable() []GCNInsn {
	table := []GCNInsn{
		// ==== SOP1 ==========================================================
		ins("s_mov_b32", MaskGCN10|MaskGCN11, SOP1, 3),
		ins("s_mov_b32", MaskGCN12p, SOP1, 0),
		ins("s_mov_b64", MaskGCN10|MaskGCN11, SOP1, 4),
		ins("s_mov_b64", MaskGCN12p, SOP1, 1),
		ins("s_cmov_b32", MaskGCN10|MaskGCN11, SOP1, 5),
		ins("s_cmov_b32", MaskGCN12p, SOP1, 2),
		ins("s_cmov_b64", MaskGCN10|MaskGCN11, SOP1, 6),
		ins("s_cmov_b64", MaskGCN12p, SOP1, 3),
		ins("s_not_b32", MaskGCN10|MaskGCN11, SOP1, 7),
		ins("s_not_b32", MaskGCN12p, SOP1, 4),
		ins("s_not_b64", MaskGCN10|MaskGCN11, SOP1, 8),
		ins("s_not_b64", MaskGCN12p, SOP1, 5),
		ins("s_wqm_b32", MaskGCN10|MaskGCN11, SOP1, 9),
		ins("s_wqm_b32", MaskGCN12p, SOP1, 6),
		ins("s_wqm_b64", MaskGCN10|MaskGCN11, SOP1, 10),
		ins("s_wqm_b64", MaskGCN12p, SOP1, 7),
		ins("s_brev_b32", MaskGCN10|MaskGCN11, SOP1, 11),
		ins("s_brev_b32", MaskGCN12p, SOP1, 8),
		ins("s_brev_b64", MaskGCN10|MaskGCN11, SOP1, 12),
		ins("s_brev_b64", MaskGCN12p, SOP1, 9),
		ins("s_bcnt0_i32_b32", MaskGCN10|MaskGCN11, SOP1, 13),
		ins("s_bcnt0_i32_b32", MaskGCN12p, SOP1, 10),
		ins("s_bcnt1_i32_b32", MaskGCN10|MaskGCN11, SOP1, 15),
		ins("s_bcnt1_i32_b32", MaskGCN12p, SOP1, 12),
		ins("s_ff0_i32_b32", MaskGCN10|MaskGCN11, SOP1, 17),
		ins("s_ff0_i32_b32", MaskGCN12p, SOP1, 14),
		ins("s_ff1_i32_b32", MaskGCN10|MaskGCN11, SOP1, 19),
		ins("s_ff1_i32_b32", MaskGCN12p, SOP1, 16),
		ins("s_sext_i32_i8", MaskGCN10|MaskGCN11, SOP1, 25),
		ins("s_sext_i32_i8", MaskGCN12p, SOP1, 22),
		ins("s_sext_i32_i16", MaskGCN10|MaskGCN11, SOP1, 26),
		ins("s_sext_i32_i16", MaskGCN12p, SOP1, 23),
		ins("s_bitset0_b32", MaskGCN10|MaskGCN11, SOP1, 27),
		ins("s_bitset0_b32", MaskGCN12p, SOP1, 24),
		ins("s_bitset1_b32", MaskGCN10|MaskGCN11, SOP1, 29),
		ins("s_bitset1_b32", MaskGCN12p, SOP1, 26),
		ins("s_getpc_b64", MaskGCN10|MaskGCN11, SOP1, 31),
		ins("s_getpc_b64", MaskGCN12p, SOP1, 28),
		branch("s_setpc_b64", MaskGCN10|MaskGCN11, SOP1, 32, BRANCH_RETURN),
		branch("s_setpc_b64", MaskGCN12p, SOP1, 29, BRANCH_RETURN),
		branch("s_swappc_b64", MaskGCN10|MaskGCN11, SOP1, 33, BRANCH_CALL),
		branch("s_swappc_b64", MaskGCN12p, SOP1, 30, BRANCH_CALL),
		ins("s_rfe_b64", MaskGCN10|MaskGCN11, SOP1, 34),
		ins("s_rfe_b64", MaskGCN12p, SOP1, 31),
		ins("s_and_saveexec_b64", MaskGCN10|MaskGCN11, SOP1, 36),
		ins("s_and_saveexec_b64", MaskGCN12p, SOP1, 32),
		ins("s_or_saveexec_b64", MaskGCN10|MaskGCN11, SOP1, 37),
		ins("s_or_saveexec_b64", MaskGCN12p, SOP1, 33),
		ins("s_xor_saveexec_b64", MaskGCN10|MaskGCN11, SOP1, 38),
		ins("s_xor_saveexec_b64", MaskGCN12p, SOP1, 34),
		// ==== SOP2 ==========================================================
		ins("s_add_u32", MaskGCNAll, SOP2, 0),
		ins("s_sub_u32", MaskGCNAll, SOP2, 1),
		ins("s_add_i32", MaskGCNAll, SOP2, 2),
		ins("s_sub_i32", MaskGCNAll, SOP2, 3),
		ins("s_addc_u32", MaskGCNAll, SOP2, 4),
		ins("s_subb_u32", MaskGCNAll, SOP2, 5),
		ins("s_min_i32", MaskGCNAll, SOP2, 6),
		ins("s_min_u32", MaskGCNAll, SOP2, 7),
		ins("s_max_i32", MaskGCNAll, SOP2, 8),
		ins("s_max_u32", MaskGCNAll, SOP2, 9),
		ins("s_cselect_b32", MaskGCNAll, SOP2, 10),
		ins("s_cselect_b64", MaskGCNAll, SOP2, 11),
		ins("s_and_b32", MaskGCN10|MaskGCN11, SOP2, 14),
		ins("s_and_b32", MaskGCN12p, SOP2, 12),
		ins("s_and_b64", MaskGCN10|MaskGCN11, SOP2, 15),
		ins("s_and_b64", MaskGCN12p, SOP2, 13),
		ins("s_or_b32", MaskGCN10|MaskGCN11, SOP2, 16),
		ins("s_or_b32", MaskGCN12p, SOP2, 14),
		ins("s_or_b64", MaskGCN10|MaskGCN11, SOP2, 17),
		ins("s_or_b64", MaskGCN12p, SOP2, 15),
		ins("s_xor_b32", MaskGCN10|MaskGCN11, SOP2, 18),
		ins("s_xor_b32", MaskGCN12p, SOP2, 16),
		ins("s_xor_b64", MaskGCN10|MaskGCN11, SOP2, 19),
		ins("s_xor_b64", MaskGCN12p, SOP2, 17),
		ins("s_andn2_b32", MaskGCN10|MaskGCN11, SOP2, 20),
		ins("s_andn2_b32", MaskGCN12p, SOP2, 18),
		ins("s_andn2_b64", MaskGCN10|MaskGCN11, SOP2, 21),
		ins("s_andn2_b64", MaskGCN12p, SOP2, 19),
		ins("s_orn2_b32", MaskGCN10|MaskGCN11, SOP2, 22),
		ins("s_orn2_b32", MaskGCN12p, SOP2, 20),
		ins("s_nand_b32", MaskGCN10|MaskGCN11, SOP2, 24),
		ins("s_nand_b32", MaskGCN12p, SOP2, 22),
		ins("s_nor_b32", MaskGCN10|MaskGCN11, SOP2, 26),
		ins("s_nor_b32", MaskGCN12p, SOP2, 24),
		ins("s_xnor_b32", MaskGCN10|MaskGCN11, SOP2, 28),
		ins("s_xnor_b32", MaskGCN12p, SOP2, 26),
		ins("s_lshl_b32", MaskGCN10|MaskGCN11, SOP2, 30),
		ins("s_lshl_b32", MaskGCN12p, SOP2, 28),
		ins("s_lshl_b64", MaskGCN10|MaskGCN11, SOP2, 31),
		ins("s_lshl_b64", MaskGCN12p, SOP2, 29),
		ins("s_lshr_b32", MaskGCN10|MaskGCN11, SOP2, 32),
		ins("s_lshr_b32", MaskGCN12p, SOP2, 30),
		ins("s_lshr_b64", MaskGCN10|MaskGCN11, SOP2, 33),
		ins("s_lshr_b64", MaskGCN12p, SOP2, 31),
		ins("s_ashr_i32", MaskGCN10|MaskGCN11, SOP2, 34),
		ins("s_ashr_i32", MaskGCN12p, SOP2, 32),
		ins("s_ashr_i64", MaskGCN10|MaskGCN11, SOP2, 35),
		ins("s_ashr_i64", MaskGCN12p, SOP2, 33),
		ins("s_bfm_b32", MaskGCN10|MaskGCN11, SOP2, 36),
		ins("s_bfm_b32", MaskGCN12p, SOP2, 34),
		ins("s_mul_i32", MaskGCN10|MaskGCN11, SOP2, 38),
		ins("s_mul_i32", MaskGCN12p, SOP2, 36),
		ins("s_bfe_u32", MaskGCN10|MaskGCN11, SOP2, 39),
		ins("s_bfe_u32", MaskGCN12p, SOP2, 37),
		ins("s_bfe_i32", MaskGCN10|MaskGCN11, SOP2, 40),
		ins("s_bfe_i32", MaskGCN12p, SOP2, 38),
		ins("s_absdiff_i32", MaskGCN10|MaskGCN11, SOP2, 44),
		ins("s_absdiff_i32", MaskGCN12p, SOP2, 42),
		// ==== SOPK ==========================================================
		ins("s_movk_i32", MaskGCNAll, SOPK, 0),
		ins("s_cmovk_i32", MaskGCN10|MaskGCN11, SOPK, 2),
		ins("s_cmovk_i32", MaskGCN12p, SOPK, 1),
		ins("s_cmpk_eq_i32", MaskGCN10|MaskGCN11, SOPK, 3),
		ins("s_cmpk_eq_i32", MaskGCN12p, SOPK, 2),
		ins("s_cmpk_lg_i32", MaskGCN10|MaskGCN11, SOPK, 4),
		ins("s_cmpk_lg_i32", MaskGCN12p, SOPK, 3),
		ins("s_cmpk_gt_i32", MaskGCN10|MaskGCN11, SOPK, 5),
		ins("s_cmpk_gt_i32", MaskGCN12p, SOPK, 4),
		ins("s_cmpk_ge_i32", MaskGCN10|MaskGCN11, SOPK, 6),
		ins("s_cmpk_ge_i32", MaskGCN12p, SOPK, 5),
		ins("s_cmpk_lt_i32", MaskGCN10|MaskGCN11, SOPK, 7),
		ins("s_cmpk_lt_i32", MaskGCN12p, SOPK, 6),
		ins("s_cmpk_le_i32", MaskGCN10|MaskGCN11, SOPK, 8),
		ins("s_cmpk_le_i32", MaskGCN12p, SOPK, 7),
		ins("s_addk_i32", MaskGCN10|MaskGCN11, SOPK, 15),
		ins("s_addk_i32", MaskGCN12p, SOPK, 14),
		ins("s_mulk_i32", MaskGCN10|MaskGCN11, SOPK, 16),
		ins("s_mulk_i32", MaskGCN12p, SOPK, 15),
		ins("s_getreg_b32", MaskGCN10|MaskGCN11, SOPK, 18),
		ins("s_getreg_b32", MaskGCN12p, SOPK, 17),
		ins("s_setreg_b32", MaskGCN10|MaskGCN11, SOPK, 19),
		ins("s_setreg_b32", MaskGCN12p, SOPK, 18),
		branch("s_call_b64", MaskGCN14, SOPK, 21, BRANCH_CALL),
		// ==== SOPC ==========================================================
		ins("s_cmp_eq_i32", MaskGCNAll, SOPC, 0),
		ins("s_cmp_lg_i32", MaskGCNAll, SOPC, 1),
		ins("s_cmp_gt_i32", MaskGCNAll, SOPC, 2),
		ins("s_cmp_ge_i32", MaskGCNAll, SOPC, 3),
		ins("s_cmp_lt_i32", MaskGCNAll, SOPC, 4),
		ins("s_cmp_le_i32", MaskGCNAll, SOPC, 5),
		ins("s_cmp_eq_u32", MaskGCNAll, SOPC, 6),
		ins("s_cmp_lg_u32", MaskGCNAll, SOPC, 7),
		ins("s_cmp_gt_u32", MaskGCNAll, SOPC, 8),
		ins("s_cmp_ge_u32", MaskGCNAll, SOPC, 9),
		ins("s_cmp_lt_u32", MaskGCNAll, SOPC, 10),
		ins("s_cmp_le_u32", MaskGCNAll, SOPC, 11),
		ins("s_bitcmp0_b32", MaskGCNAll, SOPC, 12),
		ins("s_bitcmp1_b32", MaskGCNAll, SOPC, 13),
		ins("s_bitcmp0_b64", MaskGCNAll, SOPC, 14),
		ins("s_bitcmp1_b64", MaskGCNAll, SOPC, 15),
		// ==== SOPP ==========================================================
		ins("s_nop", MaskGCNAll, SOPP, 0),
		branch("s_endpgm", MaskGCNAll, SOPP, 1, BRANCH_END),
		branch("s_branch", MaskGCNAll, SOPP, 2, BRANCH_JUMP),
		branch("s_cbranch_scc0", MaskGCNAll, SOPP, 4, BRANCH_CJUMP),
		branch("s_cbranch_scc1", MaskGCNAll, SOPP, 5, BRANCH_CJUMP),
		branch("s_cbranch_vccz", MaskGCNAll, SOPP, 6, BRANCH_CJUMP),
		branch("s_cbranch_vccnz", MaskGCNAll, SOPP, 7, BRANCH_CJUMP),
		branch("s_cbranch_execz", MaskGCNAll, SOPP, 8, BRANCH_CJUMP),
		branch("s_cbranch_execnz", MaskGCNAll, SOPP, 9, BRANCH_CJUMP),
		ins("s_barrier", MaskGCNAll, SOPP, 10),
		ins("s_waitcnt", MaskGCNAll, SOPP, 12),
		ins("s_sethalt", MaskGCNAll, SOPP, 13),
		ins("s_sleep", MaskGCNAll, SOPP, 14),
		ins("s_setprio", MaskGCNAll, SOPP, 15),
		ins("s_sendmsg", MaskGCNAll, SOPP, 16),
		ins("s_sendmsghalt", MaskGCNAll, SOPP, 17),
		ins("s_trap", MaskGCNAll, SOPP, 18),
		ins("s_icache_inv", MaskGCNAll, SOPP, 19),
		ins("s_ttracedata", MaskGCNAll, SOPP, 22),
		// ==== SMRD/SMEM =====================================================
		mem("s_load_dword", MaskGCNAll, SMRD, 0, INSTRTYPE_GLOBAL),
		mem("s_load_dwordx2", MaskGCNAll, SMRD, 1, INSTRTYPE_GLOBAL),
		mem("s_load_dwordx4", MaskGCNAll, SMRD, 2, INSTRTYPE_GLOBAL),
		mem("s_load_dwordx8", MaskGCNAll, SMRD, 3, INSTRTYPE_GLOBAL),
		mem("s_load_dwordx16", MaskGCNAll, SMRD, 4, INSTRTYPE_GLOBAL),
		mem("s_buffer_load_dword", MaskGCNAll, SMRD, 8, INSTRTYPE_GLOBAL),
		mem("s_buffer_load_dwordx2", MaskGCNAll, SMRD, 9, INSTRTYPE_GLOBAL),
		mem("s_buffer_load_dwordx4", MaskGCNAll, SMRD, 10, INSTRTYPE_GLOBAL),
		mem("s_buffer_load_dwordx8", MaskGCNAll, SMRD, 11, INSTRTYPE_GLOBAL),
		mem("s_buffer_load_dwordx16", MaskGCNAll, SMRD, 12, INSTRTYPE_GLOBAL),
		mem("s_store_dword", MaskGCN12p, SMRD, 16, INSTRTYPE_GLOBAL),
		mem("s_store_dwordx2", MaskGCN12p, SMRD, 17, INSTRTYPE_GLOBAL),
		mem("s_store_dwordx4", MaskGCN12p, SMRD, 18, INSTRTYPE_GLOBAL),
		mem("s_memtime", MaskGCN10|MaskGCN11, SMRD, 30, INSTRTYPE_GLOBAL),
		mem("s_memtime", MaskGCN12p, SMRD, 36, INSTRTYPE_GLOBAL),
		mem("s_dcache_inv", MaskGCN10|MaskGCN11, SMRD, 31, INSTRTYPE_GLOBAL),
		mem("s_dcache_inv", MaskGCN12p, SMRD, 32, INSTRTYPE_GLOBAL),
		// ==== VOP2 ==========================================================
		ins("v_cndmask_b32", MaskGCN10|MaskGCN11, VOP2, 0),
		ins("v_cndmask_b32", MaskGCN12p, VOP2, 0),
		ins("v_add_f32", MaskGCN10|MaskGCN11, VOP2, 3),
		ins("v_add_f32", MaskGCN12p, VOP2, 1),
		ins("v_sub_f32", MaskGCN10|MaskGCN11, VOP2, 4),
		ins("v_sub_f32", MaskGCN12p, VOP2, 2),
		ins("v_subrev_f32", MaskGCN10|MaskGCN11, VOP2, 5),
		ins("v_subrev_f32", MaskGCN12p, VOP2, 3),
		ins("v_mul_legacy_f32", MaskGCN10|MaskGCN11, VOP2, 7),
		ins("v_mul_legacy_f32", MaskGCN12p, VOP2, 4),
		ins("v_mul_f32", MaskGCN10|MaskGCN11, VOP2, 8),
		ins("v_mul_f32", MaskGCN12p, VOP2, 5),
		ins("v_mul_i32_i24", MaskGCN10|MaskGCN11, VOP2, 9),
		ins("v_mul_i32_i24", MaskGCN12p, VOP2, 6),
		ins("v_mul_u32_u24", MaskGCN10|MaskGCN11, VOP2, 11),
		ins("v_mul_u32_u24", MaskGCN12p, VOP2, 8),
		ins("v_min_f32", MaskGCN10|MaskGCN11, VOP2, 15),
		ins("v_min_f32", MaskGCN12p, VOP2, 10),
		ins("v_max_f32", MaskGCN10|MaskGCN11, VOP2, 16),
		ins("v_max_f32", MaskGCN12p, VOP2, 11),
		ins("v_min_i32", MaskGCN10|MaskGCN11, VOP2, 17),
		ins("v_min_i32", MaskGCN12p, VOP2, 12),
		ins("v_max_i32", MaskGCN10|MaskGCN11, VOP2, 18),
		ins("v_max_i32", MaskGCN12p, VOP2, 13),
		ins("v_min_u32", MaskGCN10|MaskGCN11, VOP2, 19),
		ins("v_min_u32", MaskGCN12p, VOP2, 14),
		ins("v_max_u32", MaskGCN10|MaskGCN11, VOP2, 20),
		ins("v_max_u32", MaskGCN12p, VOP2, 15),
		ins("v_lshrrev_b32", MaskGCN10|MaskGCN11, VOP2, 22),
		ins("v_lshrrev_b32", MaskGCN12p, VOP2, 16),
		ins("v_ashrrev_i32", MaskGCN10|MaskGCN11, VOP2, 24),
		ins("v_ashrrev_i32", MaskGCN12p, VOP2, 17),
		ins("v_lshlrev_b32", MaskGCN10|MaskGCN11, VOP2, 26),
		ins("v_lshlrev_b32", MaskGCN12p, VOP2, 18),
		ins("v_and_b32", MaskGCN10|MaskGCN11, VOP2, 27),
		ins("v_and_b32", MaskGCN12p, VOP2, 19),
		ins("v_or_b32", MaskGCN10|MaskGCN11, VOP2, 28),
		ins("v_or_b32", MaskGCN12p, VOP2, 20),
		ins("v_xor_b32", MaskGCN10|MaskGCN11, VOP2, 29),
		ins("v_xor_b32", MaskGCN12p, VOP2, 21),
		ins("v_mac_f32", MaskGCN10|MaskGCN11, VOP2, 31),
		ins("v_mac_f32", MaskGCN12p, VOP2, 22),
		ins("v_madmk_f32", MaskGCN10|MaskGCN11, VOP2, 32),
		ins("v_madmk_f32", MaskGCN12p, VOP2, 23),
		ins("v_madak_f32", MaskGCN10|MaskGCN11, VOP2, 33),
		ins("v_madak_f32", MaskGCN12p, VOP2, 24),
		ins("v_add_i32", MaskGCN10|MaskGCN11, VOP2, 37),
		ins("v_add_u32", MaskGCN12, VOP2, 25),
		ins("v_sub_i32", MaskGCN10|MaskGCN11, VOP2, 38),
		ins("v_sub_u32", MaskGCN12, VOP2, 26),
		ins("v_subrev_i32", MaskGCN10|MaskGCN11, VOP2, 39),
		ins("v_subrev_u32", MaskGCN12, VOP2, 27),
		ins("v_addc_u32", MaskGCN10|MaskGCN11, VOP2, 40),
		ins("v_addc_u32", MaskGCN12, VOP2, 28),
		ins("v_subb_u32", MaskGCN10|MaskGCN11, VOP2, 41),
		ins("v_subb_u32", MaskGCN12, VOP2, 29),
		ins("v_add_co_u32", MaskGCN14, VOP2, 25),
		ins("v_sub_co_u32", MaskGCN14, VOP2, 26),
		ins("v_add_u32", MaskGCN14, VOP2, 52),
		ins("v_sub_u32", MaskGCN14, VOP2, 53),
		// ==== VOP1 ==========================================================
		ins("v_nop", MaskGCNAll, VOP1, 0),
		ins("v_mov_b32", MaskGCNAll, VOP1, 1),
		ins("v_readfirstlane_b32", MaskGCNAll, VOP1, 2),
		ins("v_cvt_i32_f64", MaskGCNAll, VOP1, 3),
		ins("v_cvt_f64_i32", MaskGCNAll, VOP1, 4),
		ins("v_cvt_f32_i32", MaskGCNAll, VOP1, 5),
		ins("v_cvt_f32_u32", MaskGCNAll, VOP1, 6),
		ins("v_cvt_u32_f32", MaskGCNAll, VOP1, 7),
		ins("v_cvt_i32_f32", MaskGCNAll, VOP1, 8),
		ins("v_cvt_f16_f32", MaskGCNAll, VOP1, 10),
		ins("v_cvt_f32_f16", MaskGCNAll, VOP1, 11),
		ins("v_cvt_f32_f64", MaskGCNAll, VOP1, 15),
		ins("v_cvt_f64_f32", MaskGCNAll, VOP1, 16),
		ins("v_fract_f32", MaskGCN10|MaskGCN11, VOP1, 32),
		ins("v_fract_f32", MaskGCN12p, VOP1, 27),
		ins("v_trunc_f32", MaskGCN10|MaskGCN11, VOP1, 33),
		ins("v_trunc_f32", MaskGCN12p, VOP1, 28),
		ins("v_ceil_f32", MaskGCN10|MaskGCN11, VOP1, 34),
		ins("v_ceil_f32", MaskGCN12p, VOP1, 29),
		ins("v_rndne_f32", MaskGCN10|MaskGCN11, VOP1, 35),
		ins("v_rndne_f32", MaskGCN12p, VOP1, 30),
		ins("v_floor_f32", MaskGCN10|MaskGCN11, VOP1, 36),
		ins("v_floor_f32", MaskGCN12p, VOP1, 31),
		ins("v_exp_f32", MaskGCN10|MaskGCN11, VOP1, 37),
		ins("v_exp_f32", MaskGCN12p, VOP1, 32),
		ins("v_log_f32", MaskGCN10|MaskGCN11, VOP1, 39),
		ins("v_log_f32", MaskGCN12p, VOP1, 33),
		ins("v_rcp_f32", MaskGCN10|MaskGCN11, VOP1, 42),
		ins("v_rcp_f32", MaskGCN12p, VOP1, 34),
		ins("v_rsq_f32", MaskGCN10|MaskGCN11, VOP1, 46),
		ins("v_rsq_f32", MaskGCN12p, VOP1, 36),
		ins("v_rcp_f64", MaskGCN10|MaskGCN11, VOP1, 47),
		ins("v_rcp_f64", MaskGCN12p, VOP1, 37),
		ins("v_rsq_f64", MaskGCN10|MaskGCN11, VOP1, 49),
		ins("v_rsq_f64", MaskGCN12p, VOP1, 38),
		ins("v_sqrt_f32", MaskGCN10|MaskGCN11, VOP1, 51),
		ins("v_sqrt_f32", MaskGCN12p, VOP1, 39),
		ins("v_sqrt_f64", MaskGCN10|MaskGCN11, VOP1, 52),
		ins("v_sqrt_f64", MaskGCN12p, VOP1, 40),
		ins("v_sin_f32", MaskGCN10|MaskGCN11, VOP1, 53),
		ins("v_sin_f32", MaskGCN12p, VOP1, 41),
		ins("v_cos_f32", MaskGCN10|MaskGCN11, VOP1, 54),
		ins("v_cos_f32", MaskGCN12p, VOP1, 42),
		ins("v_not_b32", MaskGCN10|MaskGCN11, VOP1, 55),
		ins("v_not_b32", MaskGCN12p, VOP1, 43),
		ins("v_bfrev_b32", MaskGCN10|MaskGCN11, VOP1, 56),
		ins("v_bfrev_b32", MaskGCN12p, VOP1, 44),
		ins("v_ffbh_u32", MaskGCN10|MaskGCN11, VOP1, 57),
		ins("v_ffbh_u32", MaskGCN12p, VOP1, 45),
		// ==== VOPC ==========================================================
		ins("v_cmp_f_f32", MaskGCN10|MaskGCN11, VOPC, 0),
		ins("v_cmp_f_f32", MaskGCN12p, VOPC, 0x40),
		ins("v_cmp_lt_f32", MaskGCN10|MaskGCN11, VOPC, 1),
		ins("v_cmp_lt_f32", MaskGCN12p, VOPC, 0x41),
		ins("v_cmp_eq_f32", MaskGCN10|MaskGCN11, VOPC, 2),
		ins("v_cmp_eq_f32", MaskGCN12p, VOPC, 0x42),
		ins("v_cmp_le_f32", MaskGCN10|MaskGCN11, VOPC, 3),
		ins("v_cmp_le_f32", MaskGCN12p, VOPC, 0x43),
		ins("v_cmp_gt_f32", MaskGCN10|MaskGCN11, VOPC, 4),
		ins("v_cmp_gt_f32", MaskGCN12p, VOPC, 0x44),
		ins("v_cmp_lg_f32", MaskGCN10|MaskGCN11, VOPC, 5),
		ins("v_cmp_lg_f32", MaskGCN12p, VOPC, 0x45),
		ins("v_cmp_ge_f32", MaskGCN10|MaskGCN11, VOPC, 6),
		ins("v_cmp_ge_f32", MaskGCN12p, VOPC, 0x46),
		ins("v_cmp_lt_i32", MaskGCN10|MaskGCN11, VOPC, 0x81),
		ins("v_cmp_lt_i32", MaskGCN12p, VOPC, 0xc1),
		ins("v_cmp_eq_i32", MaskGCN10|MaskGCN11, VOPC, 0x82),
		ins("v_cmp_eq_i32", MaskGCN12p, VOPC, 0xc2),
		ins("v_cmp_le_i32", MaskGCN10|MaskGCN11, VOPC, 0x83),
		ins("v_cmp_le_i32", MaskGCN12p, VOPC, 0xc3),
		ins("v_cmp_gt_i32", MaskGCN10|MaskGCN11, VOPC, 0x84),
		ins("v_cmp_gt_i32", MaskGCN12p, VOPC, 0xc4),
		ins("v_cmp_ne_i32", MaskGCN10|MaskGCN11, VOPC, 0x85),
		ins("v_cmp_ne_i32", MaskGCN12p, VOPC, 0xc5),
		ins("v_cmp_ge_i32", MaskGCN10|MaskGCN11, VOPC, 0x86),
		ins("v_cmp_ge_i32", MaskGCN12p, VOPC, 0xc6),
		ins("v_cmp_lt_u32", MaskGCN10|MaskGCN11, VOPC, 0xc1),
		ins("v_cmp_lt_u32", MaskGCN12p, VOPC, 0xc9),
		ins("v_cmp_eq_u32", MaskGCN10|MaskGCN11, VOPC, 0xc2),
		ins("v_cmp_eq_u32", MaskGCN12p, VOPC, 0xca),
		ins("v_cmp_gt_u32", MaskGCN10|MaskGCN11, VOPC, 0xc4),
		ins("v_cmp_gt_u32", MaskGCN12p, VOPC, 0xcc),
		ins("v_cmp_ne_u32", MaskGCN10|MaskGCN11, VOPC, 0xc5),
		ins("v_cmp_ne_u32", MaskGCN12p, VOPC, 0xcd),
		ins("v_cmp_ge_u32", MaskGCN10|MaskGCN11, VOPC, 0xc6),
		ins("v_cmp_ge_u32", MaskGCN12p, VOPC, 0xce),
		// ==== VOP3 (native three-operand ops) ===============================
		ins("v_mad_legacy_f32", MaskGCN10|MaskGCN11, VOP3, 0x140),
		ins("v_mad_legacy_f32", MaskGCN12p, VOP3, 0x1c0),
		ins("v_mad_f32", MaskGCN10|MaskGCN11, VOP3, 0x141),
		ins("v_mad_f32", MaskGCN12p, VOP3, 0x1c1),
		ins("v_mad_i32_i24", MaskGCN10|MaskGCN11, VOP3, 0x142),
		ins("v_mad_i32_i24", MaskGCN12p, VOP3, 0x1c2),
		ins("v_mad_u32_u24", MaskGCN10|MaskGCN11, VOP3, 0x143),
		ins("v_mad_u32_u24", MaskGCN12p, VOP3, 0x1c3),
		ins("v_bfe_u32", MaskGCN10|MaskGCN11, VOP3, 0x148),
		ins("v_bfe_u32", MaskGCN12p, VOP3, 0x1c8),
		ins("v_bfe_i32", MaskGCN10|MaskGCN11, VOP3, 0x149),
		ins("v_bfe_i32", MaskGCN12p, VOP3, 0x1c9),
		ins("v_bfi_b32", MaskGCN10|MaskGCN11, VOP3, 0x14a),
		ins("v_bfi_b32", MaskGCN12p, VOP3, 0x1ca),
		ins("v_fma_f32", MaskGCN10|MaskGCN11, VOP3, 0x14b),
		ins("v_fma_f32", MaskGCN12p, VOP3, 0x1cb),
		ins("v_fma_f64", MaskGCN10|MaskGCN11, VOP3, 0x14c),
		ins("v_fma_f64", MaskGCN12p, VOP3, 0x1cc),
		ins("v_alignbit_b32", MaskGCN10|MaskGCN11, VOP3, 0x14e),
		ins("v_alignbit_b32", MaskGCN12p, VOP3, 0x1ce),
		ins("v_min3_f32", MaskGCN10|MaskGCN11, VOP3, 0x151),
		ins("v_min3_f32", MaskGCN12p, VOP3, 0x1d0),
		ins("v_max3_f32", MaskGCN10|MaskGCN11, VOP3, 0x154),
		ins("v_max3_f32", MaskGCN12p, VOP3, 0x1d3),
		ins("v_mul_lo_u32", MaskGCN10|MaskGCN11, VOP3, 0x165),
		ins("v_mul_lo_u32", MaskGCN12p, VOP3, 0x285),
		ins("v_mul_hi_u32", MaskGCN10|MaskGCN11, VOP3, 0x166),
		ins("v_mul_hi_u32", MaskGCN12p, VOP3, 0x286),
		ins("v_mul_lo_i32", MaskGCN10|MaskGCN11, VOP3, 0x167),
		ins("v_mul_lo_i32", MaskGCN12p, VOP3, 0x287),
		ins("v_add_f64", MaskGCN10|MaskGCN11, VOP3, 0x164),
		ins("v_add_f64", MaskGCN12p, VOP3, 0x280),
		// ==== VINTRP ========================================================
		ins("v_interp_p1_f32", MaskGCNAll, VINTRP, 0),
		ins("v_interp_p2_f32", MaskGCNAll, VINTRP, 1),
		ins("v_interp_mov_f32", MaskGCNAll, VINTRP, 2),
		// ==== DS ============================================================
		mem("ds_add_u32", MaskGCNAll, DS, 0, INSTRTYPE_LOCAL),
		mem("ds_sub_u32", MaskGCNAll, DS, 1, INSTRTYPE_LOCAL),
		mem("ds_min_u32", MaskGCNAll, DS, 7, INSTRTYPE_LOCAL),
		mem("ds_max_u32", MaskGCNAll, DS, 8, INSTRTYPE_LOCAL),
		mem("ds_write_b32", MaskGCNAll, DS, 13, INSTRTYPE_LOCAL),
		mem("ds_write2_b32", MaskGCNAll, DS, 14, INSTRTYPE_LOCAL),
		mem("ds_write_b8", MaskGCNAll, DS, 30, INSTRTYPE_LOCAL),
		mem("ds_write_b16", MaskGCNAll, DS, 31, INSTRTYPE_LOCAL),
		mem("ds_read_b32", MaskGCNAll, DS, 54, INSTRTYPE_LOCAL),
		mem("ds_read2_b32", MaskGCNAll, DS, 55, INSTRTYPE_LOCAL),
		mem("ds_read_i8", MaskGCNAll, DS, 57, INSTRTYPE_LOCAL),
		mem("ds_read_u8", MaskGCNAll, DS, 58, INSTRTYPE_LOCAL),
		mem("ds_read_i16", MaskGCNAll, DS, 59, INSTRTYPE_LOCAL),
		mem("ds_read_u16", MaskGCNAll, DS, 60, INSTRTYPE_LOCAL),
		mem("ds_write_b64", MaskGCNAll, DS, 77, INSTRTYPE_LOCAL),
		mem("ds_read_b64", MaskGCNAll, DS, 118, INSTRTYPE_LOCAL),
		// ==== FLAT ==========================================================
		mem("flat_load_ubyte", MaskGCN11, FLAT, 8, INSTRTYPE_GLOBAL),
		mem("flat_load_ubyte", MaskGCN12p, FLAT, 16, INSTRTYPE_GLOBAL),
		mem("flat_load_sbyte", MaskGCN11, FLAT, 9, INSTRTYPE_GLOBAL),
		mem("flat_load_sbyte", MaskGCN12p, FLAT, 17, INSTRTYPE_GLOBAL),
		mem("flat_load_ushort", MaskGCN11, FLAT, 10, INSTRTYPE_GLOBAL),
		mem("flat_load_ushort", MaskGCN12p, FLAT, 18, INSTRTYPE_GLOBAL),
		mem("flat_load_sshort", MaskGCN11, FLAT, 11, INSTRTYPE_GLOBAL),
		mem("flat_load_sshort", MaskGCN12p, FLAT, 19, INSTRTYPE_GLOBAL),
		mem("flat_load_dword", MaskGCN11, FLAT, 12, INSTRTYPE_GLOBAL),
		mem("flat_load_dword", MaskGCN12p, FLAT, 20, INSTRTYPE_GLOBAL),
		mem("flat_load_dwordx2", MaskGCN11, FLAT, 13, INSTRTYPE_GLOBAL),
		mem("flat_load_dwordx2", MaskGCN12p, FLAT, 21, INSTRTYPE_GLOBAL),
		mem("flat_load_dwordx4", MaskGCN11, FLAT, 14, INSTRTYPE_GLOBAL),
		mem("flat_load_dwordx4", MaskGCN12p, FLAT, 23, INSTRTYPE_GLOBAL),
		mem("flat_store_byte", MaskGCN11, FLAT, 24, INSTRTYPE_GLOBAL),
		mem("flat_store_byte", MaskGCN12p, FLAT, 24, INSTRTYPE_GLOBAL),
		mem("flat_store_short", MaskGCN11, FLAT, 26, INSTRTYPE_GLOBAL),
		mem("flat_store_short", MaskGCN12p, FLAT, 26, INSTRTYPE_GLOBAL),
		mem("flat_store_dword", MaskGCN11, FLAT, 28, INSTRTYPE_GLOBAL),
		mem("flat_store_dword", MaskGCN12p, FLAT, 28, INSTRTYPE_GLOBAL),
		mem("flat_store_dwordx2", MaskGCN11, FLAT, 29, INSTRTYPE_GLOBAL),
		mem("flat_store_dwordx2", MaskGCN12p, FLAT, 29, INSTRTYPE_GLOBAL),
		mem("flat_store_dwordx4", MaskGCN11, FLAT, 30, INSTRTYPE_GLOBAL),
		mem("flat_store_dwordx4", MaskGCN12p, FLAT, 31, INSTRTYPE_GLOBAL),
		// ==== MUBUF =========================================================
		mem("buffer_load_format_x", MaskGCNAll, MUBUF, 0, INSTRTYPE_GLOBAL),
		mem("buffer_load_ubyte", MaskGCN10|MaskGCN11, MUBUF, 8, INSTRTYPE_GLOBAL),
		mem("buffer_load_ubyte", MaskGCN12p, MUBUF, 16, INSTRTYPE_GLOBAL),
		mem("buffer_load_sbyte", MaskGCN10|MaskGCN11, MUBUF, 9, INSTRTYPE_GLOBAL),
		mem("buffer_load_sbyte", MaskGCN12p, MUBUF, 17, INSTRTYPE_GLOBAL),
		mem("buffer_load_ushort", MaskGCN10|MaskGCN11, MUBUF, 10, INSTRTYPE_GLOBAL),
		mem("buffer_load_ushort", MaskGCN12p, MUBUF, 18, INSTRTYPE_GLOBAL),
		mem("buffer_load_sshort", MaskGCN10|MaskGCN11, MUBUF, 11, INSTRTYPE_GLOBAL),
		mem("buffer_load_sshort", MaskGCN12p, MUBUF, 19, INSTRTYPE_GLOBAL),
		mem("buffer_load_dword", MaskGCN10|MaskGCN11, MUBUF, 12, INSTRTYPE_GLOBAL),
		mem("buffer_load_dword", MaskGCN12p, MUBUF, 20, INSTRTYPE_GLOBAL),
		mem("buffer_load_dwordx2", MaskGCN10|MaskGCN11, MUBUF, 13, INSTRTYPE_GLOBAL),
		mem("buffer_load_dwordx2", MaskGCN12p, MUBUF, 21, INSTRTYPE_GLOBAL),
		mem("buffer_load_dwordx4", MaskGCN10|MaskGCN11, MUBUF, 14, INSTRTYPE_GLOBAL),
		mem("buffer_load_dwordx4", MaskGCN12p, MUBUF, 23, INSTRTYPE_GLOBAL),
		mem("buffer_store_byte", MaskGCNAll, MUBUF, 24, INSTRTYPE_GLOBAL),
		mem("buffer_store_short", MaskGCNAll, MUBUF, 26, INSTRTYPE_GLOBAL),
		mem("buffer_store_dword", MaskGCNAll, MUBUF, 28, INSTRTYPE_GLOBAL),
		mem("buffer_store_dwordx2", MaskGCNAll, MUBUF, 29, INSTRTYPE_GLOBAL),
		mem("buffer_store_dwordx4", MaskGCN10|MaskGCN11, MUBUF, 30, INSTRTYPE_GLOBAL),
		mem("buffer_store_dwordx4", MaskGCN12p, MUBUF, 31, INSTRTYPE_GLOBAL),
		// ==== MTBUF =========================================================
		mem("tbuffer_load_format_x", MaskGCNAll, MTBUF, 0, INSTRTYPE_GLOBAL),
		mem("tbuffer_load_format_xy", MaskGCNAll, MTBUF, 1, INSTRTYPE_GLOBAL),
		mem("tbuffer_load_format_xyzw", MaskGCNAll, MTBUF, 3, INSTRTYPE_GLOBAL),
		mem("tbuffer_store_format_x", MaskGCNAll, MTBUF, 4, INSTRTYPE_GLOBAL),
		mem("tbuffer_store_format_xyzw", MaskGCNAll, MTBUF, 7, INSTRTYPE_GLOBAL),
		// ==== MIMG ==========================================================
		mem("image_load", MaskGCNAll, MIMG, 0, INSTRTYPE_GLOBAL),
		mem("image_load_mip", MaskGCNAll, MIMG, 1, INSTRTYPE_GLOBAL),
		mem("image_store", MaskGCNAll, MIMG, 8, INSTRTYPE_GLOBAL),
		mem("image_store_mip", MaskGCNAll, MIMG, 9, INSTRTYPE_GLOBAL),
		mem("image_get_resinfo", MaskGCNAll, MIMG, 14, INSTRTYPE_GLOBAL),
		mem("image_sample", MaskGCNAll, MIMG, 32, INSTRTYPE_GLOBAL),
		// ==== EXP ===========================================================
		ins("exp", MaskGCNAll, EXP, 0),
	}
	//
	sort.SliceStable(table, func(i, j int) bool {
		return table[i].Mnemonic < table[j].Mnemonic
	})
	//
	return table
}

// findMnemonic resolves a mnemonic against the table for a given variant.
// Ambiguity is resolved by the narrowest arch-mask match; an equal match
// across entries indicates a table bug and is reported as internal.
func findMnemonic(mnemonic string, arch uint8) (GCNInsn, bool, bool) {
	var (
		candidates = lo.Filter(mnemonicTable, func(e GCNInsn, _ int) bool {
			return e.Mnemonic == mnemonic && e.Archs.Has(arch)
		})
		best      GCNInsn
		bestBits  = int(ArchsNum) + 1
		ambiguous bool
	)
	//
	if len(candidates) == 0 {
		return GCNInsn{}, false, false
	}
	//
	for _, entry := range candidates {
		bits := entry.Archs.Bits()
		//
		if bits < bestBits {
			best, bestBits, ambiguous = entry, bits, false
		} else if bits == bestBits {
			ambiguous = true
		}
	}
	//
	return best, true, ambiguous
}

// KnownMnemonic checks whether any variant knows the given mnemonic, for
// better diagnostics when arch gating rejects it.
func KnownMnemonic(mnemonic string) bool {
	return lo.SomeBy(mnemonicTable, func(e GCNInsn) bool {
		return e.Mnemonic == mnemonic
	})
}
