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
	"sort"

	"github.com/consensys/go-gcnasm/pkg/asm"
)

// ssaKey identifies one SSA instance of a regvar.
type ssaKey struct {
	rv *asm.RegVar
	id uint
}

// SSAReplace records that two SSA ids of a regvar denote the same value
// across a block boundary.
type SSAReplace struct {
	Orig uint
	Dest uint
}

// ssaData is the result of the SSA pass over one section.
type ssaData struct {
	blocks []CodeBlock
	// Monotonic SSA counters per regvar.
	counters map[*asm.RegVar]uint
	// SSA id of each usage, parallel to section.RVUs.
	usageIds []uint
	// Replacements joining SSA ids across block boundaries.
	replaces map[*asm.RegVar][]SSAReplace
}

// createSSAData walks each block in program order, numbering regvar
// definitions and recording the per-block summaries.
func createSSAData(section *asm.Section, blocks []CodeBlock) *ssaData {
	data := &ssaData{
		blocks:   blocks,
		counters: make(map[*asm.RegVar]uint),
		usageIds: make([]uint, len(section.RVUs)),
		replaces: make(map[*asm.RegVar][]SSAReplace),
	}
	// Usages sorted by offset; ties among reads or among writes keep encode
	// order.
	order := make([]int, len(section.RVUs))
	for i := range order {
		order[i] = i
	}
	//
	// Within one instruction, sources are read before the destination is
	// written, so pure reads sort ahead of writes at equal offsets.
	sort.SliceStable(order, func(i, j int) bool {
		a, b := &section.RVUs[order[i]], &section.RVUs[order[j]]
		//
		if a.Offset != b.Offset {
			return a.Offset < b.Offset
		}
		//
		return a.Access&asm.ACCESS_WRITE == 0 && b.Access&asm.ACCESS_WRITE != 0
	})
	// Current SSA id per regvar, in program order.
	current := make(map[*asm.RegVar]uint)
	//
	blockOf := func(offset uint64) *CodeBlock {
		for i := range blocks {
			if offset >= blocks[i].Start && offset < blocks[i].End {
				return &blocks[i]
			}
		}
		//
		return nil
	}
	//
	for _, idx := range order {
		rvu := &section.RVUs[idx]
		block := blockOf(rvu.Offset)
		//
		if block == nil {
			continue
		}
		//
		info, ok := block.SSAInfos[rvu.RegVar]
		if !ok {
			info = &SSAInfo{
				SSAIdBefore: current[rvu.RegVar],
				FirstPos:    rvu.Offset,
			}
			block.SSAInfos[rvu.RegVar] = info
		}
		//
		info.LastPos = rvu.Offset
		//
		if rvu.Access&asm.ACCESS_READ != 0 && info.SSAIdChange == 0 {
			info.ReadBeforeWrite = true
		}
		//
		if rvu.Access&asm.ACCESS_WRITE != 0 {
			data.counters[rvu.RegVar]++
			next := data.counters[rvu.RegVar]
			//
			if info.SSAIdChange == 0 {
				info.SSAIdFirst = next
			}
			//
			info.SSAIdLast = next
			info.SSAIdChange++
			current[rvu.RegVar] = next
		}
		//
		data.usageIds[idx] = current[rvu.RegVar]
	}
	//
	data.reconcile()
	//
	return data
}

// reconcile computes SSA replacements across block boundaries: wherever a
// successor's entry id differs from a predecessor's exit id, the two denote
// the same value and are joined.
func (p *ssaData) reconcile() {
	for i := range p.blocks {
		pred := &p.blocks[i]
		//
		for _, next := range pred.Nexts {
			succ := &p.blocks[next.Block]
			//
			for rv, succInfo := range succ.SSAInfos {
				if !succInfo.ReadBeforeWrite {
					continue
				}
				//
				predInfo, ok := pred.SSAInfos[rv]
				if !ok {
					continue
				}
				//
				out := predInfo.SSAIdBefore
				if predInfo.SSAIdChange > 0 {
					out = predInfo.SSAIdLast
				}
				//
				if out != succInfo.SSAIdBefore {
					p.replaces[rv] = append(p.replaces[rv], SSAReplace{succInfo.SSAIdBefore, out})
				}
			}
		}
	}
}

// unionFind joins SSA ids per regvar according to the replacement records,
// returning a canonicalising function.
func (p *ssaData) unionFind() func(ssaKey) ssaKey {
	parent := make(map[ssaKey]ssaKey)
	//
	var find func(k ssaKey) ssaKey
	//
	find = func(k ssaKey) ssaKey {
		if next, ok := parent[k]; ok && next != k {
			root := find(next)
			parent[k] = root
			//
			return root
		}
		//
		return k
	}
	//
	union := func(a, b ssaKey) {
		ra, rb := find(a), find(b)
		//
		if ra != rb {
			parent[ra] = rb
		}
	}
	//
	for rv, replaces := range p.replaces {
		for _, replace := range replaces {
			union(ssaKey{rv, replace.Orig}, ssaKey{rv, replace.Dest})
		}
	}
	//
	return find
}
