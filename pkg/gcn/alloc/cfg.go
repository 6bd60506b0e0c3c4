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
	"sort"

	"github.com/consensys/go-gcnasm/pkg/asm"
)

// NextBlock is one successor edge of a code block.
type NextBlock struct {
	Block  int
	IsCall bool
}

// SSAInfo is the per-block, per-regvar SSA summary.
type SSAInfo struct {
	// SSA id live on entry, before the first change in this block.
	SSAIdBefore uint
	// SSA id introduced by the first change in this block.
	SSAIdFirst uint
	// SSA id after the last change in this block.
	SSAIdLast uint
	// Number of SSA id changes within this block.
	SSAIdChange uint
	// Positions of the first and last usage within this block.
	FirstPos uint64
	LastPos  uint64
	// Whether the first usage in this block was a read.
	ReadBeforeWrite bool
}

// CodeBlock is one basic block of a code section.
type CodeBlock struct {
	// Byte range covered within the section.
	Start uint64
	End   uint64
	// Successor blocks, including the fall-through block; empty when the
	// block ends in a return or program end, or is the last block.
	Nexts []NextBlock
	// Terminator properties.
	HaveCalls  bool
	HaveReturn bool
	HaveEnd    bool
	// Per-regvar SSA summaries, filled by the SSA pass.
	SSAInfos map[*asm.RegVar]*SSAInfo
}

// resolveFlowTargets fills in targets which were deferred at encode time, by
// decoding the patched 16-bit displacement of the branch instruction.
func resolveFlowTargets(section *asm.Section) {
	for i := range section.CodeFlow {
		entry := &section.CodeFlow[i]
		//
		if entry.HasTarget || (entry.Kind != asm.FLOW_JUMP && entry.Kind != asm.FLOW_CJUMP) {
			continue
		}
		//
		if entry.Offset+4 > uint64(len(section.Content)) {
			continue
		}
		//
		word := binary.LittleEndian.Uint32(section.Content[entry.Offset:])
		rel := int64(int16(word & 0xffff))
		//
		entry.Target = uint64(int64(entry.Offset+4) + rel*4)
		entry.HasTarget = true
	}
}

// createCodeStructure builds the basic blocks of a code section from its
// code-flow entries.  Block boundaries are branch targets, the instruction
// after any code-flow entry, and the start of the section.
func createCodeStructure(section *asm.Section, instrSize func([]byte, uint64) uint64) []CodeBlock {
	resolveFlowTargets(section)
	//
	var (
		size       = uint64(len(section.Content))
		boundaries = map[uint64]bool{0: true, size: true}
		flowAt     = make(map[uint64]*asm.CodeFlowEntry)
	)
	//
	for i := range section.CodeFlow {
		entry := &section.CodeFlow[i]
		flowAt[entry.Offset] = entry
		//
		if entry.HasTarget {
			boundaries[entry.Target] = true
		}
		// The instruction after any transfer of control starts a block.
		boundaries[entry.Offset+instrSize(section.Content, entry.Offset)] = true
	}
	//
	var starts []uint64
	//
	for boundary := range boundaries {
		if boundary <= size {
			starts = append(starts, boundary)
		}
	}
	//
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })
	//
	var (
		blocks  []CodeBlock
		indexOf = make(map[uint64]int)
	)
	//
	for i := 0; i+1 < len(starts); i++ {
		indexOf[starts[i]] = len(blocks)
		blocks = append(blocks, CodeBlock{
			Start:    starts[i],
			End:      starts[i+1],
			SSAInfos: make(map[*asm.RegVar]*SSAInfo),
		})
	}
	// Wire successors by examining the flow entry (if any) terminating each
	// block.
	for i := range blocks {
		block := &blocks[i]
		terminated := false
		//
		for offset := block.Start; offset < block.End; {
			if entry, ok := flowAt[offset]; ok {
				switch entry.Kind {
				case asm.FLOW_JUMP:
					block.Nexts = append(block.Nexts, NextBlock{indexOf[entry.Target], false})
					terminated = true
				case asm.FLOW_CJUMP:
					block.Nexts = append(block.Nexts, NextBlock{indexOf[entry.Target], false})
				case asm.FLOW_CALL:
					block.HaveCalls = true
					//
					if entry.HasTarget {
						block.Nexts = append(block.Nexts, NextBlock{indexOf[entry.Target], true})
					}
				case asm.FLOW_RETURN:
					block.HaveReturn = true
					terminated = true
				case asm.FLOW_END:
					block.HaveEnd = true
					terminated = true
				}
			}
			//
			offset += instrSize(section.Content, offset)
		}
		// Fall through to the next block unless terminated.
		if !terminated && i+1 < len(blocks) {
			block.Nexts = append(block.Nexts, NextBlock{i + 1, false})
		}
	}
	//
	return blocks
}
