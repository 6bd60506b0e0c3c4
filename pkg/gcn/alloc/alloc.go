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

// Package alloc implements the SSA register allocator which assigns
// architectural registers to register variables.  It runs only when regvars
// were used: basic blocks are built from the code-flow entries, regvar
// usages are SSA-numbered per block, reconciled across block edges, and the
// resulting interference graph is greedily coloured.  Spilling is not
// implemented; running out of registers fails the assembly.
package alloc

import (
	log "github.com/sirupsen/logrus"

	"github.com/consensys/go-gcnasm/pkg/asm"
	"github.com/consensys/go-gcnasm/pkg/gcn"
)

// Allocator implements asm.Allocator for the GCN register files.
type Allocator struct {
	// Registers withheld from the palette, per register file (beyond the
	// architectural bound), typically reserved by the kernel configuration.
	Reserved [asm.RegTypesNum]uint16
}

// NewAllocator constructs an allocator with nothing reserved.
func NewAllocator() *Allocator {
	return &Allocator{}
}

// Allocate assigns registers in every code section that recorded regvar
// usages, patching the encoded fields in place.
func (p *Allocator) Allocate(as *asm.Assembler) bool {
	device, ok := gcn.DeviceByName(as.Device())
	if !ok {
		device = gcn.CAPE_VERDE
	}
	//
	arch := gcn.ArchOf(device)
	//
	maxRegs := [asm.RegTypesNum]uint16{
		asm.SGPR: gcn.MaxSGPRs(arch) - p.Reserved[asm.SGPR],
		asm.VGPR: gcn.MaxVGPRs(arch) - p.Reserved[asm.VGPR],
	}
	//
	for _, section := range as.Sections() {
		if section.Flags&asm.SECT_CODE == 0 || len(section.RVUs) == 0 {
			continue
		}
		//
		if !p.allocateSection(as, section, arch, maxRegs) {
			return false
		}
	}
	//
	return true
}

// allocateSection runs the full pipeline over one code section.
func (p *Allocator) allocateSection(as *asm.Assembler, section *asm.Section, arch uint8, maxRegs [asm.RegTypesNum]uint16) bool {
	var (
		encoder   = as.TheEncoder()
		instrSize = func(code []byte, offset uint64) uint64 {
			return gcn.InstructionSize(arch, code, offset).Size
		}
		blocks = createCodeStructure(section, instrSize)
		data      = createSSAData(section, blocks)
		find      = data.unionFind()
		graphs    = buildInterference(section, data, find)
	)
	//
	log.Debugf("section %s: %d blocks, %d usages", section.Name, len(blocks), len(section.RVUs))
	//
	var leaders [asm.RegTypesNum]map[int]int
	//
	for regType := range graphs {
		leaders[regType] = equalClasses(section, graphs[regType], uint8(regType))
		//
		if !colourGraph(graphs[regType], leaders[regType], maxRegs[regType]) {
			as.Sink().Errorf(section.RVUs[0].Pos, "not enough registers")
			return false
		}
	}
	// Patch the assigned registers back into the code bytes.
	for i := range section.RVUs {
		rvu := section.RVUs[i]
		//
		var (
			graph  = graphs[rvu.RegVar.Type]
			key    = find(ssaKey{rvu.RegVar, data.usageIds[i]})
			idx    = graph.index[key]
			colour = graph.vertices[leaders[rvu.RegVar.Type][idx]].colour
		)
		//
		if !encoder.PatchRegField(section, rvu, colour+rvu.Start) {
			as.Sink().Fatalf(rvu.Pos, "fatal: cannot patch register field")
			return false
		}
	}
	//
	return true
}
