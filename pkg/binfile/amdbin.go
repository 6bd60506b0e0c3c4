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
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/consensys/go-gcnasm/pkg/asm"
	"github.com/consensys/go-gcnasm/pkg/format"
	"github.com/consensys/go-gcnasm/pkg/gcn"
)

// Fixed geometry of the legacy kernel image: a stub of 0xa60 bytes is
// followed by a 0x100-byte setup block and then the code.
const (
	amdStubSize    = 0xa60
	amdSetupSize   = 0x100
	amdStubTrailer = 0x9a0
)

// GenerateAmd emits the legacy AMD Catalyst OpenCL 1.2 container: a single
// ELF whose .text holds, per kernel, the fixed stub, the setup block and
// the code.
func GenerateAmd(as *asm.Assembler, handler *format.AmdHandler, device gcn.DeviceType, is64 bool) ([]byte, error) {
	var (
		arch    = gcn.ArchOf(device)
		builder = NewBuilder(is64, elf.ET_EXEC, elf.Machine(0x7d))
		symtab  = NewSymTab(is64)
		text    bytes.Buffer
		rodata  bytes.Buffer
		comment = []byte("\x00AMD comp\x00")
	)
	//
	log.Debugf("generating legacy AMD container for %s (%d kernels)",
		gcn.DeviceName(device), len(as.Kernels()))
	// Declared order fixes the section indices, so regions go in first;
	// their content closures run at build time.
	builder.AddRegion(Region{
		Name: ".strtab", Type: elf.SHT_STRTAB, Align: 1,
		Content: symtab.StrTab,
	})
	builder.AddRegion(Region{
		Name: ".symtab", Type: elf.SHT_SYMTAB, Align: 8,
		LinkName: ".strtab", EntSize: symtab.EntSize(), Info: 1,
		Content: symtab.Bytes,
	})
	builder.AddRegion(Region{
		Name: ".comment", Type: elf.SHT_PROGBITS, Align: 1,
		Content: func() []byte { return comment },
	})
	builder.AddRegion(Region{
		Name: ".rodata", Type: elf.SHT_PROGBITS, Flags: elf.SHF_ALLOC, Align: 4,
		Content: rodata.Bytes,
	})
	builder.AddRegion(Region{
		Name: ".text", Type: elf.SHT_PROGBITS, Flags: elf.SHF_ALLOC | elf.SHF_EXECINSTR,
		Align: 256, Content: text.Bytes,
	})
	// Late-binding pass: cross-section expressions resolve against the
	// final layout, with each kernel's code placed after its stub.
	bases := make(map[asm.SectionID]uint64)
	textOffset := uint64(0)
	//
	for _, sect := range as.Sections() {
		if sect.Name == ".rodata" && sect.Kernel == asm.NoKernel {
			bases[sect.ID] = 0
		}
	}
	//
	for _, kernel := range as.Kernels() {
		for _, sect := range as.Sections() {
			if sect.Name == ".text" && sect.Kernel == kernel.ID {
				bases[sect.ID] = textOffset + amdStubSize + amdSetupSize
				textOffset += amdStubSize + amdSetupSize + uint64(len(sect.Content))
			}
		}
	}
	//
	applyRelocs(as, bases)
	// Lay the kernels out into .text and .rodata, collecting symbols.
	if data := handler.GlobalData(as); len(data) > 0 {
		rodata.Write(data)
	}
	//
	for _, kernel := range as.Kernels() {
		var (
			code   = handler.KernelCode(as, kernel.ID)
			config = handler.Config(kernel.ID)
			offset = uint64(text.Len())
		)
		//
		stub := buildAmdKernelStub(arch, config, code)
		text.Write(stub)
		text.Write(code)
		//
		metaOffset := uint64(rodata.Len())
		meta := buildAmdKernelMetadata(kernel.Name, config)
		rodata.Write(meta)
		//
		symtab.Add(Symbol{
			Name:    fmt.Sprintf("&__OpenCL_%s_metadata", kernel.Name),
			Value:   metaOffset,
			Size:    uint64(len(meta)),
			Binding: elf.STB_LOCAL,
			Type:    elf.STT_OBJECT,
			Section: builder.SectionIndex(".rodata"),
		})
		symtab.Add(Symbol{
			Name:    fmt.Sprintf("&__OpenCL_%s_kernel", kernel.Name),
			Value:   offset,
			Size:    uint64(len(stub) + len(code)),
			Binding: elf.STB_GLOBAL,
			Type:    elf.STT_FUNC,
			Section: builder.SectionIndex(".text"),
		})
	}
	//
	return builder.Build()
}

// buildAmdKernelStub produces the fixed 0xa60-byte stub followed by the
// 0x100-byte setup block.  Offsets and values follow the driver's layout;
// unknown words are reproduced as observed.
func buildAmdKernelStub(arch uint8, config *format.AmdKernelConfig, code []byte) []byte {
	var (
		stub                   = make([]byte, amdStubSize+amdSetupSize)
		instrs, global, local  = gcn.CountInstructions(arch, code)
		codeSize               = uint64(len(code))
		put32                  = func(off int, v uint32) { binary.LittleEndian.PutUint32(stub[off:], v) }
		put64                  = func(off int, v uint64) { binary.LittleEndian.PutUint64(stub[off:], v) }
		sgprsNum, vgprsNum     = regCounts(config)
	)
	// Stub header.
	put32(0x00, amdStubSize)     // hsa_text_offset
	put32(0x04, instrs)          // instrs_num
	put32(0x08, vgprsNum)        // vgprs_num
	// six zero words at 0x0c..0x20
	put32(0x24, uint32(codeSize)) // size_prog_val
	put32(0x28, global)           // global_mem_ops
	put32(0x2c, local)            // local_mem_ops
	// zero word at 0x30
	put32(0x34, uint32(codeSize)) // program_reg_size
	// zero word at 0x38
	put32(0x3c, sgprsNum) // sgprs_num_all
	// Stub trailer at 0x9a0.
	put64(amdStubTrailer+0x00, amdStubSize)              // hsa_text_offset
	put32(amdStubTrailer+0x08, amdSetupSize)             // end_size
	put32(amdStubTrailer+0x0c, uint32(codeSize)+0x100)   // hsa_text_size
	// two zero words
	put32(amdStubTrailer+0x18, 0x200) // unknown1
	// zero word
	put64(amdStubTrailer+0x20, codeSize+0xb60) // kernel_size
	// two zero words
	put64(amdStubTrailer+0x30, codeSize+0xb60) // kernel_size_2
	put32(amdStubTrailer+0x38, vgprsNum)
	put32(amdStubTrailer+0x3c, sgprsNum)
	// two zero words
	put32(amdStubTrailer+0x48, vgprsNum)   // vgprs_num_2
	put32(amdStubTrailer+0x4c, sgprsNum-2) // sgprs_num (without VCC)
	put32(amdStubTrailer+0x50, config.FloatMode&0xff)
	// zero word
	put32(amdStubTrailer+0x58, 1)
	// three zero words
	put32(amdStubTrailer+0x68, (config.ScratchBufferSize+3)>>2)
	put32(amdStubTrailer+0x6c, config.LocalSize)
	put32(amdStubTrailer+0x70, 0xffffffff)
	// final zero word
	//
	return stub
}

// regCounts derives the register budget of a kernel from its configuration.
func regCounts(config *format.AmdKernelConfig) (uint32, uint32) {
	var (
		sgprs = config.SGPRsNum
		vgprs = config.VGPRsNum
	)
	//
	if sgprs == 0 {
		sgprs = 16
	}
	// VCC is always part of the full budget.
	sgprs += 2
	//
	if vgprs == 0 {
		vgprs = 4
	}
	//
	return sgprs, vgprs
}

// buildAmdKernelMetadata produces the driver metadata text of one kernel.
func buildAmdKernelMetadata(name string, config *format.AmdKernelConfig) []byte {
	var out bytes.Buffer
	//
	fmt.Fprintf(&out, ";ARGSTART:__OpenCL_%s_kernel\n", name)
	fmt.Fprintf(&out, ";version:3:1:111\n")
	fmt.Fprintf(&out, ";device:generic\n")
	fmt.Fprintf(&out, ";uniqueid:%d\n", 1024)
	fmt.Fprintf(&out, ";memory:uavprivate:%d\n", config.ScratchBufferSize)
	fmt.Fprintf(&out, ";memory:hwlocal:%d\n", config.LocalSize)
	fmt.Fprintf(&out, ";function:1:%d\n", 1028)
	fmt.Fprintf(&out, ";ARGEND:__OpenCL_%s_kernel\n", name)
	//
	return out.Bytes()
}
