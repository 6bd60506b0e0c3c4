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
package format

import (
	"strings"

	"github.com/consensys/go-gcnasm/pkg/asm"
	"github.com/consensys/go-gcnasm/pkg/util/source"
)

// AmdCL2KernelConfig is the per-kernel configuration of the AMDCL2 OpenCL
// 2.0 format.
type AmdCL2KernelConfig struct {
	Dims              uint8
	ReqdWorkGroupSize [3]uint32
	WorkGroupSizeHint [3]uint32
	VecTypeHint       string
	LocalSize         uint32
	ScratchBufferSize uint32
	SGPRsNum          uint32
	VGPRsNum          uint32
	UseEnqueue        bool
	UseSetup          bool
	// Sampler ids referenced by the kernel.
	Samplers []uint32
	// Declared arguments, in order.
	Args []KernelArg
}

// AmdCL2Handler implements the AMDCL2 two-level container format: per-kernel
// .text inside the inner (device) ELF, plus global data, sampler-init and
// relocation sections.
type AmdCL2Handler struct {
	sections sectionSet
	configs  map[asm.KernelID]*AmdCL2KernelConfig
	// Driver version the container targets, selecting the device-code
	// table and metadata layout band.
	DriverVersion uint32
	// Global sampler values from .samplerinit content or .sampler at global
	// scope.
	Samplers []uint32
}

// The default driver version targeted when none is given.
const defaultDriverVersion = 191205

// NewAmdCL2Handler constructs the AMDCL2 handler.
func NewAmdCL2Handler() *AmdCL2Handler {
	return &AmdCL2Handler{
		sections:      newSectionSet(),
		configs:       make(map[asm.KernelID]*AmdCL2KernelConfig),
		DriverVersion: defaultDriverVersion,
	}
}

// Name implements asm.FormatHandler.
func (p *AmdCL2Handler) Name() string {
	return FormatAmdCL2
}

// Config returns (creating on demand) the configuration of a kernel.
func (p *AmdCL2Handler) Config(kernel asm.KernelID) *AmdCL2KernelConfig {
	config, ok := p.configs[kernel]
	//
	if !ok {
		config = &AmdCL2KernelConfig{}
		p.configs[kernel] = config
	}
	//
	return config
}

// SectionForName implements asm.FormatHandler.
func (p *AmdCL2Handler) SectionForName(as *asm.Assembler, name string) (*asm.Section, bool) {
	if sect, ok := p.sections.get(as, name, as.CurrentKernel()); ok {
		return sect, true
	}
	//
	return p.sections.get(as, name, asm.NoKernel)
}

// SwitchSection implements asm.FormatHandler.
func (p *AmdCL2Handler) SwitchSection(as *asm.Assembler, name string, pos source.Position) bool {
	var sect *asm.Section
	//
	switch name {
	case ".rodata":
		sect = p.sections.obtain(as, name, asm.NoKernel, asm.SECT_ADDRESSABLE|asm.SECT_WRITEABLE, 8)
	case ".data", ".bss":
		flags := uint8(asm.SECT_ADDRESSABLE | asm.SECT_WRITEABLE)
		if name == ".bss" {
			flags |= asm.SECT_NOBITS
		}
		//
		sect = p.sections.obtain(as, name, asm.NoKernel, flags, 8)
	case ".samplerinit":
		sect = p.sections.obtain(as, name, asm.NoKernel, asm.SECT_WRITEABLE, 4)
	case ".text":
		kernel := as.CurrentKernel()
		if kernel == asm.NoKernel {
			return false
		}
		//
		sect = p.kernelText(as, kernel)
	case ".setup":
		kernel := as.CurrentKernel()
		if kernel == asm.NoKernel {
			return false
		}
		//
		sect = p.sections.obtain(as, name, kernel, asm.SECT_ADDRESSABLE|asm.SECT_WRITEABLE, 1)
	default:
		return false
	}
	//
	as.SetCurrentSection(sect.ID)
	//
	return true
}

func (p *AmdCL2Handler) kernelText(as *asm.Assembler, kernel asm.KernelID) *asm.Section {
	return p.sections.obtain(as, ".text", kernel,
		asm.SECT_ADDRESSABLE|asm.SECT_WRITEABLE|asm.SECT_CODE, 256)
}

// BeginKernel implements asm.FormatHandler.
func (p *AmdCL2Handler) BeginKernel(as *asm.Assembler, kernel *asm.Kernel, pos source.Position) bool {
	p.Config(kernel.ID)
	as.SetCurrentSection(p.kernelText(as, kernel.ID).ID)
	//
	return true
}

// HandleDirective implements asm.FormatHandler.
//
//nolint:gocyclo
func (p *AmdCL2Handler) HandleDirective(as *asm.Assembler, name string, toks *asm.Tokens, pos source.Position) bool {
	switch name {
	case ".driver_version":
		p.DriverVersion = uint32(constOperand(as, toks))
		return true
	case ".globaldata":
		return p.SwitchSection(as, ".rodata", pos)
	case ".samplerinit":
		return p.SwitchSection(as, ".samplerinit", pos)
	case ".config":
		return true
	}
	//
	kernel := as.CurrentKernel()
	//
	if name == ".sampler" && kernel == asm.NoKernel {
		// global sampler definitions
		for first := true; first || toks.Match(asm.COMMA); first = false {
			p.Samplers = append(p.Samplers, uint32(constOperand(as, toks)))
		}
		//
		return true
	}
	//
	if kernel == asm.NoKernel {
		return false
	}
	//
	config := p.Config(kernel)
	//
	switch name {
	case ".dims":
		config.Dims = parseDims(as, toks, pos)
	case ".localsize":
		config.LocalSize = uint32(constOperand(as, toks))
	case ".scratchbuffer":
		config.ScratchBufferSize = uint32(constOperand(as, toks))
	case ".sgprsnum":
		config.SGPRsNum = uint32(constOperand(as, toks))
	case ".vgprsnum":
		config.VGPRsNum = uint32(constOperand(as, toks))
	case ".useenqueue":
		config.UseEnqueue = true
	case ".usesetup":
		config.UseSetup = true
	case ".reqd_work_group_size":
		for i := 0; i < 3; i++ {
			if i > 0 && !toks.Match(asm.COMMA) {
				break
			}
			//
			config.ReqdWorkGroupSize[i] = uint32(constOperand(as, toks))
		}
	case ".work_group_size_hint":
		for i := 0; i < 3; i++ {
			if i > 0 && !toks.Match(asm.COMMA) {
				break
			}
			//
			config.WorkGroupSizeHint[i] = uint32(constOperand(as, toks))
		}
	case ".vectypehint":
		if tok := toks.Next(); tok.Kind == asm.IDENTIFIER {
			config.VecTypeHint = toks.Text(tok)
		} else {
			as.Sink().Errorf(pos, "expected type name")
		}
	case ".sampler":
		for first := true; first || toks.Match(asm.COMMA); first = false {
			config.Samplers = append(config.Samplers, uint32(constOperand(as, toks)))
		}
	case ".setupargs":
		if len(config.Args) != 0 {
			as.Sink().Errorf(pos, "'.setupargs' must precede kernel arguments")
		} else {
			config.Args = append(config.Args, setupArgs()...)
		}
	case ".arg":
		p.parseArg(as, config, toks, pos)
	default:
		return false
	}
	//
	return true
}

// setupArgs returns the implicit arguments the OpenCL 2.0 runtime passes
// ahead of the user arguments: the three global offsets, the printf buffer
// and the queue/wrap pointers.
func setupArgs() []KernelArg {
	return []KernelArg{
		{Name: "_.global_offset_0", TypeName: "size_t", ArgType: ArgULong, Used: true},
		{Name: "_.global_offset_1", TypeName: "size_t", ArgType: ArgULong, Used: true},
		{Name: "_.global_offset_2", TypeName: "size_t", ArgType: ArgULong, Used: true},
		{Name: "_.printf_buffer", TypeName: "size_t", ArgType: ArgPointer,
			PointeeType: ArgVoid, PtrSpace: PtrSpaceGlobal, Used: true},
		{Name: "_.vqueue_pointer", TypeName: "size_t", ArgType: ArgULong, Used: true},
		{Name: "_.aqlwrap_pointer", TypeName: "size_t", ArgType: ArgULong, Used: true},
	}
}

// parseArg parses ".arg name, "typename", type[, ptrspace[, qualifiers...]]".
func (p *AmdCL2Handler) parseArg(as *asm.Assembler, config *AmdCL2KernelConfig, toks *asm.Tokens, pos source.Position) {
	var arg KernelArg
	//
	tok := toks.Next()
	if tok.Kind != asm.IDENTIFIER {
		as.Sink().Errorf(pos, "expected argument name")
		return
	}
	//
	arg.Name = toks.Text(tok)
	//
	if !toks.Match(asm.COMMA) {
		as.Sink().Errorf(pos, "expected ','")
		return
	}
	// Optional quoted type name.
	if toks.Lookahead().Kind == asm.STRING {
		arg.TypeName = asm.TrimStringToken(toks.Text(toks.Next()))
		//
		if !toks.Match(asm.COMMA) {
			as.Sink().Errorf(pos, "expected ','")
			return
		}
	}
	//
	typeTok := toks.Next()
	if typeTok.Kind != asm.IDENTIFIER {
		as.Sink().Errorf(pos, "expected argument type")
		return
	}
	//
	typeName := toks.Text(typeTok)
	pointer := strings.HasSuffix(typeName, "*")
	typeName = strings.TrimSuffix(typeName, "*")
	// "type*" syntax may also lex as two tokens.
	if !pointer && toks.Lookahead().Kind == asm.STAR {
		toks.Next()
		pointer = true
	}
	//
	argType, known := argTypeNames[typeName]
	if !known {
		as.Sink().Errorf(toks.PosOf(typeTok), "unknown argument type '%s'", typeName)
		return
	}
	//
	if pointer {
		arg.PointeeType = argType
		arg.ArgType = ArgPointer
	} else {
		arg.ArgType = argType
	}
	//
	if arg.ArgType == ArgStructure && toks.Match(asm.COMMA) {
		arg.StructSize = uint32(constOperand(as, toks))
	}
	// Pointer space and qualifiers.
	unused := false
	//
	for toks.Match(asm.COMMA) {
		qual := toks.Next()
		if qual.Kind != asm.IDENTIFIER {
			as.Sink().Errorf(toks.PosOf(qual), "expected qualifier")
			return
		}
		//
		switch toks.Text(qual) {
		case "global":
			arg.PtrSpace = PtrSpaceGlobal
		case "local":
			arg.PtrSpace = PtrSpaceLocal
		case "constant":
			arg.PtrSpace = PtrSpaceConstant
		case "const":
			arg.PtrAccess |= PtrAccessConst
		case "volatile":
			arg.PtrAccess |= PtrAccessVolatile
		case "restrict":
			arg.PtrAccess |= PtrAccessRestrict
		case "rdonly":
			arg.PtrAccess |= PtrAccessRead
		case "wronly":
			arg.PtrAccess |= PtrAccessWrite
		case "unused":
			unused = true
		default:
			as.Sink().Errorf(toks.PosOf(qual), "unknown qualifier '%s'", toks.Text(qual))
			return
		}
	}
	//
	arg.Used = !unused
	config.Args = append(config.Args, arg)
}

// IsSectionDiffsResolvable implements asm.FormatHandler.
func (p *AmdCL2Handler) IsSectionDiffsResolvable() bool {
	return true
}

// Finalise implements asm.FormatHandler.
func (p *AmdCL2Handler) Finalise(as *asm.Assembler) bool {
	good := true
	//
	if len(as.Kernels()) == 0 {
		as.Sink().Errorf(source.Position{}, "no kernels defined")
		good = false
	}
	//
	for _, kernel := range as.Kernels() {
		if _, ok := p.sections.get(as, ".text", kernel.ID); !ok {
			as.Sink().Errorf(kernel.Pos, "kernel '%s' has no code", kernel.Name)
			good = false
		}
	}
	//
	return good
}

// KernelCode returns the code section content of a kernel.
func (p *AmdCL2Handler) KernelCode(as *asm.Assembler, kernel asm.KernelID) []byte {
	if sect, ok := p.sections.get(as, ".text", kernel); ok {
		return sect.Content
	}
	//
	return nil
}

// KernelSetup returns the setup section content of a kernel, if any.
func (p *AmdCL2Handler) KernelSetup(as *asm.Assembler, kernel asm.KernelID) []byte {
	if sect, ok := p.sections.get(as, ".setup", kernel); ok {
		return sect.Content
	}
	//
	return nil
}

// GlobalData returns the global data content, if any.
func (p *AmdCL2Handler) GlobalData(as *asm.Assembler) []byte {
	if sect, ok := p.sections.get(as, ".rodata", asm.NoKernel); ok {
		return sect.Content
	}
	//
	return nil
}

// SamplerInit returns the raw sampler-init content, if any was written
// directly rather than through .sampler directives.
func (p *AmdCL2Handler) SamplerInit(as *asm.Assembler) []byte {
	if sect, ok := p.sections.get(as, ".samplerinit", asm.NoKernel); ok {
		return sect.Content
	}
	//
	return nil
}
