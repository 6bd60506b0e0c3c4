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
	"github.com/consensys/go-gcnasm/pkg/asm"
	"github.com/consensys/go-gcnasm/pkg/util/source"
)

// Legacy AMD Catalyst output sections are capped at 2 GiB.
const amdMaxSectionSize = 2 << 30

// AmdKernelConfig is the per-kernel configuration of the legacy AMD
// Catalyst OpenCL 1.2 format.
type AmdKernelConfig struct {
	// Number of dimensions used (1..3), from .dims.
	Dims uint8
	// Register budget; zero means derive from the code.
	SGPRsNum uint32
	VGPRsNum uint32
	// Local data size in bytes.
	LocalSize uint32
	// Scratch buffer size in bytes.
	ScratchBufferSize uint32
	// Float mode byte; the hardware default.
	FloatMode uint32
	// Raw PGM_RSRC2 value.
	PgmRSRC2 uint32
	IEEEMode bool
	// Compile options recorded into the metadata.
	CompileOptions string
}

// AmdHandler implements the legacy AMD Catalyst format: per-kernel .text,
// .header, .metadata and .data sections plus a global .rodata, with kernels
// nominated by .kernel creating the full set on first reference.
type AmdHandler struct {
	sections sectionSet
	// Per-kernel configurations, keyed by kernel id.
	configs map[asm.KernelID]*AmdKernelConfig
	// Compile options for the whole program.
	CompileOptions string
}

// NewAmdHandler constructs the legacy AMD handler.
func NewAmdHandler() *AmdHandler {
	return &AmdHandler{
		sections: newSectionSet(),
		configs:  make(map[asm.KernelID]*AmdKernelConfig),
	}
}

// Name implements asm.FormatHandler.
func (p *AmdHandler) Name() string {
	return FormatAmd
}

// Config returns (creating on demand) the configuration of a kernel.
func (p *AmdHandler) Config(kernel asm.KernelID) *AmdKernelConfig {
	config, ok := p.configs[kernel]
	//
	if !ok {
		config = &AmdKernelConfig{FloatMode: 0xc0}
		p.configs[kernel] = config
	}
	//
	return config
}

// SectionForName implements asm.FormatHandler.
func (p *AmdHandler) SectionForName(as *asm.Assembler, name string) (*asm.Section, bool) {
	if sect, ok := p.sections.get(as, name, as.CurrentKernel()); ok {
		return sect, true
	}
	//
	return p.sections.get(as, name, asm.NoKernel)
}

// SwitchSection implements asm.FormatHandler.
func (p *AmdHandler) SwitchSection(as *asm.Assembler, name string, pos source.Position) bool {
	var sect *asm.Section
	//
	switch name {
	case ".rodata":
		sect = p.sections.obtain(as, name, asm.NoKernel, asm.SECT_ADDRESSABLE|asm.SECT_WRITEABLE, 1)
	case ".text":
		kernel := as.CurrentKernel()
		if kernel == asm.NoKernel {
			return false
		}
		//
		sect = p.kernelText(as, kernel)
	case ".data", ".header", ".metadata":
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
	sect.MaxSize = amdMaxSectionSize
	as.SetCurrentSection(sect.ID)
	//
	return true
}

func (p *AmdHandler) kernelText(as *asm.Assembler, kernel asm.KernelID) *asm.Section {
	return p.sections.obtain(as, ".text", kernel,
		asm.SECT_ADDRESSABLE|asm.SECT_WRITEABLE|asm.SECT_CODE, 256)
}

// BeginKernel implements asm.FormatHandler, creating the kernel's code
// section and switching to it.
func (p *AmdHandler) BeginKernel(as *asm.Assembler, kernel *asm.Kernel, pos source.Position) bool {
	p.Config(kernel.ID)
	//
	sect := p.kernelText(as, kernel.ID)
	sect.MaxSize = amdMaxSectionSize
	as.SetCurrentSection(sect.ID)
	//
	return true
}

// HandleDirective implements asm.FormatHandler, covering the kernel
// configuration directives of the legacy format.
//
//nolint:gocyclo
func (p *AmdHandler) HandleDirective(as *asm.Assembler, name string, toks *asm.Tokens, pos source.Position) bool {
	kernel := as.CurrentKernel()
	//
	switch name {
	case ".config":
		// configuration follows; nothing to switch
		return true
	case ".compile_options":
		if tok := toks.Next(); tok.Kind == asm.STRING {
			p.CompileOptions = asm.TrimStringToken(toks.Text(tok))
		} else {
			as.Sink().Errorf(pos, "expected string")
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
	case ".sgprsnum":
		config.SGPRsNum = uint32(constOperand(as, toks))
	case ".vgprsnum":
		config.VGPRsNum = uint32(constOperand(as, toks))
	case ".localsize":
		config.LocalSize = uint32(constOperand(as, toks))
	case ".scratchbuffer":
		config.ScratchBufferSize = uint32(constOperand(as, toks))
	case ".floatmode":
		config.FloatMode = uint32(constOperand(as, toks))
	case ".pgmrsrc2":
		config.PgmRSRC2 = uint32(constOperand(as, toks))
	case ".ieeemode":
		config.IEEEMode = true
	default:
		return false
	}
	//
	return true
}

// IsSectionDiffsResolvable implements asm.FormatHandler; the legacy writer
// resolves cross-section expressions late.
func (p *AmdHandler) IsSectionDiffsResolvable() bool {
	return true
}

// Finalise implements asm.FormatHandler.
func (p *AmdHandler) Finalise(as *asm.Assembler) bool {
	good := true
	//
	for _, kernel := range as.Kernels() {
		config := p.Config(kernel.ID)
		//
		if config.Dims > 3 {
			as.Sink().Errorf(kernel.Pos, "illegal dimensions for kernel '%s'", kernel.Name)
			good = false
		}
		//
		if _, ok := p.sections.get(as, ".text", kernel.ID); !ok {
			as.Sink().Errorf(kernel.Pos, "kernel '%s' has no code", kernel.Name)
			good = false
		}
	}
	//
	return good
}

// KernelCode returns the code section content of a kernel.
func (p *AmdHandler) KernelCode(as *asm.Assembler, kernel asm.KernelID) []byte {
	if sect, ok := p.sections.get(as, ".text", kernel); ok {
		return sect.Content
	}
	//
	return nil
}

// GlobalData returns the global .rodata content, if any.
func (p *AmdHandler) GlobalData(as *asm.Assembler) []byte {
	if sect, ok := p.sections.get(as, ".rodata", asm.NoKernel); ok {
		return sect.Content
	}
	//
	return nil
}

// parseDims parses the "xyz" dimension string of a .dims directive.
func parseDims(as *asm.Assembler, toks *asm.Tokens, pos source.Position) uint8 {
	tok := toks.Next()
	//
	if tok.Kind != asm.IDENTIFIER {
		as.Sink().Errorf(pos, "expected dimension letters")
		return 0
	}
	//
	dims := uint8(0)
	//
	for _, ch := range toks.Text(tok) {
		switch ch {
		case 'x':
			dims = max(dims, 1)
		case 'y':
			dims = max(dims, 2)
		case 'z':
			dims = max(dims, 3)
		default:
			as.Sink().Errorf(pos, "unknown dimension letter '%c'", ch)
			return 0
		}
	}
	//
	return dims
}

// constOperand evaluates a constant directive operand.
func constOperand(as *asm.Assembler, toks *asm.Tokens) uint64 {
	expr := as.ParseExpr(toks)
	if expr == nil {
		return 0
	}
	//
	val, status := as.EvalExpr(expr, true)
	if status != asm.EVAL_OK || !val.IsConstant() {
		return 0
	}
	//
	return val.Uint
}
