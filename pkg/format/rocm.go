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

// ROCmHandler plugs the ROCm (HSA) format into the handler contract.  Only
// the section and kernel plumbing is provided; no binary generator backs it
// yet.
type ROCmHandler struct {
	sections sectionSet
}

// NewROCmHandler constructs the ROCm handler.
func NewROCmHandler() *ROCmHandler {
	return &ROCmHandler{newSectionSet()}
}

// Name implements asm.FormatHandler.
func (p *ROCmHandler) Name() string {
	return FormatROCm
}

// SectionForName implements asm.FormatHandler.
func (p *ROCmHandler) SectionForName(as *asm.Assembler, name string) (*asm.Section, bool) {
	return p.sections.get(as, name, asm.NoKernel)
}

// SwitchSection implements asm.FormatHandler.  ROCm carries one global code
// section holding every kernel behind its dispatch descriptor.
func (p *ROCmHandler) SwitchSection(as *asm.Assembler, name string, pos source.Position) bool {
	if name != ".text" {
		return false
	}
	//
	sect := p.sections.obtain(as, name, asm.NoKernel,
		asm.SECT_ADDRESSABLE|asm.SECT_WRITEABLE|asm.SECT_CODE, 4096)
	as.SetCurrentSection(sect.ID)
	//
	return true
}

// BeginKernel implements asm.FormatHandler; kernels share the global code
// section, each starting at a 256-byte boundary.
func (p *ROCmHandler) BeginKernel(as *asm.Assembler, kernel *asm.Kernel, pos source.Position) bool {
	if !p.SwitchSection(as, ".text", pos) {
		return false
	}
	//
	as.CurrentSectionPtr().AlignTo(256, 0)
	//
	return true
}

// HandleDirective implements asm.FormatHandler.
func (p *ROCmHandler) HandleDirective(as *asm.Assembler, name string, toks *asm.Tokens, pos source.Position) bool {
	return false
}

// IsSectionDiffsResolvable implements asm.FormatHandler.
func (p *ROCmHandler) IsSectionDiffsResolvable() bool {
	return false
}

// Finalise implements asm.FormatHandler.
func (p *ROCmHandler) Finalise(as *asm.Assembler) bool {
	return true
}
