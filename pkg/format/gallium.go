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

// GalliumHandler plugs the Gallium (Mesa) compute format into the handler
// contract.  Only the section and kernel plumbing is provided; no binary
// generator backs it yet.
type GalliumHandler struct {
	sections sectionSet
}

// NewGalliumHandler constructs the Gallium handler.
func NewGalliumHandler() *GalliumHandler {
	return &GalliumHandler{newSectionSet()}
}

// Name implements asm.FormatHandler.
func (p *GalliumHandler) Name() string {
	return FormatGallium
}

// SectionForName implements asm.FormatHandler.
func (p *GalliumHandler) SectionForName(as *asm.Assembler, name string) (*asm.Section, bool) {
	return p.sections.get(as, name, asm.NoKernel)
}

// SwitchSection implements asm.FormatHandler.  Gallium keeps one global code
// section shared by all kernels, plus .rodata.
func (p *GalliumHandler) SwitchSection(as *asm.Assembler, name string, pos source.Position) bool {
	var sect *asm.Section
	//
	switch name {
	case ".text":
		sect = p.sections.obtain(as, name, asm.NoKernel,
			asm.SECT_ADDRESSABLE|asm.SECT_WRITEABLE|asm.SECT_CODE, 256)
	case ".rodata":
		sect = p.sections.obtain(as, name, asm.NoKernel, asm.SECT_ADDRESSABLE|asm.SECT_WRITEABLE, 4)
	default:
		return false
	}
	//
	as.SetCurrentSection(sect.ID)
	//
	return true
}

// BeginKernel implements asm.FormatHandler; kernels share the global code
// section.
func (p *GalliumHandler) BeginKernel(as *asm.Assembler, kernel *asm.Kernel, pos source.Position) bool {
	return p.SwitchSection(as, ".text", pos)
}

// HandleDirective implements asm.FormatHandler.
func (p *GalliumHandler) HandleDirective(as *asm.Assembler, name string, toks *asm.Tokens, pos source.Position) bool {
	return false
}

// IsSectionDiffsResolvable implements asm.FormatHandler.
func (p *GalliumHandler) IsSectionDiffsResolvable() bool {
	return false
}

// Finalise implements asm.FormatHandler.
func (p *GalliumHandler) Finalise(as *asm.Assembler) bool {
	return true
}
