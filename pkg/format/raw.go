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

// RawHandler emits a bare code blob: a single .text section and no
// metadata.
type RawHandler struct {
	sections sectionSet
}

// NewRawHandler constructs the raw-format handler.
func NewRawHandler() *RawHandler {
	return &RawHandler{newSectionSet()}
}

// Name implements asm.FormatHandler.
func (p *RawHandler) Name() string {
	return FormatRaw
}

// SectionForName implements asm.FormatHandler.
func (p *RawHandler) SectionForName(as *asm.Assembler, name string) (*asm.Section, bool) {
	return p.sections.get(as, name, asm.NoKernel)
}

// SwitchSection implements asm.FormatHandler.  Only .text exists.
func (p *RawHandler) SwitchSection(as *asm.Assembler, name string, pos source.Position) bool {
	if name != ".text" {
		return false
	}
	//
	sect := p.sections.obtain(as, name, asm.NoKernel,
		asm.SECT_ADDRESSABLE|asm.SECT_WRITEABLE|asm.SECT_CODE, 256)
	as.SetCurrentSection(sect.ID)
	//
	return true
}

// BeginKernel implements asm.FormatHandler; the raw format has no kernels.
func (p *RawHandler) BeginKernel(as *asm.Assembler, kernel *asm.Kernel, pos source.Position) bool {
	return false
}

// HandleDirective implements asm.FormatHandler; there are no raw-specific
// directives.
func (p *RawHandler) HandleDirective(as *asm.Assembler, name string, toks *asm.Tokens, pos source.Position) bool {
	return false
}

// IsSectionDiffsResolvable implements asm.FormatHandler.
func (p *RawHandler) IsSectionDiffsResolvable() bool {
	return false
}

// Finalise implements asm.FormatHandler.
func (p *RawHandler) Finalise(as *asm.Assembler) bool {
	return true
}

// Code returns the content of the .text section, for output.
func (p *RawHandler) Code(as *asm.Assembler) []byte {
	if sect, ok := p.sections.get(as, ".text", asm.NoKernel); ok {
		return sect.Content
	}
	//
	return nil
}
