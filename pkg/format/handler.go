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

// Package format implements the binary-format handlers.  A handler owns the
// set of sections its format requires, mediates the directives that name
// sections implicitly, holds per-kernel configuration records, and validates
// format constraints at the end of assembly.
package format

import (
	"fmt"

	"github.com/consensys/go-gcnasm/pkg/asm"
)

// Format names accepted on the command line.
const (
	FormatRaw     = "raw"
	FormatAmd     = "amd"
	FormatAmdCL2  = "amdcl2"
	FormatGallium = "gallium"
	FormatROCm    = "rocm"
)

// NewHandler constructs the handler for a named format.
func NewHandler(name string) (asm.FormatHandler, error) {
	switch name {
	case FormatRaw, "":
		return NewRawHandler(), nil
	case FormatAmd:
		return NewAmdHandler(), nil
	case FormatAmdCL2:
		return NewAmdCL2Handler(), nil
	case FormatGallium:
		return NewGalliumHandler(), nil
	case FormatROCm:
		return NewROCmHandler(), nil
	default:
		return nil, fmt.Errorf("unknown binary format %q", name)
	}
}

// sectionKey identifies a named section within a kernel (or globally).
type sectionKey struct {
	name   string
	kernel asm.KernelID
}

// sectionSet tracks the sections a handler has created.
type sectionSet struct {
	sections map[sectionKey]asm.SectionID
}

func newSectionSet() sectionSet {
	return sectionSet{make(map[sectionKey]asm.SectionID)}
}

// get returns an existing section of the set.
func (p *sectionSet) get(as *asm.Assembler, name string, kernel asm.KernelID) (*asm.Section, bool) {
	if id, ok := p.sections[sectionKey{name, kernel}]; ok {
		return as.Sections()[id], true
	}
	//
	return nil, false
}

// obtain returns the named section, creating it with the given flags on
// first use.
func (p *sectionSet) obtain(as *asm.Assembler, name string, kernel asm.KernelID, flags uint8, align uint64) *asm.Section {
	if sect, ok := p.get(as, name, kernel); ok {
		return sect
	}
	//
	sect := as.CreateSection(name, kernel, flags, align)
	p.sections[sectionKey{name, kernel}] = sect.ID
	//
	return sect
}
