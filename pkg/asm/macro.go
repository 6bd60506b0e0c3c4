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
package asm

import (
	"github.com/consensys/go-gcnasm/pkg/util/source"
)

// MacroParam is a single formal parameter of a macro, with an optional
// default and a required marker (":req").
type MacroParam struct {
	Name     string
	Default  string
	Required bool
}

// Macro is a captured macro body together with its formal parameters.  An
// invocation pushes a macro input filter with its arguments substituted.
type Macro struct {
	Name   string
	Params []MacroParam
	// Raw body text, replayed line by line.
	Body string
	// Whether invocation matching is case-sensitive.
	CaseSensitive bool
	// Whether the body was captured under alternate-macro mode.
	AltMode bool
	// Position of the .macro directive.
	Pos source.Position
}

// Clause kinds for the conditional/repetition/macro clause stack.
const (
	CLAUSE_IF uint8 = iota
	CLAUSE_ELSEIF
	CLAUSE_ELSE
	CLAUSE_REPEAT
	CLAUSE_MACRO
)

// clause tracks one open .if/.elseif/.else, .rept/.irp or .macro block, so
// that mismatched terminators can be diagnosed at the offending line.
type clause struct {
	kind uint8
	// Position of the directive which opened the clause.
	pos source.Position
	// Whether some branch of the conditional chain has already been taken.
	condSatisfied bool
}
