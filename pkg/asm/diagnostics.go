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
	"fmt"

	"github.com/consensys/go-gcnasm/pkg/util/source"
)

// WARNING diagnostics do not affect the outcome of assembly (unless warnings
// are promoted to errors).
const WARNING uint8 = 0

// ERROR diagnostics mark the assembly as failed, but processing continues so
// that later errors surface in one run.
const ERROR uint8 = 1

// FATAL diagnostics abort the current top-level operation.
const FATAL uint8 = 2

// Diagnostic is a single message produced during assembly, together with the
// position of the source text which produced it.
type Diagnostic struct {
	// Position in the original source, including any expansion chain.
	Pos source.Position
	// One of WARNING, ERROR or FATAL.
	Severity uint8
	// Human-readable message.
	Message string
}

// String returns the conventional single-line rendering of this diagnostic.
func (p *Diagnostic) String() string {
	var kind string
	//
	switch p.Severity {
	case WARNING:
		kind = "warning"
	case ERROR:
		kind = "error"
	default:
		kind = "fatal"
	}
	//
	return fmt.Sprintf("%s: %s: %s", p.Pos.String(), kind, p.Message)
}

// Sink accumulates diagnostics produced during assembly.  Diagnostics never
// abort control flow themselves; components report and continue, and the
// overall outcome is determined by Good.  The sink is passed explicitly to
// every component which can report, rather than being process-wide state.
type Sink struct {
	// All diagnostics reported so far, in report order.
	Diagnostics []Diagnostic
	// Promote warnings to errors.
	WarningsAreErrors bool
	// False once the first error-level diagnostic has been reported.
	good bool
}

// NewSink constructs an empty diagnostic sink.
func NewSink(warningsAreErrors bool) *Sink {
	return &Sink{nil, warningsAreErrors, true}
}

// Good reports whether no error-level diagnostic has been seen.
func (p *Sink) Good() bool {
	return p.good
}

// Warningf reports a formatted warning at a given position.
func (p *Sink) Warningf(pos source.Position, format string, args ...any) {
	severity := WARNING
	if p.WarningsAreErrors {
		severity = ERROR
		p.good = false
	}
	//
	p.Diagnostics = append(p.Diagnostics, Diagnostic{pos, severity, fmt.Sprintf(format, args...)})
}

// Errorf reports a formatted error at a given position.
func (p *Sink) Errorf(pos source.Position, format string, args ...any) {
	p.good = false
	p.Diagnostics = append(p.Diagnostics, Diagnostic{pos, ERROR, fmt.Sprintf(format, args...)})
}

// Fatalf reports a formatted fatal diagnostic at a given position.
func (p *Sink) Fatalf(pos source.Position, format string, args ...any) {
	p.good = false
	p.Diagnostics = append(p.Diagnostics, Diagnostic{pos, FATAL, fmt.Sprintf(format, args...)})
}

// Errors counts the number of error-level (or worse) diagnostics reported.
func (p *Sink) Errors() uint {
	count := uint(0)
	//
	for _, d := range p.Diagnostics {
		if d.Severity != WARNING {
			count++
		}
	}
	//
	return count
}
