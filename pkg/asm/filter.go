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
	"strconv"
	"strings"

	"github.com/consensys/go-gcnasm/pkg/util/source"
)

// Maximum nesting depth of macro expansions.
const MAX_MACRO_DEPTH = 256

// Maximum nesting depth of included files.
const MAX_INCLUDE_DEPTH = 64

// inputFilter produces logical lines of assembly text.  Filters form a LIFO
// stack: reading always asks the top filter, popping it once exhausted.
// Each filter owns its buffer and tracks its own source position.
type inputFilter interface {
	// readLine returns the next logical line together with the position of
	// its first character, or false once the filter is exhausted.
	readLine() ([]rune, source.Position, bool)
	// isMacro distinguishes macro/repetition replay from stream input, for
	// depth accounting.
	isMacro() bool
}

// ============================================================================
// Stream filter
// ============================================================================

// streamFilter reads logical lines from a source file, folding lines joined
// by a trailing backslash.
type streamFilter struct {
	file *source.File
	// Index of the next unread rune.
	index int
	// Physical line number of the next unread rune, counting from 1.
	lineNo int
}

// newStreamFilter constructs a filter over a given source file.
func newStreamFilter(file *source.File) *streamFilter {
	return &streamFilter{file, 0, 1}
}

func (p *streamFilter) isMacro() bool {
	return false
}

func (p *streamFilter) readLine() ([]rune, source.Position, bool) {
	var (
		contents = p.file.Contents()
		line     []rune
	)
	//
	if p.index >= len(contents) {
		return nil, source.Position{}, false
	}
	//
	base := source.NewPosition(p.file.Filename(), p.lineNo, 1)
	//
	for p.index < len(contents) {
		ch := contents[p.index]
		p.index++
		//
		if ch == '\n' {
			p.lineNo++
			// A trailing backslash folds the next physical line into this
			// logical line.
			if n := len(line); n > 0 && line[n-1] == '\\' {
				line = line[:n-1]
				continue
			}
			//
			break
		}
		//
		line = append(line, ch)
	}
	//
	return line, base, true
}

// ============================================================================
// Macro filter
// ============================================================================

// macroFilter replays a macro body, substituting \name, \@ and \() on the
// fly.
type macroFilter struct {
	// Name of the macro being replayed, for positions.
	name string
	// Body lines.
	lines []string
	// Next line to replay.
	index int
	// Argument bindings.
	args map[string]string
	// Value substituted for \@ (the macro invocation counter).
	unique uint
	// Local label bindings, from LOCAL declarations in alternate mode.
	locals map[string]string
	// Position of the invocation, heading the expansion chain.
	invocation source.Position
}

// newMacroFilter constructs a replay filter for a macro invocation.
func newMacroFilter(m *Macro, args map[string]string, unique uint, invocation source.Position) *macroFilter {
	return &macroFilter{
		name:       m.Name,
		lines:      splitBodyLines(m.Body),
		args:       args,
		unique:     unique,
		locals:     make(map[string]string),
		invocation: invocation,
	}
}

func (p *macroFilter) isMacro() bool {
	return true
}

func (p *macroFilter) readLine() ([]rune, source.Position, bool) {
	if p.index >= len(p.lines) {
		return nil, source.Position{}, false
	}
	//
	invocation := p.invocation
	pos := source.Position{
		Filename:  fmt.Sprintf("<macro %s>", p.name),
		Line:      p.index + 1,
		Column:    1,
		Expansion: &invocation,
	}
	//
	line := substituteArgs(p.lines[p.index], p.args, p.unique)
	p.index++
	// Apply any LOCAL bindings.
	for name, repl := range p.locals {
		line = replaceWord(line, name, repl)
	}
	//
	return []rune(line), pos, true
}

// bindLocal renames a LOCAL label to a unique hidden name for the remainder
// of this expansion.
func (p *macroFilter) bindLocal(name string, counter uint) {
	p.locals[name] = fmt.Sprintf(".LL%d", counter)
}

// ============================================================================
// Repeat filter
// ============================================================================

// Repetition kinds.
const (
	REPT_PLAIN uint8 = iota
	REPT_IRP
	REPT_IRPC
)

// repeatFilter replays a captured body n times.  For irp/irpc one iteration
// variable is additionally bound per pass.
type repeatFilter struct {
	kind  uint8
	lines []string
	// Line within the current pass.
	index int
	// Current pass, and total number of passes.
	iteration uint64
	count     uint64
	// Iteration variable for irp/irpc.
	varName string
	// One value per pass for irp.
	values []string
	// One character per pass for irpc.
	chars []rune
	// Position of the .rept/.irp directive.
	invocation source.Position
}

// newReptFilter constructs a plain repetition filter.
func newReptFilter(body string, count uint64, invocation source.Position) *repeatFilter {
	return &repeatFilter{
		kind:       REPT_PLAIN,
		lines:      splitBodyLines(body),
		count:      count,
		invocation: invocation,
	}
}

// newIrpFilter constructs a filter iterating a variable over a value list.
func newIrpFilter(body string, varName string, values []string, invocation source.Position) *repeatFilter {
	return &repeatFilter{
		kind:       REPT_IRP,
		lines:      splitBodyLines(body),
		count:      uint64(len(values)),
		varName:    varName,
		values:     values,
		invocation: invocation,
	}
}

// newIrpcFilter constructs a filter iterating a variable over the characters
// of a string.
func newIrpcFilter(body string, varName string, chars string, invocation source.Position) *repeatFilter {
	return &repeatFilter{
		kind:       REPT_IRPC,
		lines:      splitBodyLines(body),
		count:      uint64(len([]rune(chars))),
		varName:    varName,
		chars:      []rune(chars),
		invocation: invocation,
	}
}

func (p *repeatFilter) isMacro() bool {
	return true
}

func (p *repeatFilter) readLine() ([]rune, source.Position, bool) {
	// Move to the next pass once the body is exhausted.
	if p.index >= len(p.lines) {
		p.index = 0
		p.iteration++
	}
	//
	if p.iteration >= p.count || len(p.lines) == 0 {
		return nil, source.Position{}, false
	}
	//
	invocation := p.invocation
	pos := source.Position{
		Filename:  "<repetition>",
		Line:      p.index + 1,
		Column:    1,
		Expansion: &invocation,
	}
	//
	line := p.lines[p.index]
	p.index++
	// Bind the iteration variable, if any.
	switch p.kind {
	case REPT_IRP:
		line = substituteArgs(line, map[string]string{p.varName: p.values[p.iteration]}, 0)
	case REPT_IRPC:
		line = substituteArgs(line, map[string]string{p.varName: string(p.chars[p.iteration])}, 0)
	}
	//
	return []rune(line), pos, true
}

// ============================================================================
// Substitution helpers
// ============================================================================

// splitBodyLines splits a captured body into its lines, dropping the
// trailing empty line a terminating newline would otherwise create.
func splitBodyLines(body string) []string {
	lines := strings.Split(body, "\n")
	//
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	//
	return lines
}

// substituteArgs performs \name, \@, \() and \\ substitution over one line.
// Unknown \name sequences are left intact, since they may be lexical
// backslashes in a nested context.
func substituteArgs(line string, args map[string]string, unique uint) string {
	var (
		out   strings.Builder
		runes = []rune(line)
	)
	//
	for i := 0; i < len(runes); i++ {
		if runes[i] != '\\' || i+1 == len(runes) {
			out.WriteRune(runes[i])
			continue
		}
		//
		next := runes[i+1]
		//
		switch {
		case next == '\\':
			out.WriteRune('\\')
			i++
		case next == '@':
			out.WriteString(strconv.FormatUint(uint64(unique), 10))
			i++
		case next == '(':
			// \() expands to nothing, acting as a token separator.
			if i+2 < len(runes) && runes[i+2] == ')' {
				i += 2
			} else {
				out.WriteRune('\\')
			}
		case isNameStart(next):
			// scan the argument name
			j := i + 1
			for j < len(runes) && isNameRest(runes[j]) {
				j++
			}
			//
			name := string(runes[i+1 : j])
			//
			if value, ok := args[name]; ok {
				out.WriteString(value)
				i = j - 1
			} else {
				out.WriteRune('\\')
			}
		default:
			out.WriteRune('\\')
		}
	}
	//
	return out.String()
}

// replaceWord substitutes whole-word occurrences of name within a line.
func replaceWord(line string, name string, replacement string) string {
	var (
		out   strings.Builder
		runes = []rune(line)
		n     = len([]rune(name))
	)
	//
	for i := 0; i < len(runes); {
		if strings.HasPrefix(string(runes[i:]), name) &&
			(i == 0 || !isNameRest(runes[i-1])) &&
			(i+n == len(runes) || !isNameRest(runes[i+n])) {
			out.WriteString(replacement)
			i += n
		} else {
			out.WriteRune(runes[i])
			i++
		}
	}
	//
	return out.String()
}

func isNameStart(ch rune) bool {
	return ch == '_' || ch == '.' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isNameRest(ch rune) bool {
	return isNameStart(ch) || (ch >= '0' && ch <= '9')
}
