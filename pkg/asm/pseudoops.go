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
	"strings"

	"github.com/consensys/go-gcnasm/pkg/util/source"
)

// dispatchDirective handles a pseudo-op, given its name (including leading
// dot) and the cursor positioned after it.  Unknown directives fall through
// to the format handler.
//
//nolint:gocyclo
func (as *Assembler) dispatchDirective(name string, toks *Tokens, pos source.Position) {
	switch name {
	case ".byte":
		as.handleData(toks, 1)
	case ".half", ".short", ".hword":
		as.handleData(toks, 2)
	case ".word", ".int", ".long":
		as.handleData(toks, 4)
	case ".quad":
		as.handleData(toks, 8)
	case ".fill":
		as.handleFill(toks, pos)
	case ".skip", ".space":
		as.handleSkip(toks, pos)
	case ".align", ".balign":
		as.handleAlign(toks, pos)
	case ".org":
		as.handleOrg(toks, pos)
	case ".ascii":
		as.handleAscii(toks, false)
	case ".asciz", ".string":
		as.handleAscii(toks, true)
	case ".equ", ".set":
		as.handleAssign(toks, pos, false)
	case ".eqv":
		as.handleAssign(toks, pos, true)
	case ".undef":
		as.handleUndef(toks, pos)
	case ".size":
		as.handleSize(toks, pos)
	case ".globl", ".global":
		as.handleLinkage(toks, true)
	case ".local":
		as.handleLinkage(toks, false)
	case ".section":
		as.handleSection(toks, pos)
	case ".text", ".data", ".rodata", ".bss":
		as.switchSection(name, pos)
	case ".kernel":
		as.handleKernel(toks, pos)
	case ".macro":
		as.handleMacro(toks, pos)
	case ".endm", ".endmacro":
		as.sink.Errorf(pos, "no macro definition to end")
	case ".rept":
		as.handleRept(toks, pos)
	case ".irp":
		as.handleIrp(toks, pos, false)
	case ".irpc":
		as.handleIrp(toks, pos, true)
	case ".endr":
		as.sink.Errorf(pos, "no repetition to end")
	case ".if":
		as.handleIf(toks, pos, as.evalCondition(toks))
	case ".ifdef", ".ifndef":
		as.handleIfDef(toks, pos, name == ".ifndef")
	case ".ifb", ".ifnb":
		as.handleIf(toks, pos, as.restIsBlank(toks) == (name == ".ifb"))
	case ".ifc", ".ifnc":
		as.handleIfStrings(toks, pos, name == ".ifc")
	case ".ifeq", ".ifne":
		as.handleIfZero(toks, pos, name == ".ifeq")
	case ".elseif", ".else", ".endif":
		as.handleBranch(name, toks, pos)
	case ".include":
		as.handleInclude(toks, pos)
	case ".error":
		as.sink.Errorf(pos, "%s", as.parseMessage(toks, "error"))
	case ".warning":
		as.sink.Warningf(pos, "%s", as.parseMessage(toks, "warning"))
	case ".print":
		fmt.Fprintln(as.cfg.PrintStream, as.parseMessage(toks, ""))
	case ".scope":
		as.handleScope(toks)
	case ".ends", ".endscope":
		if !as.LeaveScope() {
			as.sink.Errorf(pos, "no scope to end")
		}
	case ".usescope":
		as.handleUseScope(toks, pos)
	case ".reg", ".regvar":
		as.handleRegVar(toks, pos)
	case ".usereg":
		as.handleUseReg(toks, pos)
	case ".gpu", ".arch":
		as.handleGpu(toks, pos)
	case ".altmacro":
		as.altMacro = true
	case ".noaltmacro":
		as.altMacro = false
	case ".32bit":
		as.cfg.Is64Bit = false
	case ".64bit":
		as.cfg.Is64Bit = true
	default:
		// Delegate format-specific directives.
		if as.handler == nil || !as.handler.HandleDirective(as, name, toks, pos) {
			as.sink.Errorf(pos, "unknown directive '%s'", name)
		}
	}
}

// ============================================================================
// Data directives
// ============================================================================

// handleData appends a value list to the current section, with each element
// occupying size bytes little-endian.  Elements which cannot be evaluated
// yet reserve space and are patched once resolved.
func (as *Assembler) handleData(toks *Tokens, size uint8) {
	sect := as.CurrentSectionPtr()
	//
	if !as.checkWritable(sect, toks.Pos()) {
		return
	}
	//
	for first := true; first || toks.Match(COMMA); first = false {
		var (
			pos  = toks.Pos()
			expr = as.ParseExpr(toks)
		)
		//
		if expr == nil {
			return
		}
		//
		offset := sect.Size()
		val, status := as.EvalExpr(expr, false)
		//
		switch status {
		case EVAL_OK:
			if val.Kind != INTVAL && val.Kind != ADDRVAL {
				as.sink.Errorf(pos, "expected numeric value")
				continue
			}
			//
			as.putOrOverflow(sect, val.Uint, size, pos)
		case EVAL_UNRESOLVED:
			// reserve space now, patch later
			expr.Target = DataTarget(size, sect.ID, offset)
			as.putOrOverflow(sect, 0, size, pos)
			as.DeferExpression(expr)
		case EVAL_CROSS_SECTION:
			if size < 4 {
				as.sink.Errorf(pos, "expression evaluation failed")
				continue
			}
			//
			expr.Target = DataTarget(size, sect.ID, offset)
			as.putOrOverflow(sect, 0, size, pos)
			sect.Relocs = append(sect.Relocs, Reloc{offset, size, expr})
		}
	}
}

func (as *Assembler) handleFill(toks *Tokens, pos source.Position) {
	var (
		sect  = as.CurrentSectionPtr()
		count uint64
		size  = uint64(1)
		value uint64
		ok    bool
	)
	//
	if !as.checkWritable(sect, pos) {
		return
	} else if count, ok = as.constExpr(toks); !ok {
		return
	}
	//
	if toks.Match(COMMA) {
		if size, ok = as.constExpr(toks); !ok {
			return
		}
		//
		if toks.Match(COMMA) {
			if value, ok = as.constExpr(toks); !ok {
				return
			}
		}
	}
	//
	if size == 0 || size > 8 {
		as.sink.Errorf(pos, "illegal fill size %d", size)
		return
	}
	//
	for i := uint64(0); i < count; i++ {
		as.putOrOverflow(sect, value, uint8(size), pos)
	}
}

func (as *Assembler) handleSkip(toks *Tokens, pos source.Position) {
	var (
		sect  = as.CurrentSectionPtr()
		count uint64
		fill  uint64
		ok    bool
	)
	//
	if !as.checkWritable(sect, pos) {
		return
	} else if count, ok = as.constExpr(toks); !ok {
		return
	}
	//
	if toks.Match(COMMA) {
		if fill, ok = as.constExpr(toks); !ok {
			return
		}
	}
	//
	if !sect.Reserve(count, byte(fill)) {
		as.sectionOverflow(sect, pos)
	}
}

func (as *Assembler) handleAlign(toks *Tokens, pos source.Position) {
	var (
		sect  = as.CurrentSectionPtr()
		align uint64
		fill  uint64
		ok    bool
	)
	//
	if align, ok = as.constExpr(toks); !ok {
		return
	}
	//
	if align != 0 && align&(align-1) != 0 {
		as.sink.Errorf(pos, "alignment is not a power of two")
		return
	}
	//
	if toks.Match(COMMA) {
		if fill, ok = as.constExpr(toks); !ok {
			return
		}
	}
	//
	sect.AlignTo(align, byte(fill))
}

func (as *Assembler) handleOrg(toks *Tokens, pos source.Position) {
	var (
		sect       = as.CurrentSectionPtr()
		target, ok = as.constExpr(toks)
	)
	//
	if !ok {
		return
	} else if target < sect.Size() {
		as.sink.Errorf(pos, "attempt to move output position backwards")
		return
	}
	//
	if !sect.Reserve(target-sect.Size(), 0) {
		as.sectionOverflow(sect, pos)
	}
}

func (as *Assembler) handleAscii(toks *Tokens, zeroTerminated bool) {
	sect := as.CurrentSectionPtr()
	//
	if !as.checkWritable(sect, toks.Pos()) {
		return
	}
	//
	for first := true; first || toks.Match(COMMA); first = false {
		tok, ok := as.expect(toks, STRING)
		if !ok {
			return
		}
		//
		text := trimQuotes(toks.Text(tok))
		//
		if !sect.PutBytes([]byte(text)) {
			as.sectionOverflow(sect, toks.PosOf(tok))
			return
		}
		//
		if zeroTerminated {
			sect.Put(0)
		}
	}
}

// constExpr parses and immediately evaluates an expression which must be a
// plain integer; deferral is not permitted.
func (as *Assembler) constExpr(toks *Tokens) (uint64, bool) {
	var (
		pos  = toks.Pos()
		expr = as.ParseExpr(toks)
	)
	//
	if expr == nil {
		return 0, false
	}
	//
	val, status := as.EvalExpr(expr, true)
	//
	if status != EVAL_OK || !val.IsConstant() {
		if status == EVAL_OK {
			as.sink.Errorf(pos, "expected constant value")
		}
		//
		return 0, false
	}
	//
	return val.Uint, true
}

func (as *Assembler) checkWritable(sect *Section, pos source.Position) bool {
	if sect.ID == AbsSection {
		as.sink.Errorf(pos, "writing data into the absolute section")
		return false
	}
	//
	return true
}

func (as *Assembler) putOrOverflow(sect *Section, value uint64, size uint8, pos source.Position) {
	if !sect.PutUint(value, size) {
		as.sectionOverflow(sect, pos)
	}
}

func (as *Assembler) sectionOverflow(sect *Section, pos source.Position) {
	as.sink.Fatalf(pos, "section '%s' exceeds maximum size", sect.Name)
}

// ============================================================================
// Symbol directives
// ============================================================================

// handleAssign implements .equ/.set (mutable) and .eqv (snapshot).
func (as *Assembler) handleAssign(toks *Tokens, pos source.Position, snapshot bool) {
	tok, ok := as.expect(toks, IDENTIFIER)
	if !ok {
		return
	}
	//
	name := toks.Text(tok)
	//
	if _, ok := as.expect(toks, COMMA); !ok {
		return
	}
	//
	expr := as.ParseExpr(toks)
	if expr == nil {
		return
	}
	//
	if snapshot {
		// Freeze every operand symbol so later rebindings do not propagate.
		as.snapshotizeExpr(expr, expr.Root, pos)
	}
	//
	as.AssignSymbol(name, expr, pos)
}

// snapshotizeExpr replaces every symbol occurrence in a tree with a frozen
// snapshot of that symbol.
func (as *Assembler) snapshotizeExpr(e *Expression, n *ExprNode, pos source.Position) {
	if n == nil {
		return
	}
	//
	switch n.Op {
	case OP_SYMBOL:
		snap := as.snapshotOf(as.symArena[n.SymIdx], pos)
		n.SymIdx = snap.ArenaIdx
	case OP_PAREN_SYMBOL:
		// already a snapshot
	default:
		as.snapshotizeExpr(e, n.Cond, pos)
		as.snapshotizeExpr(e, n.Lhs, pos)
		as.snapshotizeExpr(e, n.Rhs, pos)
	}
}

func (as *Assembler) handleUndef(toks *Tokens, pos source.Position) {
	tok, ok := as.expect(toks, IDENTIFIER)
	if !ok {
		return
	}
	//
	name := toks.Text(tok)
	sym := as.LookupSymbol(name)
	//
	if sym == nil {
		as.sink.Errorf(pos, "symbol '%s' is not defined", name)
		return
	}
	// The arena entry stays; dangling occurrences remain undefined.
	delete(sym.Scope.Symbols, sym.Name)
}

// handleSize attaches an object size to a symbol (".size name, expr").
func (as *Assembler) handleSize(toks *Tokens, pos source.Position) {
	tok, ok := as.expect(toks, IDENTIFIER)
	if !ok {
		return
	}
	//
	name := toks.Text(tok)
	//
	if _, ok := as.expect(toks, COMMA); !ok {
		return
	}
	//
	size, ok := as.constExpr(toks)
	if !ok {
		return
	}
	//
	as.SymbolRef(name).Size = size
}

func (as *Assembler) handleLinkage(toks *Tokens, global bool) {
	for first := true; first || toks.Match(COMMA); first = false {
		tok, ok := as.expect(toks, IDENTIFIER)
		if !ok {
			return
		}
		//
		as.SymbolRef(toks.Text(tok)).Global = global
	}
}

// ============================================================================
// Section & kernel directives
// ============================================================================

func (as *Assembler) handleSection(toks *Tokens, pos source.Position) {
	tok := toks.Next()
	//
	var name string
	//
	switch tok.Kind {
	case IDENTIFIER:
		name = toks.Text(tok)
	case STRING:
		name = trimQuotes(toks.Text(tok))
	default:
		as.sink.Errorf(toks.PosOf(tok), "expected section name")
		return
	}
	//
	as.switchSection(name, pos)
}

func (as *Assembler) switchSection(name string, pos source.Position) {
	if as.handler == nil || !as.handler.SwitchSection(as, name, pos) {
		as.sink.Errorf(pos, "section '%s' is not supported by format", name)
	}
}

func (as *Assembler) handleKernel(toks *Tokens, pos source.Position) {
	tok, ok := as.expect(toks, IDENTIFIER)
	if !ok {
		return
	}
	//
	if as.handler == nil {
		as.sink.Errorf(pos, "format does not support kernels")
		return
	}
	//
	as.BeginKernel(toks.Text(tok), pos)
}

// ============================================================================
// Scope directives
// ============================================================================

func (as *Assembler) handleScope(toks *Tokens) {
	// Scope name is optional; absent means anonymous.
	if toks.Lookahead().Kind == IDENTIFIER {
		as.EnterScope(toks.Text(toks.Next()))
	} else {
		as.EnterScope("")
	}
}

func (as *Assembler) handleUseScope(toks *Tokens, pos source.Position) {
	tok, ok := as.expect(toks, IDENTIFIER)
	if !ok {
		return
	}
	//
	var (
		name             = toks.Text(tok)
		components, root = splitScopedName(name)
		scope            *Scope
	)
	//
	if root {
		scope = as.globalScope
	} else {
		scope = as.currentScope
	}
	//
	for _, component := range components {
		child, ok := scope.Children[component]
		if !ok {
			as.sink.Errorf(pos, "unknown scope '%s'", name)
			return
		}
		//
		scope = child
	}
	//
	if !as.currentScope.Use(scope) {
		as.sink.Errorf(pos, "scope inclusion would form a cycle")
	}
}

// ============================================================================
// Register variable directives
// ============================================================================

// handleRegVar parses ".regvar name:class[:count], ..." declarations.
func (as *Assembler) handleRegVar(toks *Tokens, pos source.Position) {
	for first := true; first || toks.Match(COMMA); first = false {
		tok, ok := as.expect(toks, IDENTIFIER)
		if !ok {
			return
		}
		//
		name := toks.Text(tok)
		//
		if _, ok := as.expect(toks, COLON); !ok {
			return
		}
		//
		classTok, ok := as.expect(toks, IDENTIFIER)
		if !ok {
			return
		}
		//
		var regType uint8
		//
		switch toks.Text(classTok) {
		case "s", "sgpr":
			regType = SGPR
		case "v", "vgpr":
			regType = VGPR
		default:
			as.sink.Errorf(toks.PosOf(classTok), "unknown register class '%s'", toks.Text(classTok))
			return
		}
		//
		count := uint64(1)
		//
		if toks.Match(COLON) {
			if count, ok = as.constExpr(toks); !ok {
				return
			} else if count == 0 || count > 256 {
				as.sink.Errorf(pos, "illegal register count %d", count)
				return
			}
		}
		//
		as.DeclareRegVar(name, regType, uint16(count), pos)
	}
}

// handleUseReg parses ".usereg var[lo:hi]:rw, ..." manual usage records.
func (as *Assembler) handleUseReg(toks *Tokens, pos source.Position) {
	for first := true; first || toks.Match(COMMA); first = false {
		tok, ok := as.expect(toks, IDENTIFIER)
		if !ok {
			return
		}
		//
		name := toks.Text(tok)
		rv := as.LookupRegVar(name)
		//
		if rv == nil {
			as.sink.Errorf(toks.PosOf(tok), "unknown register variable '%s'", name)
			return
		}
		//
		var lo, hi = uint64(0), uint64(rv.Count)
		//
		if toks.Match(LBRACKET) {
			if lo, ok = as.constExpr(toks); !ok {
				return
			}
			//
			hi = lo + 1
			//
			if toks.Match(COLON) {
				if hi, ok = as.constExpr(toks); !ok {
					return
				}
				//
				hi++
			}
			//
			if _, ok = as.expect(toks, RBRACKET); !ok {
				return
			}
		}
		//
		if _, ok = as.expect(toks, COLON); !ok {
			return
		}
		//
		modeTok, ok := as.expect(toks, IDENTIFIER)
		if !ok {
			return
		}
		//
		var access uint8
		//
		switch toks.Text(modeTok) {
		case "r":
			access = ACCESS_READ
		case "w":
			access = ACCESS_WRITE
		case "rw", "wr":
			access = ACCESS_READ | ACCESS_WRITE
		default:
			as.sink.Errorf(toks.PosOf(modeTok), "unknown access mode '%s'", toks.Text(modeTok))
			return
		}
		//
		if hi > uint64(rv.Count) || lo >= hi {
			as.sink.Errorf(pos, "illegal register range")
			return
		}
		//
		sect := as.CurrentSectionPtr()
		sect.RVUs = append(sect.RVUs, RVU{
			Offset: sect.Size(),
			RegVar: rv,
			Start:  uint16(lo),
			End:    uint16(hi),
			Field:  0xff,
			Access: access,
			Align:  1,
			Pos:    pos,
		})
		//
		as.MarkRegVarsUsed()
	}
}

// ============================================================================
// Miscellaneous directives
// ============================================================================

func (as *Assembler) handleInclude(toks *Tokens, pos source.Position) {
	tok, ok := as.expect(toks, STRING)
	if !ok {
		return
	}
	//
	if err := as.openInclude(trimQuotes(toks.Text(tok)), pos); err != nil {
		as.sink.Fatalf(pos, "%s", err.Error())
	}
}

func (as *Assembler) handleGpu(toks *Tokens, pos source.Position) {
	tok, ok := as.expect(toks, IDENTIFIER)
	if !ok {
		return
	}
	//
	as.SetDevice(toks.Text(tok))
}

// parseMessage collects the remaining tokens of an .error/.warning/.print
// directive into a message.
func (as *Assembler) parseMessage(toks *Tokens, fallback string) string {
	if toks.Lookahead().Kind == STRING {
		return trimQuotes(toks.Text(toks.Next()))
	}
	// No message: use the remaining raw text, else the fallback.
	rest := strings.TrimSpace(toks.RestText())
	toks.SkipToEnd()
	//
	if rest == "" {
		return fallback
	}
	//
	return rest
}
