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
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/consensys/go-gcnasm/pkg/util/source"
)

// Assemble processes the given source files in order, drives deferred
// expressions to a fixed point, runs register allocation if regvars were
// used, and finally asks the format handler to validate the result.  It
// returns false if any error-level diagnostic was produced.
func (as *Assembler) Assemble(files ...*source.File) bool {
	// Files are pushed in reverse so the first is read first.
	for i := len(files) - 1; i >= 0; i-- {
		as.PushSourceFile(files[i], source.Position{Filename: files[i].Filename()})
	}
	//
	log.Debugf("assembling %d file(s)", len(files))
	//
	for {
		line, pos, ok := as.readLine()
		if !ok {
			break
		}
		//
		as.assembleLine(line, pos)
	}
	// Report unterminated clauses.
	for !as.clauses.IsEmpty() {
		c := as.clauses.Pop()
		as.sink.Errorf(c.pos, "unterminated clause")
	}
	// Drive deferred expressions to a fixed point.
	log.Debugf("resolving deferred expressions (%d pending)", len(as.pending))
	as.ResolvePending()
	// Allocate registers, if regvars were used.
	if as.regVarsUsed && as.sink.Good() {
		if as.allocator == nil {
			as.sink.Errorf(source.Position{}, "register variables used without an allocator")
		} else {
			log.Debug("running register allocation")
			as.allocator.Allocate(as)
		}
	}
	// Format-level validation runs last.
	if as.handler != nil && as.sink.Good() {
		as.handler.Finalise(as)
	}
	//
	return as.sink.Good()
}

// assembleLine classifies and processes one logical line.
func (as *Assembler) assembleLine(line []rune, pos source.Position) {
	tokens, badIdx := TokenizeLine(line)
	//
	if badIdx >= 0 {
		bad := pos
		bad.Column += badIdx
		as.sink.Errorf(bad, "unexpected character")
		// skip to end of line and continue
		return
	}
	//
	cursor := NewTokens(line, tokens, pos)
	//
	for {
		for cursor.Match(SEMICOLON) {
		}
		//
		if cursor.Exhausted() {
			return
		}
		//
		errsBefore := as.sink.Errors()
		as.assembleStatement(cursor)
		// A failed statement skips to the end of the line and continues.
		if as.sink.Errors() > errsBefore {
			return
		}
		//
		if cursor.Exhausted() {
			return
		} else if !cursor.Match(SEMICOLON) {
			as.sink.Errorf(cursor.Pos(), "garbage at end of statement")
			return
		}
	}
}

// assembleStatement processes one statement: leading labels followed by a
// directive, an assignment, a macro invocation or a machine instruction.
func (as *Assembler) assembleStatement(cursor *Tokens) {
	// Leading labels.
	for cursor.Lookahead().Kind == IDENTIFIER && cursor.LookaheadN(1).Kind == COLON {
		tok := cursor.Next()
		cursor.Next()
		//
		as.DefineLabel(cursor.Text(tok), cursor.PosOf(tok))
	}
	//
	lookahead := cursor.Lookahead()
	//
	if lookahead.Kind == END_OF || lookahead.Kind == SEMICOLON {
		return
	} else if lookahead.Kind != IDENTIFIER {
		as.sink.Errorf(cursor.PosOf(lookahead), "expected directive, label or instruction")
		cursor.skipStatement()
		//
		return
	}
	//
	var (
		tok  = cursor.Next()
		name = cursor.Text(tok)
		pos  = cursor.PosOf(tok)
	)
	//
	switch {
	case strings.HasPrefix(name, "."):
		as.dispatchDirective(name, cursor, pos)
	case cursor.Lookahead().Kind == EQUALS:
		cursor.Next()
		//
		if expr := as.ParseExpr(cursor); expr != nil {
			as.AssignSymbol(name, expr, pos)
		}
	case as.isLocalDecl(name):
		as.handleLocalDecl(cursor)
	case as.findMacro(name) != nil:
		as.invokeMacro(as.findMacro(name), cursor, pos)
	default:
		if as.encoder == nil {
			as.sink.Errorf(pos, "unknown instruction '%s'", name)
			cursor.skipStatement()
			//
			return
		}
		//
		mnemonic := name
		if as.cfg.CaseInsensitive {
			mnemonic = strings.ToLower(mnemonic)
		}
		//
		as.encoder.Encode(as, mnemonic, cursor, pos)
	}
}

// skipStatement advances the cursor to the next statement boundary.
func (p *Tokens) skipStatement() {
	for {
		kind := p.Lookahead().Kind
		if kind == END_OF || kind == SEMICOLON {
			return
		}
		//
		p.Next()
	}
}

// ============================================================================
// Conditional clauses
// ============================================================================

// evalCondition evaluates the controlling expression of a .if directive.
func (as *Assembler) evalCondition(toks *Tokens) bool {
	val, ok := as.constExpr(toks)
	//
	return ok && val != 0
}

func (as *Assembler) restIsBlank(toks *Tokens) bool {
	blank := toks.Exhausted()
	toks.skipStatement()
	//
	return blank
}

func (as *Assembler) handleIfDef(toks *Tokens, pos source.Position, negated bool) {
	tok, ok := as.expect(toks, IDENTIFIER)
	if !ok {
		return
	}
	//
	sym := as.LookupSymbol(toks.Text(tok))
	defined := sym != nil && sym.Defined
	//
	as.handleIf(toks, pos, defined != negated)
}

func (as *Assembler) handleIfStrings(toks *Tokens, pos source.Position, wantEqual bool) {
	// Compare the raw text either side of the first top-level comma.
	parts := splitTopLevel(toks.RestText())
	//
	if len(parts) != 2 {
		as.sink.Errorf(pos, "expected two comma-separated operands")
		return
	}
	//
	toks.skipStatement()
	//
	equal := strings.TrimSpace(parts[0]) == strings.TrimSpace(parts[1])
	as.handleIf(toks, pos, equal == wantEqual)
}

func (as *Assembler) handleIfZero(toks *Tokens, pos source.Position, wantZero bool) {
	val, ok := as.constExpr(toks)
	if !ok {
		return
	}
	//
	as.handleIf(toks, pos, (val == 0) == wantZero)
}

// handleIf begins a conditional clause whose first branch is (not) taken.
// An untaken branch skips forward to the next viable branch point.
func (as *Assembler) handleIf(toks *Tokens, pos source.Position, taken bool) {
	if taken {
		as.clauses.Push(clause{CLAUSE_IF, pos, true})
		return
	}
	// Skip branches until one is taken, or the conditional ends.
	for {
		name, cursor, bpos, ok := as.skipToBranch(pos)
		if !ok {
			return
		}
		//
		switch name {
		case ".endif":
			return
		case ".else":
			as.clauses.Push(clause{CLAUSE_ELSE, bpos, true})
			return
		default: // .elseif
			if as.evalCondition(cursor) {
				as.clauses.Push(clause{CLAUSE_ELSEIF, bpos, true})
				return
			}
		}
	}
}

// handleBranch processes .elseif/.else/.endif reached during normal
// execution, which means the branch being executed has ended.
func (as *Assembler) handleBranch(name string, toks *Tokens, pos source.Position) {
	if as.clauses.IsEmpty() || as.clauses.Top().kind > CLAUSE_ELSE {
		as.sink.Errorf(pos, "'%s' without matching '.if'", name)
		return
	}
	//
	if name == ".endif" {
		as.clauses.Pop()
		return
	} else if as.clauses.Top().kind == CLAUSE_ELSE {
		as.sink.Errorf(pos, "'%s' after '.else'", name)
		return
	}
	// The taken branch has ended; everything up to .endif is dead.
	toks.skipStatement()
	//
	for {
		name, _, _, ok := as.skipToBranch(pos)
		if !ok {
			return
		}
		//
		if name == ".endif" {
			as.clauses.Pop()
			return
		}
	}
}

// skipToBranch consumes dead lines up to the next .elseif/.else/.endif at
// the current nesting level, returning the branch directive found along with
// a cursor positioned after it.
func (as *Assembler) skipToBranch(pos source.Position) (string, *Tokens, source.Position, bool) {
	// Kinds of nested constructs opened within the dead code.
	var nesting []uint8
	//
	for {
		line, lpos, ok := as.readLine()
		if !ok {
			as.sink.Errorf(pos, "unterminated conditional")
			return "", nil, source.Position{}, false
		}
		//
		name, cursor := firstDirective(line, lpos)
		//
		switch name {
		case ".if", ".ifdef", ".ifndef", ".ifb", ".ifnb", ".ifc", ".ifnc", ".ifeq", ".ifne":
			nesting = append(nesting, CLAUSE_IF)
		case ".rept", ".irp", ".irpc":
			nesting = append(nesting, CLAUSE_REPEAT)
		case ".macro":
			nesting = append(nesting, CLAUSE_MACRO)
		case ".endif":
			if len(nesting) == 0 {
				return name, cursor, lpos, true
			}
			//
			nesting = popMatching(nesting, CLAUSE_IF)
		case ".endr":
			nesting = popMatching(nesting, CLAUSE_REPEAT)
		case ".endm", ".endmacro":
			nesting = popMatching(nesting, CLAUSE_MACRO)
		case ".elseif", ".else":
			if len(nesting) == 0 {
				return name, cursor, lpos, true
			}
		}
	}
}

// popMatching drops the innermost nesting entry of the given kind, ignoring
// mismatches (they are diagnosed when the code is live).
func popMatching(nesting []uint8, kind uint8) []uint8 {
	if n := len(nesting); n > 0 && nesting[n-1] == kind {
		return nesting[:n-1]
	}
	//
	return nesting
}

// firstDirective tokenises a dead or captured line just far enough to find
// its first directive, skipping any leading labels.
func firstDirective(line []rune, pos source.Position) (string, *Tokens) {
	tokens, badIdx := TokenizeLine(line)
	if badIdx >= 0 {
		return "", nil
	}
	//
	cursor := NewTokens(line, tokens, pos)
	//
	for cursor.Lookahead().Kind == IDENTIFIER && cursor.LookaheadN(1).Kind == COLON {
		cursor.Next()
		cursor.Next()
	}
	//
	if cursor.Lookahead().Kind != IDENTIFIER {
		return "", cursor
	}
	//
	tok := cursor.Next()
	//
	return cursor.Text(tok), cursor
}

// ============================================================================
// Macro definition & invocation
// ============================================================================

// handleMacro captures a macro definition up to its matching .endm.
func (as *Assembler) handleMacro(toks *Tokens, pos source.Position) {
	tok, ok := as.expect(toks, IDENTIFIER)
	if !ok {
		return
	}
	//
	name := toks.Text(tok)
	if as.cfg.CaseInsensitive {
		name = strings.ToLower(name)
	}
	//
	var params []MacroParam
	// Optional comma after the name.
	toks.Match(COMMA)
	// Parse formal parameters.
	for toks.Lookahead().Kind == IDENTIFIER {
		param := MacroParam{Name: toks.Text(toks.Next())}
		//
		if toks.Match(EQUALS) {
			param.Default = as.parseMacroDefault(toks)
		} else if toks.Match(COLON) {
			if modTok, ok := as.expect(toks, IDENTIFIER); !ok || toks.Text(modTok) != "req" {
				as.sink.Errorf(pos, "expected 'req' qualifier")
				return
			}
			//
			param.Required = true
		}
		//
		params = append(params, param)
		//
		if !toks.Match(COMMA) {
			break
		}
	}
	//
	body, ok := as.captureBody(pos, CLAUSE_MACRO)
	if !ok {
		return
	}
	//
	if _, exists := as.macros[name]; exists {
		as.sink.Warningf(pos, "macro '%s' redefined", name)
	}
	//
	as.macros[name] = &Macro{
		Name:          name,
		Params:        params,
		Body:          body,
		CaseSensitive: !as.cfg.CaseInsensitive,
		AltMode:       as.altMacro,
		Pos:           pos,
	}
}

// parseMacroDefault reads a default value: a string, number or identifier.
func (as *Assembler) parseMacroDefault(toks *Tokens) string {
	tok := toks.Next()
	//
	if tok.Kind == STRING {
		return trimQuotes(toks.Text(tok))
	}
	//
	return toks.Text(tok)
}

// findMacro resolves a statement name against the macro table.
func (as *Assembler) findMacro(name string) *Macro {
	if as.cfg.CaseInsensitive {
		name = strings.ToLower(name)
	}
	//
	return as.macros[name]
}

// invokeMacro binds arguments and pushes a replay filter.
func (as *Assembler) invokeMacro(m *Macro, toks *Tokens, pos source.Position) {
	var (
		positional = splitTopLevel(toks.RestText())
		args       = make(map[string]string)
	)
	//
	toks.skipStatement()
	// A single empty operand means no arguments at all.
	if len(positional) == 1 && strings.TrimSpace(positional[0]) == "" {
		positional = nil
	}
	// Separate named from positional arguments.
	index := 0
	//
	for _, arg := range positional {
		arg = strings.TrimSpace(arg)
		//
		if name, value, ok := splitNamedArg(arg); ok && paramExists(m.Params, name) {
			args[name] = value
		} else {
			if index < len(m.Params) {
				args[m.Params[index].Name] = arg
			}
			//
			index++
		}
	}
	//
	if index > len(m.Params) {
		as.sink.Errorf(pos, "too many arguments for macro '%s'", m.Name)
		return
	}
	// Fill defaults and check required parameters.
	for _, param := range m.Params {
		if _, ok := args[param.Name]; ok {
			continue
		} else if param.Required {
			as.sink.Errorf(pos, "missing required argument '%s'", param.Name)
			return
		}
		//
		args[param.Name] = param.Default
	}
	//
	as.macroCount++
	as.pushMacroFilter(newMacroFilter(m, args, as.macroCount-1, pos), pos)
}

// isLocalDecl recognises a LOCAL declaration in alternate-macro mode within
// a macro expansion.
func (as *Assembler) isLocalDecl(name string) bool {
	if !as.altMacro || as.filters.IsEmpty() {
		return false
	}
	//
	_, inMacro := as.filters.Top().(*macroFilter)
	//
	return inMacro && strings.EqualFold(name, "local")
}

func (as *Assembler) handleLocalDecl(toks *Tokens) {
	top := as.filters.Top().(*macroFilter)
	//
	for first := true; first || toks.Match(COMMA); first = false {
		tok, ok := as.expect(toks, IDENTIFIER)
		if !ok {
			return
		}
		//
		top.bindLocal(toks.Text(tok), as.localCount)
		as.localCount++
	}
}

// ============================================================================
// Repetition
// ============================================================================

func (as *Assembler) handleRept(toks *Tokens, pos source.Position) {
	count, ok := as.constExpr(toks)
	if !ok {
		return
	}
	//
	body, ok := as.captureBody(pos, CLAUSE_REPEAT)
	if !ok {
		return
	}
	//
	if count > 0 {
		as.pushMacroFilter(newReptFilter(body, count, pos), pos)
	}
}

func (as *Assembler) handleIrp(toks *Tokens, pos source.Position, chars bool) {
	tok, ok := as.expect(toks, IDENTIFIER)
	if !ok {
		return
	}
	//
	varName := toks.Text(tok)
	toks.Match(COMMA)
	//
	rest := strings.TrimSpace(toks.RestText())
	toks.SkipToEnd()
	//
	body, ok := as.captureBody(pos, CLAUSE_REPEAT)
	if !ok {
		return
	}
	//
	if chars {
		text := rest
		//
		if strings.HasPrefix(text, "\"") {
			text = trimQuotes(text)
		}
		//
		if len(text) > 0 {
			as.pushMacroFilter(newIrpcFilter(body, varName, text, pos), pos)
		}
		//
		return
	}
	//
	var values []string
	//
	for _, value := range splitTopLevel(rest) {
		values = append(values, strings.TrimSpace(value))
	}
	//
	if len(values) > 0 && !(len(values) == 1 && values[0] == "") {
		as.pushMacroFilter(newIrpFilter(body, varName, values, pos), pos)
	}
}

// captureBody consumes raw lines up to the matching terminator of a macro or
// repetition, returning the body text.
func (as *Assembler) captureBody(pos source.Position, kind uint8) (string, bool) {
	var (
		body  strings.Builder
		depth = 1
	)
	//
	for {
		line, lpos, ok := as.readLine()
		if !ok {
			as.sink.Fatalf(pos, "unterminated block")
			return "", false
		}
		//
		name, _ := firstDirective(line, lpos)
		//
		switch kind {
		case CLAUSE_MACRO:
			if name == ".macro" {
				depth++
			} else if name == ".endm" || name == ".endmacro" {
				depth--
			}
		default:
			if name == ".rept" || name == ".irp" || name == ".irpc" {
				depth++
			} else if name == ".endr" {
				depth--
			}
		}
		//
		if depth == 0 {
			return body.String(), true
		}
		//
		body.WriteString(string(line))
		body.WriteString("\n")
	}
}

// ============================================================================
// Operand text helpers
// ============================================================================

// splitTopLevel splits raw operand text on commas not nested within quotes,
// parentheses or brackets.
func splitTopLevel(text string) []string {
	var (
		parts   []string
		depth   int
		start   int
		inQuote rune
		runes   = []rune(text)
	)
	//
	for i, ch := range runes {
		switch {
		case inQuote != 0:
			if ch == inQuote && (i == 0 || runes[i-1] != '\\') {
				inQuote = 0
			}
		case ch == '"' || ch == '\'':
			inQuote = ch
		case ch == '(' || ch == '[':
			depth++
		case ch == ')' || ch == ']':
			depth--
		case ch == ',' && depth == 0:
			parts = append(parts, string(runes[start:i]))
			start = i + 1
		}
	}
	//
	return append(parts, string(runes[start:]))
}

// splitNamedArg recognises a "name=value" macro argument.
func splitNamedArg(arg string) (string, string, bool) {
	idx := strings.IndexRune(arg, '=')
	//
	if idx <= 0 {
		return "", "", false
	}
	//
	name := strings.TrimSpace(arg[:idx])
	//
	for _, ch := range name {
		if !isNameRest(ch) {
			return "", "", false
		}
	}
	//
	return name, strings.TrimSpace(arg[idx+1:]), true
}

func paramExists(params []MacroParam, name string) bool {
	for _, param := range params {
		if param.Name == name {
			return true
		}
	}
	//
	return false
}
