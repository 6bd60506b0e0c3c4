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
	"io"
	"os"
	"path/filepath"

	"github.com/consensys/go-gcnasm/pkg/util/collection/stack"
	"github.com/consensys/go-gcnasm/pkg/util/source"
	"github.com/consensys/go-gcnasm/pkg/util/source/lex"
	"github.com/pkg/errors"
)

// Encoder encodes machine instructions for the active device.  A single
// implementation covers all architecture variants, dispatching on the
// assembler's current device.
type Encoder interface {
	// Encode one machine instruction into the current section, reporting any
	// problems to the assembler's sink.  A failed instruction produces no
	// bytes.
	Encode(as *Assembler, mnemonic string, toks *Tokens, pos source.Position)
	// PatchRegField rewrites the register field identified by an RVU with a
	// concrete register index, during allocator emission.
	PatchRegField(section *Section, rvu RVU, reg uint16) bool
	// InstructionSize returns the byte size of the encoded instruction at a
	// given offset within code.
	InstructionSize(code []byte, offset uint64) uint64
}

// FormatHandler owns the set of sections a binary format requires, mediates
// directives that name sections implicitly, and validates per-format
// constraints at the end of assembly.
type FormatHandler interface {
	// Name of the format, as given on the command line.
	Name() string
	// SectionForName resolves a section name (within the current kernel,
	// where relevant) to an existing section.
	SectionForName(as *Assembler, name string) (*Section, bool)
	// SwitchSection switches to the named section, creating it if the format
	// permits.
	SwitchSection(as *Assembler, name string, pos source.Position) bool
	// BeginKernel starts a new kernel, creating whatever sections the format
	// prescribes.
	BeginKernel(as *Assembler, kernel *Kernel, pos source.Position) bool
	// HandleDirective processes a format-specific directive, returning false
	// if the directive is unknown to this format.
	HandleDirective(as *Assembler, name string, toks *Tokens, pos source.Position) bool
	// IsSectionDiffsResolvable holds iff the format resolves cross-section
	// expressions during writing.
	IsSectionDiffsResolvable() bool
	// Finalise validates the accumulated state ahead of binary generation.
	Finalise(as *Assembler) bool
}

// Allocator assigns architectural registers to register variables.  It runs
// only when regvars were used.
type Allocator interface {
	Allocate(as *Assembler) bool
}

// DefSym is a symbol pre-defined from the command line.
type DefSym struct {
	Name  string
	Value uint64
}

// Config carries the dialect and environment options of one assembly run.
type Config struct {
	// Name of the target device, as set by --arch or the .gpu directive.
	Device string
	// Produce a 64-bit container.
	Is64Bit bool
	// Alternate macro syntax mode.
	AltMacro bool
	// Reproduce the legacy floating-point literal rounding.
	BuggyFpLit bool
	// Restrict modifier parameters to the literal digits 0/1.
	OldModParam bool
	// Mnemonic matching ignores case.
	CaseInsensitive bool
	// Directories searched by .include.
	IncludeDirs []string
	// Symbols defined before the first line is read.
	DefSyms []DefSym
	// Sink for .print output; defaults to standard output.
	PrintStream io.Writer
}

// Assembler is the single mutable state of one assembly run.  All state is
// private to the instance; concurrent runs each construct their own.
type Assembler struct {
	cfg  Config
	sink *Sink
	// Role interfaces, wired by the driver.
	encoder   Encoder
	handler   FormatHandler
	allocator Allocator
	// Input filter stack.
	filters *stack.Stack[inputFilter]
	// Current include nesting depth.
	includeDepth uint
	// Current macro/repetition nesting depth.
	macroDepth uint
	// Clause stack for conditionals, repetitions and macro definitions.
	clauses *stack.Stack[clause]
	// Macro table.
	macros map[string]*Macro
	// Number of macro invocations so far; substituted for \@.
	macroCount uint
	// Counter backing LOCAL label generation.
	localCount uint
	// Scopes.
	globalScope  *Scope
	currentScope *Scope
	scopeStack   *stack.Stack[*Scope]
	// Sections; the identifier of a section is its index here.
	sections       []*Section
	currentSection SectionID
	// Kernels.
	kernels       []*Kernel
	kernelMap     map[string]KernelID
	currentKernel KernelID
	// Symbol arena; expression nodes refer to symbols by index.
	symArena []*Symbol
	// Deferred expressions awaiting symbol definitions.
	pending []*Expression
	// Expressions already fulfilled (or converted to relocations).
	resolved map[*Expression]bool
	// Whether any regvar was referenced by an instruction.
	regVarsUsed bool
	// Whether alternate-macro mode is currently on (toggled by directives).
	altMacro bool
}

// NewAssembler constructs a fresh assembler over the given configuration and
// role implementations.  The handler and encoder may be nil for runs which
// only exercise data directives.
func NewAssembler(cfg Config, sink *Sink, encoder Encoder, handler FormatHandler, allocator Allocator) *Assembler {
	if cfg.PrintStream == nil {
		cfg.PrintStream = os.Stdout
	}
	//
	global := NewScope("", nil)
	//
	as := &Assembler{
		cfg:           cfg,
		sink:          sink,
		encoder:       encoder,
		handler:       handler,
		allocator:     allocator,
		filters:       stack.NewStack[inputFilter](),
		clauses:       stack.NewStack[clause](),
		macros:        make(map[string]*Macro),
		globalScope:   global,
		currentScope:  global,
		scopeStack:    stack.NewStack[*Scope](),
		currentSection: AbsSection,
		kernelMap:     make(map[string]KernelID),
		currentKernel: NoKernel,
		resolved:      make(map[*Expression]bool),
		altMacro:      cfg.AltMacro,
	}
	// Pre-define command-line symbols.
	for _, def := range cfg.DefSyms {
		sym := as.SymbolRef(def.Name)
		sym.Val = IntValue(def.Value)
		sym.Defined = true
	}
	//
	return as
}

// Sink returns the diagnostic sink of this assembler.
func (as *Assembler) Sink() *Sink {
	return as.sink
}

// Good reports whether no error has been seen so far.
func (as *Assembler) Good() bool {
	return as.sink.Good()
}

// Config returns the configuration of this run.
func (as *Assembler) Config() *Config {
	return &as.cfg
}

// Device returns the active device name.
func (as *Assembler) Device() string {
	return as.cfg.Device
}

// SetDevice changes the active device (directive .gpu).
func (as *Assembler) SetDevice(name string) {
	as.cfg.Device = name
}

// Handler returns the format handler of this run.
func (as *Assembler) Handler() FormatHandler {
	return as.handler
}

// TheEncoder returns the instruction encoder of this run.
func (as *Assembler) TheEncoder() Encoder {
	return as.encoder
}

// RegVarsUsed reports whether any instruction referenced a regvar.
func (as *Assembler) RegVarsUsed() bool {
	return as.regVarsUsed
}

// MarkRegVarsUsed records that an instruction referenced a regvar.
func (as *Assembler) MarkRegVarsUsed() {
	as.regVarsUsed = true
}

// ============================================================================
// Sections & kernels
// ============================================================================

// Sections returns all sections created so far.
func (as *Assembler) Sections() []*Section {
	return as.sections
}

// Kernels returns all kernels declared so far.
func (as *Assembler) Kernels() []*Kernel {
	return as.kernels
}

// CreateSection appends a fresh section, returning it.  Section identifiers
// are dense indices, hence this never fails.
func (as *Assembler) CreateSection(name string, kernel KernelID, flags uint8, align uint64) *Section {
	sect := &Section{
		ID:     SectionID(len(as.sections)),
		Name:   name,
		Kernel: kernel,
		Flags:  flags,
		Align:  align,
	}
	//
	as.sections = append(as.sections, sect)
	//
	if kernel != NoKernel {
		k := as.kernels[kernel]
		k.Sections = append(k.Sections, sect.ID)
	}
	//
	return sect
}

// SetCurrentSection switches output to the given section.
func (as *Assembler) SetCurrentSection(id SectionID) {
	as.currentSection = id
}

// CurrentSection returns the identifier of the section currently accumulating
// bytes.
func (as *Assembler) CurrentSection() SectionID {
	return as.currentSection
}

// CurrentSectionPtr returns the section currently accumulating bytes.  The
// absolute section accepts no content; a synthetic empty section stands in
// for it so that callers can uniformly query the output position.
func (as *Assembler) CurrentSectionPtr() *Section {
	if as.currentSection == AbsSection || int(as.currentSection) >= len(as.sections) {
		return &Section{ID: AbsSection, Flags: SECT_UNRESOLVABLE}
	}
	//
	return as.sections[as.currentSection]
}

// CurrentKernel returns the kernel in scope, or NoKernel.
func (as *Assembler) CurrentKernel() KernelID {
	return as.currentKernel
}

// BeginKernel starts (or re-enters) the named kernel, delegating section
// creation to the format handler.
func (as *Assembler) BeginKernel(name string, pos source.Position) {
	if id, ok := as.kernelMap[name]; ok {
		as.currentKernel = id
		as.handler.BeginKernel(as, as.kernels[id], pos)
		//
		return
	}
	//
	kernel := &Kernel{ID: KernelID(len(as.kernels)), Name: name, Pos: pos}
	as.kernels = append(as.kernels, kernel)
	as.kernelMap[name] = kernel.ID
	as.currentKernel = kernel.ID
	//
	if !as.handler.BeginKernel(as, kernel, pos) {
		as.sink.Errorf(pos, "format does not support kernels")
	}
}

// ============================================================================
// Scopes
// ============================================================================

// GlobalScope returns the root scope.
func (as *Assembler) GlobalScope() *Scope {
	return as.globalScope
}

// CurrentScope returns the scope new symbols are created in.
func (as *Assembler) CurrentScope() *Scope {
	return as.currentScope
}

// EnterScope pushes a (possibly anonymous) child scope.
func (as *Assembler) EnterScope(name string) {
	as.scopeStack.Push(as.currentScope)
	//
	if name == "" {
		as.currentScope = NewScope("", as.currentScope)
	} else {
		as.currentScope = as.currentScope.Child(name)
	}
}

// LeaveScope pops back to the enclosing scope, returning false when already
// at the global scope.
func (as *Assembler) LeaveScope() bool {
	if as.scopeStack.IsEmpty() {
		return false
	}
	//
	as.currentScope = as.scopeStack.Pop()
	//
	return true
}

// ============================================================================
// Symbols
// ============================================================================

// lookupScoped resolves a (possibly scoped) name, optionally creating the
// symbol in insert mode.
func (as *Assembler) lookupScoped(name string, insert bool) *Symbol {
	components, rooted := splitScopedName(name)
	//
	if len(components) == 1 && !rooted {
		// Bare name: walk outward from the current scope.
		if sym := as.currentScope.resolveSymbol(name); sym != nil {
			return sym
		}
		//
		if !insert {
			return nil
		}
		//
		return as.newSymbol(name, as.currentScope)
	}
	// Scoped name: walk from the root (or current scope) along components.
	scope := as.globalScope
	if !rooted {
		// Relative scoped names start from the current scope.
		scope = as.currentScope
	}
	//
	for _, component := range components[:len(components)-1] {
		scope = scope.Child(component)
	}
	//
	last := components[len(components)-1]
	//
	if sym, ok := scope.Symbols[last]; ok {
		return sym
	} else if !insert {
		return nil
	}
	//
	return as.newSymbol(last, scope)
}

// newSymbol creates an undefined symbol in a given scope and registers it in
// the arena.
func (as *Assembler) newSymbol(name string, scope *Scope) *Symbol {
	sym := &Symbol{
		Name:     name,
		Scope:    scope,
		ArenaIdx: int32(len(as.symArena)),
	}
	//
	scope.Symbols[name] = sym
	as.symArena = append(as.symArena, sym)
	//
	return sym
}

// SymbolRef resolves a symbol name, creating an undefined forward reference
// on first sight.
func (as *Assembler) SymbolRef(name string) *Symbol {
	return as.lookupScoped(name, true)
}

// assignableSymbol resolves the symbol a definition binds.  Unlike plain
// lookup, a bare name always binds in the current scope, shadowing any outer
// symbol of the same name.
func (as *Assembler) assignableSymbol(name string) *Symbol {
	components, rooted := splitScopedName(name)
	//
	if len(components) == 1 && !rooted {
		if sym, ok := as.currentScope.Symbols[name]; ok {
			return sym
		}
		//
		return as.newSymbol(name, as.currentScope)
	}
	//
	return as.lookupScoped(name, true)
}

// LookupSymbol resolves a symbol name without creating it.
func (as *Assembler) LookupSymbol(name string) *Symbol {
	return as.lookupScoped(name, false)
}

// Symbol returns the arena entry at a given index.
func (as *Assembler) Symbol(idx int32) *Symbol {
	return as.symArena[idx]
}

// SnapshotSymbol produces a frozen copy of the named symbol's current
// definition, such that later rebindings of the original do not affect it.
// Snapshotting an undefined symbol freezes whatever its first definition
// turns out to be.
func (as *Assembler) SnapshotSymbol(name string, pos source.Position) *Symbol {
	return as.snapshotOf(as.SymbolRef(name), pos)
}

func (as *Assembler) snapshotOf(sym *Symbol, pos source.Position) *Symbol {
	//
	snap := sym.clone()
	snap.Snapshot = true
	snap.ArenaIdx = int32(len(as.symArena))
	as.symArena = append(as.symArena, snap)
	//
	if !sym.Defined {
		// Freeze the first definition of the original once it arrives.
		capture := &Expression{
			Root:    &ExprNode{Op: OP_SYMBOL, SymIdx: sym.ArenaIdx},
			Target:  SymbolTarget(snap.ArenaIdx),
			Section: as.currentSection,
			Pos:     pos,
			srcmap:  source.NewSourceMap[*ExprNode](),
		}
		//
		as.DeferExpression(capture)
	}
	//
	return snap
}

// DefineSymbol binds a symbol to a final value, re-evaluating any
// expressions which were waiting on it.
func (as *Assembler) DefineSymbol(sym *Symbol, val Value) {
	sym.Val = val
	sym.Defined = true
	sym.Expr = nil
	//
	as.symbolDefined(sym)
}

// DefineLabel defines a label at the current output position.  Labels may
// not be redefined.
func (as *Assembler) DefineLabel(name string, pos source.Position) {
	sym := as.assignableSymbol(name)
	//
	if sym.Defined {
		as.sink.Errorf(pos, "symbol '%s' is already defined", name)
		return
	}
	//
	sym.Label = true
	as.DefineSymbol(sym, AddrValue(as.currentSection, as.CurrentSectionPtr().Size()))
}

// AssignSymbol assigns an expression to a symbol (.equ/.set or "name =").
// If the expression cannot be evaluated yet, its resolution is deferred.
// Reassigning a symbol whose dependent set is shared with a snapshot clone
// first splits the set, so the clone keeps the original dependents.
func (as *Assembler) AssignSymbol(name string, expr *Expression, pos source.Position) {
	sym := as.assignableSymbol(name)
	//
	if sym.Label {
		as.sink.Errorf(pos, "symbol '%s' is already defined", name)
		return
	}
	//
	expr.Target = SymbolTarget(sym.ArenaIdx)
	//
	val, status := as.EvalExpr(expr, false)
	//
	switch status {
	case EVAL_OK:
		as.DefineSymbol(sym, val)
	case EVAL_UNRESOLVED:
		sym.Defined = false
		sym.Expr = expr
		as.DeferExpression(expr)
	default:
		// diagnostic already emitted (or cross-section, which symbols cannot
		// carry)
		if status == EVAL_CROSS_SECTION {
			as.sink.Errorf(pos, "expression evaluation failed")
		}
	}
}

// symbolDefined re-evaluates every expression waiting on the given symbol,
// working through a queue keyed by arena indices so that definition chains
// terminate without recursion.
func (as *Assembler) symbolDefined(sym *Symbol) {
	queue := []int32{sym.ArenaIdx}
	//
	for len(queue) > 0 {
		next := as.symArena[queue[0]]
		queue = queue[1:]
		//
		for _, expr := range next.TakeDependents() {
			if as.resolved[expr] {
				continue
			}
			//
			if defined := as.tryResolve(expr); defined >= 0 {
				queue = append(queue, defined)
			}
		}
	}
}

// tryResolve attempts to evaluate a deferred expression, fulfilling its
// target on success.  It returns the arena index of any symbol which became
// defined as a result, or -1.
func (as *Assembler) tryResolve(expr *Expression) int32 {
	val, status := as.EvalExpr(expr, false)
	//
	switch status {
	case EVAL_OK:
		return as.fulfilTarget(expr, val)
	case EVAL_UNRESOLVED:
		// Still waiting; re-register against the remaining undefined
		// symbols.
		as.DeferExpression(expr)
	case EVAL_CROSS_SECTION:
		as.relocTarget(expr)
	default:
		as.resolved[expr] = true
	}
	//
	return -1
}

// fulfilTarget delivers a resolved value to an expression's target.
func (as *Assembler) fulfilTarget(expr *Expression, val Value) int32 {
	as.resolved[expr] = true
	//
	switch expr.Target.Kind {
	case TGT_SYMBOL:
		sym := as.symArena[expr.Target.SymIdx]
		sym.Val = val
		sym.Defined = true
		sym.Expr = nil
		//
		return sym.ArenaIdx
	case TGT_DATA8:
		as.sections[expr.Target.Section].Patch(expr.Target.Offset, val.Uint, 1)
	case TGT_DATA16:
		as.sections[expr.Target.Section].Patch(expr.Target.Offset, val.Uint, 2)
	case TGT_DATA32:
		as.sections[expr.Target.Section].Patch(expr.Target.Offset, val.Uint, 4)
	case TGT_DATA64:
		as.sections[expr.Target.Section].Patch(expr.Target.Offset, val.Uint, 8)
	case TGT_BRANCH16:
		as.patchBranch16(expr, val)
	}
	//
	return -1
}

// patchBranch16 writes a word-scaled 16-bit relative branch displacement,
// validating alignment, locality and range.
func (as *Assembler) patchBranch16(expr *Expression, val Value) {
	if val.Kind == ADDRVAL && val.Section != expr.Target.Section {
		as.sink.Errorf(expr.Pos, "branch target is in another section")
		return
	}
	//
	rel := int64(val.Uint) - int64(expr.Target.Base)
	//
	if rel%4 != 0 {
		as.sink.Errorf(expr.Pos, "branch target is not word aligned")
		return
	}
	//
	words := rel / 4
	//
	if words < -32768 || words > 32767 {
		as.sink.Errorf(expr.Pos, "branch target out of range")
		return
	}
	//
	as.sections[expr.Target.Section].Patch(expr.Target.Offset, uint64(uint16(int16(words))), 2)
}

// relocTarget converts a cross-section expression into a relocation, where
// its target permits.
func (as *Assembler) relocTarget(expr *Expression) {
	as.resolved[expr] = true
	//
	var size uint8
	//
	switch expr.Target.Kind {
	case TGT_DATA32:
		size = 4
	case TGT_DATA64:
		size = 8
	default:
		as.sink.Errorf(expr.Pos, "expression evaluation failed")
		return
	}
	//
	sect := as.sections[expr.Target.Section]
	sect.Relocs = append(sect.Relocs, Reloc{expr.Target.Offset, size, expr})
}

// DeferExpression registers a deferred expression with every undefined
// symbol it mentions, for retry once those symbols are defined.
func (as *Assembler) DeferExpression(expr *Expression) {
	undefined := make(map[int32]bool)
	as.undefinedSymbols(expr.Root, undefined)
	//
	if len(undefined) == 0 {
		// raced with a definition; resolve immediately
		as.tryResolve(expr)
		return
	}
	//
	for idx := range undefined {
		as.symArena[idx].AddDependent(expr)
	}
	//
	as.pending = append(as.pending, expr)
}

// ResolvePending drives deferred expressions to a fixed point, then reports
// any which remain unresolved.
func (as *Assembler) ResolvePending() {
	// Iterate until no expression newly resolves.
	for progress := true; progress; {
		progress = false
		//
		for _, expr := range as.pending {
			if !as.resolved[expr] {
				if as.tryResolve(expr); as.resolved[expr] {
					progress = true
				}
			}
		}
	}
	// Whatever is left is an error, reported via final evaluation.
	for _, expr := range as.pending {
		if !as.resolved[expr] {
			as.resolved[expr] = true
			as.EvalExpr(expr, true)
		}
	}
}

// ============================================================================
// Register variables
// ============================================================================

// DeclareRegVar declares a register variable in the current scope.
func (as *Assembler) DeclareRegVar(name string, regType uint8, count uint16, pos source.Position) *RegVar {
	if _, ok := as.currentScope.RegVars[name]; ok {
		as.sink.Errorf(pos, "register variable '%s' is already declared", name)
		return nil
	}
	//
	rv := &RegVar{Name: name, Type: regType, Count: count, Scope: as.currentScope}
	as.currentScope.RegVars[name] = rv
	//
	return rv
}

// LookupRegVar resolves a regvar name through the scope chain.
func (as *Assembler) LookupRegVar(name string) *RegVar {
	return as.currentScope.resolveRegVar(name)
}

// ============================================================================
// Input filters
// ============================================================================

// PushSourceFile pushes a stream filter over the given file, enforcing the
// include depth limit.
func (as *Assembler) PushSourceFile(file *source.File, pos source.Position) bool {
	if as.includeDepth >= MAX_INCLUDE_DEPTH {
		as.sink.Fatalf(pos, "include depth exceeded")
		return false
	}
	//
	as.filters.Push(newStreamFilter(file))
	as.includeDepth++
	//
	return true
}

// pushMacroFilter pushes a macro or repetition filter, enforcing the macro
// depth limit.
func (as *Assembler) pushMacroFilter(filter inputFilter, pos source.Position) bool {
	if as.macroDepth >= MAX_MACRO_DEPTH {
		as.sink.Fatalf(pos, "macro nesting depth exceeded")
		return false
	}
	//
	as.filters.Push(filter)
	as.macroDepth++
	//
	return true
}

// readLine pulls one logical line from the top of the input-filter stack,
// popping exhausted filters.
func (as *Assembler) readLine() ([]rune, source.Position, bool) {
	for !as.filters.IsEmpty() {
		top := as.filters.Top()
		//
		if line, pos, ok := top.readLine(); ok {
			return line, pos, true
		}
		// Top filter exhausted.
		as.filters.Pop()
		//
		if top.isMacro() {
			as.macroDepth--
		} else {
			as.includeDepth--
		}
	}
	//
	return nil, source.Position{}, false
}

// openInclude searches the include path for a file and pushes it.
func (as *Assembler) openInclude(name string, pos source.Position) error {
	candidates := []string{name}
	//
	for _, dir := range as.cfg.IncludeDirs {
		candidates = append(candidates, filepath.Join(dir, name))
	}
	//
	for _, candidate := range candidates {
		bytes, err := os.ReadFile(candidate)
		//
		if err == nil {
			as.PushSourceFile(source.NewSourceFile(candidate, bytes), pos)
			return nil
		} else if !os.IsNotExist(err) {
			return errors.Wrapf(err, "including %s", candidate)
		}
	}
	//
	return errors.Errorf("include file %q not found", name)
}

// ============================================================================
// Token helpers
// ============================================================================

// expect consumes a token of the given kind, reporting an error otherwise.
func (as *Assembler) expect(toks *Tokens, kind uint) (lex.Token, bool) {
	tok := toks.Lookahead()
	//
	if tok.Kind != kind {
		as.sink.Errorf(toks.PosOf(tok), "expected %s", tokenKindName(kind))
		return tok, false
	}
	//
	toks.Next()
	//
	return tok, true
}
