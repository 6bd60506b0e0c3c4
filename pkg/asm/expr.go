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
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/consensys/go-gcnasm/pkg/util/source"
)

// Expression operators.  Leaf cases are the literal, the symbol reference,
// the snapshotting symbol capture "(sym)" and the location counter ".".
const (
	OP_LITERAL uint8 = iota
	OP_SYMBOL
	OP_PAREN_SYMBOL
	OP_HERE
	OP_ADD
	OP_SUB
	OP_MUL
	OP_DIV
	OP_MOD
	OP_SHL
	OP_SHR
	OP_SAR
	OP_AND
	OP_OR
	OP_XOR
	OP_NOT
	OP_NEG
	OP_PLUS
	OP_EQ
	OP_NE
	OP_LT
	OP_LE
	OP_GT
	OP_GE
	OP_LOGAND
	OP_LOGOR
	OP_LOGNOT
	OP_SELECT
)

// ExprNode is a single node of an expression tree.  Symbol references hold
// an index into the assembler's symbol arena rather than a raw pointer, and
// the owning expression records positions for its nodes in a source map.
type ExprNode struct {
	Op uint8
	// Literal payload for OP_LITERAL.
	Value uint64
	// Arena index of the referenced symbol for OP_SYMBOL / OP_PAREN_SYMBOL.
	SymIdx int32
	// Operands; Cond is only used by OP_SELECT.
	Cond *ExprNode
	Lhs  *ExprNode
	Rhs  *ExprNode
}

// Expression target kinds, describing what consumes the value of a deferred
// expression once it resolves.
const (
	// Value is consumed immediately; nothing to patch later.
	TGT_NONE uint8 = iota
	// Value defines a symbol.
	TGT_SYMBOL
	// Value is patched into section content (1, 2, 4 or 8 bytes, LE).
	TGT_DATA8
	TGT_DATA16
	TGT_DATA32
	TGT_DATA64
	// Value is a branch target: a word-scaled 16-bit pc-relative immediate
	// is patched into section content.
	TGT_BRANCH16
)

// ExprTarget describes what needs the value of an expression.
type ExprTarget struct {
	Kind uint8
	// Arena index of the target symbol, for TGT_SYMBOL.
	SymIdx int32
	// Section and offset of the bytes to patch, for TGT_DATA*.
	Section SectionID
	Offset  uint64
	// Address the branch displacement is relative to, for TGT_BRANCH16.
	Base uint64
}

// SymbolTarget constructs a target defining the given symbol.
func SymbolTarget(symIdx int32) ExprTarget {
	return ExprTarget{Kind: TGT_SYMBOL, SymIdx: symIdx}
}

// DataTarget constructs a target patching size bytes at a section offset.
func DataTarget(size uint8, section SectionID, offset uint64) ExprTarget {
	var kind uint8
	//
	switch size {
	case 1:
		kind = TGT_DATA8
	case 2:
		kind = TGT_DATA16
	case 4:
		kind = TGT_DATA32
	default:
		kind = TGT_DATA64
	}
	//
	return ExprTarget{Kind: kind, Section: section, Offset: offset}
}

// BranchTarget16 constructs a target patching a word-scaled 16-bit relative
// displacement at a section offset, measured from base.
func BranchTarget16(section SectionID, offset uint64, base uint64) ExprTarget {
	return ExprTarget{Kind: TGT_BRANCH16, Section: section, Offset: offset, Base: base}
}

// Expression is an arithmetic/symbolic expression tree, evaluated against
// the target location captured when it was parsed.
type Expression struct {
	// Root of the tree.
	Root *ExprNode
	// What needs the value (for deferred expressions).
	Target ExprTarget
	// Location the expression is evaluated against; "." refers here.
	Section SectionID
	Offset  uint64
	// Position of the expression for diagnostics.
	Pos source.Position
	// Positions of individual nodes.
	srcmap *source.Map[*ExprNode]
}

// Evaluation outcomes.
const (
	EVAL_OK uint8 = iota
	// At least one symbol occurrence is still undefined.
	EVAL_UNRESOLVED
	// The expression mixes sections in a way only the format's late-binding
	// pass can resolve.
	EVAL_CROSS_SECTION
	// The expression can never produce a value; a diagnostic was emitted.
	EVAL_FAILED
)

// ============================================================================
// Parsing
// ============================================================================

// binding powers for the precedence-climbing parser, following the C ladder
// with the assembler extras.
func binaryOp(kind uint) (op uint8, prec int, ok bool) {
	switch kind {
	case LOGOR:
		return OP_LOGOR, 2, true
	case LOGAND:
		return OP_LOGAND, 3, true
	case BAR:
		return OP_OR, 4, true
	case CARET:
		return OP_XOR, 5, true
	case AMPERSAND:
		return OP_AND, 6, true
	case EQEQ:
		return OP_EQ, 7, true
	case NOTEQ:
		return OP_NE, 7, true
	case LESS:
		return OP_LT, 8, true
	case LESSEQ:
		return OP_LE, 8, true
	case GREATER:
		return OP_GT, 8, true
	case GREATEREQ:
		return OP_GE, 8, true
	case SHL:
		return OP_SHL, 9, true
	case SHR:
		return OP_SHR, 9, true
	case ASHR:
		return OP_SAR, 9, true
	case PLUS:
		return OP_ADD, 10, true
	case MINUS:
		return OP_SUB, 10, true
	case STAR:
		return OP_MUL, 11, true
	case SLASH:
		return OP_DIV, 11, true
	case PERCENT:
		return OP_MOD, 11, true
	}
	//
	return 0, 0, false
}

// ParseExpr parses an expression from the given token cursor, producing an
// expression tree evaluated against the current output location.  Syntax
// errors are reported to the sink and yield a nil expression.
func (as *Assembler) ParseExpr(toks *Tokens) *Expression {
	expr := &Expression{
		Section: as.currentSection,
		Offset:  as.CurrentSectionPtr().Size(),
		Pos:     toks.Pos(),
		srcmap:  source.NewSourceMap[*ExprNode](),
	}
	//
	root := as.parseSelect(toks, expr)
	if root == nil {
		return nil
	}
	//
	expr.Root = root
	//
	return expr
}

// parseSelect handles the ternary conditional, which binds loosest and
// associates to the right.
func (as *Assembler) parseSelect(toks *Tokens, expr *Expression) *ExprNode {
	cond := as.parseBinary(toks, expr, 2)
	//
	if cond == nil || !toks.Match(QMARK) {
		return cond
	}
	//
	lhs := as.parseSelect(toks, expr)
	if lhs == nil {
		return nil
	}
	//
	if !toks.Match(COLON) {
		as.sink.Errorf(toks.Pos(), "expected ':' in conditional expression")
		return nil
	}
	//
	rhs := as.parseSelect(toks, expr)
	if rhs == nil {
		return nil
	}
	//
	node := &ExprNode{Op: OP_SELECT, Cond: cond, Lhs: lhs, Rhs: rhs}
	expr.srcmap.Copy(cond, node)
	//
	return node
}

// parseBinary climbs the precedence ladder from the given minimum level.
func (as *Assembler) parseBinary(toks *Tokens, expr *Expression, minPrec int) *ExprNode {
	lhs := as.parseUnary(toks, expr)
	//
	for lhs != nil {
		op, prec, ok := binaryOp(toks.Lookahead().Kind)
		if !ok || prec < minPrec {
			return lhs
		}
		//
		toks.Next()
		//
		rhs := as.parseBinary(toks, expr, prec+1)
		if rhs == nil {
			return nil
		}
		//
		node := &ExprNode{Op: op, Lhs: lhs, Rhs: rhs}
		expr.srcmap.Copy(lhs, node)
		lhs = node
	}
	//
	return lhs
}

func (as *Assembler) parseUnary(toks *Tokens, expr *Expression) *ExprNode {
	var (
		pos = toks.Pos()
		op  uint8
	)
	//
	switch toks.Lookahead().Kind {
	case MINUS:
		op = OP_NEG
	case PLUS:
		op = OP_PLUS
	case TILDE:
		op = OP_NOT
	case BANG:
		op = OP_LOGNOT
	default:
		return as.parsePrimary(toks, expr)
	}
	//
	toks.Next()
	//
	operand := as.parseUnary(toks, expr)
	if operand == nil {
		return nil
	}
	//
	node := &ExprNode{Op: op, Lhs: operand}
	expr.srcmap.Put(node, pos)
	//
	return node
}

func (as *Assembler) parsePrimary(toks *Tokens, expr *Expression) *ExprNode {
	var (
		lookahead = toks.Lookahead()
		pos       = toks.PosOf(lookahead)
		node      *ExprNode
	)
	//
	switch lookahead.Kind {
	case NUMBER:
		toks.Next()
		//
		val, err := parseIntLiteral(toks.Text(lookahead))
		if err != nil {
			as.sink.Errorf(pos, "malformed integer literal")
			return nil
		}
		//
		node = &ExprNode{Op: OP_LITERAL, Value: val}
	case FLOATLIT:
		toks.Next()
		//
		val, ok := as.parseFPLiteral(toks.Text(lookahead), false)
		if !ok {
			as.sink.Errorf(pos, "malformed floating-point literal")
			return nil
		}
		//
		node = &ExprNode{Op: OP_LITERAL, Value: val}
	case CHARLIT:
		toks.Next()
		//
		val, err := parseCharLiteral(toks.Text(lookahead))
		if err != nil {
			as.sink.Errorf(pos, "malformed character literal")
			return nil
		}
		//
		node = &ExprNode{Op: OP_LITERAL, Value: val}
	case IDENTIFIER:
		return as.parseSymbolic(toks, expr)
	case LPAREN:
		toks.Next()
		// Symbol-capture form "(sym)" snapshots the symbol.
		if toks.Lookahead().Kind == IDENTIFIER && toks.LookaheadN(1).Kind == RPAREN {
			name := toks.Text(toks.Next())
			toks.Next()
			//
			snap := as.SnapshotSymbol(name, pos)
			node = &ExprNode{Op: OP_PAREN_SYMBOL, SymIdx: snap.ArenaIdx}
		} else {
			node = as.parseSelect(toks, expr)
			//
			if node == nil {
				return nil
			} else if !toks.Match(RPAREN) {
				as.sink.Errorf(toks.Pos(), "expected ')'")
				return nil
			}
		}
	default:
		as.sink.Errorf(pos, "expected expression")
		return nil
	}
	//
	expr.srcmap.Put(node, pos)
	//
	return node
}

// parseSymbolic handles identifiers within expressions: the location counter
// ".", the lit()/lit64() floating-point wrappers, and (possibly scoped)
// symbol references.
func (as *Assembler) parseSymbolic(toks *Tokens, expr *Expression) *ExprNode {
	var (
		tok  = toks.Next()
		name = toks.Text(tok)
		pos  = toks.PosOf(tok)
		node *ExprNode
	)
	//
	switch {
	case name == ".":
		node = &ExprNode{Op: OP_HERE}
	case (name == "lit" || name == "lit64") && toks.Lookahead().Kind == LPAREN:
		toks.Next()
		//
		lit := toks.Next()
		if lit.Kind != FLOATLIT && lit.Kind != NUMBER {
			as.sink.Errorf(toks.PosOf(lit), "expected floating-point literal")
			return nil
		}
		//
		val, ok := as.parseFPLiteral(toks.Text(lit), name == "lit64")
		if !ok {
			as.sink.Errorf(toks.PosOf(lit), "malformed floating-point literal")
			return nil
		}
		//
		if !toks.Match(RPAREN) {
			as.sink.Errorf(toks.Pos(), "expected ')'")
			return nil
		}
		//
		node = &ExprNode{Op: OP_LITERAL, Value: val}
	default:
		// Fold any scope qualifications into the name.
		for toks.Lookahead().Kind == SCOPEOP {
			toks.Next()
			//
			part := toks.Next()
			if part.Kind != IDENTIFIER {
				as.sink.Errorf(toks.PosOf(part), "expected identifier after '::'")
				return nil
			}
			//
			name = name + "::" + toks.Text(part)
		}
		//
		sym := as.SymbolRef(name)
		node = &ExprNode{Op: OP_SYMBOL, SymIdx: sym.ArenaIdx}
	}
	//
	expr.srcmap.Put(node, pos)
	//
	return node
}

// parseIntLiteral parses a C-style integer literal.
func parseIntLiteral(text string) (uint64, error) {
	return strconv.ParseUint(text, 0, 64)
}

// parseCharLiteral parses a single-quoted character literal with the usual
// escapes, producing its code point.
func parseCharLiteral(text string) (uint64, error) {
	body, err := strconv.Unquote(text)
	if err != nil {
		return 0, err
	}
	//
	runes := []rune(body)
	//
	return uint64(runes[0]), nil
}

// parseFPLiteral parses a floating-point literal into its IEEE bit pattern
// (32-bit unless wide).  In buggy-fp-lit compatibility mode the conversion
// truncates towards zero, reproducing the rounding of the legacy tool.
func (as *Assembler) parseFPLiteral(text string, wide bool) (uint64, bool) {
	var f big.Float
	//
	if as.cfg.BuggyFpLit {
		f.SetMode(big.ToZero)
	}
	//
	if _, ok := f.SetString(text); !ok {
		return 0, false
	}
	//
	if wide {
		if as.cfg.BuggyFpLit {
			f.SetPrec(53)
		}
		//
		v, _ := f.Float64()
		return math.Float64bits(v), true
	}
	//
	if as.cfg.BuggyFpLit {
		f.SetPrec(24)
	}
	//
	v, _ := f.Float32()
	//
	return uint64(math.Float32bits(v)), true
}

// ============================================================================
// Evaluation
// ============================================================================

// EvalExpr evaluates an expression against its captured location.  In the
// final pass, undefined symbols are hard errors rather than grounds for
// deferral.
func (as *Assembler) EvalExpr(e *Expression, final bool) (Value, uint8) {
	if e == nil || e.Root == nil {
		return UnresolvedValue(), EVAL_FAILED
	}
	//
	return as.evalNode(e, e.Root, final)
}

func (as *Assembler) evalNode(e *Expression, n *ExprNode, final bool) (Value, uint8) {
	switch n.Op {
	case OP_LITERAL:
		return IntValue(n.Value), EVAL_OK
	case OP_HERE:
		return AddrValue(e.Section, e.Offset), EVAL_OK
	case OP_SYMBOL, OP_PAREN_SYMBOL:
		return as.evalSymbol(e, n, final)
	case OP_NEG, OP_PLUS, OP_NOT, OP_LOGNOT:
		return as.evalUnary(e, n, final)
	case OP_SELECT:
		return as.evalSelect(e, n, final)
	default:
		return as.evalBinary(e, n, final)
	}
}

func (as *Assembler) evalSymbol(e *Expression, n *ExprNode, final bool) (Value, uint8) {
	sym := as.symArena[n.SymIdx]
	//
	if !sym.Defined {
		if final {
			as.evalError(e, n)
			return UnresolvedValue(), EVAL_FAILED
		}
		//
		return UnresolvedValue(), EVAL_UNRESOLVED
	}
	//
	return sym.Val, EVAL_OK
}

func (as *Assembler) evalUnary(e *Expression, n *ExprNode, final bool) (Value, uint8) {
	v, status := as.evalNode(e, n.Lhs, final)
	if status != EVAL_OK {
		return v, status
	}
	//
	if !v.IsConstant() {
		as.evalError(e, n)
		return UnresolvedValue(), EVAL_FAILED
	}
	//
	switch n.Op {
	case OP_NEG:
		return IntValue(-v.Uint), EVAL_OK
	case OP_PLUS:
		return v, EVAL_OK
	case OP_NOT:
		return IntValue(^v.Uint), EVAL_OK
	default:
		if v.Uint == 0 {
			return IntValue(1), EVAL_OK
		}
		//
		return IntValue(0), EVAL_OK
	}
}

func (as *Assembler) evalSelect(e *Expression, n *ExprNode, final bool) (Value, uint8) {
	cond, status := as.evalNode(e, n.Cond, final)
	if status != EVAL_OK {
		return cond, status
	}
	//
	if !cond.IsConstant() {
		as.evalError(e, n)
		return UnresolvedValue(), EVAL_FAILED
	}
	//
	if cond.Uint != 0 {
		return as.evalNode(e, n.Lhs, final)
	}
	//
	return as.evalNode(e, n.Rhs, final)
}

//nolint:gocyclo
func (as *Assembler) evalBinary(e *Expression, n *ExprNode, final bool) (Value, uint8) {
	lhs, status := as.evalNode(e, n.Lhs, final)
	if status != EVAL_OK {
		return lhs, status
	}
	//
	rhs, status := as.evalNode(e, n.Rhs, final)
	if status != EVAL_OK {
		return rhs, status
	}
	// Register values never participate in arithmetic.
	if lhs.Kind == REGVAL || rhs.Kind == REGVAL || lhs.Kind == REGVARVAL || rhs.Kind == REGVARVAL {
		as.evalError(e, n)
		return UnresolvedValue(), EVAL_FAILED
	}
	//
	switch n.Op {
	case OP_ADD:
		// An integer may shift a sectioned value; two sectioned values never
		// add.
		if lhs.Kind == ADDRVAL && rhs.Kind == ADDRVAL {
			return as.crossSection(e, n)
		} else if lhs.Kind == ADDRVAL {
			return AddrValue(lhs.Section, lhs.Uint+rhs.Uint), EVAL_OK
		} else if rhs.Kind == ADDRVAL {
			return AddrValue(rhs.Section, lhs.Uint+rhs.Uint), EVAL_OK
		}
		//
		return IntValue(lhs.Uint + rhs.Uint), EVAL_OK
	case OP_SUB:
		// The difference of two values in the same section is a scalar.
		if lhs.Kind == ADDRVAL && rhs.Kind == ADDRVAL {
			if lhs.Section == rhs.Section {
				return IntValue(lhs.Uint - rhs.Uint), EVAL_OK
			}
			//
			return as.crossSection(e, n)
		} else if lhs.Kind == ADDRVAL {
			return AddrValue(lhs.Section, lhs.Uint-rhs.Uint), EVAL_OK
		} else if rhs.Kind == ADDRVAL {
			return as.crossSection(e, n)
		}
		//
		return IntValue(lhs.Uint - rhs.Uint), EVAL_OK
	case OP_EQ, OP_NE, OP_LT, OP_LE, OP_GT, OP_GE:
		return as.evalRelation(e, n, lhs, rhs)
	}
	// Everything else needs two plain integers.
	if lhs.Kind != INTVAL || rhs.Kind != INTVAL {
		as.evalError(e, n)
		return UnresolvedValue(), EVAL_FAILED
	}
	//
	switch n.Op {
	case OP_MUL:
		return IntValue(lhs.Uint * rhs.Uint), EVAL_OK
	case OP_DIV:
		if rhs.Uint == 0 {
			as.evalError(e, n)
			return UnresolvedValue(), EVAL_FAILED
		}
		//
		return IntValue(lhs.Uint / rhs.Uint), EVAL_OK
	case OP_MOD:
		if rhs.Uint == 0 {
			as.evalError(e, n)
			return UnresolvedValue(), EVAL_FAILED
		}
		//
		return IntValue(lhs.Uint % rhs.Uint), EVAL_OK
	case OP_SHL:
		return IntValue(lhs.Uint << (rhs.Uint & 63)), EVAL_OK
	case OP_SHR:
		return IntValue(lhs.Uint >> (rhs.Uint & 63)), EVAL_OK
	case OP_SAR:
		return IntValue(uint64(int64(lhs.Uint) >> (rhs.Uint & 63))), EVAL_OK
	case OP_AND:
		return IntValue(lhs.Uint & rhs.Uint), EVAL_OK
	case OP_OR:
		return IntValue(lhs.Uint | rhs.Uint), EVAL_OK
	case OP_XOR:
		return IntValue(lhs.Uint ^ rhs.Uint), EVAL_OK
	case OP_LOGAND:
		return boolValue(lhs.Uint != 0 && rhs.Uint != 0), EVAL_OK
	case OP_LOGOR:
		return boolValue(lhs.Uint != 0 || rhs.Uint != 0), EVAL_OK
	default:
		as.evalError(e, n)
		return UnresolvedValue(), EVAL_FAILED
	}
}

// evalRelation compares two values, which must either both be integers or
// both be addresses in the same section.  Relational operators yield all
// ones for truth, as in GNU as.
func (as *Assembler) evalRelation(e *Expression, n *ExprNode, lhs Value, rhs Value) (Value, uint8) {
	if lhs.Kind != rhs.Kind || (lhs.Kind == ADDRVAL && lhs.Section != rhs.Section) {
		return as.crossSection(e, n)
	}
	//
	var (
		l    = int64(lhs.Uint)
		r    = int64(rhs.Uint)
		cond bool
	)
	//
	switch n.Op {
	case OP_EQ:
		cond = l == r
	case OP_NE:
		cond = l != r
	case OP_LT:
		cond = l < r
	case OP_LE:
		cond = l <= r
	case OP_GT:
		cond = l > r
	default:
		cond = l >= r
	}
	//
	if cond {
		return IntValue(math.MaxUint64), EVAL_OK
	}
	//
	return IntValue(0), EVAL_OK
}

// crossSection decides whether a section-mixing operation can be left to the
// format's late-binding pass, or is a hard failure.
func (as *Assembler) crossSection(e *Expression, n *ExprNode) (Value, uint8) {
	if as.handler != nil && as.handler.IsSectionDiffsResolvable() {
		return UnresolvedValue(), EVAL_CROSS_SECTION
	}
	//
	as.evalError(e, n)
	//
	return UnresolvedValue(), EVAL_FAILED
}

func (as *Assembler) evalError(e *Expression, n *ExprNode) {
	pos := e.Pos
	//
	if e.srcmap.Has(n) {
		pos = e.srcmap.Get(n)
	}
	//
	as.sink.Errorf(pos, "expression evaluation failed")
}

func boolValue(b bool) Value {
	if b {
		return IntValue(1)
	}
	//
	return IntValue(0)
}

// EvalAbsolute evaluates an expression for the format's late-binding pass,
// mapping every sectioned value onto an absolute integer through the given
// section-base table.  Sections absent from the table fail the evaluation.
func (as *Assembler) EvalAbsolute(e *Expression, bases map[SectionID]uint64) (uint64, bool) {
	val, status := as.evalNodeAbs(e.Root, bases)
	//
	if status != EVAL_OK {
		as.sink.Errorf(e.Pos, "expression evaluation failed")
		return 0, false
	}
	//
	return val, true
}

func (as *Assembler) evalNodeAbs(n *ExprNode, bases map[SectionID]uint64) (uint64, uint8) {
	switch n.Op {
	case OP_LITERAL:
		return n.Value, EVAL_OK
	case OP_SYMBOL, OP_PAREN_SYMBOL:
		sym := as.symArena[n.SymIdx]
		//
		if !sym.Defined {
			return 0, EVAL_FAILED
		}
		//
		return as.absValue(sym.Val, bases)
	case OP_ADD, OP_SUB, OP_MUL, OP_DIV, OP_MOD:
		lhs, status := as.evalNodeAbs(n.Lhs, bases)
		if status != EVAL_OK {
			return 0, status
		}
		//
		rhs, status := as.evalNodeAbs(n.Rhs, bases)
		if status != EVAL_OK {
			return 0, status
		}
		//
		switch n.Op {
		case OP_ADD:
			return lhs + rhs, EVAL_OK
		case OP_SUB:
			return lhs - rhs, EVAL_OK
		case OP_MUL:
			return lhs * rhs, EVAL_OK
		case OP_DIV:
			if rhs == 0 {
				return 0, EVAL_FAILED
			}
			//
			return lhs / rhs, EVAL_OK
		default:
			if rhs == 0 {
				return 0, EVAL_FAILED
			}
			//
			return lhs % rhs, EVAL_OK
		}
	default:
		return 0, EVAL_FAILED
	}
}

func (as *Assembler) absValue(val Value, bases map[SectionID]uint64) (uint64, uint8) {
	switch val.Kind {
	case INTVAL:
		return val.Uint, EVAL_OK
	case ADDRVAL:
		base, ok := bases[val.Section]
		//
		if !ok {
			return 0, EVAL_FAILED
		}
		//
		return base + val.Uint, EVAL_OK
	default:
		return 0, EVAL_FAILED
	}
}

// ============================================================================
// Deferral
// ============================================================================

// undefinedSymbols walks an expression tree collecting the arena indices of
// all (currently) undefined symbol occurrences.
func (as *Assembler) undefinedSymbols(n *ExprNode, seen map[int32]bool) {
	if n == nil {
		return
	}
	//
	switch n.Op {
	case OP_SYMBOL, OP_PAREN_SYMBOL:
		if !as.symArena[n.SymIdx].Defined {
			seen[n.SymIdx] = true
		}
	default:
		as.undefinedSymbols(n.Cond, seen)
		as.undefinedSymbols(n.Lhs, seen)
		as.undefinedSymbols(n.Rhs, seen)
	}
}

// tokenKindName gives a human-readable name for a token kind, for use in
// diagnostics.
func tokenKindName(kind uint) string {
	names := map[uint]string{
		END_OF: "end of line", IDENTIFIER: "identifier", NUMBER: "number",
		STRING: "string", COMMA: "','", COLON: "':'",
	}
	//
	if name, ok := names[kind]; ok {
		return name
	}
	//
	return "token"
}

// TrimStringToken strips the delimiters from a lexed string token and
// interprets its escapes.  Format handlers use it for their own string
// operands.
func TrimStringToken(text string) string {
	return trimQuotes(text)
}

// trimQuotes strips the delimiters from a lexed string token and interprets
// its escapes.
func trimQuotes(text string) string {
	if len(text) >= 2 && strings.HasPrefix(text, "\"") && strings.HasSuffix(text, "\"") {
		if body, err := strconv.Unquote(text); err == nil {
			return body
		}
		// fall back to raw content on malformed escapes
		return text[1 : len(text)-1]
	}
	//
	return text
}
