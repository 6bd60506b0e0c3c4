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

// dependents is the set of expressions waiting on a symbol's definition.
// The set lives on a separate reference-counted handle so that a symbol and
// its clones (created for snapshot aliasing) can share one set until either
// is rebound.
type dependents struct {
	exprs []*Expression
	refs  int
}

// Symbol is a named entry in some scope.  A symbol's value may be an
// expression tree (unevaluated, held in Expr) or a final value.  Every
// expression occurrence of the symbol is reachable through its dependent
// set, such that redefining the symbol re-evaluates all dependents.
type Symbol struct {
	// Name of the symbol, without scope qualification.
	Name string
	// Scope the symbol was declared in.
	Scope *Scope
	// Final value, meaningful only once Defined.
	Val Value
	// Whether the symbol has a value yet.
	Defined bool
	// Whether the value was computed relative to the location counter.
	Base bool
	// Whether the symbol has global linkage.
	Global bool
	// Object size attached with .size.
	Size uint64
	// Pending defining expression, for symbols assigned a value which could
	// not be evaluated at assignment time.
	Expr *Expression
	// Whether this symbol is a frozen snapshot (see Snapshot below).
	Snapshot bool
	// Once-off flag for labels, which may not be redefined.
	Label bool
	// Index of this symbol within the assembler's symbol arena.  Expression
	// nodes refer to symbols through this index rather than through raw
	// pointers.
	ArenaIdx int32
	// Expressions waiting on this symbol, shared copy-on-write with any
	// clone.
	deps *dependents
}

// HasDependents reports whether any expression is still waiting on this
// symbol.
func (p *Symbol) HasDependents() bool {
	return p.deps != nil && len(p.deps.exprs) > 0
}

// AddDependent registers an expression as waiting on this symbol.
func (p *Symbol) AddDependent(e *Expression) {
	if p.deps == nil {
		p.deps = &dependents{nil, 1}
	}
	//
	p.deps.exprs = append(p.deps.exprs, e)
}

// TakeDependents detaches and returns the waiting expressions.  When the
// dependent set is shared with a clone, this symbol gets a fresh empty set
// whilst the clone retains the shared one.
func (p *Symbol) TakeDependents() []*Expression {
	if p.deps == nil {
		return nil
	}
	//
	exprs := p.deps.exprs
	//
	if p.deps.refs > 1 {
		p.deps.refs--
		p.deps = nil
	} else {
		p.deps.exprs = nil
	}
	//
	return exprs
}

// clone produces a copy of this symbol sharing the dependent set, for use by
// snapshot aliasing.  Both copies share the set until one is rebound.
func (p *Symbol) clone() *Symbol {
	q := *p
	//
	if p.deps != nil {
		p.deps.refs++
	}
	//
	return &q
}
