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
	"bytes"
	"testing"

	"github.com/consensys/go-gcnasm/pkg/util/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Asm_ByteAlign(t *testing.T) {
	check_Asm_Bytes(t, ".text\n.byte 1,2,3\n.align 4\n", []byte{1, 2, 3, 0})
}

func Test_Asm_LabelArithmetic(t *testing.T) {
	check_Asm_Bytes(t, ".text\na: .word 0\nb: .word 0\n.word b-a\n",
		[]byte{0, 0, 0, 0, 0, 0, 0, 0, 4, 0, 0, 0})
}

func Test_Asm_MacroExpansion(t *testing.T) {
	check_Asm_Bytes(t, ".text\n.macro pair a,b\n.byte \\a, \\b\n.endm\npair 5,6\n",
		[]byte{5, 6})
}

func Test_Asm_MacroDefaults(t *testing.T) {
	check_Asm_Bytes(t, ".text\n.macro one a=9\n.byte \\a\n.endm\none\none 3\n",
		[]byte{9, 3})
}

func Test_Asm_Rept(t *testing.T) {
	check_Asm_Bytes(t, ".text\n.rept 3\n.byte 0xAA\n.endr\n",
		[]byte{0xaa, 0xaa, 0xaa})
}

func Test_Asm_Irp(t *testing.T) {
	check_Asm_Bytes(t, ".text\n.irp x, 1, 2, 3\n.byte \\x\n.endr\n",
		[]byte{1, 2, 3})
}

func Test_Asm_Irpc(t *testing.T) {
	check_Asm_Bytes(t, ".text\n.irpc c, \"123\"\n.byte 0x3\\c\n.endr\n",
		[]byte{0x31, 0x32, 0x33})
}

func Test_Asm_NestedRept(t *testing.T) {
	check_Asm_Bytes(t, ".text\n.rept 2\n.rept 2\n.byte 7\n.endr\n.endr\n",
		[]byte{7, 7, 7, 7})
}

func Test_Asm_ForwardReference(t *testing.T) {
	check_Asm_Bytes(t, ".text\n.byte x+1\n.set x, 7\n", []byte{8})
}

func Test_Asm_EquIsMutable(t *testing.T) {
	check_Asm_Bytes(t, ".text\n.set x, 5\n.byte x\n.set x, 6\n.byte x\n",
		[]byte{5, 6})
}

func Test_Asm_EqvSnapshot(t *testing.T) {
	// later changes to operand symbols do not change the snapshot
	check_Asm_Bytes(t, ".text\n.set a, 2\n.eqv b, a+1\n.set a, 10\n.byte b\n",
		[]byte{3})
}

func Test_Asm_ParenSymbolCapture(t *testing.T) {
	check_Asm_Bytes(t, ".text\n.set a, 4\n.set b, (a)\n.set a, 9\n.byte b\n",
		[]byte{4})
}

func Test_Asm_Conditionals(t *testing.T) {
	check_Asm_Bytes(t, ".text\n.if 0\n.byte 1\n.elseif 1\n.byte 2\n.else\n.byte 3\n.endif\n",
		[]byte{2})
}

func Test_Asm_NestedConditionals(t *testing.T) {
	check_Asm_Bytes(t,
		".text\n.if 1\n.if 0\n.byte 1\n.endif\n.byte 2\n.else\n.byte 3\n.endif\n",
		[]byte{2})
}

func Test_Asm_Ifdef(t *testing.T) {
	check_Asm_Bytes(t, ".set x, 1\n.text\n.ifdef x\n.byte 1\n.endif\n.ifndef y\n.byte 2\n.endif\n",
		[]byte{1, 2})
}

func Test_Asm_FillSkip(t *testing.T) {
	check_Asm_Bytes(t, ".text\n.fill 2, 2, 0x1234\n.skip 2, 0xff\n",
		[]byte{0x34, 0x12, 0x34, 0x12, 0xff, 0xff})
}

func Test_Asm_Ascii(t *testing.T) {
	check_Asm_Bytes(t, ".text\n.ascii \"ab\"\n.asciz \"c\"\n",
		[]byte{'a', 'b', 'c', 0})
}

func Test_Asm_Org(t *testing.T) {
	check_Asm_Bytes(t, ".text\n.byte 1\n.org 4\n.byte 2\n",
		[]byte{1, 0, 0, 0, 2})
}

func Test_Asm_Scopes(t *testing.T) {
	check_Asm_Bytes(t, ".scope s\n.set v, 5\n.ends\n.text\n.byte s::v\n",
		[]byte{5})
}

func Test_Asm_ScopeShadowing(t *testing.T) {
	check_Asm_Bytes(t,
		".set v, 1\n.scope s\n.set v, 2\n.text\n.byte v\n.ends\n.byte v\n",
		[]byte{2, 1})
}

func Test_Asm_UseScope(t *testing.T) {
	check_Asm_Bytes(t,
		".scope lib\n.set k, 9\n.ends\n.usescope lib\n.text\n.byte k\n",
		[]byte{9})
}

func Test_Asm_LocationCounter(t *testing.T) {
	check_Asm_Bytes(t, ".text\n.byte 1, 2\n.byte .\n", []byte{1, 2, 2})
}

func Test_Asm_Statements(t *testing.T) {
	check_Asm_Bytes(t, ".text\n.byte 1; .byte 2\n", []byte{1, 2})
}

func Test_Asm_DivisionByZero(t *testing.T) {
	check_Asm_Fails(t, ".text\n.byte 1/0\n")
}

func Test_Asm_UndefinedAtEnd(t *testing.T) {
	check_Asm_Fails(t, ".text\n.byte nosuch\n")
}

func Test_Asm_DuplicateLabel(t *testing.T) {
	check_Asm_Fails(t, ".text\na:\na:\n")
}

func Test_Asm_StrayEndif(t *testing.T) {
	check_Asm_Fails(t, ".text\n.endif\n")
}

func Test_Asm_UnterminatedIf(t *testing.T) {
	check_Asm_Fails(t, ".text\n.if 1\n.byte 1\n")
}

func Test_Asm_ErrorDirective(t *testing.T) {
	check_Asm_Fails(t, ".error \"boom\"\n")
}

func Test_Asm_WarningKeepsGood(t *testing.T) {
	as, _ := assembleText(t, ".warning \"careful\"\n.text\n.byte 1\n")
	//
	assert.True(t, as.Good())
	assert.Equal(t, 1, len(as.Sink().Diagnostics))
}

func Test_Asm_Print(t *testing.T) {
	var out bytes.Buffer
	//
	cfg := Config{CaseInsensitive: true, PrintStream: &out}
	sink := NewSink(false)
	as := NewAssembler(cfg, sink, nil, &testFormat{}, nil)
	//
	require.True(t, as.Assemble(source.NewSourceFile("test.s", []byte(".print \"hello\"\n"))))
	assert.Equal(t, "hello\n", out.String())
}

func Test_Asm_DefSyms(t *testing.T) {
	cfg := Config{CaseInsensitive: true, DefSyms: []DefSym{{"flag", 1}}}
	sink := NewSink(false)
	as := NewAssembler(cfg, sink, nil, &testFormat{}, nil)
	//
	ok := as.Assemble(source.NewSourceFile("test.s",
		[]byte(".text\n.if flag\n.byte 1\n.endif\n")))
	//
	require.True(t, ok)
	assert.Equal(t, []byte{1}, textSection(as).Content)
}

func Test_Asm_OutPosInvariant(t *testing.T) {
	// every write advances the output position by exactly its size
	as, sect := assembleText(t, ".text\n.byte 1\n.half 2\n.word 3\n.quad 4\n")
	//
	require.True(t, as.Good())
	assert.Equal(t, uint64(15), sect.Size())
}

// ===================================================================
// Test Helpers
// ===================================================================

// testFormat is a minimal format handler creating any section on demand.
type testFormat struct {
	sections map[string]SectionID
}

func (p *testFormat) Name() string {
	return "test"
}

func (p *testFormat) SectionForName(as *Assembler, name string) (*Section, bool) {
	if id, ok := p.sections[name]; ok {
		return as.Sections()[id], true
	}
	//
	return nil, false
}

func (p *testFormat) SwitchSection(as *Assembler, name string, pos source.Position) bool {
	if p.sections == nil {
		p.sections = make(map[string]SectionID)
	}
	//
	id, ok := p.sections[name]
	if !ok {
		sect := as.CreateSection(name, NoKernel, SECT_ADDRESSABLE|SECT_WRITEABLE|SECT_CODE, 1)
		id = sect.ID
		p.sections[name] = id
	}
	//
	as.SetCurrentSection(id)
	//
	return true
}

func (p *testFormat) BeginKernel(as *Assembler, kernel *Kernel, pos source.Position) bool {
	return p.SwitchSection(as, ".text", pos)
}

func (p *testFormat) HandleDirective(as *Assembler, name string, toks *Tokens, pos source.Position) bool {
	return false
}

func (p *testFormat) IsSectionDiffsResolvable() bool {
	return false
}

func (p *testFormat) Finalise(as *Assembler) bool {
	return true
}

func assembleText(t *testing.T, src string) (*Assembler, *Section) {
	t.Helper()
	//
	sink := NewSink(false)
	as := NewAssembler(Config{CaseInsensitive: true}, sink, nil, &testFormat{}, nil)
	as.Assemble(source.NewSourceFile("test.s", []byte(src)))
	//
	return as, textSection(as)
}

func textSection(as *Assembler) *Section {
	for _, sect := range as.Sections() {
		if sect.Name == ".text" {
			return sect
		}
	}
	//
	return &Section{}
}

func check_Asm_Bytes(t *testing.T, src string, expected []byte) {
	t.Helper()
	//
	as, sect := assembleText(t, src)
	//
	for _, diag := range as.Sink().Diagnostics {
		t.Logf("%s", diag.String())
	}
	//
	require.True(t, as.Good())
	assert.Equal(t, expected, sect.Content)
}

func check_Asm_Fails(t *testing.T, src string) {
	t.Helper()
	//
	as, _ := assembleText(t, src)
	assert.False(t, as.Good())
}
