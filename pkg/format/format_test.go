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
package format

import (
	"testing"

	"github.com/consensys/go-gcnasm/pkg/asm"
	"github.com/consensys/go-gcnasm/pkg/util/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Format_NewHandler(t *testing.T) {
	for _, name := range []string{FormatRaw, FormatAmd, FormatAmdCL2, FormatGallium, FormatROCm} {
		handler, err := NewHandler(name)
		//
		require.NoError(t, err)
		assert.Equal(t, name, handler.Name())
	}
	//
	_, err := NewHandler("nonsense")
	assert.Error(t, err)
}

func Test_Format_RawSections(t *testing.T) {
	as := newAssembler(NewRawHandler())
	//
	ok := as.Assemble(source.NewSourceFile("t.s", []byte(".text\n.byte 1\n")))
	require.True(t, ok)
	// only .text exists in the raw format
	as = newAssembler(NewRawHandler())
	ok = as.Assemble(source.NewSourceFile("t.s", []byte(".rodata\n")))
	assert.False(t, ok)
}

func Test_Format_AmdKernelSections(t *testing.T) {
	handler := NewAmdHandler()
	as := newAssembler(handler)
	//
	src := ".kernel alpha\n.dims xyz\n.sgprsnum 10\n.vgprsnum 20\n" +
		".localsize 1024\n.floatmode 0xc0\n.byte 1\n"
	//
	require.True(t, as.Assemble(source.NewSourceFile("t.s", []byte(src))))
	//
	config := handler.Config(0)
	assert.Equal(t, uint8(3), config.Dims)
	assert.Equal(t, uint32(10), config.SGPRsNum)
	assert.Equal(t, uint32(20), config.VGPRsNum)
	assert.Equal(t, uint32(1024), config.LocalSize)
	//
	assert.Equal(t, []byte{1}, handler.KernelCode(as, 0))
}

func Test_Format_AmdConfigOutsideKernel(t *testing.T) {
	// a kernel whose .text stays empty still has a code section, so this
	// passes finalisation; a config outside any kernel does not resolve
	as := newAssembler(NewAmdHandler())
	ok := as.Assemble(source.NewSourceFile("t.s", []byte(".dims x\n")))
	//
	assert.False(t, ok)
}

func Test_Format_AmdCL2Args(t *testing.T) {
	handler := NewAmdCL2Handler()
	as := newAssembler(handler)
	//
	src := ".kernel k\n" +
		".arg n, \"uint\", uint\n" +
		".arg buf, \"float*\", float*, global, const\n" +
		".arg img, \"image2d_t\", image2d, rdonly\n" +
		".byte 1\n"
	//
	require.True(t, as.Assemble(source.NewSourceFile("t.s", []byte(src))))
	//
	config := handler.Config(0)
	require.Equal(t, 3, len(config.Args))
	//
	assert.Equal(t, ArgUInt, config.Args[0].ArgType)
	//
	assert.Equal(t, ArgPointer, config.Args[1].ArgType)
	assert.Equal(t, ArgFloat, config.Args[1].PointeeType)
	assert.Equal(t, PtrSpaceGlobal, config.Args[1].PtrSpace)
	assert.Equal(t, PtrAccessConst, config.Args[1].PtrAccess&PtrAccessConst)
	//
	assert.Equal(t, ArgImage2D, config.Args[2].ArgType)
	assert.Equal(t, PtrAccessRead, config.Args[2].PtrAccess)
}

func Test_Format_AmdCL2SetupArgs(t *testing.T) {
	handler := NewAmdCL2Handler()
	as := newAssembler(handler)
	//
	src := ".kernel k\n" +
		".setupargs\n" +
		".arg n, \"uint\", uint\n" +
		".byte 1\n"
	//
	require.True(t, as.Assemble(source.NewSourceFile("t.s", []byte(src))))
	//
	config := handler.Config(0)
	require.Equal(t, 7, len(config.Args))
	//
	assert.Equal(t, "_.global_offset_0", config.Args[0].Name)
	assert.Equal(t, ArgULong, config.Args[0].ArgType)
	assert.Equal(t, "_.printf_buffer", config.Args[3].Name)
	assert.Equal(t, ArgPointer, config.Args[3].ArgType)
	assert.Equal(t, "n", config.Args[6].Name)
	// setup arguments must come first
	as = newAssembler(NewAmdCL2Handler())
	ok := as.Assemble(source.NewSourceFile("t.s",
		[]byte(".kernel k\n.arg n, \"uint\", uint\n.setupargs\n.byte 1\n")))
	//
	assert.False(t, ok)
}

func Test_Format_AmdCL2DriverVersion(t *testing.T) {
	handler := NewAmdCL2Handler()
	as := newAssembler(handler)
	//
	require.True(t, as.Assemble(source.NewSourceFile("t.s",
		[]byte(".driver_version 226400\n.kernel k\n.byte 1\n"))))
	//
	assert.Equal(t, uint32(226400), handler.DriverVersion)
}

// ===================================================================
// Test Helpers
// ===================================================================

func newAssembler(handler asm.FormatHandler) *asm.Assembler {
	return asm.NewAssembler(asm.Config{CaseInsensitive: true}, asm.NewSink(false), nil, handler, nil)
}
