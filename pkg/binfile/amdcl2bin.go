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
package binfile

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"math"

	log "github.com/sirupsen/logrus"
	"github.com/pkg/errors"

	"github.com/consensys/go-gcnasm/pkg/asm"
	"github.com/consensys/go-gcnasm/pkg/format"
	"github.com/consensys/go-gcnasm/pkg/gcn"
)

// Device-code tables keyed by GPUDeviceType, one per driver-version band.
// UINT_MAX marks a device the band does not support, which is fatal at
// generation time.  Values reproduce observed driver output.
const unsupported = math.MaxUint32

// common prefix of every band: CapeVerde..Mullins.
func cl2TableBase() [gcn.DeviceTypesNum]uint32 {
	table := [gcn.DeviceTypesNum]uint32{}
	//
	for i := range table {
		table[i] = unsupported
	}
	//
	table[gcn.BONAIRE] = 6
	table[gcn.SPECTRE] = 1
	table[gcn.SPOOKY] = 2
	table[gcn.KALINDI] = 3
	table[gcn.HAWAII] = 7
	table[gcn.ICELAND] = 8
	table[gcn.TONGA] = 9
	table[gcn.MULLINS] = 4
	//
	return table
}

func withEntries(entries map[gcn.DeviceType]uint32) [gcn.DeviceTypesNum]uint32 {
	table := cl2TableBase()
	//
	for device, code := range entries {
		table[device] = code
	}
	//
	return table
}

// one table per driver-version band, oldest first.
var cl2DeviceCodeTables = []struct {
	// band applies to driver versions below this limit
	limit uint32
	table [gcn.DeviceTypesNum]uint32
}{
	{191205, withEntries(map[gcn.DeviceType]uint32{
		gcn.FIJI: 16, gcn.CARRIZO: 15,
	})},
	{200406, withEntries(map[gcn.DeviceType]uint32{
		gcn.FIJI: 17, gcn.CARRIZO: 16, gcn.DUMMY: 15,
	})},
	{203603, withEntries(map[gcn.DeviceType]uint32{
		gcn.FIJI: 16, gcn.CARRIZO: 15, gcn.DUMMY: 17, gcn.GOOSE: 13,
		gcn.HORSE: 12, gcn.STONEY: 17, gcn.ELLESMERE: 12, gcn.BAFFIN: 13,
	})},
	{223600, withEntries(map[gcn.DeviceType]uint32{
		gcn.FIJI: 14, gcn.CARRIZO: 13, gcn.DUMMY: 15, gcn.GOOSE: 16,
		gcn.HORSE: 17, gcn.STONEY: 15, gcn.ELLESMERE: 17, gcn.BAFFIN: 16,
	})},
	{226400, withEntries(map[gcn.DeviceType]uint32{
		gcn.FIJI: 13, gcn.CARRIZO: 12, gcn.DUMMY: 14, gcn.GOOSE: 15,
		gcn.HORSE: 16, gcn.STONEY: 14, gcn.ELLESMERE: 16, gcn.BAFFIN: 15,
		gcn.GFX804: 18, gcn.GFX900: 17,
	})},
	{234800, withEntries(map[gcn.DeviceType]uint32{
		gcn.FIJI: 14, gcn.CARRIZO: 13, gcn.DUMMY: 15, gcn.GOOSE: 16,
		gcn.HORSE: 17, gcn.STONEY: 15, gcn.ELLESMERE: 17, gcn.BAFFIN: 16,
		gcn.GFX804: 18, gcn.GFX900: 19, gcn.GFX901: 20,
	})},
	{244200, withEntries(map[gcn.DeviceType]uint32{
		gcn.FIJI: 15, gcn.CARRIZO: 14, gcn.DUMMY: 16, gcn.GOOSE: 17,
		gcn.HORSE: 18, gcn.STONEY: 16, gcn.ELLESMERE: 18, gcn.BAFFIN: 17,
		gcn.GFX804: 19, gcn.GFX900: 20, gcn.GFX901: 21,
	})},
	{248200, withEntries(map[gcn.DeviceType]uint32{
		gcn.FIJI: 13, gcn.CARRIZO: 12, gcn.DUMMY: 14, gcn.GOOSE: 15,
		gcn.HORSE: 16, gcn.STONEY: 14, gcn.ELLESMERE: 16, gcn.BAFFIN: 15,
		gcn.GFX804: 18, gcn.GFX900: 17, gcn.GFX901: 19,
	})},
	{252700, withEntries(map[gcn.DeviceType]uint32{
		gcn.FIJI: 13, gcn.CARRIZO: 12, gcn.DUMMY: 14, gcn.GOOSE: 16,
		gcn.HORSE: 18, gcn.STONEY: 14, gcn.ELLESMERE: 18, gcn.BAFFIN: 16,
		gcn.GFX804: 20, gcn.GFX900: 19, gcn.GFX901: 21,
	})},
	{258000, withEntries(map[gcn.DeviceType]uint32{
		gcn.FIJI: 13, gcn.CARRIZO: 12, gcn.DUMMY: 14, gcn.GOOSE: 16,
		gcn.HORSE: 18, gcn.STONEY: 14, gcn.ELLESMERE: 18, gcn.BAFFIN: 16,
		gcn.GFX804: 21, gcn.GFX900: 20, gcn.GFX901: 23, gcn.GFX902: 24,
		gcn.GFX903: 25, gcn.GFX904: 26, gcn.GFX905: 27,
	})},
	{math.MaxUint32, withEntries(map[gcn.DeviceType]uint32{
		gcn.FIJI: 13, gcn.CARRIZO: 12, gcn.DUMMY: 14, gcn.GOOSE: 16,
		gcn.HORSE: 18, gcn.STONEY: 14, gcn.ELLESMERE: 18, gcn.BAFFIN: 16,
		gcn.GFX804: 21, gcn.GFX900: 20, gcn.GFX901: 23, gcn.GFX902: 24,
		gcn.GFX903: 25, gcn.GFX904: 26, gcn.GFX905: 27, gcn.GFX906: 28,
		gcn.GFX907: 29,
	})},
}

// deviceCodeFor selects the device code of a (device, driver) pair.
func deviceCodeFor(device gcn.DeviceType, driverVersion uint32) (uint32, error) {
	for _, band := range cl2DeviceCodeTables {
		if driverVersion < band.limit {
			code := band.table[device]
			//
			if code == unsupported {
				return 0, errors.Errorf("device %s is not supported by driver version %d",
					gcn.DeviceName(device), driverVersion)
			}
			//
			return code, nil
		}
	}
	// unreachable: the last band is unbounded
	return 0, errors.New("no driver-version band matched")
}

// AmdCL2Options carries the generation parameters beyond the handler state.
type AmdCL2Options struct {
	Device gcn.DeviceType
	Is64   bool
	// Architecture version overrides; 0xffffffff leaves the device default.
	ArchMinor    uint32
	ArchStepping uint32
}

// GenerateAmdCL2 emits the AMDCL2 OpenCL 2.0 container: an outer (host) ELF
// whose .text region holds the inner (device) ELF.
func GenerateAmdCL2(as *asm.Assembler, handler *format.AmdCL2Handler, opts AmdCL2Options) ([]byte, error) {
	var (
		driver = handler.DriverVersion
		device = opts.Device
	)
	//
	code, err := deviceCodeFor(device, driver)
	if err != nil {
		return nil, err
	}
	//
	log.Debugf("generating AMDCL2 container for %s, driver %d", gcn.DeviceName(device), driver)
	//
	inner, err := buildInnerElf(as, handler, opts)
	if err != nil {
		return nil, err
	}
	// Outer (host) ELF.
	var (
		builder = NewBuilder(true, elf.ET_EXEC, elf.Machine(code))
		symtab  = NewSymTab(true)
		rodata  bytes.Buffer
	)
	//
	builder.AddRegion(Region{
		Name: ".strtab", Type: elf.SHT_STRTAB, Align: 1,
		Content: symtab.StrTab,
	})
	builder.AddRegion(Region{
		Name: ".symtab", Type: elf.SHT_SYMTAB, Align: 8,
		LinkName: ".strtab", EntSize: symtab.EntSize(), Info: 1,
		Content: symtab.Bytes,
	})
	builder.AddRegion(Region{
		Name: ".rodata", Type: elf.SHT_PROGBITS, Flags: elf.SHF_ALLOC, Align: 8,
		Content: rodata.Bytes,
	})
	builder.AddRegion(Region{
		Name: ".text", Type: elf.SHT_PROGBITS, Flags: elf.SHF_ALLOC | elf.SHF_EXECINSTR,
		Align: 256, Content: func() []byte { return inner },
	})
	builder.AddRegion(Region{
		Name: ".comment", Type: elf.SHT_PROGBITS, Align: 1,
		Content: func() []byte { return []byte("\x00AMD comp\x00") },
	})
	// Metadata records per kernel, with their symbols.
	for i, kernel := range as.Kernels() {
		var (
			config = handler.Config(kernel.ID)
			offset = uint64(rodata.Len())
			record = buildCL2KernelMetadata(uint32(i), config, opts, driver)
		)
		//
		rodata.Write(record)
		//
		symtab.Add(Symbol{
			Name:    "__OpenCL_&__OpenCL_" + kernel.Name + "_kernel_metadata",
			Value:   offset,
			Size:    uint64(len(record)),
			Binding: elf.STB_LOCAL,
			Type:    elf.STT_OBJECT,
			Section: builder.SectionIndex(".rodata"),
		})
	}
	//
	symtab.Add(Symbol{
		Name:    "__OpenCL_compiler_options",
		Binding: elf.STB_LOCAL,
		Type:    elf.STT_OBJECT,
		Section: builder.SectionIndex(".rodata"),
	})
	//
	return builder.Build()
}

// buildInnerElf produces the device ELF held in the outer .text region.
func buildInnerElf(as *asm.Assembler, handler *format.AmdCL2Handler, opts AmdCL2Options) ([]byte, error) {
	var (
		driver   = handler.DriverVersion
		builder  = NewBuilder(true, elf.ET_REL, elf.EM_AMDGPU)
		symtab   = NewSymTab(true)
		text     bytes.Buffer
		relas    bytes.Buffer
		samplers = gatherSamplers(as, handler)
		global   = handler.GlobalData(as)
	)
	// The global data region ends with one 8-byte slot per sampler.
	samplerOffset := uint64(len(global))
	globalData := append(append([]byte{}, global...), make([]byte, len(samplers)*8)...)
	// Late-binding pass over cross-section expressions: kernels land after
	// their 256-byte setup blocks, global data at offset zero.
	bases := make(map[asm.SectionID]uint64)
	codePos := uint64(0)
	//
	for _, sect := range as.Sections() {
		if sect.Kernel == asm.NoKernel && (sect.Name == ".rodata" || sect.Name == ".data") {
			bases[sect.ID] = 0
		}
	}
	//
	for _, kernel := range as.Kernels() {
		for _, sect := range as.Sections() {
			if sect.Name == ".text" && sect.Kernel == kernel.ID {
				codePos = (codePos + 255) &^ 255
				bases[sect.ID] = codePos + 256
				codePos += 256 + uint64(len(sect.Content))
			}
		}
	}
	//
	applyRelocs(as, bases)
	//
	builder.AddRegion(Region{
		Name: ".hsadata_readonly_agent", Type: elf.SHT_PROGBITS,
		Flags: elf.SHF_ALLOC, Align: 8,
		Content: func() []byte { return globalData },
	})
	builder.AddRegion(Region{
		Name: ".hsatext", Type: elf.SHT_PROGBITS,
		Flags: elf.SHF_ALLOC | elf.SHF_EXECINSTR, Align: 256,
		Content: text.Bytes,
	})
	builder.AddRegion(Region{
		Name: ".rela.hsadata_readonly_agent", Type: elf.SHT_RELA, Align: 8,
		LinkName: ".symtab", Info: 1, EntSize: 24,
		Content: relas.Bytes,
	})
	builder.AddRegion(Region{
		Name: ".note", Type: elf.SHT_NOTE, Align: 4,
		Content: func() []byte { return buildCL2Notes(opts, driver) },
	})
	builder.AddRegion(Region{
		Name: ".strtab", Type: elf.SHT_STRTAB, Align: 1,
		Content: symtab.StrTab,
	})
	builder.AddRegion(Region{
		Name: ".symtab", Type: elf.SHT_SYMTAB, Align: 8,
		LinkName: ".strtab", EntSize: symtab.EntSize(), Info: 1,
		Content: symtab.Bytes,
	})
	// Sampler-init region: two words per sampler.
	if len(samplers) > 0 {
		samplerInit := make([]byte, 8*len(samplers))
		//
		for i, value := range samplers {
			binary.LittleEndian.PutUint32(samplerInit[i*8:], 0x10008)
			binary.LittleEndian.PutUint32(samplerInit[i*8+4:], value)
		}
		//
		builder.AddRegion(Region{
			Name: ".hsaimage_samplerinit", Type: elf.SHT_PROGBITS, Align: 4,
			Content: func() []byte { return samplerInit },
		})
	}
	// Kernels: per-kernel setup block followed by code, each at a 256-byte
	// boundary.
	for _, kernel := range as.Kernels() {
		for text.Len()%256 != 0 {
			text.WriteByte(0)
		}
		//
		var (
			offset = uint64(text.Len())
			setup  = handler.KernelSetup(as, kernel.ID)
			code   = handler.KernelCode(as, kernel.ID)
		)
		//
		if len(setup) == 0 {
			setup = make([]byte, 256)
		}
		//
		text.Write(setup)
		text.Write(code)
		//
		symtab.Add(Symbol{
			Name:    "&__OpenCL_" + kernel.Name + "_kernel",
			Value:   offset,
			Size:    uint64(len(setup) + len(code)),
			Binding: elf.STB_GLOBAL,
			Type:    elf.STT_FUNC,
			Section: builder.SectionIndex(".hsatext"),
		})
	}
	// Sampler symbols and one relocation per sampler binding the symbol to
	// its slot in global data.
	for i := range samplers {
		symIndex := uint32(symtab.Len() + 1) // account for the null symbol
		//
		symtab.Add(Symbol{
			Name:    samplerSymbolName(i),
			Value:   uint64(8 * i),
			Size:    8,
			Binding: elf.STB_LOCAL,
			Type:    elf.STT_OBJECT,
			Section: builder.SectionIndex(".hsaimage_samplerinit"),
		})
		//
		var rela [24]byte
		binary.LittleEndian.PutUint64(rela[0:], samplerOffset+uint64(8*i))
		binary.LittleEndian.PutUint64(rela[8:], uint64(symIndex)<<32|4)
		binary.LittleEndian.PutUint64(rela[16:], 0)
		relas.Write(rela[:])
	}
	//
	return builder.Build()
}

func samplerSymbolName(index int) string {
	digits := ""
	//
	if index == 0 {
		digits = "0"
	}
	//
	for n := index; n > 0; n /= 10 {
		digits = string(rune('0'+n%10)) + digits
	}
	//
	return "&input_bc::&_.Samp" + digits
}

// gatherSamplers merges the handler's sampler declarations with any raw
// sampler-init content.
func gatherSamplers(as *asm.Assembler, handler *format.AmdCL2Handler) []uint32 {
	samplers := append([]uint32{}, handler.Samplers...)
	//
	raw := handler.SamplerInit(as)
	//
	for i := 0; i+8 <= len(raw); i += 8 {
		samplers = append(samplers, binary.LittleEndian.Uint32(raw[i+4:]))
	}
	//
	return samplers
}

// Opaque note contents observed in driver output.
var (
	cl2NoteType1 = []byte{1, 0, 0, 0, 0, 0, 0, 0}
	cl2NoteType2 = []byte{1, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 0}
	cl2NoteType4 = []byte{0xf0, 0x83, 0x17, 0xfb, 0xfc, 0x7f, 0x00, 0x00}
	//
	cl2NoteType5 = []byte{0x16, 0, '-', 'h', 's', 'a', '_', 'c', 'a', 'l', 'l', '_',
		'c', 'o', 'n', 'v', 'e', 'n', 't', 'i', 'o', 'n', '=', 0, 0}
	cl2NoteType5v163 = []byte{0x16, 0, '-', 'h', 's', 'a', '_', 'c', 'a', 'l', 'l', '_',
		'c', 'o', 'n', 'v', 'e', 'n', 't', 'i', 'o', 'n', '=', '0', 0, 0}
	cl2NoteType5gpupro = []byte{0x16, 0, '-', 'h', 's', 'a', '_', 'c', 'a', 'l', 'l', '_',
		'c', 'o', 'n', 'v', 'e', 'n', 't', 'i', 'o', 'n', '=', '0', 0, 't'}
)

// buildCL2Notes produces the (at least five) notes of the inner ELF.  The
// type-3 note encodes the device's architecture version.
func buildCL2Notes(opts AmdCL2Options, driver uint32) []byte {
	version := gcn.ArchVersionOf(opts.Device, opts.ArchMinor, opts.ArchStepping)
	// type 3: {0x0004_0007, major, minor, stepping, "AMD\0AMDGPU\0"}
	type3 := make([]byte, 30)
	binary.LittleEndian.PutUint16(type3[0:], 4)
	binary.LittleEndian.PutUint16(type3[2:], 7)
	binary.LittleEndian.PutUint32(type3[4:], version.Major)
	binary.LittleEndian.PutUint32(type3[8:], version.Minor)
	binary.LittleEndian.PutUint32(type3[12:], version.Stepping)
	copy(type3[16:], "AMD\x00AMDGPU\x00")
	//
	type5 := cl2NoteType5
	//
	switch {
	case driver >= 223600:
		type5 = cl2NoteType5gpupro
	case driver >= 200406:
		type5 = cl2NoteType5v163
	}
	//
	return NotesBytes([]Note{
		{"AMD", 1, cl2NoteType1},
		{"AMD", 2, cl2NoteType2},
		{"AMD", 3, type3},
		{"AMD", 4, cl2NoteType4},
		{"AMD", 5, type5},
	})
}

// metadata record geometry by driver band (64-bit container).
const (
	cl2HeaderSizeOld    = 0xd8
	cl2HeaderSizeNew    = 0xe0
	cl2HeaderSize163    = 0x110
	cl2ArgEntrySize     = 48
	cl2MiddleHeaderSize = 40
	cl2HeaderEndSize    = 44
)

// buildCL2KernelMetadata produces the metadata record of one kernel.
//
//nolint:gocyclo
func buildCL2KernelMetadata(index uint32, config *format.AmdCL2KernelConfig, opts AmdCL2Options, driver uint32) []byte {
	var (
		newBin   = driver >= 191205
		is163    = driver >= 200406
		archWord = gcn.ArchNameWord(opts.Device)
		out      bytes.Buffer
		put32    = func(v uint32) { var b [4]byte; binary.LittleEndian.PutUint32(b[:], v); out.Write(b[:]) }
		put64    = func(v uint64) { var b [8]byte; binary.LittleEndian.PutUint64(b[:], v); out.Write(b[:]) }
	)
	//
	headerSize := uint32(cl2HeaderSizeOld)
	//
	switch {
	case is163:
		headerSize = cl2HeaderSize163
	case newBin:
		headerSize = cl2HeaderSizeNew
	}
	//
	put32(headerSize)
	put32(0) // metadataSize, patched below
	put32(3)
	put32(1)
	put32(0x68)
	//
	options := uint32(0)
	//
	if config.ReqdWorkGroupSize[0] != 0 {
		options |= 0x04
	}
	//
	if opts.Is64 {
		options |= 0x20
	}
	//
	if !newBin && (config.UseEnqueue || config.LocalSize != 0 || config.ScratchBufferSize != 0) {
		options |= 0x100
	}
	//
	put32(options)
	put32(index + 1024) // kernel id
	put32(0)            // unknownx
	put32(0)            // unknowny
	put64(0x0100000008)
	put64(0x0200000001)
	//
	for i := 0; i < 3; i++ {
		put32(config.ReqdWorkGroupSize[i])
	}
	//
	for i := 0; i < 3; i++ {
		put32(0) // unknown3
	}
	//
	put32(0x15) // first-name length
	//
	secondName := "generic"
	if driver >= 223600 {
		secondName = archWord
	}
	//
	put32(uint32(len(secondName)))
	//
	for i := 0; i < 3; i++ {
		put32(0) // unknown4
	}
	//
	if !newBin && config.ScratchBufferSize != 0 {
		put32(config.ScratchBufferSize) // pipesUsage slot
	} else {
		put32(0)
	}
	//
	put32(0) // unknown5
	put32(0)
	put32(uint32(len(config.Args)))
	// middle filler
	out.Write(make([]byte, cl2MiddleHeaderSize))
	//
	if config.UseEnqueue {
		put32(1)
	} else {
		put32(0)
	}
	//
	put32(index)
	//
	if newBin {
		put32(6)
		//
		if is163 && opts.Is64 {
			put32(0)
		}
		//
		if config.UseEnqueue {
			put32(0)
		} else {
			put32(0xffffffff)
		}
	}
	//
	if is163 {
		out.Write(make([]byte, cl2HeaderEndSize-16))
		put32(uint32(len(config.VecTypeHint)))
		//
		for i := 0; i < 3; i++ {
			put32(config.WorkGroupSizeHint[i])
		}
	}
	// the two (or three) null-terminated names
	out.Write(append([]byte("__OpenCL_dummy_kernel"), 0))
	out.Write(append([]byte(secondName), 0))
	//
	if is163 {
		out.Write(append([]byte(config.VecTypeHint), 0))
	}
	// argument entries, 16-byte aligned running offsets
	argOffset := uint32(0)
	//
	for _, arg := range config.Args {
		writeCL2ArgEntry(&out, &arg, &argOffset, opts, is163, newBin)
	}
	// null terminator entry
	out.Write(make([]byte, cl2ArgEntrySize))
	// argument names
	for _, arg := range config.Args {
		out.Write(append([]byte(arg.Name), 0))
		out.Write(append([]byte(arg.TypeName), 0))
	}
	//
	record := out.Bytes()
	binary.LittleEndian.PutUint32(record[4:], uint32(len(record)))
	//
	return record
}

// ptrSpaceCodes is the metadata address-space table.
var ptrSpaceCodes = [4]uint32{0, 3, 5, 4}

// writeCL2ArgEntry appends one 48-byte argument entry.
func writeCL2ArgEntry(out *bytes.Buffer, arg *format.KernelArg, argOffset *uint32,
	opts AmdCL2Options, is163 bool, newBin bool) {
	var (
		entry                      [cl2ArgEntrySize]byte
		put32                      = func(off int, v uint32) { binary.LittleEndian.PutUint32(entry[off:], v) }
		code, elemSize, vectorSize = format.ArgTypeProps(arg.ArgType)
		isImage                    = format.IsImageArg(arg.ArgType)
	)
	//
	if !opts.Is64 && arg.ArgType == format.ArgPointer {
		elemSize = 4
	}
	// new binaries promote 3-element vectors to 4
	if newBin && vectorSize == 3 {
		vectorSize = 4
	}
	//
	put32(0, cl2ArgEntrySize)
	put32(4, uint32(len(arg.Name)))
	put32(8, uint32(len(arg.TypeName)))
	// unknown words at 12, 16
	switch {
	case isImage || arg.ArgType == format.ArgSampler:
		put32(20, arg.ResID)
	case arg.ArgType == format.ArgStructure:
		put32(20, arg.StructSize)
	default:
		put32(20, uint32(vectorSize))
	}
	// samplers do not mark the used-slot word
	if arg.ArgType != format.ArgSampler {
		put32(24, 1)
	}
	//
	put32(28, *argOffset)
	//
	argSize := uint32(max(4, uint32(elemSize))) * uint32(vectorSize)
	if arg.ArgType == format.ArgStructure {
		argSize = arg.StructSize
	}
	//
	*argOffset += (argSize + 15) &^ 15
	// argument type code
	argType := code
	//
	if isImage {
		switch arg.PtrAccess & (format.PtrAccessRead | format.PtrAccessWrite) {
		case format.PtrAccessRead:
			argType = 1
		case format.PtrAccessWrite:
			argType = 2
		default:
			argType = 3
		}
	} else if is163 {
		// adjusted integer codes in the 16.4+ band
		switch arg.ArgType {
		case format.ArgChar, format.ArgShort, format.ArgInt, format.ArgLong:
			argType -= 4
		}
	}
	//
	put32(32, argType)
	// pointer alignment derives from the pointed-at size
	if arg.ArgType == format.ArgPointer {
		_, pointeeSize, pointeeVec := format.ArgTypeProps(arg.PointeeType)
		align := nextPowerOfTwo(uint32(pointeeSize) * uint32(pointeeVec))
		//
		put32(36, align)
		//
		ptrType, _, _ := format.ArgTypeProps(arg.PointeeType)
		entry[40] = byte(ptrType)
		entry[41] = byte(ptrSpaceCodes[arg.PtrSpace])
		entry[42] = arg.PtrAccess
		entry[43] = 0
		put32(44, 1) // isPointerOrPipe
	} else if arg.ArgType == format.ArgPipe {
		put32(44, 1)
	}
	//
	out.Write(entry[:])
}

func nextPowerOfTwo(v uint32) uint32 {
	power := uint32(1)
	//
	for power < v {
		power <<= 1
	}
	//
	return power
}
