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
package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/consensys/go-gcnasm/pkg/asm"
	"github.com/consensys/go-gcnasm/pkg/binfile"
	"github.com/consensys/go-gcnasm/pkg/format"
	"github.com/consensys/go-gcnasm/pkg/gcn"
	"github.com/consensys/go-gcnasm/pkg/gcn/alloc"
	"github.com/consensys/go-gcnasm/pkg/util/source"
)

// runAssemble drives the whole pipeline: read sources, assemble, allocate,
// generate, write.  Exit code 0 on a clean run, 1 on any error.
func runAssemble(cmd *cobra.Command, filenames []string) {
	if GetFlag(cmd, "verbose") {
		log.SetLevel(log.DebugLevel)
	}
	//
	defSyms, err := parseDefSyms(GetStringArray(cmd, "define"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	//
	handler, err := format.NewHandler(GetString(cmd, "format"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	//
	files, err := source.ReadFiles(filenames...)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	//
	cfg := asm.Config{
		Device:          GetString(cmd, "arch"),
		Is64Bit:         GetFlag(cmd, "64bit"),
		AltMacro:        GetFlag(cmd, "alt-macro"),
		BuggyFpLit:      GetFlag(cmd, "buggy-fp-lit"),
		OldModParam:     GetFlag(cmd, "old-mod-param"),
		CaseInsensitive: true,
		IncludeDirs:     GetStringArray(cmd, "include-path"),
		DefSyms:         defSyms,
	}
	//
	var (
		sink      = asm.NewSink(GetFlag(cmd, "Werror"))
		assembler = asm.NewAssembler(cfg, sink, gcn.NewEncoder(), handler, alloc.NewAllocator())
		pointers  = make([]*source.File, len(files))
	)
	//
	for i := range files {
		pointers[i] = &files[i]
	}
	//
	good := assembler.Assemble(pointers...)
	printDiagnostics(sink, GetFlag(cmd, "Wall") || GetFlag(cmd, "Werror"))
	//
	if !good {
		os.Exit(1)
	}
	//
	output, err := generate(cmd, assembler, handler)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	//
	outName := GetString(cmd, "output")
	//
	if err := os.WriteFile(outName, output, 0644); err != nil {
		fmt.Fprintln(os.Stderr, errors.Wrapf(err, "writing %s", outName))
		os.Exit(1)
	}
	//
	log.Debugf("wrote %d bytes to %s", len(output), outName)
}

// generate hands the assembled state to the format's binary generator.
func generate(cmd *cobra.Command, assembler *asm.Assembler, handler asm.FormatHandler) ([]byte, error) {
	device := gcn.CAPE_VERDE
	//
	if name := assembler.Device(); name != "" {
		resolved, ok := gcn.DeviceByName(name)
		if !ok {
			return nil, errors.Errorf("unknown device %q", name)
		}
		//
		device = resolved
	}
	//
	switch h := handler.(type) {
	case *format.RawHandler:
		return h.Code(assembler), nil
	case *format.AmdHandler:
		return binfile.GenerateAmd(assembler, h, device, assembler.Config().Is64Bit)
	case *format.AmdCL2Handler:
		if version := GetUint(cmd, "driver-version"); version != 0 {
			h.DriverVersion = uint32(version)
		}
		//
		return binfile.GenerateAmdCL2(assembler, h, binfile.AmdCL2Options{
			Device:       device,
			Is64:         assembler.Config().Is64Bit,
			ArchMinor:    uint32(GetUint(cmd, "arch-minor")),
			ArchStepping: uint32(GetUint(cmd, "arch-stepping")),
		})
	default:
		return nil, errors.Errorf("format %q has no binary generator", handler.Name())
	}
}
