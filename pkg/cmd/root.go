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
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version is filled when building with make, but *not* when installing via
// "go install".
var Version string

// rootCmd represents the base command when called without any subcommands.
// Given input files, it runs the assembler directly.
var rootCmd = &cobra.Command{
	Use:   "gcnasm [files...]",
	Short: "An assembler for AMD Radeon (GCN) GPUs.",
	Long:  "An assembler and binary generator for the AMD GCN instruction set (GCN 1.0/1.1/1.2/1.4).",
	Run: func(cmd *cobra.Command, args []string) {
		if GetFlag(cmd, "version") {
			fmt.Print("gcnasm ")
			if Version != "" {
				// Built via "make"
				fmt.Printf("%s", Version)
			} else if info, ok := debug.ReadBuildInfo(); ok {
				// Built via "go install"
				fmt.Printf("%s", info.Main.Version)
			} else {
				// Unknown, perhaps "go run"
				fmt.Printf("(unknown version)")
			}
			fmt.Println()
			//
			return
		}
		//
		if len(args) == 0 {
			cmd.Help() //nolint:errcheck
			return
		}
		//
		runAssemble(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately.  This is called by main.main().  It only needs to happen
// once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:errcheck
func init() {
	rootCmd.Flags().StringP("arch", "A", "", "target device or architecture")
	rootCmd.Flags().StringP("format", "F", "raw", "output binary format (raw, amd, amdcl2, gallium, rocm)")
	rootCmd.Flags().StringP("output", "o", "a.out", "output file")
	rootCmd.Flags().StringArrayP("define", "D", nil, "define symbol (name[=value])")
	rootCmd.Flags().StringArrayP("include-path", "I", nil, "add include search directory")
	rootCmd.Flags().Bool("Wall", false, "enable all warnings")
	rootCmd.Flags().Bool("Werror", false, "treat warnings as errors")
	rootCmd.Flags().Bool("alt-macro", false, "enable alternate macro syntax")
	rootCmd.Flags().Bool("buggy-fp-lit", false, "reproduce the legacy floating-point literal rounding")
	rootCmd.Flags().Bool("old-mod-param", false, "restrict modifier parameters to the literal digits 0/1")
	rootCmd.Flags().Bool("64bit", false, "produce a 64-bit container")
	rootCmd.Flags().Uint("arch-minor", 0xffffffff, "architecture minor version override")
	rootCmd.Flags().Uint("arch-stepping", 0xffffffff, "architecture stepping override")
	rootCmd.Flags().Uint("driver-version", 0, "target driver version (amdcl2)")
	rootCmd.Flags().BoolP("verbose", "v", false, "increase logging verbosity")
	rootCmd.Flags().Bool("version", false, "print version information")
}
