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
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/consensys/go-gcnasm/pkg/asm"
	"github.com/consensys/go-gcnasm/pkg/util/termio"
)

// GetFlag gets an expected flag, or exits if an error arises.
func GetFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetUint gets an expected unsigned integer, or exits if an error arises.
func GetUint(cmd *cobra.Command, flag string) uint {
	r, err := cmd.Flags().GetUint(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(4)
	}

	return r
}

// GetString gets an expected string, or exits if an error arises.
func GetString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(5)
	}

	return r
}

// GetStringArray gets an expected string array, or exits if an error arises.
func GetStringArray(cmd *cobra.Command, flag string) []string {
	r, err := cmd.Flags().GetStringArray(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(6)
	}

	return r
}

// parseDefSyms parses -D name[=value] definitions.
func parseDefSyms(defs []string) ([]asm.DefSym, error) {
	var syms []asm.DefSym
	//
	for _, def := range defs {
		name, valueText, hasValue := strings.Cut(def, "=")
		value := uint64(0)
		//
		if hasValue {
			parsed, err := strconv.ParseUint(valueText, 0, 64)
			if err != nil {
				return nil, fmt.Errorf("malformed definition %q", def)
			}
			//
			value = parsed
		}
		//
		syms = append(syms, asm.DefSym{Name: name, Value: value})
	}
	//
	return syms, nil
}

// printDiagnostics writes all accumulated diagnostics to standard error,
// colourised when attached to a terminal.  Warnings are suppressed unless
// enabled.
func printDiagnostics(sink *asm.Sink, warnings bool) {
	colour := termio.IsErrTerminal()
	//
	for i := range sink.Diagnostics {
		if sink.Diagnostics[i].Severity == asm.WARNING && !warnings {
			continue
		}
		//
		printDiagnostic(&sink.Diagnostics[i], colour)
	}
}

// printDiagnostic writes a single diagnostic, including its macro-expansion
// backtrace.
func printDiagnostic(diag *asm.Diagnostic, colour bool) {
	line := diag.String()
	//
	if colour {
		switch diag.Severity {
		case asm.WARNING:
			line = termio.Colourise(line, termio.YELLOW)
		default:
			line = termio.Colourise(line, termio.RED)
		}
	}
	//
	fmt.Fprintln(os.Stderr, line)
	// Print the expansion chain, outermost last.
	for next := diag.Pos.Expansion; next != nil; next = next.Expansion {
		fmt.Fprintf(os.Stderr, "    expanded from %s\n", next.String())
	}
}
