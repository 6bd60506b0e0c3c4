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
package termio

import "fmt"

// AnsiColour identifies one of the standard ANSI terminal colours.
type AnsiColour uint

// RED is the standard ANSI red.
const RED AnsiColour = 31

// GREEN is the standard ANSI green.
const GREEN AnsiColour = 32

// YELLOW is the standard ANSI yellow.
const YELLOW AnsiColour = 33

// BLUE is the standard ANSI blue.
const BLUE AnsiColour = 34

// MAGENTA is the standard ANSI magenta.
const MAGENTA AnsiColour = 35

// CYAN is the standard ANSI cyan.
const CYAN AnsiColour = 36

// Colourise wraps a given piece of text in the escape sequences required to
// show it in the given colour.
func Colourise(text string, colour AnsiColour) string {
	return fmt.Sprintf("\033[%dm%s\033[0m", colour, text)
}

// Bold wraps a given piece of text in the escape sequences required to show
// it in bold.
func Bold(text string) string {
	return fmt.Sprintf("\033[1m%s\033[0m", text)
}
