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
package gcn

import (
	"strings"

	"github.com/samber/lo"
)

// DeviceType enumerates the supported GPU devices.  The order is
// significant: binary generators index device tables by this value.
type DeviceType uint8

// Supported devices, in container-table order.
const (
	CAPE_VERDE DeviceType = iota
	PITCAIRN
	TAHITI
	OLAND
	BONAIRE
	SPECTRE
	SPOOKY
	KALINDI
	HAINAN
	HAWAII
	ICELAND
	TONGA
	MULLINS
	FIJI
	CARRIZO
	DUMMY
	GOOSE
	HORSE
	STONEY
	ELLESMERE
	BAFFIN
	GFX804
	GFX900
	GFX901
	GFX902
	GFX903
	GFX904
	GFX905
	GFX906
	GFX907
	// DeviceTypesNum is the number of device table entries.
	DeviceTypesNum
)

// Architecture variants of the GCN ISA.
const (
	GCN10 uint8 = iota
	GCN11
	GCN12
	GCN14
	// ArchsNum is the number of ISA variants.
	ArchsNum
)

// ArchMask selects a set of ISA variants; one bit per variant.
type ArchMask uint8

// Masks for the individual variants, and useful unions.
const (
	MaskGCN10 ArchMask = 1 << GCN10
	MaskGCN11 ArchMask = 1 << GCN11
	MaskGCN12 ArchMask = 1 << GCN12
	MaskGCN14 ArchMask = 1 << GCN14
	//
	MaskGCNAll ArchMask = MaskGCN10 | MaskGCN11 | MaskGCN12 | MaskGCN14
	MaskGCN11p ArchMask = MaskGCN11 | MaskGCN12 | MaskGCN14
	MaskGCN12p ArchMask = MaskGCN12 | MaskGCN14
)

// Has checks whether a mask includes a given variant.
func (m ArchMask) Has(arch uint8) bool {
	return m&(1<<arch) != 0
}

// Bits counts the variants included in a mask.
func (m ArchMask) Bits() int {
	count := 0
	//
	for i := uint8(0); i < ArchsNum; i++ {
		if m.Has(i) {
			count++
		}
	}
	//
	return count
}

// deviceArchs maps every device to its ISA variant.
var deviceArchs = [DeviceTypesNum]uint8{
	CAPE_VERDE: GCN10, PITCAIRN: GCN10, TAHITI: GCN10, OLAND: GCN10, HAINAN: GCN10,
	BONAIRE: GCN11, SPECTRE: GCN11, SPOOKY: GCN11, KALINDI: GCN11, HAWAII: GCN11, MULLINS: GCN11,
	ICELAND: GCN12, TONGA: GCN12, FIJI: GCN12, CARRIZO: GCN12, DUMMY: GCN12, GOOSE: GCN12,
	HORSE: GCN12, STONEY: GCN12, ELLESMERE: GCN12, BAFFIN: GCN12, GFX804: GCN12,
	GFX900: GCN14, GFX901: GCN14, GFX902: GCN14, GFX903: GCN14, GFX904: GCN14,
	GFX905: GCN14, GFX906: GCN14, GFX907: GCN14,
}

// ArchOf returns the ISA variant of a device.
func ArchOf(device DeviceType) uint8 {
	return deviceArchs[device]
}

// deviceNames maps the primary name of every device.  Lookup is
// case-insensitive and also accepts the alias list below.
var deviceNames = [DeviceTypesNum]string{
	"capeverde", "pitcairn", "tahiti", "oland", "bonaire", "spectre", "spooky",
	"kalindi", "hainan", "hawaii", "iceland", "tonga", "mullins", "fiji",
	"carrizo", "dummy", "goose", "horse", "stoney", "ellesmere", "baffin",
	"gfx804", "gfx900", "gfx901", "gfx902", "gfx903", "gfx904", "gfx905",
	"gfx906", "gfx907",
}

// deviceAliases maps alternative spellings onto devices.
var deviceAliases = map[string]DeviceType{
	"polaris10": ELLESMERE,
	"polaris11": BAFFIN,
	"polaris12": GFX804,
	"vega10":    GFX900,
	"vega11":    GFX902,
	"vega12":    GFX904,
	"vega20":    GFX906,
	"raven":     GFX902,
	"topaz":     ICELAND,
}

// archNames maps architecture names onto a representative device, so that
// .arch/--arch accept either form.
var archNames = map[string]DeviceType{
	"gcn1.0": CAPE_VERDE,
	"gcn1.1": BONAIRE,
	"gcn1.2": TONGA,
	"gcn1.4": GFX900,
	"si":     TAHITI,
	"ci":     BONAIRE,
	"vi":     TONGA,
	"vega":   GFX900,
}

// DeviceByName resolves a device (or architecture) name.
func DeviceByName(name string) (DeviceType, bool) {
	name = strings.ToLower(name)
	//
	if idx := lo.IndexOf(deviceNames[:], name); idx >= 0 {
		return DeviceType(idx), true
	}
	//
	if device, ok := deviceAliases[name]; ok {
		return device, true
	}
	//
	device, ok := archNames[name]
	//
	return device, ok
}

// DeviceName returns the primary name of a device.
func DeviceName(device DeviceType) string {
	return deviceNames[device]
}

// ArchVersion is the AMDGPU architecture version triple carried in AMDCL2
// notes and ROCm configuration.
type ArchVersion struct {
	Major    uint32
	Minor    uint32
	Stepping uint32
}

// archVersions maps every ISA variant onto its base architecture version.
var archVersions = [ArchsNum]ArchVersion{
	{6, 0, 0}, {7, 0, 0}, {8, 0, 1}, {9, 0, 0},
}

// deviceVersions carries per-device overrides of the base version.
var deviceVersions = map[DeviceType]ArchVersion{
	HAWAII:  {7, 0, 1},
	STONEY:  {8, 1, 0},
	CARRIZO: {8, 1, 0},
	ICELAND: {8, 0, 0},
	TONGA:   {8, 0, 2},
	GFX804:  {8, 0, 4},
	GFX901:  {9, 0, 1},
	GFX902:  {9, 0, 2},
	GFX903:  {9, 0, 3},
	GFX904:  {9, 0, 4},
	GFX905:  {9, 0, 5},
	GFX906:  {9, 0, 6},
	GFX907:  {9, 0, 7},
}

// ArchVersionOf returns the architecture version of a device, applying any
// minor/stepping overrides (math.MaxUint32 leaves a component unchanged).
func ArchVersionOf(device DeviceType, minor uint32, stepping uint32) ArchVersion {
	version, ok := deviceVersions[device]
	if !ok {
		version = archVersions[ArchOf(device)]
	}
	//
	if minor != 0xffffffff {
		version.Minor = minor
	}
	//
	if stepping != 0xffffffff {
		version.Stepping = stepping
	}
	//
	return version
}

// ArchNameWord returns the metadata architecture word ("GFX8" etc) of a
// device.
func ArchNameWord(device DeviceType) string {
	words := [ArchsNum]string{"GFX6", "GFX7", "GFX8", "GFX9"}
	//
	return words[ArchOf(device)]
}

// MaxSGPRs returns the number of addressable scalar registers of a variant.
func MaxSGPRs(arch uint8) uint16 {
	if arch >= GCN12 {
		return 102
	}
	//
	return 104
}

// MaxVGPRs returns the number of addressable vector registers.
func MaxVGPRs(arch uint8) uint16 {
	return 256
}
