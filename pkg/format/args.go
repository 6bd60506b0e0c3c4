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

// Kernel argument type codes.
const (
	ArgVoid uint8 = iota
	ArgChar
	ArgUChar
	ArgShort
	ArgUShort
	ArgInt
	ArgUInt
	ArgLong
	ArgULong
	ArgFloat
	ArgDouble
	ArgPointer
	ArgImage
	ArgImage1D
	ArgImage1DArray
	ArgImage1DBuffer
	ArgImage2D
	ArgImage2DArray
	ArgImage3D
	ArgSampler
	ArgStructure
	ArgCounter32
	ArgPipe
	ArgCmdQueue
	ArgClkEvent
	// vector variants
	ArgChar2
	ArgChar3
	ArgChar4
	ArgShort2
	ArgShort3
	ArgShort4
	ArgInt2
	ArgInt3
	ArgInt4
	ArgLong2
	ArgLong3
	ArgLong4
	ArgFloat2
	ArgFloat3
	ArgFloat4
	ArgDouble2
	ArgDouble3
	ArgDouble4
)

// Pointer address spaces.
const (
	PtrSpaceNone uint8 = iota
	PtrSpaceGlobal
	PtrSpaceLocal
	PtrSpaceConstant
)

// Pointer access qualifier bits.
const (
	PtrAccessRead     uint8 = 1
	PtrAccessWrite    uint8 = 2
	PtrAccessConst    uint8 = 4
	PtrAccessVolatile uint8 = 8
	PtrAccessRestrict uint8 = 16
)

// KernelArg is one kernel argument declared with .arg.
type KernelArg struct {
	Name     string
	TypeName string
	// One of the Arg* codes.
	ArgType uint8
	// Pointed-at type for pointers.
	PointeeType uint8
	// One of the PtrSpace* codes for pointers.
	PtrSpace uint8
	// PtrAccess* bits.
	PtrAccess uint8
	// Size of a structure argument (or pointed-at structure).
	StructSize uint32
	// Resource id for images and samplers.
	ResID uint32
	// Whether the argument is actually read by the kernel.
	Used bool
}

// argTypeInfo carries the metadata-generation properties of an argument
// type.
type argTypeInfo struct {
	// Metadata type code.
	code uint32
	// Element size in bytes.
	elemSize uint8
	// Vector length.
	vectorSize uint8
}

// argTypeTable maps argument types onto their metadata properties.
var argTypeTable = map[uint8]argTypeInfo{
	ArgVoid:      {0, 1, 1},
	ArgChar:      {6, 1, 1},
	ArgUChar:     {7, 1, 1},
	ArgShort:     {8, 2, 1},
	ArgUShort:    {9, 2, 1},
	ArgInt:       {10, 4, 1},
	ArgUInt:      {11, 4, 1},
	ArgLong:      {12, 8, 1},
	ArgULong:     {13, 8, 1},
	ArgFloat:     {14, 4, 1},
	ArgDouble:    {15, 8, 1},
	ArgPointer:   {18, 8, 1},
	ArgImage:     {2, 8, 1},
	ArgImage1D:   {2, 8, 1},
	ArgImage2D:   {2, 8, 1},
	ArgImage3D:   {2, 8, 1},
	ArgSampler:   {1, 4, 1},
	ArgStructure: {25, 1, 1},
	ArgPipe:      {27, 8, 1},
	ArgCmdQueue:  {29, 8, 1},
	ArgClkEvent:  {30, 8, 1},
	ArgChar2:     {6, 1, 2},
	ArgChar3:     {6, 1, 3},
	ArgChar4:     {6, 1, 4},
	ArgShort2:    {8, 2, 2},
	ArgShort3:    {8, 2, 3},
	ArgShort4:    {8, 2, 4},
	ArgInt2:      {10, 4, 2},
	ArgInt3:      {10, 4, 3},
	ArgInt4:      {10, 4, 4},
	ArgLong2:     {12, 8, 2},
	ArgLong3:     {12, 8, 3},
	ArgLong4:     {12, 8, 4},
	ArgFloat2:    {14, 4, 2},
	ArgFloat3:    {14, 4, 3},
	ArgFloat4:    {14, 4, 4},
	ArgDouble2:   {15, 8, 2},
	ArgDouble3:   {15, 8, 3},
	ArgDouble4:   {15, 8, 4},
}

// argTypeNames maps the .arg type keywords onto argument types.
var argTypeNames = map[string]uint8{
	"void": ArgVoid, "char": ArgChar, "uchar": ArgUChar,
	"short": ArgShort, "ushort": ArgUShort, "int": ArgInt, "uint": ArgUInt,
	"long": ArgLong, "ulong": ArgULong, "float": ArgFloat, "double": ArgDouble,
	"image": ArgImage, "image1d": ArgImage1D, "image1d_array": ArgImage1DArray,
	"image1d_buffer": ArgImage1DBuffer, "image2d": ArgImage2D,
	"image2d_array": ArgImage2DArray, "image3d": ArgImage3D,
	"sampler": ArgSampler, "structure": ArgStructure, "counter32": ArgCounter32,
	"pipe": ArgPipe, "queue": ArgCmdQueue, "clkevent": ArgClkEvent,
	"char2": ArgChar2, "char3": ArgChar3, "char4": ArgChar4,
	"short2": ArgShort2, "short3": ArgShort3, "short4": ArgShort4,
	"int2": ArgInt2, "int3": ArgInt3, "int4": ArgInt4,
	"long2": ArgLong2, "long3": ArgLong3, "long4": ArgLong4,
	"float2": ArgFloat2, "float3": ArgFloat3, "float4": ArgFloat4,
	"double2": ArgDouble2, "double3": ArgDouble3, "double4": ArgDouble4,
}

// IsImageArg checks whether an argument type is an image.
func IsImageArg(argType uint8) bool {
	return argType >= ArgImage && argType <= ArgImage3D
}

// ArgTypeProps exposes the metadata properties of an argument type to the
// binary generators.
func ArgTypeProps(argType uint8) (code uint32, elemSize uint8, vectorSize uint8) {
	info, ok := argTypeTable[argType]
	if !ok {
		return 0, 1, 1
	}
	//
	return info.code, info.elemSize, info.vectorSize
}
