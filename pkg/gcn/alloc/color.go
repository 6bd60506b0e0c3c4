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
package alloc

import (
	"sort"

	"github.com/consensys/go-gcnasm/pkg/asm"
)

// vertex is one allocatable unit of the interference graph: a canonical SSA
// instance of a regvar, with the live interval covering all its usages.
type vertex struct {
	key   ssaKey
	width uint16
	align uint8
	// Live interval over section offsets, inclusive.
	start uint64
	end   uint64
	// Adjacent vertices (interference edges).
	edges map[int]bool
	// Assigned register index, or noColour.
	colour uint16
}

const noColour = uint16(0xffff)

// interGraph is the interference graph of one register file.
type interGraph struct {
	vertices []*vertex
	// Canonical SSA instance -> vertex index.
	index map[ssaKey]int
}

// buildInterference builds the per-register-file interference graphs over a
// section's usages.
func buildInterference(section *asm.Section, data *ssaData, find func(ssaKey) ssaKey) [asm.RegTypesNum]*interGraph {
	var graphs [asm.RegTypesNum]*interGraph
	//
	for i := range graphs {
		graphs[i] = &interGraph{index: make(map[ssaKey]int)}
	}
	//
	touch := func(rv *asm.RegVar, id uint, offset uint64, align uint8) {
		graph := graphs[rv.Type]
		key := find(ssaKey{rv, id})
		//
		idx, ok := graph.index[key]
		if !ok {
			idx = len(graph.vertices)
			graph.index[key] = idx
			graph.vertices = append(graph.vertices, &vertex{
				key:    key,
				width:  rv.Count,
				align:  1,
				start:  offset,
				end:    offset,
				edges:  make(map[int]bool),
				colour: noColour,
			})
		}
		//
		v := graph.vertices[idx]
		//
		v.start = min(v.start, offset)
		v.end = max(v.end, offset)
		//
		if align > v.align {
			v.align = align
		}
	}
	//
	for i := range section.RVUs {
		rvu := &section.RVUs[i]
		touch(rvu.RegVar, data.usageIds[i], rvu.Offset, rvu.Align)
	}
	// Linear dependencies raise the alignment requirement of their group.
	for _, dep := range section.LinearDeps {
		for _, rv := range dep.RegVars {
			graph := graphs[rv.Type]
			//
			for _, v := range graph.vertices {
				if v.key.rv == rv && dep.Align > v.align {
					v.align = dep.Align
				}
			}
		}
	}
	// Vertices live simultaneously interfere.
	for _, graph := range graphs {
		for i := 0; i < len(graph.vertices); i++ {
			for j := i + 1; j < len(graph.vertices); j++ {
				a, b := graph.vertices[i], graph.vertices[j]
				//
				if a.key == b.key {
					continue
				}
				//
				if a.start <= b.end && b.start <= a.end {
					a.edges[j] = true
					b.edges[i] = true
				}
			}
		}
	}
	//
	return graphs
}

// equalClasses folds equal-to dependencies into a canonicalising map over
// vertex indices: an entire class receives one colour.
func equalClasses(section *asm.Section, graph *interGraph, regType uint8) map[int]int {
	leader := make(map[int]int)
	//
	for i := range graph.vertices {
		leader[i] = i
	}
	//
	var root func(int) int
	root = func(i int) int {
		if leader[i] != i {
			leader[i] = root(leader[i])
		}
		//
		return leader[i]
	}
	//
	for _, dep := range section.EqualDeps {
		if dep.First.Type != regType || dep.Second.Type != regType {
			continue
		}
		// Join the first vertex found for each of the two regvars; the
		// dep's offset is not consulted.
		var first, second = -1, -1
		//
		for idx, v := range graph.vertices {
			if v.key.rv == dep.First && first < 0 {
				first = idx
			}
			//
			if v.key.rv == dep.Second && second < 0 {
				second = idx
			}
		}
		//
		if first >= 0 && second >= 0 {
			leader[root(first)] = root(second)
		}
	}
	//
	for i := range graph.vertices {
		root(i)
	}
	//
	return leader
}

// colourGraph greedily assigns register indices, honouring interference
// edges, widths, alignments and equal-to classes.  The palette is bounded by
// maxRegs; exhaustion returns false.
func colourGraph(graph *interGraph, leader map[int]int, maxRegs uint16) bool {
	// Colour in order of live-interval start, which keeps the assignment
	// deterministic and tight.
	order := make([]int, len(graph.vertices))
	for i := range order {
		order[i] = i
	}
	//
	sort.SliceStable(order, func(i, j int) bool {
		return graph.vertices[order[i]].start < graph.vertices[order[j]].start
	})
	//
	for _, idx := range order {
		v := graph.vertices[idx]
		//
		if leader[idx] != idx {
			// class followers inherit the leader's colour below
			continue
		}
		//
		width := classWidth(graph, leader, idx)
		align := classAlign(graph, leader, idx)
		// Gather registers blocked by interfering neighbours of the whole
		// class.
		blocked := make(map[uint16]uint16)
		//
		for member := range leader {
			if leader[member] != idx {
				continue
			}
			//
			for adj := range graph.vertices[member].edges {
				other := graph.vertices[leader[adj]]
				//
				if other.colour != noColour {
					blocked[other.colour] = max(blocked[other.colour], other.width)
				}
			}
		}
		//
		colour := noColour
		//
		for candidate := uint16(0); candidate+width <= maxRegs; candidate += uint16(align) {
			if !overlapsBlocked(blocked, candidate, width) {
				colour = candidate
				break
			}
		}
		//
		if colour == noColour {
			return false
		}
		//
		v.colour = colour
	}
	// Propagate class colours.
	for idx := range graph.vertices {
		if leader[idx] != idx {
			graph.vertices[idx].colour = graph.vertices[leader[idx]].colour
		}
	}
	//
	return true
}

func overlapsBlocked(blocked map[uint16]uint16, candidate uint16, width uint16) bool {
	for start, w := range blocked {
		if candidate < start+w && start < candidate+width {
			return true
		}
	}
	//
	return false
}

func classWidth(graph *interGraph, leader map[int]int, class int) uint16 {
	width := uint16(1)
	//
	for member := range leader {
		if leader[member] == class && graph.vertices[member].width > width {
			width = graph.vertices[member].width
		}
	}
	//
	return width
}

func classAlign(graph *interGraph, leader map[int]int, class int) uint8 {
	align := uint8(1)
	//
	for member := range leader {
		if leader[member] == class && graph.vertices[member].align > align {
			align = graph.vertices[member].align
		}
	}
	//
	return align
}
