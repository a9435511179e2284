/*
Copyright 2025 Prism Contributors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
// Package engine compiles parsed expressions into physical operators over
// encoded columnar data and runs them: row filtering, projection, ordering
// and grouped aggregation, one batch at a time.
package engine

// filterKind discriminates the Filter variants
type filterKind int

const (
	filterNone filterKind = iota
	filterBitVec
	filterIndices
)

// Filter is the row-restriction context threaded through every plan
// compilation of one query: no restriction, a boolean per-row mask, or an
// explicit ordered row-position list. The backing buffer is immutable and
// shared; cloning is an O(1) struct copy.
type Filter struct {
	kind    filterKind
	bits    []bool
	indices []int
}

// NoFilter returns the no-restriction Filter
func NoFilter() Filter { return Filter{kind: filterNone} }

// BitVecFilter wraps a per-row inclusion mask. The mask must have one bit
// per underlying row and is not copied; callers must not mutate it after.
func BitVecFilter(bits []bool) Filter {
	return Filter{kind: filterBitVec, bits: bits}
}

// IndicesFilter wraps an explicit row-position list, kept in the order
// given. The slice is not copied; callers must not mutate it after.
func IndicesFilter(indices []int) Filter {
	return Filter{kind: filterIndices, indices: indices}
}

// Clone returns a Filter sharing the same underlying buffer
func (f Filter) Clone() Filter { return f }

// IsNone reports whether the filter restricts nothing
func (f Filter) IsNone() bool { return f.kind == filterNone }

// Bits returns the inclusion mask of a BitVec filter
func (f Filter) Bits() ([]bool, bool) { return f.bits, f.kind == filterBitVec }

// Indices returns the position list of an Indices filter
func (f Filter) Indices() ([]int, bool) { return f.indices, f.kind == filterIndices }

// IncludedCount returns the number of rows the filter passes out of n
func (f Filter) IncludedCount(n int) int {
	switch f.kind {
	case filterBitVec:
		count := 0
		for _, b := range f.bits {
			if b {
				count++
			}
		}
		return count
	case filterIndices:
		return len(f.indices)
	default:
		return n
	}
}

// rowMask is the restriction state before any ORDER BY runs: either
// unrestricted or a boolean mask. The sort step consumes a rowMask rather
// than a Filter so the position-list variant, which only the sort step
// itself produces, cannot reach it.
type rowMask struct {
	bits []bool // nil means no restriction
}

// asFilter widens the mask into the general Filter
func (m rowMask) asFilter() Filter {
	if m.bits == nil {
		return NoFilter()
	}
	return BitVecFilter(m.bits)
}

// candidates returns the positions the mask includes, ascending, out of n
// rows
func (m rowMask) candidates(n int) []int {
	if m.bits == nil {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}
	out := make([]int, 0, n)
	for i, b := range m.bits {
		if b {
			out = append(out, i)
		}
	}
	return out
}
