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
package engine

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"sort"

	"github.com/prismdb/prism-go/internal/parser"
	"github.com/prismdb/prism-go/internal/storage"
)

// grouping is the derived artifact of evaluating a grouping key: a group id
// per (filtered) row, the maximum id, and the distinct key values in
// first-seen order. Group order from assignment is unspecified; SortPerm
// gives the ascending-by-key permutation applied to every emitted column.
type grouping interface {
	// IDs returns the per-row group assignment
	IDs() []uint32

	// MaxID returns the highest assigned group id
	MaxID() uint32

	// SortPerm returns the ascending stable sort permutation over the
	// distinct group keys, ties broken by first-seen order
	SortPerm() []int

	// OutputColumns returns the decoded group-by columns, one row per
	// group, permuted by perm
	OutputColumns(perm []int) []storage.TypedVec
}

// groupingKeyPlan is a compiled composite grouping key. A single expression
// keys groups on its own buffer (encoded where possible); several
// expressions are bit-packed into one 64-bit key when every part is a
// positive-integer encoded column whose ranges fit, and fall back to hashed
// value tuples otherwise.
type groupingKeyPlan struct {
	single operator
	packed []packedPart
	tuple  []operator
}

type packedPart struct {
	op    operator
	codec storage.Codec
	shift uint
	mask  int64
}

// compileGroupingKey compiles the grouping-key expressions jointly into one
// sortable composite key under the active filter
func compileGroupingKey(exprs []parser.Expr, columns map[string]*storage.Column, filter Filter) (*groupingKeyPlan, error) {
	if len(exprs) == 0 {
		// global aggregate: a constant key puts every row in one group
		return &groupingKeyPlan{single: &constOp{val: storage.IntValue(0), n: includedRows(columns, filter)}}, nil
	}
	if len(exprs) == 1 {
		op, err := compilePlan(exprs[0], columns, filter)
		if err != nil {
			return nil, err
		}
		return &groupingKeyPlan{single: op}, nil
	}

	if parts, ok := packParts(exprs, columns, filter); ok {
		return &groupingKeyPlan{packed: parts}, nil
	}

	ops := make([]operator, len(exprs))
	for i, expr := range exprs {
		op, err := compilePlan(expr, columns, filter)
		if err != nil {
			return nil, err
		}
		ops[i] = op
	}
	return &groupingKeyPlan{tuple: ops}, nil
}

// packParts sizes a bit field per key column from its encoded range. The
// first expression takes the highest bits, so the packed keys order
// lexicographically like the key tuples they stand for.
func packParts(exprs []parser.Expr, columns map[string]*storage.Column, filter Filter) ([]packedPart, bool) {
	widths := make([]uint, len(exprs))
	parts := make([]packedPart, len(exprs))
	total := uint(0)
	for i, expr := range exprs {
		ref, ok := expr.(*parser.ColRef)
		if !ok {
			return nil, false
		}
		col, ok := columns[ref.Name]
		if !ok {
			return nil, false
		}
		codec := col.Codec()
		if codec == nil || !codec.IsPositiveInteger() || !codec.IsOrderPreserving() {
			return nil, false
		}
		_, encMax, ok := col.EncodedRange()
		if !ok {
			return nil, false
		}
		width := uint(bits.Len64(uint64(encMax)))
		if width == 0 {
			width = 1
		}
		widths[i] = width
		total += width
		parts[i] = packedPart{
			op:    &readColumnOp{col: col, filter: filter},
			codec: codec,
			mask:  int64(1)<<width - 1,
		}
	}
	if total > 63 {
		return nil, false
	}
	shift := total
	for i := range parts {
		shift -= widths[i]
		parts[i].shift = shift
	}
	return parts, true
}

// execute evaluates the key and partitions rows by identical composite key
func (p *groupingKeyPlan) execute() (grouping, error) {
	switch {
	case p.single != nil:
		key, err := p.single.execute()
		if err != nil {
			return nil, err
		}
		return groupSingle(key)

	case p.packed != nil:
		var keys []int64
		for _, part := range p.packed {
			v, err := part.op.execute()
			if err != nil {
				return nil, err
			}
			ints, _, ok := storage.EncodedInts(v)
			if !ok {
				return nil, fmt.Errorf("packed grouping key part is not encoded")
			}
			if keys == nil {
				keys = make([]int64, len(ints))
			}
			for r, e := range ints {
				keys[r] |= e << part.shift
			}
		}
		ids, maxID, distinct := groupValues(keys)
		return &packedGrouping{ids: ids, maxID: maxID, distinct: distinct, parts: p.packed}, nil

	default:
		vecs := make([]storage.TypedVec, len(p.tuple))
		for i, op := range p.tuple {
			v, err := op.execute()
			if err != nil {
				return nil, err
			}
			vecs[i] = v.Decode()
		}
		return groupTuples(vecs)
	}
}

// groupValues assigns ids in first-seen order over any comparable key slice
func groupValues[K comparable](keys []K) (ids []uint32, maxID uint32, distinct []K) {
	ids = make([]uint32, len(keys))
	seen := make(map[K]uint32)
	for i, k := range keys {
		id, ok := seen[k]
		if !ok {
			id = uint32(len(distinct))
			seen[k] = id
			distinct = append(distinct, k)
		}
		ids[i] = id
	}
	if len(distinct) > 0 {
		maxID = uint32(len(distinct)) - 1
	}
	return ids, maxID, distinct
}

// singleGrouping groups on one key buffer, kept in its physical
// representation so the sort permutation can skip decoding
type singleGrouping struct {
	ids      []uint32
	maxID    uint32
	distinct storage.TypedVec
}

func groupSingle(key storage.TypedVec) (grouping, error) {
	switch kv := key.(type) {
	case *storage.IntVec:
		ids, maxID, distinct := groupValues(kv.Values)
		return &singleGrouping{ids: ids, maxID: maxID, distinct: storage.NewIntVec(distinct)}, nil
	case *storage.StrVec:
		ids, maxID, distinct := groupValues(kv.Values)
		return &singleGrouping{ids: ids, maxID: maxID, distinct: storage.NewStrVec(distinct)}, nil
	case *storage.BoolVec:
		ids, maxID, distinct := groupValues(kv.Bits)
		return &singleGrouping{ids: ids, maxID: maxID, distinct: storage.NewBoolVec(distinct)}, nil
	case *storage.EncodedVec[uint8]:
		ids, maxID, distinct := groupValues(kv.Data)
		return &singleGrouping{ids: ids, maxID: maxID, distinct: storage.NewEncodedVec(distinct, kv.Codec())}, nil
	case *storage.EncodedVec[uint16]:
		ids, maxID, distinct := groupValues(kv.Data)
		return &singleGrouping{ids: ids, maxID: maxID, distinct: storage.NewEncodedVec(distinct, kv.Codec())}, nil
	case *storage.EncodedVec[uint32]:
		ids, maxID, distinct := groupValues(kv.Data)
		return &singleGrouping{ids: ids, maxID: maxID, distinct: storage.NewEncodedVec(distinct, kv.Codec())}, nil
	}
	return nil, fmt.Errorf("cannot group on %s buffer", key.EncodingType())
}

func (g *singleGrouping) IDs() []uint32 { return g.ids }

func (g *singleGrouping) MaxID() uint32 { return g.maxID }

func (g *singleGrouping) SortPerm() []int {
	perm := identityPerm(g.distinct.Len())
	keys, err := g.distinct.OrderPreserving()
	if err != nil {
		keys = g.distinct.Decode()
	}
	keys.SortIndicesAsc(perm)
	return perm
}

func (g *singleGrouping) OutputColumns(perm []int) []storage.TypedVec {
	return []storage.TypedVec{g.distinct.IndexDecode(perm)}
}

// packedGrouping groups on bit-packed composite keys
type packedGrouping struct {
	ids      []uint32
	maxID    uint32
	distinct []int64
	parts    []packedPart
}

func (g *packedGrouping) IDs() []uint32 { return g.ids }

func (g *packedGrouping) MaxID() uint32 { return g.maxID }

func (g *packedGrouping) SortPerm() []int {
	perm := identityPerm(len(g.distinct))
	storage.NewIntVec(g.distinct).SortIndicesAsc(perm)
	return perm
}

func (g *packedGrouping) OutputColumns(perm []int) []storage.TypedVec {
	out := make([]storage.TypedVec, len(g.parts))
	for i, part := range g.parts {
		values := make([]storage.Value, len(perm))
		for k, p := range perm {
			code := (g.distinct[p] >> part.shift) & part.mask
			values[k] = part.codec.DecodeValue(code)
		}
		out[i] = valuesToVec(values)
	}
	return out
}

// tupleGrouping groups on hashed tuples of decoded key values
type tupleGrouping struct {
	ids      []uint32
	maxID    uint32
	distinct [][]storage.Value // one tuple per group, first-seen order
}

func groupTuples(vecs []storage.TypedVec) (grouping, error) {
	rows := 0
	if len(vecs) > 0 {
		rows = vecs[0].Len()
	}
	g := &tupleGrouping{ids: make([]uint32, rows)}
	seen := make(map[string]uint32)
	var keyBuf []byte
	for r := 0; r < rows; r++ {
		keyBuf = keyBuf[:0]
		for _, v := range vecs {
			keyBuf = appendValueKey(keyBuf, v.Value(r))
		}
		id, ok := seen[string(keyBuf)]
		if !ok {
			id = uint32(len(g.distinct))
			seen[string(keyBuf)] = id
			tuple := make([]storage.Value, len(vecs))
			for i, v := range vecs {
				tuple[i] = v.Value(r)
			}
			g.distinct = append(g.distinct, tuple)
		}
		g.ids[r] = id
	}
	if len(g.distinct) > 0 {
		g.maxID = uint32(len(g.distinct)) - 1
	}
	return g, nil
}

// appendValueKey writes a collision-free byte key for one tuple component
func appendValueKey(buf []byte, v storage.Value) []byte {
	buf = append(buf, byte(v.Type))
	switch v.Type {
	case storage.TEXT:
		buf = binary.AppendUvarint(buf, uint64(len(v.Str)))
		buf = append(buf, v.Str...)
	case storage.BOOLEAN:
		if v.Bool {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	default:
		buf = binary.LittleEndian.AppendUint64(buf, uint64(v.Int))
	}
	return buf
}

func (g *tupleGrouping) IDs() []uint32 { return g.ids }

func (g *tupleGrouping) MaxID() uint32 { return g.maxID }

func (g *tupleGrouping) SortPerm() []int {
	perm := identityPerm(len(g.distinct))
	sort.SliceStable(perm, func(a, b int) bool {
		ta, tb := g.distinct[perm[a]], g.distinct[perm[b]]
		for i := range ta {
			if c := ta[i].Compare(tb[i]); c != 0 {
				return c < 0
			}
		}
		return false
	})
	return perm
}

func (g *tupleGrouping) OutputColumns(perm []int) []storage.TypedVec {
	if len(g.distinct) == 0 {
		return nil
	}
	out := make([]storage.TypedVec, len(g.distinct[0]))
	for part := range out {
		values := make([]storage.Value, len(perm))
		for k, p := range perm {
			values[k] = g.distinct[p][part]
		}
		out[part] = valuesToVec(values)
	}
	return out
}

func valuesToVec(values []storage.Value) storage.TypedVec {
	if len(values) == 0 {
		return storage.NewIntVec(nil)
	}
	switch values[0].Type {
	case storage.TEXT:
		out := make([]string, len(values))
		for i, v := range values {
			out[i] = v.Str
		}
		return storage.NewStrVec(out)
	case storage.BOOLEAN:
		out := make([]bool, len(values))
		for i, v := range values {
			out[i] = v.Bool
		}
		return storage.NewBoolVec(out)
	default:
		out := make([]int64, len(values))
		for i, v := range values {
			out[i] = v.Int
		}
		return storage.NewIntVec(out)
	}
}

func identityPerm(n int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	return perm
}
