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
	"cmp"
	"fmt"

	"github.com/prismdb/prism-go/internal/parser"
	"github.com/prismdb/prism-go/internal/storage"
)

// operator is a compiled, executable plan node. Execution is a single
// non-restartable pass producing one fresh TypedVec; reuse requires
// recompilation.
type operator interface {
	execute() (storage.TypedVec, error)
}

// readColumnOp reads a column under the active filter. The restriction is
// pushed into the read itself: only included rows are materialized, in mask
// order for a bit vector and in list order for an explicit position list.
// Encoded columns stay encoded; decoding is the consumer's call.
type readColumnOp struct {
	col    *storage.Column
	filter Filter
}

func (o *readColumnOp) execute() (storage.TypedVec, error) {
	data := o.col.Data()
	if bits, ok := o.filter.Bits(); ok {
		return filterVec(data, bits), nil
	}
	if ix, ok := o.filter.Indices(); ok {
		return gatherVec(data, ix), nil
	}
	return data, nil
}

// filterVec copies the rows the mask includes, keeping the representation
func filterVec(v storage.TypedVec, bits []bool) storage.TypedVec {
	switch tv := v.(type) {
	case *storage.IntVec:
		return storage.NewIntVec(filterSlice(tv.Values, bits))
	case *storage.StrVec:
		return storage.NewStrVec(filterSlice(tv.Values, bits))
	case *storage.BoolVec:
		return storage.NewBoolVec(filterSlice(tv.Bits, bits))
	case *storage.EncodedVec[uint8]:
		return storage.NewEncodedVec(filterSlice(tv.Data, bits), tv.Codec())
	case *storage.EncodedVec[uint16]:
		return storage.NewEncodedVec(filterSlice(tv.Data, bits), tv.Codec())
	case *storage.EncodedVec[uint32]:
		return storage.NewEncodedVec(filterSlice(tv.Data, bits), tv.Codec())
	}
	return v
}

// gatherVec copies the rows at the given positions, in the order given,
// keeping the representation
func gatherVec(v storage.TypedVec, ix []int) storage.TypedVec {
	switch tv := v.(type) {
	case *storage.IntVec:
		return storage.NewIntVec(gatherSlice(tv.Values, ix))
	case *storage.StrVec:
		return storage.NewStrVec(gatherSlice(tv.Values, ix))
	case *storage.BoolVec:
		return storage.NewBoolVec(gatherSlice(tv.Bits, ix))
	case *storage.EncodedVec[uint8]:
		return storage.NewEncodedVec(gatherSlice(tv.Data, ix), tv.Codec())
	case *storage.EncodedVec[uint16]:
		return storage.NewEncodedVec(gatherSlice(tv.Data, ix), tv.Codec())
	case *storage.EncodedVec[uint32]:
		return storage.NewEncodedVec(gatherSlice(tv.Data, ix), tv.Codec())
	}
	return v
}

func filterSlice[T any](values []T, bits []bool) []T {
	out := make([]T, 0, len(values))
	for i, keep := range bits {
		if keep {
			out = append(out, values[i])
		}
	}
	return out
}

func gatherSlice[T any](values []T, ix []int) []T {
	out := make([]T, len(ix))
	for i, j := range ix {
		out[i] = values[j]
	}
	return out
}

// constOp materializes a literal as a column of n rows
type constOp struct {
	val storage.Value
	n   int
}

func (o *constOp) execute() (storage.TypedVec, error) {
	switch o.val.Type {
	case storage.TEXT:
		out := make([]string, o.n)
		for i := range out {
			out[i] = o.val.Str
		}
		return storage.NewStrVec(out), nil
	default:
		out := make([]int64, o.n)
		for i := range out {
			out[i] = o.val.Int
		}
		return storage.NewIntVec(out), nil
	}
}

// constBoolOp materializes a comparison decided at compile time, e.g. a
// literal that falls outside the column's known value range
type constBoolOp struct {
	value bool
	n     int
}

func (o *constBoolOp) execute() (storage.TypedVec, error) {
	out := make([]bool, o.n)
	if o.value {
		for i := range out {
			out[i] = true
		}
	}
	return storage.NewBoolVec(out), nil
}

// encodedCompareOp compares an encoded column against a literal already
// rewritten into the encoded domain. Valid only when the codec is order
// preserving; the planner checks before it builds one.
type encodedCompareOp struct {
	src operator
	op  parser.BinaryOp
	rhs int64
}

func (o *encodedCompareOp) execute() (storage.TypedVec, error) {
	v, err := o.src.execute()
	if err != nil {
		return nil, err
	}
	switch tv := v.(type) {
	case *storage.EncodedVec[uint8]:
		return storage.NewBoolVec(compareScalar(tv.Data, uint8(o.rhs), o.op)), nil
	case *storage.EncodedVec[uint16]:
		return storage.NewBoolVec(compareScalar(tv.Data, uint16(o.rhs), o.op)), nil
	case *storage.EncodedVec[uint32]:
		return storage.NewBoolVec(compareScalar(tv.Data, uint32(o.rhs), o.op)), nil
	}
	return nil, fmt.Errorf("encoded comparison over %s buffer", v.EncodingType())
}

// compareVSOp compares a decoded column against a literal
type compareVSOp struct {
	src operator
	op  parser.BinaryOp
	rhs storage.Value
}

func (o *compareVSOp) execute() (storage.TypedVec, error) {
	v, err := o.src.execute()
	if err != nil {
		return nil, err
	}
	switch tv := v.Decode().(type) {
	case *storage.IntVec:
		if o.rhs.Type != storage.INTEGER {
			return nil, fmt.Errorf("cannot compare INTEGER column to %s literal: %w", o.rhs.Type, storage.ErrTypeMismatch)
		}
		return storage.NewBoolVec(compareScalar(tv.Values, o.rhs.Int, o.op)), nil
	case *storage.StrVec:
		if o.rhs.Type != storage.TEXT {
			return nil, fmt.Errorf("cannot compare TEXT column to %s literal: %w", o.rhs.Type, storage.ErrTypeMismatch)
		}
		return storage.NewBoolVec(compareScalar(tv.Values, o.rhs.Str, o.op)), nil
	}
	return nil, fmt.Errorf("comparison over %s buffer: %w", v.EncodingType(), storage.ErrTypeMismatch)
}

// compareVVOp compares two decoded columns elementwise
type compareVVOp struct {
	left  operator
	right operator
	op    parser.BinaryOp
}

func (o *compareVVOp) execute() (storage.TypedVec, error) {
	lv, err := o.left.execute()
	if err != nil {
		return nil, err
	}
	rv, err := o.right.execute()
	if err != nil {
		return nil, err
	}
	ld, rd := lv.Decode(), rv.Decode()
	if ld.Len() != rd.Len() {
		return nil, fmt.Errorf("comparison operand lengths differ: %d vs %d", ld.Len(), rd.Len())
	}
	switch lt := ld.(type) {
	case *storage.IntVec:
		rt, ok := rd.(*storage.IntVec)
		if !ok {
			return nil, fmt.Errorf("cannot compare INTEGER to %s: %w", rd.EncodingType(), storage.ErrTypeMismatch)
		}
		return storage.NewBoolVec(compareVecs(lt.Values, rt.Values, o.op)), nil
	case *storage.StrVec:
		rt, ok := rd.(*storage.StrVec)
		if !ok {
			return nil, fmt.Errorf("cannot compare TEXT to %s: %w", rd.EncodingType(), storage.ErrTypeMismatch)
		}
		return storage.NewBoolVec(compareVecs(lt.Values, rt.Values, o.op)), nil
	}
	return nil, fmt.Errorf("comparison over %s buffer: %w", ld.EncodingType(), storage.ErrTypeMismatch)
}

func compareScalar[T cmp.Ordered](data []T, rhs T, op parser.BinaryOp) []bool {
	out := make([]bool, len(data))
	switch op {
	case parser.OpEq:
		for i, v := range data {
			out[i] = v == rhs
		}
	case parser.OpNe:
		for i, v := range data {
			out[i] = v != rhs
		}
	case parser.OpLt:
		for i, v := range data {
			out[i] = v < rhs
		}
	case parser.OpLe:
		for i, v := range data {
			out[i] = v <= rhs
		}
	case parser.OpGt:
		for i, v := range data {
			out[i] = v > rhs
		}
	case parser.OpGe:
		for i, v := range data {
			out[i] = v >= rhs
		}
	}
	return out
}

func compareVecs[T cmp.Ordered](left, right []T, op parser.BinaryOp) []bool {
	out := make([]bool, len(left))
	for i := range left {
		switch op {
		case parser.OpEq:
			out[i] = left[i] == right[i]
		case parser.OpNe:
			out[i] = left[i] != right[i]
		case parser.OpLt:
			out[i] = left[i] < right[i]
		case parser.OpLe:
			out[i] = left[i] <= right[i]
		case parser.OpGt:
			out[i] = left[i] > right[i]
		case parser.OpGe:
			out[i] = left[i] >= right[i]
		}
	}
	return out
}

// andOp, orOp and notOp combine boolean masks
type andOp struct {
	left, right operator
}

func (o *andOp) execute() (storage.TypedVec, error) {
	lb, rb, err := boolOperands(o.left, o.right)
	if err != nil {
		return nil, err
	}
	out := make([]bool, len(lb))
	for i := range lb {
		out[i] = lb[i] && rb[i]
	}
	return storage.NewBoolVec(out), nil
}

type orOp struct {
	left, right operator
}

func (o *orOp) execute() (storage.TypedVec, error) {
	lb, rb, err := boolOperands(o.left, o.right)
	if err != nil {
		return nil, err
	}
	out := make([]bool, len(lb))
	for i := range lb {
		out[i] = lb[i] || rb[i]
	}
	return storage.NewBoolVec(out), nil
}

type notOp struct {
	src operator
}

func (o *notOp) execute() (storage.TypedVec, error) {
	v, err := o.src.execute()
	if err != nil {
		return nil, err
	}
	bv, ok := v.(*storage.BoolVec)
	if !ok {
		return nil, fmt.Errorf("NOT over %s operand: %w", v.EncodingType(), storage.ErrTypeMismatch)
	}
	out := make([]bool, len(bv.Bits))
	for i, b := range bv.Bits {
		out[i] = !b
	}
	return storage.NewBoolVec(out), nil
}

func boolOperands(left, right operator) ([]bool, []bool, error) {
	lv, err := left.execute()
	if err != nil {
		return nil, nil, err
	}
	rv, err := right.execute()
	if err != nil {
		return nil, nil, err
	}
	lb, ok := lv.(*storage.BoolVec)
	if !ok {
		return nil, nil, fmt.Errorf("logical operand is %s, not BOOL: %w", lv.EncodingType(), storage.ErrTypeMismatch)
	}
	rb, ok := rv.(*storage.BoolVec)
	if !ok {
		return nil, nil, fmt.Errorf("logical operand is %s, not BOOL: %w", rv.EncodingType(), storage.ErrTypeMismatch)
	}
	if len(lb.Bits) != len(rb.Bits) {
		return nil, nil, fmt.Errorf("logical operand lengths differ: %d vs %d", len(lb.Bits), len(rb.Bits))
	}
	return lb.Bits, rb.Bits, nil
}
