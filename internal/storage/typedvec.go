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
package storage

import (
	"sort"
)

// TypedVec is a columnar value buffer tagged with its physical
// representation. Plan execution produces a fresh TypedVec; each one is
// consumed at most once and is never mutated after production.
type TypedVec interface {
	// Len returns the number of elements
	Len() int

	// EncodingType returns the physical representation tag
	EncodingType() EncodingType

	// Decode applies the owning codec (identity for plain buffers) and
	// returns the logical value sequence.
	Decode() TypedVec

	// OrderPreserving returns a view that is safe to sort without
	// decoding. It fails with ErrNotOrderPreserving when the encoding
	// gives no such guarantee. Callers decode separately after sorting.
	OrderPreserving() (TypedVec, error)

	// SortIndicesAsc stably sorts ix, a slice of positions into the
	// buffer, ascending by element value. Equal keys keep their original
	// relative order.
	SortIndicesAsc(ix []int)

	// SortIndicesDesc is SortIndicesAsc with reversed key order, still
	// stable.
	SortIndicesDesc(ix []int)

	// IndexDecode gathers the elements at the given positions, in the
	// order given, then decodes them.
	IndexDecode(ix []int) TypedVec

	// Value returns the decoded logical value at position i
	Value(i int) Value
}

// Unsigned constrains the fixed-width encodings a codec may choose
type Unsigned interface {
	~uint8 | ~uint16 | ~uint32
}

// BoolVec is a boolean mask, the result of evaluating a filter expression
type BoolVec struct {
	Bits []bool
}

// NewBoolVec wraps a boolean mask
func NewBoolVec(bits []bool) *BoolVec { return &BoolVec{Bits: bits} }

// Len returns the number of elements
func (v *BoolVec) Len() int { return len(v.Bits) }

// EncodingType returns EncBool
func (v *BoolVec) EncodingType() EncodingType { return EncBool }

// Decode returns the mask itself
func (v *BoolVec) Decode() TypedVec { return v }

// OrderPreserving returns the mask itself
func (v *BoolVec) OrderPreserving() (TypedVec, error) { return v, nil }

// SortIndicesAsc stably sorts positions, false before true
func (v *BoolVec) SortIndicesAsc(ix []int) {
	sort.SliceStable(ix, func(a, b int) bool { return !v.Bits[ix[a]] && v.Bits[ix[b]] })
}

// SortIndicesDesc stably sorts positions, true before false
func (v *BoolVec) SortIndicesDesc(ix []int) {
	sort.SliceStable(ix, func(a, b int) bool { return v.Bits[ix[a]] && !v.Bits[ix[b]] })
}

// IndexDecode gathers mask bits at the given positions
func (v *BoolVec) IndexDecode(ix []int) TypedVec {
	out := make([]bool, len(ix))
	for i, j := range ix {
		out[i] = v.Bits[j]
	}
	return &BoolVec{Bits: out}
}

// Value returns the boolean at position i
func (v *BoolVec) Value(i int) Value { return BoolValue(v.Bits[i]) }

// IntVec is a plain 64-bit signed integer buffer
type IntVec struct {
	Values []int64
}

// NewIntVec wraps a plain integer buffer
func NewIntVec(values []int64) *IntVec { return &IntVec{Values: values} }

// Len returns the number of elements
func (v *IntVec) Len() int { return len(v.Values) }

// EncodingType returns EncI64
func (v *IntVec) EncodingType() EncodingType { return EncI64 }

// Decode returns the buffer itself
func (v *IntVec) Decode() TypedVec { return v }

// OrderPreserving returns the buffer itself
func (v *IntVec) OrderPreserving() (TypedVec, error) { return v, nil }

// SortIndicesAsc stably sorts positions ascending by value
func (v *IntVec) SortIndicesAsc(ix []int) {
	sort.SliceStable(ix, func(a, b int) bool { return v.Values[ix[a]] < v.Values[ix[b]] })
}

// SortIndicesDesc stably sorts positions descending by value
func (v *IntVec) SortIndicesDesc(ix []int) {
	sort.SliceStable(ix, func(a, b int) bool { return v.Values[ix[a]] > v.Values[ix[b]] })
}

// IndexDecode gathers values at the given positions
func (v *IntVec) IndexDecode(ix []int) TypedVec {
	out := make([]int64, len(ix))
	for i, j := range ix {
		out[i] = v.Values[j]
	}
	return &IntVec{Values: out}
}

// Value returns the integer at position i
func (v *IntVec) Value(i int) Value { return IntValue(v.Values[i]) }

// StrVec is a plain string buffer
type StrVec struct {
	Values []string
}

// NewStrVec wraps a plain string buffer
func NewStrVec(values []string) *StrVec { return &StrVec{Values: values} }

// Len returns the number of elements
func (v *StrVec) Len() int { return len(v.Values) }

// EncodingType returns EncStr
func (v *StrVec) EncodingType() EncodingType { return EncStr }

// Decode returns the buffer itself
func (v *StrVec) Decode() TypedVec { return v }

// OrderPreserving returns the buffer itself
func (v *StrVec) OrderPreserving() (TypedVec, error) { return v, nil }

// SortIndicesAsc stably sorts positions ascending by value
func (v *StrVec) SortIndicesAsc(ix []int) {
	sort.SliceStable(ix, func(a, b int) bool { return v.Values[ix[a]] < v.Values[ix[b]] })
}

// SortIndicesDesc stably sorts positions descending by value
func (v *StrVec) SortIndicesDesc(ix []int) {
	sort.SliceStable(ix, func(a, b int) bool { return v.Values[ix[a]] > v.Values[ix[b]] })
}

// IndexDecode gathers values at the given positions
func (v *StrVec) IndexDecode(ix []int) TypedVec {
	out := make([]string, len(ix))
	for i, j := range ix {
		out[i] = v.Values[j]
	}
	return &StrVec{Values: out}
}

// Value returns the string at position i
func (v *StrVec) Value(i int) Value { return StrValue(v.Values[i]) }

// EncodedVec is a fixed-width encoded buffer together with the codec that
// produced it. Operations that need logical values go through the codec;
// sorting and comparison may run directly on the encoded data when the
// codec's guarantees allow it.
type EncodedVec[T Unsigned] struct {
	Data  []T
	codec Codec
}

// NewEncodedVec wraps an encoded buffer with its codec
func NewEncodedVec[T Unsigned](data []T, codec Codec) *EncodedVec[T] {
	return &EncodedVec[T]{Data: data, codec: codec}
}

// Codec returns the codec attached to the buffer
func (v *EncodedVec[T]) Codec() Codec { return v.codec }

// Len returns the number of elements
func (v *EncodedVec[T]) Len() int { return len(v.Data) }

// EncodingType returns the codec's physical type tag
func (v *EncodedVec[T]) EncodingType() EncodingType { return v.codec.EncodingType() }

// Decode applies the codec to the whole buffer
func (v *EncodedVec[T]) Decode() TypedVec { return v.codec.Decode(v) }

// OrderPreserving returns the encoded buffer itself when the codec is
// monotonic, so sorting can skip the decode.
func (v *EncodedVec[T]) OrderPreserving() (TypedVec, error) {
	if !v.codec.IsOrderPreserving() {
		return nil, ErrNotOrderPreserving
	}
	return v, nil
}

// SortIndicesAsc stably sorts positions ascending by encoded value
func (v *EncodedVec[T]) SortIndicesAsc(ix []int) {
	sort.SliceStable(ix, func(a, b int) bool { return v.Data[ix[a]] < v.Data[ix[b]] })
}

// SortIndicesDesc stably sorts positions descending by encoded value
func (v *EncodedVec[T]) SortIndicesDesc(ix []int) {
	sort.SliceStable(ix, func(a, b int) bool { return v.Data[ix[a]] > v.Data[ix[b]] })
}

// IndexDecode gathers encoded values at the given positions, then decodes
func (v *EncodedVec[T]) IndexDecode(ix []int) TypedVec {
	out := make([]T, len(ix))
	for i, j := range ix {
		out[i] = v.Data[j]
	}
	gathered := &EncodedVec[T]{Data: out, codec: v.codec}
	return v.codec.Decode(gathered)
}

// Value returns the decoded logical value at position i
func (v *EncodedVec[T]) Value(i int) Value {
	return v.codec.DecodeValue(int64(v.Data[i]))
}

// EncodedInts widens an encoded buffer to int64 values for bit-packing into
// composite grouping keys. It reports false for plain buffers.
func EncodedInts(v TypedVec) ([]int64, Codec, bool) {
	switch ev := v.(type) {
	case *EncodedVec[uint8]:
		return widen(ev.Data), ev.codec, true
	case *EncodedVec[uint16]:
		return widen(ev.Data), ev.codec, true
	case *EncodedVec[uint32]:
		return widen(ev.Data), ev.codec, true
	}
	return nil, nil, false
}

func widen[T Unsigned](data []T) []int64 {
	out := make([]int64, len(data))
	for i, v := range data {
		out[i] = int64(v)
	}
	return out
}
