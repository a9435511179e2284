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
	"math"
)

// NewIntColumn builds an integer column from values with the precomputed
// logical range (min, max). It picks the narrowest unsigned width that can
// represent max-min, storing value-min in that width with an offset codec of
// offset=min. When max-min exceeds the unsigned 32-bit range the column
// falls back to plain 64-bit storage with no codec.
//
// The encoding decision is final: columns are never re-encoded or mutated
// after construction.
func NewIntColumn(name string, values []int64, min, max int64) *Column {
	spread := uint64(max - min)
	switch {
	case spread <= math.MaxUint8:
		codec := newIntegerOffsetCodec[uint8](min)
		return newEncodedColumn(name, NewEncodedVec(encodeOffset[uint8](values, min), codec), codec, 0, max-min)
	case spread <= math.MaxUint16:
		codec := newIntegerOffsetCodec[uint16](min)
		return newEncodedColumn(name, NewEncodedVec(encodeOffset[uint16](values, min), codec), codec, 0, max-min)
	case spread <= math.MaxUint32:
		codec := newIntegerOffsetCodec[uint32](min)
		return newEncodedColumn(name, NewEncodedVec(encodeOffset[uint32](values, min), codec), codec, 0, max-min)
	default:
		return newPlainColumn(name, NewIntVec(values), min, max)
	}
}

func encodeOffset[T Unsigned](values []int64, offset int64) []T {
	encoded := make([]T, len(values))
	for i, v := range values {
		encoded[i] = T(v - offset)
	}
	return encoded
}

// integerOffsetCodec stores values as value-offset in a fixed unsigned
// width. The encoding is a monotonic shift, so it is order preserving and
// positive integer; it is summation preserving exactly when the offset is
// zero, since a nonzero offset would bias a sum by offset*rowCount.
type integerOffsetCodec[T Unsigned] struct {
	offset int64
}

func newIntegerOffsetCodec[T Unsigned](offset int64) *integerOffsetCodec[T] {
	return &integerOffsetCodec[T]{offset: offset}
}

// Decode adds the offset back to every encoded value
func (c *integerOffsetCodec[T]) Decode(v TypedVec) TypedVec {
	data := v.(*EncodedVec[T]).Data
	out := make([]int64, len(data))
	for i, e := range data {
		out[i] = int64(e) + c.offset
	}
	return NewIntVec(out)
}

// DecodeValue adds the offset back to a single encoded value
func (c *integerOffsetCodec[T]) DecodeValue(encoded int64) Value {
	return IntValue(encoded + c.offset)
}

// Encode maps an integer literal into the encoded domain, rejecting
// literals the width cannot represent instead of wrapping.
func (c *integerOffsetCodec[T]) Encode(v Value) (int64, error) {
	if v.Type != INTEGER {
		return 0, ErrTypeMismatch
	}
	encoded := v.Int - c.offset
	if encoded < 0 {
		return 0, ErrBelowEncodedRange
	}
	if encoded > encodedMax[T]() {
		return 0, ErrAboveEncodedRange
	}
	return encoded, nil
}

// IsSummationPreserving reports whether the offset is zero
func (c *integerOffsetCodec[T]) IsSummationPreserving() bool { return c.offset == 0 }

// IsOrderPreserving always reports true for a fixed monotonic shift
func (c *integerOffsetCodec[T]) IsOrderPreserving() bool { return true }

// IsPositiveInteger always reports true: encoded values are >= 0 by
// construction
func (c *integerOffsetCodec[T]) IsPositiveInteger() bool { return true }

// DecodedType returns INTEGER
func (c *integerOffsetCodec[T]) DecodedType() DataType { return INTEGER }

// EncodingType returns the physical width tag
func (c *integerOffsetCodec[T]) EncodingType() EncodingType {
	switch any(T(0)).(type) {
	case uint8:
		return EncU8
	case uint16:
		return EncU16
	default:
		return EncU32
	}
}

// DecodeRange translates an encoded range to the logical domain by adding
// the offset to both bounds
func (c *integerOffsetCodec[T]) DecodeRange(min, max int64) (int64, int64) {
	return min + c.offset, max + c.offset
}

func encodedMax[T Unsigned]() int64 {
	switch any(T(0)).(type) {
	case uint8:
		return math.MaxUint8
	case uint16:
		return math.MaxUint16
	default:
		return math.MaxUint32
	}
}
