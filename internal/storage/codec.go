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

// Codec maps between a column's encoded physical representation and its
// logical value domain. A codec is immutable and attached 1:1 to the encoded
// column it was built for.
//
// The capability flags are algebraic guarantees the query planner relies on
// to skip decoding:
//
//   - order preserving: comparing encoded values yields the same order as
//     comparing decoded values, so comparisons and sorts may run on the
//     encoded buffer;
//   - summation preserving: summing encoded values equals summing decoded
//     values, so aggregation may run on the encoded buffer;
//   - positive integer: every encoded value is >= 0, which makes the
//     encoded values usable as bit-packed components of a grouping key.
//
// A codec must never advertise a property that does not provably hold.
type Codec interface {
	// Decode maps an encoded buffer to its logical value sequence.
	Decode(v TypedVec) TypedVec

	// DecodeValue maps a single encoded value to its logical form.
	DecodeValue(encoded int64) Value

	// Encode maps a logical literal into the encoded domain for
	// comparison pushdown. Literals outside the representable encoded
	// range are rejected with ErrBelowEncodedRange, ErrAboveEncodedRange
	// or ErrNotInDictionary rather than wrapped.
	Encode(v Value) (int64, error)

	// IsSummationPreserving reports whether sums over encoded data equal
	// sums over decoded data.
	IsSummationPreserving() bool

	// IsOrderPreserving reports whether the encoding is monotonic.
	IsOrderPreserving() bool

	// IsPositiveInteger reports whether every encoded value is >= 0.
	IsPositiveInteger() bool

	// DecodedType returns the logical type tag of decoded values.
	DecodedType() DataType

	// EncodingType returns the physical type tag of encoded values.
	EncodingType() EncodingType

	// DecodeRange translates an encoded (min, max) range into the logical
	// domain without touching data. Used to propagate column statistics.
	DecodeRange(min, max int64) (int64, int64)
}
