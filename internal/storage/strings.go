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
	"sort"
)

// NewStringColumn builds a dictionary-encoded string column. The dictionary
// holds the distinct values sorted, and each row stores the position of its
// value in the dictionary, in the narrowest width that fits. Sorted codes
// make the encoding order preserving, so comparisons and sorts can run on
// the codes without materializing strings.
func NewStringColumn(name string, values []string) *Column {
	dict := distinctSorted(values)
	codes := make(map[string]int64, len(dict))
	for i, s := range dict {
		codes[s] = int64(i)
	}
	maxCode := int64(len(dict)) - 1
	if maxCode < 0 {
		maxCode = 0
	}
	switch {
	case maxCode <= math.MaxUint8:
		codec := &stringDictCodec[uint8]{dict: dict}
		return newEncodedColumn(name, NewEncodedVec(encodeDict[uint8](values, codes), codec), codec, 0, maxCode)
	case maxCode <= math.MaxUint16:
		codec := &stringDictCodec[uint16]{dict: dict}
		return newEncodedColumn(name, NewEncodedVec(encodeDict[uint16](values, codes), codec), codec, 0, maxCode)
	case maxCode <= math.MaxUint32:
		codec := &stringDictCodec[uint32]{dict: dict}
		return newEncodedColumn(name, NewEncodedVec(encodeDict[uint32](values, codes), codec), codec, 0, maxCode)
	default:
		return NewStrColumn(name, values)
	}
}

func distinctSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	dict := make([]string, 0, len(values))
	for _, s := range values {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			dict = append(dict, s)
		}
	}
	sort.Strings(dict)
	return dict
}

func encodeDict[T Unsigned](values []string, codes map[string]int64) []T {
	encoded := make([]T, len(values))
	for i, s := range values {
		encoded[i] = T(codes[s])
	}
	return encoded
}

// stringDictCodec maps dictionary positions back to strings. Positions into
// a sorted dictionary compare like the strings they stand for.
type stringDictCodec[T Unsigned] struct {
	dict []string
}

// Decode maps every code to its dictionary entry
func (c *stringDictCodec[T]) Decode(v TypedVec) TypedVec {
	data := v.(*EncodedVec[T]).Data
	out := make([]string, len(data))
	for i, code := range data {
		out[i] = c.dict[code]
	}
	return NewStrVec(out)
}

// DecodeValue maps a single code to its dictionary entry
func (c *stringDictCodec[T]) DecodeValue(encoded int64) Value {
	return StrValue(c.dict[encoded])
}

// Encode looks a string literal up in the dictionary. Absent literals are
// rejected with ErrNotInDictionary; the planner decides what an absent
// literal means for the operation at hand.
func (c *stringDictCodec[T]) Encode(v Value) (int64, error) {
	if v.Type != TEXT {
		return 0, ErrTypeMismatch
	}
	i := sort.SearchStrings(c.dict, v.Str)
	if i >= len(c.dict) || c.dict[i] != v.Str {
		return 0, ErrNotInDictionary
	}
	return int64(i), nil
}

// IsSummationPreserving reports false: dictionary codes carry no
// arithmetic meaning
func (c *stringDictCodec[T]) IsSummationPreserving() bool { return false }

// IsOrderPreserving reports true: the dictionary is sorted
func (c *stringDictCodec[T]) IsOrderPreserving() bool { return true }

// IsPositiveInteger reports true: codes are positions, always >= 0
func (c *stringDictCodec[T]) IsPositiveInteger() bool { return true }

// DecodedType returns TEXT
func (c *stringDictCodec[T]) DecodedType() DataType { return TEXT }

// EncodingType returns the physical width tag
func (c *stringDictCodec[T]) EncodingType() EncodingType {
	switch any(T(0)).(type) {
	case uint8:
		return EncU8
	case uint16:
		return EncU16
	default:
		return EncU32
	}
}

// DecodeRange returns the encoded range unchanged; a code range has no
// integer meaning in the logical string domain
func (c *stringDictCodec[T]) DecodeRange(min, max int64) (int64, int64) {
	return min, max
}
