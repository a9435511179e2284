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

// Column is a named, read-only container holding either plain logical
// values or an encoded buffer plus its codec and known value range. Columns
// are built once and shared, never mutated, for the lifetime of every query
// that references them.
type Column struct {
	name  string
	data  TypedVec
	codec Codec

	// encoded range when codec is set, logical range otherwise
	min, max int64
	hasRange bool
}

func newEncodedColumn(name string, data TypedVec, codec Codec, min, max int64) *Column {
	return &Column{name: name, data: data, codec: codec, min: min, max: max, hasRange: true}
}

func newPlainColumn(name string, data TypedVec, min, max int64) *Column {
	return &Column{name: name, data: data, min: min, max: max, hasRange: true}
}

// NewStrColumn builds a plain, unencoded string column
func NewStrColumn(name string, values []string) *Column {
	return &Column{name: name, data: NewStrVec(values)}
}

// Name returns the column name
func (c *Column) Name() string { return c.name }

// Data returns the column's backing buffer. The buffer is shared and
// read-only; readers copy before restricting or reordering.
func (c *Column) Data() TypedVec { return c.data }

// Codec returns the column's codec, or nil for plain columns
func (c *Column) Codec() Codec { return c.codec }

// Len returns the number of rows
func (c *Column) Len() int { return c.data.Len() }

// DecodedType returns the logical type of the column's values
func (c *Column) DecodedType() DataType {
	if c.codec != nil {
		return c.codec.DecodedType()
	}
	switch c.data.(type) {
	case *StrVec:
		return TEXT
	case *BoolVec:
		return BOOLEAN
	default:
		return INTEGER
	}
}

// Range returns the column's logical (min, max) value range when one is
// known and meaningful for the logical type.
func (c *Column) Range() (min, max int64, ok bool) {
	if !c.hasRange || c.DecodedType() != INTEGER {
		return 0, 0, false
	}
	if c.codec != nil {
		min, max = c.codec.DecodeRange(c.min, c.max)
		return min, max, true
	}
	return c.min, c.max, true
}

// EncodedRange returns the (min, max) range of the encoded buffer, used to
// size bit-packed grouping key components.
func (c *Column) EncodedRange() (min, max int64, ok bool) {
	if c.codec == nil || !c.hasRange {
		return 0, 0, false
	}
	return c.min, c.max, true
}
