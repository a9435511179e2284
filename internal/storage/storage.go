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
// Package storage holds the columnar in-memory representation: columns,
// their adaptive encodings, and the typed value buffers produced when a
// query plan executes against them.
package storage

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrBelowEncodedRange reports a literal below the smallest value a
	// codec can represent in its encoded domain.
	ErrBelowEncodedRange = errors.New("literal below encoded range")
	// ErrAboveEncodedRange reports a literal above the largest value a
	// codec can represent in its encoded domain.
	ErrAboveEncodedRange = errors.New("literal above encoded range")
	// ErrNotInDictionary reports a string literal absent from a
	// dictionary codec's value dictionary.
	ErrNotInDictionary = errors.New("literal not in dictionary")
	// ErrNotOrderPreserving reports a request for an order-preserving
	// view of data whose codec does not guarantee one.
	ErrNotOrderPreserving = errors.New("encoding is not order preserving")
	// ErrTypeMismatch reports a literal whose logical type does not match
	// the codec's decoded type.
	ErrTypeMismatch = errors.New("literal type mismatch")
)

// DataType represents a logical (decoded) column data type
type DataType int

const (
	// NULL represents an unknown or absent value type
	NULL DataType = iota
	// INTEGER represents a 64-bit signed integer data type
	INTEGER
	// TEXT represents a string data type
	TEXT
	// BOOLEAN represents a boolean data type
	BOOLEAN
)

// String returns a string representation of the DataType
func (dt DataType) String() string {
	switch dt {
	case NULL:
		return "NULL"
	case INTEGER:
		return "INTEGER"
	case TEXT:
		return "TEXT"
	case BOOLEAN:
		return "BOOLEAN"
	default:
		return fmt.Sprintf("DataType(%d)", dt)
	}
}

// EncodingType identifies the physical representation of a typed buffer
type EncodingType int

const (
	// EncU8 is an unsigned 8-bit encoded representation
	EncU8 EncodingType = iota
	// EncU16 is an unsigned 16-bit encoded representation
	EncU16
	// EncU32 is an unsigned 32-bit encoded representation
	EncU32
	// EncI64 is the plain 64-bit signed integer representation
	EncI64
	// EncStr is the plain string representation
	EncStr
	// EncBool is the boolean mask representation
	EncBool
)

// String returns a string representation of the EncodingType
func (et EncodingType) String() string {
	switch et {
	case EncU8:
		return "U8"
	case EncU16:
		return "U16"
	case EncU32:
		return "U32"
	case EncI64:
		return "I64"
	case EncStr:
		return "STR"
	case EncBool:
		return "BOOL"
	default:
		return fmt.Sprintf("EncodingType(%d)", et)
	}
}

// Value is a single logical value: an integer, a string, a boolean or NULL.
// It is the currency for literals entering the engine and for scalar results
// leaving it.
type Value struct {
	Type DataType
	Int  int64
	Str  string
	Bool bool
}

// IntValue returns an INTEGER Value
func IntValue(v int64) Value { return Value{Type: INTEGER, Int: v} }

// StrValue returns a TEXT Value
func StrValue(v string) Value { return Value{Type: TEXT, Str: v} }

// BoolValue returns a BOOLEAN Value
func BoolValue(v bool) Value { return Value{Type: BOOLEAN, Bool: v} }

// NullValue returns a NULL Value
func NullValue() Value { return Value{Type: NULL} }

// String returns the textual form of the value
func (v Value) String() string {
	switch v.Type {
	case INTEGER:
		return fmt.Sprintf("%d", v.Int)
	case TEXT:
		return v.Str
	case BOOLEAN:
		return fmt.Sprintf("%t", v.Bool)
	default:
		return "NULL"
	}
}

// Compare orders two values. Integers and booleans compare numerically,
// strings lexicographically. NULL sorts before everything else.
func (v Value) Compare(other Value) int {
	if v.Type != other.Type {
		if v.Type == NULL {
			return -1
		}
		if other.Type == NULL {
			return 1
		}
	}
	switch v.Type {
	case INTEGER:
		switch {
		case v.Int < other.Int:
			return -1
		case v.Int > other.Int:
			return 1
		}
	case TEXT:
		switch {
		case v.Str < other.Str:
			return -1
		case v.Str > other.Str:
			return 1
		}
	case BOOLEAN:
		switch {
		case !v.Bool && other.Bool:
			return -1
		case v.Bool && !other.Bool:
			return 1
		}
	}
	return 0
}
