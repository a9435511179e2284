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
	"errors"
	"fmt"

	"github.com/prismdb/prism-go/internal/parser"
	"github.com/prismdb/prism-go/internal/storage"
)

// Common errors
var (
	// ErrUnknownColumn reports an expression referencing a column the
	// caller did not supply.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrFilterNotBoolean reports a filter expression whose execution did
	// not yield a boolean mask.
	ErrFilterNotBoolean = errors.New("filter expression is not boolean")
)

// compilePlan turns one expression into an executable operator over the
// given column bindings, under the active filter. For each column reference
// it decides, from the column codec's capability flags, whether the filter
// can be pushed into the read and whether comparisons can run on encoded
// data. The decision only ever skips a decode when the codec's declared
// properties guarantee equivalence.
func compilePlan(expr parser.Expr, columns map[string]*storage.Column, filter Filter) (operator, error) {
	switch e := expr.(type) {
	case *parser.ColRef:
		col, ok := columns[e.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, e.Name)
		}
		return &readColumnOp{col: col, filter: filter}, nil

	case *parser.IntLit:
		return &constOp{val: storage.IntValue(e.Value), n: includedRows(columns, filter)}, nil

	case *parser.StrLit:
		return &constOp{val: storage.StrValue(e.Value), n: includedRows(columns, filter)}, nil

	case *parser.NotExpr:
		src, err := compilePlan(e.Expr, columns, filter)
		if err != nil {
			return nil, err
		}
		return &notOp{src: src}, nil

	case *parser.BinaryExpr:
		switch e.Op {
		case parser.OpAnd, parser.OpOr:
			left, err := compilePlan(e.Left, columns, filter)
			if err != nil {
				return nil, err
			}
			right, err := compilePlan(e.Right, columns, filter)
			if err != nil {
				return nil, err
			}
			if e.Op == parser.OpAnd {
				return &andOp{left: left, right: right}, nil
			}
			return &orOp{left: left, right: right}, nil
		default:
			return compileComparison(e, columns, filter)
		}
	}
	return nil, fmt.Errorf("unsupported expression %T", expr)
}

func compileComparison(e *parser.BinaryExpr, columns map[string]*storage.Column, filter Filter) (operator, error) {
	left, right, op := e.Left, e.Right, e.Op
	if _, isLit := literalValue(left); isLit {
		if _, alsoLit := literalValue(right); !alsoLit {
			left, right, op = right, left, mirrorOp(op)
		}
	}

	lit, hasLit := literalValue(right)
	if !hasLit {
		lop, err := compilePlan(left, columns, filter)
		if err != nil {
			return nil, err
		}
		rop, err := compilePlan(right, columns, filter)
		if err != nil {
			return nil, err
		}
		return &compareVVOp{left: lop, right: rop, op: op}, nil
	}

	if llit, bothLit := literalValue(left); bothLit {
		return &constBoolOp{value: evalLiteralComparison(llit, lit, op), n: includedRows(columns, filter)}, nil
	}

	// Column (or derived) vs literal. If the column is encoded with an
	// order-preserving codec, rewrite the literal into the encoded domain
	// and compare without decoding. A literal the codec cannot represent
	// makes the comparison vacuous for the rows of this batch.
	if ref, ok := left.(*parser.ColRef); ok {
		col, exists := columns[ref.Name]
		if !exists {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, ref.Name)
		}
		codec := col.Codec()
		if codec != nil && codec.IsOrderPreserving() {
			encoded, err := codec.Encode(lit)
			src := &readColumnOp{col: col, filter: filter}
			switch {
			case err == nil:
				return &encodedCompareOp{src: src, op: op, rhs: encoded}, nil
			case errors.Is(err, storage.ErrBelowEncodedRange):
				return &constBoolOp{value: vacuousBelow(op), n: includedRows(columns, filter)}, nil
			case errors.Is(err, storage.ErrAboveEncodedRange):
				return &constBoolOp{value: vacuousAbove(op), n: includedRows(columns, filter)}, nil
			case errors.Is(err, storage.ErrNotInDictionary):
				switch op {
				case parser.OpEq:
					return &constBoolOp{value: false, n: includedRows(columns, filter)}, nil
				case parser.OpNe:
					return &constBoolOp{value: true, n: includedRows(columns, filter)}, nil
				}
				// ordered comparison against an absent dictionary
				// entry has no single encoded equivalent
				return &compareVSOp{src: src, op: op, rhs: lit}, nil
			default:
				return nil, fmt.Errorf("cannot compare column %q to literal %s: %w", ref.Name, lit, err)
			}
		}
	}

	src, err := compilePlan(left, columns, filter)
	if err != nil {
		return nil, err
	}
	return &compareVSOp{src: src, op: op, rhs: lit}, nil
}

// vacuousBelow resolves `col <op> lit` when the literal is below every
// value the column can hold
func vacuousBelow(op parser.BinaryOp) bool {
	switch op {
	case parser.OpGt, parser.OpGe, parser.OpNe:
		return true
	}
	return false
}

// vacuousAbove resolves `col <op> lit` when the literal is above every
// value the column can hold
func vacuousAbove(op parser.BinaryOp) bool {
	switch op {
	case parser.OpLt, parser.OpLe, parser.OpNe:
		return true
	}
	return false
}

func literalValue(e parser.Expr) (storage.Value, bool) {
	switch lit := e.(type) {
	case *parser.IntLit:
		return storage.IntValue(lit.Value), true
	case *parser.StrLit:
		return storage.StrValue(lit.Value), true
	}
	return storage.NullValue(), false
}

func mirrorOp(op parser.BinaryOp) parser.BinaryOp {
	switch op {
	case parser.OpLt:
		return parser.OpGt
	case parser.OpLe:
		return parser.OpGe
	case parser.OpGt:
		return parser.OpLt
	case parser.OpGe:
		return parser.OpLe
	}
	return op
}

func evalLiteralComparison(left, right storage.Value, op parser.BinaryOp) bool {
	c := left.Compare(right)
	switch op {
	case parser.OpEq:
		return c == 0
	case parser.OpNe:
		return c != 0
	case parser.OpLt:
		return c < 0
	case parser.OpLe:
		return c <= 0
	case parser.OpGt:
		return c > 0
	case parser.OpGe:
		return c >= 0
	}
	return false
}

// batchRows returns the row count of the batch, taken from any column; all
// columns of one batch have the same length
func batchRows(columns map[string]*storage.Column) int {
	for _, col := range columns {
		return col.Len()
	}
	return 0
}

// includedRows returns the number of rows a plan compiled under the filter
// will produce
func includedRows(columns map[string]*storage.Column, filter Filter) int {
	return filter.IncludedCount(batchRows(columns))
}
