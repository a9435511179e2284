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
// Package parser defines the query request model (expressions, aggregators,
// limits) and parses the SQL subset the CLI speaks into it. The execution
// engine consumes the model and never mutates it.
package parser

import (
	"fmt"
)

// Expr is a parsed expression tree node
type Expr interface {
	// AddColNames inserts every column name the expression references
	// into the set
	AddColNames(set map[string]struct{})

	exprNode()
}

// ColRef references a column by name
type ColRef struct {
	Name string
}

// IntLit is an integer literal
type IntLit struct {
	Value int64
}

// StrLit is a string literal
type StrLit struct {
	Value string
}

// BinaryOp identifies a binary operator
type BinaryOp int

const (
	// OpEq is equality (=)
	OpEq BinaryOp = iota
	// OpNe is inequality (<> or !=)
	OpNe
	// OpLt is less than (<)
	OpLt
	// OpLe is less than or equal (<=)
	OpLe
	// OpGt is greater than (>)
	OpGt
	// OpGe is greater than or equal (>=)
	OpGe
	// OpAnd is logical AND
	OpAnd
	// OpOr is logical OR
	OpOr
)

// String returns the SQL spelling of the operator
func (op BinaryOp) String() string {
	switch op {
	case OpEq:
		return "="
	case OpNe:
		return "<>"
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpAnd:
		return "AND"
	case OpOr:
		return "OR"
	default:
		return fmt.Sprintf("BinaryOp(%d)", int(op))
	}
}

// BinaryExpr applies a binary operator to two subexpressions
type BinaryExpr struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
}

// NotExpr negates a boolean subexpression
type NotExpr struct {
	Expr Expr
}

// AddColNames implements Expr
func (e *ColRef) AddColNames(set map[string]struct{}) { set[e.Name] = struct{}{} }

// AddColNames implements Expr
func (e *IntLit) AddColNames(set map[string]struct{}) {}

// AddColNames implements Expr
func (e *StrLit) AddColNames(set map[string]struct{}) {}

// AddColNames implements Expr
func (e *BinaryExpr) AddColNames(set map[string]struct{}) {
	e.Left.AddColNames(set)
	e.Right.AddColNames(set)
}

// AddColNames implements Expr
func (e *NotExpr) AddColNames(set map[string]struct{}) { e.Expr.AddColNames(set) }

func (e *ColRef) exprNode()     {}
func (e *IntLit) exprNode()     {}
func (e *StrLit) exprNode()     {}
func (e *BinaryExpr) exprNode() {}
func (e *NotExpr) exprNode()    {}

// Aggregator identifies the reduction applied to one grouped input column
type Aggregator int

const (
	// AggCount counts contributing rows per group
	AggCount Aggregator = iota
	// AggSum sums contributing values per group
	AggSum
)

// String returns the lowercase name of the aggregator
func (a Aggregator) String() string {
	switch a {
	case AggCount:
		return "count"
	case AggSum:
		return "sum"
	default:
		return fmt.Sprintf("aggregator(%d)", int(a))
	}
}

// AggExpr pairs an aggregator with its input expression
type AggExpr struct {
	Agg  Aggregator
	Expr Expr
}

// LimitClause caps the number of result rows
type LimitClause struct {
	Limit  int64
	Offset int64
}

// DefaultLimit is applied when a query carries no LIMIT clause
const DefaultLimit = 100

// Query is the immutable request model handed to the engine: the select
// list, a filter, the aggregate list (the select list doubles as the GROUP
// BY list when aggregates are present), ordering and a limit.
type Query struct {
	Select    []Expr
	Table     string
	Filter    Expr // nil means no restriction
	Aggregate []AggExpr

	OrderBy   string
	OrderDesc bool
	// OrderByIndex is the position of the order-by column within Select,
	// or -1 when the query has no ORDER BY.
	OrderByIndex int

	Limit LimitClause
}

// IsSelectStar reports whether the select list is exactly `*`
func (q *Query) IsSelectStar() bool {
	if len(q.Select) != 1 {
		return false
	}
	ref, ok := q.Select[0].(*ColRef)
	return ok && ref.Name == "*"
}

// ResultColumnNames returns one name per select expression followed by one
// per aggregate. Plain column references keep their name; any other select
// expression receives col_<k> with k counting anonymous select expressions
// only. Aggregates receive <agg>_<k> with a separate counter per aggregate
// pair.
func (q *Query) ResultColumnNames() []string {
	names := make([]string, 0, len(q.Select)+len(q.Aggregate))
	anonColumns := 0
	for _, expr := range q.Select {
		if ref, ok := expr.(*ColRef); ok {
			names = append(names, ref.Name)
			continue
		}
		names = append(names, fmt.Sprintf("col_%d", anonColumns))
		anonColumns++
	}
	for i, agg := range q.Aggregate {
		names = append(names, fmt.Sprintf("%s_%d", agg.Agg, i))
	}
	return names
}

// FindReferencedCols returns the set of every distinct column name
// mentioned across the select list, the filter and the aggregate
// expressions. The storage layer uses it to decide what to materialize
// before running the query.
func (q *Query) FindReferencedCols() map[string]struct{} {
	cols := make(map[string]struct{})
	for _, expr := range q.Select {
		expr.AddColNames(cols)
	}
	if q.Filter != nil {
		q.Filter.AddColNames(cols)
	}
	for _, agg := range q.Aggregate {
		agg.Expr.AddColNames(cols)
	}
	return cols
}
