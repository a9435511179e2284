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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prismdb/prism-go/internal/parser"
	"github.com/prismdb/prism-go/internal/storage"
)

func ageColumns() map[string]*storage.Column {
	return map[string]*storage.Column{
		"age": storage.NewIntColumn("age", []int64{10, 20, 30, 40}, 10, 40),
	}
}

func flatQuery(selects []parser.Expr, filter parser.Expr) *parser.Query {
	return &parser.Query{
		Select:       selects,
		Table:        "people",
		Filter:       filter,
		OrderByIndex: -1,
		Limit:        parser.LimitClause{Limit: parser.DefaultLimit},
	}
}

func intResult(t *testing.T, v storage.TypedVec) []int64 {
	t.Helper()
	iv, ok := v.(*storage.IntVec)
	require.True(t, ok, "expected IntVec, got %T", v)
	return iv.Values
}

func strResult(t *testing.T, v storage.TypedVec) []string {
	t.Helper()
	sv, ok := v.(*storage.StrVec)
	require.True(t, ok, "expected StrVec, got %T", v)
	return sv.Values
}

func TestProjectionWithFilter(t *testing.T) {
	q := flatQuery(
		[]parser.Expr{&parser.ColRef{Name: "age"}},
		&parser.BinaryExpr{Op: parser.OpGt, Left: &parser.ColRef{Name: "age"}, Right: &parser.IntLit{Value: 15}},
	)
	stats := NewQueryStats()
	result, err := Run(q, ageColumns(), stats)
	require.NoError(t, err)

	require.Len(t, result.Select, 1)
	assert.Equal(t, []int64{20, 30, 40}, intResult(t, result.Select[0]))
	assert.Equal(t, -1, result.SortBy)
	assert.Empty(t, result.Aggregators)
	assert.Equal(t, 1, result.BatchCount)
	assert.NotZero(t, stats.Stage("compile_filter"))
}

func TestOrderByWithLimit(t *testing.T) {
	q := flatQuery([]parser.Expr{&parser.ColRef{Name: "age"}}, nil)
	q.OrderByIndex = 0
	q.OrderDesc = true
	q.Limit = parser.LimitClause{Limit: 2}

	result, err := Run(q, ageColumns(), NewQueryStats())
	require.NoError(t, err)
	assert.Equal(t, []int64{40, 30}, intResult(t, result.Select[0]))
	assert.Equal(t, 0, result.SortBy)
}

func TestOrderByAscWithFilterAndOffset(t *testing.T) {
	q := flatQuery(
		[]parser.Expr{&parser.ColRef{Name: "age"}},
		&parser.BinaryExpr{Op: parser.OpNe, Left: &parser.ColRef{Name: "age"}, Right: &parser.IntLit{Value: 30}},
	)
	q.OrderByIndex = 0
	q.Limit = parser.LimitClause{Limit: 1, Offset: 1}

	// sorted included rows are [10, 20, 40]; limit+offset keeps two
	result, err := Run(q, ageColumns(), NewQueryStats())
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 20}, intResult(t, result.Select[0]))
}

func TestAggregationByStringKey(t *testing.T) {
	columns := map[string]*storage.Column{
		"region": storage.NewStringColumn("region", []string{"x", "y", "x"}),
		"v":      storage.NewIntColumn("v", []int64{1, 2, 3}, 1, 3),
	}
	q := &parser.Query{
		Select:       []parser.Expr{&parser.ColRef{Name: "region"}},
		Table:        "t",
		Aggregate:    []parser.AggExpr{{Agg: parser.AggSum, Expr: &parser.ColRef{Name: "v"}}},
		OrderByIndex: -1,
		Limit:        parser.LimitClause{Limit: parser.DefaultLimit},
	}

	result, err := RunAggregate(q, columns, NewQueryStats())
	require.NoError(t, err)
	require.Len(t, result.GroupBy, 1)
	assert.Equal(t, []string{"x", "y"}, strResult(t, result.GroupBy[0]))
	require.Len(t, result.Select, 1)
	assert.Equal(t, []int64{4, 2}, intResult(t, result.Select[0]))
	assert.Equal(t, []parser.Aggregator{parser.AggSum}, result.Aggregators)
	assert.Equal(t, -1, result.SortBy)
}

func TestAggregationWithFilter(t *testing.T) {
	columns := map[string]*storage.Column{
		"region": storage.NewStringColumn("region", []string{"x", "y", "x", "y"}),
		"v":      storage.NewIntColumn("v", []int64{1, 2, 3, 4}, 1, 4),
	}
	q := &parser.Query{
		Select: []parser.Expr{&parser.ColRef{Name: "region"}},
		Table:  "t",
		Filter: &parser.BinaryExpr{Op: parser.OpGt, Left: &parser.ColRef{Name: "v"}, Right: &parser.IntLit{Value: 1}},
		Aggregate: []parser.AggExpr{
			{Agg: parser.AggCount, Expr: &parser.ColRef{Name: "v"}},
			{Agg: parser.AggSum, Expr: &parser.ColRef{Name: "v"}},
		},
		OrderByIndex: -1,
		Limit:        parser.LimitClause{Limit: parser.DefaultLimit},
	}

	result, err := RunAggregate(q, columns, NewQueryStats())
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, strResult(t, result.GroupBy[0]))
	assert.Equal(t, []int64{1, 2}, intResult(t, result.Select[0]))
	assert.Equal(t, []int64{3, 6}, intResult(t, result.Select[1]))
}

func TestGlobalAggregate(t *testing.T) {
	q := &parser.Query{
		Table:        "t",
		Aggregate:    []parser.AggExpr{{Agg: parser.AggSum, Expr: &parser.ColRef{Name: "age"}}},
		OrderByIndex: -1,
		Limit:        parser.LimitClause{Limit: parser.DefaultLimit},
	}
	result, err := RunAggregate(q, ageColumns(), NewQueryStats())
	require.NoError(t, err)
	assert.Empty(t, result.GroupBy)
	assert.Equal(t, []int64{100}, intResult(t, result.Select[0]))
}

func TestMultiColumnGrouping(t *testing.T) {
	columns := map[string]*storage.Column{
		"region": storage.NewStringColumn("region", []string{"y", "x", "y", "x", "y"}),
		"tier":   storage.NewIntColumn("tier", []int64{2, 1, 1, 1, 2}, 1, 2),
		"v":      storage.NewIntColumn("v", []int64{10, 20, 30, 40, 50}, 10, 50),
	}
	q := &parser.Query{
		Select: []parser.Expr{
			&parser.ColRef{Name: "region"},
			&parser.ColRef{Name: "tier"},
		},
		Table:        "t",
		Aggregate:    []parser.AggExpr{{Agg: parser.AggSum, Expr: &parser.ColRef{Name: "v"}}},
		OrderByIndex: -1,
		Limit:        parser.LimitClause{Limit: parser.DefaultLimit},
	}

	result, err := RunAggregate(q, columns, NewQueryStats())
	require.NoError(t, err)
	require.Len(t, result.GroupBy, 2)

	// ascending by (region, tier)
	assert.Equal(t, []string{"x", "y", "y"}, strResult(t, result.GroupBy[0]))
	assert.Equal(t, []int64{1, 1, 2}, intResult(t, result.GroupBy[1]))
	assert.Equal(t, []int64{60, 30, 60}, intResult(t, result.Select[0]))
}

func TestTupleGrouping(t *testing.T) {
	// the id spread exceeds 32 bits, so the column stays plain and the
	// composite key cannot be bit-packed
	columns := map[string]*storage.Column{
		"id":     storage.NewIntColumn("id", []int64{0, 5000000000, 0}, 0, 5000000000),
		"region": storage.NewStringColumn("region", []string{"x", "y", "x"}),
		"v":      storage.NewIntColumn("v", []int64{10, 20, 1}, 1, 20),
	}
	require.Nil(t, columns["id"].Codec())

	q := &parser.Query{
		Select: []parser.Expr{
			&parser.ColRef{Name: "id"},
			&parser.ColRef{Name: "region"},
		},
		Table:        "t",
		Aggregate:    []parser.AggExpr{{Agg: parser.AggSum, Expr: &parser.ColRef{Name: "v"}}},
		OrderByIndex: -1,
		Limit:        parser.LimitClause{Limit: parser.DefaultLimit},
	}

	result, err := RunAggregate(q, columns, NewQueryStats())
	require.NoError(t, err)
	require.Len(t, result.GroupBy, 2)

	// ascending by (id, region)
	assert.Equal(t, []int64{0, 5000000000}, intResult(t, result.GroupBy[0]))
	assert.Equal(t, []string{"x", "y"}, strResult(t, result.GroupBy[1]))
	assert.Equal(t, []int64{11, 20}, intResult(t, result.Select[0]))
}

func TestNonBooleanFilterIsTypeError(t *testing.T) {
	q := flatQuery([]parser.Expr{&parser.ColRef{Name: "age"}}, &parser.ColRef{Name: "age"})
	_, err := Run(q, ageColumns(), NewQueryStats())
	assert.ErrorIs(t, err, ErrFilterNotBoolean)
}

func TestUnknownColumn(t *testing.T) {
	q := flatQuery([]parser.Expr{&parser.ColRef{Name: "salary"}}, nil)
	_, err := Run(q, ageColumns(), NewQueryStats())
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestFilterIdempotence(t *testing.T) {
	columns := ageColumns()
	filter := BitVecFilter([]bool{false, true, true, false})

	read := func(f Filter) []int64 {
		op := &readColumnOp{col: columns["age"], filter: f}
		v, err := op.execute()
		require.NoError(t, err)
		return intResult(t, v.Decode())
	}

	once := read(filter)
	again := read(filter.Clone())
	assert.Equal(t, []int64{20, 30}, once)
	assert.Equal(t, once, again)
}

func TestVacuousComparisons(t *testing.T) {
	// age spans [10, 40]; literals outside the encoded domain decide the
	// comparison at compile time instead of wrapping
	tests := []struct {
		name string
		op   parser.BinaryOp
		lit  int64
		want []int64
	}{
		{name: "greater than below-range literal", op: parser.OpGt, lit: -5, want: []int64{10, 20, 30, 40}},
		{name: "less than below-range literal", op: parser.OpLt, lit: -5, want: nil},
		{name: "equal to above-range literal", op: parser.OpEq, lit: 1000, want: nil},
		{name: "not equal to above-range literal", op: parser.OpNe, lit: 1000, want: []int64{10, 20, 30, 40}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := flatQuery(
				[]parser.Expr{&parser.ColRef{Name: "age"}},
				&parser.BinaryExpr{Op: tt.op, Left: &parser.ColRef{Name: "age"}, Right: &parser.IntLit{Value: tt.lit}},
			)
			result, err := Run(q, ageColumns(), NewQueryStats())
			require.NoError(t, err)
			got := intResult(t, result.Select[0])
			if tt.want == nil {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestLiteralSelectUnderFilter(t *testing.T) {
	q := flatQuery(
		[]parser.Expr{&parser.IntLit{Value: 7}},
		&parser.BinaryExpr{Op: parser.OpGe, Left: &parser.ColRef{Name: "age"}, Right: &parser.IntLit{Value: 30}},
	)
	result, err := Run(q, ageColumns(), NewQueryStats())
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 7}, intResult(t, result.Select[0]))
}

func TestStringEqualityPushdown(t *testing.T) {
	columns := map[string]*storage.Column{
		"region": storage.NewStringColumn("region", []string{"x", "y", "x"}),
		"v":      storage.NewIntColumn("v", []int64{1, 2, 3}, 1, 3),
	}
	q := flatQuery(
		[]parser.Expr{&parser.ColRef{Name: "v"}},
		&parser.BinaryExpr{Op: parser.OpEq, Left: &parser.ColRef{Name: "region"}, Right: &parser.StrLit{Value: "x"}},
	)
	result, err := Run(q, columns, NewQueryStats())
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, intResult(t, result.Select[0]))

	// a literal absent from the dictionary matches nothing
	q.Filter = &parser.BinaryExpr{Op: parser.OpEq, Left: &parser.ColRef{Name: "region"}, Right: &parser.StrLit{Value: "z"}}
	result, err = Run(q, columns, NewQueryStats())
	require.NoError(t, err)
	assert.Empty(t, intResult(t, result.Select[0]))
}

func TestStringOrderedCompareAbsentLiteral(t *testing.T) {
	// an absent literal has no dictionary code, so the ordered comparison
	// runs over the decoded strings
	columns := map[string]*storage.Column{
		"name": storage.NewStringColumn("name", []string{"ada", "bob", "cyd", "dan"}),
		"age":  storage.NewIntColumn("age", []int64{10, 20, 30, 40}, 10, 40),
	}
	q := flatQuery(
		[]parser.Expr{&parser.ColRef{Name: "age"}},
		&parser.BinaryExpr{Op: parser.OpGt, Left: &parser.ColRef{Name: "name"}, Right: &parser.StrLit{Value: "bzz"}},
	)
	result, err := Run(q, columns, NewQueryStats())
	require.NoError(t, err)
	assert.Equal(t, []int64{30, 40}, intResult(t, result.Select[0]))

	q.Filter = &parser.BinaryExpr{Op: parser.OpLe, Left: &parser.ColRef{Name: "name"}, Right: &parser.StrLit{Value: "bzz"}}
	result, err = Run(q, columns, NewQueryStats())
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 20}, intResult(t, result.Select[0]))
}
