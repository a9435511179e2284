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
package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBasicSelect(t *testing.T) {
	q, err := Parse("SELECT age, name FROM people")
	require.NoError(t, err)
	assert.Equal(t, "people", q.Table)
	require.Len(t, q.Select, 2)
	assert.Equal(t, &ColRef{Name: "age"}, q.Select[0])
	assert.Equal(t, &ColRef{Name: "name"}, q.Select[1])
	assert.Nil(t, q.Filter)
	assert.Empty(t, q.Aggregate)
	assert.Equal(t, -1, q.OrderByIndex)
	assert.Equal(t, int64(DefaultLimit), q.Limit.Limit)
}

func TestParseWhere(t *testing.T) {
	q, err := Parse("SELECT age FROM people WHERE age > 15 AND name <> 'bob'")
	require.NoError(t, err)
	require.NotNil(t, q.Filter)

	and, ok := q.Filter.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, OpAnd, and.Op)

	left, ok := and.Left.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, OpGt, left.Op)
	assert.Equal(t, &ColRef{Name: "age"}, left.Left)
	assert.Equal(t, &IntLit{Value: 15}, left.Right)

	right, ok := and.Right.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, OpNe, right.Op)
	assert.Equal(t, &StrLit{Value: "bob"}, right.Right)
}

func TestParseOrderByAndLimit(t *testing.T) {
	q, err := Parse("SELECT age, name FROM people ORDER BY age DESC LIMIT 10 OFFSET 5")
	require.NoError(t, err)
	assert.Equal(t, "age", q.OrderBy)
	assert.True(t, q.OrderDesc)
	assert.Equal(t, 0, q.OrderByIndex)
	assert.Equal(t, int64(10), q.Limit.Limit)
	assert.Equal(t, int64(5), q.Limit.Offset)
}

func TestParseOrderByNotInSelect(t *testing.T) {
	_, err := Parse("SELECT name FROM people ORDER BY age")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must appear in the select list")
}

func TestParseAggregates(t *testing.T) {
	q, err := Parse("SELECT region, SUM(v), COUNT(v) FROM t")
	require.NoError(t, err)
	require.Len(t, q.Select, 1)
	assert.Equal(t, &ColRef{Name: "region"}, q.Select[0])
	require.Len(t, q.Aggregate, 2)
	assert.Equal(t, AggSum, q.Aggregate[0].Agg)
	assert.Equal(t, &ColRef{Name: "v"}, q.Aggregate[0].Expr)
	assert.Equal(t, AggCount, q.Aggregate[1].Agg)
}

func TestParseCountStar(t *testing.T) {
	q, err := Parse("SELECT COUNT(*) FROM t")
	require.NoError(t, err)
	assert.Empty(t, q.Select)
	require.Len(t, q.Aggregate, 1)
	assert.Equal(t, AggCount, q.Aggregate[0].Agg)
	assert.Equal(t, &ColRef{Name: "*"}, q.Aggregate[0].Expr)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: "   "},
		{name: "missing from", input: "SELECT a"},
		{name: "trailing garbage", input: "SELECT a FROM t nonsense"},
		{name: "unterminated string", input: "SELECT a FROM t WHERE b = 'oops"},
		{name: "order by with aggregate", input: "SELECT a, SUM(b) FROM t ORDER BY a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestIsSelectStar(t *testing.T) {
	q, err := Parse("SELECT * FROM t")
	require.NoError(t, err)
	assert.True(t, q.IsSelectStar())

	q, err = Parse("SELECT a FROM t")
	require.NoError(t, err)
	assert.False(t, q.IsSelectStar())
}

func TestResultColumnNames(t *testing.T) {
	q := &Query{
		Select: []Expr{
			&ColRef{Name: "a"},
			&BinaryExpr{Op: OpGt, Left: &ColRef{Name: "a"}, Right: &IntLit{Value: 1}},
			&ColRef{Name: "b"},
		},
		Aggregate: []AggExpr{
			{Agg: AggCount, Expr: &ColRef{Name: "x"}},
			{Agg: AggSum, Expr: &ColRef{Name: "y"}},
		},
	}
	assert.Equal(t, []string{"a", "col_0", "b", "count_0", "sum_1"}, q.ResultColumnNames())
}

func TestFindReferencedCols(t *testing.T) {
	q, err := Parse("SELECT a, b FROM t WHERE c > 1 AND a < 5")
	require.NoError(t, err)
	cols := q.FindReferencedCols()
	assert.Equal(t, map[string]struct{}{"a": {}, "b": {}, "c": {}}, cols)
}
