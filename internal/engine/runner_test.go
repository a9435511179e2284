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

func TestRunnerPreservesBatchOrder(t *testing.T) {
	runner, err := NewBatchRunner(4)
	require.NoError(t, err)
	defer runner.Close()

	batches := make([]map[string]*storage.Column, 8)
	for i := range batches {
		base := int64(i * 100)
		batches[i] = map[string]*storage.Column{
			"v": storage.NewIntColumn("v", []int64{base, base + 1}, base, base+1),
		}
	}

	q := flatQuery([]parser.Expr{&parser.ColRef{Name: "v"}}, nil)
	results, err := runner.RunQuery(q, batches)
	require.NoError(t, err)
	require.Len(t, results, 8)
	for i, r := range results {
		base := int64(i * 100)
		assert.Equal(t, []int64{base, base + 1}, intResult(t, r.Select[0]))
	}
}

func TestRunnerChoosesAggregatePath(t *testing.T) {
	runner, err := NewBatchRunner(2)
	require.NoError(t, err)
	defer runner.Close()

	batches := []map[string]*storage.Column{
		{
			"region": storage.NewStringColumn("region", []string{"x", "y"}),
			"v":      storage.NewIntColumn("v", []int64{1, 2}, 1, 2),
		},
		{
			"region": storage.NewStringColumn("region", []string{"y"}),
			"v":      storage.NewIntColumn("v", []int64{5}, 5, 5),
		},
	}
	q := &parser.Query{
		Select:       []parser.Expr{&parser.ColRef{Name: "region"}},
		Table:        "t",
		Aggregate:    []parser.AggExpr{{Agg: parser.AggSum, Expr: &parser.ColRef{Name: "v"}}},
		OrderByIndex: -1,
		Limit:        parser.LimitClause{Limit: parser.DefaultLimit},
	}

	results, err := runner.RunQuery(q, batches)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// each batch aggregates independently; partials are not merged here
	assert.Equal(t, []string{"x", "y"}, strResult(t, results[0].GroupBy[0]))
	assert.Equal(t, []int64{1, 2}, intResult(t, results[0].Select[0]))
	assert.Equal(t, []string{"y"}, strResult(t, results[1].GroupBy[0]))
	assert.Equal(t, []int64{5}, intResult(t, results[1].Select[0]))
}

func TestRunnerPropagatesErrors(t *testing.T) {
	runner, err := NewBatchRunner(2)
	require.NoError(t, err)
	defer runner.Close()

	batches := []map[string]*storage.Column{
		{"v": storage.NewIntColumn("v", []int64{1}, 1, 1)},
		{"v": storage.NewIntColumn("v", []int64{2}, 2, 2)},
	}
	q := flatQuery([]parser.Expr{&parser.ColRef{Name: "missing"}}, nil)

	_, err = runner.RunQuery(q, batches)
	assert.ErrorIs(t, err, ErrUnknownColumn)
}
