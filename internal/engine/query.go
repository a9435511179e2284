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
	"fmt"

	"github.com/prismdb/prism-go/internal/parser"
	"github.com/prismdb/prism-go/internal/storage"
)

// BatchResult is the output of one single-batch query execution, handed to
// an external collaborator that merges partial results across batches and
// tables using Level and BatchCount to drive merge order.
type BatchResult struct {
	// GroupBy holds the sorted, decoded group-by columns; nil for flat
	// projections
	GroupBy []storage.TypedVec

	// SortBy is the index of the order-by column within Select, or -1
	SortBy int

	// Select holds the decoded result columns: projected expressions for
	// flat queries, per-group aggregate values for grouped ones
	Select []storage.TypedVec

	// Aggregators lists the aggregator per Select column when grouping;
	// empty otherwise
	Aggregators []parser.Aggregator

	// Level and BatchCount drive the external merge
	Level      int
	BatchCount int
}

// Run executes the flat projection path of a query against one batch of
// columns: derive the filter, apply ORDER BY and LIMIT when present, then
// project and decode every select expression under the resulting
// restriction.
func Run(q *parser.Query, columns map[string]*storage.Column, stats *QueryStats) (*BatchResult, error) {
	stats.Start()
	mask, err := deriveFilter(q.Filter, columns, stats)
	if err != nil {
		return nil, err
	}
	filter := mask.asFilter()

	if q.OrderByIndex >= 0 {
		positions, err := sortPositions(q, columns, mask, stats)
		if err != nil {
			return nil, err
		}
		filter = IndicesFilter(positions)
	}

	result := make([]storage.TypedVec, 0, len(q.Select))
	for _, expr := range q.Select {
		stats.Start()
		plan, err := compilePlan(expr, columns, filter.Clone())
		stats.Record("compile_select")
		if err != nil {
			return nil, err
		}
		v, err := plan.execute()
		if err != nil {
			return nil, err
		}
		result = append(result, v.Decode())
	}

	return &BatchResult{
		SortBy:     q.OrderByIndex,
		Select:     result,
		BatchCount: 1,
	}, nil
}

// RunAggregate executes the grouped aggregation path: derive the filter,
// evaluate the composite grouping key over the select list, assign groups,
// then reduce every aggregate input per group. Every emitted column, the
// group-by output included, is permuted into ascending group-key order.
func RunAggregate(q *parser.Query, columns map[string]*storage.Column, stats *QueryStats) (*BatchResult, error) {
	stats.Start()
	mask, err := deriveFilter(q.Filter, columns, stats)
	if err != nil {
		return nil, err
	}
	filter := mask.asFilter()

	stats.Start()
	keyPlan, err := compileGroupingKey(q.Select, columns, filter.Clone())
	stats.Record("compile_grouping_key")
	if err != nil {
		return nil, err
	}
	groups, err := keyPlan.execute()
	if err != nil {
		return nil, err
	}
	perm := groups.SortPerm()

	result := make([]storage.TypedVec, 0, len(q.Aggregate))
	aggregators := make([]parser.Aggregator, 0, len(q.Aggregate))
	for _, agg := range q.Aggregate {
		stats.Start()
		plan, err := compilePlan(agg.Expr, columns, filter.Clone())
		if err != nil {
			stats.Record("compile_aggregate")
			return nil, err
		}
		compiled := prepareAggregation(plan, groups, agg.Agg)
		stats.Record("compile_aggregate")
		v, err := compiled.execute()
		if err != nil {
			return nil, err
		}
		result = append(result, v.IndexDecode(perm))
		aggregators = append(aggregators, agg.Agg)
	}

	var groupBy []storage.TypedVec
	if len(q.Select) > 0 {
		groupBy = groups.OutputColumns(perm)
	}
	return &BatchResult{
		GroupBy:     groupBy,
		SortBy:      -1,
		Select:      result,
		Aggregators: aggregators,
		BatchCount:  1,
	}, nil
}

// deriveFilter compiles and executes the filter expression under no
// restriction. A nil expression restricts nothing; an expression whose
// execution does not yield a boolean mask is a type error, not a silent
// fallback.
func deriveFilter(filter parser.Expr, columns map[string]*storage.Column, stats *QueryStats) (rowMask, error) {
	if filter == nil {
		stats.Record("compile_filter")
		return rowMask{}, nil
	}
	plan, err := compilePlan(filter, columns, NoFilter())
	stats.Record("compile_filter")
	if err != nil {
		return rowMask{}, err
	}
	v, err := plan.execute()
	if err != nil {
		return rowMask{}, err
	}
	bv, ok := v.(*storage.BoolVec)
	if !ok {
		return rowMask{}, fmt.Errorf("%w: got %s", ErrFilterNotBoolean, v.EncodingType())
	}
	return rowMask{bits: bv.Bits}, nil
}

// sortPositions evaluates the order-by expression under the current mask
// and returns the included row positions sorted by its value, truncated to
// limit+offset. The sort runs on the order-preserving encoded view, is
// stable in both directions, and is O(n log n) regardless of the limit: the
// full candidate set is sorted before truncation.
func sortPositions(q *parser.Query, columns map[string]*storage.Column, mask rowMask, stats *QueryStats) ([]int, error) {
	stats.Start()
	plan, err := compilePlan(q.Select[q.OrderByIndex], columns, mask.asFilter())
	stats.Record("compile_sort")
	if err != nil {
		return nil, err
	}
	v, err := plan.execute()
	if err != nil {
		return nil, err
	}
	keys, err := v.OrderPreserving()
	if err != nil {
		// encoding gives no sort guarantee; sort decoded values
		keys = v.Decode()
	}

	candidates := mask.candidates(batchRows(columns))
	if len(candidates) != keys.Len() {
		return nil, fmt.Errorf("sort key has %d rows, filter includes %d", keys.Len(), len(candidates))
	}

	// slot i of the filtered sort column corresponds to candidates[i]
	slots := identityPerm(keys.Len())
	if q.OrderDesc {
		keys.SortIndicesDesc(slots)
	} else {
		keys.SortIndicesAsc(slots)
	}

	positions := make([]int, len(slots))
	for i, s := range slots {
		positions[i] = candidates[s]
	}
	if keep := q.Limit.Limit + q.Limit.Offset; keep > 0 && int64(len(positions)) > keep {
		positions = positions[:keep]
	}
	return positions, nil
}
