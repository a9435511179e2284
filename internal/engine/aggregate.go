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

// aggregationOp reduces a filtered input column per group. Count tallies
// contributing rows from the group assignment alone; Sum runs the source
// operator and, when the codec is summation preserving, totals the encoded
// values without decoding. Sums use unchecked int64 arithmetic.
type aggregationOp struct {
	src   operator
	agg   parser.Aggregator
	ids   []uint32
	maxID uint32
}

// prepareAggregation combines a compiled input plan with a group assignment
// and an aggregator
func prepareAggregation(src operator, g grouping, agg parser.Aggregator) *aggregationOp {
	return &aggregationOp{src: src, agg: agg, ids: g.IDs(), maxID: g.MaxID()}
}

func (o *aggregationOp) execute() (storage.TypedVec, error) {
	out := make([]int64, int(o.maxID)+1)
	if len(o.ids) == 0 {
		return storage.NewIntVec(out[:0]), nil
	}

	switch o.agg {
	case parser.AggCount:
		for _, id := range o.ids {
			out[id]++
		}
		return storage.NewIntVec(out), nil

	case parser.AggSum:
		v, err := o.src.execute()
		if err != nil {
			return nil, err
		}
		if v.Len() != len(o.ids) {
			return nil, fmt.Errorf("aggregation input has %d rows, grouping has %d", v.Len(), len(o.ids))
		}
		if encoded, codec, ok := storage.EncodedInts(v); ok && codec.IsSummationPreserving() {
			for i, e := range encoded {
				out[o.ids[i]] += e
			}
			return storage.NewIntVec(out), nil
		}
		iv, ok := v.Decode().(*storage.IntVec)
		if !ok {
			return nil, fmt.Errorf("cannot sum %s column: %w", v.EncodingType(), storage.ErrTypeMismatch)
		}
		for i, value := range iv.Values {
			out[o.ids[i]] += value
		}
		return storage.NewIntVec(out), nil
	}
	return nil, fmt.Errorf("unsupported aggregator %s", o.agg)
}
