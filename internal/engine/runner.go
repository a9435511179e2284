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
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/prismdb/prism-go/internal/parser"
	"github.com/prismdb/prism-go/internal/storage"
)

// BatchRunner executes the single-batch core once per batch on a shared
// goroutine pool. Each batch runs the full synchronous pipeline
// independently; results come back in batch order, unmerged, and combining
// partial results is the caller's concern.
type BatchRunner struct {
	pool *ants.Pool
}

// NewBatchRunner creates a runner with the given parallelism; size <= 0
// uses one worker per CPU
func NewBatchRunner(size int) (*BatchRunner, error) {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}
	return &BatchRunner{pool: pool}, nil
}

// Close releases the worker pool
func (r *BatchRunner) Close() {
	r.pool.Release()
}

// RunQuery runs the query against every batch and returns one BatchResult
// per batch, in batch order. The aggregation path is chosen when the query
// carries aggregates. The first error encountered fails the whole call.
func (r *BatchRunner) RunQuery(q *parser.Query, batches []map[string]*storage.Column) ([]*BatchResult, error) {
	results := make([]*BatchResult, len(batches))
	errs := make([]error, len(batches))
	var wg sync.WaitGroup
	for i := range batches {
		i := i
		wg.Add(1)
		submitErr := r.pool.Submit(func() {
			defer wg.Done()
			stats := NewQueryStats()
			if len(q.Aggregate) > 0 {
				results[i], errs[i] = RunAggregate(q, batches[i], stats)
			} else {
				results[i], errs[i] = Run(q, batches[i], stats)
			}
		})
		if submitErr != nil {
			errs[i] = submitErr
			wg.Done()
		}
	}
	wg.Wait()
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return results, nil
}
