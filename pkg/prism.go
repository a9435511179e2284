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
// Package pkg is the public embedding surface: an in-memory database of
// batched columnar tables and a Query entry point running the execution
// core over every batch of the referenced table.
package pkg

import (
	"errors"
	"fmt"
	"sync"

	"github.com/prismdb/prism-go/internal/engine"
	"github.com/prismdb/prism-go/internal/parser"
	"github.com/prismdb/prism-go/internal/storage"
)

// Common errors
var (
	// ErrTableExists reports a CreateTable for a name already taken
	ErrTableExists = errors.New("table already exists")
	// ErrTableNotFound reports a query or insert against an unknown table
	ErrTableNotFound = errors.New("table not found")
	// ErrSchemaMismatch reports an inserted batch whose columns differ
	// from the table's first batch
	ErrSchemaMismatch = errors.New("batch does not match table schema")
)

// DB is an in-memory database: named tables, each a sequence of immutable
// column batches, and a shared runner executing queries batch-parallel.
type DB struct {
	mu     sync.RWMutex
	tables map[string]*table
	runner *engine.BatchRunner
}

type table struct {
	name    string
	schema  []string // column order fixed by the first batch
	batches []map[string]*storage.Column
	rows    int
}

// ColumnData is one named column of raw values handed to InsertBatch.
// Exactly one of Ints and Strs is set.
type ColumnData struct {
	Name string
	Ints []int64
	Strs []string
}

// IntColumn wraps raw integer values for ingestion
func IntColumn(name string, values []int64) ColumnData {
	return ColumnData{Name: name, Ints: values}
}

// StringColumn wraps raw string values for ingestion
func StringColumn(name string, values []string) ColumnData {
	return ColumnData{Name: name, Strs: values}
}

func (c ColumnData) len() int {
	if c.Strs != nil {
		return len(c.Strs)
	}
	return len(c.Ints)
}

// Open creates an empty in-memory database with the given query
// parallelism; parallelism <= 0 uses one worker per CPU
func Open(parallelism int) (*DB, error) {
	runner, err := engine.NewBatchRunner(parallelism)
	if err != nil {
		return nil, err
	}
	return &DB{tables: make(map[string]*table), runner: runner}, nil
}

// Close releases the query runner
func (db *DB) Close() {
	db.runner.Close()
}

// CreateTable registers an empty table
func (db *DB) CreateTable(name string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.tables[name]; ok {
		return fmt.Errorf("%w: %q", ErrTableExists, name)
	}
	db.tables[name] = &table{name: name}
	return nil
}

// Tables returns the registered table names
func (db *DB) Tables() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	names := make([]string, 0, len(db.tables))
	for name := range db.tables {
		names = append(names, name)
	}
	return names
}

// TableRows returns the total row count of a table
func (db *DB) TableRows(name string) (int, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	t, ok := db.tables[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrTableNotFound, name)
	}
	return t.rows, nil
}

// InsertBatch appends one batch of raw columns to a table. Column values
// are scanned for their range and adaptively encoded here, once; the
// resulting batch is immutable. All columns of a batch must have the same
// length, and every batch after the first must carry the same column set.
func (db *DB) InsertBatch(tableName string, columns []ColumnData) error {
	if len(columns) == 0 {
		return errors.New("batch has no columns")
	}
	rows := columns[0].len()
	for _, c := range columns {
		if c.len() != rows {
			return fmt.Errorf("column %q has %d rows, expected %d", c.Name, c.len(), rows)
		}
	}

	batch := make(map[string]*storage.Column, len(columns))
	schema := make([]string, len(columns))
	for i, c := range columns {
		schema[i] = c.Name
		if c.Strs != nil {
			batch[c.Name] = storage.NewStringColumn(c.Name, c.Strs)
			continue
		}
		min, max := scanRange(c.Ints)
		batch[c.Name] = storage.NewIntColumn(c.Name, c.Ints, min, max)
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	t, ok := db.tables[tableName]
	if !ok {
		return fmt.Errorf("%w: %q", ErrTableNotFound, tableName)
	}
	if t.schema == nil {
		t.schema = schema
	} else if !sameColumns(t.schema, batch) {
		return fmt.Errorf("%w: table %q", ErrSchemaMismatch, tableName)
	}
	t.batches = append(t.batches, batch)
	t.rows += rows
	return nil
}

func scanRange(values []int64) (int64, int64) {
	if len(values) == 0 {
		return 0, 0
	}
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

func sameColumns(schema []string, batch map[string]*storage.Column) bool {
	if len(schema) != len(batch) {
		return false
	}
	for _, name := range schema {
		if _, ok := batch[name]; !ok {
			return false
		}
	}
	return true
}

// Result is the outcome of one query: the result column names and one
// unmerged BatchResult per table batch. Combining partial aggregates
// across batches is the embedding application's concern.
type Result struct {
	Columns []string
	Batches []*engine.BatchResult
}

// Rows flattens the batch results into rows of logical values,
// concatenated in batch order. Grouped results yield the group-by columns
// followed by the aggregate columns.
func (r *Result) Rows() [][]storage.Value {
	var rows [][]storage.Value
	for _, batch := range r.Batches {
		cols := make([]storage.TypedVec, 0, len(batch.GroupBy)+len(batch.Select))
		cols = append(cols, batch.GroupBy...)
		cols = append(cols, batch.Select...)
		if len(cols) == 0 {
			continue
		}
		for i := 0; i < cols[0].Len(); i++ {
			row := make([]storage.Value, len(cols))
			for j, col := range cols {
				row[j] = col.Value(i)
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// Query parses and executes one statement, running the core once per batch
// of the referenced table
func (db *DB) Query(text string) (*Result, error) {
	q, err := parser.Parse(text)
	if err != nil {
		return nil, err
	}

	db.mu.RLock()
	t, ok := db.tables[q.Table]
	if !ok {
		db.mu.RUnlock()
		return nil, fmt.Errorf("%w: %q", ErrTableNotFound, q.Table)
	}
	batches := t.batches
	schema := t.schema
	db.mu.RUnlock()

	if q.IsSelectStar() {
		q.Select = make([]parser.Expr, len(schema))
		for i, name := range schema {
			q.Select[i] = &parser.ColRef{Name: name}
		}
	}
	for i, agg := range q.Aggregate {
		// COUNT(*) counts rows; the input value is irrelevant
		if ref, ok := agg.Expr.(*parser.ColRef); ok && ref.Name == "*" {
			q.Aggregate[i].Expr = &parser.IntLit{Value: 1}
		}
	}

	if len(batches) == 0 {
		return &Result{Columns: q.ResultColumnNames()}, nil
	}
	for name := range q.FindReferencedCols() {
		if _, ok := batches[0][name]; !ok {
			return nil, fmt.Errorf("%w: %q", engine.ErrUnknownColumn, name)
		}
	}

	results, err := db.runner.RunQuery(q, batches)
	if err != nil {
		return nil, err
	}
	return &Result{Columns: q.ResultColumnNames(), Batches: results}, nil
}
