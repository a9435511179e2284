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
package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prismdb/prism-go/internal/storage"
)

func openPeopleDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(2)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.CreateTable("people"))
	require.NoError(t, db.InsertBatch("people", []ColumnData{
		StringColumn("name", []string{"ada", "bob", "cyd", "dan"}),
		IntColumn("age", []int64{10, 20, 30, 40}),
	}))
	return db
}

func rowInts(rows [][]storage.Value, col int) []int64 {
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = r[col].Int
	}
	return out
}

func rowStrs(rows [][]storage.Value, col int) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r[col].Str
	}
	return out
}

func TestQueryFilter(t *testing.T) {
	db := openPeopleDB(t)

	res, err := db.Query("SELECT age FROM people WHERE age > 15")
	require.NoError(t, err)
	assert.Equal(t, []string{"age"}, res.Columns)
	rows := res.Rows()
	assert.Equal(t, []int64{20, 30, 40}, rowInts(rows, 0))
}

func TestQuerySelectStar(t *testing.T) {
	db := openPeopleDB(t)

	res, err := db.Query("SELECT * FROM people WHERE age >= 30")
	require.NoError(t, err)
	// star expands in insertion column order
	assert.Equal(t, []string{"name", "age"}, res.Columns)
	rows := res.Rows()
	assert.Equal(t, []string{"cyd", "dan"}, rowStrs(rows, 0))
	assert.Equal(t, []int64{30, 40}, rowInts(rows, 1))
}

func TestQueryOrderByLimit(t *testing.T) {
	db := openPeopleDB(t)

	res, err := db.Query("SELECT age FROM people ORDER BY age DESC LIMIT 2")
	require.NoError(t, err)
	assert.Equal(t, []int64{40, 30}, rowInts(res.Rows(), 0))
}

func TestQueryGroupedAggregate(t *testing.T) {
	db, err := Open(1)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.CreateTable("sales"))
	require.NoError(t, db.InsertBatch("sales", []ColumnData{
		StringColumn("region", []string{"x", "y", "x"}),
		IntColumn("v", []int64{1, 2, 3}),
	}))

	res, err := db.Query("SELECT region, SUM(v) FROM sales")
	require.NoError(t, err)
	assert.Equal(t, []string{"region", "sum_0"}, res.Columns)
	rows := res.Rows()
	assert.Equal(t, []string{"x", "y"}, rowStrs(rows, 0))
	assert.Equal(t, []int64{4, 2}, rowInts(rows, 1))
}

func TestQueryCountStar(t *testing.T) {
	db := openPeopleDB(t)

	res, err := db.Query("SELECT COUNT(*) FROM people WHERE age > 10")
	require.NoError(t, err)
	assert.Equal(t, []string{"count_0"}, res.Columns)
	rows := res.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, int64(3), rows[0][0].Int)
}

func TestQueryMultipleBatches(t *testing.T) {
	db := openPeopleDB(t)
	require.NoError(t, db.InsertBatch("people", []ColumnData{
		StringColumn("name", []string{"eve"}),
		IntColumn("age", []int64{50}),
	}))

	n, err := db.TableRows("people")
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	res, err := db.Query("SELECT age FROM people WHERE age >= 40")
	require.NoError(t, err)
	// batch order, each batch filtered independently
	assert.Equal(t, []int64{40, 50}, rowInts(res.Rows(), 0))
}

func TestInsertBatchValidation(t *testing.T) {
	db := openPeopleDB(t)

	err := db.InsertBatch("people", []ColumnData{
		StringColumn("name", []string{"eve"}),
		IntColumn("age", []int64{50, 60}),
	})
	assert.Error(t, err)

	err = db.InsertBatch("people", []ColumnData{
		StringColumn("name", []string{"eve"}),
		IntColumn("salary", []int64{50}),
	})
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	err = db.InsertBatch("nowhere", []ColumnData{IntColumn("v", []int64{1})})
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestCreateTableTwice(t *testing.T) {
	db := openPeopleDB(t)
	assert.ErrorIs(t, db.CreateTable("people"), ErrTableExists)
	assert.Contains(t, db.Tables(), "people")
}

func TestQueryUnknownTableAndColumn(t *testing.T) {
	db := openPeopleDB(t)

	_, err := db.Query("SELECT a FROM ghosts")
	assert.ErrorIs(t, err, ErrTableNotFound)

	_, err = db.Query("SELECT salary FROM people")
	assert.Error(t, err)
}

func TestQueryEmptyTable(t *testing.T) {
	db, err := Open(1)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.CreateTable("empty"))

	res, err := db.Query("SELECT a FROM empty")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, res.Columns)
	assert.Empty(t, res.Rows())
}
