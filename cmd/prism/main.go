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
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	prism "github.com/prismdb/prism-go/pkg"
)

var (
	loadSpecs []string
	execute   string
	batchRows int
	workers   int
	quiet     bool
)

var rootCmd = &cobra.Command{
	Use:   "prism",
	Short: "Prism columnar query CLI",
	Long: `Prism is an embedded analytical query engine over adaptively-encoded
columnar in-memory data. This CLI loads CSV files as tables and runs
queries against them interactively or one-shot.`,
	RunE: runRootCommand,
}

func init() {
	rootCmd.Flags().StringArrayVarP(&loadSpecs, "load", "t", nil, "Load a CSV file as a table, as name=path.csv (repeatable)")
	rootCmd.Flags().StringVarP(&execute, "execute", "e", "", "Execute a single query and exit")
	rootCmd.Flags().IntVarP(&batchRows, "batch-rows", "b", 0, "Split loaded tables into batches of this many rows (0 for one batch)")
	rootCmd.Flags().IntVarP(&workers, "workers", "w", 0, "Query parallelism across batches (0 for one per CPU)")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress load messages")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runRootCommand(cmd *cobra.Command, args []string) error {
	db, err := prism.Open(workers)
	if err != nil {
		return fmt.Errorf("error opening database: %v", err)
	}
	defer db.Close()

	for _, spec := range loadSpecs {
		name, path, ok := strings.Cut(spec, "=")
		if !ok {
			return fmt.Errorf("invalid --load %q: expected name=path.csv", spec)
		}
		rows, err := loadCSV(db, name, path, batchRows)
		if err != nil {
			return fmt.Errorf("error loading %s: %v", path, err)
		}
		if !quiet {
			fmt.Printf("Loaded table %s (%d rows) from %s\n", name, rows, path)
		}
	}

	if execute != "" {
		return executeQuery(db, execute)
	}

	cli, err := NewCLI(db)
	if err != nil {
		return fmt.Errorf("error initializing CLI: %v", err)
	}
	defer cli.Close()

	return cli.Run()
}

// loadCSV reads a CSV file with a header row into a table, splitting it
// into batches of batchRows rows. A column whose every value parses as an
// integer is loaded as an integer column; anything else loads as strings.
func loadCSV(db *prism.DB, tableName, path string, batchRows int) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, fmt.Errorf("file has no header row")
	}
	header := records[0]
	data := records[1:]

	if err := db.CreateTable(tableName); err != nil {
		return 0, err
	}
	if batchRows <= 0 {
		batchRows = len(data)
	}
	for start := 0; start < len(data); start += batchRows {
		end := start + batchRows
		if end > len(data) {
			end = len(data)
		}
		batch, err := buildBatch(header, data[start:end])
		if err != nil {
			return 0, err
		}
		if err := db.InsertBatch(tableName, batch); err != nil {
			return 0, err
		}
	}
	return len(data), nil
}

func buildBatch(header []string, rows [][]string) ([]prism.ColumnData, error) {
	batch := make([]prism.ColumnData, len(header))
	for col, name := range header {
		values := make([]string, len(rows))
		allInts := true
		ints := make([]int64, len(rows))
		for r, row := range rows {
			if col >= len(row) {
				return nil, fmt.Errorf("row %d has %d fields, header has %d", r+1, len(row), len(header))
			}
			values[r] = row[col]
			if allInts {
				n, err := strconv.ParseInt(strings.TrimSpace(row[col]), 10, 64)
				if err != nil {
					allInts = false
				} else {
					ints[r] = n
				}
			}
		}
		if allInts && len(rows) > 0 {
			batch[col] = prism.IntColumn(name, ints)
		} else {
			batch[col] = prism.StringColumn(name, values)
		}
	}
	return batch, nil
}
