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
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/jedib0t/go-pretty/v6/table"

	prism "github.com/prismdb/prism-go/pkg"
)

// CLI is the interactive query shell
type CLI struct {
	db       *prism.DB
	readline *readline.Instance
}

// NewCLI creates the shell with readline history and completion for the
// meta commands
func NewCLI(db *prism.DB) (*CLI, error) {
	completer := readline.NewPrefixCompleter(
		readline.PcItem("SELECT"),
		readline.PcItem("select"),
		readline.PcItem(".tables"),
		readline.PcItem(".help"),
		readline.PcItem(".exit"),
	)
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "prism> ",
		HistoryFile:     historyPath(),
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       ".exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize readline: %v", err)
	}
	return &CLI{db: db, readline: rl}, nil
}

// Close releases the readline instance
func (c *CLI) Close() {
	c.readline.Close()
}

// Run reads statements until .exit or EOF
func (c *CLI) Run() error {
	fmt.Println("Prism interactive shell. Type .help for help.")
	for {
		line, err := c.readline.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), ";"))
		if line == "" {
			continue
		}

		switch strings.ToLower(line) {
		case ".exit", ".quit", "exit", "quit":
			return nil
		case ".help", "help":
			c.printHelp()
			continue
		case ".tables":
			c.printTables()
			continue
		}

		start := time.Now()
		result, err := c.db.Query(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		renderResult(result, time.Since(start))
	}
}

func (c *CLI) printHelp() {
	fmt.Println(`Statements:
  SELECT expr [, expr]... FROM table
      [WHERE expr] [ORDER BY col [DESC]] [LIMIT n [OFFSET m]]
  Aggregates COUNT(expr) and SUM(expr) group by the remaining select list.

Meta commands:
  .tables   list loaded tables
  .help     this help
  .exit     leave the shell`)
}

func (c *CLI) printTables() {
	names := c.db.Tables()
	sort.Strings(names)
	if len(names) == 0 {
		fmt.Println("no tables loaded (use --load name=path.csv)")
		return
	}
	for _, name := range names {
		rows, _ := c.db.TableRows(name)
		fmt.Printf("%s (%d rows)\n", name, rows)
	}
}

func executeQuery(db *prism.DB, text string) error {
	start := time.Now()
	result, err := db.Query(text)
	if err != nil {
		return err
	}
	renderResult(result, time.Since(start))
	return nil
}

func renderResult(result *prism.Result, elapsed time.Duration) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(result.Columns))
	for i, name := range result.Columns {
		header[i] = name
	}
	t.AppendHeader(header)

	rows := result.Rows()
	for _, row := range rows {
		out := make(table.Row, len(row))
		for i, v := range row {
			out[i] = v.String()
		}
		t.AppendRow(out)
	}
	t.Render()
	fmt.Printf("%d row(s) in %v\n", len(rows), elapsed.Round(time.Microsecond))
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + "/.prism_history"
}
