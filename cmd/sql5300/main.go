// Command sql5300 is the REPL/CLI surface spec §6 describes: it opens a
// writable directory as a database environment and accepts SQL statements,
// `test`, and `quit` at a `SQL> ` prompt.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"sql5300/internal/exec"
	"sql5300/internal/server"
	"sql5300/internal/sqlparse"
)

func main() {
	root := &cobra.Command{
		Use:   "sql5300 <writable_dir>",
		Short: "a small page-oriented SQL engine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return repl(args[0])
		},
		SilenceUsage: true,
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(-1)
	}
}

func repl(dir string) error {
	env, err := server.Open(dir)
	if err != nil {
		return err
	}
	env.Logger().WithField("dir", env.Dir()).Debug("repl starting")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("SQL> ")
		if !scanner.Scan() {
			fmt.Println()
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch strings.ToLower(line) {
		case "quit":
			os.Exit(0)
		case "test":
			env.RunSelfTest(func(s string) { fmt.Println(s) })
			continue
		}

		stmt, err := sqlparse.Parse(line)
		if err != nil {
			fmt.Println("Error:", err)
			continue
		}
		res, err := env.Executor().Execute(stmt)
		if err != nil {
			fmt.Println("Error:", err)
			continue
		}
		printResult(res)
	}
}

func printResult(res *exec.QueryResult) {
	fmt.Println(res.Message)
	if len(res.Rows) == 0 || len(res.Columns) == 0 {
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(res.Columns)
	for _, row := range res.Rows {
		cells := make([]string, len(res.Columns))
		for i, col := range res.Columns {
			cells[i] = row[col].String()
		}
		table.Append(cells)
	}
	table.Render()
}
