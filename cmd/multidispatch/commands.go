package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/funvibe/multimethod/internal/tables"
)

var checkCmd = &cobra.Command{
	Use:   "check [table]",
	Short: "Resolve every call in a table and compare with its expectation",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		set, _, err := loadSet(args)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		color := colorEnabled(out)

		results := set.Check()
		for _, r := range results {
			status := paint(color, ansiGreen, "PASS")
			if !r.Pass {
				status = paint(color, ansiRed, "FAIL")
			}
			fmt.Fprintf(out, "%s  %s -> %s", status, r.Subject, r.Got)
			if !r.Pass {
				fmt.Fprintf(out, " (want %s)", r.Want)
				if r.Err != nil {
					fmt.Fprintf(out, "\n      %v", r.Err)
				}
			}
			fmt.Fprintln(out)
		}

		failed := tables.Failed(results)
		fmt.Fprintf(out, "\n%d passed, %d failed\n", len(results)-failed, failed)
		if failed > 0 {
			return fmt.Errorf("%d of %d checks failed", failed, len(results))
		}
		return nil
	},
}

var graphCmd = &cobra.Command{
	Use:   "graph [table]",
	Short: "Print each graph's signatures with their immediate parents",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		set, table, err := loadSet(args)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for i, name := range table.Graphs() {
			m, ok := set.Graph(name)
			if !ok {
				continue
			}
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "%s  id=%s  signatures=%d pending=%d\n", m.Name, m.ID, m.Len(), m.Pending())
			for _, sig := range m.Signatures() {
				parents := sig.Parents()
				if len(parents) == 0 {
					fmt.Fprintf(out, "  %s\n", sig)
					continue
				}
				names := make([]string, len(parents))
				for j, p := range parents {
					names[j] = p.String()
				}
				fmt.Fprintf(out, "  %s <- %s\n", sig, strings.Join(names, ", "))
			}
		}
		return nil
	},
}

var (
	benchWorkers    int
	benchIterations int
)

var benchCmd = &cobra.Command{
	Use:   "bench [table]",
	Short: "Resolve a table's calls concurrently and report throughput",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if benchWorkers < 1 || benchIterations < 1 {
			return fmt.Errorf("--workers and --iterations must be positive")
		}
		set, _, err := loadSet(args)
		if err != nil {
			return err
		}
		res, err := set.Bench(cmd.Context(), benchWorkers, benchIterations)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s resolutions in %s with %d workers\n",
			humanize.Comma(res.Calls), res.Elapsed.Round(time.Microsecond), benchWorkers)
		fmt.Fprintf(out, "%s resolutions/sec, %s failed\n",
			humanize.CommafWithDigits(res.PerSecond(), 0), humanize.Comma(res.Failures))
		return nil
	},
}
