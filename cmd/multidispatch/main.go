package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/funvibe/multimethod/internal/config"
	"github.com/funvibe/multimethod/internal/tables"
)

var (
	rootCmd = &cobra.Command{
		Use:           "multidispatch",
		Short:         "Check, inspect and benchmark multiple-dispatch tables",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	verbose bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log registrations and resolutions at debug level")

	benchCmd.Flags().IntVarP(&benchWorkers, "workers", "w", 4, "Number of concurrent workers")
	benchCmd.Flags().IntVarP(&benchIterations, "iterations", "n", 1000, "Passes over the table's calls per worker")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(benchCmd)
}

// loadSet reads the table named by args, or the nearest dispatch table
// above the working directory, and builds its graphs.
func loadSet(args []string) (*tables.Set, *config.Table, error) {
	path := ""
	if len(args) > 0 {
		path = args[0]
	} else {
		found, err := config.FindTable(".")
		if err != nil {
			return nil, nil, err
		}
		if found == "" {
			return nil, nil, fmt.Errorf("no %s found in this directory or its parents", config.TableFileName)
		}
		path = found
	}

	table, err := config.LoadTable(path)
	if err != nil {
		return nil, nil, err
	}
	set, err := tables.Build(table, newLogger(table.Settings.LogLevel))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, table, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if verbose {
		lvl = slog.LevelDebug
	} else if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// colorEnabled reports whether w is a terminal that should get ANSI colours.
func colorEnabled(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
)

func paint(on bool, color, s string) string {
	if !on {
		return s
	}
	return color + s + ansiReset
}
