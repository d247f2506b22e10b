package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nappgui/nrc/pkg/nrc/report"
	"github.com/nappgui/nrc/pkg/nrc/types"
	"github.com/spf13/cobra"
)

var errNoHistory = errors.New("compile history is disabled or unavailable")

func (a *app) newHistoryCmd() *cobra.Command {
	var (
		limit  int
		output string
		format string
	)

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "View compile history",
		Long: `View the history of compiles performed by nrc.

Every legacy -dc/-dp invocation and every watch rebuild is recorded with
its inputs, outcome and fingerprint.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			a.bracket(true, func() (types.ExitCode, error) {
				if a.history == nil {
					return types.WithErrors, errNoHistory
				}
				recs, err := a.history.Recent(limit, output)
				if err != nil {
					return types.WithErrors, fmt.Errorf("failed to list history: %w", err)
				}
				if err := report.WriteHistory(a.stdout, recs, format); err != nil {
					return types.WithErrors, err
				}
				return types.Success, nil
			})
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "l", 20, "maximum number of entries to show")
	historyCmd.Flags().StringVarP(&output, "output", "o", "", "only show compiles writing this file")
	historyCmd.Flags().StringVarP(&format, "format", "f", "plain", "output format (plain, json, yaml)")

	historyCmd.AddCommand(
		&cobra.Command{
			Use:   "show <id>",
			Short: "Show details of a specific compile",
			Args:  cobra.ExactArgs(1),
			Run: func(cmd *cobra.Command, args []string) {
				a.bracket(true, func() (types.ExitCode, error) {
					return a.runHistoryShow(args[0])
				})
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every history entry",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				a.bracket(true, func() (types.ExitCode, error) {
					if a.history == nil {
						return types.WithErrors, errNoHistory
					}
					if err := a.history.Clear(); err != nil {
						return types.WithErrors, fmt.Errorf("failed to clear history: %w", err)
					}
					fmt.Fprintln(a.stdout, "History cleared.")
					return types.Success, nil
				})
			},
		},
		&cobra.Command{
			Use:   "prune",
			Short: "Remove entries older than the retention period",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				a.bracket(true, func() (types.ExitCode, error) {
					if a.history == nil {
						return types.WithErrors, errNoHistory
					}
					n, err := a.history.Prune(a.cfg.State.RetentionDays)
					if err != nil {
						return types.WithErrors, fmt.Errorf("failed to prune history: %w", err)
					}
					fmt.Fprintf(a.stdout, "Removed %d entries older than %d days.\n", n, a.cfg.State.RetentionDays)
					return types.Success, nil
				})
			},
		},
	)
	return historyCmd
}

func (a *app) runHistoryShow(id string) (types.ExitCode, error) {
	if a.history == nil {
		return types.WithErrors, errNoHistory
	}
	rec, err := a.history.Get(id)
	if err != nil {
		return types.WithErrors, fmt.Errorf("failed to get entry: %w", err)
	}

	w := a.stdout
	fmt.Fprintln(w, "Compile Details")
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "ID:           %s\n", rec.ID)
	fmt.Fprintf(w, "Timestamp:    %s\n", rec.Time.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Source:       %s\n", rec.Src)
	fmt.Fprintf(w, "Output:       %s\n", rec.Dest)
	fmt.Fprintf(w, "Mode:         %s\n", rec.Mode)
	fmt.Fprintf(w, "Regenerated:  %t\n", rec.Regenerated)
	fmt.Fprintf(w, "Resources:    %d\n", rec.Entries)
	fmt.Fprintf(w, "Total Size:   %s\n", types.FormatSize(rec.Bytes))
	fmt.Fprintf(w, "Fingerprint:  %s\n", rec.Fingerprint)
	fmt.Fprintf(w, "Warnings:     %d\n", rec.Warnings)
	fmt.Fprintf(w, "Errors:       %d\n", rec.Errors)
	fmt.Fprintf(w, "Exit Code:    %d (%s)\n", rec.ExitCode, types.ExitCode(rec.ExitCode))
	fmt.Fprintf(w, "Elapsed:      %s\n", rec.Elapsed)
	return types.Success, nil
}
