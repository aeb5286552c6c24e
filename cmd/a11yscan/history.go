package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/a11yscan/internal/config"
	"github.com/nao1215/a11yscan/internal/database"
	"github.com/nao1215/a11yscan/internal/model"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit is the number of runs history lists by default.
const defaultHistoryLimit = 20

// noViolationsMessage is shown for runs without violations.
const noViolationsMessage = "No violations"

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [url]",
		Short: "List recorded audit runs",
		Long: `History lists the audit runs recorded in the history database, newest first.

Without an argument it lists the runs of every site. With a root URL it lists
only the runs started from that URL. The run IDs shown can be passed to
'a11yscan compare --from/--to'.

Examples:
  # List the latest runs of every site
  a11yscan history

  # List all runs of one site
  a11yscan history --limit 0 https://example.com/`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Maximum number of runs to list (0 for no limit)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	var rootURL string
	if len(args) > 0 {
		rootURL = strings.TrimSpace(args[0])
	}

	db, err := openHistory(config.XDGDataDir())
	if errors.Is(err, database.ErrDatabaseNotFound) {
		fmt.Fprintln(cmd.OutOrStdout(), "No audit history found.")
		return nil
	}
	if err != nil {
		return err
	}
	defer db.Close()

	return listHistory(cmd.Context(), cmd.OutOrStdout(), db, rootURL, limit)
}

// openHistory opens an existing history database without creating one.
func openHistory(dbDir string) (*database.AuditDB, error) {
	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// listHistory prints the runs of rootURL, or of every site when rootURL is
// empty.
func listHistory(ctx context.Context, out io.Writer, db *database.AuditDB, rootURL string, limit int) error {
	runs, err := db.ListRuns(ctx, rootURL, limit)
	if err != nil {
		return fmt.Errorf("failed to get audit history: %w", err)
	}

	if len(runs) == 0 {
		if rootURL != "" {
			fmt.Fprintf(out, "No audit history found for %s\n", rootURL)
		} else {
			fmt.Fprintln(out, "No audit history found.")
		}
		fmt.Fprintln(out, "\nUse 'a11yscan scan <url>' to audit a site.")
		return nil
	}

	if rootURL != "" {
		fmt.Fprintf(out, "Audit history for %s (%d runs):\n\n", rootURL, len(runs))
	} else {
		fmt.Fprintf(out, "Audit history (%d runs):\n\n", len(runs))
	}
	fmt.Fprintf(out, "  %-36s  %-19s  %-14s  %s\n", "Run ID", "Date", "Pages", "Violations")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 90))

	for _, run := range runs {
		fmt.Fprintf(out, "  %-36s  %-19s  %-14s  %s\n",
			run.RunID,
			run.Summary.StartedAt.Local().Format("2006-01-02 15:04:05"),
			formatPages(run.Summary),
			formatImpactSummary(run.Summary),
		)
		if rootURL == "" {
			fmt.Fprintf(out, "  %-36s  %s\n", "", run.Summary.RootURL)
		}
	}

	fmt.Fprintln(out, "\nUse 'a11yscan compare <url>' to compare the latest two runs of a site.")
	return nil
}

// formatPages formats the page counts of a run, e.g. "4 (1 failed)".
func formatPages(s model.Summary) string {
	if s.PagesFailed == 0 {
		return fmt.Sprintf("%d", s.PagesEvaluated)
	}
	return fmt.Sprintf("%d (%d failed)", s.PagesEvaluated, s.PagesFailed)
}

// formatImpactSummary formats the per-impact counts, e.g. "C:1 S:2".
func formatImpactSummary(s model.Summary) string {
	counts := []struct {
		label string
		n     int
	}{
		{"C", s.CriticalCount},
		{"S", s.SeriousCount},
		{"M", s.ModerateCount},
		{"m", s.MinorCount},
		{"?", s.OtherCount},
	}

	var parts []string
	for _, c := range counts {
		if c.n > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", c.label, c.n))
		}
	}
	if len(parts) == 0 {
		return noViolationsMessage
	}
	return strings.Join(parts, " ")
}
