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
	"github.com/nao1215/a11yscan/internal/report"
	"github.com/spf13/cobra"
)

// NewCompareCmd creates the compare command.
// This command compares two recorded runs of the same site.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <url>",
		Short: "Compare two recorded audit runs of a site",
		Long: `Compare shows the violations that appeared and disappeared between two
recorded runs of the same site.

By default the two latest runs are compared. Use --from to compare an older
run with the latest one, or --from and --to to pick both runs. Run IDs are
listed by 'a11yscan history'.

Pages that failed to evaluate in either run are listed separately and their
violations are not compared.

Examples:
  # Compare the latest two runs
  a11yscan compare https://example.com/

  # Compare a specific run with the latest one
  a11yscan compare --from 0b0e6a8c-... https://example.com/

  # Output the comparison as JSON
  a11yscan compare --json https://example.com/`,
		Args: cobra.ExactArgs(1),
		RunE: runCompareCmd,
	}

	cmd.Flags().String("from", "", "Run ID of the older run")
	cmd.Flags().String("to", "", "Run ID of the newer run (requires --from)")
	cmd.Flags().BoolP("json", "j", false, "Output comparison result in JSON format")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	rootURL := strings.TrimSpace(args[0])

	fromID, err := cmd.Flags().GetString("from")
	if err != nil {
		return err
	}
	toID, err := cmd.Flags().GetString("to")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	// Validate flags before opening the database.
	if toID != "" && fromID == "" {
		return errors.New("--to requires --from")
	}

	db, err := openHistory(config.XDGDataDir())
	if errors.Is(err, database.ErrDatabaseNotFound) {
		return fmt.Errorf("no audit history found for %s", rootURL)
	}
	if err != nil {
		return err
	}
	defer db.Close()

	return runComparison(cmd.Context(), cmd.OutOrStdout(), db, rootURL, fromID, toID, jsonOutput)
}

// runComparison selects the two runs, compares them and prints the result.
func runComparison(ctx context.Context, out io.Writer, db *database.AuditDB, rootURL, fromID, toID string, jsonOutput bool) error {
	older, newer, err := selectRuns(ctx, db, rootURL, fromID, toID)
	if err != nil {
		return err
	}

	diff := model.CompareReports(older, newer)

	if jsonOutput {
		_, err = report.NewJSONWriter(out, report.WithPrettyPrint()).WriteDiff(diff)
	} else {
		_, err = report.NewDiffWriter(out).WriteDiff(older, newer, diff)
	}
	if err != nil {
		return fmt.Errorf("failed to write comparison: %w", err)
	}
	return nil
}

// selectRuns returns the older and the newer run to compare.
func selectRuns(ctx context.Context, db *database.AuditDB, rootURL, fromID, toID string) (*model.CrawlReport, *model.CrawlReport, error) {
	if fromID == "" {
		runs, err := db.LatestRuns(ctx, rootURL, 2)
		if err != nil {
			return nil, nil, err
		}
		if len(runs) == 0 {
			return nil, nil, fmt.Errorf("no audit history found for %s", rootURL)
		}
		if len(runs) < 2 {
			return nil, nil, fmt.Errorf("at least 2 runs are required for comparison (found %d)", len(runs))
		}
		return runs[1], runs[0], nil
	}

	older, err := getSiteRun(ctx, db, rootURL, fromID)
	if err != nil {
		return nil, nil, err
	}

	var newer *model.CrawlReport
	if toID != "" {
		newer, err = getSiteRun(ctx, db, rootURL, toID)
		if err != nil {
			return nil, nil, err
		}
	} else {
		runs, err := db.LatestRuns(ctx, rootURL, 1)
		if err != nil {
			return nil, nil, err
		}
		if len(runs) == 0 {
			return nil, nil, fmt.Errorf("no audit history found for %s", rootURL)
		}
		newer = runs[0]
	}

	if older.RunID == newer.RunID {
		return nil, nil, fmt.Errorf("cannot compare run %s with itself", older.RunID)
	}
	return older, newer, nil
}

// getSiteRun loads a run and checks that it belongs to rootURL.
func getSiteRun(ctx context.Context, db *database.AuditDB, rootURL, runID string) (*model.CrawlReport, error) {
	run, err := db.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.RootURL != rootURL {
		return nil, fmt.Errorf("run %s belongs to %s, not %s", runID, run.RootURL, rootURL)
	}
	return run, nil
}
