package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nao1215/a11yscan/internal/audit"
	"github.com/nao1215/a11yscan/internal/browser"
	"github.com/nao1215/a11yscan/internal/config"
	"github.com/nao1215/a11yscan/internal/crawler"
	"github.com/nao1215/a11yscan/internal/database"
	applog "github.com/nao1215/a11yscan/internal/log"
	"github.com/nao1215/a11yscan/internal/model"
	"github.com/nao1215/a11yscan/internal/pipeline"
	"github.com/nao1215/a11yscan/internal/report"
	"github.com/spf13/cobra"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <url>",
		Short: "Audit a page and the same-origin pages it links to",
		Long: `Scan loads the given page in headless Chrome, injects axe-core and records
every accessibility violation. It then collects the links on the page that
stay on the same origin and audits each of them the same way.

The report is written to <output-dir>/<sanitized-url>/accessibility-evaluation-report.md
and the run is recorded in the history database.

Examples:
  # Audit a site
  a11yscan scan https://example.com/

  # Audit only the linked pages, keep going when one of them fails
  a11yscan scan --no-root --on-error skip https://example.com/

  # Restrict the audit to WCAG 2.0 A and AA rules
  a11yscan scan --tags wcag2a,wcag2aa https://example.com/

  # Use a local axe-core build and also write a JSON report
  a11yscan scan --axe-source ./axe.min.js --json https://example.com/

Configuration file (.a11yscan) example:
  sites:
    example.com:
      cookie: "session_id=abc123"
      ignore_patterns:
        - "/logout"`,
		Args: cobra.ExactArgs(1),
		RunE: runScanCmd,
	}

	// Audit behavior flags
	cmd.Flags().Bool("no-root", false,
		"Audit only the pages linked from the root, not the root page itself")
	cmd.Flags().String("on-error", config.DefaultOnError,
		"What to do when a page fails: abort or skip")
	cmd.Flags().StringSlice("tags", nil,
		"Only run axe rules with one of these tags (e.g. wcag2a,wcag2aa)")
	cmd.Flags().Bool("exclude-self", false,
		"Drop links that point back to the root page")
	cmd.Flags().String("axe-source", config.DefaultAxeSource,
		"URL or file path of the axe-core script")

	// Browser flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for loading each page")
	cmd.Flags().Duration("idle-time", config.DefaultIdleTime,
		"How long the network must stay quiet before a page counts as loaded")
	cmd.Flags().String("chrome-path", "",
		"Path to the Chrome executable (default: auto-detect)")
	cmd.Flags().String("user-agent", "",
		"Override the browser User-Agent")
	cmd.Flags().Bool("headful", false,
		"Show the browser window instead of running headless")
	cmd.Flags().String("browser-url", "",
		"DevTools websocket URL of a running Chrome to use instead of starting one")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .a11yscan in current or home directory)")

	// Output flags
	cmd.Flags().StringP("output-dir", "o", config.DefaultOutputDir,
		"Directory under which the report directory is created")
	cmd.Flags().BoolP("json", "j", false,
		"Also write the report as JSON")
	cmd.Flags().Bool("no-save", false,
		"Do not record the run in the history database")
	cmd.Flags().Bool("log-json", false,
		"Write log output as JSON")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newScanLogger(cmd.ErrOrStderr(), cfg)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runScan(ctx, cfg, logger, cmd.OutOrStdout(), launchChrome)
}

// newScanLogger returns the secure logger in the configured format.
func newScanLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	if cfg.LogJSON {
		return applog.NewSecureJSONLogger(w, cfg.Verbose)
	}
	return applog.NewSecureLogger(w, cfg.Verbose)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags and the
// configuration file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	if len(args) > 0 {
		cfg.RootURL = strings.TrimSpace(args[0])
	}

	noRoot, err := flags.GetBool("no-root")
	if err != nil {
		return nil, err
	}
	cfg.IncludeRoot = !noRoot

	if cfg.OnError, err = flags.GetString("on-error"); err != nil {
		return nil, err
	}
	if cfg.Tags, err = flags.GetStringSlice("tags"); err != nil {
		return nil, err
	}
	if cfg.ExcludeSelf, err = flags.GetBool("exclude-self"); err != nil {
		return nil, err
	}
	if cfg.AxeSource, err = flags.GetString("axe-source"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.IdleTime, err = flags.GetDuration("idle-time"); err != nil {
		return nil, err
	}
	if cfg.ChromePath, err = flags.GetString("chrome-path"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.Headful, err = flags.GetBool("headful"); err != nil {
		return nil, err
	}
	if cfg.BrowserURL, err = flags.GetString("browser-url"); err != nil {
		return nil, err
	}
	if cfg.OutputDir, err = flags.GetString("output-dir"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	noSave, err := flags.GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave
	if cfg.LogJSON, err = flags.GetBool("log-json"); err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}

	// An explicitly given config file must exist. Without one, a missing
	// file simply means no site settings.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	default:
		cfg.SiteConfigs = &config.File{Sites: make(map[string]config.SiteConfig)}
	}

	cfg.ApplySite(cfg.SiteConfigs.GetSiteConfig(cfg.RootURL), flags.Changed)

	return cfg, nil
}

// launcher starts the page loader of a run and returns its release function.
type launcher func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (browser.Loader, func() error, error)

// launchChrome starts a headless Chrome configured from cfg.
func launchChrome(ctx context.Context, cfg *config.Config, logger *slog.Logger) (browser.Loader, func() error, error) {
	chrome, err := browser.NewChrome(ctx,
		browser.WithExecPath(cfg.ChromePath),
		browser.WithRemoteURL(cfg.BrowserURL),
		browser.WithHeadless(!cfg.Headful),
		browser.WithUserAgent(cfg.UserAgent),
		// Chrome refuses to start sandboxed as root, e.g. inside containers.
		browser.WithNoSandbox(os.Geteuid() == 0),
		browser.WithNavigationTimeout(cfg.Timeout),
		browser.WithIdleTime(cfg.IdleTime),
		browser.WithHeaders(cfg.Headers),
		browser.WithCookie(cfg.Cookie),
		browser.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start browser: %w", err)
	}
	return chrome, chrome.Close, nil
}

// runScan audits cfg.RootURL and writes the reports.
func runScan(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer, launch launcher) error {
	policy, err := pipeline.ParseFailurePolicy(cfg.OnError)
	if err != nil {
		return err
	}

	logger.Info("starting scan",
		"root", cfg.RootURL,
		"includeRoot", cfg.IncludeRoot,
		"onError", policy.String(),
		"tags", cfg.Tags,
		"cookie", cfg.Cookie,
		"headers", cfg.Headers,
		"saveToDB", cfg.SaveToDB,
	)

	script, err := audit.LoadScript(ctx, cfg.AxeSource)
	if err != nil {
		return err
	}

	loader, release, err := launch(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := release(); err != nil {
			logger.Error("failed to stop browser", "error", err)
		}
	}()

	evaluator := audit.NewEvaluator(loader, script,
		audit.WithTags(cfg.Tags...),
		audit.WithLogger(logger),
	)
	normalizer := crawler.NewNormalizer(
		crawler.WithIgnorePatterns(cfg.IgnorePatterns...),
		crawler.WithFollowPatterns(cfg.FollowPatterns...),
		crawler.WithExcludeSelf(cfg.ExcludeSelf),
	)
	collector := crawler.NewCollector(normalizer, crawler.WithCollectorLogger(logger))
	orchestrator := pipeline.NewOrchestrator(loader, evaluator, collector,
		pipeline.WithIncludeRoot(cfg.IncludeRoot),
		pipeline.WithFailurePolicy(policy),
		pipeline.WithOrchestratorLogger(logger),
	)

	fmt.Fprintf(out, "Auditing %s...\n", cfg.RootURL)
	startTime := time.Now()

	result, err := orchestrator.Crawl(ctx, cfg.RootURL)
	if err != nil {
		return fmt.Errorf("audit of %s failed: %w", cfg.RootURL, err)
	}
	fmt.Fprintf(out, "Audit completed in %s\n\n", time.Since(startTime).Round(time.Millisecond))

	if err := writeReports(cfg, result, out); err != nil {
		return err
	}

	if _, err := report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose)).Write(result); err != nil {
		return fmt.Errorf("failed to print summary: %w", err)
	}

	if cfg.SaveToDB {
		if err := saveRun(ctx, cfg.DBDir, result, logger); err != nil {
			logger.Error("failed to record run in history", "error", err)
		}
	}
	return nil
}

// writeReports writes the markdown report and, when enabled, the JSON report.
func writeReports(cfg *config.Config, result *model.CrawlReport, out io.Writer) error {
	path, err := report.WriteFile(cfg.OutputDir, report.MarkdownFileName, result, report.MarkdownFactory)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Report written to %s\n", path)

	if cfg.JSONReport {
		path, err := report.WriteFile(cfg.OutputDir, report.JSONFileName, result,
			report.JSONFactory(report.WithPrettyPrint(), report.WithVersion(getVersion())))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "JSON report written to %s\n", path)
	}
	fmt.Fprintln(out)
	return nil
}

// saveRun records result in the history database under dbDir.
func saveRun(ctx context.Context, dbDir string, result *model.CrawlReport, logger *slog.Logger) error {
	if dbDir == "" {
		return errors.New("history database directory is not set")
	}
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if _, err := db.SaveRun(ctx, result); err != nil {
		return err
	}
	logger.Info("run recorded in history", "runID", result.RunID, "db", db.Path())
	return nil
}
