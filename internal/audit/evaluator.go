package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nao1215/a11yscan/internal/browser"
	"github.com/nao1215/a11yscan/internal/model"
)

// engineCheckExpression verifies the engine is installed.
const engineCheckExpression = `typeof window.axe === "object" && typeof window.axe.run === "function"`

// engineVersionExpression reads the version of an engine already on the page.
const engineVersionExpression = `(window.axe && typeof axe.version === "string") ? axe.version : ""`

// Evaluator audits pages with the axe engine.
type Evaluator struct {
	loader browser.Loader
	script string
	tags   []string
	logger *slog.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithTags restricts the audit to rules carrying one of the tags,
// e.g. "wcag2a", "wcag2aa" or "best-practice".
func WithTags(tags ...string) Option {
	return func(e *Evaluator) {
		for _, t := range tags {
			if t = strings.TrimSpace(t); t != "" {
				e.tags = append(e.tags, t)
			}
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEvaluator creates an Evaluator that loads pages with loader and injects
// script, the engine source returned by LoadScript.
func NewEvaluator(loader browser.Loader, script string, opts ...Option) *Evaluator {
	e := &Evaluator{
		loader: loader,
		script: script,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EvaluateURL audits url in a fresh isolated page. The page is released on
// every return path. Load failures are returned as *browser.NavigationError.
func (e *Evaluator) EvaluateURL(ctx context.Context, url string) ([]model.Violation, error) {
	page, err := e.loader.Load(ctx, url)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			e.logger.Debug("failed to close page", "url", url, "error", cerr)
		}
	}()
	return e.EvaluatePage(ctx, page)
}

// EvaluatePage audits a page that is already loaded. The caller keeps
// ownership of the page.
func (e *Evaluator) EvaluatePage(ctx context.Context, page browser.Page) ([]model.Violation, error) {
	url := page.URL()
	start := time.Now()
	e.logger.Info("evaluating page", "url", url)

	if err := e.inject(ctx, page); err != nil {
		return nil, &AuditExecutionError{URL: url, Stage: StageInject, Err: err}
	}

	expr, err := e.runExpression()
	if err != nil {
		return nil, &AuditExecutionError{URL: url, Stage: StageRun, Err: err}
	}
	raw, err := page.Evaluate(ctx, expr)
	if err != nil {
		return nil, &AuditExecutionError{URL: url, Stage: StageRun, Err: err}
	}

	violations, err := decodeViolations(raw)
	if err != nil {
		return nil, &AuditExecutionError{URL: url, Stage: StageDecode, Err: err}
	}

	e.logger.Info("page evaluated",
		"url", url,
		"violations", len(violations),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return violations, nil
}

// inject installs the configured engine build. A build the page bundles
// itself is replaced so that every page runs the same engine.
func (e *Evaluator) inject(ctx context.Context, page browser.Page) error {
	if strings.TrimSpace(e.script) == "" {
		return ErrEmptyScript
	}
	if version := e.bundledVersion(ctx, page); version != "" {
		e.logger.Debug("replacing axe build bundled by the page",
			"url", page.URL(),
			"version", version,
		)
	}
	if _, err := page.Evaluate(ctx, e.script+"\n;void 0;"); err != nil {
		return fmt.Errorf("failed to evaluate axe script: %w", err)
	}

	present, err := e.enginePresent(ctx, page)
	if err != nil {
		return err
	}
	if !present {
		return ErrEngineMissing
	}
	return nil
}

// bundledVersion returns the version of an engine the page already defines,
// or "" when there is none or it cannot be read.
func (e *Evaluator) bundledVersion(ctx context.Context, page browser.Page) string {
	raw, err := page.Evaluate(ctx, engineVersionExpression)
	if err != nil {
		return ""
	}
	var version string
	if err := json.Unmarshal(raw, &version); err != nil {
		return ""
	}
	return version
}

func (e *Evaluator) enginePresent(ctx context.Context, page browser.Page) (bool, error) {
	raw, err := page.Evaluate(ctx, engineCheckExpression)
	if err != nil {
		return false, err
	}
	var present bool
	if err := json.Unmarshal(raw, &present); err != nil {
		// null or a non-boolean means the check itself did not run cleanly.
		return false, nil //nolint:nilerr // Treated as "not installed".
	}
	return present, nil
}

// runOptions is the options object passed to axe.run.
type runOptions struct {
	ResultTypes []string        `json:"resultTypes"`
	RunOnly     *runOnlyOptions `json:"runOnly,omitempty"`
}

type runOnlyOptions struct {
	Type   string   `json:"type"`
	Values []string `json:"values"`
}

func (e *Evaluator) runExpression() (string, error) {
	opts := runOptions{ResultTypes: []string{"violations"}}
	if len(e.tags) > 0 {
		opts.RunOnly = &runOnlyOptions{Type: "tag", Values: e.tags}
	}
	data, err := json.Marshal(opts)
	if err != nil {
		return "", fmt.Errorf("failed to encode run options: %w", err)
	}
	return "axe.run(document, " + string(data) + ").then(function (r) { return { violations: r.violations }; })", nil
}
