package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nao1215/a11yscan/internal/browser"
	"github.com/nao1215/a11yscan/internal/model"
)

// PageEvaluator audits pages. audit.Evaluator implements it.
type PageEvaluator interface {
	// EvaluateURL audits url in a fresh page that it releases itself.
	EvaluateURL(ctx context.Context, url string) ([]model.Violation, error)
	// EvaluatePage audits a page owned by the caller.
	EvaluatePage(ctx context.Context, page browser.Page) ([]model.Violation, error)
}

// LinkCollector gathers same-origin links from a loaded page.
// crawler.Collector implements it.
type LinkCollector interface {
	Collect(ctx context.Context, page browser.Page) (*model.LinkSet, error)
}

// FailurePolicy decides what happens when a single page fails.
type FailurePolicy int

const (
	// FailurePolicyAbort stops the run on the first page failure.
	FailurePolicyAbort FailurePolicy = iota
	// FailurePolicyIsolate records the failure on the page and continues.
	FailurePolicyIsolate
)

// String returns the CLI spelling of the policy.
func (p FailurePolicy) String() string {
	switch p {
	case FailurePolicyAbort:
		return "abort"
	case FailurePolicyIsolate:
		return "skip"
	default:
		return "unknown"
	}
}

// ParseFailurePolicy parses "abort", or "skip" (alias "isolate").
// An empty string yields the default, FailurePolicyAbort.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "abort":
		return FailurePolicyAbort, nil
	case "skip", "isolate":
		return FailurePolicyIsolate, nil
	default:
		return FailurePolicyAbort, fmt.Errorf("%w: %q", ErrUnknownFailurePolicy, s)
	}
}

// tolerates reports whether err may be recorded on the page instead of
// aborting. Cancellation of the run is never tolerated.
func (p FailurePolicy) tolerates(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return p == FailurePolicyIsolate && isPageError(err)
}

// Orchestrator drives a whole audit run.
type Orchestrator struct {
	loader      browser.Loader
	evaluator   PageEvaluator
	collector   LinkCollector
	includeRoot bool
	policy      FailurePolicy
	logger      *slog.Logger
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithIncludeRoot controls whether the root page itself is audited.
// It defaults to true.
func WithIncludeRoot(include bool) OrchestratorOption {
	return func(o *Orchestrator) {
		o.includeRoot = include
	}
}

// WithFailurePolicy sets the page failure policy.
func WithFailurePolicy(policy FailurePolicy) OrchestratorOption {
	return func(o *Orchestrator) {
		o.policy = policy
	}
}

// WithOrchestratorLogger sets the logger used by the orchestrator, its
// pipeline and its steps.
func WithOrchestratorLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(loader browser.Loader, evaluator PageEvaluator, collector LinkCollector, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		loader:      loader,
		evaluator:   evaluator,
		collector:   collector,
		includeRoot: true,
		policy:      FailurePolicyAbort,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Steps returns the steps of one run in execution order.
func (o *Orchestrator) Steps() []Step {
	steps := []Step{NewLoadRootStep(o.loader)}
	if o.includeRoot {
		steps = append(steps, NewEvaluateRootStep(o.evaluator, o.policy, o.logger))
	}
	return append(steps,
		NewCollectLinksStep(o.collector, o.logger),
		NewEvaluateLinksStep(o.evaluator, o.policy, o.logger),
		NewFinalizeStep(),
	)
}

// Crawl audits rootURL and the same-origin pages it links to.
// On error no report is returned.
func (o *Orchestrator) Crawl(ctx context.Context, rootURL string) (*model.CrawlReport, error) {
	run := NewRun(rootURL)
	defer run.releaseRoot(o.logger)

	p := New(WithLogger(o.logger))
	p.AddSteps(o.Steps()...)

	o.logger.Info("starting audit",
		"root", rootURL,
		"run_id", run.Report.RunID,
		"include_root", o.includeRoot,
		"on_error", o.policy.String(),
	)

	if err := p.Execute(ctx, run); err != nil {
		return nil, err
	}

	o.logger.Info("audit finished",
		"root", rootURL,
		"pages", len(run.Report.Pages),
		"links", run.Report.LinksFound,
		"violations", run.Report.TotalViolations(),
	)
	return run.Report, nil
}
