package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/a11yscan/internal/browser"
	"github.com/nao1215/a11yscan/internal/model"
)

// LoadRootStep opens the root page.
//
// A root load failure always aborts the run, whatever the failure policy:
// without the root page there are no links to follow.
type LoadRootStep struct {
	loader browser.Loader
}

// NewLoadRootStep creates a LoadRootStep.
func NewLoadRootStep(loader browser.Loader) *LoadRootStep {
	return &LoadRootStep{loader: loader}
}

// Name returns the step name.
func (s *LoadRootStep) Name() string {
	return "load_root"
}

// Do loads run.RootURL and keeps the page on the run.
func (s *LoadRootStep) Do(ctx context.Context, run *Run) error {
	page, err := s.loader.Load(ctx, run.RootURL)
	if err != nil {
		return fmt.Errorf("failed to load root page: %w", err)
	}
	run.rootPage = page
	return run.Advance(StateRootLoaded)
}

// EvaluateRootStep audits the already loaded root page.
type EvaluateRootStep struct {
	evaluator PageEvaluator
	policy    FailurePolicy
	logger    *slog.Logger
}

// NewEvaluateRootStep creates an EvaluateRootStep.
func NewEvaluateRootStep(evaluator PageEvaluator, policy FailurePolicy, logger *slog.Logger) *EvaluateRootStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &EvaluateRootStep{evaluator: evaluator, policy: policy, logger: logger}
}

// Name returns the step name.
func (s *EvaluateRootStep) Name() string {
	return "evaluate_root"
}

// Do audits the root page and records it as the first page of the report.
func (s *EvaluateRootStep) Do(ctx context.Context, run *Run) error {
	page := run.RootPage()
	if page == nil {
		return ErrRootNotLoaded
	}

	violations, err := s.evaluator.EvaluatePage(ctx, page)
	result := model.NewPageResult(run.RootURL, violations)
	if err != nil {
		if !s.policy.tolerates(ctx, err) {
			return err
		}
		s.logger.Warn("root page evaluation failed; continuing",
			"url", run.RootURL,
			"error", err,
		)
		result = model.NewFailedPageResult(run.RootURL, err)
	}

	if err := run.Report.AddPage(result); err != nil {
		return err
	}
	run.Report.RootEvaluated = true
	run.markVisited(run.RootURL, page.URL())
	return run.Advance(StateRootEvaluated)
}

// CollectLinksStep gathers the root page's same-origin links and then
// releases the root page.
type CollectLinksStep struct {
	collector LinkCollector
	logger    *slog.Logger
}

// NewCollectLinksStep creates a CollectLinksStep.
func NewCollectLinksStep(collector LinkCollector, logger *slog.Logger) *CollectLinksStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &CollectLinksStep{collector: collector, logger: logger}
}

// Name returns the step name.
func (s *CollectLinksStep) Name() string {
	return "collect_links"
}

// Do collects links from the root page. The root page is released whether
// or not collection succeeds.
func (s *CollectLinksStep) Do(ctx context.Context, run *Run) error {
	page := run.RootPage()
	if page == nil {
		return ErrRootNotLoaded
	}
	defer run.releaseRoot(s.logger)

	links, err := s.collector.Collect(ctx, page)
	if err != nil {
		return fmt.Errorf("failed to collect links: %w", err)
	}
	if links == nil {
		links = model.NewLinkSet()
	}
	run.Links = links
	if err := run.Report.MarkLinks(links.Len()); err != nil {
		return err
	}
	return run.Advance(StateLinksCollected)
}

// EvaluateLinksStep audits every collected link in order, one at a time.
type EvaluateLinksStep struct {
	evaluator PageEvaluator
	policy    FailurePolicy
	logger    *slog.Logger
}

// NewEvaluateLinksStep creates an EvaluateLinksStep.
func NewEvaluateLinksStep(evaluator PageEvaluator, policy FailurePolicy, logger *slog.Logger) *EvaluateLinksStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &EvaluateLinksStep{evaluator: evaluator, policy: policy, logger: logger}
}

// Name returns the step name.
func (s *EvaluateLinksStep) Name() string {
	return "evaluate_links"
}

// Do evaluates run.Links. A link that already has a result, such as the
// root page linking to itself, is not evaluated twice.
func (s *EvaluateLinksStep) Do(ctx context.Context, run *Run) error {
	urls := run.Links.URLs()
	total := len(urls)

	for i, u := range urls {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := run.Advance(StateEvaluating); err != nil {
			return err
		}
		run.Index = i

		if run.wasVisited(u) || run.Report.HasPage(u) {
			s.logger.Debug("skipping already evaluated page", "url", u)
			continue
		}

		s.logger.Info("evaluating link",
			"url", u,
			"progress", fmt.Sprintf("%d/%d", i+1, total),
		)

		violations, err := s.evaluator.EvaluateURL(ctx, u)
		result := model.NewPageResult(u, violations)
		if err != nil {
			if !s.policy.tolerates(ctx, err) {
				return fmt.Errorf("failed to evaluate %s: %w", u, err)
			}
			s.logger.Warn("page evaluation failed; continuing",
				"url", u,
				"error", err,
			)
			result = model.NewFailedPageResult(u, err)
		}

		if err := run.Report.AddPage(result); err != nil {
			return err
		}
		run.markVisited(u)
	}
	return nil
}

// FinalizeStep seals the report.
type FinalizeStep struct{}

// NewFinalizeStep creates a FinalizeStep.
func NewFinalizeStep() *FinalizeStep {
	return &FinalizeStep{}
}

// Name returns the step name.
func (s *FinalizeStep) Name() string {
	return "finalize"
}

// Do finalizes the report.
func (s *FinalizeStep) Do(_ context.Context, run *Run) error {
	if err := run.Report.Finalize(); err != nil {
		return err
	}
	return run.Advance(StateFinalized)
}
