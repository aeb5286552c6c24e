package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, run *Run) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, run *Run) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, run)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestPipelineNew tests the Pipeline constructor.
func TestPipelineNew(t *testing.T) {
	t.Parallel()

	t.Run("creates pipeline with default settings", func(t *testing.T) {
		t.Parallel()

		p := New()
		if p.StepCount() != 0 {
			t.Errorf("expected 0 steps, got %d", p.StepCount())
		}
		if p.logger == nil {
			t.Error("expected default logger")
		}
	})

	t.Run("nil logger keeps the default", func(t *testing.T) {
		t.Parallel()

		p := New(WithLogger(nil))
		if p.logger == nil {
			t.Error("expected default logger")
		}
	})
}

// TestPipelineAddStep tests adding steps to the pipeline.
func TestPipelineAddStep(t *testing.T) {
	t.Parallel()

	p := New()
	p.AddStep(&mockStep{name: "first"})
	p.AddSteps(&mockStep{name: "second"}, &mockStep{name: "third"})

	if p.StepCount() != 3 {
		t.Errorf("expected 3 steps, got %d", p.StepCount())
	}
	if diff := cmp.Diff([]string{"first", "second", "third"}, p.StepNames()); diff != "" {
		t.Errorf("step names mismatch (-want +got):\n%s", diff)
	}
}

// TestPipelineExecute tests sequential execution.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("runs steps in order", func(t *testing.T) {
		t.Parallel()

		var order []string
		record := func(name string) *mockStep {
			return &mockStep{name: name, doFunc: func(context.Context, *Run) error {
				order = append(order, name)
				return nil
			}}
		}

		p := New(WithLogger(discardLogger()))
		p.AddSteps(record("a"), record("b"), record("c"))

		run := NewRun("https://example.com/")
		if err := p.Execute(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff([]string{"a", "b", "c"}, order); diff != "" {
			t.Errorf("order mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]string{"a", "b", "c"}, run.Steps); diff != "" {
			t.Errorf("performed steps mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("stops on first error and fails the run", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		first := &mockStep{name: "first", doFunc: func(context.Context, *Run) error { return boom }}
		second := &mockStep{name: "second"}

		p := New(WithLogger(discardLogger()))
		p.AddSteps(first, second)

		run := NewRun("https://example.com/")
		err := p.Execute(context.Background(), run)
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		if second.callCount != 0 {
			t.Error("second step should not run")
		}
		if run.State != StateFailed {
			t.Errorf("expected failed state, got %s", run.State)
		}
		if !errors.Is(run.Err, boom) {
			t.Errorf("expected run error boom, got %v", run.Err)
		}
	})

	t.Run("respects cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		step := &mockStep{name: "never"}
		p := New(WithLogger(discardLogger()))
		p.AddStep(step)

		run := NewRun("https://example.com/")
		if err := p.Execute(ctx, run); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if step.callCount != 0 {
			t.Error("step should not run after cancellation")
		}
		if run.State != StateFailed {
			t.Errorf("expected failed state, got %s", run.State)
		}
	})
}

func TestRunAdvance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		from    State
		to      State
		wantErr bool
	}{
		{name: "init to root loaded", from: StateInit, to: StateRootLoaded},
		{name: "root loaded to root evaluated", from: StateRootLoaded, to: StateRootEvaluated},
		{name: "root loaded skips evaluation", from: StateRootLoaded, to: StateLinksCollected},
		{name: "links collected to evaluating", from: StateLinksCollected, to: StateEvaluating},
		{name: "zero links finalize directly", from: StateLinksCollected, to: StateFinalized},
		{name: "evaluating next page", from: StateEvaluating, to: StateEvaluating},
		{name: "evaluating to finalized", from: StateEvaluating, to: StateFinalized},
		{name: "any live state may fail", from: StateEvaluating, to: StateFailed},
		{name: "init cannot evaluate", from: StateInit, to: StateEvaluating, wantErr: true},
		{name: "links before root", from: StateInit, to: StateLinksCollected, wantErr: true},
		{name: "no return to root", from: StateLinksCollected, to: StateRootEvaluated, wantErr: true},
		{name: "finalized is terminal", from: StateFinalized, to: StateFailed, wantErr: true},
		{name: "failed is terminal", from: StateFailed, to: StateFinalized, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			run := NewRun("https://example.com/")
			run.State = tt.from

			err := run.Advance(tt.to)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Fatalf("expected ErrInvalidTransition, got %v", err)
				}
				if run.State != tt.from {
					t.Errorf("state changed to %s on failed transition", run.State)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if run.State != tt.to {
				t.Errorf("expected %s, got %s", tt.to, run.State)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()

	want := map[State]string{
		StateInit:           "init",
		StateRootLoaded:     "root_loaded",
		StateRootEvaluated:  "root_evaluated",
		StateLinksCollected: "links_collected",
		StateEvaluating:     "evaluating",
		StateFinalized:      "finalized",
		StateFailed:         "failed",
		State(99):           "unknown",
	}
	for s, name := range want {
		if got := s.String(); got != name {
			t.Errorf("State(%d).String() = %q, want %q", int(s), got, name)
		}
	}
}

func TestParseFailurePolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    FailurePolicy
		wantErr bool
	}{
		{in: "", want: FailurePolicyAbort},
		{in: "abort", want: FailurePolicyAbort},
		{in: "skip", want: FailurePolicyIsolate},
		{in: " Isolate ", want: FailurePolicyIsolate},
		{in: "retry", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseFailurePolicy(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownFailurePolicy) {
					t.Fatalf("expected ErrUnknownFailurePolicy, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}
