package database

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/a11yscan/internal/model"
)

func setupTestDB(t *testing.T) *AuditDB {
	t.Helper()

	adb, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		if err := adb.Close(); err != nil {
			t.Errorf("failed to close database: %v", err)
		}
	})
	return adb
}

func testReport(t *testing.T, rootURL string, started time.Time, violations ...model.Violation) *model.CrawlReport {
	t.Helper()

	r := model.NewCrawlReport(rootURL)
	r.StartedAt = started
	if err := r.AddPage(model.NewPageResult(rootURL, violations)); err != nil {
		t.Fatalf("AddPage() error = %v", err)
	}
	if err := r.AddPage(model.NewFailedPageResult(rootURL+"broken", errors.New("timeout"))); err != nil {
		t.Fatalf("AddPage() error = %v", err)
	}
	if err := r.MarkLinks(1); err != nil {
		t.Fatalf("MarkLinks() error = %v", err)
	}
	if err := r.Finalize(); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	return r
}

func imageAlt() model.Violation {
	return model.Violation{
		ID:          "image-alt",
		Description: "Ensures <img> elements have alternate text",
		HelpURL:     "https://dequeuniversity.com/rules/axe/4.10/image-alt",
		Impact:      model.ImpactCritical,
		Nodes:       []model.ViolationNode{{HTML: `<img src="a.png">`, Target: []string{"img"}}},
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "nested", "data")
		adb, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer adb.Close()

		want := filepath.Join(dir, FileName)
		if adb.Path() != want {
			t.Errorf("Path() = %q, want %q", adb.Path(), want)
		}
		if _, err := os.Stat(want); err != nil {
			t.Errorf("database file not created: %v", err)
		}
	})

	t.Run("missing database without create", func(t *testing.T) {
		t.Parallel()

		_, err := Open(t.TempDir(), Options{CreateIfNotExists: false})
		if !errors.Is(err, ErrDatabaseNotFound) {
			t.Errorf("Open() error = %v, want ErrDatabaseNotFound", err)
		}
	})

	t.Run("reopens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		adb, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		if _, err := adb.SaveRun(t.Context(), testReport(t, "https://example.com/", time.Now())); err != nil {
			t.Fatalf("SaveRun() error = %v", err)
		}
		if err := adb.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}

		adb, err = Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer adb.Close()

		runs, err := adb.ListRuns(t.Context(), "", 0)
		if err != nil {
			t.Fatalf("ListRuns() error = %v", err)
		}
		if len(runs) != 1 {
			t.Errorf("ListRuns() returned %d runs, want 1", len(runs))
		}
	})
}

func TestSaveAndGetRun(t *testing.T) {
	t.Parallel()

	adb := setupTestDB(t)
	ctx := t.Context()

	report := testReport(t, "https://example.com/", time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), imageAlt())
	id, err := adb.SaveRun(ctx, report)
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if id <= 0 {
		t.Errorf("SaveRun() id = %d, want positive", id)
	}

	got, err := adb.GetRun(ctx, report.RunID)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if got.RunID != report.RunID || got.RootURL != report.RootURL {
		t.Errorf("GetRun() = %s %s, want %s %s", got.RunID, got.RootURL, report.RunID, report.RootURL)
	}
	if diff := cmp.Diff(report.Pages, got.Pages); diff != "" {
		t.Errorf("GetRun() pages mismatch (-want +got):\n%s", diff)
	}
	if got.LinksFound != 1 {
		t.Errorf("LinksFound = %d, want 1", got.LinksFound)
	}
	if !got.HasPage("https://example.com/broken") {
		t.Error("HasPage() = false for a stored page")
	}
}

func TestSaveRunDuplicate(t *testing.T) {
	t.Parallel()

	adb := setupTestDB(t)
	report := testReport(t, "https://example.com/", time.Now())
	if _, err := adb.SaveRun(t.Context(), report); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if _, err := adb.SaveRun(t.Context(), report); err == nil {
		t.Error("SaveRun() of the same run twice succeeded")
	}
}

func TestGetRunNotFound(t *testing.T) {
	t.Parallel()

	adb := setupTestDB(t)
	_, err := adb.GetRun(t.Context(), "missing")
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("GetRun() error = %v, want ErrRunNotFound", err)
	}
}

func TestListRuns(t *testing.T) {
	t.Parallel()

	adb := setupTestDB(t)
	ctx := t.Context()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	old := testReport(t, "https://example.com/", base, imageAlt())
	recent := testReport(t, "https://example.com/", base.Add(time.Hour))
	other := testReport(t, "https://other.example/", base.Add(30*time.Minute), imageAlt(), imageAlt())
	for _, r := range []*model.CrawlReport{old, recent, other} {
		if _, err := adb.SaveRun(ctx, r); err != nil {
			t.Fatalf("SaveRun() error = %v", err)
		}
	}

	tests := []struct {
		name    string
		rootURL string
		limit   int
		want    []string
	}{
		{name: "all sites newest first", rootURL: "", limit: 0, want: []string{recent.RunID, other.RunID, old.RunID}},
		{name: "single site", rootURL: "https://example.com/", limit: 0, want: []string{recent.RunID, old.RunID}},
		{name: "limit", rootURL: "", limit: 1, want: []string{recent.RunID}},
		{name: "unknown site", rootURL: "https://none.example/", limit: 0, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			runs, err := adb.ListRuns(ctx, tt.rootURL, tt.limit)
			if err != nil {
				t.Fatalf("ListRuns() error = %v", err)
			}
			var got []string
			for _, r := range runs {
				got = append(got, r.RunID)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ListRuns() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("summary columns", func(t *testing.T) {
		t.Parallel()

		runs, err := adb.ListRuns(ctx, "https://other.example/", 0)
		if err != nil {
			t.Fatalf("ListRuns() error = %v", err)
		}
		if len(runs) != 1 {
			t.Fatalf("ListRuns() returned %d runs, want 1", len(runs))
		}
		s := runs[0].Summary
		if s.TotalViolations != 2 || s.CriticalCount != 2 {
			t.Errorf("summary violations = %d critical = %d, want 2 and 2", s.TotalViolations, s.CriticalCount)
		}
		if s.PagesEvaluated != 1 || s.PagesFailed != 1 {
			t.Errorf("summary pages = %d failed = %d, want 1 and 1", s.PagesEvaluated, s.PagesFailed)
		}
		if !s.StartedAt.Equal(other.StartedAt) {
			t.Errorf("StartedAt = %v, want %v", s.StartedAt, other.StartedAt)
		}
		if runs[0].FinishedAt.IsZero() {
			t.Error("FinishedAt is zero")
		}
	})
}

func TestLatestRuns(t *testing.T) {
	t.Parallel()

	adb := setupTestDB(t)
	ctx := t.Context()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	var ids []string
	for i := range 3 {
		r := testReport(t, "https://example.com/", base.Add(time.Duration(i)*time.Minute))
		if _, err := adb.SaveRun(ctx, r); err != nil {
			t.Fatalf("SaveRun() error = %v", err)
		}
		ids = append(ids, r.RunID)
	}

	reports, err := adb.LatestRuns(ctx, "https://example.com/", 2)
	if err != nil {
		t.Fatalf("LatestRuns() error = %v", err)
	}
	var got []string
	for _, r := range reports {
		got = append(got, r.RunID)
	}
	if diff := cmp.Diff([]string{ids[2], ids[1]}, got); diff != "" {
		t.Errorf("LatestRuns() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{name: "stored layout", input: "2025-01-02 03:04:05.123456", want: time.Date(2025, 1, 2, 3, 4, 5, 123456000, time.UTC)},
		{name: "sqlite default", input: "2025-01-02 03:04:05", want: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)},
		{name: "iso with zone", input: "2025-01-02T03:04:05Z", want: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)},
		{name: "empty", input: "", want: time.Time{}},
		{name: "garbage", input: "yesterday", want: time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := parseTimestamp(tt.input); !got.Equal(tt.want) {
				t.Errorf("parseTimestamp(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatTimestampSortsAsText(t *testing.T) {
	t.Parallel()

	earlier := time.Date(2025, 1, 1, 9, 0, 0, 5, time.FixedZone("JST", 9*3600))
	later := time.Date(2025, 1, 1, 1, 0, 0, 1000, time.UTC)
	if formatTimestamp(earlier) >= formatTimestamp(later) {
		t.Errorf("formatTimestamp order: %q >= %q", formatTimestamp(earlier), formatTimestamp(later))
	}
	if formatTimestamp(time.Time{}) != "" {
		t.Error("formatTimestamp(zero) is not empty")
	}
}
