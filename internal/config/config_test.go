package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func boolPtr(b bool) *bool {
	return &b
}

// TestNewConfig documents the defaults.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("root page is audited by default", func(t *testing.T) {
		t.Parallel()
		if !cfg.IncludeRoot {
			t.Error("expected IncludeRoot to be true")
		}
	})

	t.Run("default policy is abort", func(t *testing.T) {
		t.Parallel()
		if cfg.OnError != "abort" {
			t.Errorf("expected OnError abort, got %q", cfg.OnError)
		}
	})

	t.Run("default Timeout is 30 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 30*time.Second {
			t.Errorf("expected Timeout to be 30s, got %v", cfg.Timeout)
		}
	})

	t.Run("default IdleTime is 500ms", func(t *testing.T) {
		t.Parallel()
		if cfg.IdleTime != 500*time.Millisecond {
			t.Errorf("expected IdleTime to be 500ms, got %v", cfg.IdleTime)
		}
	})

	t.Run("default axe source is the CDN build", func(t *testing.T) {
		t.Parallel()
		if !strings.HasPrefix(cfg.AxeSource, "https://") || !strings.HasSuffix(cfg.AxeSource, "axe.min.js") {
			t.Errorf("unexpected AxeSource %q", cfg.AxeSource)
		}
	})

	t.Run("runs are saved under the XDG data dir", func(t *testing.T) {
		t.Parallel()
		if !cfg.SaveToDB {
			t.Error("expected SaveToDB to be true")
		}
		want := filepath.Join(XDGDataDir(), "a11yscan.db")
		if cfg.DBPath() != want {
			t.Errorf("expected DBPath %q, got %q", want, cfg.DBPath())
		}
	})

	t.Run("reports go to the current directory", func(t *testing.T) {
		t.Parallel()
		if cfg.OutputDir != "." {
			t.Errorf("expected OutputDir '.', got %q", cfg.OutputDir)
		}
	})
}

// TestConfigValidate tests configuration validation.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{
			name:   "valid configuration",
			modify: func(*Config) {},
		},
		{
			name:    "missing root URL",
			modify:  func(c *Config) { c.RootURL = "" },
			wantErr: ErrNoTarget,
		},
		{
			name:    "relative root URL",
			modify:  func(c *Config) { c.RootURL = "/about" },
			wantErr: ErrInvalidRootURL,
		},
		{
			name:    "non-http scheme",
			modify:  func(c *Config) { c.RootURL = "ftp://example.com/" },
			wantErr: ErrInvalidRootURL,
		},
		{
			name:    "zero timeout",
			modify:  func(c *Config) { c.Timeout = 0 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "negative idle time",
			modify:  func(c *Config) { c.IdleTime = -time.Second },
			wantErr: ErrInvalidIdleTime,
		},
		{
			name:   "zero idle time",
			modify: func(c *Config) { c.IdleTime = 0 },
		},
		{
			name:   "skip policy",
			modify: func(c *Config) { c.OnError = "skip" },
		},
		{
			name:    "unknown policy",
			modify:  func(c *Config) { c.OnError = "retry" },
			wantErr: ErrInvalidFailurePolicy,
		},
		{
			name:    "empty axe source",
			modify:  func(c *Config) { c.AxeSource = " " },
			wantErr: ErrEmptyAxeSource,
		},
		{
			name:    "empty output dir",
			modify:  func(c *Config) { c.OutputDir = "" },
			wantErr: ErrEmptyOutputDir,
		},
		{
			name:   "devtools browser url",
			modify: func(c *Config) { c.BrowserURL = "ws://127.0.0.1:9222/devtools/browser/abc" },
		},
		{
			name:    "http browser url",
			modify:  func(c *Config) { c.BrowserURL = "http://127.0.0.1:9222" },
			wantErr: ErrInvalidBrowserURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			cfg.RootURL = "https://example.com/"
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestApplySite(t *testing.T) {
	t.Parallel()

	site := SiteConfig{
		IncludeRoot:    boolPtr(false),
		OnError:        "skip",
		Tags:           []string{"wcag2aa"},
		Cookie:         "session=abc",
		Headers:        map[string]string{"Authorization": "Bearer x"},
		IgnorePatterns: []string{"/admin/*"},
		FollowPatterns: []string{"/docs/*"},
		ExcludeSelf:    boolPtr(true),
	}

	t.Run("site values override defaults", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.ApplySite(site, nil)

		if cfg.IncludeRoot {
			t.Error("expected IncludeRoot false")
		}
		if cfg.OnError != "skip" {
			t.Errorf("expected skip, got %q", cfg.OnError)
		}
		if !cfg.ExcludeSelf {
			t.Error("expected ExcludeSelf true")
		}
		if diff := cmp.Diff([]string{"wcag2aa"}, cfg.Tags); diff != "" {
			t.Errorf("tags mismatch (-want +got):\n%s", diff)
		}
		if cfg.Cookie != "session=abc" || cfg.Headers["Authorization"] != "Bearer x" {
			t.Error("expected cookie and headers to be applied")
		}
		if diff := cmp.Diff([]string{"/admin/*"}, cfg.IgnorePatterns); diff != "" {
			t.Errorf("ignore patterns mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("explicit flags win", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.OnError = "abort"
		cfg.Tags = []string{"best-practice"}
		changed := func(flag string) bool {
			return flag == "on-error" || flag == "tags" || flag == "no-root"
		}
		cfg.ApplySite(site, changed)

		if cfg.OnError != "abort" {
			t.Errorf("expected flag value abort, got %q", cfg.OnError)
		}
		if diff := cmp.Diff([]string{"best-practice"}, cfg.Tags); diff != "" {
			t.Errorf("tags mismatch (-want +got):\n%s", diff)
		}
		if !cfg.IncludeRoot {
			t.Error("expected IncludeRoot to keep its flag value")
		}
		if !cfg.ExcludeSelf {
			t.Error("unchanged flags still take the site value")
		}
	})

	t.Run("empty site keeps everything", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		before := *cfg
		cfg.ApplySite(SiteConfig{}, nil)
		if diff := cmp.Diff(before, *cfg); diff != "" {
			t.Errorf("config changed (-want +got):\n%s", diff)
		}
	})
}

// TestFileGetSiteConfig tests merging of site entries over defaults.
func TestFileGetSiteConfig(t *testing.T) {
	t.Parallel()

	file := &File{
		Defaults: SiteConfig{
			Cookie:  "default=1",
			Headers: map[string]string{"X-Default": "d"},
			Tags:    []string{"wcag2a"},
		},
		Sites: map[string]SiteConfig{
			"example.com": {
				Cookie:  "host=1",
				Headers: map[string]string{"X-Site": "s"},
			},
			"https://example.com/docs": {
				OnError:     "skip",
				IncludeRoot: boolPtr(false),
			},
			"localhost": {Tags: []string{"best-practice"}},
		},
	}

	t.Run("no entry returns defaults", func(t *testing.T) {
		t.Parallel()

		got := file.GetSiteConfig("https://other.example/")
		if got.Cookie != "default=1" {
			t.Errorf("expected default cookie, got %q", got.Cookie)
		}
		if got.IncludeRoot != nil {
			t.Error("expected IncludeRoot unset")
		}
	})

	t.Run("host entry merges headers", func(t *testing.T) {
		t.Parallel()

		got := file.GetSiteConfig("https://example.com/")
		if got.Cookie != "host=1" {
			t.Errorf("expected host cookie, got %q", got.Cookie)
		}
		want := map[string]string{"X-Default": "d", "X-Site": "s"}
		if diff := cmp.Diff(want, got.Headers); diff != "" {
			t.Errorf("headers mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]string{"wcag2a"}, got.Tags); diff != "" {
			t.Errorf("tags mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("exact URL entry wins over host", func(t *testing.T) {
		t.Parallel()

		got := file.GetSiteConfig("https://example.com/docs/")
		if got.OnError != "skip" {
			t.Errorf("expected skip, got %q", got.OnError)
		}
		if got.IncludeRoot == nil || *got.IncludeRoot {
			t.Error("expected IncludeRoot false")
		}
		if got.Cookie != "default=1" {
			t.Errorf("host entry must not apply, got cookie %q", got.Cookie)
		}
	})

	t.Run("host with port falls back to hostname", func(t *testing.T) {
		t.Parallel()

		got := file.GetSiteConfig("http://localhost:8080/")
		if diff := cmp.Diff([]string{"best-practice"}, got.Tags); diff != "" {
			t.Errorf("tags mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("defaults are not mutated", func(t *testing.T) {
		t.Parallel()

		_ = file.GetSiteConfig("https://example.com/")
		if _, ok := file.Defaults.Headers["X-Site"]; ok {
			t.Error("site headers leaked into defaults")
		}
	})
}

// TestLoadConfigFile tests loading YAML configuration files.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.a11yscan")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".a11yscan")
		content := `defaults:
  include_root: true
  tags: [wcag2a, wcag2aa]
sites:
  example.com:
    on_error: skip
    exclude_self: true
    cookie: "session=xyz"
    headers:
      Authorization: "Bearer token"
    ignore_patterns:
      - "/admin/*"
    follow_patterns:
      - "/docs/*"
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := &File{
			Defaults: SiteConfig{
				IncludeRoot: boolPtr(true),
				Tags:        []string{"wcag2a", "wcag2aa"},
			},
			Sites: map[string]SiteConfig{
				"example.com": {
					OnError:        "skip",
					ExcludeSelf:    boolPtr(true),
					Cookie:         "session=xyz",
					Headers:        map[string]string{"Authorization": "Bearer token"},
					IgnorePatterns: []string{"/admin/*"},
					FollowPatterns: []string{"/docs/*"},
				},
			},
		}
		if diff := cmp.Diff(want, cfg); diff != "" {
			t.Errorf("config mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".a11yscan")
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("initializes nil Sites map", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".a11yscan")
		if err := os.WriteFile(configPath, []byte("defaults:\n  on_error: abort\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Sites == nil {
			t.Error("expected Sites map to be initialized")
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("defaults: {}"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if got := FindConfigFile(configPath); got != configPath {
			t.Errorf("expected %q, got %q", configPath, got)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile("/nonexistent/path/config.yaml"); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})

	t.Run("search ends in the XDG config dir", func(t *testing.T) {
		t.Parallel()

		paths := searchPaths()
		if len(paths) == 0 {
			t.Fatal("expected search paths")
		}
		want := filepath.Join(XDGConfigDir(), "config.yaml")
		if got := paths[len(paths)-1]; got != want {
			t.Errorf("expected last path %q, got %q", want, got)
		}
	})
}

func TestIsAuditableURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{in: "https://example.com/", want: true},
		{in: "HTTP://example.com", want: true},
		{in: "http://localhost:8080/path?q=1", want: true},
		{in: "example.com", want: false},
		{in: "mailto:a@example.com", want: false},
		{in: "https:///path", want: false},
		{in: "://bad", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := IsAuditableURL(tt.in); got != tt.want {
				t.Errorf("IsAuditableURL(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
