package config

import (
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/a11yscan/internal/audit"
	"github.com/nao1215/a11yscan/internal/browser"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "a11yscan"

	// DefaultTimeout bounds one page navigation including the network idle
	// wait. Pages that keep long-polling connections open hit this limit.
	DefaultTimeout = browser.DefaultNavigationTimeout

	// DefaultIdleTime is how long the network must stay quiet before a page
	// counts as loaded.
	DefaultIdleTime = browser.DefaultIdleTime

	// DefaultOnError aborts the run on the first page failure.
	DefaultOnError = "abort"

	// DefaultOutputDir is the directory under which report directories are
	// created.
	DefaultOutputDir = "."

	// DefaultAxeSource is the axe-core build injected into every page.
	DefaultAxeSource = audit.DefaultAxeSource

	// DefaultDBFile is the history database file name inside DBDir.
	DefaultDBFile = "a11yscan.db"
)

// Config holds all configuration options for a11yscan.
// This struct is populated from CLI flags and the configuration file and
// passed through the application rather than kept in global state.
//
// Design decision: We use a single flat struct instead of nested structs
// for simplicity. The number of options is manageable.
type Config struct {
	// RootURL is the page the audit starts from.
	RootURL string

	// IncludeRoot audits the root page itself in addition to its links.
	IncludeRoot bool

	// OnError is the page failure policy: "abort" or "skip".
	OnError string

	// Timeout bounds each page navigation.
	Timeout time.Duration

	// IdleTime is the quiet period that ends the network idle wait.
	IdleTime time.Duration

	// AxeSource is an http(s) URL or a local file path of axe.min.js.
	AxeSource string

	// Tags restricts the audit to rules carrying one of these tags.
	// Empty means every rule axe runs by default.
	Tags []string

	// ExcludeSelf drops links that point back to the root page.
	ExcludeSelf bool

	// IgnorePatterns are glob patterns of link paths to skip.
	IgnorePatterns []string

	// FollowPatterns, when set, restrict links to the matching paths.
	FollowPatterns []string

	// Cookie is sent with every page request.
	Cookie string

	// Headers are extra HTTP headers sent with every page request.
	Headers map[string]string

	// OutputDir is where the report directory is created.
	OutputDir string

	// JSONReport also writes the JSON form of the report.
	JSONReport bool

	// ChromePath is the browser executable. Empty means auto-detect.
	ChromePath string

	// UserAgent overrides the browser's User-Agent when set.
	UserAgent string

	// Headful shows the browser window instead of running headless.
	Headful bool

	// BrowserURL is the DevTools websocket URL of a running Chrome to use
	// instead of starting one.
	BrowserURL string

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool

	// LogJSON writes log records as JSON instead of text.
	LogJSON bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .a11yscan in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds the configuration file contents.
	SiteConfigs *File

	// SaveToDB records the run in the history database.
	SaveToDB bool

	// DBDir is the directory of the history database.
	// Defaults to the XDG data directory (~/.local/share/a11yscan on Linux).
	DBDir string
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, root
// inclusion). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		IncludeRoot: true,
		OnError:     DefaultOnError,
		Timeout:     DefaultTimeout,
		IdleTime:    DefaultIdleTime,
		AxeSource:   DefaultAxeSource,
		OutputDir:   DefaultOutputDir,
		SaveToDB:    true,
		DBDir:       XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for a11yscan.
// On Linux: ~/.local/share/a11yscan
// On macOS: ~/Library/Application Support/a11yscan
// On Windows: %LOCALAPPDATA%\a11yscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for a11yscan.
// On Linux: ~/.config/a11yscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DBPath returns the history database path.
func (c *Config) DBPath() string {
	return filepath.Join(c.DBDir, DefaultDBFile)
}

// ApplySite merges sc into the configuration. Fields for which changed
// reports true were set explicitly on the command line and are kept.
// changed receives the flag name; a nil changed treats every flag as unset.
func (c *Config) ApplySite(sc SiteConfig, changed func(flag string) bool) {
	if changed == nil {
		changed = func(string) bool { return false }
	}

	if sc.IncludeRoot != nil && !changed("no-root") {
		c.IncludeRoot = *sc.IncludeRoot
	}
	if sc.OnError != "" && !changed("on-error") {
		c.OnError = sc.OnError
	}
	if len(sc.Tags) > 0 && !changed("tags") {
		c.Tags = sc.Tags
	}
	if sc.ExcludeSelf != nil && !changed("exclude-self") {
		c.ExcludeSelf = *sc.ExcludeSelf
	}
	if sc.Cookie != "" {
		c.Cookie = sc.Cookie
	}
	if len(sc.Headers) > 0 {
		if c.Headers == nil {
			c.Headers = make(map[string]string, len(sc.Headers))
		}
		for k, v := range sc.Headers {
			c.Headers[k] = v
		}
	}
	if len(sc.IgnorePatterns) > 0 {
		c.IgnorePatterns = sc.IgnorePatterns
	}
	if len(sc.FollowPatterns) > 0 {
		c.FollowPatterns = sc.FollowPatterns
	}
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast, before a browser is started.
func (c *Config) Validate() error {
	if c.RootURL == "" {
		return ErrNoTarget
	}
	if !IsAuditableURL(c.RootURL) {
		return ErrInvalidRootURL
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.IdleTime < 0 {
		return ErrInvalidIdleTime
	}
	switch strings.ToLower(c.OnError) {
	case "abort", "skip", "isolate":
	default:
		return ErrInvalidFailurePolicy
	}
	if strings.TrimSpace(c.AxeSource) == "" {
		return ErrEmptyAxeSource
	}
	if c.OutputDir == "" {
		return ErrEmptyOutputDir
	}
	if c.BrowserURL != "" && !isDevtoolsURL(c.BrowserURL) {
		return ErrInvalidBrowserURL
	}
	return nil
}

// isDevtoolsURL reports whether raw is a ws or wss URL with a host.
func isDevtoolsURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "ws" || scheme == "wss") && u.Host != ""
}

// IsAuditableURL reports whether raw is an absolute http or https URL
// with a host.
func IsAuditableURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}
