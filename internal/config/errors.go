package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoTarget is returned when no root URL is specified.
	ErrNoTarget = errors.New("no target specified: provide the root URL to audit")

	// ErrInvalidRootURL is returned when the root URL is not an absolute
	// http or https URL.
	ErrInvalidRootURL = errors.New("invalid root URL: must be an absolute http or https URL")

	// ErrInvalidTimeout is returned when the navigation timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidIdleTime is returned when the network idle time is negative.
	ErrInvalidIdleTime = errors.New("invalid idle time: must be non-negative")

	// ErrInvalidFailurePolicy is returned for an on-error value other than
	// "abort" or "skip".
	ErrInvalidFailurePolicy = errors.New("invalid on-error policy: must be \"abort\" or \"skip\"")

	// ErrEmptyAxeSource is returned when no axe-core source is configured.
	ErrEmptyAxeSource = errors.New("axe source must not be empty")

	// ErrEmptyOutputDir is returned when the report directory is empty.
	ErrEmptyOutputDir = errors.New("output directory must not be empty")

	// ErrInvalidBrowserURL is returned when the browser URL is not a ws or
	// wss DevTools endpoint.
	ErrInvalidBrowserURL = errors.New("invalid browser URL: must be a ws or wss DevTools URL")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
