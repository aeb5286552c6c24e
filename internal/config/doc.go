// Package config provides configuration structures and utilities for a11yscan.
// It defines the audit settings, the per-site overrides read from the
// .a11yscan file and the XDG locations used for persistent data.
package config
