// Package main provides the entry point for the a11yscan CLI.
//
// a11yscan audits a web page and the same-origin pages it links to with
// axe-core running in headless Chrome, and writes the violations found as a
// markdown report.
//
// Usage:
//
//	a11yscan scan <url>
//	a11yscan history [url]
//	a11yscan compare <url>
//
// See --help for all available options.
package main

func main() {
	Execute()
}
