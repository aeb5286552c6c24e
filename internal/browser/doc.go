// Package browser provides the two browser capabilities the audit needs:
// loading a page and executing a script inside it.
//
// The capabilities are expressed as narrow interfaces:
//   - Loader: Loads a URL into a fresh, isolated page and waits until the
//     network is idle
//   - Page: A loaded page that can evaluate JavaScript and must be closed
//
// Chrome implements Loader on top of chromedp. Each Load call creates a new
// browser context (the incognito-like profile Chrome uses for isolation), so
// cookies, storage and injected scripts never leak from one page to the next.
// Closing the Page disposes that browser context.
//
// Design decision: The orchestrator, evaluator and link collector depend only
// on these interfaces. Tests use the browsertest package instead of a real
// browser, and alternative engines can be plugged in without touching the
// audit logic.
package browser
