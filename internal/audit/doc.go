// Package audit runs the axe-core accessibility engine against pages.
//
// The Evaluator injects the engine into a loaded page, runs it and converts
// the engine output into model.Violation values. EvaluateURL acquires a fresh
// isolated page from a browser.Loader and always releases it; EvaluatePage
// works on a page the caller already holds.
//
// Design decision: The engine output is validated at this boundary. Missing
// or mistyped fields fail with an *AuditExecutionError instead of flowing into
// the report as empty strings, so a broken engine build is noticed on the
// first page rather than in the final document.
package audit
