// Package pipeline orchestrates one audit run as a sequence of steps.
//
// A run moves through an explicit state machine:
//
//	Init -> RootLoaded -> [RootEvaluated] -> LinksCollected -> Evaluating(i) -> Finalized
//
// with Failed as the terminal error state. Each transition is implemented
// as a Step; the Pipeline executes the steps in order over a shared *Run that
// owns the root page handle, the collected LinkSet and the report being built.
//
// Design decision: We keep the step pipeline rather than one long function
// because:
// 1. Each transition can be tested in isolation with fake capabilities
// 2. Logging and cancellation checks are handled once, in Execute
// 3. Optional behavior (auditing the root page) is expressed by including or
//    omitting a step instead of branching inside the crawl loop
//
// Pages are evaluated strictly one at a time. The report is owned by the Run
// and never shared across goroutines, so it needs no locking.
package pipeline
