// Package tine is a structured combinator over the operating system's
// process-duplication primitive (fork).
//
// A caller declares, in any order, up to four clauses — what the parent
// branch does, what the child branch does, how to retry a failed
// duplication, and how to report an unrecoverable failure — and tine
// guarantees that exactly one duplication attempt sequence happens per
// declared chain, with exactly one of the declared handlers invoked,
// exactly once, with the correct outcome data.
//
// ARCHITECTURE:
//
// Lazy Accumulation, Deferred Dispatch:
// Clause declarations only mutate an in-progress ClauseSet; no fork
// happens until the chain is explicitly dispatched. This lets clauses
// appear in any order and gives every omitted clause a well-defined
// default:
//   - parent: no-op
//   - child: no-op
//   - retry: never retry (single attempt)
//   - error: log a diagnostic embedding the OS error, then exit(1)
//
// A chain is built by threading the *ClauseSet return value:
//
//	tine.Child(func() { work() }).
//		Parent(func(pid int) { slog.Info("spawned", "pid", pid) }).
//		Retry(retry.Limit(3)).
//		Dispatch()
//
// Dispatch performs the bounded retry loop, produces a single immutable
// Outcome, routes it to the matching handler, and consumes the chain.
// A consumed chain is dead: declaring further clauses on it, or
// dispatching it again, is a programmer error and panics with a typed
// *UsageError. Run wraps a chain in a scope that guarantees dispatch on
// every exit path, so a caller cannot forget the trigger.
//
// Single-Threaded By Design:
// A ClauseSet is exclusively owned by the execution context building it.
// Declaration and dispatch happen strictly in program order; the retry
// loop blocks until an outcome is reached. After a successful fork the
// parent and child are independent address spaces and tine does no
// further coordination between them.
//
// CAVEAT — forking a Go process:
// Only the thread that called fork survives in the child; the rest of
// the Go runtime's threads do not. A child handler running under the
// real primitive must confine itself to work that tolerates this,
// typically exec'ing a new program or exiting. Scheduling-heavy child
// work belongs behind an exec boundary (see the spawn command in
// internal/cli). Test code substitutes a scripted Primitive and is not
// affected.
package tine
