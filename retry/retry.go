// Package retry provides attempt-aware retry policies for fork chains.
//
// A policy is a pure predicate of the failed-attempt count; it may block
// (sleep) before answering, and that blocking is synchronous with
// respect to the dispatch loop consulting it. Policies carry no state
// about the chain — the dispatch loop supplies the attempt count on
// every consultation.
package retry

// Policy decides, after a failed duplication attempt, whether to attempt
// again. attempt is the count of failed attempts so far, starting at 1.
type Policy = func(attempt int) bool

// Never returns a policy that never retries: one attempt, then the
// error path. This is the behavior of a chain with no retry clause.
func Never() Policy {
	return func(int) bool { return false }
}

// Limit returns a policy that allows up to maxAttempts total attempts
// with no delay between them. Limit(1) is equivalent to Never.
func Limit(maxAttempts int) Policy {
	return func(attempt int) bool { return attempt < maxAttempts }
}
