package tine

// Observer receives dispatch lifecycle events.
//
// Observers are optional; a chain without one skips the calls entirely.
// The dispatch journal (internal/journal) and the conformance harness's
// trace collector are the two implementations in this repo.
//
// Events fire in the execution context that owns them: AttemptFailed and
// a parent or failed Dispatched fire in the parent, a child Dispatched
// fires in the child. Under the real primitive an observer holding
// non-fork-safe state (a database handle, say) should expect only the
// parent-side events to be useful.
type Observer interface {
	// AttemptFailed is called once per failed duplication attempt,
	// before the retry policy is consulted. attempt counts from 1.
	AttemptFailed(chainToken string, attempt int, err error)

	// Dispatched is called once per chain, with the single Outcome,
	// after the outcome is fixed and before its handler runs.
	Dispatched(chainToken string, outcome Outcome)
}
