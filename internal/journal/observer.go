package journal

import (
	"log/slog"

	"github.com/roach88/tine"
)

// The journal is wired to chains as a tine.Observer.
var _ tine.Observer = (*Journal)(nil)

// AttemptFailed records one failed duplication attempt.
//
// The observer interface cannot return an error, so write failures are
// logged and the dispatch proceeds; a journal outage must never change
// fork behavior.
func (j *Journal) AttemptFailed(chainToken string, attempt int, err error) {
	seq := j.nextSeq()
	_, dbErr := j.db.Exec(
		`INSERT INTO failed_attempts (seq, chain_token, attempt, error) VALUES (?, ?, ?, ?)`,
		seq, chainToken, attempt, err.Error(),
	)
	if dbErr != nil {
		slog.Error("journal: failed to record attempt", "chain", chainToken, "attempt", attempt, "error", dbErr)
		return
	}

	j.mu.Lock()
	j.pending[chainToken] = attempt
	j.mu.Unlock()
}

// Dispatched records the single outcome of a chain.
//
// Child outcomes are not recorded: the dispatch notification in the
// child arrives between fork and exec, where touching SQLite is
// forbidden, and the parent side of the same chain token owns the
// authoritative row. For parent outcomes the attempts column counts the
// failed attempts that preceded the success (from this journal's own
// AttemptFailed bookkeeping); for failed outcomes it is the outcome's
// own attempt count.
func (j *Journal) Dispatched(chainToken string, outcome tine.Outcome) {
	if outcome.InChild() {
		return
	}

	j.mu.Lock()
	preceding := j.pending[chainToken]
	delete(j.pending, chainToken)
	j.mu.Unlock()

	attempts := outcome.Attempts()
	if !outcome.Failed() {
		attempts = preceding
	}

	var childPID any
	if outcome.InParent() {
		childPID = outcome.ChildPID()
	}
	var errText any
	if outcome.Err() != nil {
		errText = outcome.Err().Error()
	}

	seq := j.nextSeq()
	_, dbErr := j.db.Exec(
		`INSERT INTO dispatches (seq, chain_token, outcome, child_pid, attempts, error) VALUES (?, ?, ?, ?, ?, ?)`,
		seq, chainToken, outcome.Kind(), childPID, attempts, errText,
	)
	if dbErr != nil {
		slog.Error("journal: failed to record dispatch", "chain", chainToken, "error", dbErr)
	}
}
