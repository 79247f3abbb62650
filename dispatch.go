package tine

// Dispatch closes the chain: it performs the duplication attempt
// sequence and routes the single Outcome to the matching handler.
//
// The loop attempts the primitive; the first success ends it. Each
// failure increments the attempt count and consults the retry policy
// with that count — if the policy declines (the default always does),
// the outcome is failed and the error handler runs. A duplication
// failure is therefore never surfaced as an error from Dispatch itself;
// it reaches user code only through the declared error clause, or
// through the fail-loud default, which logs a diagnostic embedding the
// OS error and terminates the process.
//
// Exactly one of the parent, child, and error handlers is invoked,
// exactly once. The handler runs to completion before Dispatch returns;
// if it returns normally, Dispatch returns the Outcome and execution
// continues past the chain.
//
// Dispatch consumes the ClauseSet. Dispatching twice panics with a
// *UsageError.
func (cs *ClauseSet) Dispatch() Outcome {
	if cs.consumed {
		panic(&UsageError{Code: ErrCodeMalformedChain, Clause: "dispatch", ChainToken: cs.token})
	}
	cs.consumed = true

	attempts := 0
	for {
		res, err := cs.primitive.Fork()
		if err == nil {
			if res.InChild {
				cs.outcome = Outcome{kind: outcomeChild}
				cs.notifyDispatched()
				cs.childHandler()
			} else {
				cs.outcome = Outcome{kind: outcomeParent, childPID: res.ChildPID}
				cs.notifyDispatched()
				cs.parentHandler(res.ChildPID)
			}
			return cs.outcome
		}

		attempts++
		if cs.observer != nil {
			cs.observer.AttemptFailed(cs.token, attempts, err)
		}
		if cs.retryPolicy(attempts) {
			continue
		}

		cs.outcome = Outcome{kind: outcomeFailed, attempts: attempts, err: err}
		cs.notifyDispatched()
		if cs.errorHandler != nil {
			cs.errorHandler(attempts, err)
		} else {
			cs.failLoud(attempts, err)
		}
		return cs.outcome
	}
}

// Run invokes fn with a fresh chain and guarantees dispatch on every
// exit path — normal return, early Dispatch inside fn, and panic
// unwinds. This preserves the fires-automatically safety property
// without relying on finalizer timing: a caller cannot build a chain
// under Run and leave it undispatched.
//
// The one exception is a *UsageError panic escaping fn: misuse is
// raised synchronously, before any duplication attempt, and that holds
// under Run too — a misused chain unwinds without ever touching the
// primitive.
func Run(fn func(cs *ClauseSet), opts ...Option) (out Outcome) {
	cs := New(opts...)
	misused := false
	defer func() {
		if misused {
			return
		}
		if !cs.consumed {
			out = cs.Dispatch()
		} else {
			out = cs.outcome
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(*UsageError); ok {
				misused = true
			}
			panic(r)
		}
	}()
	fn(cs)
	return
}

func (cs *ClauseSet) notifyDispatched() {
	if cs.observer != nil {
		cs.observer.Dispatched(cs.token, cs.outcome)
	}
}

// failLoud is the default error clause: loud termination. Silent failure
// on what is usually resource exhaustion would be worse.
func (cs *ClauseSet) failLoud(attempts int, err error) {
	cs.logger.Error("fork failed, terminating",
		"chain", cs.token,
		"attempts", attempts,
		"error", err,
	)
	cs.exit(1)
}
