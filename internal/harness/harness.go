// Package harness provides a conformance harness for fork chains.
//
// Scenarios are YAML files that script the primitive's attempt results
// and declare which clauses are present; running one performs a real
// dispatch against the scripted primitive and collects a deterministic,
// seq-stamped trace of attempt and routing events. Golden files pin the
// traces down byte-for-byte (via RFC 8785 canonical JSON), so any change
// to dispatch ordering or routing shows up as a golden diff.
//
// Unlike the unit tests, which assert individual properties, the
// harness asserts whole traces: every failed attempt, the single
// dispatched event, and — for the fail-loud default — the terminating
// exit, in exact seq order.
package harness

import (
	"bytes"
	"log/slog"

	"github.com/roach88/tine"
	"github.com/roach88/tine/internal/testutil"
	"github.com/roach88/tine/internal/trace"
	"github.com/roach88/tine/retry"
)

// Run executes a scenario and returns its result.
//
// Each run is fully isolated: fresh scripted primitive, fresh
// deterministic clock, fixed chain token. The default error handler's
// exit is intercepted and recorded as an "exit" trace event; its
// diagnostic goes to Result.Log.
func Run(scenario *Scenario) (*Result, error) {
	steps, err := scenario.steps()
	if err != nil {
		return nil, err
	}

	prim := testutil.NewScriptedPrimitive(steps...)
	clock := testutil.NewDeterministicClock()
	rec := testutil.NewRecorder()
	result := NewResult()

	collector := &traceCollector{
		clock:         clock,
		result:        result,
		errorDeclared: scenario.Clauses.Error,
	}

	var logBuf bytes.Buffer
	cs := tine.New(
		tine.WithPrimitive(prim),
		tine.WithObserver(collector),
		tine.WithTokenGenerator(tine.NewFixedGenerator(scenario.chainToken())),
		tine.WithLogger(slog.New(slog.NewTextHandler(&logBuf, nil))),
		tine.WithExit(func(code int) {
			result.Trace = append(result.Trace, trace.Event{
				Type: "exit",
				Seq:  clock.Next(),
				Code: code,
			})
		}),
	)

	if scenario.Clauses.Parent {
		cs.Parent(rec.Parent())
	}
	if scenario.Clauses.Child {
		cs.Child(rec.Child())
	}
	if scenario.Clauses.Retry != nil {
		cs.Retry(retry.Limit(scenario.Clauses.Retry.MaxAttempts))
	}
	if scenario.Clauses.Error {
		cs.OnError(rec.Error())
	}

	result.Outcome = cs.Dispatch()
	result.Handlers = rec.Events()
	result.Log = logBuf.String()
	return result, nil
}

// traceCollector is the observer that turns dispatch events into trace
// events with deterministic seq stamps.
type traceCollector struct {
	clock         *testutil.DeterministicClock
	result        *Result
	errorDeclared bool
}

func (c *traceCollector) AttemptFailed(chainToken string, attempt int, err error) {
	c.result.Trace = append(c.result.Trace, trace.Event{
		Type:    "attempt_failed",
		Seq:     c.clock.Next(),
		Attempt: attempt,
		Error:   err.Error(),
	})
}

func (c *traceCollector) Dispatched(chainToken string, outcome tine.Outcome) {
	e := trace.Event{
		Type: "dispatched",
		Seq:  c.clock.Next(),
	}
	switch {
	case outcome.InParent():
		e.Handler = "parent"
		e.ChildPID = outcome.ChildPID()
	case outcome.InChild():
		e.Handler = "child"
	case outcome.Failed():
		e.Handler = "error"
		if !c.errorDeclared {
			e.Handler = "default_error"
		}
		e.Attempts = outcome.Attempts()
		e.Error = outcome.Err().Error()
	}
	c.result.Trace = append(c.result.Trace, e)
}
