package harness

import (
	"github.com/roach88/tine"
	"github.com/roach88/tine/internal/trace"
)

// Result is the outcome of one scenario execution.
type Result struct {
	// Outcome is the chain's single dispatch outcome.
	Outcome tine.Outcome

	// Trace contains attempt, dispatch, and exit events in seq order.
	// Used for golden comparison.
	Trace []trace.Event

	// Handlers lists the recorded handler invocations, in order
	// ("parent:4100", "child", "error:2").
	Handlers []string

	// Log captures the chain's logger output. Non-empty only when the
	// fail-loud default error handler ran.
	Log string
}

// NewResult creates an empty result.
func NewResult() *Result {
	return &Result{Trace: []trace.Event{}}
}

// Snapshot converts the result to a golden-comparable trace snapshot.
func (r *Result) Snapshot(scenario *Scenario) *trace.Snapshot {
	return &trace.Snapshot{
		ScenarioName: scenario.Name,
		ChainToken:   scenario.chainToken(),
		Events:       r.Trace,
	}
}
