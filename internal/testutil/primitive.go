// Package testutil provides deterministic helpers for tests: a scripted
// fork primitive, a handler-invocation recorder, and a resettable
// logical clock.
package testutil

import (
	"sync"

	"github.com/roach88/tine"
)

// ForkStep is one scripted primitive result.
type ForkStep struct {
	Result tine.ForkResult
	Err    error
}

// Fail scripts a failed duplication attempt with the given error.
func Fail(err error) ForkStep {
	return ForkStep{Err: err}
}

// ParentOf scripts a successful attempt seen from the parent side.
func ParentOf(childPID int) ForkStep {
	return ForkStep{Result: tine.ForkResult{ChildPID: childPID}}
}

// ChildSide scripts a successful attempt seen from the child side.
func ChildSide() ForkStep {
	return ForkStep{Result: tine.ForkResult{InChild: true}}
}

// ScriptedPrimitive plays back a fixed sequence of fork results.
//
// This is how dispatch behavior is exercised without actually forking:
// a test scripts, say, two failures followed by a parent-side success,
// and asserts on the resulting handler routing and observer events.
//
// Thread-safety: safe for concurrent use via internal mutex, although
// dispatch itself is single-threaded.
type ScriptedPrimitive struct {
	mu    sync.Mutex
	steps []ForkStep
	idx   int
}

// NewScriptedPrimitive creates a primitive that returns steps in order.
func NewScriptedPrimitive(steps ...ForkStep) *ScriptedPrimitive {
	return &ScriptedPrimitive{steps: steps}
}

// Fork returns the next scripted result.
//
// Panics if all steps have been consumed. This is a fail-fast approach
// to catch test misconfiguration (dispatch made more attempts than the
// script allows — which would itself be a routing bug worth failing on).
func (p *ScriptedPrimitive) Fork() (tine.ForkResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.idx >= len(p.steps) {
		panic("ScriptedPrimitive: all steps exhausted")
	}
	step := p.steps[p.idx]
	p.idx++
	return step.Result, step.Err
}

// Calls returns the number of duplication attempts made so far.
func (p *ScriptedPrimitive) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.idx
}
