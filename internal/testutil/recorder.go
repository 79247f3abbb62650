package testutil

import (
	"fmt"
	"sync"
)

// Recorder records handler invocations in order, as printable events:
//
//	"parent:123"   parent handler ran with child PID 123
//	"child"        child handler ran
//	"error:2"      error handler ran after 2 failed attempts
//	"retry:1"      retry policy consulted with attempt count 1
//
// Tests assert on the exact event sequence, which pins down both the
// exactly-one-handler property and the order retry policies are
// consulted in.
type Recorder struct {
	mu     sync.Mutex
	events []string
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record appends a raw event.
func (r *Recorder) Record(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Parent returns a parent handler that records "parent:<pid>".
func (r *Recorder) Parent() func(childPID int) {
	return func(childPID int) { r.Record(fmt.Sprintf("parent:%d", childPID)) }
}

// Child returns a child handler that records "child".
func (r *Recorder) Child() func() {
	return func() { r.Record("child") }
}

// Error returns an error handler that records "error:<attempts>".
func (r *Recorder) Error() func(attempts int, err error) {
	return func(attempts int, err error) { r.Record(fmt.Sprintf("error:%d", attempts)) }
}

// Retry wraps a retry policy so each consultation records
// "retry:<attempt>" before the policy answers.
func (r *Recorder) Retry(policy func(attempt int) bool) func(attempt int) bool {
	return func(attempt int) bool {
		r.Record(fmt.Sprintf("retry:%d", attempt))
		return policy(attempt)
	}
}

// Events returns a copy of the recorded events in order.
func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	copy(out, r.events)
	return out
}
