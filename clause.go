package tine

import (
	"log/slog"
	"os"
)

// RetryPolicy decides, after a failed duplication attempt, whether to
// attempt again. It receives the count of failed attempts so far
// (starting at 1) and may block (e.g. sleep) before answering. The
// retry package provides ready-made policies.
type RetryPolicy = func(attempt int) bool

// clause identifies one of the four declarable roles.
type clause int

const (
	clauseParent clause = iota
	clauseChild
	clauseRetry
	clauseError
	numClauses
)

func (c clause) String() string {
	switch c {
	case clauseParent:
		return "parent"
	case clauseChild:
		return "child"
	case clauseRetry:
		return "retry"
	case clauseError:
		return "error"
	default:
		return "unknown"
	}
}

// ClauseSet is one in-progress fork declaration.
//
// A ClauseSet starts with defaults for all four clauses and is mutated,
// one clause at a time, as the caller chains declarations. It is
// single-use: Dispatch consumes it, and any further use panics with a
// *UsageError. It is exclusively owned by the execution context that
// builds it and needs no locking.
type ClauseSet struct {
	parentHandler func(childPID int)
	childHandler  func()
	retryPolicy   RetryPolicy
	errorHandler  func(attempts int, err error)

	// declared tracks which clauses the caller supplied, so declaring
	// the same clause twice can be rejected.
	declared [numClauses]bool

	token     string
	tokenGen  TokenGenerator
	primitive Primitive
	observer  Observer
	logger    *slog.Logger
	exit      func(code int)

	consumed bool
	outcome  Outcome
}

// Option configures a ClauseSet at construction.
type Option func(*ClauseSet)

// WithPrimitive substitutes the duplication primitive. Tests and the
// conformance harness use this to script attempt results.
func WithPrimitive(p Primitive) Option {
	return func(cs *ClauseSet) { cs.primitive = p }
}

// WithObserver attaches an observer for dispatch lifecycle events.
func WithObserver(o Observer) Option {
	return func(cs *ClauseSet) { cs.observer = o }
}

// WithTokenGenerator overrides the chain token generator (for testing).
// The default is UUIDv7Generator.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(cs *ClauseSet) { cs.tokenGen = g }
}

// WithLogger sets the logger used by the default error handler.
// The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(cs *ClauseSet) { cs.logger = l }
}

// WithExit overrides the process-termination func used by the default
// error handler. The default is os.Exit. Tests use this to observe the
// fail-loud path without dying.
func WithExit(exit func(code int)) Option {
	return func(cs *ClauseSet) { cs.exit = exit }
}

// New creates an empty chain with all-default clauses.
//
// A chain with no declared clauses is still meaningful: dispatching it
// performs exactly one duplication attempt, no-ops in both resulting
// branches, and terminates the process on failure.
func New(opts ...Option) *ClauseSet {
	cs := &ClauseSet{
		parentHandler: func(int) {},
		childHandler:  func() {},
		retryPolicy:   func(int) bool { return false },
		tokenGen:      UUIDv7Generator{},
		primitive:     defaultPrimitive,
		logger:        slog.Default(),
		exit:          os.Exit,
	}
	for _, opt := range opts {
		opt(cs)
	}
	cs.token = cs.tokenGen.Generate()
	return cs
}

// Parent starts a chain whose parent branch runs fn with the child's PID.
func Parent(fn func(childPID int)) *ClauseSet { return New().Parent(fn) }

// Child starts a chain whose child branch runs fn.
func Child(fn func()) *ClauseSet { return New().Child(fn) }

// Retry starts a chain with the given retry policy.
func Retry(policy RetryPolicy) *ClauseSet { return New().Retry(policy) }

// OnError starts a chain whose error handler runs fn with the attempt
// count and the OS error from the final attempt.
func OnError(fn func(attempts int, err error)) *ClauseSet { return New().OnError(fn) }

// Parent declares the parent-branch handler. A nil fn keeps the no-op
// default while still marking the clause declared.
func (cs *ClauseSet) Parent(fn func(childPID int)) *ClauseSet {
	cs.declare(clauseParent)
	if fn != nil {
		cs.parentHandler = fn
	}
	return cs
}

// Child declares the child-branch handler.
func (cs *ClauseSet) Child(fn func()) *ClauseSet {
	cs.declare(clauseChild)
	if fn != nil {
		cs.childHandler = fn
	}
	return cs
}

// Retry declares the retry policy.
func (cs *ClauseSet) Retry(policy RetryPolicy) *ClauseSet {
	cs.declare(clauseRetry)
	if policy != nil {
		cs.retryPolicy = policy
	}
	return cs
}

// OnError declares the error handler, replacing the fail-loud default.
func (cs *ClauseSet) OnError(fn func(attempts int, err error)) *ClauseSet {
	cs.declare(clauseError)
	if fn != nil {
		cs.errorHandler = fn
	}
	return cs
}

// Token returns the chain token stamped at construction.
func (cs *ClauseSet) Token() string { return cs.token }

// declare records a clause declaration, panicking with a *UsageError on
// stale reuse or duplicate declaration. Both are programmer errors and
// surface synchronously, before any duplication attempt.
func (cs *ClauseSet) declare(c clause) {
	if cs.consumed {
		panic(&UsageError{Code: ErrCodeMalformedChain, Clause: c.String(), ChainToken: cs.token})
	}
	if cs.declared[c] {
		panic(&UsageError{Code: ErrCodeDuplicateClause, Clause: c.String(), ChainToken: cs.token})
	}
	cs.declared[c] = true
}
