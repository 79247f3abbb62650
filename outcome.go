package tine

import "fmt"

type outcomeKind int

const (
	outcomeNone outcomeKind = iota
	outcomeParent
	outcomeChild
	outcomeFailed
)

// Outcome is the immutable result of one duplication attempt sequence.
//
// Exactly one Outcome is produced per chain dispatch. It is one of:
//   - parent: this execution kept running as the parent; ChildPID holds
//     the child's process ID.
//   - child: this execution IS the duplicated process.
//   - failed: every attempt failed; Attempts counts them (>= 1) and Err
//     holds the OS error from the final attempt.
type Outcome struct {
	kind     outcomeKind
	childPID int
	attempts int
	err      error
}

// InParent reports whether this execution is the parent branch.
func (o Outcome) InParent() bool { return o.kind == outcomeParent }

// InChild reports whether this execution is the duplicated child.
func (o Outcome) InChild() bool { return o.kind == outcomeChild }

// Failed reports whether every duplication attempt failed.
func (o Outcome) Failed() bool { return o.kind == outcomeFailed }

// ChildPID returns the child's process ID. Zero unless InParent.
func (o Outcome) ChildPID() int { return o.childPID }

// Attempts returns the number of failed duplication attempts.
// Zero unless Failed.
func (o Outcome) Attempts() int { return o.attempts }

// Err returns the OS error from the final failed attempt.
// Nil unless Failed.
func (o Outcome) Err() error { return o.err }

// Kind returns the outcome as a stable label: "parent", "child", or
// "failed". Used by the journal and trace layers.
func (o Outcome) Kind() string {
	switch o.kind {
	case outcomeParent:
		return "parent"
	case outcomeChild:
		return "child"
	case outcomeFailed:
		return "failed"
	default:
		return "none"
	}
}

func (o Outcome) String() string {
	switch o.kind {
	case outcomeParent:
		return fmt.Sprintf("parent(child_pid=%d)", o.childPID)
	case outcomeChild:
		return "child"
	case outcomeFailed:
		return fmt.Sprintf("failed(attempts=%d, err=%v)", o.attempts, o.err)
	default:
		return "none"
	}
}
