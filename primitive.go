package tine

// ForkResult describes one successful duplication attempt, as seen from
// whichever execution is inspecting it.
type ForkResult struct {
	// ChildPID is the child's process ID. Set in the parent, zero in the
	// child.
	ChildPID int

	// InChild is true in the duplicated execution.
	InChild bool
}

// Primitive performs a single process-duplication attempt.
//
// The production implementation issues the raw fork-style syscall (see
// SysPrimitive on Linux). Tests and the conformance harness substitute a
// scripted implementation so dispatch behavior can be exercised without
// actually forking.
//
// Fork returns a non-nil error if and only if the attempt failed; the
// error carries the platform failure reason (typically a syscall.Errno
// such as EAGAIN or ENOMEM).
type Primitive interface {
	Fork() (ForkResult, error)
}
