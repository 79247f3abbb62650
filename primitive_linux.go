//go:build linux

package tine

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// SysPrimitive duplicates the current process with clone(SIGCHLD), the
// modern spelling of fork(2) on Linux.
//
// The fork happens under syscall.ForkLock so it cannot race the standard
// library's own fork/exec paths. In the child, only the forking thread
// survives; see the package documentation for what a child handler may
// safely do.
type SysPrimitive struct{}

// Fork performs one duplication attempt.
//
// Returns the child's PID in the parent, InChild=true in the child, or
// the errno from the kernel if the attempt failed.
func (SysPrimitive) Fork() (ForkResult, error) {
	syscall.ForkLock.Lock()
	pid, _, errno := unix.RawSyscall(unix.SYS_CLONE, uintptr(unix.SIGCHLD), 0, 0)
	syscall.ForkLock.Unlock()

	if errno != 0 {
		return ForkResult{}, errno
	}
	if pid == 0 {
		return ForkResult{InChild: true}, nil
	}
	return ForkResult{ChildPID: int(pid)}, nil
}

var defaultPrimitive Primitive = SysPrimitive{}
