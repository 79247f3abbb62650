package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/roach88/tine"
	"github.com/roach88/tine/internal/journal"
	"github.com/roach88/tine/internal/plan"
)

// SpawnOptions holds flags for the spawn command.
type SpawnOptions struct {
	*RootOptions
	PlanPath string
	Database string
	Wait     bool
}

// SpawnResult is the reported outcome of a spawn.
type SpawnResult struct {
	ChildPID   int  `json:"child_pid"`
	ExitStatus *int `json:"exit_status,omitempty"` // present only with --wait
}

// NewSpawnCommand creates the spawn command.
func NewSpawnCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SpawnOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "spawn [flags] -- command [args...]",
		Short: "Fork and exec a command through a declared chain",
		Long: `Fork the current process through a declared chain and exec the given
command in the child. The parent branch reports the child PID; with
--wait it also reaps the child and propagates its exit status.

Retry budget, backoff, and journaling come from the plan file; flags
override the plan.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSpawn(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.PlanPath, "plan", "", "path to a spawn plan (YAML)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "journal database path (overrides plan)")
	cmd.Flags().BoolVar(&opts.Wait, "wait", false, "wait for the child and propagate its exit status (overrides plan)")

	return cmd
}

func runSpawn(opts *SpawnOptions, argv []string, cmd *cobra.Command) error {
	formatter := NewOutputFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	p := plan.Default()
	if opts.PlanPath != "" {
		loaded, errs := plan.Load(opts.PlanPath)
		if len(errs) > 0 {
			return outputPlanErrors(formatter, errs)
		}
		p = loaded
	}
	if opts.Database != "" {
		p.Journal.Path = opts.Database
	}
	if opts.Wait {
		p.Wait = true
	}

	chainOpts := []tine.Option{tine.WithLogger(logger)}
	if p.Journal.Path != "" {
		j, err := journal.Open(p.Journal.Path)
		if err != nil {
			_ = formatter.Error("E211", fmt.Sprintf("cannot open journal: %v", err))
			return WrapExitError(ExitCommandError, "cannot open journal", err)
		}
		defer j.Close()
		chainOpts = append(chainOpts, tine.WithObserver(j))
	}

	// Resolve the binary before forking: a typo should fail the command,
	// not the child.
	binary, err := exec.LookPath(argv[0])
	if err != nil {
		_ = formatter.Error("E210", fmt.Sprintf("command not found: %s", argv[0]))
		return WrapExitError(ExitCommandError, "command not found", err)
	}
	formatter.VerboseLog("resolved %s -> %s", argv[0], binary)

	var (
		result   SpawnResult
		spawnErr error
	)
	tine.Run(func(cs *tine.ClauseSet) {
		cs.Child(func() {
			execChild(binary, argv)
		}).Parent(func(childPID int) {
			logger.Debug("child started", "pid", childPID, "command", binary)
			result.ChildPID = childPID
			if p.Wait {
				status, err := waitChild(childPID)
				if err != nil {
					spawnErr = WrapExitError(ExitCommandError, "wait failed", err)
					return
				}
				result.ExitStatus = &status
			}
		}).Retry(p.Policy()).OnError(func(attempts int, err error) {
			_ = formatter.Error("E212", fmt.Sprintf("fork failed after %d attempt(s): %v", attempts, err))
			spawnErr = WrapExitError(ExitFailure, fmt.Sprintf("fork failed after %d attempt(s)", attempts), err)
		})
	}, chainOpts...)
	if spawnErr != nil {
		return spawnErr
	}

	if err := outputSpawnResult(formatter, result); err != nil {
		return err
	}
	if result.ExitStatus != nil && *result.ExitStatus != 0 {
		// Mirror the child's status so the spawn is shell-transparent.
		return NewExitError(*result.ExitStatus, fmt.Sprintf("child exited with status %d", *result.ExitStatus))
	}
	return nil
}

// execChild replaces the child process image. It runs in the forked
// child, so on failure it must leave through _exit, never return into
// the caller's control flow.
func execChild(binary string, argv []string) {
	err := unix.Exec(binary, argv, os.Environ())
	// Exec only returns on failure.
	fmt.Fprintf(os.Stderr, "tine: exec %s: %v\n", binary, err)
	unix.Exit(127)
}

// waitChild reaps the child and lowers its wait status to a shell-style
// exit code (128+signal for signal deaths).
func waitChild(pid int) (int, error) {
	var ws unix.WaitStatus
	for {
		wpid, err := unix.Wait4(pid, &ws, 0, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, err
		}
		if wpid != pid {
			continue
		}
		switch {
		case ws.Exited():
			return ws.ExitStatus(), nil
		case ws.Signaled():
			return 128 + int(ws.Signal()), nil
		}
	}
}

func outputSpawnResult(formatter *OutputFormatter, result SpawnResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	if result.ExitStatus != nil {
		fmt.Fprintf(formatter.Writer, "child %d exited with status %d\n", result.ChildPID, *result.ExitStatus)
		return nil
	}
	fmt.Fprintf(formatter.Writer, "child %d started\n", result.ChildPID)
	return nil
}
