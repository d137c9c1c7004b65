package runcmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"sync/atomic"
	"syscall"

	"prettybuild/cmd/prettybuild/cmdutil"
	"prettybuild/internal/progress"
	"prettybuild/internal/wire"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// EnvEvents is set for the child process so build tools know that event
// lines prefixed with wire.Marker will be picked up.
const EnvEvents = "PRETTYBUILD_EVENTS"

// Cmd returns the "prettybuild run" command.
func Cmd(flags *cmdutil.Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run -- <command> [args...]",
		Short: "Run a build and display its progress",
		Long: "Run a build command, archive its output and render the build events it\n" +
			"prints (lines starting with \"" + wire.Marker + "\") as a live display.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			session, err := cmdutil.Open(ctx, flags, true)
			if err != nil {
				return err
			}
			runErr := Build(ctx, session.Display, session.Archive, args)
			return errors.Join(runErr, session.Finish())
		},
	}
	// Everything after the command name belongs to the child.
	cmd.Flags().SetInterspersed(false)
	return cmd
}

// Build runs args as a child process. Event lines found on its stdout or
// stderr are applied to sink; every other line is copied to out. A non-zero
// exit status is reported as *cmdutil.ExitError. Build does not close sink.
func Build(ctx context.Context, sink progress.Sink, out io.Writer, args []string) error {
	c := exec.CommandContext(ctx, args[0], args[1:]...)
	c.Env = append(os.Environ(), EnvEvents+"=1")
	c.Stdin = os.Stdin

	stdout, err := c.StdoutPipe()
	if err != nil {
		return fmt.Errorf("attach stdout: %w", err)
	}
	stderr, err := c.StderrPipe()
	if err != nil {
		return fmt.Errorf("attach stderr: %w", err)
	}
	if err := c.Start(); err != nil {
		return fmt.Errorf("start %s: %w", args[0], err)
	}
	slog.Debug("build started", "command", args[0], "pid", c.Process.Pid)

	var ended atomic.Bool
	var g errgroup.Group
	g.Go(func() error { return split(stdout, sink, out, &ended) })
	g.Go(func() error { return split(stderr, sink, out, &ended) })
	copyErr := g.Wait()

	waitErr := c.Wait()
	if !ended.Load() {
		slog.Debug("build exited without ending the session")
	}
	if ctx.Err() != nil {
		return fmt.Errorf("build interrupted: %w", ctx.Err())
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return &cmdutil.ExitError{Code: exitErr.ExitCode()}
	}
	if waitErr != nil {
		return fmt.Errorf("wait for %s: %w", args[0], waitErr)
	}
	return copyErr
}

// split separates event lines from build output. It keeps draining r after
// a write error so the child never blocks on a full pipe.
func split(r io.Reader, sink progress.Sink, out io.Writer, ended *atomic.Bool) error {
	var writeErr error
	scanner := wire.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if payload, ok := wire.Unmark(line); ok {
			if wire.Feed(sink, []byte(payload)) {
				ended.Store(true)
			}
			continue
		}
		if writeErr != nil {
			continue
		}
		if _, err := io.WriteString(out, line+"\n"); err != nil {
			writeErr = fmt.Errorf("archive build output: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Join(writeErr, fmt.Errorf("read build output: %w", err))
	}
	return writeErr
}
