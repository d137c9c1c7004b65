package replaycmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"prettybuild/cmd/prettybuild/cmdutil"
	"prettybuild/internal/wire"

	"github.com/spf13/cobra"
)

// Cmd returns the "prettybuild replay" command.
func Cmd(flags *cmdutil.Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "replay [events.jsonl]",
		Short: "Render a recorded build event stream (stdin when no file is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open events: %w", err)
				}
				defer f.Close()
				in = f
			}

			session, err := cmdutil.Open(ctx, flags, false)
			if err != nil {
				return err
			}
			ended, err := wire.Pump(ctx, in, session.Display)
			if errors.Is(err, context.Canceled) {
				err = nil
			}
			if err == nil && !ended {
				slog.Warn("event stream ended without session_ended")
			}
			return errors.Join(err, session.Finish())
		},
	}
}
