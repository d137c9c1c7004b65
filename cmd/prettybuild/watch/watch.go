package watchcmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"prettybuild/cmd/prettybuild/cmdutil"
	"prettybuild/internal/tail"
	"prettybuild/internal/wire"

	"github.com/spf13/cobra"
)

// Cmd returns the "prettybuild watch" command.
func Cmd(flags *cmdutil.Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <events.jsonl>",
		Short: "Follow a build event file as it grows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			session, err := cmdutil.Open(ctx, flags, false)
			if err != nil {
				return err
			}
			err = tail.Follow(ctx, args[0], func(line []byte) bool {
				return wire.Feed(session.Display, line)
			})
			if errors.Is(err, context.Canceled) {
				err = nil
			}
			return errors.Join(err, session.Finish())
		},
	}
}
