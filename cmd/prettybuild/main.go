package main

import (
	"errors"
	"fmt"
	"os"

	"prettybuild/cmd/prettybuild/cmdutil"
	configcmd "prettybuild/cmd/prettybuild/config"
	democmd "prettybuild/cmd/prettybuild/demo"
	replaycmd "prettybuild/cmd/prettybuild/replay"
	runcmd "prettybuild/cmd/prettybuild/run"
	watchcmd "prettybuild/cmd/prettybuild/watch"
	"prettybuild/internal/buildinfo"
	"prettybuild/internal/logging"

	"github.com/spf13/cobra"
)

func main() {
	var flags cmdutil.Flags
	if err := logging.Configure(logging.LevelWarn, os.Stderr); err != nil {
		_, _ = os.Stderr.WriteString("configure logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:           "prettybuild",
		Short:         "Live progress display for multi-project builds",
		Version:       buildinfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logging.Configure(flags.LogLevel(), os.Stderr)
		},
	}
	flags.Bind(root)

	root.AddCommand(runcmd.Cmd(&flags))
	root.AddCommand(watchcmd.Cmd(&flags))
	root.AddCommand(replaycmd.Cmd(&flags))
	root.AddCommand(democmd.Cmd(&flags))
	root.AddCommand(configcmd.Cmd(&flags))

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		var exitErr *cmdutil.ExitError
		if errors.As(err, &exitErr) && exitErr.Code > 0 {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
