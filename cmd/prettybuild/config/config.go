package configcmd

import (
	"fmt"

	"prettybuild/cmd/prettybuild/cmdutil"
	"prettybuild/config"

	"github.com/spf13/cobra"
)

// Cmd returns the "prettybuild config" command.
func Cmd(flags *cmdutil.Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(flags.ConfigPath)
			if err != nil {
				return err
			}
			data, err := cfg.YAML()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", resolvedPath(flags.ConfigPath))
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func resolvedPath(p string) string {
	if p == "" {
		return config.Path()
	}
	return p
}
