package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/devshell/internal/app"
)

func (c *CLI) newLockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Pin every input and versioned package in the lock file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			update, _ := cmd.Flags().GetBool("update")
			watch, _ := cmd.Flags().GetBool("watch")

			opts := c.options()
			opts.Update = update
			return c.app.Lock(cmd.Context(), app.LockOptions{Options: opts, Watch: watch})
		},
	}
	cmd.Flags().BoolP("update", "u", false, "Re-pin every input to its latest revision")
	cmd.Flags().BoolP("watch", "w", false, "Re-lock whenever the descriptor changes")
	return cmd
}
