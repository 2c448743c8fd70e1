package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/devshell/internal/app"
)

func (c *CLI) newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify that the shells evaluate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			all, _ := cmd.Flags().GetBool("all")
			build, _ := cmd.Flags().GetBool("build")
			return c.app.Check(cmd.Context(), app.CheckOptions{
				Options: c.options(),
				All:     all,
				Build:   build,
			}, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolP("all", "a", false, "Check every declared platform")
	cmd.Flags().BoolP("build", "b", false, "Build the packages of the current platform")
	return cmd
}
