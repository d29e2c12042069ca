package version

import (
	"fmt"

	"github.com/spf13/cobra"
)

// AttachCobraVersionCommand adds a `version` subcommand to root. With
// --short it prints only the version, which deploy scripts compare against
// the release tag.
func AttachCobraVersionCommand(root *cobra.Command) {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the pir-monitor version.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			if short {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), Version)
				return
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), Full())
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "print only the version number")

	root.AddCommand(cmd)
}
