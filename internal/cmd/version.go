package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ordinaryYT/jacweb1/pkg/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "legendboard %s\n", version.GetInfo())
			return nil
		},
	}
}
