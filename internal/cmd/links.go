package cmd

import (
	"github.com/spf13/cobra"
)

func newLinksCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "links",
		Short: "Manage social links",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show saved links",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := a.dash.Links.List(cmd.Context())
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			row(w, "NAME", "URL", "IMAGE")
			for _, l := range list {
				row(w, l.Name, orNone(l.URL), orNone(l.Image))
			}
			return w.Flush()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:     "set <name> <url>",
		Short:   "Save a link",
		Example: "  legendboard links set twitch https://twitch.tv/somebody",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.dash.Links.SetURL(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			printOK(cmd, "Saved %s link", args[0])
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "image <name> <url>",
		Short: "Save a link image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.dash.Links.SetImage(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			printOK(cmd, "Saved %s image", args[0])
			return nil
		},
	})
	return cmd
}
