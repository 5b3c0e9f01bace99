package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newProfileCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage the About content and status text",
	}
	cmd.AddCommand(newProfileShowCmd(o))
	cmd.AddCommand(newProfileAboutCmd(o))
	cmd.AddCommand(newProfileStatusCmd(o))
	return cmd
}

func newProfileShowCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the saved profile text",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.dash.Profile.Load(cmd.Context())
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			row(w, "status text", orNone(p.StatusText))
			row(w, "about", orNone(p.About))
			return w.Flush()
		},
	}
}

func newProfileAboutCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "about",
		Short: "Edit the About content",
	}

	var file string
	set := &cobra.Command{
		Use:     "set [content]",
		Short:   "Replace the About content",
		Example: "  legendboard profile about set '<p>Hi!</p>'\n  legendboard profile about set --file about.html",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var content string
			switch {
			case file != "" && len(args) > 0:
				return errors.New("pass content or --file, not both")
			case file != "":
				raw, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read %s: %w", file, err)
				}
				content = string(raw)
			case len(args) == 1:
				content = args[0]
			}

			a, err := o.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.dash.Profile.SaveAbout(cmd.Context(), content); err != nil {
				return err
			}
			printOK(cmd, "About content saved")
			return nil
		},
	}
	set.Flags().StringVar(&file, "file", "", "read the content from a file")

	cmd.AddCommand(set)
	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Drop the saved About content",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.dash.Profile.ResetAbout(cmd.Context()); err != nil {
				return err
			}
			printOK(cmd, "About content reset")
			return nil
		},
	})
	return cmd
}

func newProfileStatusCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Edit the manual status text",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <text>",
		Short: "Save the status text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.dash.Profile.SaveStatusText(cmd.Context(), args[0]); err != nil {
				return err
			}
			printOK(cmd, "Status text saved")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the status text",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.dash.Profile.ClearStatusText(cmd.Context()); err != nil {
				return err
			}
			printOK(cmd, "Status text cleared")
			return nil
		},
	})
	return cmd
}
