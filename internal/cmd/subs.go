package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ordinaryYT/jacweb1/internal/subs"
)

func newSubsCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subs",
		Short: "Manage the gifted-subs leaderboard",
	}
	cmd.AddCommand(newSubsListCmd(o))
	cmd.AddCommand(newSubsAddCmd(o))
	cmd.AddCommand(newSubsResetCmd(o))
	return cmd
}

func newSubsListCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the gifted-subs leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			rows, source := a.dash.ReloadSubs(cmd.Context())
			if len(rows) == 0 {
				printDim(cmd, "No gifted subs yet (%s)", source)
				return nil
			}
			w := newTable(cmd.OutOrStdout())
			row(w, "#", "USER", "GIFTS")
			for _, r := range rows {
				row(w, r.Position, r.Username, r.Gifts)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			printDim(cmd, "source: %s", source)
			return nil
		},
	}
}

func newSubsAddCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "add <username> <gifts>",
		Short:   "Add a gifter or replace their gift count",
		Example: "  legendboard subs add somebody 5",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			gifts, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("gifts must be a whole number: %q", args[1])
			}
			entry := subs.SubEntry{Username: args[0], Gifts: gifts}.Trimmed()
			if err := entry.Validate(); err != nil {
				return err
			}

			a, err := o.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			source, err := a.dash.AddOrUpdateSub(cmd.Context(), entry)
			if err != nil {
				return err
			}
			printOK(cmd, "Saved %s with %d gifts (%s)", entry.Username, entry.Gifts, source)
			return nil
		},
	}
}

func newSubsResetCmd(o *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every gifted-subs entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to reset without --yes")
			}
			a, err := o.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			source, err := a.dash.ResetSubs(cmd.Context())
			if err != nil {
				return err
			}
			printOK(cmd, "Gifted subs reset (%s)", source)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}
