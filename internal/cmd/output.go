package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	dimColor  = color.New(color.Faint)
)

func printOK(cmd *cobra.Command, format string, args ...any) {
	_, _ = okColor.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
}

func printWarn(cmd *cobra.Command, format string, args ...any) {
	_, _ = warnColor.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
}

func printDim(cmd *cobra.Command, format string, args ...any) {
	_, _ = dimColor.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func row(w io.Writer, cols ...any) {
	for i, c := range cols {
		if i > 0 {
			_, _ = fmt.Fprint(w, "\t")
		}
		_, _ = fmt.Fprint(w, c)
	}
	_, _ = fmt.Fprintln(w)
}
