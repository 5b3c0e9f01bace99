package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ordinaryYT/jacweb1/internal/nowplaying"
)

func newNowPlayingCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "nowplaying",
		Short: "Poll the music service once and print what is playing",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			status := a.dash.NowPlaying.Tick(cmd.Context())
			switch status.State {
			case nowplaying.StateConnected, nowplaying.StateNotPlaying:
				printOK(cmd, "%s", status.Label())
			default:
				printWarn(cmd, "%s", status.Label())
			}
			return nil
		},
	}
}
