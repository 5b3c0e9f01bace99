package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ordinaryYT/jacweb1/internal/credentials"
	"github.com/ordinaryYT/jacweb1/pkg/clients/helix"
)

func newCredsCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "creds",
		Short: "Manage saved Spotify and Twitch credentials",
	}
	cmd.AddCommand(newCredsSpotifyCmd(o))
	cmd.AddCommand(newCredsTwitchCmd(o))
	cmd.AddCommand(newCredsShowCmd(o))
	cmd.AddCommand(newCredsClearCmd(o))
	return cmd
}

func newCredsSpotifyCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "spotify <access-token>",
		Short: "Save the Spotify access token and poll once with it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.dash.SaveSpotifyToken(cmd.Context(), args[0]); err != nil {
				return err
			}
			printOK(cmd, "Spotify token saved")
			printDim(cmd, "now playing: %s", a.dash.NowPlaying.Status().Label())
			return nil
		},
	}
}

func newCredsTwitchCmd(o *rootOptions) *cobra.Command {
	var clientID, token string
	cmd := &cobra.Command{
		Use:   "twitch",
		Short: "Save the Twitch client id and access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.dash.SaveTwitchCredentials(cmd.Context(), helix.Credentials{ClientID: clientID, AccessToken: token}); err != nil {
				return err
			}
			printOK(cmd, "Twitch credentials saved")
			return nil
		},
	}
	cmd.Flags().StringVar(&clientID, "client-id", "", "Twitch application client id")
	cmd.Flags().StringVar(&token, "token", "", "Twitch user access token")
	return cmd
}

func newCredsShowCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show which credentials are saved (masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			spotifyToken, err := a.dash.Credentials.SpotifyToken(cmd.Context())
			if err != nil {
				return err
			}
			twitch, err := a.dash.Credentials.Twitch(cmd.Context())
			if err != nil {
				return err
			}

			w := newTable(cmd.OutOrStdout())
			row(w, "spotify token", orNone(credentials.Mask(spotifyToken)))
			row(w, "twitch client id", orNone(credentials.Mask(twitch.ClientID)))
			row(w, "twitch token", orNone(credentials.Mask(twitch.AccessToken)))
			return w.Flush()
		},
	}
}

func newCredsClearCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "clear <spotify|twitch>",
		Short:     "Forget saved credentials",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"spotify", "twitch"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			switch args[0] {
			case "spotify":
				err = a.dash.Credentials.ClearSpotifyToken(cmd.Context())
			case "twitch":
				err = a.dash.Credentials.ClearTwitch(cmd.Context())
			default:
				return fmt.Errorf("unknown credential %q (want spotify or twitch)", args[0])
			}
			if err != nil {
				return err
			}
			printOK(cmd, "Cleared %s credentials", args[0])
			return nil
		},
	}
}

func orNone(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
