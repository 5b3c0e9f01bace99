// Package cmd is the legendboard command tree.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ordinaryYT/jacweb1/internal/config"
	"github.com/ordinaryYT/jacweb1/pkg/logging"
)

const serviceName = "legendboard"

type rootOptions struct {
	logger   logging.Logger
	storeDSN string
}

// NewRootCmd returns the root command for the legendboard CLI
func NewRootCmd() *cobra.Command {
	return newRootCmd(nil)
}

func newRootCmd(logger logging.Logger) *cobra.Command {
	opts := &rootOptions{logger: logger}

	rootCmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Legendboard: live status and leaderboards for a personal dashboard",
		Long:          "Legendboard aggregates chat presence, now playing and the bits leaderboard, and manages the gifted-subs board, links, profile text and saved credentials.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.storeDSN, "store", "", "local store DSN (overrides LOCAL_STORE_DSN)")

	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newNowPlayingCmd(opts))
	rootCmd.AddCommand(newBitsCmd(opts))
	rootCmd.AddCommand(newSubsCmd(opts))
	rootCmd.AddCommand(newCredsCmd(opts))
	rootCmd.AddCommand(newLinksCmd(opts))
	rootCmd.AddCommand(newProfileCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func (o *rootOptions) config() config.Config {
	cfg := config.Load()
	if o.storeDSN != "" {
		cfg.LocalStoreDSN = o.storeDSN
	}
	return cfg
}

func (o *rootOptions) log() logging.Logger {
	if o.logger == nil {
		o.logger = logging.NewLoggerWithService(serviceName)
	}
	return o.logger
}

// open builds the app for a one-shot command. Callers must Close it.
func (o *rootOptions) open(cmd *cobra.Command) (*app, error) {
	return newApp(cmd.Context(), o.config(), o.log(), appOptions{})
}
