// Package cli defines the talkbridge command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/impertio/talkbridge/internal/config"
	"github.com/impertio/talkbridge/internal/logging"
)

var (
	cfgFile  string
	logLevel string
	logStyle string

	// loaded at init time
	paths config.Paths
	log   *logging.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "talkbridge",
		Short: "TalkBridge — Nextcloud Talk assistant bridge",
		Long:  "TalkBridge connects Nextcloud Talk conversations to a local AI assistant, with Deck task tracking and voice message transcription.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}
			level := logLevel
			if level == "" {
				level = "info"
			}
			style := logStyle
			if style == "" {
				style = "pretty"
			}
			log = logging.New(nil, level, style)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.talkbridge/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")
	cmd.PersistentFlags().StringVar(&logStyle, "log-style", "", "log style (pretty, compact, json)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
