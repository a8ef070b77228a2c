package main

import (
	"github.com/spf13/cobra"

	"github.com/MrEthical07/authcore/internal/logging"
)

const serviceName = "authcore"

// Global flags available to all subcommands.
var (
	configFile string
	logFormat  string
	logLevel   string
)

// NewRootCmd creates the root command for the authcore CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authcore",
		Short: "authcore - password login and signed tokens",
		Long: `authcore hashes and verifies passwords, gates login attempts and
issues HS256 access and refresh tokens. The serve command exposes the
flows over HTTP.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logging.SetDefault(serviceName, version, logging.Options{
				Format: logFormat,
				Level:  logLevel,
				Writer: cmd.ErrOrStderr(),
			})
		},
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML)")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "log format: json or text")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewHashCmd())
	cmd.AddCommand(NewPolicyCmd())

	return cmd
}
