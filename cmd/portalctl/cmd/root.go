// Package cmd implements the portalctl operator commands.
package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dev-mohitbeniwal/echo-portal/config"
	logger "github.com/dev-mohitbeniwal/echo-portal/logging"
)

var (
	// Global flags
	configPath string
	verbose    bool

	okFmt   = color.New(color.FgGreen).SprintFunc()
	warnFmt = color.New(color.FgYellow).SprintFunc()
	errFmt  = color.New(color.FgRed, color.Bold).SprintFunc()
	dimFmt  = color.New(color.Faint).SprintFunc()
)

var rootCmd = &cobra.Command{
	Use:   "portalctl",
	Short: "Operator tooling for the echo portal",
	Long: `portalctl manages the echo portal stores directly.

It bootstraps accounts before any administrator can log in, seeds
policies from YAML files and dry-runs access decisions offline.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "completion" || cmd.Name() == "help" {
			return nil
		}
		logger.InitConsoleLogger(verbose)

		var err error
		if configPath != "" {
			err = config.InitConfigFile(configPath)
		} else {
			err = config.InitConfig()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default config/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(hashPasswordCmd)
	rootCmd.AddCommand(createUserCmd)
	rootCmd.AddCommand(seedPoliciesCmd)
	rootCmd.AddCommand(evaluateCmd)
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), errFmt("Error:"), err)
	}
	return err
}
