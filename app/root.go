// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ajo-admin",
	Short: "Ajo-Admin is a management backend for Ajo rotating savings groups",
	Long: `Ajo-Admin is a management backend for Ajo rotating savings groups (ROSCAs)
that tracks memberships, contribution ledgers, payment positions and the
rotating distribution of the pooled payout.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
