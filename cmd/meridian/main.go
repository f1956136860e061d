package main

import (
	"os"

	"github.com/spf13/cobra"

	"meridian/internal/interfaces/cli/migrate"
	"meridian/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "meridian",
		Short: "Meridian - proxy service billing and access control backend",
		Long:  `Meridian manages plans, orders, traffic entitlements, and node authorization for a multi-protocol proxy service.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
