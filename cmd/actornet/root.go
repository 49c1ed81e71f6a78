package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "actornet",
		Short: "Simulate networks of actors exchanging messages over edges.",
		Long: `actornet simulates a network of actors connected by an ` +
			`undirected multigraph. Every tick each actor reads the messages ` +
			`delivered to it, then sends messages on its adjacent edges.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringSlice("env", nil,
		"dotenv files to load instead of .env")

	rootCmd.AddCommand(
		newRunCmd(),
		newInspectCmd(),
		newTraceCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "actornet version %s\n", version)
		},
	}
}
