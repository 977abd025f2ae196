package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "quimera",
	Short: "Quimera - context synthesis and adaptive prompt assembly engine",
	Long: `Quimera is a conversational engine that assembles the system prompt
for each turn from layered memory: the recent dialogue window, semantic
recall over past conversations, the relational neighborhood of recalled
turns, and a tone directive inferred from the user's message.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with signal-driven cancellation.
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "quimera.yaml",
		"Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
