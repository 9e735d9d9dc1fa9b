// Package cmd contains the chatdesk command tree.
package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "chatdesk",
	Short: "Chatdesk - conversational support chat backend",
	Long: `Chatdesk is the backend for a customer support chat widget.

It persists conversations in PostgreSQL, assembles FAQ knowledge into the
generation context, and answers through the OpenAI chat completions API.
Without an OPENAI_API_KEY it runs in a degraded demo mode that echoes the
user's message.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	// Local development keeps secrets in .env; absence is fine.
	_ = godotenv.Load()

	return rootCmd.Execute()
}
