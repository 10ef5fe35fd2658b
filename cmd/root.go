// Package cmd wires the taskpilot commands together.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "taskpilot",
	Short: "Taskpilot - a todo service with a conversational assistant",
	Long: `Taskpilot is a task management service with a chat assistant.
It exposes a JSON API for accounts, tasks and conversations, and an
assistant that turns plain-language messages into task operations.

Run "taskpilot serve" to start the HTTP server.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
