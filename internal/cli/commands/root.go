package commands

import (
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:     "lawgic",
	Short:   "Legal Q&A chat service",
	Version: version,
	Long: `Lawgic answers common U.S. legal questions in plain language. It serves a
landing page and a chat page, accepts PDF uploads as conversation context, and
summarises legal documents.`,
	Example: `  # Run the web server
  $ lawgic serve -c configs/config.yaml

  # Summarise a lease from the command line
  $ lawgic summarize lease.pdf

  # Print the extracted text of a PDF
  $ lawgic extract lease.pdf --limit 3000`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// NewRootCmd exposes the command tree to tests.
func NewRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to config file (defaults and environment when empty)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(extractCmd)
}
