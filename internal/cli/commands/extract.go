package commands

import (
	"fmt"
	"os"

	"lawgic/internal/pdf"

	"github.com/spf13/cobra"
)

var extractLimit int

var extractCmd = &cobra.Command{
	Use:   "extract <file.pdf>",
	Short: "print the text extracted from a PDF",
	Example: `  # Full text
  $ lawgic extract lease.pdf

  # What the chat would see as document context
  $ lawgic extract lease.pdf --limit 3000`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runExtract,
}

func init() {
	extractCmd.Flags().IntVarP(&extractLimit, "limit", "l", 0, "maximum characters to keep (0 keeps everything)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	result, err := pdf.NewExtractor().Extract(data, extractLimit)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%d pages, truncated: %t\n", result.Pages, result.Truncated)
	fmt.Fprintln(cmd.OutOrStdout(), result.Text)
	return nil
}
