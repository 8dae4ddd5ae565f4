package commands

import (
	"fmt"
	"os"

	"lawgic/internal/pdf"
	"lawgic/internal/service"
	"lawgic/internal/storage"

	"github.com/spf13/cobra"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <file.pdf>",
	Short: "summarise a legal PDF in plain-language bullet points",
	Example: `  $ lawgic summarize lease.pdf
  $ LAWGIC_MODEL_PROVIDER=anthropic lawgic summarize contract.pdf`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runSummarize,
}

func runSummarize(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	gateway, err := newGateway(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	// summaries never touch a session, so an in-memory store is enough
	chatService := service.NewChatService(cfg, storage.NewMemoryStorage(), gateway, pdf.NewExtractor())
	resp, err := chatService.SummarizeDocument(cmd.Context(), data)
	if err != nil {
		return err
	}

	if resp.Truncated {
		fmt.Fprintf(cmd.ErrOrStderr(), "note: only the first %d characters were summarised\n", cfg.Document.SummaryLimit)
	}
	fmt.Fprintln(cmd.OutOrStdout(), resp.Summary)
	return nil
}
