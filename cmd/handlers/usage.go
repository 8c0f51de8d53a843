package handlers

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"reddar/internal/config"
	"reddar/internal/usage"
)

// NewUsageCmd creates the usage command
func NewUsageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show LLM token usage",
		Long: `Show lifetime token totals and the most recent LLM requests.

Examples:
  reddar usage
  reddar usage --last 20`,
		Run: usageRun,
	}

	cmd.Flags().Int("last", 10, "How many recent requests to list")

	return cmd
}

func usageRun(cmd *cobra.Command, args []string) {
	cfg := config.Get()
	last, _ := cmd.Flags().GetInt("last")

	recorder := usage.NewFileRecorder(filepath.Join(cfg.Storage.DataDir, "usage.json"))
	log, err := recorder.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to load usage log: %v\n", err)
		os.Exit(1)
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	fmt.Println(headerStyle.Render("🧮 LLM Usage"))
	fmt.Printf("requests: %d | prompt tokens: %d | completion tokens: %d | total: %d\n\n",
		log.Totals.Requests, log.Totals.PromptTokens, log.Totals.CompletionTokens, log.Totals.TotalTokens)

	if len(log.Requests) == 0 {
		fmt.Println("No requests logged yet.")
		return
	}
	if last > len(log.Requests) {
		last = len(log.Requests)
	}
	for _, rec := range log.Requests[:last] {
		fmt.Printf("%s  %s  %d tokens  %dms\n",
			dimStyle.Render(rec.Timestamp.Format("2006-01-02 15:04:05")),
			rec.Model, rec.TotalTokens, rec.LatencyMS)
	}
}
