package handlers

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"reddar/internal/chat"
	"reddar/internal/config"
	"reddar/internal/llm"
	"reddar/internal/report"
	"reddar/internal/tui"
	"reddar/internal/usage"
)

// NewChatCmd creates the chat command
func NewChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [focus-area]",
		Short: "Chat with a report interactively",
		Long: `Open an interactive chat over the cumulative report for a focus area.
The report is rendered into the model's context, so answers cite its
opportunities, stories, and insights.

Examples:
  reddar chat saas_opportunities
  reddar chat ai_news --clear`,
		Args: cobra.ExactArgs(1),
		Run:  chatRun,
	}

	cmd.Flags().Bool("clear", false, "Clear the stored conversation and exit")

	return cmd
}

func chatRun(cmd *cobra.Command, args []string) {
	cfg := config.Get()
	focusID := args[0]

	store := report.NewStore(cfg.Storage.ReportsDir)
	r, err := store.Load(focusID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to load report: %v\n", err)
		os.Exit(1)
	}
	if r == nil {
		fmt.Fprintf(os.Stderr, "❌ No report for %q yet. Run: reddar scan %s\n", focusID, focusID)
		os.Exit(1)
	}

	chatStore := chat.NewStore(filepath.Join(cfg.Storage.DataDir, "chats.json"))

	if clear, _ := cmd.Flags().GetBool("clear"); clear {
		cleared, err := chatStore.Clear(r.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ Failed to clear conversation: %v\n", err)
			os.Exit(1)
		}
		if cleared {
			fmt.Println("🧹 Conversation cleared.")
		} else {
			fmt.Println("No conversation to clear.")
		}
		return
	}

	recorder := usage.NewFileRecorder(filepath.Join(cfg.Storage.DataDir, "usage.json"))
	client, err := llm.NewClient("",
		llm.WithTimeout(config.GeminiTimeout()),
		llm.WithRecorder(recorder),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to initialize AI client: %v\n", err)
		fmt.Fprintf(os.Stderr, "💡 Make sure GEMINI_API_KEY is set in your environment or .env file\n")
		os.Exit(1)
	}

	session := chat.NewSession(client, chatStore, r)
	tui.StartChat(session)
}
