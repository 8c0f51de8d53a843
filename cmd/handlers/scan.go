package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"reddar/internal/analyze"
	"reddar/internal/config"
	"reddar/internal/core"
	"reddar/internal/llm"
	"reddar/internal/logger"
	"reddar/internal/report"
	"reddar/internal/scrape"
	"reddar/internal/usage"
)

// NewScanCmd creates the scan command
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [focus-area]",
		Short: "Scrape a focus area and fold the analysis into its report",
		Long: `Run the full pipeline for one focus area:

1. Scrape its subreddits through Reddit's JSON API
2. Analyze the posts with the LLM in batches
3. Merge the results into the cumulative report

The report grows across scans: new items are appended with an added_at
stamp, duplicates are folded away.

Examples:
  reddar scan saas_opportunities
  reddar scan ai_news --batch-size 30
  reddar scan local_llm --no-comments`,
		Args: cobra.MaximumNArgs(1),
		Run:  scanRun,
	}

	cmd.Flags().Int("batch-size", 0, "Posts per LLM batch (default from config)")
	cmd.Flags().Bool("no-comments", false, "Skip fetching post comments")

	return cmd
}

func scanRun(cmd *cobra.Command, args []string) {
	startTime := time.Now()
	cfg := config.Get()

	focusID := cfg.App.DefaultFocus
	if len(args) > 0 {
		focusID = args[0]
	}
	if focusID == "" {
		fmt.Fprintf(os.Stderr, "❌ No focus area given and no default_focus configured\n")
		os.Exit(1)
	}

	area, err := cfg.Area(focusID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	batchSize, _ := cmd.Flags().GetInt("batch-size")
	if batchSize <= 0 {
		batchSize = cfg.Analysis.BatchSize
	}
	noComments, _ := cmd.Flags().GetBool("no-comments")

	logger.Info("starting scan", "focus_area", focusID, "mode", area.Mode)

	// Scrape
	fmt.Printf("🔍 Scraping focus area: %s (%d subreddits)\n", area.Name, len(area.Subreddits))
	scraperCfg := cfg.Scraper
	if noComments {
		scraperCfg.CommentsPerPost = 0
	}
	scraper := scrape.NewScraper(scraperCfg)

	ctx := context.Background()
	data, err := scraper.ScrapeFocusArea(ctx, focusID, area)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Scrape failed: %v\n", err)
		os.Exit(1)
	}
	if data.TotalPosts == 0 {
		fmt.Fprintf(os.Stderr, "❌ No posts scraped, nothing to analyze\n")
		os.Exit(1)
	}

	scrapePath, err := scrape.SaveScrapeData(data, cfg.Storage.ScrapesDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to save scrape data: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("📦 Scraped %d posts → %s\n", data.TotalPosts, scrapePath)

	// Analyze
	fmt.Println("🔧 Initializing AI client...")
	recorder := usage.NewFileRecorder(filepath.Join(cfg.Storage.DataDir, "usage.json"))
	client, err := llm.NewClient("",
		llm.WithTimeout(config.GeminiTimeout()),
		llm.WithRecorder(recorder),
		llm.WithGeneration(cfg.Gemini.MaxTokens, cfg.Gemini.Temperature),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to initialize AI client: %v\n", err)
		fmt.Fprintf(os.Stderr, "💡 Make sure GEMINI_API_KEY is set in your environment or .env file\n")
		os.Exit(1)
	}

	analyzer := analyze.NewAnalyzer(client, client.Model(), batchSize)
	analyzer.OnProgress(func(percent int, status string) {
		fmt.Printf("  [%3d%%] %s\n", percent, status)
	})

	run, err := analyzer.Analyze(ctx, data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Analysis failed: %v\n", err)
		os.Exit(1)
	}
	if run.Analysis.IsError() {
		fmt.Printf("⚠️  Analysis degraded: %s\n", run.Analysis.Err)
	}

	// Merge and save
	store := report.NewStore(cfg.Storage.ReportsDir)
	merged, newItems, newSecondary, err := store.SaveMerged(run)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to save report: %v\n", err)
		os.Exit(1)
	}

	printScanSummary(merged, newItems, newSecondary, time.Since(startTime))
}

func printScanSummary(r *core.Report, newItems, newSecondary int, elapsed time.Duration) {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	primary, secondary := "opportunities", "pain points"
	var totalPrimary, totalSecondary int
	if r.Analysis.News != nil {
		primary, secondary = "stories", "releases"
		totalPrimary = len(r.Analysis.News.TopStories)
		totalSecondary = len(r.Analysis.News.NotableReleases)
	} else if r.Analysis.Opportunity != nil {
		totalPrimary = len(r.Analysis.Opportunity.Opportunities)
		totalSecondary = len(r.Analysis.Opportunity.PainPoints)
	}

	fmt.Println()
	fmt.Println(headerStyle.Render(fmt.Sprintf("✅ Scan complete: %s", r.FocusName)))
	fmt.Printf("%s +%d new, %d total\n", labelStyle.Render(fmt.Sprintf("%-14s", primary+":")), newItems, totalPrimary)
	fmt.Printf("%s +%d new, %d total\n", labelStyle.Render(fmt.Sprintf("%-14s", secondary+":")), newSecondary, totalSecondary)
	fmt.Printf("%s %d\n", labelStyle.Render("total scans:  "), r.TotalScans)
	fmt.Printf("%s %d\n", labelStyle.Render("posts so far: "), r.TotalPostsAnalyzed)
	fmt.Printf("%s %s\n", labelStyle.Render("elapsed:      "), elapsed.Round(time.Second))
}
