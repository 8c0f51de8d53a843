package handlers

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"reddar/internal/config"
	"reddar/internal/core"
	"reddar/internal/report"
)

// NewReportCmd creates the report command
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [focus-area]",
		Short: "Show the cumulative report for a focus area",
		Long: `Print the cumulative report for a focus area.

Examples:
  reddar report saas_opportunities
  reddar report ai_news --json`,
		Args: cobra.ExactArgs(1),
		Run:  reportRun,
	}

	cmd.Flags().Bool("json", false, "Print the raw report JSON")

	return cmd
}

func reportRun(cmd *cobra.Command, args []string) {
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

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ Failed to encode report: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}

	printReport(r)
}

func printReport(r *core.Report) {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	fmt.Println(headerStyle.Render("📊 " + r.FocusName))
	fmt.Println(dimStyle.Render(fmt.Sprintf("scans: %d | posts: %d | updated: %s",
		r.TotalScans, r.TotalPostsAnalyzed, r.UpdatedAt.Format("2006-01-02 15:04"))))
	fmt.Println(dimStyle.Render("subreddits: " + strings.Join(r.SubredditsAnalyzed, ", ")))
	fmt.Println()

	if r.Analysis.ExecutiveSummary != "" {
		fmt.Println(sectionStyle.Render("Executive Summary"))
		fmt.Println(r.Analysis.ExecutiveSummary)
		fmt.Println()
	}
	if r.Analysis.IsError() {
		fmt.Println(sectionStyle.Render("⚠️  Last run error"))
		fmt.Println(r.Analysis.Err)
		fmt.Println()
	}

	switch {
	case r.Analysis.News != nil:
		printNews(sectionStyle, dimStyle, r.Analysis.News)
	case r.Analysis.Opportunity != nil:
		printOpportunities(sectionStyle, dimStyle, r.Analysis.Opportunity)
	}
}

func printOpportunities(section, dim lipgloss.Style, a *core.OpportunityAnalysis) {
	fmt.Println(section.Render(fmt.Sprintf("Opportunities (%d)", len(a.Opportunities))))
	for _, o := range a.Opportunities {
		fmt.Printf("  • %s %s\n", o.Title, dim.Render(fmt.Sprintf("(potential: %s, difficulty: %s)", o.Potential, o.Difficulty)))
	}
	fmt.Println()

	fmt.Println(section.Render(fmt.Sprintf("Pain Points (%d)", len(a.PainPoints))))
	for _, p := range a.PainPoints {
		fmt.Printf("  • %s %s\n", p.Problem, dim.Render("(severity: "+p.Severity+")"))
	}
	fmt.Println()

	if len(a.TrendingTopics) > 0 {
		fmt.Println(section.Render("Trending Topics"))
		fmt.Println("  " + strings.Join(a.TrendingTopics, ", "))
		fmt.Println()
	}
	if len(a.RecommendedActions) > 0 {
		fmt.Println(section.Render("Recommended Actions"))
		for _, act := range a.RecommendedActions {
			fmt.Println("  • " + act)
		}
	}
}

func printNews(section, dim lipgloss.Style, a *core.NewsAnalysis) {
	fmt.Println(section.Render(fmt.Sprintf("Top Stories (%d)", len(a.TopStories))))
	for _, s := range a.TopStories {
		fmt.Printf("  • %s %s\n", s.Headline, dim.Render("["+s.Category+"] "+s.RedditURL))
	}
	fmt.Println()

	fmt.Println(section.Render(fmt.Sprintf("Notable Releases (%d)", len(a.NotableReleases))))
	for _, rel := range a.NotableReleases {
		fmt.Printf("  • %s: %s\n", rel.Name, rel.Description)
	}
	fmt.Println()

	if len(a.KeyTakeaways) > 0 {
		fmt.Println(section.Render("Key Takeaways"))
		for _, t := range a.KeyTakeaways {
			fmt.Println("  • " + t)
		}
	}
}
