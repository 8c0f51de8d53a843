package handlers

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"reddar/internal/config"
)

var cfgFile string

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "reddar",
		Short: "Reddit intelligence agent: scrape, analyze, track",
		Long: `Reddar - Reddit Intelligence Agent

Monitors topic-grouped subreddits, runs the posts through an LLM, and keeps
a cumulative report per focus area that grows with every scan.

Core workflows:
  • Scan: scrape a focus area → analyze in batches → merge into its report
  • Report: inspect the cumulative report for a focus area
  • Chat: ask questions about a report interactively

Examples:
  # Scan a focus area end to end
  reddar scan saas_opportunities

  # List configured focus areas
  reddar areas

  # Show the cumulative report
  reddar report saas_opportunities

  # Chat with a report
  reddar chat saas_opportunities`,
		Version: "1.0.0",
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .reddar.yaml)")

	rootCmd.AddCommand(NewScanCmd())
	rootCmd.AddCommand(NewAreasCmd())
	rootCmd.AddCommand(NewReportCmd())
	rootCmd.AddCommand(NewUsageCmd())
	rootCmd.AddCommand(NewChatCmd())

	cobra.OnInitialize(initConfig)

	return rootCmd
}

// initConfig reads in config file and ENV variables
func initConfig() {
	_, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load config: %v\n", err)
		// Don't exit - allow running with just environment variables
	}
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
