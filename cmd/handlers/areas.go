package handlers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"reddar/internal/config"
)

// NewAreasCmd creates the areas command
func NewAreasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "areas",
		Short: "List configured focus areas",
		Long: `List every focus area defined in the configuration, with its mode and
subreddits.

Examples:
  reddar areas`,
		Run: areasRun,
	}
}

func areasRun(cmd *cobra.Command, args []string) {
	cfg := config.Get()

	if len(cfg.FocusAreas) == 0 {
		fmt.Println("No focus areas configured. Add a focus_areas section to .reddar.yaml")
		return
	}

	idStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	modeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ids := make([]string, 0, len(cfg.FocusAreas))
	for id := range cfg.FocusAreas {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		area, _ := cfg.Area(id)
		marker := "  "
		if id == cfg.App.DefaultFocus {
			marker = "* "
		}
		fmt.Printf("%s%s  %s\n", marker, idStyle.Render(id), modeStyle.Render("["+area.Mode+"]"))
		fmt.Printf("    %s\n", area.Name)
		if area.Description != "" {
			fmt.Printf("    %s\n", area.Description)
		}
		fmt.Printf("    subreddits: %s\n\n", strings.Join(area.Subreddits, ", "))
	}
}
