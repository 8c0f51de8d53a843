package chat

import (
	"fmt"
	"strings"

	"reddar/internal/core"
)

// ReportContext renders a report into the system-prompt context for chat.
func ReportContext(report *core.Report) string {
	if report.Analysis.News != nil {
		return newsContext(report)
	}
	return opportunitiesContext(report)
}

func opportunitiesContext(report *core.Report) string {
	var a core.OpportunityAnalysis
	if report.Analysis.Opportunity != nil {
		a = *report.Analysis.Opportunity
	}

	var opps []string
	for _, o := range head(a.Opportunities, 10) {
		opps = append(opps, fmt.Sprintf("- **%s**: %s... (Potential: %s, Difficulty: %s)",
			o.Title, clip(o.Description, 200), orUnknown(o.Potential), orUnknown(o.Difficulty)))
	}

	var pains []string
	for _, p := range head(a.PainPoints, 10) {
		pains = append(pains, fmt.Sprintf("- **%s**: Severity %s, Current solutions: %s...",
			p.Problem, orUnknown(p.Severity), clip(p.CurrentSolutions, 100)))
	}

	var insights []string
	for _, i := range head(a.MarketInsights, 5) {
		insights = append(insights, "- "+i.Insight)
	}

	var actions []string
	for _, act := range head(a.RecommendedActions, 5) {
		actions = append(actions, "- "+act)
	}

	subs := report.SubredditsAnalyzed
	subsLine := strings.Join(head(subs, 8), ", ")
	if len(subs) > 8 {
		subsLine += "..."
	}

	return fmt.Sprintf(`You are an intelligent assistant for the Reddar Reddit Intelligence platform. You help users understand and explore business opportunity reports extracted from Reddit discussions.

## Report: %s
**Last Updated:** %s
**Posts Analyzed:** %d
**Subreddits:** %s

## Executive Summary
%s

## Opportunities (%d identified)
%s

## Pain Points (%d identified)
%s

## Market Insights
%s

## Trending Topics
%s

## Recommended Actions
%s

---
You have full knowledge of this report. Answer questions thoroughly, cite specific opportunities or pain points when relevant, and provide actionable business insights. If asked about something not covered in the report, acknowledge that and offer your best general guidance.`,
		report.FocusName,
		report.UpdatedAt.Format("2006-01-02T15:04"),
		report.TotalPostsAnalyzed,
		subsLine,
		orText(report.Analysis.ExecutiveSummary, "No summary available."),
		len(a.Opportunities), orText(strings.Join(opps, "\n"), "None identified yet."),
		len(a.PainPoints), orText(strings.Join(pains, "\n"), "None identified yet."),
		orText(strings.Join(insights, "\n"), "None available."),
		orText(strings.Join(head(a.TrendingTopics, 10), ", "), "None identified."),
		orText(strings.Join(actions, "\n"), "None available."),
	)
}

func newsContext(report *core.Report) string {
	a := *report.Analysis.News

	var stories []string
	for _, s := range head(a.TopStories, 10) {
		cat := s.Category
		if cat == "" {
			cat = "general"
		}
		stories = append(stories, fmt.Sprintf("- **%s** [%s]: %s...", s.Headline, cat, clip(s.Summary, 150)))
	}

	var releases []string
	for _, r := range head(a.NotableReleases, 8) {
		releases = append(releases, fmt.Sprintf("- **%s**: %s...", r.Name, clip(r.Description, 100)))
	}

	var discussions []string
	for _, d := range head(a.TrendingDiscussions, 5) {
		sentiment := d.Sentiment
		if sentiment == "" {
			sentiment = "neutral"
		}
		discussions = append(discussions, fmt.Sprintf("- **%s**: %s... (Sentiment: %s)", d.Topic, clip(d.Summary, 100), sentiment))
	}

	var tools []string
	for _, t := range head(a.ToolsMentioned, 10) {
		sentiment := t.Sentiment
		if sentiment == "" {
			sentiment = "neutral"
		}
		tools = append(tools, fmt.Sprintf("- **%s**: %s mentions, sentiment: %s", t.Name, orText(t.Mentions, "N/A"), sentiment))
	}

	var takeaways []string
	for _, t := range head(a.KeyTakeaways, 5) {
		takeaways = append(takeaways, "- "+t)
	}

	return fmt.Sprintf(`You are an intelligent assistant for the Reddar Reddit Intelligence platform. You help users understand AI, ML, and open-source news and developments extracted from Reddit discussions.

## Report: %s
**Last Updated:** %s
**Posts Analyzed:** %d

## Executive Summary
%s

## Top Stories (%d found)
%s

## Notable Releases (%d found)
%s

## Trending Discussions
%s

## Tools & Projects Mentioned (%d found)
%s

## Key Takeaways
%s

---
You have full knowledge of this news report. Help users understand the latest developments, compare tools and models, identify trends, and provide context about the AI/ML ecosystem. Cite specific stories or releases when relevant.`,
		report.FocusName,
		report.UpdatedAt.Format("2006-01-02T15:04"),
		report.TotalPostsAnalyzed,
		orText(report.Analysis.ExecutiveSummary, "No summary available."),
		len(a.TopStories), orText(strings.Join(stories, "\n"), "None identified yet."),
		len(a.NotableReleases), orText(strings.Join(releases, "\n"), "None identified yet."),
		orText(strings.Join(discussions, "\n"), "None identified yet."),
		len(a.ToolsMentioned), orText(strings.Join(tools, "\n"), "None mentioned."),
		orText(strings.Join(takeaways, "\n"), "None available."),
	)
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func orUnknown(s string) string {
	return orText(s, "unknown")
}

func orText(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
