package analyze

import (
	"strings"

	"reddar/internal/core"
)

// Caps applied when combining per-batch analyses into one run analysis.
const (
	batchMaxTopics      = 20
	batchMaxActions     = 10
	batchMaxStories     = 15
	batchMaxReleases    = 10
	batchMaxTools       = 15
	batchMaxDiscussions = 20
	batchMaxTakeaways   = 10
)

// MergeBatches combines per-batch analyses into one analysis for the run.
// Error-shaped entries and entries without the expected payload are skipped.
// Executive summaries from the first three batches are joined; primary lists
// are deduplicated by their key field keeping the first occurrence.
func MergeBatches(analyses []core.Analysis, mode core.Mode) core.Analysis {
	if mode == core.ModeNews {
		return mergeNewsBatches(analyses)
	}
	return mergeOpportunityBatches(analyses)
}

func mergeOpportunityBatches(analyses []core.Analysis) core.Analysis {
	merged := core.OpportunityAnalysis{
		Opportunities:      []core.Opportunity{},
		PainPoints:         []core.PainPoint{},
		MarketInsights:     []core.MarketInsight{},
		TrendingTopics:     []string{},
		RecommendedActions: []string{},
	}

	var summaries []string
	for _, a := range analyses {
		if a.IsError() || a.Opportunity == nil {
			continue
		}
		if a.ExecutiveSummary != "" {
			summaries = append(summaries, a.ExecutiveSummary)
		}
		merged.Opportunities = append(merged.Opportunities, a.Opportunity.Opportunities...)
		merged.PainPoints = append(merged.PainPoints, a.Opportunity.PainPoints...)
		merged.MarketInsights = append(merged.MarketInsights, a.Opportunity.MarketInsights...)
		merged.TrendingTopics = append(merged.TrendingTopics, a.Opportunity.TrendingTopics...)
		merged.RecommendedActions = append(merged.RecommendedActions, a.Opportunity.RecommendedActions...)
	}

	merged.Opportunities = dedupeBy(merged.Opportunities, func(o core.Opportunity) string { return o.Title })
	merged.PainPoints = dedupeBy(merged.PainPoints, func(p core.PainPoint) string { return p.Problem })
	merged.TrendingTopics = capStrings(dedupeStrings(merged.TrendingTopics), batchMaxTopics)
	merged.RecommendedActions = capStrings(dedupeStrings(merged.RecommendedActions), batchMaxActions)

	return core.Analysis{
		ExecutiveSummary: joinSummaries(summaries),
		Opportunity:      &merged,
	}
}

func mergeNewsBatches(analyses []core.Analysis) core.Analysis {
	merged := core.NewsAnalysis{
		TopStories:          []core.TopStory{},
		NotableReleases:     []core.NotableRelease{},
		TrendingDiscussions: []core.TrendingDiscussion{},
		ToolsMentioned:      []core.ToolMention{},
		KeyTakeaways:        []string{},
	}

	var summaries []string
	for _, a := range analyses {
		if a.IsError() || a.News == nil {
			continue
		}
		if a.ExecutiveSummary != "" {
			summaries = append(summaries, a.ExecutiveSummary)
		}
		merged.TopStories = append(merged.TopStories, a.News.TopStories...)
		merged.NotableReleases = append(merged.NotableReleases, a.News.NotableReleases...)
		merged.TrendingDiscussions = append(merged.TrendingDiscussions, a.News.TrendingDiscussions...)
		merged.ToolsMentioned = append(merged.ToolsMentioned, a.News.ToolsMentioned...)
		merged.KeyTakeaways = append(merged.KeyTakeaways, a.News.KeyTakeaways...)
	}

	merged.TopStories = capSlice(dedupeBy(merged.TopStories, func(s core.TopStory) string { return s.Headline }), batchMaxStories)
	merged.NotableReleases = capSlice(dedupeBy(merged.NotableReleases, func(r core.NotableRelease) string { return r.Name }), batchMaxReleases)
	merged.ToolsMentioned = capSlice(dedupeBy(merged.ToolsMentioned, func(t core.ToolMention) string { return t.Name }), batchMaxTools)
	merged.TrendingDiscussions = capSlice(merged.TrendingDiscussions, batchMaxDiscussions)
	merged.KeyTakeaways = capStrings(dedupeStrings(merged.KeyTakeaways), batchMaxTakeaways)

	return core.Analysis{
		ExecutiveSummary: joinSummaries(summaries),
		News:             &merged,
	}
}

// joinSummaries combines the first three batch summaries into one.
func joinSummaries(summaries []string) string {
	if len(summaries) > 3 {
		summaries = summaries[:3]
	}
	return strings.Join(summaries, " ")
}

// dedupeBy keeps the first item for each normalized key; items with an empty
// key are dropped.
func dedupeBy[T any](items []T, key func(T) string) []T {
	seen := make(map[string]bool)
	out := make([]T, 0, len(items))
	for _, item := range items {
		k := strings.TrimSpace(strings.ToLower(key(item)))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, item)
	}
	return out
}

// dedupeStrings removes exact duplicates preserving first-seen order.
func dedupeStrings(items []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(items))
	for _, s := range items {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func capSlice[T any](items []T, limit int) []T {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}

func capStrings(items []string, limit int) []string {
	return capSlice(items, limit)
}
