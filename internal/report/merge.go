package report

import (
	"strings"
	"time"

	"reddar/internal/core"
)

// Caps applied to news-mode lists after a report merge. Truncation keeps the
// earliest entries, so long-standing items survive over churn.
const (
	reportMaxStories     = 30
	reportMaxReleases    = 20
	reportMaxDiscussions = 20
	reportMaxTools       = 25
	reportMaxTakeaways   = 15
)

// fuzzyThreshold is the word-set overlap above which two items are the same.
// Overlap of exactly 0.7 is not a duplicate.
const fuzzyThreshold = 0.7

// Merge folds a new run into an existing cumulative report. Items the
// existing report does not already contain (by exact or fuzzy key match) are
// appended with an added_at stamp from the new run. It returns the merged
// report plus the counts of new primary and secondary items for the scan
// record.
func Merge(existing *core.Report, run *core.RunReport) (*core.Report, int, int) {
	stamp := run.GeneratedAt.UTC().Format(time.RFC3339)

	var analysis core.Analysis
	var newItems, newSecondary int
	if existing.Analysis.News != nil || run.Analysis.News != nil {
		analysis, newItems, newSecondary = mergeNews(existing.Analysis, run.Analysis, stamp)
	} else {
		analysis, newItems, newSecondary = mergeOpportunities(existing.Analysis, run.Analysis, stamp)
	}

	history := append(existing.ScanHistory, core.ScanRecord{
		ScannedAt:     run.GeneratedAt,
		PostsAnalyzed: run.PostsAnalyzed,
		NewItems:      newItems,
		NewSecondary:  newSecondary,
		Subreddits:    run.SubredditsAnalyzed,
	})

	merged := &core.Report{
		ID:                 "report_" + existing.FocusArea,
		FocusArea:          existing.FocusArea,
		FocusName:          existing.FocusName,
		CreatedAt:          existing.CreatedAt,
		UpdatedAt:          run.GeneratedAt,
		TotalScans:         len(history),
		SubredditsAnalyzed: unionStrings(existing.SubredditsAnalyzed, run.SubredditsAnalyzed),
		TotalPostsAnalyzed: existing.TotalPostsAnalyzed + run.PostsAnalyzed,
		Analysis:           analysis,
		ScanHistory:        history,
		Metadata:           run.Metadata,
	}
	return merged, newItems, newSecondary
}

// FirstRun turns a run report into the initial cumulative report for a focus
// area. The run's analysis is carried verbatim: first-run items get no
// added_at stamp.
func FirstRun(run *core.RunReport) (*core.Report, int, int) {
	newItems, newSecondary := primaryCounts(run.Analysis)

	return &core.Report{
		ID:                 "report_" + run.FocusArea,
		FocusArea:          run.FocusArea,
		FocusName:          run.FocusName,
		CreatedAt:          run.GeneratedAt,
		UpdatedAt:          run.GeneratedAt,
		TotalScans:         1,
		SubredditsAnalyzed: run.SubredditsAnalyzed,
		TotalPostsAnalyzed: run.PostsAnalyzed,
		Analysis:           run.Analysis,
		ScanHistory: []core.ScanRecord{{
			ScannedAt:     run.GeneratedAt,
			PostsAnalyzed: run.PostsAnalyzed,
			NewItems:      newItems,
			NewSecondary:  newSecondary,
			Subreddits:    run.SubredditsAnalyzed,
		}},
		Metadata: run.Metadata,
	}, newItems, newSecondary
}

func primaryCounts(a core.Analysis) (int, int) {
	if a.News != nil {
		return len(a.News.TopStories), len(a.News.NotableReleases)
	}
	if a.Opportunity != nil {
		return len(a.Opportunity.Opportunities), len(a.Opportunity.PainPoints)
	}
	return 0, 0
}

func mergeOpportunities(existing, incoming core.Analysis, stamp string) (core.Analysis, int, int) {
	var ex core.OpportunityAnalysis
	if existing.Opportunity != nil {
		ex = *existing.Opportunity
	}
	var in core.OpportunityAnalysis
	if incoming.Opportunity != nil {
		in = *incoming.Opportunity
	}

	opps, newOpps := mergeList(ex.Opportunities, in.Opportunities,
		func(o core.Opportunity) string { return o.Title },
		func(o *core.Opportunity, at string) { o.AddedAt = at },
		0, stamp)
	pains, newPains := mergeList(ex.PainPoints, in.PainPoints,
		func(p core.PainPoint) string { return p.Problem },
		func(p *core.PainPoint, at string) { p.AddedAt = at },
		0, stamp)

	// Insights only dedupe by exact text against the pre-merge report.
	insights := append([]core.MarketInsight{}, ex.MarketInsights...)
	existingTexts := make(map[string]bool, len(ex.MarketInsights))
	for _, i := range ex.MarketInsights {
		existingTexts[strings.ToLower(i.Insight)] = true
	}
	for _, insight := range in.MarketInsights {
		if existingTexts[strings.ToLower(insight.Insight)] {
			continue
		}
		insight.AddedAt = stamp
		insights = append(insights, insight)
	}

	actions := in.RecommendedActions
	if len(actions) == 0 {
		actions = ex.RecommendedActions
	}

	merged := core.OpportunityAnalysis{
		Opportunities:      opps,
		PainPoints:         pains,
		MarketInsights:     insights,
		TrendingTopics:     unionStrings(ex.TrendingTopics, in.TrendingTopics),
		RecommendedActions: actions,
	}
	return core.Analysis{
		ExecutiveSummary: pickSummary(incoming.ExecutiveSummary, existing.ExecutiveSummary),
		Opportunity:      &merged,
	}, newOpps, newPains
}

func mergeNews(existing, incoming core.Analysis, stamp string) (core.Analysis, int, int) {
	var ex core.NewsAnalysis
	if existing.News != nil {
		ex = *existing.News
	}
	var in core.NewsAnalysis
	if incoming.News != nil {
		in = *incoming.News
	}

	stories, newStories := mergeList(ex.TopStories, in.TopStories,
		func(s core.TopStory) string { return s.Headline },
		func(s *core.TopStory, at string) { s.AddedAt = at },
		reportMaxStories, stamp)
	releases, newReleases := mergeList(ex.NotableReleases, in.NotableReleases,
		func(r core.NotableRelease) string { return r.Name },
		func(r *core.NotableRelease, at string) { r.AddedAt = at },
		reportMaxReleases, stamp)
	discussions, _ := mergeList(ex.TrendingDiscussions, in.TrendingDiscussions,
		func(d core.TrendingDiscussion) string { return d.Topic },
		func(d *core.TrendingDiscussion, at string) { d.AddedAt = at },
		reportMaxDiscussions, stamp)
	tools, _ := mergeList(ex.ToolsMentioned, in.ToolsMentioned,
		func(t core.ToolMention) string { return t.Name },
		func(t *core.ToolMention, at string) { t.AddedAt = at },
		reportMaxTools, stamp)

	takeaways := append([]string{}, ex.KeyTakeaways...)
	for _, t := range in.KeyTakeaways {
		if !containsString(takeaways, t) {
			takeaways = append(takeaways, t)
		}
	}
	if len(takeaways) > reportMaxTakeaways {
		takeaways = takeaways[:reportMaxTakeaways]
	}

	merged := core.NewsAnalysis{
		TopStories:          stories,
		NotableReleases:     releases,
		TrendingDiscussions: discussions,
		ToolsMentioned:      tools,
		KeyTakeaways:        takeaways,
	}
	return core.Analysis{
		ExecutiveSummary: pickSummary(incoming.ExecutiveSummary, existing.ExecutiveSummary),
		News:             &merged,
	}, newStories, newReleases
}

// mergeList appends new items not already present, stamping each appended
// item with addedAt. Duplicates are checked against the growing list, so two
// similar new items collapse to one. A limit > 0 truncates after the merge,
// keeping the earliest entries. Returns the merged list and how many items
// were appended before truncation.
func mergeList[T any](existing, incoming []T, key func(T) string, setStamp func(*T, string), limit int, addedAt string) ([]T, int) {
	merged := append([]T{}, existing...)
	newCount := 0
	for _, item := range incoming {
		if isDuplicate(key(item), merged, key) {
			continue
		}
		setStamp(&item, addedAt)
		merged = append(merged, item)
		newCount++
	}
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, newCount
}

// isDuplicate reports whether an item with the given key already exists in
// the list, by exact case-insensitive match or by word-set overlap above the
// fuzzy threshold. An empty key never matches anything.
func isDuplicate[T any](itemKey string, list []T, key func(T) string) bool {
	newVal := strings.TrimSpace(strings.ToLower(itemKey))
	if newVal == "" {
		return false
	}
	newWords := wordSet(newVal)
	for _, existing := range list {
		existingVal := strings.TrimSpace(strings.ToLower(key(existing)))
		if newVal == existingVal {
			return true
		}
		existingWords := wordSet(existingVal)
		if len(newWords) > 0 && len(existingWords) > 0 {
			if wordOverlap(newWords, existingWords) > fuzzyThreshold {
				return true
			}
		}
	}
	return false
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		set[w] = true
	}
	return set
}

// wordOverlap is |intersection| / max(|a|, |b|).
func wordOverlap(a, b map[string]bool) float64 {
	shared := 0
	for w := range a {
		if b[w] {
			shared++
		}
	}
	larger := len(a)
	if len(b) > larger {
		larger = len(b)
	}
	return float64(shared) / float64(larger)
}

// unionStrings concatenates two lists dropping exact duplicates, preserving
// first-seen order.
func unionStrings(a, b []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// pickSummary prefers the new summary when it says anything.
func pickSummary(incoming, existing string) string {
	if incoming != "" {
		return incoming
	}
	return existing
}
