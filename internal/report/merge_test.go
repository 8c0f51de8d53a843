package report

import (
	"fmt"
	"testing"
	"time"

	"reddar/internal/core"
)

func runReport(generatedAt time.Time, a core.Analysis, posts int) *core.RunReport {
	return &core.RunReport{
		ID:                 "report_" + generatedAt.Format("20060102_150405"),
		FocusArea:          "saas_opportunities",
		FocusName:          "SaaS Opportunities",
		GeneratedAt:        generatedAt,
		SubredditsAnalyzed: []string{"SaaS"},
		PostsAnalyzed:      posts,
		Analysis:           a,
		Metadata:           core.Metadata{Model: "test-model", BatchesUsed: 1},
	}
}

func oppAnalysis(titles ...string) core.Analysis {
	opps := make([]core.Opportunity, len(titles))
	for i, title := range titles {
		opps[i] = core.Opportunity{Title: title}
	}
	return core.Analysis{
		ExecutiveSummary: "summary",
		Opportunity:      &core.OpportunityAnalysis{Opportunities: opps},
	}
}

func TestFirstRunShape(t *testing.T) {
	gen := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	run := runReport(gen, oppAnalysis("A", "B"), 40)

	r, newItems, newSecondary := FirstRun(run)
	if r.TotalScans != 1 {
		t.Errorf("total_scans = %d, want 1", r.TotalScans)
	}
	if !r.CreatedAt.Equal(gen) || !r.UpdatedAt.Equal(gen) {
		t.Errorf("created_at/updated_at = %v/%v, want generated_at", r.CreatedAt, r.UpdatedAt)
	}
	if r.ID != "report_saas_opportunities" {
		t.Errorf("id = %q", r.ID)
	}
	if r.TotalPostsAnalyzed != 40 {
		t.Errorf("total_posts_analyzed = %d", r.TotalPostsAnalyzed)
	}
	if newItems != 2 || newSecondary != 0 {
		t.Errorf("counts = %d/%d, want 2/0", newItems, newSecondary)
	}
	for _, o := range r.Analysis.Opportunity.Opportunities {
		if o.AddedAt != "" {
			t.Errorf("first-run item %q must not carry an added_at stamp", o.Title)
		}
	}
	if len(r.ScanHistory) != 1 || r.ScanHistory[0].NewItems != 2 {
		t.Errorf("scan history = %+v", r.ScanHistory)
	}
}

func TestMergeMonotonicGrowth(t *testing.T) {
	gen1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r, _, _ := FirstRun(runReport(gen1, oppAnalysis("A"), 10))

	for i := 2; i <= 4; i++ {
		gen := gen1.AddDate(0, i-1, 0)
		prevPosts := r.TotalPostsAnalyzed
		prevScans := len(r.ScanHistory)

		r, _, _ = Merge(r, runReport(gen, oppAnalysis(fmt.Sprintf("Opp %d", i)), 10))

		if r.TotalPostsAnalyzed < prevPosts {
			t.Errorf("total_posts_analyzed shrank: %d -> %d", prevPosts, r.TotalPostsAnalyzed)
		}
		if len(r.ScanHistory) != prevScans+1 {
			t.Errorf("scan history grew by %d, want 1", len(r.ScanHistory)-prevScans)
		}
		if r.TotalScans != len(r.ScanHistory) {
			t.Errorf("total_scans = %d, history = %d", r.TotalScans, len(r.ScanHistory))
		}
	}
}

func TestMergeCaseInsensitiveExactDedup(t *testing.T) {
	gen1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	existing, _, _ := FirstRun(runReport(gen1, oppAnalysis("A"), 10))

	gen2 := gen1.AddDate(0, 1, 0)
	merged, newItems, _ := Merge(existing, runReport(gen2, oppAnalysis("a"), 10))

	opps := merged.Analysis.Opportunity.Opportunities
	if len(opps) != 1 {
		t.Fatalf("opportunities = %d, want 1", len(opps))
	}
	if opps[0].Title != "A" {
		t.Errorf("title = %q, first-seen casing must win", opps[0].Title)
	}
	if newItems != 0 {
		t.Errorf("new_items = %d, want 0", newItems)
	}
}

func TestMergeFuzzyThresholdBoundary(t *testing.T) {
	// Exactly 0.70 overlap: 7 shared words out of max set size 10. Not a dup.
	existing10 := "w1 w2 w3 w4 w5 w6 w7 w8 w9 w10"
	incoming70 := "w1 w2 w3 w4 w5 w6 w7 x1 x2 x3"
	// Above 0.70: 5 shared of max 7 (~0.714). A dup.
	existing7 := "v1 v2 v3 v4 v5 v6 v7"
	incoming71 := "v1 v2 v3 v4 v5 y1 y2"

	gen1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	first := core.Analysis{Opportunity: &core.OpportunityAnalysis{
		PainPoints: []core.PainPoint{{Problem: existing10}, {Problem: existing7}},
	}}
	existing, _, _ := FirstRun(runReport(gen1, first, 10))

	gen2 := gen1.AddDate(0, 1, 0)
	incoming := core.Analysis{Opportunity: &core.OpportunityAnalysis{
		PainPoints: []core.PainPoint{{Problem: incoming70}, {Problem: incoming71}},
	}}
	merged, _, newSecondary := Merge(existing, runReport(gen2, incoming, 10))

	pains := merged.Analysis.Opportunity.PainPoints
	if len(pains) != 3 {
		t.Fatalf("pain points = %d, want 3 (0.70 overlap kept, 0.71 folded)", len(pains))
	}
	if newSecondary != 1 {
		t.Errorf("new_secondary = %d, want 1", newSecondary)
	}
	if pains[2].AddedAt == "" {
		t.Error("appended pain point must carry the run's added_at stamp")
	}
}

func TestMergeNewsCapKeepsEarliest(t *testing.T) {
	gen1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var existingStories []core.TopStory
	for i := 0; i < 10; i++ {
		existingStories = append(existingStories, core.TopStory{Headline: fmt.Sprintf("Existing headline number %d", i)})
	}
	first := core.Analysis{News: &core.NewsAnalysis{TopStories: existingStories}}
	existing, _, _ := FirstRun(runReport(gen1, first, 10))

	var newStories []core.TopStory
	for i := 0; i < 40; i++ {
		// Disjoint word sets so no pair trips the fuzzy matcher.
		newStories = append(newStories, core.TopStory{Headline: fmt.Sprintf("alpha%d beta%d gamma%d", i, i, i)})
	}
	gen2 := gen1.AddDate(0, 1, 0)
	incoming := core.Analysis{News: &core.NewsAnalysis{TopStories: newStories}}
	merged, _, _ := Merge(existing, runReport(gen2, incoming, 10))

	stories := merged.Analysis.News.TopStories
	if len(stories) != reportMaxStories {
		t.Fatalf("stories = %d, want %d", len(stories), reportMaxStories)
	}
	for i := 0; i < 10; i++ {
		if stories[i].Headline != existingStories[i].Headline {
			t.Fatalf("existing story %d displaced: %q", i, stories[i].Headline)
		}
	}
	// The remaining 20 slots hold the earliest-appended new stories.
	if stories[10].Headline != newStories[0].Headline {
		t.Errorf("slot 10 = %q, want earliest new story", stories[10].Headline)
	}
}

func TestMergeExampleScenario(t *testing.T) {
	existing := &core.Report{
		ID:        "report_saas_opportunities",
		FocusArea: "saas_opportunities",
		FocusName: "SaaS Opportunities",
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		TotalScans: 1,
		Analysis: core.Analysis{Opportunity: &core.OpportunityAnalysis{
			Opportunities: []core.Opportunity{{Title: "AI Meeting Notes", AddedAt: "2024-01-01T00:00:00Z"}},
		}},
		ScanHistory: []core.ScanRecord{{ScannedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}},
	}

	gen := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	run := runReport(gen, oppAnalysis("ai meeting notes", "Invoice Automation"), 10)

	merged, newItems, _ := Merge(existing, run)
	opps := merged.Analysis.Opportunity.Opportunities
	if len(opps) != 2 {
		t.Fatalf("opportunities = %d, want 2", len(opps))
	}
	if opps[0].Title != "AI Meeting Notes" || opps[0].AddedAt != "2024-01-01T00:00:00Z" {
		t.Errorf("existing entry changed: %+v", opps[0])
	}
	if opps[1].Title != "Invoice Automation" || opps[1].AddedAt != "2024-02-01T00:00:00Z" {
		t.Errorf("new entry = %+v, want added_at 2024-02-01T00:00:00Z", opps[1])
	}
	if merged.TotalScans != 2 {
		t.Errorf("total_scans = %d, want 2", merged.TotalScans)
	}
	if newItems != 1 {
		t.Errorf("new_items = %d, want 1", newItems)
	}
}

func TestMergeEnvelopeRules(t *testing.T) {
	gen1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	existing, _, _ := FirstRun(runReport(gen1, oppAnalysis("A"), 10))
	existing.SubredditsAnalyzed = []string{"SaaS", "startups"}

	gen2 := gen1.AddDate(0, 1, 0)
	run := runReport(gen2, core.Analysis{Opportunity: &core.OpportunityAnalysis{}}, 15)
	run.SubredditsAnalyzed = []string{"startups", "smallbusiness"}
	run.Metadata = core.Metadata{Model: "newer-model", BatchesUsed: 2}

	merged, _, _ := Merge(existing, run)
	if !merged.CreatedAt.Equal(gen1) {
		t.Errorf("created_at = %v, must be preserved", merged.CreatedAt)
	}
	if !merged.UpdatedAt.Equal(gen2) {
		t.Errorf("updated_at = %v, want new generated_at", merged.UpdatedAt)
	}
	want := []string{"SaaS", "startups", "smallbusiness"}
	if len(merged.SubredditsAnalyzed) != len(want) {
		t.Fatalf("subreddits = %v, want %v", merged.SubredditsAnalyzed, want)
	}
	for i, s := range want {
		if merged.SubredditsAnalyzed[i] != s {
			t.Errorf("subreddits[%d] = %q, want %q", i, merged.SubredditsAnalyzed[i], s)
		}
	}
	if merged.TotalPostsAnalyzed != 25 {
		t.Errorf("total_posts_analyzed = %d, want 25", merged.TotalPostsAnalyzed)
	}
	if merged.Metadata.Model != "newer-model" {
		t.Errorf("metadata must come from the newest run: %+v", merged.Metadata)
	}
	// Blank new summary keeps the existing one.
	if merged.Analysis.ExecutiveSummary != "summary" {
		t.Errorf("summary = %q, want existing kept", merged.Analysis.ExecutiveSummary)
	}
}

func TestMergeEmptyActionsKeepExisting(t *testing.T) {
	gen1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	first := core.Analysis{Opportunity: &core.OpportunityAnalysis{
		RecommendedActions: []string{"do the thing"},
	}}
	existing, _, _ := FirstRun(runReport(gen1, first, 10))

	gen2 := gen1.AddDate(0, 1, 0)
	incoming := core.Analysis{Opportunity: &core.OpportunityAnalysis{}}
	merged, _, _ := Merge(existing, runReport(gen2, incoming, 10))

	actions := merged.Analysis.Opportunity.RecommendedActions
	if len(actions) != 1 || actions[0] != "do the thing" {
		t.Errorf("actions = %v, empty new list must keep existing", actions)
	}
}

func TestMergeEmptyKeyNeverDuplicates(t *testing.T) {
	gen1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	first := core.Analysis{Opportunity: &core.OpportunityAnalysis{
		Opportunities: []core.Opportunity{{Title: ""}},
	}}
	existing, _, _ := FirstRun(runReport(gen1, first, 10))

	gen2 := gen1.AddDate(0, 1, 0)
	incoming := core.Analysis{Opportunity: &core.OpportunityAnalysis{
		Opportunities: []core.Opportunity{{Title: ""}},
	}}
	merged, newItems, _ := Merge(existing, runReport(gen2, incoming, 10))

	if len(merged.Analysis.Opportunity.Opportunities) != 2 {
		t.Errorf("empty-key items must never match each other: %d", len(merged.Analysis.Opportunity.Opportunities))
	}
	if newItems != 1 {
		t.Errorf("new_items = %d, want 1", newItems)
	}
}
