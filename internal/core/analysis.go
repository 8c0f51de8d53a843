package core

import "encoding/json"

// Opportunity is one identified business opportunity.
type Opportunity struct {
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	Evidence      []string `json:"evidence,omitempty"`
	DemandSignals string   `json:"demand_signals,omitempty"`
	Competition   string   `json:"competition,omitempty"`
	Difficulty    string   `json:"difficulty,omitempty"` // low/medium/high
	Potential     string   `json:"potential,omitempty"`  // low/medium/high
	Tags          []string `json:"tags,omitempty"`
	AddedAt       string   `json:"added_at,omitempty"` // Run timestamp that introduced the item; absent for first-run items
}

// PainPoint is one recurring problem surfaced from the discussions.
type PainPoint struct {
	Problem          string   `json:"problem"`
	Frequency        string   `json:"frequency,omitempty"`
	Severity         string   `json:"severity,omitempty"` // low/medium/high
	CurrentSolutions string   `json:"current_solutions,omitempty"`
	SourcePosts      []string `json:"source_posts,omitempty"`
	AddedAt          string   `json:"added_at,omitempty"`
}

// MarketInsight is a standalone observation about the market.
type MarketInsight struct {
	Insight    string `json:"insight"`
	Evidence   string `json:"evidence,omitempty"`
	Actionable bool   `json:"actionable"`
	AddedAt    string `json:"added_at,omitempty"`
}

// TopStory is one news-mode headline.
type TopStory struct {
	Headline   string   `json:"headline"`
	Summary    string   `json:"summary,omitempty"`
	RedditURL  string   `json:"reddit_url,omitempty"`
	Subreddit  string   `json:"subreddit,omitempty"`
	Engagement string   `json:"engagement,omitempty"`
	Importance string   `json:"importance,omitempty"` // low/medium/high
	Category   string   `json:"category,omitempty"`   // release/update/research/tool/discussion/drama
	Tags       []string `json:"tags,omitempty"`
	Links      []string `json:"links,omitempty"`
	AddedAt    string   `json:"added_at,omitempty"`
}

// NotableRelease is a newly released project, model, or tool.
type NotableRelease struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	WhyNotable  string   `json:"why_notable,omitempty"`
	RedditURL   string   `json:"reddit_url,omitempty"`
	Links       []string `json:"links,omitempty"`
	AddedAt     string   `json:"added_at,omitempty"`
}

// TrendingDiscussion is a debate the community is currently having.
type TrendingDiscussion struct {
	Topic     string `json:"topic"`
	Summary   string `json:"summary,omitempty"`
	Sentiment string `json:"sentiment,omitempty"`
	RedditURL string `json:"reddit_url,omitempty"`
	AddedAt   string `json:"added_at,omitempty"`
}

// ToolMention tracks how often and how favorably a tool came up.
type ToolMention struct {
	Name      string `json:"name"`
	Mentions  string `json:"mentions,omitempty"`
	Sentiment string `json:"sentiment,omitempty"`
	URL       string `json:"url,omitempty"`
	AddedAt   string `json:"added_at,omitempty"`
}

// OpportunityAnalysis is the opportunities-mode payload.
type OpportunityAnalysis struct {
	Opportunities      []Opportunity   `json:"opportunities"`
	PainPoints         []PainPoint     `json:"pain_points"`
	MarketInsights     []MarketInsight `json:"market_insights"`
	TrendingTopics     []string        `json:"trending_topics"`
	RecommendedActions []string        `json:"recommended_actions"`
}

// NewsAnalysis is the news-mode payload.
type NewsAnalysis struct {
	TopStories          []TopStory           `json:"top_stories"`
	NotableReleases     []NotableRelease     `json:"notable_releases"`
	TrendingDiscussions []TrendingDiscussion `json:"trending_discussions"`
	ToolsMentioned      []ToolMention        `json:"tools_mentioned"`
	KeyTakeaways        []string             `json:"key_takeaways"`
}

// Analysis is a tagged union over the two analysis payloads. Exactly one of
// Opportunity and News is set for a well-formed analysis; both are nil for a
// bare error result. Err carries the failure reason for batches whose model
// output could not be parsed, or for runs where every batch failed.
//
// The JSON form flattens the active payload into the analysis object so that
// saved reports keep the historical field layout ("opportunities",
// "top_stories", ... as sibling keys of "executive_summary").
type Analysis struct {
	ExecutiveSummary string
	Opportunity      *OpportunityAnalysis
	News             *NewsAnalysis
	Err              string
	RawResponse      string
}

// Mode reports which schema this analysis carries. An analysis without a
// news payload is treated as opportunities mode.
func (a Analysis) Mode() Mode {
	if a.News != nil {
		return ModeNews
	}
	return ModeOpportunities
}

// IsError reports whether this analysis is an error result rather than a
// parsed model response. Error results must be excluded from batch merging.
func (a Analysis) IsError() bool {
	return a.Err != ""
}

type opportunityAnalysisJSON struct {
	Err              string `json:"error,omitempty"`
	ExecutiveSummary string `json:"executive_summary"`
	OpportunityAnalysis
}

type newsAnalysisJSON struct {
	Err              string `json:"error,omitempty"`
	ExecutiveSummary string `json:"executive_summary"`
	NewsAnalysis
}

type errorResultJSON struct {
	Err         string `json:"error"`
	RawResponse string `json:"raw_response,omitempty"`
}

// MarshalJSON flattens the active payload into a single JSON object.
func (a Analysis) MarshalJSON() ([]byte, error) {
	switch {
	case a.News != nil:
		return json.Marshal(newsAnalysisJSON{a.Err, a.ExecutiveSummary, *a.News})
	case a.Opportunity != nil:
		return json.Marshal(opportunityAnalysisJSON{a.Err, a.ExecutiveSummary, *a.Opportunity})
	default:
		return json.Marshal(errorResultJSON{a.Err, a.RawResponse})
	}
}

// UnmarshalJSON decides the payload type from the keys present. Key probing
// happens only here at the decoding boundary; everything downstream
// dispatches on the union tag.
func (a *Analysis) UnmarshalJSON(data []byte) error {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}

	if _, ok := keys["top_stories"]; ok {
		var decoded newsAnalysisJSON
		if err := json.Unmarshal(data, &decoded); err != nil {
			return err
		}
		*a = Analysis{
			ExecutiveSummary: decoded.ExecutiveSummary,
			News:             &decoded.NewsAnalysis,
			Err:              decoded.Err,
		}
		return nil
	}

	if hasOpportunityKeys(keys) {
		var decoded opportunityAnalysisJSON
		if err := json.Unmarshal(data, &decoded); err != nil {
			return err
		}
		*a = Analysis{
			ExecutiveSummary: decoded.ExecutiveSummary,
			Opportunity:      &decoded.OpportunityAnalysis,
			Err:              decoded.Err,
		}
		return nil
	}

	var decoded struct {
		errorResultJSON
		ExecutiveSummary string `json:"executive_summary"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*a = Analysis{
		ExecutiveSummary: decoded.ExecutiveSummary,
		Err:              decoded.Err,
		RawResponse:      decoded.RawResponse,
	}
	return nil
}

func hasOpportunityKeys(keys map[string]json.RawMessage) bool {
	for _, k := range []string{"opportunities", "pain_points", "market_insights", "trending_topics", "recommended_actions"} {
		if _, ok := keys[k]; ok {
			return true
		}
	}
	return false
}
