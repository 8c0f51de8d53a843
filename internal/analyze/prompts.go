package analyze

import (
	"fmt"
	"strings"

	"reddar/internal/core"
)

const (
	// maxBodyChars bounds how much of a post body goes into the prompt.
	maxBodyChars = 1500
	// maxCommentChars bounds each quoted comment.
	maxCommentChars = 300
	// maxCommentsPerPost bounds how many comments are quoted per post.
	maxCommentsPerPost = 5
)

const opportunitiesSystemPrompt = `You are a business intelligence analyst specializing in identifying market opportunities from online discussions.

Your task is to analyze Reddit posts and extract actionable business insights. Focus on:
1. Pain points and unmet needs
2. Existing solutions and their shortcomings
3. Market signals (demand, willingness to pay, market size hints)
4. Competitive landscape mentions
5. Specific business/product ideas with validation signals

Be specific and cite the source posts. Quantify when possible (upvotes, comments as engagement signals).
Output structured JSON that can be parsed programmatically.`

const opportunitiesUserPrompt = `Analyze the following Reddit data from the "%s" focus area.

Focus Keywords: %s

Here are %d posts from subreddits: %s

---
%s
---

Analyze this data and return a JSON object with this structure:
{
  "executive_summary": "2-3 sentence overview of key findings",
  "opportunities": [
    {
      "title": "Opportunity name",
      "description": "What the opportunity is",
      "evidence": ["List of specific posts/comments that support this"],
      "demand_signals": "Why there's demand (upvotes, frequency, sentiment)",
      "competition": "Known competitors or alternatives mentioned",
      "difficulty": "low/medium/high",
      "potential": "low/medium/high",
      "tags": ["relevant", "tags"]
    }
  ],
  "pain_points": [
    {
      "problem": "The pain point",
      "frequency": "How often mentioned",
      "severity": "low/medium/high",
      "current_solutions": "What people currently do",
      "source_posts": ["post IDs or titles"]
    }
  ],
  "market_insights": [
    {
      "insight": "The insight",
      "evidence": "Supporting evidence",
      "actionable": true/false
    }
  ],
  "trending_topics": ["list", "of", "trending", "topics"],
  "recommended_actions": [
    "Specific action 1",
    "Specific action 2"
  ]
}

Return ONLY valid JSON, no markdown code blocks or other text.`

const newsSystemPrompt = `You are a tech intelligence analyst specializing in AI, machine learning, and open source ecosystems.

Your task is to analyze Reddit discussions and extract key news, developments, and insights that would be valuable to share with a technical community. Focus on:
1. New releases, launches, and announcements
2. Significant updates to popular tools/models
3. Emerging trends and technologies
4. Notable benchmarks and comparisons
5. Community sentiment and adoption patterns
6. Controversies or important debates

Be specific, cite sources, and prioritize recency and impact.
Output structured JSON that can be parsed programmatically.`

const newsUserPrompt = `Analyze the following Reddit data from "%s".

Focus Keywords: %s

Here are %d posts from subreddits: %s

---
%s
---

Extract key intelligence and return a JSON object with this structure:
{
  "executive_summary": "2-3 sentence overview of what's happening in the space right now",
  "top_stories": [
    {
      "headline": "Concise news headline",
      "summary": "2-3 sentence summary of what happened",
      "reddit_url": "The full Reddit URL from the post (e.g. https://reddit.com/r/...)",
      "subreddit": "Where it was posted",
      "engagement": "Upvotes/comments as social proof",
      "importance": "high/medium/low",
      "category": "release/update/research/tool/discussion/drama",
      "tags": ["relevant", "tags"],
      "links": ["Any external URLs mentioned (GitHub, papers, announcements)"]
    }
  ],
  "notable_releases": [
    {
      "name": "Project/model name",
      "description": "What it is",
      "why_notable": "Why it matters",
      "reddit_url": "Reddit URL where this was discussed",
      "links": ["Project URL if mentioned"]
    }
  ],
  "trending_discussions": [
    {
      "topic": "What people are debating",
      "summary": "Key viewpoints",
      "sentiment": "positive/negative/mixed",
      "reddit_url": "Main discussion URL"
    }
  ],
  "tools_mentioned": [
    {
      "name": "Tool name",
      "mentions": "How many times/posts",
      "sentiment": "How people feel about it",
      "url": "Tool/project URL if available"
    }
  ],
  "key_takeaways": [
    "Bullet point 1 - shareable insight",
    "Bullet point 2 - shareable insight"
  ]
}

IMPORTANT: Include the actual Reddit URLs from each post (they look like https://reddit.com/r/subreddit/comments/...). These are provided in the "URL:" field of each post above.

Return ONLY valid JSON, no markdown code blocks or other text.`

// BuildPrompts renders the system and user prompts for one batch of posts.
func BuildPrompts(data *core.ScrapeData, posts []core.Post) (system, user string) {
	userTemplate := opportunitiesUserPrompt
	system = opportunitiesSystemPrompt
	if data.Mode == core.ModeNews {
		userTemplate = newsUserPrompt
		system = newsSystemPrompt
	}

	user = fmt.Sprintf(userTemplate,
		data.FocusName,
		strings.Join(data.Keywords, ", "),
		len(posts),
		strings.Join(batchSubreddits(posts), ", "),
		FormatPosts(posts),
	)
	return system, user
}

// FormatPosts renders posts for LLM consumption: numbered entries with
// engagement stats, truncated bodies, and up to five top comments each.
func FormatPosts(posts []core.Post) string {
	formatted := make([]string, 0, len(posts))
	for i, post := range posts {
		flair := post.Flair
		if flair == "" {
			flair = "None"
		}
		body := post.SelfText
		if body == "" {
			body = "(no text)"
		}
		entry := fmt.Sprintf(`
### Post %d: %s
- Subreddit: r/%s
- Upvotes: %d | Comments: %d
- Flair: %s
- URL: %s

Content:
%s
`, i+1, post.Title, post.Subreddit, post.Upvotes, post.NumComments, flair, post.URL, truncate(body, maxBodyChars))

		if len(post.Comments) > 0 {
			var sb strings.Builder
			sb.WriteString(entry)
			sb.WriteString("\nTop Comments:\n")
			for j, comment := range post.Comments {
				if j >= maxCommentsPerPost {
					break
				}
				fmt.Fprintf(&sb, "  %d. [%d upvotes] %s\n", j+1, comment.Upvotes, truncate(comment.Body, maxCommentChars))
			}
			entry = sb.String()
		}

		formatted = append(formatted, entry)
	}
	return strings.Join(formatted, "\n---\n")
}

// batchSubreddits returns the distinct subreddits in a batch, preserving
// first-seen order.
func batchSubreddits(posts []core.Post) []string {
	seen := make(map[string]bool)
	var subs []string
	for _, p := range posts {
		if !seen[p.Subreddit] {
			seen[p.Subreddit] = true
			subs = append(subs, p.Subreddit)
		}
	}
	return subs
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
