package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"reddar/internal/config"
	"reddar/internal/core"
	"reddar/internal/logger"
)

const (
	defaultBaseURL = "https://www.reddit.com"
	maxRetries     = 3
	// selftextLimit / commentLimit bound how much text a scraped post carries.
	selftextLimit = 2000
	commentLimit  = 1000
)

// Scraper fetches posts and comments through Reddit's public JSON API.
// Requests are paced by a rate limiter; HTTP 429 responses are retried with
// exponential backoff.
type Scraper struct {
	baseURL         string
	userAgent       string
	postsPerSub     int
	commentsPerPost int
	minUpvotes      int
	httpClient      *http.Client
	limiter         *rate.Limiter
	backoff         func(attempt int) time.Duration
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithBaseURL points the scraper at a different API host (tests).
func WithBaseURL(u string) Option {
	return func(s *Scraper) { s.baseURL = u }
}

// NewScraper builds a Scraper from configuration.
func NewScraper(cfg config.Scraper, opts ...Option) *Scraper {
	interval := 2 * time.Second
	if d, err := time.ParseDuration(cfg.RequestInterval); err == nil && d > 0 {
		interval = d
	}
	timeout := 30 * time.Second
	if d, err := time.ParseDuration(cfg.Timeout); err == nil && d > 0 {
		timeout = d
	}

	s := &Scraper{
		baseURL:         defaultBaseURL,
		userAgent:       cfg.UserAgent,
		postsPerSub:     cfg.PostsPerSub,
		commentsPerPost: cfg.CommentsPerPost,
		minUpvotes:      cfg.MinUpvotes,
		httpClient:      &http.Client{Timeout: timeout},
		limiter:         rate.NewLimiter(rate.Every(interval), 1),
		backoff:         backoff,
	}
	if s.postsPerSub <= 0 {
		s.postsPerSub = 25
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// listing mirrors the relevant parts of Reddit's listing JSON.
type listing struct {
	Kind string `json:"kind"`
	Data struct {
		Children []struct {
			Kind string          `json:"kind"`
			Data json.RawMessage `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	SelfText      string  `json:"selftext"`
	Author        string  `json:"author"`
	Ups           int     `json:"ups"`
	NumComments   int     `json:"num_comments"`
	Permalink     string  `json:"permalink"`
	CreatedUTC    float64 `json:"created_utc"`
	LinkFlairText string  `json:"link_flair_text"`
	Stickied      bool    `json:"stickied"`
}

type redditComment struct {
	ID     string `json:"id"`
	Body   string `json:"body"`
	Author string `json:"author"`
	Ups    int    `json:"ups"`
}

// FetchSubreddit fetches up to the configured number of posts from one
// subreddit, filtering stickied posts and posts below the upvote floor.
func (s *Scraper) FetchSubreddit(ctx context.Context, subreddit string) ([]core.Post, error) {
	// Fetch extra so filtering still leaves enough.
	limit := s.postsPerSub * 2
	if limit > 100 {
		limit = 100
	}
	endpoint := fmt.Sprintf("%s/r/%s.json?limit=%d", s.baseURL, url.PathEscape(subreddit), limit)

	var list listing
	if err := s.getJSON(ctx, endpoint, &list); err != nil {
		return nil, fmt.Errorf("failed to fetch r/%s: %w", subreddit, err)
	}

	var posts []core.Post
	for _, child := range list.Data.Children {
		var rp redditPost
		if err := json.Unmarshal(child.Data, &rp); err != nil {
			continue
		}
		if rp.Ups < s.minUpvotes || rp.Stickied {
			continue
		}
		posts = append(posts, core.Post{
			ID:          rp.ID,
			Subreddit:   subreddit,
			Title:       rp.Title,
			SelfText:    truncate(rp.SelfText, selftextLimit),
			Author:      rp.Author,
			Upvotes:     rp.Ups,
			NumComments: rp.NumComments,
			URL:         "https://reddit.com" + rp.Permalink,
			CreatedUTC:  rp.CreatedUTC,
			CreatedDate: time.Unix(int64(rp.CreatedUTC), 0).UTC(),
			Flair:       rp.LinkFlairText,
		})
		if len(posts) >= s.postsPerSub {
			break
		}
	}
	return posts, nil
}

// FetchComments fetches the top comments for one post.
func (s *Scraper) FetchComments(ctx context.Context, subreddit, postID string) ([]core.Comment, error) {
	endpoint := fmt.Sprintf("%s/r/%s/comments/%s.json?limit=%d&sort=top",
		s.baseURL, url.PathEscape(subreddit), url.PathEscape(postID), s.commentsPerPost)

	// The comments endpoint returns [post listing, comment listing].
	var listings []listing
	if err := s.getJSON(ctx, endpoint, &listings); err != nil {
		return nil, fmt.Errorf("failed to fetch comments for %s: %w", postID, err)
	}
	if len(listings) < 2 {
		return nil, nil
	}

	var comments []core.Comment
	for _, child := range listings[1].Data.Children {
		if child.Kind != "t1" {
			continue
		}
		var rc redditComment
		if err := json.Unmarshal(child.Data, &rc); err != nil {
			continue
		}
		comments = append(comments, core.Comment{
			ID:      rc.ID,
			Body:    truncate(rc.Body, commentLimit),
			Author:  rc.Author,
			Upvotes: rc.Ups,
		})
		if len(comments) >= s.commentsPerPost {
			break
		}
	}
	return comments, nil
}

// ScrapeFocusArea scrapes every subreddit of a focus area and assembles the
// run context. A subreddit that fails is logged and skipped; its posts are
// simply absent from the run.
func (s *Scraper) ScrapeFocusArea(ctx context.Context, id string, area config.FocusArea) (*core.ScrapeData, error) {
	var allPosts []core.Post
	for i, subreddit := range area.Subreddits {
		logger.Info("scraping subreddit", "subreddit", subreddit, "progress", fmt.Sprintf("%d/%d", i+1, len(area.Subreddits)))

		posts, err := s.FetchSubreddit(ctx, subreddit)
		if err != nil {
			logger.Warn("failed to scrape subreddit, skipping", "subreddit", subreddit, "error", err.Error())
			continue
		}

		if s.commentsPerPost > 0 {
			for j := range posts {
				comments, err := s.FetchComments(ctx, subreddit, posts[j].ID)
				if err != nil {
					logger.Debug("failed to fetch comments", "post", posts[j].ID, "error", err.Error())
					continue
				}
				posts[j].Comments = comments
			}
		}

		allPosts = append(allPosts, posts...)
		logger.Info("scraped subreddit", "subreddit", subreddit, "posts", len(posts))
	}

	return &core.ScrapeData{
		FocusArea:        id,
		FocusName:        area.Name,
		FocusDescription: area.Description,
		Keywords:         area.Keywords,
		Mode:             core.Mode(area.Mode),
		ScrapedAt:        time.Now().UTC(),
		Subreddits:       area.Subreddits,
		TotalPosts:       len(allPosts),
		Posts:            allPosts,
	}, nil
}

// SaveScrapeData writes the scrape to a timestamped snapshot file and
// records the path in the data itself.
func SaveScrapeData(data *core.ScrapeData, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create scrapes directory: %w", err)
	}

	filename := fmt.Sprintf("scrape_%s_%s.json", data.FocusArea, time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, filename)
	data.SourceFile = path

	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode scrape data: %w", err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return "", fmt.Errorf("failed to write scrape data: %w", err)
	}
	return path, nil
}

// getJSON performs a rate-limited GET, retrying on HTTP 429 with exponential
// backoff plus jitter.
func (s *Scraper) getJSON(ctx context.Context, endpoint string, out any) error {
	for attempt := 0; ; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", s.userAgent)

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			if attempt >= maxRetries {
				return fmt.Errorf("rate limited (429), max retries exceeded")
			}
			wait := s.backoff(attempt)
			logger.Warn("rate limited, backing off", "wait", wait.String(), "attempt", attempt+1)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}
}

// backoff returns the 429 wait for the given attempt: 2^attempt * 10s plus
// 1-5s of jitter, matching Reddit's tolerance for polite clients.
func backoff(attempt int) time.Duration {
	base := time.Duration(1<<attempt) * 10 * time.Second
	jitter := time.Duration(1+rand.Intn(4)) * time.Second
	return base + jitter
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
