package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"reddar/internal/config"
	"reddar/internal/core"
)

func testConfig() config.Scraper {
	return config.Scraper{
		UserAgent:       "reddar-test/1.0",
		PostsPerSub:     5,
		CommentsPerPost: 2,
		MinUpvotes:      5,
		RequestInterval: "1ms",
		Timeout:         "5s",
	}
}

func listingJSON(posts ...string) string {
	return fmt.Sprintf(`{"kind":"Listing","data":{"children":[%s]}}`, strings.Join(posts, ","))
}

func postJSON(id string, ups int, stickied bool) string {
	return fmt.Sprintf(`{"kind":"t3","data":{
		"id":%q,"title":"Post %s","selftext":"body","author":"u1",
		"ups":%d,"num_comments":3,"permalink":"/r/SaaS/comments/%s/post/",
		"created_utc":1700000000,"stickied":%t}}`, id, id, ups, id, stickied)
}

func TestFetchSubredditFilters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "reddar-test/1.0" {
			t.Errorf("user agent = %q", ua)
		}
		fmt.Fprint(w, listingJSON(
			postJSON("keep1", 10, false),
			postJSON("low", 2, false),
			postJSON("pinned", 50, true),
			postJSON("keep2", 8, false),
		))
	}))
	defer server.Close()

	s := NewScraper(testConfig(), WithBaseURL(server.URL))
	posts, err := s.FetchSubreddit(context.Background(), "SaaS")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("posts = %d, want 2 (upvote floor and stickied filtered)", len(posts))
	}
	if posts[0].ID != "keep1" || posts[1].ID != "keep2" {
		t.Errorf("posts = %s, %s", posts[0].ID, posts[1].ID)
	}
	if posts[0].URL != "https://reddit.com/r/SaaS/comments/keep1/post/" {
		t.Errorf("url = %q", posts[0].URL)
	}
	if posts[0].CreatedDate.IsZero() {
		t.Error("created_date not derived from created_utc")
	}
}

func TestFetchSubredditTruncatesSelftext(t *testing.T) {
	long := strings.Repeat("a", 5000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"kind":"Listing","data":{"children":[{"kind":"t3","data":{
			"id":"x","title":"t","selftext":%q,"ups":10,"permalink":"/r/S/x/"}}]}}`, long)
	}))
	defer server.Close()

	s := NewScraper(testConfig(), WithBaseURL(server.URL))
	posts, err := s.FetchSubreddit(context.Background(), "S")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(posts[0].SelfText) != selftextLimit {
		t.Errorf("selftext length = %d, want %d", len(posts[0].SelfText), selftextLimit)
	}
}

func TestGetJSONRetriesOn429(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, listingJSON(postJSON("ok", 10, false)))
	}))
	defer server.Close()

	s := NewScraper(testConfig(), WithBaseURL(server.URL))
	s.backoff = func(int) time.Duration { return time.Millisecond }

	posts, err := s.FetchSubreddit(context.Background(), "SaaS")
	if err != nil {
		t.Fatalf("fetch should succeed after retries: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
	if len(posts) != 1 {
		t.Errorf("posts = %d", len(posts))
	}
}

func TestGetJSONGivesUpAfterMaxRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	s := NewScraper(testConfig(), WithBaseURL(server.URL))
	s.backoff = func(int) time.Duration { return time.Millisecond }

	_, err := s.FetchSubreddit(context.Background(), "SaaS")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("error = %v", err)
	}
}

func TestFetchComments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"kind":"Listing","data":{"children":[]}},
			{"kind":"Listing","data":{"children":[
				{"kind":"t1","data":{"id":"c1","body":"great point","author":"u2","ups":5}},
				{"kind":"more","data":{}},
				{"kind":"t1","data":{"id":"c2","body":"disagree","author":"u3","ups":2}},
				{"kind":"t1","data":{"id":"c3","body":"extra","author":"u4","ups":1}}
			]}}
		]`)
	}))
	defer server.Close()

	s := NewScraper(testConfig(), WithBaseURL(server.URL))
	comments, err := s.FetchComments(context.Background(), "SaaS", "keep1")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(comments) != 2 {
		t.Fatalf("comments = %d, want cap 2 with non-comments skipped", len(comments))
	}
	if comments[0].ID != "c1" || comments[1].ID != "c2" {
		t.Errorf("comments = %s, %s", comments[0].ID, comments[1].ID)
	}
}

func TestScrapeFocusAreaAssemblesRunContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/comments/") {
			fmt.Fprint(w, `[{"kind":"Listing","data":{"children":[]}},{"kind":"Listing","data":{"children":[]}}]`)
			return
		}
		fmt.Fprint(w, listingJSON(postJSON("a", 10, false)))
	}))
	defer server.Close()

	s := NewScraper(testConfig(), WithBaseURL(server.URL))
	area := config.FocusArea{
		Name:       "SaaS Opportunities",
		Keywords:   []string{"saas"},
		Subreddits: []string{"SaaS", "startups"},
		Mode:       "opportunities",
	}

	data, err := s.ScrapeFocusArea(context.Background(), "saas_opportunities", area)
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	if data.TotalPosts != 2 || len(data.Posts) != 2 {
		t.Errorf("total_posts = %d, want one per subreddit", data.TotalPosts)
	}
	if data.FocusArea != "saas_opportunities" || data.FocusName != "SaaS Opportunities" {
		t.Errorf("focus fields: %s / %s", data.FocusArea, data.FocusName)
	}
	if data.ScrapedAt.IsZero() {
		t.Error("scraped_at not set")
	}
}

func TestSaveScrapeDataRecordsSourceFile(t *testing.T) {
	dir := t.TempDir()
	sd := &core.ScrapeData{
		FocusArea:  "saas_opportunities",
		FocusName:  "SaaS Opportunities",
		ScrapedAt:  time.Now().UTC(),
		TotalPosts: 0,
	}
	path, err := SaveScrapeData(sd, dir)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if sd.SourceFile != path {
		t.Errorf("source_file = %q, want %q", sd.SourceFile, path)
	}
	if !strings.Contains(path, "scrape_saas_opportunities_") {
		t.Errorf("path = %q", path)
	}
}
