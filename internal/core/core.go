package core

import "time"

// Mode selects which analysis schema a run produces.
type Mode string

const (
	// ModeOpportunities extracts business opportunities and pain points.
	ModeOpportunities Mode = "opportunities"
	// ModeNews extracts news stories, releases, and community sentiment.
	ModeNews Mode = "news"
)

// Comment represents a single comment attached to a scraped post.
type Comment struct {
	ID      string `json:"id"`      // Reddit comment id
	Body    string `json:"body"`    // Comment text (truncated by the scraper)
	Author  string `json:"author"`  // Comment author username
	Upvotes int    `json:"upvotes"` // Upvote count at scrape time
}

// Post represents a single scraped Reddit post, immutable once produced.
type Post struct {
	ID          string    `json:"id"`                 // Reddit post id
	Subreddit   string    `json:"subreddit"`          // Subreddit the post came from (no "r/" prefix)
	Title       string    `json:"title"`              // Post title
	SelfText    string    `json:"selftext"`           // Post body text (truncated by the scraper)
	Author      string    `json:"author"`             // Post author username
	Upvotes     int       `json:"upvotes"`            // Upvote count at scrape time
	NumComments int       `json:"num_comments"`       // Comment count at scrape time
	URL         string    `json:"url"`                // Full permalink URL
	CreatedUTC  float64   `json:"created_utc"`        // Raw Reddit creation timestamp (epoch seconds)
	CreatedDate time.Time `json:"created_date"`       // Creation time as a proper timestamp
	Flair       string    `json:"flair,omitempty"`    // Optional link flair text
	Comments    []Comment `json:"comments,omitempty"` // Top comments, if fetched
}

// ScrapeData is the run context: one scrape of a focus area, consumed
// read-only by the analysis pipeline.
type ScrapeData struct {
	FocusArea        string    `json:"focus_area"`            // Focus area identifier
	FocusName        string    `json:"focus_name"`            // Human-readable focus name
	FocusDescription string    `json:"focus_description"`     // Free-text description of the focus
	Keywords         []string  `json:"keywords"`              // Keywords guiding the analysis
	Mode             Mode      `json:"mode"`                  // Analysis mode for this focus area
	ScrapedAt        time.Time `json:"scraped_at"`            // When the scrape ran
	Subreddits       []string  `json:"subreddits"`            // Subreddits configured for the focus area
	TotalPosts       int       `json:"total_posts"`           // Number of posts scraped
	Posts            []Post    `json:"posts"`                 // Full ordered sequence of scraped posts
	SourceFile       string    `json:"source_file,omitempty"` // Path of the saved scrape snapshot
}

// Metadata records how a run's analysis was produced. A merged report always
// carries the most recent run's metadata.
type Metadata struct {
	Model       string `json:"model"`        // LLM model name used
	SourceFile  string `json:"source_file"`  // Scrape snapshot the analysis was built from
	BatchesUsed int    `json:"batches_used"` // Number of LLM batches the run was split into
}

// ScanRecord is one entry in a report's scan history.
type ScanRecord struct {
	ScannedAt     time.Time `json:"scanned_at"`     // Timestamp of the run that was merged
	PostsAnalyzed int       `json:"posts_analyzed"` // Posts analyzed by that run
	NewItems      int       `json:"new_items"`      // New primary items the run contributed
	NewSecondary  int       `json:"new_secondary"`  // New secondary items the run contributed
	Subreddits    []string  `json:"subreddits"`     // Subreddits covered by that run
}

// RunReport is the output of one analysis run, before it is folded into the
// cumulative report for its focus area.
type RunReport struct {
	ID                 string    `json:"id"`
	FocusArea          string    `json:"focus_area"`
	FocusName          string    `json:"focus_name"`
	GeneratedAt        time.Time `json:"generated_at"`
	DataScrapedAt      time.Time `json:"data_scraped_at"`
	SubredditsAnalyzed []string  `json:"subreddits_analyzed"`
	PostsAnalyzed      int       `json:"posts_analyzed"`
	Analysis           Analysis  `json:"analysis"`
	Metadata           Metadata  `json:"metadata"`
}

// Report is the durable, ever-growing record for one focus area. It is the
// only long-lived state the pipeline manages; its JSON field names are a
// semi-stable schema because saved reports are re-read across process runs.
type Report struct {
	ID                 string       `json:"id"`
	FocusArea          string       `json:"focus_area"`
	FocusName          string       `json:"focus_name"`
	CreatedAt          time.Time    `json:"created_at"`           // Set once, from the first run
	UpdatedAt          time.Time    `json:"updated_at"`           // Timestamp of the latest merged run
	TotalScans         int          `json:"total_scans"`          // Always equals len(ScanHistory)
	SubredditsAnalyzed []string     `json:"subreddits_analyzed"`  // Union across all runs
	TotalPostsAnalyzed int          `json:"total_posts_analyzed"` // Running sum across all runs
	Analysis           Analysis     `json:"analysis"`
	ScanHistory        []ScanRecord `json:"scan_history"`
	Metadata           Metadata     `json:"metadata"` // Always from the most recent run
}
