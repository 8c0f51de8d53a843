package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"reddar/internal/core"
	"reddar/internal/llm"
	"reddar/internal/logger"
)

// DefaultBatchSize is how many posts go into one LLM request.
const DefaultBatchSize = 50

// maxRawResponse caps how much raw model output an error result carries.
const maxRawResponse = 500

// ProgressFunc receives batch progress updates: percent complete and a
// short status line.
type ProgressFunc func(percent int, status string)

// Analyzer runs scraped posts through the LLM in batches and folds the
// results into a single run report.
type Analyzer struct {
	client    llm.Completer
	model     string
	batchSize int
	progress  ProgressFunc
}

// NewAnalyzer creates an Analyzer. batchSize <= 0 uses the default; model is
// recorded in report metadata only.
func NewAnalyzer(client llm.Completer, model string, batchSize int) *Analyzer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Analyzer{client: client, model: model, batchSize: batchSize}
}

// OnProgress registers a progress callback for batch runs.
func (a *Analyzer) OnProgress(fn ProgressFunc) {
	a.progress = fn
}

// AnalyzeBatch analyzes a single batch of posts. A transport failure is
// returned as an error; model output that cannot be parsed yields an
// error-shaped Analysis carrying the reason and a slice of the raw text.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, data *core.ScrapeData, posts []core.Post) (core.Analysis, error) {
	system, user := BuildPrompts(data, posts)

	resp, err := a.client.Complete(ctx, llm.Request{System: system, Prompt: user})
	if err != nil {
		return core.Analysis{}, fmt.Errorf("batch analysis failed: %w", err)
	}

	return parseAnalysis(resp.Text, data.Mode), nil
}

// parseAnalysis extracts the JSON object from raw model output and decodes
// it into the payload for the given mode.
func parseAnalysis(text string, mode core.Mode) core.Analysis {
	window, ok := extractJSON(text)
	if !ok {
		return core.Analysis{
			Err:         "Could not parse JSON",
			RawResponse: truncate(text, maxRawResponse),
		}
	}

	if mode == core.ModeNews {
		var payload struct {
			ExecutiveSummary string `json:"executive_summary"`
			core.NewsAnalysis
		}
		if err := json.Unmarshal([]byte(window), &payload); err != nil {
			return core.Analysis{
				Err:         fmt.Sprintf("JSON parse error: %v", err),
				RawResponse: truncate(text, maxRawResponse),
			}
		}
		return core.Analysis{ExecutiveSummary: payload.ExecutiveSummary, News: &payload.NewsAnalysis}
	}

	var payload struct {
		ExecutiveSummary string `json:"executive_summary"`
		core.OpportunityAnalysis
	}
	if err := json.Unmarshal([]byte(window), &payload); err != nil {
		return core.Analysis{
			Err:         fmt.Sprintf("JSON parse error: %v", err),
			RawResponse: truncate(text, maxRawResponse),
		}
	}
	return core.Analysis{ExecutiveSummary: payload.ExecutiveSummary, Opportunity: &payload.OpportunityAnalysis}
}

// extractJSON returns the substring from the first "{" through the last "}".
// Models often wrap their JSON in code fences or prose despite instructions.
func extractJSON(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// Analyze runs the full batch pipeline over one scrape and returns the run
// report. Individual batch failures are skipped with a warning; the run only
// errors if a single-batch run cannot reach the model at all.
func (a *Analyzer) Analyze(ctx context.Context, data *core.ScrapeData) (*core.RunReport, error) {
	posts := data.Posts
	total := len(posts)

	logger.Info("analyzing posts", "focus_area", data.FocusArea, "posts", total, "mode", data.Mode)

	var analysis core.Analysis
	if total <= a.batchSize {
		result, err := a.AnalyzeBatch(ctx, data, posts)
		if err != nil {
			return nil, err
		}
		analysis = result
		a.report(100, "Analysis complete")
	} else {
		var batches [][]core.Post
		for i := 0; i < total; i += a.batchSize {
			end := i + a.batchSize
			if end > total {
				end = total
			}
			batches = append(batches, posts[i:end])
		}
		logger.Info("splitting into batches", "batches", len(batches), "batch_size", a.batchSize)

		var results []core.Analysis
		for i, batch := range batches {
			a.report(i*100/len(batches), fmt.Sprintf("Analyzing batch %d/%d", i+1, len(batches)))

			result, err := a.AnalyzeBatch(ctx, data, batch)
			if err != nil {
				logger.Warn("batch failed, skipping", "batch", i+1, "error", err.Error())
				continue
			}
			if result.IsError() {
				logger.Warn("batch returned unparseable output, skipping", "batch", i+1, "error", result.Err)
				continue
			}
			results = append(results, result)
		}

		if len(results) > 0 {
			logger.Info("merging batch results", "batches_merged", len(results))
			analysis = MergeBatches(results, data.Mode)
		} else {
			analysis = failedRunAnalysis(data.Mode)
		}
		a.report(100, "Analysis complete")
	}

	now := time.Now().UTC()
	batchesUsed := 1
	if total > a.batchSize {
		batchesUsed = (total + a.batchSize - 1) / a.batchSize
	}

	return &core.RunReport{
		ID:                 "report_" + now.Format("20060102_150405"),
		FocusArea:          data.FocusArea,
		FocusName:          data.FocusName,
		GeneratedAt:        now,
		DataScrapedAt:      data.ScrapedAt,
		SubredditsAnalyzed: data.Subreddits,
		PostsAnalyzed:      total,
		Analysis:           analysis,
		Metadata: core.Metadata{
			Model:       a.model,
			SourceFile:  data.SourceFile,
			BatchesUsed: batchesUsed,
		},
	}, nil
}

// failedRunAnalysis is the persisted shape when every batch failed: an error
// marker over an empty payload, so a later healthy run merges cleanly.
func failedRunAnalysis(mode core.Mode) core.Analysis {
	a := core.Analysis{Err: "All batches failed"}
	if mode == core.ModeNews {
		a.News = &core.NewsAnalysis{}
	} else {
		a.Opportunity = &core.OpportunityAnalysis{}
	}
	return a
}

func (a *Analyzer) report(percent int, status string) {
	if a.progress != nil {
		a.progress(percent, status)
	}
}
