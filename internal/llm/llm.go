package llm

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"google.golang.org/genai"

	"reddar/internal/logger"
	"reddar/internal/usage"
)

const (
	// DefaultModel is the default Gemini model for analysis runs.
	DefaultModel = "gemini-2.5-flash"
	// DefaultTimeout bounds a single completion call. Large batches of posts
	// can take minutes to analyze.
	DefaultTimeout = 300 * time.Second
)

// Request is one completion request: an optional system prompt plus the user
// prompt.
type Request struct {
	System string
	Prompt string
}

// Usage reports token counts for a single completion.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is the model's reply to a Request.
type Response struct {
	Text      string
	Reasoning string
	Usage     Usage
	Latency   time.Duration
}

// Completer is the minimal LLM surface the analysis pipeline depends on.
// Tests substitute fakes; production uses the Gemini-backed Client.
type Completer interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// Client is a Gemini-backed Completer.
type Client struct {
	modelName   string
	timeout     time.Duration
	maxTokens   int32
	temperature float32
	gClient     *genai.Client
	recorder    usage.Recorder
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithRecorder attaches a usage recorder. Recording failures are logged and
// never fail the completion.
func WithRecorder(r usage.Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// WithGeneration sets max output tokens and temperature.
func WithGeneration(maxTokens int32, temperature float32) Option {
	return func(c *Client) {
		c.maxTokens = maxTokens
		c.temperature = temperature
	}
}

// NewClient creates a new LLM client.
// It supports multiple ways to get the API key (in order of preference):
// 1. Environment variable: GEMINI_API_KEY (or alternatives)
// 2. Viper configuration: gemini.api_key
func NewClient(modelName string, opts ...Option) (*Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		if apiKey = os.Getenv("GOOGLE_GEMINI_API_KEY"); apiKey == "" {
			if apiKey = os.Getenv("GOOGLE_AI_API_KEY"); apiKey == "" {
				apiKey = viper.GetString("gemini.api_key")
			}
		}
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required. Set GEMINI_API_KEY environment variable or gemini.api_key in config file.\nGet your API key from: https://makersuite.google.com/app/apikey")
	}

	if modelName == "" {
		modelName = viper.GetString("gemini.model")
		if modelName == "" {
			modelName = DefaultModel
		}
	}

	ctx := context.Background()
	gClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	client := &Client{
		modelName: modelName,
		timeout:   DefaultTimeout,
		gClient:   gClient,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Model returns the model name this client sends requests to.
func (c *Client) Model() string {
	return c.modelName
}

// Complete sends one completion request and returns the model's reply.
func (c *Client) Complete(ctx context.Context, req Request) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: req.Prompt}},
		Role:  "user",
	}}

	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}
	if c.maxTokens > 0 {
		cfg.MaxOutputTokens = c.maxTokens
	}
	if c.temperature > 0 {
		t := c.temperature
		cfg.Temperature = &t
	}

	start := time.Now()
	resp, err := c.gClient.Models.GenerateContent(ctx, c.modelName, contents, cfg)
	latency := time.Since(start)
	if err != nil {
		return Response{}, fmt.Errorf("failed to generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return Response{}, fmt.Errorf("empty response from model")
	}

	out := Response{
		Text:    text,
		Latency: latency,
	}
	if m := resp.UsageMetadata; m != nil {
		out.Usage = Usage{
			PromptTokens:     int(m.PromptTokenCount),
			CompletionTokens: int(m.CandidatesTokenCount),
			TotalTokens:      int(m.TotalTokenCount),
		}
	}

	c.record(req, out)
	return out, nil
}

// record logs the request to the usage recorder, best-effort.
func (c *Client) record(req Request, resp Response) {
	if c.recorder == nil {
		return
	}
	messages := []usage.Message{}
	if req.System != "" {
		messages = append(messages, usage.Message{Role: "system", Content: req.System})
	}
	messages = append(messages, usage.Message{Role: "user", Content: req.Prompt})

	rec := usage.Record{
		Model:            c.modelName,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
		LatencyMS:        resp.Latency.Milliseconds(),
		Messages:         messages,
		Response:         resp.Text,
		Reasoning:        resp.Reasoning,
	}
	if err := c.recorder.Record(rec); err != nil {
		logger.Warn("failed to record LLM usage", "error", err.Error())
	}
}
