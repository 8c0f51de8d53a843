package chat

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"reddar/internal/core"
	"reddar/internal/llm"
)

type fakeCompleter struct {
	reply    string
	requests []llm.Request
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	f.requests = append(f.requests, req)
	return llm.Response{Text: f.reply}, nil
}

func testReport() *core.Report {
	return &core.Report{
		ID:                 "report_saas_opportunities",
		FocusArea:          "saas_opportunities",
		FocusName:          "SaaS Opportunities",
		UpdatedAt:          time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		TotalPostsAnalyzed: 80,
		SubredditsAnalyzed: []string{"SaaS", "startups"},
		Analysis: core.Analysis{
			ExecutiveSummary: "Strong demand for automation.",
			Opportunity: &core.OpportunityAnalysis{
				Opportunities: []core.Opportunity{{Title: "AI Meeting Notes", Description: "Notes tool", Potential: "high", Difficulty: "medium"}},
				PainPoints:    []core.PainPoint{{Problem: "Manual invoicing", Severity: "high"}},
			},
		},
	}
}

func TestStoreAddAndGet(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "chats.json"))

	msg, err := store.Add("report_x", "user", "hello")
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if !strings.HasPrefix(msg.ID, "msg_") || len(msg.ID) != len("msg_")+8 {
		t.Errorf("message id = %q, want msg_<8 hex>", msg.ID)
	}

	conv, err := store.Get("report_x")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if conv == nil || len(conv.Messages) != 1 {
		t.Fatalf("conversation = %+v", conv)
	}
	if conv.Messages[0].Content != "hello" {
		t.Errorf("content = %q", conv.Messages[0].Content)
	}
}

func TestStoreClear(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "chats.json"))

	if _, err := store.Add("report_x", "user", "hi"); err != nil {
		t.Fatal(err)
	}
	cleared, err := store.Clear("report_x")
	if err != nil || !cleared {
		t.Fatalf("clear = %v, %v", cleared, err)
	}
	cleared, err = store.Clear("report_x")
	if err != nil || cleared {
		t.Fatalf("second clear = %v, %v, want false", cleared, err)
	}
	conv, err := store.Get("report_x")
	if err != nil || conv != nil {
		t.Fatalf("conversation survived clear: %+v", conv)
	}
}

func TestBuildPromptsWindowsHistory(t *testing.T) {
	conv := &Conversation{}
	for i := 0; i < 30; i++ {
		conv.Messages = append(conv.Messages, Message{Role: "user", Content: fmt.Sprintf("m%d", i)})
	}

	_, user := BuildPrompts(testReport(), conv, "latest question")

	if strings.Contains(user, "m9\n") || strings.Contains(user, "User: m9") {
		t.Error("messages beyond the window must be dropped")
	}
	if !strings.Contains(user, "User: m10") {
		t.Error("window start missing")
	}
	if !strings.Contains(user, "User: latest question") {
		t.Error("new message missing")
	}
	if !strings.HasSuffix(user, "Assistant:") {
		t.Errorf("prompt must end with assistant cue, got %q", user[len(user)-30:])
	}
}

func TestReportContextIncludesAnalysis(t *testing.T) {
	system := ReportContext(testReport())

	for _, want := range []string{"SaaS Opportunities", "AI Meeting Notes", "Manual invoicing", "Strong demand for automation."} {
		if !strings.Contains(system, want) {
			t.Errorf("context missing %q", want)
		}
	}
}

func TestReportContextNewsMode(t *testing.T) {
	r := testReport()
	r.Analysis = core.Analysis{
		ExecutiveSummary: "Busy week.",
		News: &core.NewsAnalysis{
			TopStories:      []core.TopStory{{Headline: "Model X released", Category: "release"}},
			NotableReleases: []core.NotableRelease{{Name: "toolkit", Description: "a toolkit"}},
		},
	}

	system := ReportContext(r)
	if !strings.Contains(system, "Model X released") || !strings.Contains(system, "toolkit") {
		t.Errorf("news context missing content")
	}
	if strings.Contains(system, "Pain Points") {
		t.Error("news context should not render opportunity sections")
	}
}

func TestSessionSendRecordsBothSides(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "chats.json"))
	client := &fakeCompleter{reply: "the answer"}
	session := NewSession(client, store, testReport())

	reply, err := session.Send(context.Background(), "what should I build?")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if reply.Role != "assistant" || reply.Content != "the answer" {
		t.Errorf("reply = %+v", reply)
	}

	history, err := session.History()
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(history) != 2 || history[0].Role != "user" || history[1].Role != "assistant" {
		t.Errorf("history = %+v", history)
	}

	// The just-sent message appears once in the prompt, not twice.
	user := client.requests[0].Prompt
	if strings.Count(user, "what should I build?") != 1 {
		t.Errorf("prompt repeats the new message: %q", user)
	}
}
