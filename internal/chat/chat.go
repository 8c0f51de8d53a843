package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"reddar/internal/core"
	"reddar/internal/llm"
)

// historyWindow is how many prior messages are replayed into the prompt.
const historyWindow = 20

// Message is one turn of a conversation.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // user or assistant
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is the stored history for one report.
type Conversation struct {
	ReportID  string    `json:"report_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `json:"messages"`
}

type chatsFile struct {
	Conversations map[string]*Conversation `json:"conversations"`
}

// Store persists conversations keyed by report id in one JSON file.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a store writing to path (e.g. data/chats.json).
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Get returns the conversation for a report, or nil if none exists.
func (s *Store) Get(reportID string) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chats, err := s.load()
	if err != nil {
		return nil, err
	}
	return chats.Conversations[reportID], nil
}

// Add appends a message to the report's conversation, creating the
// conversation if needed, and returns the stored message.
func (s *Store) Add(reportID, role, content string) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chats, err := s.load()
	if err != nil {
		return Message{}, err
	}

	now := time.Now().UTC()
	conv, ok := chats.Conversations[reportID]
	if !ok {
		conv = &Conversation{ReportID: reportID, CreatedAt: now, UpdatedAt: now}
		chats.Conversations[reportID] = conv
	}

	msg := Message{
		ID:        "msg_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8],
		Role:      role,
		Content:   content,
		Timestamp: now,
	}
	conv.Messages = append(conv.Messages, msg)
	conv.UpdatedAt = now

	if err := s.save(chats); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// Clear deletes the conversation for a report. Returns false if there was
// nothing to clear.
func (s *Store) Clear(reportID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chats, err := s.load()
	if err != nil {
		return false, err
	}
	if _, ok := chats.Conversations[reportID]; !ok {
		return false, nil
	}
	delete(chats.Conversations, reportID)
	if err := s.save(chats); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) load() (*chatsFile, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &chatsFile{Conversations: make(map[string]*Conversation)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read chats file: %w", err)
	}
	var chats chatsFile
	if err := json.Unmarshal(data, &chats); err != nil {
		return nil, fmt.Errorf("failed to parse chats file %s: %w", s.path, err)
	}
	if chats.Conversations == nil {
		chats.Conversations = make(map[string]*Conversation)
	}
	return &chats, nil
}

func (s *Store) save(chats *chatsFile) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create chats directory: %w", err)
	}
	data, err := json.MarshalIndent(chats, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode chats: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write chats file: %w", err)
	}
	return nil
}

// BuildPrompts renders the report context as the system prompt and the
// conversation history plus the new message as the user prompt. Only the
// last historyWindow prior messages are replayed.
func BuildPrompts(report *core.Report, conv *Conversation, newMessage string) (system, user string) {
	system = ReportContext(report)

	var parts []string
	if conv != nil && len(conv.Messages) > 0 {
		recent := conv.Messages
		if len(recent) > historyWindow {
			recent = recent[len(recent)-historyWindow:]
		}
		for _, msg := range recent {
			label := "Assistant"
			if msg.Role == "user" {
				label = "User"
			}
			parts = append(parts, label+": "+msg.Content)
		}
	}
	parts = append(parts, "User: "+newMessage, "Assistant:")

	return system, strings.Join(parts, "\n\n")
}

// Session ties a report, its conversation store, and an LLM client together.
type Session struct {
	client llm.Completer
	store  *Store
	report *core.Report
}

// NewSession creates a chat session over a loaded report.
func NewSession(client llm.Completer, store *Store, report *core.Report) *Session {
	return &Session{client: client, store: store, report: report}
}

// Send records the user message, asks the model, records its reply, and
// returns the assistant message.
func (s *Session) Send(ctx context.Context, text string) (Message, error) {
	if _, err := s.store.Add(s.report.ID, "user", text); err != nil {
		return Message{}, err
	}

	conv, err := s.store.Get(s.report.ID)
	if err != nil {
		return Message{}, err
	}
	// The just-added message is passed explicitly, not replayed from history.
	history := conv
	if conv != nil && len(conv.Messages) > 0 {
		trimmed := *conv
		trimmed.Messages = conv.Messages[:len(conv.Messages)-1]
		history = &trimmed
	}

	system, user := BuildPrompts(s.report, history, text)
	resp, err := s.client.Complete(ctx, llm.Request{System: system, Prompt: user})
	if err != nil {
		return Message{}, fmt.Errorf("chat completion failed: %w", err)
	}

	return s.store.Add(s.report.ID, "assistant", resp.Text)
}

// Clear drops the session's conversation history.
func (s *Session) Clear() (bool, error) {
	return s.store.Clear(s.report.ID)
}

// History returns the session's stored messages.
func (s *Session) History() ([]Message, error) {
	conv, err := s.store.Get(s.report.ID)
	if err != nil || conv == nil {
		return nil, err
	}
	return conv.Messages, nil
}

// Report returns the report this session answers questions about.
func (s *Session) Report() *core.Report {
	return s.report
}
