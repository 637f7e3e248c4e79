package types

import "time"

type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleSystem    MessageRole = "system"
)

type Session struct {
	ID        string     `json:"id"`
	AgentType string     `json:"agent_type"`
	Title     string     `json:"title,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	Messages  []Message  `json:"messages,omitempty"`
	Workflow  *Workflow  `json:"workflow,omitempty"`
	Sources   []Source   `json:"sources,omitempty"`
	Logs      []LogEntry `json:"logs,omitempty"`
}

type Message struct {
	ID        string      `json:"id"`
	SessionID string      `json:"session_id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}

type Source struct {
	ID      string `json:"id"`
	Title   string `json:"title,omitempty"`
	URL     string `json:"url,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// Clone returns a deep copy so readers never share slices with the cache.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.UpdatedAt != nil {
		updated := *s.UpdatedAt
		out.UpdatedAt = &updated
	}
	out.Messages = append([]Message(nil), s.Messages...)
	out.Sources = append([]Source(nil), s.Sources...)
	out.Logs = append([]LogEntry(nil), s.Logs...)
	out.Workflow = s.Workflow.Clone()
	return &out
}
