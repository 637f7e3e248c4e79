package client

type CreateSessionRequest struct {
	AgentType string `json:"agent_type"`
	Title     string `json:"title,omitempty"`
}

type SendMessageRequest struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

type SendMessageResponse struct {
	OK     bool   `json:"ok"`
	TaskID string `json:"task_id,omitempty"`
}

type HealthResponse struct {
	OK      bool   `json:"ok"`
	Version string `json:"version"`
}

type errorPayload struct {
	Error string `json:"error"`
}
