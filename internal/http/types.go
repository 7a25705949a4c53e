package http

import "github.com/botfusions/memorid/internal/memori"

// Message length bounds for POST /chat.
const (
	minMessageLen = 1
	maxMessageLen = 5000
)

// ChatRequest is the request body for POST /chat.
type ChatRequest struct {
	Message      string `json:"message"`
	UserID       string `json:"user_id,omitempty"`
	Namespace    string `json:"namespace,omitempty"`
	Model        string `json:"model,omitempty"`
	SystemPrompt string `json:"system_prompt,omitempty"`
}

// ChatMetadata carries per-call details alongside a successful response.
type ChatMetadata struct {
	Model     string       `json:"model"`
	Namespace string       `json:"namespace"`
	Usage     memori.Usage `json:"usage"`
}

// ChatResponse is the response body for POST /chat.
type ChatResponse struct {
	Success  bool          `json:"success"`
	Response string        `json:"response,omitempty"`
	Error    string        `json:"error,omitempty"`
	Metadata *ChatMetadata `json:"metadata,omitempty"`
}

// HealthResponse is the response body for GET / and GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// NamespacesResponse is the response body for GET /memory/namespaces.
type NamespacesResponse struct {
	Namespaces []string `json:"namespaces"`
	Count      int      `json:"count"`
}
