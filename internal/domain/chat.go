package domain

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is a single prior conversation turn supplied by the caller.
// It only enriches the prompt of the current request and is never stored.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
