package model

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

type ChatSession struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	Title         string `json:"title"`
	IsArchived    int    `json:"is_archived"`
	IsPinned      int    `json:"is_pinned"`
	LastMessageAt int64  `json:"last_message_at"`
	Ctime         int64  `json:"ctime"`
	Mtime         int64  `json:"mtime"`
}

type ChatMessage struct {
	ID             string            `json:"id"`
	SessionID      string            `json:"session_id"`
	Role           string            `json:"role"`
	Content        string            `json:"content"`
	Sources        map[string]string `json:"sources"`
	ModelUsed      string            `json:"model_used"`
	TokensUsed     int               `json:"tokens_used"`
	ResponseTimeMs int64             `json:"response_time_ms"`
	Rating         int               `json:"rating"`
	Feedback       string            `json:"feedback"`
	Ctime          int64             `json:"ctime"`
}

func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}
