package domain

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest - входящее сообщение агенту, entityType/entityId указывают на сущность CRM (лид, проект и т.п.)
type ChatRequest struct {
	Message    string `json:"message"`
	EntityType string `json:"entityType"`
	EntityID   string `json:"entityId"`
	SessionID  string `json:"sessionId,omitempty"`
}

type ChatResponse struct {
	AIResponse             string    `json:"aiResponse"`
	NewConversationHistory []Message `json:"newConversationHistory"`
}

// NewExchange собирает ответ из пары user/assistant
func NewExchange(userMessage, reply string) *ChatResponse {
	return &ChatResponse{
		AIResponse: reply,
		NewConversationHistory: []Message{
			{Role: RoleUser, Content: userMessage},
			{Role: RoleAssistant, Content: reply},
		},
	}
}
