package chat

// Roles recorded in a session log.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation. It is stored verbatim in the
// session log and returned as-is by the history endpoint.
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// UserMessage builds a user turn.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Text: text}
}

// AssistantMessage builds an assistant turn.
func AssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Text: text}
}
