package chat

// Session captures a transient anonymous conversation. Only its message log
// is persisted; the id itself is never registered anywhere.
type Session struct {
	ID string `json:"sessionId"`
}
