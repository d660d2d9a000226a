package rag

// Passage is a retrieved chunk payload from the vector index.
type Passage struct {
	Text  string `json:"text"`
	Title string `json:"title,omitempty"`
	URL   string `json:"url,omitempty"`
}
