package rag

// Article is one entry of the ingest corpus (articles.json).
type Article struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Text      string  `json:"text"`
	URL       string  `json:"url"`
	Published *string `json:"published"`
}

// Point is a vector plus payload ready to be upserted into the index.
type Point struct {
	ID      uint64
	Vector  []float32
	Payload Passage
}
