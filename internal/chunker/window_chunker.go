package chunker

import "strings"

// Default window parameters.
const (
	DefaultMaxChars = 800
	DefaultOverlap  = 100
	// MinChunkChars drops chunks that are too short to be useful context.
	MinChunkChars = 50
)

// WindowChunker splits text into fixed-size rune windows with overlap.
type WindowChunker struct {
	maxChars int
	overlap  int
}

// NewWindowChunker creates a chunker with windows of maxChars runes, each
// starting maxChars-overlap runes after the previous one. maxChars <= 0 means
// DefaultMaxChars; an overlap outside [0, maxChars) is treated as 0.
func NewWindowChunker(maxChars, overlap int) *WindowChunker {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if overlap < 0 || overlap >= maxChars {
		overlap = 0
	}
	return &WindowChunker{maxChars: maxChars, overlap: overlap}
}

// Split returns the trimmed windows of text longer than MinChunkChars runes.
func (c *WindowChunker) Split(text string) []string {
	runes := []rune(text)
	step := c.maxChars - c.overlap

	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + c.maxChars
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if len([]rune(chunk)) > MinChunkChars {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}
