package rag

const (
	defaultChunkSize    = 500
	defaultChunkOverlap = 100
)

// Chunker splits document text into fixed-size overlapping windows.
// Sizes are counted in runes so multibyte text never splits mid-character.
type Chunker struct {
	size    int
	overlap int
}

type ChunkerOption func(*Chunker)

// WithChunkSize sets the window size in runes
func WithChunkSize(n int) ChunkerOption {
	return func(c *Chunker) {
		if n > 0 {
			c.size = n
		}
	}
}

// WithChunkOverlap sets how many runes consecutive windows share
func WithChunkOverlap(n int) ChunkerOption {
	return func(c *Chunker) {
		if n >= 0 {
			c.overlap = n
		}
	}
}

func NewChunker(opts ...ChunkerOption) *Chunker {
	c := &Chunker{size: defaultChunkSize, overlap: defaultChunkOverlap}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlap >= c.size {
		c.overlap = c.size - 1
	}
	return c
}

// Split returns the overlapping windows covering text, in order.
// Empty or whitespace-only input yields no chunks.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := c.size - c.overlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
