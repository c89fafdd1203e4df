package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/ai"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/extract"
)

// Chunk is one retrieval unit produced from extracted text, before
// it is persisted or embedded.
type Chunk struct {
	Index        int
	Content      string
	ContentHash  string
	TokenCount   int
	CharCount    int
	PageNumber   int
	SectionTitle string
}

type Chunker struct {
	size    int
	overlap int
}

func NewChunker(size int, overlap int) *Chunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 5
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split cuts the extraction result into chunks of at most the configured
// character size. Page and section structure is never crossed by a chunk,
// so page_number and section_title stay exact where the extractor could
// recover them.
func (c *Chunker) Split(res *extract.Result) []*Chunk {
	var chunks []*Chunk
	switch {
	case len(res.Pages) > 0:
		for i, page := range res.Pages {
			c.splitPiece(&chunks, page, i+1, "")
		}
	case len(res.Sections) > 0:
		for _, sec := range res.Sections {
			c.splitPiece(&chunks, sec.Text, 0, sec.Title)
		}
	default:
		c.splitPiece(&chunks, res.Text, 0, "")
	}
	return chunks
}

func (c *Chunker) splitPiece(out *[]*Chunk, text string, page int, section string) {
	text = strings.TrimSpace(text)
	for len(text) > 0 {
		cut := c.cutPoint(text)
		content := strings.TrimSpace(text[:cut])
		if content != "" {
			*out = append(*out, &Chunk{
				Index:        len(*out),
				Content:      content,
				ContentHash:  HashContent(content),
				TokenCount:   ai.EstimateTokens(content),
				CharCount:    len([]rune(content)),
				PageNumber:   page,
				SectionTitle: section,
			})
		}
		if cut >= len(text) {
			break
		}
		next := cut - c.overlap
		if next <= 0 {
			next = cut
		}
		// the rewind is a byte offset and can land inside a multi-byte
		// rune; cut itself is always a rune start, so moving forward
		// terminates before it
		for next < cut && !isRuneStart(text[next]) {
			next++
		}
		text = strings.TrimSpace(text[next:])
	}
}

// cutPoint finds where to end the next chunk: the last paragraph break
// within the size budget, else the last sentence end, else a hard cut at
// a rune boundary.
func (c *Chunker) cutPoint(text string) int {
	if len(text) <= c.size {
		return len(text)
	}
	window := text[:c.size]
	if idx := strings.LastIndex(window, "\n\n"); idx > c.size/2 {
		return idx
	}
	best := -1
	for _, sep := range []string{". ", ".\n", "! ", "? ", "\n"} {
		if idx := strings.LastIndex(window, sep); idx > best {
			best = idx + len(sep)
		}
	}
	if best > c.size/2 {
		return best
	}
	cut := c.size
	for cut > 0 && !isRuneStart(text[cut]) {
		cut--
	}
	return cut
}

func isRuneStart(b byte) bool {
	return b < 0x80 || b >= 0xc0
}

func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func totalWords(chunks []*Chunk) int {
	total := 0
	for _, c := range chunks {
		total += len(strings.Fields(c.Content))
	}
	return total
}
