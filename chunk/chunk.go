// Package chunk implements the byte-offset, UTF-8-boundary-safe text
// chunking algorithm used by the indexer (SPEC_FULL.md §4.4.1).
package chunk

import (
	"fmt"
	"unicode/utf8"
)

// Config controls chunk size and overlap, both in bytes.
type Config struct {
	Size    int
	Overlap int
}

// Validate checks 0 <= Overlap < Size.
func (c Config) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("chunk: size must be positive, got %d", c.Size)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("chunk: overlap must be non-negative, got %d", c.Overlap)
	}
	if c.Overlap >= c.Size {
		return fmt.Errorf("chunk: overlap (%d) must be less than size (%d)", c.Overlap, c.Size)
	}
	return nil
}

// Chunk is one slice of a chunked document.
type Chunk struct {
	Content    string
	StartByte  int
	EndByte    int
	Index      int
	Total      int
}

// Chunker splits text into overlapping, UTF-8-safe byte-bounded chunks.
type Chunker struct {
	cfg Config
}

// New constructs a Chunker, failing if cfg is invalid.
func New(cfg Config) (*Chunker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Chunker{cfg: cfg}, nil
}

// Chunk splits text per SPEC_FULL.md §4.4.1:
//  1. Empty input produces an empty list.
//  2. If len(text) <= Size, output is [text].
//  3. Otherwise, start positions advance by step = Size - Overlap and each
//     chunk ends at min(start+Size, len(text)); iteration stops once a
//     chunk's end reaches len(text).
//  4. Start/end offsets are rounded to valid UTF-8 boundaries (start up,
//     end down) before slicing; a chunk that rounds to empty is discarded.
func (c *Chunker) Chunk(text string) []Chunk {
	L := len(text)
	if L == 0 {
		return nil
	}
	if L <= c.cfg.Size {
		return []Chunk{{Content: text, StartByte: 0, EndByte: L, Index: 0, Total: 1}}
	}

	step := c.cfg.Size - c.cfg.Overlap

	var raw []struct{ start, end int }
	s := 0
	for {
		end := s + c.cfg.Size
		if end > L {
			end = L
		}

		rs := roundUp(text, s)
		re := roundDown(text, end)
		if re > rs {
			raw = append(raw, struct{ start, end int }{rs, re})
		}

		if end == L {
			break
		}
		s += step
	}

	chunks := make([]Chunk, len(raw))
	for i, r := range raw {
		chunks[i] = Chunk{
			Content:   text[r.start:r.end],
			StartByte: r.start,
			EndByte:   r.end,
			Index:     i,
			Total:     len(raw),
		}
	}
	return chunks
}

func isBoundary(s string, i int) bool {
	if i <= 0 || i >= len(s) {
		return true
	}
	return utf8.RuneStart(s[i])
}

func roundUp(s string, i int) int {
	for i < len(s) && !isBoundary(s, i) {
		i++
	}
	return i
}

func roundDown(s string, i int) int {
	for i > 0 && !isBoundary(s, i) {
		i--
	}
	return i
}
