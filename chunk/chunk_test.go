package chunk

import (
	"strings"
	"testing"
	"unicode/utf8"
)

// S1 Chunking: T = "0123456789ABCDEF", C = 10, O = 2 -> ["0123456789", "89ABCDEF"]
func TestS1Chunking(t *testing.T) {
	c, err := New(Config{Size: 10, Overlap: 2})
	if err != nil {
		t.Fatal(err)
	}
	got := c.Chunk("0123456789ABCDEF")
	want := []string{"0123456789", "89ABCDEF"}
	assertContents(t, got, want)
}

// S2 Short text: T = "Hello", C = 10, O = 2 -> ["Hello"]
func TestS2ShortText(t *testing.T) {
	c, err := New(Config{Size: 10, Overlap: 2})
	if err != nil {
		t.Fatal(err)
	}
	got := c.Chunk("Hello")
	assertContents(t, got, []string{"Hello"})
}

func TestEmptyInputProducesEmptyList(t *testing.T) {
	c, err := New(Config{Size: 10, Overlap: 2})
	if err != nil {
		t.Fatal(err)
	}
	got := c.Chunk("")
	if len(got) != 0 {
		t.Fatalf("Chunk(\"\") = %v, want empty", got)
	}
}

func assertContents(t *testing.T, got []Chunk, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("chunk count = %d, want %d (got=%v)", len(got), len(want), got)
	}
	for i, c := range got {
		if c.Content != want[i] {
			t.Errorf("chunk[%d] = %q, want %q", i, c.Content, want[i])
		}
		if c.Index != i || c.Total != len(want) {
			t.Errorf("chunk[%d] index/total = %d/%d, want %d/%d", i, c.Index, c.Total, i, len(want))
		}
	}
}

// Invariant 2: every chunk is valid UTF-8.
func TestUTF8Safety(t *testing.T) {
	c, err := New(Config{Size: 5, Overlap: 2})
	if err != nil {
		t.Fatal(err)
	}
	text := strings.Repeat("héllo wörld日本語", 5)
	for _, ch := range c.Chunk(text) {
		if !utf8.ValidString(ch.Content) {
			t.Errorf("chunk %q is not valid UTF-8", ch.Content)
		}
	}
}

// Invariant 1 (partial, byte-offset form): consecutive full-width chunks
// share exactly Overlap bytes at the boundary, and concatenating each
// chunk's non-overlapping prefix reconstructs the input.
func TestReconstitution(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog repeatedly and again"
	cfg := Config{Size: 12, Overlap: 4}
	c, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	chunks := c.Chunk(text)

	var rebuilt strings.Builder
	step := cfg.Size - cfg.Overlap
	for i, ch := range chunks {
		if i == len(chunks)-1 {
			rebuilt.WriteString(ch.Content)
			continue
		}
		if len(ch.Content) >= step {
			rebuilt.WriteString(ch.Content[:step])
		} else {
			rebuilt.WriteString(ch.Content)
		}
	}
	if rebuilt.String() != text {
		t.Fatalf("reconstituted = %q, want %q", rebuilt.String(), text)
	}
}

func TestInvalidConfigRejected(t *testing.T) {
	cases := []Config{
		{Size: 0, Overlap: 0},
		{Size: 10, Overlap: -1},
		{Size: 10, Overlap: 10},
		{Size: 10, Overlap: 11},
	}
	for _, cfg := range cases {
		if _, err := New(cfg); err == nil {
			t.Errorf("New(%+v) succeeded, want error", cfg)
		}
	}
}
