package llm

import (
	"strings"
	"testing"
)

func TestSplitText_ShortTextSingleChunk(t *testing.T) {
	chunks := SplitText("a short document", 1000, 100)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "a short document" {
		t.Fatalf("chunk = %q", chunks[0])
	}
}

func TestSplitText_EmptyText(t *testing.T) {
	if chunks := SplitText("   \n ", 1000, 100); chunks != nil {
		t.Fatalf("expected nil, got %v", chunks)
	}
}

func TestSplitText_RespectsChunkSize(t *testing.T) {
	text := strings.Repeat("word ", 500)
	chunks := SplitText(text, 200, 20)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len([]rune(chunk)) > 200 {
			t.Fatalf("chunk %d exceeds size: %d runes", i, len([]rune(chunk)))
		}
	}
}

func TestSplitText_OverlapCarriesContext(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta ", 100)
	chunks := SplitText(text, 100, 30)

	for i := 1; i < len(chunks); i++ {
		prevTail := chunks[i-1][len(chunks[i-1])/2:]
		found := false
		for _, word := range strings.Fields(prevTail) {
			if strings.Contains(chunks[i], word) {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("chunk %d shares no context with its predecessor", i)
		}
	}
}

func TestSplitText_NoWordSplits(t *testing.T) {
	text := strings.Repeat("unbreakable ", 100)
	chunks := SplitText(text, 64, 8)

	for i, chunk := range chunks {
		for _, word := range strings.Fields(chunk) {
			if word != "unbreakable" {
				t.Fatalf("chunk %d split a word: %q", i, word)
			}
		}
	}
}

func TestSplitText_CoversWholeDocument(t *testing.T) {
	text := strings.Repeat("x y z ", 200)
	chunks := SplitText(text, 50, 10)

	var total int
	for _, chunk := range chunks {
		total += len(chunk)
	}
	if total < len(strings.TrimSpace(text))-len(chunks)*10 {
		t.Fatalf("chunks cover too little text: %d of %d", total, len(text))
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding space", "  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSON(tt.in); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}
