package llm

import "strings"

// SplitText cuts a document into overlapping chunks for embedding. Chunk
// boundaries snap back to the nearest whitespace so words stay intact, and
// each chunk after the first repeats the tail of its predecessor to keep
// context across the cut.
func SplitText(text string, chunkSize, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}

	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + chunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = snapToWhitespace(runes, start, end)
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}

		next := end - overlap
		if next <= start {
			next = start + 1
		}
		// Back up to a word boundary so no chunk starts mid-word.
		for next > start+1 && !isSpace(runes[next-1]) {
			next--
		}
		start = next
	}
	return chunks
}

// snapToWhitespace moves end left to the last whitespace in the chunk, so
// long as that keeps at least half the chunk.
func snapToWhitespace(runes []rune, start, end int) int {
	min := start + (end-start)/2
	for i := end; i > min; i-- {
		if isSpace(runes[i-1]) {
			return i
		}
	}
	return end
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\n', '\t', '\r':
		return true
	}
	return false
}
