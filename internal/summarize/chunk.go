package summarize

import (
	"fmt"
	"unicode"
)

// Default chunking parameters.
const (
	DefaultChunkSize = 2000 // characters
	DefaultOverlap   = 0
)

// TranscriptChunk is a contiguous slice of the transcript.
// Text is always an exact substring of the source, starting at byte Offset.
type TranscriptChunk struct {
	Index     int    // 0-based, document order
	Text      string // trimmed to word boundaries
	CharCount int    // runes, not bytes
	Offset    int    // byte offset in the source text
}

// word is the byte and rune span of a run of non-space characters.
type word struct {
	start, end         int // bytes
	runeStart, runeEnd int
}

// scanWords returns the non-space runs of text in order.
func scanWords(text string) []word {
	var (
		words  []word
		cur    word
		inWord bool
		runes  int
	)
	for i, r := range text {
		if unicode.IsSpace(r) {
			if inWord {
				cur.end, cur.runeEnd = i, runes
				words = append(words, cur)
				inWord = false
			}
		} else if !inWord {
			cur = word{start: i, runeStart: runes}
			inWord = true
		}
		runes++
	}
	if inWord {
		cur.end, cur.runeEnd = len(text), runes
		words = append(words, cur)
	}
	return words
}

// Split partitions text into chunks of at most chunkSize characters.
//
// Chunks break only at whitespace, so a word is never cut. A single word
// longer than chunkSize becomes its own oversized chunk. When overlap > 0,
// each chunk starts with the trailing words of its predecessor spanning at
// most overlap characters, provided the next new word still fits.
//
// Empty or whitespace-only text yields an empty slice.
func Split(text string, chunkSize, overlap int) ([]TranscriptChunk, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d must be positive", ErrInvalidChunking, chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be in [0, %d)", ErrInvalidChunking, overlap, chunkSize)
	}

	words := scanWords(text)
	chunks := make([]TranscriptChunk, 0, len(words)/max(chunkSize/8, 1)+1)

	// span is the rune length of words i..j including the spaces between them.
	span := func(i, j int) int { return words[j].runeEnd - words[i].runeStart }

	for i := 0; i < len(words); {
		j := i
		for j+1 < len(words) && span(i, j+1) <= chunkSize {
			j++
		}

		chunks = append(chunks, TranscriptChunk{
			Index:     len(chunks),
			Text:      text[words[i].start:words[j].end],
			CharCount: span(i, j),
			Offset:    words[i].start,
		})

		if j == len(words)-1 {
			break
		}

		next := j + 1
		if overlap > 0 {
			for k := i + 1; k <= j; k++ {
				if span(k, j) <= overlap && span(k, j+1) <= chunkSize {
					next = k
					break
				}
			}
		}
		i = next
	}

	return chunks, nil
}
