// Package ingest turns CV content into embedded documents in the vector
// store: splitting, batch embedding, insertion, and optional re-ingestion
// on file changes.
package ingest

import (
	"strings"
)

// Default values
const (
	DefaultChunkSize    = 500 // chars per chunk
	DefaultChunkOverlap = 50  // chars carried over between chunks
)

// defaultSeparators are tried in order, from coarsest to finest.
var defaultSeparators = []string{"\n\n", "\n", ".", "!", "?", ",", " ", ""}

// Splitter splits text into overlapping chunks, preferring to break at
// paragraph and sentence boundaries before falling back to words and
// finally raw characters.
type Splitter struct {
	chunkSize  int
	overlap    int
	separators []string
}

// NewSplitter creates a splitter with the given chunk size and overlap.
func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultChunkOverlap
	}
	return &Splitter{
		chunkSize:  chunkSize,
		overlap:    overlap,
		separators: defaultSeparators,
	}
}

// Split splits text into chunks of at most the configured size.
func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= s.chunkSize {
		return []string{text}
	}

	parts := s.fragments(text, s.separators)
	return s.merge(parts)
}

// fragments recursively splits text into pieces no larger than chunkSize,
// using the coarsest separator that appears in the text.
func (s *Splitter) fragments(text string, separators []string) []string {
	if len(text) <= s.chunkSize {
		return []string{text}
	}

	sep := ""
	var finer []string
	for i, candidate := range separators {
		if candidate == "" {
			sep = ""
			finer = nil
			break
		}
		if strings.Contains(text, candidate) {
			sep = candidate
			finer = separators[i+1:]
			break
		}
	}

	// No separator left: hard cut
	if sep == "" {
		var out []string
		for len(text) > s.chunkSize {
			out = append(out, text[:s.chunkSize])
			text = text[s.chunkSize:]
		}
		if text != "" {
			out = append(out, text)
		}
		return out
	}

	var out []string
	for _, part := range strings.SplitAfter(text, sep) {
		if len(part) > s.chunkSize {
			out = append(out, s.fragments(part, finer)...)
		} else if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// merge greedily joins fragments into chunks up to chunkSize, carrying
// overlap characters from the end of each chunk into the next.
func (s *Splitter) merge(parts []string) []string {
	var chunks []string
	var current strings.Builder
	var seeded int // chars of overlap seed at the start of current

	flush := func() {
		chunk := strings.TrimSpace(current.String())
		current.Reset()
		seeded = 0
		if chunk == "" {
			return
		}
		chunks = append(chunks, chunk)

		// Seed the next chunk with the overlap tail
		if s.overlap > 0 && len(chunk) > s.overlap {
			tail := chunk[len(chunk)-s.overlap:]
			// Avoid starting mid-word
			if idx := strings.IndexAny(tail, " \n"); idx >= 0 && idx+1 < len(tail) {
				tail = tail[idx+1:]
			}
			current.WriteString(tail)
			seeded = current.Len()
		}
	}

	for _, part := range parts {
		if current.Len()+len(part) > s.chunkSize && current.Len() > seeded {
			flush()
		}
		current.WriteString(part)
	}

	// A final chunk that is nothing but the overlap seed adds no content.
	if current.Len() > seeded {
		if chunk := strings.TrimSpace(current.String()); chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	return chunks
}
