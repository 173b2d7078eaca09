package chunk

import "strings"

// Splitter cuts article text into overlapping spans for embedding, trying
// progressively finer separators until each piece fits ChunkSize.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
	MinLength    int
	separators   []string
}

// NewSplitter uses paragraph, line, and sentence boundaries before falling
// back to words and raw characters.
func NewSplitter(chunkSize, chunkOverlap, minLength int) *Splitter {
	return &Splitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		MinLength:    minLength,
		separators:   []string{"\n\n", "\n", ". ", "! ", "? ", " ", ""},
	}
}

// Split returns the chunks of text, each at most ChunkSize characters with
// ChunkOverlap characters carried over between adjacent chunks. Pieces
// shorter than MinLength are discarded.
func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	pieces := s.split(text, 0)
	merged := s.merge(pieces)

	var chunks []string
	for _, c := range merged {
		c = strings.TrimSpace(c)
		if len(c) >= s.MinLength {
			chunks = append(chunks, c)
		}
	}
	return chunks
}

// split recursively divides text using the separator at depth, descending to
// finer separators for pieces that are still too large.
func (s *Splitter) split(text string, depth int) []string {
	if len(text) <= s.ChunkSize {
		return []string{text}
	}
	if depth >= len(s.separators) {
		return s.hardSplit(text)
	}

	sep := s.separators[depth]
	if sep == "" {
		return s.hardSplit(text)
	}

	parts := strings.SplitAfter(text, sep)
	if len(parts) == 1 {
		return s.split(text, depth+1)
	}

	var pieces []string
	for _, part := range parts {
		if part == "" {
			continue
		}
		if len(part) > s.ChunkSize {
			pieces = append(pieces, s.split(part, depth+1)...)
		} else {
			pieces = append(pieces, part)
		}
	}
	return pieces
}

// hardSplit cuts on character boundaries as a last resort.
func (s *Splitter) hardSplit(text string) []string {
	var pieces []string
	for len(text) > s.ChunkSize {
		pieces = append(pieces, text[:s.ChunkSize])
		text = text[s.ChunkSize:]
	}
	if text != "" {
		pieces = append(pieces, text)
	}
	return pieces
}

// merge greedily packs pieces into chunks up to ChunkSize, seeding each new
// chunk with the overlap tail of the previous one.
func (s *Splitter) merge(pieces []string) []string {
	var chunks []string
	var current strings.Builder

	for _, piece := range pieces {
		if current.Len() > 0 && current.Len()+len(piece) > s.ChunkSize {
			chunk := current.String()
			chunks = append(chunks, chunk)
			current.Reset()

			// Shrink the carried overlap from its head until the new
			// chunk stays within ChunkSize.
			tail := overlapTail(chunk, s.ChunkOverlap)
			for tail != "" && len(tail)+len(piece) > s.ChunkSize {
				if idx := strings.IndexByte(tail, ' '); idx >= 0 {
					tail = tail[idx+1:]
				} else {
					tail = ""
				}
			}
			current.WriteString(tail)
		}
		current.WriteString(piece)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// overlapTail returns the last up-to-n characters of chunk, starting at a
// word boundary where possible.
func overlapTail(chunk string, n int) string {
	if n <= 0 || len(chunk) <= n {
		if n <= 0 {
			return ""
		}
		return chunk
	}
	tail := chunk[len(chunk)-n:]
	if idx := strings.IndexByte(tail, ' '); idx >= 0 && idx < len(tail)-1 {
		tail = tail[idx+1:]
	}
	return tail
}
