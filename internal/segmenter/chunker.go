package segmenter

import "strings"

// span is a chunk of text plus its start offset in the source document.
type span struct {
	text   string
	offset int
}

// sentence is a sentence plus its start offset.
type sentence struct {
	text   string
	offset int
}

// chunkText splits the document into sentences, then packs sentences into
// chunks up to the configured word budget, carrying the trailing overlap
// words into the next chunk so context survives the cut.
func (s *Segmenter) chunkText(text string) []span {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []span
	var current strings.Builder
	currentWords := 0
	currentOffset := sentences[0].offset

	flush := func(nextOffset int) {
		chunk := strings.TrimSpace(current.String())
		if chunk == "" {
			return
		}
		chunks = append(chunks, span{text: chunk, offset: currentOffset})

		// Seed the next chunk with the overlap tail of this one.
		words := strings.Fields(chunk)
		tail := words
		if len(tail) > s.cfg.ChunkOverlap {
			tail = tail[len(tail)-s.cfg.ChunkOverlap:]
		}
		current.Reset()
		current.WriteString(strings.Join(tail, " "))
		currentWords = len(tail)
		currentOffset = nextOffset
	}

	for _, sent := range sentences {
		words := len(strings.Fields(sent.text))
		if currentWords+words > s.cfg.ChunkSize && currentWords > 0 {
			flush(sent.offset)
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sent.text)
		currentWords += words
	}

	if chunk := strings.TrimSpace(current.String()); chunk != "" {
		chunks = append(chunks, span{text: chunk, offset: currentOffset})
	}
	return chunks
}

// splitSentences cuts text after sentence-ending punctuation followed by
// whitespace, recording each sentence's start offset.
func splitSentences(text string) []sentence {
	var sentences []sentence
	start := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		// Sentence boundary only when punctuation is followed by whitespace
		// (or ends the text).
		if i+1 < len(text) && !isSpace(text[i+1]) {
			continue
		}
		raw := text[start : i+1]
		if trimmed := strings.TrimSpace(raw); trimmed != "" {
			sentences = append(sentences, sentence{
				text:   trimmed,
				offset: start + leadingSpace(raw),
			})
		}
		start = i + 1
	}
	if trimmed := strings.TrimSpace(text[start:]); trimmed != "" {
		raw := text[start:]
		sentences = append(sentences, sentence{
			text:   trimmed,
			offset: start + leadingSpace(raw),
		})
	}
	return sentences
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func leadingSpace(s string) int {
	return len(s) - len(strings.TrimLeft(s, " \t\n\r"))
}
