// Package segment splits extracted curriculum text into overlapping
// chunks for embedding and retrieval.
package segment

import "strings"

const (
	DefaultTargetSize = 1500
	DefaultOverlap    = 200
)

// Chunk is one emitted text span. Start and End are byte offsets of the
// chunk's text in the original input; because each chunk is reseeded with
// the tail of its predecessor, Start of chunk i equals End of chunk i-1
// minus the carried overlap.
type Chunk struct {
	Seq   int
	Text  string
	Start int
	End   int
}

// Split breaks text into chunks on blank-line paragraph boundaries.
// Paragraphs accumulate into a buffer; when the next paragraph would push
// the buffer past targetSize, the buffer is emitted and reseeded with its
// trailing overlap characters so context carries across the boundary. A
// single paragraph larger than targetSize is emitted whole rather than
// split mid-sentence. The final non-empty buffer is always emitted.
func Split(text string, targetSize, overlap int) []Chunk {
	if targetSize <= 0 {
		targetSize = DefaultTargetSize
	}
	if overlap < 0 || overlap >= targetSize {
		overlap = DefaultOverlap
	}
	if text == "" {
		return nil
	}

	paragraphs := splitParagraphs(text)

	var chunks []Chunk
	var buf strings.Builder
	prefixLen := 0 // leading bytes of buf carried over from the last chunk
	bodyStart := 0 // offset in text where the non-carried part of buf begins

	emit := func() {
		body := buf.String()
		start := bodyStart - prefixLen
		chunks = append(chunks, Chunk{
			Seq:   len(chunks),
			Text:  body,
			Start: start,
			End:   start + len(body),
		})

		tail := body
		if len(tail) > overlap {
			tail = tail[len(tail)-overlap:]
		}
		bodyStart = start + len(body)
		prefixLen = len(tail)
		buf.Reset()
		buf.WriteString(tail)
	}

	for _, p := range paragraphs {
		if buf.Len() > prefixLen && buf.Len()+len(p) > targetSize {
			emit()
		}
		buf.WriteString(p)
	}
	if buf.Len() > prefixLen || len(chunks) == 0 {
		emit()
	}

	return chunks
}

// Join reassembles the original text from chunks produced by Split,
// trimming each chunk's carried prefix based on its offsets. Used to
// verify lossless segmentation.
func Join(chunks []Chunk) string {
	var sb strings.Builder
	for i, c := range chunks {
		t := c.Text
		if i > 0 {
			skip := chunks[i-1].End - c.Start
			if skip < 0 || skip > len(t) {
				skip = 0
			}
			t = t[skip:]
		}
		sb.WriteString(t)
	}
	return sb.String()
}

// splitParagraphs cuts text at blank-line boundaries. Separators stay
// attached to the preceding paragraph so offsets remain exact.
func splitParagraphs(text string) []string {
	var out []string
	start := 0
	for start < len(text) {
		idx := strings.Index(text[start:], "\n\n")
		if idx < 0 {
			out = append(out, text[start:])
			break
		}
		end := start + idx + 2
		for end < len(text) && text[end] == '\n' {
			end++
		}
		out = append(out, text[start:end])
		start = end
	}
	return out
}
