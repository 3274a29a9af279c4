package segment_test

import (
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/segment"
)

func TestSplitRoundTrip(t *testing.T) {
	texts := []string{
		"single paragraph without separator",
		"first paragraph\n\nsecond paragraph\n\nthird paragraph",
		"a\n\n\n\nb\n\nc\n",
		strings.Repeat("Lernbereich 1: Zellbiologie und Mikroskopie.\n\n", 40),
	}

	for _, text := range texts {
		chunks := segment.Split(text, 100, 20)
		gt.A(t, chunks).Longer(0)
		gt.Equal(t, segment.Join(chunks), text)
	}
}

func TestSplitOffsets(t *testing.T) {
	text := strings.Repeat("one paragraph of curriculum text here.\n\n", 20)
	chunks := segment.Split(text, 120, 30)

	for i, c := range chunks {
		gt.Equal(t, c.Seq, i)
		gt.Equal(t, text[c.Start:c.End], c.Text)
		if i > 0 {
			// Contiguous modulo overlap
			gt.B(t, c.Start <= chunks[i-1].End).True()
			gt.B(t, c.End > chunks[i-1].End).True()
		}
	}
	gt.Equal(t, chunks[len(chunks)-1].End, len(text))
}

func TestSplitSizeBound(t *testing.T) {
	text := strings.Repeat("short paragraph.\n\n", 50)
	const target, overlap = 200, 40
	chunks := segment.Split(text, target, overlap)
	gt.A(t, chunks).Longer(1)

	for i, c := range chunks {
		preOverlap := len(c.Text)
		if i > 0 {
			preOverlap -= chunks[i-1].End - c.Start
		}
		gt.B(t, preOverlap <= target).True()
	}
}

func TestSplitOversizedParagraph(t *testing.T) {
	huge := strings.Repeat("x", 500)
	text := "intro.\n\n" + huge + "\n\noutro."

	chunks := segment.Split(text, 100, 10)
	gt.Equal(t, segment.Join(chunks), text)

	// The oversized paragraph must land in one chunk, not be split
	found := false
	for _, c := range chunks {
		if strings.Contains(c.Text, huge) {
			found = true
		}
	}
	gt.B(t, found).True()
}

func TestSplitFiveThousandChars(t *testing.T) {
	para := strings.Repeat("Kompetenzerwartung: naturwissenschaftliches Arbeiten. ", 5)
	var sb strings.Builder
	for sb.Len() < 5000 {
		sb.WriteString(para)
		sb.WriteString("\n\n")
	}
	text := sb.String()[:5000]

	chunks := segment.Split(text, 1500, 200)
	gt.B(t, len(chunks) >= 3).True()
	gt.Equal(t, segment.Join(chunks), text)
}

func TestSplitEmpty(t *testing.T) {
	gt.A(t, segment.Split("", 100, 10)).Length(0)
}
