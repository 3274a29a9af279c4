package knowledge

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/model"
)

const (
	fallbackMaxWords       = 3
	fallbackMinWordLen     = 3
	fallbackPerWordPerDoc  = 3
	fallbackWindow         = 400
	fallbackHeadWindow     = 800
	fallbackDedupPrefixLen = 200
	fallbackMaxResults     = 5
)

// keywordSearch is the degraded retrieval path used when embeddings are
// unavailable: a case-insensitive substring scan over the user's own
// chunks, with windowed excerpts and the same attribution format as the
// primary path.
func (uc *UseCase) keywordSearch(ctx context.Context, user model.UserID, query string) (*SearchResult, error) {
	chunks, err := uc.repo.ListChunks(ctx, user)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list chunks for keyword search")
	}

	words := queryWords(query)

	var matches []*Match
	var sources []source
	seen := make(map[string]bool)

	for _, word := range words {
		perDoc := make(map[model.DocumentID]int)

		for _, chunk := range chunks {
			if perDoc[chunk.DocumentID] >= fallbackPerWordPerDoc {
				continue
			}
			idx := strings.Index(strings.ToLower(chunk.Text), word)
			if idx < 0 {
				continue
			}
			perDoc[chunk.DocumentID]++

			window := excerptWindow(chunk.Text, idx)
			key := window
			if len(key) > fallbackDedupPrefixLen {
				key = key[:fallbackDedupPrefixLen]
			}
			if seen[key] {
				continue
			}
			seen[key] = true

			matches = append(matches, &Match{
				DocumentID: chunk.DocumentID,
				Seq:        chunk.Seq,
				Text:       window,
				Label:      sourceLabel(chunk.Subject, chunk.Region),
			})
			sources = append(sources, source{
				subject:   chunk.Subject,
				gradeBand: chunk.GradeBand,
				region:    chunk.Region,
			})
			if len(matches) >= fallbackMaxResults {
				return &SearchResult{Matches: matches, Attribution: attributionFor(sources)}, nil
			}
		}
	}

	return &SearchResult{Matches: matches, Attribution: attributionFor(sources)}, nil
}

// queryWords keeps the first few query words long enough to be selective
func queryWords(query string) []string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		w = strings.Trim(w, ".,;:!?\"'()")
		if len([]rune(w)) < fallbackMinWordLen {
			continue
		}
		words = append(words, w)
		if len(words) >= fallbackMaxWords {
			break
		}
	}
	return words
}

// excerptWindow extracts the text around the first match occurrence, or
// the head of the chunk when no position is known
func excerptWindow(text string, idx int) string {
	if idx < 0 {
		if len(text) > fallbackHeadWindow {
			return text[:fallbackHeadWindow]
		}
		return text
	}

	start := idx - fallbackWindow
	if start < 0 {
		start = 0
	}
	end := idx + fallbackWindow
	if end > len(text) {
		end = len(text)
	}
	return text[start:end]
}
