package knowledge

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/model"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/utils/logging"
)

// GuidanceNoCurriculum is returned instead of matches when the user has
// not uploaded any curriculum document yet
const GuidanceNoCurriculum = "Es wurden noch keine Lehrplandokumente hochgeladen. " +
	"Lade zuerst einen Lehrplan hoch, damit ich mich darauf beziehen kann."

// SearchInput contains parameters for a retrieval query
type SearchInput struct {
	UserID model.UserID
	Query  string
	// TopK defaults to the configured value when zero
	TopK int
	// Threshold defaults to the configured value when zero
	Threshold float64
}

// Match is one retrieved chunk with its score and source label
type Match struct {
	DocumentID model.DocumentID
	Seq        int
	Text       string
	Similarity float64
	Label      string
}

// SearchResult is a ranked retrieval result. When the user has no
// documents, Matches is empty and Guidance carries a user-facing hint.
type SearchResult struct {
	Matches     []*Match
	Attribution string
	Guidance    string
}

// Search retrieves the user's most relevant curriculum chunks for a
// query. The primary path ranks by embedding similarity; when the
// embedding service fails for any reason the keyword fallback serves the
// request in the same result format.
func (uc *UseCase) Search(ctx context.Context, input SearchInput) (*SearchResult, error) {
	logger := logging.From(ctx)

	topK := input.TopK
	if topK <= 0 {
		topK = uc.cfg.TopK
	}
	threshold := input.Threshold
	if threshold <= 0 {
		threshold = uc.cfg.Threshold
	}

	docs, err := uc.repo.ListDocuments(ctx, input.UserID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list documents")
	}
	if len(docs) == 0 {
		return &SearchResult{Guidance: GuidanceNoCurriculum}, nil
	}

	embeddings, err := uc.gemini.Embed(ctx, []string{input.Query})
	if err != nil || len(embeddings) == 0 {
		// Degrade locally; the caller never sees the outage
		logger.Warn("embedding unavailable, serving keyword fallback",
			"error", goerr.Wrap(model.ErrEmbeddingUnavailable, "query embedding failed", goerr.V("cause", err)))
		return uc.keywordSearch(ctx, input.UserID, input.Query)
	}

	scored, err := uc.repo.SearchSimilarChunks(ctx, input.UserID, embeddings[0].Values, topK)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search chunks")
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Similarity > scored[j].Similarity })

	var matches []*Match
	for _, s := range scored {
		if s.Similarity < threshold {
			continue
		}
		if len(matches) >= topK {
			break
		}
		matches = append(matches, &Match{
			DocumentID: s.Chunk.DocumentID,
			Seq:        s.Chunk.Seq,
			Text:       s.Chunk.Text,
			Similarity: s.Similarity,
			Label:      sourceLabel(s.Chunk.Subject, s.Chunk.Region),
		})
	}

	return &SearchResult{
		Matches:     matches,
		Attribution: attributionFor(matchSources(scored, threshold, topK)),
	}, nil
}

// source is one distinct (subject, grade band, region) combination
type source struct {
	subject   string
	gradeBand string
	region    string
}

func matchSources(scored []*model.ScoredChunk, threshold float64, topK int) []source {
	var sources []source
	n := 0
	for _, s := range scored {
		if s.Similarity < threshold || n >= topK {
			continue
		}
		n++
		sources = append(sources, source{
			subject:   s.Chunk.Subject,
			gradeBand: s.Chunk.GradeBand,
			region:    s.Chunk.Region,
		})
	}
	return sources
}

func sourceLabel(subject, region string) string {
	if region == "" {
		return subject
	}
	return fmt.Sprintf("%s (%s)", subject, region)
}

// attributionFor builds the shared attribution line over the distinct
// sources of a result set. Both retrieval paths use it, so callers cannot
// tell from the format which path served them.
func attributionFor(sources []source) string {
	seen := make(map[source]bool)
	var parts []string
	for _, s := range sources {
		if seen[s] {
			continue
		}
		seen[s] = true
		part := s.subject
		if s.gradeBand != "" {
			part += " Klasse " + s.gradeBand
		}
		if s.region != "" {
			part += " (" + s.region + ")"
		}
		parts = append(parts, part)
	}
	if len(parts) == 0 {
		return ""
	}
	return "Quellen: " + strings.Join(parts, "; ")
}
