package memory_test

import (
	"context"
	"time"

	"github.com/sbrill95/eduhu-assistant-sub000/pkg/adapter"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/model"
	"google.golang.org/genai"
)

type geminiMock struct {
	response string
	err      error
	prompts  []string
}

func (m *geminiMock) Embed(ctx context.Context, texts []string) ([]adapter.Embedding, error) {
	embeddings := make([]adapter.Embedding, len(texts))
	for i := range texts {
		embeddings[i] = adapter.Embedding{Index: i, Values: []float32{1, 0, 0}}
	}
	return embeddings, nil
}

func (m *geminiMock) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		m.prompts = append(m.prompts, contents[0].Parts[0].Text)
	}
	if m.err != nil {
		return nil, m.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []*genai.Part{{Text: m.response}},
				},
			},
		},
	}, nil
}

type cooldownMock struct {
	active  bool
	touched int
}

func (c *cooldownMock) Active(user model.UserID) bool {
	return c.active
}

func (c *cooldownMock) Touch(user model.UserID) {
	c.touched++
}

type auditMock struct {
	ingests        []*adapter.IngestRecord
	consolidations []*adapter.ConsolidationRecord
}

func (a *auditMock) IngestRun(ctx context.Context, rec *adapter.IngestRecord) error {
	a.ingests = append(a.ingests, rec)
	return nil
}

func (a *auditMock) ConsolidationRun(ctx context.Context, rec *adapter.ConsolidationRecord) error {
	a.consolidations = append(a.consolidations, rec)
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
