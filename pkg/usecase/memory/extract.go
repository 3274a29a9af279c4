package memory

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"sort"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/model"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/utils/logging"
	"google.golang.org/genai"
)

//go:embed prompt/extract.md
var extractPromptRaw string

var extractPromptTmpl = template.Must(template.New("extract").Parse(extractPromptRaw))

const (
	// maxTurns is how much of the conversation window the extraction
	// collaborator sees
	maxTurns = 6

	// maxExistingMemories caps the known-facts context given to the
	// collaborator so it can avoid near-duplicates
	maxExistingMemories = 30

	// substantialMessageLen is the throttle boundary for extraction
	substantialMessageLen = 50
)

// Turn is one conversation message
type Turn struct {
	Role    string
	Content string
}

// ExtractInput contains parameters for one extraction pass
type ExtractInput struct {
	UserID         model.UserID
	ConversationID string
	Turns          []Turn
}

// ExtractResult reports what the pass persisted
type ExtractResult struct {
	Saved   []*model.MemoryEntry
	Dropped int
	Summary *model.SessionSummary
}

// ShouldExtract is the cost throttle for extraction: run only for a
// substantial message or on every third user turn. userTurn is the
// 1-based count of user messages in the conversation.
func ShouldExtract(message string, userTurn int) bool {
	if len([]rune(message)) > substantialMessageLen {
		return true
	}
	return userTurn > 0 && userTurn%3 == 0
}

// Extract asks the extraction collaborator for candidate memories from
// the conversation window and persists the valid ones. Candidates with a
// category outside the closed tag set are dropped and logged, never
// stored. Invoked only after the visible chat response was produced.
func (uc *UseCase) Extract(ctx context.Context, input ExtractInput) (*ExtractResult, error) {
	logger := logging.From(ctx)

	existing, err := uc.rankedExisting(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	proposal, err := uc.propose(ctx, input, existing)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get extraction proposal")
	}

	result := &ExtractResult{}
	for _, c := range proposal.Memories {
		category := model.Category(strings.TrimSpace(c.Category))
		if err := category.Validate(); err != nil {
			logger.Warn("dropping extraction candidate with invalid category",
				"category", c.Category, "key", c.Key)
			result.Dropped++
			continue
		}

		entry := &model.MemoryEntry{
			UserID:     input.UserID,
			Scope:      parseScope(c.Scope),
			RefID:      c.RefID,
			Category:   category,
			Key:        strings.TrimSpace(c.Key),
			Value:      strings.TrimSpace(c.Value),
			Importance: clampImportance(c.Importance),
			Source:     parseSource(c.Source),
		}
		if entry.Key == "" || entry.Value == "" {
			result.Dropped++
			continue
		}

		saved, err := uc.upsert(ctx, entry)
		if err != nil {
			return nil, err
		}
		result.Saved = append(result.Saved, saved)
	}

	if s := strings.TrimSpace(proposal.Summary); s != "" && input.ConversationID != "" {
		summary := &model.SessionSummary{
			ID:        input.ConversationID,
			UserID:    input.UserID,
			Summary:   s,
			UpdatedAt: uc.now(),
		}
		if err := uc.repo.PutSessionSummary(ctx, summary); err != nil {
			return nil, goerr.Wrap(err, "failed to save session summary")
		}
		result.Summary = summary
	}

	return result, nil
}

// rankedExisting returns the user's memories ordered by importance desc,
// then recency desc, capped for prompt context
func (uc *UseCase) rankedExisting(ctx context.Context, user model.UserID) ([]*model.MemoryEntry, error) {
	entries, err := uc.repo.ListMemories(ctx, user)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list existing memories")
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Importance != entries[j].Importance {
			return entries[i].Importance > entries[j].Importance
		}
		return entries[i].LastTouch().After(entries[j].LastTouch())
	})

	if len(entries) > maxExistingMemories {
		entries = entries[:maxExistingMemories]
	}
	return entries, nil
}

// candidate mirrors the collaborator's JSON output; parse defensively
type candidate struct {
	Scope      string  `json:"scope"`
	Category   string  `json:"category"`
	Key        string  `json:"key"`
	Value      string  `json:"value"`
	Importance float64 `json:"importance"`
	Source     string  `json:"source"`
	RefID      string  `json:"ref_id,omitempty"`
}

type proposal struct {
	Memories []candidate `json:"memories"`
	Summary  string      `json:"summary"`
}

// propose runs the extraction collaborator over the last turns with the
// known-memory context
func (uc *UseCase) propose(ctx context.Context, input ExtractInput, existing []*model.MemoryEntry) (*proposal, error) {
	turns := input.Turns
	if len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}

	var buf bytes.Buffer
	if err := extractPromptTmpl.Execute(&buf, map[string]any{
		"Turns":      turns,
		"Existing":   existing,
		"Categories": model.Categories(),
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to execute extraction prompt template")
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"memories": {
					Type:        genai.TypeArray,
					Description: "Durable facts extracted from the conversation",
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"scope":      {Type: genai.TypeString, Description: "self, school, class, or student"},
							"category":   {Type: genai.TypeString, Description: "One of the fixed category tags"},
							"key":        {Type: genai.TypeString, Description: "Short identifying key of the fact"},
							"value":      {Type: genai.TypeString, Description: "The fact itself"},
							"importance": {Type: genai.TypeNumber, Description: "0.0 to 1.0"},
							"source":     {Type: genai.TypeString, Description: "explicit or inferred"},
							"ref_id":     {Type: genai.TypeString, Description: "Class or student reference, if any"},
						},
						Required: []string{"scope", "category", "key", "value"},
					},
				},
				"summary": {
					Type:        genai.TypeString,
					Description: "One-paragraph synopsis of this session",
				},
			},
			Required: []string{"memories"},
		},
	}

	contents := []*genai.Content{genai.NewContentFromText(buf.String(), genai.RoleUser)}
	resp, err := uc.gemini.GenerateContent(ctx, contents, config)
	if err != nil {
		return nil, err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, goerr.New("extraction collaborator returned no content")
	}

	var p proposal
	text := resp.Candidates[0].Content.Parts[0].Text
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return nil, goerr.Wrap(err, "failed to parse extraction proposal", goerr.V("raw", text))
	}
	return &p, nil
}

func parseScope(s string) model.MemoryScope {
	scope := model.MemoryScope(strings.TrimSpace(strings.ToLower(s)))
	if err := scope.Validate(); err != nil {
		return model.ScopeSelf
	}
	return scope
}

func parseSource(s string) model.MemorySource {
	if strings.TrimSpace(strings.ToLower(s)) == string(model.SourceExplicit) {
		return model.SourceExplicit
	}
	return model.SourceInferred
}

func clampImportance(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
