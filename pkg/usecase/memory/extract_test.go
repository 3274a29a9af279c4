package memory_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/model"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/repository"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/usecase/memory"
)

func TestShouldExtract(t *testing.T) {
	gt.False(t, memory.ShouldExtract("kurze Frage", 1))
	gt.False(t, memory.ShouldExtract("kurze Frage", 2))
	gt.True(t, memory.ShouldExtract("kurze Frage", 3))
	gt.True(t, memory.ShouldExtract("kurze Frage", 6))
	gt.True(t, memory.ShouldExtract(strings.Repeat("Ich unterrichte Mathematik in der 8b. ", 3), 1))
}

func TestExtractPersistsValidCandidates(t *testing.T) {
	repo := repository.NewInMemory()
	gemini := &geminiMock{response: `{
		"memories": [
			{"scope": "self", "category": "faecher_und_themen", "key": "lieblingsfach", "value": "Physik", "importance": 0.8, "source": "explicit"},
			{"scope": "class", "category": "klassen_und_schueler", "key": "klasse_8b", "value": "28 Kinder, sehr lebhaft", "importance": 0.6, "source": "inferred", "ref_id": "8b"}
		],
		"summary": "Lehrkraft plant eine Physikstunde für die 8b."
	}`}
	uc := memory.New(repo, gemini, memory.WithClock(fixedClock(baseTime)))

	result, err := uc.Extract(context.Background(), memory.ExtractInput{
		UserID:         "teacher-1",
		ConversationID: "conv-1",
		Turns: []memory.Turn{
			{Role: "user", Content: "Mein Lieblingsfach ist Physik, morgen habe ich die 8b."},
			{Role: "assistant", Content: "Gern, was steht morgen an?"},
		},
	})
	gt.NoError(t, err)
	gt.A(t, result.Saved).Length(2)
	gt.Equal(t, result.Dropped, 0)

	entries, err := repo.ListMemories(context.Background(), "teacher-1")
	gt.NoError(t, err)
	gt.A(t, entries).Length(2)

	byKey := make(map[string]*model.MemoryEntry)
	for _, e := range entries {
		byKey[e.Key] = e
	}
	fach := byKey["lieblingsfach"]
	gt.NotNil(t, fach)
	gt.Equal(t, fach.Category, model.CategorySubjects)
	gt.Equal(t, fach.Source, model.SourceExplicit)
	gt.Equal(t, fach.Importance, 0.8)
	klasse := byKey["klasse_8b"]
	gt.NotNil(t, klasse)
	gt.Equal(t, klasse.RefID, "8b")
	gt.Equal(t, klasse.Scope, model.ScopeClass)

	gt.NotNil(t, result.Summary)
	summary, err := repo.GetSessionSummary(context.Background(), "teacher-1", "conv-1")
	gt.NoError(t, err)
	gt.Equal(t, summary.Summary, "Lehrkraft plant eine Physikstunde für die 8b.")
}

func TestExtractDropsInvalidCategory(t *testing.T) {
	repo := repository.NewInMemory()
	gemini := &geminiMock{response: `{
		"memories": [
			{"scope": "self", "category": "hobbies", "key": "sport", "value": "spielt Volleyball", "importance": 0.5, "source": "inferred"},
			{"scope": "self", "category": "persoenliches", "key": "sprache", "value": "bevorzugt Deutsch", "importance": 0.5, "source": "inferred"}
		]
	}`}
	uc := memory.New(repo, gemini, memory.WithClock(fixedClock(baseTime)))

	result, err := uc.Extract(context.Background(), memory.ExtractInput{
		UserID: "teacher-1",
		Turns:  []memory.Turn{{Role: "user", Content: "Ich spiele Volleyball."}},
	})
	gt.NoError(t, err)
	gt.A(t, result.Saved).Length(1)
	gt.Equal(t, result.Dropped, 1)

	// The out-of-set tag never reaches the store
	entries, err := repo.ListMemories(context.Background(), "teacher-1")
	gt.NoError(t, err)
	gt.A(t, entries).Length(1)
	gt.Equal(t, entries[0].Category, model.CategoryPersonal)
}

func TestExtractDropsEmptyKeyOrValue(t *testing.T) {
	repo := repository.NewInMemory()
	gemini := &geminiMock{response: `{
		"memories": [
			{"scope": "self", "category": "persoenliches", "key": " ", "value": "etwas"},
			{"scope": "self", "category": "persoenliches", "key": "notiz", "value": ""}
		]
	}`}
	uc := memory.New(repo, gemini, memory.WithClock(fixedClock(baseTime)))

	result, err := uc.Extract(context.Background(), memory.ExtractInput{
		UserID: "teacher-1",
		Turns:  []memory.Turn{{Role: "user", Content: "..."}},
	})
	gt.NoError(t, err)
	gt.A(t, result.Saved).Length(0)
	gt.Equal(t, result.Dropped, 2)
}

func TestExtractCorrectionKeepsSingleRow(t *testing.T) {
	repo := repository.NewInMemory()
	gemini := &geminiMock{response: `{
		"memories": [
			{"scope": "self", "category": "faecher_und_themen", "key": "lieblingsfach", "value": "Physik", "importance": 0.8, "source": "explicit"}
		]
	}`}
	now := baseTime
	uc := memory.New(repo, gemini, memory.WithClock(func() time.Time { return now }))

	_, err := uc.Extract(context.Background(), memory.ExtractInput{
		UserID: "teacher-1",
		Turns:  []memory.Turn{{Role: "user", Content: "Mein Lieblingsfach ist Physik."}},
	})
	gt.NoError(t, err)

	// The correction lands on the same identity
	gemini.response = `{
		"memories": [
			{"scope": "self", "category": "faecher_und_themen", "key": "lieblingsfach", "value": "Mathe", "importance": 0.8, "source": "explicit"}
		]
	}`
	now = baseTime.Add(time.Hour)
	_, err = uc.Extract(context.Background(), memory.ExtractInput{
		UserID: "teacher-1",
		Turns:  []memory.Turn{{Role: "user", Content: "Nein, mein Lieblingsfach ist eigentlich Mathe."}},
	})
	gt.NoError(t, err)

	entries, err := repo.ListMemories(context.Background(), "teacher-1")
	gt.NoError(t, err)
	gt.A(t, entries).Length(1)
	gt.Equal(t, entries[0].Value, "Mathe")
	gt.Equal(t, entries[0].CreatedAt, baseTime)
	gt.Equal(t, entries[0].UpdatedAt, baseTime.Add(time.Hour))
}

func TestExtractNoSummaryWithoutConversation(t *testing.T) {
	repo := repository.NewInMemory()
	gemini := &geminiMock{response: `{"memories": [], "summary": "Etwas passierte."}`}
	uc := memory.New(repo, gemini, memory.WithClock(fixedClock(baseTime)))

	result, err := uc.Extract(context.Background(), memory.ExtractInput{
		UserID: "teacher-1",
		Turns:  []memory.Turn{{Role: "user", Content: "Hallo"}},
	})
	gt.NoError(t, err)
	gt.Nil(t, result.Summary)
}

func TestExtractPropagatesCollaboratorError(t *testing.T) {
	repo := repository.NewInMemory()
	gemini := &geminiMock{err: errors.New("quota exceeded")}
	uc := memory.New(repo, gemini, memory.WithClock(fixedClock(baseTime)))

	_, err := uc.Extract(context.Background(), memory.ExtractInput{
		UserID: "teacher-1",
		Turns:  []memory.Turn{{Role: "user", Content: "Hallo"}},
	})
	gt.Error(t, err)
}

func TestRememberValidatesInput(t *testing.T) {
	repo := repository.NewInMemory()
	uc := memory.New(repo, &geminiMock{}, memory.WithClock(fixedClock(baseTime)))

	_, err := uc.Remember(context.Background(), memory.RememberInput{
		UserID:   "teacher-1",
		Scope:    model.ScopeSelf,
		Category: "hobbies",
		Key:      "sport",
		Value:    "Volleyball",
	})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrInvalidCategory))

	_, err = uc.Remember(context.Background(), memory.RememberInput{
		UserID:   "teacher-1",
		Scope:    "everyone",
		Category: model.CategoryPersonal,
		Key:      "sport",
		Value:    "Volleyball",
	})
	gt.Error(t, err)
}

func TestRememberUpserts(t *testing.T) {
	repo := repository.NewInMemory()
	uc := memory.New(repo, &geminiMock{}, memory.WithClock(fixedClock(baseTime)))

	entry, err := uc.Remember(context.Background(), memory.RememberInput{
		UserID:     "teacher-1",
		Scope:      model.ScopeStudent,
		RefID:      "max-m",
		Category:   model.CategoryClasses,
		Key:        "foerderbedarf",
		Value:      "braucht mehr Zeit bei Textaufgaben",
		Importance: 1.4,
		DecayDays:  30,
	})
	gt.NoError(t, err)
	gt.Equal(t, entry.Source, model.SourceExplicit)
	gt.Equal(t, entry.Importance, 1.0) // clamped
	gt.Equal(t, entry.DecayDays, 30)

	// Same identity overwrites instead of duplicating
	_, err = uc.Remember(context.Background(), memory.RememberInput{
		UserID:   "teacher-1",
		Scope:    model.ScopeStudent,
		RefID:    "max-m",
		Category: model.CategoryClasses,
		Key:      "foerderbedarf",
		Value:    "macht gute Fortschritte",
	})
	gt.NoError(t, err)

	entries, err := repo.ListMemories(context.Background(), "teacher-1")
	gt.NoError(t, err)
	gt.A(t, entries).Length(1)
	gt.Equal(t, entries[0].Value, "macht gute Fortschritte")
}
