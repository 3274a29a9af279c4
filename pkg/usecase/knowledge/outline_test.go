package knowledge_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/adapter"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/repository"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/usecase/knowledge"
)

func TestIngestBuildsTopicOutline(t *testing.T) {
	repo := repository.NewInMemory()
	uc := knowledge.New(repo, &geminiMock{}, adapter.NewPlainTextExtractor())

	body := "Die Lernenden vergleichen verschiedene Darstellungen und begründen ihre Entscheidungen in Sachsituationen ausführlich."
	text := "LEHRPLAN MATHEMATIK\n\n" +
		"1. Zahlen und Operationen\n\n" + body + "\n\n" +
		"2. Raum und Form\n\n" + body + "\n\n" +
		"Lernbereich Daten und Zufall\n\n" + body + "\n"

	summary, err := uc.Ingest(context.Background(), knowledge.IngestInput{
		UserID:    "teacher-1",
		Subject:   "Mathematik",
		GradeBand: "5-6",
		Data:      []byte(text),
		Filename:  "lehrplan.txt",
	})
	gt.NoError(t, err)

	gt.Equal(t, summary.Outline, []string{
		"LEHRPLAN MATHEMATIK",
		"1. Zahlen und Operationen",
		"2. Raum und Form",
		"Lernbereich Daten und Zufall",
	})

	docs, err := repo.ListDocuments(context.Background(), "teacher-1")
	gt.NoError(t, err)
	gt.Equal(t, docs[0].TopicOutline, summary.Outline)
}
