package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/gt"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/model"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/repository"
)

func TestInMemoryDocumentLifecycle(t *testing.T) {
	repo := repository.NewInMemory()
	ctx := context.Background()

	doc := &model.CurriculumDocument{
		ID:        model.NewDocumentID(),
		UserID:    "teacher-1",
		Subject:   "Mathematik",
		GradeBand: "5-6",
		Region:    "Bayern",
		Status:    model.DocumentStatusProcessing,
		CreatedAt: time.Now(),
	}
	gt.NoError(t, repo.PutDocument(ctx, doc))

	found, err := repo.FindDocument(ctx, "teacher-1", "Mathematik", "5-6")
	gt.NoError(t, err)
	gt.Equal(t, found.ID, doc.ID)

	_, err = repo.FindDocument(ctx, "teacher-1", "Physik", "5-6")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrNotFound))

	gt.NoError(t, repo.UpdateDocumentStatus(ctx, doc.ID, model.DocumentStatusActive))
	got, err := repo.GetDocument(ctx, "teacher-1", doc.ID)
	gt.NoError(t, err)
	gt.Equal(t, got.Status, model.DocumentStatusActive)

	// Other users cannot read the document
	_, err = repo.GetDocument(ctx, "teacher-2", doc.ID)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrUnauthorized))

	docs, err := repo.ListDocuments(ctx, "teacher-2")
	gt.NoError(t, err)
	gt.A(t, docs).Length(0)
}

func TestInMemoryReplaceChunks(t *testing.T) {
	repo := repository.NewInMemory()
	ctx := context.Background()
	docID := model.NewDocumentID()

	mk := func(id string, seq int, vec []float32) *model.CurriculumChunk {
		return &model.CurriculumChunk{
			ID:         id,
			DocumentID: docID,
			UserID:     "teacher-1",
			Seq:        seq,
			Text:       "chunk " + id,
			Embedding:  firestore.Vector32(vec),
			Subject:    "Mathematik",
		}
	}

	n, err := repo.ReplaceChunks(ctx, docID, []*model.CurriculumChunk{
		mk("c-0", 0, []float32{1, 0}),
		mk("c-1", 1, []float32{0, 1}),
		mk("c-2", 2, []float32{1, 1}),
	})
	gt.NoError(t, err)
	gt.Equal(t, n, 3)

	n, err = repo.ReplaceChunks(ctx, docID, []*model.CurriculumChunk{
		mk("c-0", 0, []float32{0, 1}),
	})
	gt.NoError(t, err)
	gt.Equal(t, n, 1)

	chunks, err := repo.ListChunks(ctx, "teacher-1")
	gt.NoError(t, err)
	gt.A(t, chunks).Length(1)
}

func TestInMemorySearchSimilarChunks(t *testing.T) {
	repo := repository.NewInMemory()
	ctx := context.Background()
	docID := model.NewDocumentID()

	_, err := repo.ReplaceChunks(ctx, docID, []*model.CurriculumChunk{
		{ID: "c-0", DocumentID: docID, UserID: "teacher-1", Seq: 0, Embedding: firestore.Vector32{1, 0, 0}},
		{ID: "c-1", DocumentID: docID, UserID: "teacher-1", Seq: 1, Embedding: firestore.Vector32{0, 1, 0}},
		{ID: "c-2", DocumentID: docID, UserID: "teacher-2", Seq: 0, Embedding: firestore.Vector32{1, 0, 0}},
	})
	gt.NoError(t, err)

	scored, err := repo.SearchSimilarChunks(ctx, "teacher-1", []float32{1, 0, 0}, 10)
	gt.NoError(t, err)
	gt.A(t, scored).Length(2)
	gt.Equal(t, scored[0].Chunk.ID, "c-0")
	gt.Number(t, scored[0].Similarity).Greater(0.99)
	gt.Number(t, scored[1].Similarity).Less(0.01)

	scored, err = repo.SearchSimilarChunks(ctx, "teacher-1", []float32{1, 0, 0}, 1)
	gt.NoError(t, err)
	gt.A(t, scored).Length(1)
}

func TestInMemoryMemoryStore(t *testing.T) {
	repo := repository.NewInMemory()
	ctx := context.Background()

	entry := &model.MemoryEntry{
		UserID:    "teacher-1",
		Scope:     model.ScopeSelf,
		Category:  model.CategorySubjects,
		Key:       "lieblingsfach",
		Value:     "Physik",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	gt.NoError(t, repo.PutMemory(ctx, entry))
	// The store derives the row ID from the identity when absent
	gt.Equal(t, entry.ID, entry.Identity().MemoryID("teacher-1"))

	got, err := repo.GetMemory(ctx, "teacher-1", entry.ID)
	gt.NoError(t, err)
	gt.Equal(t, got.Value, "Physik")

	_, err = repo.GetMemory(ctx, "teacher-2", entry.ID)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrUnauthorized))

	// Deleting an absent row is not an error
	gt.NoError(t, repo.DeleteMemory(ctx, "teacher-1", "no-such-row"))
	gt.NoError(t, repo.DeleteMemory(ctx, "teacher-1", entry.ID))

	_, err = repo.GetMemory(ctx, "teacher-1", entry.ID)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrNotFound))
}

func TestInMemoryListMemoryUsers(t *testing.T) {
	repo := repository.NewInMemory()
	ctx := context.Background()

	for _, user := range []model.UserID{"teacher-b", "teacher-a", "teacher-b"} {
		gt.NoError(t, repo.PutMemory(ctx, &model.MemoryEntry{
			ID:       model.MemoryID(string(user) + "-" + string(model.NewDocumentID())),
			UserID:   user,
			Scope:    model.ScopeSelf,
			Category: model.CategoryPersonal,
			Key:      "k",
			Value:    "v",
		}))
	}

	users, err := repo.ListMemoryUsers(ctx)
	gt.NoError(t, err)
	gt.Equal(t, users, []model.UserID{"teacher-a", "teacher-b"})
}

func TestInMemorySessionSummary(t *testing.T) {
	repo := repository.NewInMemory()
	ctx := context.Background()

	summary := &model.SessionSummary{
		ID:        "conv-1",
		UserID:    "teacher-1",
		Summary:   "Unterrichtsplanung für die 8b",
		UpdatedAt: time.Now(),
	}
	gt.NoError(t, repo.PutSessionSummary(ctx, summary))

	got, err := repo.GetSessionSummary(ctx, "teacher-1", "conv-1")
	gt.NoError(t, err)
	gt.Equal(t, got.Summary, summary.Summary)

	// Writing the same conversation again overwrites, not appends
	summary.Summary = "Aktualisierte Planung"
	gt.NoError(t, repo.PutSessionSummary(ctx, summary))
	got, err = repo.GetSessionSummary(ctx, "teacher-1", "conv-1")
	gt.NoError(t, err)
	gt.Equal(t, got.Summary, "Aktualisierte Planung")

	_, err = repo.GetSessionSummary(ctx, "teacher-1", "conv-2")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrNotFound))
}
