package repository

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/model"
)

// InMemory implements Repository with process-local maps. It backs unit
// tests and local development; semantics (ownership scoping, idempotent
// deletes, upsert-by-ID) mirror the Firestore implementation.
type InMemory struct {
	mu        sync.RWMutex
	documents map[model.DocumentID]*model.CurriculumDocument
	chunks    map[string]*model.CurriculumChunk
	memories  map[model.MemoryID]*model.MemoryEntry
	summaries map[string]*model.SessionSummary
}

// NewInMemory creates an empty in-memory repository
func NewInMemory() *InMemory {
	return &InMemory{
		documents: make(map[model.DocumentID]*model.CurriculumDocument),
		chunks:    make(map[string]*model.CurriculumChunk),
		memories:  make(map[model.MemoryID]*model.MemoryEntry),
		summaries: make(map[string]*model.SessionSummary),
	}
}

func (r *InMemory) PutDocument(ctx context.Context, doc *model.CurriculumDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *doc
	r.documents[doc.ID] = &cp
	return nil
}

func (r *InMemory) GetDocument(ctx context.Context, user model.UserID, id model.DocumentID) (*model.CurriculumDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.documents[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "document not found", goerr.V("id", id))
	}
	if doc.UserID != user {
		return nil, goerr.Wrap(model.ErrUnauthorized, "document owned by another user", goerr.V("id", id))
	}
	cp := *doc
	return &cp, nil
}

func (r *InMemory) FindDocument(ctx context.Context, user model.UserID, subject, gradeBand string) (*model.CurriculumDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, doc := range r.documents {
		if doc.UserID == user && doc.Subject == subject && doc.GradeBand == gradeBand {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, goerr.Wrap(model.ErrNotFound, "no document for subject/grade",
		goerr.V("subject", subject), goerr.V("grade_band", gradeBand))
}

func (r *InMemory) ListDocuments(ctx context.Context, user model.UserID) ([]*model.CurriculumDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var docs []*model.CurriculumDocument
	for _, doc := range r.documents {
		if doc.UserID == user {
			cp := *doc
			docs = append(docs, &cp)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].CreatedAt.Before(docs[j].CreatedAt) })
	return docs, nil
}

func (r *InMemory) UpdateDocumentStatus(ctx context.Context, id model.DocumentID, status model.DocumentStatus) error {
	if err := status.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.documents[id]
	if !ok {
		return goerr.Wrap(model.ErrNotFound, "document not found", goerr.V("id", id))
	}
	doc.Status = status
	doc.UpdatedAt = time.Now()
	return nil
}

func (r *InMemory) ReplaceChunks(ctx context.Context, id model.DocumentID, chunks []*model.CurriculumChunk) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, chunk := range r.chunks {
		if chunk.DocumentID == id {
			delete(r.chunks, key)
		}
	}
	for _, chunk := range chunks {
		cp := *chunk
		r.chunks[chunk.ID] = &cp
	}
	return len(chunks), nil
}

func (r *InMemory) SearchSimilarChunks(ctx context.Context, user model.UserID, vector []float32, limit int) ([]*model.ScoredChunk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var results []*model.ScoredChunk
	for _, chunk := range r.chunks {
		if chunk.UserID != user {
			continue
		}
		cp := *chunk
		results = append(results, &model.ScoredChunk{
			Chunk:      &cp,
			Similarity: cosineSimilarity(vector, chunk.Embedding),
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Similarity > results[j].Similarity })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (r *InMemory) ListChunks(ctx context.Context, user model.UserID) ([]*model.CurriculumChunk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var chunks []*model.CurriculumChunk
	for _, chunk := range r.chunks {
		if chunk.UserID == user {
			cp := *chunk
			chunks = append(chunks, &cp)
		}
	}
	sort.Slice(chunks, func(i, j int) bool {
		if chunks[i].DocumentID != chunks[j].DocumentID {
			return chunks[i].DocumentID < chunks[j].DocumentID
		}
		return chunks[i].Seq < chunks[j].Seq
	})
	return chunks, nil
}

func (r *InMemory) PutMemory(ctx context.Context, entry *model.MemoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *entry
	if cp.ID == "" {
		cp.ID = cp.Identity().MemoryID(cp.UserID)
	}
	entry.ID = cp.ID
	r.memories[cp.ID] = &cp
	return nil
}

func (r *InMemory) GetMemory(ctx context.Context, user model.UserID, id model.MemoryID) (*model.MemoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.memories[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "memory not found", goerr.V("id", id))
	}
	if entry.UserID != user {
		return nil, goerr.Wrap(model.ErrUnauthorized, "memory owned by another user", goerr.V("id", id))
	}
	cp := *entry
	return &cp, nil
}

func (r *InMemory) ListMemories(ctx context.Context, user model.UserID) ([]*model.MemoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var entries []*model.MemoryEntry
	for _, entry := range r.memories {
		if entry.UserID == user {
			cp := *entry
			entries = append(entries, &cp)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

func (r *InMemory) DeleteMemory(ctx context.Context, user model.UserID, id model.MemoryID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.memories[id]
	if !ok {
		return nil
	}
	if entry.UserID != user {
		return goerr.Wrap(model.ErrUnauthorized, "memory owned by another user", goerr.V("id", id))
	}
	delete(r.memories, id)
	return nil
}

func (r *InMemory) ListMemoryUsers(ctx context.Context) ([]model.UserID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[model.UserID]bool)
	var users []model.UserID
	for _, entry := range r.memories {
		if !seen[entry.UserID] {
			seen[entry.UserID] = true
			users = append(users, entry.UserID)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users, nil
}

func (r *InMemory) PutSessionSummary(ctx context.Context, summary *model.SessionSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *summary
	r.summaries[summary.ID] = &cp
	return nil
}

func (r *InMemory) GetSessionSummary(ctx context.Context, user model.UserID, conversationID string) (*model.SessionSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	summary, ok := r.summaries[conversationID]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "session summary not found", goerr.V("conversation_id", conversationID))
	}
	if summary.UserID != user {
		return nil, goerr.Wrap(model.ErrUnauthorized, "summary owned by another user")
	}
	cp := *summary
	return &cp, nil
}

func cosineSimilarity(a []float32, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
