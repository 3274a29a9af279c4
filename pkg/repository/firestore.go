package repository

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	collectionDocuments = "curriculum_documents"
	collectionChunks    = "curriculum_chunks"
	collectionMemories  = "memories"
	collectionSummaries = "session_summaries"
)

// Firestore implements Repository using Cloud Firestore with native
// vector search over chunk embeddings
type Firestore struct {
	client *firestore.Client
}

// New creates a new Firestore repository
func New(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client")
	}

	return &Firestore{client: client}, nil
}

// Close releases the underlying client
func (r *Firestore) Close() error {
	return r.client.Close()
}

func (r *Firestore) PutDocument(ctx context.Context, doc *model.CurriculumDocument) error {
	if _, err := r.client.Collection(collectionDocuments).Doc(string(doc.ID)).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to put document", goerr.V("id", doc.ID))
	}
	return nil
}

func (r *Firestore) GetDocument(ctx context.Context, user model.UserID, id model.DocumentID) (*model.CurriculumDocument, error) {
	snap, err := r.client.Collection(collectionDocuments).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "document not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get document", goerr.V("id", id))
	}

	var doc model.CurriculumDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode document")
	}
	if doc.UserID != user {
		return nil, goerr.Wrap(model.ErrUnauthorized, "document owned by another user", goerr.V("id", id))
	}
	return &doc, nil
}

func (r *Firestore) FindDocument(ctx context.Context, user model.UserID, subject, gradeBand string) (*model.CurriculumDocument, error) {
	it := r.client.Collection(collectionDocuments).
		Where("user_id", "==", string(user)).
		Where("subject", "==", subject).
		Where("grade_band", "==", gradeBand).
		Limit(1).
		Documents(ctx)
	defer it.Stop()

	snap, err := it.Next()
	if errors.Is(err, iterator.Done) {
		return nil, goerr.Wrap(model.ErrNotFound, "no document for subject/grade",
			goerr.V("subject", subject), goerr.V("grade_band", gradeBand))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find document")
	}

	var doc model.CurriculumDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode document")
	}
	return &doc, nil
}

func (r *Firestore) ListDocuments(ctx context.Context, user model.UserID) ([]*model.CurriculumDocument, error) {
	it := r.client.Collection(collectionDocuments).
		Where("user_id", "==", string(user)).
		Documents(ctx)
	defer it.Stop()

	var docs []*model.CurriculumDocument
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list documents")
		}
		var doc model.CurriculumDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode document")
		}
		docs = append(docs, &doc)
	}
	return docs, nil
}

func (r *Firestore) UpdateDocumentStatus(ctx context.Context, id model.DocumentID, docStatus model.DocumentStatus) error {
	if err := docStatus.Validate(); err != nil {
		return err
	}
	_, err := r.client.Collection(collectionDocuments).Doc(string(id)).Update(ctx, []firestore.Update{
		{Path: "status", Value: string(docStatus)},
		{Path: "updated_at", Value: time.Now()},
	})
	if err != nil {
		return goerr.Wrap(err, "failed to update document status", goerr.V("id", id))
	}
	return nil
}

// ReplaceChunks is delete-then-insert through one BulkWriter. Firestore
// offers no multi-hundred-write transaction, so the caller keeps the
// document in processing state until the returned count confirms the full
// set was written.
func (r *Firestore) ReplaceChunks(ctx context.Context, id model.DocumentID, chunks []*model.CurriculumChunk) (int, error) {
	it := r.client.Collection(collectionChunks).
		Where("document_id", "==", string(id)).
		Documents(ctx)
	defer it.Stop()

	bw := r.client.BulkWriter(ctx)

	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			bw.End()
			return 0, goerr.Wrap(err, "failed to list stale chunks", goerr.V("document_id", id))
		}
		if _, err := bw.Delete(snap.Ref); err != nil {
			bw.End()
			return 0, goerr.Wrap(err, "failed to enqueue chunk delete")
		}
	}

	jobs := make([]*firestore.BulkWriterJob, 0, len(chunks))
	for _, chunk := range chunks {
		job, err := bw.Create(r.client.Collection(collectionChunks).Doc(chunk.ID), chunk)
		if err != nil {
			bw.End()
			return 0, goerr.Wrap(err, "failed to enqueue chunk insert")
		}
		jobs = append(jobs, job)
	}
	bw.End()

	persisted := 0
	var firstErr error
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		persisted++
	}
	if firstErr != nil {
		return persisted, goerr.Wrap(firstErr, "chunk replace incomplete",
			goerr.V("document_id", id), goerr.V("persisted", persisted), goerr.V("expected", len(chunks)))
	}
	return persisted, nil
}

func (r *Firestore) SearchSimilarChunks(ctx context.Context, user model.UserID, vector []float32, limit int) ([]*model.ScoredChunk, error) {
	q := r.client.Collection(collectionChunks).
		Where("user_id", "==", string(user)).
		FindNearest("embedding", firestore.Vector32(vector), limit, firestore.DistanceMeasureCosine, &firestore.FindNearestOptions{
			DistanceResultField: "vector_distance",
		})

	it := q.Documents(ctx)
	defer it.Stop()

	var results []*model.ScoredChunk
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to run vector search")
		}

		var chunk model.CurriculumChunk
		if err := snap.DataTo(&chunk); err != nil {
			return nil, goerr.Wrap(err, "failed to decode chunk")
		}

		similarity := 0.0
		if d, ok := snap.Data()["vector_distance"].(float64); ok {
			similarity = 1 - d
		}
		results = append(results, &model.ScoredChunk{Chunk: &chunk, Similarity: similarity})
	}
	return results, nil
}

func (r *Firestore) ListChunks(ctx context.Context, user model.UserID) ([]*model.CurriculumChunk, error) {
	it := r.client.Collection(collectionChunks).
		Where("user_id", "==", string(user)).
		Documents(ctx)
	defer it.Stop()

	var chunks []*model.CurriculumChunk
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list chunks")
		}
		var chunk model.CurriculumChunk
		if err := snap.DataTo(&chunk); err != nil {
			return nil, goerr.Wrap(err, "failed to decode chunk")
		}
		chunks = append(chunks, &chunk)
	}
	return chunks, nil
}

func (r *Firestore) PutMemory(ctx context.Context, entry *model.MemoryEntry) error {
	if entry.ID == "" {
		entry.ID = entry.Identity().MemoryID(entry.UserID)
	}
	if _, err := r.client.Collection(collectionMemories).Doc(string(entry.ID)).Set(ctx, entry); err != nil {
		return goerr.Wrap(err, "failed to put memory", goerr.V("id", entry.ID))
	}
	return nil
}

func (r *Firestore) GetMemory(ctx context.Context, user model.UserID, id model.MemoryID) (*model.MemoryEntry, error) {
	snap, err := r.client.Collection(collectionMemories).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "memory not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get memory", goerr.V("id", id))
	}

	var entry model.MemoryEntry
	if err := snap.DataTo(&entry); err != nil {
		return nil, goerr.Wrap(err, "failed to decode memory")
	}
	if entry.UserID != user {
		return nil, goerr.Wrap(model.ErrUnauthorized, "memory owned by another user", goerr.V("id", id))
	}
	return &entry, nil
}

func (r *Firestore) ListMemories(ctx context.Context, user model.UserID) ([]*model.MemoryEntry, error) {
	it := r.client.Collection(collectionMemories).
		Where("user_id", "==", string(user)).
		Documents(ctx)
	defer it.Stop()

	var entries []*model.MemoryEntry
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list memories")
		}
		var entry model.MemoryEntry
		if err := snap.DataTo(&entry); err != nil {
			return nil, goerr.Wrap(err, "failed to decode memory")
		}
		entries = append(entries, &entry)
	}
	return entries, nil
}

func (r *Firestore) DeleteMemory(ctx context.Context, user model.UserID, id model.MemoryID) error {
	// Firestore deletes are no-ops on missing documents, which keeps
	// concurrent consolidation passes safe
	if _, err := r.client.Collection(collectionMemories).Doc(string(id)).Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete memory", goerr.V("id", id))
	}
	return nil
}

func (r *Firestore) ListMemoryUsers(ctx context.Context) ([]model.UserID, error) {
	it := r.client.Collection(collectionMemories).Select("user_id").Documents(ctx)
	defer it.Stop()

	seen := make(map[model.UserID]bool)
	var users []model.UserID
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list memory users")
		}
		id, ok := snap.Data()["user_id"].(string)
		if !ok || id == "" {
			continue
		}
		user := model.UserID(id)
		if !seen[user] {
			seen[user] = true
			users = append(users, user)
		}
	}
	return users, nil
}

func (r *Firestore) PutSessionSummary(ctx context.Context, summary *model.SessionSummary) error {
	if _, err := r.client.Collection(collectionSummaries).Doc(summary.ID).Set(ctx, summary); err != nil {
		return goerr.Wrap(err, "failed to put session summary", goerr.V("id", summary.ID))
	}
	return nil
}

func (r *Firestore) GetSessionSummary(ctx context.Context, user model.UserID, conversationID string) (*model.SessionSummary, error) {
	snap, err := r.client.Collection(collectionSummaries).Doc(conversationID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "session summary not found", goerr.V("conversation_id", conversationID))
		}
		return nil, goerr.Wrap(err, "failed to get session summary")
	}

	var summary model.SessionSummary
	if err := snap.DataTo(&summary); err != nil {
		return nil, goerr.Wrap(err, "failed to decode session summary")
	}
	if summary.UserID != user {
		return nil, goerr.Wrap(model.ErrUnauthorized, "summary owned by another user")
	}
	return &summary, nil
}
