package repository

import (
	"context"

	"github.com/sbrill95/eduhu-assistant-sub000/pkg/model"
)

// Repository defines persistence for curriculum documents, their chunks,
// and the long-term memory store. Every read and write is scoped to one
// user; cross-user access is not expressible through this interface.
type Repository interface {
	// PutDocument saves or overwrites a curriculum document
	PutDocument(ctx context.Context, doc *model.CurriculumDocument) error

	// GetDocument retrieves a document owned by user
	GetDocument(ctx context.Context, user model.UserID, id model.DocumentID) (*model.CurriculumDocument, error)

	// FindDocument retrieves the document for (user, subject, grade band),
	// returning model.ErrNotFound when absent
	FindDocument(ctx context.Context, user model.UserID, subject, gradeBand string) (*model.CurriculumDocument, error)

	// ListDocuments retrieves all documents owned by user
	ListDocuments(ctx context.Context, user model.UserID) ([]*model.CurriculumDocument, error)

	// UpdateDocumentStatus sets the document status
	UpdateDocumentStatus(ctx context.Context, id model.DocumentID, status model.DocumentStatus) error

	// ReplaceChunks deletes all stored chunks of the document and writes
	// the given set in one unit of work. It returns the number of chunks
	// actually persisted; callers must verify it against their expected
	// count before activating the document.
	ReplaceChunks(ctx context.Context, id model.DocumentID, chunks []*model.CurriculumChunk) (int, error)

	// SearchSimilarChunks ranks the user's chunks by cosine similarity to
	// the query vector and returns the closest limit entries
	SearchSimilarChunks(ctx context.Context, user model.UserID, vector []float32, limit int) ([]*model.ScoredChunk, error)

	// ListChunks retrieves every chunk owned by user, for the keyword
	// fallback scan
	ListChunks(ctx context.Context, user model.UserID) ([]*model.CurriculumChunk, error)

	// PutMemory upserts a memory entry by its identity-derived ID
	PutMemory(ctx context.Context, entry *model.MemoryEntry) error

	// GetMemory retrieves a memory entry owned by user, returning
	// model.ErrNotFound when absent
	GetMemory(ctx context.Context, user model.UserID, id model.MemoryID) (*model.MemoryEntry, error)

	// ListMemories retrieves all memory entries owned by user
	ListMemories(ctx context.Context, user model.UserID) ([]*model.MemoryEntry, error)

	// DeleteMemory removes a memory entry. Deleting an absent entry is a
	// no-op so concurrent consolidation passes can race safely.
	DeleteMemory(ctx context.Context, user model.UserID, id model.MemoryID) error

	// ListMemoryUsers returns the distinct users holding memory entries,
	// used by the all-owners consolidation pass
	ListMemoryUsers(ctx context.Context) ([]model.UserID, error)

	// PutSessionSummary upserts the summary for its conversation
	PutSessionSummary(ctx context.Context, summary *model.SessionSummary) error

	// GetSessionSummary retrieves the summary of a conversation, returning
	// model.ErrNotFound when absent
	GetSessionSummary(ctx context.Context, user model.UserID, conversationID string) (*model.SessionSummary, error)
}
