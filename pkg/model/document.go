package model

import (
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

type UserID string

type DocumentID string

// NewDocumentID generates a new unique DocumentID
func NewDocumentID() DocumentID {
	return DocumentID(uuid.New().String())
}

type DocumentStatus string

const (
	// DocumentStatusProcessing marks a document whose chunks are not yet
	// fully committed. Retryable by re-ingestion.
	DocumentStatusProcessing DocumentStatus = "processing"

	// DocumentStatusActive marks a document whose chunk set is complete
	DocumentStatusActive DocumentStatus = "active"
)

// Validate checks if the status is valid
func (s DocumentStatus) Validate() error {
	switch s {
	case DocumentStatusProcessing, DocumentStatusActive:
		return nil
	default:
		return goerr.New("invalid document status", goerr.V("status", s))
	}
}

// CurriculumDocument is an uploaded curriculum source owned by one user.
// It is never visible as active with a partial chunk set.
type CurriculumDocument struct {
	ID             DocumentID     `firestore:"id"`
	UserID         UserID         `firestore:"user_id"`
	Subject        string         `firestore:"subject"`
	GradeBand      string         `firestore:"grade_band"`
	Region         string         `firestore:"region"`
	Status         DocumentStatus `firestore:"status"`
	Excerpt        string         `firestore:"excerpt"`
	TopicOutline   []string       `firestore:"topic_outline"`
	SourceFilename string         `firestore:"source_filename"`
	CreatedAt      time.Time      `firestore:"created_at"`
	UpdatedAt      time.Time      `firestore:"updated_at"`
}

// CurriculumChunk is one searchable span of a document's extracted text.
// Subject/grade/region are denormalized from the document for filtering.
type CurriculumChunk struct {
	ID         string             `firestore:"id"`
	DocumentID DocumentID         `firestore:"document_id"`
	UserID     UserID             `firestore:"user_id"`
	Seq        int                `firestore:"seq"`
	Text       string             `firestore:"text"`
	Start      int                `firestore:"start"`
	End        int                `firestore:"end"`
	Embedding  firestore.Vector32 `firestore:"embedding"`
	Subject    string             `firestore:"subject"`
	GradeBand  string             `firestore:"grade_band"`
	Region     string             `firestore:"region"`
}

// ScoredChunk is a chunk paired with its retrieval similarity
type ScoredChunk struct {
	Chunk      *CurriculumChunk
	Similarity float64
}
