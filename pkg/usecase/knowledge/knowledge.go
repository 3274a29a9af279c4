// Package knowledge implements curriculum ingestion and semantic
// retrieval over the user's uploaded documents.
package knowledge

import (
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/adapter"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/repository"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/segment"
)

// Config holds engine tunables for ingestion and retrieval
type Config struct {
	ChunkSize    int
	ChunkOverlap int
	TopK         int
	// Threshold is the minimum cosine similarity a chunk must exceed to
	// be considered relevant
	Threshold float64
}

// DefaultConfig returns the production defaults
func DefaultConfig() Config {
	return Config{
		ChunkSize:    segment.DefaultTargetSize,
		ChunkOverlap: segment.DefaultOverlap,
		TopK:         5,
		Threshold:    0.25,
	}
}

// UseCase provides curriculum knowledge operations
type UseCase struct {
	repo      repository.Repository
	gemini    adapter.Gemini
	extractor adapter.DocumentExtractor
	archive   adapter.Storage
	audit     adapter.Audit
	cfg       Config
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithConfig overrides the engine tunables
func WithConfig(cfg Config) Option {
	return func(uc *UseCase) {
		uc.cfg = cfg
	}
}

// WithArchive enables raw-upload archival to Cloud Storage
func WithArchive(s adapter.Storage) Option {
	return func(uc *UseCase) {
		uc.archive = s
	}
}

// WithAudit enables ingest-run audit records
func WithAudit(a adapter.Audit) Option {
	return func(uc *UseCase) {
		uc.audit = a
	}
}

// New creates a new knowledge UseCase instance
func New(
	repo repository.Repository,
	gemini adapter.Gemini,
	extractor adapter.DocumentExtractor,
	opts ...Option,
) *UseCase {
	uc := &UseCase{
		repo:      repo,
		gemini:    gemini,
		extractor: extractor,
		cfg:       DefaultConfig(),
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}
