// Package memory implements the typed long-term memory store: extraction
// of candidate facts from conversations, direct corrections, and the
// consolidation job that keeps the store bounded and consistent.
package memory

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/adapter"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/model"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/repository"
)

const (
	// staleImportance marks the importance below which an untouched entry
	// is eligible for archival
	staleImportance = 0.5

	// defaultArchiveAfter is the staleness horizon for entries without
	// their own decay window
	defaultArchiveAfter = 90 * 24 * time.Hour
)

// UseCase provides memory store operations
type UseCase struct {
	repo     repository.Repository
	gemini   adapter.Gemini
	cooldown Cooldown
	audit    adapter.Audit

	remap           map[string]model.Category
	defaultCategory model.Category
	archiveAfter    time.Duration
	now             func() time.Time
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithCooldown sets the consolidation cooldown store
func WithCooldown(c Cooldown) Option {
	return func(uc *UseCase) {
		uc.cooldown = c
	}
}

// WithAudit enables consolidation-run audit records
func WithAudit(a adapter.Audit) Option {
	return func(uc *UseCase) {
		uc.audit = a
	}
}

// WithRemapTable overrides the legacy category remap table
func WithRemapTable(remap map[string]model.Category) Option {
	return func(uc *UseCase) {
		uc.remap = remap
	}
}

// WithArchiveAfter overrides the staleness horizon
func WithArchiveAfter(d time.Duration) Option {
	return func(uc *UseCase) {
		uc.archiveAfter = d
	}
}

// WithClock overrides the time source, for tests
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) {
		uc.now = now
	}
}

// New creates a new memory UseCase instance
func New(
	repo repository.Repository,
	gemini adapter.Gemini,
	opts ...Option,
) *UseCase {
	uc := &UseCase{
		repo:            repo,
		gemini:          gemini,
		remap:           defaultRemapTable(),
		defaultCategory: model.CategoryPersonal,
		archiveAfter:    defaultArchiveAfter,
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// List returns all memory entries of the user
func (uc *UseCase) List(ctx context.Context, user model.UserID) ([]*model.MemoryEntry, error) {
	return uc.repo.ListMemories(ctx, user)
}

// upsert writes an entry under its identity-derived ID, preserving the
// original creation time when the identity already exists. Last write
// wins on value, importance, and source.
func (uc *UseCase) upsert(ctx context.Context, entry *model.MemoryEntry) (*model.MemoryEntry, error) {
	now := uc.now()
	entry.ID = entry.Identity().MemoryID(entry.UserID)
	entry.UpdatedAt = now
	entry.CreatedAt = now

	existing, err := uc.repo.GetMemory(ctx, entry.UserID, entry.ID)
	switch {
	case err == nil:
		entry.CreatedAt = existing.CreatedAt
	case errors.Is(err, model.ErrNotFound):
		// First write of this identity
	default:
		return nil, goerr.Wrap(err, "failed to look up existing memory")
	}

	if err := uc.repo.PutMemory(ctx, entry); err != nil {
		return nil, goerr.Wrap(err, "failed to save memory")
	}
	return entry, nil
}
