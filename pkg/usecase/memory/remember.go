package memory

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/model"
)

// RememberInput contains parameters for a direct memory write, the path
// used when the teacher states or corrects a fact themselves
type RememberInput struct {
	UserID     model.UserID
	Scope      model.MemoryScope
	Category   model.Category
	Key        string
	Value      string
	Importance float64
	RefID      string
	DecayDays  int
}

// Remember upserts a fact by its identity. Unlike extraction candidates,
// an invalid scope or category here is the caller's error and is
// returned, not silently dropped.
func (uc *UseCase) Remember(ctx context.Context, input RememberInput) (*model.MemoryEntry, error) {
	if err := input.Scope.Validate(); err != nil {
		return nil, err
	}
	if err := input.Category.Validate(); err != nil {
		return nil, err
	}
	if input.Key == "" {
		return nil, goerr.New("memory key is empty")
	}
	if input.Value == "" {
		return nil, goerr.New("memory value is empty")
	}

	return uc.upsert(ctx, &model.MemoryEntry{
		UserID:     input.UserID,
		Scope:      input.Scope,
		RefID:      input.RefID,
		Category:   input.Category,
		Key:        input.Key,
		Value:      input.Value,
		Importance: clampImportance(input.Importance),
		Source:     model.SourceExplicit,
		DecayDays:  input.DecayDays,
	})
}
