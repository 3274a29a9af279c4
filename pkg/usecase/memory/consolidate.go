package memory

import (
	"context"
	"sort"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/adapter"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/model"
	"github.com/sbrill95/eduhu-assistant-sub000/pkg/utils/logging"
)

// Counters reports what one consolidation pass changed
type Counters struct {
	Migrated          int
	DuplicatesRemoved int
	Merged            int
	Archived          int
}

// Total returns the number of entries the pass touched
func (c *Counters) Total() int {
	return c.Migrated + c.DuplicatesRemoved + c.Merged + c.Archived
}

// Consolidate runs the four maintenance phases over one user's memory
// store: legacy category migration, exact-duplicate removal, same-key
// merge, and staleness archival. Each phase is idempotent; a second pass
// with no intervening writes changes nothing. Returns (nil, nil) when
// the user is still within the cooldown window.
func (uc *UseCase) Consolidate(ctx context.Context, user model.UserID) (*Counters, error) {
	logger := logging.From(ctx)

	if uc.cooldown != nil {
		if uc.cooldown.Active(user) {
			logger.Debug("consolidation skipped, cooldown active", "user_id", user)
			return nil, nil
		}
		uc.cooldown.Touch(user)
	}
	started := uc.now()

	entries, err := uc.repo.ListMemories(ctx, user)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list memories for consolidation")
	}

	live := make(map[model.MemoryID]*model.MemoryEntry, len(entries))
	for _, e := range entries {
		live[e.ID] = e
	}

	counters := &Counters{}
	if err := uc.migrateCategories(ctx, user, live, counters); err != nil {
		return nil, err
	}
	if err := uc.removeDuplicates(ctx, user, live, counters); err != nil {
		return nil, err
	}
	if err := uc.mergeKeys(ctx, user, live, counters); err != nil {
		return nil, err
	}
	if err := uc.archiveStale(ctx, user, live, counters); err != nil {
		return nil, err
	}

	logger.Info("consolidated memory store", "user_id", user,
		"migrated", counters.Migrated, "duplicates_removed", counters.DuplicatesRemoved,
		"merged", counters.Merged, "archived", counters.Archived)

	if uc.audit != nil {
		rec := &adapter.ConsolidationRecord{
			UserID:            string(user),
			Migrated:          counters.Migrated,
			DuplicatesRemoved: counters.DuplicatesRemoved,
			Merged:            counters.Merged,
			Archived:          counters.Archived,
			DurationMS:        uc.now().Sub(started).Milliseconds(),
			At:                uc.now(),
		}
		if err := uc.audit.ConsolidationRun(ctx, rec); err != nil {
			logger.Warn("failed to record consolidation audit row", "error", err)
		}
	}

	return counters, nil
}

// ConsolidateAll runs Consolidate for every user holding memories
func (uc *UseCase) ConsolidateAll(ctx context.Context) (map[model.UserID]*Counters, error) {
	users, err := uc.repo.ListMemoryUsers(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list memory users")
	}

	results := make(map[model.UserID]*Counters, len(users))
	for _, user := range users {
		counters, err := uc.Consolidate(ctx, user)
		if err != nil {
			return results, goerr.Wrap(err, "consolidation failed", goerr.V("user_id", user))
		}
		if counters != nil {
			results[user] = counters
		}
	}
	return results, nil
}

// migrateCategories is phase 0: entries with a category outside the
// closed tag set are remapped via the legacy table; unmapped tags fall
// back to the default category with a warning. A remap that would collide
// with an existing identity deletes the migrating row instead.
func (uc *UseCase) migrateCategories(ctx context.Context, user model.UserID, live map[model.MemoryID]*model.MemoryEntry, counters *Counters) error {
	logger := logging.From(ctx)

	var legacy []*model.MemoryEntry
	for _, e := range live {
		if e.Category.Validate() != nil {
			legacy = append(legacy, e)
		}
	}
	sort.Slice(legacy, func(i, j int) bool { return legacy[i].ID < legacy[j].ID })

	for _, e := range legacy {
		target, ok := uc.remap[string(e.Category)]
		if !ok {
			logger.Warn("unmapped legacy category, using default tag",
				"category", e.Category, "key", e.Key, "default", uc.defaultCategory)
			target = uc.defaultCategory
		}

		newID := model.Identity{Scope: e.Scope, Category: target, Key: e.Key}.MemoryID(user)
		if other, exists := live[newID]; exists && other.ID != e.ID {
			// The established row owns this identity; drop the migrating one
			logger.Debug("resolving identity conflict during migration",
				"error", goerr.Wrap(model.ErrIdentityConflict, "legacy row collides", goerr.V("key", e.Key)))
			if err := uc.repo.DeleteMemory(ctx, user, e.ID); err != nil {
				return goerr.Wrap(err, "failed to delete colliding legacy memory")
			}
			delete(live, e.ID)
			counters.Migrated++
			continue
		}

		migrated := *e
		migrated.ID = newID
		migrated.Category = target
		migrated.UpdatedAt = uc.now()
		if err := uc.repo.PutMemory(ctx, &migrated); err != nil {
			return goerr.Wrap(err, "failed to save migrated memory")
		}
		if e.ID != newID {
			if err := uc.repo.DeleteMemory(ctx, user, e.ID); err != nil {
				return goerr.Wrap(err, "failed to delete pre-migration memory")
			}
		}
		delete(live, e.ID)
		live[newID] = &migrated
		counters.Migrated++
	}
	return nil
}

// removeDuplicates is phase 1: within each (scope, category, key, value)
// fingerprint group the most recently created row survives
func (uc *UseCase) removeDuplicates(ctx context.Context, user model.UserID, live map[model.MemoryID]*model.MemoryEntry, counters *Counters) error {
	groups := make(map[model.Fingerprint][]*model.MemoryEntry)
	for _, e := range live {
		fp := e.Fingerprint()
		groups[fp] = append(groups[fp], e)
	}

	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool { return group[i].CreatedAt.After(group[j].CreatedAt) })
		for _, e := range group[1:] {
			if err := uc.repo.DeleteMemory(ctx, user, e.ID); err != nil {
				return goerr.Wrap(err, "failed to delete duplicate memory")
			}
			delete(live, e.ID)
			counters.DuplicatesRemoved++
		}
	}
	return nil
}

// mergeKeys is phase 2: rows sharing a bare key are collapsed onto the
// most recently touched one, whose importance is raised to the group
// maximum, never lowered
func (uc *UseCase) mergeKeys(ctx context.Context, user model.UserID, live map[model.MemoryID]*model.MemoryEntry, counters *Counters) error {
	groups := make(map[string][]*model.MemoryEntry)
	for _, e := range live {
		groups[e.Key] = append(groups[e.Key], e)
	}

	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool { return group[i].LastTouch().After(group[j].LastTouch()) })

		keeper := group[0]
		maxImportance := keeper.Importance
		for _, e := range group[1:] {
			if e.Importance > maxImportance {
				maxImportance = e.Importance
			}
			if err := uc.repo.DeleteMemory(ctx, user, e.ID); err != nil {
				return goerr.Wrap(err, "failed to delete merged memory")
			}
			delete(live, e.ID)
			counters.Merged++
		}

		keeper.Importance = maxImportance
		keeper.UpdatedAt = uc.now()
		if err := uc.repo.PutMemory(ctx, keeper); err != nil {
			return goerr.Wrap(err, "failed to save merge keeper")
		}
	}
	return nil
}

// archiveStale is phase 3: low-importance rows untouched for longer than
// their horizon are deleted. An entry's own decay window overrides the
// default horizon.
func (uc *UseCase) archiveStale(ctx context.Context, user model.UserID, live map[model.MemoryID]*model.MemoryEntry, counters *Counters) error {
	now := uc.now()
	for _, e := range live {
		if e.Importance >= staleImportance {
			continue
		}
		horizon := uc.archiveAfter
		if e.DecayDays > 0 {
			horizon = time.Duration(e.DecayDays) * 24 * time.Hour
		}
		if now.Sub(e.LastTouch()) <= horizon {
			continue
		}
		if err := uc.repo.DeleteMemory(ctx, user, e.ID); err != nil {
			return goerr.Wrap(err, "failed to archive stale memory")
		}
		delete(live, e.ID)
		counters.Archived++
	}
	return nil
}
