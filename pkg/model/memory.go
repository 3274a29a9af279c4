package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

type MemoryID string

type MemoryScope string

const (
	ScopeSelf    MemoryScope = "self"
	ScopeSchool  MemoryScope = "school"
	ScopeClass   MemoryScope = "class"
	ScopeStudent MemoryScope = "student"
)

// Validate checks if the scope is valid
func (s MemoryScope) Validate() error {
	switch s {
	case ScopeSelf, ScopeSchool, ScopeClass, ScopeStudent:
		return nil
	default:
		return goerr.New("invalid memory scope", goerr.V("scope", s))
	}
}

type MemorySource string

const (
	SourceExplicit MemorySource = "explicit"
	SourceInferred MemorySource = "inferred"
)

// Category classifies a memory fact. The set is closed: extraction
// candidates outside of it are dropped, and legacy tags are remapped
// during consolidation.
type Category string

const (
	CategorySubjects   Category = "faecher_und_themen"
	CategoryClasses    Category = "klassen_und_schueler"
	CategoryPedagogy   Category = "paedagogik"
	CategoryAssessment Category = "leistungsbewertung"
	CategoryMaterials  Category = "materialien"
	CategoryPersonal   Category = "persoenliches"
	CategoryFeedback   Category = "feedback"
	CategoryCurriculum Category = "curriculum_bezuege"
)

// Categories lists all valid category tags
func Categories() []Category {
	return []Category{
		CategorySubjects,
		CategoryClasses,
		CategoryPedagogy,
		CategoryAssessment,
		CategoryMaterials,
		CategoryPersonal,
		CategoryFeedback,
		CategoryCurriculum,
	}
}

// Validate checks if the category is within the closed tag set
func (c Category) Validate() error {
	for _, v := range Categories() {
		if c == v {
			return nil
		}
	}
	return goerr.Wrap(ErrInvalidCategory, "unknown tag", goerr.V("category", c))
}

// memoryNamespace seeds deterministic memory IDs
var memoryNamespace = uuid.MustParse("8d2f6f1e-64a3-4c7e-9a1b-3f0c5d8e2a47")

// Identity is the semantic identity of a memory fact: at most one entry
// may exist per (user, scope, category, key). It doubles as the group key
// during consolidation.
type Identity struct {
	Scope    MemoryScope
	Category Category
	Key      string
}

// MemoryID derives the deterministic storage ID for this identity, which
// makes every write an upsert and enforces uniqueness at the store level.
func (i Identity) MemoryID(user UserID) MemoryID {
	name := string(user) + "|" + string(i.Scope) + "|" + string(i.Category) + "|" + i.Key
	return MemoryID(uuid.NewSHA1(memoryNamespace, []byte(name)).String())
}

// Fingerprint identifies exact duplicates: same identity and same value
type Fingerprint struct {
	Identity
	Value string
}

// MemoryEntry is one long-lived fact about the user, their school, a
// class, or a student
type MemoryEntry struct {
	ID         MemoryID     `firestore:"id"`
	UserID     UserID       `firestore:"user_id"`
	Scope      MemoryScope  `firestore:"scope"`
	RefID      string       `firestore:"ref_id,omitempty"`
	Category   Category     `firestore:"category"`
	Key        string       `firestore:"key"`
	Value      string       `firestore:"value"`
	Importance float64      `firestore:"importance"`
	Source     MemorySource `firestore:"source"`
	DecayDays  int          `firestore:"decay_days,omitempty"`
	CreatedAt  time.Time    `firestore:"created_at"`
	UpdatedAt  time.Time    `firestore:"updated_at"`
}

// Identity returns the entry's semantic identity
func (m *MemoryEntry) Identity() Identity {
	return Identity{Scope: m.Scope, Category: m.Category, Key: m.Key}
}

// Fingerprint returns the entry's duplicate-detection fingerprint
func (m *MemoryEntry) Fingerprint() Fingerprint {
	return Fingerprint{Identity: m.Identity(), Value: m.Value}
}

// LastTouch is the most recent write time of the entry
func (m *MemoryEntry) LastTouch() time.Time {
	if m.UpdatedAt.After(m.CreatedAt) {
		return m.UpdatedAt
	}
	return m.CreatedAt
}

// SessionSummary is a one-per-conversation synopsis, upserted by the
// conversation's identity
type SessionSummary struct {
	ID        string    `firestore:"id"`
	UserID    UserID    `firestore:"user_id"`
	Summary   string    `firestore:"summary"`
	UpdatedAt time.Time `firestore:"updated_at"`
}
