package model

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrEmptyDocument is returned when a document yields no extractable text
	ErrEmptyDocument = goerr.New("document contains no extractable text")

	// ErrEmbeddingUnavailable marks an embedding service failure. Retrieval
	// recovers from it locally via the keyword fallback and never surfaces it.
	ErrEmbeddingUnavailable = goerr.New("embedding service unavailable")

	// ErrInvalidCategory is returned when a memory category is outside the
	// closed tag set
	ErrInvalidCategory = goerr.New("invalid memory category")

	// ErrIdentityConflict is returned when a category migration would collide
	// with an existing memory identity
	ErrIdentityConflict = goerr.New("memory identity conflict")

	// ErrNotFound is returned when a requested record does not exist
	ErrNotFound = goerr.New("record not found")

	// ErrUnauthorized is returned when a record belongs to a different owner
	ErrUnauthorized = goerr.New("record belongs to another user")
)
