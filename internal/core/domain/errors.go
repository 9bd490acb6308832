package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupportedProvider indicates an unknown AI provider or storage backend.
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrLLMUnavailable indicates the judge model cannot be reached.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service cannot be reached.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrStoreUnavailable indicates the document store cannot be opened or reached.
	ErrStoreUnavailable = errors.New("document store unavailable")

	// Catalogue Errors.

	// ErrCatalogueEmpty indicates no facts were found in the catalogue directory.
	ErrCatalogueEmpty = errors.New("fact catalogue is empty")

	// ErrDuplicateFact indicates the same fact number appears more than once.
	ErrDuplicateFact = errors.New("duplicate fact number")

	// ErrMalformedVerdict indicates the judge output could not be decoded.
	ErrMalformedVerdict = errors.New("malformed verdict")
)
