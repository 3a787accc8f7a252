package domain

import "errors"

var (
	// ErrQuizNotFound indicates the requested quiz no longer exists in the catalog.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrCatalogUnavailable indicates the catalog could not be reached or answered with a server error.
	ErrCatalogUnavailable = errors.New("quiz catalog unavailable")
	// ErrMalformedQuiz indicates a quiz document that must not enter a session
	// (no questions, non-positive time limit, or broken answer key).
	ErrMalformedQuiz = errors.New("malformed quiz")
	// ErrInvalidState is returned when a session operation is invoked in a
	// phase that forbids it. The session is left unchanged.
	ErrInvalidState = errors.New("operation not valid in current session phase")
	// ErrStaleFetch is returned when a quiz fetch resolves after the session
	// has moved on; the fetched quiz is discarded.
	ErrStaleFetch = errors.New("quiz fetch superseded by a newer selection")
)
