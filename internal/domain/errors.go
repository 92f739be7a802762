package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error surfaced by a parser, the matcher or a business
// operation wraps exactly one of these.
var (
	// ErrParseFailure is returned when no entity, field or intent can be found in text
	ErrParseFailure = errors.New("parse failure")

	// ErrAmbiguousIntent is returned when a command carries conflicting intents
	ErrAmbiguousIntent = errors.New("ambiguous intent")

	// ErrValidation is returned when a required identifying field is missing or invalid
	ErrValidation = errors.New("validation error")

	// ErrNotFound is returned when an operation needs an existing record and none matched
	ErrNotFound = errors.New("record not found")

	// ErrUpstream is returned when the record store or an outbound service fails
	ErrUpstream = errors.New("upstream failure")

	// ErrNotConfigured is returned when an optional collaborator is not configured
	ErrNotConfigured = errors.New("collaborator not configured")
)

// Parse failure details.
var (
	ErrMissingName     = fmt.Errorf("%w: cannot extract member name", ErrParseFailure)
	ErrNotADeletion    = fmt.Errorf("%w: not a deletion command", ErrParseFailure)
	ErrEmptyContent    = fmt.Errorf("%w: memo content is empty", ErrParseFailure)
	ErrNoFieldValues   = fmt.Errorf("%w: no field values found", ErrParseFailure)
	ErrUnrecognizedCmd = fmt.Errorf("%w: unrecognized command", ErrParseFailure)
)

// Cache errors
var (
	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")
)

// ErrorKind classifies an error for the dispatcher.
type ErrorKind string

const (
	KindNone            ErrorKind = ""
	KindParseFailure    ErrorKind = "ParseFailure"
	KindAmbiguousIntent ErrorKind = "AmbiguousIntent"
	KindValidation      ErrorKind = "ValidationError"
	KindNotFound        ErrorKind = "NotFound"
	KindUpstream        ErrorKind = "UpstreamError"
	KindNotConfigured   ErrorKind = "NotConfigured"
)

// KindOf maps err to its kind. Errors wrapping no known kind are upstream failures.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrParseFailure):
		return KindParseFailure
	case errors.Is(err, ErrAmbiguousIntent):
		return KindAmbiguousIntent
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrNotConfigured):
		return KindNotConfigured
	default:
		return KindUpstream
	}
}

// CandidatesError reports several records matching an identifier that
// must select exactly one.
type CandidatesError struct {
	Name       string
	Candidates []Record
}

func (e *CandidatesError) Error() string {
	return fmt.Sprintf("%d members named %s; specify %s", len(e.Candidates), e.Name, FieldMemberNumber)
}

func (e *CandidatesError) Unwrap() error { return ErrValidation }
