// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"net/http"
)

// ErrorKind classifies a pipeline failure. Each kind maps to one HTTP
// status and one user-visible message.
type ErrorKind string

const (
	MissingIdentifier    ErrorKind = "missing_identifier"
	IdentifierNotIndexed ErrorKind = "identifier_not_indexed"
	OuterFetchFailed     ErrorKind = "outer_fetch_failed"
	PermalinkFetchFailed ErrorKind = "permalink_fetch_failed"
	ManifestFetchFailed  ErrorKind = "manifest_fetch_failed"
	PayloadFetchFailed   ErrorKind = "payload_fetch_failed"
	PreloadNotFound      ErrorKind = "preload_not_found"
	NoReadableContent    ErrorKind = "no_readable_content"
	NoLexDefFound        ErrorKind = "no_lexdef_found"
)

// Status returns the HTTP status code for the kind.
func (k ErrorKind) Status() int {
	switch k {
	case MissingIdentifier:
		return http.StatusBadRequest
	case IdentifierNotIndexed, NoReadableContent, NoLexDefFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the human-readable text reported to clients.
func (k ErrorKind) Message() string {
	switch k {
	case MissingIdentifier:
		return "No query provided"
	case IdentifierNotIndexed:
		return "Identifier not found in index"
	case OuterFetchFailed:
		return "Failed to fetch outer page"
	case PermalinkFetchFailed:
		return "Failed to fetch permalink page"
	case ManifestFetchFailed:
		return "Failed to fetch index manifest"
	case PayloadFetchFailed:
		return "Failed to fetch .md content"
	case PreloadNotFound:
		return "Could not find preloadPage URL"
	case NoReadableContent:
		return "No readable content found"
	case NoLexDefFound:
		return "No lexDef found"
	default:
		return "Internal error"
	}
}

// Error is a classified pipeline failure. Err holds the underlying cause
// for logs; it is never shown to clients.
type Error struct {
	Kind ErrorKind
	Err  error
}

// NewError wraps cause with kind. A nil cause is allowed.
func NewError(kind ErrorKind, cause error) *Error {
	return &Error{Kind: kind, Err: cause}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so callers can write
// errors.Is(err, types.NewError(types.NoLexDefFound, nil)).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of err, or "" when err is not a classified
// pipeline error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
