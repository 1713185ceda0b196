// Package clinerr defines the error taxonomy shared by the clinical
// record services. Handlers translate these into protocol statuses;
// services and repositories wrap them with entity context via %w.
package clinerr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports an operation against an entity identity that
	// is absent from the store.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists reports a create for an identity already present.
	ErrAlreadyExists = errors.New("already exists")

	// ErrConsistencyViolation reports input under which a relationship
	// invariant cannot be restored, e.g. an appointment id that does
	// not resolve to a stored row.
	ErrConsistencyViolation = errors.New("consistency violation")
)

// NotFound wraps ErrNotFound with the entity kind and identity.
func NotFound(kind string, id interface{}) error {
	return fmt.Errorf("%s %v: %w", kind, id, ErrNotFound)
}

// AlreadyExists wraps ErrAlreadyExists with the entity kind and identity.
func AlreadyExists(kind string, id interface{}) error {
	return fmt.Errorf("%s %v: %w", kind, id, ErrAlreadyExists)
}

// Consistency wraps ErrConsistencyViolation with a description of the
// reference that could not be reconciled.
func Consistency(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrConsistencyViolation)...)
}

// HTTPStatus maps a service error to the status code the request layer
// should answer with.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return 404
	case errors.Is(err, ErrAlreadyExists):
		return 409
	case errors.Is(err, ErrConsistencyViolation):
		return 422
	default:
		return 500
	}
}
