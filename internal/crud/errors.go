package crud

import "errors"

var (
	// ErrNotFound means the resource does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrForbidden means the resource exists but belongs to a different actor.
	ErrForbidden = errors.New("resource belongs to a different user")
	// ErrNoFieldsProvided means an update patch carries zero assignments.
	ErrNoFieldsProvided = errors.New("no fields provided")
	// ErrNothingToUpdate means an update carried neither parent fields nor a
	// children list; no transaction is opened in that case.
	ErrNothingToUpdate = errors.New("nothing to update")
)
