package registry

import "errors"

// NotFoundError is returned when a name or alias is not registered.
type NotFoundError struct{ Name string }

func (e *NotFoundError) Error() string { return "model not found: " + e.Name }

// IsNotFound reports whether err indicates an unknown model name.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// DuplicateError is returned when a name is already bound to another factory.
type DuplicateError struct{ Name string }

func (e *DuplicateError) Error() string {
	return "model " + e.Name + " already registered under different implementation"
}

// IsDuplicate reports whether err indicates a conflicting registration.
func IsDuplicate(err error) bool {
	var de *DuplicateError
	return errors.As(err, &de)
}
