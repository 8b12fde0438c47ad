package fieldval

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRegistration is returned when a validator is registered
	// without a name or without an implementation.
	ErrInvalidRegistration = errors.New("fieldval: invalid validator registration")

	// ErrRejected is returned by Future.Await when the future settled
	// through its rejection branch.
	ErrRejected = errors.New("fieldval: validation rejected")

	// ErrNotStruct is returned by BindStruct when the item does not
	// hold a struct.
	ErrNotStruct = errors.New("fieldval: struct or pointer to struct expected")
)

// DuplicateNameError is returned when a name is registered twice
// without the override option.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("fieldval: a validator named %q already exists; "+
		"provide a unique name or register with override", e.Name)
}

// ValidatorNotFoundError reports a binding that names a validator the
// registry does not know.  It never aborts a binding.
type ValidatorNotFoundError struct {
	Name string
}

func (e *ValidatorNotFoundError) Error() string {
	return fmt.Sprintf("fieldval: no validator with name %q has been registered", e.Name)
}
