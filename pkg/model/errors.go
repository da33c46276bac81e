package model

import "fmt"

// ValidationError is raised when a field assignment is rejected: wrong type,
// disallowed nil, or a coercion failure. It touches no state -- the mutation
// simply never happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

// FieldUnset is returned by Get when a field has neither a stored value nor a
// default.
type FieldUnset struct {
	Field string
}

func (e *FieldUnset) Error() string {
	return fmt.Sprintf("field %q is not set", e.Field)
}

// NotAModel is returned when something that isn't a persistent Object is
// assigned into a folder.
type NotAModel struct {
	Name string
}

func (e *NotAModel) Error() string {
	return fmt.Sprintf("value for %q is not a dumpling model", e.Name)
}

// AlreadyAttached is returned when an object already live under some parent
// is inserted into a folder a second time.
type AlreadyAttached struct {
	Name string
	Path string
}

func (e *AlreadyAttached) Error() string {
	return fmt.Sprintf("object is already attached at %q, cannot attach again as %q", e.Path, e.Name)
}
