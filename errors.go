package emoset

import "fmt"

// UnsupportedFormatError is returned when no backend is registered for a
// file suffix.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("no backend registered for %q files", e.Ext)
}

// MissingAnnotationError is returned when an instance name is absent from a
// required annotation mapping.
type MissingAnnotationError struct {
	Name       string
	Annotation string
}

func (e *MissingAnnotationError) Error() string {
	return fmt.Sprintf("instance %q has no %s annotation", e.Name, e.Annotation)
}

// ConsistencyError is returned when the parallel index arrays of a dataset
// disagree with each other, e.g. a feature container whose length differs
// from the name list.
type ConsistencyError struct {
	Reason string
}

func (e *ConsistencyError) Error() string {
	return "dataset inconsistency: " + e.Reason
}

func consistencyErrorf(format string, args ...interface{}) *ConsistencyError {
	return &ConsistencyError{Reason: fmt.Sprintf(format, args...)}
}
