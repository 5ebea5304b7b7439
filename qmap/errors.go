package qmap

import "fmt"

// MalformedDataError reports structurally invalid input at the grid-model boundary.
// Field is a path into the offending document, e.g. "arch.alg_qubits[3]".
type MalformedDataError struct {
	Field  string
	Reason string
}

func (e *MalformedDataError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("malformed data: %s", e.Reason)
	}
	return fmt.Sprintf("malformed data at %s: %s", e.Field, e.Reason)
}

func malformed(field, format string, args ...any) *MalformedDataError {
	return &MalformedDataError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
