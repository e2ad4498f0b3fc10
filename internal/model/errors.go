package model

import "fmt"

// MalformedMeshError reports a mesh text stream that does not follow the
// vertex/tetrahedron layout. Line is the 1-based physical line number.
type MalformedMeshError struct {
	Line   int
	Reason string
	Err    error
}

func (e *MalformedMeshError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed mesh: line %d: %s: %v", e.Line, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed mesh: line %d: %s", e.Line, e.Reason)
}

func (e *MalformedMeshError) Unwrap() error {
	return e.Err
}

// InvalidFieldRegionError reports a field region that cannot be classified
// against. Index is the 0-based position of the region in its input list.
type InvalidFieldRegionError struct {
	Index  int
	Field  string
	Reason string
}

func (e *InvalidFieldRegionError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid field region %d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("invalid field region %d: %s: %s", e.Index, e.Field, e.Reason)
}
