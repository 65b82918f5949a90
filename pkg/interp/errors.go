package interp

import "fmt"

// PosError locates a failure in template source.
type PosError struct {
	Name string
	Line int
	Col  int
	Err  error
}

func (e *PosError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %v", e.Name, e.Line, e.Col, e.Err)
}

func (e *PosError) Unwrap() error { return e.Err }
