package template

import (
	"errors"
	"fmt"
)

var (
	// ErrCompile indicates the template source could not be parsed.
	ErrCompile = errors.New("template: compile failed")

	// ErrRender indicates template execution failed.
	ErrRender = errors.New("template: render failed")

	// ErrInvalidHelper indicates a helper has a bad name or signature.
	ErrInvalidHelper = errors.New("template: invalid helper")

	// ErrInvalidData indicates template data could not be normalized.
	ErrInvalidData = errors.New("template: invalid data")
)

// CompileError carries the parser message for a template that failed to compile.
type CompileError struct {
	Key string // cache key the compile was requested under, may be empty
	Err error
}

func (e *CompileError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s (key %s): %v", ErrCompile, e.Key, e.Err)
	}
	return fmt.Sprintf("%s: %v", ErrCompile, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrCompile) hold for every CompileError.
func (e *CompileError) Is(target error) bool { return target == ErrCompile }
