package vnr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInput indicates missing, cleared or mismatched buffers.
	ErrInvalidInput = errors.New("vnr: invalid input")

	// ErrNilEOS indicates a resolver or residual built without an EOS.
	ErrNilEOS = errors.New("vnr: nil equation of state")

	// ErrUnknownPolicy indicates an unrecognized failure policy name.
	ErrUnknownPolicy = errors.New("vnr: unknown failure policy")
)

// ResolutionError collects the chunk failures of a PolicyContinue run.
type ResolutionError struct {
	Chunks []int
	Err    error
}

func (e *ResolutionError) Error() string {
	idx := make([]string, len(e.Chunks))
	for i, c := range e.Chunks {
		idx[i] = fmt.Sprint(c)
	}
	return fmt.Sprintf("vnr: %d chunk(s) failed [%s]: %v", len(e.Chunks), strings.Join(idx, ","), e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}
