package scanner

import "fmt"

// Error is returned when a log stream cannot be resolved or read. It fails
// the stream's scan as a whole.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
