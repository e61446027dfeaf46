package ir

import "fmt"

// Error is the panic payload for structural precondition violations.
type Error struct {
	Op  string
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("ir: %s: %s", e.Op, e.Msg)
}

func fail(op, format string, args ...any) {
	panic(&Error{Op: op, Msg: fmt.Sprintf(format, args...)})
}
