package cutting

import (
	"fmt"
)

// InvalidInputError is the single error kind for every caller-input
// violation: shape mismatches, capability mismatches, policy violations and
// dimension mismatches. The message is the contract; nothing is retried or
// swallowed.
type InvalidInputError struct {
	msg string
}

func (e *InvalidInputError) Error() string {
	return e.msg
}

func invalidInputf(format string, args ...interface{}) error {
	return &InvalidInputError{msg: fmt.Sprintf(format, args...)}
}
