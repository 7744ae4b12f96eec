package api

import (
	"errors"
	"fmt"
)

// ErrBadRequest marks a request the handler rejected before reaching
// the service.
var ErrBadRequest = errors.New("bad request")

// Wrap annotates err with the operation that observed it.
func Wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}

// WrapKind annotates a sentinel kind with the operation and its cause.
func WrapKind(op string, kind, cause error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, cause)
}

// NewKind annotates a sentinel kind with the operation.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}
