package response

import (
	"errors"
)

// Error is an error that knows which HTTP status it should surface as.
type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	var t *Error
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Err.Error() == t.Err.Error()
}

func NewError(code int, err string) error {
	return &Error{code, errors.New(err)}
}

// Wrap attaches detail to a sentinel Error while keeping errors.Is working
// against the sentinel.
func Wrap(sentinel error, detail string) error {
	var e *Error
	if !errors.As(sentinel, &e) {
		return sentinel
	}
	return &wrapped{sentinel: e, detail: detail}
}

type wrapped struct {
	sentinel *Error
	detail   string
}

func (w *wrapped) Error() string {
	return w.sentinel.Error() + ": " + w.detail
}

func (w *wrapped) Unwrap() error {
	return w.sentinel
}
