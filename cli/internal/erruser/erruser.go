// Package erruser provides errors whose Error() is a single user-facing
// sentence. The technical cause stays behind Unwrap() so the CLI can print
// it as a separate "Details:" line instead of leaking exec output or HTTP
// status lines into the primary message.
package erruser

import "errors"

// Err pairs a user-facing message with an optional cause.
type Err struct {
	Msg string
	Err error
}

// Error returns the user-facing message only.
func (e *Err) Error() string {
	if e == nil {
		return ""
	}
	return e.Msg
}

// Unwrap returns the underlying cause, or nil. Safe on a nil receiver.
func (e *Err) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New returns an error presenting msg to the user. A non-nil err is kept
// as the cause and reachable via errors.Unwrap / errors.Is; a nil err
// yields a plain error with no Unwrap.
func New(msg string, err error) error {
	if err == nil {
		return errors.New(msg)
	}
	return &Err{Msg: msg, Err: err}
}
