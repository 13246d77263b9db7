package ber

import "errors"

// ErrMalformed is matched by every *Error returned while decoding.
var ErrMalformed = errors.New("malformed asn1 payload")

// Error describes why a payload could not be decoded.
type Error struct {
	Description string
}

func newError(description string) *Error {
	return &Error{Description: description}
}

func (e *Error) Error() string {
	return "asn1: " + e.Description
}

func (e *Error) Is(target error) bool {
	return target == ErrMalformed
}
