package session

import "errors"

// Error constants.
var (
	// ErrInvalidLeg is returned when a session is created for an unknown leg.
	ErrInvalidLeg = errors.New("invalid leg")
	// ErrAlreadyStarted is returned when Start is called after arming.
	ErrAlreadyStarted = errors.New("session already started")
	// ErrTerminal is returned when an operation reaches a finished session.
	ErrTerminal = errors.New("session already terminal")
	// ErrOutOfOrder is returned for a frame older than one already ingested.
	ErrOutOfOrder = errors.New("frame out of order")
)
