package repository

import "errors"

// Sentinel errors of the session store.
var (
	ErrCodeExhausted = errors.New("could not allocate a free session code")
	ErrClosed        = errors.New("session store closed")
)
