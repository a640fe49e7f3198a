package store

import "errors"

var (
	// ErrNotInitialized indicates no ledger state has been committed yet.
	ErrNotInitialized = errors.New("store: vesting state not initialized")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("store: required parameter is nil")

	// ErrCorruptState indicates a stored record failed to decode.
	ErrCorruptState = errors.New("store: corrupt vesting state")
)
