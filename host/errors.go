package host

import "errors"

var (
	// ErrUnauthorized indicates an administrative request from someone other than the admin.
	ErrUnauthorized = errors.New("host: caller is not the program admin")

	// ErrAlreadyInitialized indicates Initialize was called on an initialized program.
	ErrAlreadyInitialized = errors.New("host: program already initialized")

	// ErrNotInitialized indicates a request before Initialize.
	ErrNotInitialized = errors.New("host: program not initialized")

	// ErrHalted indicates the program stopped after an unrecoverable failure.
	ErrHalted = errors.New("host: program halted")

	// ErrNoTransferService indicates no transfer endpoint was configured or supplied.
	ErrNoTransferService = errors.New("host: no transfer service configured")
)
