package schedule

import "errors"

var (
	// ErrInvalidInput indicates malformed vesting parameters: a TGE unlock
	// percent above 100, or a zero unlocking period with less than 100% at TGE.
	ErrInvalidInput = errors.New("schedule: invalid vesting input")

	// ErrRegistryFull indicates every slot in the registry holds an active plan.
	ErrRegistryFull = errors.New("schedule: beneficiary registry is full")

	// ErrSlotNotActive indicates the slot does not hold an active plan.
	ErrSlotNotActive = errors.New("schedule: slot is not active")

	// ErrIndexOutOfRange indicates the slot index is outside [0, MaxSlots).
	ErrIndexOutOfRange = errors.New("schedule: slot index out of range")

	// ErrTransferFailed indicates the transfer service declined or failed the
	// transfer and no funds moved.
	ErrTransferFailed = errors.New("schedule: token transfer failed")

	// ErrTransferOutcomeUnknown indicates the transfer request may have been
	// executed but no definite answer came back. Funds may have moved.
	ErrTransferOutcomeUnknown = errors.New("schedule: token transfer outcome unknown")

	// ErrConsistencyViolation indicates an accounting invariant was broken:
	// claimed exceeds entitled, or a 64-bit counter would overflow.
	// It is never expected under correct sequential use and must not be retried.
	ErrConsistencyViolation = errors.New("schedule: accounting consistency violation")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("schedule: required parameter is nil")

	// ErrInvalidRecord indicates a fixed-width record has the wrong size or a bad field.
	ErrInvalidRecord = errors.New("schedule: invalid record data")
)
