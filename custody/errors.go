package custody

import "errors"

var (
	// ErrNoOffCurveAddress indicates no bump in [0, 255] yields an off-curve address.
	ErrNoOffCurveAddress = errors.New("custody: unable to find an off-curve derived address")

	// ErrOnCurve indicates the derived candidate is a valid public key and cannot
	// serve as a key-less authority.
	ErrOnCurve = errors.New("custody: derived address is on the curve")

	// ErrTagTooLong indicates the derivation tag exceeds MaxTagLen bytes.
	ErrTagTooLong = errors.New("custody: derivation tag too long")

	// ErrDerivationFailed indicates HKDF output could not be read.
	ErrDerivationFailed = errors.New("custody: address derivation failed")

	// ErrUnknownAccount indicates the token account does not exist.
	ErrUnknownAccount = errors.New("custody: unknown token account")

	// ErrAccountExists indicates the token account was already opened.
	ErrAccountExists = errors.New("custody: token account already exists")

	// ErrUnauthorized indicates the authority does not own the source account
	// or presented the wrong derivation seed.
	ErrUnauthorized = errors.New("custody: transfer not authorized")

	// ErrInsufficientFunds indicates the source balance is below the amount.
	ErrInsufficientFunds = errors.New("custody: insufficient funds")

	// ErrBalanceOverflow indicates the credit would overflow the destination balance.
	ErrBalanceOverflow = errors.New("custody: balance overflow")

	// ErrZeroAmount indicates a transfer or mint of zero tokens.
	ErrZeroAmount = errors.New("custody: zero amount")

	// ErrKeyConflict indicates a settlement key was reused for a different transfer.
	ErrKeyConflict = errors.New("custody: settlement key reused for a different transfer")

	// ErrConnectionFailed indicates the transfer endpoint could not be reached.
	ErrConnectionFailed = errors.New("custody: connection failed")

	// ErrInvalidResponse indicates the endpoint returned a malformed response.
	ErrInvalidResponse = errors.New("custody: invalid response")

	// ErrTransferRejected indicates the endpoint refused the transfer.
	ErrTransferRejected = errors.New("custody: transfer rejected")
)
