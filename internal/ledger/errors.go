package ledger

import "errors"

var (
	// ErrUnauthorized is returned when a non-owner attempts an owner-only operation.
	ErrUnauthorized = errors.New("not the owner")

	// ErrInsufficientAllowance is returned when a non-owner withdraws more than their allowance.
	ErrInsufficientAllowance = errors.New("insufficient allowance")

	// ErrInsufficientBalance is returned when a withdrawal exceeds the custody balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidAmount is returned for negative amounts, amounts finer than
	// one base unit, and results that would exceed MaxAmount.
	ErrInvalidAmount = errors.New("invalid amount")

	ErrInvalidIdentity = errors.New("invalid identity")

	// ErrTransferFailed wraps the transfer collaborator's error. The
	// withdrawal it belonged to was rolled back.
	ErrTransferFailed = errors.New("transfer failed")

	// ErrOwnerMismatch is returned when the store already belongs to another owner.
	ErrOwnerMismatch = errors.New("stored ledger belongs to a different owner")
)
