package ir

import (
	"errors"
	"fmt"
)

// RejectionCode categorizes rejected commands.
type RejectionCode string

const (
	// ErrCodeInsufficientFunds indicates the wallet cannot cover a cost.
	ErrCodeInsufficientFunds RejectionCode = "INSUFFICIENT_FUNDS"

	// ErrCodeAlreadyPurchased indicates the upgrade node was already bought.
	ErrCodeAlreadyPurchased RejectionCode = "ALREADY_PURCHASED"

	// ErrCodeNotRevealed indicates the upgrade node is not offered yet.
	ErrCodeNotRevealed RejectionCode = "NOT_REVEALED"

	// ErrCodeUnknownNode indicates the node index is outside the graph.
	ErrCodeUnknownNode RejectionCode = "UNKNOWN_NODE"

	// ErrCodeProgramFull indicates the program is at capacity.
	ErrCodeProgramFull RejectionCode = "PROGRAM_FULL"

	// ErrCodeProgramLocked indicates a program edit during a run.
	ErrCodeProgramLocked RejectionCode = "PROGRAM_LOCKED"

	// ErrCodeNotUnlocked indicates the instruction is not in the unlock set.
	ErrCodeNotUnlocked RejectionCode = "NOT_UNLOCKED"

	// ErrCodeIndexOutOfRange indicates a program index outside the sequence.
	ErrCodeIndexOutOfRange RejectionCode = "INDEX_OUT_OF_RANGE"

	// ErrCodeAlreadyRunning indicates start_run while a run is in flight.
	ErrCodeAlreadyRunning RejectionCode = "ALREADY_RUNNING"

	// ErrCodeNotRunning indicates reset_to_buying while editing.
	ErrCodeNotRunning RejectionCode = "NOT_RUNNING"

	// ErrCodeControlInactive indicates the triggering control is disabled.
	ErrCodeControlInactive RejectionCode = "CONTROL_INACTIVE"

	// ErrCodeInvalidAmount indicates a non-positive currency amount.
	ErrCodeInvalidAmount RejectionCode = "INVALID_AMOUNT"

	// ErrCodeNoSession indicates a gameplay command outside the Playing screen.
	ErrCodeNoSession RejectionCode = "NO_SESSION"

	// ErrCodeInvalidTransition indicates a screen change not allowed from the current screen.
	ErrCodeInvalidTransition RejectionCode = "INVALID_TRANSITION"

	// ErrCodeShopClosed indicates a purchase outside the Buying phase.
	ErrCodeShopClosed RejectionCode = "SHOP_CLOSED"

	// ErrCodePaused indicates a gameplay command while the game is paused.
	ErrCodePaused RejectionCode = "PAUSED"

	// ErrCodeUnknownCommand indicates a command type the engine does not handle.
	ErrCodeUnknownCommand RejectionCode = "UNKNOWN_COMMAND"
)

// RejectedError reports a command that was refused.
//
// Rejections are always recoverable: the command is a no-op, the engine
// logs a warning and carries on. They never propagate past the component
// that detected them.
type RejectedError struct {
	// Code identifies the rejection category.
	Code RejectionCode

	// Command names the command that was refused (e.g. "purchase").
	Command string

	// Message is a human-readable description.
	Message string

	// Details contains additional context.
	Details map[string]string
}

// Error implements the error interface.
func (e *RejectedError) Error() string {
	if e.Command != "" {
		return fmt.Sprintf("%s rejected: %s: %s", e.Command, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Reject creates a RejectedError with a formatted message.
func Reject(code RejectionCode, command, format string, args ...any) *RejectedError {
	return &RejectedError{
		Code:    code,
		Command: command,
		Message: fmt.Sprintf(format, args...),
	}
}

// With returns e with an extra detail attached.
func (e *RejectedError) With(key, value string) *RejectedError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// IsRejected returns true if err is a rejected command.
// Uses errors.As to handle wrapped errors.
func IsRejected(err error) bool {
	var re *RejectedError
	return errors.As(err, &re)
}

// RejectionCodeOf returns the rejection code of err, or "" if err is not a rejection.
func RejectionCodeOf(err error) RejectionCode {
	var re *RejectedError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}
