package engine

import (
	"errors"
	"fmt"
)

// ReplayErrorCode categorizes replay failures.
type ReplayErrorCode string

const (
	// ErrCodeDiverged indicates a replayed signal differs from the journal.
	ErrCodeDiverged ReplayErrorCode = "DIVERGED"

	// ErrCodeTruncated indicates replay produced fewer or more signals than
	// the journal holds.
	ErrCodeTruncated ReplayErrorCode = "TRUNCATED"

	// ErrCodeIncompatible indicates the journal was written by an engine
	// whose journal format or topology this build cannot reproduce.
	ErrCodeIncompatible ReplayErrorCode = "INCOMPATIBLE"
)

// ReplayError reports that a journal did not reproduce.
//
// Seq and Frame locate the first mismatch; Want and Got hold the canonical
// payloads that differ (either may be empty for TRUNCATED).
type ReplayError struct {
	Code      ReplayErrorCode
	JournalID string
	Frame     int64
	Seq       int64
	Want      string
	Got       string
	Message   string
}

// Error implements the error interface.
func (e *ReplayError) Error() string {
	if e.Seq > 0 {
		return fmt.Sprintf("%s: %s (journal=%s, frame=%d, seq=%d)", e.Code, e.Message, e.JournalID, e.Frame, e.Seq)
	}
	return fmt.Sprintf("%s: %s (journal=%s)", e.Code, e.Message, e.JournalID)
}

// IsReplayError reports whether err is a *ReplayError.
// Uses errors.As to handle wrapped errors.
func IsReplayError(err error) bool {
	var re *ReplayError
	return errors.As(err, &re)
}

// IsDivergence reports whether err is a replay divergence of any kind.
func IsDivergence(err error) bool {
	var re *ReplayError
	if errors.As(err, &re) {
		return re.Code == ErrCodeDiverged || re.Code == ErrCodeTruncated
	}
	return false
}
