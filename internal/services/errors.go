// Package services implements the moderation use cases: admin exemption,
// link enforcement, the per-message moderation flow and the periodic
// broadcast. This file centralizes the service-level errors.
//
// Two kinds of failure are kept apart:
//   - *PlatformError wraps a failed remote call (delete, ban, send, member
//     lookup). These are expected in production, logged and swallowed.
//   - ErrInvalidMessage signals a defect upstream (a message that should
//     never have reached the service). It is returned to the caller.
package services

import "errors"

// ErrInvalidMessage is returned when a message lacks the identifiers needed
// to act on it (chat, sender or message ID).
var ErrInvalidMessage = errors.New("invalid message")

// Operation names used in PlatformError.Op, log fields and metric labels.
const (
	OpDelete    = "delete"
	OpBan       = "ban"
	OpWarn      = "warn"
	OpGetMember = "get_member"
	OpBroadcast = "broadcast"
)

// PlatformError reports a failed call to the messaging platform.
type PlatformError struct {
	Op  string
	Err error
}

func (e *PlatformError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *PlatformError) Unwrap() error { return e.Err }

// IsPlatformError reports whether err is (or wraps) a platform failure, i.e.
// something safe to log and ignore.
func IsPlatformError(err error) bool {
	var pe *PlatformError
	return errors.As(err, &pe)
}
