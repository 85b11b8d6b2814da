package persistence

import (
	"errors"
	"fmt"
)

// Sentinel errors for persistence API calls.
var (
	ErrBadRequest      = errors.New("persistence: bad request")
	ErrNotFound        = errors.New("persistence: not found")
	ErrTooLarge        = errors.New("persistence: request too large")
	ErrRateLimited     = errors.New("persistence: rate limited by server")
	ErrServer          = errors.New("persistence: server error")
	ErrUnexpected      = errors.New("persistence: unexpected status")
	ErrInvalidResponse = errors.New("persistence: invalid response body")
)

// Error wraps a failed call with operation context and the message the
// server reported, if any.
type Error struct {
	Op      string // OpCreateFolders, OpCreateBookmarks or OpGenericImport
	Status  int    // HTTP status, zero when no response was received
	Message string // Server-reported message, verbatim
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0 && e.Message != "":
		return fmt.Sprintf("persistence %s [%d]: %s", e.Op, e.Status, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("persistence %s [%d]: %v", e.Op, e.Status, e.Err)
	default:
		return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(op string, status int, message string, err error) error {
	return &Error{Op: op, Status: status, Message: message, Err: err}
}

// fallbackMessages are shown when a failed call carries no server message.
var fallbackMessages = map[string]string{
	OpCreateFolders:   "An error occurred while importing folders",
	OpCreateBookmarks: "Failed to import bookmark collection",
	OpGenericImport:   "Failed to import collection",
}

// UserMessage returns the text to show for a failed call: the server's
// message verbatim when there is one, the transport error when no response
// arrived, and a per-operation fallback otherwise.
func UserMessage(err error) string {
	var pe *Error
	if !errors.As(err, &pe) {
		if err == nil {
			return ""
		}
		return err.Error()
	}
	if pe.Message != "" {
		return pe.Message
	}
	if pe.Status == 0 && pe.Err != nil {
		return pe.Err.Error()
	}
	if msg, ok := fallbackMessages[pe.Op]; ok {
		return msg
	}
	return pe.Error()
}

// StatusError builds the error a call returns when the API rejected it with
// status and message. In-process clients use it so callers see the same
// errors as over HTTP.
func StatusError(op string, status int, message string) error {
	return wrapError(op, status, message, statusError(status))
}
