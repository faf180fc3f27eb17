package upload

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBatchInFlight is returned when Run is called for a business record that
// already has a batch running; the call is rejected, never queued.
var ErrBatchInFlight = errors.New("a batch is already running for this business record")

// Machine codes attached to confirm errors by the backend.
const (
	CodeAlreadyConfirmed = "already_confirmed"
	CodeInvalidState     = "invalid_state"
	CodeNotFound         = "not_found"
)

// SessionCreateError is a create-session call rejected by the backend.
// Message is the server-supplied text, surfaced verbatim.
type SessionCreateError struct {
	Message string
}

func (e *SessionCreateError) Error() string { return e.Message }

// TransferError is a network failure or non-2xx response during the object
// PUT. StatusCode is zero when the request never completed.
type TransferError struct {
	StatusCode int
	Err        error
}

func (e *TransferError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("object transfer failed: %v", e.Err)
	}
	return fmt.Sprintf("object store returned status %d", e.StatusCode)
}

func (e *TransferError) Unwrap() error { return e.Err }

// ConfirmError is a rejected confirm call. Code is the backend's machine code
// when it provides one; legacy backends only send message text.
type ConfirmError struct {
	Code       string
	Message    string
	StatusCode int
}

func (e *ConfirmError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("confirm rejected with status %d", e.StatusCode)
}

// Reconcilable reports whether the rejection may mean a prior attempt already
// landed, in which case the coordinator re-lists committed files instead of
// failing the item outright. Matching on message text is a compatibility shim
// for backends that do not send codes.
func (e *ConfirmError) Reconcilable() bool {
	switch e.Code {
	case CodeAlreadyConfirmed, CodeInvalidState:
		return true
	case "":
		msg := strings.ToLower(e.Message)
		return strings.Contains(msg, "already confirmed") || strings.Contains(msg, "invalid state")
	}
	return false
}

// CompensationError is a failed cancel of the parent business record. It is
// the most severe batch outcome: the record stands with partial attachments
// and needs operator attention. It is never retried automatically.
type CompensationError struct {
	Ref BusinessRef
	Err error
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("cancelling %s failed, manual cleanup required: %v", e.Ref, e.Err)
}

func (e *CompensationError) Unwrap() error { return e.Err }
