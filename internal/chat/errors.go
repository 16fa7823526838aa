package chat

import (
	"errors"
	"fmt"
)

// Operation failures reported to callers. All are terminal; none is
// retried by this package. The transport layer maps them to status
// codes with errors.Is.
var (
	// ErrInvalidInput marks a malformed or missing required field.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNameTaken marks a join with a display name already in use.
	ErrNameTaken = errors.New("participant name already taken")

	// ErrNotFound marks an operation on a participant that is not in
	// the room.
	ErrNotFound = errors.New("participant not found")

	// ErrUnknownSender marks a message attributed to a non-present
	// participant.
	ErrUnknownSender = errors.New("sender is not in the room")

	// ErrStoreUnavailable wraps transient store faults. Retry policy
	// belongs to the caller.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// storeFault wraps a store-layer error into the opaque unavailability
// fault propagated to callers.
func storeFault(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
