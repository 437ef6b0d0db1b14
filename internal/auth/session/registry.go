package session

import (
	"context"
	"errors"
)

// ErrSessionInvalid means no registry entry exists for the principal
// or the stored session id differs from the presented one.
var ErrSessionInvalid = errors.New("session invalid")

// Registry maps a principal id to the single currently-valid renewable
// session id. Storing only the latest id is the whole enforcement
// mechanism for "one active session per principal": a second login
// overwrites the first, and deleting the entry revokes everything
// independent of the password.
type Registry interface {
	// Put unconditionally records sessionID as the current session.
	Put(ctx context.Context, principalID, sessionID string) error

	// Validate fails with ErrSessionInvalid unless sessionID is the
	// currently recorded one.
	Validate(ctx context.Context, principalID, sessionID string) error

	// Swap atomically replaces oldID with newID, failing with
	// ErrSessionInvalid if oldID is no longer current. This closes the
	// race between two concurrent renewals: only one can win.
	Swap(ctx context.Context, principalID, oldID, newID string) error

	// Invalidate deletes the entry. Idempotent.
	Invalidate(ctx context.Context, principalID string) error
}
