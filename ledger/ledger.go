// Package ledger implements the durable record of issued renewal tokens
// and their revoked/expired status. It is the single authoritative store
// for renewal-token validity: a renewal token whose signature verifies is
// still rejected if its ledger row is absent, revoked, or expired.
//
// Revoke is an atomic compare-and-set (flip only if currently active), the
// linearisation point that makes rotation single-use: two concurrent
// rotations of the same token observe at most one successful flip.
//
// Two implementations ship: [Redis] (go-redis, rows expire with the token)
// and [SQL] (sqlx over database/sql). No other component mutates
// revocation state.
package ledger

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateToken is returned by Record when the token id already has a
// row. With uuid token ids a collision is cryptographically near
// impossible; the engine retries with a fresh id a bounded number of times.
var ErrDuplicateToken = errors.New("renewal token id already recorded")

// ErrPastExpiry is returned by Record when expiresAt is not in the future.
var ErrPastExpiry = errors.New("renewal token expiry already passed")

// Ledger is the revocation ledger consumed by the engine. Record followed
// by IsActive on the same token id must observe the write; implementations
// add no buffering beyond the storage layer's own guarantees.
type Ledger interface {
	// Record inserts a new active row for a freshly issued renewal token.
	Record(ctx context.Context, tokenID, principalID string, expiresAt time.Time) error

	// IsActive reports whether a row exists, is not revoked, and has not
	// passed its own expiry.
	IsActive(ctx context.Context, tokenID string) (bool, error)

	// Revoke flips an active row to revoked and reports whether this call
	// performed the flip. Idempotent: absent, expired, and already-revoked
	// rows all return false. The flip is atomic with the active check.
	Revoke(ctx context.Context, tokenID string) (bool, error)

	// RevokeAllForPrincipal revokes every active row owned by the
	// principal and returns the number of rows flipped.
	RevokeAllForPrincipal(ctx context.Context, principalID string) (int, error)
}
