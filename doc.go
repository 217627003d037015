// Package credgate provides a credential and session-token engine: it
// authenticates human principals and machine clients, issues short-lived
// signed access tokens and ledger-tracked renewal tokens, and enforces
// single-use rotation and revocation of renewal tokens.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build]. The engine itself holds no mutable shared state; all
// durable state lives in the caller-supplied [CredentialStore] and
// [ledger.Ledger].
//
// # Architecture boundaries
//
// credgate is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (Principal, MachineClient, TokenPair, MetricsSnapshot).
// Token encoding lives in the token sub-package, secret hashing in password,
// revocation state in ledger. Internal coordination — audit dispatch, random
// credential material — lives under internal/ and is never exported.
//
// # What this package must NOT do
//
//   - Expose storage clients or hash encodings in its public API.
//   - Perform I/O outside of Engine methods (construction via Builder is
//     allocation-only until Build).
//   - Differentiate authentication failures in caller-visible errors:
//     unknown username, wrong password, and inactive accounts all surface
//     as [ErrInvalidCredentials].
//
// # Security contract
//
// VerifyAccess is the hot path: signature and expiry checks only, never a
// store or ledger round-trip. Rotate is the only operation allowed to
// consume a renewal token, and its ledger compare-and-set guarantees that
// at most one of two concurrent rotations of the same token succeeds.
package credgate
