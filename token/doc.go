// Package token implements the signed, self-contained token codec used for
// both access and renewal tokens.
//
// # Wire format
//
// Compact three-part JWS (header.claims.signature) signed with HMAC-SHA-256
// under a single process-wide symmetric key. Claims are flat: sub, user_id,
// type ("access" | "renewal"), jti (renewal only), iat, exp.
//
// # Architecture boundaries
//
// This package owns encoding, signature verification, algorithm pinning,
// and expiry checks. Revocation state is the engine's job via the ledger;
// a token this package accepts may still be rejected upstream.
//
// # What this package must NOT do
//
//   - Consult any store or perform I/O.
//   - Grant clock-skew leeway: expiry uses the verifying side's clock with
//     no grace window.
//   - Accept any signing algorithm other than the configured one.
package token
