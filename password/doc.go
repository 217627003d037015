// Package password implements one-way hashing and constant-time
// verification for principal passwords and machine-client secrets.
//
// Principal passwords use bcrypt with a configurable cost factor; the
// stored value is bcrypt's self-describing string (algorithm, cost, salt,
// digest). Machine-client secrets use a 64-character lowercase-hex SHA-256
// digest, with a tagged-variant fallback for legacy plaintext rows.
//
// # What this package must NOT do
//
//   - Early-exit digest comparisons: all digest checks go through
//     crypto/subtle.
//   - Persist anything. It is a pure function of its inputs and internal
//     randomness.
package password
