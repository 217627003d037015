package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrCorruptHash signals a stored hash that bcrypt cannot parse. It is
// fatal for that principal's login but must never crash the process.
var ErrCorruptHash = errors.New("corrupt credential hash")

// ErrSecretTooShort is returned by Hash for inputs below the configured
// minimum length.
var ErrSecretTooShort = errors.New("secret below minimum length")

// dummySecret feeds the timing-equalisation path: when a username is
// unknown, the engine still burns one bcrypt comparison so response time
// does not reveal account existence.
const dummySecret = "credgate-timing-equalisation-input"

// Config defines a public type used by credgate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Cost      int
	MinLength int
}

// Hasher defines a public type used by credgate APIs.
//
// Hasher instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Hasher struct {
	config    Config
	dummyHash []byte
}

// NewHasher validates the cost factor and precomputes the dummy hash used
// by [Hasher.VerifyDummy].
func NewHasher(cfg Config) (*Hasher, error) {
	if cfg.Cost < bcrypt.MinCost || cfg.Cost > bcrypt.MaxCost {
		return nil, errors.New("bcrypt cost out of range")
	}
	if cfg.MinLength < 8 {
		return nil, errors.New("minimum secret length must be >= 8")
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte(dummySecret), cfg.Cost)
	if err != nil {
		return nil, err
	}

	return &Hasher{config: cfg, dummyHash: dummy}, nil
}

// Hash applies salted bcrypt at the configured cost. The embedded random
// salt means the same input never produces the same output twice.
func (h *Hasher) Hash(secret string) (string, error) {
	if len(secret) < h.config.MinLength {
		return "", ErrSecretTooShort
	}

	out, err := bcrypt.GenerateFromPassword([]byte(secret), h.config.Cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Verify recomputes and compares. A mismatch is (false, nil); a stored
// value bcrypt cannot parse is (false, ErrCorruptHash).
func (h *Hasher) Verify(secret, encodedHash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(secret))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, ErrCorruptHash
	}
}

// VerifyDummy performs a full bcrypt comparison against the precomputed
// dummy hash and discards the result. Called on unknown-username paths so
// lookup misses cost the same as wrong passwords.
func (h *Hasher) VerifyDummy(secret string) {
	_ = bcrypt.CompareHashAndPassword(h.dummyHash, []byte(secret))
}

// Cost reports the configured cost factor.
func (h *Hasher) Cost() int {
	return h.config.Cost
}
