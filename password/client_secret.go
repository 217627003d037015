package password

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

const clientDigestHexLen = 64

// StoredClientSecret is a tagged variant over the two on-disk forms of a
// machine-client secret: a SHA-256 hex digest (steady state) or the raw
// plaintext (legacy rows awaiting rotation). The variant is resolved once
// when the record is loaded, not re-inspected on every comparison, so a
// plaintext secret that happens to be 64 hex characters is classified
// exactly once per load.
type StoredClientSecret struct {
	digest  [sha256.Size]byte
	present bool
	hashed  bool
}

// HashClientSecret returns the 64-character lowercase-hex SHA-256 digest
// used as the stored form of a client secret.
func HashClientSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// ParseStoredClientSecret classifies a stored value. A 64-character
// lowercase-hex string is treated as a digest; anything else as legacy
// plaintext. Plaintext is immediately reduced to its own SHA-256 so both
// arms compare fixed-length digests in constant time.
func ParseStoredClientSecret(stored string) StoredClientSecret {
	if stored == "" {
		return StoredClientSecret{}
	}

	if isLowerHex(stored) && len(stored) == clientDigestHexLen {
		var s StoredClientSecret
		raw, err := hex.DecodeString(stored)
		if err == nil && len(raw) == sha256.Size {
			copy(s.digest[:], raw)
			s.present = true
			s.hashed = true
			return s
		}
	}

	return StoredClientSecret{
		digest:  sha256.Sum256([]byte(stored)),
		present: true,
	}
}

// Hashed reports whether the stored value was a digest. A false return on
// a present secret identifies the legacy-plaintext compatibility path.
func (s StoredClientSecret) Hashed() bool {
	return s.hashed
}

// Present reports whether any stored value existed.
func (s StoredClientSecret) Present() bool {
	return s.present
}

// Matches compares the presented secret against the stored value in time
// independent of where a mismatch occurs. Both variants compare SHA-256
// digests, so the legacy arm leaks neither content nor length.
func (s StoredClientSecret) Matches(presented string) bool {
	if !s.present {
		return false
	}
	sum := sha256.Sum256([]byte(presented))
	return subtle.ConstantTimeCompare(sum[:], s.digest[:]) == 1
}

func isLowerHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
