package internal

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// Client ids travel in URLs and log lines, so they stay alphanumeric.
// Secrets are shown once and stored hashed, so they use a wider alphabet
// for entropy density.
const (
	clientIDAlphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	clientSecretAlphabet = clientIDAlphabet + "-._~!*+=@"
)

// NewTokenID returns a fresh unique renewal-token id (jti).
func NewTokenID() string {
	return uuid.NewString()
}

// NewClientID generates an alphanumeric client identifier.
func NewClientID(length int) (string, error) {
	return randomString(clientIDAlphabet, length)
}

// NewClientSecret generates a high-entropy client secret.
func NewClientSecret(length int) (string, error) {
	return randomString(clientSecretAlphabet, length)
}

func randomString(alphabet string, length int) (string, error) {
	if length <= 0 {
		return "", errors.New("invalid random string length")
	}

	var b strings.Builder
	b.Grow(length)

	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(alphabet[n.Int64()])
	}

	return b.String(), nil
}
