package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind distinguishes access tokens from renewal tokens in the "type" claim.
type Kind string

const (
	// KindAccess is an exported constant or variable used by the credential engine.
	KindAccess Kind = "access"
	// KindRenewal is an exported constant or variable used by the credential engine.
	KindRenewal Kind = "renewal"
)

var (
	// ErrInvalid covers malformed, tampered, and wrong-algorithm tokens.
	ErrInvalid = errors.New("token invalid")
	// ErrExpired is returned when the exp claim has passed on the
	// verifier's clock. Internally distinguishable from tamper; callers
	// upstream collapse both into a generic rejection.
	ErrExpired = errors.New("token expired")
)

// Config defines a public type used by credgate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	SigningKey []byte
	Algorithm  string // "hs256" only
	Issuer     string
}

// Manager defines a public type used by credgate APIs.
//
// Manager instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Manager struct {
	config Config
}

// Claims is the flat claim set carried by every issued token. Subject holds
// the principal's username, UserID the principal identifier, and ID (jti)
// is set only on renewal tokens.
type Claims struct {
	UserID string `json:"user_id"`
	Kind   Kind   `json:"type"`
	jwt.RegisteredClaims
}

// NewManager validates the codec configuration. The signing key and
// algorithm are fixed for the life of the process.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.SigningKey) == 0 {
		return nil, errors.New("hs256 requires signing key")
	}
	if cfg.Algorithm != "hs256" {
		return nil, errors.New("unsupported signing algorithm")
	}
	return &Manager{config: cfg}, nil
}

// Issue encodes a signed token of the given kind with exp = now + ttl.
// It returns the compact token string and the expiry it encoded, so the
// caller can record the exact same instant in the revocation ledger.
func (m *Manager) Issue(subject, userID string, kind Kind, jti string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)

	claims := Claims{
		UserID: userID,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if m.config.Issuer != "" {
		claims.Issuer = m.config.Issuer
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.SigningKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse verifies the signature first (fails closed on any tamper), pins the
// algorithm to HS256, then checks expiry and returns the claims. It never
// consults revocation state.
func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	tok, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrInvalid
		}
		return m.config.SigningKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, ErrInvalid
	}
	if claims.Kind != KindAccess && claims.Kind != KindRenewal {
		return nil, ErrInvalid
	}
	return claims, nil
}
