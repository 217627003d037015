package credgate

import "errors"

var (
	// ErrInvalidCredentials is an exported constant or variable used by the credential engine.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCorruptCredential is an exported constant or variable used by the credential engine.
	ErrCorruptCredential = errors.New("stored credential hash is corrupt")
	// ErrTokenInvalid is an exported constant or variable used by the credential engine.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is an exported constant or variable used by the credential engine.
	ErrTokenExpired = errors.New("token expired")
	// ErrRenewalRevoked is an exported constant or variable used by the credential engine.
	ErrRenewalRevoked = errors.New("renewal token revoked or unknown")
	// ErrTokenIssuanceFailed is an exported constant or variable used by the credential engine.
	ErrTokenIssuanceFailed = errors.New("token issuance failed")
	// ErrNotFound is an exported constant or variable used by the credential engine.
	// CredentialStore implementations return it for missing principals and clients.
	ErrNotFound = errors.New("record not found")
	// ErrPrincipalExists is an exported constant or variable used by the credential engine.
	ErrPrincipalExists = errors.New("username or email already registered")
	// ErrClientExists is an exported constant or variable used by the credential engine.
	ErrClientExists = errors.New("client id already registered")
	// ErrPlaintextSecretRejected is an exported constant or variable used by the credential engine.
	ErrPlaintextSecretRejected = errors.New("plaintext client secret storage rejected")
	// ErrEngineNotReady is an exported constant or variable used by the credential engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
