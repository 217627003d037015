package credgate

import (
	"context"
	"io"
	"time"

	internalaudit "github.com/credgate/credgate/internal/audit"
)

// Role is the coarse authorization level carried on a [Principal].
type Role string

const (
	// RoleAdministrator is an exported constant or variable used by the credential engine.
	RoleAdministrator Role = "administrator"
	// RoleStandard is an exported constant or variable used by the credential engine.
	RoleStandard Role = "standard"
)

// Principal is a human account record returned by [CredentialStore].
// It carries the password hash, role, and active flag the engine checks
// during authentication. Principals are never hard-deleted here;
// deactivation is a flag flip.
type Principal struct {
	ID                string
	Username          string
	Email             string
	PasswordHash      string
	Role              Role
	Active            bool
	LastAuthenticated time.Time
	CreatedAt         time.Time
}

// MachineClient is a non-human caller record. SecretHash holds either a
// 64-char lowercase-hex SHA-256 digest or, for legacy rows, the plaintext
// secret (see [Engine.AuthenticateClient] for the compatibility shim).
type MachineClient struct {
	ID          string
	PrincipalID string
	ClientID    string
	SecretHash  string
	Active      bool
	LastUsed    time.Time
	CreatedAt   time.Time
}

// TokenPair is returned by [Engine.Login] and [Engine.Rotate].
type TokenPair struct {
	AccessToken  string
	RenewalToken string
}

// ClientCredentials holds freshly generated machine-client material. The
// plaintext Secret is shown to the caller exactly once; only SecretHash is
// meant to be persisted.
type ClientCredentials struct {
	ClientID   string
	Secret     string
	SecretHash string
}

// CredentialStore is the persistence surface the engine requires for
// principals and machine clients. Implementations return [ErrNotFound]
// (possibly wrapped) for missing records; the engine never distinguishes
// that from bad credentials in caller-visible errors.
//
// The store's transaction and isolation guarantees are the caller's
// concern; the engine performs no cross-call buffering.
type CredentialStore interface {
	PrincipalByUsername(ctx context.Context, username string) (*Principal, error)
	PrincipalByEmail(ctx context.Context, email string) (*Principal, error)
	PrincipalByID(ctx context.Context, id string) (*Principal, error)
	UpdateLastAuthenticated(ctx context.Context, principalID string, at time.Time) error
	ClientByClientID(ctx context.Context, clientID string) (*MachineClient, error)
	UpdateClientLastUsed(ctx context.Context, id string, at time.Time) error
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
