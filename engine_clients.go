package credgate

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/credgate/credgate/internal"
	"github.com/credgate/credgate/password"
)

// GenerateClientCredentials produces fresh machine-client material from a
// cryptographically secure generator: an alphanumeric client id (URL-safe)
// and a wider-charset secret. The plaintext secret is returned exactly
// once; callers persist SecretHash only.
func (e *Engine) GenerateClientCredentials() (ClientCredentials, error) {
	if e == nil {
		return ClientCredentials{}, ErrEngineNotReady
	}

	clientID, err := internal.NewClientID(e.config.Client.IDLength)
	if err != nil {
		return ClientCredentials{}, err
	}
	secret, err := internal.NewClientSecret(e.config.Client.SecretLength)
	if err != nil {
		return ClientCredentials{}, err
	}

	return ClientCredentials{
		ClientID:   clientID,
		Secret:     secret,
		SecretHash: password.HashClientSecret(secret),
	}, nil
}

// AuthenticateClient verifies a machine client's id/secret pair. The
// stored value is resolved into its hashed-or-plaintext variant when the
// record is loaded and compared in constant time; unknown client ids,
// wrong secrets, and inactive clients all fail with
// [ErrInvalidCredentials]. The plaintext arm is a compatibility shim for
// rows that predate hashing: it works, but emits a deprecation audit
// event and warning so operators rotate those secrets.
func (e *Engine) AuthenticateClient(ctx context.Context, clientID, secret string) (*MachineClient, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	c, err := e.store.ClientByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Burn a comparison against an empty variant so misses and
			// mismatches cost the same.
			password.StoredClientSecret{}.Matches(secret)
			e.clientAuthFailed(ctx, clientID, "unknown client id")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	stored := password.ParseStoredClientSecret(c.SecretHash)
	if stored.Present() && !stored.Hashed() {
		if !e.config.Client.AllowPlaintextSecrets {
			e.clientAuthFailed(ctx, clientID, "plaintext stored secret rejected")
			return nil, ErrPlaintextSecretRejected
		}
		e.metricInc(MetricClientSecretPlaintext)
		e.emitAudit(ctx, AuditEvent{
			EventType:   AuditClientSecretPlaintext,
			PrincipalID: c.PrincipalID,
			ClientID:    clientID,
			Success:     true,
			Error:       "stored secret is not hashed; rotate this client",
		})
		log.Printf("credgate: client %s uses a deprecated plaintext stored secret", clientID)
	}

	if !stored.Matches(secret) {
		e.clientAuthFailed(ctx, clientID, "wrong secret")
		return nil, ErrInvalidCredentials
	}
	if !c.Active {
		e.clientAuthFailed(ctx, clientID, "inactive client")
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	if err := e.store.UpdateClientLastUsed(ctx, c.ID, now); err != nil {
		log.Printf("credgate: last-used update failed for client %s", clientID)
	} else {
		c.LastUsed = now
	}

	e.metricInc(MetricClientAuthSuccess)
	e.emitAudit(ctx, AuditEvent{
		EventType:   AuditClientAuthSuccess,
		PrincipalID: c.PrincipalID,
		ClientID:    clientID,
		Success:     true,
	})

	return c, nil
}

func (e *Engine) clientAuthFailed(ctx context.Context, clientID, reason string) {
	e.metricInc(MetricClientAuthFailure)
	e.emitAudit(ctx, AuditEvent{
		EventType: AuditClientAuthFailure,
		ClientID:  clientID,
		Success:   false,
		Error:     reason,
	})
}
