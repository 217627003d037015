package credgate

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/credgate/credgate/ledger"
	"github.com/credgate/credgate/password"
	"github.com/credgate/credgate/token"
)

// Engine defines a public type used by credgate APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config    Config
	store     CredentialStore
	ledger    ledger.Ledger
	tokens    *token.Manager
	passwords *password.Hasher
	audit     *auditDispatcher
	metrics   *Metrics
}

// Close flushes and stops the audit dispatcher. Safe on a nil engine.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// dispatch buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all engine metrics.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Authenticate verifies a username/password pair against the credential
// store. Unknown username, wrong password, and inactive account all fail
// with [ErrInvalidCredentials] — same error value, same message, and a
// real bcrypt comparison on every path so timing does not reveal account
// existence. The last-authenticated timestamp is updated only after every
// check has passed.
func (e *Engine) Authenticate(ctx context.Context, username, pass string) (*Principal, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	p, err := e.store.PrincipalByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			e.passwords.VerifyDummy(pass)
			e.authFailed(ctx, username, "", "unknown username")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := e.passwords.Verify(pass, p.PasswordHash)
	if err != nil {
		// Stored hash unparsable: fatal for this principal's login, never
		// a process crash, and never a hint to the caller about which
		// account it was.
		e.authFailed(ctx, username, p.ID, "corrupt stored hash")
		return nil, ErrCorruptCredential
	}
	if !ok {
		e.authFailed(ctx, username, p.ID, "wrong password")
		return nil, ErrInvalidCredentials
	}
	if !p.Active {
		e.authFailed(ctx, username, p.ID, "inactive account")
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	if err := e.store.UpdateLastAuthenticated(ctx, p.ID, now); err != nil {
		log.Printf("credgate: last-authenticated update failed for principal %s", p.ID)
	} else {
		p.LastAuthenticated = now
	}

	e.metricInc(MetricAuthenticateSuccess)
	e.emitAudit(ctx, AuditEvent{
		EventType:   AuditAuthenticateSuccess,
		PrincipalID: p.ID,
		Success:     true,
	})

	return p, nil
}

// Login authenticates and, on success, issues a fresh access/renewal token
// pair for the principal.
func (e *Engine) Login(ctx context.Context, username, pass string) (TokenPair, *Principal, error) {
	p, err := e.Authenticate(ctx, username, pass)
	if err != nil {
		return TokenPair{}, nil, err
	}

	access, err := e.IssueAccessToken(p)
	if err != nil {
		return TokenPair{}, nil, err
	}
	renewal, err := e.IssueRenewalToken(ctx, p)
	if err != nil {
		return TokenPair{}, nil, err
	}

	return TokenPair{AccessToken: access, RenewalToken: renewal}, p, nil
}

func (e *Engine) authFailed(ctx context.Context, username, principalID, reason string) {
	e.metricInc(MetricAuthenticateFailure)
	e.emitAudit(ctx, AuditEvent{
		EventType:   AuditAuthenticateFailure,
		PrincipalID: principalID,
		Success:     false,
		Error:       reason,
		Metadata:    map[string]string{"username": username},
	})
}
