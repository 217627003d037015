package credgate

import (
	"context"
	"errors"
	"time"

	"github.com/credgate/credgate/internal"
	"github.com/credgate/credgate/ledger"
	"github.com/credgate/credgate/token"
)

// issueAttempts bounds jti-collision retries. A uuid collision should
// never happen; repeated ledger duplicates mean something is badly wrong
// and [ErrTokenIssuanceFailed] is surfaced instead of looping.
const issueAttempts = 3

// IssueAccessToken encodes a signed access token for the principal.
// Access tokens are stateless: validity is signature plus expiry, they are
// never recorded in the ledger and so cannot be individually revoked
// before natural expiry. The short configured lifetime bounds exposure.
func (e *Engine) IssueAccessToken(p *Principal) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}

	signed, _, err := e.tokens.Issue(p.Username, p.ID, token.KindAccess, "", e.config.Token.AccessTTL)
	if err != nil {
		return "", err
	}
	e.metricInc(MetricAccessIssued)
	return signed, nil
}

// IssueRenewalToken encodes a signed renewal token with a fresh jti and
// records it in the revocation ledger. On a jti collision it retries with
// a new id up to issueAttempts times before giving up.
func (e *Engine) IssueRenewalToken(ctx context.Context, p *Principal) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}

	for attempt := 0; attempt < issueAttempts; attempt++ {
		jti := internal.NewTokenID()
		signed, expiresAt, err := e.tokens.Issue(p.Username, p.ID, token.KindRenewal, jti, e.config.Token.RenewalTTL)
		if err != nil {
			return "", err
		}

		err = e.ledger.Record(ctx, jti, p.ID, expiresAt)
		switch {
		case err == nil:
			e.metricInc(MetricRenewalIssued)
			e.emitAudit(ctx, AuditEvent{
				EventType:   AuditRenewalIssued,
				PrincipalID: p.ID,
				TokenID:     jti,
				Success:     true,
			})
			return signed, nil
		case errors.Is(err, ledger.ErrDuplicateToken):
			e.metricInc(MetricIssueRetry)
			continue
		default:
			return "", err
		}
	}

	e.metricInc(MetricIssueFailed)
	return "", ErrTokenIssuanceFailed
}

// VerifyAccess validates an access token: signature, algorithm, expiry,
// and kind. It never consults the ledger or the credential store.
func (e *Engine) VerifyAccess(tokenStr string) (*token.Claims, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	start := time.Now()
	claims, err := e.tokens.Parse(tokenStr)
	if err != nil {
		e.metricInc(MetricVerifyFailure)
		if errors.Is(err, token.ErrExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if claims.Kind != token.KindAccess {
		e.metricInc(MetricVerifyFailure)
		return nil, ErrTokenInvalid
	}

	e.metricInc(MetricVerifySuccess)
	if e.metrics != nil {
		e.metrics.Observe(MetricVerifyLatency, time.Since(start))
	}
	return claims, nil
}

// Rotate exchanges a valid renewal token for a fresh access/renewal pair
// and consumes the presented token. The ledger compare-and-set revoke is
// the race gate: when two rotations of the same token run concurrently,
// exactly one observes the flip and issues a pair; the loser gets
// [ErrRenewalRevoked] with no retry.
func (e *Engine) Rotate(ctx context.Context, renewalToken string) (TokenPair, error) {
	if e == nil {
		return TokenPair{}, ErrEngineNotReady
	}

	claims, err := e.tokens.Parse(renewalToken)
	if err != nil {
		e.rotateRejected(ctx, "", "", "decode failed")
		if errors.Is(err, token.ErrExpired) {
			return TokenPair{}, ErrTokenExpired
		}
		return TokenPair{}, ErrTokenInvalid
	}
	if claims.Kind != token.KindRenewal || claims.ID == "" {
		e.rotateRejected(ctx, claims.UserID, claims.ID, "wrong token kind")
		return TokenPair{}, ErrTokenInvalid
	}

	active, err := e.ledger.IsActive(ctx, claims.ID)
	if err != nil {
		return TokenPair{}, err
	}
	if !active {
		e.metricInc(MetricRotateReuse)
		e.emitAudit(ctx, AuditEvent{
			EventType:   AuditRotateReuse,
			PrincipalID: claims.UserID,
			TokenID:     claims.ID,
			Success:     false,
			Error:       "ledger row revoked, expired, or unknown",
		})
		return TokenPair{}, ErrRenewalRevoked
	}

	p, err := e.store.PrincipalByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			e.rotateRejected(ctx, claims.UserID, claims.ID, "principal not found")
			return TokenPair{}, ErrRenewalRevoked
		}
		return TokenPair{}, err
	}
	if !p.Active {
		e.rotateRejected(ctx, p.ID, claims.ID, "inactive principal")
		return TokenPair{}, ErrRenewalRevoked
	}

	flipped, err := e.ledger.Revoke(ctx, claims.ID)
	if err != nil {
		return TokenPair{}, err
	}
	if !flipped {
		// Lost the race to a concurrent rotation. Hard rejection, never a
		// retry: the winner already holds the replacement pair.
		e.metricInc(MetricRotateReuse)
		e.emitAudit(ctx, AuditEvent{
			EventType:   AuditRotateReuse,
			PrincipalID: p.ID,
			TokenID:     claims.ID,
			Success:     false,
			Error:       "concurrent rotation",
		})
		return TokenPair{}, ErrRenewalRevoked
	}

	access, err := e.IssueAccessToken(p)
	if err != nil {
		return TokenPair{}, err
	}
	renewal, err := e.IssueRenewalToken(ctx, p)
	if err != nil {
		return TokenPair{}, err
	}

	e.metricInc(MetricRotateSuccess)
	e.emitAudit(ctx, AuditEvent{
		EventType:   AuditRotateSuccess,
		PrincipalID: p.ID,
		TokenID:     claims.ID,
		Success:     true,
	})

	return TokenPair{AccessToken: access, RenewalToken: renewal}, nil
}

// RevokeSessions revokes every outstanding renewal token for the
// principal ("logout everywhere") and returns the number revoked.
// Already-issued access tokens stay valid until their own expiry.
func (e *Engine) RevokeSessions(ctx context.Context, principalID string) (int, error) {
	if e == nil {
		return 0, ErrEngineNotReady
	}

	count, err := e.ledger.RevokeAllForPrincipal(ctx, principalID)
	if err != nil {
		return count, err
	}

	e.metricInc(MetricSessionsRevoked)
	e.emitAudit(ctx, AuditEvent{
		EventType:   AuditSessionsRevoked,
		PrincipalID: principalID,
		Success:     true,
		Metadata:    map[string]string{"revoked": itoa(count)},
	})
	return count, nil
}

func (e *Engine) rotateRejected(ctx context.Context, principalID, tokenID, reason string) {
	e.metricInc(MetricRotateFailure)
	e.emitAudit(ctx, AuditEvent{
		EventType:   AuditRotateRejected,
		PrincipalID: principalID,
		TokenID:     tokenID,
		Success:     false,
		Error:       reason,
	})
}
