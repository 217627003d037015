package ledger

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// Timestamps are stored as unix seconds so expiry comparisons stay plain
// integer predicates regardless of driver time handling.
const sqlSchema = `
CREATE TABLE IF NOT EXISTS renewal_tokens (
	token_id     TEXT PRIMARY KEY,
	principal_id TEXT NOT NULL,
	expires_at   INTEGER NOT NULL,
	revoked      INTEGER NOT NULL DEFAULT 0,
	created_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_renewal_tokens_principal
	ON renewal_tokens (principal_id, revoked);
`

// SQL is a [Ledger] backed by a relational database through sqlx. The
// revoke compare-and-set is a conditional UPDATE checked via RowsAffected,
// which is atomic at read-committed isolation or better.
type SQL struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewSQL initializes the renewal_tokens schema and returns the ledger.
func NewSQL(db *sqlx.DB) (*SQL, error) {
	if _, err := db.Exec(sqlSchema); err != nil {
		return nil, err
	}
	return &SQL{db: db, now: time.Now}, nil
}

// Record inserts an active row. A primary-key violation is reported as
// [ErrDuplicateToken]; the existence probe keeps the check driver-agnostic.
func (l *SQL) Record(ctx context.Context, tokenID, principalID string, expiresAt time.Time) error {
	now := l.now()
	if !expiresAt.After(now) {
		return ErrPastExpiry
	}

	query := l.db.Rebind(`
		INSERT INTO renewal_tokens (token_id, principal_id, expires_at, revoked, created_at)
		VALUES (?, ?, ?, 0, ?)`)
	_, err := l.db.ExecContext(ctx, query, tokenID, principalID, expiresAt.Unix(), now.Unix())
	if err == nil {
		return nil
	}

	var n int
	probe := l.db.Rebind(`SELECT COUNT(*) FROM renewal_tokens WHERE token_id = ?`)
	if probeErr := l.db.GetContext(ctx, &n, probe, tokenID); probeErr == nil && n > 0 {
		return ErrDuplicateToken
	}
	return err
}

// IsActive reports row-exists AND not-revoked AND not-expired.
func (l *SQL) IsActive(ctx context.Context, tokenID string) (bool, error) {
	var n int
	query := l.db.Rebind(`
		SELECT COUNT(*) FROM renewal_tokens
		WHERE token_id = ? AND revoked = 0 AND expires_at > ?`)
	err := l.db.GetContext(ctx, &n, query, tokenID, l.now().Unix())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return n > 0, nil
}

// Revoke performs the compare-and-set: the WHERE clause only matches a row
// that is still active, so of two racing calls exactly one sees
// RowsAffected == 1.
func (l *SQL) Revoke(ctx context.Context, tokenID string) (bool, error) {
	query := l.db.Rebind(`
		UPDATE renewal_tokens SET revoked = 1
		WHERE token_id = ? AND revoked = 0 AND expires_at > ?`)
	res, err := l.db.ExecContext(ctx, query, tokenID, l.now().Unix())
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// RevokeAllForPrincipal bulk-flips every active row for the principal.
func (l *SQL) RevokeAllForPrincipal(ctx context.Context, principalID string) (int, error) {
	query := l.db.Rebind(`
		UPDATE renewal_tokens SET revoked = 1
		WHERE principal_id = ? AND revoked = 0 AND expires_at > ?`)
	res, err := l.db.ExecContext(ctx, query, principalID, l.now().Unix())
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}
