// Package sqlstore is the reference [credgate.CredentialStore]
// implementation over a relational database via sqlx. It owns the
// principals and machine_clients tables; the revocation ledger's table
// lives in the ledger package and may share the same database handle.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/credgate/credgate"
)

const schema = `
CREATE TABLE IF NOT EXISTS principals (
	id                 TEXT PRIMARY KEY,
	username           TEXT UNIQUE NOT NULL,
	email              TEXT UNIQUE NOT NULL,
	password_hash      TEXT NOT NULL,
	role               TEXT NOT NULL,
	active             INTEGER NOT NULL DEFAULT 1,
	created_at         INTEGER NOT NULL,
	last_authenticated INTEGER
);
CREATE TABLE IF NOT EXISTS machine_clients (
	id           TEXT PRIMARY KEY,
	principal_id TEXT NOT NULL,
	client_id    TEXT UNIQUE NOT NULL,
	secret_hash  TEXT NOT NULL,
	active       INTEGER NOT NULL DEFAULT 1,
	created_at   INTEGER NOT NULL,
	last_used    INTEGER
);
CREATE INDEX IF NOT EXISTS idx_machine_clients_principal
	ON machine_clients (principal_id);
`

type principalRow struct {
	ID                string        `db:"id"`
	Username          string        `db:"username"`
	Email             string        `db:"email"`
	PasswordHash      string        `db:"password_hash"`
	Role              string        `db:"role"`
	Active            bool          `db:"active"`
	CreatedAt         int64         `db:"created_at"`
	LastAuthenticated sql.NullInt64 `db:"last_authenticated"`
}

type clientRow struct {
	ID          string        `db:"id"`
	PrincipalID string        `db:"principal_id"`
	ClientID    string        `db:"client_id"`
	SecretHash  string        `db:"secret_hash"`
	Active      bool          `db:"active"`
	CreatedAt   int64         `db:"created_at"`
	LastUsed    sql.NullInt64 `db:"last_used"`
}

// Store defines a public type used by credgate APIs.
//
// Store instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Store struct {
	db *sqlx.DB
}

// New initializes the schema and returns the store.
func New(db *sqlx.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

/*
====================================
PRINCIPALS
====================================
*/

// CreatePrincipal inserts a new principal. An empty ID is assigned a fresh
// uuid. Username/email collisions return [credgate.ErrPrincipalExists].
func (s *Store) CreatePrincipal(ctx context.Context, p *credgate.Principal) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Role == "" {
		p.Role = credgate.RoleStandard
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	var n int
	probe := s.db.Rebind(`SELECT COUNT(*) FROM principals WHERE username = ? OR email = ?`)
	if err := s.db.GetContext(ctx, &n, probe, p.Username, p.Email); err != nil {
		return err
	}
	if n > 0 {
		return credgate.ErrPrincipalExists
	}

	query := s.db.Rebind(`
		INSERT INTO principals (id, username, email, password_hash, role, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.Username, p.Email, p.PasswordHash, string(p.Role), p.Active, p.CreatedAt.Unix())
	return err
}

// PrincipalByUsername implements [credgate.CredentialStore].
func (s *Store) PrincipalByUsername(ctx context.Context, username string) (*credgate.Principal, error) {
	return s.principalWhere(ctx, `username = ?`, username)
}

// PrincipalByEmail implements [credgate.CredentialStore].
func (s *Store) PrincipalByEmail(ctx context.Context, email string) (*credgate.Principal, error) {
	return s.principalWhere(ctx, `email = ?`, email)
}

// PrincipalByID implements [credgate.CredentialStore].
func (s *Store) PrincipalByID(ctx context.Context, id string) (*credgate.Principal, error) {
	return s.principalWhere(ctx, `id = ?`, id)
}

func (s *Store) principalWhere(ctx context.Context, where string, arg any) (*credgate.Principal, error) {
	var row principalRow
	query := s.db.Rebind(`
		SELECT id, username, email, password_hash, role, active, created_at, last_authenticated
		FROM principals WHERE ` + where)
	err := s.db.GetContext(ctx, &row, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, credgate.ErrNotFound
		}
		return nil, err
	}
	return row.toPrincipal(), nil
}

// UpdateLastAuthenticated implements [credgate.CredentialStore].
func (s *Store) UpdateLastAuthenticated(ctx context.Context, principalID string, at time.Time) error {
	query := s.db.Rebind(`UPDATE principals SET last_authenticated = ? WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, query, at.Unix(), principalID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetPrincipalActive flips the active flag; deactivation, never deletion.
func (s *Store) SetPrincipalActive(ctx context.Context, principalID string, active bool) error {
	query := s.db.Rebind(`UPDATE principals SET active = ? WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, query, active, principalID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

/*
====================================
MACHINE CLIENTS
====================================
*/

// CreateClient inserts a new machine client. Client-id collisions return
// [credgate.ErrClientExists] so the caller can regenerate and retry.
func (s *Store) CreateClient(ctx context.Context, c *credgate.MachineClient) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	var n int
	probe := s.db.Rebind(`SELECT COUNT(*) FROM machine_clients WHERE client_id = ?`)
	if err := s.db.GetContext(ctx, &n, probe, c.ClientID); err != nil {
		return err
	}
	if n > 0 {
		return credgate.ErrClientExists
	}

	query := s.db.Rebind(`
		INSERT INTO machine_clients (id, principal_id, client_id, secret_hash, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		c.ID, c.PrincipalID, c.ClientID, c.SecretHash, c.Active, c.CreatedAt.Unix())
	return err
}

// ClientByClientID implements [credgate.CredentialStore].
func (s *Store) ClientByClientID(ctx context.Context, clientID string) (*credgate.MachineClient, error) {
	var row clientRow
	query := s.db.Rebind(`
		SELECT id, principal_id, client_id, secret_hash, active, created_at, last_used
		FROM machine_clients WHERE client_id = ?`)
	err := s.db.GetContext(ctx, &row, query, clientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, credgate.ErrNotFound
		}
		return nil, err
	}
	return row.toClient(), nil
}

// UpdateClientLastUsed implements [credgate.CredentialStore].
func (s *Store) UpdateClientLastUsed(ctx context.Context, id string, at time.Time) error {
	query := s.db.Rebind(`UPDATE machine_clients SET last_used = ? WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, query, at.Unix(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// RegenerateClientSecret replaces the stored hash in one statement; the
// old hash is discarded atomically with the write.
func (s *Store) RegenerateClientSecret(ctx context.Context, id, newSecretHash string) error {
	query := s.db.Rebind(`UPDATE machine_clients SET secret_hash = ? WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, query, newSecretHash, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetClientActive flips the active flag.
func (s *Store) SetClientActive(ctx context.Context, id string, active bool) error {
	query := s.db.Rebind(`UPDATE machine_clients SET active = ? WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, query, active, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return credgate.ErrNotFound
	}
	return nil
}

func (r principalRow) toPrincipal() *credgate.Principal {
	p := &credgate.Principal{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Role:         credgate.Role(r.Role),
		Active:       r.Active,
		CreatedAt:    time.Unix(r.CreatedAt, 0),
	}
	if r.LastAuthenticated.Valid {
		p.LastAuthenticated = time.Unix(r.LastAuthenticated.Int64, 0)
	}
	return p
}

func (r clientRow) toClient() *credgate.MachineClient {
	c := &credgate.MachineClient{
		ID:          r.ID,
		PrincipalID: r.PrincipalID,
		ClientID:    r.ClientID,
		SecretHash:  r.SecretHash,
		Active:      r.Active,
		CreatedAt:   time.Unix(r.CreatedAt, 0),
	}
	if r.LastUsed.Valid {
		c.LastUsed = time.Unix(r.LastUsed.Int64, 0)
	}
	return c
}
