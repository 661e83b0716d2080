package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"
)

const lookupUserQuery = `SELECT id, password_hash, password_changed_at, account_status, is_admin
FROM users
WHERE id = $1`

// Postgres reads user snapshots from a PostgreSQL users table.
type Postgres struct {
	db *sql.DB
}

// NewPostgres returns a directory backed by db. The caller owns db and its
// lifecycle; open it with the "postgres" driver registered by lib/pq.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// LookupUser returns the current snapshot of userID.
//
//	Performance: 1 indexed SELECT.
func (p *Postgres) LookupUser(ctx context.Context, userID string) (*Snapshot, error) {
	if p == nil || p.db == nil {
		return nil, fmt.Errorf("%w: no database handle", ErrUnavailable)
	}

	var (
		snap      Snapshot
		hash      sql.NullString
		changedAt sql.NullTime
		status    string
	)
	err := p.db.QueryRowContext(ctx, lookupUserQuery, userID).Scan(
		&snap.UserID,
		&hash,
		&changedAt,
		&status,
		&snap.Admin,
	)
	if err != nil {
		return nil, mapPostgresError(err)
	}

	snap.CredentialHash = hash.String
	if changedAt.Valid {
		snap.CredentialChangedAt = changedAt.Time
	}
	snap.Status = ParseStatus(status)

	return &snap, nil
}

// Ping checks database connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

func mapPostgresError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		code := string(pqErr.Code)
		switch {
		case code == pgerrcode.InvalidTextRepresentation:
			// A malformed identifier (e.g. not a uuid) cannot name a user.
			return ErrNotFound
		case code == pgerrcode.QueryCanceled, pgerrcode.IsConnectionException(code):
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
	}

	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
