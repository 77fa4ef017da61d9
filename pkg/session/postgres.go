package session

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations holds the goose migrations that create the PostgresStore table.
// Apply them with db.Migrate.
var Migrations = func() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}()

// DBTX is the subset of *pgxpool.Pool, *pgx.Conn and pgx.Tx used by PostgresStore.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists sessions in a PostgreSQL table.
type PostgresStore struct {
	db DBTX
}

// NewPostgresStore creates a store on db. Apply Migrations first.
func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Create(ctx context.Context, s *Session) error {
	_, err := p.db.Exec(ctx,
		`INSERT INTO sessions (id, token, data, created_at, last_active_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.Token, string(s.document()), s.CreatedAt, s.LastActiveAt, s.ExpiresAt)
	return err
}

func (p *PostgresStore) Get(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	var (
		s    Session
		data []byte
	)
	err := p.db.QueryRow(ctx,
		`SELECT id, token, data, created_at, last_active_at, expires_at
		 FROM sessions WHERE token = $1`, token,
	).Scan(&s.ID, &s.Token, &data, &s.CreatedAt, &s.LastActiveAt, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.Data = data

	if s.IsExpired() {
		_ = p.Delete(ctx, s.ID)
		return nil, ErrExpired
	}
	return &s, nil
}

func (p *PostgresStore) Update(ctx context.Context, s *Session) error {
	tag, err := p.db.Exec(ctx,
		`UPDATE sessions SET token = $2, data = $3, last_active_at = $4, expires_at = $5
		 WHERE id = $1`,
		s.ID, s.Token, string(s.document()), s.LastActiveAt, s.ExpiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, id string) error {
	_, err := p.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

func (p *PostgresStore) Touch(ctx context.Context, id string, lastActiveAt time.Time) error {
	_, err := p.db.Exec(ctx, `UPDATE sessions SET last_active_at = $2 WHERE id = $1`, id, lastActiveAt)
	return err
}

// DeleteExpired removes expired sessions and returns how many were deleted.
func (p *PostgresStore) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := p.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ Store = (*PostgresStore)(nil)
