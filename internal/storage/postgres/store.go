// Package postgres persists bot user profiles.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mckalmarchik/sabbe/internal/bot"
)

// Store provides Postgres persistence for profiles.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Get returns the profile with the given user id.
func (s *Store) Get(ctx context.Context, id int64) (bot.Profile, bool, error) {
	var p bot.Profile
	row := s.pool.QueryRow(ctx, `
		SELECT user_id, username, access, banned FROM profiles WHERE user_id=$1
	`, id)
	if err := row.Scan(&p.ID, &p.Username, &p.Access, &p.Banned); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return bot.Profile{}, false, nil
		}
		return bot.Profile{}, false, err
	}
	return p, true, nil
}

// Create inserts a new profile. Re-registering an existing user keeps the
// stored access and ban flags.
func (s *Store) Create(ctx context.Context, p bot.Profile) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO profiles (user_id, username, access, banned, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (user_id) DO UPDATE
		SET username = EXCLUDED.username, updated_at = now()
	`, p.ID, p.Username, p.Access, p.Banned)
	return err
}

// SetAccess updates the access level of an existing profile.
func (s *Store) SetAccess(ctx context.Context, id int64, access int) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE profiles SET access=$2, updated_at=now() WHERE user_id=$1
	`, id, access)
	return err
}

// SetBan updates the ban flag of an existing profile.
func (s *Store) SetBan(ctx context.Context, id int64, banned bool) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE profiles SET banned=$2, updated_at=now() WHERE user_id=$1
	`, id, banned)
	return err
}

// IDByUsername resolves a username to a user id.
func (s *Store) IDByUsername(ctx context.Context, username string) (int64, bool, error) {
	if username == "" {
		return 0, false, fmt.Errorf("username required")
	}
	var id int64
	row := s.pool.QueryRow(ctx, `SELECT user_id FROM profiles WHERE username=$1`, username)
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return id, true, nil
}
