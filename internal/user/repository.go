package user

import (
	"context"
	"database/sql"
	"errors"
)

var ErrNotFound = errors.New("user not found")

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Ensure creates the user on first sight and returns the stored row either
// way. Users are never mutated or deleted afterwards.
func (r *Repository) Ensure(ctx context.Context, nickname string) (*User, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (nickname) VALUES ($1) ON CONFLICT DO NOTHING`, nickname)
	if err != nil {
		return nil, err
	}
	return r.GetByNickname(ctx, nickname)
}

func (r *Repository) GetByNickname(ctx context.Context, nickname string) (*User, error) {
	u := &User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT nickname, created_at FROM users WHERE lower(nickname) = lower($1)`,
		nickname).Scan(&u.Nickname, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// Lookup resolves a nickname case-insensitively to its stored casing.
// Callers derive conversation keys from the returned value, never from the
// caller-supplied spelling.
func (r *Repository) Lookup(ctx context.Context, nickname string) (string, bool, error) {
	u, err := r.GetByNickname(ctx, nickname)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return u.Nickname, true, nil
}

func (r *Repository) Exists(ctx context.Context, nickname string) (bool, error) {
	var found bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE lower(nickname) = lower($1))`,
		nickname).Scan(&found)
	return found, err
}

// List returns the full roster ordered case-insensitively by nickname.
func (r *Repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT nickname, created_at FROM users ORDER BY lower(nickname) ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.Nickname, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
