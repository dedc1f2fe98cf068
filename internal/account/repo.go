package account

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when no teacher matches the lookup.
var ErrNotFound = errors.New("account not found")

// ErrUsernameTaken is returned when an insert hits the username uniqueness constraint.
var ErrUsernameTaken = errors.New("username already taken")

// User is a teacher account that can access the dashboard.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Repository persists teacher accounts in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetByUsername returns the account with the exact username.
func (r *Repository) GetByUsername(ctx context.Context, username string) (User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, created_at
		FROM teachers WHERE username = $1
	`, username)
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

// Create inserts a new account.
func (r *Repository) Create(ctx context.Context, username, passwordHash string) (User, error) {
	u := User{ID: uuid.NewString(), Username: username, PasswordHash: passwordHash}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO teachers (id, username, password_hash)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, u.ID, u.Username, u.PasswordHash)
	if err := row.Scan(&u.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, ErrUsernameTaken
		}
		return User{}, err
	}
	return u, nil
}

// Count returns the number of accounts.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM teachers`).Scan(&n)
	return n, err
}

// CreateIfEmpty inserts an account only when the table has no rows yet.
// The guard runs inside the insert statement, so concurrent boots cannot
// both seed an account.
func (r *Repository) CreateIfEmpty(ctx context.Context, username, passwordHash string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO teachers (id, username, password_hash)
		SELECT $1, $2, $3
		WHERE NOT EXISTS (SELECT 1 FROM teachers)
	`, uuid.NewString(), username, passwordHash)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return false, nil
		}
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdatePassword replaces the stored hash for a user.
func (r *Repository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE teachers SET password_hash = $2 WHERE id = $1
	`, userID, passwordHash)
	return err
}
