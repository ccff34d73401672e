package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/campusline/platform/shared/models"
	"github.com/lib/pq"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS users (
		id          CHAR(24) PRIMARY KEY,
		username    TEXT NOT NULL,
		email       TEXT NOT NULL,
		password    TEXT NOT NULL,
		role        TEXT NOT NULL DEFAULT 'student',
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL,
		CONSTRAINT users_email_unique UNIQUE (email),
		CONSTRAINT users_username_unique UNIQUE (username)
	)
`

const userColumns = `id, username, email, password, role, created_at, updated_at`

// PostgresUserStore is the relational alternative to MongoUserStore. Ids are
// still 24-hex object ids so both drivers share the same API contract.
type PostgresUserStore struct {
	db *sql.DB
}

func NewPostgresUserStore(ctx context.Context, databaseURL string) (*PostgresUserStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create users table: %w", err)
	}
	return &PostgresUserStore{db: db}, nil
}

func (r *PostgresUserStore) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, string(user.Role),
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if dup := pqDuplicateError(err); dup != nil {
			return dup
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *PostgresUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PostgresUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *PostgresUserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *PostgresUserStore) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *PostgresUserStore) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *PostgresUserStore) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET username = $2, email = $3, role = $4, password = $5, updated_at = $6
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Email, string(user.Role), user.PasswordHash, user.UpdatedAt,
	)
	if err != nil {
		if dup := pqDuplicateError(err); dup != nil {
			return dup
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *PostgresUserStore) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *PostgresUserStore) Close(context.Context) error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	var role string
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &role,
		&user.CreatedAt, &user.UpdatedAt); err != nil {
		return nil, err
	}
	user.Role = models.Role(role)
	return &user, nil
}

// pqDuplicateError returns nil unless err is a unique violation.
func pqDuplicateError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return duplicateError(pqErr.Constraint, err)
	}
	return nil
}
