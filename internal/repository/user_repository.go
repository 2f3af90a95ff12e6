package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/attendance-api/internal/models"
)

const userColumns = `id, email, password_hash, is_admin, created_at`

// UserRepository provides database access for accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE email = ? LIMIT 1`)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ? LIMIT 1`)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// CreateFirstAdmin inserts user and grants admin only when the users table is
// empty. The check and insert are one statement. The stored id, admin flag and
// creation time are written back into user.
func (r *UserRepository) CreateFirstAdmin(ctx context.Context, user *models.User) error {
	query := r.db.Rebind(`INSERT INTO users (email, password_hash, is_admin)
		SELECT ?, ?, NOT EXISTS (SELECT 1 FROM users)
		RETURNING id, is_admin, created_at`)
	row := r.db.QueryRowxContext(ctx, query, user.Email, user.PasswordHash)
	if err := row.Scan(&user.ID, &user.IsAdmin, timestampDest{&user.CreatedAt}); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Create inserts user with its admin flag as given.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	query := r.db.Rebind(`INSERT INTO users (email, password_hash, is_admin, created_at) VALUES (?, ?, ?, ?) RETURNING id`)
	if err := r.db.QueryRowxContext(ctx, query, user.Email, user.PasswordHash, user.IsAdmin, user.CreatedAt).Scan(&user.ID); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// SetAdmin updates the admin flag. It returns sql.ErrNoRows for unknown ids.
func (r *UserRepository) SetAdmin(ctx context.Context, id int64, isAdmin bool) error {
	query := r.db.Rebind(`UPDATE users SET is_admin = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, isAdmin, id)
	if err != nil {
		return fmt.Errorf("update user admin flag: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user admin flag: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	query := r.db.Rebind(`UPDATE users SET password_hash = ? WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, passwordHash, id); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// sqliteTimestampLayouts are the text forms SQLite hands back for DATETIME
// values when the driver cannot see the declared column type, as with
// RETURNING.
var sqliteTimestampLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
}

// timestampDest scans a timestamp column delivered either as time.Time or as text.
type timestampDest struct{ t *time.Time }

func (d timestampDest) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case time.Time:
		*d.t = v.UTC()
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
	for _, layout := range sqliteTimestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			*d.t = ts.UTC()
			return nil
		}
	}
	return fmt.Errorf("parse timestamp %q", raw)
}
