package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/iliyamo/notes-service/internal/model"
)

// mysqlDuplicateEntry is the MySQL error number for a unique key violation.
const mysqlDuplicateEntry = 1062

// UserRepo is the MySQL-backed UserStore.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user and returns it.  The email is expected to be
// normalized already; the unique index on users.email is the final word on
// duplicates, so concurrent registrations cannot both succeed.
func (r *UserRepo) Create(ctx context.Context, email, passwordHash string) (model.User, error) {
	const op = "repository.UserRepo.Create"
	u := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    timestamp(),
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (id, email, password_hash, created_at) VALUES (?,?,?,?)",
		u.ID, u.Email, u.PasswordHash, u.CreatedAt)
	if err != nil {
		if isDuplicate(err) {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	const op = "repository.UserRepo.GetByEmail"
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, email, password_hash, created_at FROM users WHERE email = ? LIMIT 1",
		email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func isDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}

// timestamp returns the current UTC time at DATETIME(6) precision so that
// values returned to callers match what a later SELECT reads back.
func timestamp() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
