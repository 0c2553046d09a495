package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"soundwave/model"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	CreateUser(user *model.User) error
	GetUserByID(id string) (*model.User, error)
	GetUserByEmail(email string) (*model.User, error)
	EmailExists(email string) (bool, error)
	UpdateLastLogin(id string) error
	ConfirmEmail(email, token string) (bool, error)
}

// mysqlUserRepository implements UserRepository for MySQL.
type mysqlUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new mysqlUserRepository.
func NewMySQLUserRepository(db *sql.DB) UserRepository {
	return &mysqlUserRepository{db: db}
}

const userColumns = "id, email, password_hash, first_name, last_name, avatar, birth_date, is_email_confirmed, email_confirmation_token, last_login_at, created_at"

// CreateUser adds a new user to the database. The unique index on email
// rejects duplicates regardless of any prior existence check.
func (r *mysqlUserRepository) CreateUser(user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now().UTC()

	query := "INSERT INTO users (id, email, password_hash, first_name, last_name, avatar, birth_date, email_confirmation_token, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare create user statement: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName,
		user.Avatar, user.BirthDate, user.EmailConfirmationToken, user.CreatedAt)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to execute create user statement: %w", err)
	}
	return nil
}

func (r *mysqlUserRepository) scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName,
		&user.Avatar, &user.BirthDate, &user.IsEmailConfirmed, &user.EmailConfirmationToken,
		&user.LastLoginAt, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to scan user row: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (r *mysqlUserRepository) GetUserByID(id string) (*model.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = ?"
	return r.scanUser(r.db.QueryRow(query, id))
}

// GetUserByEmail retrieves a user by their email address.
func (r *mysqlUserRepository) GetUserByEmail(email string) (*model.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE email = ?"
	return r.scanUser(r.db.QueryRow(query, email))
}

// EmailExists reports whether a user with the given email exists.
func (r *mysqlUserRepository) EmailExists(email string) (bool, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM users WHERE email = ?", email).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check email %s: %w", email, err)
	}
	return count > 0, nil
}

// UpdateLastLogin stamps the user's last login time.
func (r *mysqlUserRepository) UpdateLastLogin(id string) error {
	_, err := r.db.Exec("UPDATE users SET last_login_at = ? WHERE id = ?", time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update last login for user %s: %w", id, err)
	}
	return nil
}

// ConfirmEmail flips the confirmation flag when the email and token pair
// matches and clears the token, making it single-use. Returns false when
// no row matched.
func (r *mysqlUserRepository) ConfirmEmail(email, token string) (bool, error) {
	res, err := r.db.Exec(
		"UPDATE users SET is_email_confirmed = 1, email_confirmation_token = NULL WHERE email = ? AND email_confirmation_token = ?",
		email, token)
	if err != nil {
		return false, fmt.Errorf("failed to confirm email %s: %w", email, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}
