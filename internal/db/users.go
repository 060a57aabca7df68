package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// isUniqueViolation reports whether err comes from a UNIQUE constraint, either
// raw from go-sqlite3 or translated by gorm.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// AuthenticateUser checks username/password against users. A missing user is
// reported as ErrUserNotFound, a wrong password as ErrInvalidCredentials.
func AuthenticateUser(ctx context.Context, users UserStore, username, password string) (*User, error) {
	user, err := users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (s *SQLStore) CreateUser(ctx context.Context, username, password string) (*User, error) {
	var count int
	err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE username = ?", username).Scan(&count)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUserAlreadyExists
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	return s.insertUser(ctx, username, passwordHash)
}

// insertUser writes the row. A concurrent signup that slipped past the count
// check still ends up as ErrUserAlreadyExists.
func (s *SQLStore) insertUser(ctx context.Context, username, passwordHash string) (*User, error) {
	createdAt := time.Now().UTC()
	result, err := s.DB.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)",
		username, passwordHash, createdAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &User{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    createdAt,
	}, nil
}

func (s *SQLStore) GetUserByID(ctx context.Context, id int64) (*User, error) {
	return s.getUser(ctx, "SELECT id, username, password_hash, created_at FROM users WHERE id = ?", id)
}

func (s *SQLStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return s.getUser(ctx, "SELECT id, username, password_hash, created_at FROM users WHERE username = ?", username)
}

func (s *SQLStore) getUser(ctx context.Context, query string, arg any) (*User, error) {
	var user User
	err := s.DB.QueryRowContext(ctx, query, arg).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
