package db

import (
	"testing"
)

// InitTest opens a fresh in-memory SQLite store that is closed when t finishes.
func InitTest(t testing.TB) *SQLStore {
	t.Helper()

	store, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

// CreateTestUser registers username with a fixed password and fails t on error.
func CreateTestUser(t testing.TB, users UserStore, username string) *User {
	t.Helper()

	user, err := users.CreateUser(t.Context(), username, "password123")
	if err != nil {
		t.Fatalf("Failed to create user %q: %v", username, err)
	}
	return user
}
