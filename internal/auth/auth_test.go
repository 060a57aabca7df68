package auth_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"chain-calculator/internal/auth"
	"chain-calculator/internal/config"
	"chain-calculator/internal/db"
)

func setupTest(t *testing.T) *db.SQLStore {
	t.Helper()
	config.AppConfig = &config.Config{
		JWTSecret:            "test-secret-key",
		JWTExpirationMinutes: 60,
	}
	return db.InitTest(t)
}

func signClaims(t *testing.T, claims *auth.Claims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return tokenString
}

func expiredClaims(user *db.User) *auth.Claims {
	return &auth.Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
}

func TestGenerateToken(t *testing.T) {
	store := setupTest(t)
	user := db.CreateTestUser(t, store, "testuser")

	token, err := auth.GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if token == "" {
		t.Fatal("GenerateToken() returned empty token")
	}

	claims, err := auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("token carries user ID %d, want %d", claims.UserID, user.ID)
	}
	if claims.Username != user.Username {
		t.Errorf("token carries username %q, want %q", claims.Username, user.Username)
	}

	lifetime := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if lifetime != 60*time.Minute {
		t.Errorf("token lifetime = %v, want 1h", lifetime)
	}
}

func TestValidateToken(t *testing.T) {
	store := setupTest(t)
	user := db.CreateTestUser(t, store, "testuser")

	tests := []struct {
		name        string
		tokenFunc   func() string
		expectedErr error
	}{
		{
			name: "Valid token",
			tokenFunc: func() string {
				token, _ := auth.GenerateToken(user)
				return token
			},
		},
		{
			name: "Expired token",
			tokenFunc: func() string {
				return signClaims(t, expiredClaims(user), config.AppConfig.JWTSecret)
			},
			expectedErr: auth.ErrExpiredToken,
		},
		{
			name: "Wrong signature",
			tokenFunc: func() string {
				token, _ := auth.GenerateToken(user)
				config.AppConfig.JWTSecret = "rotated"
				defer func() { config.AppConfig.JWTSecret = "test-secret-key" }()
				forged, _ := auth.GenerateToken(user)
				if forged == token {
					t.Fatal("expected different signatures")
				}
				return forged
			},
			expectedErr: auth.ErrInvalidToken,
		},
		{
			name: "Missing user id",
			tokenFunc: func() string {
				return signClaims(t, &auth.Claims{
					Username: "ghost",
					RegisteredClaims: jwt.RegisteredClaims{
						ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
					},
				}, config.AppConfig.JWTSecret)
			},
			expectedErr: auth.ErrInvalidToken,
		},
		{
			name:        "Malformed token",
			tokenFunc:   func() string { return "malformed.token.string" },
			expectedErr: auth.ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := auth.ValidateToken(tt.tokenFunc())

			if tt.expectedErr != nil {
				if !errors.Is(err, tt.expectedErr) {
					t.Errorf("ValidateToken() error = %v, want %v", err, tt.expectedErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("ValidateToken() unexpected error = %v", err)
			}
			if claims.UserID != user.ID {
				t.Errorf("claims.UserID = %d, want %d", claims.UserID, user.ID)
			}
		})
	}
}

func TestExtractTokenFromHeader(t *testing.T) {
	tests := []struct {
		name            string
		authHeaderValue string
		wantToken       string
		expectedErr     error
	}{
		{"Valid Bearer token", "Bearer valid-token-123", "valid-token-123", nil},
		{"Lowercase scheme", "bearer valid-token-123", "valid-token-123", nil},
		{"Missing header", "", "", auth.ErrMissingAuthHeader},
		{"No scheme", "token-123", "", auth.ErrInvalidAuthHeader},
		{"No space", "Bearertoken-123", "", auth.ErrInvalidAuthHeader},
		{"Wrong scheme", "Basic token-123", "", auth.ErrInvalidAuthHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeaderValue != "" {
				req.Header.Set("Authorization", tt.authHeaderValue)
			}

			token, err := auth.ExtractTokenFromHeader(req)

			if tt.expectedErr != nil {
				if !errors.Is(err, tt.expectedErr) {
					t.Errorf("ExtractTokenFromHeader() error = %v, want %v", err, tt.expectedErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractTokenFromHeader() unexpected error = %v", err)
			}
			if token != tt.wantToken {
				t.Errorf("ExtractTokenFromHeader() = %q, want %q", token, tt.wantToken)
			}
		})
	}
}

func TestGetUserFromToken(t *testing.T) {
	store := setupTest(t)
	user := db.CreateTestUser(t, store, "testuser")

	valid, _ := auth.GenerateToken(user)
	unknown := signClaims(t, &auth.Claims{
		UserID:   999999,
		Username: "nonexistent",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}, config.AppConfig.JWTSecret)

	tests := []struct {
		name        string
		token       string
		expectedErr error
	}{
		{"Valid token", valid, nil},
		{"Invalid token", "invalid.token.string", auth.ErrInvalidToken},
		{"Expired token", signClaims(t, expiredClaims(user), config.AppConfig.JWTSecret), auth.ErrExpiredToken},
		{"Unknown user", unknown, auth.ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetched, err := auth.GetUserFromToken(context.Background(), store, tt.token)

			if tt.expectedErr != nil {
				if !errors.Is(err, tt.expectedErr) {
					t.Errorf("GetUserFromToken() error = %v, want %v", err, tt.expectedErr)
				}
				if !auth.IsAuthError(err) {
					t.Errorf("IsAuthError(%v) = false", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("GetUserFromToken() unexpected error = %v", err)
			}
			if fetched.ID != user.ID {
				t.Errorf("GetUserFromToken() user ID = %d, want %d", fetched.ID, user.ID)
			}
		})
	}
}
