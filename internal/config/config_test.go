package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitConfigDefaults(t *testing.T) {
	for _, key := range []string{"SERVER_PORT", "DB_DRIVER", "JWT_SECRET", "JWT_EXPIRATION_MINUTES", "API_PREFIX", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	InitConfig(filepath.Join(t.TempDir(), "missing.env"))

	if AppConfig.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", AppConfig.ServerPort)
	}
	if AppConfig.DBDriver != "sqlite" {
		t.Errorf("DBDriver = %q, want sqlite", AppConfig.DBDriver)
	}
	if AppConfig.JWTSecret != defaultJWTSecret {
		t.Errorf("JWTSecret = %q, want development default", AppConfig.JWTSecret)
	}
	if AppConfig.JWTExpirationMinutes != 60 {
		t.Errorf("JWTExpirationMinutes = %d, want 60", AppConfig.JWTExpirationMinutes)
	}
	if len(AppConfig.CORSAllowedOrigins) != 1 || AppConfig.CORSAllowedOrigins[0] != "*" {
		t.Errorf("CORSAllowedOrigins = %v, want [*]", AppConfig.CORSAllowedOrigins)
	}
}

func TestInitConfigFromEnvFile(t *testing.T) {
	for _, key := range []string{"SERVER_PORT", "JWT_SECRET", "JWT_EXPIRATION_MINUTES", "API_PREFIX", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	path := filepath.Join(t.TempDir(), ".env")
	content := "SERVER_PORT=9090\nJWT_SECRET=s3cret\nJWT_EXPIRATION_MINUTES=15\nAPI_PREFIX=/api/\nCORS_ALLOWED_ORIGINS=http://a.test, http://b.test\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	// godotenv never overrides variables that are already set, so clear them first.
	for _, key := range []string{"SERVER_PORT", "JWT_SECRET", "JWT_EXPIRATION_MINUTES", "API_PREFIX", "CORS_ALLOWED_ORIGINS"} {
		os.Unsetenv(key)
	}

	InitConfig(path)

	if AppConfig.ServerPort != "9090" {
		t.Errorf("ServerPort = %q, want 9090", AppConfig.ServerPort)
	}
	if AppConfig.JWTSecret != "s3cret" {
		t.Errorf("JWTSecret = %q, want s3cret", AppConfig.JWTSecret)
	}
	if AppConfig.JWTExpirationMinutes != 15 {
		t.Errorf("JWTExpirationMinutes = %d, want 15", AppConfig.JWTExpirationMinutes)
	}
	if AppConfig.APIPrefix != "/api" {
		t.Errorf("APIPrefix = %q, want /api", AppConfig.APIPrefix)
	}
	if len(AppConfig.CORSAllowedOrigins) != 2 || AppConfig.CORSAllowedOrigins[1] != "http://b.test" {
		t.Errorf("CORSAllowedOrigins = %v", AppConfig.CORSAllowedOrigins)
	}
}
