package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "dev-secret-change-me"

// Config holds settings read from the environment.
type Config struct {
	ServerLogFilePath    string
	ClientLogFilePath    string
	LogLevel             string
	ServerPort           string
	APIPrefix            string
	DBDriver             string
	DBPath               string
	DatabaseURL          string
	JWTSecret            string
	JWTExpirationMinutes int
	CORSAllowedOrigins   []string
	ServerURL            string
	GRPCAddress          string
	SessionFilePath      string
}

var AppConfig *Config

// InitConfig loads the .env file at configPath (if present) and fills AppConfig
// from the environment.
func InitConfig(configPath string) {
	AppConfig = &Config{}

	if _, err := os.Stat(configPath); err == nil {
		if err := godotenv.Load(configPath); err != nil {
			log.Fatalf("Error loading %s: %v", configPath, err)
		}
	} else {
		log.Printf("%s not found, using environment only", configPath)
	}

	AppConfig.ServerLogFilePath = os.Getenv("SERVER_LOG_FILE_PATH")
	AppConfig.ClientLogFilePath = os.Getenv("CLIENT_LOG_FILE_PATH")
	AppConfig.LogLevel = getOrDefault("LOG_LEVEL", "info")
	AppConfig.ServerPort = getOrDefault("SERVER_PORT", "8080")
	AppConfig.APIPrefix = strings.TrimSuffix(os.Getenv("API_PREFIX"), "/")

	AppConfig.DBDriver = strings.ToLower(getOrDefault("DB_DRIVER", "sqlite"))
	AppConfig.DBPath = getOrDefault("DB_PATH", filepath.Join("data", "chain.db"))
	AppConfig.DatabaseURL = os.Getenv("DATABASE_URL")
	if AppConfig.DBDriver == "postgres" && AppConfig.DatabaseURL == "" {
		log.Fatal("DB_DRIVER=postgres requires DATABASE_URL")
	}

	if os.Getenv("JWT_SECRET") != "" {
		AppConfig.JWTSecret = os.Getenv("JWT_SECRET")
	} else {
		log.Println("JWT_SECRET not set. Using development secret")
		AppConfig.JWTSecret = defaultJWTSecret
	}

	if os.Getenv("JWT_EXPIRATION_MINUTES") != "" {
		value, err := strconv.Atoi(os.Getenv("JWT_EXPIRATION_MINUTES"))
		if err != nil || value <= 0 {
			log.Println("JWT_EXPIRATION_MINUTES not a positive number. Auto set to 60")
			value = 60
		}
		AppConfig.JWTExpirationMinutes = value
	} else {
		AppConfig.JWTExpirationMinutes = 60
	}

	AppConfig.CORSAllowedOrigins = splitList(getOrDefault("CORS_ALLOWED_ORIGINS", "*"))

	AppConfig.ServerURL = strings.TrimSuffix(getOrDefault("CHAIN_SERVER_URL", "http://localhost:8080"), "/")
	AppConfig.GRPCAddress = getOrDefault("CHAIN_GRPC_ADDRESS", "localhost:8081")

	if os.Getenv("SESSION_FILE_PATH") != "" {
		AppConfig.SessionFilePath = os.Getenv("SESSION_FILE_PATH")
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		AppConfig.SessionFilePath = filepath.Join(home, ".chain_session.json")
	}
}

func getOrDefault(key, def string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	log.Printf("%s not set. Auto set to %q", key, def)
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
