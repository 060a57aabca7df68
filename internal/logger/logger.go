package logger

import (
	"io"
	"log"
	"os"

	"chain-calculator/internal/config"

	"github.com/rs/zerolog"
)

var (
	Log     = zerolog.New(os.Stderr).With().Timestamp().Logger()
	logFile *os.File
)

// LogINFO logs s at info level.
func LogINFO(s string) {
	Log.Info().Msg(s)
}

// LogERROR logs s at error level.
func LogERROR(s string) {
	Log.Error().Msg(s)
}

// InitServerLogger writes to SERVER_LOG_FILE_PATH, or stdout when it is unset
// or cannot be opened.
func InitServerLogger() {
	initLogger(config.AppConfig.ServerLogFilePath, os.Stdout, "chain_server")
}

// InitClientLogger keeps stdout free for rendered output, so the fallback is stderr.
func InitClientLogger() {
	initLogger(config.AppConfig.ClientLogFilePath, os.Stderr, "chain_client")
}

func initLogger(path string, fallback io.Writer, component string) {
	level, err := zerolog.ParseLevel(config.AppConfig.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var writer io.Writer = fallback
	if path != "" {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o664)
		if err != nil {
			log.Printf("Failed to open log file: %v. We will use standard output", err)
		} else {
			logFile = f
			writer = zerolog.SyncWriter(f)
		}
	}

	Log = New(writer, component).Level(level)
}

// New builds a component logger on w. Tests use it with a buffer.
func New(w io.Writer, component string) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Str("component", component).Logger()
}

// CloseLogger closes the log file, if any, and points Log back at stderr.
func CloseLogger() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
		Log = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}
